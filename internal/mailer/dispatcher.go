package mailer

import (
	"context"
	"encoding/json"
	"fmt"
	"html/template"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"colloquium/internal/model"
)

type EventDetails struct {
	Name      string
	Honoree   string
	Date      string
	Time      string
	Venue     string
	Address   string
	DressCode string
	Code      string
}

// QR payload encodings for the check-in code.
const (
	QRPayloadConfirmationID = "confirmation_id"
	QRPayloadEventCode      = "event_code"
	QRPayloadJSON           = "json"
)

// QRConfig builds the image URL. URLTemplate holds {data} and optionally
// {size}; data is query-escaped before substitution.
type QRConfig struct {
	URLTemplate string
	Payload     string
	Size        int
}

type Config struct {
	Event               EventDetails
	QR                  QRConfig
	SenderName          string
	OrganizerAddress    string
	ConfirmationSubject string
	TributeSubject      string
}

// Dispatcher renders the HTML notifications and hands them to a Sender.
type Dispatcher struct {
	sender Sender
	cfg    Config
	log    *zerolog.Logger
	now    func() time.Time
}

func NewDispatcher(sender Sender, cfg Config, log *zerolog.Logger) *Dispatcher {
	return &Dispatcher{sender: sender, cfg: cfg, log: log, now: time.Now}
}

func (d *Dispatcher) SendConfirmation(ctx context.Context, rsvp model.RSVP) error {
	if rsvp.Email == "" {
		d.log.Debug().Str("confirmation_id", rsvp.ConfirmationID).Msg("no email on rsvp, confirmation skipped")
		return nil
	}

	code := rsvp.ConfirmationID
	if d.cfg.QR.Payload == QRPayloadEventCode {
		code = d.cfg.Event.Code
	}
	html, err := render(confirmationTmpl, confirmationView{
		Name:      rsvp.FullName,
		Code:      code,
		QRCodeURL: template.URL(d.QRCodeURL(rsvp)),
		Event:     d.cfg.Event,
		Details:   d.cfg.Event.details(),
		Year:      d.now().Year(),
	})
	if err != nil {
		return fmt.Errorf("render confirmation: %w", err)
	}

	return d.sender.Send(ctx, Message{
		To:       rsvp.Email,
		FromName: d.cfg.SenderName,
		Subject:  d.cfg.ConfirmationSubject,
		HTML:     html,
	})
}

func (d *Dispatcher) SendTributeNotice(ctx context.Context, t model.Tribute) error {
	if d.cfg.OrganizerAddress == "" {
		d.log.Debug().Msg("organizer address not configured, tribute notice skipped")
		return nil
	}
	html, err := render(tributeNoticeTmpl, tributeView{
		Author:    t.Author,
		Message:   t.Message,
		Submitted: d.now().Format("02 Jan 2006 15:04 MST"),
	})
	if err != nil {
		return fmt.Errorf("render tribute notice: %w", err)
	}

	return d.sender.Send(ctx, Message{
		To:       d.cfg.OrganizerAddress,
		FromName: d.cfg.SenderName,
		Subject:  d.cfg.TributeSubject,
		HTML:     html,
	})
}

// QRCodeURL encodes the check-in payload chosen by QRConfig.Payload.
func (d *Dispatcher) QRCodeURL(rsvp model.RSVP) string {
	var data string
	switch d.cfg.QR.Payload {
	case QRPayloadEventCode:
		data = d.cfg.Event.Code
	case QRPayloadJSON:
		b, _ := json.Marshal(struct {
			Name           string `json:"name"`
			Email          string `json:"email"`
			ConfirmationID string `json:"confirmationId"`
		}{rsvp.FullName, rsvp.Email, rsvp.ConfirmationID})
		data = string(b)
	default:
		data = rsvp.ConfirmationID
	}

	size := d.cfg.QR.Size
	if size <= 0 {
		size = 200
	}
	return strings.NewReplacer(
		"{data}", url.QueryEscape(data),
		"{size}", strconv.Itoa(size),
	).Replace(d.cfg.QR.URLTemplate)
}
