package repo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"colloquium/internal/model"
)

var (
	ErrRSVPNotFound     = errors.New("rsvp not found")
	ErrTributeNotFound  = errors.New("tribute not found")
	ErrAlreadyCheckedIn = errors.New("already checked in")
)

type Tables struct {
	RSVP    string
	Tribute string
}

// TributeSelector picks the tribute to moderate. A non-empty ID wins;
// otherwise the first row whose author matches exactly is chosen.
type TributeSelector struct {
	ID     string
	Author string
}

func (s TributeSelector) String() string {
	if s.ID != "" {
		return s.ID
	}
	return s.Author
}

func (s TributeSelector) matches(t model.Tribute) bool {
	if s.ID != "" {
		return t.ID == s.ID
	}
	return t.Author == s.Author
}

type Repository interface {
	CreateRSVP(ctx context.Context, r *model.RSVP) error
	ListRSVPs(ctx context.Context) ([]model.RSVP, error)
	CheckInRSVP(ctx context.Context, confirmationID string) (*model.RSVP, error)
	CreateTribute(ctx context.Context, t *model.Tribute) error
	ListTributes(ctx context.Context) ([]model.Tribute, error)
	UpdateTributeStatus(ctx context.Context, sel TributeSelector, status model.TributeStatus) (*model.Tribute, error)
}

type repository struct {
	store  Store
	tables Tables
	log    *zerolog.Logger
	now    func() time.Time
}

func NewRepository(store Store, tables Tables, log *zerolog.Logger) (Repository, error) {
	if store == nil {
		return nil, fmt.Errorf("store cannot be nil")
	}
	if tables.RSVP == "" || tables.Tribute == "" {
		return nil, fmt.Errorf("table names cannot be empty")
	}
	return &repository{store: store, tables: tables, log: log, now: time.Now}, nil
}

func (r *repository) CreateRSVP(ctx context.Context, rsvp *model.RSVP) error {
	if err := r.store.EnsureTable(ctx, r.tables.RSVP, model.RSVPHeader); err != nil {
		return fmt.Errorf("failed to prepare %s: %w", r.tables.RSVP, err)
	}
	if rsvp.Timestamp == "" {
		rsvp.Timestamp = r.now().Format(model.TimestampLayout)
	}
	if err := r.store.AppendRow(ctx, r.tables.RSVP, rsvp.Row()); err != nil {
		return fmt.Errorf("failed to insert rsvp: %w", err)
	}
	return nil
}

// ListRSVPs returns ErrTableNotFound when nothing was ever submitted.
func (r *repository) ListRSVPs(ctx context.Context) ([]model.RSVP, error) {
	rows, err := r.store.ReadAll(ctx, r.tables.RSVP)
	if err != nil {
		return nil, err
	}
	r.checkHeader(r.tables.RSVP, rows, model.RSVPHeader)

	rsvps := make([]model.RSVP, 0, dataRows(rows))
	for i := 1; i < len(rows); i++ {
		rsvps = append(rsvps, model.RSVPFromRow(rows[i]))
	}
	return rsvps, nil
}

func (r *repository) CheckInRSVP(ctx context.Context, confirmationID string) (*model.RSVP, error) {
	rows, err := r.store.ReadAll(ctx, r.tables.RSVP)
	if err != nil {
		return nil, err
	}
	for i := 1; i < len(rows); i++ {
		rsvp := model.RSVPFromRow(rows[i])
		if rsvp.ConfirmationID != confirmationID {
			continue
		}
		if rsvp.CheckedIn == model.FlagYes {
			return &rsvp, ErrAlreadyCheckedIn
		}
		if err := r.store.WriteCell(ctx, r.tables.RSVP, i, model.RSVPColCheckedIn, model.FlagYes); err != nil {
			return nil, fmt.Errorf("failed to check in %s: %w", confirmationID, err)
		}
		rsvp.CheckedIn = model.FlagYes
		return &rsvp, nil
	}
	return nil, ErrRSVPNotFound
}

func (r *repository) CreateTribute(ctx context.Context, t *model.Tribute) error {
	if err := r.store.EnsureTable(ctx, r.tables.Tribute, model.TributeHeader); err != nil {
		return fmt.Errorf("failed to prepare %s: %w", r.tables.Tribute, err)
	}
	if t.Timestamp == "" {
		t.Timestamp = r.now().Format(model.TimestampLayout)
	}
	if err := r.store.AppendRow(ctx, r.tables.Tribute, t.Row()); err != nil {
		return fmt.Errorf("failed to insert tribute: %w", err)
	}
	return nil
}

func (r *repository) ListTributes(ctx context.Context) ([]model.Tribute, error) {
	rows, err := r.store.ReadAll(ctx, r.tables.Tribute)
	if err != nil {
		return nil, err
	}
	r.checkHeader(r.tables.Tribute, rows, model.TributeHeader)

	tributes := make([]model.Tribute, 0, dataRows(rows))
	for i := 1; i < len(rows); i++ {
		tributes = append(tributes, model.TributeFromRow(rows[i]))
	}
	return tributes, nil
}

// UpdateTributeStatus writes the status of the first row in storage order
// matching sel. Later rows with the same author are never touched.
func (r *repository) UpdateTributeStatus(ctx context.Context, sel TributeSelector, status model.TributeStatus) (*model.Tribute, error) {
	rows, err := r.store.ReadAll(ctx, r.tables.Tribute)
	if err != nil {
		return nil, err
	}
	for i := 1; i < len(rows); i++ {
		t := model.TributeFromRow(rows[i])
		if !sel.matches(t) {
			continue
		}
		if err := r.store.WriteCell(ctx, r.tables.Tribute, i, model.TributeColApproved, string(status)); err != nil {
			return nil, fmt.Errorf("failed to update tribute status: %w", err)
		}
		t.Approved = status
		return &t, nil
	}
	return nil, ErrTributeNotFound
}

// checkHeader only warns: rows still map positionally. Missing trailing
// columns are fine (older tribute sheets have no Tribute ID).
func (r *repository) checkHeader(table string, rows [][]string, want []string) {
	if len(rows) == 0 {
		return
	}
	got := rows[0]
	for i := 0; i < len(got) && i < len(want); i++ {
		if got[i] != want[i] {
			r.log.Warn().Str("table", table).Strs("header", got).Msg("unexpected header row")
			return
		}
	}
}

func dataRows(rows [][]string) int {
	if len(rows) == 0 {
		return 0
	}
	return len(rows) - 1
}
