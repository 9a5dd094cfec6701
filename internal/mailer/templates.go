package mailer

import (
	"bytes"
	"html/template"
)

var confirmationTmpl = template.Must(template.New("confirmation").Parse(`<!DOCTYPE html>
<html>
<head><meta charset="UTF-8"></head>
<body style="font-family: Georgia, serif; margin: 0; padding: 0; background-color: #faf8f3;">
  <div style="max-width: 600px; margin: 0 auto; background: white;">
    <div style="background: #2d519e; color: white; padding: 40px 20px; text-align: center;">
      <h1 style="margin: 0; font-size: 28px;">RSVP Confirmed</h1>
      <p style="color: #d4af6a; margin: 8px 0 0 0; font-size: 16px;">{{.Event.Name}}</p>
    </div>
    <div style="padding: 40px 30px;">
      <p style="font-size: 18px; margin-bottom: 20px; color: #1a1a2e;">Dear {{.Name}},</p>
      <p style="font-size: 16px; line-height: 1.6; color: #3a2e1e;">
        Thank you for confirming your attendance{{if .Event.Honoree}} at the colloquium in honour of <strong>{{.Event.Honoree}}</strong>{{end}}. We look forward to your presence.
      </p>
      <div style="background: #f5f3ed; border: 2px solid #b8943f; border-radius: 8px; padding: 30px; text-align: center; margin: 30px 0;">
        <div style="font-size: 14px; text-transform: uppercase; letter-spacing: 0.15em; color: #b8943f; font-weight: 600;">Your Check-in QR Code</div>
        <div style="background: white; padding: 20px; display: inline-block; border-radius: 8px; margin: 20px 0;">
          <img src="{{.QRCodeURL}}" alt="QR Code" style="width: 200px; height: 200px; display: block;" />
        </div>
        <div style="font-size: 28px; font-weight: bold; color: #2d519e; font-family: 'Courier New', monospace;">{{.Code}}</div>
        <div style="font-size: 14px; color: #6b5e3e; margin-top: 15px;">Present this at the event entrance</div>
      </div>
      <div style="background: #f5f3ed; border-left: 4px solid #b8943f; padding: 20px; margin: 25px 0;">
        <h3 style="margin: 0 0 15px 0; color: #2d519e; font-size: 16px; text-transform: uppercase;">Event Details</h3>
        {{- range .Details}}
        <p style="margin: 12px 0; font-size: 15px; color: #3a2e1e;"><strong style="color: #2d519e;">{{.Label}}:</strong> {{.Value}}</p>
        {{- end}}
      </div>
    </div>
    <div style="background: #1a1a2e; color: #888; padding: 20px; text-align: center; font-size: 12px;">
      &copy; {{.Year}} &mdash; {{.Event.Name}}
    </div>
  </div>
</body>
</html>`))

var tributeNoticeTmpl = template.Must(template.New("tribute").Parse(`<div style="font-family: Georgia, serif; max-width: 600px; margin: 0 auto; padding: 24px;">
  <h2 style="color: #0f2044;">New Tribute Submitted</h2>
  <p><strong>From:</strong> {{.Author}}</p>
  <blockquote style="border-left: 3px solid #b8943f; padding-left: 16px; color: #555; font-style: italic;">
    {{.Message}}
  </blockquote>
  <p>Log in to the Admin panel on your portal to approve or reject this tribute.</p>
  <p style="font-size: 12px; color: #888;">Submitted: {{.Submitted}}</p>
</div>`))

type detail struct {
	Label string
	Value string
}

type confirmationView struct {
	Name      string
	Code      string
	QRCodeURL template.URL
	Event     EventDetails
	Details   []detail
	Year      int
}

type tributeView struct {
	Author    string
	Message   string
	Submitted string
}

func render(t *template.Template, data any) (string, error) {
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// details lists the configured event lines, skipping blank ones.
func (e EventDetails) details() []detail {
	all := []detail{
		{"Event", e.Name},
		{"Date", e.Date},
		{"Time", e.Time},
		{"Venue", e.Venue},
		{"Address", e.Address},
		{"Dress Code", e.DressCode},
	}
	out := all[:0]
	for _, d := range all {
		if d.Value != "" {
			out = append(out, d)
		}
	}
	return out
}
