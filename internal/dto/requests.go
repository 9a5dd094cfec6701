package dto

import (
	"bytes"
	"encoding/json"
)

// LooseString accepts any JSON scalar and keeps its text. Form posts send
// guestCount as 2 or "2" depending on the page, both must be stored alike.
// Falsy scalars (null, false, 0) decode to "" so field defaults apply to
// them as well.
type LooseString string

func (s *LooseString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")), bytes.Equal(data, []byte("false")):
		*s = ""
	case len(data) > 0 && data[0] == '"':
		var v string
		if err := json.Unmarshal(data, &v); err != nil {
			return err
		}
		*s = LooseString(v)
	case bytes.Equal(data, []byte("true")):
		*s = "true"
	default:
		var n json.Number
		if err := json.Unmarshal(data, &n); err != nil {
			return err
		}
		if f, err := n.Float64(); err == nil && f == 0 {
			*s = ""
			return nil
		}
		*s = LooseString(n.String())
	}
	return nil
}

func (s LooseString) String() string { return string(s) }

// Or returns def when the field was absent or empty.
func (s LooseString) Or(def string) string {
	if s == "" {
		return def
	}
	return string(s)
}

type RSVPRequest struct {
	FullName            LooseString `json:"fullName"`
	Email               LooseString `json:"email"`
	Phone               LooseString `json:"phone"`
	Organization        LooseString `json:"organization"`
	Designation         LooseString `json:"designation"`
	Attendance          LooseString `json:"attendance"`
	GuestCount          LooseString `json:"guestCount"`
	DietaryRequirements LooseString `json:"dietaryRequirements"`
}

type TributeRequest struct {
	TributeAuthor  LooseString `json:"tributeAuthor"`
	TributeMessage LooseString `json:"tributeMessage"`
}

type UpdateTributeRequest struct {
	ID       string `json:"id"`
	Author   string `json:"author" validate:"required_without=ID"`
	Approved string `json:"approved" validate:"tribute_status"`
}

type CheckInRequest struct {
	ConfirmationID string `json:"confirmationId" validate:"required"`
}
