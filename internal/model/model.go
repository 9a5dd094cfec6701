package model

import (
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
)

const TimestampLayout = time.RFC3339

const (
	ConfirmationPrefix = "COL-"
	TributeIDPrefix    = "TRB-"

	AttendingValue = "yes"
	DefaultGuests  = "1"
	DefaultAuthor  = "Anonymous"
	FlagNo         = "No"
	FlagYes        = "Yes"
)

var RSVPHeader = []string{
	"Timestamp", "Confirmation ID", "Full Name", "Email", "Phone",
	"Organization", "Designation", "Attendance", "Guest Count",
	"Dietary Requirements", "Checked In",
}

var TributeHeader = []string{
	"Timestamp", "Author", "Message", "Approved", "Included in Book", "Tribute ID",
}

// Column positions inside RSVPHeader.
const (
	RSVPColTimestamp = iota
	RSVPColConfirmationID
	RSVPColFullName
	RSVPColEmail
	RSVPColPhone
	RSVPColOrganization
	RSVPColDesignation
	RSVPColAttendance
	RSVPColGuestCount
	RSVPColDietary
	RSVPColCheckedIn
)

// Column positions inside TributeHeader.
const (
	TributeColTimestamp = iota
	TributeColAuthor
	TributeColMessage
	TributeColApproved
	TributeColInBook
	TributeColID
)

type TributeStatus string

const (
	TributePending  TributeStatus = "Pending"
	TributeApproved TributeStatus = "Approved"
	TributeRejected TributeStatus = "Rejected"
)

func (s TributeStatus) Valid() bool {
	switch s {
	case TributePending, TributeApproved, TributeRejected:
		return true
	}
	return false
}

// RSVP json tags mirror the sheet header so the getRSVPs projection keeps the
// column names the portal frontend already reads.
type RSVP struct {
	Timestamp           string `json:"Timestamp"`
	ConfirmationID      string `json:"Confirmation ID"`
	FullName            string `json:"Full Name"`
	Email               string `json:"Email"`
	Phone               string `json:"Phone"`
	Organization        string `json:"Organization"`
	Designation         string `json:"Designation"`
	Attendance          string `json:"Attendance"`
	GuestCount          string `json:"Guest Count"`
	DietaryRequirements string `json:"Dietary Requirements"`
	CheckedIn           string `json:"Checked In"`
}

type Tribute struct {
	Timestamp      string        `json:"timestamp"`
	ID             string        `json:"id"`
	Author         string        `json:"author"`
	Message        string        `json:"message"`
	Approved       TributeStatus `json:"approved"`
	IncludedInBook string        `json:"includedInBook"`
}

type Stats struct {
	TotalRSVPs       int `json:"totalRSVPs"`
	Attending        int `json:"attending"`
	NotAttending     int `json:"notAttending"`
	TotalGuests      int `json:"totalGuests"`
	TotalTributes    int `json:"totalTributes"`
	ApprovedTributes int `json:"approvedTributes"`
}

// IsAttending is a strict literal match: "Yes" or "YES" do not count.
func (r RSVP) IsAttending() bool {
	return r.Attendance == AttendingValue
}

// Guests parses the guest count the way the portal always has: the leading
// integer of the cell, with unparsable, empty and zero values counting as 1.
func (r RSVP) Guests() int {
	if n := leadingInt(r.GuestCount); n != 0 {
		return n
	}
	return 1
}

func leadingInt(s string) int {
	s = strings.TrimLeftFunc(s, unicode.IsSpace)
	sign := 1
	if s != "" && (s[0] == '+' || s[0] == '-') {
		if s[0] == '-' {
			sign = -1
		}
		s = s[1:]
	}
	n := 0
	for _, c := range s {
		if c < '0' || c > '9' {
			break
		}
		n = n*10 + int(c-'0')
		if n > 1<<31 {
			break
		}
	}
	return sign * n
}

func (r RSVP) Row() []string {
	return []string{
		r.Timestamp,
		r.ConfirmationID,
		r.FullName,
		r.Email,
		r.Phone,
		r.Organization,
		r.Designation,
		r.Attendance,
		r.GuestCount,
		r.DietaryRequirements,
		r.CheckedIn,
	}
}

func RSVPFromRow(row []string) RSVP {
	row = pad(row, len(RSVPHeader))
	return RSVP{
		Timestamp:           row[RSVPColTimestamp],
		ConfirmationID:      row[RSVPColConfirmationID],
		FullName:            row[RSVPColFullName],
		Email:               row[RSVPColEmail],
		Phone:               row[RSVPColPhone],
		Organization:        row[RSVPColOrganization],
		Designation:         row[RSVPColDesignation],
		Attendance:          row[RSVPColAttendance],
		GuestCount:          row[RSVPColGuestCount],
		DietaryRequirements: row[RSVPColDietary],
		CheckedIn:           row[RSVPColCheckedIn],
	}
}

func (t Tribute) Row() []string {
	return []string{
		t.Timestamp,
		t.Author,
		t.Message,
		string(t.Approved),
		t.IncludedInBook,
		t.ID,
	}
}

// TributeFromRow keeps an empty status cell empty; callers decide how to
// present it.
func TributeFromRow(row []string) Tribute {
	row = pad(row, len(TributeHeader))
	return Tribute{
		Timestamp:      row[TributeColTimestamp],
		Author:         row[TributeColAuthor],
		Message:        row[TributeColMessage],
		Approved:       TributeStatus(row[TributeColApproved]),
		IncludedInBook: row[TributeColInBook],
		ID:             row[TributeColID],
	}
}

func pad(row []string, n int) []string {
	if len(row) >= n {
		return row
	}
	out := make([]string, n)
	copy(out, row)
	return out
}

func NewConfirmationID() string {
	return ConfirmationPrefix + shortID()
}

func NewTributeID() string {
	return TributeIDPrefix + shortID()
}

func shortID() string {
	return strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
}
