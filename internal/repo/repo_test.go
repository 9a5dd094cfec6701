package repo

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"

	"colloquium/internal/model"
)

var testTables = Tables{RSVP: "RSVPs", Tribute: "Tributes"}

func newTestRepo(t *testing.T, store Store) Repository {
	t.Helper()
	log := zerolog.Nop()
	r, err := NewRepository(store, testTables, &log)
	if err != nil {
		t.Fatalf("NewRepository: %v", err)
	}
	return r
}

func TestMemoryStoreLifecycle(t *testing.T) {
	testStoreLifecycle(t, NewMemoryStore())
}

func TestXLSXStoreLifecycle(t *testing.T) {
	log := zerolog.Nop()
	path := filepath.Join(t.TempDir(), "colloquium.xlsx")
	s, err := NewXLSXStore(path, &log)
	if err != nil {
		t.Fatalf("NewXLSXStore: %v", err)
	}
	defer s.Close()
	testStoreLifecycle(t, s)

	// Reopening the workbook sees the persisted rows.
	reopened, err := NewXLSXStore(path, &log)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()
	rows, err := reopened.ReadAll(context.Background(), "People")
	if err != nil {
		t.Fatalf("ReadAll after reopen: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("expected 3 rows after reopen, got %d", len(rows))
	}
}

func testStoreLifecycle(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()

	if _, err := s.ReadAll(ctx, "People"); !errors.Is(err, ErrTableNotFound) {
		t.Fatalf("expected ErrTableNotFound for missing table, got %v", err)
	}
	if err := s.AppendRow(ctx, "People", []string{"x"}); !errors.Is(err, ErrTableNotFound) {
		t.Fatalf("expected ErrTableNotFound on append, got %v", err)
	}

	header := []string{"Name", "Role", "Status"}
	if err := s.EnsureTable(ctx, "People", header); err != nil {
		t.Fatalf("EnsureTable: %v", err)
	}
	// A second call must not duplicate the header.
	if err := s.EnsureTable(ctx, "People", header); err != nil {
		t.Fatalf("EnsureTable again: %v", err)
	}
	if err := s.AppendRow(ctx, "People", []string{"Ada", "", "Pending"}); err != nil {
		t.Fatalf("AppendRow: %v", err)
	}
	if err := s.AppendRow(ctx, "People", []string{"Grace", "Admiral", "Pending"}); err != nil {
		t.Fatalf("AppendRow: %v", err)
	}
	if err := s.WriteCell(ctx, "People", 2, 2, "Approved"); err != nil {
		t.Fatalf("WriteCell: %v", err)
	}
	if err := s.WriteCell(ctx, "People", 0, 0, "Nope"); err == nil {
		t.Fatal("expected header row to be read-only")
	}
	if err := s.WriteCell(ctx, "People", 5, 0, "Nope"); err == nil {
		t.Fatal("expected out of range row to fail")
	}

	rows, err := s.ReadAll(ctx, "People")
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("expected header + 2 rows, got %d: %v", len(rows), rows)
	}
	if rows[0][0] != "Name" || rows[0][2] != "Status" {
		t.Errorf("unexpected header %v", rows[0])
	}
	if rows[1][0] != "Ada" || rows[1][2] != "Pending" {
		t.Errorf("unexpected first row %v", rows[1])
	}
	if rows[2][2] != "Approved" {
		t.Errorf("expected Grace approved, got %v", rows[2])
	}
}

func TestRepositoryRSVPRoundTrip(t *testing.T) {
	ctx := context.Background()
	r := newTestRepo(t, NewMemoryStore())

	if _, err := r.ListRSVPs(ctx); !errors.Is(err, ErrTableNotFound) {
		t.Fatalf("expected ErrTableNotFound before first RSVP, got %v", err)
	}

	in := &model.RSVP{
		ConfirmationID: "COL-ABCDEF12",
		FullName:       "Ada Lovelace",
		Email:          "ada@example.com",
		Attendance:     "yes",
		GuestCount:     "1",
		CheckedIn:      model.FlagNo,
	}
	if err := r.CreateRSVP(ctx, in); err != nil {
		t.Fatalf("CreateRSVP: %v", err)
	}
	if in.Timestamp == "" {
		t.Error("expected timestamp to be set on insert")
	}

	rsvps, err := r.ListRSVPs(ctx)
	if err != nil {
		t.Fatalf("ListRSVPs: %v", err)
	}
	if len(rsvps) != 1 || rsvps[0] != *in {
		t.Fatalf("round trip mismatch: got %+v want %+v", rsvps, *in)
	}

	got, err := r.CheckInRSVP(ctx, "COL-ABCDEF12")
	if err != nil {
		t.Fatalf("CheckInRSVP: %v", err)
	}
	if got.CheckedIn != model.FlagYes {
		t.Errorf("expected checked in, got %q", got.CheckedIn)
	}
	if _, err := r.CheckInRSVP(ctx, "COL-ABCDEF12"); !errors.Is(err, ErrAlreadyCheckedIn) {
		t.Errorf("expected ErrAlreadyCheckedIn, got %v", err)
	}
	if _, err := r.CheckInRSVP(ctx, "COL-00000000"); !errors.Is(err, ErrRSVPNotFound) {
		t.Errorf("expected ErrRSVPNotFound, got %v", err)
	}
}

func TestUpdateTributeStatusFirstAuthorMatchOnly(t *testing.T) {
	ctx := context.Background()
	r := newTestRepo(t, NewMemoryStore())

	for _, id := range []string{"TRB-00000001", "TRB-00000002"} {
		if err := r.CreateTribute(ctx, &model.Tribute{
			ID:             id,
			Author:         "Grace",
			Message:        "Thank you " + id,
			Approved:       model.TributePending,
			IncludedInBook: model.FlagNo,
		}); err != nil {
			t.Fatalf("CreateTribute: %v", err)
		}
	}

	updated, err := r.UpdateTributeStatus(ctx, TributeSelector{Author: "Grace"}, model.TributeApproved)
	if err != nil {
		t.Fatalf("UpdateTributeStatus: %v", err)
	}
	if updated.ID != "TRB-00000001" {
		t.Errorf("expected first tribute updated, got %s", updated.ID)
	}

	tributes, err := r.ListTributes(ctx)
	if err != nil {
		t.Fatalf("ListTributes: %v", err)
	}
	if tributes[0].Approved != model.TributeApproved {
		t.Errorf("first tribute = %q, want Approved", tributes[0].Approved)
	}
	if tributes[1].Approved != model.TributePending {
		t.Errorf("second tribute = %q, want Pending", tributes[1].Approved)
	}

	// The id selector reaches the second row.
	if _, err := r.UpdateTributeStatus(ctx, TributeSelector{ID: "TRB-00000002"}, model.TributeRejected); err != nil {
		t.Fatalf("UpdateTributeStatus by id: %v", err)
	}
	tributes, _ = r.ListTributes(ctx)
	if tributes[1].Approved != model.TributeRejected {
		t.Errorf("second tribute = %q, want Rejected", tributes[1].Approved)
	}

	if _, err := r.UpdateTributeStatus(ctx, TributeSelector{Author: "Nobody"}, model.TributeApproved); !errors.Is(err, ErrTributeNotFound) {
		t.Errorf("expected ErrTributeNotFound, got %v", err)
	}
}

func TestLegacyTributeSheetWithoutIDColumn(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	legacy := []string{"Timestamp", "Author", "Message", "Approved", "Included in Book"}
	if err := store.EnsureTable(ctx, "Tributes", legacy); err != nil {
		t.Fatal(err)
	}
	if err := store.AppendRow(ctx, "Tributes", []string{"ts", "Ada", "Hello", "", "No"}); err != nil {
		t.Fatal(err)
	}

	r := newTestRepo(t, store)
	tributes, err := r.ListTributes(ctx)
	if err != nil {
		t.Fatalf("ListTributes: %v", err)
	}
	if len(tributes) != 1 || tributes[0].Author != "Ada" || tributes[0].ID != "" {
		t.Fatalf("unexpected tributes %+v", tributes)
	}
}

func TestXLSXStoreWritesHeaderIntoEmptyExistingSheet(t *testing.T) {
	log := zerolog.Nop()
	path := filepath.Join(t.TempDir(), "blank.xlsx")
	s, err := NewXLSXStore(path, &log)
	if err != nil {
		t.Fatalf("NewXLSXStore: %v", err)
	}
	defer s.Close()
	ctx := context.Background()

	// A fresh workbook already carries an empty Sheet1.
	header := []string{"Name", "Status"}
	if err := s.EnsureTable(ctx, defaultSheet, header); err != nil {
		t.Fatalf("EnsureTable: %v", err)
	}
	if err := s.AppendRow(ctx, defaultSheet, []string{"Ada", "Pending"}); err != nil {
		t.Fatalf("AppendRow: %v", err)
	}
	rows, err := s.ReadAll(ctx, defaultSheet)
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected header + 1 row, got %d: %v", len(rows), rows)
	}
	if rows[0][0] != "Name" || rows[1][0] != "Ada" {
		t.Errorf("unexpected rows %v", rows)
	}
	if err := s.WriteCell(ctx, defaultSheet, 1, 1, "Approved"); err != nil {
		t.Fatalf("WriteCell on first data row: %v", err)
	}
}
