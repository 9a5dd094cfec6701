package repo

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"github.com/rs/zerolog"
	"github.com/xuri/excelize/v2"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

// SheetsStore backs tables with the tabs of a hosted Google spreadsheet.
// Calls are serialised on mu, so one process never races itself into a
// duplicate tab or header.
type SheetsStore struct {
	srv           *sheets.Service
	spreadsheetID string
	log           *zerolog.Logger

	mu     sync.Mutex
	titles map[string]struct{}
	// headed holds tabs known to have at least their header row.
	headed map[string]struct{}
}

// NewSheetsStore connects with opts, typically option.WithCredentialsFile.
func NewSheetsStore(ctx context.Context, spreadsheetID string, log *zerolog.Logger, opts ...option.ClientOption) (*SheetsStore, error) {
	if spreadsheetID == "" {
		return nil, fmt.Errorf("spreadsheet id cannot be empty")
	}
	opts = append([]option.ClientOption{option.WithScopes(sheets.SpreadsheetsScope)}, opts...)
	srv, err := sheets.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheets client: %w", err)
	}
	s := &SheetsStore{
		srv:           srv,
		spreadsheetID: spreadsheetID,
		log:           log,
		headed:        make(map[string]struct{}),
	}
	if err := s.refresh(ctx); err != nil {
		return nil, err
	}
	log.Info().Str("spreadsheet_id", spreadsheetID).Int("tabs", len(s.titles)).Msg("sheets store connected")
	return s, nil
}

// refresh reloads the tab titles. Callers hold s.mu or are the constructor.
func (s *SheetsStore) refresh(ctx context.Context) error {
	ss, err := s.srv.Spreadsheets.Get(s.spreadsheetID).
		Fields(googleapi.Field("sheets.properties.title")).
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("failed to load spreadsheet %s: %w", s.spreadsheetID, err)
	}
	titles := make(map[string]struct{}, len(ss.Sheets))
	for _, sh := range ss.Sheets {
		if sh.Properties != nil {
			titles[sh.Properties.Title] = struct{}{}
		}
	}
	s.titles = titles
	return nil
}

// has checks the cached titles and refreshes them once on a miss.
func (s *SheetsStore) has(ctx context.Context, name string) (bool, error) {
	if _, ok := s.titles[name]; ok {
		return true, nil
	}
	if err := s.refresh(ctx); err != nil {
		return false, err
	}
	_, ok := s.titles[name]
	return ok, nil
}

func (s *SheetsStore) EnsureTable(ctx context.Context, name string, header []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.headed[name]; ok {
		return nil
	}

	ok, err := s.has(ctx, name)
	if err != nil {
		return err
	}
	if ok {
		rows, err := s.read(ctx, name)
		if err != nil {
			return err
		}
		if len(rows) > 0 {
			s.headed[name] = struct{}{}
			return nil
		}
	} else if err := s.addSheet(ctx, name); err != nil {
		return err
	}

	if err := s.append(ctx, name, header); err != nil {
		return err
	}
	s.headed[name] = struct{}{}
	s.log.Info().Str("table", name).Msg("sheet header written")
	return nil
}

// addSheet creates the tab with a frozen first row. A tab created meanwhile
// by another process counts as success.
func (s *SheetsStore) addSheet(ctx context.Context, name string) error {
	req := &sheets.BatchUpdateSpreadsheetRequest{
		Requests: []*sheets.Request{{
			AddSheet: &sheets.AddSheetRequest{
				Properties: &sheets.SheetProperties{
					Title:          name,
					GridProperties: &sheets.GridProperties{FrozenRowCount: 1},
				},
			},
		}},
	}
	_, err := s.srv.Spreadsheets.BatchUpdate(s.spreadsheetID, req).Context(ctx).Do()
	if err != nil && !alreadyExists(err) {
		return fmt.Errorf("failed to add sheet %s: %w", name, err)
	}
	if err != nil {
		s.log.Info().Str("table", name).Msg("sheet already created elsewhere")
	} else {
		s.log.Info().Str("table", name).Msg("sheet created")
	}
	s.titles[name] = struct{}{}
	return nil
}

func alreadyExists(err error) bool {
	var gerr *googleapi.Error
	return errors.As(err, &gerr) &&
		gerr.Code == http.StatusBadRequest &&
		strings.Contains(strings.ToLower(gerr.Message), "already exists")
}

func (s *SheetsStore) AppendRow(ctx context.Context, name string, values []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ok, err := s.has(ctx, name)
	if err != nil {
		return err
	}
	if !ok {
		return ErrTableNotFound
	}
	return s.append(ctx, name, values)
}

func (s *SheetsStore) append(ctx context.Context, name string, values []string) error {
	vr := &sheets.ValueRange{Values: [][]interface{}{toInterfaces(values)}}
	_, err := s.srv.Spreadsheets.Values.Append(s.spreadsheetID, a1(name, "A1"), vr).
		ValueInputOption("RAW").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("failed to append row to %s: %w", name, err)
	}
	return nil
}

func (s *SheetsStore) ReadAll(ctx context.Context, name string) ([][]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ok, err := s.has(ctx, name)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrTableNotFound
	}
	return s.read(ctx, name)
}

// read returns the tab's rows padded to the header width; the API drops
// trailing empty cells.
func (s *SheetsStore) read(ctx context.Context, name string) ([][]string, error) {
	resp, err := s.srv.Spreadsheets.Values.Get(s.spreadsheetID, a1(name, "")).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", name, err)
	}
	rows := make([][]string, len(resp.Values))
	for i, r := range resp.Values {
		rows[i] = make([]string, len(r))
		for j, v := range r {
			rows[i][j] = fmt.Sprint(v)
		}
	}
	if len(rows) > 0 {
		width := len(rows[0])
		for i := range rows {
			rows[i] = normalizeRow(rows[i], width)
		}
	}
	return rows, nil
}

func (s *SheetsStore) WriteCell(ctx context.Context, name string, row, col int, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ok, err := s.has(ctx, name)
	if err != nil {
		return err
	}
	if !ok {
		return ErrTableNotFound
	}
	rows, err := s.read(ctx, name)
	if err != nil {
		return err
	}
	if err := checkCell(name, len(rows), row, col); err != nil {
		return err
	}
	cell, err := excelize.CoordinatesToCellName(col+1, row+1)
	if err != nil {
		return err
	}
	vr := &sheets.ValueRange{Values: [][]interface{}{{value}}}
	_, err = s.srv.Spreadsheets.Values.Update(s.spreadsheetID, a1(name, cell), vr).
		ValueInputOption("RAW").
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("failed to write %s: %w", a1(name, cell), err)
	}
	return nil
}

// a1 builds an A1 range for a tab; an empty cell selects the whole tab.
func a1(sheet, cell string) string {
	quoted := "'" + strings.ReplaceAll(sheet, "'", "''") + "'"
	if cell == "" {
		return quoted
	}
	return quoted + "!" + cell
}

func toInterfaces(values []string) []interface{} {
	out := make([]interface{}, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}
