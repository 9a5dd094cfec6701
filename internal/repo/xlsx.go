package repo

import (
	"context"
	"fmt"
	"os"
	"sync"

	"github.com/rs/zerolog"
	"github.com/xuri/excelize/v2"
)

const defaultSheet = "Sheet1"

// XLSXStore keeps every table as a worksheet of one local workbook. The file
// is written after each mutation.
type XLSXStore struct {
	mu   sync.Mutex
	path string
	file *excelize.File
	log  *zerolog.Logger
}

func NewXLSXStore(path string, log *zerolog.Logger) (*XLSXStore, error) {
	var (
		f   *excelize.File
		err error
	)
	if _, statErr := os.Stat(path); statErr == nil {
		f, err = excelize.OpenFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to open workbook %s: %w", path, err)
		}
	} else {
		f = excelize.NewFile()
		if err := f.SaveAs(path); err != nil {
			return nil, fmt.Errorf("failed to create workbook %s: %w", path, err)
		}
	}
	log.Info().Str("path", path).Msg("xlsx store opened")
	return &XLSXStore{path: path, file: f, log: log}, nil
}

func (s *XLSXStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.file.Close()
}

func (s *XLSXStore) exists(name string) bool {
	idx, err := s.file.GetSheetIndex(name)
	return err == nil && idx >= 0
}

func (s *XLSXStore) EnsureTable(_ context.Context, name string, header []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.exists(name) {
		if !s.isEmpty(name) {
			return nil
		}
	} else {
		if _, err := s.file.NewSheet(name); err != nil {
			return fmt.Errorf("failed to create sheet %s: %w", name, err)
		}
		if name != defaultSheet && s.exists(defaultSheet) && s.isEmpty(defaultSheet) {
			s.file.DeleteSheet(defaultSheet)
		}
	}
	if err := s.setRow(name, 1, header); err != nil {
		return err
	}
	if err := s.file.SetPanes(name, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return fmt.Errorf("failed to freeze header of %s: %w", name, err)
	}
	s.log.Info().Str("table", name).Msg("sheet header written")
	return s.file.Save()
}

func (s *XLSXStore) isEmpty(sheet string) bool {
	rows, err := s.file.GetRows(sheet)
	return err == nil && len(rows) == 0
}

func (s *XLSXStore) AppendRow(_ context.Context, name string, values []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.exists(name) {
		return ErrTableNotFound
	}
	rows, err := s.file.GetRows(name)
	if err != nil {
		return fmt.Errorf("failed to read sheet %s: %w", name, err)
	}
	width := 0
	if len(rows) > 0 {
		width = len(rows[0])
	}
	if err := s.setRow(name, len(rows)+1, normalizeRow(values, width)); err != nil {
		return err
	}
	return s.file.Save()
}

func (s *XLSXStore) ReadAll(_ context.Context, name string) ([][]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.exists(name) {
		return nil, ErrTableNotFound
	}
	rows, err := s.file.GetRows(name)
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %s: %w", name, err)
	}
	return rows, nil
}

func (s *XLSXStore) WriteCell(_ context.Context, name string, row, col int, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.exists(name) {
		return ErrTableNotFound
	}
	rows, err := s.file.GetRows(name)
	if err != nil {
		return fmt.Errorf("failed to read sheet %s: %w", name, err)
	}
	if err := checkCell(name, len(rows), row, col); err != nil {
		return err
	}
	cell, err := excelize.CoordinatesToCellName(col+1, row+1)
	if err != nil {
		return err
	}
	if err := s.file.SetCellStr(name, cell, value); err != nil {
		return fmt.Errorf("failed to write %s!%s: %w", name, cell, err)
	}
	return s.file.Save()
}

// setRow writes values as string cells starting at column A of the 1-based
// row.
func (s *XLSXStore) setRow(name string, row int, values []string) error {
	for i, v := range values {
		cell, err := excelize.CoordinatesToCellName(i+1, row)
		if err != nil {
			return err
		}
		if err := s.file.SetCellStr(name, cell, v); err != nil {
			return fmt.Errorf("failed to write %s!%s: %w", name, cell, err)
		}
	}
	return nil
}
