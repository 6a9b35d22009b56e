package store

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"contractbook/internal/contract/models"
	"contractbook/pkg/platform/lineio"
	"contractbook/pkg/platform/sentinel"
)

const (
	// maxLineBytes bounds a single stored line. Longer lines are skipped.
	maxLineBytes = 1 << 20
	dataFileMode = 0o644
)

// LineError reports a stored line that could not be parsed.
type LineError struct {
	Line int
	Err  error
}

func (e LineError) Error() string {
	return fmt.Sprintf("line %d: %v", e.Line, e.Err)
}

func (e LineError) Unwrap() error {
	return e.Err
}

// LoadResult is what Load could recover from the data file.
type LoadResult struct {
	Contracts []*models.Contract
	// Skipped lists lines that had nine or more fields but failed to parse.
	// Lines with fewer fields are ignored without a report.
	Skipped []LineError
	// MaxID is the highest id among Contracts, zero when empty.
	MaxID int
}

// TextFile persists contracts as one pipe-delimited line each. It holds no
// cache: Load reads the whole file, Save rewrites it.
type TextFile struct {
	path string
}

func NewTextFile(path string) (*TextFile, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("data file path is required")
	}
	return &TextFile{path: path}, nil
}

// Path returns the backing file path.
func (s *TextFile) Path() string {
	return s.path
}

// Load reads every contract from the data file. A missing file yields an
// empty result. A line that fails to parse is skipped and reported in
// Skipped; loading continues with the next line. Duplicate ids keep the
// first occurrence. On a read error the contracts parsed so far are returned
// together with the error.
func (s *TextFile) Load(ctx context.Context) (*LoadResult, error) {
	result := &LoadResult{}
	f, err := os.Open(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return result, nil
		}
		return result, fmt.Errorf("open data file: %w", err)
	}
	defer f.Close()

	seen := make(map[int]bool)
	reader := lineio.NewReader(f, maxLineBytes)
	for lineNo := 1; ; lineNo++ {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		line, err := reader.ReadLine()
		if errors.Is(err, io.EOF) {
			break
		}
		if errors.Is(err, lineio.ErrLineTooLong) {
			result.Skipped = append(result.Skipped, LineError{
				Line: lineNo,
				Err:  fmt.Errorf("line longer than %d bytes: %w", maxLineBytes, err),
			})
			continue
		}
		if err != nil {
			return result, fmt.Errorf("read data file: %w", err)
		}

		contract, err := models.ParseLine(line)
		if err != nil {
			if errors.Is(err, models.ErrShortLine) {
				continue
			}
			result.Skipped = append(result.Skipped, LineError{Line: lineNo, Err: err})
			continue
		}
		if seen[contract.ID] {
			result.Skipped = append(result.Skipped, LineError{
				Line: lineNo,
				Err:  fmt.Errorf("duplicate id %d: %w", contract.ID, sentinel.ErrConflict),
			})
			continue
		}
		seen[contract.ID] = true
		result.Contracts = append(result.Contracts, contract)
		if contract.ID > result.MaxID {
			result.MaxID = contract.ID
		}
	}
	return result, nil
}

// Save rewrites the data file with one line per contract, in order.
//
// The write is atomic and durable (file sync + atomic rename + dir sync), so an
// interrupted save leaves the previous file intact.
func (s *TextFile) Save(ctx context.Context, contracts []*models.Contract) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	var buf bytes.Buffer
	for _, contract := range contracts {
		buf.WriteString(contract.Line())
		buf.WriteByte('\n')
	}
	if err := s.replace(buf.Bytes()); err != nil {
		return fmt.Errorf("write data file: %w", err)
	}
	return nil
}

// replace swaps the data file for data in one rename. The temp file lives in
// the same directory and is synced first; the directory is synced after the
// rename so the new entry survives a crash.
func (s *TextFile) replace(data []byte) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create data directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".tmp.*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	renamed := false
	defer func() {
		_ = tmp.Close()
		if !renamed {
			_ = os.Remove(tmp.Name())
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Chmod(dataFileMode); err != nil {
		return fmt.Errorf("chmod temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("rename temp file: %w", err)
	}
	renamed = true

	d, err := os.Open(dir)
	if err != nil {
		return fmt.Errorf("open data directory: %w", err)
	}
	defer d.Close()
	if err := d.Sync(); err != nil {
		return fmt.Errorf("sync data directory: %w", err)
	}
	return nil
}
