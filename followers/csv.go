package followers

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/lukehollenback/birdcall/platform"
)

var csvHeader = []string{"id", "screen_name", "name", "location", "bio", "website", "direct_message_link", "direct_messaged"}

// Follower snapshot as a CSV file with a header row. A missing file is an empty store.
type CSVStore struct {
	Path string
}

func (s *CSVStore) Load(ctx context.Context) ([]*Record, error) {
	f, err := os.Open(s.Path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("opening follower snapshot: %w", err)
	}
	defer f.Close()

	records, err := ReadCSV(f)
	if err != nil {
		return nil, fmt.Errorf("reading follower snapshot %s: %w", s.Path, err)
	}
	return records, nil
}

// Writes to a temporary file in the same directory, then renames over the destination, so an
// interrupted run never leaves a truncated snapshot behind.
func (s *CSVStore) Save(ctx context.Context, records []*Record) error {
	dir := filepath.Dir(s.Path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(s.Path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("creating follower snapshot: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := WriteCSV(tmp, records); err != nil {
		tmp.Close()
		return fmt.Errorf("writing follower snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("writing follower snapshot: %w", err)
	}
	// CreateTemp uses 0600; keep the mode of the snapshot being replaced
	mode := fs.FileMode(0o644)
	if info, err := os.Stat(s.Path); err == nil {
		mode = info.Mode().Perm()
	}
	if err := os.Chmod(tmp.Name(), mode); err != nil {
		return fmt.Errorf("writing follower snapshot: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.Path); err != nil {
		return fmt.Errorf("replacing follower snapshot: %w", err)
	}
	return nil
}

func formatBool(b bool) string {
	if b {
		return "True"
	}
	return "False"
}

func parseBool(s string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "1":
		return true, nil
	case "false", "0", "":
		return false, nil
	}
	return false, fmt.Errorf("invalid boolean %q", s)
}

func WriteCSV(w io.Writer, records []*Record) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	for _, r := range records {
		row := []string{
			r.ID.String(),
			r.ScreenName,
			r.Name,
			r.Location,
			r.Bio,
			r.Website,
			r.DirectMessageLink,
			formatBool(r.DirectMessaged),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// Parses a snapshot. Columns are located by header name, so files with reordered or extra
// columns still load; the id column is required.
func ReadCSV(r io.Reader) ([]*Record, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))] = i
	}
	if _, ok := cols["id"]; !ok {
		return nil, fmt.Errorf("missing id column in header")
	}
	field := func(row []string, name string) string {
		i, ok := cols[name]
		if !ok || i >= len(row) {
			return ""
		}
		return row[i]
	}

	var out []*Record
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		line, _ := cr.FieldPos(0)
		id, err := strconv.ParseInt(strings.TrimSpace(field(row, "id")), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: invalid id: %w", line, err)
		}
		dm, err := parseBool(field(row, "direct_messaged"))
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		rec := &Record{
			ID:                platform.AccountID(id),
			ScreenName:        field(row, "screen_name"),
			Name:              field(row, "name"),
			Location:          field(row, "location"),
			Bio:               field(row, "bio"),
			Website:           field(row, "website"),
			DirectMessageLink: field(row, "direct_message_link"),
			DirectMessaged:    dm,
		}
		if rec.DirectMessageLink == "" {
			rec.DirectMessageLink = DirectMessageLink(rec.ID)
		}
		out = append(out, rec)
	}
	return out, nil
}
