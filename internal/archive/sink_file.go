package archive

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// FileSink writes one <dir>/<call_id>.json file per call. A repeated call id
// overwrites the earlier file.
type FileSink struct {
	dir string
}

func NewFileSink(dir string) (*FileSink, error) {
	if dir == "" {
		return nil, fmt.Errorf("archive directory is required")
	}
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("create archive directory: %w", err)
	}
	return &FileSink{dir: dir}, nil
}

func (s *FileSink) Write(_ context.Context, entry Entry) error {
	raw, err := json.MarshalIndent(entry, "", "  ")
	if err != nil {
		return fmt.Errorf("encode archive entry: %w", err)
	}

	path := filepath.Join(s.dir, fileName(entry.CallID))
	tmp, err := os.CreateTemp(s.dir, ".archive-*")
	if err != nil {
		return fmt.Errorf("create archive temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		return fmt.Errorf("write archive entry: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close archive entry: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("move archive entry into place: %w", err)
	}
	return nil
}

func (s *FileSink) Close() error {
	return nil
}

// fileName keeps call ids from escaping the archive directory.
func fileName(callID string) string {
	safe := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, callID)
	return safe + ".json"
}
