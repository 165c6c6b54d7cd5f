package journal

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/spf13/afero"

	logx "countdown/pkg/logx"
)

// fileStore appends JSON Lines to a single file.
type fileStore struct {
	log logx.Logger

	mu   sync.Mutex
	fs   afero.Fs
	path string
	f    afero.File
}

// OpenFile opens (or creates) a JSON Lines journal at path on fs.
func OpenFile(fs afero.Fs, path string, log logx.Logger) (Store, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("journal.path is required for file driver")
	}
	if log.IsZero() {
		log = logx.Nop()
	}
	if err := fs.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	f, err := fs.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		return nil, err
	}
	return &fileStore{log: log, fs: fs, path: path, f: f}, nil
}

func (s *fileStore) Append(ctx context.Context, r Record) error {
	_ = ctx
	b, err := json.Marshal(r)
	if err != nil {
		return err
	}
	b = append(b, '\n')

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.f == nil {
		return ErrClosed
	}
	_, err = s.f.Write(b)
	return err
}

func (s *fileStore) Recent(ctx context.Context, n int) ([]Record, error) {
	_ = ctx
	if n <= 0 {
		return nil, nil
	}
	s.mu.Lock()
	closed := s.f == nil
	s.mu.Unlock()
	if closed {
		return nil, ErrClosed
	}

	f, err := s.fs.Open(s.path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	// Keep a ring of the last n records.
	ring := make([]Record, 0, n)
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		var r Record
		if err := json.Unmarshal(sc.Bytes(), &r); err != nil {
			s.log.Debug("skipping bad journal line", logx.Err(err))
			continue
		}
		if len(ring) == n {
			copy(ring, ring[1:])
			ring = ring[:n-1]
		}
		ring = append(ring, r)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}

	out := make([]Record, len(ring))
	for i := range ring {
		out[i] = ring[len(ring)-1-i]
	}
	return out, nil
}

func (s *fileStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.f == nil {
		return nil
	}
	err := s.f.Close()
	s.f = nil
	return err
}
