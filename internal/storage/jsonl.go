package storage

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"marketScope/internal/model"
)

// JsonlStorage writes venue snapshots to a JSONL file, one venue per line.
// Each batch replaces the previous file content.
type JsonlStorage struct {
	path string
	mu   sync.Mutex
}

func NewJsonlStorage(path string) *JsonlStorage {
	return &JsonlStorage{path: path}
}

// PutVenueBatch writes venues to a temp file and renames it over the target.
func (s *JsonlStorage) PutVenueBatch(_ context.Context, venues []model.Venue) error {
	if len(venues) == 0 {
		return nil
	}

	dir := filepath.Dir(s.path)
	if dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tmp := s.path + ".tmp"
	file, err := os.OpenFile(tmp, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("open output file: %w", err)
	}
	defer os.Remove(tmp)

	writer := bufio.NewWriter(file)
	for _, venue := range venues {
		line, err := json.Marshal(venue)
		if err != nil {
			file.Close()
			return fmt.Errorf("marshal venue: %w", err)
		}
		if _, err := writer.Write(line); err != nil {
			file.Close()
			return fmt.Errorf("write venue: %w", err)
		}
		if err := writer.WriteByte('\n'); err != nil {
			file.Close()
			return fmt.Errorf("write newline: %w", err)
		}
	}

	if err := writer.Flush(); err != nil {
		file.Close()
		return fmt.Errorf("flush output: %w", err)
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("close output: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replace output: %w", err)
	}
	return nil
}

// LoadVenues reads a snapshot written by PutVenueBatch. A missing file
// returns no venues and no error.
func (s *JsonlStorage) LoadVenues(_ context.Context) ([]model.Venue, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	file, err := os.Open(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("open snapshot: %w", err)
	}
	defer file.Close()

	var venues []model.Venue
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	line := 0
	for scanner.Scan() {
		line++
		if len(scanner.Bytes()) == 0 {
			continue
		}
		var v model.Venue
		if err := json.Unmarshal(scanner.Bytes(), &v); err != nil {
			return nil, fmt.Errorf("line %d: %w: %w", line, model.ErrDecode, err)
		}
		venues = append(venues, v)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}
	return venues, nil
}
