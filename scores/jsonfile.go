package scores

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// fileData is the on-disk layout of a JSON score file
type fileData struct {
	HighScore int     `json:"highScore"`
	NextID    int64   `json:"nextId"`
	Scores    []Entry `json:"scores"`
}

// JSONFile keeps the ranking in a single JSON document, rewritten on every
// change.
type JSONFile struct {
	mu   sync.RWMutex
	path string
	data fileData
}

// OpenJSONFile loads path, starting empty when the file does not exist yet
func OpenJSONFile(path string) (*JSONFile, error) {
	f := &JSONFile{path: path}
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return f, nil
		}
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	if err := json.Unmarshal(raw, &f.data); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	Rank(f.data.Scores)
	return f, nil
}

func (f *JSONFile) Add(ctx context.Context, e Entry) error {
	if err := validate(e); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, have := range f.data.Scores {
		if have.SessionID == e.SessionID {
			return nil
		}
	}
	f.data.NextID++
	e.ID = f.data.NextID
	f.data.Scores = append(f.data.Scores, e)
	Rank(f.data.Scores)
	if e.Score > f.data.HighScore {
		f.data.HighScore = e.Score
	}
	return f.save()
}

func (f *JSONFile) List(ctx context.Context, limit int) ([]Entry, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	out := make([]Entry, len(f.data.Scores))
	copy(out, f.data.Scores)
	return top(out, limit), nil
}

func (f *JSONFile) Best(ctx context.Context) (Entry, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if len(f.data.Scores) == 0 {
		return Entry{}, ErrNotFound
	}
	return f.data.Scores[0], nil
}

func (f *JSONFile) Reset(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.data.Scores = nil
	f.data.HighScore = 0
	return f.save()
}

func (f *JSONFile) Close() error { return nil }

// save must be called with mu held
func (f *JSONFile) save() error {
	if dir := filepath.Dir(f.path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("mkdir %s: %w", dir, err)
		}
	}
	raw, err := json.MarshalIndent(f.data, "", "  ")
	if err != nil {
		return fmt.Errorf("encode scores: %w", err)
	}
	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", tmp, err)
	}
	return os.Rename(tmp, f.path)
}
