package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
)

// FileKV stores every key in a single JSON object on disk. The file is
// re-read on each Get so that separate processes sharing the path observe
// each other's writes, the same way two tabs share one origin's storage.
type FileKV struct {
	Path string
	mu   sync.Mutex

	readFile func(string) ([]byte, error)
}

// errCorruptFile marks a file that exists but doesn't hold a JSON object
var errCorruptFile = errors.New("storage: corrupt file")

// NewFileKV creates a FileKV backed by path. The file is created on first Set.
func NewFileKV(path string) *FileKV {
	return &FileKV{Path: path}
}

func (f *FileKV) Get(key string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	values, err := f.read()
	if err != nil {
		return "", err
	}
	value, ok := values[key]
	if !ok {
		return "", ErrNotFound
	}
	return value, nil
}

func (f *FileKV) Set(key, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	values, err := f.read()
	if errors.Is(err, errCorruptFile) {
		// Undecodable contents can't be merged; start over
		values = map[string]string{}
	} else if err != nil {
		return err
	}
	values[key] = value

	data, err := json.Marshal(values)
	if err != nil {
		return fmt.Errorf("storage: encode %s: %w", f.Path, err)
	}
	if dir := filepath.Dir(f.Path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("storage: create dir %s: %w", dir, err)
		}
	}

	tmp, err := os.CreateTemp(filepath.Dir(f.Path), ".kv-*")
	if err != nil {
		return fmt.Errorf("storage: write %s: %w", f.Path, err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("storage: write %s: %w", f.Path, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("storage: write %s: %w", f.Path, err)
	}
	if err := os.Rename(tmp.Name(), f.Path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("storage: write %s: %w", f.Path, err)
	}
	return nil
}

func (f *FileKV) read() (map[string]string, error) {
	readFile := f.readFile
	if readFile == nil {
		readFile = os.ReadFile
	}
	data, err := readFile(f.Path)
	if errors.Is(err, fs.ErrNotExist) {
		return map[string]string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("storage: read %s: %w", f.Path, err)
	}
	values := map[string]string{}
	if len(data) == 0 {
		return values, nil
	}
	if err := json.Unmarshal(data, &values); err != nil {
		return nil, fmt.Errorf("%w: decode %s: %v", errCorruptFile, f.Path, err)
	}
	return values, nil
}
