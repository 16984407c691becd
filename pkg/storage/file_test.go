package storage

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileKVMissingFile(t *testing.T) {
	kv := NewFileKV(filepath.Join(t.TempDir(), "store.json"))
	_, err := kv.Get("chat_sessions")
	assert.Equal(t, ErrNotFound, err)
}

func TestFileKVSharedBetweenInstances(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "store.json")
	writer := NewFileKV(path)
	reader := NewFileKV(path)

	require.NoError(t, writer.Set("a", "1"))
	require.NoError(t, writer.Set("b", "2"))

	value, err := reader.Get("a")
	require.NoError(t, err)
	assert.Equal(t, "1", value)

	require.NoError(t, reader.Set("a", "3"))
	value, err = writer.Get("a")
	require.NoError(t, err)
	assert.Equal(t, "3", value)

	value, err = writer.Get("b")
	require.NoError(t, err)
	assert.Equal(t, "2", value)
}

func TestFileKVCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "store.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))
	kv := NewFileKV(path)

	_, err := kv.Get("a")
	assert.Error(t, err)
	assert.NotEqual(t, ErrNotFound, err)

	// Writing recovers the file
	require.NoError(t, kv.Set("a", "1"))
	value, err := kv.Get("a")
	require.NoError(t, err)
	assert.Equal(t, "1", value)
}

func TestFileKVReadErrorKeepsContents(t *testing.T) {
	path := filepath.Join(t.TempDir(), "store.json")
	kv := NewFileKV(path)
	if err := kv.Set("chat_sessions", "[]"); err != nil {
		t.Fatal(err)
	}

	kv.readFile = func(string) ([]byte, error) { return nil, errors.New("input/output error") }
	if err := kv.Set("chat_current_session", "s1"); err == nil {
		t.Error("Set should fail when the file can't be read")
	}
	if _, err := kv.Get("chat_sessions"); err == nil || errors.Is(err, ErrNotFound) {
		t.Errorf("Get should report the read error, got %v", err)
	}

	kv.readFile = nil
	value, err := kv.Get("chat_sessions")
	if err != nil {
		t.Fatalf("Get after recovery: %v", err)
	}
	if value != "[]" {
		t.Errorf("chat_sessions = %q, want []", value)
	}
	if _, err := kv.Get("chat_current_session"); !errors.Is(err, ErrNotFound) {
		t.Errorf("failed Set should not have written, got %v", err)
	}
}
