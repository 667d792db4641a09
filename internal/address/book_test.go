package address

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rileyhilliard/btcdash/internal/errors"
	"github.com/rileyhilliard/btcdash/internal/logger"
)

const (
	addrA = "bc1qw508d6qejxtdg4y5r3zarvary0c5xw7kv8f3t4"
	addrB = "tb1qw508d6qejxtdg4y5r3zarvary0c5xw7kxpjzsx"
)

func TestLoadBook_Missing(t *testing.T) {
	buf := logger.NewBufferLogger()
	b := LoadBook(filepath.Join(t.TempDir(), "addresses.json"), buf)

	assert.Equal(t, 0, b.Len())
	assert.Empty(t, b.Entries())
	assert.False(t, buf.HasLevel("warn"))
}

func TestLoadBook_Corrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "addresses.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0600))

	buf := logger.NewBufferLogger()
	b := LoadBook(path, buf)

	assert.Equal(t, 0, b.Len())
	assert.True(t, buf.Contains("corrupt"))
}

func TestLoadBook_Existing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "addresses.json")
	content := `[
  {"created_at": "2024-04-20T12:30:00Z", "address": "` + addrA + `"},
  {"created_at": "2024-04-21T08:00:00Z", "address": "` + addrB + `"}
]`
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))

	b := LoadBook(path, nil)
	entries := b.Entries()
	require.Len(t, entries, 2)
	assert.Equal(t, addrA, entries[0].Address)
	assert.Equal(t, time.Date(2024, 4, 20, 12, 30, 0, 0, time.UTC), entries[0].CreatedAt)
	assert.Equal(t, addrB, entries[1].Address)
}

func TestBook_AddPersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "addresses.json")
	b := LoadBook(path, nil)

	at := time.Date(2024, 4, 20, 12, 0, 0, 0, time.UTC)
	idx, err := b.Add(addrA, at)
	require.NoError(t, err)
	assert.Equal(t, 0, idx)

	idx, err = b.Add(addrB, at.Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 1, idx)

	reloaded := LoadBook(path, nil)
	assert.Equal(t, b.Entries(), reloaded.Entries())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"created_at": "2024-04-20T12:00:00Z"`)
}

func TestBook_AddRejectsInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "addresses.json")
	b := LoadBook(path, nil)

	_, err := b.Add("not-an-address", time.Now())
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrAddress))
	assert.Equal(t, 0, b.Len())

	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr))
}

func TestBook_AddSaveFailureRollsBack(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "file")
	require.NoError(t, os.WriteFile(blocker, nil, 0600))

	// The parent "directory" is a regular file, so saving must fail.
	b := LoadBook(filepath.Join(blocker, "addresses.json"), nil)
	_, err := b.Add(addrA, time.Now())
	require.Error(t, err)
	assert.Equal(t, 0, b.Len())
}

func TestBook_EntriesIsCopy(t *testing.T) {
	b := LoadBook(filepath.Join(t.TempDir(), "a.json"), nil)
	_, err := b.Add(addrA, time.Now())
	require.NoError(t, err)

	entries := b.Entries()
	entries[0].Address = "changed"
	assert.Equal(t, addrA, b.Entries()[0].Address)
}
