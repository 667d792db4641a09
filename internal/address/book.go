package address

import (
	"bytes"
	"os"
	"path/filepath"
	"sync"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/natefinch/atomic"

	"github.com/rileyhilliard/btcdash/internal/errors"
	"github.com/rileyhilliard/btcdash/internal/logger"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Entry is one saved address.
type Entry struct {
	CreatedAt time.Time `json:"created_at"`
	Address   string    `json:"address"`
}

// Book is the persisted list of generated addresses, in the order they were added.
type Book struct {
	mu      sync.Mutex
	path    string
	entries []Entry
}

// LoadBook reads the address book at path. A missing or unreadable file
// yields an empty book; the problem is logged, not returned.
func LoadBook(path string, log logger.Logger) *Book {
	if log == nil {
		log = logger.Noop()
	}
	b := &Book{path: path}

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			log.Warn("address book %s unreadable, starting empty: %v", path, err)
		}
		return b
	}

	var entries []Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		log.Warn("address book %s is corrupt, starting empty: %v", path, err)
		return b
	}
	b.entries = entries
	return b
}

// Path is where the book is saved.
func (b *Book) Path() string {
	return b.path
}

// Entries returns a copy of the saved addresses.
func (b *Book) Entries() []Entry {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]Entry(nil), b.entries...)
}

// Len is the number of saved addresses.
func (b *Book) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.entries)
}

// Add validates addr, appends it and saves the book. It returns the new entry's index.
func (b *Book) Add(addr string, at time.Time) (int, error) {
	if v := Check(addr); !v.OK() {
		return -1, errors.New(errors.ErrAddress,
			"Won't save "+v.Label()+" address '"+addr+"'",
			"Only addresses that validate on a known network are saved")
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	b.entries = append(b.entries, Entry{CreatedAt: at.UTC(), Address: addr})
	if err := b.save(); err != nil {
		b.entries = b.entries[:len(b.entries)-1]
		return -1, err
	}
	return len(b.entries) - 1, nil
}

// save writes the book atomically. Caller holds b.mu.
func (b *Book) save() error {
	data, err := json.MarshalIndent(b.entries, "", "  ")
	if err != nil {
		return errors.Wrap(err, "Couldn't encode the address book")
	}

	if dir := filepath.Dir(b.path); dir != "" {
		if err := os.MkdirAll(dir, 0700); err != nil {
			return errors.WrapWithCode(err, errors.ErrAddress,
				"Couldn't create "+dir,
				"Check permissions or set address_book.path in .btcdash.yaml")
		}
	}

	if err := atomic.WriteFile(b.path, bytes.NewReader(data)); err != nil {
		return errors.WrapWithCode(err, errors.ErrAddress,
			"Couldn't save the address book to "+b.path,
			"Check permissions or set address_book.path in .btcdash.yaml")
	}
	return nil
}
