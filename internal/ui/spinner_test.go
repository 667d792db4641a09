package ui

import (
	"bytes"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// syncBuffer guards a bytes.Buffer shared with the animation goroutine.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestSpinner_Animates(t *testing.T) {
	var out syncBuffer
	s := NewSpinner("Querying node")
	s.SetOutput(&out)

	s.Start()
	assert.Equal(t, Running, s.Result())
	assert.Eventually(t, func() bool {
		return strings.Count(out.String(), "Querying node...") >= 2
	}, time.Second, 10*time.Millisecond)
	s.Success()
}

func TestSpinner_End(t *testing.T) {
	tests := []struct {
		name   string
		end    func(*Spinner)
		want   Outcome
		symbol string
	}{
		{"success", (*Spinner).Success, Succeeded, SymbolSuccess},
		{"fail", (*Spinner).Fail, Failed, SymbolFail},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out syncBuffer
			s := NewSpinner("Test")
			s.SetOutput(&out)

			s.Start()
			tt.end(s)

			assert.Equal(t, tt.want, s.Result())
			final := out.String()[strings.LastIndex(out.String(), "\r")+1:]
			assert.True(t, strings.HasPrefix(final, tt.symbol+" Test "), "final line %q", final)
			assert.True(t, strings.HasSuffix(final, "s\n"))
		})
	}
}

func TestSpinner_RepeatedCalls(t *testing.T) {
	var out syncBuffer
	s := NewSpinner("Test")
	s.SetOutput(&out)

	s.Start()
	s.Start()
	s.Fail()
	s.Success()

	assert.Equal(t, Failed, s.Result())
	assert.Equal(t, 1, strings.Count(out.String(), "\n"))
}

func TestSpinner_EndWithoutStart(t *testing.T) {
	var out syncBuffer
	s := NewSpinner("Test")
	s.SetOutput(&out)

	s.Success()

	assert.Equal(t, Running, s.Result())
	assert.Empty(t, out.String())
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		duration time.Duration
		want     string
	}{
		{0, "0.00s"},
		{50 * time.Millisecond, "0.05s"},
		{100 * time.Millisecond, "0.1s"},
		{1500 * time.Millisecond, "1.5s"},
		{10 * time.Second, "10.0s"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, formatDuration(tt.duration))
		})
	}
}
