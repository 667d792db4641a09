package controller

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewHistory(t *testing.T) {
	tests := []struct {
		name     string
		size     int
		expected int
	}{
		{"default size", 0, DefaultHistoryCap},
		{"negative size", -1, DefaultHistoryCap},
		{"custom size", 50, 50},
		{"single entry", 1, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHistory(tt.size)
			assert.Equal(t, tt.expected, h.size)
			assert.Equal(t, 0, h.len())
			assert.Nil(t, h.list())
		})
	}
}

func TestHistory_Overflow(t *testing.T) {
	h := newHistory(3)

	for id := uint64(1); id <= 7; id++ {
		h.push(Invocation{ID: id})
		assert.LessOrEqual(t, h.len(), 3)
	}

	var ids []uint64
	for _, inv := range h.list() {
		ids = append(ids, inv.ID)
	}
	assert.Equal(t, []uint64{5, 6, 7}, ids)
}

func TestHistory_Lookup(t *testing.T) {
	h := newHistory(2)
	h.push(Invocation{ID: 1})
	h.push(Invocation{ID: 2})
	h.push(Invocation{ID: 3})

	_, ok := h.get(1)
	assert.False(t, ok, "evicted")

	inv, ok := h.get(3)
	require.True(t, ok)
	assert.Equal(t, uint64(3), inv.ID)

	assert.True(t, h.replace(Invocation{ID: 2, Status: Succeeded}))
	assert.False(t, h.replace(Invocation{ID: 1, Status: Succeeded}))

	got, _ := h.get(2)
	assert.Equal(t, Succeeded, got.Status)
}

func TestHistory_ListIsCopy(t *testing.T) {
	h := newHistory(4)
	h.push(Invocation{ID: 1, Command: "uptime"})

	list := h.list()
	list[0].Command = "changed"

	got, _ := h.get(1)
	assert.Equal(t, "uptime", got.Command)
}
