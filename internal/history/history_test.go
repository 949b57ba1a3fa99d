// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package history

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryHistory(t *testing.T) {
	h := NewMemory(3)
	defer h.Close()

	for _, line := range []string{"a", "b", "c", "d"} {
		require.NoError(t, h.Append(line))
	}

	assert.Equal(t, 3, h.Len())
	assert.Equal(t, []string{"b", "c", "d"}, h.All())
	assert.False(t, h.Persistent())

	tests := []struct {
		n    int
		want string
		ok   bool
	}{
		{1, "b", true},
		{3, "d", true},
		{-1, "d", true},
		{-3, "b", true},
		{0, "", false},
		{4, "", false},
		{-4, "", false},
	}
	for _, tc := range tests {
		got, ok := h.Get(tc.n)
		if got != tc.want || ok != tc.ok {
			t.Errorf("Get(%d) = (%q, %v), want (%q, %v)", tc.n, got, ok, tc.want, tc.ok)
		}
	}

	assert.Equal(t, []string{"c", "d"}, h.Last(2))
	assert.Equal(t, []string{"b", "c", "d"}, h.Last(0))
	assert.Equal(t, []string{"b", "c", "d"}, h.Last(10))

	require.NoError(t, h.Clear())
	assert.Equal(t, 0, h.Len())
	assert.Empty(t, h.Last(5))
}

func TestAllReturnsCopy(t *testing.T) {
	h := NewMemory(0)
	require.NoError(t, h.Append("x"))

	all := h.All()
	all[0] = "mutated"
	got, _ := h.Get(1)
	assert.Equal(t, "x", got)
}

func TestSQLiteHistoryPersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "history.db")

	h, err := Open(path, 3, "session-1")
	require.NoError(t, err)
	assert.True(t, h.Persistent())
	for _, line := range []string{"help", "greet Alice", "about", "echo hi"} {
		require.NoError(t, h.Append(line))
	}
	require.NoError(t, h.Close())

	h, err = Open(path, 3, "session-2")
	require.NoError(t, err)
	assert.Equal(t, []string{"greet Alice", "about", "echo hi"}, h.All())

	// A smaller limit loads only the newest lines.
	require.NoError(t, h.Close())
	h, err = Open(path, 2, "session-3")
	require.NoError(t, err)
	assert.Equal(t, []string{"about", "echo hi"}, h.All())

	require.NoError(t, h.Clear())
	require.NoError(t, h.Close())

	h, err = Open(path, 3, "session-4")
	require.NoError(t, err)
	defer h.Close()
	assert.Equal(t, 0, h.Len())
}
