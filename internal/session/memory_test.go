package session

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/varsilias/seo-chat/pkg/types"
)

func msg(id, content string) types.Message {
	return types.Message{ID: id, Role: types.RoleBot, Kind: types.KindText, Content: content}
}

func TestEnsureSeedsOnce(t *testing.T) {
	s := NewMemoryStore()
	require.NoError(t, s.Ensure("a", []types.Message{msg("g", "hello")}))
	require.NoError(t, s.Append("a", msg("1", "one")))
	require.NoError(t, s.Ensure("a", []types.Message{msg("g", "hello")}))

	st, err := s.Get("a")
	require.NoError(t, err)
	assert.Len(t, st.Transcript, 2)
}

func TestRemoveByID(t *testing.T) {
	s := NewMemoryStore()
	require.NoError(t, s.Append("a", msg("1", "one")))
	require.NoError(t, s.Append("a", msg("2", "two")))
	require.NoError(t, s.Append("a", msg("3", "three")))

	ok, err := s.Remove("a", "2")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.Remove("a", "2")
	require.NoError(t, err)
	assert.False(t, ok)

	st, _ := s.Get("a")
	require.Len(t, st.Transcript, 2)
	assert.Equal(t, "1", st.Transcript[0].ID)
	assert.Equal(t, "3", st.Transcript[1].ID)
}

func TestRemoveUnknownSession(t *testing.T) {
	s := NewMemoryStore()
	ok, err := s.Remove("missing", "x")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, 0, s.Len())
}

func TestGetReturnsCopy(t *testing.T) {
	s := NewMemoryStore()
	require.NoError(t, s.Append("a", msg("1", "one")))
	st, _ := s.Get("a")
	st.Transcript[0].Content = "mutated"

	again, _ := s.Get("a")
	assert.Equal(t, "one", again.Transcript[0].Content)
}

func TestExpandAndReset(t *testing.T) {
	s := NewMemoryStore()
	changed, err := s.Expand("a")
	require.NoError(t, err)
	assert.True(t, changed)

	changed, _ = s.Expand("a")
	assert.False(t, changed)

	require.NoError(t, s.SetInput("a", "draft"))
	require.NoError(t, s.Append("a", msg("1", "one")))
	require.NoError(t, s.Reset("a", []types.Message{msg("g", "greeting")}))

	st, _ := s.Get("a")
	assert.False(t, st.Expanded)
	assert.Empty(t, st.Input)
	require.Len(t, st.Transcript, 1)
	assert.Equal(t, "greeting", st.Transcript[0].Content)

	changed, _ = s.Expand("a")
	assert.True(t, changed)
}

func TestEmptySessionID(t *testing.T) {
	s := NewMemoryStore()
	assert.ErrorIs(t, s.Append("", msg("1", "x")), ErrEmptySessionID)
	assert.ErrorIs(t, s.Ensure("", nil), ErrEmptySessionID)
	assert.ErrorIs(t, s.Reset("", nil), ErrEmptySessionID)
	assert.ErrorIs(t, s.SetInput("", "x"), ErrEmptySessionID)
	_, err := s.Get("")
	assert.ErrorIs(t, err, ErrEmptySessionID)
	_, err = s.Expand("")
	assert.ErrorIs(t, err, ErrEmptySessionID)
	_, err = s.Remove("", "x")
	assert.ErrorIs(t, err, ErrEmptySessionID)
}

func TestPrune(t *testing.T) {
	s := NewMemoryStore()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return base }
	require.NoError(t, s.Append("old", msg("1", "x")))

	s.now = func() time.Time { return base.Add(2 * time.Hour) }
	require.NoError(t, s.Append("fresh", msg("1", "x")))

	assert.Equal(t, 1, s.Prune(time.Hour))
	assert.Equal(t, 1, s.Len())
	st, _ := s.Get("fresh")
	assert.Len(t, st.Transcript, 1)
}
