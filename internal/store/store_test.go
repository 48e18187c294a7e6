package store

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStore(t *testing.T) *Store {
	t.Helper()
	t.Setenv("FLAW_ID", "")
	os.Unsetenv("FLAW_ID")
	t.Setenv("EMBARGOED_FLAW_ID", "")
	os.Unsetenv("EMBARGOED_FLAW_ID")
	return New(filepath.Join(t.TempDir(), "state", "osim.json"))
}

func TestSetGetDelete(t *testing.T) {
	s := newStore(t)

	_, err := s.Get("flaw_id")
	require.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, s.Set("flaw_id", "CVE-2024-1337"))
	require.NoError(t, s.Set("note", "x"))

	v, err := s.Get("flaw_id")
	require.NoError(t, err)
	assert.Equal(t, "CVE-2024-1337", v)

	keys, err := s.Keys()
	require.NoError(t, err)
	assert.Equal(t, []string{"flaw_id", "note"}, keys)

	require.NoError(t, s.Delete("note"))
	require.NoError(t, s.Delete("note"))
	all, err := s.All()
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"flaw_id": "CVE-2024-1337"}, all)

	_, err = os.Stat(s.Path() + ".tmp")
	assert.True(t, os.IsNotExist(err), "temporary file must not linger")
}

func TestSeparateHandlesShareTheFile(t *testing.T) {
	s := newStore(t)
	other := New(s.Path())

	require.NoError(t, s.Set("a", "1"))
	require.NoError(t, other.Set("b", "2"))

	all, err := s.All()
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"a": "1", "b": "2"}, all)
}

func TestEnvironmentShadowsFile(t *testing.T) {
	s := newStore(t)
	require.NoError(t, s.SetFlawID("CVE-2024-1337", false))

	t.Setenv("FLAW_ID", "CVE-2023-0001")
	v, err := s.FlawID()
	require.NoError(t, err)
	assert.Equal(t, "CVE-2023-0001", v)

	all, err := s.All()
	require.NoError(t, err)
	assert.Equal(t, "CVE-2024-1337", all[KeyFlawID])
}

func TestSetFlawID(t *testing.T) {
	s := newStore(t)

	require.NoError(t, s.SetFlawID("5c6ad8a0-9a1c-4a8f-8a69-1b4e3f8a2f10", true))
	v, err := s.EmbargoedFlawID()
	require.NoError(t, err)
	assert.Equal(t, "5c6ad8a0-9a1c-4a8f-8a69-1b4e3f8a2f10", v)

	assert.Error(t, s.SetFlawID("not-a-flaw", false))
	assert.Error(t, s.SetFlawID("CVE-2024-0000", false))
	_, err = s.FlawID()
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, s.SetFlawID("CVE-2024-01234", false))
	v, err = s.FlawID()
	require.NoError(t, err)
	assert.Equal(t, "CVE-2024-01234", v)
}

func TestCorruptFile(t *testing.T) {
	s := newStore(t)
	require.NoError(t, os.MkdirAll(filepath.Dir(s.Path()), 0o755))
	require.NoError(t, os.WriteFile(s.Path(), []byte("{not json"), 0o600))

	_, err := s.Get("flaw_id")
	assert.ErrorContains(t, err, "decode state file")
	assert.Error(t, s.Set("k", "v"))
}

func TestEmptyKeyRejected(t *testing.T) {
	assert.Error(t, newStore(t).Set("", "v"))
}

func TestDefaultPath(t *testing.T) {
	assert.Equal(t, DefaultPath, New("").Path())
}
