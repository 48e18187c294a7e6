package output

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMode(t *testing.T) {
	SetMode(true)
	assert.True(t, IsJSON())
	SetMode(false)
	assert.Equal(t, ModeText, CurrentMode())
}

func TestWriteJSON(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, map[string]int{"flaws": 3}, false))
	assert.Equal(t, "{\"flaws\":3}\n", buf.String())

	buf.Reset()
	require.NoError(t, WriteJSONError(&buf, errors.New("boom"), 2))
	assert.JSONEq(t, `{"error":"error","message":"boom","details":{"code":2}}`, buf.String())
}

func TestWriteTable(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, WriteTable(&buf, []string{"KEY", "VALUE"}, [][]string{{"flaw_id", "CVE-2024-1337"}}))
	assert.Equal(t, "KEY      VALUE\nflaw_id  CVE-2024-1337\n", buf.String())

	buf.Reset()
	require.NoError(t, WriteMap(&buf, map[string]string{"b": "2", "a": "1"}))
	assert.Equal(t, "a  1\nb  2\n", buf.String())

	buf.Reset()
	require.NoError(t, WriteList(&buf, []string{"x", "y"}))
	assert.Equal(t, "x\ny\n", buf.String())
}
