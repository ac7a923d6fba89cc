package bridge

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestDeadLetterWriteAndDepth(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "dlq")
	dl, err := NewDeadLetter(dir)
	require.NoError(t, err)
	dl.now = func() time.Time { return time.Unix(1_700_000_000, 0) }

	rec := UnreconciledTransfer{
		Request:      validRequest(),
		BurnResponse: "burned",
		MintError:    "boom",
	}
	require.NoError(t, dl.Write(rec))
	require.NoError(t, dl.Write(rec))

	depth, err := dl.Depth()
	require.NoError(t, err)
	require.Equal(t, 2, depth)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	blob, err := os.ReadFile(filepath.Join(dir, entries[0].Name()))
	require.NoError(t, err)

	var got UnreconciledTransfer
	require.NoError(t, json.Unmarshal(blob, &got))
	require.Equal(t, "boom", got.MintError)
	require.Equal(t, "Ethereum", got.Request.SourceChain)
	require.True(t, got.Timestamp.Equal(time.Unix(1_700_000_000, 0)))
}

func TestDeadLetterRequiresDir(t *testing.T) {
	_, err := NewDeadLetter(" ")
	require.Error(t, err)
}

func TestNilDeadLetterDepth(t *testing.T) {
	var dl *DeadLetter
	depth, err := dl.Depth()
	require.NoError(t, err)
	require.Zero(t, depth)
}

func TestSanitize(t *testing.T) {
	require.Equal(t, "Base_Sepolia___", sanitize("Base Sepolia/.."))
}
