package registry

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestResolveKnownAndUnknown(t *testing.T) {
	reg, err := New(Defaults())
	require.NoError(t, err)

	e, err := reg.Resolve("Base")
	require.NoError(t, err)
	require.Equal(t, "http://127.0.0.1:6002", e.AgentEndpoint)

	_, err = reg.Resolve("Unknown")
	require.True(t, errors.Is(err, ErrChainNotFound))

	// lookup is exact
	_, err = reg.Resolve("base")
	require.ErrorIs(t, err, ErrChainNotFound)
}

func TestChainsSortedAndCopied(t *testing.T) {
	reg, err := New(Defaults())
	require.NoError(t, err)

	names := reg.Chains()
	require.Equal(t, []string{"Base", "Ethereum", "Matic", "Optimism"}, names)

	names[0] = "mutated"
	require.Equal(t, "Base", reg.Chains()[0])
}

func TestNewRejectsBadTables(t *testing.T) {
	cases := map[string][]Entry{
		"empty":       nil,
		"blank name":  {{Name: " ", AgentEndpoint: "http://127.0.0.1:6000"}},
		"no endpoint": {{Name: "Ethereum"}},
		"bad scheme":  {{Name: "Ethereum", AgentEndpoint: "ftp://127.0.0.1"}},
		"no host":     {{Name: "Ethereum", AgentEndpoint: "http://"}},
		"duplicate":   {{Name: "Base", AgentEndpoint: "http://a:1"}, {Name: "Base", AgentEndpoint: "http://b:1"}},
	}
	for name, entries := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := New(entries)
			require.Error(t, err)
		})
	}
}

func TestNewTrimsEndpoint(t *testing.T) {
	reg, err := New([]Entry{{Name: "Ethereum", AgentEndpoint: " http://127.0.0.1:6000/ "}})
	require.NoError(t, err)

	e, err := reg.Resolve("Ethereum")
	require.NoError(t, err)
	require.Equal(t, "http://127.0.0.1:6000", e.AgentEndpoint)
}

func TestNilRegistry(t *testing.T) {
	var reg *Registry
	_, err := reg.Resolve("Ethereum")
	require.ErrorIs(t, err, ErrChainNotFound)
	require.Nil(t, reg.Chains())
}

func TestLoadFileYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chains.yaml")
	doc := `
chains:
  Ethereum:
    agent_endpoint: http://127.0.0.1:7000
    rpc_url: http://127.0.0.1:8545
  Base:
    agent_endpoint: http://127.0.0.1:7001
`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o600))

	entries, err := LoadFile(path)
	require.NoError(t, err)

	reg, err := New(entries)
	require.NoError(t, err)
	require.Equal(t, []string{"Base", "Ethereum"}, reg.Chains())

	eth, err := reg.Resolve("Ethereum")
	require.NoError(t, err)
	require.Equal(t, "http://127.0.0.1:8545", eth.RPCURL)
}

func TestLoadFileJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chains.json")
	doc := `{"chains":{"Optimism":{"agent_endpoint":"http://127.0.0.1:7002"}}}`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o600))

	entries, err := LoadFile(path)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, "Optimism", entries[0].Name)
	require.Equal(t, "http://127.0.0.1:7002", entries[0].AgentEndpoint)
}

func TestLoadFileErrors(t *testing.T) {
	_, err := LoadFile("")
	require.Error(t, err)

	_, err = LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)

	empty := filepath.Join(t.TempDir(), "empty.yaml")
	require.NoError(t, os.WriteFile(empty, nil, 0o600))
	_, err = LoadFile(empty)
	require.Error(t, err)

	broken := filepath.Join(t.TempDir(), "broken.json")
	require.NoError(t, os.WriteFile(broken, []byte("{"), 0o600))
	_, err = LoadFile(broken)
	require.Error(t, err)
}

func TestLoadSources(t *testing.T) {
	reg, err := Load(context.Background(), "", "", "")
	require.NoError(t, err)
	require.Len(t, reg.Chains(), 4)

	path := filepath.Join(t.TempDir(), "chains.yml")
	require.NoError(t, os.WriteFile(path, []byte("chains:\n  Base:\n    agent_endpoint: http://127.0.0.1:7001\n"), 0o600))
	reg, err = Load(context.Background(), "file", path, "")
	require.NoError(t, err)
	require.Equal(t, []string{"Base"}, reg.Chains())

	_, err = Load(context.Background(), "consul", "", "")
	require.Error(t, err)

	empty := filepath.Join(t.TempDir(), "empty.yaml")
	require.NoError(t, os.WriteFile(empty, []byte("chains: {}\n"), 0o600))
	_, err = Load(context.Background(), "file", empty, "")
	require.Error(t, err, "an empty table is rejected")
}
