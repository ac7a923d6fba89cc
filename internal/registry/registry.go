package registry

import (
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strings"
)

// ErrChainNotFound is returned by Resolve for chains absent from the table.
var ErrChainNotFound = errors.New("chain not found")

// Entry routes a chain name to the agent that executes on that chain.
type Entry struct {
	Name          string `json:"name" yaml:"-"`
	AgentEndpoint string `json:"agentEndpoint" yaml:"agent_endpoint"`
	// RPCURL is optional and only used for health probing.
	RPCURL string `json:"rpcUrl,omitempty" yaml:"rpc_url"`
}

// Registry is a read-only chain -> agent table. It is safe for concurrent use
// because nothing mutates it after New returns.
type Registry struct {
	entries map[string]Entry
	names   []string
}

// Defaults mirrors the local agent layout: one agent process per chain.
func Defaults() []Entry {
	return []Entry{
		{Name: "Ethereum", AgentEndpoint: "http://127.0.0.1:6000"},
		{Name: "Optimism", AgentEndpoint: "http://127.0.0.1:6001"},
		{Name: "Base", AgentEndpoint: "http://127.0.0.1:6002"},
		{Name: "Matic", AgentEndpoint: "http://127.0.0.1:6003"},
	}
}

// New validates entries and builds the registry.
func New(entries []Entry) (*Registry, error) {
	if len(entries) == 0 {
		return nil, errors.New("registry has no chains")
	}

	r := &Registry{entries: make(map[string]Entry, len(entries))}
	for _, e := range entries {
		e.Name = strings.TrimSpace(e.Name)
		e.AgentEndpoint = strings.TrimRight(strings.TrimSpace(e.AgentEndpoint), "/")
		e.RPCURL = strings.TrimSpace(e.RPCURL)

		if e.Name == "" {
			return nil, errors.New("chain name is required")
		}
		if _, dup := r.entries[e.Name]; dup {
			return nil, fmt.Errorf("duplicate chain %q", e.Name)
		}
		if err := validateEndpoint(e.AgentEndpoint); err != nil {
			return nil, fmt.Errorf("chain %s: %w", e.Name, err)
		}
		r.entries[e.Name] = e
		r.names = append(r.names, e.Name)
	}
	sort.Strings(r.names)
	return r, nil
}

// Resolve looks up the entry for chainName.
func (r *Registry) Resolve(chainName string) (Entry, error) {
	if r == nil {
		return Entry{}, ErrChainNotFound
	}
	e, ok := r.entries[chainName]
	if !ok {
		return Entry{}, fmt.Errorf("%w: %q", ErrChainNotFound, chainName)
	}
	return e, nil
}

// Chains returns the supported chain names, sorted.
func (r *Registry) Chains() []string {
	if r == nil {
		return nil
	}
	out := make([]string, len(r.names))
	copy(out, r.names)
	return out
}

// Entries returns a copy of every entry, ordered by name.
func (r *Registry) Entries() []Entry {
	if r == nil {
		return nil
	}
	out := make([]Entry, 0, len(r.names))
	for _, name := range r.names {
		out = append(out, r.entries[name])
	}
	return out
}

func validateEndpoint(raw string) error {
	if raw == "" {
		return errors.New("agent endpoint is required")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("parse agent endpoint: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("agent endpoint %q must be http or https", raw)
	}
	if u.Host == "" {
		return fmt.Errorf("agent endpoint %q has no host", raw)
	}
	return nil
}
