package registry

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// fileDocument is the on-disk layout shared by the YAML and JSON formats:
//
//	chains:
//	  Ethereum:
//	    agent_endpoint: http://127.0.0.1:6000
//	    rpc_url: https://sepolia.example
type fileDocument struct {
	Chains map[string]fileEntry `json:"chains" yaml:"chains"`
}

type fileEntry struct {
	AgentEndpoint string `json:"agent_endpoint" yaml:"agent_endpoint"`
	RPCURL        string `json:"rpc_url" yaml:"rpc_url"`
}

// LoadFile reads a chain table from a YAML or JSON file. The format follows
// the file extension; anything other than .json is parsed as YAML.
func LoadFile(path string) ([]Entry, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("registry file path is empty")
	}

	blob, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read registry file: %w", err)
	}
	if len(blob) == 0 {
		return nil, fmt.Errorf("registry file %s is empty", path)
	}

	var doc fileDocument
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		err = json.Unmarshal(blob, &doc)
	default:
		err = yaml.Unmarshal(blob, &doc)
	}
	if err != nil {
		return nil, fmt.Errorf("parse registry file: %w", err)
	}

	entries := make([]Entry, 0, len(doc.Chains))
	for name, fe := range doc.Chains {
		entries = append(entries, Entry{
			Name:          name,
			AgentEndpoint: fe.AgentEndpoint,
			RPCURL:        fe.RPCURL,
		})
	}
	return entries, nil
}
