package bridge

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// UnreconciledTransfer is a transfer whose tokens were burned but never
// minted. An operator has to settle it by hand.
type UnreconciledTransfer struct {
	Timestamp    time.Time       `json:"timestamp"`
	Request      TransferRequest `json:"request"`
	BurnResponse string          `json:"burnResponse"`
	MintError    string          `json:"mintError"`
}

// DeadLetter writes one JSON file per unreconciled transfer into Dir.
type DeadLetter struct {
	dir string
	now func() time.Time
	mu  sync.Mutex
	seq uint64
}

func NewDeadLetter(dir string) (*DeadLetter, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, errors.New("dead letter dir is empty")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create dead letter dir: %w", err)
	}
	return &DeadLetter{dir: dir, now: time.Now}, nil
}

func (d *DeadLetter) Write(rec UnreconciledTransfer) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	now := d.now().UTC()
	if rec.Timestamp.IsZero() {
		rec.Timestamp = now
	}

	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal dead letter: %w", err)
	}

	d.seq++
	filename := fmt.Sprintf("%d-%04d-%s-%s.json", now.UnixNano(), d.seq, sanitize(rec.Request.SourceChain), sanitize(rec.Request.DestinationChain))
	if err := os.WriteFile(filepath.Join(d.dir, filename), data, 0o600); err != nil {
		return fmt.Errorf("write dead letter: %w", err)
	}
	return nil
}

// Depth is the number of records waiting in the directory.
func (d *DeadLetter) Depth() (int, error) {
	if d == nil {
		return 0, nil
	}
	entries, err := os.ReadDir(d.dir)
	if err != nil {
		return 0, err
	}
	n := 0
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".json") {
			n++
		}
	}
	return n, nil
}

func sanitize(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		default:
			return '_'
		}
	}, s)
}
