package chainhealth

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/ethclient"
)

// Checker reports whether a chain's JSON-RPC node answers.
type Checker interface {
	Ping(ctx context.Context) error
}

// EthChecker pings an EVM node by fetching the latest block number.
type EthChecker struct {
	rpcURL string

	mu     sync.Mutex
	client *ethclient.Client
}

func NewEthChecker(rpcURL string) *EthChecker {
	return &EthChecker{rpcURL: rpcURL}
}

func (c *EthChecker) Ping(ctx context.Context) error {
	cli, err := c.dial(ctx)
	if err != nil {
		return err
	}
	if _, err := cli.BlockNumber(ctx); err != nil {
		return fmt.Errorf("block number: %w", err)
	}
	return nil
}

func (c *EthChecker) dial(ctx context.Context) (*ethclient.Client, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.client != nil {
		return c.client, nil
	}
	cli, err := ethclient.DialContext(ctx, c.rpcURL)
	if err != nil {
		return nil, fmt.Errorf("dial rpc: %w", err)
	}
	c.client = cli
	return cli, nil
}

func (c *EthChecker) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.client != nil {
		c.client.Close()
		c.client = nil
	}
}

// Status is the health of one chain's node.
type Status struct {
	Connected bool    `json:"connected"`
	LatencyMs float64 `json:"latency_ms"`
	Error     string  `json:"error,omitempty"`
}

// Probe runs one check with its own timeout.
func Probe(ctx context.Context, c Checker, timeout time.Duration) Status {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := time.Now()
	if err := c.Ping(ctx); err != nil {
		return Status{Connected: false, Error: err.Error()}
	}
	return Status{
		Connected: true,
		LatencyMs: float64(time.Since(start).Microseconds()) / 1000.0,
	}
}
