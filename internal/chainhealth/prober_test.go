package chainhealth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func fakeNode(t *testing.T) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			ID     json.RawMessage `json:"id"`
			Method string          `json:"method"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if req.Method != "eth_blockNumber" {
			http.Error(w, "unexpected method "+req.Method, http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"jsonrpc": "2.0",
			"id":      req.ID,
			"result":  "0x10",
		})
	}))
}

func TestEthCheckerPing(t *testing.T) {
	node := fakeNode(t)
	defer node.Close()

	c := NewEthChecker(node.URL)
	defer c.Close()

	st := Probe(context.Background(), c, time.Second)
	require.True(t, st.Connected, st.Error)
	require.Empty(t, st.Error)
}

func TestEthCheckerUnreachable(t *testing.T) {
	node := fakeNode(t)
	url := node.URL
	node.Close()

	c := NewEthChecker(url)
	defer c.Close()

	st := Probe(context.Background(), c, time.Second)
	require.False(t, st.Connected)
	require.NotEmpty(t, st.Error)
}

type checkerFunc func(ctx context.Context) error

func (f checkerFunc) Ping(ctx context.Context) error { return f(ctx) }

func TestProbeAppliesTimeout(t *testing.T) {
	st := Probe(context.Background(), checkerFunc(func(ctx context.Context) error {
		<-ctx.Done()
		return errors.New("gave up")
	}), 10*time.Millisecond)

	require.False(t, st.Connected)
	require.Equal(t, "gave up", st.Error)
}
