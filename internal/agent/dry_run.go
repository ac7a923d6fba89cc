package agent

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
)

// DryRunClient answers every instruction locally with a deterministic fake
// transaction hash. Used for running the bridge without agents.
type DryRunClient struct{}

func (DryRunClient) Invoke(ctx context.Context, endpoint string, in Instruction) PhaseResult {
	if err := ctx.Err(); err != nil {
		return PhaseResult{ErrorMessage: err.Error()}
	}
	return PhaseResult{
		Success:   true,
		RawOutput: "dry run: " + in.Prompt() + "\nTransaction hash: " + fakeHash(endpoint+in.Prompt()),
	}
}

func fakeHash(input string) string {
	sum := sha256.Sum256([]byte(input))
	return "0x" + hex.EncodeToString(sum[:])
}
