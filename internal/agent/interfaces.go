package agent

import (
	"context"
	"fmt"
)

// Client issues one instruction to a chain agent and captures its output.
// Implementations never return an error; failures are folded into the
// PhaseResult so the orchestrator can treat every phase uniformly.
type Client interface {
	Invoke(ctx context.Context, endpoint string, in Instruction) PhaseResult
}

// Action is the on-chain operation an agent is asked to perform.
type Action string

const (
	ActionBurn Action = "burn"
	ActionMint Action = "mint"
)

// Instruction is the typed form of the command sent to an agent.
type Instruction struct {
	Action  Action
	Chain   string
	Amount  string // integer string in the token's smallest unit
	Address string
}

// Prompt renders the natural-language command understood by the agents.
func (in Instruction) Prompt() string {
	switch in.Action {
	case ActionBurn:
		return fmt.Sprintf("Initiate crosschain burn of %s tokens from %s on %s", in.Amount, in.Address, in.Chain)
	case ActionMint:
		return fmt.Sprintf("Initiate crosschain mint of %s tokens to %s on %s", in.Amount, in.Address, in.Chain)
	default:
		return fmt.Sprintf("Initiate crosschain %s of %s tokens for %s on %s", in.Action, in.Amount, in.Address, in.Chain)
	}
}

// PhaseResult is the outcome of a single agent call.
//
// Success only means the call completed. The agent's reply is free text and is
// not inspected, so an agent that reports a failed transaction in prose still
// yields Success=true.
type PhaseResult struct {
	Success      bool
	RawOutput    string
	ErrorMessage string
}

type requestIDKey struct{}

// WithRequestID attaches the inbound request ID so it is forwarded to agents.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

// RequestIDFrom returns the request ID stored by WithRequestID, if any.
func RequestIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}
