package bridge

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"crossbridge/internal/agent"
)

// SuccessMessage is returned in Outcome.Message for completed transfers.
const SuccessMessage = "Bridge operation completed successfully"

// State is a step of a single transfer.
type State string

const (
	StateValidating State = "validating"
	StateBurning    State = "burning"
	StateMinting    State = "minting"
	StateSucceeded  State = "succeeded"
	StateAborted    State = "aborted"
)

// Outcome is the terminal result of a successful transfer.
type Outcome struct {
	Message      string `json:"message"`
	BurnResponse string `json:"burnResponse"`
	MintResponse string `json:"mintResponse"`
}

// Observer is told about every agent call and every finished transfer.
// Implementations must be safe for concurrent use.
type Observer interface {
	PhaseCompleted(action agent.Action, res agent.PhaseResult, elapsed time.Duration)
	TransferFinished(state State, kind Kind)
}

// Config wires an Orchestrator. Registry and Agents are required.
type Config struct {
	Registry Resolver
	Agents   agent.Client
	// DeadLetter records transfers whose burn succeeded but whose mint
	// failed. Nil disables recording.
	DeadLetter *DeadLetter
	Observer   Observer
}

// Orchestrator runs the burn-then-mint sequence. It holds no per-request
// state, so one instance serves all requests concurrently.
type Orchestrator struct {
	registry   Resolver
	agents     agent.Client
	deadLetter *DeadLetter
	observer   Observer
}

func NewOrchestrator(cfg Config) (*Orchestrator, error) {
	if cfg.Registry == nil {
		return nil, errors.New("orchestrator: registry is required")
	}
	if cfg.Agents == nil {
		return nil, errors.New("orchestrator: agent client is required")
	}
	observer := cfg.Observer
	if observer == nil {
		observer = noopObserver{}
	}
	return &Orchestrator{
		registry:   cfg.Registry,
		agents:     cfg.Agents,
		deadLetter: cfg.DeadLetter,
		observer:   observer,
	}, nil
}

// Transfer validates req, burns on the source chain and, only once the burn
// call has returned successfully, mints on the destination chain.
//
// A failed mint leaves the burn in place. Nothing is rolled back; the
// transfer is written to the dead-letter directory when one is configured.
func (o *Orchestrator) Transfer(ctx context.Context, req TransferRequest) (Outcome, error) {
	logger := zerolog.Ctx(ctx).With().
		Str("source_chain", req.SourceChain).
		Str("destination_chain", req.DestinationChain).
		Str("amount", req.Amount).
		Logger()

	state := StateValidating
	vr, err := Validate(req, o.registry)
	if err != nil {
		return Outcome{}, o.abort(&logger, state, err)
	}

	state = StateBurning
	logger.Info().Str("state", string(state)).Msg("transfer phase started")
	burn := o.invoke(ctx, vr.Source.AgentEndpoint, agent.Instruction{
		Action:  agent.ActionBurn,
		Chain:   vr.SourceChain,
		Amount:  vr.Amount,
		Address: vr.UserAddress,
	})
	if !burn.Success {
		return Outcome{}, o.abort(&logger, state, &TransferError{
			Kind:    KindBurnTransportFailure,
			Message: burn.ErrorMessage,
			Err:     ErrBurnFailed,
		})
	}

	state = StateMinting
	logger.Info().Str("state", string(state)).Msg("transfer phase started")
	mint := o.invoke(ctx, vr.Destination.AgentEndpoint, agent.Instruction{
		Action:  agent.ActionMint,
		Chain:   vr.DestinationChain,
		Amount:  vr.Amount,
		Address: vr.RecipientAddress,
	})
	if !mint.Success {
		o.recordUnreconciled(&logger, vr, burn, mint)
		return Outcome{}, o.abort(&logger, state, &TransferError{
			Kind:    KindMintTransportFailure,
			Message: mint.ErrorMessage,
			Err:     ErrMintFailed,
		})
	}

	logger.Info().Str("state", string(StateSucceeded)).Msg("transfer completed")
	o.observer.TransferFinished(StateSucceeded, "")
	return Outcome{
		Message:      SuccessMessage,
		BurnResponse: burn.RawOutput,
		MintResponse: mint.RawOutput,
	}, nil
}

func (o *Orchestrator) invoke(ctx context.Context, endpoint string, in agent.Instruction) agent.PhaseResult {
	start := time.Now()
	res := o.agents.Invoke(ctx, endpoint, in)
	o.observer.PhaseCompleted(in.Action, res, time.Since(start))
	return res
}

func (o *Orchestrator) abort(logger *zerolog.Logger, from State, err error) error {
	var terr *TransferError
	if !errors.As(err, &terr) {
		terr = &TransferError{Kind: KindMalformedRequest, Message: err.Error(), Err: err}
	}

	level := zerolog.ErrorLevel
	if terr.ClientError() {
		level = zerolog.WarnLevel
	}
	logger.WithLevel(level).
		Str("state", string(StateAborted)).
		Str("aborted_in", string(from)).
		Str("kind", string(terr.Kind)).
		Msg(terr.Message)

	o.observer.TransferFinished(StateAborted, terr.Kind)
	return terr
}

func (o *Orchestrator) recordUnreconciled(logger *zerolog.Logger, vr ValidatedRequest, burn, mint agent.PhaseResult) {
	if o.deadLetter == nil {
		return
	}
	if err := o.deadLetter.Write(UnreconciledTransfer{
		Request:      vr.TransferRequest,
		BurnResponse: burn.RawOutput,
		MintError:    mint.ErrorMessage,
	}); err != nil {
		logger.Error().Err(err).Msg("dead letter write failed")
	}
}

type noopObserver struct{}

func (noopObserver) PhaseCompleted(agent.Action, agent.PhaseResult, time.Duration) {}
func (noopObserver) TransferFinished(State, Kind) {}
