package bridge

import (
	"errors"
	"fmt"
)

// Kind classifies why a transfer was aborted.
type Kind string

const (
	KindUnsupportedChain     Kind = "UnsupportedChain"
	KindMalformedRequest     Kind = "MalformedRequest"
	KindBurnTransportFailure Kind = "BurnTransportFailure"
	KindMintTransportFailure Kind = "MintTransportFailure"
)

var (
	ErrUnsupportedChain = errors.New("unsupported chain")
	ErrMalformedRequest = errors.New("malformed request")
	ErrBurnFailed       = errors.New("burn failed")
	ErrMintFailed       = errors.New("mint failed")
)

// TransferError is returned by Transfer for every aborted request. Message is
// safe to show to the caller.
type TransferError struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *TransferError) Error() string {
	return e.Message
}

func (e *TransferError) Unwrap() error {
	return e.Err
}

// Is lets errors.Is match on the sentinel for the error's kind.
func (e *TransferError) Is(target error) bool {
	switch e.Kind {
	case KindUnsupportedChain:
		return target == ErrUnsupportedChain
	case KindMalformedRequest:
		return target == ErrMalformedRequest
	case KindBurnTransportFailure:
		return target == ErrBurnFailed
	case KindMintTransportFailure:
		return target == ErrMintFailed
	}
	return false
}

// ClientError reports whether the caller is at fault (HTTP 400) rather than
// a downstream agent (HTTP 500).
func (e *TransferError) ClientError() bool {
	return e.Kind == KindUnsupportedChain || e.Kind == KindMalformedRequest
}

func malformed(format string, args ...any) *TransferError {
	return &TransferError{Kind: KindMalformedRequest, Message: fmt.Sprintf(format, args...)}
}
