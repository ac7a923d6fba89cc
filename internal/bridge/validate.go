package bridge

import (
	"strings"

	"github.com/ethereum/go-ethereum/common/math"

	"crossbridge/internal/registry"
)

// TransferRequest is the body of POST /bridge.
type TransferRequest struct {
	UserAddress      string `json:"userAddress"`
	Amount           string `json:"amount"`
	SourceChain      string `json:"sourceChain"`
	DestinationChain string `json:"destinationChain"`
	RecipientAddress string `json:"recipientAddress"`
}

// ValidatedRequest carries a request whose chains are known to resolve.
type ValidatedRequest struct {
	TransferRequest
	Source      registry.Entry
	Destination registry.Entry
}

// Resolver is the read side of the chain registry.
type Resolver interface {
	Resolve(chainName string) (registry.Entry, error)
	Chains() []string
}

// Validate checks a request against the registry. Chains are checked first so
// an unknown chain is always reported as UnsupportedChain. Addresses are
// passed through untouched; their format is the agent's concern.
func Validate(req TransferRequest, chains Resolver) (ValidatedRequest, error) {
	src, srcErr := chains.Resolve(req.SourceChain)
	dst, dstErr := chains.Resolve(req.DestinationChain)
	if srcErr != nil || dstErr != nil {
		cause := srcErr
		if cause == nil {
			cause = dstErr
		}
		return ValidatedRequest{}, &TransferError{
			Kind:    KindUnsupportedChain,
			Message: "Invalid chain specified. Supported chains: " + strings.Join(chains.Chains(), ", "),
			Err:     cause,
		}
	}

	if strings.TrimSpace(req.UserAddress) == "" {
		return ValidatedRequest{}, malformed("userAddress is required")
	}
	if strings.TrimSpace(req.RecipientAddress) == "" {
		return ValidatedRequest{}, malformed("recipientAddress is required")
	}
	amount := strings.TrimSpace(req.Amount)
	if amount == "" {
		return ValidatedRequest{}, malformed("amount is required")
	}
	if !isPositiveAmount(amount) {
		return ValidatedRequest{}, malformed("amount must be a positive integer string, got %q", req.Amount)
	}

	req.Amount = amount
	return ValidatedRequest{TransferRequest: req, Source: src, Destination: dst}, nil
}

// isPositiveAmount accepts plain decimal digits that fit in a uint256 and
// are not zero. ParseBig256 alone would also let through signs and
// 0x-prefixed hex.
func isPositiveAmount(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	n, ok := math.ParseBig256(s)
	return ok && n.Sign() > 0
}
