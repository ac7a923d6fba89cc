package bridge

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"crossbridge/internal/registry"
)

func testRegistry(t *testing.T) *registry.Registry {
	t.Helper()
	reg, err := registry.New(registry.Defaults())
	require.NoError(t, err)
	return reg
}

func validRequest() TransferRequest {
	return TransferRequest{
		UserAddress:      "0xA",
		Amount:           "10",
		SourceChain:      "Ethereum",
		DestinationChain: "Base",
		RecipientAddress: "0xB",
	}
}

func TestValidateAccepts(t *testing.T) {
	vr, err := Validate(validRequest(), testRegistry(t))
	require.NoError(t, err)
	require.Equal(t, "http://127.0.0.1:6000", vr.Source.AgentEndpoint)
	require.Equal(t, "http://127.0.0.1:6002", vr.Destination.AgentEndpoint)
	require.Equal(t, "10", vr.Amount)
}

func TestValidateUnsupportedChain(t *testing.T) {
	for _, mutate := range []func(*TransferRequest){
		func(r *TransferRequest) { r.SourceChain = "Unknown" },
		func(r *TransferRequest) { r.DestinationChain = "Unknown" },
		func(r *TransferRequest) { r.SourceChain = "" },
	} {
		req := validRequest()
		mutate(&req)

		_, err := Validate(req, testRegistry(t))
		require.ErrorIs(t, err, ErrUnsupportedChain)
		require.ErrorIs(t, err, registry.ErrChainNotFound)
		require.Equal(t, "Invalid chain specified. Supported chains: Base, Ethereum, Matic, Optimism", err.Error())

		var terr *TransferError
		require.True(t, errors.As(err, &terr))
		require.True(t, terr.ClientError())
	}
}

func TestValidateUnknownChainWinsOverMissingFields(t *testing.T) {
	_, err := Validate(TransferRequest{SourceChain: "Unknown", DestinationChain: "Base"}, testRegistry(t))
	require.ErrorIs(t, err, ErrUnsupportedChain)
}

func TestValidateMalformed(t *testing.T) {
	cases := map[string]func(*TransferRequest){
		"missing userAddress":      func(r *TransferRequest) { r.UserAddress = "" },
		"blank recipientAddress":   func(r *TransferRequest) { r.RecipientAddress = "   " },
		"missing amount":           func(r *TransferRequest) { r.Amount = "" },
		"fractional amount":        func(r *TransferRequest) { r.Amount = "1.5" },
		"negative amount":          func(r *TransferRequest) { r.Amount = "-5" },
		"hex amount":               func(r *TransferRequest) { r.Amount = "0x10" },
		"amount wider than 256bit": func(r *TransferRequest) { r.Amount = "1" + strings.Repeat("0", 80) },
		"zero amount":              func(r *TransferRequest) { r.Amount = "0" },
		"padded zero amount":       func(r *TransferRequest) { r.Amount = "000" },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			req := validRequest()
			mutate(&req)

			_, err := Validate(req, testRegistry(t))
			require.ErrorIs(t, err, ErrMalformedRequest)
			require.NotErrorIs(t, err, ErrUnsupportedChain)
		})
	}
}

func TestValidateTrimsAmount(t *testing.T) {
	req := validRequest()
	req.Amount = " 42 "

	vr, err := Validate(req, testRegistry(t))
	require.NoError(t, err)
	require.Equal(t, "42", vr.Amount)
}
