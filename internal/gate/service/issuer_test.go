package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/aussiebroadwan/codegate/internal/gate/protocol"
)

func TestCodeIssuer_AttachesCode(t *testing.T) {
	c := newTestCodec(t)
	issuer := NewCodeIssuer(c)

	issuedAt := time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)
	issuer.now = func() time.Time { return issuedAt }

	resp := &protocol.AuthorizationResponse{
		ClientID:        "client-1",
		Callback:        "https://app.example.com/callback",
		Scope:           []string{"profile:read"},
		AuthorizingUser: "alice",
		State:           "xyz",
	}

	outcome, err := issuer.ProcessOutbound(context.Background(), resp)
	require.NoError(t, err)
	require.Equal(t, protocol.OutcomeNoProtection, outcome)
	require.NotEmpty(t, resp.VerificationCode)

	code, err := c.Decode(resp.VerificationCode)
	require.NoError(t, err)
	require.Equal(t, resp.Callback, code.Callback)
	require.Equal(t, resp.Scope, code.Scope)
	require.Equal(t, "alice", code.AuthorizingUser)
	require.NotEmpty(t, code.Nonce)
	require.True(t, issuedAt.Equal(code.CreatedAt))
}

func TestCodeIssuer_FreshNoncePerCode(t *testing.T) {
	c := newTestCodec(t)
	issuer := NewCodeIssuer(c)

	nonces := make(map[string]bool)
	for range 10 {
		resp := &protocol.AuthorizationResponse{
			ClientID:        "client-1",
			Callback:        "https://app.example.com/callback",
			AuthorizingUser: "alice",
		}

		_, err := issuer.ProcessOutbound(context.Background(), resp)
		require.NoError(t, err)

		code, err := c.Decode(resp.VerificationCode)
		require.NoError(t, err)
		require.False(t, nonces[code.Nonce], "nonce reused")
		nonces[code.Nonce] = true
	}
}

func TestCodeIssuer_RequiresSubject(t *testing.T) {
	issuer := NewCodeIssuer(newTestCodec(t))

	resp := &protocol.AuthorizationResponse{
		ClientID: "client-1",
		Callback: "https://app.example.com/callback",
	}

	_, err := issuer.ProcessOutbound(context.Background(), resp)
	require.ErrorIs(t, err, ErrMissingSubject)
	require.Empty(t, resp.VerificationCode)
}

func TestCodeIssuer_IgnoresOtherMessages(t *testing.T) {
	issuer := NewCodeIssuer(newTestCodec(t))

	outcome, err := issuer.ProcessOutbound(context.Background(), &protocol.AccessTokenRequest{})
	require.NoError(t, err)
	require.Equal(t, protocol.OutcomeNotApplicable, outcome)
}
