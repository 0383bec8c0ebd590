package service

import (
	"context"
	"encoding/base64"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/aussiebroadwan/codegate/internal/gate/codec"
	"github.com/aussiebroadwan/codegate/internal/gate/protocol"
	"github.com/aussiebroadwan/codegate/internal/gate/store"
)

const (
	testCallback = "https://app.example.com/callback"
	testMaxAge   = 5 * time.Minute
)

type redeemerEnv struct {
	codec    *codec.Codec
	store    store.Store
	redeemer *CodeRedeemer
}

func newRedeemerEnv(t *testing.T) *redeemerEnv {
	t.Helper()

	st := newTestStore(t)
	c := newTestCodec(t)
	registerClient(t, st, "client-1", "sekret", []string{"profile:read", "drinks:order"})

	return &redeemerEnv{
		codec:    c,
		store:    st,
		redeemer: NewCodeRedeemer(c, st, testMaxAge),
	}
}

func (e *redeemerEnv) issueCode(t *testing.T, createdAt time.Time) string {
	t.Helper()

	issuer := NewCodeIssuer(e.codec)
	issuer.now = func() time.Time { return createdAt }

	resp := &protocol.AuthorizationResponse{
		ClientID:        "client-1",
		Callback:        testCallback,
		Scope:           []string{"profile:read"},
		AuthorizingUser: "alice",
	}
	_, err := issuer.ProcessOutbound(context.Background(), resp)
	require.NoError(t, err)

	return resp.VerificationCode
}

func tokenRequest(code string) *protocol.AccessTokenRequest {
	return &protocol.AccessTokenRequest{
		ClientID:         "client-1",
		ClientSecret:     "sekret",
		VerificationCode: code,
		Callback:         testCallback,
	}
}

func TestCodeRedeemer_HappyPath(t *testing.T) {
	env := newRedeemerEnv(t)
	code := env.issueCode(t, time.Now().UTC())

	req := tokenRequest(code)
	outcome, err := env.redeemer.ProcessInbound(context.Background(), req)
	require.NoError(t, err)
	require.Equal(t, protocol.OutcomeNoProtection, outcome)
	require.Equal(t, []string{"profile:read"}, req.GrantedScope)
	require.Equal(t, "alice", req.AuthorizingUser)
}

func TestCodeRedeemer_UnknownClient(t *testing.T) {
	env := newRedeemerEnv(t)
	code := env.issueCode(t, time.Now().UTC())

	req := tokenRequest(code)
	req.ClientID = "who-dis"

	_, err := env.redeemer.ProcessInbound(context.Background(), req)
	require.ErrorIs(t, err, ErrInvalidClient)
}

func TestCodeRedeemer_WrongSecret(t *testing.T) {
	env := newRedeemerEnv(t)
	code := env.issueCode(t, time.Now().UTC())

	req := tokenRequest(code)
	req.ClientSecret = "not-the-secret"

	_, err := env.redeemer.ProcessInbound(context.Background(), req)
	require.ErrorIs(t, err, ErrInvalidClientCredentials)
}

func TestCodeRedeemer_UndecodableCode(t *testing.T) {
	env := newRedeemerEnv(t)
	env.issueCode(t, time.Now().UTC())

	for _, bad := range []string{"", "!!!", "bm90LWEtY29kZQ"} {
		req := tokenRequest(bad)
		_, err := env.redeemer.ProcessInbound(context.Background(), req)
		require.ErrorIs(t, err, ErrInvalidGrant)
	}
}

func TestCodeRedeemer_TamperedCode(t *testing.T) {
	env := newRedeemerEnv(t)
	code := env.issueCode(t, time.Now().UTC())

	raw, err := base64.RawURLEncoding.DecodeString(code)
	require.NoError(t, err)
	raw[len(raw)/2] ^= 0x01

	req := tokenRequest(base64.RawURLEncoding.EncodeToString(raw))
	_, err = env.redeemer.ProcessInbound(context.Background(), req)
	require.ErrorIs(t, err, ErrInvalidGrant)
	require.ErrorIs(t, err, codec.ErrTampered)
}

func TestCodeRedeemer_CallbackMismatch(t *testing.T) {
	env := newRedeemerEnv(t)
	code := env.issueCode(t, time.Now().UTC())

	req := tokenRequest(code)
	req.Callback = "https://evil.example.com/callback"

	_, err := env.redeemer.ProcessInbound(context.Background(), req)
	require.ErrorIs(t, err, ErrCallbackMismatch)

	// Rejection must not consume the nonce: the rightful request still works.
	req = tokenRequest(code)
	_, err = env.redeemer.ProcessInbound(context.Background(), req)
	require.NoError(t, err)
}

func TestCodeRedeemer_ExpiryBoundary(t *testing.T) {
	env := newRedeemerEnv(t)

	createdAt := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)

	cases := []struct {
		name    string
		now     time.Time
		expired bool
	}{
		{name: "well inside window", now: createdAt.Add(time.Minute), expired: false},
		{name: "exactly at expiry", now: createdAt.Add(testMaxAge), expired: false},
		{name: "just past expiry", now: createdAt.Add(testMaxAge + time.Nanosecond), expired: true},
		{name: "long past expiry", now: createdAt.Add(time.Hour), expired: true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			code := env.issueCode(t, createdAt)
			env.redeemer.now = func() time.Time { return tc.now }

			_, err := env.redeemer.ProcessInbound(context.Background(), tokenRequest(code))
			if tc.expired {
				require.ErrorIs(t, err, ErrExpiredGrant)
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestCodeRedeemer_SingleUse(t *testing.T) {
	env := newRedeemerEnv(t)
	code := env.issueCode(t, time.Now().UTC())

	_, err := env.redeemer.ProcessInbound(context.Background(), tokenRequest(code))
	require.NoError(t, err)

	_, err = env.redeemer.ProcessInbound(context.Background(), tokenRequest(code))
	require.ErrorIs(t, err, ErrReplayedGrant)
}

func TestCodeRedeemer_ConcurrentRedemption(t *testing.T) {
	env := newRedeemerEnv(t)
	code := env.issueCode(t, time.Now().UTC())

	const workers = 12

	var (
		wins int64
		wg   sync.WaitGroup
	)
	errs := make(chan error, workers)
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()

			_, err := env.redeemer.ProcessInbound(context.Background(), tokenRequest(code))
			if err == nil {
				atomic.AddInt64(&wins, 1)
				return
			}
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	require.Equal(t, int64(1), wins)
	for err := range errs {
		require.ErrorIs(t, err, ErrReplayedGrant)
	}
}

func TestCodeRedeemer_IgnoresOtherMessages(t *testing.T) {
	env := newRedeemerEnv(t)

	outcome, err := env.redeemer.ProcessInbound(context.Background(), &protocol.AuthorizationResponse{})
	require.NoError(t, err)
	require.Equal(t, protocol.OutcomeNotApplicable, outcome)
}

// Full round trip as a client would see it: authorization for client-1 on
// behalf of alice, one successful exchange, then a replayed exchange that
// must be rejected.
func TestVerificationCodeLifecycle(t *testing.T) {
	st := newTestStore(t)
	c := newTestCodec(t)
	registerClient(t, st, "C1", "c1-secret", []string{"profile:read", "drinks:order"})

	channel := protocol.NewChannel()
	channel.RegisterOutbound(NewCodeIssuer(c))
	channel.RegisterInbound(NewCodeRedeemer(c, st, testMaxAge))

	ctx := context.Background()

	authorize := NewAuthorizeService(st, channel)
	result, err := authorize.Authorize(ctx, "C1", testCallback, []string{"profile:read"}, "alice", "state-1")
	require.NoError(t, err)
	require.NotEmpty(t, result.Code)
	require.Equal(t, "state-1", result.State)

	req := &protocol.AccessTokenRequest{
		ClientID:         "C1",
		ClientSecret:     "c1-secret",
		VerificationCode: result.Code,
		Callback:         testCallback,
	}
	_, err = channel.DispatchInbound(ctx, req)
	require.NoError(t, err)
	require.Equal(t, []string{"profile:read"}, req.GrantedScope)
	require.Equal(t, "alice", req.AuthorizingUser)

	replay := &protocol.AccessTokenRequest{
		ClientID:         "C1",
		ClientSecret:     "c1-secret",
		VerificationCode: result.Code,
		Callback:         testCallback,
	}
	_, err = channel.DispatchInbound(ctx, replay)
	require.ErrorIs(t, err, ErrReplayedGrant)
	require.Empty(t, replay.GrantedScope)

	// A domain error must not poison the nonce ledger for later grants.
	result2, err := authorize.Authorize(ctx, "C1", testCallback, nil, "alice", "state-2")
	require.NoError(t, err)
	require.NotEqual(t, result.Code, result2.Code)
}
