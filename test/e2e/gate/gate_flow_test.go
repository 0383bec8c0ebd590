package gate_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/aussiebroadwan/codegate/pkg/gatesdk"
	"github.com/aussiebroadwan/codegate/pkg/jwtx"
)

// TestFullAuthorizationFlow walks the whole grant: register a client, issue a
// verification code for alice, exchange it for an access token, verify the
// token claims, then confirm the code cannot be used twice.
func TestFullAuthorizationFlow(t *testing.T) {
	widenRateLimits(t)
	srv := setupGateServer(t)

	clientID, clientSecret := registerTestClient(t, srv.URL,
		[]string{"profile:read", "drinks:order"})

	sdk := gatesdk.NewClient(srv.URL)
	ctx := t.Context()

	auth, err := sdk.Authorize(ctx, "alice", clientID, testCallback,
		[]string{"profile:read"}, "state-42")
	require.NoError(t, err)
	require.NotEmpty(t, auth.Code)
	require.Equal(t, "state-42", auth.State)

	token, err := sdk.ExchangeCode(ctx, clientID, clientSecret, auth.Code, testCallback)
	require.NoError(t, err)
	require.NotEmpty(t, token.AccessToken)
	require.Equal(t, "Bearer", token.TokenType)
	require.Equal(t, "profile:read", token.Scope)

	verifier := jwtx.NewEdDSAVerifier("e2e-key", srv.Signer.PublicKey(),
		testIssuer, []string{clientID})
	claims, err := verifier.Verify(token.AccessToken)
	require.NoError(t, err)
	require.Equal(t, "alice", claims.Subject)
	require.Equal(t, []string{"profile:read"}, claims.Scopes)

	// Replay of the same code must fail.
	_, err = sdk.ExchangeCode(ctx, clientID, clientSecret, auth.Code, testCallback)
	requireOAuth2Error(t, err, gatesdk.ErrorCodeInvalidGrant)
}

func TestExchangeRejectsForeignCallback(t *testing.T) {
	widenRateLimits(t)
	srv := setupGateServer(t)

	clientID, clientSecret := registerTestClient(t, srv.URL, []string{"profile:read"})

	sdk := gatesdk.NewClient(srv.URL)
	ctx := t.Context()

	auth, err := sdk.Authorize(ctx, "alice", clientID, testCallback, nil, "")
	require.NoError(t, err)

	_, err = sdk.ExchangeCode(ctx, clientID, clientSecret, auth.Code,
		"https://evil.example.com/callback")
	requireOAuth2Error(t, err, gatesdk.ErrorCodeInvalidGrant)

	// The failed attempt must not burn the code.
	token, err := sdk.ExchangeCode(ctx, clientID, clientSecret, auth.Code, testCallback)
	require.NoError(t, err)
	require.NotEmpty(t, token.AccessToken)
}

func TestExchangeRejectsWrongSecret(t *testing.T) {
	widenRateLimits(t)
	srv := setupGateServer(t)

	clientID, _ := registerTestClient(t, srv.URL, []string{"profile:read"})

	sdk := gatesdk.NewClient(srv.URL)
	ctx := t.Context()

	auth, err := sdk.Authorize(ctx, "alice", clientID, testCallback, nil, "")
	require.NoError(t, err)

	_, err = sdk.ExchangeCode(ctx, clientID, "wrong-secret", auth.Code, testCallback)
	requireOAuth2Error(t, err, gatesdk.ErrorCodeInvalidClient)
}

func TestAuthorizeRequiresSubject(t *testing.T) {
	widenRateLimits(t)
	srv := setupGateServer(t)

	clientID, _ := registerTestClient(t, srv.URL, []string{"profile:read"})

	sdk := gatesdk.NewClient(srv.URL)

	_, err := sdk.Authorize(t.Context(), "", clientID, testCallback, nil, "")
	requireOAuth2Error(t, err, gatesdk.ErrorCodeAccessDenied)
}

func TestAuthorizeBoundsScope(t *testing.T) {
	widenRateLimits(t)
	srv := setupGateServer(t)

	clientID, _ := registerTestClient(t, srv.URL, []string{"profile:read"})

	sdk := gatesdk.NewClient(srv.URL)

	_, err := sdk.Authorize(t.Context(), "alice", clientID, testCallback,
		[]string{"admin:all"}, "")
	requireOAuth2Error(t, err, gatesdk.ErrorCodeInvalidScope)
}

func TestClientRegistryLifecycle(t *testing.T) {
	widenRateLimits(t)
	srv := setupGateServer(t)

	sdk := gatesdk.NewClient(srv.URL)
	sdk.AdminToken = adminToken
	ctx := t.Context()

	created, err := sdk.CreateClient(ctx, "Lifecycle App", []string{"profile:read"})
	require.NoError(t, err)
	require.NotEmpty(t, created.Secret)

	clients, err := sdk.ListClients(ctx)
	require.NoError(t, err)
	require.Len(t, clients, 1)
	require.Equal(t, "Lifecycle App", clients[0].Name)

	require.NoError(t, sdk.DeleteClient(ctx, created.Client.ID))

	clients, err = sdk.ListClients(ctx)
	require.NoError(t, err)
	require.Empty(t, clients)

	// A deleted client can no longer authorize.
	_, err = sdk.Authorize(ctx, "alice", created.Client.ID, testCallback, nil, "")
	requireOAuth2Error(t, err, gatesdk.ErrorCodeInvalidClient)
}

func TestAdminAPIRejectsBadToken(t *testing.T) {
	widenRateLimits(t)
	srv := setupGateServer(t)

	sdk := gatesdk.NewClient(srv.URL)
	sdk.AdminToken = "not-the-token"

	_, err := sdk.ListClients(t.Context())
	requireOAuth2Error(t, err, gatesdk.ErrorCodeAccessDenied)
}
