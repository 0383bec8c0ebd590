package gate_test

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/aussiebroadwan/codegate/internal/gate/codec"
	gatehttp "github.com/aussiebroadwan/codegate/internal/gate/http"
	"github.com/aussiebroadwan/codegate/internal/gate/protocol"
	"github.com/aussiebroadwan/codegate/internal/gate/service"
	"github.com/aussiebroadwan/codegate/internal/gate/store/drivers/sqlite"
	"github.com/aussiebroadwan/codegate/pkg/gatesdk"
	"github.com/aussiebroadwan/codegate/pkg/httpx"
	"github.com/aussiebroadwan/codegate/pkg/jwtx"
	"github.com/aussiebroadwan/codegate/pkg/slogx"
)

const (
	adminToken   = "e2e-admin-token"
	testIssuer   = "https://gate.e2e.test"
	testCallback = "https://app.example.com/callback"
)

type gateServer struct {
	URL    string
	Signer *jwtx.EdDSASigner
}

// setupGateServer boots a full in-process server on an in-memory store and
// returns its base URL. Rate limits are widened unless a test tightens them
// beforehand.
func setupGateServer(t *testing.T) *gateServer {
	t.Helper()

	st, err := sqlite.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	require.NoError(t, st.ApplyMigrations())

	c, err := codec.New([]byte("e2e-channel-key"))
	require.NoError(t, err)

	channel := protocol.NewChannel()
	channel.RegisterOutbound(service.NewCodeIssuer(c))
	channel.RegisterInbound(service.NewCodeRedeemer(c, st, 5*time.Minute))

	signer, err := jwtx.GenerateEdDSASigner("e2e-key")
	require.NoError(t, err)

	logger := slogx.New(slogx.Config{Service: "codegate-e2e", Level: "error", Format: "text"})

	router := gatehttp.NewRouter("e2e", adminToken, st, logger)
	router.AuthorizeService = service.NewAuthorizeService(st, channel)
	router.TokenService = service.NewTokenService(channel, signer, testIssuer, 15*time.Minute)
	router.ClientService = service.NewClientService(st)
	router.ApplyRoutes()

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)

	return &gateServer{URL: srv.URL, Signer: signer}
}

// widenRateLimits raises the shared limits so multi-request tests never trip
// them. Must run before setupGateServer for the router to pick them up.
func widenRateLimits(t *testing.T) {
	t.Helper()

	wide := httpx.RateLimitConfig{RequestsPerWindow: 10000, Window: time.Minute, Burst: 10000}
	httpx.StrictLimit = wide
	httpx.ModerateLimit = wide
	httpx.LenientLimit = wide
}

// registerTestClient provisions a client through the admin API and returns
// its id and one-time secret.
func registerTestClient(t *testing.T, baseURL string, scopes []string) (string, string) {
	t.Helper()

	sdk := gatesdk.NewClient(baseURL)
	sdk.AdminToken = adminToken

	created, err := sdk.CreateClient(context.Background(), "E2E App", scopes)
	require.NoError(t, err)

	return created.Client.ID, created.Secret
}

func requireOAuth2Error(t *testing.T, err error, code string) {
	t.Helper()

	require.Error(t, err)
	var oauthErr *gatesdk.OAuth2Error
	require.ErrorAs(t, err, &oauthErr)
	require.Equal(t, code, oauthErr.Code)
}
