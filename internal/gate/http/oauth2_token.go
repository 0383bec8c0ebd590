package http

import (
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/aussiebroadwan/codegate/internal/gate/service"
	"github.com/aussiebroadwan/codegate/pkg/gatesdk"
	"github.com/aussiebroadwan/codegate/pkg/httpx"
	"github.com/aussiebroadwan/codegate/pkg/slogx"
)

// TokenHandler serves POST /v1/oauth2/token
// Accepts application/x-www-form-urlencoded per the RFC 6749 framework.
type TokenHandler struct {
	TokenService *service.TokenService
}

// ServeHTTP godoc
//
//	@Summary		OAuth2 Token Endpoint
//	@Description	Redeems a single-use verification code for an access token. Only the authorization_code grant is supported.
//	@Description	Redemption consumes the code atomically: a second presentation of the same code fails with invalid_grant.
//	@Tags			OAuth2
//	@Accept			application/x-www-form-urlencoded
//	@Produce		json
//	@Param			grant_type		formData	string					true	"Grant type"	Enums(authorization_code)
//	@Param			code			formData	string					true	"Verification code from the authorize endpoint"
//	@Param			redirect_uri	formData	string					true	"Callback the code was bound to"
//	@Param			client_id		formData	string					true	"Client identifier"
//	@Param			client_secret	formData	string					true	"Client secret"
//	@Success		200				{object}	gatesdk.TokenResponse	"access_token, token_type, expires_in, scope"
//	@Failure		400				{object}	gatesdk.ErrorResponse	"error, error_description"
//	@Failure		401				{object}	gatesdk.ErrorResponse	"error, error_description"
//	@Failure		500				{object}	gatesdk.ErrorResponse	"error, error_description"
//	@Header			200				{string}	Cache-Control			"no-store"
//	@Header			200				{string}	Pragma					"no-cache"
//	@Router			/v1/oauth2/token [post].
func (h *TokenHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	// 1. Ensure the right content-type
	if ct := r.Header.Get("Content-Type"); ct != "" &&
		!strings.HasPrefix(ct, "application/x-www-form-urlencoded") {
		gatesdk.ErrInvalidContentType.WriteError(w)
		return
	}

	// 2. Parse the form body
	if err := r.ParseForm(); err != nil {
		gatesdk.ErrInvalidFormBody.WriteError(w)
		return
	}

	// 3. Handle the grant type
	switch r.Form.Get("grant_type") {
	case "authorization_code":
		h.handleAuthorizationCodeGrant(w, r, r.Form)
	default:
		gatesdk.ErrUnsupportedGrantType.WriteError(w)
	}
}

func (h *TokenHandler) handleAuthorizationCodeGrant(
	w http.ResponseWriter,
	r *http.Request,
	form url.Values,
) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	code := strings.TrimSpace(form.Get("code"))
	redirectURI := strings.TrimSpace(form.Get("redirect_uri"))
	clientID := strings.TrimSpace(form.Get("client_id"))
	clientSecret := form.Get("client_secret")

	if code == "" || redirectURI == "" || clientID == "" || clientSecret == "" {
		gatesdk.ErrInvalidRequest.WriteError(w)
		return
	}

	result, err := h.TokenService.ExchangeVerificationCode(ctx, clientID, clientSecret, code, redirectURI)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidClient),
			errors.Is(err, service.ErrInvalidClientCredentials):
			// Unknown id and wrong secret are indistinguishable on the wire.
			gatesdk.ErrInvalidClient.WriteError(w)
		case errors.Is(err, service.ErrInvalidGrant),
			errors.Is(err, service.ErrCallbackMismatch),
			errors.Is(err, service.ErrExpiredGrant),
			errors.Is(err, service.ErrReplayedGrant):
			gatesdk.ErrInvalidGrant.WriteError(w)
		default:
			log.Error("authorization_code grant failed", "err", err)
			gatesdk.ErrServerError.WriteError(w)
		}
		return
	}

	httpx.WriteJSON(w, http.StatusOK, gatesdk.TokenResponse{
		AccessToken: result.AccessToken,
		TokenType:   result.TokenType,
		ExpiresIn:   result.ExpiresIn,
		Scope:       result.Scope,
	})
}
