package http

import (
	"errors"
	"net/http"
	"strings"

	"github.com/aussiebroadwan/codegate/internal/gate/service"
	"github.com/aussiebroadwan/codegate/pkg/gatesdk"
	"github.com/aussiebroadwan/codegate/pkg/httpx"
	"github.com/aussiebroadwan/codegate/pkg/slogx"
)

// subjectHeader carries the authenticated end user, set by the trusted
// gateway in front of this service. Requests arriving without it are treated
// as unauthenticated and denied.
const subjectHeader = "X-Authenticated-Subject"

// AuthorizeHandler serves POST /v1/oauth2/authorize
// Accepts application/x-www-form-urlencoded per the RFC 6749 framework.
type AuthorizeHandler struct {
	AuthorizeService *service.AuthorizeService
}

// ServeHTTP godoc
//
//	@Summary		OAuth2 Authorization Endpoint
//	@Description	Issues a single-use verification code for an authenticated user and registered client.
//	@Description	The upstream gateway authenticates the user and forwards the subject in X-Authenticated-Subject;
//	@Description	redirect assembly back to the client is also the gateway's concern.
//	@Tags			OAuth2
//	@Accept			application/x-www-form-urlencoded
//	@Produce		json
//	@Param			client_id				formData	string					true	"Client identifier"
//	@Param			redirect_uri			formData	string					true	"Callback the code will be bound to"
//	@Param			scope					formData	string					false	"Space-delimited list of requested scopes"
//	@Param			state					formData	string					false	"Opaque CSRF state echoed back to the client"
//	@Param			X-Authenticated-Subject	header		string					true	"Authenticated end user"
//	@Success		200						{object}	gatesdk.AuthorizeResponse	"code, state"
//	@Failure		400						{object}	gatesdk.ErrorResponse	"error, error_description"
//	@Failure		401						{object}	gatesdk.ErrorResponse	"error, error_description"
//	@Failure		403						{object}	gatesdk.ErrorResponse	"error, error_description"
//	@Failure		500						{object}	gatesdk.ErrorResponse	"error, error_description"
//	@Router			/v1/oauth2/authorize [post].
func (h *AuthorizeHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if ct := r.Header.Get("Content-Type"); ct != "" &&
		!strings.HasPrefix(ct, "application/x-www-form-urlencoded") {
		gatesdk.ErrInvalidContentType.WriteError(w)
		return
	}

	if err := r.ParseForm(); err != nil {
		gatesdk.ErrInvalidFormBody.WriteError(w)
		return
	}

	ctx := r.Context()
	log := slogx.FromContext(ctx)

	clientID := strings.TrimSpace(r.Form.Get("client_id"))
	callback := strings.TrimSpace(r.Form.Get("redirect_uri"))
	scope := httpx.ParseSpaceDelimitedFields(r.Form.Get("scope"))
	state := r.Form.Get("state")
	subject := strings.TrimSpace(r.Header.Get(subjectHeader))

	if clientID == "" || callback == "" {
		gatesdk.ErrInvalidRequest.WriteError(w)
		return
	}

	result, err := h.AuthorizeService.Authorize(ctx, clientID, callback, scope, subject, state)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidClient):
			gatesdk.ErrInvalidClient.WriteError(w)
		case errors.Is(err, service.ErrInvalidScope):
			gatesdk.ErrInvalidScope.WriteError(w)
		case errors.Is(err, service.ErrMissingSubject):
			gatesdk.ErrAccessDenied.WriteError(w)
		default:
			log.Error("authorization failed", "err", err)
			gatesdk.ErrServerError.WriteError(w)
		}
		return
	}

	httpx.WriteJSON(w, http.StatusOK, gatesdk.AuthorizeResponse{
		Code:  result.Code,
		State: result.State,
	})
}
