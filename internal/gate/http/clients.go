package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/aussiebroadwan/codegate/internal/gate/domain"
	"github.com/aussiebroadwan/codegate/internal/gate/service"
	"github.com/aussiebroadwan/codegate/internal/gate/store"
	"github.com/aussiebroadwan/codegate/pkg/gatesdk"
	"github.com/aussiebroadwan/codegate/pkg/httpx"
	"github.com/aussiebroadwan/codegate/pkg/slogx"
)

// ClientsHandler serves the admin client registry under /v1/clients.
type ClientsHandler struct {
	ClientService *service.ClientService
}

func clientInfo(c domain.Client) gatesdk.ClientInfo {
	return gatesdk.ClientInfo{
		ID:        c.ID,
		Name:      c.Name,
		Scopes:    c.Scopes,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
}

// HandleCreate godoc
//
//	@Summary		Register Client
//	@Description	Registers an OAuth2 client and returns its generated secret exactly once.
//	@Tags			Clients
//	@Accept			json
//	@Produce		json
//	@Param			request	body		gatesdk.CreateClientRequest		true	"name, scopes"
//	@Success		201		{object}	gatesdk.CreateClientResponse	"client, secret"
//	@Failure		400		{object}	gatesdk.ErrorResponse			"error, error_description"
//	@Failure		401		{object}	gatesdk.ErrorResponse			"error, error_description"
//	@Security		AdminAuth
//	@Router			/v1/clients [post].
func (h *ClientsHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req gatesdk.CreateClientRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		gatesdk.ErrInvalidRequest.WriteError(w)
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		gatesdk.ErrInvalidRequest.WriteError(w)
		return
	}

	created, err := h.ClientService.CreateClient(r.Context(), req.Name, req.Scopes)
	if err != nil {
		slogx.FromContext(r.Context()).Error("client creation failed", "err", err)
		gatesdk.ErrServerError.WriteError(w)
		return
	}

	httpx.WriteJSON(w, http.StatusCreated, gatesdk.CreateClientResponse{
		Client: clientInfo(created.Client),
		Secret: created.Secret,
	})
}

// HandleList godoc
//
//	@Summary		List Clients
//	@Tags			Clients
//	@Produce		json
//	@Success		200	{array}		gatesdk.ClientInfo
//	@Failure		401	{object}	gatesdk.ErrorResponse	"error, error_description"
//	@Security		AdminAuth
//	@Router			/v1/clients [get].
func (h *ClientsHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	clients, err := h.ClientService.ListClients(r.Context())
	if err != nil {
		slogx.FromContext(r.Context()).Error("client listing failed", "err", err)
		gatesdk.ErrServerError.WriteError(w)
		return
	}

	infos := make([]gatesdk.ClientInfo, 0, len(clients))
	for _, c := range clients {
		infos = append(infos, clientInfo(c))
	}

	httpx.WriteJSON(w, http.StatusOK, infos)
}

// HandleGet godoc
//
//	@Summary		Get Client
//	@Tags			Clients
//	@Produce		json
//	@Param			id	path		string	true	"Client id"
//	@Success		200	{object}	gatesdk.ClientInfo
//	@Failure		404	{object}	gatesdk.ErrorResponse	"error, error_description"
//	@Security		AdminAuth
//	@Router			/v1/clients/{id} [get].
func (h *ClientsHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	client, err := h.ClientService.GetClient(r.Context(), r.PathValue("id"))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			gatesdk.NewOAuth2Error(http.StatusNotFound, gatesdk.ErrorCodeInvalidRequest,
				"unknown client").WriteError(w)
			return
		}
		slogx.FromContext(r.Context()).Error("client lookup failed", "err", err)
		gatesdk.ErrServerError.WriteError(w)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, clientInfo(client))
}

// HandleRotateSecret godoc
//
//	@Summary		Rotate Client Secret
//	@Description	Replaces the client's secret and returns the new one exactly once.
//	@Tags			Clients
//	@Produce		json
//	@Param			id	path		string					true	"Client id"
//	@Success		200	{object}	map[string]string		"secret"
//	@Failure		404	{object}	gatesdk.ErrorResponse	"error, error_description"
//	@Security		AdminAuth
//	@Router			/v1/clients/{id}/rotate [post].
func (h *ClientsHandler) HandleRotateSecret(w http.ResponseWriter, r *http.Request) {
	secret, err := h.ClientService.RotateClientSecret(r.Context(), r.PathValue("id"))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			gatesdk.NewOAuth2Error(http.StatusNotFound, gatesdk.ErrorCodeInvalidRequest,
				"unknown client").WriteError(w)
			return
		}
		slogx.FromContext(r.Context()).Error("client secret rotation failed", "err", err)
		gatesdk.ErrServerError.WriteError(w)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, map[string]string{"secret": secret})
}

// HandleDelete godoc
//
//	@Summary		Delete Client
//	@Tags			Clients
//	@Param			id	path	string	true	"Client id"
//	@Success		204
//	@Failure		404	{object}	gatesdk.ErrorResponse	"error, error_description"
//	@Security		AdminAuth
//	@Router			/v1/clients/{id} [delete].
func (h *ClientsHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	if err := h.ClientService.DeleteClient(r.Context(), r.PathValue("id")); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			gatesdk.NewOAuth2Error(http.StatusNotFound, gatesdk.ErrorCodeInvalidRequest,
				"unknown client").WriteError(w)
			return
		}
		slogx.FromContext(r.Context()).Error("client deletion failed", "err", err)
		gatesdk.ErrServerError.WriteError(w)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
