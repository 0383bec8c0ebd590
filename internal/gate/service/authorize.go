package service

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/aussiebroadwan/codegate/internal/gate/protocol"
	"github.com/aussiebroadwan/codegate/internal/gate/store"
	"github.com/aussiebroadwan/codegate/pkg/slogx"
)

// AuthorizeService validates authorization requests and drives the outbound
// channel so the registered Code Issuer can attach a verification code.
type AuthorizeService struct {
	store   store.Store
	channel *protocol.Channel
}

func NewAuthorizeService(st store.Store, ch *protocol.Channel) *AuthorizeService {
	return &AuthorizeService{store: st, channel: ch}
}

// AuthorizeResult is handed back to the transport layer for delivery to the
// client's callback.
type AuthorizeResult struct {
	Code  string
	State string
}

// Authorize checks the client and scope, then dispatches an authorization
// response through the outbound channel. An empty requested scope defaults to
// everything the client is registered for; a requested scope with no overlap
// with the registration is rejected.
func (s *AuthorizeService) Authorize(ctx context.Context, clientID, callback string, requestedScope []string, subject, state string) (AuthorizeResult, error) {
	if subject == "" {
		return AuthorizeResult{}, ErrMissingSubject
	}

	client, err := s.store.Clients().GetClientByID(ctx, clientID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return AuthorizeResult{}, ErrInvalidClient
		}
		return AuthorizeResult{}, fmt.Errorf("look up client: %w", err)
	}

	scope := client.Scopes
	if len(requestedScope) > 0 {
		scope = intersectScopes(requestedScope, client.Scopes)
		if len(scope) == 0 {
			return AuthorizeResult{}, ErrInvalidScope
		}
	}

	resp := &protocol.AuthorizationResponse{
		ClientID:        clientID,
		Callback:        callback,
		Scope:           scope,
		AuthorizingUser: subject,
		State:           state,
	}

	outcome, err := s.channel.DispatchOutbound(ctx, resp)
	if err != nil {
		return AuthorizeResult{}, err
	}
	if outcome == protocol.OutcomeNotApplicable {
		return AuthorizeResult{}, errors.New("no outbound processor handled the authorization response")
	}

	slogx.FromContext(ctx).Info("authorization granted",
		"client_id", clientID,
		"subject", subject,
		"scope", scope,
	)

	return AuthorizeResult{Code: resp.VerificationCode, State: state}, nil
}

// intersectScopes keeps the requested scopes that appear in the registered
// set, preserving request order and dropping duplicates.
func intersectScopes(requested, registered []string) []string {
	var out []string
	for _, sc := range requested {
		if slices.Contains(registered, sc) && !slices.Contains(out, sc) {
			out = append(out, sc)
		}
	}
	return out
}
