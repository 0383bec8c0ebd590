package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aussiebroadwan/codegate/internal/gate/codec"
	"github.com/aussiebroadwan/codegate/internal/gate/domain"
	"github.com/aussiebroadwan/codegate/internal/gate/protocol"
	"github.com/aussiebroadwan/codegate/internal/gate/store"
	"github.com/aussiebroadwan/codegate/pkg/cryptox"
	"github.com/aussiebroadwan/codegate/pkg/slogx"
)

// CodeRedeemer is the inbound processor that validates access token requests
// and consumes their verification code. Checks run in a strict order and the
// first failure aborts the request; the nonce is consumed only after every
// prior check has passed, so a rejected request leaves no state behind.
type CodeRedeemer struct {
	codec  *codec.Codec
	store  store.Store
	maxAge time.Duration
	now    func() time.Time
}

var _ protocol.InboundProcessor = (*CodeRedeemer)(nil)

func NewCodeRedeemer(c *codec.Codec, st store.Store, maxAge time.Duration) *CodeRedeemer {
	return &CodeRedeemer{codec: c, store: st, maxAge: maxAge, now: time.Now}
}

// ProcessInbound handles *protocol.AccessTokenRequest messages. On success it
// attaches the granted scope and authorizing user from the redeemed code.
func (r *CodeRedeemer) ProcessInbound(ctx context.Context, msg protocol.Message) (protocol.Outcome, error) {
	req, ok := msg.(*protocol.AccessTokenRequest)
	if !ok {
		return protocol.OutcomeNotApplicable, nil
	}

	log := slogx.FromContext(ctx).With("client_id", req.ClientID)

	// 1. The client must exist.
	client, err := r.store.Clients().GetClientByID(ctx, req.ClientID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			log.Warn("token request from unknown client")
			return protocol.OutcomeNoProtection, ErrInvalidClient
		}
		return protocol.OutcomeNoProtection, fmt.Errorf("look up client: %w", err)
	}

	// 2. The client must prove possession of its secret.
	if err := cryptox.VerifySecret(req.ClientSecret, client.SecretHash); err != nil {
		if errors.Is(err, cryptox.ErrSecretMismatch) {
			log.Warn("token request with wrong client secret")
			return protocol.OutcomeNoProtection, ErrInvalidClientCredentials
		}
		return protocol.OutcomeNoProtection, fmt.Errorf("verify client secret: %w", err)
	}

	// 3. The code must open cleanly. Malformed and tampered codes are
	// indistinguishable to the caller.
	code, err := r.codec.Decode(req.VerificationCode)
	if err != nil {
		log.Warn("token request with undecodable code", "reason", err)
		return protocol.OutcomeNoProtection, fmt.Errorf("%w: %w", ErrInvalidGrant, err)
	}

	// 4. The presented callback must match the one sealed into the code.
	if req.Callback != code.Callback {
		log.Warn("token request with mismatched callback")
		return protocol.OutcomeNoProtection, ErrCallbackMismatch
	}

	// 5. The code must still be inside its validity window.
	now := r.now()
	if code.ExpiredAt(now, r.maxAge) {
		log.Warn("token request with expired code",
			"created_at", code.CreatedAt,
			"expired_at", code.ExpiresAt(r.maxAge),
		)
		return protocol.OutcomeNoProtection, ErrExpiredGrant
	}

	// 6. Consume the nonce. Losing the check-and-set means this exact code
	// was redeemed before; that is the replay signal.
	fresh, err := r.store.Nonces().StoreNonce(ctx, domain.NonceContext, code.Nonce, code.CreatedAt)
	if err != nil {
		return protocol.OutcomeNoProtection, fmt.Errorf("store nonce: %w", err)
	}
	if !fresh {
		log.Error("verification code replayed",
			"nonce", code.Nonce,
			"created_at", code.CreatedAt,
		)
		return protocol.OutcomeNoProtection, ErrReplayedGrant
	}

	// 7. Hand the granted scope and subject to the caller.
	req.GrantedScope = code.Scope
	req.AuthorizingUser = code.AuthorizingUser

	log.Info("verification code redeemed", "subject", code.AuthorizingUser)

	return protocol.OutcomeNoProtection, nil
}
