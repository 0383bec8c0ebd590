package service

import (
	"context"
	"fmt"
	"time"

	"github.com/aussiebroadwan/codegate/internal/gate/codec"
	"github.com/aussiebroadwan/codegate/internal/gate/domain"
	"github.com/aussiebroadwan/codegate/internal/gate/protocol"
	"github.com/aussiebroadwan/codegate/pkg/cryptox"
	"github.com/aussiebroadwan/codegate/pkg/slogx"
)

// CodeIssuer is the outbound processor that attaches a sealed verification
// code to authorization responses. Issuance is stateless: nothing is written
// anywhere until the code is redeemed.
type CodeIssuer struct {
	codec *codec.Codec
	now   func() time.Time
}

var _ protocol.OutboundProcessor = (*CodeIssuer)(nil)

func NewCodeIssuer(c *codec.Codec) *CodeIssuer {
	return &CodeIssuer{codec: c, now: time.Now}
}

// ProcessOutbound handles *protocol.AuthorizationResponse messages and passes
// everything else through untouched.
func (i *CodeIssuer) ProcessOutbound(ctx context.Context, msg protocol.Message) (protocol.Outcome, error) {
	resp, ok := msg.(*protocol.AuthorizationResponse)
	if !ok {
		return protocol.OutcomeNotApplicable, nil
	}

	if resp.AuthorizingUser == "" {
		return protocol.OutcomeNoProtection, ErrMissingSubject
	}

	nonce, err := cryptox.GenerateToken(cryptox.TokenSize128)
	if err != nil {
		return protocol.OutcomeNoProtection, fmt.Errorf("generate nonce: %w", err)
	}

	code := domain.VerificationCode{
		Callback:        resp.Callback,
		Scope:           resp.Scope,
		AuthorizingUser: resp.AuthorizingUser,
		CreatedAt:       i.now().UTC(),
		Nonce:           nonce,
	}

	encoded, err := i.codec.Encode(code)
	if err != nil {
		return protocol.OutcomeNoProtection, fmt.Errorf("encode verification code: %w", err)
	}

	resp.VerificationCode = encoded

	slogx.FromContext(ctx).Debug("issued verification code",
		"client_id", resp.ClientID,
		"subject", resp.AuthorizingUser,
		"created_at", code.CreatedAt,
	)

	return protocol.OutcomeNoProtection, nil
}
