package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/aussiebroadwan/codegate/internal/gate/protocol"
	"github.com/aussiebroadwan/codegate/pkg/jwtx"
	"github.com/aussiebroadwan/codegate/pkg/slogx"
)

// TokenService exchanges redeemed verification codes for signed access
// tokens. Redemption itself happens in the inbound channel; this service only
// drives it and mints the token afterwards.
type TokenService struct {
	channel  *protocol.Channel
	signer   jwtx.Signer
	issuer   string
	tokenTTL time.Duration
	now      func() time.Time
}

func NewTokenService(ch *protocol.Channel, signer jwtx.Signer, issuer string, ttl time.Duration) *TokenService {
	if ttl <= 0 {
		ttl = jwtx.DefaultAccessTokenTTL
	}
	return &TokenService{
		channel:  ch,
		signer:   signer,
		issuer:   issuer,
		tokenTTL: ttl,
		now:      time.Now,
	}
}

// TokenResult is an RFC 6749 access token response.
type TokenResult struct {
	AccessToken string
	TokenType   string
	ExpiresIn   int
	Scope       string
}

// ExchangeVerificationCode runs the token request through the inbound
// channel and, if the Code Redeemer accepts it, mints an access token bound
// to the granted scope and authorizing user.
func (s *TokenService) ExchangeVerificationCode(ctx context.Context, clientID, clientSecret, code, callback string) (TokenResult, error) {
	req := &protocol.AccessTokenRequest{
		ClientID:         clientID,
		ClientSecret:     clientSecret,
		VerificationCode: code,
		Callback:         callback,
	}

	outcome, err := s.channel.DispatchInbound(ctx, req)
	if err != nil {
		return TokenResult{}, err
	}
	if outcome == protocol.OutcomeNotApplicable {
		return TokenResult{}, errors.New("no inbound processor handled the token request")
	}

	claims := jwtx.NewAccessClaims(
		req.AuthorizingUser,
		req.GrantedScope,
		s.tokenTTL,
		s.issuer,
		[]string{clientID},
		s.now(),
	)

	token, err := s.signer.Sign(claims)
	if err != nil {
		return TokenResult{}, err
	}

	slogx.FromContext(ctx).Info("access token issued",
		"client_id", clientID,
		"subject", req.AuthorizingUser,
		"scope", req.GrantedScope,
	)

	return TokenResult{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresIn:   int(s.tokenTTL.Seconds()),
		Scope:       strings.Join(req.GrantedScope, " "),
	}, nil
}
