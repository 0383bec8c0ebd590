// Package protocol models the narrow contract between this core and the
// surrounding message channel. Messages are a closed tagged union; security
// processors pattern-match on the variant they handle and report
// OutcomeNotApplicable for everything else so the channel can try the next
// processor.
package protocol

import "context"

// Outcome reports what a security processor did with a message.
type Outcome int

const (
	// OutcomeNotApplicable means the processor does not handle this message
	// kind; the channel should offer it to the next processor.
	OutcomeNotApplicable Outcome = iota

	// OutcomeNoProtection means the processor handled the message and
	// mutated its fields, but applied no additional channel protection.
	OutcomeNoProtection
)

// Message is the closed set of protocol messages this core inspects.
// Implementations are pointer types so processors can attach fields.
type Message interface {
	isMessage()
}

// AuthorizationResponse is the outgoing authorization success response,
// correlated to the client's original authorization request. The Code Issuer
// fills VerificationCode before the channel dispatches it.
type AuthorizationResponse struct {
	ClientID string

	// Callback and Scope are carried over from the original request.
	Callback string
	Scope    []string

	// AuthorizingUser is the end user who approved the grant, recorded on
	// the response by the upstream identity layer.
	AuthorizingUser string

	// State echoes the client's CSRF state.
	State string

	// VerificationCode is attached by the Code Issuer.
	VerificationCode string
}

func (*AuthorizationResponse) isMessage() {}

// AccessTokenRequest is the incoming token request carrying client
// credentials, a verification code, and the callback it was bound to. The
// Code Redeemer attaches GrantedScope and AuthorizingUser on success.
type AccessTokenRequest struct {
	ClientID         string
	ClientSecret     string
	VerificationCode string
	Callback         string

	// GrantedScope is attached by the Code Redeemer for downstream token
	// issuance.
	GrantedScope []string

	// AuthorizingUser is the subject the code was issued for, attached by
	// the Code Redeemer.
	AuthorizingUser string
}

func (*AccessTokenRequest) isMessage() {}

// OutboundProcessor inspects an outgoing message before dispatch.
type OutboundProcessor interface {
	ProcessOutbound(ctx context.Context, msg Message) (Outcome, error)
}

// InboundProcessor inspects an incoming message before it is acted on.
type InboundProcessor interface {
	ProcessInbound(ctx context.Context, msg Message) (Outcome, error)
}
