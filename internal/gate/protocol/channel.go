package protocol

import "context"

// Channel runs registered security processors over messages in order. The
// first processor that reports something other than OutcomeNotApplicable
// settles the message; a message no processor recognises passes through
// untouched with OutcomeNotApplicable.
type Channel struct {
	outbound []OutboundProcessor
	inbound  []InboundProcessor
}

// NewChannel creates an empty channel.
func NewChannel() *Channel {
	return &Channel{}
}

// RegisterOutbound appends a processor to the outbound chain.
func (c *Channel) RegisterOutbound(p OutboundProcessor) {
	c.outbound = append(c.outbound, p)
}

// RegisterInbound appends a processor to the inbound chain.
func (c *Channel) RegisterInbound(p InboundProcessor) {
	c.inbound = append(c.inbound, p)
}

// DispatchOutbound offers msg to the outbound processors in registration
// order. A processor error is terminal for the message.
func (c *Channel) DispatchOutbound(ctx context.Context, msg Message) (Outcome, error) {
	for _, p := range c.outbound {
		outcome, err := p.ProcessOutbound(ctx, msg)
		if err != nil {
			return outcome, err
		}
		if outcome != OutcomeNotApplicable {
			return outcome, nil
		}
	}
	return OutcomeNotApplicable, nil
}

// DispatchInbound offers msg to the inbound processors in registration order.
func (c *Channel) DispatchInbound(ctx context.Context, msg Message) (Outcome, error) {
	for _, p := range c.inbound {
		outcome, err := p.ProcessInbound(ctx, msg)
		if err != nil {
			return outcome, err
		}
		if outcome != OutcomeNotApplicable {
			return outcome, nil
		}
	}
	return OutcomeNotApplicable, nil
}
