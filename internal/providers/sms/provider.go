package sms

import "context"

// SendReceipt is what a channel reports back for an accepted message.
type SendReceipt struct {
	ProviderMessageID string
	RawResponse       string
	CostCents         int64
}

// ChannelProvider is the outbound SMS gateway contract. Implementations
// must return *ProviderError so callers can distinguish authentication
// failures from transient and permanent ones.
type ChannelProvider interface {
	Authenticate(ctx context.Context) (string, error)
	Send(ctx context.Context, token, recipient, body string) (*SendReceipt, error)
}
