// Package notify delivers one-time codes over the floor's side channels.
// Senders are invoked fire-and-forget by the OTP verifier: a flaky provider
// must never block a login, so failures are logged and swallowed upstream.
package notify

import (
	"context"
)

// Sender delivers an OTP code to one channel.
type Sender interface {
	SendOTP(ctx context.Context, recipient, code string) error
	Channel() string
}
