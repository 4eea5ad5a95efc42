// Package rotation tracks refresh tokens that have already been exchanged.
// Every refresh token carries a unique jti; exchanging it records the jti
// here, and a second exchange of the same jti is refused. The mark operation
// is atomic so concurrent refreshes of the same token cannot both succeed.
package rotation

import (
	"context"
	"time"
)

// Store records single-use refresh token ids.
type Store interface {
	// MarkUsed records jti as consumed and reports whether it had already
	// been consumed. Entries expire after ttl, which callers set to the
	// token's remaining lifetime.
	MarkUsed(ctx context.Context, jti string, ttl time.Duration) (alreadyUsed bool, err error)
}
