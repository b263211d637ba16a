package utils

import (
	"context"
	"time"
)

// WithTimeout bounds ctx by d. A non-positive d leaves ctx unbounded.
func WithTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}

// DetachedTimeout returns a context that ignores the caller's cancellation
// but is still bounded by d. Writes use it so a dropped request never leaves
// a half-recorded update.
func DetachedTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	return WithTimeout(context.WithoutCancel(ctx), d)
}
