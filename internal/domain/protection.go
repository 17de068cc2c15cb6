package domain

import "context"

// AppProtector is the platform hook that blocks apps and guards against
// uninstalling during a session. Platforms without support implement it as
// no-ops.
type AppProtector interface {
	RequestPermission(ctx context.Context) error
	EnableProtection(ctx context.Context, userID int64) error
	ShowBlockedDialog(ctx context.Context, userID int64) error
}
