// Package protect provides an AppProtector for hosts without OS-level app blocking.
package protect

import (
	"context"
	"log"

	"focuslock/internal/domain"
)

// Logging records protection requests instead of enforcing them.
type Logging struct{}

var _ domain.AppProtector = Logging{}

func (Logging) RequestPermission(ctx context.Context) error {
	log.Printf("protect: permission requested")
	return nil
}

func (Logging) EnableProtection(ctx context.Context, userID int64) error {
	log.Printf("protect: protection enabled for user %d", userID)
	return nil
}

func (Logging) ShowBlockedDialog(ctx context.Context, userID int64) error {
	log.Printf("protect: uninstall blocked for user %d while a focus session is active", userID)
	return nil
}
