// Package notify delivers newly captured leads to the people and systems
// that follow up on them.
package notify

import (
	"context"

	"github.com/xaenox/docdesk/internal/models"
)

// Notifier is told about every lead after it has been persisted. Errors are
// logged by the caller and never undo the submission.
type Notifier interface {
	Name() string
	LeadSubmitted(ctx context.Context, lead *models.Lead) error
}
