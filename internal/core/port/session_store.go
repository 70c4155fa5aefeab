package port

import (
	"context"

	"github.com/qwezhou/AAA-Code/internal/core/domain"
)

// SessionStore maps opaque session identifiers to session records. Keys are
// unguessable; an unknown identifier is indistinguishable from "never
// authenticated". Implementations must be safe under concurrent requests.
type SessionStore interface {
	Create(ctx context.Context, record domain.SessionRecord) (string, error)
	Get(ctx context.Context, sessionID string) (*domain.SessionRecord, error)
	Update(ctx context.Context, sessionID string, record domain.SessionRecord) error
	Delete(ctx context.Context, sessionID string) error
}
