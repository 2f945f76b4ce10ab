package call

import (
	"context"

	"github.com/google/uuid"
	"github.com/observer/parley/internal/domain"
)

// Store persists call records for history. Each method is a single call with
// no transactional coupling; the engine treats failures as best-effort and
// never lets them block the signaling or media path.
type Store interface {
	// Insert creates a new call record.
	Insert(ctx context.Context, record *domain.CallRecord) error

	// Update applies the non-nil fields of upd to the record with the
	// given id.
	Update(ctx context.Context, id uuid.UUID, upd domain.CallRecordUpdate) error

	// Get returns the record with the given id, or
	// domain.ErrRecordNotFound.
	Get(ctx context.Context, id uuid.UUID) (*domain.CallRecord, error)
}
