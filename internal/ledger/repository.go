package ledger

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrRecordNotFound indicates the path has never been linted.
	ErrRecordNotFound = errors.New("ledger: record not found")
	// ErrPathRequired is returned when a record has no path.
	ErrPathRequired = errors.New("ledger: record path required")
)

// Record is the outcome of the last lint run for a single post file.
type Record struct {
	Path     string
	Checksum string
	// Fingerprint identifies the rule configuration the file was checked with.
	Fingerprint string
	Errors      int
	Warnings    int
	Issues      int
	RunID       uuid.UUID
	CheckedAt   time.Time
}

// Clean reports whether the last run found nothing at all.
func (r Record) Clean() bool {
	return r.Issues == 0
}

// Repository persists lint records keyed by path and emits change notifications.
type Repository interface {
	Get(ctx context.Context, path string) (*Record, error)
	Upsert(ctx context.Context, record Record) (*Record, error)
	List(ctx context.Context) ([]Record, error)
	Delete(ctx context.Context, path string) error
	Subscribe(ctx context.Context) (<-chan ChangeEvent, error)
}

// ChangeType enumerates record change events.
type ChangeType string

const (
	ChangeCreated ChangeType = "created"
	ChangeUpdated ChangeType = "updated"
	ChangeDeleted ChangeType = "deleted"
)

// ChangeEvent reports record mutations to subscribers.
type ChangeEvent struct {
	Type   ChangeType
	Path   string
	Record Record
}

func newChangeEvent(changeType ChangeType, path string, record Record) ChangeEvent {
	return ChangeEvent{
		Type:   changeType,
		Path:   path,
		Record: record,
	}
}
