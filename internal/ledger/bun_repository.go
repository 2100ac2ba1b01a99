package ledger

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

var errNoDatabase = errors.New("ledger: bun repository requires a database")

// BunRepository persists lint records using a Bun-backed database.
type BunRepository struct {
	db          *bun.DB
	broadcaster *changeBroadcaster
}

// NewBunRepository constructs a Bun-backed repository.
func NewBunRepository(db *bun.DB) *BunRepository {
	return &BunRepository{
		db:          db,
		broadcaster: newChangeBroadcaster(),
	}
}

// Get retrieves the record for path.
func (r *BunRepository) Get(ctx context.Context, path string) (*Record, error) {
	if r.db == nil {
		return nil, errNoDatabase
	}
	key := strings.TrimSpace(path)
	if key == "" {
		return nil, ErrPathRequired
	}
	var model recordModel
	if err := r.db.NewSelect().Model(&model).Where("path = ?", key).Scan(ctx); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRecordNotFound
		}
		return nil, err
	}
	record := modelToRecord(&model)
	return &record, nil
}

// Upsert creates or updates the record for its path.
func (r *BunRepository) Upsert(ctx context.Context, record Record) (*Record, error) {
	if r.db == nil {
		return nil, errNoDatabase
	}
	key := strings.TrimSpace(record.Path)
	if key == "" {
		return nil, ErrPathRequired
	}
	record.Path = key

	var existing recordModel
	err := r.db.NewSelect().Model(&existing).Where("path = ?", key).Scan(ctx)
	created := false
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			created = true
		} else {
			return nil, err
		}
	}

	model := modelFromRecord(record)
	if model.CheckedAt.IsZero() {
		model.CheckedAt = time.Now().UTC()
	}

	if created {
		if _, err := r.db.NewInsert().Model(&model).Exec(ctx); err != nil {
			return nil, err
		}
	} else {
		if _, err := r.db.NewUpdate().
			Model(&model).
			Column("checksum", "fingerprint", "errors", "warnings", "issues", "run_id", "checked_at").
			WherePK().
			Exec(ctx); err != nil {
			return nil, err
		}
	}

	stored, err := r.Get(ctx, key)
	if err != nil {
		return nil, err
	}

	eventType := ChangeUpdated
	if created {
		eventType = ChangeCreated
	}
	r.broadcaster.Broadcast(newChangeEvent(eventType, key, *stored))
	return stored, nil
}

// List returns the stored records ordered by path.
func (r *BunRepository) List(ctx context.Context) ([]Record, error) {
	if r.db == nil {
		return nil, errNoDatabase
	}
	var models []recordModel
	if err := r.db.NewSelect().Model(&models).Order("path ASC").Scan(ctx); err != nil {
		return nil, err
	}
	out := make([]Record, len(models))
	for i := range models {
		out[i] = modelToRecord(&models[i])
	}
	return out, nil
}

// Delete removes the record for path.
func (r *BunRepository) Delete(ctx context.Context, path string) error {
	if r.db == nil {
		return errNoDatabase
	}
	key := strings.TrimSpace(path)
	if key == "" {
		return ErrPathRequired
	}
	res, err := r.db.NewDelete().Model((*recordModel)(nil)).Where("path = ?", key).Exec(ctx)
	if err != nil {
		return err
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return ErrRecordNotFound
	}
	r.broadcaster.Broadcast(newChangeEvent(ChangeDeleted, key, Record{}))
	return nil
}

// Subscribe delivers change events until the context is cancelled.
func (r *BunRepository) Subscribe(ctx context.Context) (<-chan ChangeEvent, error) {
	return r.broadcaster.Subscribe(ctx)
}

type recordModel struct {
	bun.BaseModel `bun:"table:postlint_records"`

	Path        string    `bun:"path,pk"`
	Checksum    string    `bun:"checksum,notnull"`
	Fingerprint string    `bun:"fingerprint,notnull,default:''"`
	Errors      int       `bun:"errors,notnull"`
	Warnings    int       `bun:"warnings,notnull"`
	Issues      int       `bun:"issues,notnull"`
	RunID       string    `bun:"run_id"`
	CheckedAt   time.Time `bun:"checked_at,notnull"`
}

func modelFromRecord(record Record) recordModel {
	model := recordModel{
		Path:        record.Path,
		Checksum:    record.Checksum,
		Fingerprint: record.Fingerprint,
		Errors:      record.Errors,
		Warnings:    record.Warnings,
		Issues:      record.Issues,
		CheckedAt:   record.CheckedAt.UTC(),
	}
	if record.RunID != uuid.Nil {
		model.RunID = record.RunID.String()
	}
	return model
}

func modelToRecord(model *recordModel) Record {
	if model == nil {
		return Record{}
	}
	record := Record{
		Path:        model.Path,
		Checksum:    model.Checksum,
		Fingerprint: model.Fingerprint,
		Errors:      model.Errors,
		Warnings:    model.Warnings,
		Issues:      model.Issues,
		CheckedAt:   model.CheckedAt,
	}
	if parsed, err := uuid.Parse(model.RunID); err == nil {
		record.RunID = parsed
	}
	return record
}
