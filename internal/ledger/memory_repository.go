package ledger

import (
	"context"
	"sort"
	"strings"
	"sync"
)

// MemoryRepository keeps lint records in-memory for a single process.
type MemoryRepository struct {
	mu          sync.RWMutex
	records     map[string]Record
	broadcaster *changeBroadcaster
}

// NewMemoryRepository constructs an in-memory repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		records:     make(map[string]Record),
		broadcaster: newChangeBroadcaster(),
	}
}

// Get returns the record for path or ErrRecordNotFound.
func (r *MemoryRepository) Get(_ context.Context, path string) (*Record, error) {
	key := strings.TrimSpace(path)
	if key == "" {
		return nil, ErrPathRequired
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	record, ok := r.records[key]
	if !ok {
		return nil, ErrRecordNotFound
	}
	return &record, nil
}

// Upsert stores the record, emitting a change event when it differs.
func (r *MemoryRepository) Upsert(_ context.Context, record Record) (*Record, error) {
	key := strings.TrimSpace(record.Path)
	if key == "" {
		return nil, ErrPathRequired
	}
	record.Path = key

	r.mu.Lock()
	previous, exists := r.records[key]
	r.records[key] = record
	r.mu.Unlock()

	stored := record
	if exists && previous == record {
		return &stored, nil
	}
	changeType := ChangeUpdated
	if !exists {
		changeType = ChangeCreated
	}
	r.broadcaster.Broadcast(newChangeEvent(changeType, key, record))
	return &stored, nil
}

// List returns every record ordered by path.
func (r *MemoryRepository) List(context.Context) ([]Record, error) {
	r.mu.RLock()
	out := make([]Record, 0, len(r.records))
	for _, record := range r.records {
		out = append(out, record)
	}
	r.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out, nil
}

// Delete removes the record for path.
func (r *MemoryRepository) Delete(_ context.Context, path string) error {
	key := strings.TrimSpace(path)
	if key == "" {
		return ErrPathRequired
	}
	r.mu.Lock()
	if _, ok := r.records[key]; !ok {
		r.mu.Unlock()
		return ErrRecordNotFound
	}
	delete(r.records, key)
	r.mu.Unlock()

	r.broadcaster.Broadcast(newChangeEvent(ChangeDeleted, key, Record{}))
	return nil
}

// Subscribe delivers change events until the context is cancelled.
func (r *MemoryRepository) Subscribe(ctx context.Context) (<-chan ChangeEvent, error) {
	return r.broadcaster.Subscribe(ctx)
}
