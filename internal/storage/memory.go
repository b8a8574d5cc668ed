package storage

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/accelrix/intern-service/internal/models"
)

// MemoryStorage keeps everything in process. Used for tests and local runs.
type MemoryStorage struct {
	mu       sync.RWMutex
	interns  map[string]models.InternshipRecord
	contacts []models.ContactMessage
	now      func() time.Time
}

// NewMemoryStorage creates an empty in-memory store
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		interns: make(map[string]models.InternshipRecord),
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// UpsertInterns applies the upserts in order under one lock
func (m *MemoryStorage) UpsertInterns(ctx context.Context, upserts []models.InternUpsert) (*models.BulkResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	result := &models.BulkResult{}
	for _, u := range upserts {
		rec, exists := m.interns[u.InternID]
		if !exists {
			rec = models.InternshipRecord{InternID: u.InternID, CreatedAt: m.now()}
			rec.Apply(u.Set)
			m.interns[u.InternID] = rec
			result.UpsertedCount++
			continue
		}

		result.MatchedCount++
		if rec.Apply(u.Set) {
			m.interns[u.InternID] = rec
			result.ModifiedCount++
		}
	}

	return result, nil
}

// GetInternByID returns a copy of the stored record
func (m *MemoryStorage) GetInternByID(ctx context.Context, internID string) (*models.InternshipRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	rec, ok := m.interns[internID]
	if !ok {
		return nil, nil
	}
	return &rec, nil
}

// SaveContact appends the message
func (m *MemoryStorage) SaveContact(ctx context.Context, msg models.ContactMessage) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = m.now()
	}
	m.contacts = append(m.contacts, msg)
	return nil
}

// Contacts returns the saved contact messages
func (m *MemoryStorage) Contacts() []models.ContactMessage {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]models.ContactMessage, len(m.contacts))
	copy(out, m.contacts)
	return out
}

// InternCount returns the number of stored intern records
func (m *MemoryStorage) InternCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.interns)
}

// Ping always succeeds
func (m *MemoryStorage) Ping(ctx context.Context) error {
	return ctx.Err()
}

// Close is a no-op
func (m *MemoryStorage) Close() error {
	return nil
}
