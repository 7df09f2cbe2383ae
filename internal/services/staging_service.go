package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/swivelcare/swivel-api/internal/database"
	"github.com/swivelcare/swivel-api/internal/models"
)

// PendingRequestStore stages a PendingOrganizationRequest between sign-up
// and the post-verification provisioning run. Get does not consume; the
// provisioning protocol deletes the entry only after it has succeeded, so a
// failed attempt can be retried against the same staged values.
type PendingRequestStore interface {
	Put(ctx context.Context, req *models.PendingOrganizationRequest) error
	// Get returns (nil, nil) when no request is staged for the user.
	Get(ctx context.Context, userID string) (*models.PendingOrganizationRequest, error)
	Delete(ctx context.Context, userID string) error
}

// NewPendingRequestStore returns a redis-backed store when a client is
// available, otherwise an in-process store. The in-process form loses staged
// requests on restart; the manual completion path covers that case.
func NewPendingRequestStore(redis database.RedisClient, ttl time.Duration) PendingRequestStore {
	if redis != nil {
		return &redisPendingStore{redis: redis, ttl: ttl}
	}
	return newMemoryPendingStore(ttl)
}

type redisPendingStore struct {
	redis database.RedisClient
	ttl   time.Duration
}

func stagingKey(userID string) string {
	return fmt.Sprintf("pending_org:%s", userID)
}

func (s *redisPendingStore) Put(ctx context.Context, req *models.PendingOrganizationRequest) error {
	data, err := req.ToJSON()
	if err != nil {
		return err
	}
	return s.redis.Set(ctx, stagingKey(req.UserID), data, s.ttl)
}

func (s *redisPendingStore) Get(ctx context.Context, userID string) (*models.PendingOrganizationRequest, error) {
	data, err := s.redis.Get(ctx, stagingKey(userID))
	if err != nil {
		if database.IsRedisNil(err) {
			return nil, nil
		}
		return nil, err
	}
	return models.PendingOrganizationRequestFromJSON([]byte(data))
}

func (s *redisPendingStore) Delete(ctx context.Context, userID string) error {
	return s.redis.Delete(ctx, stagingKey(userID))
}

type memoryPendingStore struct {
	mu      sync.Mutex
	ttl     time.Duration
	entries map[string]memoryPendingEntry
}

type memoryPendingEntry struct {
	req       *models.PendingOrganizationRequest
	expiresAt time.Time
}

func newMemoryPendingStore(ttl time.Duration) *memoryPendingStore {
	return &memoryPendingStore{
		ttl:     ttl,
		entries: make(map[string]memoryPendingEntry),
	}
}

func (s *memoryPendingStore) Put(ctx context.Context, req *models.PendingOrganizationRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[req.UserID] = memoryPendingEntry{
		req:       req,
		expiresAt: time.Now().Add(s.ttl),
	}
	return nil
}

func (s *memoryPendingStore) Get(ctx context.Context, userID string) (*models.PendingOrganizationRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[userID]
	if !ok {
		return nil, nil
	}
	if time.Now().After(entry.expiresAt) {
		delete(s.entries, userID)
		return nil, nil
	}
	return entry.req, nil
}

func (s *memoryPendingStore) Delete(ctx context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, userID)
	return nil
}
