package store

import (
	"context"
	"errors"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/tbxark/homi/types"
)

var (
	ErrNotFound  = errors.New("request not found")
	ErrDuplicate = errors.New("request already exists")
)

// RequestStore persists completed requests. The dialogue writes each request
// once; only the status moves afterwards.
type RequestStore interface {
	Create(ctx context.Context, req *types.CompletedRequest) error
	Get(ctx context.Context, id string) (*types.CompletedRequest, error)
	// List returns the requests of userID, newest first.
	List(ctx context.Context, userID string) ([]*types.CompletedRequest, error)
	Update(ctx context.Context, id string, status types.RequestStatus) (*types.CompletedRequest, error)
}

var _ RequestStore = (*MemoryRequestStore)(nil)

type MemoryRequestStore struct {
	mu       sync.RWMutex
	requests map[string]*types.CompletedRequest
	now      func() time.Time
}

func NewMemoryRequestStore() *MemoryRequestStore {
	return &MemoryRequestStore{
		requests: make(map[string]*types.CompletedRequest),
		now:      time.Now,
	}
}

func (m *MemoryRequestStore) Create(ctx context.Context, req *types.CompletedRequest) error {
	if err := checkCreate(req); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.requests[req.ID]; ok {
		return ErrDuplicate
	}
	m.requests[req.ID] = cloneRequest(req)
	return nil
}

func (m *MemoryRequestStore) Get(ctx context.Context, id string) (*types.CompletedRequest, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	req, ok := m.requests[id]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneRequest(req), nil
}

func (m *MemoryRequestStore) List(ctx context.Context, userID string) ([]*types.CompletedRequest, error) {
	m.mu.RLock()
	out := make([]*types.CompletedRequest, 0)
	for _, req := range m.requests {
		if req.UserID == userID {
			out = append(out, cloneRequest(req))
		}
	}
	m.mu.RUnlock()
	slices.SortFunc(out, func(a, b *types.CompletedRequest) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
	return out, nil
}

func (m *MemoryRequestStore) Update(ctx context.Context, id string, status types.RequestStatus) (*types.CompletedRequest, error) {
	if err := checkStatus(status); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	req, ok := m.requests[id]
	if !ok {
		return nil, ErrNotFound
	}
	req.Status = status
	req.UpdatedAt = m.now().UTC()
	return cloneRequest(req), nil
}

func checkCreate(req *types.CompletedRequest) error {
	if req == nil {
		return errors.New("request is nil")
	}
	if req.ID == "" {
		return errors.New("request id is required")
	}
	if req.UserID == "" {
		return errors.New("request user id is required")
	}
	return checkStatus(req.Status)
}

func checkStatus(status types.RequestStatus) error {
	switch status {
	case types.StatusPending, types.StatusMatched, types.StatusBooked, types.StatusCancelled:
		return nil
	default:
		return errors.New("unknown request status " + string(status))
	}
}

func cloneRequest(req *types.CompletedRequest) *types.CompletedRequest {
	clone := *req
	clone.Skills = slices.Clone(req.Skills)
	return &clone
}
