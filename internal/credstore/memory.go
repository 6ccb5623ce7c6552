package credstore

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/netplus/netplus-client-go/internal/domain"
)

// MemoryStore is an in-process Store with the same signaling semantics as
// the Redis store. One instance can back several session managers at once,
// which is how tests model independent client contexts sharing a device.
type MemoryStore struct {
	mu       sync.Mutex
	values   map[string]string
	watchers map[int]chan struct{}
	nextID   int
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		values:   make(map[string]string),
		watchers: make(map[int]chan struct{}),
	}
}

func (s *MemoryStore) Token(_ context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.values[TokenKey], nil
}

func (s *MemoryStore) Profile(_ context.Context) (*domain.User, error) {
	s.mu.Lock()
	raw, ok := s.values[ProfileKey]
	s.mu.Unlock()
	if !ok {
		return nil, nil
	}

	var user domain.User
	if err := json.Unmarshal([]byte(raw), &user); err != nil {
		return nil, nil
	}
	return &user, nil
}

func (s *MemoryStore) SetCredentials(_ context.Context, token string, user *domain.User) error {
	s.mu.Lock()
	s.values[TokenKey] = token
	if user != nil {
		profile, err := json.Marshal(user)
		if err != nil {
			s.mu.Unlock()
			return err
		}
		s.values[ProfileKey] = string(profile)
	} else {
		delete(s.values, ProfileKey)
	}
	s.mu.Unlock()

	s.signal()
	return nil
}

func (s *MemoryStore) Clear(_ context.Context) error {
	s.mu.Lock()
	delete(s.values, TokenKey)
	delete(s.values, ProfileKey)
	s.mu.Unlock()

	s.signal()
	return nil
}

func (s *MemoryStore) Watch(ctx context.Context) (<-chan struct{}, error) {
	ch := make(chan struct{}, 1)

	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.watchers[id] = ch
	s.mu.Unlock()

	go func() {
		<-ctx.Done()
		s.mu.Lock()
		delete(s.watchers, id)
		s.mu.Unlock()
		close(ch)
	}()

	return ch, nil
}

func (s *MemoryStore) signal() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, ch := range s.watchers {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

func (s *MemoryStore) Close() error {
	return nil
}
