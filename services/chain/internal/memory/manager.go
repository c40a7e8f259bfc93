// Package memory keeps conversation memory in a process-local cache and
// mirrors every update to durable storage in the background.
package memory

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"bingehouse/internal/metrics"
	"bingehouse/internal/util"
	"bingehouse/pkg/domain"
	"bingehouse/pkg/store"
)

const defaultSaveTimeout = 5 * time.Second

// Manager is a read-through cache over a ConversationStore with
// write-behind persistence. Concurrent turns on one conversation are not
// serialized; the last Save wins.
type Manager struct {
	store       store.ConversationStore
	saveTimeout time.Duration

	mu    sync.RWMutex
	cache map[string]*domain.ConversationMemory
	loads singleflight.Group
	saves sync.WaitGroup
}

// NewManager returns a Manager. A nil store keeps memory in process only.
func NewManager(s store.ConversationStore) *Manager {
	return &Manager{
		store:       s,
		saveTimeout: defaultSaveTimeout,
		cache:       make(map[string]*domain.ConversationMemory),
	}
}

// Load returns a private copy of the conversation's memory, creating empty
// memory for unknown ids. Store failures are logged and yield empty memory.
func (m *Manager) Load(ctx context.Context, id string) *domain.ConversationMemory {
	mem, ok, err := m.get(ctx, id)
	if err != nil {
		util.LoggerFromContext(ctx).Warn("load conversation failed", "conversation_id", id, "err", err)
	}
	if !ok {
		return domain.NewConversationMemory(id)
	}
	return mem
}

// Get is Load without creating memory for unknown ids.
func (m *Manager) Get(ctx context.Context, id string) (*domain.ConversationMemory, bool, error) {
	return m.get(ctx, id)
}

func (m *Manager) get(ctx context.Context, id string) (*domain.ConversationMemory, bool, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, false, fmt.Errorf("conversation id required")
	}
	if mem, ok := m.cached(id); ok {
		return mem, true, nil
	}
	if m.store == nil {
		return nil, false, nil
	}
	v, err, _ := m.loads.Do(id, func() (any, error) {
		mem, ok, err := m.store.LoadConversation(ctx, id)
		if err != nil || !ok {
			return nil, err
		}
		m.mu.Lock()
		defer m.mu.Unlock()
		// A Save that raced the load is newer.
		if existing, ok := m.cache[id]; ok {
			return existing.Clone(), nil
		}
		m.cache[id] = mem.Clone()
		return mem, nil
	})
	if err != nil {
		return nil, false, err
	}
	mem, _ := v.(*domain.ConversationMemory)
	if mem == nil {
		return nil, false, nil
	}
	return mem.Clone(), true, nil
}

func (m *Manager) cached(id string) (*domain.ConversationMemory, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	mem, ok := m.cache[id]
	if !ok {
		return nil, false
	}
	return mem.Clone(), true
}

// Save replaces the cached memory and persists a snapshot in the background.
// It never blocks on the store and never fails the caller.
func (m *Manager) Save(ctx context.Context, mem *domain.ConversationMemory) {
	if mem == nil || strings.TrimSpace(mem.ID) == "" {
		return
	}
	snapshot := mem.Clone()
	m.mu.Lock()
	m.cache[snapshot.ID] = snapshot
	m.mu.Unlock()
	if m.store == nil {
		return
	}

	logger := util.LoggerFromContext(ctx)
	persistCtx := context.WithoutCancel(ctx)
	m.saves.Add(1)
	go func(mem *domain.ConversationMemory) {
		defer m.saves.Done()
		ctx, cancel := context.WithTimeout(persistCtx, m.saveTimeout)
		defer cancel()
		if err := m.store.SaveConversation(ctx, mem); err != nil {
			metrics.PersistFailuresTotal.Inc()
			logger.Error("persist conversation failed", "conversation_id", mem.ID, "err", err)
		}
	}(snapshot.Clone())
}

// Flush waits for in-flight persistence or for ctx to end.
func (m *Manager) Flush(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		m.saves.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
