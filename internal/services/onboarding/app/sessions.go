package app

import (
	"fmt"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/shiftstory/shiftstory/internal/onboarding"
	"github.com/shiftstory/shiftstory/internal/onboarding/draft"
)

// defaultMaxSessions bounds concurrent onboarding sessions held in memory.
const defaultMaxSessions = 1024

// session pairs one engine with the mutex that serializes its operations.
// The engine itself is not goroutine-safe; every handler touching it holds
// the session lock for the duration of the operation. The blob store is
// retained so a later session can carry this one's signals cache; blob
// stores are goroutine-safe and readable without the session lock.
type session struct {
	mu     sync.Mutex
	engine *onboarding.Engine
	userID string
	blobs  draft.BlobStore
}

// sessionManager tracks live sessions in an LRU cache so abandoned
// sessions age out instead of accumulating.
type sessionManager struct {
	cache *lru.Cache[string, *session]
}

func newSessionManager(size int, onEvict func(sessionID string)) (*sessionManager, error) {
	if size <= 0 {
		size = defaultMaxSessions
	}
	cache, err := lru.NewWithEvict(size, func(key string, _ *session) {
		if onEvict != nil {
			onEvict(key)
		}
	})
	if err != nil {
		return nil, fmt.Errorf("create session cache: %w", err)
	}
	return &sessionManager{cache: cache}, nil
}

func (m *sessionManager) add(id string, s *session) {
	m.cache.Add(id, s)
}

func (m *sessionManager) get(id string) (*session, bool) {
	return m.cache.Get(id)
}

func (m *sessionManager) remove(id string) {
	m.cache.Remove(id)
}

func (m *sessionManager) len() int {
	return m.cache.Len()
}
