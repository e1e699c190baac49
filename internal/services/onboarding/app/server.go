// Package app hosts the onboarding HTTP service.
package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/shiftstory/shiftstory/internal/catalog"
	"github.com/shiftstory/shiftstory/internal/onboarding"
	"github.com/shiftstory/shiftstory/internal/onboarding/draft"
	"github.com/shiftstory/shiftstory/internal/platform/timeouts"
	"github.com/shiftstory/shiftstory/internal/services/onboarding/storage"
	"github.com/shiftstory/shiftstory/internal/services/onboarding/storage/sqlite"
)

// Config carries the settings the onboarding server needs to start.
type Config struct {
	// Addr is the HTTP listen address, e.g. ":8080".
	Addr string
	// StoragePath is the SQLite database file. Empty disables persistence:
	// sessions run on in-memory drafts and finalize reports the backend as
	// unavailable.
	StoragePath string
	// MaxSessions bounds the session LRU. Zero uses the default.
	MaxSessions int
	// Verifier validates finalize bearer tokens.
	Verifier Verifier
}

// Server hosts the onboarding HTTP API.
type Server struct {
	registry *catalog.Registry
	store    *sqlite.Store
	gateway  *StorageGateway
	verifier Verifier
	sessions *sessionManager
	handler  http.Handler
	logf     func(format string, args ...any)
}

// New creates a configured onboarding server.
func New(cfg Config) (*Server, error) {
	registry, err := catalog.Load()
	if err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}

	s := &Server{
		registry: registry,
		verifier: cfg.Verifier,
		logf:     log.Printf,
	}

	if strings.TrimSpace(cfg.StoragePath) != "" {
		store, err := sqlite.Open(cfg.StoragePath)
		if err != nil {
			return nil, err
		}
		s.store = store
		s.gateway = NewStorageGateway(store, store)
	}

	sessions, err := newSessionManager(cfg.MaxSessions, s.evictSession)
	if err != nil {
		if s.store != nil {
			_ = s.store.Close()
		}
		return nil, err
	}
	s.sessions = sessions

	mux := http.NewServeMux()
	s.routes(mux)
	s.handler = mux
	return s, nil
}

// Handler returns the HTTP handler, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Close releases the session cache and the underlying store.
func (s *Server) Close() error {
	if s == nil {
		return nil
	}
	if s.store == nil {
		return nil
	}
	return s.store.Close()
}

// Serve listens on cfg.Addr and blocks until the context ends or the
// server fails.
func Run(ctx context.Context, cfg Config) error {
	s, err := New(cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := s.Close(); err != nil {
			log.Printf("onboarding: close store: %v", err)
		}
	}()
	return s.Serve(ctx, cfg.Addr)
}

// Serve starts the HTTP server and blocks until it stops or ctx ends.
func (s *Server) Serve(ctx context.Context, addr string) error {
	if strings.TrimSpace(addr) == "" {
		return fmt.Errorf("listen address is required")
	}
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", addr, err)
	}

	httpServer := &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: timeouts.ReadHeader,
	}

	log.Printf("onboarding server listening at %v", listener.Addr())
	serveErr := make(chan error, 1)
	go func() {
		serveErr <- httpServer.Serve(listener)
	}()

	select {
	case err := <-serveErr:
		if err == nil || errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve http: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), timeouts.Shutdown)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown http: %w", err)
		}
		return nil
	}
}

// draftMaxAge expires persisted drafts a week after their last save.
const draftMaxAge = 7 * 24 * time.Hour

// blobStore returns the session's keyed blob store: SQLite-backed when a
// store is configured, in-memory otherwise.
func (s *Server) blobStore(sessionID string) draft.BlobStore {
	if s.store != nil {
		return s.store.ForSession(sessionID)
	}
	return draft.NewMemory()
}

// draftStore wraps a session's blob store as a draft store.
func (s *Server) draftStore(blobs draft.BlobStore) onboarding.DraftStore {
	return draft.New(blobs, draft.WithLogf(s.logf), draft.WithMaxAge(draftMaxAge))
}

// carrySignals seeds a new session's signals-only cache so the
// same-family prefill can see the previous role's answers. A live
// previous session is the primary source; the authenticated user's
// remote draft is the fallback. Failures degrade to an empty cache.
func (s *Server) carrySignals(ctx context.Context, previousSessionID, userID string, target draft.BlobStore) {
	if previousSessionID != "" {
		if prev, ok := s.sessions.get(previousSessionID); ok {
			carried, err := draft.CarrySignals(ctx, prev.blobs, target)
			if err != nil {
				s.logf("onboarding: carry signals from previous session: %v", err)
			}
			if carried {
				return
			}
		}
	}
	if userID == "" || s.store == nil {
		return
	}
	record, err := s.store.GetRemoteDraft(ctx, userID)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			s.logf("onboarding: read remote draft: %v", err)
		}
		return
	}
	if err := draft.SeedSignalsJSON(ctx, target, []byte(record.SignalsJSON)); err != nil {
		s.logf("onboarding: seed signals cache: %v", err)
	}
}

// evictSession drops a session's persisted blobs when the LRU ages it out.
func (s *Server) evictSession(sessionID string) {
	if s.store == nil {
		return
	}
	if err := s.store.DeleteSessionBlobs(context.Background(), sessionID); err != nil {
		s.logf("onboarding: evict session %s: %v", sessionID, err)
	}
}
