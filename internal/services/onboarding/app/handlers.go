package app

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/shiftstory/shiftstory/internal/catalog"
	"github.com/shiftstory/shiftstory/internal/onboarding"
	apperrors "github.com/shiftstory/shiftstory/internal/platform/errors"
	"github.com/shiftstory/shiftstory/internal/platform/id"
	"github.com/shiftstory/shiftstory/internal/ranking"
)

// routes registers the HTTP JSON API on mux.
func (s *Server) routes(mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /api/roles", s.handleRoles)
	mux.HandleFunc("POST /api/sessions", s.handleStartSession)
	mux.HandleFunc("GET /api/sessions/{id}", s.handleSessionState)
	mux.HandleFunc("DELETE /api/sessions/{id}", s.handleEndSession)
	mux.HandleFunc("PATCH /api/sessions/{id}/signals", s.handleSignals)
	mux.HandleFunc("POST /api/sessions/{id}/next", s.handleNext)
	mux.HandleFunc("POST /api/sessions/{id}/prev", s.handlePrev)
	mux.HandleFunc("POST /api/sessions/{id}/goto", s.handleGoTo)
	mux.HandleFunc("POST /api/sessions/{id}/save", s.handleSave)
	mux.HandleFunc("POST /api/sessions/{id}/load", s.handleLoad)
	mux.HandleFunc("POST /api/sessions/{id}/clear", s.handleClear)
	mux.HandleFunc("GET /api/sessions/{id}/responsibilities", s.handleResponsibilities)
	mux.HandleFunc("GET /api/sessions/{id}/suggestions", s.handleSuggestions)
	mux.HandleFunc("POST /api/sessions/{id}/finalize", s.handleFinalize)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeJSONError(w http.ResponseWriter, err error) {
	key := apperrors.ErrorKey(err)
	if key == "" {
		key = "internal"
	}
	writeJSON(w, apperrors.HTTPStatus(err), map[string]string{
		"error":   key,
		"message": err.Error(),
	})
}

// stateResponse is the engine state tuple returned by most session routes.
type stateResponse struct {
	SessionID string             `json:"session_id"`
	Step      string             `json:"step"`
	Flow      string             `json:"flow"`
	Signals   onboarding.Signals `json:"signals"`
}

func sessionState(sessionID string, engine *onboarding.Engine) stateResponse {
	return stateResponse{
		SessionID: sessionID,
		Step:      engine.Step().Label(),
		Flow:      engine.Kind().Label(),
		Signals:   engine.Signals(),
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type roleResponse struct {
	ID     string `json:"id"`
	Label  string `json:"label"`
	Family string `json:"family"`
}

func (s *Server) handleRoles(w http.ResponseWriter, r *http.Request) {
	roles := s.registry.AvailableRoles()
	out := make([]roleResponse, 0, len(roles))
	for _, role := range roles {
		out = append(out, roleResponse{
			ID:     role.ID,
			Label:  role.Label,
			Family: role.Family.Label(),
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"roles": out})
}

type startSessionRequest struct {
	RoleID         string `json:"role_id"`
	PreviousRoleID string `json:"previous_role_id"`
	// PreviousSessionID names the session the previous role was entered
	// in, so its signals cache can seed the same-family prefill.
	PreviousSessionID string `json:"previous_session_id"`
	Step              string `json:"step"`
	Fresh             bool   `json:"fresh"`
}

func (s *Server) handleStartSession(w http.ResponseWriter, r *http.Request) {
	var req startSessionRequest
	if err := decodeJSONBody(r, &req); err != nil {
		writeJSONError(w, err)
		return
	}

	initReq := onboarding.InitRequest{
		RoleID:         req.RoleID,
		PreviousRoleID: req.PreviousRoleID,
		Fresh:          req.Fresh,
	}
	if strings.TrimSpace(req.Step) != "" {
		step, err := onboarding.StepFromLabel(req.Step)
		if err != nil {
			writeJSONError(w, apperrors.E(apperrors.KindInvalidInput, "unknown step"))
			return
		}
		initReq.Step = step
	}

	// A valid bearer token attaches the user for best-effort remote draft
	// saves; anonymous sessions proceed without one.
	userID := ""
	if token := bearerToken(r); token != "" && s.verifier.Enabled() {
		if verified, err := s.verifier.Verify(token); err == nil {
			userID = verified
		}
	}

	sessionID, err := id.NewID()
	if err != nil {
		writeJSONError(w, err)
		return
	}
	blobs := s.blobStore(sessionID)
	if !req.Fresh {
		s.carrySignals(r.Context(), req.PreviousSessionID, userID, blobs)
	}
	engine, err := onboarding.New(onboarding.Options{
		Registry: s.registry,
		Drafts:   s.draftStore(blobs),
		Gateway:  s.gateway,
		UserID:   userID,
		Logf:     s.logf,
	})
	if err != nil {
		writeJSONError(w, err)
		return
	}
	engine.Initialize(r.Context(), initReq)

	sess := &session{engine: engine, userID: userID, blobs: blobs}
	s.sessions.add(sessionID, sess)
	writeJSON(w, http.StatusCreated, sessionState(sessionID, engine))
}

// withSession resolves the session from the path, serializes on its lock,
// and runs fn with the lock held.
func (s *Server) withSession(w http.ResponseWriter, r *http.Request, fn func(sessionID string, sess *session)) {
	sessionID := r.PathValue("id")
	sess, ok := s.sessions.get(sessionID)
	if !ok {
		writeJSONError(w, apperrors.EK(apperrors.KindNotFound, "session_not_found", "unknown session"))
		return
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	fn(sessionID, sess)
}

// handleEndSession drops the session. Removal fires the eviction hook,
// which deletes the session's persisted blobs.
func (s *Server) handleEndSession(w http.ResponseWriter, r *http.Request) {
	sessionID := r.PathValue("id")
	if _, ok := s.sessions.get(sessionID); !ok {
		writeJSONError(w, apperrors.EK(apperrors.KindNotFound, "session_not_found", "unknown session"))
		return
	}
	s.sessions.remove(sessionID)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSessionState(w http.ResponseWriter, r *http.Request) {
	s.withSession(w, r, func(sessionID string, sess *session) {
		writeJSON(w, http.StatusOK, sessionState(sessionID, sess.engine))
	})
}

func (s *Server) handleSignals(w http.ResponseWriter, r *http.Request) {
	s.withSession(w, r, func(sessionID string, sess *session) {
		var patch onboarding.SignalsPatch
		if err := decodeJSONBody(r, &patch); err != nil {
			writeJSONError(w, err)
			return
		}
		sess.engine.UpdateSignals(patch)
		writeJSON(w, http.StatusOK, sessionState(sessionID, sess.engine))
	})
}

func (s *Server) handleNext(w http.ResponseWriter, r *http.Request) {
	s.withSession(w, r, func(sessionID string, sess *session) {
		sess.engine.GoNext(r.Context())
		writeJSON(w, http.StatusOK, sessionState(sessionID, sess.engine))
	})
}

func (s *Server) handlePrev(w http.ResponseWriter, r *http.Request) {
	s.withSession(w, r, func(sessionID string, sess *session) {
		sess.engine.GoPrev(r.Context())
		writeJSON(w, http.StatusOK, sessionState(sessionID, sess.engine))
	})
}

type gotoRequest struct {
	Step string `json:"step"`
}

func (s *Server) handleGoTo(w http.ResponseWriter, r *http.Request) {
	s.withSession(w, r, func(sessionID string, sess *session) {
		var req gotoRequest
		if err := decodeJSONBody(r, &req); err != nil {
			writeJSONError(w, err)
			return
		}
		step, err := onboarding.StepFromLabel(req.Step)
		if err != nil {
			writeJSONError(w, apperrors.E(apperrors.KindInvalidInput, "unknown step"))
			return
		}
		sess.engine.GoTo(step)
		writeJSON(w, http.StatusOK, sessionState(sessionID, sess.engine))
	})
}

func (s *Server) handleSave(w http.ResponseWriter, r *http.Request) {
	s.withSession(w, r, func(sessionID string, sess *session) {
		sess.engine.SaveProgress(r.Context())
		writeJSON(w, http.StatusOK, sessionState(sessionID, sess.engine))
	})
}

func (s *Server) handleLoad(w http.ResponseWriter, r *http.Request) {
	s.withSession(w, r, func(sessionID string, sess *session) {
		sess.engine.LoadProgress(r.Context())
		writeJSON(w, http.StatusOK, sessionState(sessionID, sess.engine))
	})
}

func (s *Server) handleClear(w http.ResponseWriter, r *http.Request) {
	s.withSession(w, r, func(sessionID string, sess *session) {
		sess.engine.ClearProgress(r.Context())
		writeJSON(w, http.StatusOK, sessionState(sessionID, sess.engine))
	})
}

func (s *Server) handleResponsibilities(w http.ResponseWriter, r *http.Request) {
	s.withSession(w, r, func(sessionID string, sess *session) {
		signals := sess.engine.Signals()
		if signals.RoleID == "" {
			writeJSONError(w, apperrors.E(apperrors.KindInvalidInput, "a role must be selected first"))
			return
		}
		family, err := catalog.FamilyFromLabel(signals.RoleFamily)
		if err != nil {
			writeJSONError(w, apperrors.E(apperrors.KindInvalidInput, "role family is not set"))
			return
		}
		pack, ok := s.registry.Pack(signals.RoleID, family)
		if !ok {
			writeJSONError(w, apperrors.EK(apperrors.KindNotFound, "pack_not_found", "no content pack for role family"))
			return
		}

		_, span := tracer.Start(r.Context(), "ranking.responsibilities")
		result := ranking.Rank(signals, pack)
		span.End()
		writeJSON(w, http.StatusOK, result)
	})
}

func (s *Server) handleSuggestions(w http.ResponseWriter, r *http.Request) {
	s.withSession(w, r, func(sessionID string, sess *session) {
		take := 0
		if raw := r.URL.Query().Get("take"); raw != "" {
			parsed, err := strconv.Atoi(raw)
			if err != nil || parsed < 0 {
				writeJSONError(w, apperrors.E(apperrors.KindInvalidInput, "take must be a non-negative integer"))
				return
			}
			take = parsed
		}

		_, span := tracer.Start(r.Context(), "ranking.suggestions")
		suggestions, err := ranking.RankSuggestions(sess.engine.Signals(), take)
		span.End()
		if err != nil {
			writeJSONError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"suggestions": suggestions})
	})
}

func (s *Server) handleFinalize(w http.ResponseWriter, r *http.Request) {
	s.withSession(w, r, func(sessionID string, sess *session) {
		token := bearerToken(r)
		userID, err := s.verifier.Verify(token)
		if err != nil {
			writeJSONError(w, err)
			return
		}
		// A session started under one identity cannot be finalized by
		// another.
		if sess.userID != "" && sess.userID != userID {
			writeJSONError(w, onboarding.ErrAuthRequired)
			return
		}
		profileID, err := sess.engine.Finalize(r.Context(), userID)
		if err != nil {
			writeJSONError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"profile_id": profileID,
			"state":      sessionState(sessionID, sess.engine),
		})
	})
}

// decodeJSONBody decodes the request body into target. An empty body is
// allowed and leaves target zero-valued.
func decodeJSONBody(r *http.Request, target any) error {
	if r.Body == nil {
		return nil
	}
	if err := json.NewDecoder(r.Body).Decode(target); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return apperrors.E(apperrors.KindInvalidInput, "invalid JSON body")
	}
	return nil
}
