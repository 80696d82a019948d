// ABOUTME: HTTP API handlers for chat, journal, mood, meditation, backup, and providers
// ABOUTME: JSON request/response structs live next to the handlers that use them

package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/2389/mindease/internal/auth"
	"github.com/2389/mindease/internal/gateway"
	"github.com/2389/mindease/internal/store"
	"github.com/2389/mindease/internal/wellness"
)

// ChatRequest is the JSON request body for POST /api/chat.
type ChatRequest struct {
	Message string `json:"message"`
}

// ChatResponse is the JSON response for POST /api/chat.
type ChatResponse struct {
	Reply string `json:"reply"`
	// Provider names the backend that answered; empty for apology replies.
	Provider string `json:"provider,omitempty"`
}

// ChatHistoryResponse is the JSON response for GET /api/chat/history.
type ChatHistoryResponse struct {
	Messages []*store.ConversationTurn `json:"messages"`
}

// SaveJournalRequest is the JSON request body for POST /api/journal.
type SaveJournalRequest struct {
	ID      string `json:"id,omitempty"`
	Title   string `json:"title"`
	Content string `json:"content"`
}

// JournalEntryResponse is one journal entry with its list preview.
type JournalEntryResponse struct {
	*store.JournalEntry
	Preview string `json:"preview"`
}

// JournalListResponse is the JSON response for GET /api/journal.
type JournalListResponse struct {
	Entries []JournalEntryResponse `json:"entries"`
}

// SaveMoodRequest is the JSON request body for POST /api/mood.
type SaveMoodRequest struct {
	Mood int    `json:"mood"`
	Date string `json:"date,omitempty"`
}

// MoodListResponse is the JSON response for GET /api/mood.
type MoodListResponse struct {
	Entries []*store.MoodEntry `json:"entries"`
}

// SaveMeditationRequest is the JSON request body for POST /api/meditations.
type SaveMeditationRequest struct {
	Name            string `json:"name"`
	DurationMinutes int    `json:"duration_minutes"`
}

// MeditationListResponse is the JSON response for GET /api/meditations.
type MeditationListResponse struct {
	Sessions []*store.MeditationSession `json:"sessions"`
}

// ProviderListResponse is the JSON response for GET /api/providers.
type ProviderListResponse struct {
	Providers []gateway.ProviderStatus `json:"providers"`
}

// UpdateKeyRequest is the JSON request body for PUT /api/providers/{name}/key.
type UpdateKeyRequest struct {
	Key string `json:"key"`
}

// CredentialsRequest is the JSON request body for the auth endpoints.
type CredentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse is the JSON response for POST /api/auth/login.
type LoginResponse struct {
	Token string `json:"token"`
}

// ControlRequest is the JSON request body for POST /control.
type ControlRequest struct {
	Type string `json:"type"`
}

// sendJSONError writes a JSON error response.
func (s *Server) sendJSONError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}

// sendJSON writes a JSON response with the given status.
func (s *Server) sendJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.logger.Error("failed to encode response", "error", err)
	}
}

// handleChat handles POST /api/chat. Gateway failures answer with the
// apologetic reply instead of an error status; the user's message is already
// persisted either way.
func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.sendJSONError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.sendJSONError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		s.sendJSONError(w, http.StatusBadRequest, "message is required")
		return
	}

	reply, provider, err := s.gateway.Respond(r.Context(), req.Message)
	switch {
	case errors.Is(err, gateway.ErrNoProviderAvailable):
		reply = gateway.ReplyNoProvider
	case errors.Is(err, gateway.ErrAllProvidersFailed):
		reply = gateway.ReplyProviderFailed
	case err != nil:
		s.logger.Error("chat failed", "error", err)
		s.sendJSONError(w, http.StatusInternalServerError, "chat failed")
		return
	}

	s.sendJSON(w, http.StatusOK, ChatResponse{Reply: reply, Provider: provider})
}

// handleChatHistory handles GET and DELETE /api/chat/history.
func (s *Server) handleChatHistory(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		history, err := s.store.ChatHistory(r.Context())
		if err != nil {
			s.sendJSONError(w, http.StatusInternalServerError, "loading chat history failed")
			return
		}
		if history == nil {
			history = []*store.ConversationTurn{}
		}
		s.sendJSON(w, http.StatusOK, ChatHistoryResponse{Messages: history})

	case http.MethodDelete:
		if err := s.store.ClearChatHistory(r.Context()); err != nil {
			s.sendJSONError(w, http.StatusInternalServerError, "clearing chat history failed")
			return
		}
		w.WriteHeader(http.StatusNoContent)

	default:
		s.sendJSONError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

// handleJournal handles GET and POST /api/journal.
func (s *Server) handleJournal(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		entries, err := s.store.JournalEntries(r.Context())
		if err != nil {
			s.sendJSONError(w, http.StatusInternalServerError, "loading journal failed")
			return
		}
		resp := JournalListResponse{Entries: make([]JournalEntryResponse, 0, len(entries))}
		for _, entry := range entries {
			resp.Entries = append(resp.Entries, JournalEntryResponse{
				JournalEntry: entry,
				Preview:      wellness.Preview(entry.Content),
			})
		}
		s.sendJSON(w, http.StatusOK, resp)

	case http.MethodPost:
		var req SaveJournalRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			s.sendJSONError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		if strings.TrimSpace(req.Content) == "" {
			s.sendJSONError(w, http.StatusBadRequest, "content is required")
			return
		}

		now := time.Now().UTC()
		entry := &store.JournalEntry{
			ID:        req.ID,
			Title:     req.Title,
			Content:   req.Content,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if entry.ID == "" {
			entry.ID = uuid.NewString()
		} else if existing := s.findJournalEntry(r, entry.ID); existing != nil {
			entry.CreatedAt = existing.CreatedAt
		}

		if err := s.store.SaveJournalEntry(r.Context(), entry); err != nil {
			s.sendJSONError(w, http.StatusInternalServerError, "saving journal entry failed")
			return
		}
		s.sendJSON(w, http.StatusCreated, entry)

	default:
		s.sendJSONError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

// findJournalEntry looks up an existing entry so updates keep its creation
// time. A lookup failure just means the entry is treated as new.
func (s *Server) findJournalEntry(r *http.Request, id string) *store.JournalEntry {
	entries, err := s.store.JournalEntries(r.Context())
	if err != nil {
		return nil
	}
	for _, entry := range entries {
		if entry.ID == id {
			return entry
		}
	}
	return nil
}

// handleJournalEntry handles DELETE /api/journal/{id}.
func (s *Server) handleJournalEntry(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete {
		s.sendJSONError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	id := strings.TrimPrefix(r.URL.Path, "/api/journal/")
	if id == "" || strings.Contains(id, "/") {
		s.sendJSONError(w, http.StatusBadRequest, "invalid journal entry id")
		return
	}

	if err := s.store.DeleteJournalEntry(r.Context(), id); err != nil {
		s.sendJSONError(w, http.StatusInternalServerError, "deleting journal entry failed")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleMood handles GET and POST /api/mood.
func (s *Server) handleMood(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		entries, err := s.store.MoodEntries(r.Context())
		if err != nil {
			s.sendJSONError(w, http.StatusInternalServerError, "loading mood entries failed")
			return
		}
		if entries == nil {
			entries = []*store.MoodEntry{}
		}
		s.sendJSON(w, http.StatusOK, MoodListResponse{Entries: entries})

	case http.MethodPost:
		var req SaveMoodRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			s.sendJSONError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		if req.Mood < 1 || req.Mood > 5 {
			s.sendJSONError(w, http.StatusBadRequest, "mood must be between 1 and 5")
			return
		}

		date := req.Date
		if date == "" {
			date = time.Now().UTC().Format("2006-01-02")
		} else if _, err := time.Parse("2006-01-02", date); err != nil {
			s.sendJSONError(w, http.StatusBadRequest, "date must be YYYY-MM-DD")
			return
		}

		entry := &store.MoodEntry{
			ID:        uuid.NewString(),
			Date:      date,
			Mood:      req.Mood,
			Timestamp: time.Now().UnixMilli(),
		}
		if err := s.store.SaveMoodEntry(r.Context(), entry); err != nil {
			s.sendJSONError(w, http.StatusInternalServerError, "saving mood entry failed")
			return
		}
		s.sendJSON(w, http.StatusCreated, entry)

	default:
		s.sendJSONError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

// handleMoodStats handles GET /api/mood/stats.
func (s *Server) handleMoodStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.sendJSONError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	stats, err := s.wellness.MoodStats(r.Context())
	if err != nil {
		s.sendJSONError(w, http.StatusInternalServerError, "computing mood stats failed")
		return
	}
	s.sendJSON(w, http.StatusOK, stats)
}

// handleMeditations handles GET and POST /api/meditations.
func (s *Server) handleMeditations(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		sessions, err := s.store.MeditationSessions(r.Context())
		if err != nil {
			s.sendJSONError(w, http.StatusInternalServerError, "loading meditation sessions failed")
			return
		}
		if sessions == nil {
			sessions = []*store.MeditationSession{}
		}
		s.sendJSON(w, http.StatusOK, MeditationListResponse{Sessions: sessions})

	case http.MethodPost:
		var req SaveMeditationRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			s.sendJSONError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		if req.Name == "" || req.DurationMinutes <= 0 {
			s.sendJSONError(w, http.StatusBadRequest, "name and duration_minutes are required")
			return
		}

		session := &store.MeditationSession{
			ID:              uuid.NewString(),
			Name:            req.Name,
			DurationMinutes: req.DurationMinutes,
			CompletedAt:     time.Now().UTC(),
		}
		if err := s.store.SaveMeditationSession(r.Context(), session); err != nil {
			s.sendJSONError(w, http.StatusInternalServerError, "saving meditation session failed")
			return
		}
		s.sendJSON(w, http.StatusCreated, session)

	default:
		s.sendJSONError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

// handleExport handles GET /api/export. format=html renders the journal as
// an HTML document; the default is the JSON backup snapshot.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.sendJSONError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	if r.URL.Query().Get("format") == "html" {
		doc, err := s.wellness.ExportJournalHTML(r.Context())
		if err != nil {
			s.sendJSONError(w, http.StatusInternalServerError, "exporting journal failed")
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write(doc)
		return
	}

	snapshot, err := s.wellness.Export(r.Context())
	if err != nil {
		s.sendJSONError(w, http.StatusInternalServerError, "exporting snapshot failed")
		return
	}
	s.sendJSON(w, http.StatusOK, snapshot)
}

// handleImport handles POST /api/import.
func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.sendJSONError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var snapshot wellness.Snapshot
	if err := json.NewDecoder(r.Body).Decode(&snapshot); err != nil {
		s.sendJSONError(w, http.StatusBadRequest, "invalid snapshot")
		return
	}

	if err := s.wellness.Import(r.Context(), &snapshot); err != nil {
		s.sendJSONError(w, http.StatusInternalServerError, "importing snapshot failed")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleProviders handles GET /api/providers.
func (s *Server) handleProviders(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.sendJSONError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	s.sendJSON(w, http.StatusOK, ProviderListResponse{Providers: s.gateway.Status()})
}

// handleProviderKey handles PUT /api/providers/{name}/key.
func (s *Server) handleProviderKey(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPut {
		s.sendJSONError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	rest := strings.TrimPrefix(r.URL.Path, "/api/providers/")
	name, ok := strings.CutSuffix(rest, "/key")
	if !ok || name == "" || strings.Contains(name, "/") {
		s.sendJSONError(w, http.StatusNotFound, "not found")
		return
	}

	var req UpdateKeyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.sendJSONError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	if err := s.gateway.UpdateCredential(r.Context(), name, req.Key); err != nil {
		if errors.Is(err, gateway.ErrNoProviderAvailable) {
			s.sendJSONError(w, http.StatusNotFound, "unknown provider")
			return
		}
		s.sendJSONError(w, http.StatusInternalServerError, "updating key failed")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleSignup handles POST /api/auth/signup.
func (s *Server) handleSignup(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.sendJSONError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req CredentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.sendJSONError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	if err := s.accounts.SignUp(r.Context(), req.Email, req.Password); err != nil {
		if errors.Is(err, auth.ErrAccountExists) {
			s.sendJSONError(w, http.StatusConflict, "account already exists")
			return
		}
		s.sendJSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	w.WriteHeader(http.StatusCreated)
}

// handleLogin handles POST /api/auth/login.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.sendJSONError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req CredentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.sendJSONError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	token, err := s.accounts.LogIn(r.Context(), req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrNoAccount):
			s.sendJSONError(w, http.StatusNotFound, "no account registered")
		case errors.Is(err, auth.ErrInvalidCredentials):
			s.sendJSONError(w, http.StatusUnauthorized, "invalid email or password")
		default:
			s.sendJSONError(w, http.StatusInternalServerError, "login failed")
		}
		return
	}
	s.sendJSON(w, http.StatusOK, LoginResponse{Token: token})
}

// handleControl handles POST /control lifecycle messages.
func (s *Server) handleControl(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.sendJSONError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	if s.controller == nil {
		s.sendJSONError(w, http.StatusServiceUnavailable, "cache controller disabled")
		return
	}

	var req ControlRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.sendJSONError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	reply, err := s.controller.Control(r.Context(), req.Type)
	if err != nil {
		s.sendJSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	if reply == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	s.sendJSON(w, http.StatusOK, reply)
}
