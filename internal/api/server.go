package api

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/cors"

	"github.com/streed/notevault/internal/config"
	interrors "github.com/streed/notevault/internal/errors"
	"github.com/streed/notevault/internal/logger"
	"github.com/streed/notevault/internal/models"
	"github.com/streed/notevault/internal/services"
)

type APIServer struct {
	cfg    *config.Config
	db     *sql.DB
	coord  *services.Coordinator
	server *http.Server
}

type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

type CreateNoteRequest struct {
	Content string `json:"content"`
}

type UpdateNoteRequest struct {
	Content      string `json:"content"`
	VersionCheck bool   `json:"version_check"`
}

type SearchRequest struct {
	Query      string `json:"query"`
	Highlights bool   `json:"highlights"`
	Limit      int    `json:"limit"`
}

type FavoriteRequest struct {
	Favorite bool `json:"favorite"`
}

type CreateVersionRequest struct {
	Label  string `json:"label"`
	Pinned bool   `json:"pinned"`
}

type ProvenanceRequest struct {
	Tool       string `json:"tool"`
	DurationMs int64  `json:"duration_ms"`
}

type BatchIDsRequest struct {
	IDs []int `json:"ids"`
}

type ImportRequest struct {
	Notes []*models.Note `json:"notes"`
}

func NewAPIServer(cfg *config.Config, db *sql.DB, coord *services.Coordinator) *APIServer {
	return &APIServer{
		cfg:   cfg,
		db:    db,
		coord: coord,
	}
}

// Handler builds the full route tree. Separate from Start so tests can
// drive the routes without binding a listener.
func (s *APIServer) Handler() http.Handler {
	router := mux.NewRouter()
	router.Use(s.loggingMiddleware)

	api := router.PathPrefix("/api/v1").Subrouter()

	// Notes endpoints
	api.HandleFunc("/notes", s.handleListNotes).Methods("GET")
	api.HandleFunc("/notes", s.handleCreateNote).Methods("POST")
	api.HandleFunc("/notes/search", s.handleSearchNotes).Methods("POST")
	api.HandleFunc("/notes/import", s.handleImportNotes).Methods("POST")
	api.HandleFunc("/notes/trash", s.handleTrashNotes).Methods("POST")
	api.HandleFunc("/notes/restore", s.handleRestoreNotes).Methods("POST")
	api.HandleFunc("/notes/{id:[0-9]+}", s.handleGetNote).Methods("GET")
	api.HandleFunc("/notes/{id:[0-9]+}", s.handleUpdateNote).Methods("PUT")
	api.HandleFunc("/notes/{id:[0-9]+}", s.handleDeleteNote).Methods("DELETE")
	api.HandleFunc("/notes/{id:[0-9]+}/restore", s.handleRestoreNote).Methods("POST")
	api.HandleFunc("/notes/{id:[0-9]+}/archive", s.handleArchiveNote).Methods("POST")
	api.HandleFunc("/notes/{id:[0-9]+}/archive", s.handleUnarchiveNote).Methods("DELETE")
	api.HandleFunc("/notes/{id:[0-9]+}/favorite", s.handleSetFavorite).Methods("PUT")

	// Version endpoints
	api.HandleFunc("/notes/{id:[0-9]+}/versions", s.handleListVersions).Methods("GET")
	api.HandleFunc("/notes/{id:[0-9]+}/versions", s.handleCreateVersion).Methods("POST")
	api.HandleFunc("/notes/{id:[0-9]+}/versions/latest", s.handleLatestVersion).Methods("GET")
	api.HandleFunc("/versions/{id:[0-9]+}", s.handleGetVersion).Methods("GET")
	api.HandleFunc("/versions/{id:[0-9]+}", s.handleDeleteVersion).Methods("DELETE")
	api.HandleFunc("/versions/{id:[0-9]+}/provenance", s.handleSetProvenance).Methods("PUT")

	// Listing endpoints
	api.HandleFunc("/trash", s.handleListTrash).Methods("GET")
	api.HandleFunc("/archive", s.handleListArchive).Methods("GET")

	// Statistics and info endpoints
	api.HandleFunc("/stats", s.handleStats).Methods("GET")
	api.HandleFunc("/health", s.handleHealth).Methods("GET")

	c := cors.New(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		ExposedHeaders:   []string{"Content-Length"},
		AllowCredentials: false,
		MaxAge:           86400,
	})

	return c.Handler(router)
}

func (s *APIServer) Start(host string, port int) error {
	addr := fmt.Sprintf("%s:%d", host, port)
	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.Handler(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	logger.Info("Starting HTTP API server on %s", addr)
	return s.server.ListenAndServe()
}

func (s *APIServer) Stop() error {
	if s.server != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.server.Shutdown(ctx)
	}
	return nil
}

func (s *APIServer) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		logger.LogRequest(r.Method, r.URL.Path, r.RemoteAddr)
		next.ServeHTTP(w, r)
		logger.LogResponse(r.Method, r.URL.Path, http.StatusOK, time.Since(start).String())
	})
}

func (s *APIServer) writeJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	response := APIResponse{
		Success: statusCode < 400,
		Data:    data,
	}

	if err := json.NewEncoder(w).Encode(response); err != nil {
		logger.Error("Failed to encode JSON response: %v", err)
	}
}

func (s *APIServer) writeError(w http.ResponseWriter, statusCode int, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	response := APIResponse{
		Success: false,
		Error:   err.Error(),
	}

	if err := json.NewEncoder(w).Encode(response); err != nil {
		logger.Error("Failed to encode JSON response: %v", err)
	}
}

func (s *APIServer) parseIntParam(r *http.Request, param string) (int, error) {
	vars := mux.Vars(r)
	str, exists := vars[param]
	if !exists {
		return 0, fmt.Errorf("missing parameter: %s", param)
	}
	return strconv.Atoi(str)
}

func statusForError(err error) int {
	switch {
	case errors.Is(err, interrors.ErrNoteNotFound), errors.Is(err, interrors.ErrVersionNotFound):
		return http.StatusNotFound
	case errors.Is(err, interrors.ErrNoteTrashed), errors.Is(err, interrors.ErrEmptyContent):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// Handlers

func (s *APIServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	health := map[string]interface{}{
		"status":    "ok",
		"timestamp": time.Now().Format(time.RFC3339),
	}

	if err := s.db.Ping(); err != nil {
		health["status"] = "unhealthy"
		health["database_error"] = err.Error()
		s.writeJSON(w, http.StatusServiceUnavailable, health)
		return
	}

	s.writeJSON(w, http.StatusOK, health)
}

func (s *APIServer) handleStats(w http.ResponseWriter, r *http.Request) {
	stats := map[string]interface{}{
		"search_cache": s.coord.Search().Stats(),
	}

	var total, trashed, archived int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM notes").Scan(&total); err == nil {
		stats["total_notes"] = total
	}
	if err := s.db.QueryRow("SELECT COUNT(*) FROM notes WHERE deleted = 1").Scan(&trashed); err == nil {
		stats["trashed_notes"] = trashed
	}
	if err := s.db.QueryRow("SELECT COUNT(*) FROM notes WHERE deleted = 0 AND archived = 1").Scan(&archived); err == nil {
		stats["archived_notes"] = archived
	}

	s.writeJSON(w, http.StatusOK, stats)
}

func (s *APIServer) handleListNotes(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", 50)
	offset := queryInt(r, "offset", 0)

	notes, err := s.coord.ListActiveNotes(limit, offset)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}

	s.writeJSON(w, http.StatusOK, notes)
}

func (s *APIServer) handleListTrash(w http.ResponseWriter, r *http.Request) {
	notes, err := s.coord.ListTrashedNotes()
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	s.writeJSON(w, http.StatusOK, notes)
}

func (s *APIServer) handleListArchive(w http.ResponseWriter, r *http.Request) {
	notes, err := s.coord.ListArchivedNotes()
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	s.writeJSON(w, http.StatusOK, notes)
}

func (s *APIServer) handleGetNote(w http.ResponseWriter, r *http.Request) {
	id, err := s.parseIntParam(r, "id")
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}

	note, err := s.coord.GetNote(id)
	if err != nil {
		s.writeError(w, statusForError(err), err)
		return
	}

	s.writeJSON(w, http.StatusOK, note)
}

func (s *APIServer) handleCreateNote(w http.ResponseWriter, r *http.Request) {
	var req CreateNoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("invalid JSON: %w", err))
		return
	}

	if req.Content == "" {
		s.writeError(w, http.StatusBadRequest, interrors.ErrEmptyContent)
		return
	}

	note, err := s.coord.CreateNote(req.Content)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}

	s.writeJSON(w, http.StatusCreated, note)
}

func (s *APIServer) handleUpdateNote(w http.ResponseWriter, r *http.Request) {
	id, err := s.parseIntParam(r, "id")
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}

	var req UpdateNoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("invalid JSON: %w", err))
		return
	}

	if req.VersionCheck {
		note, shouldVersion, err := s.coord.UpdateNoteWithVersionCheck(id, req.Content)
		if err != nil {
			s.writeError(w, statusForError(err), err)
			return
		}
		s.writeJSON(w, http.StatusOK, map[string]interface{}{
			"note":           note,
			"should_version": shouldVersion,
		})
		return
	}

	note, err := s.coord.UpdateNote(id, req.Content)
	if err != nil {
		s.writeError(w, statusForError(err), err)
		return
	}

	s.writeJSON(w, http.StatusOK, note)
}

func (s *APIServer) handleDeleteNote(w http.ResponseWriter, r *http.Request) {
	id, err := s.parseIntParam(r, "id")
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}

	permanent := r.URL.Query().Get("permanent") == "true"
	if permanent {
		err = s.coord.DeleteNotePermanently(id)
	} else {
		err = s.coord.TrashNote(id)
	}
	if err != nil {
		s.writeError(w, statusForError(err), err)
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"id":        id,
		"permanent": permanent,
	})
}

func (s *APIServer) handleRestoreNote(w http.ResponseWriter, r *http.Request) {
	id, err := s.parseIntParam(r, "id")
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}

	if err := s.coord.RestoreNote(id); err != nil {
		s.writeError(w, statusForError(err), err)
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]interface{}{"id": id})
}

func (s *APIServer) handleArchiveNote(w http.ResponseWriter, r *http.Request) {
	id, err := s.parseIntParam(r, "id")
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}

	if err := s.coord.ArchiveNote(id); err != nil {
		s.writeError(w, statusForError(err), err)
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]interface{}{"id": id})
}

func (s *APIServer) handleUnarchiveNote(w http.ResponseWriter, r *http.Request) {
	id, err := s.parseIntParam(r, "id")
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}

	if err := s.coord.UnarchiveNote(id); err != nil {
		s.writeError(w, statusForError(err), err)
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]interface{}{"id": id})
}

func (s *APIServer) handleSetFavorite(w http.ResponseWriter, r *http.Request) {
	id, err := s.parseIntParam(r, "id")
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}

	var req FavoriteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("invalid JSON: %w", err))
		return
	}

	if err := s.coord.SetFavorite(id, req.Favorite); err != nil {
		s.writeError(w, statusForError(err), err)
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"id":       id,
		"favorite": req.Favorite,
	})
}

func (s *APIServer) handleSearchNotes(w http.ResponseWriter, r *http.Request) {
	var req SearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("invalid JSON: %w", err))
		return
	}

	if req.Highlights {
		results, err := s.coord.SearchNotesWithHighlights(req.Query)
		if err != nil {
			s.writeError(w, http.StatusInternalServerError, err)
			return
		}
		if req.Limit > 0 && len(results) > req.Limit {
			results = results[:req.Limit]
		}
		s.writeJSON(w, http.StatusOK, results)
		return
	}

	notes, err := s.coord.SearchNotes(req.Query)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	if req.Limit > 0 && len(notes) > req.Limit {
		notes = notes[:req.Limit]
	}

	s.writeJSON(w, http.StatusOK, notes)
}

func (s *APIServer) handleTrashNotes(w http.ResponseWriter, r *http.Request) {
	var req BatchIDsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("invalid JSON: %w", err))
		return
	}

	if err := s.coord.TrashNotes(req.IDs); err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]interface{}{"ids": req.IDs})
}

func (s *APIServer) handleRestoreNotes(w http.ResponseWriter, r *http.Request) {
	var req BatchIDsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("invalid JSON: %w", err))
		return
	}

	if err := s.coord.RestoreNotes(req.IDs); err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]interface{}{"ids": req.IDs})
}

func (s *APIServer) handleImportNotes(w http.ResponseWriter, r *http.Request) {
	var req ImportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("invalid JSON: %w", err))
		return
	}

	if err := s.coord.ImportNotes(req.Notes); err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}

	s.writeJSON(w, http.StatusCreated, map[string]interface{}{
		"imported": len(req.Notes),
	})
}

func (s *APIServer) handleListVersions(w http.ResponseWriter, r *http.Request) {
	id, err := s.parseIntParam(r, "id")
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}

	versions, err := s.coord.Versions().Versions(id)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}

	s.writeJSON(w, http.StatusOK, versions)
}

func (s *APIServer) handleCreateVersion(w http.ResponseWriter, r *http.Request) {
	id, err := s.parseIntParam(r, "id")
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}

	var req CreateVersionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("invalid JSON: %w", err))
		return
	}

	note, err := s.coord.GetNote(id)
	if err != nil {
		s.writeError(w, statusForError(err), err)
		return
	}

	var version *models.Version
	if req.Pinned {
		version, err = s.coord.Versions().CreateVersionPinned(id, note.Content, req.Label)
	} else {
		version, err = s.coord.Versions().CreateVersion(id, note.Content, req.Label)
	}
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}

	s.writeJSON(w, http.StatusCreated, version)
}

func (s *APIServer) handleLatestVersion(w http.ResponseWriter, r *http.Request) {
	id, err := s.parseIntParam(r, "id")
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}

	version, err := s.coord.Versions().Latest(id)
	if err != nil {
		s.writeError(w, statusForError(err), err)
		return
	}

	s.writeJSON(w, http.StatusOK, version)
}

func (s *APIServer) handleGetVersion(w http.ResponseWriter, r *http.Request) {
	id, err := s.parseIntParam(r, "id")
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}

	version, err := s.coord.Versions().Get(id)
	if err != nil {
		s.writeError(w, statusForError(err), err)
		return
	}

	s.writeJSON(w, http.StatusOK, version)
}

func (s *APIServer) handleDeleteVersion(w http.ResponseWriter, r *http.Request) {
	id, err := s.parseIntParam(r, "id")
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}

	deleted, err := s.coord.DeleteVersion(id)
	if err != nil {
		s.writeError(w, statusForError(err), err)
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"id":      id,
		"deleted": deleted,
	})
}

func (s *APIServer) handleSetProvenance(w http.ResponseWriter, r *http.Request) {
	id, err := s.parseIntParam(r, "id")
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}

	var req ProvenanceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("invalid JSON: %w", err))
		return
	}

	err = s.coord.Versions().AttachProvenance(id, req.Tool, time.Duration(req.DurationMs)*time.Millisecond)
	if err != nil {
		s.writeError(w, statusForError(err), err)
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]interface{}{"id": id})
}

func queryInt(r *http.Request, key string, fallback int) int {
	if str := r.URL.Query().Get(key); str != "" {
		if n, err := strconv.Atoi(str); err == nil {
			return n
		}
	}
	return fallback
}
