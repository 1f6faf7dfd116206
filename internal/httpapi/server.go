// Package httpapi is the thin HTTP skin over the in-memory
// Coordinator (SPEC_FULL.md §4.6), adapted from lsmdb's
// internal/http: chi routing, a writeJSON helper, log/slog
// diagnostics, and a graceful-shutdown http.Server. The raft-message
// endpoint and leader-redirect logic are gone — there is no
// consensus here (DESIGN.md: cross-process coordination is an
// explicit non-goal of spec.md §1).
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"commitcoord/pkg/cerrors"
	"commitcoord/pkg/coordinator"
	"commitcoord/pkg/types"
)

const (
	contentTypeJSON        = "application/json"
	defaultListenAddr      = ":8089"
	defaultShutdownTimeout = time.Second * 5
)

// Server fronts a Coordinator with an HTTP API.
type Server struct {
	coord      *coordinator.Coordinator
	httpServer *http.Server
	addr       string
}

// NewServer creates a new server bound to addr (":8089" if empty).
func NewServer(coord *coordinator.Coordinator, addr string) *Server {
	if addr == "" {
		addr = defaultListenAddr
	}
	return &Server{coord: coord, addr: addr}
}

// Start starts the HTTP server in the background.
func (s *Server) Start() error {
	s.httpServer = &http.Server{
		Addr:              s.addr,
		Handler:           s.createRouter(),
		ReadHeaderTimeout: time.Second,
	}

	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("HTTP server error", "error", err)
		}
	}()

	slog.Info("HTTP server started", "addr", s.addr)
	return nil
}

// Stop gracefully shuts the server down.
func (s *Server) Stop() error {
	if s.httpServer == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), defaultShutdownTimeout)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown HTTP server: %w", err)
	}
	return nil
}

func (s *Server) createRouter() http.Handler {
	r := chi.NewRouter()

	r.Get("/health", s.handleHealth)
	r.Post("/v1/tables/{table_id}/commits", s.handleCommit)
	r.Get("/v1/tables/{table_id}/commits", s.handleGetCommits)
	r.Get("/v1/admin/at-capacity", s.handleAtCapacity)

	return r
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", contentTypeJSON)
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Warn("error encoding response", "error", err)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, NewOKResponse())
}

// commitRequestDTO is the wire shape of a commit request. Pointer
// fields preserve spec.md §4.1's presence-based validation.
type commitRequestDTO struct {
	TableURI string `json:"table_uri"`

	FileName        *string `json:"file_name,omitempty"`
	Version         *int64  `json:"version,omitempty"`
	FileSize        *int64  `json:"file_size,omitempty"`
	FileModTimeUnix *int64  `json:"file_mod_time_unix_ms,omitempty"`
	CommitTimestamp *int64  `json:"commit_timestamp,omitempty"`

	LastKnownBackfilledVersion *int64 `json:"last_known_backfilled_version,omitempty"`
	IsDisown                   bool   `json:"is_disown,omitempty"`

	Protocol map[string]string `json:"protocol,omitempty"`
	Metadata []byte            `json:"metadata,omitempty"`
}

func (s *Server) handleCommit(w http.ResponseWriter, r *http.Request) {
	tableID, err := types.ParseTableID(chi.URLParam(r, "table_id"))
	if err != nil {
		s.writeJSON(w, http.StatusBadRequest, NewErrorResponse("invalid table_id: "+err.Error()))
		return
	}

	var dto commitRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		s.writeJSON(w, http.StatusBadRequest, NewErrorResponse("invalid request body: "+err.Error()))
		return
	}

	req := coordinator.CommitRequest{
		TableID:  tableID,
		TableURI: dto.TableURI,
		IsDisown: dto.IsDisown,
		Protocol: dto.Protocol,
		Metadata: dto.Metadata,
	}

	if dto.FileName != nil || dto.Version != nil || dto.FileSize != nil ||
		dto.FileModTimeUnix != nil || dto.CommitTimestamp != nil {
		payload := &coordinator.CommitPayload{}
		if dto.FileName != nil {
			payload.FileName = dto.FileName
		}
		if dto.Version != nil {
			payload.Version = dto.Version
		}
		if dto.FileSize != nil {
			payload.FileSize = dto.FileSize
		}
		if dto.FileModTimeUnix != nil {
			modTime := time.UnixMilli(*dto.FileModTimeUnix)
			payload.FileModTime = &modTime
		}
		if dto.CommitTimestamp != nil {
			payload.CommitTimestamp = dto.CommitTimestamp
		}
		req.Payload = payload
	}

	if dto.LastKnownBackfilledVersion != nil {
		req.LastKnownBackfilledVersion = dto.LastKnownBackfilledVersion
	}

	if err := s.coord.Commit(req); err != nil {
		s.writeJSON(w, statusForError(err), NewErrorResponse(err.Error()))
		return
	}

	s.writeJSON(w, http.StatusOK, NewSuccessResponse())
}

func (s *Server) handleGetCommits(w http.ResponseWriter, r *http.Request) {
	tableID, err := types.ParseTableID(chi.URLParam(r, "table_id"))
	if err != nil {
		s.writeJSON(w, http.StatusBadRequest, GetCommitsResponseDTO{Status: StatusError, Error: "invalid table_id: " + err.Error()})
		return
	}

	req := coordinator.GetCommitsRequest{
		TableID:  tableID,
		TableURI: r.URL.Query().Get("table_uri"),
	}
	if v := r.URL.Query().Get("start"); v != "" {
		start, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			s.writeJSON(w, http.StatusBadRequest, GetCommitsResponseDTO{Status: StatusError, Error: "invalid start: " + err.Error()})
			return
		}
		req.Start = &start
	}
	if v := r.URL.Query().Get("end"); v != "" {
		end, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			s.writeJSON(w, http.StatusBadRequest, GetCommitsResponseDTO{Status: StatusError, Error: "invalid end: " + err.Error()})
			return
		}
		req.End = &end
	}

	resp, err := s.coord.GetCommits(req)
	if err != nil {
		s.writeJSON(w, statusForError(err), GetCommitsResponseDTO{Status: StatusError, Error: err.Error()})
		return
	}

	dto := GetCommitsResponseDTO{
		Status:              StatusSuccess,
		LastRatifiedVersion: resp.LastRatifiedVersion,
	}
	for _, c := range resp.Commits {
		dto.Commits = append(dto.Commits, CommitDTO{
			Version:         c.Version,
			Path:            c.FileDescriptor.Path,
			SizeBytes:       c.FileDescriptor.Size,
			ModTimeUnixMs:   c.FileDescriptor.ModTime.UnixMilli(),
			CommitTimestamp: c.CommitTimestamp,
		})
	}
	s.writeJSON(w, http.StatusOK, dto)
}

func (s *Server) handleAtCapacity(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, AtCapacityResponseDTO{TableIDs: s.coord.TablesAtCapacity()})
}

// statusForError maps the coordinator error taxonomy (spec.md §7)
// onto HTTP status codes.
func statusForError(err error) int {
	switch {
	case errors.Is(err, cerrors.ErrInvalidArgument), errors.Is(err, cerrors.ErrInvalidTargetTable):
		return http.StatusBadRequest
	case errors.Is(err, cerrors.ErrTableDisowned):
		return http.StatusConflict
	case errors.Is(err, cerrors.ErrCommitLimitReached):
		return http.StatusTooManyRequests
	case isCommitConflict(err):
		return http.StatusConflict
	case errors.Is(err, cerrors.ErrIoFailureBeforeCommit), errors.Is(err, cerrors.ErrIoFailureAfterCommit):
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}

func isCommitConflict(err error) bool {
	var conflict *cerrors.CommitConflictError
	return errors.As(err, &conflict)
}
