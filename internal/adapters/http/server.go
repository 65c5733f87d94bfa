package httpadapter

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	api "pageaudit/internal/api"
	"pageaudit/internal/audit"
	"pageaudit/internal/domain"
	"pageaudit/internal/ports"
	"pageaudit/internal/scoring/composite"
	auditsvc "pageaudit/internal/services/audits"
	"pageaudit/internal/workers/auditrunner"
)

// DefaultWaitTimeout bounds POST /audits?wait=true when no timeout is given.
const DefaultWaitTimeout = 120 * time.Second

// Server implements api.StrictServerInterface.
type Server struct {
	auditor   ports.Auditor
	profiles  ports.Profiles
	jobs      ports.JobRepository
	processor auditrunner.Processor
	logger    *slog.Logger
}

var _ api.StrictServerInterface = (*Server)(nil)

func New(auditor ports.Auditor, profiles ports.Profiles, jobs ports.JobRepository, processor auditrunner.Processor, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{auditor: auditor, profiles: profiles, jobs: jobs, processor: processor, logger: logger}
}

// Routes returns a chi.Router mounting the API handlers.
func (s *Server) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.Recoverer, s.requestLog)
	handler := api.NewStrictHandlerWithOptions(s, nil, api.StrictHTTPServerOptions{
		RequestErrorHandlerFunc: func(w http.ResponseWriter, _ *http.Request, err error) {
			writeError(w, http.StatusBadRequest, err.Error())
		},
		ResponseErrorHandlerFunc: func(w http.ResponseWriter, r *http.Request, err error) {
			s.logger.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
			writeError(w, http.StatusInternalServerError, "internal error")
		},
	})
	api.HandlerWithOptions(handler, api.ChiServerOptions{
		BaseRouter: r,
		ErrorHandlerFunc: func(w http.ResponseWriter, _ *http.Request, err error) {
			writeError(w, http.StatusBadRequest, err.Error())
		},
	})
	return r
}

func (s *Server) GetHealthz(ctx context.Context, _ api.GetHealthzRequestObject) (api.GetHealthzResponseObject, error) {
	ok := "ok"
	return api.GetHealthz200JSONResponse{Status: &ok}, nil
}

func (s *Server) PostAudits(ctx context.Context, req api.PostAuditsRequestObject) (api.PostAuditsResponseObject, error) {
	if req.Body == nil {
		return api.PostAudits400JSONResponse{Message: "missing body"}, nil
	}
	id, err := s.auditor.Enqueue(ctx, req.Body.Url)
	if errors.Is(err, audit.ErrInvalidURL) {
		return api.PostAudits400JSONResponse{Message: err.Error()}, nil
	}
	if err != nil {
		return nil, err
	}

	if req.Params.Wait == nil || !*req.Params.Wait {
		return api.PostAudits202JSONResponse{AuditId: id}, nil
	}

	timeout := DefaultWaitTimeout
	if req.Params.Timeout != nil && *req.Params.Timeout > 0 {
		timeout = time.Duration(*req.Params.Timeout) * time.Second
	}
	waitCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	// Audit failures are recorded on the audit row and reported in the body.
	if err := auditrunner.ProcessInline(waitCtx, s.jobs, s.processor, id, s.logger); err != nil {
		s.logger.Info("inline audit failed", "audit", id, "error", err)
	}

	a, err := s.auditor.Status(context.WithoutCancel(ctx), id)
	if err != nil {
		return nil, err
	}
	return api.PostAudits200JSONResponse(toAPIAudit(a)), nil
}

func (s *Server) GetAuditsId(ctx context.Context, req api.GetAuditsIdRequestObject) (api.GetAuditsIdResponseObject, error) {
	a, err := s.auditor.Status(ctx, req.Id)
	if errors.Is(err, ports.ErrNotFound) {
		return api.GetAuditsId404JSONResponse{Message: "audit not found"}, nil
	}
	if err != nil {
		return nil, err
	}
	return api.GetAuditsId200JSONResponse(toAPIAudit(a)), nil
}

func (s *Server) GetAuditsIdReport(ctx context.Context, req api.GetAuditsIdReportRequestObject) (api.GetAuditsIdReportResponseObject, error) {
	r, err := s.auditor.Report(ctx, req.Id)
	switch {
	case errors.Is(err, ports.ErrNotFound):
		return api.GetAuditsIdReport404JSONResponse{Message: "report not found"}, nil
	case errors.Is(err, auditsvc.ErrNotCompleted):
		return api.GetAuditsIdReport409JSONResponse{Message: err.Error()}, nil
	case err != nil:
		return nil, err
	}
	return api.GetAuditsIdReport200JSONResponse(*r), nil
}

func (s *Server) GetAuditsIdScreenshotsName(ctx context.Context, req api.GetAuditsIdScreenshotsNameRequestObject) (api.GetAuditsIdScreenshotsNameResponseObject, error) {
	shot, err := s.auditor.Screenshot(ctx, req.Id, string(req.Name))
	if errors.Is(err, ports.ErrNotFound) {
		return api.GetAuditsIdScreenshotsName404JSONResponse{Message: "screenshot not found"}, nil
	}
	if err != nil {
		return nil, err
	}
	return api.GetAuditsIdScreenshotsName200ImagepngResponse{
		Body:          bytes.NewReader(shot.Data),
		ContentLength: int64(len(shot.Data)),
	}, nil
}

func (s *Server) GetProfilesDomain(ctx context.Context, req api.GetProfilesDomainRequestObject) (api.GetProfilesDomainResponseObject, error) {
	score, err := s.profiles.GetLatest(ctx, req.Domain)
	if errors.Is(err, ports.ErrNotFound) {
		return api.GetProfilesDomain404JSONResponse{Message: "no audits for " + req.Domain}, nil
	}
	if err != nil {
		return nil, err
	}
	return api.GetProfilesDomain200JSONResponse(toAPIProfile(score)), nil
}

func toAPIAudit(a domain.Audit) api.AuditResponse {
	progress := float32(a.Progress)
	resp := api.AuditResponse{
		Id:         a.ID,
		Url:        a.URL,
		Status:     api.AuditStatus(a.Status),
		Progress:   &progress,
		StartedAt:  a.StartedAt,
		FinishedAt: a.FinishedAt,
	}
	if a.ResolvedURL != "" {
		resp.ResolvedUrl = &a.ResolvedURL
	}
	if a.Error != "" {
		resp.Error = &a.Error
	}
	return resp
}

func toAPIProfile(s domain.Score) api.Profile {
	badges := append([]string{}, s.Badges...)
	p := api.Profile{
		Domain:  s.DomainRef,
		Overall: s.Overall,
		Grade:   composite.Grade(s.Overall),
		Scores: api.Scores{
			Performance:   s.Performance,
			Visibility:    s.Visibility,
			Security:      s.Security,
			Accessibility: s.Accessibility,
			Trust:         s.Trust,
		},
		Badges: &badges,
	}
	if s.AuditRef != "" {
		p.AuditId = &s.AuditRef
	}
	if !s.ComputedAt.IsZero() {
		p.ComputedAt = &s.ComputedAt
	}
	return p
}

func (s *Server) requestLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Info("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()))
	})
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(api.Error{Message: msg})
}
