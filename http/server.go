package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"mime"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/fwojciec/seoaudit"
	"github.com/fwojciec/seoaudit/template"
	"golang.org/x/sync/semaphore"
)

const (
	// DefaultMaxRunning is the number of audits the server runs at once.
	DefaultMaxRunning = 2

	// RecentAudits is the number of audits listed on the start page.
	RecentAudits = 20

	// refreshSeconds is the reload interval of a running audit's page.
	refreshSeconds = 3

	maxFormBytes = 64 << 10
)

// RunFunc executes a stored audit to completion.
type RunFunc func(ctx context.Context, audit *seoaudit.Audit, progress seoaudit.ProgressFunc) error

// Server serves the web UI and JSON API.
type Server struct {
	server *http.Server
	mux    *http.ServeMux

	// Base context of background audits; canceled on Shutdown.
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	slots  *semaphore.Weighted

	mu       sync.Mutex
	progress map[string]seoaudit.Progress

	Audits    seoaudit.AuditService
	Pages     seoaudit.PageService
	Templates *template.Renderer
	Reports   map[seoaudit.ReportFormat]seoaudit.ReportRenderer
	Run       RunFunc
	Logger    *slog.Logger

	// Defaults prefill the audit form and fill fields a request omits.
	Defaults seoaudit.AuditOptions

	// AdviceEnabled allows requests to ask for advice.
	AdviceEnabled bool
}

// NewServer returns a server listening on addr once started. At most
// maxRunning audits run at once; further requests get 503.
func NewServer(addr string, maxRunning int) *Server {
	if maxRunning <= 0 {
		maxRunning = DefaultMaxRunning
	}
	ctx, cancel := context.WithCancel(context.Background())
	s := &Server{
		mux:      http.NewServeMux(),
		ctx:      ctx,
		cancel:   cancel,
		slots:    semaphore.NewWeighted(int64(maxRunning)),
		progress: make(map[string]seoaudit.Progress),
		Reports:  make(map[seoaudit.ReportFormat]seoaudit.ReportRenderer),
		Logger:   slog.New(slog.DiscardHandler),
		Defaults: seoaudit.DefaultAuditOptions(),
	}
	s.server = &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}

	s.mux.HandleFunc("GET /{$}", s.handleIndex)
	s.mux.HandleFunc("POST /audits", s.handleCreateAudit)
	s.mux.HandleFunc("GET /audits/{id}", s.handleAudit)
	s.mux.HandleFunc("GET /audits/{id}/{file}", s.handleReport)
	s.mux.HandleFunc("GET /api/audits/{id}", s.handleAPIAudit)
	s.mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	return s
}

// ServeHTTP logs every request and dispatches it.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	s.mux.ServeHTTP(w, r)
	s.Logger.Info("request", "method", r.Method, "path", r.URL.Path, "duration", time.Since(start))
}

// ListenAndServe blocks until the server is shut down.
func (s *Server) ListenAndServe() error {
	s.Logger.Info("server listening", "addr", s.server.Addr)
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting requests, cancels running audits and waits for
// them to record their final state.
func (s *Server) Shutdown(ctx context.Context) error {
	err := s.server.Shutdown(ctx)
	s.cancel()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		if err == nil {
			err = ctx.Err()
		}
	}
	return err
}

// Wait blocks until all background audits have finished.
func (s *Server) Wait() {
	s.wg.Wait()
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	s.renderIndex(w, r, http.StatusOK, template.IndexPage{Options: s.Defaults})
}

func (s *Server) renderIndex(w http.ResponseWriter, r *http.Request, status int, page template.IndexPage) {
	audits, err := s.Audits.FindAudits(r.Context(), seoaudit.AuditFilter{Limit: RecentAudits})
	if err != nil {
		s.Error(w, r, err)
		return
	}
	page.Audits = audits
	page.AdviceEnabled = s.AdviceEnabled

	var buf bytes.Buffer
	if err := s.Templates.RenderIndex(&buf, page); err != nil {
		s.Error(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

// createRequest is the JSON body of POST /audits.
type createRequest struct {
	StartURL string                `json:"startUrl"`
	Options  seoaudit.AuditOptions `json:"options"`
}

func (s *Server) handleCreateAudit(w http.ResponseWriter, r *http.Request) {
	isJSON := isJSONRequest(r)
	r.Body = http.MaxBytesReader(w, r.Body, maxFormBytes)

	var audit seoaudit.Audit
	var err error
	if isJSON {
		audit, err = s.decodeJSONAudit(r)
	} else {
		audit, err = s.decodeFormAudit(r)
	}
	if err == nil && !s.AdviceEnabled && audit.Options.AdvisePages > 0 {
		err = seoaudit.Errorf(seoaudit.EINVALID, "AI advice is not configured on this server")
	}
	if err == nil {
		err = audit.Validate()
	}
	if err != nil {
		if !isJSON && seoaudit.ErrorCode(err) == seoaudit.EINVALID {
			s.renderIndex(w, r, http.StatusBadRequest, template.IndexPage{
				Options:  audit.Options,
				StartURL: audit.StartURL,
				Error:    seoaudit.ErrorMessage(err),
			})
			return
		}
		s.Error(w, r, err)
		return
	}

	if !s.slots.TryAcquire(1) {
		s.Error(w, r, seoaudit.Errorf(seoaudit.EUNAVAILABLE, "too many audits running, try again later"))
		return
	}
	if err := s.Audits.CreateAudit(r.Context(), &audit); err != nil {
		s.slots.Release(1)
		s.Error(w, r, err)
		return
	}
	s.start(audit)

	if isJSON {
		writeJSON(w, http.StatusAccepted, &audit)
		return
	}
	http.Redirect(w, r, "/audits/"+audit.ID, http.StatusSeeOther)
}

// start runs a copy of audit in the background. The caller holds a slot.
func (s *Server) start(audit seoaudit.Audit) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer s.slots.Release(1)
		defer s.clearProgress(audit.ID)

		err := s.Run(s.ctx, &audit, func(p seoaudit.Progress) {
			s.mu.Lock()
			s.progress[audit.ID] = p
			s.mu.Unlock()
		})
		if err != nil {
			s.Logger.Warn("audit failed", "id", audit.ID, "url", audit.StartURL, "err", err)
		}
	}()
}

func (s *Server) clearProgress(id string) {
	s.mu.Lock()
	delete(s.progress, id)
	s.mu.Unlock()
}

func (s *Server) latestProgress(id string) *seoaudit.Progress {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p, ok := s.progress[id]; ok {
		return &p
	}
	return nil
}

func (s *Server) decodeJSONAudit(r *http.Request) (seoaudit.Audit, error) {
	// Options the body omits keep their defaults.
	req := createRequest{Options: s.Defaults}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return seoaudit.Audit{Options: s.Defaults}, seoaudit.Errorf(seoaudit.EINVALID, "invalid JSON body")
	}
	opts := req.Options
	startURL, err := seoaudit.NormalizeStartURL(req.StartURL)
	if err != nil {
		return seoaudit.Audit{StartURL: req.StartURL, Options: opts}, err
	}
	return seoaudit.Audit{StartURL: startURL, Options: opts}, nil
}

func (s *Server) decodeFormAudit(r *http.Request) (seoaudit.Audit, error) {
	audit := seoaudit.Audit{Options: s.Defaults}
	if err := r.ParseForm(); err != nil {
		return audit, seoaudit.Errorf(seoaudit.EINVALID, "invalid form")
	}
	f := r.PostForm
	audit.StartURL = strings.TrimSpace(f.Get("start_url"))

	o := &audit.Options
	ints := []struct {
		name  string
		label string
		dst   *int
	}{
		{"max_pages", "max pages", &o.MaxPages},
		{"max_depth", "max depth", &o.MaxDepth},
		{"concurrency", "concurrency", &o.Concurrency},
		{"advise_pages", "advise pages", &o.AdvisePages},
		{"thin_words", "thin content threshold", &o.ThinWords},
	}
	for _, field := range ints {
		v := strings.TrimSpace(f.Get(field.name))
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return audit, seoaudit.Errorf(seoaudit.EINVALID, "%s must be a number", field.label)
		}
		*field.dst = n
	}
	if v := strings.TrimSpace(f.Get("delay_ms")); v != "" {
		ms, err := strconv.Atoi(v)
		if err != nil {
			return audit, seoaudit.Errorf(seoaudit.EINVALID, "delay must be a number")
		}
		o.Delay = time.Duration(ms) * time.Millisecond
	}
	if v := strings.TrimSpace(f.Get("user_agent")); v != "" {
		o.UserAgent = v
	}
	if v := f.Get("scope"); v != "" {
		o.Scope = seoaudit.Scope(v)
	}
	o.Include = strings.TrimSpace(f.Get("include"))
	o.Exclude = strings.TrimSpace(f.Get("exclude"))
	o.RespectRobots = f.Get("respect_robots") != ""
	o.UseSitemap = f.Get("use_sitemap") != ""

	startURL, err := seoaudit.NormalizeStartURL(audit.StartURL)
	if err != nil {
		return audit, err
	}
	audit.StartURL = startURL
	return audit, nil
}

func (s *Server) handleAudit(w http.ResponseWriter, r *http.Request) {
	report, err := s.loadReport(r.Context(), r.PathValue("id"))
	if err != nil {
		s.Error(w, r, err)
		return
	}

	page := template.AuditPage{Report: report, Formats: s.formats()}
	if !report.Audit.Status.Done() {
		page.Refresh = refreshSeconds
		page.Progress = s.latestProgress(report.Audit.ID)
	}

	var buf bytes.Buffer
	if err := s.Templates.RenderAudit(&buf, page); err != nil {
		s.Error(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = buf.WriteTo(w)
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	name, ext, ok := strings.Cut(r.PathValue("file"), ".")
	if !ok || name != "report" {
		s.Error(w, r, seoaudit.Errorf(seoaudit.ENOTFOUND, "page not found"))
		return
	}
	format, err := seoaudit.ParseReportFormat(ext)
	if err != nil {
		s.Error(w, r, seoaudit.Errorf(seoaudit.ENOTFOUND, "unknown report format %q", ext))
		return
	}
	renderer, ok := s.Reports[format]
	if !ok {
		s.Error(w, r, seoaudit.Errorf(seoaudit.ENOTFOUND, "report format %q not available", ext))
		return
	}

	report, err := s.loadReport(r.Context(), r.PathValue("id"))
	if err != nil {
		s.Error(w, r, err)
		return
	}
	if !report.Audit.Status.Done() {
		s.Error(w, r, seoaudit.Errorf(seoaudit.ECONFLICT, "audit is still %s", report.Audit.Status))
		return
	}

	var buf bytes.Buffer
	if err := renderer.Render(&buf, report); err != nil {
		s.Error(w, r, err)
		return
	}
	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{
		"filename": "seoaudit-" + report.Audit.ID + "." + string(format),
	}))
	_, _ = buf.WriteTo(w)
}

// auditResponse is the JSON body of GET /api/audits/{id}.
type auditResponse struct {
	Audit    *seoaudit.Audit        `json:"audit"`
	Progress *progressResponse      `json:"progress,omitempty"`
	Summary  *summaryResponse       `json:"summary"`
	Pages    []*seoaudit.PageReport `json:"pages"`
}

type progressResponse struct {
	Kind      seoaudit.ProgressKind `json:"kind"`
	URL       string                `json:"url"`
	Completed int                   `json:"completed"`
	Total     int                   `json:"total"`
}

// summaryResponse flattens page lists to URLs.
type summaryResponse struct {
	Total            int                       `json:"total"`
	OK               int                       `json:"ok"`
	Redirected       int                       `json:"redirected"`
	Errors           int                       `json:"errors"`
	Issues           []seoaudit.IssueList      `json:"issues"`
	DuplicateTitles  []seoaudit.DuplicateGroup `json:"duplicateTitles"`
	DuplicateContent []seoaudit.DuplicateGroup `json:"duplicateContent"`
	AvgSEOScore      float64                   `json:"avgSeoScore"`
	AvgUXScore       float64                   `json:"avgUxScore"`
}

func (s *Server) handleAPIAudit(w http.ResponseWriter, r *http.Request) {
	report, err := s.loadReport(r.Context(), r.PathValue("id"))
	if err != nil {
		s.Error(w, r, err)
		return
	}

	sum := report.Summary
	resp := auditResponse{
		Audit: report.Audit,
		Summary: &summaryResponse{
			Total:            sum.Total,
			OK:               sum.OK,
			Redirected:       sum.Redirected,
			Errors:           sum.Errors,
			Issues:           sum.IssueLists(),
			DuplicateTitles:  sum.DuplicateTitles,
			DuplicateContent: sum.DuplicateContent,
			AvgSEOScore:      sum.AvgSEOScore,
			AvgUXScore:       sum.AvgUXScore,
		},
		Pages: report.Pages,
	}
	if p := s.latestProgress(report.Audit.ID); p != nil {
		resp.Progress = &progressResponse{Kind: p.Kind, URL: p.URL, Completed: p.Completed, Total: p.Total}
	}
	if resp.Pages == nil {
		resp.Pages = []*seoaudit.PageReport{}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) loadReport(ctx context.Context, id string) (*seoaudit.Report, error) {
	audit, err := s.Audits.FindAuditByID(ctx, id)
	if err != nil {
		return nil, err
	}
	pages, err := s.Pages.FindPages(ctx, seoaudit.PageFilter{AuditID: &audit.ID})
	if err != nil {
		return nil, err
	}
	return seoaudit.NewReport(audit, pages), nil
}

func (s *Server) formats() []seoaudit.ReportFormat {
	var out []seoaudit.ReportFormat
	for _, f := range seoaudit.ReportFormats {
		if _, ok := s.Reports[f]; ok {
			out = append(out, f)
		}
	}
	return out
}

// Error writes err to w with the status matching its code. Internal errors
// are logged and reported without detail.
func (s *Server) Error(w http.ResponseWriter, r *http.Request, err error) {
	code, msg := seoaudit.ErrorCode(err), seoaudit.ErrorMessage(err)
	if code == seoaudit.EINTERNAL {
		s.Logger.Error("http error", "method", r.Method, "path", r.URL.Path, "err", err)
	}

	status := ErrorStatusCode(code)
	if strings.HasPrefix(r.URL.Path, "/api/") || isJSONRequest(r) {
		writeJSON(w, status, map[string]string{"error": msg})
		return
	}
	http.Error(w, msg, status)
}

// codes maps application error codes to HTTP status codes.
var codes = map[string]int{
	seoaudit.ECONFLICT:    http.StatusConflict,
	seoaudit.EFORBIDDEN:   http.StatusForbidden,
	seoaudit.EINVALID:     http.StatusBadRequest,
	seoaudit.ENOTFOUND:    http.StatusNotFound,
	seoaudit.EUNAVAILABLE: http.StatusServiceUnavailable,
	seoaudit.EINTERNAL:    http.StatusInternalServerError,
}

// ErrorStatusCode returns the HTTP status code for an application error code.
func ErrorStatusCode(code string) int {
	if v, ok := codes[code]; ok {
		return v
	}
	return http.StatusInternalServerError
}

func isJSONRequest(r *http.Request) bool {
	mt, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return mt == "application/json"
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
