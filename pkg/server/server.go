// Package server exposes the aggregation engine over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"

	"github.com/user/secmerge/pkg/engine"
	"github.com/user/secmerge/pkg/metrics"
)

var (
	errOutsideRoot = errors.New("path is outside the served root")
	errNotFound    = errors.New("path not found")
)

// Scanner produces the merged report for one path.
type Scanner interface {
	Scan(ctx context.Context, target string) (engine.Report, []engine.Diagnostic)
}

type ScanRequest struct {
	Path string `json:"path" binding:"required"`
}

type ScanResponse struct {
	ScanID      string              `json:"scan_id"`
	File        string              `json:"file"`
	Findings    []engine.Finding    `json:"findings"`
	Diagnostics []engine.Diagnostic `json:"diagnostics"`
}

type Server struct {
	root      string
	scanner   Scanner
	collector *metrics.Collector
	log       *zap.SugaredLogger

	// most recent responses, replayed by GET /api/v1/scan/:id
	results *lru.Cache[string, ScanResponse]
}

// DefaultMaxResults is used when New is given a non-positive maxResults.
const DefaultMaxResults = 256

// New serves scans of paths below root, keeping the last maxResults
// responses. collector may be nil.
func New(root string, maxResults int, s Scanner, collector *metrics.Collector, log *zap.SugaredLogger) (*Server, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	// symlinks are resolved here and in resolve so both sides compare real paths
	abs, err = filepath.EvalSymlinks(abs)
	if err != nil {
		return nil, fmt.Errorf("server root: %w", err)
	}
	if maxResults <= 0 {
		maxResults = DefaultMaxResults
	}
	results, err := lru.New[string, ScanResponse](maxResults)
	if err != nil {
		return nil, err
	}
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Server{
		root:      abs,
		scanner:   s,
		collector: collector,
		log:       log,
		results:   results,
	}, nil
}

func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/healthz", func(ctx *gin.Context) {
		ctx.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	if s.collector != nil {
		r.GET("/metrics", gin.WrapH(s.collector.Handler()))
	}

	api := r.Group("/api/v1")
	api.POST("/scan", s.scanHandler)
	api.GET("/scan/:id", s.resultHandler)
	return r
}

// Run listens on addr until ctx is cancelled.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:           addr,
		Handler:        s.Router(),
		ReadTimeout:    10 * time.Second,
		WriteTimeout:   0,
		MaxHeaderBytes: 1 << 20,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Infof("listening on %s, serving %s", addr, s.root)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) scanHandler(ctx *gin.Context) {
	var req ScanRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	target, err := s.resolve(req.Path)
	if errors.Is(err, errNotFound) {
		ctx.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	if err != nil {
		s.log.With("path", req.Path).Warnf("rejected scan request: %v", err)
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	id := uuid.NewString()
	log := s.log.With("scan_id", id, "target", target)
	log.Infof("scan started")

	report, diags := s.scanner.Scan(ctx.Request.Context(), target)
	if s.collector != nil {
		s.collector.ReportMerged(report)
	}

	resp := ScanResponse{
		ScanID:      id,
		File:        report.File,
		Findings:    report.Findings,
		Diagnostics: diags,
	}
	if resp.Findings == nil {
		resp.Findings = []engine.Finding{}
	}
	if resp.Diagnostics == nil {
		resp.Diagnostics = []engine.Diagnostic{}
	}

	s.results.Add(id, resp)

	log.Infof("scan finished with %d findings, %d diagnostics", len(resp.Findings), len(resp.Diagnostics))
	ctx.JSON(http.StatusOK, resp)
}

func (s *Server) resultHandler(ctx *gin.Context) {
	id := ctx.Param("id")

	resp, ok := s.results.Get(id)
	if !ok {
		ctx.JSON(http.StatusNotFound, gin.H{"error": "scan not found"})
		return
	}
	ctx.JSON(http.StatusOK, resp)
}

// resolve maps a request path onto the filesystem, relative paths being taken
// from the root, and refuses anything that escapes the root either lexically
// or once symlinks are followed.
func (s *Server) resolve(p string) (string, error) {
	if !filepath.IsAbs(p) {
		p = filepath.Join(s.root, p)
	}
	p = filepath.Clean(p)
	if !s.contains(p) {
		return "", errOutsideRoot
	}

	resolved, err := filepath.EvalSymlinks(p)
	if errors.Is(err, fs.ErrNotExist) {
		return "", errNotFound
	}
	if err != nil {
		return "", fmt.Errorf("resolve %s: %w", p, err)
	}
	if !s.contains(resolved) {
		return "", errOutsideRoot
	}
	return resolved, nil
}

func (s *Server) contains(p string) bool {
	rel, err := filepath.Rel(s.root, p)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}
