// Package server exposes dossier generation over HTTP.
//
// POST /generate takes a wizard preview payload and streams back the
// assembled dossier as a PDF or DOCX attachment. GET /health reports
// liveness.
package server

import (
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/sfxrentals/dossier/config"
	"github.com/sfxrentals/dossier/docx"
	"github.com/sfxrentals/dossier/fetch"
	"github.com/sfxrentals/dossier/preview"
	"github.com/sfxrentals/dossier/render"
	"github.com/sfxrentals/dossier/splice"
)

// maxRequestBytes caps the /generate request body. Payloads carry inline
// uploads as data URIs, so the cap is generous.
const maxRequestBytes = 64 << 20

const (
	mimePDF  = "application/pdf"
	mimeDOCX = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
)

// Server handles dossier generation requests.
type Server struct {
	engine  *gin.Engine
	fetcher *fetch.Fetcher
	gen     *render.Generator
	docs    *docx.Builder
	log     *slog.Logger
}

// New assembles a Server from the configuration.
func New(cfg config.Config, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}
	fetcher := fetch.New(
		fetch.WithTimeout(cfg.FetchTimeout),
		fetch.WithMaxBytes(cfg.MaxFetchBytes),
		fetch.WithLogger(log),
	)
	s := &Server{
		fetcher: fetcher,
		gen: render.NewGenerator(
			render.WithFetcher(fetcher),
			render.WithVerifyBaseURL(cfg.VerifyBaseURL),
			render.WithLogger(log),
		),
		docs: docx.NewBuilder(
			docx.WithFetcher(fetcher),
			docx.WithLogger(log),
		),
		log: log,
	}

	engine := gin.New()
	engine.Use(gin.Recovery(), s.requestLog())
	engine.POST("/generate", s.handleGenerate)
	engine.GET("/health", s.handleHealth)
	s.engine = engine
	return s
}

// Handler returns the HTTP handler, for mounting and tests.
func (s *Server) Handler() http.Handler { return s.engine }

// Run serves until the listener fails.
func (s *Server) Run(addr string) error {
	s.log.Info("listening", "addr", addr)
	return s.engine.Run(addr)
}

// requestLog tags every request with an id and logs its outcome.
func (s *Server) requestLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := uuid.NewString()
		c.Header("X-Request-ID", id)
		start := time.Now()
		c.Next()
		s.log.Info("request",
			"id", id,
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start),
		)
	}
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (s *Server) handleGenerate(c *gin.Context) {
	body, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxRequestBytes))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "detail": err.Error()})
		return
	}
	req, err := preview.Decode(body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON", "detail": err.Error()})
		return
	}

	ctx := c.Request.Context()
	switch req.Format {
	case preview.FormatDOCX:
		data, err := s.docs.Build(ctx, req.Preview)
		if err != nil {
			s.log.Error("docx generation failed", "err", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Generation failed", "detail": err.Error()})
			return
		}
		c.Header("Content-Disposition", `attachment; filename="dossier.docx"`)
		c.Data(http.StatusOK, mimeDOCX, data)
	default:
		data, err := s.generatePDF(c, req.Preview)
		if err != nil {
			s.log.Error("pdf generation failed", "err", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Generation failed", "detail": err.Error()})
			return
		}
		c.Header("Content-Disposition", `attachment; filename="dossier.pdf"`)
		c.Data(http.StatusOK, mimePDF, data)
	}
}

// generatePDF builds the base dossier and splices in whatever external
// documents are reachable.
func (s *Server) generatePDF(c *gin.Context, pv preview.Preview) ([]byte, error) {
	ctx := c.Request.Context()
	base, err := s.gen.BuildBase(ctx, pv)
	if err != nil {
		return nil, err
	}
	blobs := splice.FetchAll(ctx, s.fetcher, pv)
	return splice.Splice(base, blobs)
}
