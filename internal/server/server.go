package server

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/GreatCoder69/intel-classroom-assistant-sub001/internal/logging"
)

// Config holds the dev backend's settings.
type Config struct {
	// ListenAddr is the host:port to serve on.
	ListenAddr string
	// AuthToken, when set, is the only accepted bearer credential.
	// Empty disables auth, which is the dev default.
	AuthToken string
	// UploadDir is where attachment files land. Served back under
	// /storage/uploads.
	UploadDir string
}

// Server is the HTTP surface of the dev backend.
type Server struct {
	cfg       Config
	store     *SubjectStore
	responder Responder
	log       zerolog.Logger
	engine    *gin.Engine
}

// New assembles the router. The caller owns the store's lifetime.
func New(cfg Config, store *SubjectStore, responder Responder) (*Server, error) {
	if cfg.UploadDir == "" {
		return nil, errors.New("upload directory is required")
	}
	if err := os.MkdirAll(cfg.UploadDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload directory: %w", err)
	}
	if responder == nil {
		responder = &CannedResponder{}
	}

	s := &Server{
		cfg:       cfg,
		store:     store,
		responder: responder,
		log:       logging.Component("server"),
	}

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery(), s.requestLog())

	r.GET("/api/health", s.handleHealth)
	r.Static("/storage/uploads", cfg.UploadDir)

	authed := r.Group("/api", s.requireAuth())
	authed.GET("/subjects", s.handleListSubjects)
	authed.POST("/chat", s.handleChat)
	authed.DELETE("/subjects/:subject", s.handleDeleteSubject)

	s.engine = r
	return s, nil
}

// Handler exposes the router for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run serves until the listener fails.
func (s *Server) Run() error {
	s.log.Info().Str("addr", s.cfg.ListenAddr).Str("uploads", s.cfg.UploadDir).Msg("dev backend listening")
	return s.engine.Run(s.cfg.ListenAddr)
}

func (s *Server) requestLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		s.log.Debug().
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Msg("request")
	}
}

// requireAuth checks the bearer credential when one is configured. The
// role header is recorded for handlers but not used to gate anything
// except subject deletion.
func (s *Server) requireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if s.cfg.AuthToken == "" {
			c.Next()
			return
		}
		header := c.GetHeader("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token != s.cfg.AuthToken {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error":   "unauthorized",
				"message": "missing or invalid bearer token",
			})
			return
		}
		c.Next()
	}
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) handleListSubjects(c *gin.Context) {
	records, err := s.store.ListSubjects(c.Request.Context())
	if err != nil {
		s.fail(c, http.StatusInternalServerError, "list_failed", err)
		return
	}
	if records == nil {
		records = []SubjectRecord{}
	}
	c.JSON(http.StatusOK, records)
}

func (s *Server) handleChat(c *gin.Context) {
	subject := strings.TrimSpace(c.PostForm("subject"))
	question := strings.TrimSpace(c.PostForm("question"))
	model := strings.TrimSpace(c.PostForm("model"))
	if subject == "" {
		s.fail(c, http.StatusBadRequest, "bad_request", errors.New("subject is required"))
		return
	}

	storedFile := ""
	fileHeader, err := c.FormFile("file")
	if err == nil {
		name := uuid.NewString() + "-" + filepath.Base(fileHeader.Filename)
		if err := c.SaveUploadedFile(fileHeader, filepath.Join(s.cfg.UploadDir, name)); err != nil {
			s.fail(c, http.StatusInternalServerError, "upload_failed", err)
			return
		}
		storedFile = "uploads/" + name
	} else if !errors.Is(err, http.ErrMissingFile) {
		s.fail(c, http.StatusBadRequest, "bad_upload", err)
		return
	}

	if question == "" && storedFile == "" {
		s.fail(c, http.StatusBadRequest, "bad_request", errors.New("question or file is required"))
		return
	}

	answer, latency := s.responder.Respond(subject, question, model, storedFile != "")

	if _, err := s.store.AppendExchange(c.Request.Context(), subject, question, answer, storedFile); err != nil {
		s.fail(c, http.StatusInternalServerError, "store_failed", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"answer":  answer,
		"file":    storedFile,
		"latency": latency,
	})
}

func (s *Server) handleDeleteSubject(c *gin.Context) {
	subject := c.Param("subject")
	if err := s.store.DeleteSubject(c.Request.Context(), subject); err != nil {
		if errors.Is(err, ErrSubjectNotFound) {
			s.fail(c, http.StatusNotFound, "not_found", err)
			return
		}
		s.fail(c, http.StatusInternalServerError, "delete_failed", err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) fail(c *gin.Context, status int, code string, err error) {
	s.log.Warn().Err(err).Int("status", status).Str("path", c.Request.URL.Path).Msg("request failed")
	c.AbortWithStatusJSON(status, gin.H{"error": code, "message": err.Error()})
}
