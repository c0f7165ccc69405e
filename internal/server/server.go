// Package server is a development implementation of the remote bill service.
//
// It speaks the same contract the client adapter expects: multipart upload on
// POST /bills, JSON updates on PATCH /bills/:id, GET /bills for listings, and
// error bodies of the form {"message": "Erreur <status>"}.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/billed-dev/billed/internal/model"
	"github.com/billed-dev/billed/internal/receipt"
	"github.com/billed-dev/billed/internal/server/sqlite"
)

// Options configure a Server.
type Options struct {
	PublicURL      string
	UploadDir      string
	JWTSecret      string
	TokenTTL       time.Duration
	MaxUploadBytes int64
}

// Account seeds a user at startup.
type Account struct {
	Email    string
	Password string
	Type     model.Role
}

// Server serves the bill API.
type Server struct {
	store   *sqlite.Store
	tokens  *TokenManager
	opts    Options
	metrics *metrics
	engine  *gin.Engine
}

const (
	ctxEmail = "email"
	ctxRole  = "role"
)

// New builds the server and its routes.
func New(store *sqlite.Store, opts Options) (*Server, error) {
	if opts.JWTSecret == "" {
		return nil, errors.New("jwt secret is required")
	}
	if opts.TokenTTL == 0 {
		opts.TokenTTL = 24 * time.Hour
	}
	if opts.MaxUploadBytes == 0 {
		opts.MaxUploadBytes = 10 << 20
	}
	opts.PublicURL = strings.TrimRight(opts.PublicURL, "/")
	if err := os.MkdirAll(opts.UploadDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating upload dir: %w", err)
	}

	s := &Server{
		store:   store,
		tokens:  NewTokenManager(opts.JWTSecret, opts.TokenTTL),
		opts:    opts,
		metrics: newMetrics(),
	}
	s.engine = s.routes()
	return s, nil
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Seed creates or replaces the given accounts.
func (s *Server) Seed(ctx context.Context, accounts []Account) error {
	for _, a := range accounts {
		hash, err := HashPassword(a.Password)
		if err != nil {
			return err
		}
		role := a.Type
		if role == "" {
			role = model.RoleEmployee
		}
		if err := s.store.UpsertUser(ctx, sqlite.User{Email: a.Email, Type: role, PasswordHash: hash}); err != nil {
			return fmt.Errorf("seeding %s: %w", a.Email, err)
		}
		slog.Info("Seeded account", "email", a.Email, "type", role)
	}
	return nil
}

func (s *Server) routes() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(), s.metrics.middleware())

	r.GET("/metrics", s.metrics.handler())
	r.POST("/auth/login", s.login)
	r.GET("/files/:name", s.file)

	api := r.Group("/bills")
	api.Use(s.requireAuth())
	api.POST("", s.createBill)
	api.GET("", s.listBills)
	api.PATCH("/:id", s.updateBill)

	r.NoRoute(func(c *gin.Context) { fail(c, http.StatusNotFound) })
	return r
}

// fail aborts with the conventional error body.
func fail(c *gin.Context, status int) {
	c.AbortWithStatusJSON(status, gin.H{"message": fmt.Sprintf("Erreur %d", status)})
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		slog.Info("Request completed",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration_ms", time.Since(start).Milliseconds(),
		)
	}
}

func (s *Server) requireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			slog.Warn("Rejected request", "path", c.Request.URL.Path, "error", ErrMissingToken)
			fail(c, http.StatusUnauthorized)
			return
		}
		claims, err := s.tokens.Validate(token)
		if err != nil {
			slog.Warn("Rejected request", "path", c.Request.URL.Path, "error", err)
			fail(c, http.StatusUnauthorized)
			return
		}
		c.Set(ctxEmail, claims.Email)
		c.Set(ctxRole, claims.Type)
		c.Next()
	}
}

func caller(c *gin.Context) (string, model.Role) {
	email := c.GetString(ctxEmail)
	role, _ := c.Get(ctxRole)
	r, _ := role.(model.Role)
	return email, r
}

type loginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (s *Server) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest)
		return
	}
	user, err := s.store.GetUser(c.Request.Context(), req.Email)
	if errors.Is(err, sqlite.ErrNotFound) {
		fail(c, http.StatusUnauthorized)
		return
	}
	if err != nil {
		slog.Error("Login lookup failed", "email", req.Email, "error", err)
		fail(c, http.StatusInternalServerError)
		return
	}
	if err := CheckPassword(user.PasswordHash, req.Password); err != nil {
		fail(c, http.StatusUnauthorized)
		return
	}
	token, err := s.tokens.Generate(user.Email, user.Type)
	if err != nil {
		slog.Error("Token generation failed", "error", err)
		fail(c, http.StatusInternalServerError)
		return
	}
	c.JSON(http.StatusOK, model.User{Type: user.Type, Email: user.Email, Token: token})
}

type createResponse struct {
	ID       string `json:"id"`
	FileURL  string `json:"fileUrl"`
	FileName string `json:"fileName"`
	Key      string `json:"key"`
}

func (s *Server) createBill(c *gin.Context) {
	email, role := caller(c)
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, s.opts.MaxUploadBytes)

	owner := c.PostForm("email")
	if owner == "" {
		owner = email
	}
	if owner != email && role != model.RoleAdmin {
		fail(c, http.StatusUnauthorized)
		return
	}

	bill := &model.Bill{Email: owner}
	resp := createResponse{}

	header, err := c.FormFile("file")
	switch {
	case errors.Is(err, http.ErrMissingFile):
	case err != nil:
		fail(c, http.StatusBadRequest)
		return
	default:
		if err := receipt.Validate(header.Filename); err != nil {
			fail(c, http.StatusBadRequest)
			return
		}
		key := uuid.New().String() + strings.ToLower(filepath.Ext(header.Filename))
		if err := c.SaveUploadedFile(header, filepath.Join(s.opts.UploadDir, key)); err != nil {
			slog.Error("Saving receipt failed", "error", err)
			fail(c, http.StatusInternalServerError)
			return
		}
		bill.FileURL = s.opts.PublicURL + "/files/" + key
		bill.FileName = filepath.Base(header.Filename)
		resp.Key = key
	}

	if err := s.store.CreateBill(c.Request.Context(), bill); err != nil {
		slog.Error("Creating bill failed", "error", err)
		fail(c, http.StatusInternalServerError)
		return
	}
	s.metrics.bills.WithLabelValues("create").Inc()

	resp.ID = bill.ID
	resp.FileURL = bill.FileURL
	resp.FileName = bill.FileName
	if resp.Key == "" {
		resp.Key = bill.ID
	}
	c.JSON(http.StatusCreated, resp)
}

func (s *Server) updateBill(c *gin.Context) {
	email, role := caller(c)
	ctx := c.Request.Context()

	existing, err := s.store.GetBill(ctx, c.Param("id"))
	if errors.Is(err, sqlite.ErrNotFound) {
		fail(c, http.StatusNotFound)
		return
	}
	if err != nil {
		slog.Error("Loading bill failed", "id", c.Param("id"), "error", err)
		fail(c, http.StatusInternalServerError)
		return
	}
	if existing.Email != email && role != model.RoleAdmin {
		fail(c, http.StatusNotFound)
		return
	}

	var in model.Bill
	if err := c.ShouldBindJSON(&in); err != nil {
		fail(c, http.StatusBadRequest)
		return
	}

	updated := in
	updated.ID = existing.ID
	updated.Email = existing.Email
	if role != model.RoleAdmin || !in.Status.Valid() {
		updated.Status = existing.Status
		updated.CommentAdmin = existing.CommentAdmin
	}
	if (updated.FileURL == "") != (updated.FileName == "") {
		updated.FileURL = existing.FileURL
		updated.FileName = existing.FileName
	}

	if err := s.store.UpdateBill(ctx, &updated); err != nil {
		slog.Error("Updating bill failed", "id", updated.ID, "error", err)
		fail(c, http.StatusInternalServerError)
		return
	}
	s.metrics.bills.WithLabelValues("update").Inc()
	c.JSON(http.StatusOK, updated)
}

func (s *Server) listBills(c *gin.Context) {
	email, role := caller(c)
	filter := email
	if role == model.RoleAdmin {
		filter = ""
	}
	bills, err := s.store.ListBills(c.Request.Context(), filter)
	if err != nil {
		slog.Error("Listing bills failed", "error", err)
		fail(c, http.StatusInternalServerError)
		return
	}
	s.metrics.bills.WithLabelValues("list").Inc()
	c.JSON(http.StatusOK, bills)
}

func (s *Server) file(c *gin.Context) {
	name := filepath.Base(c.Param("name"))
	path := filepath.Join(s.opts.UploadDir, name)
	if _, err := os.Stat(path); err != nil {
		fail(c, http.StatusNotFound)
		return
	}
	c.File(path)
}
