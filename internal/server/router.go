// Package server exposes the journal and projects features over an
// authenticated HTTP API. It is a pure consumer of the data store's
// read/write contract; all rendering happens client-side.
package server

import (
	"crypto/subtle"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/daybook-labs/daybook/internal/journal"
	"github.com/daybook-labs/daybook/internal/kv"
	"github.com/daybook-labs/daybook/internal/projects"
	"github.com/daybook-labs/daybook/internal/store"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	sessionSubject = "owner"
	maxImportBytes = 32 << 20
)

var (
	errMissingSessions        = errors.New("session manager dependency required")
	errMissingJournalService  = errors.New("journal service dependency required")
	errMissingProjectsService = errors.New("projects service dependency required")
	errMissingStore           = errors.New("data store dependency required")
	errMissingPassphrase      = errors.New("session passphrase required")
)

// SessionManager issues and validates API session tokens.
type SessionManager interface {
	Issue(subject string) (string, int64, error)
	Validate(token string) (string, error)
}

// MirrorControl binds or releases the cloud mirror's account session.
type MirrorControl interface {
	SetSessionToken(token string)
	SessionActive() bool
}

// Dependencies wires the HTTP surface to the feature services.
type Dependencies struct {
	Sessions       SessionManager
	Passphrase     string
	JournalService *journal.Service
	ProjectService *projects.Service
	Store          *store.Store
	Mirror         MirrorControl
	Logger         *zap.Logger
}

// NewHTTPHandler validates dependencies and builds the router.
func NewHTTPHandler(deps Dependencies) (http.Handler, error) {
	if deps.Sessions == nil {
		return nil, errMissingSessions
	}
	if strings.TrimSpace(deps.Passphrase) == "" {
		return nil, errMissingPassphrase
	}
	if deps.JournalService == nil {
		return nil, errMissingJournalService
	}
	if deps.ProjectService == nil {
		return nil, errMissingProjectsService
	}
	if deps.Store == nil {
		return nil, errMissingStore
	}

	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(cors.New(cors.Config{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowHeaders: []string{"Authorization", "Content-Type"},
		MaxAge:       12 * time.Hour,
	}))

	handler := &httpHandler{
		sessions:   deps.Sessions,
		passphrase: deps.Passphrase,
		journal:    deps.JournalService,
		projects:   deps.ProjectService,
		store:      deps.Store,
		mirror:     deps.Mirror,
		logger:     logger,
	}

	router.POST("/auth/session", handler.handleCreateSession)

	protected := router.Group("/")
	protected.Use(handler.authorizeRequest)

	protected.GET("/entries", handler.handleListEntries)
	protected.GET("/entries/:date", handler.handleLoadEntry)
	protected.PUT("/entries/:date", handler.handleSaveEntry)
	protected.DELETE("/entries/:date", handler.handleDeleteEntry)
	protected.GET("/entries/:date/draft", handler.handleGetDraft)
	protected.PUT("/entries/:date/draft", handler.handleSaveDraft)
	protected.DELETE("/entries/:date/draft", handler.handleDiscardDraft)

	protected.GET("/journal/stats", handler.handleJournalStats)
	protected.GET("/journal/history", handler.handleHistory)
	protected.GET("/journal/prompt", handler.handlePrompt)
	protected.GET("/journal/calendar", handler.handleCalendar)

	protected.GET("/projects", handler.handleListProjects)
	protected.POST("/projects", handler.handleCreateProject)
	protected.GET("/projects/stats", handler.handleProjectStats)
	protected.GET("/projects/:id", handler.handleGetProject)
	protected.DELETE("/projects/:id", handler.handleDeleteProject)
	protected.PUT("/projects/:id/title", handler.handleRenameProject)
	protected.PUT("/projects/:id/fields/:field", handler.handleSetField)
	protected.POST("/projects/:id/status", handler.handleToggleStatus)
	protected.POST("/projects/:id/lists/:list/items", handler.handleAddItem)
	protected.PATCH("/projects/:id/lists/:list/items/:itemID", handler.handleUpdateItem)
	protected.DELETE("/projects/:id/lists/:list/items/:itemID", handler.handleDeleteItem)
	protected.POST("/projects/:id/actions/:itemID/toggle", handler.handleToggleAction)

	protected.GET("/export", handler.handleExport)
	protected.POST("/import", handler.handleImport)

	protected.PUT("/mirror/session", handler.handleBindMirror)
	protected.DELETE("/mirror/session", handler.handleReleaseMirror)

	return router, nil
}

type httpHandler struct {
	sessions   SessionManager
	passphrase string
	journal    *journal.Service
	projects   *projects.Service
	store      *store.Store
	mirror     MirrorControl
	logger     *zap.Logger
}

type sessionRequestPayload struct {
	Passphrase string `json:"passphrase"`
}

type sessionResponsePayload struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int64  `json:"expires_in"`
	TokenType   string `json:"token_type"`
}

func (h *httpHandler) handleCreateSession(c *gin.Context) {
	var request sessionRequestPayload
	if err := c.ShouldBindJSON(&request); err != nil || request.Passphrase == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}

	if subtle.ConstantTimeCompare([]byte(request.Passphrase), []byte(h.passphrase)) != 1 {
		h.logger.Warn("session passphrase rejected")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	token, expiresIn, err := h.sessions.Issue(sessionSubject)
	if err != nil {
		h.logger.Error("failed to issue session token", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "token_issue_failed"})
		return
	}

	c.JSON(http.StatusOK, sessionResponsePayload{
		AccessToken: token,
		ExpiresIn:   expiresIn,
		TokenType:   "Bearer",
	})
}

func (h *httpHandler) authorizeRequest(c *gin.Context) {
	header := c.GetHeader("Authorization")
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	if _, err := h.sessions.Validate(strings.TrimSpace(token)); err != nil {
		h.logger.Warn("session token rejected", zap.Error(err))
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	c.Next()
}

func (h *httpHandler) handleExport(c *gin.Context) {
	snapshot, err := h.store.ExportAll()
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, snapshot)
}

func (h *httpHandler) handleImport(c *gin.Context) {
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxImportBytes))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}
	snapshot, err := store.DecodeSnapshot(body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_snapshot"})
		return
	}
	if err := h.store.ImportAll(snapshot); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"entries_replaced":  snapshot.Entries != nil,
		"projects_replaced": snapshot.Projects != nil,
	})
}

type mirrorSessionPayload struct {
	Token string `json:"token"`
}

func (h *httpHandler) handleBindMirror(c *gin.Context) {
	if h.mirror == nil {
		c.JSON(http.StatusConflict, gin.H{"error": "mirror_disabled"})
		return
	}
	var request mirrorSessionPayload
	if err := c.ShouldBindJSON(&request); err != nil || strings.TrimSpace(request.Token) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}
	h.mirror.SetSessionToken(request.Token)
	c.JSON(http.StatusOK, gin.H{"active": h.mirror.SessionActive()})
}

func (h *httpHandler) handleReleaseMirror(c *gin.Context) {
	if h.mirror == nil {
		c.JSON(http.StatusConflict, gin.H{"error": "mirror_disabled"})
		return
	}
	h.mirror.SetSessionToken("")
	c.JSON(http.StatusOK, gin.H{"active": false})
}

// respondError maps domain failures onto HTTP statuses. Storage quota
// exhaustion is surfaced distinctly so the client can tell the user.
func (h *httpHandler) respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, kv.ErrQuotaExceeded):
		c.JSON(http.StatusInsufficientStorage, gin.H{"error": "storage_quota_exceeded"})
	case errors.Is(err, journal.ErrInvalidDate):
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_date"})
	case errors.Is(err, journal.ErrEmptyEntry):
		c.JSON(http.StatusBadRequest, gin.H{"error": "empty_entry"})
	case errors.Is(err, projects.ErrProjectNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "project_not_found"})
	case errors.Is(err, projects.ErrItemNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "item_not_found"})
	case errors.Is(err, projects.ErrEmptyTitle):
		c.JSON(http.StatusBadRequest, gin.H{"error": "empty_title"})
	case errors.Is(err, projects.ErrUnknownList):
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown_list"})
	case errors.Is(err, projects.ErrUnknownField):
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown_field"})
	default:
		h.logger.Error("request failed", zap.String("path", c.FullPath()), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_error"})
	}
}
