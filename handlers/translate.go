package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/banglalekha/go-services/internal/translate"
	"github.com/banglalekha/go-services/pkg/logger"
	"github.com/banglalekha/go-services/pkg/middleware"
)

// TranslateRequest carries the raw Banglish text to translate.
type TranslateRequest struct {
	RawText string `json:"rawText" binding:"required"`
}

// RetranslateRequest carries rich-text markup whose visible words get
// re-translated in place.
type RetranslateRequest struct {
	Markup string `json:"markup" binding:"required"`
}

// TranslationHandler holds dependencies
type TranslationHandler struct {
	svc *translate.Service
}

func NewTranslationHandler(svc *translate.Service) *TranslationHandler {
	return &TranslationHandler{svc: svc}
}

// Register routes under /translations
func (h *TranslationHandler) Register(rg *gin.RouterGroup, gate *middleware.Gate) {
	t := rg.Group("/translations")
	t.POST("", gate.CheckAuth(true), h.Translate)
	t.POST("/retranslate", gate.CheckAuth(true), h.Retranslate)
	t.GET("", gate.CheckAuth(true), h.List)
	t.GET("/public", gate.CheckAuth(false), h.ListPublic)
	t.GET("/:id", gate.CheckAuth(false), h.Get)
	t.POST("/generate-pdf/:id", gate.CheckAuth(true), h.GeneratePDF)
	t.PATCH("/shareability/:id", gate.CheckAuth(true), h.UpdateShareability)
}

func (h *TranslationHandler) Translate(c *gin.Context) {
	claims, ok := middleware.CurrentIdentity(c).Claims()
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "you are unauthorized"})
		return
	}
	var req TranslateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	t, err := h.svc.Translate(c.Request.Context(), claims.UserID, req.RawText)
	if err != nil {
		logger.Errorf("translate failed: %v", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "failed to translate your text"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": t})
}

func (h *TranslationHandler) Retranslate(c *gin.Context) {
	claims, ok := middleware.CurrentIdentity(c).Claims()
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "you are unauthorized"})
		return
	}
	var req RetranslateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	t, err := h.svc.Retranslate(c.Request.Context(), claims.UserID, req.Markup)
	if err != nil {
		logger.Errorf("retranslate failed: %v", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "failed to translate your text"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": t})
}

func (h *TranslationHandler) List(c *gin.Context) {
	claims, ok := middleware.CurrentIdentity(c).Claims()
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "you are unauthorized"})
		return
	}
	list, err := h.svc.GetAllByUser(c.Request.Context(), claims.UserID)
	if err != nil {
		logger.Errorf("list translations failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load translations"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": list})
}

func (h *TranslationHandler) ListPublic(c *gin.Context) {
	list, err := h.svc.GetPublic(c.Request.Context())
	if err != nil {
		logger.Errorf("list public translations failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load translations"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": list})
}

// Get serves a single translation. Anonymous viewers only reach PUBLIC
// ones; every view counts toward the visit total.
func (h *TranslationHandler) Get(c *gin.Context) {
	var viewerID string
	if claims, ok := middleware.CurrentIdentity(c).Claims(); ok {
		viewerID = claims.UserID
	}
	t, err := h.svc.Get(c.Request.Context(), c.Param("id"), viewerID)
	if err != nil {
		if errors.Is(err, translate.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "translation not found"})
			return
		}
		logger.Errorf("load translation failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load translation"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": t})
}

func (h *TranslationHandler) GeneratePDF(c *gin.Context) {
	claims, ok := middleware.CurrentIdentity(c).Claims()
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "you are unauthorized"})
		return
	}
	t, err := h.svc.GeneratePDF(c.Request.Context(), c.Param("id"), claims.UserID)
	if err != nil {
		if errors.Is(err, translate.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "translation not found"})
			return
		}
		logger.Errorf("pdf export failed: %v", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "failed to generate pdf"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": t})
}

func (h *TranslationHandler) UpdateShareability(c *gin.Context) {
	claims, ok := middleware.CurrentIdentity(c).Claims()
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "you are unauthorized"})
		return
	}
	var req struct {
		Visibility translate.Visibility `json:"visibility" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	t, err := h.svc.UpdateShareability(c.Request.Context(), c.Param("id"), claims.UserID, req.Visibility)
	if err != nil {
		if errors.Is(err, translate.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "translation not found"})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": t})
}
