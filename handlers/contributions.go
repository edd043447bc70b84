package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/banglalekha/go-services/internal/contributions"
	"github.com/banglalekha/go-services/internal/models"
	"github.com/banglalekha/go-services/pkg/logger"
	"github.com/banglalekha/go-services/pkg/middleware"
)

// ContributionRequest is a banglish/bangla word pair submitted for review.
type ContributionRequest struct {
	BanglishText string `json:"banglishText" binding:"required"`
	BanglaText   string `json:"banglaText" binding:"required"`
}

// ReviewRequest carries an admin's decision on a pending contribution.
type ReviewRequest struct {
	Decision contributions.Status `json:"decision" binding:"required"`
}

type ContributionHandler struct {
	svc *contributions.Service
}

func NewContributionHandler(svc *contributions.Service) *ContributionHandler {
	return &ContributionHandler{svc: svc}
}

// Register routes under /contributions. The review surface is admin-only.
func (h *ContributionHandler) Register(rg *gin.RouterGroup, gate *middleware.Gate) {
	cg := rg.Group("/contributions")
	cg.POST("", gate.CheckAuth(true), h.Submit)
	cg.GET("", gate.CheckAuth(true), h.ListOwn)
	cg.GET("/all", gate.CheckAuth(true, models.RoleAdmin), h.ListAll)
	cg.GET("/:id", gate.CheckAuth(true), h.Get)
	cg.PUT("/:id", gate.CheckAuth(true), h.Amend)
	cg.PATCH("/review/:id", gate.CheckAuth(true, models.RoleAdmin), h.Review)
	cg.DELETE("/:id", gate.CheckAuth(true, models.RoleAdmin), h.Remove)
}

func (h *ContributionHandler) Submit(c *gin.Context) {
	claims, ok := middleware.CurrentIdentity(c).Claims()
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "you are unauthorized"})
		return
	}
	var req ContributionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	contrib, err := h.svc.Submit(c.Request.Context(), claims.UserID, req.BanglishText, req.BanglaText)
	if err != nil {
		logger.Errorf("contribution submit failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to save contribution"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"data": contrib})
}

func (h *ContributionHandler) ListOwn(c *gin.Context) {
	claims, ok := middleware.CurrentIdentity(c).Claims()
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "you are unauthorized"})
		return
	}
	list, err := h.svc.ListByUser(c.Request.Context(), claims.UserID)
	if err != nil {
		logger.Errorf("list contributions failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load contributions"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": list})
}

func (h *ContributionHandler) ListAll(c *gin.Context) {
	list, err := h.svc.ListAll(c.Request.Context())
	if err != nil {
		logger.Errorf("list all contributions failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load contributions"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": list})
}

func (h *ContributionHandler) Get(c *gin.Context) {
	contrib, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "contribution not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": contrib})
}

// Amend lets the owner edit a submitted pair; the edit resets review state.
func (h *ContributionHandler) Amend(c *gin.Context) {
	claims, ok := middleware.CurrentIdentity(c).Claims()
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "you are unauthorized"})
		return
	}
	var req struct {
		BanglishText string `json:"banglishText"`
		BanglaText   string `json:"banglaText"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	contrib, err := h.svc.Amend(c.Request.Context(), c.Param("id"), claims.UserID, req.BanglishText, req.BanglaText)
	if err != nil {
		if errors.Is(err, contributions.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "contribution not found"})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": contrib})
}

func (h *ContributionHandler) Remove(c *gin.Context) {
	if err := h.svc.Remove(c.Request.Context(), c.Param("id")); err != nil {
		if errors.Is(err, contributions.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "contribution not found"})
			return
		}
		logger.Errorf("delete contribution failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete contribution"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": "deleted"})
}

func (h *ContributionHandler) Review(c *gin.Context) {
	claims, ok := middleware.CurrentIdentity(c).Claims()
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "you are unauthorized"})
		return
	}
	var req ReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	contrib, err := h.svc.Review(c.Request.Context(), c.Param("id"), claims.UserID, req.Decision)
	if err != nil {
		if errors.Is(err, contributions.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "contribution not found"})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": contrib})
}
