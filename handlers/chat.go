package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/banglalekha/go-services/internal/chat"
	"github.com/banglalekha/go-services/internal/translate"
	"github.com/banglalekha/go-services/pkg/logger"
	"github.com/banglalekha/go-services/pkg/middleware"
)

// AskRequest carries a chatbot prompt. ChatID is empty when starting a
// fresh conversation.
type AskRequest struct {
	ChatID string `json:"chatId"`
	Prompt string `json:"prompt" binding:"required"`
}

type ChatHandler struct {
	svc *chat.Service
}

func NewChatHandler(svc *chat.Service) *ChatHandler {
	return &ChatHandler{svc: svc}
}

// Register routes under /chats. Every chatbot route requires a session.
func (h *ChatHandler) Register(rg *gin.RouterGroup, gate *middleware.Gate) {
	cg := rg.Group("/chats")
	cg.POST("", gate.CheckAuth(true), h.Ask)
	cg.POST("/from-pdf", gate.CheckAuth(true), h.AskFromPDF)
	cg.GET("", gate.CheckAuth(true), h.List)
	cg.GET("/:id", gate.CheckAuth(true), h.Get)
}

func (h *ChatHandler) Ask(c *gin.Context) {
	claims, ok := middleware.CurrentIdentity(c).Claims()
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "you are unauthorized"})
		return
	}
	var req AskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	conv, err := h.svc.Ask(c.Request.Context(), claims.UserID, req.ChatID, req.Prompt)
	if err != nil {
		if errors.Is(err, chat.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "chat not found"})
			return
		}
		logger.Errorf("chatbot request failed: %v", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "failed to get a reply"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": conv})
}

// AskFromPDF seeds a new conversation from one of the caller's exported
// PDFs.
func (h *ChatHandler) AskFromPDF(c *gin.Context) {
	claims, ok := middleware.CurrentIdentity(c).Claims()
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "you are unauthorized"})
		return
	}
	var req struct {
		TranslationID string `json:"translationId" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	conv, err := h.svc.AskFromPDF(c.Request.Context(), claims.UserID, req.TranslationID)
	if err != nil {
		if errors.Is(err, translate.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "translation not found"})
			return
		}
		logger.Errorf("chat from pdf failed: %v", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "failed to get a reply"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": conv})
}

func (h *ChatHandler) List(c *gin.Context) {
	claims, ok := middleware.CurrentIdentity(c).Claims()
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "you are unauthorized"})
		return
	}
	list, err := h.svc.ListByUser(c.Request.Context(), claims.UserID)
	if err != nil {
		logger.Errorf("list chats failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load chats"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": list})
}

func (h *ChatHandler) Get(c *gin.Context) {
	claims, ok := middleware.CurrentIdentity(c).Claims()
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "you are unauthorized"})
		return
	}
	conv, err := h.svc.Get(c.Request.Context(), claims.UserID, c.Param("id"))
	if err != nil {
		if errors.Is(err, chat.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "chat not found"})
			return
		}
		logger.Errorf("load chat failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load chat"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": conv})
}
