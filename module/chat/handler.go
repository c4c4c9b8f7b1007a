package chat

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"JProject/logger"
	"JProject/module/chat/service"
	"JProject/tools/errs"
)

// Handler is the internal HTTP surface of the chat message path. The
// public-facing chat API lives in the main web backend; this service only
// needs enough surface to be driven and probed.
type Handler struct {
	svc *service.MessageService
}

func NewHandler(svc *service.MessageService) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) Register(r gin.IRouter) {
	g := r.Group("/internal/conversations")
	g.POST("/:id/messages", h.postMessage)
	g.POST("/:id/read", h.postRead)
}

type postMessageReq struct {
	SenderID string `json:"sender_id" binding:"required"`
	Content  string `json:"content" binding:"required"`
}

func (h *Handler) postMessage(c *gin.Context) {
	var req postMessageReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errs.ErrArgsInvalid.WithDetail(err.Error()))
		return
	}
	m, err := h.svc.SendMessage(c.Request.Context(), c.Param("id"), req.SenderID, req.Content)
	if err != nil {
		logger.Error("chat: send message failed",
			zap.String("conversation", c.Param("id")), zap.Error(err))
		c.JSON(http.StatusInternalServerError, errs.ErrInternal)
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": 0, "data": m})
}

type postReadReq struct {
	UserID string `json:"user_id" binding:"required"`
}

func (h *Handler) postRead(c *gin.Context) {
	var req postReadReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errs.ErrArgsInvalid.WithDetail(err.Error()))
		return
	}
	if err := h.svc.ReadConversation(c.Request.Context(), c.Param("id"), req.UserID); err != nil {
		logger.Error("chat: mark read failed",
			zap.String("conversation", c.Param("id")), zap.Error(err))
		c.JSON(http.StatusInternalServerError, errs.ErrInternal)
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": 0})
}
