package manage

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"JProject/logger"
	"JProject/module/notify"
	"JProject/tools/errs"
)

// PolicyStore is the read/write side of the notification settings.
type PolicyStore interface {
	GetNotificationPolicy(ctx context.Context) (notify.NotificationPolicy, error)
	UpdateNotificationPolicy(ctx context.Context, p notify.NotificationPolicy) error
}

// PolicyHandler exposes the notification policy to operators. The
// dispatcher reads the policy fresh on every decision, so a PUT here takes
// effect on the next message with no restart.
type PolicyHandler struct {
	store PolicyStore
}

func NewPolicyHandler(store PolicyStore) *PolicyHandler {
	return &PolicyHandler{store: store}
}

func (h *PolicyHandler) Register(r gin.IRouter) {
	g := r.Group("/manage/notify")
	g.GET("/policy", h.getPolicy)
	g.PUT("/policy", h.putPolicy)
}

func (h *PolicyHandler) getPolicy(c *gin.Context) {
	pol, err := h.store.GetNotificationPolicy(c.Request.Context())
	if err != nil {
		logger.Error("manage: read notification policy failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, errs.ErrInternal)
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": 0, "data": pol})
}

func (h *PolicyHandler) putPolicy(c *gin.Context) {
	var pol notify.NotificationPolicy
	if err := c.ShouldBindJSON(&pol); err != nil {
		c.JSON(http.StatusBadRequest, errs.ErrArgsInvalid.WithDetail(err.Error()))
		return
	}
	if err := pol.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, err)
		return
	}
	if err := h.store.UpdateNotificationPolicy(c.Request.Context(), pol); err != nil {
		logger.Error("manage: update notification policy failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, errs.ErrInternal)
		return
	}
	logger.Info("manage: notification policy updated",
		zap.Bool("enabled", pol.Enabled),
		zap.Bool("immediate", pol.Immediate.Enabled),
		zap.Bool("delayed", pol.Delayed.Enabled))
	c.JSON(http.StatusOK, gin.H{"code": 0})
}
