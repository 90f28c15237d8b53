package handler

import (
	"context"
	"net/http"

	"github.com/assocdesk/service-registration/internal/gateway"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Reconciler applies a decoded payment notification.
type Reconciler interface {
	Apply(ctx context.Context, n gateway.PaymentNotification) error
}

// WebhookHandler receives the gateway's asynchronous payment callbacks. The
// gateway retries on any non-200, so the handler answers 200 whenever the
// notification was fully processed, including when nothing matched it.
type WebhookHandler struct {
	codec      *gateway.Codec
	reconciler Reconciler
	logger     *zap.Logger
}

// NewWebhookHandler creates the webhook handler.
func NewWebhookHandler(codec *gateway.Codec, reconciler Reconciler, logger *zap.Logger) *WebhookHandler {
	return &WebhookHandler{codec: codec, reconciler: reconciler, logger: logger}
}

// HandleNotify processes one payment notification. The payload arrives as the
// TradeInfo form field of a POST.
func (h *WebhookHandler) HandleNotify(c *gin.Context) {
	tradeInfo := c.PostForm("TradeInfo")
	if tradeInfo == "" {
		c.String(http.StatusBadRequest, "missing TradeInfo")
		return
	}

	notification, err := h.codec.DecryptNotification(tradeInfo)
	if err != nil {
		// The ciphertext itself is not logged; it may decrypt under the
		// right key even if ours is misconfigured.
		h.logger.Error("notification decode failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to process notification"})
		return
	}

	if err := h.reconciler.Apply(c.Request.Context(), notification); err != nil {
		h.logger.Error("notification reconcile failed",
			zap.String("order_no", notification.OrderNo),
			zap.Error(err),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to process notification"})
		return
	}

	c.String(http.StatusOK, "OK")
}
