package http

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	lnsms "github.com/lnsms/go"
	"github.com/lnsms/go/opennode"
)

type webhookHandler struct {
	svc    *lnsms.Service
	apiKey string
	logger *slog.Logger
}

// handle processes an OpenNode charge callback. A paid callback runs the
// same fulfillment as pay_and_send_sms; a non-2xx answer makes OpenNode retry.
func (h *webhookHandler) handle(c *gin.Context) {
	var cb opennode.Callback
	if err := c.ShouldBind(&cb); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid callback", "details": err.Error()})
		return
	}

	if err := cb.Verify(h.apiKey); err != nil {
		var cfgErr *lnsms.ConfigurationError
		if errors.As(err, &cfgErr) {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
			return
		}
		h.logger.WarnContext(c.Request.Context(), "webhook signature mismatch", "charge_id", cb.ID)
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return
	}

	if !cb.Paid() {
		c.JSON(http.StatusOK, gin.H{"charge_id": cb.ID, "status": cb.Status, "handled": false})
		return
	}

	result, err := h.svc.Fulfill(c.Request.Context(), cb.ID)
	if err != nil {
		if lnsms.IsNotFound(err) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		_ = c.Error(err)
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"charge_id": cb.ID,
		"status":    result.Status,
		"handled":   true,
		"sms_sent":  result.SMSSent,
	})
}
