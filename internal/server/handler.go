package server

import (
	"context"
	"errors"
	"net/http"

	"chart-relay-bot/internal/interfaces"
	"chart-relay-bot/internal/logger"
	"chart-relay-bot/internal/types"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"golang.org/x/sync/singleflight"
)

var validate = validator.New()

// WebhookRequest is the alert body sent by the charting platform.
type WebhookRequest struct {
	Symbol string `json:"symbol" validate:"required"`
}

type webhookResponse struct {
	Status   string `json:"status"`
	Analysis string `json:"analysis,omitempty"`
	CycleID  string `json:"cycle_id,omitempty"`
	Message  string `json:"message,omitempty"`
}

type webhookHandler struct {
	engine interfaces.Engine
	// inflight coalesces duplicate alerts for a symbol that is already
	// being analyzed; every caller gets the same result.
	inflight singleflight.Group
}

func (h *webhookHandler) Analyze(c echo.Context) error {
	ctx := c.Request().Context()

	var req WebhookRequest
	if err := c.Bind(&req); err != nil {
		logger.Warn(ctx, "Malformed webhook body", "error", err)
		return c.JSON(http.StatusBadRequest, webhookResponse{Status: "error", Message: "invalid JSON body"})
	}
	if err := validate.StructCtx(ctx, &req); err != nil {
		// The engine sends the missing-symbol notice.
		_, _ = h.engine.AnalyzeOnce(ctx, "")
		return c.JSON(http.StatusBadRequest, webhookResponse{Status: "error", Message: "Symbol missing"})
	}

	// The run outlives a disconnecting caller: the chat message still goes out.
	runCtx := context.WithoutCancel(ctx)
	v, err, shared := h.inflight.Do(req.Symbol, func() (any, error) {
		return h.engine.AnalyzeOnce(runCtx, req.Symbol)
	})
	if shared {
		logger.Info(ctx, "Webhook coalesced with a running analysis", "symbol", req.Symbol)
	}

	switch {
	case err == nil:
		res := v.(*types.CycleResult)
		return c.JSON(http.StatusOK, webhookResponse{Status: "success", Analysis: res.Analysis, CycleID: res.CycleID})
	case errors.Is(err, types.ErrInput):
		return c.JSON(http.StatusBadRequest, webhookResponse{Status: "error", Message: "Symbol missing"})
	case errors.Is(err, types.ErrCapture):
		return c.JSON(http.StatusInternalServerError, webhookResponse{Status: "error", Message: "Screenshot failed"})
	default:
		return c.JSON(http.StatusInternalServerError, webhookResponse{Status: "error", Message: err.Error()})
	}
}
