// Package handler exposes the tracking view to the presentation layer
// over HTTP. It renders nothing and authenticates nothing; it hands the
// derived view model to whatever front end consumes it.
package handler

import (
	"errors"
	"net/http"

	"order-tracker/internal/reconcile"
	"order-tracker/internal/store"
	"order-tracker/internal/view"
	"order-tracker/internal/worker"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// ViewHandler serves the derived tracking view.
type ViewHandler struct {
	manager    *worker.Manager
	store      store.Store
	reconciler *reconcile.Reconciler
	logger     *zap.Logger
}

// NewViewHandler creates a ViewHandler.
func NewViewHandler(m *worker.Manager, s store.Store, r *reconcile.Reconciler, logger *zap.Logger) *ViewHandler {
	return &ViewHandler{
		manager:    m,
		store:      s,
		reconciler: r,
		logger:     logger,
	}
}

// RegisterRoutes mounts the view API on the Echo instance.
func (h *ViewHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api/v1/buyers/:buyer_id")
	g.GET("/view", h.GetView)
	g.POST("/refresh", h.Refresh)
}

// GetView returns the buyer's current derived view. When a session
// worker is running the published view is served as-is; otherwise the
// view is derived on demand from a fresh snapshot.
func (h *ViewHandler) GetView(c echo.Context) error {
	buyerID := c.Param("buyer_id")
	if buyerID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "buyer_id is required")
	}

	if w, ok := h.manager.WorkerFor(buyerID); ok {
		return c.JSON(http.StatusOK, w.CurrentView())
	}

	snap, err := store.FetchSnapshot(c.Request().Context(), h.store, buyerID)
	if err != nil {
		h.logger.Warn("on-demand snapshot fetch failed",
			zap.String("buyer_id", buyerID),
			zap.Error(err),
		)
		return c.JSON(http.StatusBadGateway, view.Empty(buyerID))
	}

	return c.JSON(http.StatusOK, view.FromSnapshot(snap))
}

// Refresh runs a synchronous fetch+reconcile+derive cycle and returns
// the fresh view; presentation calls it for immediate feedback after a
// user action instead of waiting out the polling interval.
func (h *ViewHandler) Refresh(c echo.Context) error {
	buyerID := c.Param("buyer_id")
	if buyerID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "buyer_id is required")
	}

	ctx := c.Request().Context()

	if w, ok := h.manager.WorkerFor(buyerID); ok {
		v, err := w.RefreshNow(ctx)
		return h.respond(c, buyerID, v, err)
	}

	// No live worker; run the cycle in place.
	snap, err := store.FetchSnapshot(ctx, h.store, buyerID)
	if err != nil {
		h.logger.Warn("manual refresh fetch failed",
			zap.String("buyer_id", buyerID),
			zap.Error(err),
		)
		return c.JSON(http.StatusBadGateway, view.Empty(buyerID))
	}

	healed, healErr := h.reconciler.Reconcile(ctx, snap)
	if healed > 0 {
		if fresh, ferr := store.FetchSnapshot(ctx, h.store, buyerID); ferr == nil {
			snap = fresh
		}
	}

	return h.respond(c, buyerID, view.FromSnapshot(snap), healErr)
}

// respond maps cycle errors onto HTTP statuses. Partial heal failures
// still produce the view (they self-correct on the next pass); only an
// unreachable store degrades the response.
func (h *ViewHandler) respond(c echo.Context, buyerID string, v view.DerivedView, err error) error {
	if err == nil {
		return c.JSON(http.StatusOK, v)
	}

	var healErr *reconcile.HealError
	if errors.As(err, &healErr) {
		h.logger.Warn("manual refresh healed partially",
			zap.String("buyer_id", buyerID),
			zap.Int("failed", len(healErr.Failures)),
		)
		return c.JSON(http.StatusOK, v)
	}

	if errors.Is(err, worker.ErrIdentityLost) {
		return c.JSON(http.StatusNotFound, view.Empty(buyerID))
	}

	h.logger.Warn("manual refresh failed, serving best available view",
		zap.String("buyer_id", buyerID),
		zap.Error(err),
	)
	return c.JSON(http.StatusBadGateway, v)
}
