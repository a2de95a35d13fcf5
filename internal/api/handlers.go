// Package api is the HTTP surface for invoking transitions and actions.
// Authentication is an external collaborator; the surface only reads the
// actor tag from request headers.
package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/scribeworks/orderflow/internal/application/actions"
	"github.com/scribeworks/orderflow/internal/application/engine"
	"github.com/scribeworks/orderflow/internal/application/port"
	"github.com/scribeworks/orderflow/internal/domain/order"
)

// Handler bundles the dependencies of the HTTP endpoints.
type Handler struct {
	orders   port.OrderRepository
	translog port.TransitionLogRepository
	executor *engine.Executor
	catalog  *actions.Catalog
	audit    port.AuditReader
	logger   *zap.Logger
}

func NewHandler(
	orders port.OrderRepository,
	translog port.TransitionLogRepository,
	executor *engine.Executor,
	catalog *actions.Catalog,
	audit port.AuditReader,
	logger *zap.Logger,
) *Handler {
	return &Handler{
		orders:   orders,
		translog: translog,
		executor: executor,
		catalog:  catalog,
		audit:    audit,
		logger:   logger,
	}
}

// NewRouter builds the gin engine with middleware and all routes.
func NewRouter(h *Handler, logger *zap.Logger) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(LoggingMiddleware(logger))
	router.Use(CORSMiddleware())

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"service": "orderflow",
			"time":    time.Now().Format(time.RFC3339),
		})
	})

	v1 := router.Group("/api/v1")
	{
		v1.POST("/orders", h.CreateOrder)
		v1.GET("/orders", h.ListOrders)
		v1.GET("/orders/:id", h.GetOrder)
		v1.POST("/orders/:id/transition", h.TransitionOrder)
		v1.GET("/orders/:id/available-transitions", h.AvailableTransitions)
		v1.POST("/orders/:id/actions/:action", h.ExecuteAction)
		v1.GET("/orders/:id/available-actions", h.AvailableActions)
		v1.GET("/orders/:id/history", h.OrderHistory)
		v1.GET("/orders/:id/audit", h.OrderAudit)
	}
	return router
}

// actorFromHeaders builds the acting principal from the X-Actor-ID and
// X-Actor-Role headers. Requests without them act as an anonymous caller.
func actorFromHeaders(c *gin.Context) *order.Actor {
	rawID := c.GetHeader("X-Actor-ID")
	rawRole := c.GetHeader("X-Actor-Role")
	if rawID == "" && rawRole == "" {
		return nil
	}

	actor := &order.Actor{Role: order.Role(rawRole)}
	if id, err := uuid.Parse(rawID); err == nil {
		actor.ID = id
	}
	return actor
}

type createOrderRequest struct {
	ClientID string `json:"client_id" binding:"required"`
	Topic    string `json:"topic"`
	Pages    int    `json:"pages"`
	Status   string `json:"status"`
}

func (h *Handler) CreateOrder(c *gin.Context) {
	var req createOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request", "message": err.Error()})
		return
	}

	clientID, err := uuid.Parse(req.ClientID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request", "message": "client_id must be a UUID"})
		return
	}

	status := order.StatusUnpaid
	if req.Status != "" {
		status = order.Status(req.Status)
		if !status.IsInitial() {
			c.JSON(http.StatusBadRequest, gin.H{
				"error":   "invalid_request",
				"message": "status must be one of the initial statuses",
			})
			return
		}
	}

	o := &order.Order{
		ID:       uuid.New(),
		ClientID: clientID,
		Topic:    req.Topic,
		Pages:    req.Pages,
		Status:   status,
	}
	if err := h.orders.Create(c.Request.Context(), o); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, o)
}

// ListOrders returns the orders in the status given by the required
// ?status= query parameter.
func (h *Handler) ListOrders(c *gin.Context) {
	status := order.Status(c.Query("status"))
	if !status.IsValid() {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid_request",
			"message": "status must be a known order status",
		})
		return
	}

	list, err := h.orders.ListByStatus(c.Request.Context(), status)
	if err != nil {
		writeError(c, err)
		return
	}
	if list == nil {
		list = []*order.Order{}
	}
	c.JSON(http.StatusOK, gin.H{
		"status": status,
		"orders": list,
	})
}

func (h *Handler) GetOrder(c *gin.Context) {
	o, ok := h.loadOrder(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, o)
}

type transitionRequest struct {
	TargetStatus     string         `json:"target_status" binding:"required"`
	Reason           string         `json:"reason"`
	SkipPaymentCheck bool           `json:"skip_payment_check"`
	SkipWriterCheck  bool           `json:"skip_writer_check"`
	Metadata         map[string]any `json:"metadata"`
}

func (h *Handler) TransitionOrder(c *gin.Context) {
	o, ok := h.loadOrder(c)
	if !ok {
		return
	}

	var req transitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request", "message": err.Error()})
		return
	}

	updated, err := h.executor.Transition(c.Request.Context(), engine.Request{
		OrderID:          o.ID,
		Target:           order.Status(req.TargetStatus),
		Actor:            actorFromHeaders(c),
		Reason:           req.Reason,
		Action:           "direct_transition",
		SkipPaymentCheck: req.SkipPaymentCheck,
		SkipWriterCheck:  req.SkipWriterCheck,
		Metadata:         req.Metadata,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

func (h *Handler) AvailableTransitions(c *gin.Context) {
	o, ok := h.loadOrder(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"current_status":        o.Status,
		"available_transitions": h.executor.AvailableTransitions(o.Status),
	})
}

type actionRequest struct {
	Reason string         `json:"reason"`
	Params map[string]any `json:"params"`
}

func (h *Handler) ExecuteAction(c *gin.Context) {
	o, ok := h.loadOrder(c)
	if !ok {
		return
	}

	var req actionRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request", "message": err.Error()})
			return
		}
	}

	updated, err := h.catalog.ExecuteAction(c.Request.Context(), o, c.Param("action"),
		actorFromHeaders(c), req.Reason, req.Params)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

func (h *Handler) AvailableActions(c *gin.Context) {
	o, ok := h.loadOrder(c)
	if !ok {
		return
	}

	role := order.Role(c.Query("role"))
	if role == "" {
		if actor := actorFromHeaders(c); actor != nil {
			role = actor.Role
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"current_status": o.Status,
		"actions":        h.catalog.AvailableActions(o, role),
	})
}

func (h *Handler) OrderHistory(c *gin.Context) {
	o, ok := h.loadOrder(c)
	if !ok {
		return
	}

	entries, err := h.translog.ListByOrderID(c.Request.Context(), o.ID)
	if err != nil {
		writeError(c, err)
		return
	}
	if entries == nil {
		entries = []*order.TransitionLogEntry{}
	}
	c.JSON(http.StatusOK, gin.H{
		"order_id": o.ID,
		"history":  entries,
	})
}

// OrderAudit returns the audit trail for an order, newest first. The audit
// collaborator is optional; without one the endpoint reports an empty trail.
func (h *Handler) OrderAudit(c *gin.Context) {
	o, ok := h.loadOrder(c)
	if !ok {
		return
	}

	entries := []port.AuditEntry{}
	if h.audit != nil {
		list, err := h.audit.ListByTarget(c.Request.Context(), "order:"+o.ID.String())
		if err != nil {
			writeError(c, err)
			return
		}
		if list != nil {
			entries = list
		}
	}
	c.JSON(http.StatusOK, gin.H{
		"order_id": o.ID,
		"audit":    entries,
	})
}

func (h *Handler) loadOrder(c *gin.Context) (*order.Order, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request", "message": "order id must be a UUID"})
		return nil, false
	}

	o, err := h.orders.GetByID(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return nil, false
	}
	return o, true
}
