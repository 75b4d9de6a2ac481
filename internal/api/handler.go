package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"checkout-service/internal/pricing"
	"checkout-service/internal/service"
	"checkout-service/internal/util"
	"checkout-service/internal/variant"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Handler contains HTTP handlers
type Handler struct {
	checkoutService *service.CheckoutService
	catalogService  *service.CatalogService
}

// NewHandler creates a new HTTP handler
func NewHandler(checkoutService *service.CheckoutService, catalogService *service.CatalogService) *Handler {
	return &Handler{
		checkoutService: checkoutService,
		catalogService:  catalogService,
	}
}

// SetupRoutes sets up HTTP routes
func (h *Handler) SetupRoutes(router *gin.Engine) {
	router.Use(gin.Recovery())
	router.Use(prometheusMiddleware())
	router.Use(gin.Logger())

	router.GET("/health", h.healthCheck)
	router.GET("/ready", h.readinessCheck)

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := router.Group("/api/v1")
	{
		v1.GET("/shipping-methods", h.listShippingMethods)

		v1.PUT("/checkout/:session/items", h.setItems)
		v1.PUT("/checkout/:session/shipping", h.selectShipping)
		v1.POST("/checkout/:session/promo", h.applyPromo)
		v1.DELETE("/checkout/:session/promo", h.removePromo)
		v1.GET("/checkout/:session/quote", h.getQuote)
		v1.POST("/checkout/:session/place", h.placeOrder)
		v1.GET("/checkout/:session/orders", h.listSessionOrders)

		v1.GET("/orders/:id", h.getOrder)
		v1.POST("/orders/:id/cancel", h.cancelOrder)

		v1.POST("/products", h.createProduct)
		v1.GET("/products/:id", h.getProduct)
		v1.POST("/products/:id/attributes", h.addAttributes)

		v1.GET("/vendors/:id/products", h.listVendorProducts)
		v1.GET("/variants/:sku/stock", h.getVariantStock)
	}
}

// healthCheck handles health check requests
func (h *Handler) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "healthy",
		"time":   time.Now().Unix(),
	})
}

// readinessCheck handles readiness check requests
func (h *Handler) readinessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ready",
		"time":   time.Now().Unix(),
	})
}

// listShippingMethods returns the shipping catalog
func (h *Handler) listShippingMethods(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"methods": h.checkoutService.ShippingMethods(),
	})
}

type setItemsRequest struct {
	Lines []pricing.CartLine `json:"lines" binding:"required"`
}

// setItems replaces the cart lines of a checkout session
func (h *Handler) setItems(c *gin.Context) {
	var req setItemsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}

	if err := h.checkoutService.SetItems(c.Request.Context(), c.Param("session"), req.Lines); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Failed to update items",
			"details": err.Error(),
		})
		return
	}

	c.Status(http.StatusNoContent)
}

type selectShippingRequest struct {
	Method string `json:"method" binding:"required"`
}

// selectShipping selects a shipping method for the session
func (h *Handler) selectShipping(c *gin.Context) {
	var req selectShippingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}

	if err := h.checkoutService.SelectShipping(c.Request.Context(), c.Param("session"), req.Method); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Failed to select shipping method",
			"details": err.Error(),
		})
		return
	}

	c.Status(http.StatusNoContent)
}

type applyPromoRequest struct {
	Code string `json:"code"`
}

// applyPromo applies a promo code to the session. Rejections carry a
// descriptive message and leave the session unchanged.
func (h *Handler) applyPromo(c *gin.Context) {
	var req applyPromoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}

	session, err := h.checkoutService.ApplyPromo(c.Request.Context(), c.Param("session"), req.Code)
	if err != nil {
		status := http.StatusUnprocessableEntity
		if !isPromoRejection(err) {
			status = http.StatusInternalServerError
		}
		c.JSON(status, gin.H{
			"error": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"applied_code": session.AppliedCode,
		"effect":       session.Effect,
	})
}

func isPromoRejection(err error) bool {
	return errors.Is(err, pricing.ErrEmptyCode) ||
		errors.Is(err, pricing.ErrUnknownCode) ||
		errors.Is(err, pricing.ErrCodeAlreadyApplied)
}

// removePromo clears the applied promo code
func (h *Handler) removePromo(c *gin.Context) {
	if err := h.checkoutService.RemovePromo(c.Request.Context(), c.Param("session")); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to remove promo code",
			"details": err.Error(),
		})
		return
	}

	c.Status(http.StatusNoContent)
}

// getQuote computes the current pricing breakdown for a session
func (h *Handler) getQuote(c *gin.Context) {
	quote, err := h.checkoutService.Quote(c.Request.Context(), c.Param("session"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to compute quote",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, quote)
}

type placeOrderRequest struct {
	IdempotencyKey string `json:"idempotency_key,omitempty"`
}

// placeOrder freezes the session into an order
func (h *Handler) placeOrder(c *gin.Context) {
	var req placeOrderRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"error":   "Invalid request body",
				"details": err.Error(),
			})
			return
		}
	}

	if req.IdempotencyKey == "" {
		req.IdempotencyKey = c.GetHeader("Idempotency-Key")
	}

	resp, err := h.checkoutService.PlaceOrder(c.Request.Context(), &service.PlaceOrderRequest{
		SessionID:      c.Param("session"),
		IdempotencyKey: req.IdempotencyKey,
	})
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, service.ErrInsufficientStock) {
			status = http.StatusConflict
		}
		c.JSON(status, gin.H{
			"error":   "Failed to place order",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusCreated, resp)
}

// listSessionOrders lists the orders placed from a checkout session
func (h *Handler) listSessionOrders(c *gin.Context) {
	orders, err := h.checkoutService.ListSessionOrders(c.Request.Context(), c.Param("session"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to list orders",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"orders": orders,
	})
}

// getOrder handles get order by ID
func (h *Handler) getOrder(c *gin.Context) {
	orderID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid order ID",
		})
		return
	}

	order, items, err := h.checkoutService.GetOrder(c.Request.Context(), orderID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"error":   "Order not found",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"order": order,
		"items": items,
	})
}

type cancelOrderRequest struct {
	Reason string `json:"reason"`
}

// cancelOrder rolls back a placed order
func (h *Handler) cancelOrder(c *gin.Context) {
	orderID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid order ID",
		})
		return
	}

	var req cancelOrderRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"error":   "Invalid request body",
				"details": err.Error(),
			})
			return
		}
	}
	if req.Reason == "" {
		req.Reason = "customer_request"
	}

	if err := h.checkoutService.CancelOrder(c.Request.Context(), orderID, req.Reason); err != nil {
		c.JSON(http.StatusConflict, gin.H{
			"error":   "Failed to cancel order",
			"details": err.Error(),
		})
		return
	}

	c.Status(http.StatusNoContent)
}

// createProduct creates a product and generates its variants
func (h *Handler) createProduct(c *gin.Context) {
	var req service.CreateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}

	resp, err := h.catalogService.CreateProduct(c.Request.Context(), &req)
	if err != nil {
		status := http.StatusInternalServerError
		if isPreconditionError(err) {
			status = http.StatusUnprocessableEntity
		}
		c.JSON(status, gin.H{
			"error":   "Failed to create product",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusCreated, resp)
}

func isPreconditionError(err error) bool {
	return errors.Is(err, variant.ErrNoAttributes) ||
		errors.Is(err, variant.ErrNoBaseSKU) ||
		errors.Is(err, variant.ErrNoAttributesOrSKU)
}

// getProduct retrieves a product with its variants
func (h *Handler) getProduct(c *gin.Context) {
	productID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid product ID",
		})
		return
	}

	resp, err := h.catalogService.GetProduct(c.Request.Context(), productID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"error":   "Product not found",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, resp)
}

// addAttributes extends a product's attribute set and appends the new
// variant combinations
func (h *Handler) addAttributes(c *gin.Context) {
	productID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid product ID",
		})
		return
	}

	var req service.AddAttributesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}

	resp, err := h.catalogService.AddAttributes(c.Request.Context(), productID, &req)
	if err != nil {
		status := http.StatusInternalServerError
		if isPreconditionError(err) {
			status = http.StatusUnprocessableEntity
		}
		c.JSON(status, gin.H{
			"error":   "Failed to generate variants",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusCreated, resp)
}

// listVendorProducts lists a vendor's products
func (h *Handler) listVendorProducts(c *gin.Context) {
	vendorID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid vendor ID",
		})
		return
	}

	products, err := h.catalogService.ListVendorProducts(c.Request.Context(), vendorID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to list products",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"products": products,
	})
}

// getVariantStock reports the live stock counts of a variant
func (h *Handler) getVariantStock(c *gin.Context) {
	resp, err := h.catalogService.VariantStock(c.Request.Context(), c.Param("sku"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"error":   "Variant not found",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, resp)
}

// prometheusMiddleware collects HTTP metrics
func prometheusMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Writer.Status())

		util.HTTPRequestDuration.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			status,
		).Observe(duration)

		util.HTTPRequestsTotal.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			status,
		).Inc()
	}
}
