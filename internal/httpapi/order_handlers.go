package httpapi

import (
	"io"
	"net/http"
	"strconv"

	"campusDelivery/internal/apperr"
	"campusDelivery/internal/service"
	"campusDelivery/models"

	"github.com/gin-gonic/gin"
)

const nextPageHeader = "X-Next-Page-Token"

type createOrderRequest struct {
	EstablishmentID     string             `json:"establishment_id" binding:"required"`
	Items               []models.OrderItem `json:"items" binding:"required"`
	DeliveryLocation    models.Location    `json:"delivery_location"`
	SpecialInstructions *string            `json:"special_instructions"`
	DeliveryPoints      int64              `json:"delivery_points"`
}

type updateStatusRequest struct {
	Status             models.OrderStatus `json:"status" binding:"required"`
	CompletionImageURL *string            `json:"completion_image_url"`
}

func (h *handler) createOrder(c *gin.Context) {
	var req createOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	o, err := h.Orders.Create(c.Request.Context(), currentUser(c).ID, service.CreateOrderInput{
		EstablishmentID:     req.EstablishmentID,
		Items:               req.Items,
		DeliveryLocation:    req.DeliveryLocation,
		SpecialInstructions: req.SpecialInstructions,
		DeliveryPoints:      req.DeliveryPoints,
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, o)
}

func (h *handler) myOrders(c *gin.Context) {
	pageSize := 0
	if v := c.Query("page_size"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			h.fail(c, apperr.InvalidInput("page_size must be an integer"))
			return
		}
		pageSize = n
	}
	page, err := h.Orders.ListMine(c.Request.Context(), currentUser(c).ID, c.Query("status_filter"), pageSize, c.Query("page_token"))
	if err != nil {
		h.fail(c, err)
		return
	}
	if page.NextToken != "" {
		c.Header(nextPageHeader, page.NextToken)
	}
	c.JSON(http.StatusOK, page.Orders)
}

func (h *handler) availableOrders(c *gin.Context) {
	list, err := h.Orders.ListAvailable(c.Request.Context(), currentUser(c).ID)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *handler) deliveringOrders(c *gin.Context) {
	list, err := h.Orders.ListDelivering(c.Request.Context(), currentUser(c).ID)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *handler) getOrder(c *gin.Context) {
	h.respondOrder(c)(h.Orders.Get(c.Request.Context(), c.Param("id"), currentUser(c).ID))
}

func (h *handler) acceptOrder(c *gin.Context) {
	h.respondOrder(c)(h.Orders.Accept(c.Request.Context(), c.Param("id"), currentUser(c).ID))
}

func (h *handler) updateOrderStatus(c *gin.Context) {
	var req updateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	h.respondOrder(c)(h.Orders.AdvanceStatus(c.Request.Context(), c.Param("id"), currentUser(c).ID, req.Status, req.CompletionImageURL))
}

func (h *handler) completeOrder(c *gin.Context) {
	h.respondOrder(c)(h.Orders.Complete(c.Request.Context(), c.Param("id"), currentUser(c).ID))
}

func (h *handler) cancelOrder(c *gin.Context) {
	h.respondOrder(c)(h.Orders.Cancel(c.Request.Context(), c.Param("id"), currentUser(c).ID))
}

func (h *handler) uploadImage(c *gin.Context) {
	fh, err := c.FormFile("file")
	if err != nil {
		h.fail(c, apperr.InvalidInput("multipart field \"file\" is required"))
		return
	}
	limit := h.Config.Orders.MaxImageBytes
	if limit > 0 && fh.Size > limit {
		h.fail(c, apperr.InvalidInput("image exceeds %d bytes", limit))
		return
	}
	f, err := fh.Open()
	if err != nil {
		h.fail(c, apperr.Internal("open upload", err))
		return
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		h.fail(c, apperr.Internal("read upload", err))
		return
	}
	o, err := h.Orders.UploadImage(c.Request.Context(), c.Param("id"), currentUser(c).ID, fh.Header.Get("Content-Type"), data)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Image uploaded successfully", "image_url": o.CompletionImageURL, "order": o})
}

func (h *handler) respondOrder(c *gin.Context) func(*models.Order, error) {
	return func(o *models.Order, err error) {
		if err != nil {
			h.fail(c, err)
			return
		}
		c.JSON(http.StatusOK, o)
	}
}
