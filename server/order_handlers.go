package server

import (
	"net/http"
	"strconv"

	"github.com/example/homelyeats/pkg/invoice"
	"github.com/example/homelyeats/pkg/order"
	"github.com/gin-gonic/gin"
)

// createOrder submits the caller's current cart as an order. The cart is
// loaded server-side and cleared only after the order is durable.
func (s *Server) createOrder(c *gin.Context) {
	var req struct {
		DeliveryAddress     string `json:"delivery_address" binding:"required"`
		ContactNumber       string `json:"contact_number" binding:"required"`
		SpecialInstructions string `json:"special_instructions"`
	}
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	identity := identityFrom(c)
	lines, err := s.carts.Load(c.Request.Context(), identity)
	if err != nil {
		s.writeError(c, err)
		return
	}

	ord, err := s.orders.Checkout(c.Request.Context(), identity, lines, order.CheckoutInput{
		DeliveryAddress:     req.DeliveryAddress,
		ContactNumber:       req.ContactNumber,
		SpecialInstructions: req.SpecialInstructions,
	})
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, ord)
}

func (s *Server) listOrders(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))

	orders, total, err := s.orders.List(c.Request.Context(), identityFrom(c).UserID, page, pageSize)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"orders": orders,
		"total":  total,
	})
}

func (s *Server) getOrder(c *gin.Context) {
	ord, items, err := s.orders.GetWithItems(c.Request.Context(), identityFrom(c).UserID, c.Param("id"))
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"order": ord,
		"items": items,
	})
}

func (s *Server) getOrderInvoice(c *gin.Context) {
	ctx := c.Request.Context()
	ord, items, err := s.orders.GetWithItems(ctx, identityFrom(c).UserID, c.Param("id"))
	if err != nil {
		s.writeError(c, err)
		return
	}

	lines := make([]invoice.Line, 0, len(items))
	for _, it := range items {
		name := it.DishID
		if dish, err := s.store.GetDish(ctx, it.DishID); err == nil {
			name = dish.Name
		}
		lines = append(lines, invoice.Line{
			Name:        name,
			Quantity:    it.Quantity,
			PriceAtTime: it.PriceAtTime,
		})
	}

	pdf, err := s.invoices.Render(ord, lines)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.Header("Content-Disposition", "attachment; filename=invoice-"+ord.ID+".pdf")
	c.Data(http.StatusOK, "application/pdf", pdf)
}
