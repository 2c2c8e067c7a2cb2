package server

import (
	"net/http"

	"github.com/example/homelyeats/pkg/cart"
	"github.com/example/homelyeats/pkg/models"
	"github.com/gin-gonic/gin"
)

func cartResponse(lines []models.CartLine) gin.H {
	return gin.H{
		"items":       lines,
		"total_items": cart.TotalItems(lines),
		"total_price": cart.TotalPrice(lines),
	}
}

func (s *Server) getCart(c *gin.Context) {
	lines, err := s.carts.Load(c.Request.Context(), identityFrom(c))
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, cartResponse(lines))
}

func (s *Server) addCartItem(c *gin.Context) {
	var req struct {
		DishID   string `json:"dish_id" binding:"required"`
		Quantity int32  `json:"quantity"`
	}
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Quantity == 0 {
		req.Quantity = 1
	}

	dish, err := s.store.GetDish(c.Request.Context(), req.DishID)
	if err != nil {
		s.writeError(c, err)
		return
	}

	lines, err := s.carts.AddItem(c.Request.Context(), identityFrom(c), dish, req.Quantity)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, cartResponse(lines))
}

func (s *Server) updateCartItem(c *gin.Context) {
	var req struct {
		Quantity int32 `json:"quantity"`
	}
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	lines, err := s.carts.SetQuantity(c.Request.Context(), identityFrom(c), c.Param("dishId"), req.Quantity)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, cartResponse(lines))
}

func (s *Server) removeCartItem(c *gin.Context) {
	lines, err := s.carts.RemoveItem(c.Request.Context(), identityFrom(c), c.Param("dishId"))
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, cartResponse(lines))
}

func (s *Server) clearCart(c *gin.Context) {
	if err := s.carts.Clear(c.Request.Context(), identityFrom(c)); err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}
