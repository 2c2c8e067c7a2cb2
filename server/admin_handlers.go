package server

import (
	"net/http"
	"strconv"
	"time"

	"github.com/example/homelyeats/pkg/models"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

func (s *Server) adminListOrders(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))

	orders, total, err := s.orders.AdminList(c.Request.Context(), page, pageSize)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"orders": orders,
		"total":  total,
	})
}

func (s *Server) adminUpdateOrderStatus(c *gin.Context) {
	var req struct {
		Status string `json:"status" binding:"required"`
	}
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ord, err := s.orders.AdminSetStatus(c.Request.Context(), c.Param("id"), models.OrderStatus(req.Status))
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, ord)
}

func (s *Server) adminListUsers(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))

	users, total, err := s.store.ListUsers(c.Request.Context(), page, pageSize)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"users": users,
		"total": total,
	})
}

func (s *Server) adminCreateDish(c *gin.Context) {
	var req struct {
		Name            string `json:"name" binding:"required"`
		Description     string `json:"description"`
		Price           int64  `json:"price" binding:"required"`
		ImageURL        string `json:"image_url"`
		CategoryID      string `json:"category_id"`
		IsAvailable     *bool  `json:"is_available"`
		PreparationTime string `json:"preparation_time"`
	}
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Price <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "price must be positive"})
		return
	}

	available := true
	if req.IsAvailable != nil {
		available = *req.IsAvailable
	}
	now := time.Now()
	dish := &models.Dish{
		ID:              uuid.NewString(),
		Name:            req.Name,
		Description:     req.Description,
		Price:           req.Price,
		ImageURL:        req.ImageURL,
		CategoryID:      req.CategoryID,
		IsAvailable:     available,
		PreparationTime: req.PreparationTime,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := s.store.CreateDish(c.Request.Context(), dish); err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, dish)
}

func (s *Server) adminUpdateDish(c *gin.Context) {
	var req struct {
		Name            string `json:"name"`
		Description     string `json:"description"`
		Price           int64  `json:"price"`
		ImageURL        string `json:"image_url"`
		CategoryID      string `json:"category_id"`
		IsAvailable     *bool  `json:"is_available"`
		PreparationTime string `json:"preparation_time"`
	}
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx := c.Request.Context()
	dish, err := s.store.GetDish(ctx, c.Param("id"))
	if err != nil {
		s.writeError(c, err)
		return
	}

	if req.Name != "" {
		dish.Name = req.Name
	}
	if req.Description != "" {
		dish.Description = req.Description
	}
	if req.Price > 0 {
		dish.Price = req.Price
	}
	if req.ImageURL != "" {
		dish.ImageURL = req.ImageURL
	}
	if req.CategoryID != "" {
		dish.CategoryID = req.CategoryID
	}
	if req.IsAvailable != nil {
		dish.IsAvailable = *req.IsAvailable
	}
	if req.PreparationTime != "" {
		dish.PreparationTime = req.PreparationTime
	}
	dish.UpdatedAt = time.Now()

	if err := s.store.UpdateDish(ctx, dish); err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, dish)
}

func (s *Server) adminDeleteDish(c *gin.Context) {
	if err := s.store.DeleteDish(c.Request.Context(), c.Param("id")); err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (s *Server) adminCreateCategory(c *gin.Context) {
	var req struct {
		Name        string `json:"name" binding:"required"`
		Description string `json:"description"`
		ImageURL    string `json:"image_url"`
	}
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	category := &models.Category{
		ID:          uuid.NewString(),
		Name:        req.Name,
		Description: req.Description,
		ImageURL:    req.ImageURL,
		CreatedAt:   time.Now(),
	}
	if err := s.store.CreateCategory(c.Request.Context(), category); err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, category)
}

func (s *Server) adminDeleteCategory(c *gin.Context) {
	if err := s.store.DeleteCategory(c.Request.Context(), c.Param("id")); err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}
