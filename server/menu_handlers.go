package server

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

func (s *Server) listDishes(c *gin.Context) {
	availableOnly := true
	if v := c.Query("include_unavailable"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil && b {
			availableOnly = false
		}
	}
	dishes, err := s.store.ListDishes(c.Request.Context(), c.Query("category_id"), availableOnly)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"dishes": dishes,
		"total":  len(dishes),
	})
}

func (s *Server) getDish(c *gin.Context) {
	dish, err := s.store.GetDish(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, dish)
}

func (s *Server) getDishPairings(c *gin.Context) {
	dish, err := s.store.GetDish(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.writeError(c, err)
		return
	}
	cuisine := c.DefaultQuery("cuisine", "home-style")
	suggestions, err := s.pairings.SuggestPairings(c.Request.Context(), dish.Name, cuisine)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"dish":     dish.Name,
		"pairings": suggestions,
	})
}

func (s *Server) listCategories(c *gin.Context) {
	categories, err := s.store.ListCategories(c.Request.Context())
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"categories": categories,
		"total":      len(categories),
	})
}
