package server

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
)

func (s *Server) ProcessOrder(c *gin.Context) {
	orderID, ok := pathID(c)
	if !ok {
		return
	}

	if err := s.commissionSvc.ProcessOrder(c.Request.Context(), orderID); err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "processed"})
}

func (s *Server) RecalculateOrder(c *gin.Context) {
	orderID, ok := pathID(c)
	if !ok {
		return
	}

	if err := s.commissionSvc.RecalculateOrder(c.Request.Context(), orderID); err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "recalculated"})
}

type approveRequest struct {
	ApprovedBy string `json:"approved_by" binding:"required"`
}

func (s *Server) ApproveOrderCommissions(c *gin.Context) {
	orderID, ok := pathID(c)
	if !ok {
		return
	}

	var req approveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "approved_by is required"})
		return
	}

	if err := s.commissionSvc.ApproveOrder(c.Request.Context(), orderID, req.ApprovedBy); err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "approved"})
}

func (s *Server) ListOrderCommissions(c *gin.Context) {
	orderID, ok := pathID(c)
	if !ok {
		return
	}

	limit, _ := strconv.Atoi(c.Query("limit"))

	records, err := s.commissionSvc.ListByOrder(c.Request.Context(), orderID, limit)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": records})
}

func pathID(c *gin.Context) (snowflake.ID, bool) {
	id, err := snowflake.ParseString(strings.TrimSpace(c.Param("id")))
	if err != nil || id == 0 {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return 0, false
	}
	return id, true
}
