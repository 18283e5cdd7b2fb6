package server

import (
	"net/http"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
)

type setParentRequest struct {
	// ParentRepID empty clears the upline pointer.
	ParentRepID string `json:"parent_rep_id"`
}

func (s *Server) SetRepParent(c *gin.Context) {
	repID, ok := pathID(c)
	if !ok {
		return
	}

	var req setParentRequest
	_ = c.ShouldBindJSON(&req)

	var parentID *snowflake.ID
	if raw := strings.TrimSpace(req.ParentRepID); raw != "" {
		parsed, err := snowflake.ParseString(raw)
		if err != nil || parsed == 0 {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid parent_rep_id"})
			return
		}
		parentID = &parsed
	}

	if err := s.salesRepSvc.SetParent(c.Request.Context(), repID, parentID); err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "updated"})
}

func (s *Server) DeactivateRep(c *gin.Context) {
	repID, ok := pathID(c)
	if !ok {
		return
	}

	if err := s.salesRepSvc.Deactivate(c.Request.Context(), repID); err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "deactivated"})
}
