package server

import (
	"net/http"
	"strings"

	ruledomain "github.com/apexmed/commission/internal/rule/domain"
	"github.com/apexmed/commission/internal/tenantctx"
	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

type createRuleRequest struct {
	ScopeType      string `json:"scope_type" binding:"required"`
	ScopeID        string `json:"scope_id"`
	ScopeValue     string `json:"scope_value"`
	PercentageRate string `json:"percentage_rate" binding:"required"`
}

func (s *Server) CreateRule(c *gin.Context) {
	var req createRuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "scope_type and percentage_rate are required"})
		return
	}

	rate, err := decimal.NewFromString(strings.TrimSpace(req.PercentageRate))
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid percentage_rate"})
		return
	}

	scope, ok := buildScope(c, req)
	if !ok {
		return
	}

	orgID, _ := tenantctx.OrgIDFromContext(c.Request.Context())
	rule, err := s.ruleSvc.Create(c.Request.Context(), ruledomain.CreateRuleRequest{
		OrgID:          orgID,
		Scope:          scope,
		PercentageRate: rate,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"data": rule})
}

type supersedeRuleRequest struct {
	PercentageRate string `json:"percentage_rate" binding:"required"`
}

func (s *Server) SupersedeRule(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	var req supersedeRuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "percentage_rate is required"})
		return
	}

	rate, err := decimal.NewFromString(strings.TrimSpace(req.PercentageRate))
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid percentage_rate"})
		return
	}

	rule, err := s.ruleSvc.Supersede(c.Request.Context(), id, rate)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": rule})
}

func buildScope(c *gin.Context, req createRuleRequest) (ruledomain.Scope, bool) {
	scopeType := ruledomain.ScopeType(strings.TrimSpace(req.ScopeType))
	switch scopeType {
	case ruledomain.ScopeProduct, ruledomain.ScopeManufacturer, ruledomain.ScopeFacility:
		id, err := snowflake.ParseString(strings.TrimSpace(req.ScopeID))
		if err != nil || id == 0 {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "scope_id is required for " + req.ScopeType + " rules"})
			return ruledomain.Scope{}, false
		}
		return ruledomain.Scope{Type: scopeType, ID: id}, true
	case ruledomain.ScopeCategory:
		value := strings.TrimSpace(req.ScopeValue)
		if value == "" {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "scope_value is required for category rules"})
			return ruledomain.Scope{}, false
		}
		return ruledomain.CategoryScope(value), true
	case ruledomain.ScopeDefault:
		return ruledomain.DefaultScope(), true
	default:
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid scope_type"})
		return ruledomain.Scope{}, false
	}
}
