package server

import (
	"net/http"
	"strings"

	assignmentdomain "github.com/apexmed/commission/internal/assignment/domain"
	"github.com/apexmed/commission/internal/tenantctx"
	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

type providerAssignmentRequest struct {
	ProviderID             string `json:"provider_id" binding:"required"`
	SalesRepID             string `json:"sales_rep_id" binding:"required"`
	RelationshipType       string `json:"relationship_type"`
	SplitPercentage        string `json:"commission_split_percentage"`
	OverrideCommissionRate string `json:"override_commission_rate"`
	CanCreateOrders        bool   `json:"can_create_orders"`
}

func (s *Server) AssignProviderRep(c *gin.Context) {
	var req providerAssignmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "provider_id and sales_rep_id are required"})
		return
	}

	providerID, repID, ok := parseAssignmentIDs(c, req.ProviderID, req.SalesRepID)
	if !ok {
		return
	}
	split, override, ok := parseAssignmentRates(c, req.SplitPercentage, req.OverrideCommissionRate)
	if !ok {
		return
	}

	relationship := assignmentdomain.RelationshipType(strings.TrimSpace(req.RelationshipType))
	if relationship == "" {
		relationship = assignmentdomain.RelationshipPrimary
	}

	orgID, _ := tenantctx.OrgIDFromContext(c.Request.Context())
	assignment, err := s.assignmentSvc.AssignProviderRep(c.Request.Context(), assignmentdomain.CreateProviderAssignmentRequest{
		OrgID:                     orgID,
		ProviderID:                providerID,
		SalesRepID:                repID,
		RelationshipType:          relationship,
		CommissionSplitPercentage: split,
		OverrideCommissionRate:    override,
		CanCreateOrders:           req.CanCreateOrders,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"data": assignment})
}

type facilityAssignmentRequest struct {
	FacilityID             string `json:"facility_id" binding:"required"`
	SalesRepID             string `json:"sales_rep_id" binding:"required"`
	RelationshipType       string `json:"relationship_type"`
	SplitPercentage        string `json:"commission_split_percentage"`
	OverrideCommissionRate string `json:"override_commission_rate"`
	CommissionEligible     bool   `json:"commission_eligible"`
}

func (s *Server) AssignFacilityRep(c *gin.Context) {
	var req facilityAssignmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "facility_id and sales_rep_id are required"})
		return
	}

	facilityID, repID, ok := parseAssignmentIDs(c, req.FacilityID, req.SalesRepID)
	if !ok {
		return
	}
	split, override, ok := parseAssignmentRates(c, req.SplitPercentage, req.OverrideCommissionRate)
	if !ok {
		return
	}

	relationship := assignmentdomain.RelationshipType(strings.TrimSpace(req.RelationshipType))
	if relationship == "" {
		relationship = assignmentdomain.RelationshipCoordinator
	}

	orgID, _ := tenantctx.OrgIDFromContext(c.Request.Context())
	assignment, err := s.assignmentSvc.AssignFacilityRep(c.Request.Context(), assignmentdomain.CreateFacilityAssignmentRequest{
		OrgID:                     orgID,
		FacilityID:                facilityID,
		SalesRepID:                repID,
		RelationshipType:          relationship,
		CommissionSplitPercentage: split,
		OverrideCommissionRate:    override,
		CommissionEligible:        req.CommissionEligible,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"data": assignment})
}

func parseAssignmentIDs(c *gin.Context, rawTarget, rawRep string) (snowflake.ID, snowflake.ID, bool) {
	target, err := snowflake.ParseString(strings.TrimSpace(rawTarget))
	if err != nil || target == 0 {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid target id"})
		return 0, 0, false
	}
	rep, err := snowflake.ParseString(strings.TrimSpace(rawRep))
	if err != nil || rep == 0 {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid sales_rep_id"})
		return 0, 0, false
	}
	return target, rep, true
}

func parseAssignmentRates(c *gin.Context, rawSplit, rawOverride string) (decimal.Decimal, *decimal.Decimal, bool) {
	split := decimal.NewFromInt(100)
	if strings.TrimSpace(rawSplit) != "" {
		parsed, err := decimal.NewFromString(strings.TrimSpace(rawSplit))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid commission_split_percentage"})
			return decimal.Decimal{}, nil, false
		}
		split = parsed
	}

	var override *decimal.Decimal
	if strings.TrimSpace(rawOverride) != "" {
		parsed, err := decimal.NewFromString(strings.TrimSpace(rawOverride))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid override_commission_rate"})
			return decimal.Decimal{}, nil, false
		}
		override = &parsed
	}
	return split, override, true
}
