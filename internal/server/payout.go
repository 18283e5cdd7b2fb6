package server

import (
	"net/http"
	"strings"
	"time"

	payoutdomain "github.com/apexmed/commission/internal/payout/domain"
	"github.com/apexmed/commission/internal/tenantctx"
	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
)

type generatePayoutsRequest struct {
	PeriodStart string `json:"period_start" binding:"required"`
	PeriodEnd   string `json:"period_end" binding:"required"`
}

func (s *Server) GeneratePayouts(c *gin.Context) {
	var req generatePayoutsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "period_start and period_end are required"})
		return
	}

	start, end, ok := parsePeriod(c, req.PeriodStart, req.PeriodEnd)
	if !ok {
		return
	}

	orgID, _ := tenantctx.OrgIDFromContext(c.Request.Context())
	payouts, err := s.payoutSvc.GeneratePayouts(c.Request.Context(), payoutdomain.GeneratePayoutsRequest{
		PeriodStart: start,
		PeriodEnd:   end,
		OrgID:       orgID,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": payouts})
}

func (s *Server) GetPayout(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	payout, err := s.payoutSvc.GetByID(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": payout})
}

func (s *Server) ApprovePayout(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	var req approveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "approved_by is required"})
		return
	}

	if err := s.payoutSvc.Approve(c.Request.Context(), id, req.ApprovedBy); err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "approved"})
}

type cancelRequest struct {
	Reason string `json:"reason"`
}

func (s *Server) CancelPayout(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	var req cancelRequest
	_ = c.ShouldBindJSON(&req)

	if err := s.payoutSvc.Cancel(c.Request.Context(), id, req.Reason); err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "cancelled"})
}

type processPaymentsRequest struct {
	PayoutIDs     []string `json:"payout_ids" binding:"required"`
	PaymentMethod string   `json:"payment_method" binding:"required"`
}

func (s *Server) ProcessPayments(c *gin.Context) {
	var req processPaymentsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "payout_ids and payment_method are required"})
		return
	}

	ids := make([]snowflake.ID, 0, len(req.PayoutIDs))
	for _, raw := range req.PayoutIDs {
		id, err := snowflake.ParseString(strings.TrimSpace(raw))
		if err != nil || id == 0 {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid payout id: " + raw})
			return
		}
		ids = append(ids, id)
	}

	results := s.payoutSvc.ProcessPayments(c.Request.Context(), ids, req.PaymentMethod)
	c.JSON(http.StatusOK, gin.H{"data": results})
}

func (s *Server) GetPayoutSummary(c *gin.Context) {
	start, end, ok := parsePeriod(c, c.Query("period_start"), c.Query("period_end"))
	if !ok {
		return
	}

	orgID, _ := tenantctx.OrgIDFromContext(c.Request.Context())
	summary, err := s.payoutSvc.GetPayoutSummary(c.Request.Context(), payoutdomain.GeneratePayoutsRequest{
		PeriodStart: start,
		PeriodEnd:   end,
		OrgID:       orgID,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": summary})
}

func parsePeriod(c *gin.Context, rawStart, rawEnd string) (time.Time, time.Time, bool) {
	start, err := time.Parse(time.RFC3339, strings.TrimSpace(rawStart))
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid period_start"})
		return time.Time{}, time.Time{}, false
	}
	end, err := time.Parse(time.RFC3339, strings.TrimSpace(rawEnd))
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid period_end"})
		return time.Time{}, time.Time{}, false
	}
	return start, end, true
}
