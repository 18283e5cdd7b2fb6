package server

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	assignmentdomain "github.com/apexmed/commission/internal/assignment/domain"
	commissiondomain "github.com/apexmed/commission/internal/commission/domain"
	payoutdomain "github.com/apexmed/commission/internal/payout/domain"
	ruledomain "github.com/apexmed/commission/internal/rule/domain"
	salesrepdomain "github.com/apexmed/commission/internal/salesrep/domain"
	"github.com/apexmed/commission/internal/tenantctx"
	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAbortWithError_StatusMapping(t *testing.T) {
	gin.SetMode(gin.TestMode)

	cases := []struct {
		err    error
		status int
	}{
		{commissiondomain.ErrOrderNotFound, http.StatusNotFound},
		{payoutdomain.ErrPayoutNotFound, http.StatusNotFound},
		{ruledomain.ErrRuleNotFound, http.StatusNotFound},
		{salesrepdomain.ErrNotFound, http.StatusNotFound},
		{payoutdomain.ErrInvalidStateTransition, http.StatusConflict},
		{payoutdomain.ErrRunInProgress, http.StatusConflict},
		{commissiondomain.ErrOrderNotFinal, http.StatusConflict},
		{assignmentdomain.ErrPrimaryConflict, http.StatusConflict},
		{payoutdomain.ErrInvalidPeriod, http.StatusBadRequest},
		{commissiondomain.ErrInvalidApprover, http.StatusBadRequest},
		{ruledomain.ErrInvalidRate, http.StatusBadRequest},
		{salesrepdomain.ErrRepCycle, http.StatusBadRequest},
		{salesrepdomain.ErrParentNotFound, http.StatusBadRequest},
		{salesrepdomain.ErrInactiveParentRep, http.StatusBadRequest},
		{salesrepdomain.ErrHierarchyTooDeep, http.StatusBadRequest},
		{salesrepdomain.ErrHasActiveSubReps, http.StatusBadRequest},
		{errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tc := range cases {
		recorder := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(recorder)
		AbortWithError(c, tc.err)
		assert.Equal(t, tc.status, recorder.Code, "error %v", tc.err)
	}
}

func TestOrgFromHeader(t *testing.T) {
	gin.SetMode(gin.TestMode)

	engine := gin.New()
	engine.Use(orgFromHeader())

	var captured snowflake.ID
	var present bool
	engine.GET("/whoami", func(c *gin.Context) {
		captured, present = tenantctx.OrgIDFromContext(c.Request.Context())
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("X-Org-ID", "42")
	engine.ServeHTTP(httptest.NewRecorder(), req)
	require.True(t, present)
	assert.Equal(t, snowflake.ID(42), captured)

	// No header: handlers see no tenant scope.
	req = httptest.NewRequest(http.MethodGet, "/whoami", nil)
	engine.ServeHTTP(httptest.NewRecorder(), req)
	assert.False(t, present)

	// Garbage is ignored rather than rejected; the engine treats the
	// request as unscoped.
	req = httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("X-Org-ID", "not-a-snowflake")
	engine.ServeHTTP(httptest.NewRecorder(), req)
	assert.False(t, present)
}
