package server

import (
	"errors"
	"net/http"

	assignmentdomain "github.com/apexmed/commission/internal/assignment/domain"
	commissiondomain "github.com/apexmed/commission/internal/commission/domain"
	payoutdomain "github.com/apexmed/commission/internal/payout/domain"
	ruledomain "github.com/apexmed/commission/internal/rule/domain"
	salesrepdomain "github.com/apexmed/commission/internal/salesrep/domain"
	"github.com/gin-gonic/gin"
)

// AbortWithError maps domain sentinel errors onto HTTP statuses.
func AbortWithError(c *gin.Context, err error) {
	status := http.StatusInternalServerError

	switch {
	case errors.Is(err, commissiondomain.ErrOrderNotFound),
		errors.Is(err, payoutdomain.ErrPayoutNotFound),
		errors.Is(err, ruledomain.ErrRuleNotFound),
		errors.Is(err, salesrepdomain.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, payoutdomain.ErrInvalidStateTransition),
		errors.Is(err, payoutdomain.ErrRunInProgress),
		errors.Is(err, commissiondomain.ErrOrderNotFinal),
		errors.Is(err, assignmentdomain.ErrPrimaryConflict):
		status = http.StatusConflict
	case errors.Is(err, payoutdomain.ErrInvalidPeriod),
		errors.Is(err, payoutdomain.ErrInvalidApprover),
		errors.Is(err, commissiondomain.ErrInvalidApprover),
		errors.Is(err, ruledomain.ErrInvalidScope),
		errors.Is(err, ruledomain.ErrInvalidRate),
		errors.Is(err, salesrepdomain.ErrRepCycle),
		errors.Is(err, salesrepdomain.ErrSelfParent),
		errors.Is(err, salesrepdomain.ErrParentNotFound),
		errors.Is(err, salesrepdomain.ErrInactiveParentRep),
		errors.Is(err, salesrepdomain.ErrHierarchyTooDeep),
		errors.Is(err, salesrepdomain.ErrHasActiveSubReps):
		status = http.StatusBadRequest
	}

	c.AbortWithStatusJSON(status, gin.H{"error": err.Error()})
}
