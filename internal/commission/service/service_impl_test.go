package service

import (
	"context"
	"testing"
	"time"

	assignmentdomain "github.com/apexmed/commission/internal/assignment/domain"
	assignmentservice "github.com/apexmed/commission/internal/assignment/service"
	catalogdomain "github.com/apexmed/commission/internal/catalog/domain"
	"github.com/apexmed/commission/internal/clock"
	"github.com/apexmed/commission/internal/commission/domain"
	ruledomain "github.com/apexmed/commission/internal/rule/domain"
	ruleservice "github.com/apexmed/commission/internal/rule/service"
	salesrepdomain "github.com/apexmed/commission/internal/salesrep/domain"
	"github.com/apexmed/commission/pkg/db/dbtest"
	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type fixture struct {
	svc   domain.Service
	conn  *gorm.DB
	clock *clock.FakeClock
}

func newFixture(t *testing.T) fixture {
	t.Helper()

	conn := dbtest.Open(t,
		&catalogdomain.Product{},
		&catalogdomain.Order{},
		&catalogdomain.OrderItem{},
		&salesrepdomain.SalesRep{},
		&assignmentdomain.ProviderSalesAssignment{},
		&assignmentdomain.FacilitySalesAssignment{},
		&ruledomain.CommissionRule{},
		&domain.CommissionRecord{},
	)
	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	fake := clock.NewFakeClock(time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC))
	log := zap.NewNop()

	rules := ruleservice.New(ruleservice.Params{
		DB: conn, Log: log, GenID: node, Clock: fake,
	})
	assignments := assignmentservice.New(assignmentservice.Params{
		DB: conn, Log: log, GenID: node, Clock: fake,
	})
	svc := New(Params{
		DB:          conn,
		Log:         log,
		GenID:       node,
		Clock:       fake,
		Rules:       rules,
		Assignments: assignments,
	})
	return fixture{svc: svc, conn: conn, clock: fake}
}

func (f fixture) seedRep(t *testing.T, id snowflake.ID, parentID *snowflake.ID, parentShare string) {
	t.Helper()
	require.NoError(t, f.conn.Create(&salesrepdomain.SalesRep{
		ID:                          id,
		OrgID:                       10,
		ParentRepID:                 parentID,
		CommissionRateDirect:        decimal.NewFromInt(10),
		SubRepParentSharePercentage: decimal.RequireFromString(parentShare),
		Active:                      true,
	}).Error)
}

func (f fixture) seedOrder(t *testing.T, orderID snowflake.ID, repID *snowflake.ID, lineTotals ...int64) {
	t.Helper()
	require.NoError(t, f.conn.Create(&catalogdomain.Order{
		ID:         orderID,
		OrgID:      10,
		FacilityID: 700,
		SalesRepID: repID,
		Status:     "finalized",
		CreatedAt:  f.clock.Now(),
	}).Error)
	for i, total := range lineTotals {
		require.NoError(t, f.conn.Create(&catalogdomain.OrderItem{
			ID:        orderID*100 + snowflake.ID(i+1),
			OrderID:   orderID,
			ProductID: 100,
			Quantity:  1,
			UnitPrice: total,
			LineTotal: total,
		}).Error)
	}
}

func (f fixture) seedRule(t *testing.T, id snowflake.ID, scopeType ruledomain.ScopeType, scopeID *snowflake.ID, rate string) {
	t.Helper()
	require.NoError(t, f.conn.Create(&ruledomain.CommissionRule{
		ID:             id,
		OrgID:          10,
		ScopeType:      scopeType,
		ScopeID:        scopeID,
		PercentageRate: decimal.RequireFromString(rate),
		Active:         true,
		CreatedAt:      f.clock.Now(),
	}).Error)
}

func (f fixture) records(t *testing.T, orderID snowflake.ID) []domain.CommissionRecord {
	t.Helper()
	records, err := f.svc.ListByOrder(context.Background(), orderID, 0)
	require.NoError(t, err)
	return records
}

func idPtr(id snowflake.ID) *snowflake.ID { return &id }

func TestProcessOrder_DirectCommission(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.seedRep(t, 1, nil, "0")
	f.seedRule(t, 50, ruledomain.ScopeProduct, idPtr(100), "10")
	// $500.00 order line at 10% -> $50.00 commission.
	f.seedOrder(t, 900, idPtr(1), 50000)

	require.NoError(t, f.svc.ProcessOrder(ctx, 900))

	records := f.records(t, 900)
	require.Len(t, records, 1)
	record := records[0]
	assert.Equal(t, snowflake.ID(1), record.RepID)
	assert.Equal(t, snowflake.ID(50), record.RuleID)
	assert.Equal(t, int64(50000), record.BaseAmount)
	assert.Equal(t, int64(5000), record.CommissionAmount)
	assert.Equal(t, domain.SplitDirect, record.SplitType)
	assert.Equal(t, domain.StatusPending, record.Status)
	assert.Nil(t, record.PayoutID)
	assert.True(t, record.PercentageRate.Equal(decimal.NewFromInt(10)))
}

func TestProcessOrder_SubRepSplit(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.seedRep(t, 1, nil, "0")
	f.seedRep(t, 2, idPtr(1), "30")
	f.seedRule(t, 50, ruledomain.ScopeProduct, idPtr(100), "10")
	// $500.00 at 10% -> $50.00 gross, split $35.00 / $15.00.
	f.seedOrder(t, 900, idPtr(2), 50000)

	require.NoError(t, f.svc.ProcessOrder(ctx, 900))

	records := f.records(t, 900)
	require.Len(t, records, 2)

	bySplit := map[domain.SplitType]domain.CommissionRecord{}
	for _, record := range records {
		bySplit[record.SplitType] = record
	}

	sub := bySplit[domain.SplitSubRepShare]
	assert.Equal(t, snowflake.ID(2), sub.RepID)
	assert.Equal(t, int64(3500), sub.CommissionAmount)
	assert.Nil(t, sub.ParentRepID)

	parent := bySplit[domain.SplitParentShare]
	assert.Equal(t, snowflake.ID(1), parent.RepID)
	assert.Equal(t, int64(1500), parent.CommissionAmount)
	require.NotNil(t, parent.ParentRepID)
	assert.Equal(t, snowflake.ID(2), *parent.ParentRepID)

	assert.Equal(t, int64(5000), sub.CommissionAmount+parent.CommissionAmount)
}

func TestProcessOrder_ZeroShareLegStillWritten(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.seedRep(t, 1, nil, "0")
	f.seedRep(t, 2, idPtr(1), "0")
	f.seedRule(t, 50, ruledomain.ScopeProduct, idPtr(100), "10")
	f.seedOrder(t, 900, idPtr(2), 50000)

	require.NoError(t, f.svc.ProcessOrder(ctx, 900))

	records := f.records(t, 900)
	require.Len(t, records, 2)
	for _, record := range records {
		if record.SplitType == domain.SplitParentShare {
			assert.Equal(t, int64(0), record.CommissionAmount)
		} else {
			assert.Equal(t, int64(5000), record.CommissionAmount)
		}
	}
}

func TestProcessOrder_OverrideRateReplacesRuleRate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.seedRep(t, 1, nil, "0")
	f.seedRule(t, 50, ruledomain.ScopeProduct, idPtr(100), "10")

	override := decimal.NewFromInt(5)
	require.NoError(t, f.conn.Create(&assignmentdomain.ProviderSalesAssignment{
		ID:                     60,
		OrgID:                  10,
		ProviderID:             500,
		SalesRepID:             1,
		RelationshipType:       assignmentdomain.RelationshipPrimary,
		OverrideCommissionRate: &override,
		ActiveFrom:             f.clock.Now().Add(-time.Hour),
		IsActive:               true,
	}).Error)

	require.NoError(t, f.conn.Create(&catalogdomain.Order{
		ID:                 900,
		OrgID:              10,
		OrderingProviderID: 500,
		Status:             "finalized",
	}).Error)
	require.NoError(t, f.conn.Create(&catalogdomain.OrderItem{
		ID: 90001, OrderID: 900, ProductID: 100, Quantity: 1, UnitPrice: 50000, LineTotal: 50000,
	}).Error)

	require.NoError(t, f.svc.ProcessOrder(ctx, 900))

	records := f.records(t, 900)
	require.Len(t, records, 1)
	assert.Equal(t, int64(2500), records[0].CommissionAmount)
	assert.True(t, records[0].PercentageRate.Equal(override))
	// The rule is still referenced for audit even when its rate is
	// overridden.
	assert.Equal(t, snowflake.ID(50), records[0].RuleID)
}

func TestProcessOrder_SkipsWithoutRuleOrRep(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// No rule at any scope: item skipped, no error.
	f.seedRep(t, 1, nil, "0")
	f.seedOrder(t, 900, idPtr(1), 50000)
	require.NoError(t, f.svc.ProcessOrder(ctx, 900))
	assert.Empty(t, f.records(t, 900))

	// No resolvable rep: order skipped, no error.
	f.seedRule(t, 50, ruledomain.ScopeProduct, idPtr(100), "10")
	f.seedOrder(t, 901, nil, 50000)
	require.NoError(t, f.svc.ProcessOrder(ctx, 901))
	assert.Empty(t, f.records(t, 901))
}

func TestProcessOrder_OrderNotFound(t *testing.T) {
	f := newFixture(t)
	assert.ErrorIs(t, f.svc.ProcessOrder(context.Background(), 999), domain.ErrOrderNotFound)
}

func TestProcessOrder_RejectsNonFinalOrder(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.seedRep(t, 1, nil, "0")
	f.seedRule(t, 50, ruledomain.ScopeProduct, idPtr(100), "10")
	require.NoError(t, f.conn.Create(&catalogdomain.Order{
		ID:         900,
		OrgID:      10,
		SalesRepID: idPtr(1),
		Status:     "draft",
	}).Error)

	assert.ErrorIs(t, f.svc.ProcessOrder(ctx, 900), domain.ErrOrderNotFinal)
	assert.Empty(t, f.records(t, 900))
}

func TestProcessOrder_MultipleItems(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.seedRep(t, 1, nil, "0")
	f.seedRule(t, 50, ruledomain.ScopeProduct, idPtr(100), "10")
	f.seedOrder(t, 900, idPtr(1), 10000, 20000, 30000)

	require.NoError(t, f.svc.ProcessOrder(ctx, 900))

	records := f.records(t, 900)
	require.Len(t, records, 3)
	var total int64
	for _, record := range records {
		total += record.CommissionAmount
	}
	assert.Equal(t, int64(6000), total)
}

func TestRecalculateOrder_ReplacesOnlyPending(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.seedRep(t, 1, nil, "0")
	f.seedRule(t, 50, ruledomain.ScopeProduct, idPtr(100), "10")
	f.seedOrder(t, 900, idPtr(1), 50000)

	require.NoError(t, f.svc.ProcessOrder(ctx, 900))
	require.NoError(t, f.svc.ApproveOrder(ctx, 900, "auditor@apexmed"))
	approved := f.records(t, 900)
	require.Len(t, approved, 1)

	// A second pending pass on the same order plus a rate change.
	f.clock.Advance(time.Hour)
	require.NoError(t, f.svc.ProcessOrder(ctx, 900))
	f.seedRule(t, 51, ruledomain.ScopeProduct, idPtr(100), "20")

	require.NoError(t, f.svc.RecalculateOrder(ctx, 900))

	records := f.records(t, 900)
	require.Len(t, records, 2)

	var sawApproved, sawPending bool
	for _, record := range records {
		switch record.Status {
		case domain.StatusApproved:
			sawApproved = true
			// The approved record is untouched by recalculation.
			assert.Equal(t, approved[0].ID, record.ID)
			assert.Equal(t, int64(5000), record.CommissionAmount)
		case domain.StatusPending:
			sawPending = true
			assert.Equal(t, snowflake.ID(51), record.RuleID)
			assert.Equal(t, int64(10000), record.CommissionAmount)
		}
	}
	assert.True(t, sawApproved)
	assert.True(t, sawPending)
}

func TestRecalculateOrder_BackToBackYieldsSamePendingSet(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.seedRep(t, 1, nil, "0")
	f.seedRep(t, 2, idPtr(1), "30")
	f.seedRule(t, 50, ruledomain.ScopeProduct, idPtr(100), "10")
	f.seedOrder(t, 900, idPtr(2), 50000, 20000)

	require.NoError(t, f.svc.ProcessOrder(ctx, 900))

	// Record IDs are regenerated each pass, so compare the pending set
	// by its business identity instead.
	type leg struct {
		itemID snowflake.ID
		repID  snowflake.ID
		ruleID snowflake.ID
		split  domain.SplitType
		amount int64
	}
	pendingSet := func() map[leg]int {
		set := map[leg]int{}
		for _, record := range f.records(t, 900) {
			require.Equal(t, domain.StatusPending, record.Status)
			set[leg{
				itemID: record.OrderItemID,
				repID:  record.RepID,
				ruleID: record.RuleID,
				split:  record.SplitType,
				amount: record.CommissionAmount,
			}]++
		}
		return set
	}

	require.NoError(t, f.svc.RecalculateOrder(ctx, 900))
	first := pendingSet()
	require.Len(t, f.records(t, 900), 4)

	f.clock.Advance(time.Minute)
	require.NoError(t, f.svc.RecalculateOrder(ctx, 900))
	second := pendingSet()

	assert.Equal(t, first, second)
}

func TestRecalculateOrder_RepNoLongerResolvable(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.seedRep(t, 1, nil, "0")
	f.seedRule(t, 50, ruledomain.ScopeProduct, idPtr(100), "10")
	f.seedOrder(t, 900, idPtr(1), 50000)

	require.NoError(t, f.svc.ProcessOrder(ctx, 900))
	require.Len(t, f.records(t, 900), 1)

	require.NoError(t, f.conn.Exec(`UPDATE sales_reps SET active = ? WHERE id = ?`, false, 1).Error)

	// Pending records are cleared; nothing replaces them.
	require.NoError(t, f.svc.RecalculateOrder(ctx, 900))
	assert.Empty(t, f.records(t, 900))
}

func TestListByOrder_OrdersAndLimits(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.seedRep(t, 1, nil, "0")
	f.seedRule(t, 50, ruledomain.ScopeProduct, idPtr(100), "10")
	f.seedOrder(t, 900, idPtr(1), 10000, 20000, 30000)
	require.NoError(t, f.svc.ProcessOrder(ctx, 900))

	all, err := f.svc.ListByOrder(ctx, 900, 0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	for i := 1; i < len(all); i++ {
		assert.Less(t, int64(all[i-1].ID), int64(all[i].ID))
	}

	capped, err := f.svc.ListByOrder(ctx, 900, 2)
	require.NoError(t, err)
	require.Len(t, capped, 2)
	assert.Equal(t, all[0].ID, capped[0].ID)
	assert.Equal(t, all[1].ID, capped[1].ID)
}

func TestApproveOrder(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.seedRep(t, 1, nil, "0")
	f.seedRule(t, 50, ruledomain.ScopeProduct, idPtr(100), "10")
	f.seedOrder(t, 900, idPtr(1), 50000)
	require.NoError(t, f.svc.ProcessOrder(ctx, 900))

	assert.ErrorIs(t, f.svc.ApproveOrder(ctx, 900, "  "), domain.ErrInvalidApprover)

	require.NoError(t, f.svc.ApproveOrder(ctx, 900, "auditor@apexmed"))

	records := f.records(t, 900)
	require.Len(t, records, 1)
	record := records[0]
	assert.Equal(t, domain.StatusApproved, record.Status)
	require.NotNil(t, record.ApprovedBy)
	assert.Equal(t, "auditor@apexmed", *record.ApprovedBy)
	require.NotNil(t, record.ApprovedAt)

	// Re-approving is a no-op on already approved rows.
	require.NoError(t, f.svc.ApproveOrder(ctx, 900, "someone-else"))
	records = f.records(t, 900)
	assert.Equal(t, "auditor@apexmed", *records[0].ApprovedBy)
}
