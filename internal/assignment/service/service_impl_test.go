package service

import (
	"context"
	"testing"
	"time"

	"github.com/apexmed/commission/internal/assignment/domain"
	catalogdomain "github.com/apexmed/commission/internal/catalog/domain"
	"github.com/apexmed/commission/internal/clock"
	salesrepdomain "github.com/apexmed/commission/internal/salesrep/domain"
	"github.com/apexmed/commission/pkg/db/dbtest"
	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func newTestService(t *testing.T) (domain.Service, *gorm.DB, *clock.FakeClock) {
	t.Helper()

	conn := dbtest.Open(t,
		&salesrepdomain.SalesRep{},
		&domain.ProviderSalesAssignment{},
		&domain.FacilitySalesAssignment{},
	)
	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	fake := clock.NewFakeClock(time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC))

	svc := New(Params{
		DB:    conn,
		Log:   zap.NewNop(),
		GenID: node,
		Clock: fake,
	})
	return svc, conn, fake
}

func seedRep(t *testing.T, conn *gorm.DB, id snowflake.ID, active bool) {
	t.Helper()
	rep := salesrepdomain.SalesRep{
		ID:                   id,
		OrgID:                10,
		CommissionRateDirect: decimal.NewFromInt(10),
		Active:               active,
	}
	require.NoError(t, conn.Create(&rep).Error)
	// GORM substitutes the column default for zero values on create, so
	// an inactive rep must be written explicitly.
	require.NoError(t, conn.Model(&rep).UpdateColumn("active", active).Error)
}

func idPtr(id snowflake.ID) *snowflake.ID { return &id }

func TestAssignProviderRep_ReplacesActivePrimary(t *testing.T) {
	svc, conn, fake := newTestService(t)
	ctx := context.Background()

	first, err := svc.AssignProviderRep(ctx, domain.CreateProviderAssignmentRequest{
		OrgID:                     10,
		ProviderID:                500,
		SalesRepID:                1,
		RelationshipType:          domain.RelationshipPrimary,
		CommissionSplitPercentage: decimal.NewFromInt(100),
	})
	require.NoError(t, err)
	assert.True(t, first.IsActive)

	fake.Advance(time.Hour)
	second, err := svc.AssignProviderRep(ctx, domain.CreateProviderAssignmentRequest{
		OrgID:                     10,
		ProviderID:                500,
		SalesRepID:                2,
		RelationshipType:          domain.RelationshipPrimary,
		CommissionSplitPercentage: decimal.NewFromInt(100),
	})
	require.NoError(t, err)

	var stored domain.ProviderSalesAssignment
	require.NoError(t, conn.First(&stored, "id = ?", first.ID).Error)
	assert.False(t, stored.IsActive)
	require.NotNil(t, stored.ActiveUntil)
	assert.True(t, stored.ActiveUntil.Equal(fake.Now()))

	var active int64
	require.NoError(t, conn.Model(&domain.ProviderSalesAssignment{}).
		Where("provider_id = ? AND relationship_type = ? AND is_active = ?", 500, domain.RelationshipPrimary, true).
		Count(&active).Error)
	assert.Equal(t, int64(1), active)

	var current domain.ProviderSalesAssignment
	require.NoError(t, conn.First(&current, "id = ?", second.ID).Error)
	assert.True(t, current.IsActive)
}

func TestAssignProviderRep_SecondaryDoesNotDisplacePrimary(t *testing.T) {
	svc, conn, _ := newTestService(t)
	ctx := context.Background()

	primary, err := svc.AssignProviderRep(ctx, domain.CreateProviderAssignmentRequest{
		OrgID:            10,
		ProviderID:       500,
		SalesRepID:       1,
		RelationshipType: domain.RelationshipPrimary,
	})
	require.NoError(t, err)

	_, err = svc.AssignProviderRep(ctx, domain.CreateProviderAssignmentRequest{
		OrgID:            10,
		ProviderID:       500,
		SalesRepID:       2,
		RelationshipType: domain.RelationshipSecondary,
	})
	require.NoError(t, err)

	var stored domain.ProviderSalesAssignment
	require.NoError(t, conn.First(&stored, "id = ?", primary.ID).Error)
	assert.True(t, stored.IsActive)
}

func TestAssignProviderRep_Validation(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.AssignProviderRep(ctx, domain.CreateProviderAssignmentRequest{
		OrgID: 10, SalesRepID: 1, RelationshipType: domain.RelationshipPrimary,
	})
	assert.ErrorIs(t, err, domain.ErrInvalidProvider)

	_, err = svc.AssignProviderRep(ctx, domain.CreateProviderAssignmentRequest{
		OrgID: 10, ProviderID: 500, RelationshipType: domain.RelationshipPrimary,
	})
	assert.ErrorIs(t, err, domain.ErrInvalidSalesRep)

	_, err = svc.AssignProviderRep(ctx, domain.CreateProviderAssignmentRequest{
		OrgID: 10, ProviderID: 500, SalesRepID: 1, RelationshipType: "advisor",
	})
	assert.ErrorIs(t, err, domain.ErrInvalidRelationship)
}

func TestResolveRep_OrderAssignmentWinsFirst(t *testing.T) {
	svc, conn, _ := newTestService(t)
	ctx := context.Background()

	seedRep(t, conn, 1, true)
	seedRep(t, conn, 2, true)

	_, err := svc.AssignProviderRep(ctx, domain.CreateProviderAssignmentRequest{
		OrgID:            10,
		ProviderID:       500,
		SalesRepID:       2,
		RelationshipType: domain.RelationshipPrimary,
	})
	require.NoError(t, err)

	order := catalogdomain.Order{ID: 900, OrgID: 10, OrderingProviderID: 500, SalesRepID: idPtr(1)}
	resolved, err := svc.ResolveRep(ctx, order)
	require.NoError(t, err)
	require.NotNil(t, resolved)
	assert.Equal(t, snowflake.ID(1), resolved.Rep.ID)
	assert.Equal(t, domain.RepSourceOrder, resolved.Source)
	assert.Nil(t, resolved.OverrideRate)
}

func TestResolveRep_InactiveOrderRepFallsThrough(t *testing.T) {
	svc, conn, _ := newTestService(t)
	ctx := context.Background()

	seedRep(t, conn, 1, false)
	seedRep(t, conn, 2, true)

	override := decimal.RequireFromString("7.5")
	_, err := svc.AssignProviderRep(ctx, domain.CreateProviderAssignmentRequest{
		OrgID:                  10,
		ProviderID:             500,
		SalesRepID:             2,
		RelationshipType:       domain.RelationshipPrimary,
		OverrideCommissionRate: &override,
	})
	require.NoError(t, err)

	order := catalogdomain.Order{ID: 900, OrgID: 10, OrderingProviderID: 500, SalesRepID: idPtr(1)}
	resolved, err := svc.ResolveRep(ctx, order)
	require.NoError(t, err)
	require.NotNil(t, resolved)
	assert.Equal(t, snowflake.ID(2), resolved.Rep.ID)
	assert.Equal(t, domain.RepSourceProvider, resolved.Source)
	require.NotNil(t, resolved.OverrideRate)
	assert.True(t, resolved.OverrideRate.Equal(override))
}

func TestResolveRep_FacilityCoordinatorIsLastResort(t *testing.T) {
	svc, conn, _ := newTestService(t)
	ctx := context.Background()

	seedRep(t, conn, 3, true)
	seedRep(t, conn, 4, true)

	// Coordinator without the eligibility flag never resolves.
	_, err := svc.AssignFacilityRep(ctx, domain.CreateFacilityAssignmentRequest{
		OrgID:            10,
		FacilityID:       700,
		SalesRepID:       4,
		RelationshipType: domain.RelationshipCoordinator,
	})
	require.NoError(t, err)

	order := catalogdomain.Order{ID: 900, OrgID: 10, FacilityID: 700}
	resolved, err := svc.ResolveRep(ctx, order)
	require.NoError(t, err)
	assert.Nil(t, resolved)

	_, err = svc.AssignFacilityRep(ctx, domain.CreateFacilityAssignmentRequest{
		OrgID:              10,
		FacilityID:         700,
		SalesRepID:         3,
		RelationshipType:   domain.RelationshipCoordinator,
		CommissionEligible: true,
	})
	require.NoError(t, err)

	resolved, err = svc.ResolveRep(ctx, order)
	require.NoError(t, err)
	require.NotNil(t, resolved)
	assert.Equal(t, snowflake.ID(3), resolved.Rep.ID)
	assert.Equal(t, domain.RepSourceFacility, resolved.Source)
}

func TestResolveRep_NothingResolvable(t *testing.T) {
	svc, conn, _ := newTestService(t)
	ctx := context.Background()

	seedRep(t, conn, 1, false)

	order := catalogdomain.Order{ID: 900, OrgID: 10, OrderingProviderID: 500, FacilityID: 700, SalesRepID: idPtr(1)}
	resolved, err := svc.ResolveRep(ctx, order)
	require.NoError(t, err)
	assert.Nil(t, resolved)
}

func TestResolveRep_ExpiredProviderAssignmentIgnored(t *testing.T) {
	svc, conn, fake := newTestService(t)
	ctx := context.Background()

	seedRep(t, conn, 1, true)
	seedRep(t, conn, 2, true)

	_, err := svc.AssignProviderRep(ctx, domain.CreateProviderAssignmentRequest{
		OrgID:            10,
		ProviderID:       500,
		SalesRepID:       1,
		RelationshipType: domain.RelationshipPrimary,
	})
	require.NoError(t, err)

	fake.Advance(time.Hour)
	_, err = svc.AssignProviderRep(ctx, domain.CreateProviderAssignmentRequest{
		OrgID:            10,
		ProviderID:       500,
		SalesRepID:       2,
		RelationshipType: domain.RelationshipPrimary,
	})
	require.NoError(t, err)

	order := catalogdomain.Order{ID: 900, OrgID: 10, OrderingProviderID: 500}
	resolved, err := svc.ResolveRep(ctx, order)
	require.NoError(t, err)
	require.NotNil(t, resolved)
	assert.Equal(t, snowflake.ID(2), resolved.Rep.ID)
}
