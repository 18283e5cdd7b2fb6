package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
)

type Service interface {
	GetByID(ctx context.Context, id snowflake.ID) (SalesRep, error)
	// SetParent updates the rep's upline pointer. It rejects any
	// assignment that would introduce a cycle in the hierarchy.
	SetParent(ctx context.Context, repID snowflake.ID, parentID *snowflake.ID) error
	// Deactivate marks the rep inactive. It is rejected while the rep
	// still has active sub-reps so no child is left with a dead upline.
	Deactivate(ctx context.Context, repID snowflake.ID) error
}

var (
	ErrNotFound          = errors.New("sales_rep_not_found")
	ErrRepCycle          = errors.New("sales_rep_parent_cycle")
	ErrSelfParent        = errors.New("sales_rep_self_parent")
	ErrParentNotFound    = errors.New("sales_rep_parent_not_found")
	ErrHasActiveSubReps  = errors.New("sales_rep_has_active_sub_reps")
	ErrHierarchyTooDeep  = errors.New("sales_rep_hierarchy_too_deep")
	ErrInactiveParentRep = errors.New("sales_rep_parent_inactive")
)
