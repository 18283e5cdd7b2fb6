// Package option provides composable gorm query options shared by the
// generic repository and feature services.
package option

import "gorm.io/gorm"

type QueryOption interface {
	Apply(*gorm.DB) *gorm.DB
}

type queryOptionFunc func(*gorm.DB) *gorm.DB

func (f queryOptionFunc) Apply(db *gorm.DB) *gorm.DB { return f(db) }

type Operator string

const (
	EQ  Operator = "="
	GT  Operator = ">"
	GTE Operator = ">="
	LT  Operator = "<"
	LTE Operator = "<="
)

type Condition struct {
	Field    string
	Operator Operator
	Value    any
}

// ApplyOperator adds a single field comparison to the query.
func ApplyOperator(cond Condition) QueryOption {
	return queryOptionFunc(func(db *gorm.DB) *gorm.DB {
		if cond.Field == "" || cond.Operator == "" {
			return db
		}
		return db.Where(cond.Field+" "+string(cond.Operator)+" ?", cond.Value)
	})
}

type QuerySortBy struct {
	Allow map[string]bool
	Field string
	Desc  bool
}

// WithSortBy orders by an allow-listed column, defaulting to created_at desc.
func WithSortBy(sort QuerySortBy) QueryOption {
	return queryOptionFunc(func(db *gorm.DB) *gorm.DB {
		field := sort.Field
		if field == "" || (sort.Allow != nil && !sort.Allow[field]) {
			field = "created_at"
		}
		direction := "asc"
		if sort.Desc || sort.Field == "" {
			direction = "desc"
		}
		return db.Order(field + " " + direction)
	})
}

func WithLimit(limit int) QueryOption {
	return queryOptionFunc(func(db *gorm.DB) *gorm.DB {
		if limit <= 0 {
			return db
		}
		return db.Limit(limit)
	})
}
