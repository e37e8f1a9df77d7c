package option

import (
	"fmt"
	"strings"

	"milpoint/pkg/db/pagination"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// QueryOption mutates a gorm query before execution.
type QueryOption func(*gorm.DB) *gorm.DB

type QuerySortBy struct {
	SortBy  string
	OrderBy string
	// Allow whitelists sortable columns; empty map allows created_at only.
	Allow map[string]bool
}

func WithSortBy(s QuerySortBy) QueryOption {
	return func(db *gorm.DB) *gorm.DB {
		col := s.SortBy
		if col == "" {
			col = "created_at"
		}
		if len(s.Allow) > 0 && !s.Allow[col] {
			return db
		}
		order := "ASC"
		if strings.EqualFold(s.OrderBy, "desc") {
			order = "DESC"
		}
		return db.Order(fmt.Sprintf("%s %s", col, order))
	}
}

type Operator string

const (
	EQ      Operator = "="
	NE      Operator = "<>"
	GT      Operator = ">"
	GTE     Operator = ">="
	LT      Operator = "<"
	LTE     Operator = "<="
	In      Operator = "IN"
	IsNull  Operator = "IS NULL"
	NotNull Operator = "IS NOT NULL"
)

type Condition struct {
	Field    string
	Operator Operator
	Value    any
}

func ApplyOperator(c Condition) QueryOption {
	return func(db *gorm.DB) *gorm.DB {
		switch c.Operator {
		case IsNull, NotNull:
			return db.Where(fmt.Sprintf("%s %s", c.Field, c.Operator))
		case In:
			return db.Where(fmt.Sprintf("%s IN ?", c.Field), c.Value)
		default:
			return db.Where(fmt.Sprintf("%s %s ?", c.Field, c.Operator), c.Value)
		}
	}
}

func ApplyPagination(p pagination.Pagination) QueryOption {
	return func(db *gorm.DB) *gorm.DB {
		n := p.Normalize()
		return db.Limit(n.Limit).Offset(n.Offset())
	}
}

func WithLockingUpdate() QueryOption {
	return LockingUpdate
}

// LockingUpdate adds SELECT ... FOR UPDATE. sqlite has no row locks; its
// writes already serialize on the database handle, so the clause is skipped.
func LockingUpdate(db *gorm.DB) *gorm.DB {
	if db.Dialector != nil && db.Dialector.Name() == "sqlite" {
		return db
	}
	return db.Clauses(clause.Locking{Strength: "UPDATE"})
}
