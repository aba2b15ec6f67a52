// Package option provides composable gorm query options shared by
// repositories and services.
package option

import (
	"fmt"
	"strconv"
	"time"

	"github.com/billfold/billfold/pkg/db/pagination"
	"gorm.io/gorm"
)

type QueryOption interface {
	Apply(*gorm.DB) *gorm.DB
}

type Operator string

const (
	EQ  Operator = "="
	GT  Operator = ">"
	GTE Operator = ">="
	LT  Operator = "<"
	LTE Operator = "<="
)

// Condition is a single field comparison appended to the WHERE clause.
type Condition struct {
	Field    string
	Operator Operator
	Value    any
}

type conditionOption struct {
	cond Condition
}

func (o conditionOption) Apply(db *gorm.DB) *gorm.DB {
	return db.Where(fmt.Sprintf("%s %s ?", o.cond.Field, o.cond.Operator), o.cond.Value)
}

func ApplyOperator(cond Condition) QueryOption {
	return conditionOption{cond: cond}
}

// QuerySortBy restricts ordering to an allow-list of columns.
type QuerySortBy struct {
	Field string
	Desc  bool
	Allow map[string]bool
}

type sortOption struct {
	sort QuerySortBy
}

func (o sortOption) Apply(db *gorm.DB) *gorm.DB {
	field := o.sort.Field
	if field == "" || (o.sort.Allow != nil && !o.sort.Allow[field]) {
		field = "created_at"
	}
	direction := "asc"
	if o.sort.Desc {
		direction = "desc"
	}
	return db.Order(fmt.Sprintf("%s %s", field, direction))
}

func WithSortBy(sort QuerySortBy) QueryOption {
	return sortOption{sort: sort}
}

type paginationOption struct {
	page pagination.Pagination
}

func (o paginationOption) Apply(db *gorm.DB) *gorm.DB {
	size := o.page.PageSize
	if size <= 0 {
		size = 10
	}
	if size > 250 {
		size = 250
	}
	if o.page.PageToken != "" {
		cursor, err := pagination.DecodeCursor(o.page.PageToken)
		if err == nil && cursor.CreatedAt != "" {
			if ts, terr := time.Parse(time.RFC3339Nano, cursor.CreatedAt); terr == nil {
				var id any = cursor.ID
				if n, nerr := strconv.ParseInt(cursor.ID, 10, 64); nerr == nil {
					id = n
				}
				db = db.Where("(created_at, id) < (?, ?)", ts, id)
			}
		}
	}
	return db.Limit(size)
}

func ApplyPagination(page pagination.Pagination) QueryOption {
	return paginationOption{page: page}
}
