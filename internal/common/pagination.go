// File: internal/common/pagination.go
package common

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

const (
	DefaultPage     = 1
	DefaultPageSize = 10
	MaxPageSize     = 100
)

// PaginationQuery holds pagination parameters from request query.
type PaginationQuery struct {
	Page     int `form:"page"`
	PageSize int `form:"page_size"`
}

// Normalized returns pq with defaults applied and the page size capped.
func (pq PaginationQuery) Normalized() PaginationQuery {
	if pq.Page <= 0 {
		pq.Page = DefaultPage
	}
	switch {
	case pq.PageSize <= 0:
		pq.PageSize = DefaultPageSize
	case pq.PageSize > MaxPageSize:
		pq.PageSize = MaxPageSize
	}
	return pq
}

// Offset is the number of rows to skip for the requested page.
func (pq PaginationQuery) Offset() int {
	n := pq.Normalized()
	return (n.Page - 1) * n.PageSize
}

// Limit is the effective page size.
func (pq PaginationQuery) Limit() int {
	return pq.Normalized().PageSize
}

// Scope applies the page window to a GORM query.
func (pq PaginationQuery) Scope() func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Offset(pq.Offset()).Limit(pq.Limit())
	}
}

// Paginate describes the requested page of total rows.
func (pq PaginationQuery) Paginate(total int64) *Pagination {
	n := pq.Normalized()
	return NewPagination(total, n.Page, n.PageSize)
}

// GetPaginationParams reads ?page and ?page_size, ignoring malformed values.
func GetPaginationParams(c *gin.Context) (page, pageSize int) {
	page, _ = strconv.Atoi(c.Query("page"))
	pageSize, _ = strconv.Atoi(c.Query("page_size"))
	n := PaginationQuery{Page: page, PageSize: pageSize}.Normalized()
	return n.Page, n.PageSize
}
