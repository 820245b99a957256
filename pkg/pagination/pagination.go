package pagination

import (
	"fmt"
	"strconv"

	"github.com/labstack/echo/v4"
)

const (
	DefaultPerPage = 10
	MaxPerPage     = 100
)

// Params holds pagination parameters extracted from a request. Pages are
// 1-based.
type Params struct {
	Page    int
	PerPage int
}

// FromContext extracts page and per_page query parameters from the echo
// context, clamping them to sane bounds.
func FromContext(c echo.Context) Params {
	page, _ := strconv.Atoi(c.QueryParam("page"))
	if page <= 0 {
		page = 1
	}

	perPage, _ := strconv.Atoi(c.QueryParam("per_page"))
	if perPage <= 0 {
		perPage = DefaultPerPage
	}
	if perPage > MaxPerPage {
		perPage = MaxPerPage
	}

	return Params{Page: page, PerPage: perPage}
}

// Offset returns the row offset for the current page.
func (p Params) Offset() int {
	return (p.Page - 1) * p.PerPage
}

// SQL returns the LIMIT and OFFSET clause for SQL queries.
func (p Params) SQL() string {
	return fmt.Sprintf("LIMIT %d OFFSET %d", p.PerPage, p.Offset())
}

// Pages returns the total number of pages for the given result count.
func (p Params) Pages(total int) int {
	if total <= 0 {
		return 0
	}
	return (total + p.PerPage - 1) / p.PerPage
}

// Meta is the pagination block attached to list responses.
type Meta struct {
	Page    int `json:"page"`
	PerPage int `json:"per_page"`
	Total   int `json:"total"`
	Pages   int `json:"pages"`
}

// NewMeta builds the pagination block for a list response.
func NewMeta(p Params, total int) Meta {
	return Meta{
		Page:    p.Page,
		PerPage: p.PerPage,
		Total:   total,
		Pages:   p.Pages(total),
	}
}

// HasNext returns true if there are more results after the current page.
func (p Params) HasNext(total int) bool {
	return p.Page < p.Pages(total)
}

// HasPrevious returns true if there are results before the current page.
func (p Params) HasPrevious() bool {
	return p.Page > 1
}
