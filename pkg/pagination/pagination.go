// Package pagination pages the rows of a fetched collection for display.
package pagination

import (
	"fmt"
	"strconv"

	"github.com/labstack/echo/v4"
)

const (
	DefaultLimit = 25
	MaxLimit     = 200
)

// Params holds pagination parameters extracted from a request.
type Params struct {
	Limit  int
	Offset int
}

// FromContext extracts ?limit and ?offset from the echo context.
func FromContext(c echo.Context) Params {
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	if limit <= 0 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}

	offset, _ := strconv.Atoi(c.QueryParam("offset"))
	if offset < 0 {
		offset = 0
	}

	return Params{Limit: limit, Offset: offset}
}

// HasNext returns true if there are more results after the current page.
func (p Params) HasNext(total int) bool {
	return p.Offset+p.Limit < total
}

// HasPrevious returns true if there are results before the current page.
func (p Params) HasPrevious() bool {
	return p.Offset > 0
}

// NextOffset returns the offset for the next page.
func (p Params) NextOffset() int {
	return p.Offset + p.Limit
}

// PreviousOffset returns the offset for the previous page.
// Returns 0 if the result would be negative.
func (p Params) PreviousOffset() int {
	prev := p.Offset - p.Limit
	if prev < 0 {
		return 0
	}
	return prev
}

// Page is one window of a collection.
type Page[T any] struct {
	Items  []T
	Total  int
	Params Params
}

// Slice cuts the page p out of items. An offset past the end yields an
// empty page with the right total.
func Slice[T any](items []T, p Params) Page[T] {
	total := len(items)
	start := p.Offset
	if start > total {
		start = total
	}
	end := start + p.Limit
	if end > total {
		end = total
	}
	return Page[T]{Items: items[start:end], Total: total, Params: p}
}

// From is the 1-based index of the first row shown, 0 when empty.
func (pg Page[T]) From() int {
	if len(pg.Items) == 0 {
		return 0
	}
	return pg.Params.Offset + 1
}

// To is the 1-based index of the last row shown.
func (pg Page[T]) To() int {
	return pg.Params.Offset + len(pg.Items)
}

func (pg Page[T]) HasNext() bool     { return pg.Params.HasNext(pg.Total) }
func (pg Page[T]) HasPrevious() bool { return pg.Params.HasPrevious() }

// NextURL and PreviousURL link to the neighbouring pages of basePath.
func (pg Page[T]) NextURL(basePath string) string {
	return fmt.Sprintf("%s?offset=%d&limit=%d", basePath, pg.Params.NextOffset(), pg.Params.Limit)
}

func (pg Page[T]) PreviousURL(basePath string) string {
	return fmt.Sprintf("%s?offset=%d&limit=%d", basePath, pg.Params.PreviousOffset(), pg.Params.Limit)
}
