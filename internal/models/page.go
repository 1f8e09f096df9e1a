package models

import "math"

const (
	DefaultPageLimit = 20
	MaxPageLimit     = 100

	// maxPage keeps (page-1)*limit inside int for any accepted limit.
	maxPage = math.MaxInt / MaxPageLimit
)

type Page struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
}

// NewPage clamps raw query values: page defaults to 1, limit to 20 with a
// ceiling of 100.
func NewPage(page, limit int) Page {
	if page < 1 {
		page = 1
	}
	if page > maxPage {
		page = maxPage
	}
	if limit < 1 {
		limit = DefaultPageLimit
	}
	if limit > MaxPageLimit {
		limit = MaxPageLimit
	}
	return Page{Page: page, Limit: limit}
}

func (p Page) Offset() int { return (p.Page - 1) * p.Limit }

// Window returns the [start, end) bounds of the page over n items.
func (p Page) Window(n int) (int, int) {
	start := p.Offset()
	if start < 0 || start > n {
		start = n
	}
	end := start + p.Limit
	if end > n || end < start {
		end = n
	}
	return start, end
}

type PageResult[T any] struct {
	Items      []T `json:"items"`
	Total      int `json:"total"`
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	TotalPages int `json:"total_pages"`
}

func NewPageResult[T any](items []T, total int, p Page) PageResult[T] {
	if items == nil {
		items = []T{}
	}
	pages := 0
	if p.Limit > 0 {
		pages = (total + p.Limit - 1) / p.Limit
	}
	return PageResult[T]{Items: items, Total: total, Page: p.Page, Limit: p.Limit, TotalPages: pages}
}
