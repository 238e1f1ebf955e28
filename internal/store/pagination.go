package store

// DefaultPageSize is the number of icons per listing page.
const DefaultPageSize = 100

// MaxPageSize caps requested page sizes.
const MaxPageSize = 1000

// PageParams contains page-number pagination request parameters.
type PageParams struct {
	Number int // 1-based page number (defaults to 1)
	Size   int // items per page (defaults to 100, capped at 1000)
}

// Normalize checks and corrects pagination parameters.
func (p *PageParams) Normalize() {
	if p.Number < 1 {
		p.Number = 1
	}
	if p.Size <= 0 {
		p.Size = DefaultPageSize
	}
	if p.Size > MaxPageSize {
		p.Size = MaxPageSize
	}
}

// Offset returns the row offset for the page.
func (p PageParams) Offset() int {
	return (p.Number - 1) * p.Size
}

// Page contains one page of results plus paging metadata.
type Page[T any] struct {
	Items  []T
	Number int // current page number
	Pages  int // total number of pages (at least 1)
	Count  int // total number of items across all pages
}

// NewPage builds a Page from items, the request, and the total count.
func NewPage[T any](items []T, params PageParams, count int) *Page[T] {
	pages := (count + params.Size - 1) / params.Size
	if pages < 1 {
		pages = 1
	}
	return &Page[T]{
		Items:  items,
		Number: params.Number,
		Pages:  pages,
		Count:  count,
	}
}
