package kernel

import "math"

// Page represents pagination metadata
type Page struct {
	Number int `json:"page"`     // Current page number (1-based)
	Size   int `json:"pageSize"` // Number of records per page
	Total  int `json:"total"`    // Total number of records
	Pages  int `json:"pages"`    // Total number of pages
}

// Paginated is a generic container for paginated data with metadata
type Paginated[T any] struct {
	Items []T  `json:"items"`      // The paginated items
	Page  Page `json:"pagination"` // Pagination metadata
	Empty bool `json:"empty"`      // Whether the result contains any items
}

// NewPaginated creates a new paginated result with calculated fields
func NewPaginated[T any](items []T, page, size, total int) Paginated[T] {
	if items == nil {
		items = []T{}
	}
	pages := 0
	if size > 0 {
		pages = (total + size - 1) / size // Ceiling division
	}

	return Paginated[T]{
		Items: items,
		Page: Page{
			Number: page,
			Size:   size,
			Total:  total,
			Pages:  pages,
		},
		Empty: len(items) == 0,
	}
}

// HasNext returns whether there are more pages after the current one
func (p Paginated[T]) HasNext() bool {
	return p.Page.Number < p.Page.Pages
}

// PaginationOptions holds options for pagination queries
type PaginationOptions struct {
	Page     int // Page number (1-based)
	PageSize int // Number of records per page
}

// Normalize clamps the options to page >= 1 and 1 <= size <= maxSize.
// Page is also capped so that Page*PageSize never overflows.
func (o PaginationOptions) Normalize(defaultSize, maxSize int) PaginationOptions {
	if o.Page < 1 {
		o.Page = 1
	}
	if o.PageSize <= 0 {
		o.PageSize = defaultSize
	}
	if maxSize > 0 && o.PageSize > maxSize {
		o.PageSize = maxSize
	}
	if o.PageSize > 0 && o.Page > math.MaxInt/o.PageSize {
		o.Page = math.MaxInt / o.PageSize
	}
	return o
}

// Offset returns the number of records to skip. It saturates instead of
// overflowing, so it is never negative.
func (o PaginationOptions) Offset() int {
	if o.Page < 1 || o.PageSize <= 0 {
		return 0
	}
	if o.Page-1 > (math.MaxInt-o.PageSize)/o.PageSize {
		return math.MaxInt - o.PageSize
	}
	return (o.Page - 1) * o.PageSize
}
