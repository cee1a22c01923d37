package models

// DefaultPageSize is the number of items per feed page unless configured otherwise.
const DefaultPageSize = 10

// PageRequest selects a 1-based page of a list.
type PageRequest struct {
	Number int
	Size   int
}

// NewPageRequest builds a request, treating numbers below 1 as the first page
// and non-positive sizes as DefaultPageSize.
func NewPageRequest(number, size int) PageRequest {
	if number < 1 {
		number = 1
	}
	if size < 1 {
		size = DefaultPageSize
	}
	return PageRequest{Number: number, Size: size}
}

// Offset returns the number of rows skipped before this page.
func (r PageRequest) Offset() int {
	return (r.Number - 1) * r.Size
}

// Page is one slice of an ordered list plus the paginator state.
type Page[T any] struct {
	Items       []T   `json:"items"`
	Number      int   `json:"number"`
	PageSize    int   `json:"page_size"`
	TotalCount  int64 `json:"total_count"`
	NumPages    int   `json:"num_pages"`
	HasNext     bool  `json:"has_next"`
	HasPrevious bool  `json:"has_previous"`
}

// NewPage assembles a page. An empty list still has one (empty) page, and a
// page past the end simply carries no items.
func NewPage[T any](items []T, req PageRequest, total int64) *Page[T] {
	if items == nil {
		items = []T{}
	}
	numPages := 1
	if total > 0 {
		numPages = int((total + int64(req.Size) - 1) / int64(req.Size))
	}
	return &Page[T]{
		Items:       items,
		Number:      req.Number,
		PageSize:    req.Size,
		TotalCount:  total,
		NumPages:    numPages,
		HasNext:     req.Number < numPages,
		HasPrevious: req.Number > 1,
	}
}
