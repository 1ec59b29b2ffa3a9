package response

// PageResponse wraps one page of a list endpoint.
type PageResponse[T any] struct {
	Items      []T `json:"items"`
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	Total      int `json:"total"`
	TotalPages int `json:"total_pages"`
}

// NewPageResponse builds a page; items is never rendered as null.
func NewPageResponse[T any](items []T, page, pageSize, total int) PageResponse[T] {
	if items == nil {
		items = []T{}
	}
	totalPages := 0
	if pageSize > 0 {
		totalPages = (total + pageSize - 1) / pageSize
	}
	return PageResponse[T]{
		Items:      items,
		Page:       page,
		PageSize:   pageSize,
		Total:      total,
		TotalPages: totalPages,
	}
}

// MapPage converts domain records with toResponse and wraps them in a page.
func MapPage[S, T any](records []S, toResponse func(S) T, page, pageSize, total int) PageResponse[T] {
	items := make([]T, len(records))
	for i, r := range records {
		items[i] = toResponse(r)
	}
	return NewPageResponse(items, page, pageSize, total)
}
