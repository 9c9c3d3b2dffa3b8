package dto

// PaginationMeta captures pagination metadata for list responses.
type PaginationMeta struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	TotalItems int64 `json:"total_items"`
	TotalPages int   `json:"total_pages"`
	HasNext    bool  `json:"has_next"`
	HasPrev    bool  `json:"has_prev"`
}

// NormalizePageLimit clamps pagination inputs to the window a query actually
// runs with. Every list path feeds the result to both the query and the
// response metadata so the two never disagree.
func NormalizePageLimit(page, limit int) (int, int) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	return page, limit
}

// NewPaginationMeta derives page metadata from a total count.
func NewPaginationMeta(page, limit int, totalItems int64) PaginationMeta {
	page, limit = NormalizePageLimit(page, limit)

	totalPages := int((totalItems + int64(limit) - 1) / int64(limit))

	return PaginationMeta{
		Page:       page,
		Limit:      limit,
		TotalItems: totalItems,
		TotalPages: totalPages,
		HasNext:    page < totalPages,
		HasPrev:    page > 1,
	}
}
