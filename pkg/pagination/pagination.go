// Package pagination holds the page metadata shared by repositories and the
// JSON response envelope.
package pagination

// Pagination describes one page of a larger result set.
type Pagination struct {
	Page       int   `json:"page"`
	PerPage    int   `json:"per_page"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
}

// New computes TotalPages from total and perPage.
func New(page, perPage int, total int64) Pagination {
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = 15
	}

	pages := int(total) / perPage
	if int(total)%perPage != 0 {
		pages++
	}

	return Pagination{Page: page, PerPage: perPage, Total: total, TotalPages: pages}
}

// Offset returns the SQL offset for this page.
func (p Pagination) Offset() int {
	return (p.Page - 1) * p.PerPage
}
