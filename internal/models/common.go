package models

// APIResponse is the envelope every JSON endpoint answers with.
type APIResponse struct {
	Success bool              `json:"success"`
	Message string            `json:"message,omitempty"`
	Data    interface{}       `json:"data,omitempty"`
	Errors  map[string]string `json:"errors,omitempty"`
	Meta    *PaginationMeta   `json:"meta,omitempty"`
}

// PaginationMeta describes one page of a list result.
type PaginationMeta struct {
	Total       int64 `json:"total"`
	PerPage     int   `json:"per_page"`
	CurrentPage int   `json:"current_page"`
	LastPage    int   `json:"last_page"`
}

// NewPaginationMeta computes LastPage from total and perPage.
func NewPaginationMeta(total int64, page, perPage int) *PaginationMeta {
	if perPage <= 0 {
		perPage = DefaultPerPage
	}
	last := int(total) / perPage
	if int(total)%perPage != 0 {
		last++
	}
	if last == 0 {
		last = 1
	}
	return &PaginationMeta{
		Total:       total,
		PerPage:     perPage,
		CurrentPage: page,
		LastPage:    last,
	}
}

const (
	DefaultPerPage = 15
	MaxPerPage     = 100
)

// Page normalizes page/per_page query values.
func Page(page, perPage int) (int, int) {
	if page <= 0 {
		page = 1
	}
	if perPage <= 0 {
		perPage = DefaultPerPage
	}
	if perPage > MaxPerPage {
		perPage = MaxPerPage
	}
	return page, perPage
}
