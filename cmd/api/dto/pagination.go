package dto

// Pagination is a generic pagination envelope for list results.
// Total counts every item matching the filters; LastPage is ceil(Total/PageSize).
// Page is 1-based.
type Pagination[T any] struct {
	Data     []T   `json:"data"`
	Page     int   `json:"page"`
	PageSize int   `json:"page_size"`
	Total    int64 `json:"total"`
	LastPage int   `json:"last_page"`
}

// PaginationReviewDTO exists for swagger, which cannot render generics.
type PaginationReviewDTO struct {
	Data     []ReviewDTO `json:"data"`
	Page     int         `json:"page" example:"1"`
	PageSize int         `json:"page_size" example:"10"`
	Total    int64       `json:"total" example:"42"`
	LastPage int         `json:"last_page" example:"5"`
}

// LastPage returns how many pages of size pageSize hold total items.
func LastPage(total int64, pageSize int) int {
	if pageSize <= 0 || total <= 0 {
		return 0
	}
	return int((total + int64(pageSize) - 1) / int64(pageSize))
}
