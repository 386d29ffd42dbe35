package models

// Paging is returned alongside every paginated list.
type Paging struct {
	CurrentPage   int   `json:"currentPage"`
	PreviousPage  *int  `json:"previousPage"`
	NextPage      *int  `json:"nextPage"`
	ItemsPerPage  int   `json:"itemsPerPage"`
	NumberOfPages int   `json:"numberOfPages"`
	TotalCount    int64 `json:"totalCount"`
}

// NewPaging computes paging metadata for a page of size limit out of total
// documents. An empty collection still reports one page.
func NewPaging(page, limit int, total int64) Paging {
	pages := int((total + int64(limit) - 1) / int64(limit))
	if pages < 1 {
		pages = 1
	}
	p := Paging{
		CurrentPage:   page,
		ItemsPerPage:  limit,
		NumberOfPages: pages,
		TotalCount:    total,
	}
	if page > 1 {
		prev := page - 1
		p.PreviousPage = &prev
	}
	if page < pages {
		next := page + 1
		p.NextPage = &next
	}
	return p
}
