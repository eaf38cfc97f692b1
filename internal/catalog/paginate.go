package catalog

import "github.com/yoyothesheep/MySoilMate/internal/data"

// Metadata contains pagination information returned alongside a page.
type Metadata struct {
	TotalCount      int  `json:"totalCount"`
	CurrentPage     int  `json:"currentPage"`
	TotalPages      int  `json:"totalPages"`
	HasNextPage     bool `json:"hasNextPage"`
	HasPreviousPage bool `json:"hasPreviousPage"`
}

// Page is one slice of a listing with its metadata.
type Page struct {
	Plants []*data.Plant `json:"plants"`
	Metadata
}

// calculateMetadata computes page metadata from the total record count.
// totalPages is zero for an empty listing.
func calculateMetadata(totalRecords, page, pageSize int) Metadata {
	totalPages := 0
	if totalRecords > 0 {
		totalPages = (totalRecords + pageSize - 1) / pageSize
	}
	return Metadata{
		TotalCount:      totalRecords,
		CurrentPage:     page,
		TotalPages:      totalPages,
		HasNextPage:     page < totalPages,
		HasPreviousPage: page > 1,
	}
}

// offset returns the index of the first record on page.
func offset(page, pageSize int) int { return (page - 1) * pageSize }

// Paginate slices plants to [(page-1)*size, page*size), clamped to the
// slice bounds. A page past the end is empty but carries correct metadata.
// page and pageSize must be positive.
func Paginate(plants []*data.Plant, page, pageSize int) *Page {
	total := len(plants)
	start := min(offset(page, pageSize), total)
	end := min(start+pageSize, total)

	window := make([]*data.Plant, end-start)
	copy(window, plants[start:end])

	return &Page{
		Plants:   window,
		Metadata: calculateMetadata(total, page, pageSize),
	}
}
