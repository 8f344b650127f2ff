package query

// Pagination mirrors the backend's pagination block.
type Pagination struct {
	CurrentPage  int `json:"currentPage"`
	TotalPages   int `json:"totalPages"`
	TotalRecords int `json:"totalRecords"`
}

// EmptyPagination is the pagination of a valid empty page.
var EmptyPagination = Pagination{CurrentPage: 1, TotalPages: 1, TotalRecords: 0}

// MaxPageButtons bounds the button slice a Pager holds. Below it every page
// gets a button; above it the buttons are the run of that length around the
// current page.
const MaxPageButtons = 500

// Pager describes the pagination controls for a list.
type Pager struct {
	Pages        []int
	Current      int
	Total        int
	PrevDisabled bool
	NextDisabled bool
}

// Pages returns one button per page 1..total, capped at MaxPageButtons. A
// total below 1 is treated as a single page.
func Pages(current, total int) Pager {
	if total < 1 {
		total = 1
	}
	if current < 1 {
		current = 1
	}
	if current > total {
		current = total
	}
	first, n := 1, total
	if n > MaxPageButtons {
		n = MaxPageButtons
		first = min(max(current-n/2, 1), total-n+1)
	}
	pages := make([]int, n)
	for i := range pages {
		pages[i] = first + i
	}
	return Pager{
		Pages:        pages,
		Current:      current,
		Total:        total,
		PrevDisabled: current == 1,
		NextDisabled: current == total,
	}
}

// Offers reports whether page lies within 1..Total.
func (p Pager) Offers(page int) bool {
	return page >= 1 && page <= p.Total
}
