package shared

// Filter represents common query options shared by list operations
type Filter struct {
	Page     int
	PageSize int
	Search   string
}

// DefaultFilter returns a filter with default values
func DefaultFilter() Filter {
	return Filter{
		Page:     1,
		PageSize: 0,
	}
}

// Paginate slices items according to Page/PageSize. A zero PageSize returns all items.
func Paginate[T any](items []T, f Filter) []T {
	if f.PageSize <= 0 {
		return items
	}
	page := f.Page
	if page < 1 {
		page = 1
	}
	start := (page - 1) * f.PageSize
	if start >= len(items) {
		return []T{}
	}
	end := start + f.PageSize
	if end > len(items) {
		end = len(items)
	}
	return items[start:end]
}
