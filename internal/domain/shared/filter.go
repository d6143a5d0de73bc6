package shared

// Filter holds common pagination parameters for list queries
type Filter struct {
	// Page number, 1-indexed. Zero means no pagination.
	Page int
	// PageSize is the number of records per page
	PageSize int
}

// Offset returns the SQL offset for the filter
func (f Filter) Offset() int {
	if f.Page <= 1 {
		return 0
	}
	return (f.Page - 1) * f.PageSize
}

// Limit returns the SQL limit for the filter, or 0 when unpaginated
func (f Filter) Limit() int {
	if f.PageSize <= 0 {
		return 0
	}
	return f.PageSize
}
