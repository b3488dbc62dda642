package shared

// Page bounds a list query
type Page struct {
	Limit  int
	Offset int
}

// NormalizeLimit clamps limit to (0, max], substituting def for non-positive values.
func NormalizeLimit(limit, def, max int) int {
	if limit <= 0 {
		limit = def
	}
	if max > 0 && limit > max {
		limit = max
	}
	return limit
}
