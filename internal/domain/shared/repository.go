package shared

// Filter represents query filter options shared by all repositories.
type Filter struct {
	Limit    int
	Offset   int
	OrderBy  string
	OrderDir string
	Filters  map[string]interface{}
}

// DefaultFilter returns a filter with default values.
func DefaultFilter() Filter {
	return Filter{
		Limit:    50,
		OrderBy:  "created_at",
		OrderDir: "desc",
		Filters:  make(map[string]interface{}),
	}
}
