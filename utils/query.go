package utils

import "strconv"

func ParseIntDefault(v string, def int) int {
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

// Pagination turns raw page/limit query values into a valid page >= 1 and
// a limit in [1, maxLimit].
func Pagination(pageStr, limitStr string, defLimit, maxLimit int) (page, limit int) {
	page = ParseIntDefault(pageStr, 1)
	limit = ParseIntDefault(limitStr, defLimit)
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = defLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	return page, limit
}
