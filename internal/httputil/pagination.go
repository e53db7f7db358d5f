package httputil

import (
	"fmt"
	"strconv"

	"github.com/gin-gonic/gin"
	validation "github.com/jellydator/validation"
)

// Listing windows shared by every paginated endpoint.
const (
	DefaultLimit = 50
	MaxLimit     = 100
)

// ParsePagination reads the offset and limit query parameters. Missing values fall back to
// 0 and DefaultLimit; both are zero when an error is returned.
func ParsePagination(c *gin.Context) (offset, limit int, err error) {
	offset, err = queryInt(c, "offset", 0, validation.Min(0))
	if err != nil {
		return 0, 0, err
	}
	limit, err = queryInt(c, "limit", DefaultLimit, validation.Min(1), validation.Max(MaxLimit))
	if err != nil {
		return 0, 0, err
	}
	return offset, limit, nil
}

func queryInt(c *gin.Context, name string, fallback int, rules ...validation.Rule) (int, error) {
	raw, ok := c.GetQuery(name)
	if !ok {
		return fallback, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s: must be an integer", name)
	}
	if err := validation.Validate(value, rules...); err != nil {
		return 0, fmt.Errorf("%s: %w", name, err)
	}
	return value, nil
}
