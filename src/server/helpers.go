package server

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
)

const (
	defaultPageSize = 20
	maxPageSize     = 500
)

// -----------------------------------------------------------------------------

type pageQuery struct {
	Page       int
	PageSize   int
	SortField  string
	Descending bool
}

// parsePageQuery reads page, page_size, sort_by and sort_order.
func parsePageQuery(c *gin.Context) (pageQuery, error) {
	q := pageQuery{Page: 1, PageSize: defaultPageSize, Descending: true}

	var err error
	if q.Page, err = positiveInt(c.Query("page"), 1); err != nil {
		return q, fmt.Errorf("page: %w", err)
	}
	if q.PageSize, err = positiveInt(c.Query("page_size"), defaultPageSize); err != nil {
		return q, fmt.Errorf("page_size: %w", err)
	}
	q.PageSize = min(q.PageSize, maxPageSize)

	q.SortField = strings.TrimSpace(c.Query("sort_by"))
	switch strings.ToLower(c.DefaultQuery("sort_order", "desc")) {
	case "asc":
		q.Descending = false
	case "desc":
	default:
		return q, fmt.Errorf("sort_order must be asc or desc")
	}
	return q, nil
}

// -----------------------------------------------------------------------------

func positiveInt(raw string, def int) (int, error) {
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, err
	}
	if n < 1 {
		return 0, fmt.Errorf("must be positive, got %d", n)
	}
	return n, nil
}

// -----------------------------------------------------------------------------

func fail(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, gin.H{"success": false, "message": message})
}

// -----------------------------------------------------------------------------

func contains(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}
