package api

import (
	"net/http"
	"net/url"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/pageza/foodgram/backend/internal/types"
)

const maxPageSize = 100

// idParam parses a positive integer path parameter. Anything else is answered with 404.
func idParam(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 0)
	if err != nil || id == 0 {
		notFound(c)
		return 0, false
	}
	return uint(id), true
}

// recipesLimit reads ?recipes_limit=; -1 means unlimited.
func recipesLimit(c *gin.Context) (int, bool) {
	raw := c.Query("recipes_limit")
	if raw == "" {
		return -1, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"recipes_limit": []string{"A valid non-negative integer is required."}})
		return 0, false
	}
	return n, true
}

// resolvePage fills in page defaults.
func resolvePage(q *types.PageQuery, defaultSize int) {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.Limit < 1 {
		q.Limit = defaultSize
	}
	if q.Limit > maxPageSize {
		q.Limit = maxPageSize
	}
}

// newPage wraps results in the paginated envelope with absolute next/previous links.
func newPage[T any](c *gin.Context, q types.PageQuery, total int64, results []T) types.Page[T] {
	if results == nil {
		results = []T{}
	}
	p := types.Page[T]{Count: total, Results: results}
	if int64(q.Page*q.Limit) < total {
		p.Next = pageLink(c, q.Page+1)
	}
	if q.Page > 1 {
		p.Previous = pageLink(c, q.Page-1)
	}
	return p
}

func pageLink(c *gin.Context, page int) *string {
	scheme := "http"
	if c.Request.TLS != nil {
		scheme = "https"
	}
	if proto := c.GetHeader("X-Forwarded-Proto"); proto != "" {
		scheme = proto
	}

	query := c.Request.URL.Query()
	if page <= 1 {
		query.Del("page")
	} else {
		query.Set("page", strconv.Itoa(page))
	}
	u := url.URL{
		Scheme:   scheme,
		Host:     c.Request.Host,
		Path:     c.Request.URL.Path,
		RawQuery: query.Encode(),
	}
	link := u.String()
	return &link
}
