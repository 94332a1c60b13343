package server

import (
	"strconv"
	"strings"

	"sketch-rooms/internal/web"

	"github.com/gin-gonic/gin"
)

// listing is how one endpoint pages its results.
type listing struct {
	perPage    int
	maxPerPage int
}

var (
	adminRoomListing = listing{perPage: 20, maxPerPage: 100}
	chatListing      = listing{perPage: 50, maxPerPage: 200}
)

type pageQuery struct {
	Page    int
	PerPage int
}

// query reads ?page and ?per_page. Missing, malformed or non-positive values
// fall back to the listing defaults.
func (l listing) query(c *gin.Context) pageQuery {
	return pageQuery{
		Page:    positiveParam(c, "page", 1),
		PerPage: min(positiveParam(c, "per_page", l.perPage), l.maxPerPage),
	}
}

func positiveParam(c *gin.Context, key string, fallback int) int {
	value, err := strconv.Atoi(strings.TrimSpace(c.Query(key)))
	if err != nil || value < 1 {
		return fallback
	}
	return value
}

// paginate clamps q to the pages that exist for total items.
func paginate(basePath string, q pageQuery, total int) web.PaginationData {
	perPage := max(q.PerPage, 1)
	pages := max((total+perPage-1)/perPage, 1)
	page := min(max(q.Page, 1), pages)

	data := web.PaginationData{
		BasePath:   basePath,
		Page:       page,
		PerPage:    perPage,
		Total:      total,
		TotalPages: pages,
		HasPrev:    page > 1,
		HasNext:    page < pages,
	}
	if data.HasPrev {
		data.PrevPage = page - 1
	}
	if data.HasNext {
		data.NextPage = page + 1
	}
	return data
}

// pageBounds returns the [start, end) slice indices for page.
func pageBounds(p web.PaginationData) (int, int) {
	start := min((p.Page-1)*p.PerPage, p.Total)
	return start, min(start+p.PerPage, p.Total)
}
