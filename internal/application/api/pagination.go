package api

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
)

const (
	defaultPerPage = 10
	maxPerPage     = 100
)

// pageParams holds the parsed pagination query parameters.
type pageParams struct {
	page    int
	perPage int
}

// parsePageParams reads page and per_page, clamping them into range.
func parsePageParams(r *http.Request) pageParams {
	p := pageParams{page: 1, perPage: defaultPerPage}
	if raw := r.URL.Query().Get("page"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			p.page = n
		}
	}
	if raw := r.URL.Query().Get("per_page"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			p.perPage = n
			if p.perPage > maxPerPage {
				p.perPage = maxPerPage
			}
		}
	}
	return p
}

func (p pageParams) limit() int  { return p.perPage }
func (p pageParams) offset() int { return (p.page - 1) * p.perPage }

// linkHeader renders an RFC 8288 Link header with self, prev and next
// relations. next is emitted only when the current page came back full,
// prev only past the first page.
func (p pageParams) linkHeader(path string, resultCount int) string {
	ref := func(page int, rel string) string {
		return fmt.Sprintf(`<%s?page=%d&per_page=%d>; rel="%s"`, path, page, p.perPage, rel)
	}

	parts := []string{ref(p.page, "self")}
	if p.page > 1 {
		parts = append(parts, ref(p.page-1, "prev"))
	}
	if resultCount == p.perPage {
		parts = append(parts, ref(p.page+1, "next"))
	}
	return strings.Join(parts, ", ")
}
