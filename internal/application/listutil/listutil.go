// Package listutil parses list query parameters shared by the admin listings.
package listutil

import (
	"net/url"
	"strconv"
	"strings"

	"masgolf/internal/adapters/storage"
)

// Options names the query keys and limits of one listing.
type Options struct {
	PageKey        string
	PerPageKey     string
	SortKey        string
	DirKey         string
	DefaultPerPage int
	MaxPerPage     int
	SortColumns    []string
	FilterKeys     []string
}

// Admin is the page/per_page/sort/dir convention of most admin listings.
func Admin(sortColumns []string, filterKeys ...string) Options {
	return Options{
		PageKey: "page", PerPageKey: "per_page", SortKey: "sort", DirKey: "dir",
		DefaultPerPage: DefaultPerPage, MaxPerPage: 200,
		SortColumns: sortColumns, FilterKeys: filterKeys,
	}
}

// Customers is the customer listing convention: pageSize defaults to 100
// and may reach 1000; sortBy/sortOrder select the order.
func Customers(sortColumns []string) Options {
	return Options{
		PageKey: "page", PerPageKey: "pageSize", SortKey: "sortBy", DirKey: "sortOrder",
		DefaultPerPage: 100, MaxPerPage: 1000, SortColumns: sortColumns,
	}
}

// DefaultPerPage is the default number of rows per page.
const DefaultPerPage = 20

// Params carries one parsed listing request.
type Params struct {
	Page    int
	PerPage int
	Sort    string
	Desc    bool
	Search  string
	Filters map[string]string
}

// PageInfo carries pagination metadata for the response.
type PageInfo struct {
	Page       int `json:"page"`
	PerPage    int `json:"per_page"`
	Total      int `json:"total"`
	TotalPages int `json:"total_pages"`
}

// Parse extracts listing parameters from q.
// POST: Page >= 1; 1 <= PerPage <= MaxPerPage; Sort is allowlisted or empty
func Parse(q url.Values, o Options) Params {
	p := Params{Search: strings.TrimSpace(q.Get("q")), Filters: map[string]string{}}

	p.Page, _ = strconv.Atoi(q.Get(o.PageKey))
	if p.Page < 1 {
		p.Page = 1
	}
	p.PerPage, _ = strconv.Atoi(q.Get(o.PerPageKey))
	if p.PerPage < 1 {
		p.PerPage = o.DefaultPerPage
	}
	if o.MaxPerPage > 0 && p.PerPage > o.MaxPerPage {
		p.PerPage = o.MaxPerPage
	}

	if sort := q.Get(o.SortKey); isAllowed(sort, o.SortColumns) {
		p.Sort = sort
	}
	p.Desc = strings.EqualFold(q.Get(o.DirKey), "desc")

	for _, key := range o.FilterKeys {
		if v := strings.TrimSpace(q.Get(key)); v != "" {
			p.Filters[key] = v
		}
	}
	return p
}

// Offset returns the SQL OFFSET for the current page.
func (p Params) Offset() int {
	return (p.Page - 1) * p.PerPage
}

// StoragePage converts p for a store List call.
func (p Params) StoragePage() storage.Page {
	return storage.Page{Limit: p.PerPage, Offset: p.Offset(), Sort: p.Sort, Desc: p.Desc}
}

// NewPageInfo computes pagination metadata.
// PRE: total >= 0
// POST: TotalPages >= 1
func NewPageInfo(p Params, total int) PageInfo {
	perPage := p.PerPage
	if perPage < 1 {
		perPage = DefaultPerPage
	}
	pages := (total + perPage - 1) / perPage
	if pages < 1 {
		pages = 1
	}
	return PageInfo{Page: p.Page, PerPage: perPage, Total: total, TotalPages: pages}
}

func isAllowed(col string, allowed []string) bool {
	for _, a := range allowed {
		if col == a {
			return true
		}
	}
	return false
}
