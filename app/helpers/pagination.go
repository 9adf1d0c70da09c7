package helpers

import (
	"net/http"
	"net/url"
	"strconv"
)

const (
	DefaultPageSize = 25
	MaxPageSize     = 100
)

type Page struct {
	Number int
	Size   int
}

func (p Page) Offset() int {
	return (p.Number - 1) * p.Size
}

// ParsePage reads ?page and ?size, falling back to the first page of
// DefaultPageSize.
func ParsePage(r *http.Request) Page {
	q := r.URL.Query()
	page := Page{Number: 1, Size: DefaultPageSize}
	if n, err := strconv.Atoi(q.Get("page")); err == nil && n > 0 {
		page.Number = n
	}
	if n, err := strconv.Atoi(q.Get("size")); err == nil && n > 0 {
		page.Size = n
	}
	if page.Size > MaxPageSize {
		page.Size = MaxPageSize
	}
	return page
}

// Paginated builds the {count, next, previous, results} envelope.
func Paginated(r *http.Request, page Page, count int64, results interface{}) map[string]interface{} {
	var next, previous *string
	if int64(page.Number*page.Size) < count {
		u := pageURL(r, page.Number+1)
		next = &u
	}
	if page.Number > 1 {
		u := pageURL(r, page.Number-1)
		previous = &u
	}
	return map[string]interface{}{
		"count":    count,
		"next":     next,
		"previous": previous,
		"results":  results,
	}
}

func pageURL(r *http.Request, number int) string {
	u := url.URL{Path: r.URL.Path}
	q := r.URL.Query()
	q.Set("page", strconv.Itoa(number))
	u.RawQuery = q.Encode()
	return u.String()
}
