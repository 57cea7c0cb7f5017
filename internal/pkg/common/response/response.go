package response

import (
	"fmt"
	"net/url"
)

// Response is the shared API envelope. List endpoints fill Count,
// Previous/Next and Results; error paths set Detail only.
type Response struct {
	Count    any     `json:"count,omitempty"`
	Previous *string `json:"previous,omitempty"`
	Next     *string `json:"next,omitempty"`
	Results  any     `json:"results,omitempty"`
	Detail   string  `json:"detail,omitempty"`
}

// BuildPageLinks derives previous/next page URLs from the request URL by
// rewriting the page query parameter. A nil pointer means no such page.
func BuildPageLinks(u *url.URL, page, pageSize, total int) (prev, next *string) {
	if u == nil || pageSize <= 0 {
		return nil, nil
	}
	withPage := func(p int) *string {
		cp := *u
		q := cp.Query()
		q.Set("page", fmt.Sprintf("%d", p))
		q.Set("page_size", fmt.Sprintf("%d", pageSize))
		cp.RawQuery = q.Encode()
		s := cp.String()
		return &s
	}
	if page > 1 {
		prev = withPage(page - 1)
	}
	if page*pageSize < total {
		next = withPage(page + 1)
	}
	return prev, next
}
