package pagination

import (
	"net/url"
	"strconv"
)

// Params holds the paging parameters sent with list requests.
type Params struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
}

// DefaultParams returns the first page with the backend's default page size.
func DefaultParams() Params {
	return Params{Page: 1, Limit: 20}
}

// Normalize clamps Page to at least 1 and Limit to 1..100.
func (p Params) Normalize() Params {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.Limit < 1 || p.Limit > 100 {
		p.Limit = DefaultParams().Limit
	}
	return p
}

// Apply sets page and limit on q. A zero Params leaves q untouched.
func (p Params) Apply(q url.Values) url.Values {
	if p == (Params{}) {
		return q
	}
	if q == nil {
		q = url.Values{}
	}
	p = p.Normalize()
	q.Set("page", strconv.Itoa(p.Page))
	q.Set("limit", strconv.Itoa(p.Limit))
	return q
}

// Meta is the pagination block returned inside the response envelope.
type Meta struct {
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	TotalItems int `json:"totalItems"`
	TotalPages int `json:"totalPages"`
}

// HasNext reports whether another page follows this one.
func (m Meta) HasNext() bool {
	return m.Page < m.TotalPages
}

// HasPrev reports whether a page precedes this one.
func (m Meta) HasPrev() bool {
	return m.Page > 1
}

// Next returns the params for the following page.
func (m Meta) Next() Params {
	return Params{Page: m.Page + 1, Limit: m.Limit}.Normalize()
}
