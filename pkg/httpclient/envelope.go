package httpclient

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/smhassan90/salaahManager/pkg/pagination"
)

// Envelope is the wrapper around every backend response body.
type Envelope[T any] struct {
	Success    bool             `json:"success"`
	Data       T                `json:"data"`
	Message    string           `json:"message"`
	Pagination *pagination.Meta `json:"pagination,omitempty"`
}

// Doer sends a logical request. *Client implements it.
type Doer interface {
	Do(ctx context.Context, req *Request) (*Response, error)
}

// Decode unwraps the envelope in resp. An empty body yields a zero envelope
// marked successful.
func Decode[T any](resp *Response) (*Envelope[T], error) {
	env := &Envelope[T]{}
	if len(resp.Body) == 0 {
		env.Success = true
		return env, nil
	}
	if err := json.Unmarshal(resp.Body, env); err != nil {
		return nil, fmt.Errorf("decode response envelope: %w", err)
	}
	return env, nil
}

// Call sends req through d and decodes the envelope's data as T.
func Call[T any](ctx context.Context, d Doer, req *Request) (*Envelope[T], error) {
	resp, err := d.Do(ctx, req)
	if err != nil {
		return nil, err
	}
	return Decode[T](resp)
}
