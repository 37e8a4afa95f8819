package twitter

import (
	"context"
	"iter"
	"net/http"
	"net/url"
	"strconv"
)

func cloneValues(v url.Values) url.Values {
	out := url.Values{}
	for k, vals := range v {
		out[k] = append([]string(nil), vals...)
	}
	return out
}

// Iterates over a cursor-paginated endpoint ("cursor" / "next_cursor"), fetching one page at a
// time as the sequence is consumed. A request error is yielded once and ends the sequence.
func cursorSeq[P any, T any](ctx context.Context, c *Client, endpoint string, params url.Values, items func(*P) ([]T, int64)) iter.Seq2[T, error] {
	return func(yield func(T, error) bool) {
		cursor := int64(-1)
		for {
			p := cloneValues(params)
			p.Set("cursor", strconv.FormatInt(cursor, 10))
			var page P
			err := c.Do(ctx, APIRequest{
				Method:      http.MethodGet,
				Endpoint:    endpoint,
				QueryParams: p,
			}, &page)
			if err != nil {
				var zero T
				yield(zero, err)
				return
			}
			list, next := items(&page)
			for _, item := range list {
				if !yield(item, nil) {
					return
				}
			}
			if next == 0 || len(list) == 0 {
				return
			}
			cursor = next
		}
	}
}
