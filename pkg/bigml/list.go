package bigml

import (
	"context"
	"fmt"
	"net/http"

	"github.com/tidwall/gjson"
)

const PageLength = 200

type ListMeta struct {
	Limit      int
	Offset     int
	TotalCount int
	Next       string
}

type ListResult struct {
	Meta    ListMeta
	Objects []gjson.Result
}

// List returns one page of resources of type t filtered by query.
func (c *Client) List(ctx context.Context, t ResourceType, query string) (*ListResult, error) {
	resource, err := c.call(ctx, http.MethodGet, string(t), query, nil, "", http.StatusOK)
	if err != nil {
		return nil, err
	}

	result := &ListResult{
		Meta: ListMeta{
			Limit:      int(resource.Get("meta.limit").Int()),
			Offset:     int(resource.Get("meta.offset").Int()),
			TotalCount: int(resource.Get("meta.total_count").Int()),
			Next:       resource.Get("meta.next").String(),
		},
		Objects: resource.Get("objects").Array(),
	}
	return result, nil
}

// ListIDs pages through every resource of type t matching query and returns
// their ids. A nil status lists any status.
func (c *Client) ListIDs(ctx context.Context, t ResourceType, query string, status *StatusCode) ([]string, error) {
	var ids []string
	offset := 0
	for {
		q := fmt.Sprintf("limit=%d;offset=%d", PageLength, offset)
		if status != nil {
			q = fmt.Sprintf("status.code=%d;%s", int(*status), q)
		}
		if query != "" {
			q += ";" + query
		}

		page, err := c.List(ctx, t, q)
		if err != nil {
			return nil, err
		}
		for _, object := range page.Objects {
			ids = append(ids, object.Get("resource").String())
		}

		offset += PageLength
		if len(page.Objects) == 0 || offset >= page.Meta.TotalCount {
			break
		}
	}

	return ids, nil
}

// LastResourceID returns the most recently created resource of type t that
// matches query, or "" when there is none.
func (c *Client) LastResourceID(ctx context.Context, t ResourceType, query string) (string, error) {
	q := "limit=1;order_by=-created"
	if query != "" {
		q += ";" + query
	}
	page, err := c.List(ctx, t, q)
	if err != nil {
		return "", err
	}
	if len(page.Objects) == 0 {
		return "", nil
	}
	return page.Objects[0].Get("resource").String(), nil
}
