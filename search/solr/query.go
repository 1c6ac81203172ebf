package solr

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/trc-platform/trc/search"
)

// Query describes a select request.
type Query struct {
	Q       string
	Filters []string
	Start   int
	Rows    int
	Sort    string
	Fields  []string
}

// Result is the response section of a select response.
type Result struct {
	NumFound int64             `json:"numFound"`
	Start    int64             `json:"start"`
	Docs     []search.Document `json:"docs"`
}

type selectResponse struct {
	Response Result `json:"response"`
}

func (q Query) params() url.Values {
	params := url.Values{"wt": {"json"}}

	if q.Q == "" {
		params.Set("q", "*:*")
	} else {
		params.Set("q", q.Q)
	}

	for _, filter := range q.Filters {
		params.Add("fq", filter)
	}

	if q.Start > 0 {
		params.Set("start", strconv.Itoa(q.Start))
	}

	if q.Rows > 0 {
		params.Set("rows", strconv.Itoa(q.Rows))
	}

	if q.Sort != "" {
		params.Set("sort", q.Sort)
	}

	if len(q.Fields) > 0 {
		params.Set("fl", strings.Join(q.Fields, ","))
	}

	return params
}

// Query runs q against core.
func (c *Client) Query(ctx context.Context, core string, q Query) (Result, error) {
	var resp selectResponse
	if err := c.do(ctx, http.MethodGet, core, "/select", q.params(), nil, &resp); err != nil {
		return Result{}, err
	}

	if resp.Response.Docs == nil {
		resp.Response.Docs = []search.Document{}
	}

	return resp.Response, nil
}
