package supabase

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

// ErrNoRows is returned by Single queries that matched nothing.
var ErrNoRows = errors.New("supabase: no rows")

// Query is a PostgREST request under construction. Filters are added in
// call order; Execute sends it.
type Query struct {
	c      *Client
	table  string
	method string
	params url.Values
	body   any
	prefer []string
	single bool
}

func (c *Client) From(table string) *Query {
	return &Query{c: c, table: table, method: http.MethodGet, params: url.Values{}}
}

func (q *Query) Select(columns string) *Query {
	q.params.Set("select", columns)
	return q
}

func (q *Query) Eq(column, value string) *Query {
	q.params.Add(column, "eq."+value)
	return q
}

func (q *Query) ILike(column, pattern string) *Query {
	q.params.Add(column, "ilike."+pattern)
	return q
}

// Or adds a disjunction of filters built with the *Filter helpers.
func (q *Query) Or(filters ...string) *Query {
	q.params.Add("or", "("+strings.Join(filters, ",")+")")
	return q
}

func (q *Query) Order(column string, ascending bool) *Query {
	dir := "desc"
	if ascending {
		dir = "asc"
	}
	q.params.Set("order", column+"."+dir)
	return q
}

func (q *Query) Limit(n int) *Query {
	q.params.Set("limit", strconv.Itoa(n))
	return q
}

func (q *Query) Insert(row any) *Query {
	q.method = http.MethodPost
	q.body = row
	q.prefer = append(q.prefer, "return=representation")
	return q
}

func (q *Query) Update(columns any) *Query {
	q.method = http.MethodPatch
	q.body = columns
	q.prefer = append(q.prefer, "return=representation")
	return q
}

func (q *Query) Delete() *Query {
	q.method = http.MethodDelete
	q.prefer = append(q.prefer, "return=representation")
	return q
}

// Single asks for exactly one row; zero rows yield ErrNoRows.
func (q *Query) Single() *Query {
	q.single = true
	return q
}

// Execute sends the query as the current session (or anonymously) and
// decodes the representation into out.
func (q *Query) Execute(ctx context.Context, out any) error {
	token, err := q.c.Auth.accessToken(ctx)
	if err != nil {
		return err
	}
	headers := http.Header{}
	if len(q.prefer) > 0 {
		headers.Set("Prefer", strings.Join(q.prefer, ","))
	}
	if q.single {
		headers.Set("Accept", "application/vnd.pgrst.object+json")
	}
	_, err = q.c.do(ctx, request{
		method:  q.method,
		path:    "/rest/v1/" + q.table,
		query:   q.params,
		body:    q.body,
		token:   token,
		headers: headers,
	}, out)
	var apiErr *APIError
	if q.single && errors.As(err, &apiErr) && (apiErr.Code == "PGRST116" || apiErr.Status == http.StatusNotAcceptable) {
		return ErrNoRows
	}
	return err
}

// Count returns the number of rows matching the filters.
func (q *Query) Count(ctx context.Context) (int, error) {
	token, err := q.c.Auth.accessToken(ctx)
	if err != nil {
		return 0, err
	}
	headers := http.Header{}
	headers.Set("Prefer", "count=exact")
	resp, err := q.c.do(ctx, request{
		method:  http.MethodHead,
		path:    "/rest/v1/" + q.table,
		query:   q.params,
		token:   token,
		headers: headers,
	}, nil)
	if err != nil {
		return 0, err
	}
	return parseContentRange(resp.Header.Get("Content-Range"))
}

// parseContentRange reads the total from "0-24/100" or "*/0".
func parseContentRange(v string) (int, error) {
	_, total, ok := strings.Cut(v, "/")
	if !ok || total == "*" {
		return 0, fmt.Errorf("supabase: no count in content-range %q", v)
	}
	return strconv.Atoi(total)
}

// Quote makes value safe to embed in a PostgREST filter expression.
func Quote(value string) string {
	r := strings.NewReplacer(`\`, `\\`, `"`, `\"`)
	return `"` + r.Replace(value) + `"`
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// ILikeFilter renders column.ilike."*value*" for use in Or. The LIKE
// wildcards % and _ in value match literally.
func ILikeFilter(column, value string) string {
	return column + ".ilike." + Quote("*"+likeEscaper.Replace(value)+"*")
}
