// Package supabasetest runs an in-memory stand-in for the parts of a
// Supabase project the client uses: PostgREST tables and GoTrue password
// auth. It is meant for tests only.
package supabasetest

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

const (
	// Key is the anon key the server accepts.
	Key = "anon-test-key"

	timeLayout = "2006-01-02T15:04:05.000000Z07:00"
)

type Request struct {
	Method        string
	Path          string
	Query         url.Values
	Authorization string
	Prefer        string
	Accept        string
}

type user struct {
	id       string
	email    string
	password string
	metadata map[string]any
}

type Server struct {
	*httptest.Server

	// RequireConfirmation makes sign-up return a bare user without a session.
	RequireConfirmation bool
	// ExpiresIn is the lifetime of issued access tokens, in seconds.
	ExpiresIn int

	mu        sync.Mutex
	tables    map[string][]map[string]any
	users     map[string]*user
	access    map[string]string
	refresh   map[string]string
	requests  []Request
	recovered []string
	last      time.Time
	seq       int
}

func New() *Server {
	s := &Server{
		ExpiresIn: 3600,
		tables:    map[string][]map[string]any{},
		users:     map[string]*user{},
		access:    map[string]string{},
		refresh:   map[string]string{},
	}
	s.Server = httptest.NewServer(http.HandlerFunc(s.serve))
	return s
}

// Seed inserts rows as-is. Values go through a JSON round-trip so they
// compare like decoded request bodies.
func (s *Server) Seed(table string, rows ...any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range rows {
		s.tables[table] = append(s.tables[table], normalise(r))
	}
}

func (s *Server) Rows(table string) []map[string]any {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]map[string]any(nil), s.tables[table]...)
}

// AddUser registers a confirmed user and returns its id.
func (s *Server) AddUser(email, password, displayName string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addUser(email, password, map[string]any{"display_name": displayName}).id
}

func (s *Server) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Request(nil), s.requests...)
}

// RecoveryEmails lists addresses a password reset was requested for.
func (s *Server) RecoveryEmails() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.recovered...)
}

// RevokeRefreshTokens invalidates every refresh token issued so far.
func (s *Server) RevokeRefreshTokens() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.refresh = map[string]string{}
}

func (s *Server) addUser(email, password string, metadata map[string]any) *user {
	if metadata == nil {
		metadata = map[string]any{}
	}
	u := &user{id: uuid.NewString(), email: email, password: password, metadata: metadata}
	s.users[email] = u
	return u
}

func (s *Server) serve(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.requests = append(s.requests, Request{
		Method:        r.Method,
		Path:          r.URL.Path,
		Query:         r.URL.Query(),
		Authorization: r.Header.Get("Authorization"),
		Prefer:        r.Header.Get("Prefer"),
		Accept:        r.Header.Get("Accept"),
	})

	if r.Header.Get("apikey") != Key {
		writeJSON(w, http.StatusUnauthorized, map[string]any{"message": "Invalid API key"})
		return
	}

	switch {
	case strings.HasPrefix(r.URL.Path, "/auth/v1/"):
		s.serveAuth(w, r, strings.TrimPrefix(r.URL.Path, "/auth/v1/"))
	case strings.HasPrefix(r.URL.Path, "/rest/v1/"):
		s.serveRest(w, r, strings.TrimPrefix(r.URL.Path, "/rest/v1/"))
	default:
		http.NotFound(w, r)
	}
}

func (s *Server) caller(r *http.Request) *user {
	token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
	id, ok := s.access[token]
	if !ok {
		return nil
	}
	for _, u := range s.users {
		if u.id == id {
			return u
		}
	}
	return nil
}

func (s *Server) serveAuth(w http.ResponseWriter, r *http.Request, path string) {
	var body map[string]any
	if r.Body != nil {
		_ = json.NewDecoder(r.Body).Decode(&body)
	}
	str := func(k string) string { v, _ := body[k].(string); return v }

	switch {
	case path == "health" && r.Method == http.MethodGet:
		writeJSON(w, http.StatusOK, map[string]any{"name": "GoTrue", "description": "fake"})

	case path == "signup" && r.Method == http.MethodPost:
		if _, exists := s.users[str("email")]; exists {
			writeJSON(w, http.StatusUnprocessableEntity, map[string]any{"code": 422, "error_code": "user_already_exists", "msg": "User already registered"})
			return
		}
		data, _ := body["data"].(map[string]any)
		u := s.addUser(str("email"), str("password"), data)
		if s.RequireConfirmation {
			writeJSON(w, http.StatusOK, userJSON(u))
			return
		}
		writeJSON(w, http.StatusOK, s.issue(u))

	case path == "token" && r.Method == http.MethodPost:
		switch r.URL.Query().Get("grant_type") {
		case "password":
			u, ok := s.users[str("email")]
			if !ok || u.password != str("password") {
				writeJSON(w, http.StatusBadRequest, map[string]any{"error": "invalid_grant", "error_description": "Invalid login credentials"})
				return
			}
			writeJSON(w, http.StatusOK, s.issue(u))
		case "refresh_token":
			id, ok := s.refresh[str("refresh_token")]
			if !ok {
				writeJSON(w, http.StatusBadRequest, map[string]any{"error": "invalid_grant", "error_description": "Invalid Refresh Token"})
				return
			}
			delete(s.refresh, str("refresh_token"))
			for _, u := range s.users {
				if u.id == id {
					writeJSON(w, http.StatusOK, s.issue(u))
					return
				}
			}
			writeJSON(w, http.StatusBadRequest, map[string]any{"error": "invalid_grant"})
		default:
			writeJSON(w, http.StatusBadRequest, map[string]any{"error": "unsupported_grant_type"})
		}

	case path == "logout" && r.Method == http.MethodPost:
		token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
		if _, ok := s.access[token]; !ok {
			writeJSON(w, http.StatusUnauthorized, map[string]any{"msg": "invalid JWT"})
			return
		}
		delete(s.access, token)
		w.WriteHeader(http.StatusNoContent)

	case path == "recover" && r.Method == http.MethodPost:
		s.recovered = append(s.recovered, str("email"))
		writeJSON(w, http.StatusOK, map[string]any{})

	case path == "user" && r.Method == http.MethodGet:
		u := s.caller(r)
		if u == nil {
			writeJSON(w, http.StatusUnauthorized, map[string]any{"msg": "invalid JWT"})
			return
		}
		writeJSON(w, http.StatusOK, userJSON(u))

	default:
		http.NotFound(w, r)
	}
}

func (s *Server) issue(u *user) map[string]any {
	s.seq++
	access := fmt.Sprintf("access-%d", s.seq)
	refresh := fmt.Sprintf("refresh-%d", s.seq)
	s.access[access] = u.id
	s.refresh[refresh] = u.id
	return map[string]any{
		"access_token":  access,
		"token_type":    "bearer",
		"expires_in":    s.ExpiresIn,
		"refresh_token": refresh,
		"user":          userJSON(u),
	}
}

func userJSON(u *user) map[string]any {
	return map[string]any{"id": u.id, "email": u.email, "user_metadata": u.metadata}
}

func (s *Server) now() string {
	t := time.Now().UTC()
	if !t.After(s.last) {
		t = s.last.Add(time.Microsecond)
	}
	s.last = t
	return t.Format(timeLayout)
}

func (s *Server) serveRest(w http.ResponseWriter, r *http.Request, table string) {
	query := r.URL.Query()
	single := r.Header.Get("Accept") == "application/vnd.pgrst.object+json"

	switch r.Method {
	case http.MethodGet, http.MethodHead:
		rows := s.matching(table, query)
		sortRows(rows, query.Get("order"))
		if l := query.Get("limit"); l != "" {
			if n, err := strconv.Atoi(l); err == nil && n < len(rows) {
				rows = rows[:n]
			}
		}
		if r.Method == http.MethodHead {
			if len(rows) == 0 {
				w.Header().Set("Content-Range", "*/0")
			} else {
				w.Header().Set("Content-Range", fmt.Sprintf("0-%d/%d", len(rows)-1, len(rows)))
			}
			w.WriteHeader(http.StatusOK)
			return
		}
		s.writeRows(w, http.StatusOK, rows, single)

	case http.MethodPost:
		raw, _ := io.ReadAll(r.Body)
		var many []map[string]any
		if err := json.Unmarshal(raw, &many); err != nil {
			var one map[string]any
			if err := json.Unmarshal(raw, &one); err != nil {
				writeJSON(w, http.StatusBadRequest, map[string]any{"code": "PGRST102", "message": "Empty or invalid json"})
				return
			}
			many = []map[string]any{one}
		}
		created := make([]map[string]any, 0, len(many))
		for _, row := range many {
			if _, ok := row["id"]; !ok {
				row["id"] = uuid.NewString()
			}
			ts := s.now()
			row["created_at"] = ts
			row["updated_at"] = ts
			s.tables[table] = append(s.tables[table], row)
			created = append(created, row)
		}
		s.writeRows(w, http.StatusCreated, created, single)

	case http.MethodPatch:
		var patch map[string]any
		if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]any{"code": "PGRST102", "message": "Empty or invalid json"})
			return
		}
		updated := []map[string]any{}
		for _, row := range s.tables[table] {
			if !matchesAll(row, query) {
				continue
			}
			for k, v := range patch {
				row[k] = v
			}
			row["updated_at"] = s.now()
			updated = append(updated, row)
		}
		s.writeRows(w, http.StatusOK, updated, single)

	case http.MethodDelete:
		kept := []map[string]any{}
		removed := []map[string]any{}
		for _, row := range s.tables[table] {
			if matchesAll(row, query) {
				removed = append(removed, row)
			} else {
				kept = append(kept, row)
			}
		}
		s.tables[table] = kept
		s.writeRows(w, http.StatusOK, removed, single)

	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (s *Server) writeRows(w http.ResponseWriter, status int, rows []map[string]any, single bool) {
	if !single {
		writeJSON(w, status, rows)
		return
	}
	if len(rows) != 1 {
		writeJSON(w, http.StatusNotAcceptable, map[string]any{
			"code":    "PGRST116",
			"message": "JSON object requested, multiple (or no) rows returned",
			"details": fmt.Sprintf("The result contains %d rows", len(rows)),
		})
		return
	}
	writeJSON(w, status, rows[0])
}

func (s *Server) matching(table string, query url.Values) []map[string]any {
	out := []map[string]any{}
	for _, row := range s.tables[table] {
		if matchesAll(row, query) {
			out = append(out, row)
		}
	}
	return out
}

var reserved = map[string]bool{"select": true, "order": true, "limit": true, "offset": true}

func matchesAll(row map[string]any, query url.Values) bool {
	for key, values := range query {
		if reserved[key] {
			continue
		}
		for _, v := range values {
			if key == "or" {
				if !matchesAny(row, v) {
					return false
				}
				continue
			}
			if !matchOp(row[key], v) {
				return false
			}
		}
	}
	return true
}

func matchesAny(row map[string]any, expr string) bool {
	expr = strings.TrimSuffix(strings.TrimPrefix(expr, "("), ")")
	for _, f := range splitTopLevel(expr) {
		col, rest, ok := strings.Cut(f, ".")
		if ok && matchOp(row[col], rest) {
			return true
		}
	}
	return false
}

// splitTopLevel splits on commas outside quotes.
func splitTopLevel(s string) []string {
	var parts []string
	var cur strings.Builder
	quoted, escaped := false, false
	for _, r := range s {
		switch {
		case escaped:
			escaped = false
		case r == '\\' && quoted:
			escaped = true
		case r == '"':
			quoted = !quoted
		case r == ',' && !quoted:
			parts = append(parts, cur.String())
			cur.Reset()
			continue
		}
		cur.WriteRune(r)
	}
	return append(parts, cur.String())
}

func unquote(v string) string {
	if len(v) >= 2 && v[0] == '"' && v[len(v)-1] == '"' {
		v = v[1 : len(v)-1]
		return strings.NewReplacer(`\"`, `"`, `\\`, `\`).Replace(v)
	}
	return v
}

func matchOp(value any, opValue string) bool {
	op, arg, _ := strings.Cut(opValue, ".")
	switch op {
	case "eq":
		return scalar(value) == unquote(arg)
	case "neq":
		return scalar(value) != unquote(arg)
	case "is":
		return scalar(value) == arg
	case "ilike":
		s, ok := value.(string)
		return ok && likePattern(unquote(arg)).MatchString(s)
	}
	return false
}

// likePattern turns an ilike pattern into an anchored regexp. * and % match
// any run, _ matches one character and a backslash escapes the next byte.
func likePattern(p string) *regexp.Regexp {
	var b strings.Builder
	b.WriteString("(?is)^")
	for i := 0; i < len(p); i++ {
		switch ch := p[i]; {
		case ch == '\\' && i+1 < len(p):
			i++
			b.WriteString(regexp.QuoteMeta(p[i : i+1]))
		case ch == '*' || ch == '%':
			b.WriteString(".*")
		case ch == '_':
			b.WriteString(".")
		default:
			b.WriteString(regexp.QuoteMeta(p[i : i+1]))
		}
	}
	b.WriteString("$")
	return regexp.MustCompile(b.String())
}

func scalar(v any) string {
	switch t := v.(type) {
	case nil:
		return "null"
	case string:
		return t
	case bool:
		return strconv.FormatBool(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return fmt.Sprint(t)
	}
}

func sortRows(rows []map[string]any, order string) {
	if order == "" {
		return
	}
	col, dir, _ := strings.Cut(order, ".")
	sort.SliceStable(rows, func(i, j int) bool {
		a, b := scalar(rows[i][col]), scalar(rows[j][col])
		if dir == "desc" {
			return a > b
		}
		return a < b
	})
}

func normalise(v any) map[string]any {
	b, _ := json.Marshal(v)
	var m map[string]any
	_ = json.Unmarshal(b, &m)
	return m
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
