package supabase_test

import (
	"testing"

	"go.uber.org/goleak"
)

// Auth subscriptions run their own goroutines; every test must stop them.
func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m,
		goleak.IgnoreAnyFunction("net/http.(*persistConn).readLoop"),
		goleak.IgnoreAnyFunction("net/http.(*persistConn).writeLoop"),
	)
}
