package obs

import "testing"

func TestCanonicalPath(t *testing.T) {
	cases := map[string]string{
		"":                          "/",
		"/metrics":                  "/metrics",
		"/api/todos":                "/api/todos",
		"/api/todos/01HXYZ":         "/api/todos/:id",
		"/api/todos/01HXYZ/extra":   "/api/todos/01HXYZ/extra",
		"/api/todos?completed=true": "/api/todos",
		"/api/auth/me":              "/api/auth/me",
		"/api/csrf":                 "/api/csrf",
	}
	for input, expected := range cases {
		if got := CanonicalPath(input); got != expected {
			t.Fatalf("CanonicalPath(%q)=%q, want %q", input, got, expected)
		}
	}
}
