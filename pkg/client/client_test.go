package client

import "testing"

func TestParseMethod(t *testing.T) {
	cases := []struct {
		req  string
		want string
	}{
		{"GET / HTTP/1.1\r\n", "GET"},
		{"post /x HTTP/1.1\r\n", "POST"},
		{"", ""},
	}
	for _, c := range cases {
		if got := parseMethod([]byte(c.req)); got != c.want {
			t.Errorf("parseMethod(%q) = %q, want %q", c.req, got, c.want)
		}
	}
}
