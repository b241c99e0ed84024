package request

import (
	"strings"
	"testing"

	"github.com/JohannesLks/rawauth/pkg/config"
)

func TestBuildBasicGET(t *testing.T) {
	cfg := config.NewBag()
	spec := &Spec{Method: "GET", URI: "/index.html", VHost: "example.com"}

	raw, err := Build(cfg, spec)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	s := string(raw)
	if !strings.HasPrefix(s, "GET /index.html HTTP/1.1\r\n") {
		t.Fatalf("unexpected request line: %q", firstLine(s))
	}
	if !strings.Contains(s, "Host: example.com\r\n") {
		t.Errorf("missing Host header: %q", s)
	}
	if !strings.HasSuffix(s, "\r\n\r\n") {
		t.Errorf("expected request to end with blank line, got %q", s)
	}
}

func TestBuildRequestLinePadding(t *testing.T) {
	cfg := config.NewBag()
	_ = cfg.Set("pad_method_uri_type", "tab")
	cfg.SetInt("pad_method_uri_count", 3)

	spec := &Spec{Method: "GET", URI: "/"}
	raw, err := Build(cfg, spec)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	line := firstLine(string(raw))
	want := "GET\t\t\t/ HTTP/1.1"
	if line != want {
		t.Errorf("got %q, want %q", line, want)
	}
}

func TestBuildContentLength(t *testing.T) {
	cfg := config.NewBag()
	spec := &Spec{Method: "POST", URI: "/submit", Data: []byte("hello")}

	raw, err := Build(cfg, spec)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	s := string(raw)
	if !strings.Contains(s, "Content-Length: 5\r\n") {
		t.Errorf("missing correct Content-Length: %q", s)
	}
	if !strings.HasSuffix(s, "hello") {
		t.Errorf("missing body: %q", s)
	}
}

func TestBuildChunkedEncoding(t *testing.T) {
	cfg := config.NewBag()
	cfg.SetInt("chunked_size", 4)
	spec := &Spec{Method: "POST", URI: "/submit", Data: []byte("Wikipedia")}

	raw, err := Build(cfg, spec)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	s := string(raw)
	if !strings.Contains(s, "Transfer-Encoding: chunked\r\n") {
		t.Errorf("missing Transfer-Encoding header: %q", s)
	}
	if !strings.Contains(s, "4\r\nWiki\r\n") {
		t.Errorf("missing first chunk frame: %q", s)
	}
	if !strings.HasSuffix(s, "0\r\n\r\n") {
		t.Errorf("missing terminal chunk: %q", s)
	}
}

func TestBuildCGIInconsistentSpec(t *testing.T) {
	cfg := config.NewBag()
	spec := &Spec{Method: "GET", URI: "/", Query: "a=b", CGI: true}

	_, err := Build(cfg, spec)
	if err == nil {
		t.Fatal("expected InconsistentRequest error")
	}
	if _, ok := err.(*InconsistentRequest); !ok {
		t.Fatalf("expected *InconsistentRequest, got %T", err)
	}
}

func TestBuildCGIFormPost(t *testing.T) {
	cfg := config.NewBag()
	spec := &Spec{
		Method: "POST",
		URI:    "/submit",
		CGI:    true,
		VarsPost: []FormValue{
			{Name: "user", Values: []string{"alice"}},
		},
	}

	raw, err := Build(cfg, spec)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	s := string(raw)
	if !strings.Contains(s, "Content-Type: application/x-www-form-urlencoded\r\n") {
		t.Errorf("missing Content-Type: %q", s)
	}
	if !strings.HasSuffix(s, "user=alice") {
		t.Errorf("missing form body: %q", s)
	}
}

func TestBuildMethodRandomCase(t *testing.T) {
	cfg := config.NewBag()
	cfg.SetBool("method_random_case", true)
	spec := &Spec{Method: "GET", URI: "/"}

	raw, err := Build(cfg, spec)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	line := firstLine(string(raw))
	method := strings.Fields(line)[0]
	if !strings.EqualFold(method, "GET") {
		t.Errorf("method mangled beyond recognition: %q", method)
	}
}

func TestBuildSuppressesExpectWhenBodyDeferred(t *testing.T) {
	cfg := config.NewBag()
	headers := NewHeaders()
	headers.Set("Expect", "100-continue")
	spec := &Spec{Method: "POST", URI: "/", Headers: headers, NoBodyForAuth: true}

	raw, err := Build(cfg, spec)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.Contains(string(raw), "Expect:") {
		t.Errorf("Expect header should have been stripped on a deferred-body leg: %q", raw)
	}
}

func firstLine(s string) string {
	if i := strings.Index(s, "\r\n"); i >= 0 {
		return s[:i]
	}
	return s
}
