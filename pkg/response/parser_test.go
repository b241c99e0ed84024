package response

import (
	"bytes"
	"testing"
)

func parseAll(t *testing.T, origMethod string, maxData int64, raw []byte, chunkSize int) *Response {
	t.Helper()
	p := NewParser(origMethod, maxData)
	if chunkSize <= 0 {
		chunkSize = len(raw)
	}
	for i := 0; i < len(raw); i += chunkSize {
		end := i + chunkSize
		if end > len(raw) {
			end = len(raw)
		}
		code, err := p.Feed(raw[i:end])
		if err != nil {
			t.Fatalf("feed error: %v", err)
		}
		if code == CodeCompleted || code == CodeError {
			break
		}
	}
	return p.Response()
}

func TestChunkedBody(t *testing.T) {
	raw := []byte("HTTP/1.1 200 OK\r\nTransfer-Encoding: chunked\r\n\r\n4\r\nWiki\r\n5\r\npedia\r\n0\r\n\r\n")
	resp := parseAll(t, "GET", 0, raw, 0)

	if resp.State != StateCompleted {
		t.Fatalf("expected Completed, got %v", resp.State)
	}
	if string(resp.Body) != "Wikipedia" {
		t.Errorf("got body %q, want Wikipedia", resp.Body)
	}
}

func TestIncrementalEquivalence(t *testing.T) {
	raw := []byte("HTTP/1.1 200 OK\r\nTransfer-Encoding: chunked\r\n\r\n4\r\nWiki\r\n5\r\npedia\r\n0\r\n\r\n")

	whole := parseAll(t, "GET", 0, raw, 0)
	for chunkSize := 1; chunkSize <= len(raw); chunkSize++ {
		got := parseAll(t, "GET", 0, raw, chunkSize)
		if got.StatusCode != whole.StatusCode || string(got.Body) != string(whole.Body) || got.State != whole.State {
			t.Fatalf("chunkSize=%d: got (%d, %q, %v), want (%d, %q, %v)",
				chunkSize, got.StatusCode, got.Body, got.State, whole.StatusCode, whole.Body, whole.State)
		}
	}
}

func TestTruncatedCountedBody(t *testing.T) {
	raw := []byte("HTTP/1.1 200 OK\r\nContent-Length: 100\r\n\r\nshort")
	p := NewParser("GET", 0)
	code, err := p.Feed(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if code != CodeNeedMore {
		t.Fatalf("expected NeedMore before EOF, got %v", code)
	}

	code, err = p.FeedEOF()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if code != CodeCompleted {
		t.Fatalf("expected Completed on EOF mid-body, got %v", code)
	}

	resp := p.Response()
	if string(resp.Body) != "short" {
		t.Errorf("got body %q, want short", resp.Body)
	}
	if resp.Error != ErrorTruncated {
		t.Errorf("got error %v, want truncated", resp.Error)
	}
}

func TestHeaderTruncationDiscardsResponse(t *testing.T) {
	p := NewParser("GET", 0)
	_, err := p.Feed([]byte("HTTP/1.1 200 OK\r\nContent-Typ"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	_, _ = p.FeedEOF()
	if !p.HeaderTruncated() {
		t.Error("expected HeaderTruncated to be true on EOF mid-headers")
	}
}

func TestFoldedHeaderContinuation(t *testing.T) {
	raw := []byte("HTTP/1.1 401 Unauthorized\r\nWWW-Authenticate: NTLM\r\n , Digest realm=\"r\", nonce=\"n\", qop=\"auth\"\r\nContent-Length: 0\r\n\r\n")
	resp := parseAll(t, "GET", 0, raw, 0)

	val, ok := resp.Headers.Get("WWW-Authenticate")
	if !ok {
		t.Fatal("missing WWW-Authenticate header")
	}
	if !bytes.Contains([]byte(val), []byte("Digest realm=")) {
		t.Errorf("fold did not merge continuation: %q", val)
	}
}

func TestMaxDataCap(t *testing.T) {
	raw := []byte("HTTP/1.1 200 OK\r\nContent-Length: 10\r\n\r\n0123456789")
	resp := parseAll(t, "GET", 5, raw, 0)

	if resp.State != StateCompleted {
		t.Fatalf("expected Completed, got %v", resp.State)
	}
	if len(resp.Body) != 5 {
		t.Errorf("got body len %d, want 5 (capped)", len(resp.Body))
	}
}

func TestHeadRequestNoBody(t *testing.T) {
	raw := []byte("HTTP/1.1 200 OK\r\nContent-Length: 10\r\n\r\n")
	resp := parseAll(t, "HEAD", 0, raw, 0)

	if resp.State != StateCompleted {
		t.Fatalf("expected Completed, got %v", resp.State)
	}
	if len(resp.Body) != 0 {
		t.Errorf("HEAD response should have no body, got %q", resp.Body)
	}
}

func TestMalformedStatusLineEntersError(t *testing.T) {
	p := NewParser("GET", 0)
	code, err := p.Feed([]byte("NOT A STATUS LINE\r\n"))
	if err == nil {
		t.Fatal("expected malformed status line error")
	}
	if code != CodeError {
		t.Fatalf("got %v, want CodeError", code)
	}
	if p.Response().State != StateError {
		t.Errorf("got state %v, want Error", p.Response().State)
	}
}
