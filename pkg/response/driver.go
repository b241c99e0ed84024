package response

import (
	"bytes"
	"io"
	"net"
	"strings"
	"time"

	"github.com/JohannesLks/rawauth/pkg/constants"
)

// ReadResponse reads and incrementally parses one response from conn,
// applying the 100-Continue workaround and the text/html trickle
// tolerance once the status/header/body state machine completes.
//
// Timeout semantics match spec.md §4.D: envelopeTimeout < 0 means no
// deadline; envelopeTimeout == 0 means "do not read a response at all"
// (fire-and-forget); a positive value bounds the entire read, not each
// individual Read call. On an envelope timeout, a partial response is
// returned if partial is true, else nil. On a clean header truncation the
// response is discarded (nil, nil) per spec.md §4.C.
func ReadResponse(conn net.Conn, origMethod string, maxData int64, envelopeTimeout time.Duration, partial bool) (*Response, error) {
	return ReadResponseCapture(conn, origMethod, maxData, envelopeTimeout, partial, nil)
}

// ReadResponseCapture is ReadResponse with an additional best-effort sink
// that every raw byte read from conn is teed into (e.g. a buffer.Buffer),
// for callers that want the on-wire bytes alongside the parsed Response.
// A nil rawSink behaves exactly like ReadResponse. Write errors on rawSink
// are ignored: the parse must not fail because an observability sink did.
func ReadResponseCapture(conn net.Conn, origMethod string, maxData int64, envelopeTimeout time.Duration, partial bool, rawSink io.Writer) (*Response, error) {
	if envelopeTimeout == 0 {
		return nil, nil
	}
	return readOne(conn, origMethod, maxData, envelopeTimeout, partial, false, rawSink)
}

func readOne(conn net.Conn, origMethod string, maxData int64, envelopeTimeout time.Duration, partial, skip100 bool, rawSink io.Writer) (*Response, error) {
	setEnvelopeDeadline(conn, envelopeTimeout)

	parser := NewParser(origMethod, maxData)
	resp, timedOut, err := pump(conn, parser, rawSink)
	if err != nil {
		return nil, err
	}
	if resp == nil {
		// Header truncation: discard per spec.
		return nil, nil
	}
	if timedOut {
		if partial {
			return resp, nil
		}
		return nil, nil
	}
	if resp.State == StateError {
		return nil, nil
	}

	if !skip100 && resp.Version == "1.1" && resp.StatusCode == 100 {
		leftover := parser.Leftover()
		if len(leftover) > 0 && bytes.HasPrefix(leftover, []byte("HTTP/")) {
			return readSeeded(conn, origMethod, maxData, envelopeTimeout, partial, leftover, rawSink)
		}
		return readOne(conn, origMethod, maxData, envelopeTimeout, partial, true, rawSink)
	}

	applyTrickleTolerance(conn, resp)
	return resp, nil
}

// readSeeded continues parsing a response whose leading bytes (the 100
// Continue's misparsed "body") are already in hand.
func readSeeded(conn net.Conn, origMethod string, maxData int64, envelopeTimeout time.Duration, partial bool, seed []byte, rawSink io.Writer) (*Response, error) {
	parser := NewParser(origMethod, maxData)
	code, err := parser.Feed(seed)
	if err != nil {
		return nil, err
	}
	if code == CodeCompleted {
		resp := parser.Response()
		applyTrickleTolerance(conn, resp)
		return resp, nil
	}

	resp, timedOut, err := pump(conn, parser, rawSink)
	if err != nil {
		return nil, err
	}
	if resp == nil {
		return nil, nil
	}
	if timedOut {
		if partial {
			return resp, nil
		}
		return nil, nil
	}
	if resp.State == StateError {
		return nil, nil
	}
	applyTrickleTolerance(conn, resp)
	return resp, nil
}

// pump reads from conn until parser reaches Completed/Error, the envelope
// deadline trips, or the peer closes. resp is nil when the header block
// was truncated by EOF (the spec's "discard" case).
func pump(conn net.Conn, parser *Parser, rawSink io.Writer) (resp *Response, timedOut bool, err error) {
	buf := make([]byte, 32*1024)
	for {
		n, rerr := conn.Read(buf)
		if n > 0 {
			if rawSink != nil {
				rawSink.Write(buf[:n])
			}
			code, ferr := parser.Feed(buf[:n])
			if ferr != nil {
				return nil, false, ferr
			}
			if code == CodeCompleted || code == CodeError {
				return parser.Response(), false, nil
			}
		}
		if rerr != nil {
			if rerr == io.EOF {
				parser.FeedEOF()
				if parser.HeaderTruncated() {
					return nil, false, nil
				}
				return parser.Response(), false, nil
			}
			if ne, ok := rerr.(net.Error); ok && ne.Timeout() {
				return parser.Response(), true, nil
			}
			return nil, false, rerr
		}
	}
}

func setEnvelopeDeadline(conn net.Conn, t time.Duration) {
	if t > 0 {
		conn.SetReadDeadline(time.Now().Add(t))
	} else {
		conn.SetReadDeadline(time.Time{})
	}
}

// applyTrickleTolerance accommodates a text/html server that stopped
// writing before </html> without signaling Content-Length or closing the
// socket outright: keep reading short bursts for up to
// constants.MaxTrickleIterations iterations.
func applyTrickleTolerance(conn net.Conn, resp *Response) {
	if resp == nil || resp.State != StateCompleted {
		return
	}
	if _, ok := resp.Headers.Get("Content-Length"); ok {
		return
	}
	if _, ok := resp.Headers.Get("Transfer-Encoding"); ok {
		return
	}
	ct, _ := resp.Headers.Get("Content-Type")
	if !strings.HasPrefix(strings.ToLower(strings.TrimSpace(ct)), "text/html") {
		return
	}
	if bytes.Contains(bytes.ToLower(resp.Body), []byte("</html>")) {
		return
	}

	buf := make([]byte, 4096)
	for i := 0; i < constants.MaxTrickleIterations; i++ {
		conn.SetReadDeadline(time.Now().Add(constants.TrickleReadDelay))
		n, err := conn.Read(buf)
		if n > 0 {
			resp.Body = append(resp.Body, buf[:n]...)
			if bytes.Contains(bytes.ToLower(resp.Body), []byte("</html>")) {
				return
			}
			continue
		}
		if err != nil {
			return
		}
	}
}
