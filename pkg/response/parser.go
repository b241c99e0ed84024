package response

import (
	"bytes"
	"strconv"
	"strings"
)

type bodyMode int

const (
	bodyModeNone bodyMode = iota
	bodyModeChunked
	bodyModeCounted
	bodyModeUntilClose
)

type chunkPhase int

const (
	chunkPhaseSize chunkPhase = iota
	chunkPhaseData
	chunkPhaseDataCRLF
	chunkPhaseTrailer
)

// Parser is a push-based HTTP/1.x response state machine. Feed is the only
// entry point for bytes; the parser never blocks or reads a socket itself
// (spec.md §9's "exception-driven control flow → explicit ReadOutcome"
// redesign lives one layer up, in ReadResponse).
type Parser struct {
	state State
	// statusBuf holds partial status-line bytes while state==AwaitingStatus.
	// bufq holds residual unparsed bytes for every later state. Keeping
	// them separate is what lets bufq satisfy the stated invariant: it is
	// empty exactly in {Completed, Error, AwaitingStatus}.
	statusBuf []byte
	bufq      []byte
	resp      *Response

	mode          bodyMode
	remaining     int64 // counted-mode bytes left to read
	chunkPhase    chunkPhase
	chunkDataLeft int64

	leftover []byte // bytes beyond this response's end, e.g. a pipelined next status line

	headerTruncated bool // FeedEOF arrived before the header block closed
}

// HeaderTruncated reports whether the connection closed before the header
// block finished — the spec's "discard the response" case, as distinct
// from a body-phase truncation (which returns a partial Response).
func (p *Parser) HeaderTruncated() bool {
	return p.headerTruncated
}

// NewParser starts a fresh parser for a response to a request with the
// given method (HEAD suppresses a body per spec.md §4.C) and a max_data
// cap (0 means unbounded).
func NewParser(origMethod string, maxData int64) *Parser {
	return &Parser{
		state: StateAwaitingStatus,
		resp:  newResponse(origMethod, maxData),
	}
}

// Response returns the in-progress or finished Response. Valid to call at
// any point, including mid-parse.
func (p *Parser) Response() *Response {
	return p.resp
}

// Leftover returns bytes fed past the end of this response (e.g. the next
// pipelined response's status line, or a 100-Continue's embedded body).
// Drained on each call.
func (p *Parser) Leftover() []byte {
	l := p.leftover
	p.leftover = nil
	return l
}

// Feed appends chunk to the residual buffer and advances the state machine
// as far as possible. Per the monotonicity invariant, bytes fed after
// Completed/Error are ignored (accumulated into Leftover instead).
func (p *Parser) Feed(chunk []byte) (Code, error) {
	if p.state == StateCompleted || p.state == StateError {
		p.leftover = append(p.leftover, chunk...)
		return terminalCode(p.state), nil
	}

	if p.state == StateAwaitingStatus {
		p.statusBuf = append(p.statusBuf, chunk...)
	} else {
		p.bufq = append(p.bufq, chunk...)
	}

	for {
		progressed, code, err := p.step()
		if err != nil {
			p.fail()
			return CodeError, err
		}
		if code != CodeNeedMore {
			return code, nil
		}
		if !progressed {
			return CodeNeedMore, nil
		}
	}
}

// FeedEOF signals the underlying transport closed. Implements spec.md
// §4.C's truncation rule: discard in ProcessingHeader, mark truncated in
// ProcessingBody, complete cleanly in read-until-close mode.
func (p *Parser) FeedEOF() (Code, error) {
	switch p.state {
	case StateAwaitingStatus, StateProcessingHeader:
		p.state = StateError
		p.resp.State = StateError
		p.resp.Error = ErrorTruncated
		p.headerTruncated = true
		p.bufq = nil
		p.statusBuf = nil
		return CodeError, nil
	case StateProcessingBody:
		if p.mode == bodyModeUntilClose {
			p.state = StateCompleted
			p.resp.State = StateCompleted
			p.bufq = nil
			return CodeCompleted, nil
		}
		p.resp.Error = ErrorTruncated
		p.state = StateCompleted
		p.resp.State = StateCompleted
		p.bufq = nil
		return CodeCompleted, nil
	default:
		return terminalCode(p.state), nil
	}
}

func terminalCode(s State) Code {
	if s == StateError {
		return CodeError
	}
	return CodeCompleted
}

func (p *Parser) fail() {
	p.state = StateError
	p.resp.State = StateError
	if p.resp.Error == ErrorNone {
		p.resp.Error = ErrorParseError
	}
	p.bufq = nil
	p.statusBuf = nil
}

// step attempts one unit of progress (one line, one chunk frame, or one
// span of counted/until-close body bytes). progressed=false means bufq
// held an incomplete unit and the caller should wait for more Feed calls.
func (p *Parser) step() (progressed bool, code Code, err error) {
	switch p.state {
	case StateAwaitingStatus:
		return p.stepStatusLine()
	case StateProcessingHeader:
		return p.stepHeaderLine()
	case StateProcessingBody:
		return p.stepBody()
	default:
		return false, terminalCode(p.state), nil
	}
}

// takeLine pulls one CRLF/LF-terminated line from the buffer appropriate to
// the current state (statusBuf while AwaitingStatus, bufq afterward).
func (p *Parser) takeLine() (line string, ok bool) {
	buf := &p.bufq
	if p.state == StateAwaitingStatus {
		buf = &p.statusBuf
	}
	idx := bytes.IndexByte(*buf, '\n')
	if idx < 0 {
		return "", false
	}
	raw := (*buf)[:idx]
	raw = bytes.TrimSuffix(raw, []byte("\r"))
	*buf = (*buf)[idx+1:]
	return string(raw), true
}

func (p *Parser) stepStatusLine() (bool, Code, error) {
	line, ok := p.takeLine()
	if !ok {
		return false, CodeNeedMore, nil
	}

	proto, version, code, reason, ok := parseStatusLine(line)
	if !ok {
		return true, CodeError, errStatusLineMalformed(line)
	}

	p.resp.Protocol = proto
	p.resp.Version = version
	p.resp.StatusCode = code
	p.resp.Reason = reason
	p.state = StateProcessingHeader
	p.resp.State = StateProcessingHeader

	// Anything left after the status line belongs to the header block;
	// statusBuf must return to empty now that we've left AwaitingStatus.
	if len(p.statusBuf) > 0 {
		p.bufq = append(p.bufq, p.statusBuf...)
		p.statusBuf = nil
	}
	return true, CodeNeedMore, nil
}

func parseStatusLine(line string) (proto, version string, code int, reason string, ok bool) {
	// "HTTP/1.1 200 OK"
	parts := strings.SplitN(line, " ", 3)
	if len(parts) < 2 {
		return "", "", 0, "", false
	}
	protoVer := parts[0]
	pv := strings.SplitN(protoVer, "/", 2)
	if len(pv) != 2 || pv[0] != "HTTP" {
		return "", "", 0, "", false
	}
	n, err := strconv.Atoi(parts[1])
	if err != nil {
		return "", "", 0, "", false
	}
	r := ""
	if len(parts) == 3 {
		r = parts[2]
	}
	return pv[0], pv[1], n, r, true
}

func (p *Parser) stepHeaderLine() (bool, Code, error) {
	line, ok := p.takeLine()
	if !ok {
		return false, CodeNeedMore, nil
	}

	if line == "" {
		p.onHeadersComplete()
		return true, CodeNeedMore, nil
	}

	if len(line) > 0 && (line[0] == ' ' || line[0] == '\t') {
		p.resp.Headers.FoldLast(strings.TrimSpace(line))
		return true, CodeNeedMore, nil
	}

	colon := strings.IndexByte(line, ':')
	if colon < 0 {
		return true, CodeError, errStatusLineMalformed(line)
	}
	name := strings.TrimSpace(line[:colon])
	value := strings.TrimSpace(line[colon+1:])
	p.resp.Headers.Add(name, value)
	return true, CodeNeedMore, nil
}

func (p *Parser) onHeadersComplete() {
	if p.resp.noBodyExpected() {
		p.completeBody()
		return
	}

	if te, ok := p.resp.Headers.Get("Transfer-Encoding"); ok && strings.Contains(strings.ToLower(te), "chunked") {
		p.mode = bodyModeChunked
		p.chunkPhase = chunkPhaseSize
		p.state = StateProcessingBody
		p.resp.State = StateProcessingBody
		return
	}

	if cl, ok := p.resp.Headers.Get("Content-Length"); ok {
		n, err := strconv.ParseInt(strings.TrimSpace(cl), 10, 64)
		if err != nil || n < 0 {
			n = 0
		}
		p.mode = bodyModeCounted
		p.remaining = n
		if n == 0 {
			p.completeBody()
			return
		}
		p.state = StateProcessingBody
		p.resp.State = StateProcessingBody
		return
	}

	p.mode = bodyModeUntilClose
	p.state = StateProcessingBody
	p.resp.State = StateProcessingBody
}

func (p *Parser) stepBody() (bool, Code, error) {
	switch p.mode {
	case bodyModeCounted:
		return p.stepCountedBody()
	case bodyModeChunked:
		return p.stepChunkedBody()
	case bodyModeUntilClose:
		return p.stepUntilCloseBody()
	default:
		p.completeBody()
		return true, CodeCompleted, nil
	}
}

func (p *Parser) appendBody(b []byte) (capped bool) {
	if p.resp.MaxData > 0 {
		room := p.resp.MaxData - int64(len(p.resp.Body))
		if room <= 0 {
			return true
		}
		if int64(len(b)) > room {
			b = b[:room]
			p.resp.Body = append(p.resp.Body, b...)
			return true
		}
	}
	p.resp.Body = append(p.resp.Body, b...)
	return false
}

func (p *Parser) stepCountedBody() (bool, Code, error) {
	if p.remaining <= 0 {
		p.completeBody()
		return true, CodeCompleted, nil
	}
	if len(p.bufq) == 0 {
		return false, CodeNeedMore, nil
	}

	n := p.remaining
	if int64(len(p.bufq)) < n {
		n = int64(len(p.bufq))
	}
	capped := p.appendBody(p.bufq[:n])
	p.bufq = p.bufq[n:]
	p.remaining -= n

	if capped || p.remaining <= 0 {
		p.completeBody()
	}
	return true, terminalCode(p.state), nil
}

func (p *Parser) stepUntilCloseBody() (bool, Code, error) {
	if len(p.bufq) == 0 {
		return false, CodeNeedMore, nil
	}
	capped := p.appendBody(p.bufq)
	p.bufq = nil
	if capped {
		p.completeBody()
		return true, CodeCompleted, nil
	}
	return true, CodeNeedMore, nil
}

func (p *Parser) stepChunkedBody() (bool, Code, error) {
	switch p.chunkPhase {
	case chunkPhaseSize:
		line, ok := p.takeLine()
		if !ok {
			return false, CodeNeedMore, nil
		}
		sizeStr := line
		if i := strings.IndexByte(line, ';'); i >= 0 {
			sizeStr = line[:i]
		}
		sizeStr = strings.TrimSpace(sizeStr)
		n, err := strconv.ParseInt(sizeStr, 16, 64)
		if err != nil || n < 0 {
			return true, CodeError, errStatusLineMalformed("bad chunk size: " + line)
		}
		if n == 0 {
			p.chunkPhase = chunkPhaseTrailer
			return true, CodeNeedMore, nil
		}
		p.chunkDataLeft = n
		p.chunkPhase = chunkPhaseData
		return true, CodeNeedMore, nil

	case chunkPhaseData:
		if len(p.bufq) == 0 {
			return false, CodeNeedMore, nil
		}
		n := p.chunkDataLeft
		if int64(len(p.bufq)) < n {
			n = int64(len(p.bufq))
		}
		capped := p.appendBody(p.bufq[:n])
		p.bufq = p.bufq[n:]
		p.chunkDataLeft -= n
		if capped {
			p.completeBody()
			return true, CodeCompleted, nil
		}
		if p.chunkDataLeft == 0 {
			p.chunkPhase = chunkPhaseDataCRLF
		}
		return true, CodeNeedMore, nil

	case chunkPhaseDataCRLF:
		_, ok := p.takeLine()
		if !ok {
			return false, CodeNeedMore, nil
		}
		p.chunkPhase = chunkPhaseSize
		return true, CodeNeedMore, nil

	case chunkPhaseTrailer:
		line, ok := p.takeLine()
		if !ok {
			return false, CodeNeedMore, nil
		}
		if line == "" {
			p.completeBody()
			return true, CodeCompleted, nil
		}
		if colon := strings.IndexByte(line, ':'); colon >= 0 {
			p.resp.Headers.Add(strings.TrimSpace(line[:colon]), strings.TrimSpace(line[colon+1:]))
		}
		return true, CodeNeedMore, nil
	}
	return false, CodeNeedMore, nil
}

func (p *Parser) completeBody() {
	p.state = StateCompleted
	p.resp.State = StateCompleted
	if len(p.bufq) > 0 {
		p.leftover = append(p.leftover, p.bufq...)
		p.bufq = nil
	}
}

func errStatusLineMalformed(line string) error {
	return &MalformedError{Line: line}
}

// MalformedError reports a status line, header line, or chunk frame the
// parser could not make sense of.
type MalformedError struct {
	Line string
}

func (e *MalformedError) Error() string {
	return "response: malformed line: " + e.Line
}
