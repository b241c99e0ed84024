package auth

import (
	"strings"
	"testing"

	"github.com/JohannesLks/rawauth/pkg/config"
	"github.com/JohannesLks/rawauth/pkg/request"
	"github.com/JohannesLks/rawauth/pkg/response"
)

// fakeRoundTripper records every leg it's asked to send and replays a
// scripted sequence of responses.
type fakeRoundTripper struct {
	legs      []*request.Spec
	responses []*response.Response
	errs      []error
}

func (f *fakeRoundTripper) SendRecv(spec *request.Spec, cfg *config.Bag) (*response.Response, error) {
	i := len(f.legs)
	f.legs = append(f.legs, spec)
	var err error
	if i < len(f.errs) {
		err = f.errs[i]
	}
	if i < len(f.responses) {
		return f.responses[i], err
	}
	return nil, err
}

func respWithChallenge(code int, challenge string) *response.Response {
	h := &response.Header{}
	if challenge != "" {
		h.Add("WWW-Authenticate", challenge)
	}
	return &response.Response{StatusCode: code, Headers: h, State: response.StateCompleted}
}

func TestDriveBasicAuth(t *testing.T) {
	first := respWithChallenge(401, `Basic realm="x"`)
	ok := &response.Response{StatusCode: 200, Headers: &response.Header{}, State: response.StateCompleted}
	rt := &fakeRoundTripper{responses: []*response.Response{ok}}

	spec := &request.Spec{Method: "GET", URI: "/", Headers: request.NewHeaders()}
	creds := &Credentials{Username: "u", Password: "p"}

	got, err := Drive(rt, first, spec, config.NewBag(), creds, &Session{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.StatusCode != 200 {
		t.Fatalf("got status %d, want 200", got.StatusCode)
	}
	if len(rt.legs) != 1 {
		t.Fatalf("expected exactly one retry leg, got %d", len(rt.legs))
	}
	auth, ok := rt.legs[0].Headers.Get("Authorization")
	if !ok || auth != "Basic dTpw" {
		t.Errorf("got Authorization %q, want Basic dTpw", auth)
	}
}

func TestDriveNoCredentialsReturnsChallengeUnchanged(t *testing.T) {
	first := respWithChallenge(401, `Basic realm="x"`)
	rt := &fakeRoundTripper{}
	spec := &request.Spec{Method: "GET", URI: "/", Headers: request.NewHeaders()}

	got, err := Drive(rt, first, spec, config.NewBag(), &Credentials{}, &Session{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != first {
		t.Errorf("expected unchanged 401, got %+v", got)
	}
	if len(rt.legs) != 0 {
		t.Errorf("expected no legs sent, got %d", len(rt.legs))
	}
}

func TestDriveDigestAuth(t *testing.T) {
	first := respWithChallenge(401, `Digest realm="r", nonce="n", qop="auth"`)
	ok := &response.Response{StatusCode: 200, Headers: &response.Header{}, State: response.StateCompleted}
	rt := &fakeRoundTripper{responses: []*response.Response{ok}}

	spec := &request.Spec{Method: "GET", URI: "/secret", Headers: request.NewHeaders()}
	creds := &Credentials{Username: "u", Password: "p"}

	got, err := Drive(rt, first, spec, config.NewBag(), creds, &Session{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.StatusCode != 200 {
		t.Fatalf("got status %d, want 200", got.StatusCode)
	}
	auth, ok2 := rt.legs[0].Headers.Get("Authorization")
	if !ok2 {
		t.Fatal("missing Authorization header on retry leg")
	}
	if !strings.Contains(auth, `username="u"`) || !strings.Contains(auth, `nonce="n"`) {
		t.Errorf("unexpected digest header: %q", auth)
	}
}

func TestDriveFoldedChallengePrefersDigestOverNTLM(t *testing.T) {
	first := respWithChallenge(401, "NTLM\r\n , Digest realm=\"r\", nonce=\"n\", qop=\"auth\"")
	ok := &response.Response{StatusCode: 200, Headers: &response.Header{}, State: response.StateCompleted}
	rt := &fakeRoundTripper{responses: []*response.Response{ok}}

	spec := &request.Spec{Method: "GET", URI: "/", Headers: request.NewHeaders()}
	creds := &Credentials{Username: "u", Password: "p"}

	sess := &Session{}
	_, err := Drive(rt, first, spec, config.NewBag(), creds, sess)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sess.Scheme != SchemeDigest {
		t.Errorf("got scheme %v, want Digest (Basic absent, Digest precedes NTLM)", sess.Scheme)
	}
}

func TestDriveConnErrorFallsBackToFirstResponse(t *testing.T) {
	first := respWithChallenge(401, `Basic realm="x"`)
	rt := &fakeRoundTripper{errs: []error{errBrokenPipe{}}}

	spec := &request.Spec{Method: "GET", URI: "/", Headers: request.NewHeaders()}
	creds := &Credentials{Username: "u", Password: "p"}

	got, err := Drive(rt, first, spec, config.NewBag(), creds, &Session{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != first {
		t.Errorf("expected fallback to first response, got %+v", got)
	}
}

type errBrokenPipe struct{}

func (errBrokenPipe) Error() string { return "write: broken pipe" }
