package auth

import (
	"encoding/base64"
	"testing"

	"github.com/JohannesLks/rawauth/pkg/config"
	"github.com/JohannesLks/rawauth/pkg/request"
	"github.com/JohannesLks/rawauth/pkg/response"
)

func TestExtractNTLMType2(t *testing.T) {
	raw := []byte("fake-type2-bytes")
	h := &response.Header{}
	h.Add("WWW-Authenticate", "NTLM "+base64.StdEncoding.EncodeToString(raw))
	resp := &response.Response{StatusCode: 401, Headers: h}

	got, ok := extractNTLMType2(resp, "NTLM")
	if !ok {
		t.Fatal("expected to extract a type-2 token")
	}
	if string(got) != string(raw) {
		t.Errorf("got %q, want %q", got, raw)
	}
}

func TestExtractNTLMType2MissingHeader(t *testing.T) {
	resp := &response.Response{StatusCode: 401, Headers: &response.Header{}}
	if _, ok := extractNTLMType2(resp, "NTLM"); ok {
		t.Error("expected no token when WWW-Authenticate is absent")
	}
}

func TestDoNTLMStopsAfterNonChallengeResponse(t *testing.T) {
	// If the server answers the Type-1 leg with something other than a
	// fresh 401/Type-2 challenge, the coordinator must not attempt a
	// Type-3 leg at all.
	ok := &response.Response{StatusCode: 200, Headers: &response.Header{}}
	rt := &fakeRoundTripper{responses: []*response.Response{ok}}

	spec := &request.Spec{Method: "GET", URI: "/", Headers: request.NewHeaders()}
	creds := &Credentials{Username: "u", Password: "p", Domain: "CORP"}

	got, err := doNTLM(rt, spec, config.NewBag(), creds, &Session{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != ok {
		t.Errorf("expected the single response returned unchanged, got %+v", got)
	}
	if len(rt.legs) != 1 {
		t.Fatalf("expected exactly one leg sent, got %d", len(rt.legs))
	}
}
