package auth

import "testing"

func TestParseDigestChallengeBasic(t *testing.T) {
	p, ok := parseDigestChallenge(`Digest realm="testrealm@host.com", qop="auth,auth-int", nonce="dcd98b7102dd2f0e8b11d0f600bfb0c093", opaque="5ccc069c403ebaf9f0171e9517f40e41"`)
	if !ok {
		t.Fatal("expected to parse challenge")
	}
	if p.Realm != "testrealm@host.com" {
		t.Errorf("got realm %q", p.Realm)
	}
	if p.Nonce != "dcd98b7102dd2f0e8b11d0f600bfb0c093" {
		t.Errorf("got nonce %q", p.Nonce)
	}
	if p.Qop != "auth,auth-int" {
		t.Errorf("got qop %q", p.Qop)
	}
	if p.Opaque != "5ccc069c403ebaf9f0171e9517f40e41" {
		t.Errorf("got opaque %q", p.Opaque)
	}
}

func TestParseDigestChallengeIgnoresFoldedPrefix(t *testing.T) {
	_, ok := parseDigestChallenge("NTLM\r\n , Digest realm=\"r\", nonce=\"n\", qop=\"auth\"")
	if !ok {
		t.Fatal("expected parser to find Digest params after the folded NTLM token")
	}
}

func TestParseDigestChallengeMissingNonceFails(t *testing.T) {
	_, ok := parseDigestChallenge(`Digest realm="r"`)
	if ok {
		t.Error("expected failure when nonce is absent")
	}
}

// TestDigestResponseRFC2617Example reproduces RFC 2617 §3.5's worked
// example verbatim.
func TestDigestResponseRFC2617Example(t *testing.T) {
	params := &digestParams{
		Realm: "testrealm@host.com",
		Nonce: "dcd98b7102dd2f0e8b11d0f600bfb0c093",
		Qop:   "auth",
	}
	got := digestResponse(params, "GET", "/dir/index.html", "Mufasa", "Circle Of Life", 1, "0a4f113b")
	const want = "6629fae49393a05397450978507c4ef1"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}
