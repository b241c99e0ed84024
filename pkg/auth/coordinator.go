package auth

import (
	"strings"

	"github.com/JohannesLks/rawauth/pkg/config"
	"github.com/JohannesLks/rawauth/pkg/request"
	"github.com/JohannesLks/rawauth/pkg/response"
)

// schemeToken reports whether name appears as a distinct auth-scheme token
// inside a (possibly multi-valued, possibly folded) WWW-Authenticate
// value, e.g. "NTLM" inside "NTLM, Digest realm=...".
func schemeToken(challenges, name string) bool {
	lower := strings.ToLower(challenges)
	name = strings.ToLower(name)
	for _, part := range strings.Split(lower, ",") {
		part = strings.TrimSpace(part)
		if part == name || strings.HasPrefix(part, name+" ") {
			return true
		}
	}
	return false
}

// collectChallenges joins every WWW-Authenticate header value into one
// string for scheme detection, since a server may send the scheme list
// across multiple header instances as well as one folded line.
func collectChallenges(resp *response.Response) string {
	return strings.Join(resp.Headers.Values("WWW-Authenticate"), ", ")
}

// Drive implements the Auth Coordinator entrypoint of spec.md §4.E: given
// the first response from rt.SendRecv, and if it is a 401 carrying a
// WWW-Authenticate challenge the caller holds credentials for, it
// dispatches the first scheme that matches (in creds.PreferredAuth order,
// or the spec's default Basic→Digest→NTLM→Negotiate→Kerberos) and drives
// it to completion on the same connection. If no scheme matches or no
// credentials are configured, the 401 is returned unchanged.
//
// Connection-level errors (EPIPE/EOF/timeout) surfacing from any leg do
// not propagate: per spec.md §4.E/§7 the coordinator returns the last
// valid response obtained so far, or nil if none was.
func Drive(rt RoundTripper, first *response.Response, spec *request.Spec, cfg *config.Bag, creds *Credentials, sess *Session) (*response.Response, error) {
	if first == nil || first.StatusCode != 401 || creds == nil || !creds.hasCredentials() {
		return first, nil
	}

	challenges := collectChallenges(first)
	if challenges == "" {
		return first, nil
	}

	order := creds.PreferredAuth
	if len(order) == 0 {
		order = defaultOrder
	}

	for _, scheme := range order {
		switch scheme {
		case SchemeBasic:
			if !supportsBasic(challenges) {
				continue
			}
			resp, err := doBasic(rt, spec, cfg, creds)
			return recoverLeg(resp, first, err)

		case SchemeDigest:
			if !supportsDigest(challenges) {
				continue
			}
			params, ok := parseDigestChallenge(challenges)
			if !ok {
				continue
			}
			sess.Scheme = SchemeDigest
			sess.Digest = &DigestState{Realm: params.Realm, Nonce: params.Nonce, Qop: params.Qop, Algorithm: params.Algorithm, Opaque: params.Opaque}
			resp, err := doDigest(rt, spec, cfg, creds, sess)
			return recoverLeg(resp, first, err)

		case SchemeNTLM, SchemeNegotiate:
			if !supportsNTLM(challenges) {
				continue
			}
			resp, err := doNTLM(rt, spec, cfg, creds, sess)
			return recoverLeg(resp, first, err)

		case SchemeKerberos:
			if !supportsKerberos(challenges) || creds.Authenticator == nil {
				continue
			}
			resp, err := doKerberos(rt, spec, cfg, creds, sess)
			return recoverLeg(resp, first, err)
		}
	}

	return first, nil
}

// recoverLeg applies the coordinator's error-recovery rule: connection
// failures during a leg are swallowed, falling back to the best response
// obtained so far rather than failing the whole exchange.
func recoverLeg(resp, fallback *response.Response, err error) (*response.Response, error) {
	if err != nil {
		if isConnErr(err) {
			if resp != nil {
				return resp, nil
			}
			return fallback, nil
		}
		return nil, err
	}
	if resp == nil {
		return fallback, nil
	}
	return resp, nil
}

func isConnErr(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "broken pipe") ||
		strings.Contains(msg, "EOF") ||
		strings.Contains(msg, "timeout") ||
		strings.Contains(msg, "reset by peer") ||
		strings.Contains(msg, "closed")
}
