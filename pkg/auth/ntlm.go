package auth

import (
	"encoding/base64"
	"strings"

	ntlmssp "github.com/Azure/go-ntlmssp"

	"github.com/JohannesLks/rawauth/pkg/config"
	"github.com/JohannesLks/rawauth/pkg/request"
	"github.com/JohannesLks/rawauth/pkg/response"
)

func supportsNTLM(challenges string) bool {
	return schemeToken(challenges, "NTLM") || schemeToken(challenges, "Negotiate")
}

// doNTLM drives the two/three-leg NTLMSSP handshake over the same
// connection: Type-1 negotiate, the server's Type-2 challenge, Type-3
// authenticate. Per spec.md §4.E the active context is stored on the
// connection's Session so later requests can reuse it without
// re-handshaking.
func doNTLM(rt RoundTripper, spec *request.Spec, cfg *config.Bag, creds *Credentials, sess *Session) (*response.Response, error) {
	provider := creds.provider()

	type1, err := ntlmssp.NewNegotiateMessage(creds.Domain, randomWorkstationName())
	if err != nil {
		return nil, err
	}

	leg1 := spec.Clone()
	leg1.Headers.Set("Authorization", provider+" "+base64.StdEncoding.EncodeToString(type1))
	if creds.NoBodyForAuth {
		leg1.NoBodyForAuth = true
	}

	resp1, err := rt.SendRecv(leg1, cfg)
	if err != nil {
		return nil, err
	}
	if resp1 == nil || resp1.StatusCode != 401 {
		return resp1, nil
	}

	type2, ok := extractNTLMType2(resp1, provider)
	if !ok {
		return resp1, nil
	}

	sess.Scheme = SchemeNTLM
	sess.NTLM = &NTLMState{Type2: type2}
	if cb := channelBindingFromBag(cfg); len(cb) > 0 {
		sess.NTLM.ChannelBinding = cb
		sess.NTLM.ChannelBound = true
	}

	type3, err := ntlmssp.ProcessChallenge(type2, creds.Username, creds.Password)
	if err != nil {
		return resp1, err
	}

	leg3 := spec.Clone()
	leg3.Headers.Set("Authorization", provider+" "+base64.StdEncoding.EncodeToString(type3))

	return rt.SendRecv(leg3, cfg)
}

func extractNTLMType2(resp *response.Response, provider string) ([]byte, bool) {
	for _, f := range resp.Headers.All() {
		if !strings.EqualFold(f.Name, "WWW-Authenticate") {
			continue
		}
		val := strings.TrimSpace(f.Value)
		prefix := provider + " "
		if !strings.HasPrefix(val, prefix) {
			// Tolerate a mismatched token case/provider (e.g. server
			// answers "NTLM ..." even though we negotiated "Negotiate").
			idx := strings.IndexByte(val, ' ')
			if idx < 0 {
				continue
			}
			val = val[idx+1:]
		} else {
			val = val[len(prefix):]
		}
		raw, err := base64.StdEncoding.DecodeString(strings.TrimSpace(val))
		if err != nil || len(raw) == 0 {
			continue
		}
		return raw, true
	}
	return nil, false
}

// channelBindingFromBag reads the RFC 5929 tls-server-end-point hash the
// Connection Manager attaches to the config bag after a TLS handshake, if
// any; returning it lets Type-3 bind the auth to the TLS session.
func channelBindingFromBag(cfg *config.Bag) []byte {
	s := cfg.GetString("_channel_binding", "")
	if s == "" {
		return nil
	}
	raw, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil
	}
	return raw
}
