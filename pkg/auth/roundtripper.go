package auth

import (
	"github.com/JohannesLks/rawauth/pkg/config"
	"github.com/JohannesLks/rawauth/pkg/request"
	"github.com/JohannesLks/rawauth/pkg/response"
)

// RoundTripper is the seam between the Auth Coordinator and the Transport
// Facade: each auth leg re-enters it to send one request and read one
// response on the same connection, without the Facade's own 401-dispatch
// step firing again (avoiding the recursion the coordinator itself exists
// to perform).
type RoundTripper interface {
	SendRecv(spec *request.Spec, cfg *config.Bag) (*response.Response, error)
}

// Credentials bundles everything the coordinator needs to complete a
// challenge across all four schemes.
type Credentials struct {
	Username string
	Password string
	Domain   string // NTLM workstation domain

	// SPN is the Kerberos service principal name (e.g. "HTTP/host.example.com").
	SPN           string
	Authenticator Authenticator // pluggable Kerberos GSS token source; nil disables Kerberos

	// Provider selects the WWW-Authenticate token used for the NTLM leg:
	// "Negotiate" unless explicitly "NTLM".
	Provider string

	// PreferredAuth overrides the default Basic→Digest→NTLM→Negotiate→Kerberos
	// dispatch order. Empty means use the default order.
	PreferredAuth []Scheme

	// DigestAuthIIS controls whether the Digest leg quotes the URI per IIS
	// quirks. nil means true (the spec's default).
	DigestAuthIIS *bool

	// NoBodyForAuth defers the request body until the final, authenticated
	// leg (spec.md's body-deferral / Expect suppression).
	NoBodyForAuth bool
}

func (c *Credentials) provider() string {
	if c.Provider == "NTLM" {
		return "NTLM"
	}
	return "Negotiate"
}

func (c *Credentials) digestIIS() bool {
	if c.DigestAuthIIS == nil {
		return true
	}
	return *c.DigestAuthIIS
}

func (c *Credentials) hasCredentials() bool {
	return c.Username != "" || c.Authenticator != nil
}

var defaultOrder = []Scheme{SchemeBasic, SchemeDigest, SchemeNTLM, SchemeNegotiate, SchemeKerberos}
