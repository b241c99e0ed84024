// Package auth implements the challenge-response Auth Coordinator: Basic,
// Digest, NTLM/Negotiate, and Kerberos legs driven over a connection whose
// auth state outlives any single request.
package auth

// Scheme identifies which challenge-response authentication mechanism a
// Session is bound to.
type Scheme string

const (
	SchemeNone      Scheme = "None"
	SchemeBasic     Scheme = "Basic"
	SchemeDigest    Scheme = "Digest"
	SchemeNTLM      Scheme = "NTLM"
	SchemeNegotiate Scheme = "Negotiate"
	SchemeKerberos  Scheme = "Kerberos"
)

// DigestState caches the challenge parameters and nonce-count across
// requests on the same connection so a second Digest-protected request
// doesn't have to re-handshake.
type DigestState struct {
	Realm     string
	Nonce     string
	Qop       string
	Algorithm string
	Opaque    string
	NonceCount int
}

// NTLMState holds the active NTLM/Negotiate context for a connection. Per
// spec.md §3, a connection carries at most one.
type NTLMState struct {
	Type2         []byte // the server's challenge message
	ChannelBound  bool
	ChannelBinding []byte // RFC 5929 tls-server-end-point hash, if TLS is active
}

// KerberosState surfaces the sequence numbers and subkey presence of an
// established Kerberos security context for observers; the actual
// cryptographic state lives inside the pluggable Authenticator.
type KerberosState struct {
	ClientSeqNum  uint64
	ServerSeqNum  uint64
	SubkeyPresent bool
	authenticator Authenticator
}

// Session is the scheme-exclusive auth context owned by one connection,
// per spec.md §3's AuthSession. Lifetime is bound to the connection;
// Reset is called on close.
type Session struct {
	Scheme   Scheme
	Digest   *DigestState
	NTLM     *NTLMState
	Kerberos *KerberosState
}

// Reset clears all scheme state, called when the owning connection closes.
func (s *Session) Reset() {
	s.Scheme = SchemeNone
	s.Digest = nil
	s.NTLM = nil
	s.Kerberos = nil
}

// Active reports whether the session currently holds live NTLM or
// Kerberos context (the two schemes that span multiple requests).
func (s *Session) Active() bool {
	return s.NTLM != nil || s.Kerberos != nil
}
