package auth

import (
	"encoding/base64"

	"github.com/JohannesLks/rawauth/pkg/config"
	"github.com/JohannesLks/rawauth/pkg/request"
	"github.com/JohannesLks/rawauth/pkg/response"
)

func supportsBasic(challenges string) bool {
	return schemeToken(challenges, "Basic")
}

// doBasic issues the one additional request spec.md §4.E describes: the
// original spec plus an Authorization: Basic header. No connection state
// is retained since Basic has no multi-leg handshake.
func doBasic(rt RoundTripper, spec *request.Spec, cfg *config.Bag, creds *Credentials) (*response.Response, error) {
	token := base64.StdEncoding.EncodeToString([]byte(creds.Username + ":" + creds.Password))

	retry := spec.Clone()
	retry.Headers.Set("Authorization", "Basic "+token)

	return rt.SendRecv(retry, cfg)
}
