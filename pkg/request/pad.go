package request

import (
	"math/rand"
	"strings"
)

// validMethods is the pool random_valid draws from.
var validMethods = []string{
	"GET", "POST", "PUT", "DELETE", "HEAD", "OPTIONS", "PATCH", "TRACE", "CONNECT",
}

var invalidMethodPool = []string{
	"GEET", "POOST", "FOOBAR", "WHATEVER", "XYZZY", "PROPFIND2",
}

const wsNameChars = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"

// randomValidMethod returns a uniformly chosen real HTTP method token.
func randomValidMethod() string {
	return validMethods[rand.Intn(len(validMethods))]
}

// randomInvalidMethod returns a token that is not a registered HTTP method.
func randomInvalidMethod() string {
	return invalidMethodPool[rand.Intn(len(invalidMethodPool))]
}

// randomCase returns s with each letter's case flipped independently at
// random, used for method_random_case mangling.
func randomCase(s string) string {
	b := []byte(s)
	for i, c := range b {
		if rand.Intn(2) == 0 {
			continue
		}
		if 'a' <= c && c <= 'z' {
			b[i] = c - ('a' - 'A')
		} else if 'A' <= c && c <= 'Z' {
			b[i] = c + ('a' - 'A')
		}
	}
	return string(b)
}

// randomWorkstationName returns a random 6-13 character alphabetic token,
// used as the NTLM Type-1 workstation name when none is configured.
func randomWorkstationName() string {
	n := 6 + rand.Intn(8) // 6..13 inclusive
	b := make([]byte, n)
	for i := range b {
		b[i] = wsNameChars[rand.Intn(len(wsNameChars))]
	}
	return string(b)
}

// padChar returns the literal run of n characters for the given padding
// type, as used between method/URI and URI/version on the request line.
func padChar(padType string, n int) string {
	if n <= 0 {
		return ""
	}
	switch padType {
	case "tab":
		return strings.Repeat("\t", n)
	case "apache":
		// Apache historically tolerated a run of spaces folded with a
		// stray tab in the middle; approximate that shape here.
		if n == 1 {
			return " "
		}
		return strings.Repeat(" ", n-1) + "\t"
	default: // "space"
		return strings.Repeat(" ", n)
	}
}

var invalidVersions = []string{"0.9", "9.9", "1.3", "42.0"}

func randomValidVersion() string {
	valid := []string{"1.0", "1.1"}
	return valid[rand.Intn(len(valid))]
}

func randomInvalidVersion() string {
	return invalidVersions[rand.Intn(len(invalidVersions))]
}
