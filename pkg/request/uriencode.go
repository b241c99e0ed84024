package request

import (
	"fmt"
	"math/rand"
	"strings"

	"golang.org/x/text/encoding/unicode"
)

// uriUnreserved matches RFC 3986 unreserved characters, left untouched by
// the "normal" encode modes.
func isURIUnreserved(c byte) bool {
	switch {
	case 'A' <= c && c <= 'Z', 'a' <= c && c <= 'z', '0' <= c && c <= '9':
		return true
	case c == '-' || c == '_' || c == '.' || c == '~':
		return true
	}
	return false
}

// utf16CodeUnit returns the UTF-16LE code unit for a single input byte,
// used by the IIS-style %u encode modes. Input is treated as Latin-1 for
// bytes above ASCII, matching how legacy %u-encoding tools expand raw
// octets into a 4-hex-digit unicode escape.
func utf16CodeUnit(b byte) uint16 {
	enc := unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM).NewEncoder()
	out, err := enc.Bytes([]byte{b})
	if err != nil || len(out) < 2 {
		return uint16(b)
	}
	return uint16(out[0]) | uint16(out[1])<<8
}

// encodeURI applies one of the configured URI evasion encode modes to path.
// count's meaning depends on mode: for the hex-* modes it is the number of
// encoding passes to apply (double/triple percent-encoding); for the u-*
// and *-random modes it caps how many eligible characters are converted.
func encodeURI(path string, mode string, count int) string {
	if mode == "" {
		return path
	}
	if count <= 0 {
		count = 1
	}

	switch mode {
	case "hex-normal":
		return repeatHexEncode(path, count, false, true)
	case "hex-all":
		return repeatHexEncode(path, count, true, true)
	case "hex-noslashes":
		return repeatHexEncode(path, count, false, false)
	case "hex-random":
		return hexEncodeRandom(path, count)
	case "u-normal":
		return uEncode(path, false, len(path))
	case "u-all":
		return uEncode(path, true, len(path))
	case "u-random":
		return uEncodeRandom(path, count)
	default:
		return path
	}
}

func repeatHexEncode(path string, passes int, all, encodeSlash bool) string {
	out := path
	for i := 0; i < passes; i++ {
		out = hexEncodeOnce(out, all, encodeSlash)
	}
	return out
}

func hexEncodeOnce(path string, all, encodeSlash bool) string {
	var b strings.Builder
	for i := 0; i < len(path); i++ {
		c := path[i]
		if !all && isURIUnreserved(c) {
			b.WriteByte(c)
			continue
		}
		if c == '/' && !encodeSlash {
			b.WriteByte(c)
			continue
		}
		fmt.Fprintf(&b, "%%%02X", c)
	}
	return b.String()
}

// hexEncodeRandom percent-encodes up to count randomly chosen non-slash
// bytes, leaving the rest untouched — a lighter-weight perturbation than
// fully encoding the path.
func hexEncodeRandom(path string, count int) string {
	candidates := make([]int, 0, len(path))
	for i := 0; i < len(path); i++ {
		if path[i] != '/' {
			candidates = append(candidates, i)
		}
	}
	chosen := pickRandomIndices(candidates, count)

	var b strings.Builder
	for i := 0; i < len(path); i++ {
		if chosen[i] {
			fmt.Fprintf(&b, "%%%02X", path[i])
		} else {
			b.WriteByte(path[i])
		}
	}
	return b.String()
}

func uEncode(path string, all bool, limit int) string {
	var b strings.Builder
	n := 0
	for i := 0; i < len(path); i++ {
		c := path[i]
		if !all && isURIUnreserved(c) {
			b.WriteByte(c)
			continue
		}
		if n >= limit {
			b.WriteByte(c)
			continue
		}
		fmt.Fprintf(&b, "%%u%04x", utf16CodeUnit(c))
		n++
	}
	return b.String()
}

func uEncodeRandom(path string, count int) string {
	candidates := make([]int, 0, len(path))
	for i := 0; i < len(path); i++ {
		if path[i] != '/' {
			candidates = append(candidates, i)
		}
	}
	chosen := pickRandomIndices(candidates, count)

	var b strings.Builder
	for i := 0; i < len(path); i++ {
		if chosen[i] {
			fmt.Fprintf(&b, "%%u%04x", utf16CodeUnit(path[i]))
		} else {
			b.WriteByte(path[i])
		}
	}
	return b.String()
}

// pickRandomIndices returns a set (indexed by original string position) of
// up to count indices chosen from candidates.
func pickRandomIndices(candidates []int, count int) map[int]bool {
	chosen := make(map[int]bool, count)
	if count >= len(candidates) {
		for _, idx := range candidates {
			chosen[idx] = true
		}
		return chosen
	}
	perm := rand.Perm(len(candidates))
	for i := 0; i < count; i++ {
		chosen[candidates[perm[i]]] = true
	}
	return chosen
}
