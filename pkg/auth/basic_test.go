package auth

import "testing"

func TestSupportsBasic(t *testing.T) {
	cases := []struct {
		challenges string
		want       bool
	}{
		{`Basic realm="x"`, true},
		{`Digest realm="x"`, false},
		{`NTLM, Basic realm="x"`, true},
		{``, false},
	}
	for _, c := range cases {
		if got := supportsBasic(c.challenges); got != c.want {
			t.Errorf("supportsBasic(%q) = %v, want %v", c.challenges, got, c.want)
		}
	}
}
