package response

import "testing"

func TestHeaderPreservesOrderAndDuplicates(t *testing.T) {
	h := &Header{}
	h.Add("Set-Cookie", "a=1")
	h.Add("X-Foo", "bar")
	h.Add("Set-Cookie", "b=2")

	all := h.All()
	if len(all) != 3 {
		t.Fatalf("got %d fields, want 3", len(all))
	}
	if all[0].Name != "Set-Cookie" || all[0].Value != "a=1" {
		t.Errorf("unexpected first field: %+v", all[0])
	}
	if all[2].Name != "Set-Cookie" || all[2].Value != "b=2" {
		t.Errorf("unexpected third field: %+v", all[2])
	}

	vals := h.Values("Set-Cookie")
	if len(vals) != 2 || vals[0] != "a=1" || vals[1] != "b=2" {
		t.Errorf("Values() = %v, want [a=1 b=2]", vals)
	}
}

func TestHeaderGetIsCaseInsensitive(t *testing.T) {
	h := &Header{}
	h.Add("Content-Type", "text/html")

	v, ok := h.Get("content-type")
	if !ok || v != "text/html" {
		t.Errorf("Get(content-type) = (%q, %v), want (text/html, true)", v, ok)
	}
}
