package config

import "testing"

func TestBagSetEnumRejection(t *testing.T) {
	b := NewBag()
	err := b.Set("uri_encode_mode", "bogus")
	if err == nil {
		t.Fatal("expected InvalidOption, got nil")
	}
	if _, ok := err.(*InvalidOption); !ok {
		t.Fatalf("expected *InvalidOption, got %T", err)
	}
}

func TestBagSetEnumAccepted(t *testing.T) {
	b := NewBag()
	if err := b.Set("uri_encode_mode", "hex-random"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := b.GetString("uri_encode_mode", ""); got != "hex-random" {
		t.Errorf("got %q, want hex-random", got)
	}
}

func TestBagBoolCoercion(t *testing.T) {
	tests := []struct {
		value string
		want  bool
	}{
		{"true", true},
		{"false", false},
		{"yes", true},
		{"Y", true},
		{"1", true},
		{"0", false},
		{"nope", false},
	}
	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			b := NewBag()
			if err := b.Set("partial", tt.value); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got := b.GetBool("partial", false); got != tt.want {
				t.Errorf("Set(partial, %q): got %v, want %v", tt.value, got, tt.want)
			}
		})
	}
}

func TestBagIntCoercion(t *testing.T) {
	b := NewBag()
	if err := b.Set("read_max_data", "4096"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := b.GetInt("read_max_data", -1); got != 4096 {
		t.Errorf("got %d, want 4096", got)
	}

	// Invalid integer coerces to 0 rather than failing.
	if err := b.Set("read_max_data", "not-a-number"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := b.GetInt("read_max_data", -1); got != 0 {
		t.Errorf("got %d, want 0", got)
	}
}

func TestBagUnknownNameDefaultsToString(t *testing.T) {
	b := NewBag()
	if err := b.Set("some_future_option", "whatever"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := b.GetString("some_future_option", ""); got != "whatever" {
		t.Errorf("got %q, want whatever", got)
	}
}

func TestBagMergeDoesNotMutateParent(t *testing.T) {
	base := NewBag()
	_ = base.Set("agent", "base-agent")

	child, err := base.Merge(map[string]string{"agent": "override-agent"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got := base.GetString("agent", ""); got != "base-agent" {
		t.Errorf("parent mutated: got %q, want base-agent", got)
	}
	if got := child.GetString("agent", ""); got != "override-agent" {
		t.Errorf("child not overridden: got %q, want override-agent", got)
	}
}

func TestBagMergeRejectsInvalidOverride(t *testing.T) {
	base := NewBag()
	_, err := base.Merge(map[string]string{"uri_encode_mode": "not-real"})
	if err == nil {
		t.Fatal("expected error from invalid enum override")
	}
}
