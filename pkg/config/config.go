// Package config implements the typed, schema-validated option bag that
// feeds the request builder, response parser, and auth coordinator.
package config

import (
	"regexp"
	"strconv"
	"strings"
)

// Kind identifies how a Bag entry's string value is coerced and validated.
type Kind int

const (
	// KindString stores the value verbatim.
	KindString Kind = iota
	// KindInt coerces via decimal parsing; an invalid value becomes 0.
	KindInt
	// KindBool coerces "true"/"false" or anything matching truePattern.
	KindBool
	// KindEnum validates against a declared choice set.
	KindEnum
)

func (k Kind) String() string {
	switch k {
	case KindInt:
		return "int"
	case KindBool:
		return "bool"
	case KindEnum:
		return "enum"
	default:
		return "string"
	}
}

// truePattern matches the spec's bool-truthy strings: anything starting
// with t, y, or 1, case-insensitive.
var truePattern = regexp.MustCompile(`(?i)^(t|y|1)`)

// Value is a coerced option value carrying its declared Kind alongside the
// raw string it was set from.
type Value struct {
	Kind Kind
	Raw  string
	Str  string
	Int  int
	Bool bool
}

// String returns the value in its natural string form.
func (v Value) String() string {
	switch v.Kind {
	case KindInt:
		return strconv.Itoa(v.Int)
	case KindBool:
		return strconv.FormatBool(v.Bool)
	default:
		return v.Str
	}
}

// InvalidOption reports a Set call rejected by the declared schema — an
// enum write whose value was not in the declared choice set.
type InvalidOption struct {
	Name    string
	Value   string
	Allowed []string
}

func (e *InvalidOption) Error() string {
	return "invalid value " + strconv.Quote(e.Value) + " for option " + strconv.Quote(e.Name) +
		" (allowed: " + strings.Join(e.Allowed, ", ") + ")"
}

// fieldSchema describes how one option name is validated and coerced.
type fieldSchema struct {
	kind    Kind
	choices []string
}

// Bag is a schema-validated, string-keyed option store. Unknown names are
// accepted as plain strings, matching the spec's "unknown names default to
// string" rule.
type Bag struct {
	schema map[string]fieldSchema
	values map[string]Value
}

// NewBag returns an empty Bag pre-declared with the recognized option names
// from the evasion/auth/transport option surface.
func NewBag() *Bag {
	b := &Bag{
		schema: make(map[string]fieldSchema),
		values: make(map[string]Value),
	}
	declareDefaultSchema(b)
	return b
}

// Declare registers (or overrides) the schema for a single option name.
// choices is only meaningful when kind is KindEnum.
func (b *Bag) Declare(name string, kind Kind, choices ...string) {
	b.schema[name] = fieldSchema{kind: kind, choices: choices}
}

func (b *Bag) kindOf(name string) fieldSchema {
	if fs, ok := b.schema[name]; ok {
		return fs
	}
	return fieldSchema{kind: KindString}
}

// Set validates value against name's declared schema, coerces it, and
// stores the result. Enum violations return *InvalidOption; bool/int
// coercion never fails (invalid int becomes 0, non-matching bool becomes
// false), matching spec.md §3.
func (b *Bag) Set(name, value string) error {
	fs := b.kindOf(name)

	v := Value{Kind: fs.kind, Raw: value}
	switch fs.kind {
	case KindInt:
		n, err := strconv.Atoi(value)
		if err != nil {
			n = 0
		}
		v.Int = n
	case KindBool:
		v.Bool = value == "true" || truePattern.MatchString(value)
	case KindEnum:
		if !contains(fs.choices, value) {
			return &InvalidOption{Name: name, Value: value, Allowed: fs.choices}
		}
		v.Str = value
	default:
		v.Str = value
	}

	b.values[name] = v
	return nil
}

// SetInt stores an already-typed integer value, bypassing string parsing.
func (b *Bag) SetInt(name string, n int) {
	b.values[name] = Value{Kind: KindInt, Raw: strconv.Itoa(n), Int: n}
}

// SetBool stores an already-typed boolean value, bypassing string parsing.
func (b *Bag) SetBool(name string, v bool) {
	b.values[name] = Value{Kind: KindBool, Raw: strconv.FormatBool(v), Bool: v}
}

// Get returns the stored Value for name and whether it was ever set.
func (b *Bag) Get(name string) (Value, bool) {
	v, ok := b.values[name]
	return v, ok
}

// GetString returns name's string value, or def if unset.
func (b *Bag) GetString(name, def string) string {
	v, ok := b.values[name]
	if !ok {
		return def
	}
	if v.Kind == KindString || v.Kind == KindEnum {
		return v.Str
	}
	return v.String()
}

// GetInt returns name's integer value, or def if unset.
func (b *Bag) GetInt(name string, def int) int {
	v, ok := b.values[name]
	if !ok {
		return def
	}
	if v.Kind == KindInt {
		return v.Int
	}
	n, err := strconv.Atoi(v.String())
	if err != nil {
		return def
	}
	return n
}

// GetBool returns name's boolean value, or def if unset.
func (b *Bag) GetBool(name string, def bool) bool {
	v, ok := b.values[name]
	if !ok {
		return def
	}
	if v.Kind == KindBool {
		return v.Bool
	}
	return truePattern.MatchString(v.String())
}

// Merge returns a copy-on-write child Bag: the current values are
// shallow-copied, overrides are applied on top, and the base Bag is left
// untouched. Enum validation still applies to overrides.
func (b *Bag) Merge(overrides map[string]string) (*Bag, error) {
	child := &Bag{
		schema: b.schema, // schema is read-only, safe to share
		values: make(map[string]Value, len(b.values)+len(overrides)),
	}
	for k, v := range b.values {
		child.values[k] = v
	}
	for name, value := range overrides {
		if err := child.Set(name, value); err != nil {
			return nil, err
		}
	}
	return child, nil
}

func contains(set []string, v string) bool {
	for _, s := range set {
		if s == v {
			return true
		}
	}
	return false
}

// declareDefaultSchema registers the recognized option names and their
// kinds/enum choices.
func declareDefaultSchema(b *Bag) {
	strOpts := []string{
		"agent", "vhost", "ssl_server_name_indication", "domain",
	}
	for _, n := range strOpts {
		b.Declare(n, KindString)
	}

	intOpts := []string{
		"read_max_data", "uri_encode_count",
		"pad_method_uri_count", "pad_uri_version_count",
		"pad_fake_headers_count", "pad_get_params_count", "pad_post_params_count",
		"chunked_size",
	}
	for _, n := range intOpts {
		b.Declare(n, KindInt)
	}

	boolOpts := []string{
		"partial",
		"uri_full_url", "uri_dir_self_reference", "uri_dir_fake_relative",
		"uri_use_backslashes", "uri_fake_end", "uri_fake_params_start",
		"method_random_valid", "method_random_invalid", "method_random_case",
		"version_random_valid", "version_random_invalid",
		"shuffle_get_params", "shuffle_post_params", "header_folding",
		"no_body_for_auth", "digest_auth_iis",
	}
	for _, n := range boolOpts {
		b.Declare(n, KindBool)
	}

	b.Declare("uri_encode_mode", KindEnum,
		"hex-normal", "hex-all", "hex-random", "hex-noslashes",
		"u-normal", "u-random", "u-all")
	b.Declare("pad_method_uri_type", KindEnum, "space", "tab", "apache")
	b.Declare("pad_uri_version_type", KindEnum, "space", "tab", "apache")
	b.Declare("preferred_auth", KindEnum, "Basic", "Digest", "NTLM", "Negotiate", "Kerberos")
	b.Declare("provider", KindEnum, "NTLM", "Negotiate")
}
