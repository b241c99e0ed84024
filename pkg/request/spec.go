// Package request builds a serialized HTTP/1.x request from a RequestSpec
// and a config.Bag, applying the configured evasion transforms.
package request

// HeaderField is one name/value pair in a Headers list. Order of insertion
// is preserved for serialization; lookups are case-insensitive.
type HeaderField struct {
	Name  string
	Value string
}

// Headers is an ordered, case-insensitive-on-read header list. Unlike
// response.Header it does not need to merge duplicates on read — the
// builder only needs insertion order for serialization.
type Headers struct {
	fields []HeaderField
}

// NewHeaders returns an empty Headers list.
func NewHeaders() *Headers {
	return &Headers{}
}

// Set appends a header field, preserving any existing entries of the same
// name (callers wanting replace semantics should build a fresh Headers).
func (h *Headers) Set(name, value string) {
	h.fields = append(h.fields, HeaderField{Name: name, Value: value})
}

// Get returns the first value stored under name, case-insensitive.
func (h *Headers) Get(name string) (string, bool) {
	for _, f := range h.fields {
		if equalFold(f.Name, name) {
			return f.Value, true
		}
	}
	return "", false
}

// Delete removes all fields matching name, case-insensitive.
func (h *Headers) Delete(name string) {
	kept := h.fields[:0]
	for _, f := range h.fields {
		if !equalFold(f.Name, name) {
			kept = append(kept, f)
		}
	}
	h.fields = kept
}

// All returns the fields in insertion order.
func (h *Headers) All() []HeaderField {
	return h.fields
}

func equalFold(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := 0; i < len(a); i++ {
		ca, cb := a[i], b[i]
		if 'A' <= ca && ca <= 'Z' {
			ca += 'a' - 'A'
		}
		if 'A' <= cb && cb <= 'Z' {
			cb += 'a' - 'A'
		}
		if ca != cb {
			return false
		}
	}
	return true
}

// FormValue is one name bound to one or more values, used for both
// urlencoded and query-string pair assembly (vars_get/vars_post).
type FormValue struct {
	Name   string
	Values []string
}

// MultipartField is one part of a vars_form_data multipart/form-data body.
type MultipartField struct {
	Name        string
	Filename    string
	ContentType string
	Data        []byte
}

// Spec is the builder's input: everything needed to serialize one request,
// plus enough to be re-run verbatim by the auth coordinator's legs.
type Spec struct {
	Method     string
	URI        string
	Query      string
	Version    string // default "1.1"
	Proto      string // default "HTTP"
	VHost      string
	Agent      string
	Connection string
	Cookie     string
	Headers    *Headers
	RawHeaders string
	Data       []byte
	CGI        bool

	// Scheme and Port are only consulted when uri_full_url is set, to
	// assemble an absolute-form request target.
	Scheme string
	Port   int

	VarsGet      []FormValue
	VarsPost     []FormValue
	VarsFormData []MultipartField
	CType        string // default "application/x-www-form-urlencoded"
	EncodeParams *bool  // default true; nil means "use the default"

	// NoBodyForAuth defers Data (and the CGI vars) from this leg's wire
	// bytes; the auth coordinator sets this on intermediate legs.
	NoBodyForAuth bool
}

// Clone returns a deep-enough copy of the Spec so the auth coordinator can
// mutate headers (e.g. add Authorization) for a re-entrant leg without
// disturbing the caller's original Spec.
func (s *Spec) Clone() *Spec {
	c := *s
	if s.Headers != nil {
		c.Headers = &Headers{fields: append([]HeaderField(nil), s.Headers.fields...)}
	} else {
		c.Headers = NewHeaders()
	}
	if s.Data != nil {
		c.Data = append([]byte(nil), s.Data...)
	}
	c.VarsGet = append([]FormValue(nil), s.VarsGet...)
	c.VarsPost = append([]FormValue(nil), s.VarsPost...)
	c.VarsFormData = append([]MultipartField(nil), s.VarsFormData...)
	return &c
}

func (s *Spec) version() string {
	if s.Version == "" {
		return "1.1"
	}
	return s.Version
}

func (s *Spec) proto() string {
	if s.Proto == "" {
		return "HTTP"
	}
	return s.Proto
}

func (s *Spec) ctype() string {
	if s.CType == "" {
		return "application/x-www-form-urlencoded"
	}
	return s.CType
}

func (s *Spec) encodeParams() bool {
	if s.EncodeParams == nil {
		return true
	}
	return *s.EncodeParams
}
