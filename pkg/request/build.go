package request

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/JohannesLks/rawauth/pkg/config"
)

// Build serializes spec into wire bytes per cfg's evasion options,
// following the method/URI/padding/version/headers/body order.
func Build(cfg *config.Bag, spec *Spec) ([]byte, error) {
	if spec.CGI && spec.Query != "" {
		return nil, &InconsistentRequest{Message: "cgi requests must not set a raw Query; use VarsGet"}
	}

	method, err := buildMethod(cfg, spec)
	if err != nil {
		return nil, err
	}

	uri, err := buildURI(cfg, spec)
	if err != nil {
		return nil, err
	}

	versionStr := buildVersion(cfg, spec)

	padMethodURI := padChar(cfg.GetString("pad_method_uri_type", "space"), cfg.GetInt("pad_method_uri_count", 0))
	padURIVersion := padChar(cfg.GetString("pad_uri_version_type", "space"), cfg.GetInt("pad_uri_version_count", 0))

	var body []byte
	var transferEncodingChunked bool
	var contentType string
	if !spec.NoBodyForAuth {
		body, contentType, err = buildBody(cfg, spec)
		if err != nil {
			return nil, err
		}
		if chunkSize := cfg.GetInt("chunked_size", 0); chunkSize > 0 && len(body) > 0 {
			body = chunkBody(body, chunkSize)
			transferEncodingChunked = true
		}
	}

	var out strings.Builder

	// Request line.
	out.WriteString(method)
	out.WriteString(padMethodURI)
	if padMethodURI == "" {
		out.WriteByte(' ')
	}
	out.WriteString(uri)
	out.WriteString(padURIVersion)
	if padURIVersion == "" {
		out.WriteByte(' ')
	}
	out.WriteString(versionStr)
	out.WriteString("\r\n")

	writeHeaders(&out, cfg, spec, contentType, len(body), transferEncodingChunked)
	out.WriteString("\r\n")

	result := []byte(out.String())
	if len(body) > 0 {
		result = append(result, body...)
	}
	return result, nil
}

func buildMethod(cfg *config.Bag, spec *Spec) (string, error) {
	method := spec.Method
	if method == "" {
		method = "GET"
	}
	if !utf8.ValidString(method) {
		return "", &EncodeError{Field: "method", Message: "invalid UTF-8"}
	}

	if cfg.GetBool("method_random_invalid", false) {
		return randomInvalidMethod(), nil
	}
	if cfg.GetBool("method_random_valid", false) {
		method = randomValidMethod()
	}
	if cfg.GetBool("method_random_case", false) {
		method = randomCase(method)
	}
	return method, nil
}

func buildVersion(cfg *config.Bag, spec *Spec) string {
	proto := spec.proto()
	version := spec.version()

	if cfg.GetBool("version_random_invalid", false) {
		version = randomInvalidVersion()
	} else if cfg.GetBool("version_random_valid", false) {
		version = randomValidVersion()
	}
	return proto + "/" + version
}

func buildURI(cfg *config.Bag, spec *Spec) (string, error) {
	uri := spec.URI
	if uri == "" {
		uri = "/"
	}
	if !utf8.ValidString(uri) {
		return "", &EncodeError{Field: "uri", Message: "invalid UTF-8"}
	}

	if cfg.GetBool("uri_dir_self_reference", false) {
		uri = "/." + uri
	}
	if cfg.GetBool("uri_dir_fake_relative", false) {
		uri = "/real/.." + uri
	}
	if cfg.GetBool("uri_use_backslashes", false) {
		uri = strings.ReplaceAll(uri, "/", `\`)
	}
	if cfg.GetBool("uri_fake_end", false) {
		uri += "%00"
	}

	if mode := cfg.GetString("uri_encode_mode", ""); mode != "" {
		uri = encodeURI(uri, mode, cfg.GetInt("uri_encode_count", 1))
	}

	query := spec.Query
	if spec.CGI {
		query = buildFormPairs(spec.VarsGet, cfg.GetBool("shuffle_get_params", false),
			cfg.GetInt("pad_get_params_count", 0), spec.encodeParams())
	}

	if cfg.GetBool("uri_fake_params_start", false) {
		if query == "" {
			query = "foo=bar"
		} else {
			query = "foo=bar&" + query
		}
	}

	if query != "" {
		uri += "?" + query
	}

	if cfg.GetBool("uri_full_url", false) {
		scheme := spec.Scheme
		if scheme == "" {
			scheme = "http"
		}
		host := spec.VHost
		if spec.Port != 0 && !isDefaultPort(scheme, spec.Port) {
			host = fmt.Sprintf("%s:%d", host, spec.Port)
		}
		uri = scheme + "://" + host + uri
	}

	return uri, nil
}

func isDefaultPort(scheme string, port int) bool {
	return (scheme == "http" && port == 80) || (scheme == "https" && port == 443)
}

func buildBody(cfg *config.Bag, spec *Spec) (body []byte, contentType string, err error) {
	if !spec.CGI {
		return spec.Data, "", nil
	}

	if len(spec.VarsFormData) > 0 {
		data, boundary, err := buildMultipartBody(spec.VarsFormData)
		if err != nil {
			return nil, "", err
		}
		return data, "multipart/form-data; boundary=" + boundary, nil
	}

	form := buildFormPairs(spec.VarsPost, cfg.GetBool("shuffle_post_params", false),
		cfg.GetInt("pad_post_params_count", 0), spec.encodeParams())
	return []byte(form), spec.ctype(), nil
}

func writeHeaders(out *strings.Builder, cfg *config.Bag, spec *Spec, bodyContentType string, bodyLen int, chunked bool) {
	type hdr struct{ name, value string }
	var headers []hdr

	host := spec.VHost
	if sni := cfg.GetString("ssl_server_name_indication", ""); host == "" && sni != "" {
		host = sni
	}
	if host != "" {
		headers = append(headers, hdr{"Host", host})
	}

	agent := spec.Agent
	if agent == "" {
		agent = cfg.GetString("agent", "")
	}
	if agent != "" {
		headers = append(headers, hdr{"User-Agent", agent})
	}

	if spec.Connection != "" {
		headers = append(headers, hdr{"Connection", spec.Connection})
	}
	if spec.Cookie != "" {
		headers = append(headers, hdr{"Cookie", spec.Cookie})
	}

	if spec.CGI && bodyContentType != "" {
		headers = append(headers, hdr{"Content-Type", bodyContentType})
	}

	if chunked {
		headers = append(headers, hdr{"Transfer-Encoding", "chunked"})
	} else if !spec.NoBodyForAuth {
		headers = append(headers, hdr{"Content-Length", strconv.Itoa(bodyLen)})
	}

	suppressExpect := bodyLen == 0 && !spec.CGI
	if spec.Headers != nil {
		for _, f := range spec.Headers.All() {
			if suppressExpect && equalFold(f.Name, "Expect") {
				continue
			}
			headers = append(headers, hdr{f.Name, f.Value})
		}
	}

	for i := 0; i < cfg.GetInt("pad_fake_headers_count", 0); i++ {
		headers = append(headers, hdr{randomParamName(), randomParamValue()})
	}

	folding := cfg.GetBool("header_folding", false)
	for _, h := range headers {
		out.WriteString(h.name)
		out.WriteString(": ")
		if folding {
			out.WriteString(foldHeaderValue(h.value))
		} else {
			out.WriteString(h.value)
		}
		out.WriteString("\r\n")
	}

	if spec.RawHeaders != "" {
		out.WriteString(spec.RawHeaders)
		if !strings.HasSuffix(spec.RawHeaders, "\r\n") {
			out.WriteString("\r\n")
		}
	}
}

// foldHeaderValue splits a header value into CRLF + SP continuation lines
// at each space, matching RFC 2616 header folding.
func foldHeaderValue(value string) string {
	parts := strings.Split(value, " ")
	if len(parts) < 2 {
		return value
	}
	return strings.Join(parts, "\r\n ")
}
