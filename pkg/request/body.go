package request

import (
	"bytes"
	"fmt"
	"io"
	"math/rand"
	"mime/multipart"
	"net/textproto"
	"net/url"
	"strconv"
	"strings"
)

// buildFormPairs assembles name=value&name=value..., shuffling order if
// requested and appending padCount random junk pairs. encode controls
// whether names/values are percent-encoded (encode_params).
func buildFormPairs(vars []FormValue, shuffle bool, padCount int, encode bool) string {
	type pair struct{ name, value string }
	var pairs []pair
	for _, v := range vars {
		if len(v.Values) == 0 {
			pairs = append(pairs, pair{v.Name, ""})
			continue
		}
		for _, val := range v.Values {
			pairs = append(pairs, pair{v.Name, val})
		}
	}

	for i := 0; i < padCount; i++ {
		pairs = append(pairs, pair{randomParamName(), randomParamValue()})
	}

	if shuffle {
		rand.Shuffle(len(pairs), func(i, j int) { pairs[i], pairs[j] = pairs[j], pairs[i] })
	}

	parts := make([]string, 0, len(pairs))
	for _, p := range pairs {
		name, value := p.name, p.value
		if encode {
			name = url.QueryEscape(name)
			value = url.QueryEscape(value)
		}
		parts = append(parts, name+"="+value)
	}
	return strings.Join(parts, "&")
}

func randomParamName() string {
	return "x" + strconv.Itoa(rand.Intn(100000))
}

func randomParamValue() string {
	return strconv.Itoa(rand.Intn(100000))
}

// buildMultipartBody assembles a multipart/form-data body from the
// configured parts, returning the body bytes and the boundary used.
func buildMultipartBody(fields []MultipartField) ([]byte, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	for _, f := range fields {
		var pw io.Writer
		var err error
		if f.Filename != "" {
			ct := f.ContentType
			if ct == "" {
				ct = "application/octet-stream"
			}
			h := textproto.MIMEHeader{}
			h.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, f.Name, f.Filename))
			h.Set("Content-Type", ct)
			pw, err = w.CreatePart(h)
		} else {
			pw, err = w.CreateFormField(f.Name)
		}
		if err != nil {
			return nil, "", err
		}
		if _, err := pw.Write(f.Data); err != nil {
			return nil, "", err
		}
	}

	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return buf.Bytes(), w.Boundary(), nil
}

// chunkBody transfer-encodes data into chunks of the given size, matching
// RFC 2616 §3.6.1 chunk framing.
func chunkBody(data []byte, size int) []byte {
	if size <= 0 {
		size = 1
	}
	var buf bytes.Buffer
	for len(data) > 0 {
		n := size
		if n > len(data) {
			n = len(data)
		}
		fmt.Fprintf(&buf, "%x\r\n", n)
		buf.Write(data[:n])
		buf.WriteString("\r\n")
		data = data[n:]
	}
	buf.WriteString("0\r\n\r\n")
	return buf.Bytes()
}
