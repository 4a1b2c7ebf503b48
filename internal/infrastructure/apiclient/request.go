package apiclient

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
)

// Request describes one API call. At most one of Body and Form may be set.
type Request struct {
	// Endpoint is the path below the base URL and version, e.g. "/api/users/login".
	Endpoint string
	// Method defaults to GET.
	Method string
	// Body is serialized as JSON. json.RawMessage and []byte are sent verbatim.
	Body any
	// Form is sent as multipart/form-data.
	Form *Multipart
	// Headers override the defaults built by BuildHeaders.
	Headers map[string]string
}

func (r Request) method() string {
	if r.Method == "" {
		return http.MethodGet
	}
	return strings.ToUpper(r.Method)
}

// Multipart is a multipart/form-data payload.
type Multipart struct {
	Fields map[string]string
	Files  []FilePart
}

// FilePart is a single file inside a Multipart payload.
type FilePart struct {
	// Field is the form field name, e.g. "file".
	Field    string
	Filename string
	// ContentType defaults to application/octet-stream.
	ContentType string
	Content     io.Reader
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

// encode renders the payload and returns it with the boundary-bearing content type.
func (m *Multipart) encode() (*bytes.Buffer, string, error) {
	buf := &bytes.Buffer{}
	w := multipart.NewWriter(buf)

	for name, value := range m.Fields {
		if err := w.WriteField(name, value); err != nil {
			return nil, "", fmt.Errorf("write field %s: %w", name, err)
		}
	}

	for _, f := range m.Files {
		ct := f.ContentType
		if ct == "" {
			ct = "application/octet-stream"
		}
		hdr := make(textproto.MIMEHeader)
		hdr.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`,
			quoteEscaper.Replace(f.Field), quoteEscaper.Replace(f.Filename)))
		hdr.Set("Content-Type", ct)

		part, err := w.CreatePart(hdr)
		if err != nil {
			return nil, "", fmt.Errorf("create part %s: %w", f.Field, err)
		}
		if f.Content != nil {
			if _, err := io.Copy(part, f.Content); err != nil {
				return nil, "", fmt.Errorf("copy %s: %w", f.Filename, err)
			}
		}
	}

	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("close multipart writer: %w", err)
	}
	return buf, w.FormDataContentType(), nil
}

// encodeJSON serializes a structured body.
func encodeJSON(body any) (io.Reader, error) {
	switch b := body.(type) {
	case json.RawMessage:
		return bytes.NewReader(b), nil
	case []byte:
		return bytes.NewReader(b), nil
	}
	data, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request body: %w", err)
	}
	return bytes.NewReader(data), nil
}
