package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"path/filepath"
	"strings"
)

// Request describes one logical API call. Path is relative to the base URL.
type Request struct {
	Method string
	Path   string
	Query  url.Values
	Body   any
	File   *File
}

// File is a multipart upload. Fields are sent as extra form values.
type File struct {
	Field       string
	Name        string
	ContentType string
	Data        []byte
	Fields      map[string]string
}

// Response is a fully read API response.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// prepared holds the encoded payload so every attempt can rebuild the request.
type prepared struct {
	method      string
	path        string
	query       url.Values
	body        []byte
	contentType string
}

func (r *Request) prepare() (*prepared, error) {
	if r == nil {
		return nil, fmt.Errorf("nil request")
	}
	method := r.Method
	if method == "" {
		method = http.MethodGet
	}
	path := r.Path
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	p := &prepared{
		method:      method,
		path:        path,
		query:       r.Query,
		contentType: "application/json",
	}

	switch {
	case r.File != nil:
		body, contentType, err := r.File.encode()
		if err != nil {
			return nil, err
		}
		p.body, p.contentType = body, contentType
	case r.Body != nil:
		body, err := json.Marshal(r.Body)
		if err != nil {
			return nil, fmt.Errorf("encode %s %s body: %w", method, path, err)
		}
		p.body = body
	}
	return p, nil
}

func (p *prepared) build(ctx context.Context, baseURL string) (*http.Request, error) {
	target := strings.TrimRight(baseURL, "/") + p.path
	if len(p.query) > 0 {
		target += "?" + p.query.Encode()
	}

	var body io.Reader = http.NoBody
	if p.body != nil {
		body = bytes.NewReader(p.body)
	}
	req, err := http.NewRequestWithContext(ctx, p.method, target, body)
	if err != nil {
		return nil, fmt.Errorf("create %s request: %w", p.method, err)
	}
	req.Header.Set("Content-Type", p.contentType)
	return req, nil
}

func (f *File) encode() ([]byte, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	for k, v := range f.Fields {
		if err := w.WriteField(k, v); err != nil {
			return nil, "", fmt.Errorf("write form field %s: %w", k, err)
		}
	}

	field := f.Field
	if field == "" {
		field = "file"
	}
	contentType := f.ContentType
	if contentType == "" {
		contentType = mime.TypeByExtension(strings.ToLower(filepath.Ext(f.Name)))
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", mime.FormatMediaType("form-data", map[string]string{
		"name":     field,
		"filename": filepath.Base(f.Name),
	}))
	h.Set("Content-Type", contentType)
	part, err := w.CreatePart(h)
	if err != nil {
		return nil, "", fmt.Errorf("create form file: %w", err)
	}
	if _, err := part.Write(f.Data); err != nil {
		return nil, "", fmt.Errorf("write form file: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("close multipart writer: %w", err)
	}
	return buf.Bytes(), w.FormDataContentType(), nil
}
