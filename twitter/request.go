package twitter

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
)

type APIRequest struct {
	// HTTP method, eg "GET" (required)
	Method string

	// API endpoint relative to the host, without ".json" suffix, eg "statuses/show" (required)
	Endpoint string

	// optional query parameters
	QueryParams url.Values

	// optional form parameters, sent as an "application/x-www-form-urlencoded" body
	Form url.Values

	// optional multipart file part, sent as a "multipart/form-data" body. Mutually exclusive
	// with Form.
	File *FilePart

	// send to the media upload host instead of the API host
	Upload bool

	// label used for metrics; defaults to Endpoint. Endpoints with ids in the path set this to
	// keep metric cardinality bounded.
	Name string
}

type FilePart struct {
	Field    string
	Filename string
	Body     io.Reader
}

func (r *APIRequest) metricName() string {
	if r.Name != "" {
		return r.Name
	}
	return r.Endpoint
}

// Turns the API request in to an `http.Request`.
//
// `host` parameter should be a URL prefix including API version: schema, hostname, port, path.
func (r *APIRequest) HTTPRequest(ctx context.Context, host string, headers http.Header) (*http.Request, error) {
	u, err := url.Parse(host)
	if err != nil {
		return nil, err
	}
	if u.Host == "" {
		return nil, fmt.Errorf("empty hostname in host URL")
	}
	if u.Scheme == "" {
		return nil, fmt.Errorf("empty scheme in host URL")
	}
	if r.Endpoint == "" {
		return nil, fmt.Errorf("empty request endpoint")
	}
	if r.Form != nil && r.File != nil {
		return nil, fmt.Errorf("request can not have both form and file bodies")
	}
	u.Path = strings.TrimSuffix(u.Path, "/") + "/" + r.Endpoint + ".json"
	u.RawQuery = ""
	if r.QueryParams != nil {
		u.RawQuery = r.QueryParams.Encode()
	}

	var body io.Reader
	contentType := ""
	if r.Form != nil {
		body = strings.NewReader(r.Form.Encode())
		contentType = "application/x-www-form-urlencoded"
	} else if r.File != nil {
		buf := &bytes.Buffer{}
		mw := multipart.NewWriter(buf)
		part, err := mw.CreateFormFile(r.File.Field, r.File.Filename)
		if err != nil {
			return nil, err
		}
		if _, err := io.Copy(part, r.File.Body); err != nil {
			return nil, fmt.Errorf("reading upload body: %w", err)
		}
		if err := mw.Close(); err != nil {
			return nil, err
		}
		body = bytes.NewReader(buf.Bytes())
		contentType = mw.FormDataContentType()
	}

	httpReq, err := http.NewRequestWithContext(ctx, r.Method, u.String(), body)
	if err != nil {
		return nil, err
	}
	for k := range headers {
		httpReq.Header.Set(k, headers.Get(k))
	}
	if contentType != "" {
		httpReq.Header.Set("Content-Type", contentType)
	}
	return httpReq, nil
}
