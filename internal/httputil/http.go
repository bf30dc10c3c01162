// Copyright 2026 The SafeTrack Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package httputil

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/opentracing/opentracing-go"
	"github.com/opentracing/opentracing-go/ext"
)

// Request describes one outgoing call made by DoJSON.
type Request struct {
	Method string
	URL    string
	// Token, when set, is sent as a bearer Authorization header.
	Token string
	// Body and ContentType are sent as-is. Body may be nil.
	Body        io.Reader
	ContentType string
	// Header carries any additional headers.
	Header http.Header
}

// TransportError is returned when the server could not be reached or the
// response could not be read.
type TransportError struct {
	URL string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: %s", e.URL, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// ErrorDecoder turns a non-2xx response into an error.
type ErrorDecoder func(statusCode int, body []byte) error

// DoJSON performs the request and decodes a 2xx JSON body into response.
// An empty success body leaves response untouched. Non-2xx responses are
// handed to decodeError.
func DoJSON[restype any](
	ctx context.Context, span opentracing.Span, httpClient *http.Client,
	r *Request, response *restype, decodeError ErrorDecoder,
) (statusCode int, err error) {
	req, err := http.NewRequestWithContext(ctx, r.Method, r.URL, r.Body)
	if err != nil {
		return 0, err
	}
	for k, vs := range r.Header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	if r.ContentType != "" {
		req.Header.Set("Content-Type", r.ContentType)
	}
	req.Header.Set("Accept", "application/json")
	if r.Token != "" {
		req.Header.Set("Authorization", "Bearer "+r.Token)
	}

	if span != nil {
		// Mark the span as being an RPC client.
		ext.SpanKindRPCClient.Set(span)
		ext.HTTPMethod.Set(span, r.Method)
		ext.HTTPUrl.Set(span, r.URL)
		carrier := opentracing.HTTPHeadersCarrier(req.Header)
		if err = span.Tracer().Inject(span.Context(), opentracing.HTTPHeaders, carrier); err != nil {
			return 0, err
		}
	}

	res, err := httpClient.Do(req)
	if err != nil {
		return 0, &TransportError{URL: r.URL, Err: err}
	}
	defer res.Body.Close() // nolint: errcheck
	if span != nil {
		ext.HTTPStatusCode.Set(span, uint16(res.StatusCode))
	}

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return res.StatusCode, &TransportError{URL: r.URL, Err: err}
	}
	if res.StatusCode < 200 || res.StatusCode > 299 {
		if span != nil {
			ext.Error.Set(span, true)
		}
		return res.StatusCode, decodeError(res.StatusCode, body)
	}
	if len(body) == 0 || response == nil {
		return res.StatusCode, nil
	}
	if err = json.Unmarshal(body, response); err != nil {
		return res.StatusCode, fmt.Errorf("json.Unmarshal: %w", err)
	}
	return res.StatusCode, nil
}
