package modules

import (
	"context"
	"io"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	gerrors "github.com/btouchard/gox/pkg/errors"
	"github.com/btouchard/gox/pkg/value"
)

const (
	defaultHTTPTimeout = 30 * time.Second
	defaultHTTPRetries = 2
)

// httpClient backs both the module-level http functions and the handles
// returned by http.client(). Connection failures and 5xx answers are
// retried with backoff; the last answer is returned as is.
type httpClient struct {
	client  *retryablehttp.Client
	headers map[string]string
}

func newHTTPClient(timeout time.Duration, retries int, headers map[string]string) *httpClient {
	c := retryablehttp.NewClient()
	c.HTTPClient.Timeout = timeout
	c.RetryMax = retries
	c.RetryWaitMin = 100 * time.Millisecond
	c.RetryWaitMax = 2 * time.Second
	c.ErrorHandler = retryablehttp.PassthroughErrorHandler
	c.Logger = retryLogger{}
	return &httpClient{client: c, headers: headers}
}

func httpModule() *Module {
	std := newHTTPClient(defaultHTTPTimeout, defaultHTTPRetries, nil)
	return &Module{Name: "http", Funcs: map[string]Func{
		"get": func(args []value.Value) (value.Value, error) {
			return std.CallMethod("get", args)
		},
		"post": func(args []value.Value) (value.Value, error) {
			return std.CallMethod("post", args)
		},
		"request": func(args []value.Value) (value.Value, error) {
			return std.CallMethod("request", args)
		},
		"client": func(args []value.Value) (value.Value, error) {
			if len(args) > 1 {
				return nil, gerrors.Runtime(gerrors.ArgumentError, "http.client expects an optional options map")
			}
			timeout, retries := defaultHTTPTimeout, defaultHTTPRetries
			var headers map[string]string
			if len(args) == 1 {
				opts, ok := value.Unwrap(args[0]).(*value.Map)
				if !ok {
					return nil, gerrors.Runtime(gerrors.TypeMismatch, "http.client expects Map, found %s", args[0].Kind())
				}
				if v, ok := opts.Get("timeout"); ok {
					ms, err := value.AsFloat64(v)
					if err != nil || ms <= 0 {
						return nil, gerrors.Runtime(gerrors.ArgumentError, "http.client: timeout must be a positive number of milliseconds")
					}
					timeout = time.Duration(ms * float64(time.Millisecond))
				}
				if v, ok := opts.Get("retries"); ok {
					n, err := value.AsInt64(v)
					if err != nil || n < 0 {
						return nil, gerrors.Runtime(gerrors.ArgumentError, "http.client: retries must be a non-negative Int")
					}
					retries = int(n)
				}
				if v, ok := opts.Get("headers"); ok {
					h, err := headerArg("http.client", v)
					if err != nil {
						return nil, err
					}
					headers = h
				}
			}
			c := newHTTPClient(timeout, retries, headers)
			return &value.NativeHandle{Module: "http", Type: "client", Ref: c}, nil
		},
	}}
}

// CallMethod implements value.HandleMethods.
func (c *httpClient) CallMethod(name string, args []value.Value) (value.Value, error) {
	switch name {
	case "get":
		if len(args) < 1 || len(args) > 2 {
			return nil, gerrors.Runtime(gerrors.ArgumentError, "http.get expects a url and optional headers")
		}
		return c.do("http.get", http.MethodGet, args[0], value.Null{}, args[1:])
	case "post":
		if len(args) < 2 || len(args) > 3 {
			return nil, gerrors.Runtime(gerrors.ArgumentError, "http.post expects a url, a body and optional headers")
		}
		return c.do("http.post", http.MethodPost, args[0], args[1], args[2:])
	case "request":
		if len(args) < 2 || len(args) > 4 {
			return nil, gerrors.Runtime(gerrors.ArgumentError, "http.request expects a method, a url, an optional body and optional headers")
		}
		method, err := stringArg("http.request", args[0])
		if err != nil {
			return nil, err
		}
		var body value.Value = value.Null{}
		if len(args) > 2 {
			body = args[2]
		}
		var extra []value.Value
		if len(args) > 3 {
			extra = args[3:]
		}
		return c.do("http.request", strings.ToUpper(method), args[1], body, extra)
	}
	return nil, gerrors.NoMethod("http.client", name)
}

func (c *httpClient) do(name, method string, urlArg, body value.Value, extra []value.Value) (value.Value, error) {
	url, err := stringArg(name, urlArg)
	if err != nil {
		return nil, err
	}
	payload, contentType, err := requestBody(name, body)
	if err != nil {
		return nil, err
	}
	var raw interface{}
	if payload != nil {
		raw = payload
	}
	req, err := retryablehttp.NewRequestWithContext(context.Background(), method, url, raw)
	if err != nil {
		return nil, gerrors.Runtime(gerrors.ArgumentError, "%s: %v", name, err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}
	if len(extra) == 1 {
		h, err := headerArg(name, extra[0])
		if err != nil {
			return nil, err
		}
		for k, v := range h {
			req.Header.Set(k, v)
		}
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, gerrors.Runtime(gerrors.IOError, "%s %s: %v", name, url, err)
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, gerrors.Runtime(gerrors.IOError, "%s %s: reading body: %v", name, url, err)
	}
	return responseValue(resp, data), nil
}

// requestBody encodes a script value as a request payload: String goes
// out as text, Array and Map as JSON, null as no body.
func requestBody(name string, body value.Value) ([]byte, string, error) {
	switch b := value.Unwrap(body).(type) {
	case value.Null:
		return nil, "", nil
	case value.String:
		return []byte(b), "text/plain; charset=utf-8", nil
	case *value.Array, *value.Map:
		data, err := EncodeJSON(b)
		if err != nil {
			return nil, "", err
		}
		return data, "application/json", nil
	}
	return nil, "", gerrors.Runtime(gerrors.TypeMismatch, "%s: cannot send %s as a request body", name, body.Kind())
}

// responseValue shapes a response as {status, body, headers}. Header
// names are lower-cased and only the first value of each is kept.
func responseValue(resp *http.Response, body []byte) value.Value {
	headers := value.NewMap()
	names := make([]string, 0, len(resp.Header))
	for k := range resp.Header {
		names = append(names, k)
	}
	sort.Strings(names)
	for _, k := range names {
		headers.Set(strings.ToLower(k), value.String(resp.Header.Get(k)))
	}
	out := value.NewMap()
	out.Set("status", value.Int(resp.StatusCode))
	out.Set("body", value.String(body))
	out.Set("headers", headers)
	return out
}

func headerArg(name string, v value.Value) (map[string]string, error) {
	m, ok := value.Unwrap(v).(*value.Map)
	if !ok {
		return nil, gerrors.Runtime(gerrors.TypeMismatch, "%s expects headers as a Map, found %s", name, v.Kind())
	}
	out := make(map[string]string, m.Len())
	var err error
	m.Each(func(k string, hv value.Value) {
		if err != nil {
			return
		}
		s, serr := stringArg(name, hv)
		if serr != nil {
			err = serr
			return
		}
		out[k] = s
	})
	return out, err
}

// retryLogger routes retry chatter to the global zerolog logger.
type retryLogger struct{}

func (retryLogger) Error(msg string, kv ...interface{}) { logEvent(log.Error(), msg, kv) }
func (retryLogger) Info(msg string, kv ...interface{})  { logEvent(log.Debug(), msg, kv) }
func (retryLogger) Debug(msg string, kv ...interface{}) { logEvent(log.Debug(), msg, kv) }
func (retryLogger) Warn(msg string, kv ...interface{})  { logEvent(log.Warn(), msg, kv) }

func logEvent(e *zerolog.Event, msg string, kv []interface{}) {
	e.Str("module", "http").Fields(kv).Msg(msg)
}
