package modules

import (
	"fmt"
	"io"
	"net"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"

	gerrors "github.com/btouchard/gox/pkg/errors"
	"github.com/btouchard/gox/pkg/value"
)

var routeMethods = map[string]string{
	"get":     http.MethodGet,
	"post":    http.MethodPost,
	"put":     http.MethodPut,
	"delete":  http.MethodDelete,
	"patch":   http.MethodPatch,
	"head":    http.MethodHead,
	"options": http.MethodOptions,
}

// webApp is the router behind a web.app() handle. Handlers are script
// functions, which are not safe for concurrent use, so requests run
// them one at a time.
type webApp struct {
	router *mux.Router
	routes []string
	host   string
	debug  bool
	out    io.Writer

	mu sync.Mutex
}

func webModule(o Options) *Module {
	return &Module{Name: "web", Funcs: map[string]Func{
		"app": func(args []value.Value) (value.Value, error) {
			if len(args) > 1 {
				return nil, gerrors.Runtime(gerrors.ArgumentError, "web.app expects an optional options map")
			}
			app := &webApp{router: mux.NewRouter(), host: "127.0.0.1", out: o.Stdout}
			if len(args) == 1 {
				opts, ok := value.Unwrap(args[0]).(*value.Map)
				if !ok {
					return nil, gerrors.Runtime(gerrors.TypeMismatch, "web.app expects Map, found %s", args[0].Kind())
				}
				if err := app.configure("web.app", opts); err != nil {
					return nil, err
				}
			}
			app.router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, "not found", http.StatusNotFound)
			})
			return &value.NativeHandle{Module: "web", Type: "app", Ref: app}, nil
		},
		"json": func(args []value.Value) (value.Value, error) {
			if err := arity("web.json", args, 1); err != nil {
				return nil, err
			}
			data, err := EncodeJSON(args[0])
			if err != nil {
				return nil, err
			}
			return value.String(data), nil
		},
	}}
}

// configure applies host and debug. A workers count is accepted for
// compatibility and ignored: net/http serves each connection on its own
// goroutine.
func (a *webApp) configure(name string, opts *value.Map) error {
	if v, ok := opts.Get("host"); ok {
		host, err := stringArg(name, v)
		if err != nil {
			return err
		}
		a.host = host
	}
	if v, ok := opts.Get("debug"); ok {
		debug, err := value.AsBool(v)
		if err != nil {
			return gerrors.Runtime(gerrors.TypeMismatch, "%s: debug must be a Bool", name)
		}
		a.debug = debug
	}
	if v, ok := opts.Get("workers"); ok {
		if n, err := value.AsInt64(v); err != nil || n < 1 {
			return gerrors.Runtime(gerrors.ArgumentError, "%s: workers must be a positive Int", name)
		}
	}
	return nil
}

// CallMethod implements value.HandleMethods.
func (a *webApp) CallMethod(name string, args []value.Value) (value.Value, error) {
	if method, ok := routeMethods[name]; ok {
		return a.route("web.app."+name, method, args)
	}
	switch name {
	case "routes":
		if err := arity("web.app.routes", args, 0); err != nil {
			return nil, err
		}
		out := make([]value.Value, len(a.routes))
		for i, r := range a.routes {
			out[i] = value.String(r)
		}
		return value.NewArray(out...), nil
	case "listen":
		return a.listen(args)
	}
	return nil, gerrors.NoMethod("web.app", name)
}

func (a *webApp) route(name, method string, args []value.Value) (value.Value, error) {
	if err := arity(name, args, 2); err != nil {
		return nil, err
	}
	path, err := stringArg(name, args[0])
	if err != nil {
		return nil, err
	}
	if !strings.HasPrefix(path, "/") {
		return nil, gerrors.Runtime(gerrors.ArgumentError, "%s: path %q must start with /", name, path)
	}
	handler := args[1]
	if !value.Callable(handler) {
		return nil, gerrors.Runtime(gerrors.TypeMismatch, "%s expects a handler function, found %s", name, handler.Kind())
	}
	a.router.HandleFunc(path, a.serve(handler)).Methods(method)
	a.routes = append(a.routes, method+" "+path)
	return value.Null{}, nil
}

// serve adapts a script handler. The handler receives one request map;
// a String result is sent as text, anything else as JSON, and an error
// becomes a 500.
func (a *webApp) serve(handler value.Value) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		a.mu.Lock()
		result, err := value.Call(handler, []value.Value{a.request(r, body)})
		a.mu.Unlock()
		if err != nil {
			log.Debug().Str("module", "web").Str("path", r.URL.Path).Err(err).Msg("handler failed")
			msg := "internal server error"
			if a.debug {
				msg = err.Error()
			}
			http.Error(w, msg, http.StatusInternalServerError)
			return
		}

		if s, ok := value.Unwrap(result).(value.String); ok {
			w.Header().Set("Content-Type", "text/plain; charset=utf-8")
			_, _ = io.WriteString(w, string(s))
			return
		}
		data, err := EncodeJSON(result)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(data)
	}
}

func (a *webApp) request(r *http.Request, body []byte) *value.Map {
	params := value.NewMap()
	for k, v := range mux.Vars(r) {
		params.Set(k, value.String(v))
	}
	query := value.NewMap()
	q := r.URL.Query()
	for _, k := range sortedKeys(q) {
		query.Set(k, value.String(q.Get(k)))
	}
	headers := value.NewMap()
	for _, k := range sortedKeys(r.Header) {
		headers.Set(strings.ToLower(k), value.String(r.Header.Get(k)))
	}

	req := value.NewMap()
	req.Set("method", value.String(r.Method))
	req.Set("path", value.String(r.URL.Path))
	req.Set("params", params)
	req.Set("query", query)
	req.Set("headers", headers)
	req.Set("body", value.String(body))
	req.Set("debug", value.Bool(a.debug))
	return req
}

// listen(port, [opts]) serves until the process exits.
func (a *webApp) listen(args []value.Value) (value.Value, error) {
	if len(args) < 1 || len(args) > 2 {
		return nil, gerrors.Runtime(gerrors.ArgumentError, "web.app.listen expects a port and optional options")
	}
	port, err := value.AsInt64(args[0])
	if err != nil || port < 0 || port > 65535 {
		return nil, gerrors.Runtime(gerrors.ArgumentError, "web.app.listen: invalid port %s", args[0])
	}
	if len(args) == 2 {
		opts, ok := value.Unwrap(args[1]).(*value.Map)
		if !ok {
			return nil, gerrors.Runtime(gerrors.TypeMismatch, "web.app.listen expects Map, found %s", args[1].Kind())
		}
		if err := a.configure("web.app.listen", opts); err != nil {
			return nil, err
		}
	}

	addr := net.JoinHostPort(a.host, strconv.FormatInt(port, 10))
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, gerrors.Runtime(gerrors.IOError, "web.app.listen: %v", err)
	}
	if a.debug {
		fmt.Fprintf(a.out, "listening on http://%s\n", ln.Addr())
	}
	if err := http.Serve(ln, a); err != nil && err != http.ErrServerClosed {
		return nil, gerrors.Runtime(gerrors.IOError, "web.app.listen: %v", err)
	}
	return value.Null{}, nil
}

func (a *webApp) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	a.router.ServeHTTP(w, r)
}

func sortedKeys(m map[string][]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
