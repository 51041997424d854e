// Package modules implements the standard library reached through
// `use name` and module.fn(...) calls.
package modules

import (
	"io"
	"os"
	"sort"
	"time"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"

	gerrors "github.com/btouchard/gox/pkg/errors"
	"github.com/btouchard/gox/pkg/value"
)

// Func is one module function.
type Func func(args []value.Value) (value.Value, error)

// Module is a named table of functions.
type Module struct {
	Name  string
	Funcs map[string]Func
}

// Options configures the process-facing modules.
type Options struct {
	Args   []string
	Stdout io.Writer
	FS     billy.Filesystem
	Dir    string
	Now    func() time.Time
}

type Option func(*Options)

// WithArgs sets what os.args() returns.
func WithArgs(args []string) Option {
	return func(o *Options) { o.Args = args }
}

func WithStdout(w io.Writer) Option {
	return func(o *Options) { o.Stdout = w }
}

// WithFilesystem backs the fs module with fsys; relative paths resolve
// against dir.
func WithFilesystem(fsys billy.Filesystem, dir string) Option {
	return func(o *Options) {
		o.FS = fsys
		o.Dir = dir
	}
}

func WithClock(now func() time.Time) Option {
	return func(o *Options) { o.Now = now }
}

// Registry resolves module calls. It implements value.Caller.
type Registry struct {
	modules map[string]*Module
}

// New returns a registry holding json, os, time, fs, term, http and web.
func New(opts ...Option) *Registry {
	o := Options{Stdout: os.Stdout, Now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	if o.FS == nil {
		o.FS = osfs.New("/")
		if o.Dir == "" {
			o.Dir, _ = os.Getwd()
		}
	}
	r := &Registry{modules: make(map[string]*Module)}
	r.Register(jsonModule())
	r.Register(osModule(o))
	r.Register(timeModule(o))
	r.Register(fsModule(o))
	r.Register(termModule(o))
	r.Register(httpModule())
	r.Register(webModule(o))
	return r
}

func (r *Registry) Register(m *Module) {
	r.modules[m.Name] = m
}

func (r *Registry) Has(name string) bool {
	_, ok := r.modules[name]
	return ok
}

// Names lists the registered modules in lexical order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.modules))
	for name := range r.modules {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Load returns the value bound by `use name`.
func (r *Registry) Load(name string) (*value.Module, error) {
	if !r.Has(name) {
		return nil, gerrors.Runtime(gerrors.ImportError, "unknown module '%s'", name)
	}
	return &value.Module{Name: name, Caller: r}, nil
}

func (r *Registry) Call(module, fn string, args []value.Value) (value.Value, error) {
	m, ok := r.modules[module]
	if !ok {
		return nil, gerrors.Runtime(gerrors.ImportError, "unknown module '%s'", module)
	}
	f, ok := m.Funcs[fn]
	if !ok {
		return nil, gerrors.NoMethod("module "+module, fn)
	}
	return f(args)
}

func arity(name string, args []value.Value, n int) error {
	if len(args) != n {
		return gerrors.Arity(name, n, len(args))
	}
	return nil
}

func stringArg(name string, v value.Value) (string, error) {
	s, err := value.AsString(v)
	if err != nil {
		return "", gerrors.Runtime(gerrors.TypeMismatch, "%s expects String, found %s", name, v.Kind())
	}
	return s, nil
}
