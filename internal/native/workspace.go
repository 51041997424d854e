package native

import (
	"path"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/util"
	"github.com/pkg/errors"
	"golang.org/x/mod/modfile"

	"github.com/btouchard/gox/internal/compiler/generator"
	gerrors "github.com/btouchard/gox/pkg/errors"
)

// goDirective is the language version written to workspace go.mod files.
const goDirective = "1.22"

// develVersion is the pseudo-version required when the runtime is
// replaced by a local checkout.
const develVersion = "v0.0.0-00010101000000-000000000000"

// Runtime locates the gox runtime packages generated programs import.
type Runtime struct {
	// Dir is a local checkout of the runtime module. When set, workspaces
	// replace the module with it.
	Dir string
	// Version is required when Dir is empty.
	Version string
}

func (rt Runtime) String() string {
	if rt.Dir != "" {
		return "dir:" + rt.Dir
	}
	return rt.Version
}

// GoMod renders the go.mod of a unit's workspace.
func GoMod(unit *CompilationUnit, rt Runtime) ([]byte, error) {
	f := &modfile.File{}
	if err := f.AddModuleStmt("gox.local/" + unit.Key()); err != nil {
		return nil, err
	}
	if err := f.AddGoStmt(goDirective); err != nil {
		return nil, err
	}

	version := rt.Version
	if rt.Dir != "" {
		version = develVersion
	}
	if version == "" {
		return nil, gerrors.Build("workspace", "no runtime version or directory configured for %s; set GOX_RUNTIME_DIR (or --runtime-dir) to a local checkout, or GOX_RUNTIME_VERSION to a released version", generator.RuntimeModule)
	}
	if err := f.AddRequire(generator.RuntimeModule, version); err != nil {
		return nil, err
	}
	for _, req := range unit.Requires {
		if err := f.AddRequire(req.Path, req.Version); err != nil {
			return nil, errors.Wrapf(err, "require %s", req)
		}
	}
	if rt.Dir != "" {
		if err := f.AddReplace(generator.RuntimeModule, "", rt.Dir, ""); err != nil {
			return nil, errors.Wrap(err, "could not add replace statement")
		}
	}

	f.Cleanup()
	return f.Format()
}

// Materialize writes the workspace of unit under dir in fsys: go.mod,
// main.go and one native_N.go per native block.
func Materialize(fsys billy.Filesystem, dir string, unit *CompilationUnit, rt Runtime) error {
	if err := fsys.MkdirAll(dir, 0o755); err != nil {
		return gerrors.Build("workspace", "%v", errors.Wrapf(err, "creating %s", dir))
	}

	gomod, err := GoMod(unit, rt)
	if err != nil {
		if gerrors.IsBuild(err) {
			return err
		}
		return gerrors.Build("workspace", "%v", errors.Wrap(err, "rendering go.mod"))
	}

	files := map[string][]byte{
		"go.mod":  gomod,
		"main.go": []byte(unit.Program.GoCode),
	}
	for _, nf := range unit.Program.Natives {
		files[nf.Name] = []byte(nf.Code)
	}
	for name, data := range files {
		if err := util.WriteFile(fsys, path.Join(dir, name), data, 0o644); err != nil {
			return gerrors.Build("workspace", "%v", errors.Wrapf(err, "writing %s", name))
		}
	}
	return nil
}
