// Package config loads wlgen configuration files.
//
// A configuration is either YAML (wlgen.yaml) or CUE (wlgen.cue). YAML is
// extracted to CUE syntax so values keep their source positions. Both are
// unified with the embedded #Config schema, which supplies defaults and
// rejects unknown fields, before being decoded. Errors point at the
// offending line and column of the configuration file.
package config

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/ast"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"
	cueyaml "cuelang.org/go/encoding/yaml"
)

//go:embed schema.cue
var schemaSource string

// FileNames are the names Find looks for, in order.
var FileNames = []string{"wlgen.yaml", "wlgen.yml", "wlgen.cue"}

// Output names the three artifact paths.
type Output struct {
	Declarations string `json:"declarations"`
	Requests     string `json:"requests"`
	Events       string `json:"events"`
}

// Config is a decoded, schema-checked configuration.
type Config struct {
	Protocols       []string `json:"protocols"`
	Implemented     []string `json:"implemented"`
	Output          Output   `json:"output"`
	Namespace       string   `json:"namespace"`
	CoreHeader      string   `json:"core_header"`
	InternalHeader  string   `json:"internal_header"`
	AllowDuplicates bool     `json:"allow_duplicates"`
	Ledger          string   `json:"ledger,omitempty"`

	// Dir is the directory relative paths resolve against: the config
	// file's directory, or the working directory for defaults.
	Dir string `json:"-"`
}

// Error reports an unreadable or invalid configuration.
type Error struct {
	Path    string
	Message string
	Pos     token.Pos
}

func (e *Error) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Path, e.Message)
}

// Load reads and validates the configuration file at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	cfg, err := Parse(data, path)
	if err != nil {
		return nil, err
	}
	abs, err := filepath.Abs(filepath.Dir(path))
	if err != nil {
		return nil, fmt.Errorf("resolving config directory: %w", err)
	}
	cfg.Dir = abs
	return cfg, nil
}

// Parse validates data against the schema. The extension of name selects
// the syntax: ".cue" for CUE, anything else for YAML.
func Parse(data []byte, name string) (*Config, error) {
	ctx := cuecontext.New()

	schema := ctx.CompileString(schemaSource, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return nil, fmt.Errorf("compiling config schema: %w", err)
	}
	def := schema.LookupPath(cue.ParsePath("#Config"))

	var v cue.Value
	if filepath.Ext(name) == ".cue" {
		v = ctx.CompileBytes(data, cue.Filename(name))
	} else {
		f, err := cueyaml.Extract(name, append([]byte{}, data...))
		if err != nil {
			return nil, yamlSyntaxError(name, data, err)
		}
		if isNullDocument(f) {
			f.Decls = nil
		}
		v = ctx.BuildFile(f)
	}
	if err := v.Err(); err != nil {
		return nil, formatCUEError(name, err, v)
	}

	unified := def.Unify(v)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return nil, formatCUEError(name, err, v)
	}

	var cfg Config
	if err := unified.Decode(&cfg); err != nil {
		return nil, formatCUEError(name, err, v)
	}
	return &cfg, nil
}

// isNullDocument reports whether f is an empty or comment-only YAML
// document, which extracts to a single null literal.
func isNullDocument(f *ast.File) bool {
	if len(f.Decls) != 1 {
		return false
	}
	embed, ok := f.Decls[0].(*ast.EmbedDecl)
	if !ok {
		return false
	}
	lit, ok := embed.Expr.(*ast.BasicLit)
	return ok && lit.Kind == token.NULL
}

// yamlSyntaxError turns a YAML decoder failure of the form
// "name:LINE: message" into an Error positioned at the start of LINE.
func yamlSyntaxError(name string, data []byte, err error) error {
	msg := strings.TrimPrefix(err.Error(), name+":")
	cfgErr := &Error{Path: name, Message: "invalid YAML: " + strings.TrimSpace(msg)}

	lineText, rest, ok := strings.Cut(msg, ":")
	line, convErr := strconv.Atoi(lineText)
	if !ok || convErr != nil || line < 1 {
		return cfgErr
	}
	cfgErr.Message = "invalid YAML: " + strings.TrimSpace(rest)

	file := token.NewFile(name, -1, len(data))
	file.SetLinesForContent(data)
	starts := file.Lines()
	if len(starts) == 0 {
		return cfgErr
	}
	line = min(line, len(starts))
	cfgErr.Pos = file.Pos(starts[line-1], token.NoRelPos)
	return cfgErr
}

// Default returns the schema defaults with paths relative to dir.
func Default(dir string) (*Config, error) {
	cfg, err := Parse([]byte("{}"), "defaults.yaml")
	if err != nil {
		return nil, err
	}
	cfg.Dir = dir
	return cfg, nil
}

// Find returns the first configuration file present in dir, or "" if none.
func Find(dir string) string {
	for _, name := range FileNames {
		path := filepath.Join(dir, name)
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			return path
		}
	}
	return ""
}

// Resolve makes p absolute against the config directory. Absolute and empty
// paths are returned unchanged.
func (c *Config) Resolve(p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(c.Dir, p)
}

// ProtocolPaths returns the protocol documents in configured order.
func (c *Config) ProtocolPaths() []string {
	paths := make([]string, len(c.Protocols))
	for i, p := range c.Protocols {
		paths[i] = c.Resolve(p)
	}
	return paths
}

// OutputPaths returns the resolved artifact paths.
func (c *Config) OutputPaths() Output {
	return Output{
		Declarations: c.Resolve(c.Output.Declarations),
		Requests:     c.Resolve(c.Output.Requests),
		Events:       c.Resolve(c.Output.Events),
	}
}

// formatCUEError reports the most specific error in a CUE error list. The
// position is the first one inside the configuration file; when the error
// carries none, the position of the offending input value is used.
func formatCUEError(path string, err error, input cue.Value) error {
	errs := cueerrors.Errors(err)
	if len(errs) == 0 {
		return &Error{Path: path, Message: err.Error()}
	}

	cause := mostSpecific(errs)
	field := fieldPath(cause.Path())
	format, args := cause.Msg()
	cfgErr := &Error{Path: path, Message: fmt.Sprintf(format, args...)}
	if len(field) > 0 {
		cfgErr.Message = strings.Join(field, ".") + ": " + cfgErr.Message
	}

	cfgErr.Pos = positionIn(path, cause)
	for _, e := range errs {
		if cfgErr.Pos.IsValid() {
			break
		}
		if slices.Equal(fieldPath(e.Path()), field) {
			cfgErr.Pos = positionIn(path, e)
		}
	}
	if !cfgErr.Pos.IsValid() && len(field) > 0 {
		if pos := input.LookupPath(cuePath(field)).Pos(); pos.Filename() == path {
			cfgErr.Pos = pos
		}
	}
	return cfgErr
}

// mostSpecific skips the "N errors in empty disjunction" summary CUE puts
// in front of the per-branch errors. Of the rest, the deepest path wins, and
// a failed constraint beats a conflict with a schema default.
func mostSpecific(errs []cueerrors.Error) cueerrors.Error {
	best, bestScore := errs[0], -1
	for _, e := range errs {
		format, _ := e.Msg()
		if strings.Contains(format, "empty disjunction") {
			continue
		}
		score := 2 * len(fieldPath(e.Path()))
		if !strings.HasPrefix(format, "conflicting values") && !strings.HasPrefix(format, "incompatible list lengths") {
			score++
		}
		if score > bestScore {
			best, bestScore = e, score
		}
	}
	return best
}

func positionIn(path string, err cueerrors.Error) token.Pos {
	for _, pos := range cueerrors.Positions(err) {
		if pos.Filename() == path {
			return pos
		}
	}
	return token.NoPos
}

// fieldPath drops the schema definition from an error path, leaving the
// path as written in the configuration.
func fieldPath(p []string) []string {
	for len(p) > 0 && strings.HasPrefix(p[0], "#") {
		p = p[1:]
	}
	return p
}

func cuePath(field []string) cue.Path {
	sels := make([]cue.Selector, len(field))
	for i, f := range field {
		if n, err := strconv.Atoi(f); err == nil {
			sels[i] = cue.Index(n)
		} else {
			sels[i] = cue.Str(f)
		}
	}
	return cue.MakePath(sels...)
}
