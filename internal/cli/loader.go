package cli

import (
	"encoding/xml"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"cuelang.org/go/cue/token"
	"github.com/spf13/cobra"

	"github.com/roach88/wlgen/internal/codegen"
	"github.com/roach88/wlgen/internal/compiler"
	"github.com/roach88/wlgen/internal/config"
	"github.com/roach88/wlgen/internal/wlxml"
)

// Error code constants - unified across all CLI commands.
const (
	ErrCodeGeneric       = "E001" // Generic/unknown error
	ErrCodeReadFailed    = "E002" // Protocol or config read error
	ErrCodeNoProtocols   = "E003" // No protocol documents or no interfaces
	ErrCodeNotFound      = "E005" // Path not found
	ErrCodeWriteFailed   = "E007" // File write error
	ErrCodeLedgerFailed  = "E008" // Ledger open/read/write error
	ErrCodeStale         = "E009" // Generated file differs from disk (--check)
	ErrCodeConfigInvalid = "E205" // Config failed schema validation

	// Protocol errors share the compiler's E2xx codes.
	ErrCodeStructural         = compiler.ErrStructural
	ErrCodeMissingAttribute   = compiler.ErrMissingAttribute
	ErrCodeUnresolvedType     = compiler.ErrUnresolvedType
	ErrCodeDuplicateInterface = compiler.ErrDuplicateInterface
	ErrCodeNameCollision      = compiler.ErrNameCollision
)

// LoadError represents an error that occurred while loading a project.
type LoadError struct {
	Code     string
	Message  string
	Pos      token.Pos // config position if available
	Location string    // protocol file, or file:line, when Pos is unset
}

func (e *LoadError) Error() string {
	if loc := e.Where(); loc != "" {
		return fmt.Sprintf("%s: %s: %s", loc, e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Where returns the error location as "file:line:col", "file:line" or
// "file", or "" when unknown.
func (e *LoadError) Where() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column())
	}
	return e.Location
}

// ErrorCode maps any pipeline error to its CLI error code.
func ErrorCode(err error) string {
	var (
		loadErr    *LoadError
		cfgErr     *config.Error
		structErr  *wlxml.StructuralError
		missingErr *wlxml.MissingAttributeError
		typeErr    *codegen.UnresolvedTypeError
		nameErr    *codegen.NameCollisionError
		dupErr     *compiler.DuplicateInterfaceError
	)
	switch {
	case errors.As(err, &loadErr):
		return loadErr.Code
	case errors.As(err, &cfgErr):
		return ErrCodeConfigInvalid
	case errors.As(err, &structErr):
		return ErrCodeStructural
	case errors.As(err, &missingErr):
		return ErrCodeMissingAttribute
	case errors.As(err, &typeErr):
		return ErrCodeUnresolvedType
	case errors.As(err, &nameErr):
		return ErrCodeNameCollision
	case errors.Is(err, codegen.ErrNoInterfaces):
		return ErrCodeNoProtocols
	case errors.As(err, &dupErr):
		return ErrCodeDuplicateInterface
	case errors.Is(err, os.ErrNotExist):
		return ErrCodeNotFound
	default:
		return ErrCodeGeneric
	}
}

// ProjectOptions are the flags shared by commands that load protocols.
// Set fields override the configuration file.
type ProjectOptions struct {
	ConfigPath      string
	Implemented     []string
	OutDir          string
	Ledger          string
	AllowDuplicates bool
}

// bindProjectFlags registers the shared flags on cmd.
func bindProjectFlags(cmd *cobra.Command, opts *ProjectOptions) {
	cmd.Flags().StringVarP(&opts.ConfigPath, "config", "c", "", "config file (default: wlgen.yaml, wlgen.yml or wlgen.cue in the working directory)")
	cmd.Flags().StringSliceVar(&opts.Implemented, "implemented", nil, "implemented interfaces (replaces the configured list)")
	cmd.Flags().BoolVar(&opts.AllowDuplicates, "allow-duplicates", false, "treat duplicate interface names as warnings")
}

// Project is a loaded configuration with its protocols parsed and
// assembled into one registry.
type Project struct {
	Config      *config.Config
	Sources     []compiler.Source
	Registry    *compiler.Registry
	Implemented compiler.ImplementedSet
}

// LoadProject resolves the configuration, applies flag overrides and
// positional protocol paths, then parses and assembles every protocol in
// order. The first parse error aborts loading.
func LoadProject(opts *ProjectOptions, args []string, logger *slog.Logger) (*Project, error) {
	cfg, err := loadConfig(opts.ConfigPath)
	if err != nil {
		return nil, err
	}
	if err := applyOverrides(cfg, opts, args); err != nil {
		return nil, err
	}

	paths := cfg.ProtocolPaths()
	if len(paths) == 0 {
		return nil, &LoadError{Code: ErrCodeNoProtocols, Message: "no protocol documents given; list them under protocols or pass them as arguments"}
	}

	sources := make([]compiler.Source, 0, len(paths))
	for _, path := range paths {
		doc, err := wlxml.ParseFile(path)
		if err != nil {
			return nil, protocolError(path, err)
		}
		logger.Debug("parsed protocol", "file", path, "protocol", doc.Name, "interfaces", len(doc.Interfaces))
		sources = append(sources, compiler.Source{Name: path, Interfaces: doc.Interfaces})
	}

	reg := compiler.Assemble(sources)
	logger.Debug("assembled registry", "interfaces", reg.Len(), "duplicates", len(reg.Duplicates()))
	if reg.Len() == 0 {
		loadErr := &LoadError{Code: ErrCodeNoProtocols, Message: "protocol documents define no interfaces"}
		if len(paths) == 1 {
			loadErr.Location = paths[0]
		}
		return nil, loadErr
	}

	return &Project{
		Config:      cfg,
		Sources:     sources,
		Registry:    reg,
		Implemented: compiler.NewImplementedSet(cfg.Implemented...),
	}, nil
}

func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, &LoadError{Code: ErrCodeGeneric, Message: fmt.Sprintf("resolving working directory: %v", err)}
		}
		path = config.Find(wd)
		if path == "" {
			return config.Default(wd)
		}
	}

	cfg, err := config.Load(path)
	if err == nil {
		return cfg, nil
	}

	var cfgErr *config.Error
	if errors.As(err, &cfgErr) {
		return nil, &LoadError{Code: ErrCodeConfigInvalid, Message: cfgErr.Message, Pos: cfgErr.Pos}
	}
	if errors.Is(err, os.ErrNotExist) {
		return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("config file not found: %s", path)}
	}
	return nil, &LoadError{Code: ErrCodeReadFailed, Message: err.Error()}
}

// applyOverrides layers flags and arguments over cfg. Paths given on the
// command line are relative to the working directory, not the config.
func applyOverrides(cfg *config.Config, opts *ProjectOptions, args []string) error {
	if len(args) > 0 {
		cfg.Protocols = make([]string, len(args))
		for i, arg := range args {
			abs, err := filepath.Abs(arg)
			if err != nil {
				return &LoadError{Code: ErrCodeGeneric, Message: fmt.Sprintf("resolving %s: %v", arg, err)}
			}
			cfg.Protocols[i] = abs
		}
	}
	if opts.Implemented != nil {
		cfg.Implemented = opts.Implemented
	}
	if opts.AllowDuplicates {
		cfg.AllowDuplicates = true
	}
	if opts.OutDir != "" {
		dir, err := filepath.Abs(opts.OutDir)
		if err != nil {
			return &LoadError{Code: ErrCodeGeneric, Message: fmt.Sprintf("resolving %s: %v", opts.OutDir, err)}
		}
		cfg.Output = config.Output{
			Declarations: filepath.Join(dir, filepath.Base(cfg.Output.Declarations)),
			Requests:     filepath.Join(dir, filepath.Base(cfg.Output.Requests)),
			Events:       filepath.Join(dir, filepath.Base(cfg.Output.Events)),
		}
	}
	if opts.Ledger != "" {
		abs, err := filepath.Abs(opts.Ledger)
		if err != nil {
			return &LoadError{Code: ErrCodeGeneric, Message: fmt.Sprintf("resolving %s: %v", opts.Ledger, err)}
		}
		cfg.Ledger = abs
	}
	return nil
}

// protocolError converts a parse failure into a LoadError with the code
// matching its cause, located at the protocol file and, for XML syntax
// errors, the offending line.
func protocolError(path string, err error) *LoadError {
	code := ErrorCode(err)
	if code == ErrCodeGeneric {
		code = ErrCodeReadFailed
	}
	if code == ErrCodeNotFound {
		return &LoadError{Code: code, Message: "protocol file not found", Location: path}
	}

	loadErr := &LoadError{
		Code:     code,
		Message:  strings.TrimPrefix(err.Error(), path+": "),
		Location: path,
	}
	var syntaxErr *xml.SyntaxError
	if errors.As(err, &syntaxErr) && syntaxErr.Line > 0 {
		loadErr.Location = fmt.Sprintf("%s:%d", path, syntaxErr.Line)
	}
	return loadErr
}

// codegenOptions derives emission options from the configuration. The
// dispatch units include the declarations header by its base name.
func codegenOptions(cfg *config.Config) codegen.Options {
	return codegen.Options{
		Namespace:          cfg.Namespace,
		CoreHeader:         cfg.CoreHeader,
		InternalHeader:     cfg.InternalHeader,
		DeclarationsHeader: filepath.Base(cfg.Output.Declarations),
	}
}
