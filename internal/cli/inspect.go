package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/wlgen/internal/ir"
)

// InspectResult is the assembled registry as reported by inspect.
type InspectResult struct {
	LayoutHash string             `json:"layout_hash"`
	Interfaces []InterfaceSummary `json:"interfaces"`
}

// InterfaceSummary is one interface with its opcode tables.
type InterfaceSummary struct {
	ID          uint32   `json:"id"`
	Name        string   `json:"name"`
	Version     int      `json:"version"`
	Source      string   `json:"source"`
	Implemented bool     `json:"implemented"`
	Requests    []string `json:"requests"`
	Events      []string `json:"events"`
	Enums       []string `json:"enums,omitempty"`
}

// NewInspectCommand creates the inspect command.
func NewInspectCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ProjectOptions{}
	var only []string

	cmd := &cobra.Command{
		Use:   "inspect [protocol.xml...]",
		Short: "Show interface identities and opcodes",
		Long: `Print the identity every interface receives and the opcode of every
request and event, exactly as generate would number them.

Use --interface to print the full opcode tables of selected interfaces.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInspect(rootOpts, opts, only, args, cmd)
		},
	}

	bindProjectFlags(cmd, opts)
	cmd.Flags().StringSliceVarP(&only, "interface", "i", nil, "only show these interfaces, with opcode tables")
	return cmd
}

func runInspect(rootOpts *RootOptions, opts *ProjectOptions, only, args []string, cmd *cobra.Command) error {
	formatter := newFormatter(rootOpts, cmd)
	logger := newLogger(rootOpts, cmd.ErrOrStderr())

	project, err := LoadProject(opts, args, logger)
	if err != nil {
		return loadFailure(formatter, err)
	}

	layoutHash, err := ir.LayoutHash(project.Registry.Interfaces())
	if err != nil {
		_ = formatter.Error(ErrCodeGeneric, err.Error(), "")
		return WrapExitError(ExitCommandError, "computing layout hash", err)
	}

	filter := make(map[string]bool, len(only))
	for _, name := range only {
		filter[name] = true
	}

	result := InspectResult{LayoutHash: layoutHash, Interfaces: []InterfaceSummary{}}
	for _, iface := range project.Registry.Interfaces() {
		if len(filter) > 0 && !filter[iface.Name] {
			continue
		}
		delete(filter, iface.Name)
		result.Interfaces = append(result.Interfaces, summarize(iface, project.Implemented.Contains(iface.Name)))
	}

	for name := range filter {
		_ = formatter.Error(ErrCodeNotFound, fmt.Sprintf("interface %q is not defined by any protocol", name), "")
		return NewExitError(ExitCommandError, fmt.Sprintf("%s: unknown interface %q", ErrCodeNotFound, name))
	}

	if formatter.Format == "json" {
		return formatter.Success(result)
	}
	if len(only) > 0 {
		writeInterfaceDetails(formatter, result)
		return nil
	}
	writeInterfaceTable(formatter, result)
	return nil
}

func summarize(iface *ir.Interface, implemented bool) InterfaceSummary {
	s := InterfaceSummary{
		ID:          iface.ID,
		Name:        iface.Name,
		Version:     iface.Version,
		Source:      iface.Source,
		Implemented: implemented,
		Requests:    signatures(iface.Requests),
		Events:      signatures(iface.Events),
	}
	for _, e := range iface.Enums {
		s.Enums = append(s.Enums, e.Name)
	}
	return s
}

// signatures renders each message as "name(arg: kind, ...)" in opcode order.
func signatures(msgs []ir.Message) []string {
	out := make([]string, len(msgs))
	for i, msg := range msgs {
		args := make([]string, len(msg.Args))
		for j, arg := range msg.Args {
			kind := string(arg.Type)
			if arg.Kind != nil {
				kind = arg.Kind.String()
			}
			args[j] = arg.Name + ": " + kind
		}
		out[i] = fmt.Sprintf("%s(%s)", msg.Name, strings.Join(args, ", "))
	}
	return out
}

func writeInterfaceTable(formatter *OutputFormatter, result InspectResult) {
	w := formatter.Writer
	fmt.Fprintf(w, "%d interface(s), layout %s\n\n", len(result.Interfaces), shortHash(result.LayoutHash))
	fmt.Fprintf(w, "%4s  %-36s %3s %4s %4s  %s\n", "ID", "INTERFACE", "VER", "REQ", "EVT", "IMPL")
	for _, s := range result.Interfaces {
		impl := ""
		if s.Implemented {
			impl = "yes"
		}
		fmt.Fprintf(w, "%4d  %-36s %3d %4d %4d  %s\n", s.ID, s.Name, s.Version, len(s.Requests), len(s.Events), impl)
	}
}

func writeInterfaceDetails(formatter *OutputFormatter, result InspectResult) {
	w := formatter.Writer
	for i, s := range result.Interfaces {
		if i > 0 {
			fmt.Fprintln(w)
		}
		state := "stub"
		if s.Implemented {
			state = "implemented"
		}
		fmt.Fprintf(w, "%s (id %d, version %d, %s)\n", s.Name, s.ID, s.Version, state)
		fmt.Fprintf(w, "  source: %s\n", s.Source)
		writeOpcodes(formatter, "requests", s.Requests)
		writeOpcodes(formatter, "events", s.Events)
		if len(s.Enums) > 0 {
			fmt.Fprintf(w, "  enums: %s\n", strings.Join(s.Enums, ", "))
		}
	}
}

func writeOpcodes(formatter *OutputFormatter, title string, sigs []string) {
	if len(sigs) == 0 {
		return
	}
	fmt.Fprintf(formatter.Writer, "  %s:\n", title)
	for opcode, sig := range sigs {
		fmt.Fprintf(formatter.Writer, "    %2d  %s\n", opcode, sig)
	}
}

// shortHash abbreviates a hex digest for text output.
func shortHash(h string) string {
	if len(h) > 12 {
		return h[:12]
	}
	return h
}
