package codegen

import (
	"bytes"
	"fmt"
	"strings"
)

const indentUnit = "    "

// lineWriter accumulates generated source one line at a time.
type lineWriter struct {
	buf    bytes.Buffer
	indent int
}

// line writes one indented line. Untrusted text (summaries, names) must be
// passed as an argument, never as part of format.
func (w *lineWriter) line(format string, args ...any) {
	w.buf.WriteString(strings.Repeat(indentUnit, w.indent))
	fmt.Fprintf(&w.buf, format, args...)
	w.buf.WriteByte('\n')
}

func (w *lineWriter) blank() {
	w.buf.WriteByte('\n')
}

func (w *lineWriter) comment(text string) {
	if text != "" {
		w.line("// %s", text)
	}
}

func (w *lineWriter) Bytes() []byte {
	return w.buf.Bytes()
}

// preamble writes the generated-file banner.
func (w *lineWriter) preamble() {
	w.line("// Code generated by wlgen. DO NOT EDIT.")
	w.blank()
}

func (w *lineWriter) include(header string) {
	w.line("#include %q", header)
}

func (w *lineWriter) openNamespace(ns string) {
	w.line("namespace %s", ns)
	w.line("{")
	w.blank()
}

func (w *lineWriter) closeNamespace(ns string) {
	w.line("} // namespace %s", ns)
}
