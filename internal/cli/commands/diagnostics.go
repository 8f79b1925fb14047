package commands

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"

	"github.com/leapstack-labs/leapapp/internal/config"
	"github.com/leapstack-labs/leapapp/internal/loader"
	"github.com/leapstack-labs/leapapp/internal/parser"
	"github.com/leapstack-labs/leapapp/pkg/core"
	"github.com/leapstack-labs/leapapp/pkg/lint"
	"gopkg.in/yaml.v3"
)

// Diagnostic is one finding from validation, parsing, or linking, flattened
// into a shape that renders the same way in text, JSON, and YAML.
type Diagnostic struct {
	File     string `json:"file,omitempty" yaml:"file,omitempty"`
	Line     int    `json:"line,omitempty" yaml:"line,omitempty"`
	Column   int    `json:"column,omitempty" yaml:"column,omitempty"`
	Severity string `json:"severity" yaml:"severity"`
	Message  string `json:"message" yaml:"message"`
}

// Report is the serialized output of a build or check run.
type Report struct {
	Diagnostics []Diagnostic `json:"diagnostics" yaml:"diagnostics"`
	Errors      int          `json:"errors" yaml:"errors"`
	Warnings    int          `json:"warnings" yaml:"warnings"`
}

func newReport(diags []Diagnostic) *Report {
	r := &Report{Diagnostics: diags}
	for _, d := range diags {
		switch d.Severity {
		case core.SeverityError.String():
			r.Errors++
		case core.SeverityWarning.String():
			r.Warnings++
		}
	}
	return r
}

// collectSourceDiagnostics flattens a loader result into diagnostics:
// declarativeness violations first, then parse errors.
func collectSourceDiagnostics(res *loader.Result) []Diagnostic {
	var diags []Diagnostic

	paths := make([]string, 0, len(res.Violations))
	for path := range res.Violations {
		paths = append(paths, path)
	}
	sort.Strings(paths)
	for _, path := range paths {
		diags = append(diags, violationDiagnostics(path, res.Violations[path])...)
	}

	for _, err := range res.Errors {
		diags = append(diags, errDiagnostics(err)...)
	}
	return diags
}

// violationDiagnostics converts declarativeness violations for one file.
func violationDiagnostics(path string, violations []lint.Violation) []Diagnostic {
	var diags []Diagnostic
	for _, v := range violations {
		diags = append(diags, Diagnostic{
			File:     path,
			Line:     v.Line,
			Column:   v.Column,
			Severity: core.SeverityError.String(),
			Message:  fmt.Sprintf("%s: %s", v.Kind, v.Message),
		})
	}
	return diags
}

// errDiagnostics converts an error into diagnostics, recovering file and
// line when the error carries them. Joined errors expand one per cause.
func errDiagnostics(err error) []Diagnostic {
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		var diags []Diagnostic
		for _, cause := range joined.Unwrap() {
			diags = append(diags, errDiagnostics(cause)...)
		}
		return diags
	}
	var perr *parser.Error
	if errors.As(err, &perr) {
		return []Diagnostic{{File: perr.File, Line: perr.Line, Severity: core.SeverityError.String(), Message: perr.Msg}}
	}
	return []Diagnostic{{Severity: core.SeverityError.String(), Message: err.Error()}}
}

func warningDiagnostic(msg string) Diagnostic {
	return Diagnostic{Severity: core.SeverityWarning.String(), Message: msg}
}

// renderReport writes the report in the configured format. Auto falls back
// to text; there is no terminal detection for a batch compiler.
func renderReport(w io.Writer, format string, rep *Report) error {
	switch format {
	case config.OutputJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(rep)
	case config.OutputYAML:
		enc := yaml.NewEncoder(w)
		defer enc.Close()
		return enc.Encode(rep)
	default:
		for _, d := range rep.Diagnostics {
			loc := d.File
			if d.Line > 0 {
				loc = fmt.Sprintf("%s:%d", d.File, d.Line)
			}
			if loc != "" {
				fmt.Fprintf(w, "%s: %s: %s\n", loc, d.Severity, d.Message)
			} else {
				fmt.Fprintf(w, "%s: %s\n", d.Severity, d.Message)
			}
		}
		if len(rep.Diagnostics) > 0 {
			fmt.Fprintf(w, "\n%d errors, %d warnings\n", rep.Errors, rep.Warnings)
		}
		return nil
	}
}
