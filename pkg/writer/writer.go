// Package writer renders grouping plans for the command line.
package writer

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/tx-grouper/pkg/model"
)

// Format names an output format.
type Format string

const (
	FormatJSON   Format = "json"
	FormatPretty Format = "pretty"
	FormatText   Format = "text"
)

// PlanWriter renders a plan.
type PlanWriter interface {
	Write(plan *model.Plan, w io.Writer) error
}

// New returns the writer for format.
func New(format string) (PlanWriter, error) {
	switch Format(strings.ToLower(format)) {
	case FormatJSON:
		return &JSONWriter{}, nil
	case FormatPretty, "":
		return &JSONWriter{Indent: "  "}, nil
	case FormatText:
		return &TextWriter{MaxIDs: 12}, nil
	default:
		return nil, fmt.Errorf("unknown output format: %s", format)
	}
}

// JSONWriter writes plans as JSON.
type JSONWriter struct {
	// Indent specifies the indentation for pretty printing.
	// Empty string means compact output.
	Indent string
}

// Write implements PlanWriter.
func (w *JSONWriter) Write(plan *model.Plan, out io.Writer) error {
	encoder := json.NewEncoder(out)
	if w.Indent != "" {
		encoder.SetIndent("", w.Indent)
	}
	return encoder.Encode(plan)
}

// TextWriter writes a human readable table, one row per group.
type TextWriter struct {
	// MaxIDs caps the ids listed per group; 0 lists all.
	MaxIDs int
}

// Write implements PlanWriter.
func (w *TextWriter) Write(plan *model.Plan, out io.Writer) error {
	fmt.Fprintf(out, "chain=%s strategy=%s cores=%d txs=%d groups=%d failures=%d elapsed=%.3fms\n",
		plan.ChainID, plan.Strategy, plan.CoreCount, plan.TotalTxs, plan.GroupCount, len(plan.Failures), plan.ElapsedMs)

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "GROUP\tSIZE\tTX IDS")
	for _, g := range plan.Groups {
		fmt.Fprintf(tw, "%d\t%d\t%s\n", g.Index, g.Size, w.ids(g.TxIDs))
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	for _, f := range plan.Failures {
		fmt.Fprintf(out, "failed tx %d: %s\n", f.TxID, f.Error)
	}
	return nil
}

func (w *TextWriter) ids(ids []model.TxID) string {
	n := len(ids)
	if w.MaxIDs > 0 && n > w.MaxIDs {
		n = w.MaxIDs
	}
	parts := make([]string, n)
	for i := 0; i < n; i++ {
		parts[i] = fmt.Sprint(int(ids[i]))
	}
	s := strings.Join(parts, ",")
	if n < len(ids) {
		s += fmt.Sprintf(",... (+%d)", len(ids)-n)
	}
	return s
}

// WriteToFile renders plan into the file at path.
func WriteToFile(w PlanWriter, plan *model.Plan, path string) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	if err := w.Write(plan, file); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}
