package cli

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"slices"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/matzehuels/houndview/pkg/errors"
	"github.com/matzehuels/houndview/pkg/graph"
	"github.com/matzehuels/houndview/pkg/render/nodelink"
)

// Output formats for graph results.
const (
	FormatTable = "table"
	FormatJSON  = "json"
	FormatDOT   = "dot"
	FormatSVG   = "svg"
	FormatPNG   = "png"
	FormatPDF   = "pdf"
)

var graphFormats = []string{FormatTable, FormatJSON, FormatDOT, FormatSVG, FormatPNG, FormatPDF}

// binaryFormats cannot be written to a terminal.
var binaryFormats = []string{FormatPNG, FormatPDF}

// outputOptions holds the flags shared by commands that print a graph.
type outputOptions struct {
	format    string
	output    string
	detailed  bool
	direction string
	scale     float64
}

// register adds the output flags to fs and format completion to cmd.
func (o *outputOptions) register(cmd *cobra.Command, f *pflag.FlagSet, defaultFormat string) {
	f.StringVarP(&o.format, "format", "f", defaultFormat, "output format: table, json, dot, svg, png or pdf")
	f.StringVarP(&o.output, "output", "o", "", "write to file instead of stdout")
	f.BoolVar(&o.detailed, "detailed", false, "include object ids and kinds in diagram labels")
	f.StringVar(&o.direction, "direction", "LR", "diagram direction: LR, TB, RL or BT")
	f.Float64Var(&o.scale, "scale", 2, "PNG scale factor")
	_ = cmd.RegisterFlagCompletionFunc("format", cobra.FixedCompletions(graphFormats, cobra.ShellCompDirectiveNoFileComp))
}

func (o *outputOptions) validate() error {
	if !slices.Contains(graphFormats, o.format) {
		return errors.New(errors.ErrCodeInvalidFormat, "unknown format %q", o.format)
	}
	if o.output == "" && slices.Contains(binaryFormats, o.format) {
		return errors.New(errors.ErrCodeInvalidInput, "%s output needs --output", o.format)
	}
	return nil
}

// toTerminal reports whether the graph goes to stdout as a table, in
// which case status lines may share the stream.
func (o *outputOptions) toTerminal() bool {
	return o.output == "" && o.format == FormatTable
}

// write renders g in the selected format to stdout or the output file.
func (o *outputOptions) write(ctx context.Context, stdout io.Writer, g graph.GraphData) error {
	var buf bytes.Buffer
	if err := o.render(ctx, &buf, g); err != nil {
		return err
	}
	if o.output == "" {
		_, err := stdout.Write(buf.Bytes())
		return err
	}
	if err := os.WriteFile(o.output, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", o.output, err)
	}
	printFile(o.output)
	return nil
}

func (o *outputOptions) render(ctx context.Context, w io.Writer, g graph.GraphData) error {
	if o.format == FormatTable {
		writeGraphTable(w, g)
		return nil
	}
	if o.format == FormatJSON {
		return graph.WriteGraph(g, w)
	}

	dot := nodelink.ToDOT(g, nodelink.Options{Detailed: o.detailed, Direction: o.direction})
	var (
		data []byte
		err  error
	)
	switch o.format {
	case FormatDOT:
		data = []byte(dot)
	case FormatSVG:
		data, err = nodelink.RenderSVG(ctx, dot)
	case FormatPNG:
		data, err = nodelink.RenderPNG(ctx, dot, o.scale)
	case FormatPDF:
		data, err = nodelink.RenderPDF(ctx, dot)
	}
	if err != nil {
		return fmt.Errorf("render %s: %w", o.format, err)
	}
	_, err = w.Write(data)
	return err
}
