package diag

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/mattn/go-isatty"
)

// SourceFunc returns the text of a file by name.
type SourceFunc func(filename string) (string, bool)

// Formatter formats diagnostics in a Rust-style format with source code snippets.
type Formatter struct {
	w      io.Writer
	source SourceFunc
	color  bool
}

// NewFormatter creates a formatter writing to w. Sources are looked up with
// source; color is enabled when w is a terminal.
func NewFormatter(w io.Writer, source SourceFunc) *Formatter {
	color := false
	if f, ok := w.(*os.File); ok {
		color = isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
	}
	return &Formatter{w: w, source: source, color: color}
}

// SetColor overrides terminal detection.
func (f *Formatter) SetColor(on bool) { f.color = on }

// FormatAll prints every diagnostic in order.
func (f *Formatter) FormatAll(list List) {
	for i, d := range list {
		if i > 0 {
			fmt.Fprintln(f.w)
		}
		f.Format(d)
	}
}

// Format prints a diagnostic in Rust-style format.
func (f *Formatter) Format(d Diagnostic) {
	spans := f.collectSpans(d)
	if len(spans) == 0 {
		f.formatSimple(d)
		return
	}

	spansByFile := make(map[string][]LabeledSpan)
	var files []string
	for _, span := range spans {
		filename := span.Span.Filename
		if _, ok := spansByFile[filename]; !ok {
			files = append(files, filename)
		}
		spansByFile[filename] = append(spansByFile[filename], span)
	}

	f.printHeader(d)
	for _, filename := range files {
		src, ok := f.lookup(filename)
		if !ok {
			fmt.Fprintf(f.w, "  --> %s\n", spansByFile[filename][0].Span)
			continue
		}
		f.printFileSpans(filename, src, spansByFile[filename])
	}
	f.printHelp(d)
}

func (f *Formatter) lookup(filename string) (string, bool) {
	if f.source == nil || filename == "" {
		return "", false
	}
	return f.source(filename)
}

// collectSpans collects all spans from the diagnostic, prioritizing LabeledSpans.
func (f *Formatter) collectSpans(d Diagnostic) []LabeledSpan {
	if len(d.LabeledSpans) > 0 {
		return d.LabeledSpans
	}
	if d.Span.IsValid() {
		return []LabeledSpan{{Span: d.Span, Style: "primary"}}
	}
	return nil
}

func (f *Formatter) paint(code, s string) string {
	if !f.color {
		return s
	}
	return "\x1b[" + code + "m" + s + "\x1b[0m"
}

// printHeader prints the error header (error[CODE]: message).
func (f *Formatter) printHeader(d Diagnostic) {
	severity := string(d.Severity)
	if severity == "" {
		severity = string(SeverityError)
	}
	color := "1;31"
	if d.Severity == SeverityInternal {
		color = "1;35"
	}
	if d.Code != "" {
		severity += "[" + string(d.Code) + "]"
	}
	fmt.Fprintf(f.w, "%s: %s\n", f.paint(color, severity), d.Message)
}

// printFileSpans prints source code with underlines for spans in a file.
func (f *Formatter) printFileSpans(filename string, src string, spans []LabeledSpan) {
	sort.Slice(spans, func(i, j int) bool {
		if spans[i].Span.Line != spans[j].Span.Line {
			return spans[i].Span.Line < spans[j].Span.Line
		}
		return spans[i].Span.Column < spans[j].Span.Column
	})

	spansByLine := make(map[int][]LabeledSpan)
	lines := strings.Split(src, "\n")
	maxLine := len(lines)
	for _, span := range spans {
		line := span.Span.Line
		if line > 0 && line <= maxLine {
			spansByLine[line] = append(spansByLine[line], span)
		}
	}

	lineNumbers := make([]int, 0, len(spansByLine))
	for line := range spansByLine {
		lineNumbers = append(lineNumbers, line)
	}
	sort.Ints(lineNumbers)
	if len(lineNumbers) == 0 {
		return
	}

	startLine := lineNumbers[0]
	endLine := lineNumbers[len(lineNumbers)-1]
	contextStart := max(1, startLine-1)
	contextEnd := min(maxLine, endLine+1)
	lineNumWidth := len(fmt.Sprintf("%d", contextEnd))
	gutter := strings.Repeat(" ", lineNumWidth)

	fmt.Fprintf(f.w, "  --> %s\n", spans[0].Span)
	fmt.Fprintf(f.w, " %s |\n", gutter)
	for lineNum := contextStart; lineNum <= contextEnd; lineNum++ {
		lineContent := lines[lineNum-1]
		fmt.Fprintf(f.w, " %*d | %s\n", lineNumWidth, lineNum, lineContent)
		if lineSpans := spansByLine[lineNum]; len(lineSpans) > 0 {
			f.printUnderlines(gutter, lineContent, lineSpans)
		}
	}
	fmt.Fprintf(f.w, " %s |\n", gutter)
}

// printUnderlines prints underlines (^ primary, ~ secondary) for spans on a line.
func (f *Formatter) printUnderlines(gutter string, lineContent string, spans []LabeledSpan) {
	underline := []byte(strings.Repeat(" ", len(lineContent)+1))
	mark := func(span LabeledSpan, c byte) {
		start := max(0, span.Span.Column-1)
		end := min(len(underline), start+max(1, span.Span.End-span.Span.Start))
		for i := start; i < end; i++ {
			if underline[i] == ' ' {
				underline[i] = c
			}
		}
	}
	for _, span := range spans {
		if span.Style == "primary" {
			mark(span, '^')
		}
	}
	for _, span := range spans {
		if span.Style == "secondary" {
			mark(span, '~')
		}
	}

	var labels []string
	for _, span := range spans {
		if span.Label != "" {
			labels = append(labels, span.Label)
		}
	}
	text := strings.TrimRight(string(underline), " ")
	if text == "" {
		return
	}
	fmt.Fprintf(f.w, " %s | %s", gutter, f.paint("1;31", text))
	if len(labels) > 0 {
		fmt.Fprintf(f.w, " %s", strings.Join(labels, "; "))
	}
	fmt.Fprintln(f.w)
}

// printHelp prints notes and help text.
func (f *Formatter) printHelp(d Diagnostic) {
	for _, note := range d.Notes {
		fmt.Fprintf(f.w, "  = note: %s\n", note)
	}
	if d.Help != "" {
		fmt.Fprintf(f.w, "  = help: %s\n", d.Help)
	}
}

// formatSimple formats a diagnostic without source code.
func (f *Formatter) formatSimple(d Diagnostic) {
	f.printHeader(d)
	if d.Span.IsValid() {
		fmt.Fprintf(f.w, "  --> %s\n", d.Span.String())
	}
	f.printHelp(d)
}
