package diag_test

import (
	"bytes"
	"strings"
	"testing"

	"go.uber.org/multierr"

	"github.com/stork-lang/stork/internal/diag"
	"github.com/stork-lang/stork/internal/lexer"
)

func TestFromLexerError(t *testing.T) {
	err := lexer.LexerError{
		Kind:    lexer.ErrIllegalRune,
		Message: "illegal character '$'",
		Span: lexer.Span{
			Filename: "main",
			Line:     1,
			Column:   3,
			Start:    2,
			End:      3,
		},
	}

	diagnostic := err.ToDiagnostic()

	if diagnostic.Stage != diag.StageLexer {
		t.Fatalf("expected stage %q, got %q", diag.StageLexer, diagnostic.Stage)
	}
	if diagnostic.Code != diag.CodeLexerIllegalRune {
		t.Fatalf("expected code %q, got %q", diag.CodeLexerIllegalRune, diagnostic.Code)
	}
	if diagnostic.Severity != diag.SeverityError {
		t.Fatalf("expected severity %q, got %q", diag.SeverityError, diagnostic.Severity)
	}

	wantSpan := diag.Span{Filename: "main", Line: 1, Column: 3, Start: 2, End: 3}
	if diagnostic.Span != wantSpan {
		t.Fatalf("expected span %+v, got %+v", wantSpan, diagnostic.Span)
	}
}

func TestSpanAt(t *testing.T) {
	src := "res A: f32\nsys s {\n  [A] = 1\n}\n"
	start := strings.Index(src, "[A]")
	span := diag.SpanAt("main", src, start, start+3)
	if span.Line != 3 || span.Column != 3 {
		t.Fatalf("expected 3:3, got %d:%d", span.Line, span.Column)
	}
	if span.String() != "main:3:3" {
		t.Fatalf("unexpected span string %q", span.String())
	}
}

func TestListErr(t *testing.T) {
	var list diag.List
	if list.HasErrors() || list.Err() != nil {
		t.Fatalf("empty list must not report errors")
	}

	list = append(list,
		diag.New(diag.StageNames, diag.CodeNameUnresolved, diag.Span{}, "cannot find name `%s`", "x"),
		diag.Internal(diag.StageTypes, diag.CodeTypeUnexpectedNode, diag.Span{}, "unexpected node"),
	)
	if !list.HasErrors() {
		t.Fatalf("expected errors")
	}
	errs := multierr.Errors(list.Err())
	if len(errs) != 2 {
		t.Fatalf("expected 2 folded errors, got %d", len(errs))
	}
	if !strings.Contains(errs[0].Error(), "cannot find name `x`") {
		t.Fatalf("unexpected error text %q", errs[0].Error())
	}
}

func TestFormatterSnippet(t *testing.T) {
	src := "res A: f32\nsys s { [A] = b }\n"
	start := strings.Index(src, "b }")
	d := diag.New(diag.StageNames, diag.CodeNameUnresolved, diag.SpanAt("main", src, start, start+1), "cannot find name `b`").
		WithNote("names are resolved lexically")

	var buf bytes.Buffer
	f := diag.NewFormatter(&buf, func(name string) (string, bool) { return src, name == "main" })
	f.Format(d)

	out := buf.String()
	for _, want := range []string{
		"error[NAME_UNRESOLVED]: cannot find name `b`",
		"--> main:2:15",
		" 2 | sys s { [A] = b }",
		"^",
		"= note: names are resolved lexically",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("output missing %q:\n%s", want, out)
		}
	}
}

func TestFormatterWithoutSource(t *testing.T) {
	d := diag.Internal(diag.StageLower, diag.CodeLowerUnexpectedNode, diag.Span{}, "node kind not handled")

	var buf bytes.Buffer
	diag.NewFormatter(&buf, nil).Format(d)

	if got := buf.String(); got != "internal[LOWER_UNEXPECTED_NODE]: node kind not handled\n" {
		t.Fatalf("unexpected output %q", got)
	}
}
