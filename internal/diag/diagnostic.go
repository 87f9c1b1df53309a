package diag

import (
	"fmt"
	"strings"
)

// Stage identifies which compiler phase produced the diagnostic.
type Stage string

const (
	StageLexer   Stage = "lexer"
	StageParser  Stage = "parser"
	StageLower   Stage = "lower"
	StageNames   Stage = "names"
	StageTypes   Stage = "types"
	StageEffects Stage = "effects"
)

// Severity captures how impactful the diagnostic is. Both severities block
// execution; internal diagnostics indicate a compiler bug.
type Severity string

const (
	SeverityError    Severity = "error"
	SeverityInternal Severity = "internal"
)

// LabeledSpan represents a span with an optional label (like Rust's primary/secondary labels).
type LabeledSpan struct {
	Span  Span
	Label string
	Style string // "primary" or "secondary"
}

// Code is a stable identifier for a diagnostic.
type Code string

const (
	// Lexer errors
	CodeLexerIllegalRune Code = "LEXER_ILLEGAL_RUNE"

	// Parser errors
	CodeParseUnexpectedToken Code = "PARSE_UNEXPECTED_TOKEN"
	CodeParseExpectedToken   Code = "PARSE_EXPECTED_TOKEN"
	CodeParseExpectedExpr    Code = "PARSE_EXPECTED_EXPR"
	CodeParseExpectedItem    Code = "PARSE_EXPECTED_ITEM"

	// Lowering errors
	CodeLowerMissingNode    Code = "LOWER_MISSING_NODE"
	CodeLowerQueryBinding   Code = "LOWER_QUERY_BINDING"
	CodeLowerInvalidNumber  Code = "LOWER_INVALID_NUMBER"
	CodeLowerUnexpectedNode Code = "LOWER_UNEXPECTED_NODE"

	// Name resolution errors
	CodeNameUnresolved     Code = "NAME_UNRESOLVED"
	CodeNameUnresolvedType Code = "NAME_UNRESOLVED_TYPE"
	CodeNameUnknownModule  Code = "NAME_UNKNOWN_MODULE"
	CodeNameDuplicate      Code = "NAME_DUPLICATE"
	CodeNameUnexpectedNode Code = "NAME_UNEXPECTED_NODE"

	// Type resolution errors
	CodeTypeCycle          Code = "TYPE_CYCLE"
	CodeTypeMismatch       Code = "TYPE_MISMATCH"
	CodeTypeNotCallable    Code = "TYPE_NOT_CALLABLE"
	CodeTypeArity          Code = "TYPE_ARITY"
	CodeTypeNotTruthy      Code = "TYPE_NOT_TRUTHY"
	CodeTypeNotStored      Code = "TYPE_NOT_STORED"
	CodeTypeNotEntity      Code = "TYPE_NOT_ENTITY"
	CodeTypeNotStruct      Code = "TYPE_NOT_STRUCT"
	CodeTypeUnknownField   Code = "TYPE_UNKNOWN_FIELD"
	CodeTypeMissingField   Code = "TYPE_MISSING_FIELD"
	CodeTypeInvalidMember  Code = "TYPE_INVALID_MEMBER"
	CodeTypeInvalidTarget  Code = "TYPE_INVALID_TARGET"
	CodeTypeNotAValue      Code = "TYPE_NOT_A_VALUE"
	CodeTypeUnexpectedNode Code = "TYPE_UNEXPECTED_NODE"

	// Effect resolution errors
	CodeEffectNestedQuery    Code = "EFFECT_NESTED_QUERY"
	CodeEffectUnexpectedNode Code = "EFFECT_UNEXPECTED_NODE"
)

// Span represents a location in source code.
type Span struct {
	Filename string
	Line     int
	Column   int
	Start    int
	End      int
}

// String returns a human-readable representation of the span.
func (s Span) String() string {
	if s.Filename != "" {
		return fmt.Sprintf("%s:%d:%d", s.Filename, s.Line, s.Column)
	}
	return fmt.Sprintf("%d:%d", s.Line, s.Column)
}

// IsValid returns true if the span has valid location information.
func (s Span) IsValid() bool {
	return s.Line > 0 && s.Column > 0
}

// SpanAt computes the line and column of a byte range inside src.
func SpanAt(filename, src string, start, end int) Span {
	if start > len(src) {
		start = len(src)
	}
	line := 1 + strings.Count(src[:start], "\n")
	col := start + 1
	if nl := strings.LastIndexByte(src[:start], '\n'); nl >= 0 {
		col = start - nl
	}
	return Span{Filename: filename, Line: line, Column: col, Start: start, End: end}
}

// Diagnostic is a compiler diagnostic surfaced to end-users.
type Diagnostic struct {
	Stage        Stage
	Severity     Severity
	Code         Code
	Message      string
	Span         Span
	LabeledSpans []LabeledSpan
	Notes        []string
	Help         string
}

// Error implements the error interface so diagnostics can travel through
// multierr.
func (d Diagnostic) Error() string {
	if d.Span.IsValid() {
		return fmt.Sprintf("%s: %s: %s", d.Span, d.Severity, d.Message)
	}
	return fmt.Sprintf("%s: %s", d.Severity, d.Message)
}

// New builds an error diagnostic anchored at span.
func New(stage Stage, code Code, span Span, format string, args ...any) Diagnostic {
	return Diagnostic{
		Stage:    stage,
		Severity: SeverityError,
		Code:     code,
		Message:  fmt.Sprintf(format, args...),
		Span:     span,
	}
}

// Internal builds a diagnostic reporting a compiler invariant violation.
func Internal(stage Stage, code Code, span Span, format string, args ...any) Diagnostic {
	d := New(stage, code, span, format, args...)
	d.Severity = SeverityInternal
	return d
}

// WithLabeledSpan adds a labeled span to the diagnostic.
func (d Diagnostic) WithLabeledSpan(span Span, label string, style string) Diagnostic {
	if style == "" {
		style = "primary"
	}
	d.LabeledSpans = append(d.LabeledSpans, LabeledSpan{
		Span:  span,
		Label: label,
		Style: style,
	})
	return d
}

// WithPrimarySpan adds a primary labeled span.
func (d Diagnostic) WithPrimarySpan(span Span, label string) Diagnostic {
	return d.WithLabeledSpan(span, label, "primary")
}

// WithSecondarySpan adds a secondary labeled span.
func (d Diagnostic) WithSecondarySpan(span Span, label string) Diagnostic {
	return d.WithLabeledSpan(span, label, "secondary")
}

// WithNote adds a note to the diagnostic.
func (d Diagnostic) WithNote(note string) Diagnostic {
	d.Notes = append(d.Notes, note)
	return d
}

// WithHelp adds help text to the diagnostic.
func (d Diagnostic) WithHelp(help string) Diagnostic {
	d.Help = help
	return d
}
