package fmtspec

import "testing"

func TestParseWidthAndType(t *testing.T) {
	sp := Parse("08x")
	if sp.Fill != '0' || sp.Align != AlignDefault || !sp.HasWidth || sp.Width != 8 || sp.Type != 'x' {
		t.Fatalf("unexpected parse result: %+v", sp)
	}
}

func TestParseAlignAndPrecision(t *testing.T) {
	sp := Parse(">10.2f")
	if sp.Align != AlignRight || sp.Width != 10 || sp.Precision != 2 || sp.Type != 'f' {
		t.Fatalf("unexpected parse result: %+v", sp)
	}
}

func TestFormatIntHex(t *testing.T) {
	sp := Parse("04X")
	if got := FormatInt(255, sp); got != "00FF" {
		t.Fatalf("expected 00FF, got %q", got)
	}
}

func TestFormatIntBinary(t *testing.T) {
	if got := FormatInt(5, Parse("b")); got != "101" {
		t.Fatalf("expected 101, got %q", got)
	}
}

func TestFormatFloatFixed(t *testing.T) {
	if got := FormatFloat(3.14159, Parse(".2f")); got != "3.14" {
		t.Fatalf("expected 3.14, got %q", got)
	}
}

func TestFormatStringLeftAlignedByDefault(t *testing.T) {
	if got := FormatString("hi", Parse("5")); got != "hi   " {
		t.Fatalf("expected left-padded %q, got %q", "hi   ", got)
	}
}

func TestFormatIntCenterAlign(t *testing.T) {
	if got := FormatInt(7, Parse("^5")); got != "  7  " {
		t.Fatalf("expected centered %q, got %q", "  7  ", got)
	}
}

func TestFormatCharCodePoint(t *testing.T) {
	if got := FormatInt(65, Parse("c")); got != "A" {
		t.Fatalf("expected 'A', got %q", got)
	}
}

func TestUnknownTypeDefaultsToDecimal(t *testing.T) {
	if got := FormatInt(42, Parse("z")); got != "42" {
		t.Fatalf("expected default decimal for unknown type, got %q", got)
	}
}
