package output

import (
	"bytes"
	"strings"
	"testing"
)

func TestParseColorMode_Valid(t *testing.T) {
	tests := []struct {
		input string
		want  ColorMode
	}{
		{"auto", ColorAuto},
		{"always", ColorAlways},
		{"never", ColorNever},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseColorMode(tt.input)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("ParseColorMode(%q) = %d, want %d", tt.input, got, tt.want)
			}
		})
	}
}

func TestParseColorMode_Invalid(t *testing.T) {
	_, err := ParseColorMode("invalid")
	if err == nil {
		t.Error("expected error for invalid color mode, got nil")
	}
}

func TestResolveColors_Always(t *testing.T) {
	// Even with NO_COLOR set, ColorAlways should return true.
	t.Setenv("NO_COLOR", "1")
	if !ResolveColors(ColorAlways) {
		t.Error("ResolveColors(ColorAlways) with NO_COLOR=1 should return true")
	}
}

func TestResolveColors_Never(t *testing.T) {
	if ResolveColors(ColorNever) {
		t.Error("ResolveColors(ColorNever) should return false")
	}
}

func TestResolveColors_AutoRespectsNoColor(t *testing.T) {
	t.Setenv("NO_COLOR", "1")
	if ResolveColors(ColorAuto) {
		t.Error("ResolveColors(ColorAuto) with NO_COLOR=1 should return false")
	}
}

func TestPrinter_PlainOutput(t *testing.T) {
	var out, errOut bytes.Buffer
	p := NewPrinterWithWriters(&out, &errOut, Options{ColorMode: ColorNever})

	p.Success("pushed %s", "first-post")
	p.Error("sync failed for %s", "bad-entry")

	if got := out.String(); got != "[OK] pushed first-post\n" {
		t.Errorf("stdout = %q", got)
	}
	if got := errOut.String(); got != "[ERROR] sync failed for bad-entry\n" {
		t.Errorf("stderr = %q", got)
	}
}

func TestPrinter_QuietSuppressesInfo(t *testing.T) {
	var out, errOut bytes.Buffer
	p := NewPrinterWithWriters(&out, &errOut, Options{ColorMode: ColorNever, Quiet: true})

	p.Info("scanning vault")
	p.Success("done")
	p.Error("still shown")

	if out.Len() != 0 {
		t.Errorf("quiet stdout = %q", out.String())
	}
	if errOut.Len() == 0 {
		t.Error("errors must print even in quiet mode")
	}
}

func TestActionBadge_NoColor(t *testing.T) {
	var out bytes.Buffer
	p := NewPrinterWithWriters(&out, &out, Options{ColorMode: ColorNever})
	if got := p.ActionBadge("create"); got != "[create]" {
		t.Errorf("badge = %q", got)
	}
}

func TestTable_RendersHeaderAndRows(t *testing.T) {
	var out bytes.Buffer
	tbl := NewTable(&out, []string{"identifier", "stage", "title"})
	tbl.AddRow([]string{"first-post", "synced", "First Post"})
	tbl.AddRow([]string{"second", "incubating", "Second"})
	tbl.Render()

	got := out.String()
	for _, want := range []string{"IDENTIFIER", "first-post", "incubating"} {
		if !strings.Contains(got, want) {
			t.Errorf("table output missing %q:\n%s", want, got)
		}
	}
}

func TestTable_QuietRendersNothing(t *testing.T) {
	var out bytes.Buffer
	tbl := NewQuietTable(&out, []string{"identifier"}, true)
	tbl.AddRow([]string{"first-post"})
	tbl.Render()
	if out.Len() != 0 {
		t.Errorf("quiet table output = %q", out.String())
	}
}
