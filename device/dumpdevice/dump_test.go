package dumpdevice

import (
	"bytes"
	"strings"
	"testing"

	"github.com/postforge/postforge/graphics"
	"github.com/postforge/postforge/object"
)

func TestFormatElement(t *testing.T) {
	tests := []struct {
		name string
		elem graphics.Element
		want string
	}{
		{"moveto", graphics.MoveTo{X: 1, Y: 2}, "moveto 1 2"},
		{"lineto", graphics.LineTo{X: 3.5, Y: 4}, "lineto 3.5 4"},
		{"closepath", graphics.ClosePath{}, "closepath"},
		{"fill", graphics.Fill{Color: graphics.RGB{0, 0, 0}}, "fill rgb(0.000,0.000,0.000) rule=nonzero"},
		{"eofill rule", graphics.Fill{Rule: graphics.EvenOdd}, "fill rgb(0.000,0.000,0.000) rule=evenodd"},
		{"erasepage", graphics.ErasePage{}, "erasepage"},
		{"text escapes parens", graphics.TextObj{Text: "a(b)", FontName: "F", Size: 10},
			"text (a\\(b\\)) font=F size=10 at 0 0 rgb(0.000,0.000,0.000)"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := FormatElement(tc.elem); got != tc.want {
				t.Errorf("got  %q\nwant %q", got, tc.want)
			}
		})
	}
}

func TestShowPageWritesHeaderAndElements(t *testing.T) {
	var buf bytes.Buffer
	d := New(&buf)
	vm := object.NewVM()
	dl := &graphics.DisplayList{}
	dl.Append(graphics.MoveTo{X: 0, Y: 0})
	dl.Append(graphics.LineTo{X: 10, Y: 0})
	dl.Append(graphics.ErasePage{})
	if err := d.ShowPage(vm, dl, object.Object{}); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	if len(lines) != 4 {
		t.Fatalf("got %d lines: %q", len(lines), out)
	}
	if lines[0] != "%page 1 612x792" {
		t.Errorf("header = %q", lines[0])
	}
	if lines[1] != "moveto 0 0" || lines[2] != "lineto 10 0" || lines[3] != "erasepage" {
		t.Errorf("body = %v", lines[1:])
	}

	// Page numbers advance.
	if err := d.ShowPage(vm, dl, object.Object{}); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "%page 2") {
		t.Errorf("second page header missing")
	}
}
