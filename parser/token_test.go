package parser

import (
	"io"
	"testing"

	"github.com/postforge/postforge/object"
)

func scanAll(t *testing.T, src string) []object.Object {
	t.Helper()
	vm := object.NewVM()
	tkn := NewStringTokenizer(vm, []byte(src))
	var out []object.Object
	for {
		o, _, err := tkn.Scan()
		if err == io.EOF {
			return out
		}
		if err != nil {
			t.Fatalf("scan %q: %v (%v)", src, err, tkn.LastError)
		}
		out = append(out, o)
	}
}

func scanOne(t *testing.T, src string) object.Object {
	t.Helper()
	objs := scanAll(t, src)
	if len(objs) != 1 {
		t.Fatalf("scan %q: got %d tokens, want 1", src, len(objs))
	}
	return objs[0]
}

func TestNumbers(t *testing.T) {
	tests := []struct {
		src  string
		typ  object.Type
		ival int64
		rval float64
	}{
		{"0", object.Int, 0, 0},
		{"42", object.Int, 42, 0},
		{"-17", object.Int, -17, 0},
		{"+5", object.Int, 5, 0},
		{"2147483647", object.Int, 2147483647, 0},
		{"-2147483648", object.Int, -2147483648, 0},
		{"2147483648", object.Real, 0, 2147483648},
		{"3.14", object.Real, 0, 3.14},
		{".5", object.Real, 0, 0.5},
		{"-.002", object.Real, 0, -0.002},
		{"1e3", object.Real, 0, 1000},
		{"1.2E-2", object.Real, 0, 0.012},
		{"8#17", object.Int, 15, 0},
		{"16#FF", object.Int, 255, 0},
		{"2#1010", object.Int, 10, 0},
		{"16#FFFFFFFF", object.Int, -1, 0},
	}
	for _, tc := range tests {
		t.Run(tc.src, func(t *testing.T) {
			o := scanOne(t, tc.src)
			if o.Type != tc.typ {
				t.Fatalf("type = %v, want %v", o.Type, tc.typ)
			}
			if tc.typ == object.Int && o.IntVal != tc.ival {
				t.Errorf("value = %d, want %d", o.IntVal, tc.ival)
			}
			if tc.typ == object.Real && o.RealVal != tc.rval {
				t.Errorf("value = %g, want %g", o.RealVal, tc.rval)
			}
		})
	}
}

func TestNumberLikeNames(t *testing.T) {
	for _, src := range []string{"1.2.3", "16#", "-", "+", "12abc"} {
		t.Run(src, func(t *testing.T) {
			o := scanOne(t, src)
			if o.Type != object.Name || o.Attrib != object.Executable {
				t.Errorf("%q should fall back to an executable name, got %v", src, o.Type)
			}
		})
	}
}

func TestStrings(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{"plain", "(hello)", "hello"},
		{"nested parens", "(a(b)c)", "a(b)c"},
		{"escapes", `(a\nb\tc)`, "a\nb\tc"},
		{"escaped parens", `(\(\))`, "()"},
		{"octal", `(\101\102)`, "AB"},
		{"short octal", `(\53)`, "+"},
		{"line continuation", "(a\\\nb)", "ab"},
		{"unknown escape keeps char", `(\q)`, "q"},
		{"newline normalized", "(a\r\nb)", "a\nb"},
	}
	vm := object.NewVM()
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			tkn := NewStringTokenizer(vm, []byte(tc.src))
			o, _, err := tkn.Scan()
			if err != nil {
				t.Fatal(err)
			}
			if got := string(tkn.VM.StringBytes(o)); got != tc.want {
				t.Errorf("got %q, want %q", got, tc.want)
			}
		})
	}
}

func TestHexString(t *testing.T) {
	vm := object.NewVM()
	tkn := NewStringTokenizer(vm, []byte("<48 65 6C6C 6F>"))
	o, _, err := tkn.Scan()
	if err != nil {
		t.Fatal(err)
	}
	if got := string(vm.StringBytes(o)); got != "Hello" {
		t.Errorf("hex = %q, want Hello", got)
	}

	// Odd digit count implies a trailing zero nibble.
	tkn = NewStringTokenizer(vm, []byte("<901fa>"))
	o, _, err = tkn.Scan()
	if err != nil {
		t.Fatal(err)
	}
	if b := vm.StringBytes(o); len(b) != 3 || b[0] != 0x90 || b[1] != 0x1f || b[2] != 0xa0 {
		t.Errorf("odd hex = % x, want 90 1f a0", b)
	}
}

func TestASCII85(t *testing.T) {
	vm := object.NewVM()
	tkn := NewStringTokenizer(vm, []byte("<~87cUR~>"))
	o, _, err := tkn.Scan()
	if err != nil {
		t.Fatal(err)
	}
	if got := string(vm.StringBytes(o)); got != "Hell" {
		t.Errorf("ascii85 = %q, want Hell", got)
	}

	tkn = NewStringTokenizer(vm, []byte("<~z~>"))
	o, _, err = tkn.Scan()
	if err != nil {
		t.Fatal(err)
	}
	if b := vm.StringBytes(o); len(b) != 4 || b[0] != 0 {
		t.Errorf("z shorthand = % x, want four zero bytes", b)
	}
}

func TestLiteralAndExecutableNames(t *testing.T) {
	o := scanOne(t, "/foo")
	if o.Type != object.Name || o.Attrib != object.Literal || o.NameVal != "foo" {
		t.Errorf("literal name: %+v", o)
	}
	o = scanOne(t, "moveto")
	if o.Type != object.Name || o.Attrib != object.Executable {
		t.Errorf("executable name: %+v", o)
	}
}

func TestImmediateName(t *testing.T) {
	vm := object.NewVM()
	tkn := NewStringTokenizer(vm, []byte("//bound"))
	tkn.Lookup = func(name string) (object.Object, bool) {
		if name == "bound" {
			return object.MakeInt(7), true
		}
		return object.Object{}, false
	}
	o, _, err := tkn.Scan()
	if err != nil {
		t.Fatal(err)
	}
	if o.Type != object.Int || o.IntVal != 7 {
		t.Errorf("immediate lookup result: %+v", o)
	}

	tkn = NewStringTokenizer(vm, []byte("//missing"))
	tkn.Lookup = func(string) (object.Object, bool) { return object.Object{}, false }
	if _, _, err := tkn.Scan(); err != object.ErrUndefined {
		t.Errorf("missing immediate: got %v, want undefined", err)
	}
}

func TestProcedures(t *testing.T) {
	vm := object.NewVM()
	tkn := NewStringTokenizer(vm, []byte("{1 {2 3} add}"))
	o, deferred, err := tkn.Scan()
	if err != nil {
		t.Fatal(err)
	}
	if !deferred {
		t.Errorf("top-level procedure should be deferred")
	}
	if o.Type != object.Array || o.Attrib != object.Executable || o.Length != 3 {
		t.Fatalf("proc: %+v", o)
	}
	inner, _ := vm.ArrayGet(o, 1)
	if inner.Type != object.Array || inner.Attrib != object.Executable || inner.Length != 2 {
		t.Errorf("nested proc: %+v", inner)
	}
}

func TestDictTokens(t *testing.T) {
	objs := scanAll(t, "<< /a 1 >>")
	if len(objs) != 4 {
		t.Fatalf("got %d tokens", len(objs))
	}
	if objs[0].NameVal != "<<" || objs[3].NameVal != ">>" {
		t.Errorf("dict tokens: %v %v", objs[0].NameVal, objs[3].NameVal)
	}
}

func TestComments(t *testing.T) {
	objs := scanAll(t, "1 % comment to eol\n2")
	if len(objs) != 2 || objs[0].IntVal != 1 || objs[1].IntVal != 2 {
		t.Errorf("comment handling: %+v", objs)
	}
}

func TestSyntaxErrors(t *testing.T) {
	vm := object.NewVM()
	for _, src := range []string{"(unterminated", "<48", "{1 2", "<~abc", "}"} {
		t.Run(src, func(t *testing.T) {
			tkn := NewStringTokenizer(vm, []byte(src))
			_, _, err := tkn.Scan()
			if err != object.ErrSyntaxError {
				t.Errorf("got %v, want syntaxerror", err)
			}
		})
	}
}

func TestBinaryTokens(t *testing.T) {
	vm := object.NewVM()

	// 132: 32-bit integer, high-order first.
	tkn := NewStringTokenizer(vm, []byte{132, 0, 0, 1, 0})
	o, _, err := tkn.Scan()
	if err != nil || o.Type != object.Int || o.IntVal != 256 {
		t.Errorf("int32 HO: %+v %v", o, err)
	}

	// 136: signed 8-bit integer.
	tkn = NewStringTokenizer(vm, []byte{136, 0xFF})
	o, _, err = tkn.Scan()
	if err != nil || o.IntVal != -1 {
		t.Errorf("int8: %+v %v", o, err)
	}

	// 141: boolean.
	tkn = NewStringTokenizer(vm, []byte{141, 1})
	o, _, err = tkn.Scan()
	if err != nil || o.Type != object.Bool || !o.BoolVal {
		t.Errorf("bool: %+v %v", o, err)
	}

	// 142: short string.
	tkn = NewStringTokenizer(vm, []byte{142, 2, 'h', 'i'})
	o, _, err = tkn.Scan()
	if err != nil || o.Type != object.String || string(vm.StringBytes(o)) != "hi" {
		t.Errorf("string: %+v %v", o, err)
	}

	// 128: binary object sequences are not decoded.
	tkn = NewStringTokenizer(vm, []byte{128, 0})
	if _, _, err := tkn.Scan(); err != object.ErrSyntaxError {
		t.Errorf("bos: got %v, want syntaxerror", err)
	}
}

func TestConsumedWindow(t *testing.T) {
	vm := object.NewVM()
	src := []byte("12 34")
	tkn := NewStringTokenizer(vm, src)
	o, _, err := tkn.Scan()
	if err != nil || o.IntVal != 12 {
		t.Fatalf("first token: %+v %v", o, err)
	}
	rest := src[tkn.Consumed():]
	tkn2 := NewStringTokenizer(vm, rest)
	o, _, err = tkn2.Scan()
	if err != nil || o.IntVal != 34 {
		t.Errorf("resume after Consumed: %+v %v", o, err)
	}
}
