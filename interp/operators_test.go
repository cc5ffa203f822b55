package interp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// evalOutput runs a program and returns stdout.
func evalOutput(t *testing.T, src string) string {
	t.Helper()
	f, err := runPS(t, src)
	require.NoError(t, err, "program %q", src)
	return f.out.String()
}

// evalError runs a program expecting a job-terminating error name.
func evalError(t *testing.T, src, errName string) {
	t.Helper()
	f := newFixture()
	err := f.run(t, src)
	require.Error(t, err, "program %q", src)
	assert.Contains(t, err.Error(), errName)
}

func TestArithmeticOperators(t *testing.T) {
	tests := []struct {
		src, want string
	}{
		{"1 2 add ==", "3\n"},
		{"1.5 2 add ==", "3.5\n"},
		{"5 3 sub ==", "2\n"},
		{"4 3 mul ==", "12\n"},
		{"7 2 div ==", "3.5\n"},
		{"7 2 idiv ==", "3\n"},
		{"7 3 mod ==", "1\n"},
		{"-7 abs ==", "7\n"},
		{"-7.5 abs ==", "7.5\n"},
		{"3 neg ==", "-3\n"},
		{"3.2 ceiling ==", "4.0\n"},
		{"3.8 floor ==", "3.0\n"},
		{"3.5 round ==", "4.0\n"},
		{"3.9 truncate ==", "3.0\n"},
		{"9 sqrt ==", "3.0\n"},
		{"0 sin ==", "0.0\n"},
		{"0 cos ==", "1.0\n"},
		{"2 10 exp ==", "1024.0\n"},
		{"100 log ==", "2.0\n"},
		{"1 0 atan ==", "90.0\n"},
		{"2147483647 1 add ==", "2147483648.0\n"},
	}
	for _, tc := range tests {
		t.Run(tc.src, func(t *testing.T) {
			assert.Equal(t, tc.want, evalOutput(t, tc.src))
		})
	}
}

func TestArithmeticErrors(t *testing.T) {
	evalError(t, "1 0 div", "undefinedresult")
	evalError(t, "1 0 idiv", "undefinedresult")
	evalError(t, "1 0 mod", "undefinedresult")
	evalError(t, "-1 sqrt", "rangecheck")
	evalError(t, "(a) 1 add", "typecheck")
	evalError(t, "1 add", "stackunderflow")
}

func TestStackOperators(t *testing.T) {
	tests := []struct {
		src, want string
	}{
		{"1 2 exch == ==", "1\n2\n"},
		{"1 dup == ==", "1\n1\n"},
		{"1 2 3 pop == ==", "2\n1\n"},
		{"1 2 3 2 copy == == == == ==", "3\n2\n3\n2\n1\n"},
		{"1 2 3 1 index ==", "2\n"},
		{"1 2 3 3 1 roll == == ==", "2\n1\n3\n"},
		{"1 2 count ==", "2\n"},
		{"mark 1 2 counttomark ==", "2\n"},
		{"1 mark 2 3 cleartomark ==", "1\n"},
	}
	for _, tc := range tests {
		t.Run(tc.src, func(t *testing.T) {
			assert.Equal(t, tc.want, evalOutput(t, tc.src))
		})
	}
}

func TestRelationalOperators(t *testing.T) {
	tests := []struct {
		src, want string
	}{
		{"1 2 lt ==", "true\n"},
		{"2 2 le ==", "true\n"},
		{"3 2 gt ==", "true\n"},
		{"1 1.0 eq ==", "true\n"},
		{"(abc) (abd) lt ==", "true\n"},
		{"(a) (a) eq ==", "true\n"},
		{"/x /x eq ==", "true\n"},
		{"/x (x) eq ==", "true\n"},
		{"1 2 eq ==", "false\n"},
		{"true false and ==", "false\n"},
		{"true false or ==", "true\n"},
		{"true true xor ==", "false\n"},
		{"true not ==", "false\n"},
		{"12 7 and ==", "4\n"},
		{"1 3 bitshift ==", "8\n"},
		{"8 -3 bitshift ==", "1\n"},
	}
	for _, tc := range tests {
		t.Run(tc.src, func(t *testing.T) {
			assert.Equal(t, tc.want, evalOutput(t, tc.src))
		})
	}
}

func TestArrayOperators(t *testing.T) {
	tests := []struct {
		src, want string
	}{
		{"3 array length ==", "3\n"},
		{"[1 2 3] 1 get ==", "2\n"},
		{"[1 2 3] dup 1 99 put 1 get ==", "99\n"},
		{"[1 2 3 4] 1 2 getinterval length ==", "2\n"},
		{"[1 2 3 4] 1 2 getinterval 0 get ==", "2\n"},
		{"1 2 3 3 array astore 1 get ==", "2\n"},
		{"[1 2] aload pop add ==", "3\n"},
		{"[1 [2 3]] 1 get 0 get ==", "2\n"},
		{"0 packedarray length ==", "0\n"},
	}
	for _, tc := range tests {
		t.Run(tc.src, func(t *testing.T) {
			assert.Equal(t, tc.want, evalOutput(t, tc.src))
		})
	}
	evalError(t, "[1] 5 get", "rangecheck")
	evalError(t, "[1] (x) get", "typecheck")
}

func TestDictOperators(t *testing.T) {
	tests := []struct {
		src, want string
	}{
		{"5 dict length ==", "0\n"},
		{"5 dict maxlength ==", "5\n"},
		{"5 dict begin /a 1 def a == end", "1\n"},
		{"<< /a 1 >> /a known ==", "true\n"},
		{"<< /a 1 >> /b known ==", "false\n"},
		{"/zzz where ==", "false\n"},
		{"/add where { pop (found) print } if", "found"},
		{"<< /a 1 >> dup /a undef /a known ==", "false\n"},
		{"countdictstack ==", "3\n"},
		{"5 dict begin countdictstack == end", "4\n"},
		{"currentdict type ==", "dicttype\n"},
		{"/v 7 def /v 8 store /v load ==", "8\n"},
	}
	for _, tc := range tests {
		t.Run(tc.src, func(t *testing.T) {
			assert.Equal(t, tc.want, evalOutput(t, tc.src))
		})
	}
	evalError(t, "end", "dictstackunderflow")
	evalError(t, "<< /a >>", "rangecheck")
}

func TestStringOperators(t *testing.T) {
	tests := []struct {
		src, want string
	}{
		{"5 string length ==", "5\n"},
		{"(abc) 1 get ==", "98\n"},
		{"(abc) dup 0 88 put print", "Xbc"},
		{"(hello world) (o w) search { print pop pop } { pop } ifelse", "hell"},
		{"(hello) (he) anchorsearch { pop print } { pop } ifelse", "llo"},
		{"(hello) (xx) anchorsearch ==", "false\n"},
		{"(abcdef) 2 3 getinterval print", "cde"},
		{"(42) cvi 1 add ==", "43\n"},
		{"(3.5) cvr ==", "3.5\n"},
		{"123 10 string cvs print", "123"},
		{"255 16 4 string cvrs print", "FF"},
		{"(foo) cvn /foo eq ==", "true\n"},
	}
	for _, tc := range tests {
		t.Run(tc.src, func(t *testing.T) {
			assert.Equal(t, tc.want, evalOutput(t, tc.src))
		})
	}
}

func TestTypeOperators(t *testing.T) {
	tests := []struct {
		src, want string
	}{
		{"1 type ==", "integertype\n"},
		{"1.0 type ==", "realtype\n"},
		{"(a) type ==", "stringtype\n"},
		{"/a type ==", "nametype\n"},
		{"[1] type ==", "arraytype\n"},
		{"<< >> type ==", "dicttype\n"},
		{"true type ==", "booleantype\n"},
		{"null type ==", "nulltype\n"},
		{"mark type ==", "marktype\n"},
		{"{1} type ==", "arraytype\n"},
		{"{1} xcheck ==", "true\n"},
		{"[1] xcheck ==", "false\n"},
		{"{1} cvlit xcheck ==", "false\n"},
		{"[1] cvx xcheck ==", "true\n"},
		{"(a) readonly wcheck ==", "false\n"},
		{"(a) rcheck ==", "true\n"},
	}
	for _, tc := range tests {
		t.Run(tc.src, func(t *testing.T) {
			assert.Equal(t, tc.want, evalOutput(t, tc.src))
		})
	}
}

func TestAccessTighteningOnly(t *testing.T) {
	evalError(t, "(a) noaccess readonly", "invalidaccess")
	evalError(t, "(a) executeonly 0 get", "invalidaccess")
}

func TestControlOperators(t *testing.T) {
	tests := []struct {
		src, want string
	}{
		{"true { (y) } { (n) } ifelse print", "y"},
		{"false { (y) } { (n) } ifelse print", "n"},
		{"true { (y) print } if", "y"},
		{"3 { (x) print } repeat", "xxx"},
		{"{1 2 add} exec ==", "3\n"},
		{"(abc) length 3 eq { (ok) print } if", "ok"},
	}
	for _, tc := range tests {
		t.Run(tc.src, func(t *testing.T) {
			assert.Equal(t, tc.want, evalOutput(t, tc.src))
		})
	}
	evalError(t, "1 { } if", "typecheck")
	evalError(t, "true 1 if", "typecheck")
}

func TestVMOperators(t *testing.T) {
	tests := []struct {
		src, want string
	}{
		{"currentglobal ==", "false\n"},
		{"true setglobal currentglobal == false setglobal", "true\n"},
		{"[1] gcheck ==", "false\n"},
		{"true setglobal [1] gcheck == false setglobal", "true\n"},
		{"1 gcheck ==", "true\n"},
		{"save restore (ok) print", "ok"},
		{"vmstatus pop pop ==", "1\n"},
	}
	for _, tc := range tests {
		t.Run(tc.src, func(t *testing.T) {
			assert.Equal(t, tc.want, evalOutput(t, tc.src))
		})
	}
}

func TestInvalidRestore(t *testing.T) {
	// A composite allocated after the save sits on the stack.
	evalError(t, "save [1 2 3] exch restore", "invalidrestore")
}

func TestSaveRestoreString(t *testing.T) {
	out := evalOutput(t, "/s (abc) def save s 0 88 put restore s print")
	assert.Equal(t, "abc", out)
}

func TestPolymorphicLengthAndCopy(t *testing.T) {
	tests := []struct {
		src, want string
	}{
		{"(abcd) length ==", "4\n"},
		{"/abcd length ==", "4\n"},
		{"<< /a 1 /b 2 >> length ==", "2\n"},
		{"[1 2] 5 array copy length ==", "2\n"},
		{"(ab) 5 string copy print", "ab"},
		{"<< /a 1 >> 2 dict copy /a get ==", "1\n"},
	}
	for _, tc := range tests {
		t.Run(tc.src, func(t *testing.T) {
			assert.Equal(t, tc.want, evalOutput(t, tc.src))
		})
	}
}

func TestDeepPrint(t *testing.T) {
	tests := []struct {
		src, want string
	}{
		{"[1 2] ==", "[1 2]\n"},
		{"{1 add} ==", "{1 add}\n"},
		{"(a\\nb) ==", "(a\\nb)\n"},
		{"/x ==", "/x\n"},
		{"1.5 ==", "1.5\n"},
		{"true ==", "true\n"},
		{"null ==", "null\n"},
	}
	for _, tc := range tests {
		t.Run(tc.src, func(t *testing.T) {
			assert.Equal(t, tc.want, evalOutput(t, tc.src))
		})
	}
}

func TestCvsRoundTrip(t *testing.T) {
	// Tokenize then re-serialize a literal via cvs.
	tests := []struct {
		src, want string
	}{
		{"42 20 string cvs print", "42"},
		{"-7 20 string cvs print", "-7"},
		{"true 20 string cvs print", "true"},
		{"3.5 20 string cvs print", "3.5"},
	}
	for _, tc := range tests {
		t.Run(tc.src, func(t *testing.T) {
			assert.Equal(t, tc.want, evalOutput(t, tc.src))
		})
	}
}

func TestResourceOperators(t *testing.T) {
	tests := []struct {
		src, want string
	}{
		{"/myproc { 1 } /ProcSet defineresource pop /myproc /ProcSet findresource exec ==", "1\n"},
		{"/nope /ProcSet resourcestatus ==", "false\n"},
		{"/myenc [1] /Encoding defineresource pop /myenc /Encoding resourcestatus { pop pop (yes) print } if", "yes"},
	}
	for _, tc := range tests {
		t.Run(tc.src, func(t *testing.T) {
			assert.Equal(t, tc.want, evalOutput(t, tc.src))
		})
	}
	evalError(t, "/x /NoSuchCategory findresource", "undefinedresource")
}

func TestUserParams(t *testing.T) {
	out := evalOutput(t, "currentuserparams /MaxOpStack get ==")
	assert.Equal(t, "500\n", out)
	out = evalOutput(t, "<< /MaxOpStack 600 >> setuserparams currentuserparams /MaxOpStack get ==")
	assert.Equal(t, "600\n", out)
}

func TestMiscOperators(t *testing.T) {
	assert.Equal(t, "2\n", evalOutput(t, "languagelevel =="))
	assert.Equal(t, "PostForge", evalOutput(t, "product print"))
	assert.Equal(t, "3010", evalOutput(t, "version print"))
	out := evalOutput(t, "rand rand eq ==")
	assert.Equal(t, "false\n", out)
	assert.Equal(t, "true\n", evalOutput(t, "42 srand rand 42 srand rand eq =="))
}
