package interp

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/postforge/postforge/device"
	"github.com/postforge/postforge/graphics"
	"github.com/postforge/postforge/object"
)

// captureDevice snapshots every display list it is handed.
type captureDevice struct {
	pages [][]graphics.Element
}

func (c *captureDevice) Name() string { return "dump" }

func (c *captureDevice) ShowPage(vm *object.VM, dl *graphics.DisplayList, pd object.Object) error {
	c.pages = append(c.pages, append([]graphics.Element(nil), dl.Elements...))
	return nil
}

func (c *captureDevice) Close() error { return nil }

type fixture struct {
	ctx *Context
	out *bytes.Buffer
	dev *captureDevice
}

func newFixture() *fixture {
	out := &bytes.Buffer{}
	dev := &captureDevice{}
	reg := device.NewRegistry()
	reg.Register(dev)
	ctx := New(Options{Stdout: out, Stderr: &bytes.Buffer{}, Devices: reg})
	return &fixture{ctx: ctx, out: out, dev: dev}
}

func (f *fixture) run(t *testing.T, src string) error {
	t.Helper()
	return f.ctx.ExecJob(strings.NewReader(src), "test")
}

func runPS(t *testing.T, src string) (*fixture, error) {
	t.Helper()
	f := newFixture()
	return f, f.run(t, src)
}

func TestArithmeticScenario(t *testing.T) {
	f, err := runPS(t, "3 4 add ==")
	require.NoError(t, err)
	assert.Equal(t, "7\n", f.out.String())
	assert.Equal(t, 0, f.ctx.Op.Depth())
}

func TestDefLoadScenario(t *testing.T) {
	f := newFixture()
	require.NoError(t, f.run(t, "/x 10 def /x load 5 add == userdict /x get =="))
	assert.Equal(t, "15\n10\n", f.out.String())
}

func TestSaveRestoreScenario(t *testing.T) {
	f, err := runPS(t, "/x 10 def save /x 20 def restore /x load ==")
	require.NoError(t, err)
	assert.Equal(t, "10\n", f.out.String())
}

func TestStoppedScenario(t *testing.T) {
	f, err := runPS(t, "{ 1 0 div } stopped ==")
	require.NoError(t, err)
	assert.Equal(t, "true\n", f.out.String())
	assert.Equal(t, 0, f.ctx.Op.Depth(), "stopped unwind should discard operands")
	flag, _ := f.ctx.VM.DictGetName(f.ctx.DollarErr, "newerror")
	assert.False(t, flag.BoolVal, "no $error leak after stopped")
}

func TestStringSharingScenario(t *testing.T) {
	f, err := runPS(t, "(hello) dup 0 (H) putinterval ==")
	require.NoError(t, err)
	assert.Equal(t, "(Hello)\n", f.out.String())
}

func TestFillDisplayListScenario(t *testing.T) {
	f, err := runPS(t, "0 0 moveto 100 0 lineto 100 100 lineto closepath fill showpage")
	require.NoError(t, err)
	require.Len(t, f.dev.pages, 1)
	elems := f.dev.pages[0]
	require.Len(t, elems, 6)
	assert.Equal(t, graphics.MoveTo{X: 0, Y: 0}, elems[0])
	assert.Equal(t, graphics.LineTo{X: 100, Y: 0}, elems[1])
	assert.Equal(t, graphics.LineTo{X: 100, Y: 100}, elems[2])
	assert.Equal(t, graphics.ClosePath{}, elems[3])
	fill, ok := elems[4].(graphics.Fill)
	require.True(t, ok, "element 4 should be a Fill, got %T", elems[4])
	assert.Equal(t, graphics.RGB{0, 0, 0}, fill.Color)
	assert.Equal(t, graphics.NonZero, fill.Rule)
	assert.Equal(t, graphics.ErasePage{}, elems[5])
}

func TestUndefinedNameRaisesUndefined(t *testing.T) {
	f := newFixture()
	err := f.run(t, "nosuchthing")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "undefined")
}

func TestForControlVariableTyping(t *testing.T) {
	// The control variable is an integer iff all three operands are.
	f, err := runPS(t, "1 1 3 { type == } for")
	require.NoError(t, err)
	assert.Equal(t, "integertype\nintegertype\nintegertype\n", f.out.String())

	f, err = runPS(t, "0 0.5 1 { type == } for")
	require.NoError(t, err)
	assert.Equal(t, "realtype\nrealtype\nrealtype\n", f.out.String())
}

func TestForAccumulates(t *testing.T) {
	f, err := runPS(t, "0 1 1 4 { add } for ==")
	require.NoError(t, err)
	assert.Equal(t, "10\n", f.out.String())
}

func TestOperandStackLimitExact(t *testing.T) {
	// Exactly at capacity succeeds.
	f := newFixture()
	require.NoError(t, f.run(t, "500 { 1 } repeat clear"))

	// One over raises stackoverflow.
	f2 := newFixture()
	err := f2.run(t, "501 { 1 } repeat")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "stackoverflow")
}

func TestCopyOnLookup(t *testing.T) {
	// cvx on the looked-up copy must not mutate the stored binding.
	f, err := runPS(t, "/arr [1 2 3] def arr cvx pop /arr load xcheck { (exec) } { (lit) } ifelse print")
	require.NoError(t, err)
	assert.Equal(t, "lit", f.out.String())
}

func TestErrorPathPreservesOperands(t *testing.T) {
	f := newFixture()
	ctx := f.ctx
	ctx.Op.Push(ctx.VM.NewStringFrom([]byte("a")))
	ctx.Op.Push(object.MakeInt(1))
	err := opAdd(ctx)
	require.NotNil(t, err)
	assert.Equal(t, object.ErrTypeCheck, err.Name)
	require.Equal(t, 2, ctx.Op.Depth(), "operands must survive the raise")
	top, _ := ctx.Op.Peek(0)
	assert.Equal(t, int64(1), top.IntVal)
	below, _ := ctx.Op.Peek(1)
	assert.Equal(t, object.String, below.Type)
}

func TestTailCallDoesNotGrowExecStack(t *testing.T) {
	// Deep self-recursion through a tail call must not overflow the
	// execution stack.
	f, err := runPS(t, "/n 0 def /go { /n n 1 add def n 10000 lt { go } if } def go n ==")
	require.NoError(t, err)
	assert.Equal(t, "10000\n", f.out.String())
}

func TestExitUnwindsLoop(t *testing.T) {
	f, err := runPS(t, "0 { 1 add dup 3 ge { exit } if } loop ==")
	require.NoError(t, err)
	assert.Equal(t, "3\n", f.out.String())
}

func TestExitOutsideLoopIsInvalid(t *testing.T) {
	f := newFixture()
	err := f.run(t, "exit")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalidexit")
}

func TestForallVariants(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{"array", "[1 2 3] { == } forall", "1\n2\n3\n"},
		{"string", "(AB) { == } forall", "65\n66\n"},
		{"dict", "<< /a 1 >> { == == } forall", "1\n/a\n"},
		{"exit inside", "[1 2 3 4] { dup 3 eq { exit } if == } forall", "1\n2\n"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			f, err := runPS(t, tc.src)
			require.NoError(t, err)
			assert.Equal(t, tc.want, f.out.String())
		})
	}
}

func TestExecutableStringExecution(t *testing.T) {
	f, err := runPS(t, "(3 4 add) cvx exec ==")
	require.NoError(t, err)
	assert.Equal(t, "7\n", f.out.String())
}

func TestTokenOperator(t *testing.T) {
	f, err := runPS(t, "(12 rest) token { == } if print")
	require.NoError(t, err)
	assert.Equal(t, "12\n rest", f.out.String())
}

func TestImmediateNameInProcedure(t *testing.T) {
	f, err := runPS(t, "/v 41 def { //v 1 add } exec ==")
	require.NoError(t, err)
	assert.Equal(t, "42\n", f.out.String())
}

func TestStoppedFalseWhenNoError(t *testing.T) {
	f, err := runPS(t, "{ 1 pop } stopped ==")
	require.NoError(t, err)
	assert.Equal(t, "false\n", f.out.String())
}

func TestQuitEndsJob(t *testing.T) {
	f, err := runPS(t, "(a) print quit (b) print")
	require.NoError(t, err)
	assert.Equal(t, "a", f.out.String())
}

func TestDictConstruction(t *testing.T) {
	f, err := runPS(t, "<< /a 1 /b 2 >> /b get ==")
	require.NoError(t, err)
	assert.Equal(t, "2\n", f.out.String())
}

func TestBindReplacesOperators(t *testing.T) {
	f := newFixture()
	require.NoError(t, f.run(t, "/p { 1 2 add } bind def /p load 2 get type =="))
	assert.Equal(t, "operatortype\n", f.out.String())

	// Names without operator bindings stay names for runtime lookup.
	f2 := newFixture()
	require.NoError(t, f2.run(t, "/q { someuserproc } bind def /q load 0 get type =="))
	assert.Equal(t, "nametype\n", f2.out.String())
}

func TestExecutionHistoryRing(t *testing.T) {
	f := newFixture()
	require.NoError(t, f.run(t, "<< /ExecutionHistory true /ExecutionHistorySize 5 >> setuserparams 1 2 3 4 5 6 7 8 clear"))
	hist := f.ctx.History()
	assert.LessOrEqual(t, len(hist), 5, "ring must be bounded by ExecutionHistorySize")
	assert.NotEmpty(t, hist)
}

func TestInterrupt(t *testing.T) {
	f := newFixture()
	f.ctx.Interrupt()
	err := f.run(t, "{ } loop")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "interrupt")
}
