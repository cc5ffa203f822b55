package object

import "testing"

func TestAttribRoundTrip(t *testing.T) {
	vm := NewVM()
	arr := vm.NewProc([]Object{MakeInt(1)})
	if arr.Attrib != Executable {
		t.Fatalf("NewProc attrib = %v, want executable", arr.Attrib)
	}
	lit := arr
	lit.Attrib = Literal
	back := lit
	back.Attrib = Executable
	if back.Attrib != arr.Attrib {
		t.Errorf("cvx cvlit round trip changed attrib: %v != %v", back.Attrib, arr.Attrib)
	}
	// The attribute change never touches the shared backing.
	if got, _ := vm.ArrayGet(arr, 0); got.IntVal != 1 {
		t.Errorf("backing mutated by attribute flip")
	}
}

func TestAccessOrdering(t *testing.T) {
	if !(AccessNone < ExecuteOnly && ExecuteOnly < ReadOnly && ReadOnly < Unlimited) {
		t.Fatal("access levels are not numerically ordered")
	}
}

func TestEquals(t *testing.T) {
	vm := NewVM()
	s1 := vm.NewStringFrom([]byte("abc"))
	s2 := vm.NewStringFrom([]byte("abc"))
	n := MakeName("abc", Literal)

	tests := []struct {
		name string
		a, b Object
		want bool
	}{
		{"int real same value", MakeInt(2), MakeReal(2.0), true},
		{"int real different", MakeInt(2), MakeReal(2.5), false},
		{"string string by bytes", s1, s2, true},
		{"string name by bytes", s1, n, true},
		{"bool", MakeBool(true), MakeBool(true), true},
		{"null null", MakeNull(), MakeNull(), true},
		{"null mark", MakeNull(), MakeMark(), false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := Equals(vm, tc.a, tc.b); got != tc.want {
				t.Errorf("Equals = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestStackOverflowExact(t *testing.T) {
	s := NewStack(3, ErrStackOverflow)
	for i := 0; i < 3; i++ {
		if err := s.Push(MakeInt(int64(i))); err != nil {
			t.Fatalf("push %d: unexpected %v", i, err)
		}
	}
	if err := s.Push(MakeInt(3)); err != ErrStackOverflow {
		t.Fatalf("push past limit: got %v, want stackoverflow", err)
	}
	if s.Depth() != 3 {
		t.Errorf("depth after failed push = %d, want 3", s.Depth())
	}
}

func TestStackRoll(t *testing.T) {
	tests := []struct {
		name string
		n, j int
		want []int64
	}{
		{"forward one", 3, 1, []int64{3, 1, 2}},
		{"backward one", 3, -1, []int64{2, 3, 1}},
		{"full cycle", 3, 3, []int64{1, 2, 3}},
		{"negative wrap", 3, -4, []int64{2, 3, 1}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			s := NewStack(10, ErrStackOverflow)
			for i := int64(1); i <= 3; i++ {
				s.Push(MakeInt(i))
			}
			if err := s.Roll(tc.n, tc.j); err != nil {
				t.Fatal(err)
			}
			items := s.Items()
			for i, want := range tc.want {
				if items[i].IntVal != want {
					t.Errorf("slot %d = %d, want %d", i, items[i].IntVal, want)
				}
			}
		})
	}
}

func TestCountToMark(t *testing.T) {
	s := NewStack(10, ErrStackOverflow)
	if _, err := s.CountToMark(); err != ErrUnmatchedMark {
		t.Fatalf("no mark: got %v", err)
	}
	s.Push(MakeMark())
	s.Push(MakeInt(1))
	s.Push(MakeInt(2))
	n, err := s.CountToMark()
	if err != nil || n != 2 {
		t.Fatalf("CountToMark = %d, %v; want 2, nil", n, err)
	}
}

func TestIntervalSharing(t *testing.T) {
	vm := NewVM()
	arr := vm.NewArrayFrom([]Object{MakeInt(1), MakeInt(2), MakeInt(3), MakeInt(4)})
	sub, err := ArrayInterval(arr, 1, 2)
	if err != nil {
		t.Fatal(err)
	}
	if sub.Length != 2 {
		t.Fatalf("interval length = %d", sub.Length)
	}
	// Mutation through the view lands in the parent.
	if err := vm.ArrayPut(sub, 0, MakeInt(99)); err != nil {
		t.Fatal(err)
	}
	got, _ := vm.ArrayGet(arr, 1)
	if got.IntVal != 99 {
		t.Errorf("parent[1] = %d, want 99 via shared backing", got.IntVal)
	}
}

func TestStringSharing(t *testing.T) {
	vm := NewVM()
	s := vm.NewStringFrom([]byte("hello"))
	dup := s
	h := vm.NewStringFrom([]byte("H"))
	if err := vm.StringPutInterval(dup, 0, h); err != nil {
		t.Fatal(err)
	}
	if got := string(vm.StringBytes(s)); got != "Hello" {
		t.Errorf("original sees %q, want Hello (shared backing)", got)
	}
}

func TestDictAutoGrow(t *testing.T) {
	vm := NewVM()
	d := vm.NewDict(1)
	vm.DictPutName(d, "a", MakeInt(1))
	if err := vm.DictPutName(d, "b", MakeInt(2)); err != nil {
		t.Fatalf("Level 2 dicts grow past maxlength: %v", err)
	}
	if vm.DictLength(d) != 2 || vm.DictMaxLength(d) < 2 {
		t.Errorf("length=%d maxlength=%d", vm.DictLength(d), vm.DictMaxLength(d))
	}
}

func TestDictNumericKeyUnification(t *testing.T) {
	vm := NewVM()
	d := vm.NewDict(4)
	vm.DictPut(d, MakeInt(2), MakeName("two", Literal))
	v, ok := vm.DictGet(d, MakeReal(2.0))
	if !ok || v.NameVal != "two" {
		t.Errorf("2 and 2.0 should address the same entry")
	}
}

func TestPackedArrayReadOnly(t *testing.T) {
	vm := NewVM()
	p := vm.NewPackedArray([]Object{MakeInt(1)})
	if p.Access != ReadOnly {
		t.Fatalf("packed array access = %v, want read-only", p.Access)
	}
	if err := vm.ArrayPut(p, 0, MakeInt(2)); err != ErrInvalidAccess {
		t.Errorf("put into packed array: got %v, want invalidaccess", err)
	}
}
