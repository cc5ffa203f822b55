package object

import "testing"

func TestSaveRestoreMutationRollback(t *testing.T) {
	vm := NewVM()
	arr := vm.NewArrayFrom([]Object{MakeInt(1), MakeInt(2)})

	sv := vm.Save()
	if err := vm.ArrayPut(arr, 0, MakeInt(42)); err != nil {
		t.Fatal(err)
	}
	if got, _ := vm.ArrayGet(arr, 0); got.IntVal != 42 {
		t.Fatalf("pre-restore value = %d", got.IntVal)
	}
	if err := vm.Restore(sv); err != nil {
		t.Fatal(err)
	}
	if got, _ := vm.ArrayGet(arr, 0); got.IntVal != 1 {
		t.Errorf("post-restore value = %d, want 1", got.IntVal)
	}
}

func TestSaveRestoreNoOp(t *testing.T) {
	vm := NewVM()
	arr := vm.NewArrayFrom([]Object{MakeInt(7)})
	s := vm.NewStringFrom([]byte("x"))

	sv := vm.Save()
	if err := vm.Restore(sv); err != nil {
		t.Fatal(err)
	}
	if got, _ := vm.ArrayGet(arr, 0); got.IntVal != 7 {
		t.Errorf("array changed by empty save/restore")
	}
	if got := string(vm.StringBytes(s)); got != "x" {
		t.Errorf("string changed by empty save/restore")
	}
}

func TestRestoreDropsPostSaveAllocations(t *testing.T) {
	vm := NewVM()
	sv := vm.Save()
	arr := vm.NewArrayFrom([]Object{MakeInt(1)})
	if err := vm.Restore(sv); err != nil {
		t.Fatal(err)
	}
	if !vm.AllocatedAfter(arr, sv) {
		t.Errorf("array should test as allocated after the save")
	}
}

func TestNestedSaveRestore(t *testing.T) {
	vm := NewVM()
	d := vm.NewDict(4)
	vm.DictPutName(d, "x", MakeInt(0))

	s1 := vm.Save()
	vm.DictPutName(d, "x", MakeInt(1))
	s2 := vm.Save()
	vm.DictPutName(d, "x", MakeInt(2))

	// Restoring the outer save consumes the inner one too.
	if err := vm.Restore(s1); err != nil {
		t.Fatal(err)
	}
	if v, _ := vm.DictGetName(d, "x"); v.IntVal != 0 {
		t.Errorf("x = %d after outer restore, want 0", v.IntVal)
	}
	if rec := s2.Val.(*SaveRecord); rec.Active() {
		t.Errorf("inner save still active after outer restore")
	}
	if err := vm.Restore(s2); err != ErrInvalidRestore {
		t.Errorf("restoring consumed save: got %v, want invalidrestore", err)
	}
}

func TestDictUndoLog(t *testing.T) {
	vm := NewVM()
	d := vm.NewDict(4)
	vm.DictPutName(d, "keep", MakeInt(1))

	sv := vm.Save()
	vm.DictPutName(d, "temp", MakeInt(2))
	vm.DictUndef(d, MakeName("keep", Literal))
	if err := vm.Restore(sv); err != nil {
		t.Fatal(err)
	}
	if _, ok := vm.DictGetName(d, "temp"); ok {
		t.Errorf("post-save entry survived restore")
	}
	if v, ok := vm.DictGetName(d, "keep"); !ok || v.IntVal != 1 {
		t.Errorf("pre-save entry lost by restore")
	}
}

func TestSaveLevel(t *testing.T) {
	vm := NewVM()
	if vm.SaveLevel() != 0 {
		t.Fatal("fresh VM save level != 0")
	}
	s1 := vm.Save()
	vm.Save()
	if vm.SaveLevel() != 2 {
		t.Fatalf("save level = %d, want 2", vm.SaveLevel())
	}
	vm.Restore(s1)
	if vm.SaveLevel() != 0 {
		t.Fatalf("save level after restore = %d, want 0", vm.SaveLevel())
	}
}

func TestGlobalAllocationFlag(t *testing.T) {
	vm := NewVM()
	local := vm.NewArray(1)
	vm.AllocGlobal = true
	global := vm.NewArray(1)
	vm.AllocGlobal = false
	if local.Global {
		t.Errorf("local allocation marked global")
	}
	if !global.Global {
		t.Errorf("global allocation not marked global")
	}
}
