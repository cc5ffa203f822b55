package object

// VM is the arena of composite backing stores. Every Array, PackedArray,
// String, and Dict references a slot here. Save/restore works at slot
// granularity: a save records the allocation high-water mark, and the
// first mutation of a pre-save slot copies its data into the save's undo
// log before the write lands.
type VM struct {
	slots []vmSlot
	saves []*SaveRecord

	// AllocGlobal selects the target heap for new composite
	// allocations; setglobal toggles it.
	AllocGlobal bool

	nextSerial int
	saveSerial int
}

type vmSlot struct {
	data   slotData
	global bool
	serial int
}

type slotData interface {
	cloneData() slotData
}

// SaveRecord is the payload of a Save object.
type SaveRecord struct {
	Serial   int
	boundary int
	undo     map[int]slotData
	active   bool
}

// Active reports whether the record has not yet been consumed by restore.
func (s *SaveRecord) Active() bool { return s.active }

// NewVM returns an empty arena in local allocation mode.
func NewVM() *VM {
	return &VM{nextSerial: 1}
}

// SaveLevel is the current save nesting depth.
func (vm *VM) SaveLevel() int { return len(vm.saves) }

// Save opens a new snapshot level and returns the Save object for it.
func (vm *VM) Save() Object {
	vm.saveSerial++
	rec := &SaveRecord{
		Serial:   vm.saveSerial,
		boundary: vm.nextSerial,
		undo:     map[int]slotData{},
		active:   true,
	}
	vm.saves = append(vm.saves, rec)
	return Object{Type: Save, Access: Unlimited, Slot: rec.Serial, Val: rec}
}

// Restore rolls back to the given save object, consuming it and every
// save taken after it.
func (vm *VM) Restore(o Object) error {
	rec, ok := o.Val.(*SaveRecord)
	if o.Type != Save || !ok || !rec.active {
		return ErrInvalidRestore
	}
	idx := -1
	for i, s := range vm.saves {
		if s == rec {
			idx = i
			break
		}
	}
	if idx < 0 {
		return ErrInvalidRestore
	}
	for i := len(vm.saves) - 1; i >= idx; i-- {
		s := vm.saves[i]
		for slot, pre := range s.undo {
			vm.slots[slot].data = pre
		}
		for j := range vm.slots {
			if vm.slots[j].serial >= s.boundary {
				vm.slots[j].data = nil
			}
		}
		s.active = false
	}
	vm.saves = vm.saves[:idx]
	return nil
}

// AllocatedAfter reports whether a composite's backing was allocated
// after the given save was taken. restore must refuse while such an
// object is still referenced from a stack.
func (vm *VM) AllocatedAfter(o Object, sv Object) bool {
	rec, ok := sv.Val.(*SaveRecord)
	if !ok || !o.IsComposite() {
		return false
	}
	return vm.slots[o.Slot].serial >= rec.boundary
}

// prepareWrite logs the slot's pre-image into the innermost save that
// does not yet hold one, so the mutation can be undone.
func (vm *VM) prepareWrite(slot int) {
	if len(vm.saves) == 0 {
		return
	}
	top := vm.saves[len(vm.saves)-1]
	if vm.slots[slot].serial >= top.boundary {
		return // allocated after the save; restore drops it wholesale
	}
	if _, done := top.undo[slot]; done {
		return
	}
	top.undo[slot] = vm.slots[slot].data.cloneData()
}

func (vm *VM) alloc(data slotData) (int, bool) {
	vm.slots = append(vm.slots, vmSlot{
		data:   data,
		global: vm.AllocGlobal,
		serial: vm.nextSerial,
	})
	vm.nextSerial++
	return len(vm.slots) - 1, vm.AllocGlobal
}
