package object

type arrayData struct {
	elems []Object
}

func (a *arrayData) cloneData() slotData {
	cp := make([]Object, len(a.elems))
	copy(cp, a.elems)
	return &arrayData{elems: cp}
}

// NewArray allocates an array of n null objects in the current heap.
func (vm *VM) NewArray(n int) Object {
	data := &arrayData{elems: make([]Object, n)}
	for i := range data.elems {
		data.elems[i] = MakeNull()
	}
	slot, global := vm.alloc(data)
	return Object{Type: Array, Access: Unlimited, Global: global, Slot: slot, Length: n}
}

// NewArrayFrom allocates an array holding the given elements.
func (vm *VM) NewArrayFrom(elems []Object) Object {
	cp := make([]Object, len(elems))
	copy(cp, elems)
	slot, global := vm.alloc(&arrayData{elems: cp})
	return Object{Type: Array, Access: Unlimited, Global: global, Slot: slot, Length: len(cp)}
}

// NewProc allocates an executable array (a procedure body).
func (vm *VM) NewProc(elems []Object) Object {
	o := vm.NewArrayFrom(elems)
	o.Attrib = Executable
	return o
}

// NewPackedArray allocates a read-only packed array.
func (vm *VM) NewPackedArray(elems []Object) Object {
	o := vm.NewArrayFrom(elems)
	o.Type = PackedArray
	o.Access = ReadOnly
	return o
}

// ArraySlice returns the view of the backing selected by the object's
// (Start, Length) window. Callers must not mutate the result; writes go
// through ArrayPut and friends so the save undo log stays correct.
func (vm *VM) ArraySlice(o Object) []Object {
	data := vm.slots[o.Slot].data.(*arrayData)
	return data.elems[o.Start : o.Start+o.Length]
}

// ArrayGet returns element i of the view.
func (vm *VM) ArrayGet(o Object, i int) (Object, error) {
	if i < 0 || i >= o.Length {
		return Object{}, ErrRangeCheck
	}
	return vm.ArraySlice(o)[i], nil
}

// ArrayPut stores v at element i of the view.
func (vm *VM) ArrayPut(o Object, i int, v Object) error {
	if o.Access < Unlimited {
		return ErrInvalidAccess
	}
	if i < 0 || i >= o.Length {
		return ErrRangeCheck
	}
	vm.prepareWrite(o.Slot)
	data := vm.slots[o.Slot].data.(*arrayData)
	data.elems[o.Start+i] = v
	return nil
}

// ArrayInterval returns a sub-view sharing the same backing.
func ArrayInterval(o Object, start, count int) (Object, error) {
	if start < 0 || count < 0 || start+count > o.Length {
		return Object{}, ErrRangeCheck
	}
	sub := o
	sub.Start = o.Start + start
	sub.Length = count
	return sub, nil
}

// ArrayPutInterval copies the source view into the destination at start.
func (vm *VM) ArrayPutInterval(dst Object, start int, src Object) error {
	if dst.Access < Unlimited {
		return ErrInvalidAccess
	}
	if src.Access < ReadOnly {
		return ErrInvalidAccess
	}
	if start < 0 || start+src.Length > dst.Length {
		return ErrRangeCheck
	}
	vm.prepareWrite(dst.Slot)
	from := vm.ArraySlice(src)
	data := vm.slots[dst.Slot].data.(*arrayData)
	copy(data.elems[dst.Start+start:], from)
	return nil
}

// ArrayCopyInto copies src's elements to the front of dst and returns the
// written sub-view (the copy operator's result).
func (vm *VM) ArrayCopyInto(src, dst Object) (Object, error) {
	if src.Length > dst.Length {
		return Object{}, ErrRangeCheck
	}
	if err := vm.ArrayPutInterval(dst, 0, src); err != nil {
		return Object{}, err
	}
	out, _ := ArrayInterval(dst, 0, src.Length)
	out.Attrib = src.Attrib
	return out, nil
}
