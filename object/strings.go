package object

type stringData struct {
	b []byte
}

func (s *stringData) cloneData() slotData {
	cp := make([]byte, len(s.b))
	copy(cp, s.b)
	return &stringData{b: cp}
}

// NewString allocates a string of n zero bytes.
func (vm *VM) NewString(n int) Object {
	slot, global := vm.alloc(&stringData{b: make([]byte, n)})
	return Object{Type: String, Access: Unlimited, Global: global, Slot: slot, Length: n}
}

// NewStringFrom allocates a string holding a copy of b.
func (vm *VM) NewStringFrom(b []byte) Object {
	cp := make([]byte, len(b))
	copy(cp, b)
	slot, global := vm.alloc(&stringData{b: cp})
	return Object{Type: String, Access: Unlimited, Global: global, Slot: slot, Length: len(cp)}
}

// StringBytes returns the view of the backing selected by the object.
// Callers must not mutate the result directly.
func (vm *VM) StringBytes(o Object) []byte {
	data := vm.slots[o.Slot].data.(*stringData)
	return data.b[o.Start : o.Start+o.Length]
}

// StringGet returns byte i as an integer.
func (vm *VM) StringGet(o Object, i int) (int64, error) {
	if i < 0 || i >= o.Length {
		return 0, ErrRangeCheck
	}
	return int64(vm.StringBytes(o)[i]), nil
}

// StringPut stores byte v at index i.
func (vm *VM) StringPut(o Object, i int, v int64) error {
	if o.Access < Unlimited {
		return ErrInvalidAccess
	}
	if i < 0 || i >= o.Length {
		return ErrRangeCheck
	}
	if v < 0 || v > 255 {
		return ErrRangeCheck
	}
	vm.prepareWrite(o.Slot)
	data := vm.slots[o.Slot].data.(*stringData)
	data.b[o.Start+i] = byte(v)
	return nil
}

// StringInterval returns a sub-view sharing the same backing.
func StringInterval(o Object, start, count int) (Object, error) {
	if start < 0 || count < 0 || start+count > o.Length {
		return Object{}, ErrRangeCheck
	}
	sub := o
	sub.Start = o.Start + start
	sub.Length = count
	return sub, nil
}

// StringPutInterval copies the source view into the destination at start.
func (vm *VM) StringPutInterval(dst Object, start int, src Object) error {
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
	from := vm.StringBytes(src)
	data := vm.slots[dst.Slot].data.(*stringData)
	copy(data.b[dst.Start+start:], from)
	return nil
}

// StringWriteBytes overwrites the front of the view with b.
func (vm *VM) StringWriteBytes(dst Object, b []byte) error {
	if dst.Access < Unlimited {
		return ErrInvalidAccess
	}
	if len(b) > dst.Length {
		return ErrRangeCheck
	}
	vm.prepareWrite(dst.Slot)
	data := vm.slots[dst.Slot].data.(*stringData)
	copy(data.b[dst.Start:], b)
	return nil
}
