package object

// DictKey is the identity under which dict entries are stored: names and
// strings by byte value, integers and reals by numeric value, booleans by
// value, other types by backing identity.
type DictKey struct {
	kind byte
	str  string
	num  float64
	flag bool
	id   int
}

type dictPair struct {
	key Object
	val Object
}

type dictData struct {
	pairs []dictPair
	index map[DictKey]int
	max   int
}

func (d *dictData) cloneData() slotData {
	cp := &dictData{
		pairs: make([]dictPair, len(d.pairs)),
		index: make(map[DictKey]int, len(d.index)),
		max:   d.max,
	}
	copy(cp.pairs, d.pairs)
	for k, v := range d.index {
		cp.index[k] = v
	}
	return cp
}

// KeyOf maps a key object to its storage identity. Strings need read
// access to be hashed by content.
func (vm *VM) KeyOf(o Object) (DictKey, error) {
	switch o.Type {
	case Name:
		return DictKey{kind: 'n', str: o.NameVal}, nil
	case String:
		if o.Access < ReadOnly {
			return DictKey{}, ErrInvalidAccess
		}
		return DictKey{kind: 'n', str: string(vm.StringBytes(o))}, nil
	case Int:
		return DictKey{kind: 'f', num: float64(o.IntVal)}, nil
	case Real:
		return DictKey{kind: 'f', num: o.RealVal}, nil
	case Bool:
		return DictKey{kind: 'b', flag: o.BoolVal}, nil
	case Null:
		return DictKey{}, ErrTypeCheck
	default:
		return DictKey{kind: 'o', id: o.Slot, num: float64(o.Start)}, nil
	}
}

// NewDict allocates a dictionary with the given capacity hint. Level 2
// dictionaries grow past maxlength instead of raising dictfull.
func (vm *VM) NewDict(maxlen int) Object {
	data := &dictData{index: map[DictKey]int{}, max: maxlen}
	slot, global := vm.alloc(data)
	return Object{Type: Dict, Access: Unlimited, Global: global, Slot: slot}
}

func (vm *VM) dictData(o Object) *dictData {
	return vm.slots[o.Slot].data.(*dictData)
}

// DictLength is the number of entries.
func (vm *VM) DictLength(o Object) int {
	return len(vm.dictData(o).pairs)
}

// DictMaxLength is the declared capacity.
func (vm *VM) DictMaxLength(o Object) int {
	return vm.dictData(o).max
}

// DictGet looks up a key. Lookup requires read access.
func (vm *VM) DictGet(o Object, key Object) (Object, bool) {
	if o.Access < ReadOnly {
		return Object{}, false
	}
	k, err := vm.KeyOf(key)
	if err != nil {
		return Object{}, false
	}
	d := vm.dictData(o)
	i, ok := d.index[k]
	if !ok {
		return Object{}, false
	}
	return d.pairs[i].val, true
}

// DictGetName looks up by name without building a key object.
func (vm *VM) DictGetName(o Object, name string) (Object, bool) {
	if o.Access < ReadOnly {
		return Object{}, false
	}
	d := vm.dictData(o)
	i, ok := d.index[DictKey{kind: 'n', str: name}]
	if !ok {
		return Object{}, false
	}
	return d.pairs[i].val, true
}

// DictPut installs or replaces an entry.
func (vm *VM) DictPut(o Object, key, val Object) error {
	if o.Access < Unlimited {
		return ErrInvalidAccess
	}
	k, err := vm.KeyOf(key)
	if err != nil {
		return err
	}
	vm.prepareWrite(o.Slot)
	d := vm.dictData(o)
	if i, ok := d.index[k]; ok {
		d.pairs[i].val = val
		return nil
	}
	d.pairs = append(d.pairs, dictPair{key: key, val: val})
	d.index[k] = len(d.pairs) - 1
	if len(d.pairs) > d.max {
		d.max = len(d.pairs) // Level 2 auto-grow
	}
	return nil
}

// DictPutName installs an entry under a literal name key.
func (vm *VM) DictPutName(o Object, name string, val Object) error {
	return vm.DictPut(o, MakeName(name, Literal), val)
}

// DictUndef removes an entry; missing keys are ignored per undef.
func (vm *VM) DictUndef(o Object, key Object) error {
	if o.Access < Unlimited {
		return ErrInvalidAccess
	}
	k, err := vm.KeyOf(key)
	if err != nil {
		return err
	}
	vm.prepareWrite(o.Slot)
	d := vm.dictData(o)
	i, ok := d.index[k]
	if !ok {
		return nil
	}
	d.pairs = append(d.pairs[:i], d.pairs[i+1:]...)
	delete(d.index, k)
	for key2, j := range d.index {
		if j > i {
			d.index[key2] = j - 1
		}
	}
	return nil
}

// DictPairs returns the entries in insertion order for forall and
// dictionary copying. Callers must not mutate the returned slice.
func (vm *VM) DictPairs(o Object) [][2]Object {
	d := vm.dictData(o)
	out := make([][2]Object, len(d.pairs))
	for i, p := range d.pairs {
		out[i] = [2]Object{p.key, p.val}
	}
	return out
}

// DictCopyInto copies src's entries into dst (the copy operator on dicts).
func (vm *VM) DictCopyInto(src, dst Object) error {
	if src.Access < ReadOnly {
		return ErrInvalidAccess
	}
	for _, p := range vm.DictPairs(src) {
		if err := vm.DictPut(dst, p[0], p[1]); err != nil {
			return err
		}
	}
	return nil
}
