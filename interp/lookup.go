package interp

import "github.com/postforge/postforge/object"

// Lookup walks the dictionary stack top to bottom and returns the first
// binding for name. Dictionaries without read access are skipped. The
// returned object is a copy; a caller storing it cannot mutate the
// dictionary entry's attribute or access fields. Operators, whose
// payload is immutable, pass through as-is.
func (ctx *Context) Lookup(name string) (object.Object, bool) {
	dicts := ctx.Dicts.Items()
	for i := len(dicts) - 1; i >= 0; i-- {
		if dicts[i].Access < object.ReadOnly {
			continue
		}
		if v, ok := ctx.VM.DictGetName(dicts[i], name); ok {
			return v, true
		}
	}
	return object.Object{}, false
}

// LookupWhere additionally reports the dictionary holding the binding
// (the where operator).
func (ctx *Context) LookupWhere(key object.Object) (object.Object, object.Object, bool) {
	dicts := ctx.Dicts.Items()
	for i := len(dicts) - 1; i >= 0; i-- {
		if dicts[i].Access < object.ReadOnly {
			continue
		}
		if v, ok := ctx.VM.DictGet(dicts[i], key); ok {
			return dicts[i], v, true
		}
	}
	return object.Object{}, object.Object{}, false
}

// lookupImmediate backs the tokenizer's //name resolution.
func (ctx *Context) lookupImmediate(name string) (object.Object, bool) {
	return ctx.Lookup(name)
}

// Define installs a binding in the current (topmost) dictionary.
func (ctx *Context) Define(key, val object.Object) *PSError {
	top, err := ctx.Dicts.Peek(0)
	if err != nil {
		return wrapErr(object.ErrDictStackUnderflow, key)
	}
	if e := ctx.VM.DictPut(top, key, val); e != nil {
		return wrapErr(e, key)
	}
	return nil
}
