package interp

import "github.com/postforge/postforge/object"

// Resource categories recognized by the category-typed lookup.
var resourceCategories = []string{
	"Font", "Encoding", "Pattern", "ColorSpace", "Form",
	"Halftone", "ProcSet", "CMap", "CIDFont", "ColorRendering",
}

func registerResourceOps(def defFunc) {
	def("defineresource", opDefineResource)
	def("undefineresource", opUndefineResource)
	def("findresource", opFindResource)
	def("resourcestatus", opResourceStatus)
	def("resourceforall", opResourceForAll)
}

// resourceCategory returns (creating on demand) the instance dict for a
// category.
func (ctx *Context) resourceCategory(name string) object.Object {
	if d, ok := ctx.resources[name]; ok {
		return d
	}
	wasGlobal := ctx.VM.AllocGlobal
	ctx.VM.AllocGlobal = true
	d := ctx.VM.NewDict(16)
	ctx.VM.AllocGlobal = wasGlobal
	ctx.resources[name] = d
	return d
}

func validCategory(name string) bool {
	for _, c := range resourceCategories {
		if c == name {
			return true
		}
	}
	return false
}

func opDefineResource(ctx *Context) *PSError {
	cat, err := ctx.peekType(0, object.Name)
	if err != nil {
		return err
	}
	instance, e := ctx.Op.Peek(1)
	if e != nil {
		return fail(object.ErrStackUnderflow)
	}
	key, e := ctx.Op.Peek(2)
	if e != nil {
		return fail(object.ErrStackUnderflow)
	}
	if !validCategory(cat.NameVal) {
		return fail(object.ErrUndefinedResource)
	}
	if perr := ctx.VM.DictPut(ctx.resourceCategory(cat.NameVal), key, instance); perr != nil {
		return wrapErr(perr, key)
	}
	ctx.Op.PopN(3)
	return ctx.pushAll(instance)
}

func opUndefineResource(ctx *Context) *PSError {
	cat, err := ctx.peekType(0, object.Name)
	if err != nil {
		return err
	}
	key, e := ctx.Op.Peek(1)
	if e != nil {
		return fail(object.ErrStackUnderflow)
	}
	if !validCategory(cat.NameVal) {
		return fail(object.ErrUndefinedResource)
	}
	if perr := ctx.VM.DictUndef(ctx.resourceCategory(cat.NameVal), key); perr != nil {
		return wrapErr(perr, key)
	}
	ctx.Op.PopN(2)
	return nil
}

func opFindResource(ctx *Context) *PSError {
	cat, err := ctx.peekType(0, object.Name)
	if err != nil {
		return err
	}
	key, e := ctx.Op.Peek(1)
	if e != nil {
		return fail(object.ErrStackUnderflow)
	}
	if !validCategory(cat.NameVal) {
		return fail(object.ErrUndefinedResource)
	}
	v, ok := ctx.VM.DictGet(ctx.resourceCategory(cat.NameVal), key)
	if !ok {
		// Fonts fall back to the built-in stub so findfont-equivalent
		// lookups keep working.
		if cat.NameVal == "Font" && (key.Type == object.Name || key.Type == object.String) {
			name := key.NameVal
			if key.Type == object.String {
				name = string(ctx.VM.StringBytes(key))
			}
			ctx.Op.PopN(2)
			return ctx.pushAll(ctx.newFontDict(name))
		}
		return psErr(object.ErrUndefinedResource, key)
	}
	ctx.Op.PopN(2)
	return ctx.pushAll(v)
}

func opResourceStatus(ctx *Context) *PSError {
	cat, err := ctx.peekType(0, object.Name)
	if err != nil {
		return err
	}
	key, e := ctx.Op.Peek(1)
	if e != nil {
		return fail(object.ErrStackUnderflow)
	}
	if !validCategory(cat.NameVal) {
		return fail(object.ErrUndefinedResource)
	}
	_, ok := ctx.VM.DictGet(ctx.resourceCategory(cat.NameVal), key)
	ctx.Op.PopN(2)
	if !ok {
		return ctx.pushAll(object.MakeBool(false))
	}
	return ctx.pushAll(object.MakeInt(0), object.MakeInt(0), object.MakeBool(true))
}

// resourceforall enumerates instances whose keys match the template;
// only the * wildcard participates in matching.
func opResourceForAll(ctx *Context) *PSError {
	cat, err := ctx.peekType(0, object.Name)
	if err != nil {
		return err
	}
	scratch, err2 := ctx.peekType(1, object.String)
	if err2 != nil {
		return err2
	}
	proc, e := ctx.Op.Peek(2)
	if e != nil {
		return fail(object.ErrStackUnderflow)
	}
	tmpl, err3 := ctx.peekType(3, object.String)
	if err3 != nil {
		return err3
	}
	if !isProc(proc) {
		return fail(object.ErrTypeCheck)
	}
	if !validCategory(cat.NameVal) {
		return fail(object.ErrUndefinedResource)
	}
	pattern := string(ctx.VM.StringBytes(tmpl))
	var names []string
	for _, p := range ctx.VM.DictPairs(ctx.resourceCategory(cat.NameVal)) {
		if p[0].Type != object.Name {
			continue
		}
		if matchTemplate(pattern, p[0].NameVal) {
			names = append(names, p[0].NameVal)
		}
	}
	ctx.Op.PopN(4)
	return ctx.pushExecutable(loopMarker(&loopState{
		kind:    loopFileNameForAll,
		proc:    proc,
		names:   names,
		scratch: scratch,
	}))
}

func matchTemplate(pattern, name string) bool {
	if pattern == "" {
		return true
	}
	var match func(p, s string) bool
	match = func(p, s string) bool {
		if p == "" {
			return s == ""
		}
		if p[0] == '*' {
			for i := 0; i <= len(s); i++ {
				if match(p[1:], s[i:]) {
					return true
				}
			}
			return false
		}
		if s == "" {
			return false
		}
		if p[0] == '?' || p[0] == s[0] {
			return match(p[1:], s[1:])
		}
		return false
	}
	return match(pattern, name)
}
