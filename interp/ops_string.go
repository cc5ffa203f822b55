package interp

import (
	"bytes"
	"io"

	"github.com/postforge/postforge/object"
	"github.com/postforge/postforge/parser"
)

func registerStringOps(def defFunc) {
	def("string", opString)
	def("search", opSearch)
	def("anchorsearch", opAnchorSearch)
	def("token", opToken)
}

func opString(ctx *Context) *PSError {
	n, err := ctx.peekInt(0)
	if err != nil {
		return err
	}
	if n < 0 {
		return fail(object.ErrRangeCheck)
	}
	ctx.Op.Pop()
	return ctx.pushAll(ctx.VM.NewString(int(n)))
}

func opSearch(ctx *Context) *PSError {
	seek, err := ctx.peekType(0, object.String)
	if err != nil {
		return err
	}
	str, err := ctx.peekType(1, object.String)
	if err != nil {
		return err
	}
	if seek.Access < object.ReadOnly || str.Access < object.ReadOnly {
		return fail(object.ErrInvalidAccess)
	}
	hay := ctx.VM.StringBytes(str)
	needle := ctx.VM.StringBytes(seek)
	idx := bytes.Index(hay, needle)
	ctx.Op.PopN(2)
	if idx < 0 {
		return ctx.pushAll(str, object.MakeBool(false))
	}
	post, _ := object.StringInterval(str, idx+len(needle), len(hay)-idx-len(needle))
	match, _ := object.StringInterval(str, idx, len(needle))
	pre, _ := object.StringInterval(str, 0, idx)
	return ctx.pushAll(post, match, pre, object.MakeBool(true))
}

func opAnchorSearch(ctx *Context) *PSError {
	seek, err := ctx.peekType(0, object.String)
	if err != nil {
		return err
	}
	str, err := ctx.peekType(1, object.String)
	if err != nil {
		return err
	}
	if seek.Access < object.ReadOnly || str.Access < object.ReadOnly {
		return fail(object.ErrInvalidAccess)
	}
	hay := ctx.VM.StringBytes(str)
	needle := ctx.VM.StringBytes(seek)
	ctx.Op.PopN(2)
	if !bytes.HasPrefix(hay, needle) {
		return ctx.pushAll(str, object.MakeBool(false))
	}
	post, _ := object.StringInterval(str, len(needle), len(hay)-len(needle))
	match, _ := object.StringInterval(str, 0, len(needle))
	return ctx.pushAll(post, match, object.MakeBool(true))
}

// opToken scans one token from a string or file operand.
func opToken(ctx *Context) *PSError {
	src, err := ctx.Op.Peek(0)
	if err != nil {
		return fail(object.ErrStackUnderflow)
	}
	switch src.Type {
	case object.String:
		if src.Access < object.ReadOnly {
			return fail(object.ErrInvalidAccess)
		}
		tkn := parser.NewStringTokenizer(ctx.VM, ctx.VM.StringBytes(src))
		tkn.Lookup = ctx.lookupImmediate
		obj, _, serr := tkn.Scan()
		if serr == io.EOF {
			ctx.Op.Pop()
			return ctx.pushAll(object.MakeBool(false))
		}
		if serr != nil {
			return wrapErr(serr, src)
		}
		consumed := tkn.Consumed()
		post, e := object.StringInterval(src, consumed, src.Length-consumed)
		if e != nil {
			post, _ = object.StringInterval(src, src.Length, 0)
		}
		ctx.Op.Pop()
		return ctx.pushAll(post, obj, object.MakeBool(true))
	case object.File:
		h, ok := ctx.fileHandle(src)
		if !ok || !h.Open || h.R == nil {
			return fail(object.ErrIOError)
		}
		if h.tok == nil {
			tkn := parser.NewTokenizer(ctx.VM, h.R)
			tkn.Lookup = ctx.lookupImmediate
			h.tok = &tokenState{tkn: tkn}
		}
		obj, _, serr := h.tok.tkn.Scan()
		if serr == io.EOF {
			ctx.Op.Pop()
			return ctx.pushAll(object.MakeBool(false))
		}
		if serr != nil {
			return wrapErr(serr, src)
		}
		ctx.Op.Pop()
		return ctx.pushAll(obj, object.MakeBool(true))
	}
	return fail(object.ErrTypeCheck)
}
