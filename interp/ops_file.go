package interp

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/postforge/postforge/object"
)

func registerFileOps(def defFunc) {
	def("file", opFile)
	def("closefile", opCloseFile)
	def("read", opRead)
	def("write", opWrite)
	def("readstring", opReadString)
	def("readline", opReadLine)
	def("readhexstring", opReadHexString)
	def("writestring", opWriteString)
	def("writehexstring", opWriteHexString)
	def("bytesavailable", opBytesAvailable)
	def("flush", opFlush)
	def("flushfile", opFlushFile)
	def("resetfile", opResetFile)
	def("status", opStatus)
	def("run", opRun)
	def("currentfile", opCurrentFile)
	def("deletefile", opDeleteFile)
	def("renamefile", opRenameFile)
	def("filenameforall", opFileNameForAll)
	def("fileposition", opFilePosition)
	def("setfileposition", opSetFilePosition)
	def("print", opPrint)
	def("=", opEquals)
	def("==", opEqualsEquals)
	def("stack", opStack)
	def("pstack", opPstack)
	def("echo", opEcho)
}

func opFile(ctx *Context) *PSError {
	access, err := ctx.peekType(0, object.String)
	if err != nil {
		return err
	}
	name, err := ctx.peekType(1, object.String)
	if err != nil {
		return err
	}
	if access.Access < object.ReadOnly || name.Access < object.ReadOnly {
		return fail(object.ErrInvalidAccess)
	}
	nameStr := string(ctx.VM.StringBytes(name))
	accStr := string(ctx.VM.StringBytes(access))

	if strings.HasPrefix(nameStr, "%") {
		f, ok := ctx.stdFile(nameStr)
		if !ok {
			return fail(object.ErrUndefinedFilename)
		}
		ctx.Op.PopN(2)
		return ctx.pushAll(f)
	}

	var h *FileHandle
	switch accStr {
	case "r":
		fd, e := os.Open(nameStr)
		if e != nil {
			return fail(object.ErrUndefinedFilename)
		}
		h = &FileHandle{Name: nameStr, R: fd, Open: true, onDisk: fd}
	case "w":
		fd, e := os.Create(nameStr)
		if e != nil {
			return fail(object.ErrInvalidFileAccess)
		}
		h = &FileHandle{Name: nameStr, W: fd, Open: true, onDisk: fd}
	case "a":
		fd, e := os.OpenFile(nameStr, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
		if e != nil {
			return fail(object.ErrInvalidFileAccess)
		}
		h = &FileHandle{Name: nameStr, W: fd, Open: true, onDisk: fd}
	default:
		return fail(object.ErrInvalidFileAccess)
	}
	ctx.Op.PopN(2)
	return ctx.pushAll(ctx.newFile(h))
}

func (ctx *Context) peekFile(i int) (object.Object, *FileHandle, *PSError) {
	f, err := ctx.peekType(i, object.File)
	if err != nil {
		return object.Object{}, nil, err
	}
	h, ok := ctx.fileHandle(f)
	if !ok {
		return object.Object{}, nil, fail(object.ErrIOError)
	}
	return f, h, nil
}

func opCloseFile(ctx *Context) *PSError {
	f, h, err := ctx.peekFile(0)
	if err != nil {
		return err
	}
	ctx.Op.Pop()
	ctx.closeNonStd(f, h)
	return nil
}

func opRead(ctx *Context) *PSError {
	_, h, err := ctx.peekFile(0)
	if err != nil {
		return err
	}
	if h.R == nil || !h.Open {
		return fail(object.ErrIOError)
	}
	var b [1]byte
	n, _ := io.ReadFull(h.R, b[:])
	ctx.Op.Pop()
	if n == 0 {
		return ctx.pushAll(object.MakeBool(false))
	}
	return ctx.pushAll(object.MakeInt(int64(b[0])), object.MakeBool(true))
}

func opWrite(ctx *Context) *PSError {
	v, err := ctx.peekInt(0)
	if err != nil {
		return err
	}
	_, h, err2 := ctx.peekFile(1)
	if err2 != nil {
		return err2
	}
	if h.W == nil || !h.Open {
		return fail(object.ErrIOError)
	}
	if v < 0 || v > 255 {
		return fail(object.ErrRangeCheck)
	}
	if _, e := h.W.Write([]byte{byte(v)}); e != nil {
		return fail(object.ErrIOError)
	}
	ctx.Op.PopN(2)
	return nil
}

func opReadString(ctx *Context) *PSError {
	dst, err := ctx.peekType(0, object.String)
	if err != nil {
		return err
	}
	_, h, err2 := ctx.peekFile(1)
	if err2 != nil {
		return err2
	}
	if h.R == nil || !h.Open || dst.Access < object.Unlimited {
		return fail(object.ErrInvalidAccess)
	}
	buf := make([]byte, dst.Length)
	n, _ := io.ReadFull(h.R, buf)
	if e := ctx.VM.StringWriteBytes(dst, buf[:n]); e != nil {
		return wrapErr(e, dst)
	}
	ctx.Op.PopN(2)
	sub, _ := object.StringInterval(dst, 0, n)
	return ctx.pushAll(sub, object.MakeBool(n == dst.Length))
}

func opReadLine(ctx *Context) *PSError {
	dst, err := ctx.peekType(0, object.String)
	if err != nil {
		return err
	}
	_, h, err2 := ctx.peekFile(1)
	if err2 != nil {
		return err2
	}
	if h.R == nil || !h.Open || dst.Access < object.Unlimited {
		return fail(object.ErrInvalidAccess)
	}
	var line []byte
	var b [1]byte
	got := false
	for {
		n, _ := h.R.Read(b[:])
		if n == 0 {
			break
		}
		got = true
		if b[0] == '\n' {
			break
		}
		if b[0] == '\r' {
			break
		}
		line = append(line, b[0])
		if len(line) > dst.Length {
			return fail(object.ErrRangeCheck)
		}
	}
	if e := ctx.VM.StringWriteBytes(dst, line); e != nil {
		return wrapErr(e, dst)
	}
	ctx.Op.PopN(2)
	sub, _ := object.StringInterval(dst, 0, len(line))
	return ctx.pushAll(sub, object.MakeBool(got))
}

func opReadHexString(ctx *Context) *PSError {
	dst, err := ctx.peekType(0, object.String)
	if err != nil {
		return err
	}
	_, h, err2 := ctx.peekFile(1)
	if err2 != nil {
		return err2
	}
	if h.R == nil || !h.Open || dst.Access < object.Unlimited {
		return fail(object.ErrInvalidAccess)
	}
	out := make([]byte, 0, dst.Length)
	var hi byte
	haveHi := false
	var b [1]byte
	for len(out) < dst.Length {
		n, _ := h.R.Read(b[:])
		if n == 0 {
			break
		}
		v, ok := hexNibble(b[0])
		if !ok {
			continue
		}
		if haveHi {
			out = append(out, hi<<4|v)
			haveHi = false
		} else {
			hi = v
			haveHi = true
		}
	}
	if e := ctx.VM.StringWriteBytes(dst, out); e != nil {
		return wrapErr(e, dst)
	}
	ctx.Op.PopN(2)
	sub, _ := object.StringInterval(dst, 0, len(out))
	return ctx.pushAll(sub, object.MakeBool(len(out) == dst.Length))
}

func hexNibble(b byte) (byte, bool) {
	switch {
	case b >= '0' && b <= '9':
		return b - '0', true
	case b >= 'a' && b <= 'f':
		return b - 'a' + 10, true
	case b >= 'A' && b <= 'F':
		return b - 'A' + 10, true
	}
	return 0, false
}

func opWriteString(ctx *Context) *PSError {
	s, err := ctx.peekType(0, object.String)
	if err != nil {
		return err
	}
	_, h, err2 := ctx.peekFile(1)
	if err2 != nil {
		return err2
	}
	if h.W == nil || !h.Open || s.Access < object.ReadOnly {
		return fail(object.ErrInvalidAccess)
	}
	if _, e := h.W.Write(ctx.VM.StringBytes(s)); e != nil {
		return fail(object.ErrIOError)
	}
	ctx.Op.PopN(2)
	return nil
}

func opWriteHexString(ctx *Context) *PSError {
	s, err := ctx.peekType(0, object.String)
	if err != nil {
		return err
	}
	_, h, err2 := ctx.peekFile(1)
	if err2 != nil {
		return err2
	}
	if h.W == nil || !h.Open || s.Access < object.ReadOnly {
		return fail(object.ErrInvalidAccess)
	}
	if _, e := fmt.Fprintf(h.W, "%x", ctx.VM.StringBytes(s)); e != nil {
		return fail(object.ErrIOError)
	}
	ctx.Op.PopN(2)
	return nil
}

func opBytesAvailable(ctx *Context) *PSError {
	_, h, err := ctx.peekFile(0)
	if err != nil {
		return err
	}
	ctx.Op.Pop()
	n := int64(-1)
	if h.onDisk != nil {
		if st, e := h.onDisk.Stat(); e == nil {
			if pos, e2 := h.onDisk.Seek(0, io.SeekCurrent); e2 == nil {
				n = st.Size() - pos
			}
		}
	}
	return ctx.pushAll(object.MakeInt(n))
}

func opFlush(ctx *Context) *PSError {
	if f, ok := ctx.Stdout().(interface{ Flush() error }); ok {
		f.Flush()
	}
	return nil
}

func opFlushFile(ctx *Context) *PSError {
	_, h, err := ctx.peekFile(0)
	if err != nil {
		return err
	}
	ctx.Op.Pop()
	if h.R != nil {
		io.Copy(io.Discard, h.R)
	}
	if f, ok := h.W.(interface{ Flush() error }); ok {
		f.Flush()
	}
	return nil
}

func opResetFile(ctx *Context) *PSError {
	_, h, err := ctx.peekFile(0)
	if err != nil {
		return err
	}
	ctx.Op.Pop()
	if h.onDisk != nil {
		h.onDisk.Seek(0, io.SeekStart)
		h.tok = nil
		h.EOF = false
	}
	return nil
}

func opStatus(ctx *Context) *PSError {
	top, err := ctx.Op.Peek(0)
	if err != nil {
		return fail(object.ErrStackUnderflow)
	}
	switch top.Type {
	case object.File:
		h, ok := ctx.fileHandle(top)
		ctx.Op.Pop()
		return ctx.pushAll(object.MakeBool(ok && h.Open))
	case object.String:
		if top.Access < object.ReadOnly {
			return fail(object.ErrInvalidAccess)
		}
		name := string(ctx.VM.StringBytes(top))
		st, e := os.Stat(name)
		ctx.Op.Pop()
		if e != nil {
			return ctx.pushAll(object.MakeBool(false))
		}
		return ctx.pushAll(
			object.MakeInt(st.Size()/1024+1), // pages
			object.MakeInt(st.Size()),
			object.MakeInt(st.ModTime().Unix()),
			object.MakeInt(st.ModTime().Unix()),
			object.MakeBool(true),
		)
	}
	return fail(object.ErrTypeCheck)
}

// opRun opens a file and schedules it for execution.
func opRun(ctx *Context) *PSError {
	name, err := ctx.peekType(0, object.String)
	if err != nil {
		return err
	}
	if name.Access < object.ReadOnly {
		return fail(object.ErrInvalidAccess)
	}
	nameStr := string(ctx.VM.StringBytes(name))
	fd, e := os.Open(nameStr)
	if e != nil {
		return fail(object.ErrUndefinedFilename)
	}
	ctx.Op.Pop()
	f := ctx.newFile(&FileHandle{Name: nameStr, R: fd, Open: true, onDisk: fd})
	f.Attrib = object.Executable
	return ctx.pushExecutable(f)
}

// opCurrentFile returns the innermost file being executed.
func opCurrentFile(ctx *Context) *PSError {
	items := ctx.Exec.Items()
	for i := len(items) - 1; i >= 0; i-- {
		if items[i].Type == object.File {
			f := items[i]
			f.Attrib = object.Literal
			return ctx.pushAll(f)
		}
	}
	f, _ := ctx.stdFile("%stdin")
	f.Attrib = object.Literal
	return ctx.pushAll(f)
}

func opDeleteFile(ctx *Context) *PSError {
	name, err := ctx.peekType(0, object.String)
	if err != nil {
		return err
	}
	if name.Access < object.ReadOnly {
		return fail(object.ErrInvalidAccess)
	}
	if e := os.Remove(string(ctx.VM.StringBytes(name))); e != nil {
		return fail(object.ErrUndefinedFilename)
	}
	ctx.Op.Pop()
	return nil
}

func opRenameFile(ctx *Context) *PSError {
	newName, err := ctx.peekType(0, object.String)
	if err != nil {
		return err
	}
	oldName, err := ctx.peekType(1, object.String)
	if err != nil {
		return err
	}
	if newName.Access < object.ReadOnly || oldName.Access < object.ReadOnly {
		return fail(object.ErrInvalidAccess)
	}
	if e := os.Rename(string(ctx.VM.StringBytes(oldName)), string(ctx.VM.StringBytes(newName))); e != nil {
		return fail(object.ErrUndefinedFilename)
	}
	ctx.Op.PopN(2)
	return nil
}

func opFileNameForAll(ctx *Context) *PSError {
	scratch, err := ctx.peekType(0, object.String)
	if err != nil {
		return err
	}
	proc, err2 := ctx.Op.Peek(1)
	if err2 != nil {
		return fail(object.ErrStackUnderflow)
	}
	tmpl, err3 := ctx.peekType(2, object.String)
	if err3 != nil {
		return err3
	}
	if !isProc(proc) {
		return fail(object.ErrTypeCheck)
	}
	if tmpl.Access < object.ReadOnly || scratch.Access < object.Unlimited {
		return fail(object.ErrInvalidAccess)
	}
	names, _ := filepath.Glob(string(ctx.VM.StringBytes(tmpl)))
	ctx.Op.PopN(3)
	return ctx.pushExecutable(loopMarker(&loopState{
		kind:    loopFileNameForAll,
		proc:    proc,
		names:   names,
		scratch: scratch,
	}))
}

func opFilePosition(ctx *Context) *PSError {
	_, h, err := ctx.peekFile(0)
	if err != nil {
		return err
	}
	if h.onDisk == nil {
		return fail(object.ErrIOError)
	}
	pos, e := h.onDisk.Seek(0, io.SeekCurrent)
	if e != nil {
		return fail(object.ErrIOError)
	}
	ctx.Op.Pop()
	return ctx.pushAll(object.MakeInt(pos))
}

func opSetFilePosition(ctx *Context) *PSError {
	pos, err := ctx.peekInt(0)
	if err != nil {
		return err
	}
	_, h, err2 := ctx.peekFile(1)
	if err2 != nil {
		return err2
	}
	if h.onDisk == nil {
		return fail(object.ErrIOError)
	}
	if _, e := h.onDisk.Seek(pos, io.SeekStart); e != nil {
		return fail(object.ErrIOError)
	}
	h.tok = nil
	ctx.Op.PopN(2)
	return nil
}

func opPrint(ctx *Context) *PSError {
	s, err := ctx.peekType(0, object.String)
	if err != nil {
		return err
	}
	if s.Access < object.ReadOnly {
		return fail(object.ErrInvalidAccess)
	}
	ctx.Stdout().Write(ctx.VM.StringBytes(s))
	ctx.Op.Pop()
	return nil
}

func opEquals(ctx *Context) *PSError {
	o, err := ctx.Op.Peek(0)
	if err != nil {
		return fail(object.ErrStackUnderflow)
	}
	ctx.Op.Pop()
	fmt.Fprintln(ctx.Stdout(), ctx.cvsText(o))
	return nil
}

func opEqualsEquals(ctx *Context) *PSError {
	o, err := ctx.Op.Peek(0)
	if err != nil {
		return fail(object.ErrStackUnderflow)
	}
	ctx.Op.Pop()
	fmt.Fprintln(ctx.Stdout(), ctx.formatDeep(o, 0))
	return nil
}

func opStack(ctx *Context) *PSError {
	items := ctx.Op.Items()
	for i := len(items) - 1; i >= 0; i-- {
		fmt.Fprintln(ctx.Stdout(), ctx.cvsText(items[i]))
	}
	return nil
}

func opPstack(ctx *Context) *PSError {
	items := ctx.Op.Items()
	for i := len(items) - 1; i >= 0; i-- {
		fmt.Fprintln(ctx.Stdout(), ctx.formatDeep(items[i], 0))
	}
	return nil
}

func opEcho(ctx *Context) *PSError {
	_, err := ctx.peekType(0, object.Bool)
	if err != nil {
		return err
	}
	ctx.Op.Pop()
	return nil
}

// formatDeep renders an object the way == does, expanding composites.
func (ctx *Context) formatDeep(o object.Object, depth int) string {
	if depth > 8 {
		return "..."
	}
	switch o.Type {
	case object.String:
		if o.Access < object.ReadOnly {
			return "-string-"
		}
		var sb strings.Builder
		sb.WriteByte('(')
		for _, b := range ctx.VM.StringBytes(o) {
			switch b {
			case '(', ')', '\\':
				sb.WriteByte('\\')
				sb.WriteByte(b)
			case '\n':
				sb.WriteString("\\n")
			case '\r':
				sb.WriteString("\\r")
			case '\t':
				sb.WriteString("\\t")
			default:
				if b < 32 || b > 126 {
					fmt.Fprintf(&sb, "\\%03o", b)
				} else {
					sb.WriteByte(b)
				}
			}
		}
		sb.WriteByte(')')
		return sb.String()
	case object.Array, object.PackedArray:
		if o.Access < object.ReadOnly {
			return "-array-"
		}
		lb, rb := "[", "]"
		if o.Attrib == object.Executable {
			lb, rb = "{", "}"
		}
		parts := make([]string, 0, o.Length)
		for _, e := range ctx.VM.ArraySlice(o) {
			parts = append(parts, ctx.formatDeep(e, depth+1))
		}
		return lb + strings.Join(parts, " ") + rb
	default:
		return o.Format()
	}
}
