package interp

import (
	"time"

	"github.com/postforge/postforge/object"
)

func registerMiscOps(def defFunc) {
	def("usertime", opUserTime)
	def("realtime", opRealTime)
	def("product", opProduct)
	def("revision", opRevision)
	def("serialnumber", opSerialNumber)
	def("executive", opExecutive)
	def("prompt", opPrompt)
	def("handleerror", opHandleError)
}

func opUserTime(ctx *Context) *PSError {
	return ctx.pushAll(object.MakeInt(time.Since(ctx.startTime).Milliseconds()))
}

func opRealTime(ctx *Context) *PSError {
	return ctx.pushAll(object.MakeInt(time.Now().UnixMilli()))
}

func opProduct(ctx *Context) *PSError {
	return ctx.pushAll(ctx.VM.NewStringFrom([]byte("PostForge")))
}

func opRevision(ctx *Context) *PSError {
	return ctx.pushAll(object.MakeInt(1))
}

func opSerialNumber(ctx *Context) *PSError {
	return ctx.pushAll(object.MakeInt(0))
}

// opExecutive executes %stdin as a program. The CLI front end does not
// call it; in interactive mode it runs stdin as a job directly.
func opExecutive(ctx *Context) *PSError {
	f, _ := ctx.stdFile("%stdin")
	return ctx.pushExecutable(f)
}

func opPrompt(ctx *Context) *PSError {
	ctx.Stdout().Write([]byte("PS>"))
	return nil
}
