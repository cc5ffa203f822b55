package interp

import (
	"fmt"
	"io"

	"github.com/postforge/postforge/object"
)

// jobRecord tracks one active job: the save bracketing it (Null when
// unencapsulated) and the save nesting level at job entry.
type jobRecord struct {
	save  object.Object
	level int
}

func registerJobOps(def defFunc) {
	def("startjob", opStartJob)
	def("exitserver", opExitServer)
}

// beginEncapsulatedJob takes the job save and pushes the record.
func (ctx *Context) beginEncapsulatedJob() {
	sv := ctx.VM.Save()
	gs := ctx.GS.Clone()
	gs.FromSave = true
	ctx.GStack = append(ctx.GStack, gs)
	ctx.jobRecords = append(ctx.jobRecords, jobRecord{save: sv, level: ctx.VM.SaveLevel()})
}

// endJob rolls back the job's VM save if it is still active.
func (ctx *Context) endJob() {
	if len(ctx.jobRecords) == 0 {
		return
	}
	rec := ctx.jobRecords[len(ctx.jobRecords)-1]
	ctx.jobRecords = ctx.jobRecords[:len(ctx.jobRecords)-1]
	if rec.save.Type == object.Save {
		if sr, ok := rec.save.Val.(*object.SaveRecord); ok && sr.Active() {
			ctx.restoreToSave(rec.save)
		}
	}
}

// restoreToSave is the restore path shared by endJob and startjob: VM
// rollback plus graphics-state pop, without operand-stack scanning.
func (ctx *Context) restoreToSave(sv object.Object) {
	if err := ctx.VM.Restore(sv); err != nil {
		ctx.logger.Debug("job restore failed", "error", err)
		return
	}
	for i := len(ctx.GStack) - 1; i >= 0; i-- {
		st := ctx.GStack[i]
		ctx.GStack = ctx.GStack[:i]
		if st.FromSave {
			st.FromSave = false
			ctx.GS = st
			break
		}
	}
}

// ExecJob runs one top-level input source as an encapsulated job:
// save, execute, restore. The returned error reports an unhandled
// PostScript error that terminated the job.
func (ctx *Context) ExecJob(r io.Reader, name string) error {
	ctx.logger.Debug("job start", "name", name)
	ctx.beginEncapsulatedJob()

	f := ctx.newFile(&FileHandle{Name: name, R: r, Open: true})
	f.Attrib = object.Executable

	ctx.jobAborted = false
	ctx.Exec.Push(hardReturnMarker())
	ctx.Exec.Push(f)
	ctx.runUntil(0)

	var jobErr error
	if ctx.jobAborted {
		errName, _ := ctx.VM.DictGetName(ctx.DollarErr, "errorname")
		cmd, _ := ctx.VM.DictGetName(ctx.DollarErr, "command")
		jobErr = fmt.Errorf("job %s: %s in %s", name, errName.NameVal, cmd.Format())
		opHandleError(ctx)
	}

	ctx.Op.Clear()
	ctx.resetDictStack()
	ctx.endJob()
	ctx.jobAborted = false
	ctx.logger.Debug("job end", "name", name, "error", jobErr)
	return jobErr
}

// opStartJob implements the job-server escape. It succeeds only when
// the context supports encapsulation, the password matches, and the
// save nesting is back at the job-entry level.
func opStartJob(ctx *Context) *PSError {
	pw, err := ctx.peekType(0, object.String)
	if err != nil {
		return err
	}
	unencapsulated, err2 := ctx.peekType(1, object.Bool)
	if err2 != nil {
		return err2
	}
	if pw.Access < object.ReadOnly {
		return fail(object.ErrInvalidAccess)
	}
	password := string(ctx.VM.StringBytes(pw))
	ctx.Op.PopN(2)

	if !ctx.startJobAllowed(password) {
		return ctx.pushAll(object.MakeBool(false))
	}

	// End the current job.
	cur := ctx.jobRecords[len(ctx.jobRecords)-1]
	ctx.jobRecords = ctx.jobRecords[:len(ctx.jobRecords)-1]
	ctx.Op.Clear()
	ctx.resetDictStack()
	if cur.save.Type == object.Save {
		if sr, ok := cur.save.Val.(*object.SaveRecord); ok && sr.Active() {
			ctx.restoreToSave(cur.save)
		}
	}

	// Begin the next one.
	if unencapsulated.BoolVal {
		ctx.jobRecords = append(ctx.jobRecords, jobRecord{
			save:  object.MakeNull(),
			level: ctx.VM.SaveLevel(),
		})
	} else {
		ctx.beginEncapsulatedJob()
	}
	return ctx.pushAll(object.MakeBool(true))
}

func (ctx *Context) startJobAllowed(password string) bool {
	if len(ctx.jobRecords) == 0 {
		return false
	}
	if password != ctx.startJobPassword {
		return false
	}
	return ctx.VM.SaveLevel() == ctx.jobRecords[len(ctx.jobRecords)-1].level
}

// opExitServer is the Level 1 escape: true password startjob, plus the
// console notice and serverdict removal.
func opExitServer(ctx *Context) *PSError {
	pw, err := ctx.peekType(0, object.String)
	if err != nil {
		return err
	}
	if pw.Access < object.ReadOnly {
		return fail(object.ErrInvalidAccess)
	}
	password := string(ctx.VM.StringBytes(pw))
	if !ctx.startJobAllowed(password) {
		return fail(object.ErrInvalidAccess)
	}
	ctx.Op.Pop()

	cur := ctx.jobRecords[len(ctx.jobRecords)-1]
	ctx.jobRecords = ctx.jobRecords[:len(ctx.jobRecords)-1]
	ctx.Op.Clear()
	ctx.resetDictStack()
	if cur.save.Type == object.Save {
		if sr, ok := cur.save.Val.(*object.SaveRecord); ok && sr.Active() {
			ctx.restoreToSave(cur.save)
		}
	}
	ctx.jobRecords = append(ctx.jobRecords, jobRecord{
		save:  object.MakeNull(),
		level: ctx.VM.SaveLevel(),
	})

	fmt.Fprintln(ctx.Stdout(), "%%[exitserver: permanent state may be changed]%%")

	// Drop serverdict from the dictionary stack.
	items := ctx.Dicts.Items()
	kept := make([]object.Object, 0, len(items))
	for _, d := range items {
		if d.Type == object.Dict && d.Slot == ctx.ServerDict.Slot {
			continue
		}
		kept = append(kept, d)
	}
	ctx.Dicts.Clear()
	for _, d := range kept {
		ctx.Dicts.Push(d)
	}
	return nil
}
