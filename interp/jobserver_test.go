package interp

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJobsAreEncapsulated(t *testing.T) {
	f := newFixture()
	require.NoError(t, f.run(t, "/leaky 1 def"))
	err := f.run(t, "leaky")
	require.Error(t, err, "definition from the previous job must be rolled back")
	assert.Contains(t, err.Error(), "undefined")
}

func TestStartJobWrongPassword(t *testing.T) {
	f := newFixture()
	require.NoError(t, f.run(t, "true (wrong) startjob =="))
	assert.Equal(t, "false\n", f.out.String())
}

func TestStartJobWrongSaveLevel(t *testing.T) {
	f := newFixture()
	// An extra save means the nesting is not at the job-entry level.
	require.NoError(t, f.run(t, "save true () startjob == restore"))
	assert.Equal(t, "false\n", f.out.String())
}

func TestStartJobUnencapsulatedPersists(t *testing.T) {
	f := newFixture()
	require.NoError(t, f.run(t, "true () startjob pop /sticky 42 def"))
	require.NoError(t, f.run(t, "sticky =="))
	assert.Equal(t, "42\n", f.out.String())
}

func TestStartJobEncapsulatedRollsBack(t *testing.T) {
	f := newFixture()
	// false: the new job takes its own save, so its defs roll back too.
	require.NoError(t, f.run(t, "false () startjob pop /gone 1 def"))
	err := f.run(t, "gone")
	require.Error(t, err)
}

func TestStartJobClearsStacks(t *testing.T) {
	f := newFixture()
	require.NoError(t, f.run(t, "1 2 3 true () startjob count == =="))
	// count sees only the true pushed by startjob.
	assert.Equal(t, "1\ntrue\n", f.out.String())
}

func TestStartJobPasswordCheck(t *testing.T) {
	f := newFixture()
	f.ctx.SeedStartJobPassword("secret")
	require.NoError(t, f.run(t, "true () startjob =="))
	assert.Equal(t, "false\n", f.out.String())

	f2 := newFixture()
	f2.ctx.SeedStartJobPassword("secret")
	require.NoError(t, f2.run(t, "true (secret) startjob =="))
	assert.Equal(t, "true\n", f2.out.String())
}

func TestExitServer(t *testing.T) {
	f := newFixture()
	require.NoError(t, f.run(t, "serverdict begin () exitserver /perm 9 def"))
	assert.True(t, strings.Contains(f.out.String(),
		"%%[exitserver: permanent state may be changed]%%"))
	require.NoError(t, f.run(t, "perm =="))
	assert.Contains(t, f.out.String(), "9\n")
}

func TestExitServerBadPassword(t *testing.T) {
	f := newFixture()
	f.ctx.SeedStartJobPassword("pw")
	err := f.run(t, "serverdict begin (nope) exitserver")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalidaccess")
}

func TestSetSystemParamsPassword(t *testing.T) {
	f := newFixture()
	// Installing a password requires none to be set yet.
	require.NoError(t, f.run(t,
		"<< /StartJobPassword (pw) >> setsystemparams true (pw) startjob =="))
	assert.Equal(t, "true\n", f.out.String())
}

func TestInterruptIsRecoverable(t *testing.T) {
	out := &bytes.Buffer{}
	var ctx *Context
	ctx = New(Options{
		Stdout: out,
		Stderr: &bytes.Buffer{},
		Pump:   func() { ctx.Interrupt() },
	})
	// The pump injects the interrupt mid-loop; the stopped boundary
	// recovers it and the job continues.
	err := ctx.ExecJob(strings.NewReader("{ { } loop } stopped == (after) print"), "t")
	require.NoError(t, err)
	assert.Equal(t, "true\nafter", out.String())
}
