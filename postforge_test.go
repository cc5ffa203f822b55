package postforge

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeProgram(t *testing.T, src string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "prog.ps")
	require.NoError(t, os.WriteFile(path, []byte(src), 0o644))
	return path
}

func TestRunDumpDevice(t *testing.T) {
	var out bytes.Buffer
	path := writeProgram(t, "0 0 moveto 100 100 lineto stroke showpage")
	err := Run(&Options{
		Files:  []string{path},
		Stdout: &out,
		Stderr: &bytes.Buffer{},
	})
	require.NoError(t, err)
	assert.Contains(t, out.String(), "%page 1 612x792")
	assert.Contains(t, out.String(), "moveto 0 0")
	assert.Contains(t, out.String(), "lineto 100 100")
	assert.Contains(t, out.String(), "stroke")
}

func TestRunMultipleJobsAreIsolated(t *testing.T) {
	var out bytes.Buffer
	first := writeProgram(t, "/x 1 def")
	second := writeProgram(t, "x ==")
	err := Run(&Options{
		Files:  []string{first, second},
		Stdout: &out,
		Stderr: &bytes.Buffer{},
	})
	require.Error(t, err, "second job must not see the first job's definitions")
	assert.Contains(t, err.Error(), "undefined")
}

func TestRunUnknownDevice(t *testing.T) {
	path := writeProgram(t, "showpage")
	err := Run(&Options{
		Files:      []string{path},
		DeviceName: "laserjet",
		Stdout:     &bytes.Buffer{},
		Stderr:     &bytes.Buffer{},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown output device")
}

func TestRunPNGDevice(t *testing.T) {
	dir := t.TempDir()
	path := writeProgram(t, "0 0 moveto 50 0 lineto 50 50 lineto closepath fill showpage")
	err := Run(&Options{
		Files:      []string{path},
		DeviceName: "png",
		OutDir:     dir,
		Stdout:     &bytes.Buffer{},
		Stderr:     &bytes.Buffer{},
	})
	require.NoError(t, err)
	if _, statErr := os.Stat(filepath.Join(dir, "page-001.png")); statErr != nil {
		t.Errorf("png page not written: %v", statErr)
	}
}

func TestRunConfigFile(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "pages.yml")
	require.NoError(t, os.WriteFile(configPath, []byte("page_size: [200, 300]\n"), 0o644))
	var out bytes.Buffer
	prog := writeProgram(t, "showpage")
	err := Run(&Options{
		Files:  []string{prog},
		Config: configPath,
		Stdout: &out,
		Stderr: &bytes.Buffer{},
	})
	require.NoError(t, err)
	assert.Contains(t, out.String(), "%page 1 200x300")
}
