// Package postforge wires the interpreter, device registry, and input
// sources into runnable jobs. The cmd/postforge binary is a thin shell
// over Run.
package postforge

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/postforge/postforge/device"
	"github.com/postforge/postforge/device/dumpdevice"
	"github.com/postforge/postforge/device/pngdevice"
	"github.com/postforge/postforge/interp"
	"github.com/postforge/postforge/object"
)

// Options selects the inputs and the output device for one run.
type Options struct {
	// Files are PostScript programs executed as successive jobs; "-"
	// reads piped stdin.
	Files []string

	// DeviceName picks the /OutputDevice; empty means dump.
	DeviceName string

	// OutDir receives raster output for devices that write files.
	OutDir string

	// Config is an optional YAML page-device defaults file.
	Config string

	// StartJobPassword seeds the system parameter checked by startjob
	// and exitserver.
	StartJobPassword string

	// Interactive runs the executive loop after the files.
	Interactive bool

	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

// Run executes each input as an encapsulated job and closes the
// devices. The first failing job aborts the run.
func Run(options *Options) error {
	registry := device.NewRegistry()
	stdout := options.Stdout
	if stdout == nil {
		stdout = os.Stdout
	}
	registry.Register(dumpdevice.New(stdout))
	registry.Register(device.Null{})
	outDir := options.OutDir
	if outDir == "" {
		outDir = "."
	}
	registry.Register(pngdevice.New(outDir))

	ctx := interp.New(interp.Options{
		Stdin:   options.Stdin,
		Stdout:  options.Stdout,
		Stderr:  options.Stderr,
		Devices: registry,
	})

	if options.StartJobPassword != "" {
		ctx.SeedStartJobPassword(options.StartJobPassword)
	}
	if options.DeviceName != "" {
		if _, ok := registry.Lookup(options.DeviceName); !ok {
			return fmt.Errorf("unknown output device %q (have %v)", options.DeviceName, registry.Names())
		}
		ctx.SetOutputDevice(options.DeviceName)
	}
	if options.Config != "" {
		config, err := device.ParsePageConfig(options.Config)
		if err != nil {
			return err
		}
		applyPageConfig(ctx, config)
	}

	for _, file := range options.Files {
		source, name, err := readInput(file)
		if err != nil {
			return fmt.Errorf("failed to read '%s': %w", file, err)
		}
		if err := ctx.ExecJob(source, name); err != nil {
			return err
		}
	}

	if options.Interactive {
		stdin := options.Stdin
		if stdin == nil {
			stdin = os.Stdin
		}
		if err := ctx.ExecJob(stdin, "%stdin"); err != nil {
			return err
		}
	}

	return registry.CloseAll()
}

// readInput opens a program file, or buffers piped stdin for "-".
func readInput(file string) (io.Reader, string, error) {
	if file == "-" {
		stat, _ := os.Stdin.Stat()
		if (stat.Mode() & os.ModeCharDevice) != 0 {
			return nil, "", fmt.Errorf("stdin is not piped")
		}
		buf, err := io.ReadAll(os.Stdin)
		if err != nil {
			return nil, "", err
		}
		return bytes.NewReader(buf), "%stdin", nil
	}
	f, err := os.Open(file)
	if err != nil {
		return nil, "", err
	}
	return f, file, nil
}

func applyPageConfig(ctx *interp.Context, config device.PageConfig) {
	if config.OutputDevice != "" {
		ctx.SetOutputDevice(config.OutputDevice)
	}
	if len(config.PageSize) == 2 {
		ctx.SetPageDeviceKey("PageSize", pageArray(ctx, config.PageSize))
	}
	if len(config.Resolution) == 2 {
		ctx.SetPageDeviceKey("HWResolution", pageArray(ctx, config.Resolution))
	}
	if config.NumCopies > 0 {
		ctx.SetPageDeviceKey("NumCopies", object.MakeInt(int64(config.NumCopies)))
	}
	if config.TextMode != "" {
		ctx.SetPageDeviceKey("TextRenderingMode", object.MakeName(config.TextMode, object.Literal))
	}
	if config.LineWidthMin > 0 {
		ctx.SetPageDeviceKey("LineWidthMin", object.MakeReal(config.LineWidthMin))
	}
}

func pageArray(ctx *interp.Context, vals []float64) object.Object {
	elems := make([]object.Object, len(vals))
	for i, v := range vals {
		elems[i] = object.MakeReal(v)
	}
	return ctx.VM.NewArrayFrom(elems)
}
