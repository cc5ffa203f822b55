// Package device is the output abstraction layer. A Device consumes
// finished display lists; it never executes PostScript itself.
package device

import (
	"fmt"
	"sort"

	"github.com/postforge/postforge/graphics"
	"github.com/postforge/postforge/object"
)

// Device receives one display list per showpage/copypage. The page
// device dictionary accompanies every call; recognized keys are listed
// in PageInfo.
type Device interface {
	Name() string
	ShowPage(vm *object.VM, dl *graphics.DisplayList, pageDevice object.Object) error
	Close() error
}

// PageInfo is the decoded view of the recognized page-device keys.
type PageInfo struct {
	Width, Height float64 // PageSize in points
	ResX, ResY    float64 // HWResolution
	NumCopies     int
	PageCount     int
	TextObjs      bool // TextRenderingMode /TextObjs
}

// DecodePage extracts the recognized keys from a page-device dict.
func DecodePage(vm *object.VM, pageDevice object.Object) PageInfo {
	info := PageInfo{Width: 612, Height: 792, ResX: 72, ResY: 72, NumCopies: 1}
	if pageDevice.Type != object.Dict {
		return info
	}
	if v, ok := vm.DictGetName(pageDevice, "PageSize"); ok && v.Type == object.Array && v.Length == 2 {
		s := vm.ArraySlice(v)
		info.Width, info.Height = s[0].Number(), s[1].Number()
	}
	if v, ok := vm.DictGetName(pageDevice, "HWResolution"); ok && v.Type == object.Array && v.Length == 2 {
		s := vm.ArraySlice(v)
		info.ResX, info.ResY = s[0].Number(), s[1].Number()
	}
	if v, ok := vm.DictGetName(pageDevice, "NumCopies"); ok && v.Type == object.Int {
		info.NumCopies = int(v.IntVal)
	}
	if v, ok := vm.DictGetName(pageDevice, "PageCount"); ok && v.Type == object.Int {
		info.PageCount = int(v.IntVal)
	}
	if v, ok := vm.DictGetName(pageDevice, "TextRenderingMode"); ok && v.Type == object.Name {
		info.TextObjs = v.NameVal == "TextObjs"
	}
	return info
}

// Registry resolves /OutputDevice names to devices.
type Registry struct {
	devices map[string]Device
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{devices: map[string]Device{}}
}

// Register installs a device under its name.
func (r *Registry) Register(d Device) {
	r.devices[d.Name()] = d
}

// Lookup resolves a device name.
func (r *Registry) Lookup(name string) (Device, bool) {
	d, ok := r.devices[name]
	return d, ok
}

// Names returns the registered device names, sorted.
func (r *Registry) Names() []string {
	out := make([]string, 0, len(r.devices))
	for name := range r.devices {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// CloseAll closes every registered device, keeping the first error.
func (r *Registry) CloseAll() error {
	var first error
	for _, d := range r.devices {
		if err := d.Close(); err != nil && first == nil {
			first = fmt.Errorf("closing device %s: %w", d.Name(), err)
		}
	}
	return first
}
