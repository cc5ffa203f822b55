package device

import (
	"github.com/postforge/postforge/graphics"
	"github.com/postforge/postforge/object"
)

// Null discards every page; it backs the nulldevice operator.
type Null struct{}

func (Null) Name() string { return "null" }

func (Null) ShowPage(vm *object.VM, dl *graphics.DisplayList, pageDevice object.Object) error {
	return nil
}

func (Null) Close() error { return nil }
