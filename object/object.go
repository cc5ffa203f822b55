// Package object implements the PostScript object model: tagged values,
// composite containers with shared backing store, bounded stacks, and the
// save/restore virtual memory.
package object

import (
	"fmt"
	"math"
)

// Type is the discriminant of a PostScript object.
type Type uint8

const (
	Null Type = iota
	Int
	Real
	Bool
	Mark
	Name
	Operator
	String
	Array
	PackedArray
	Dict
	File
	Save
	FontID
	GState

	// Internal control markers that live only on the execution stack.
	StoppedMark
	LoopMark
	HardReturnMark
)

var typeNames = map[Type]string{
	Null:           "nulltype",
	Int:            "integertype",
	Real:           "realtype",
	Bool:           "booleantype",
	Mark:           "marktype",
	Name:           "nametype",
	Operator:       "operatortype",
	String:         "stringtype",
	Array:          "arraytype",
	PackedArray:    "packedarraytype",
	Dict:           "dicttype",
	File:           "filetype",
	Save:           "savetype",
	FontID:         "fonttype",
	GState:         "gstatetype",
	StoppedMark:    "marktype",
	LoopMark:       "marktype",
	HardReturnMark: "marktype",
}

// TypeName returns the PostScript name reported by the type operator.
func (t Type) TypeName() string {
	return typeNames[t]
}

// Attrib distinguishes literal from executable objects.
type Attrib uint8

const (
	Literal Attrib = iota
	Executable
)

// Access is the permission mask on an object. The values are ordered so
// that a required minimum can be compared numerically.
type Access uint8

const (
	AccessNone  Access = 0
	ExecuteOnly Access = 1
	ReadOnly    Access = 2
	Unlimited   Access = 4
)

// Object is a single PostScript value. Scalars carry their payload inline;
// composites reference a VM arena slot plus a (Start, Length) view.
type Object struct {
	Type   Type
	Attrib Attrib
	Access Access
	Global bool

	IntVal  int64
	RealVal float64
	BoolVal bool
	// NameVal holds the name for Name objects and the registered
	// PostScript name for Operator objects (error identity).
	NameVal string

	// Slot indexes the VM arena for composite objects and identifies
	// save records for Save objects.
	Slot   int
	Start  int
	Length int

	// Val carries out-of-band payloads: the callable for Operator,
	// the file registry key for File, loop state for LoopMark, and the
	// snapshot for StoppedMark/HardReturnMark bookkeeping.
	Val any
}

// IsComposite reports whether the object has separately managed backing
// store that participates in save/restore.
func (o Object) IsComposite() bool {
	switch o.Type {
	case String, Array, PackedArray, Dict:
		return true
	}
	return false
}

// Executable reports whether the execution engine should execute rather
// than push the object.
func (o Object) Executable() bool {
	return o.Attrib == Executable
}

// CheckAccess reports whether the object grants at least the given access.
// Scalars are always unrestricted.
func (o Object) CheckAccess(min Access) bool {
	if !o.IsComposite() && o.Type != File {
		return true
	}
	return o.Access >= min
}

// Number returns the numeric payload of an Int or Real object.
func (o Object) Number() float64 {
	if o.Type == Int {
		return float64(o.IntVal)
	}
	return o.RealVal
}

// IsNumber reports whether the object is Int or Real.
func (o Object) IsNumber() bool {
	return o.Type == Int || o.Type == Real
}

// MakeInt returns a literal integer object.
func MakeInt(v int64) Object {
	return Object{Type: Int, Access: Unlimited, IntVal: v}
}

// MakeReal returns a literal real object.
func MakeReal(v float64) Object {
	return Object{Type: Real, Access: Unlimited, RealVal: v}
}

// MakeBool returns a literal boolean object.
func MakeBool(v bool) Object {
	return Object{Type: Bool, Access: Unlimited, BoolVal: v}
}

// MakeNull returns the literal null object.
func MakeNull() Object {
	return Object{Type: Null, Access: Unlimited}
}

// MakeMark returns a mark object.
func MakeMark() Object {
	return Object{Type: Mark, Access: Unlimited}
}

// MakeName returns a name object. Executable names trigger dictionary
// lookup when executed.
func MakeName(name string, attrib Attrib) Object {
	return Object{Type: Name, Attrib: attrib, Access: Unlimited, NameVal: name}
}

// MakeOperator wraps a callable. The payload is immutable and is never
// copied on dictionary lookup.
func MakeOperator(name string, fn any) Object {
	return Object{Type: Operator, Attrib: Executable, Access: Unlimited, NameVal: name, Val: fn}
}

// Equals implements the eq operator's notion of equality: numbers compare
// by value across Int/Real, strings and names compare by bytes (requiring
// read access on strings), composites compare by identity of their backing.
func Equals(vm *VM, a, b Object) bool {
	if a.IsNumber() && b.IsNumber() {
		return a.Number() == b.Number()
	}
	if (a.Type == Name || a.Type == String) && (b.Type == Name || b.Type == String) {
		as, aok := byteKey(vm, a)
		bs, bok := byteKey(vm, b)
		return aok && bok && as == bs
	}
	if a.Type != b.Type {
		return false
	}
	switch a.Type {
	case Bool:
		return a.BoolVal == b.BoolVal
	case Null, Mark:
		return true
	case Operator:
		return a.NameVal == b.NameVal
	case Array, PackedArray, Dict:
		return a.Slot == b.Slot && a.Start == b.Start && a.Length == b.Length
	case Save:
		return a.Slot == b.Slot
	case File, FontID, GState:
		return a.Val == b.Val && a.Slot == b.Slot
	}
	return false
}

func byteKey(vm *VM, o Object) (string, bool) {
	switch o.Type {
	case Name:
		return o.NameVal, true
	case String:
		if o.Access < ReadOnly {
			return "", false
		}
		return string(vm.StringBytes(o)), true
	}
	return "", false
}

// Format renders an object the way the = operator does. Composite contents
// are not expanded; that is the error-report and diagnostic form.
func (o Object) Format() string {
	switch o.Type {
	case Int:
		return fmt.Sprintf("%d", o.IntVal)
	case Real:
		return formatReal(o.RealVal)
	case Bool:
		if o.BoolVal {
			return "true"
		}
		return "false"
	case Null:
		return "null"
	case Mark:
		return "-mark-"
	case Name:
		if o.Attrib == Literal {
			return "/" + o.NameVal
		}
		return o.NameVal
	case Operator:
		return "--" + o.NameVal + "--"
	case String:
		return "-string-"
	case Array, PackedArray:
		return "-array-"
	case Dict:
		return "-dict-"
	case File:
		return "-file-"
	case Save:
		return "-save-"
	case FontID:
		return "-fontid-"
	case GState:
		return "-gstate-"
	}
	return "-mark-"
}

func formatReal(f float64) string {
	if f == math.Trunc(f) && math.Abs(f) < 1e16 {
		return fmt.Sprintf("%.1f", f)
	}
	return fmt.Sprintf("%g", f)
}
