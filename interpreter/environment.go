package interpreter

import (
	"gopkg.in/src-d/go-errors.v1"

	"github.com/lykia-rs/lykiadb/value"
)

// ErrVariableNotFound is returned for reads and assignments of names that
// no frame binds.
var ErrVariableNotFound = errors.NewKind("variable '%s' was not found")

// EnvironmentFrame is a lexical frame with a parent link. Frames are
// shared: closures capture the frame active at function-literal
// evaluation.
type EnvironmentFrame struct {
	parent   *EnvironmentFrame
	bindings map[Symbol]value.Value
}

// NewEnvironmentFrame creates a frame chained to an optional parent.
func NewEnvironmentFrame(parent *EnvironmentFrame) *EnvironmentFrame {
	return &EnvironmentFrame{
		parent:   parent,
		bindings: map[Symbol]value.Value{},
	}
}

// Define unconditionally binds a name in this frame.
func (f *EnvironmentFrame) Define(sym Symbol, v value.Value) {
	f.bindings[sym] = v
}

func (f *EnvironmentFrame) ancestor(distance int) *EnvironmentFrame {
	frame := f
	for i := 0; i < distance && frame != nil; i++ {
		frame = frame.parent
	}
	return frame
}

// ReadAt walks distance parents and reads there.
func (f *EnvironmentFrame) ReadAt(distance int, name string, sym Symbol) (value.Value, error) {
	frame := f.ancestor(distance)
	if frame != nil {
		if v, ok := frame.bindings[sym]; ok {
			return v, nil
		}
	}
	return nil, ErrVariableNotFound.New(name)
}

// AssignAt walks distance parents and updates there.
func (f *EnvironmentFrame) AssignAt(distance int, name string, sym Symbol, v value.Value) error {
	frame := f.ancestor(distance)
	if frame != nil {
		if _, ok := frame.bindings[sym]; ok {
			frame.bindings[sym] = v
			return nil
		}
	}
	return ErrVariableNotFound.New(name)
}

// Read reads a name in this frame only, used for globals on the root.
func (f *EnvironmentFrame) Read(name string, sym Symbol) (value.Value, error) {
	if v, ok := f.bindings[sym]; ok {
		return v, nil
	}
	return nil, ErrVariableNotFound.New(name)
}

// Assign updates a name in this frame only, used for globals on the root.
func (f *EnvironmentFrame) Assign(name string, sym Symbol, v value.Value) error {
	if _, ok := f.bindings[sym]; ok {
		f.bindings[sym] = v
		return nil
	}
	return ErrVariableNotFound.New(name)
}
