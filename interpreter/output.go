package interpreter

import "github.com/lykia-rs/lykiadb/value"

// Output is the append-only sequence of host-visible side effects: user
// programs push to it through stdlib functions, and query evaluation
// echoes plan renderings here.
type Output struct {
	values []value.Value
	cap    int
}

// NewOutput creates an unbounded output sink.
func NewOutput() *Output {
	return &Output{}
}

// NewOutputWithCap creates a sink that silently drops past cap values.
// A cap of zero means unbounded.
func NewOutputWithCap(cap int) *Output {
	return &Output{cap: cap}
}

// Push appends values in evaluation order.
func (o *Output) Push(values ...value.Value) {
	for _, v := range values {
		if o.cap > 0 && len(o.values) >= o.cap {
			return
		}
		o.values = append(o.values, v)
	}
}

// Values returns the buffered sequence.
func (o *Output) Values() []value.Value {
	return o.values
}

// Clear drops all buffered values.
func (o *Output) Clear() {
	o.values = nil
}
