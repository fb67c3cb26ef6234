package plan

import "github.com/lykia-rs/lykiadb/value"

// Row is the execution row: a transient mapping from field name to value,
// active while row-level expressions are evaluated inside a query plan.
// Besides named fields it carries the pre-computed values of lifted
// aggregates and attached subqueries, keyed by structural signature.
type Row struct {
	fields map[string]value.Value
	order  []string
	sigs   map[uint64]value.Value
}

// NewRow creates an empty row.
func NewRow() *Row {
	return &Row{
		fields: map[string]value.Value{},
		sigs:   map[uint64]value.Value{},
	}
}

// Clone copies the row; fields and signatures are copied shallowly.
func (r *Row) Clone() *Row {
	out := NewRow()
	out.order = append(out.order, r.order...)
	for k, v := range r.fields {
		out.fields[k] = v
	}
	for k, v := range r.sigs {
		out.sigs[k] = v
	}
	return out
}

// Bind makes a name addressable without adding it to the row's output,
// used for source aliases.
func (r *Row) Bind(name string, v value.Value) {
	r.fields[name] = v
}

// SetField makes a name addressable and part of the materialized output.
func (r *Row) SetField(name string, v value.Value) {
	if _, exists := r.fields[name]; !exists {
		r.order = append(r.order, name)
	} else if !r.contains(name) {
		r.order = append(r.order, name)
	}
	r.fields[name] = v
}

func (r *Row) contains(name string) bool {
	for _, existing := range r.order {
		if existing == name {
			return true
		}
	}
	return false
}

// Get reads an addressable name.
func (r *Row) Get(name string) (value.Value, bool) {
	v, ok := r.fields[name]
	return v, ok
}

// Has reports whether a name is addressable.
func (r *Row) Has(name string) bool {
	_, ok := r.fields[name]
	return ok
}

// FieldNames returns the output field names in insertion order.
func (r *Row) FieldNames() []string {
	return r.order
}

// SetSig binds a pre-computed value under a structural signature.
func (r *Row) SetSig(sig uint64, v value.Value) {
	r.sigs[sig] = v
}

// Sig reads a pre-computed value by structural signature.
func (r *Row) Sig(sig uint64) (value.Value, bool) {
	v, ok := r.sigs[sig]
	return v, ok
}

// BindSource binds a document under its source alias and spreads its
// fields into the output namespace.
func (r *Row) BindSource(alias string, doc *value.Object) {
	r.Bind(alias, doc)
	for _, key := range doc.Keys() {
		v, _ := doc.Get(key)
		r.SetField(key, v)
	}
}

// AsObject materializes the output fields into an object value.
func (r *Row) AsObject() *value.Object {
	out := value.NewObject()
	for _, name := range r.order {
		out.Set(name, r.fields[name])
	}
	return out
}
