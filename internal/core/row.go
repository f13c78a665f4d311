package core

// IDField is the row field that carries the stable row identifier.
const IDField = "id"

// Field is one key/value pair of a row.
type Field struct {
	Key   string
	Value Value
}

// Row is an ordered, immutable set of fields. Methods that change a row
// return a new Row; the receiver is never modified.
type Row struct {
	fields []Field
}

// NewRow builds a row from fields in order. A later duplicate key overwrites
// the earlier one in place.
func NewRow(fields ...Field) Row {
	r := Row{fields: make([]Field, 0, len(fields))}
	for _, f := range fields {
		if i := r.index(f.Key); i >= 0 {
			r.fields[i].Value = f.Value
			continue
		}
		r.fields = append(r.fields, f)
	}
	return r
}

// F is shorthand for building a Field.
func F(key string, v Value) Field {
	return Field{Key: key, Value: v}
}

// ID returns the row identifier as a string. Numeric ids are rendered in
// shortest form so that 7 and "7" identify the same row.
func (r Row) ID() string {
	v, ok := r.Get(IDField)
	if !ok {
		return ""
	}
	return v.String()
}

// Get returns the value stored under key.
func (r Row) Get(key string) (Value, bool) {
	if i := r.index(key); i >= 0 {
		return r.fields[i].Value, true
	}
	return Null, false
}

// Value returns the value stored under key, or Null.
func (r Row) Value(key string) Value {
	v, _ := r.Get(key)
	return v
}

// With returns a copy of r with key set to v. New keys are appended.
func (r Row) With(key string, v Value) Row {
	out := Row{fields: make([]Field, len(r.fields), len(r.fields)+1)}
	copy(out.fields, r.fields)
	if i := out.index(key); i >= 0 {
		out.fields[i].Value = v
		return out
	}
	out.fields = append(out.fields, Field{Key: key, Value: v})
	return out
}

// Fields returns a copy of the row's fields in order.
func (r Row) Fields() []Field {
	out := make([]Field, len(r.fields))
	copy(out, r.fields)
	return out
}

// Len returns the number of fields.
func (r Row) Len() int { return len(r.fields) }

// Equal reports whether both rows hold the same fields in the same order.
func (r Row) Equal(o Row) bool {
	if len(r.fields) != len(o.fields) {
		return false
	}
	for i := range r.fields {
		if r.fields[i].Key != o.fields[i].Key || !r.fields[i].Value.Equal(o.fields[i].Value) {
			return false
		}
	}
	return true
}

// Map converts the row to a plain map for JSON encoding.
func (r Row) Map() map[string]any {
	m := make(map[string]any, len(r.fields))
	for _, f := range r.fields {
		m[f.Key] = f.Value.Any()
	}
	return m
}

func (r Row) index(key string) int {
	for i := range r.fields {
		if r.fields[i].Key == key {
			return i
		}
	}
	return -1
}
