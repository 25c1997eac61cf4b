package observable

import "reflect"

// Clone returns a structurally independent copy of v.
//
// Maps, slices and arrays are copied element by element and *Map values are
// rebuilt as new records on the same scheduler. Everything else is carried
// over unchanged: funcs, channels and pointers keep their identity, structs
// are copied by value. Shared and cyclic references are preserved in the copy.
func Clone(v any) any {
	return newCopier(false).value(v)
}

// Detach returns a plain, acyclic deep copy of v: *Map values become
// map[string]any and a container reached again while it is still being
// copied is replaced by nil. The result is safe to encode.
func Detach(v any) any {
	return newCopier(true).value(v)
}

// copier walks a value graph once, remembering what it already copied so
// shared references stay shared and cycles terminate.
type copier struct {
	// flatten turns *Map values into plain map[string]any and cuts cycles
	flatten bool
	seen    map[container]reflect.Value
	records map[*Map]any

	// containers on the current path, used by flatten
	active map[any]bool
}

// container identifies a map or slice by its backing storage.
type container struct {
	ptr uintptr
	len int
	typ reflect.Type
}

func newCopier(flatten bool) *copier {
	return &copier{
		flatten: flatten,
		seen:    make(map[container]reflect.Value),
		records: make(map[*Map]any),
		active:  make(map[any]bool),
	}
}

func (c *copier) value(v any) any {
	switch x := v.(type) {
	case nil:
		return nil
	case *Map:
		if x == nil {
			return v
		}
		return c.record(x)
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Map, reflect.Slice, reflect.Array:
		return c.reflect(rv).Interface()
	}
	return v
}

func (c *copier) record(m *Map) any {
	if c.active[m] {
		return nil
	}
	if out, ok := c.records[m]; ok {
		return out
	}

	data := m.entries()
	if c.flatten {
		c.active[m] = true
		defer delete(c.active, m)

		out := make(map[string]any, len(data))
		c.records[m] = out
		for k, v := range data {
			out[k] = c.value(v)
		}
		return out
	}

	out := NewMap(nil, m.Scheduler())
	c.records[m] = out
	copied := make(map[string]any, len(data))
	for k, v := range data {
		copied[k] = c.value(v)
	}
	out.load(copied)
	return out
}

func (c *copier) reflect(rv reflect.Value) reflect.Value {
	switch rv.Kind() {
	case reflect.Map, reflect.Slice:
		if rv.IsNil() {
			return rv
		}
		key := container{ptr: rv.Pointer(), typ: rv.Type()}
		if rv.Kind() == reflect.Slice {
			key.len = rv.Len()
		}
		if c.active[key] {
			return reflect.Zero(rv.Type())
		}
		if out, ok := c.seen[key]; ok {
			return out
		}
		if c.flatten {
			c.active[key] = true
			defer delete(c.active, key)
		}

		if rv.Kind() == reflect.Map {
			out := reflect.MakeMapWithSize(rv.Type(), rv.Len())
			c.seen[key] = out
			iter := rv.MapRange()
			for iter.Next() {
				out.SetMapIndex(iter.Key(), c.elem(iter.Value()))
			}
			return out
		}

		out := reflect.MakeSlice(rv.Type(), rv.Len(), rv.Len())
		c.seen[key] = out
		for i := range rv.Len() {
			out.Index(i).Set(c.elem(rv.Index(i)))
		}
		return out
	case reflect.Array:
		out := reflect.New(rv.Type()).Elem()
		for i := range rv.Len() {
			out.Index(i).Set(c.elem(rv.Index(i)))
		}
		return out
	}
	return rv
}

// elem copies one container element and keeps it assignable to the
// container's element type.
func (c *copier) elem(v reflect.Value) reflect.Value {
	switch v.Kind() {
	case reflect.Map, reflect.Slice, reflect.Array:
		return c.reflect(v)
	case reflect.Interface:
		if v.IsNil() {
			return v
		}
		out := c.value(v.Interface())
		if out == nil {
			return reflect.Zero(v.Type())
		}
		rv := reflect.ValueOf(out)
		if !rv.Type().AssignableTo(v.Type()) {
			return v
		}
		return rv
	}
	return v
}
