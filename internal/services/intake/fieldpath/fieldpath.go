// Package fieldpath reads and writes values inside JSON-shaped records.
//
// A record is a tree of map[string]any, []any and scalar leaves, the shape
// encoding/json produces when decoding into an any. Writes never mutate their
// input: the nodes along the written path are copied and every other node is
// shared with the previous snapshot.
//
// Missing or nil intermediates are created on write: as a map when the next
// key is a string, as a list when the next key is an int. A list index equal
// to the list length appends. Everything else that does not line up with the
// record's shape (an int key on a map, a string key on a list, any key on a
// scalar, an index past the end) fails with ErrInvalidPath.
package fieldpath

import (
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"
)

// ErrInvalidPath reports a path that does not fit the shape of the record.
var ErrInvalidPath = errors.New("invalid field path")

// Path addresses one node in a record. Elements are string map keys or int
// list indexes.
type Path []any

// P builds a Path from keys.
func P(keys ...any) Path {
	return Path(keys)
}

// Parse converts dotted notation ("addresses.0.city") into a Path. Segments
// made only of digits become list indexes. The empty string is the root path.
func Parse(raw string) (Path, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Path{}, nil
	}
	segments := strings.Split(raw, ".")
	path := make(Path, 0, len(segments))
	for _, segment := range segments {
		if segment == "" {
			return nil, fmt.Errorf("%w: empty segment in %q", ErrInvalidPath, raw)
		}
		if index, err := strconv.Atoi(segment); err == nil && isDigits(segment) {
			path = append(path, index)
			continue
		}
		path = append(path, segment)
	}
	return path, nil
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}

// String renders the path in dotted notation.
func (p Path) String() string {
	parts := make([]string, len(p))
	for i, key := range p {
		parts[i] = fmt.Sprint(key)
	}
	return strings.Join(parts, ".")
}

// HasPrefix reports whether prefix addresses p or one of its ancestors.
func (p Path) HasPrefix(prefix Path) bool {
	if len(prefix) > len(p) {
		return false
	}
	for i, key := range prefix {
		if p[i] != key {
			return false
		}
	}
	return true
}

// Child returns a new path extended with keys. The receiver is not modified.
func (p Path) Child(keys ...any) Path {
	out := make(Path, 0, len(p)+len(keys))
	out = append(out, p...)
	return append(out, keys...)
}

// Get returns the value at path. Missing keys and out-of-range indexes read as
// nil.
func Get(root any, path Path) (any, error) {
	node := root
	for depth, key := range path {
		if node == nil {
			if err := checkKey(path, depth); err != nil {
				return nil, err
			}
			return nil, nil
		}
		switch k := key.(type) {
		case string:
			m, ok := node.(map[string]any)
			if !ok {
				return nil, invalid(path, depth, node)
			}
			node = m[k]
		case int:
			list, ok := node.([]any)
			if !ok || k < 0 {
				return nil, invalid(path, depth, node)
			}
			if k >= len(list) {
				return nil, nil
			}
			node = list[k]
		default:
			return nil, invalid(path, depth, node)
		}
	}
	return node, nil
}

// Set returns a copy of root with value stored at path.
func Set(root any, path Path, value any) (any, error) {
	return set(root, path, 0, value)
}

func set(node any, path Path, depth int, value any) (any, error) {
	if depth == len(path) {
		return value, nil
	}
	switch k := path[depth].(type) {
	case string:
		var current map[string]any
		switch n := node.(type) {
		case nil:
		case map[string]any:
			current = n
		default:
			return nil, invalid(path, depth, node)
		}
		child, err := set(current[k], path, depth+1, value)
		if err != nil {
			return nil, err
		}
		out := make(map[string]any, len(current)+1)
		for key, v := range current {
			out[key] = v
		}
		out[k] = child
		return out, nil
	case int:
		var current []any
		switch n := node.(type) {
		case nil:
		case []any:
			current = n
		default:
			return nil, invalid(path, depth, node)
		}
		if k < 0 || k > len(current) {
			return nil, invalid(path, depth, node)
		}
		var existing any
		if k < len(current) {
			existing = current[k]
		}
		child, err := set(existing, path, depth+1, value)
		if err != nil {
			return nil, err
		}
		out := make([]any, len(current), len(current)+1)
		copy(out, current)
		if k == len(current) {
			return append(out, child), nil
		}
		out[k] = child
		return out, nil
	default:
		return nil, invalid(path, depth, node)
	}
}

// Delete returns a copy of root without the node at path. Map keys are
// removed and list elements are spliced out. Deleting below a missing node is a
// no-op.
func Delete(root any, path Path) (any, error) {
	if len(path) == 0 {
		return nil, fmt.Errorf("%w: cannot delete the root", ErrInvalidPath)
	}
	parentPath := path[:len(path)-1]
	parent, err := Get(root, parentPath)
	if err != nil {
		return nil, err
	}
	if parent == nil {
		return root, nil
	}
	last := len(path) - 1
	var replacement any
	switch k := path[last].(type) {
	case string:
		m, ok := parent.(map[string]any)
		if !ok {
			return nil, invalid(path, last, parent)
		}
		if _, present := m[k]; !present {
			return root, nil
		}
		out := make(map[string]any, len(m))
		for key, v := range m {
			if key != k {
				out[key] = v
			}
		}
		replacement = out
	case int:
		list, ok := parent.([]any)
		if !ok || k < 0 || k >= len(list) {
			return nil, invalid(path, last, parent)
		}
		out := make([]any, 0, len(list)-1)
		out = append(out, list[:k]...)
		out = append(out, list[k+1:]...)
		replacement = out
	default:
		return nil, invalid(path, last, parent)
	}
	return Set(root, parentPath, replacement)
}

// Append returns a copy of root with value added to the end of the list at
// path. A missing list is created.
func Append(root any, path Path, value any) (any, error) {
	node, err := Get(root, path)
	if err != nil {
		return nil, err
	}
	var list []any
	switch n := node.(type) {
	case nil:
	case []any:
		list = n
	default:
		return nil, fmt.Errorf("%w: %s is not a list", ErrInvalidPath, path)
	}
	return Set(root, path.Child(len(list)), value)
}

// Overlay copies the value found at each prefix in src into dst and returns
// the merged record. It is the merge-by-path primitive used when one slice of
// a record is committed while the rest stays as it was.
func Overlay(dst, src any, prefixes ...Path) (any, error) {
	out := dst
	for _, prefix := range prefixes {
		value, err := Get(src, prefix)
		if err != nil {
			return nil, err
		}
		out, err = Set(out, prefix, value)
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}

// Clone returns a deep copy of a record.
func Clone(node any) any {
	switch n := node.(type) {
	case map[string]any:
		out := make(map[string]any, len(n))
		for key, v := range n {
			out[key] = Clone(v)
		}
		return out
	case []any:
		out := make([]any, len(n))
		for i, v := range n {
			out[i] = Clone(v)
		}
		return out
	default:
		return n
	}
}

// Equal reports whether two records hold the same values.
func Equal(a, b any) bool {
	return reflect.DeepEqual(a, b)
}

func checkKey(path Path, depth int) error {
	for _, key := range path[depth:] {
		switch k := key.(type) {
		case string:
		case int:
			if k < 0 {
				return fmt.Errorf("%w: negative index in %s", ErrInvalidPath, path)
			}
		default:
			return fmt.Errorf("%w: unsupported key %T in %s", ErrInvalidPath, key, path)
		}
	}
	return nil
}

func invalid(path Path, depth int, node any) error {
	return fmt.Errorf("%w: %s at %q (found %T)", ErrInvalidPath, path, fmt.Sprint(path[depth]), node)
}
