// Package record decodes intake API payloads into JSON-shaped trees and typed
// views over them.
//
// Pages keep records as trees so that unknown server fields survive a round
// trip. The typed views here are read-only projections used for rendering and
// identity checks.
package record

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
)

// ErrMalformed reports a payload that is not a JSON object.
var ErrMalformed = errors.New("malformed record payload")

// Tree is a JSON object decoded into generic maps and lists.
type Tree = map[string]any

// DecodeTree parses a JSON object payload.
func DecodeTree(data []byte) (Tree, error) {
	var node any
	decoder := json.NewDecoder(bytes.NewReader(data))
	if err := decoder.Decode(&node); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	tree, ok := node.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: expected object, got %T", ErrMalformed, node)
	}
	return tree, nil
}

// DecodeList parses a JSON array of objects.
func DecodeList(data []byte) ([]Tree, error) {
	var nodes []any
	if err := json.Unmarshal(data, &nodes); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	out := make([]Tree, 0, len(nodes))
	for i, node := range nodes {
		tree, ok := node.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("%w: element %d is %T", ErrMalformed, i, node)
		}
		out = append(out, tree)
	}
	return out, nil
}

// View decodes a tree into a typed view such as Screening or Participant.
func View[T any](tree any) (T, error) {
	var out T
	data, err := json.Marshal(tree)
	if err != nil {
		return out, fmt.Errorf("encode record: %w", err)
	}
	if err := json.Unmarshal(data, &out); err != nil {
		return out, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return out, nil
}

// ID is a server identifier. The intake API sends ids as strings or numbers;
// both decode to the same text form.
type ID string

// UnmarshalJSON accepts a string, a number or null.
func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("id: %w", err)
	}
	*id = ID(n.String())
	return nil
}

// IDOf extracts the identity of a tree. Empty means unsaved.
func IDOf(tree any) ID {
	m, ok := tree.(map[string]any)
	if !ok {
		return ""
	}
	switch v := m["id"].(type) {
	case string:
		return ID(v)
	case float64:
		return ID(strconv.FormatFloat(v, 'f', -1, 64))
	case json.Number:
		return ID(v.String())
	default:
		return ""
	}
}
