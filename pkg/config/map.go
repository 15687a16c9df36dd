// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package config

import (
	"fmt"
	"strings"
)

// Map is an ordinary map[string]any but implements both the [Source]
// and [Store] interfaces. Nested maps represent nested keys.
type Map map[string]any

// Apply implements the [Source] interface. It recursively walks the underlying
// map to find key value pairs to set on the given store.
func (m Map) Apply(store Store) error {
	return walkMap(m, store, "")
}

func walkMap(m map[string]any, store Store, prefix string) error {
	for k, v := range m {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}

		switch x := v.(type) {
		case map[string]any:
			err := walkMap(x, store, key)
			if err != nil {
				return err
			}
		case Map:
			err := walkMap(x, store, key)
			if err != nil {
				return err
			}
		default:
			err := store.Set(key, x)
			if err != nil {
				return err
			}
		}
	}
	return nil
}

// EmptyKeyError occurs when a value is set with an empty key or key segment.
type EmptyKeyError struct {
	Key string
}

// Error implements the [builtin.error] interface.
func (e EmptyKeyError) Error() string {
	return fmt.Sprintf("config key contains an empty segment: %q", e.Key)
}

// UnexpectedKeyValueTypeError represents the situation when
// a user tries setting a key to a different type than it
// had previously been set to.
type UnexpectedKeyValueTypeError struct {
	Key          string
	ExpectedType string
}

// Error implements the [builtin.error] interface.
func (e UnexpectedKeyValueTypeError) Error() string {
	return fmt.Sprintf("expected key value to be a %s: %s", e.ExpectedType, e.Key)
}

// Set implements the [Store] interface. Key segments are matched
// case-insensitively against existing keys so sources which lower
// case their keys still override camel cased ones.
func (m Map) Set(key string, value any) error {
	segments := strings.Split(key, ".")
	for _, seg := range segments {
		if seg == "" {
			return EmptyKeyError{Key: key}
		}
	}

	cur := m
	for i, seg := range segments[:len(segments)-1] {
		name := cur.lookup(seg)
		next, ok := cur[name]
		if !ok {
			sub := make(map[string]any)
			cur[name] = sub
			cur = Map(sub)
			continue
		}

		switch x := next.(type) {
		case Map:
			cur = x
		case map[string]any:
			cur = Map(x)
		default:
			return UnexpectedKeyValueTypeError{
				Key:          strings.Join(segments[:i+1], "."),
				ExpectedType: "map[string]any",
			}
		}
	}

	last := segments[len(segments)-1]
	cur[cur.lookup(last)] = value
	return nil
}

func (m Map) lookup(seg string) string {
	if _, ok := m[seg]; ok {
		return seg
	}
	for k := range m {
		if strings.EqualFold(k, seg) {
			return k
		}
	}
	return seg
}
