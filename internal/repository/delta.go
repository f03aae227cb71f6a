// Package repository defines the storage-facing contracts shared by the
// service layer and the store implementations.
//
// Mutations are expressed as named delta operations instead of ad-hoc
// per-field update fragments, so concurrent non-conflicting edits commute
// at the store and invariant checks live in the services, not in the
// endpoints.
package repository

import "errors"

// ErrNotFound is returned by stores when a referenced id does not resolve.
var ErrNotFound = errors.New("record not found")

// Op names a delta operation kind.
type Op string

const (
	// OpAddToSet unions values into a set field.
	OpAddToSet Op = "add_to_set"
	// OpRemoveMatching pulls matching elements from a set field.
	OpRemoveMatching Op = "remove_matching"
	// OpReplaceScalar overwrites a scalar field.
	OpReplaceScalar Op = "replace_scalar"
)

// Delta is a single field-level mutation. Stores translate deltas into
// their native atomic update primitives ($addToSet/$pull/$set for Mongo).
type Delta struct {
	Op    Op
	Field string

	// Values holds the elements for OpAddToSet and the match values for
	// OpRemoveMatching.
	Values []interface{}

	// Key, when set on OpRemoveMatching, matches embedded documents by
	// that sub-field instead of whole-element equality (e.g. pulling
	// socials by platform name).
	Key string

	// Value holds the replacement for OpReplaceScalar.
	Value interface{}
}

// AddToSet unions values into the named set field.
func AddToSet(field string, values ...interface{}) Delta {
	return Delta{Op: OpAddToSet, Field: field, Values: values}
}

// RemoveMatching pulls elements equal to any of values from the named set
// field.
func RemoveMatching(field string, values ...interface{}) Delta {
	return Delta{Op: OpRemoveMatching, Field: field, Values: values}
}

// RemoveByKey pulls embedded documents whose key sub-field equals any of
// values.
func RemoveByKey(field, key string, values ...interface{}) Delta {
	return Delta{Op: OpRemoveMatching, Field: field, Key: key, Values: values}
}

// ReplaceScalar overwrites the named scalar field.
func ReplaceScalar(field string, value interface{}) Delta {
	return Delta{Op: OpReplaceScalar, Field: field, Value: value}
}
