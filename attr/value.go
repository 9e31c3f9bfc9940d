// Copyright 2026 The Skald Authors
// SPDX-License-Identifier: Apache-2.0

package attr

import (
	"fmt"
	"sort"
	"time"
)

// Type enumerates the closed set of attribute types. A non-deleted
// attribute has exactly one type, fixed until the attribute is deleted.
// TypeUnset is the zero value and means "no type inferred yet"; it never
// describes a stored attribute.
type Type uint8

const (
	TypeUnset Type = iota
	TypeFloat
	TypeInt
	TypeBool
	TypeString
	TypeDatetime
	TypeFloatSeries
	TypeStringSeries
	TypeStringSet

	// TypeFile describes a file-valued attribute created by an upload
	// operation. Upload transfer mechanics live outside this module;
	// the reference store records the file reference like any other
	// leaf value.
	TypeFile
)

// String returns the human-readable type name used in error messages.
func (t Type) String() string {
	switch t {
	case TypeUnset:
		return "unset"
	case TypeFloat:
		return "Float"
	case TypeInt:
		return "Int"
	case TypeBool:
		return "Bool"
	case TypeString:
		return "String"
	case TypeDatetime:
		return "Datetime"
	case TypeFloatSeries:
		return "Float Series"
	case TypeStringSeries:
		return "String Series"
	case TypeStringSet:
		return "String Set"
	case TypeFile:
		return "File"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(t))
	}
}

// Value is the typed-value union. Exactly one concrete type exists per
// attribute [Type].
type Value interface {
	Type() Type
}

// Float is a scalar float attribute value.
type Float struct {
	Value float64
}

func (Float) Type() Type { return TypeFloat }

// Int is a scalar integer attribute value.
type Int struct {
	Value int64
}

func (Int) Type() Type { return TypeInt }

// Bool is a scalar boolean attribute value.
type Bool struct {
	Value bool
}

func (Bool) Type() Type { return TypeBool }

// String is a scalar string attribute value.
type String struct {
	Value string
}

func (String) Type() Type { return TypeString }

// Datetime is a timestamp attribute value.
type Datetime struct {
	Value time.Time
}

func (Datetime) Type() Type { return TypeDatetime }

// SeriesMetadata carries the optional bounds and unit label of a float
// series. It is independent of the series data points: appends and
// clears preserve it, and only a configure operation changes it.
type SeriesMetadata struct {
	Min  *float64
	Max  *float64
	Unit string
}

// FloatSeries is an ordered series of float points plus metadata.
type FloatSeries struct {
	Values   []float64
	Metadata SeriesMetadata
}

func (FloatSeries) Type() Type { return TypeFloatSeries }

// StringSeries is an ordered series of string points.
type StringSeries struct {
	Values []string
}

func (StringSeries) Type() Type { return TypeStringSeries }

// StringSet is an unordered set of strings.
type StringSet struct {
	Values map[string]struct{}
}

func (StringSet) Type() Type { return TypeStringSet }

// NewStringSet builds a StringSet from the given members, dropping
// duplicates.
func NewStringSet(members ...string) StringSet {
	set := StringSet{Values: make(map[string]struct{}, len(members))}
	for _, m := range members {
		set.Values[m] = struct{}{}
	}
	return set
}

// Sorted returns the set members in lexicographic order. Used for
// deterministic serialization and test assertions.
func (s StringSet) Sorted() []string {
	out := make([]string, 0, len(s.Values))
	for m := range s.Values {
		out = append(out, m)
	}
	sort.Strings(out)
	return out
}

// Contains reports set membership.
func (s StringSet) Contains(member string) bool {
	_, ok := s.Values[member]
	return ok
}

// File is a file-valued attribute: a reference to uploaded content.
// The transfer itself is handled by an upload collaborator outside this
// module.
type File struct {
	Name string
	Ext  string
	// LocalPath is the producer-side location of the file content,
	// consumed by the upload collaborator.
	LocalPath string
}

func (File) Type() Type { return TypeFile }
