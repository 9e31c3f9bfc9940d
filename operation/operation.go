// Copyright 2026 The Skald Authors
// SPDX-License-Identifier: Apache-2.0

package operation

import (
	"time"

	"github.com/skald-foundation/skald/attr"
)

// Kind identifies the concrete type of an [Operation]. The numbering
// is part of the journal wire format and must not be reordered.
type Kind uint8

const (
	KindAssignFloat Kind = iota + 1
	KindAssignInt
	KindAssignBool
	KindAssignString
	KindAssignDatetime
	KindUploadFile
	KindLogFloats
	KindLogStrings
	KindClearFloatLog
	KindClearStringLog
	KindConfigFloatSeries
	KindAddStrings
	KindRemoveStrings
	KindClearStringSet
	KindDeleteAttribute
	KindCopyAttribute
)

var kindNames = map[Kind]string{
	KindAssignFloat:       "AssignFloat",
	KindAssignInt:         "AssignInt",
	KindAssignBool:        "AssignBool",
	KindAssignString:      "AssignString",
	KindAssignDatetime:    "AssignDatetime",
	KindUploadFile:        "UploadFile",
	KindLogFloats:         "LogFloats",
	KindLogStrings:        "LogStrings",
	KindClearFloatLog:     "ClearFloatLog",
	KindClearStringLog:    "ClearStringLog",
	KindConfigFloatSeries: "ConfigFloatSeries",
	KindAddStrings:        "AddStrings",
	KindRemoveStrings:     "RemoveStrings",
	KindClearStringSet:    "ClearStringSet",
	KindDeleteAttribute:   "DeleteAttribute",
	KindCopyAttribute:     "CopyAttribute",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "Unknown"
}

// AttributeType returns the attribute type an operation of this kind
// establishes or requires at its target path. Delete carries no type
// requirement and returns [attr.TypeUnset].
func (k Kind) AttributeType() attr.Type {
	switch k {
	case KindAssignFloat:
		return attr.TypeFloat
	case KindAssignInt:
		return attr.TypeInt
	case KindAssignBool:
		return attr.TypeBool
	case KindAssignString:
		return attr.TypeString
	case KindAssignDatetime:
		return attr.TypeDatetime
	case KindUploadFile:
		return attr.TypeFile
	case KindLogFloats, KindClearFloatLog, KindConfigFloatSeries:
		return attr.TypeFloatSeries
	case KindLogStrings, KindClearStringLog:
		return attr.TypeStringSeries
	case KindAddStrings, KindRemoveStrings, KindClearStringSet:
		return attr.TypeStringSet
	default:
		return attr.TypeUnset
	}
}

// Operation is one recorded mutation of one attribute path. Operations
// are immutable once constructed; the accumulator produces new
// operations when it merges.
type Operation interface {
	Path() attr.Path
	Kind() Kind
}

type base struct {
	path attr.Path
}

func (b base) Path() attr.Path { return b.path }

// AssignFloat sets a float attribute, replacing any previous value.
type AssignFloat struct {
	base
	Value float64
}

func NewAssignFloat(path attr.Path, value float64) *AssignFloat {
	return &AssignFloat{base: base{path: path}, Value: value}
}

func (*AssignFloat) Kind() Kind { return KindAssignFloat }

// AssignInt sets an integer attribute.
type AssignInt struct {
	base
	Value int64
}

func NewAssignInt(path attr.Path, value int64) *AssignInt {
	return &AssignInt{base: base{path: path}, Value: value}
}

func (*AssignInt) Kind() Kind { return KindAssignInt }

// AssignBool sets a boolean attribute.
type AssignBool struct {
	base
	Value bool
}

func NewAssignBool(path attr.Path, value bool) *AssignBool {
	return &AssignBool{base: base{path: path}, Value: value}
}

func (*AssignBool) Kind() Kind { return KindAssignBool }

// AssignString sets a string attribute.
type AssignString struct {
	base
	Value string
}

func NewAssignString(path attr.Path, value string) *AssignString {
	return &AssignString{base: base{path: path}, Value: value}
}

func (*AssignString) Kind() Kind { return KindAssignString }

// AssignDatetime sets a datetime attribute.
type AssignDatetime struct {
	base
	Value time.Time
}

func NewAssignDatetime(path attr.Path, value time.Time) *AssignDatetime {
	return &AssignDatetime{base: base{path: path}, Value: value}
}

func (*AssignDatetime) Kind() Kind { return KindAssignDatetime }

// UploadFile records a local file to be transferred to a file
// attribute. The file contents are read at dispatch time, not at
// enqueue time.
type UploadFile struct {
	base
	Name      string
	Ext       string
	LocalPath string
}

func NewUploadFile(path attr.Path, name, ext, localPath string) *UploadFile {
	return &UploadFile{base: base{path: path}, Name: name, Ext: ext, LocalPath: localPath}
}

func (*UploadFile) Kind() Kind { return KindUploadFile }

// FloatPoint is one appended value of a float series. Step is optional;
// when nil the store assigns the next free step.
type FloatPoint struct {
	Value     float64
	Step      *float64
	Timestamp time.Time
}

// StringPoint is one appended value of a string series.
type StringPoint struct {
	Value     string
	Step      *float64
	Timestamp time.Time
}

// LogFloats appends points to a float series.
type LogFloats struct {
	base
	Points []FloatPoint
}

func NewLogFloats(path attr.Path, points []FloatPoint) *LogFloats {
	return &LogFloats{base: base{path: path}, Points: points}
}

func (*LogFloats) Kind() Kind { return KindLogFloats }

// LogStrings appends points to a string series.
type LogStrings struct {
	base
	Points []StringPoint
}

func NewLogStrings(path attr.Path, points []StringPoint) *LogStrings {
	return &LogStrings{base: base{path: path}, Points: points}
}

func (*LogStrings) Kind() Kind { return KindLogStrings }

// ClearFloatLog removes all points of a float series, keeping the
// attribute and its configuration.
type ClearFloatLog struct {
	base
}

func NewClearFloatLog(path attr.Path) *ClearFloatLog {
	return &ClearFloatLog{base: base{path: path}}
}

func (*ClearFloatLog) Kind() Kind { return KindClearFloatLog }

// ClearStringLog removes all points of a string series.
type ClearStringLog struct {
	base
}

func NewClearStringLog(path attr.Path) *ClearStringLog {
	return &ClearStringLog{base: base{path: path}}
}

func (*ClearStringLog) Kind() Kind { return KindClearStringLog }

// ConfigFloatSeries sets display metadata of a float series without
// touching its points.
type ConfigFloatSeries struct {
	base
	Min  *float64
	Max  *float64
	Unit string
}

func NewConfigFloatSeries(path attr.Path, min, max *float64, unit string) *ConfigFloatSeries {
	return &ConfigFloatSeries{base: base{path: path}, Min: min, Max: max, Unit: unit}
}

func (*ConfigFloatSeries) Kind() Kind { return KindConfigFloatSeries }

// AddStrings inserts values into a string set.
type AddStrings struct {
	base
	Values []string
}

func NewAddStrings(path attr.Path, values []string) *AddStrings {
	return &AddStrings{base: base{path: path}, Values: values}
}

func (*AddStrings) Kind() Kind { return KindAddStrings }

// RemoveStrings removes values from a string set.
type RemoveStrings struct {
	base
	Values []string
}

func NewRemoveStrings(path attr.Path, values []string) *RemoveStrings {
	return &RemoveStrings{base: base{path: path}, Values: values}
}

func (*RemoveStrings) Kind() Kind { return KindRemoveStrings }

// ClearStringSet removes all values of a string set, keeping the
// attribute.
type ClearStringSet struct {
	base
}

func NewClearStringSet(path attr.Path) *ClearStringSet {
	return &ClearStringSet{base: base{path: path}}
}

func (*ClearStringSet) Kind() Kind { return KindClearStringSet }

// DeleteAttribute removes an attribute of any type.
type DeleteAttribute struct {
	base
}

func NewDeleteAttribute(path attr.Path) *DeleteAttribute {
	return &DeleteAttribute{base: base{path: path}}
}

func (*DeleteAttribute) Kind() Kind { return KindDeleteAttribute }

// CopyAttribute assigns the current value of a source attribute,
// possibly in another container, to the target path. It must be
// resolved into a concrete assign before it reaches the store; see
// [CopyAttribute.Resolve].
type CopyAttribute struct {
	base
	SourceContainer attr.ContainerRef
	SourcePath      attr.Path
	SourceType      attr.Type
}

func NewCopyAttribute(path attr.Path, source attr.ContainerRef, sourcePath attr.Path, sourceType attr.Type) *CopyAttribute {
	return &CopyAttribute{
		base:            base{path: path},
		SourceContainer: source,
		SourcePath:      sourcePath,
		SourceType:      sourceType,
	}
}

func (*CopyAttribute) Kind() Kind { return KindCopyAttribute }

// Resolve converts the copy into the assign carrying the fetched
// source value. Only atom values can be copied; any other type yields
// a [MetadataInconsistencyError].
func (op *CopyAttribute) Resolve(value attr.Value) (Operation, error) {
	switch v := value.(type) {
	case attr.Float:
		return NewAssignFloat(op.path, v.Value), nil
	case attr.Int:
		return NewAssignInt(op.path, v.Value), nil
	case attr.Bool:
		return NewAssignBool(op.path, v.Value), nil
	case attr.String:
		return NewAssignString(op.path, v.Value), nil
	case attr.Datetime:
		return NewAssignDatetime(op.path, v.Value), nil
	default:
		return nil, &MetadataInconsistencyError{
			Path:    op.path,
			Op:      KindCopyAttribute,
			Message: "cannot copy attribute of type " + value.Type().String(),
		}
	}
}
