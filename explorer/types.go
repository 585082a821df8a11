// Copyright 2026 Converter Systems LLC. All rights reserved.

package explorer

import (
	"reflect"
	"strings"
	"time"

	"github.com/awcullen/opcua/ua"
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// VariantType is the built-in type id that carries a value on the wire.
type VariantType byte

// Built-in types, numbered as in the UA binary encoding.
const (
	VariantTypeNull VariantType = iota
	VariantTypeBoolean
	VariantTypeSByte
	VariantTypeByte
	VariantTypeInt16
	VariantTypeUInt16
	VariantTypeInt32
	VariantTypeUInt32
	VariantTypeInt64
	VariantTypeUInt64
	VariantTypeFloat
	VariantTypeDouble
	VariantTypeString
	VariantTypeDateTime
	VariantTypeGUID
	VariantTypeByteString
	VariantTypeXMLElement
	VariantTypeNodeID
	VariantTypeExpandedNodeID
	VariantTypeStatusCode
	VariantTypeQualifiedName
	VariantTypeLocalizedText
	VariantTypeExtensionObject
	VariantTypeDataValue
	VariantTypeVariant
	VariantTypeDiagnosticInfo
)

var variantTypeNames = [...]string{
	"Null", "Boolean", "SByte", "Byte", "Int16", "UInt16", "Int32", "UInt32", "Int64", "UInt64",
	"Float", "Double", "String", "DateTime", "Guid", "ByteString", "XmlElement", "NodeId",
	"ExpandedNodeId", "StatusCode", "QualifiedName", "LocalizedText", "ExtensionObject",
	"DataValue", "Variant", "DiagnosticInfo",
}

func (vt VariantType) String() string {
	if int(vt) < len(variantTypeNames) {
		return variantTypeNames[vt]
	}
	return "Unknown"
}

// data types of namespace 0 that are abstract or derived but map directly to a built-in type.
const (
	dataTypeIDNumber      = 26
	dataTypeIDInteger     = 27
	dataTypeIDUInteger    = 28
	dataTypeIDEnumeration = 29
)

// maxSubtypeDepth bounds the walk from a data type to its built-in supertype.
const maxSubtypeDepth = 32

var builtinDataTypes = func() map[ua.NodeID]VariantType {
	m := make(map[ua.NodeID]VariantType, 30)
	for vt := VariantTypeBoolean; vt <= VariantTypeDiagnosticInfo; vt++ {
		m[ua.NewNodeIDNumeric(0, uint32(vt))] = vt
	}
	m[ua.NewNodeIDNumeric(0, dataTypeIDNumber)] = VariantTypeVariant
	m[ua.NewNodeIDNumeric(0, dataTypeIDInteger)] = VariantTypeVariant
	m[ua.NewNodeIDNumeric(0, dataTypeIDUInteger)] = VariantTypeVariant
	m[ua.NewNodeIDNumeric(0, dataTypeIDEnumeration)] = VariantTypeInt32
	return m
}()

func builtinVariantType(dataType ua.NodeID) (VariantType, bool) {
	vt, ok := builtinDataTypes[dataType]
	return vt, ok
}

// variantTypeOf returns the built-in type of a decoded value. Arrays report the type
// of their elements.
func variantTypeOf(v any) (VariantType, error) {
	switch v.(type) {
	case bool:
		return VariantTypeBoolean, nil
	case int8:
		return VariantTypeSByte, nil
	case uint8:
		return VariantTypeByte, nil
	case int16:
		return VariantTypeInt16, nil
	case uint16:
		return VariantTypeUInt16, nil
	case int32:
		return VariantTypeInt32, nil
	case uint32:
		return VariantTypeUInt32, nil
	case int64:
		return VariantTypeInt64, nil
	case uint64:
		return VariantTypeUInt64, nil
	case float32:
		return VariantTypeFloat, nil
	case float64:
		return VariantTypeDouble, nil
	case string:
		return VariantTypeString, nil
	case time.Time:
		return VariantTypeDateTime, nil
	case uuid.UUID:
		return VariantTypeGUID, nil
	case ua.ByteString:
		return VariantTypeByteString, nil
	case ua.XMLElement:
		return VariantTypeXMLElement, nil
	case ua.NodeIDNumeric, ua.NodeIDString, ua.NodeIDGUID, ua.NodeIDOpaque:
		return VariantTypeNodeID, nil
	case ua.ExpandedNodeID:
		return VariantTypeExpandedNodeID, nil
	case ua.StatusCode:
		return VariantTypeStatusCode, nil
	case ua.QualifiedName:
		return VariantTypeQualifiedName, nil
	case ua.LocalizedText:
		return VariantTypeLocalizedText, nil
	case ua.DataValue:
		return VariantTypeDataValue, nil
	case ua.DiagnosticInfo:
		return VariantTypeDiagnosticInfo, nil
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		if rv.Type() == reflect.TypeOf([]byte(nil)) {
			return VariantTypeByteString, nil
		}
		et := rv.Type().Elem()
		if et.Kind() == reflect.Interface {
			return interfaceVariantType(et), nil
		}
		return variantTypeOf(reflect.Zero(et).Interface())
	case reflect.Struct:
		// structures decoded from the server's type system arrive as Go structs.
		return VariantTypeExtensionObject, nil
	}
	return VariantTypeNull, errors.Errorf("no built-in type for %T", v)
}

var (
	nodeIDType          = reflect.TypeOf((*ua.NodeID)(nil)).Elem()
	extensionObjectType = reflect.TypeOf((*ua.ExtensionObject)(nil)).Elem()
)

// interfaceVariantType returns the built-in type of the elements of an array whose
// element type is an interface. Arrays of any value are arrays of Variant.
func interfaceVariantType(t reflect.Type) VariantType {
	switch t {
	case nodeIDType:
		return VariantTypeNodeID
	case extensionObjectType:
		return VariantTypeExtensionObject
	}
	return VariantTypeVariant
}

// AccessLevel is the bit mask of the AccessLevel and UserAccessLevel attributes.
type AccessLevel byte

var accessLevelNames = []string{
	"CurrentRead", "CurrentWrite", "HistoryRead", "HistoryWrite",
	"SemanticChange", "StatusWrite", "TimestampWrite",
}

func (a AccessLevel) String() string {
	return flagString(byte(a), accessLevelNames)
}

// EventNotifier is the bit mask of the EventNotifier attribute.
type EventNotifier byte

var eventNotifierNames = []string{
	"SubscribeToEvents", "", "HistoryRead", "HistoryWrite",
}

func (e EventNotifier) String() string {
	return flagString(byte(e), eventNotifierNames)
}

// flagString lists the names of the set bits, e.g. "{CurrentRead|CurrentWrite}".
func flagString(b byte, names []string) string {
	var set []string
	for i, name := range names {
		if name != "" && b&(1<<uint(i)) != 0 {
			set = append(set, name)
		}
	}
	return "{" + strings.Join(set, "|") + "}"
}
