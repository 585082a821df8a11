// Copyright 2026 Converter Systems LLC. All rights reserved.

package explorer

import (
	"encoding/hex"
	"fmt"
	"reflect"
	"strconv"
	"time"

	"github.com/awcullen/opcua/ua"
	"github.com/pkg/errors"
)

// MaxReprLength is the longest value representation printed before truncation.
const MaxReprLength = 800

// repr returns a bounded, printable representation of a value.
func repr(v any) string {
	return truncate(format(v), MaxReprLength)
}

// format returns the representation of v. A String or Error method that panics
// yields a marker instead of ending the dump.
func format(v any) (s string) {
	defer func() {
		if r := recover(); r != nil {
			s = fmt.Sprintf("<repr failed: %v>", r)
		}
	}()
	switch x := v.(type) {
	case nil:
		return "<nil>"
	case string:
		return strconv.Quote(x)
	case ua.ByteString:
		return "0x" + hex.EncodeToString([]byte(x))
	case []byte:
		return "0x" + hex.EncodeToString(x)
	case time.Time:
		if x.IsZero() {
			return "<zero time>"
		}
		return x.UTC().Format(time.RFC3339Nano)
	case fmt.Stringer:
		return x.String()
	case error:
		return x.Error()
	}
	return fmt.Sprintf("%+v", v)
}

// truncate shortens s to max characters, noting the original length.
func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max]) + fmt.Sprintf("... <truncated, %d chars>", len(r))
}

// errorMarker formats an error for inline display in place of a value.
func errorMarker(err error) string {
	return fmt.Sprintf("<error %s: %s>", errorKind(err), err.Error())
}

// errorKind names the type of the underlying cause of err.
func errorKind(err error) string {
	t := reflect.TypeOf(errors.Cause(err))
	if t == nil {
		return "error"
	}
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if t.Name() == "" {
		return "error"
	}
	return t.Name()
}

// describeNodeID returns the structured form of a node id.
func describeNodeID(id ua.NodeID) string {
	switch nid := id.(type) {
	case nil:
		return "NodeID(<nil>)"
	case ua.NodeIDNumeric:
		return fmt.Sprintf("NodeID(Namespace=%d, IDType=Numeric, Identifier=%d)", nid.NamespaceIndex, nid.ID)
	case ua.NodeIDString:
		return fmt.Sprintf("NodeID(Namespace=%d, IDType=String, Identifier=%q)", nid.NamespaceIndex, nid.ID)
	case ua.NodeIDGUID:
		return fmt.Sprintf("NodeID(Namespace=%d, IDType=Guid, Identifier=%s)", nid.NamespaceIndex, nid.ID.String())
	case ua.NodeIDOpaque:
		return fmt.Sprintf("NodeID(Namespace=%d, IDType=Opaque, Identifier=0x%s)", nid.NamespaceIndex, hex.EncodeToString([]byte(nid.ID)))
	}
	return fmt.Sprintf("NodeID(%v)", id)
}
