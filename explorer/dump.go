// Copyright 2026 Converter Systems LLC. All rights reserved.

package explorer

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/awcullen/opcua/ua"
)

// Field is the outcome of reading one dumped field: either a value representation or an error.
type Field struct {
	Label string
	Value string
	Err   error
}

func (f Field) String() string {
	if f.Err != nil {
		return fmt.Sprintf("%s: %s", f.Label, errorMarker(f.Err))
	}
	return fmt.Sprintf("%s: %s", f.Label, f.Value)
}

// Report is the snapshot of one node produced by Dumper.Collect.
type Report struct {
	// Fields holds the node id, the accessor results and the DataValue details, in order.
	Fields []Field
	// Sweep holds one entry per standard attribute id, in declaration order.
	Sweep []Field
}

// Dumper prints every attribute a server exposes for a node. Each field is read on its own;
// a failure is recorded in place of that field's value and never stops the others.
type Dumper struct{}

// NewDumper returns a Dumper.
func NewDumper() *Dumper {
	return &Dumper{}
}

// Dump collects the report of n and writes it to w, indenting each line by two spaces per level.
// The returned error is from writing only.
func (d *Dumper) Dump(ctx context.Context, w io.Writer, n *Node, indent int) error {
	return d.Render(w, d.Collect(ctx, n), indent)
}

// Collect reads every field of n.
func (d *Dumper) Collect(ctx context.Context, n *Node) Report {
	var r Report
	add := func(label string, v any, err error) {
		if err != nil {
			r.Fields = append(r.Fields, Field{Label: label, Err: err})
			return
		}
		r.Fields = append(r.Fields, Field{Label: label, Value: repr(v)})
	}

	r.Fields = append(r.Fields,
		Field{Label: "nodeid", Value: truncate(describeNodeID(n.NodeID()), MaxReprLength)},
		Field{Label: "nodeid_str", Value: truncate(n.String(), MaxReprLength)},
	)

	v1, err := n.ReadBrowseName(ctx)
	add("browse_name", v1, err)
	v2, err := n.ReadDisplayName(ctx)
	add("display_name", v2, err)
	v3, err := n.ReadDescription(ctx)
	add("description", v3, err)
	v4, err := n.ReadNodeClass(ctx)
	add("node_class", v4, err)
	v5, err := n.ReadDataType(ctx)
	add("data_type (NodeId)", v5, err)
	v6, err := n.ReadDataTypeAsVariantType(ctx)
	add("data_type_as_variant_type", v6, err)
	v7, err := n.ReadValueRank(ctx)
	add("value_rank", v7, err)
	v8, err := n.ReadArrayDimensions(ctx)
	add("array_dimensions", v8, err)
	v9, err := n.ReadAccessLevel(ctx)
	add("access_level", v9, err)
	v10, err := n.ReadUserAccessLevel(ctx)
	add("user_access_level", v10, err)
	v11, err := n.ReadEventNotifier(ctx)
	add("event_notifier", v11, err)
	v12, err := n.ReadDataTypeDefinition(ctx)
	add("data_type_definition", v12, err)
	v13, err := n.ReadValue(ctx)
	add("value (native)", v13, err)
	dv, err := n.ReadDataValue(ctx)
	if err != nil {
		add("value (DataValue)", nil, err)
	} else {
		r.Fields = append(r.Fields, Field{Label: "value (DataValue)", Value: truncate(dataValueSummary(dv), MaxReprLength)})
		r.Fields = append(r.Fields, dataValueFields(dv)...)
	}

	for _, attr := range Attributes {
		r.Sweep = append(r.Sweep, sweep(ctx, n, attr))
	}
	return r
}

func dataValueSummary(dv ua.DataValue) string {
	return fmt.Sprintf("DataValue(Value=%s, StatusCode=%s, SourceTimestamp=%s, ServerTimestamp=%s)",
		format(dv.Value), format(dv.StatusCode), format(dv.SourceTimestamp), format(dv.ServerTimestamp))
}

func dataValueFields(dv ua.DataValue) []Field {
	fields := []Field{
		{Label: "datavalue.StatusCode", Value: repr(dv.StatusCode)},
		{Label: "datavalue.SourceTimestamp", Value: repr(dv.SourceTimestamp)},
		{Label: "datavalue.ServerTimestamp", Value: repr(dv.ServerTimestamp)},
		{Label: "datavalue.SourcePicoseconds", Value: repr(dv.SourcePicoseconds)},
		{Label: "datavalue.ServerPicoseconds", Value: repr(dv.ServerPicoseconds)},
		{Label: "datavalue.Value", Value: repr(dv.Value)},
	}
	if dv.Value != nil {
		if vt, err := variantTypeOf(dv.Value); err != nil {
			fields = append(fields, Field{Label: "datavalue.Value.VariantType", Err: err})
		} else {
			fields = append(fields, Field{Label: "datavalue.Value.VariantType", Value: repr(vt)})
		}
		fields = append(fields, Field{Label: "datavalue.Value.Value", Value: truncate(fmt.Sprintf("%#v", dv.Value), MaxReprLength)})
	}
	return fields
}

func sweep(ctx context.Context, n *Node, attr Attribute) Field {
	label := fmt.Sprintf("%s (%d)", attr.Name, attr.ID)
	dv, err := n.ReadAttribute(ctx, attr.ID)
	if err != nil {
		return Field{Label: label, Err: err}
	}
	val := "<None>"
	if dv.Value != nil {
		val = repr(dv.Value)
	}
	return Field{Label: label, Value: fmt.Sprintf("Status=%s, Value=%s", repr(dv.StatusCode), val)}
}

// Render writes a report in its fixed order.
func (d *Dumper) Render(w io.Writer, r Report, indent int) error {
	pad := strings.Repeat("  ", indent)
	var b strings.Builder
	fmt.Fprintf(&b, "%s=== OPC UA node dump ===\n", pad)
	for _, f := range r.Fields {
		fmt.Fprintf(&b, "%s- %s\n", pad, f)
	}
	fmt.Fprintf(&b, "%s--- attribute sweep (AttributeIds) ---\n", pad)
	for _, f := range r.Sweep {
		fmt.Fprintf(&b, "%s- %s\n", pad, f)
	}
	_, err := io.WriteString(w, b.String())
	return err
}
