// Copyright 2026 Converter Systems LLC. All rights reserved.

package explorer

import (
	"context"
	"fmt"

	"github.com/awcullen/opcua/ua"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// Service is the part of the client that a Node needs to navigate the address space
// and read attributes. *client.Client satisfies it.
type Service interface {
	Browse(ctx context.Context, request *ua.BrowseRequest) (*ua.BrowseResponse, error)
	BrowseNext(ctx context.Context, request *ua.BrowseNextRequest) (*ua.BrowseNextResponse, error)
	Read(ctx context.Context, request *ua.ReadRequest) (*ua.ReadResponse, error)
}

// namespaceTable is loaded from the server the first time a reference names its namespace by uri.
type namespaceTable struct {
	uris   []string
	loaded bool
}

// Node is a handle to one node of the server's address space.
type Node struct {
	svc        Service
	nodeID     ua.NodeID
	namespaces *namespaceTable
	logger     logrus.FieldLogger
}

// NewNode returns a handle to the node with the given id.
func NewNode(svc Service, nodeID ua.NodeID) *Node {
	return &Node{svc: svc, nodeID: nodeID, namespaces: &namespaceTable{}, logger: logrus.StandardLogger()}
}

// WithLogger sets the logger of the node and of the children returned by Children.
func (n *Node) WithLogger(logger logrus.FieldLogger) *Node {
	n.logger = logger
	return n
}

// NodeID gets the id of the node.
func (n *Node) NodeID() ua.NodeID {
	return n.nodeID
}

// String returns the id of the node in its string form, e.g. "ns=2;s=Demo".
func (n *Node) String() string {
	return fmt.Sprint(n.nodeID)
}

// Children returns the targets of the node's forward hierarchical references,
// following continuation points until the server has no more.
func (n *Node) Children(ctx context.Context) ([]*Node, error) {
	req := &ua.BrowseRequest{
		NodesToBrowse: []ua.BrowseDescription{
			{
				NodeID:          n.nodeID,
				BrowseDirection: ua.BrowseDirectionForward,
				ReferenceTypeID: ua.ReferenceTypeIDHierarchicalReferences,
				IncludeSubtypes: true,
				ResultMask:      uint32(ua.BrowseResultMaskAll),
			},
		},
	}
	res, err := n.svc.Browse(ctx, req)
	if err != nil {
		return nil, errors.Wrapf(err, "Error browsing node '%s'", n)
	}
	if len(res.Results) == 0 {
		return nil, errors.Wrapf(ua.BadUnexpectedError, "Error browsing node '%s'", n)
	}
	result := res.Results[0]
	children := make([]*Node, 0, len(result.References))
	for {
		if result.StatusCode.IsBad() {
			return nil, errors.Wrapf(result.StatusCode, "Error browsing node '%s'", n)
		}
		for _, r := range result.References {
			// references into other servers cannot be read through this session.
			if r.NodeID.ServerIndex != 0 {
				n.logger.WithFields(logrus.Fields{
					"node":        n,
					"target":      r.NodeID.NodeID,
					"serverIndex": r.NodeID.ServerIndex,
					"browseName":  r.BrowseName.Name,
				}).Debug("Skipping reference into another server")
				continue
			}
			id, err := n.resolve(ctx, r.NodeID)
			if err != nil {
				return nil, err
			}
			children = append(children, &Node{svc: n.svc, nodeID: id, namespaces: n.namespaces, logger: n.logger})
		}
		if len(result.ContinuationPoint) == 0 {
			break
		}
		res2, err := n.svc.BrowseNext(ctx, &ua.BrowseNextRequest{
			ContinuationPoints: []ua.ByteString{result.ContinuationPoint},
		})
		if err != nil {
			return nil, errors.Wrapf(err, "Error browsing next of node '%s'", n)
		}
		if len(res2.Results) == 0 {
			return nil, errors.Wrapf(ua.BadUnexpectedError, "Error browsing next of node '%s'", n)
		}
		result = res2.Results[0]
	}
	return children, nil
}

// resolve converts an expanded node id to a node id of this server.
func (n *Node) resolve(ctx context.Context, id ua.ExpandedNodeID) (ua.NodeID, error) {
	if id.NamespaceURI == "" {
		return id.NodeID, nil
	}
	if !n.namespaces.loaded {
		v, err := NewNode(n.svc, ua.VariableIDServerNamespaceArray).ReadValue(ctx)
		if err != nil {
			return nil, errors.Wrap(err, "Error reading namespace array")
		}
		uris, ok := v.([]string)
		if !ok {
			return nil, errors.Wrapf(ua.BadTypeMismatch, "namespace array has type %T", v)
		}
		n.namespaces.uris = uris
		n.namespaces.loaded = true
	}
	return ua.ToNodeID(id, n.namespaces.uris), nil
}

// ReadAttribute reads one attribute of the node. A bad status code is reported in the
// returned DataValue, not as an error; the error is for failures of the service call itself.
func (n *Node) ReadAttribute(ctx context.Context, attributeID uint32) (ua.DataValue, error) {
	req := &ua.ReadRequest{
		NodesToRead: []ua.ReadValueID{
			{NodeID: n.nodeID, AttributeID: attributeID},
		},
		TimestampsToReturn: ua.TimestampsToReturnBoth,
	}
	res, err := n.svc.Read(ctx, req)
	if err != nil {
		return ua.DataValue{}, err
	}
	if len(res.Results) == 0 {
		return ua.DataValue{}, ua.BadUnexpectedError
	}
	return res.Results[0], nil
}

// readGood reads one attribute and returns its value, or the status code as the error
// if the status is bad.
func (n *Node) readGood(ctx context.Context, attributeID uint32) (any, error) {
	dv, err := n.ReadAttribute(ctx, attributeID)
	if err != nil {
		return nil, err
	}
	if dv.StatusCode.IsBad() {
		return nil, dv.StatusCode
	}
	return dv.Value, nil
}

func readAs[T any](ctx context.Context, n *Node, attributeID uint32) (T, error) {
	var zero T
	v, err := n.readGood(ctx, attributeID)
	if err != nil {
		return zero, err
	}
	t, ok := v.(T)
	if !ok {
		return zero, errors.Wrapf(ua.BadTypeMismatch, "attribute %d has type %T", attributeID, v)
	}
	return t, nil
}

// ReadBrowseName reads the BrowseName attribute.
func (n *Node) ReadBrowseName(ctx context.Context) (ua.QualifiedName, error) {
	return readAs[ua.QualifiedName](ctx, n, ua.AttributeIDBrowseName)
}

// ReadDisplayName reads the DisplayName attribute.
func (n *Node) ReadDisplayName(ctx context.Context) (ua.LocalizedText, error) {
	return readAs[ua.LocalizedText](ctx, n, ua.AttributeIDDisplayName)
}

// ReadDescription reads the Description attribute.
func (n *Node) ReadDescription(ctx context.Context) (ua.LocalizedText, error) {
	return readAs[ua.LocalizedText](ctx, n, ua.AttributeIDDescription)
}

// ReadNodeClass reads the NodeClass attribute.
func (n *Node) ReadNodeClass(ctx context.Context) (ua.NodeClass, error) {
	v, err := n.readGood(ctx, ua.AttributeIDNodeClass)
	if err != nil {
		return 0, err
	}
	switch nc := v.(type) {
	case ua.NodeClass:
		return nc, nil
	case int32:
		return ua.NodeClass(nc), nil
	}
	return 0, errors.Wrapf(ua.BadTypeMismatch, "attribute %d has type %T", ua.AttributeIDNodeClass, v)
}

// ReadDataType reads the DataType attribute.
func (n *Node) ReadDataType(ctx context.Context) (ua.NodeID, error) {
	v, err := n.readGood(ctx, ua.AttributeIDDataType)
	if err != nil {
		return nil, err
	}
	id, ok := v.(ua.NodeID)
	if !ok || id == nil {
		return nil, errors.Wrapf(ua.BadTypeMismatch, "attribute %d has type %T", ua.AttributeIDDataType, v)
	}
	return id, nil
}

// ReadDataTypeAsVariantType reads the DataType attribute and returns the built-in
// type that carries values of that data type, walking up the subtype hierarchy for
// structures, enumerations and other derived types.
func (n *Node) ReadDataTypeAsVariantType(ctx context.Context) (VariantType, error) {
	dataType, err := n.ReadDataType(ctx)
	if err != nil {
		return VariantTypeNull, err
	}
	return n.variantTypeOfDataType(ctx, dataType)
}

func (n *Node) variantTypeOfDataType(ctx context.Context, dataType ua.NodeID) (VariantType, error) {
	t := dataType
	for i := 0; i < maxSubtypeDepth; i++ {
		if vt, ok := builtinVariantType(t); ok {
			return vt, nil
		}
		parent, err := n.supertype(ctx, t)
		if err != nil {
			return VariantTypeNull, err
		}
		t = parent
	}
	return VariantTypeNull, errors.Wrapf(ua.BadTypeMismatch, "data type '%v' has no built-in supertype", dataType)
}

// supertype browses the inverse HasSubtype reference of a data type.
func (n *Node) supertype(ctx context.Context, dataType ua.NodeID) (ua.NodeID, error) {
	req := &ua.BrowseRequest{
		NodesToBrowse: []ua.BrowseDescription{
			{
				NodeID:          dataType,
				BrowseDirection: ua.BrowseDirectionInverse,
				ReferenceTypeID: ua.ReferenceTypeIDHasSubtype,
				IncludeSubtypes: false,
				ResultMask:      uint32(ua.BrowseResultMaskAll),
			},
		},
	}
	res, err := n.svc.Browse(ctx, req)
	if err != nil {
		return nil, err
	}
	if len(res.Results) == 0 {
		return nil, ua.BadUnexpectedError
	}
	if res.Results[0].StatusCode.IsBad() {
		return nil, res.Results[0].StatusCode
	}
	if len(res.Results[0].References) == 0 {
		return nil, errors.Wrapf(ua.BadTypeMismatch, "data type '%v' has no supertype", dataType)
	}
	return n.resolve(ctx, res.Results[0].References[0].NodeID)
}

// ReadValueRank reads the ValueRank attribute.
func (n *Node) ReadValueRank(ctx context.Context) (int32, error) {
	return readAs[int32](ctx, n, ua.AttributeIDValueRank)
}

// ReadArrayDimensions reads the ArrayDimensions attribute.
func (n *Node) ReadArrayDimensions(ctx context.Context) ([]uint32, error) {
	v, err := n.readGood(ctx, ua.AttributeIDArrayDimensions)
	if err != nil {
		return nil, err
	}
	switch dims := v.(type) {
	case nil:
		return nil, nil
	case []uint32:
		return dims, nil
	}
	return nil, errors.Wrapf(ua.BadTypeMismatch, "attribute %d has type %T", ua.AttributeIDArrayDimensions, v)
}

// ReadAccessLevel reads the AccessLevel attribute.
func (n *Node) ReadAccessLevel(ctx context.Context) (AccessLevel, error) {
	v, err := readAs[byte](ctx, n, ua.AttributeIDAccessLevel)
	return AccessLevel(v), err
}

// ReadUserAccessLevel reads the UserAccessLevel attribute.
func (n *Node) ReadUserAccessLevel(ctx context.Context) (AccessLevel, error) {
	v, err := readAs[byte](ctx, n, ua.AttributeIDUserAccessLevel)
	return AccessLevel(v), err
}

// ReadEventNotifier reads the EventNotifier attribute.
func (n *Node) ReadEventNotifier(ctx context.Context) (EventNotifier, error) {
	v, err := readAs[byte](ctx, n, ua.AttributeIDEventNotifier)
	return EventNotifier(v), err
}

// ReadDataTypeDefinition reads the DataTypeDefinition attribute of a data type node.
func (n *Node) ReadDataTypeDefinition(ctx context.Context) (any, error) {
	return n.readGood(ctx, ua.AttributeIDDataTypeDefinition)
}

// ReadValue reads the Value attribute and returns the decoded value.
// A bad status code is returned as the error.
func (n *Node) ReadValue(ctx context.Context) (any, error) {
	return n.readGood(ctx, ua.AttributeIDValue)
}

// ReadDataValue reads the Value attribute with its status code and timestamps.
// A bad status code is reported in the DataValue.
func (n *Node) ReadDataValue(ctx context.Context) (ua.DataValue, error) {
	return n.ReadAttribute(ctx, ua.AttributeIDValue)
}
