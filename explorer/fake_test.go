// Copyright 2026 Converter Systems LLC. All rights reserved.

package explorer_test

import (
	"context"
	"strconv"

	"github.com/awcullen/opcua/ua"
)

// fakeNode is one node of an in-memory address space.
type fakeNode struct {
	name      string
	children  []ua.NodeID
	// remote are targets in the server with index 1.
	remote    []ua.NodeID
	supertype ua.NodeID
	attrs     map[uint32]ua.DataValue
	// fail makes the Read service itself fail for these attribute ids.
	fail map[uint32]error
}

// fakeService implements explorer.Service over an in-memory address space.
type fakeService struct {
	nodes     map[ua.NodeID]*fakeNode
	browseErr error
	// pageSize, if set, splits browse results and requires BrowseNext.
	pageSize int
	pending  map[string][]ua.ReferenceDescription
	reads    int
	onRead   func(count int)
}

func newFakeService() *fakeService {
	return &fakeService{
		nodes:   make(map[ua.NodeID]*fakeNode),
		pending: make(map[string][]ua.ReferenceDescription),
	}
}

// add creates a node with the given browse name and children.
func (s *fakeService) add(id ua.NodeID, name string, children ...ua.NodeID) *fakeNode {
	n := &fakeNode{
		name:     name,
		children: children,
		attrs:    make(map[uint32]ua.DataValue),
		fail:     make(map[uint32]error),
	}
	s.nodes[id] = n
	return n
}

func (s *fakeService) Browse(ctx context.Context, req *ua.BrowseRequest) (*ua.BrowseResponse, error) {
	if s.browseErr != nil {
		return nil, s.browseErr
	}
	results := make([]ua.BrowseResult, len(req.NodesToBrowse))
	for i, d := range req.NodesToBrowse {
		n, ok := s.nodes[d.NodeID]
		if !ok {
			results[i] = ua.BrowseResult{StatusCode: ua.BadNodeIDUnknown}
			continue
		}
		var refs []ua.ReferenceDescription
		if d.BrowseDirection == ua.BrowseDirectionInverse {
			if n.supertype != nil {
				refs = append(refs, ua.ReferenceDescription{
					ReferenceTypeID: ua.ReferenceTypeIDHasSubtype,
					NodeID:          ua.ExpandedNodeID{NodeID: n.supertype},
				})
			}
		} else {
			for _, c := range n.children {
				refs = append(refs, ua.ReferenceDescription{
					ReferenceTypeID: ua.ReferenceTypeIDHierarchicalReferences,
					IsForward:       true,
					NodeID:          ua.ExpandedNodeID{NodeID: c},
					BrowseName:      ua.QualifiedName{Name: s.nodes[c].name},
				})
			}
			for _, c := range n.remote {
				refs = append(refs, ua.ReferenceDescription{
					ReferenceTypeID: ua.ReferenceTypeIDHierarchicalReferences,
					IsForward:       true,
					NodeID:          ua.ExpandedNodeID{NodeID: c, ServerIndex: 1},
					BrowseName:      ua.QualifiedName{Name: "Remote"},
				})
			}
		}
		results[i] = s.page(refs)
	}
	return &ua.BrowseResponse{Results: results}, nil
}

func (s *fakeService) page(refs []ua.ReferenceDescription) ua.BrowseResult {
	if s.pageSize == 0 || len(refs) <= s.pageSize {
		return ua.BrowseResult{References: refs}
	}
	cp := strconv.Itoa(len(s.pending) + 1)
	s.pending[cp] = refs[s.pageSize:]
	return ua.BrowseResult{References: refs[:s.pageSize], ContinuationPoint: ua.ByteString(cp)}
}

func (s *fakeService) BrowseNext(ctx context.Context, req *ua.BrowseNextRequest) (*ua.BrowseNextResponse, error) {
	results := make([]ua.BrowseResult, len(req.ContinuationPoints))
	for i, cp := range req.ContinuationPoints {
		refs, ok := s.pending[string(cp)]
		if !ok {
			results[i] = ua.BrowseResult{StatusCode: ua.BadContinuationPointInvalid}
			continue
		}
		delete(s.pending, string(cp))
		results[i] = s.page(refs)
	}
	return &ua.BrowseNextResponse{Results: results}, nil
}

func (s *fakeService) Read(ctx context.Context, req *ua.ReadRequest) (*ua.ReadResponse, error) {
	s.reads++
	if s.onRead != nil {
		s.onRead(s.reads)
	}
	results := make([]ua.DataValue, len(req.NodesToRead))
	for i, r := range req.NodesToRead {
		n, ok := s.nodes[r.NodeID]
		if !ok {
			results[i] = ua.DataValue{StatusCode: ua.BadNodeIDUnknown}
			continue
		}
		if err, ok := n.fail[r.AttributeID]; ok {
			return nil, err
		}
		if dv, ok := n.attrs[r.AttributeID]; ok {
			results[i] = dv
			continue
		}
		switch r.AttributeID {
		case ua.AttributeIDNodeID:
			results[i] = ua.DataValue{Value: r.NodeID}
		case ua.AttributeIDBrowseName:
			results[i] = ua.DataValue{Value: ua.QualifiedName{Name: n.name}}
		default:
			results[i] = ua.DataValue{StatusCode: ua.BadAttributeIDInvalid}
		}
	}
	return &ua.ReadResponse{Results: results}, nil
}
