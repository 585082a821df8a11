// Copyright 2026 Converter Systems LLC. All rights reserved.

package explorer

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/gammazero/deque"
	"github.com/pkg/errors"
)

// QuitToken is the operator input that abandons the traversal.
const QuitToken = "q"

var (
	// ErrInvalidSelection is returned when the operator's input is neither the quit token
	// nor the index of a listed child.
	ErrInvalidSelection = errors.New("invalid selection")
	// ErrCycle is returned, when cycle detection is enabled, if the operator selects a node
	// that is already on the current path.
	ErrCycle = errors.New("node already on path")
)

// VisitFunc is called for each node the explorer enters, with its depth from the start node.
type VisitFunc func(n *Node, depth int)

// Option is a functional option to be applied to an explorer during initialization.
type Option func(*Explorer)

// WithPrompt sets whether the explorer writes a prompt before reading a selection. (default: true)
func WithPrompt(value bool) Option {
	return func(e *Explorer) {
		e.prompt = value
	}
}

// WithCycleDetection makes selecting a node already on the current path an error. (default: off)
func WithCycleDetection() Option {
	return func(e *Explorer) {
		e.detectCycles = true
	}
}

// WithVisitFunc sets a function that observes every node entered.
func WithVisitFunc(f VisitFunc) Option {
	return func(e *Explorer) {
		e.visit = f
	}
}

// Explorer lets an operator walk the address space, one selection per line of input,
// from a start node down to a leaf.
type Explorer struct {
	in           *bufio.Reader
	pending      chan lineResult
	out          io.Writer
	prompt       bool
	detectCycles bool
	visit        VisitFunc
}

// New returns an Explorer that reads selections from in and writes listings to out.
func New(in io.Reader, out io.Writer, opts ...Option) *Explorer {
	e := &Explorer{
		in:     bufio.NewReader(in),
		out:    out,
		prompt: true,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

type frame struct {
	node  *Node
	depth int
}

// Explore lists the children of the current node, reads the operator's selection and descends,
// starting at start. It returns the first node without children, or nil if the operator quits.
// Errors from the server, unreadable input and invalid selections are returned as they occur.
// If ctx is done while waiting for input, Explore returns ctx.Err().
func (e *Explorer) Explore(ctx context.Context, start *Node) (*Node, error) {
	var path deque.Deque[frame]
	path.PushBack(frame{node: start, depth: 0})
	for {
		cur := path.Back()
		if e.visit != nil {
			e.visit(cur.node, cur.depth)
		}
		children, err := cur.node.Children(ctx)
		if err != nil {
			return nil, err
		}
		if len(children) == 0 {
			return cur.node, nil
		}
		if err := e.list(ctx, children, cur.depth); err != nil {
			return nil, err
		}
		line, err := e.readLine(ctx, cur.depth, len(children))
		if err != nil {
			return nil, err
		}
		if line == QuitToken {
			return nil, nil
		}
		i, err := strconv.Atoi(line)
		if err != nil {
			return nil, errors.Wrapf(ErrInvalidSelection, "%q is not an index", line)
		}
		if i < 0 || i >= len(children) {
			return nil, errors.Wrapf(ErrInvalidSelection, "index %d out of range [0, %d)", i, len(children))
		}
		next := children[i]
		if e.detectCycles {
			for j := 0; j < path.Len(); j++ {
				if path.At(j).node.String() == next.String() {
					return nil, errors.Wrapf(ErrCycle, "node '%s'", next)
				}
			}
		}
		path.PushBack(frame{node: next, depth: cur.depth + 1})
	}
}

// list writes one line per child, indented two spaces per level of depth.
func (e *Explorer) list(ctx context.Context, children []*Node, depth int) error {
	pad := strings.Repeat("  ", depth)
	for i, child := range children {
		name, err := child.ReadBrowseName(ctx)
		if err != nil {
			return errors.Wrapf(err, "Error reading browse name of '%s'", child)
		}
		if _, err := fmt.Fprintf(e.out, "%s[%d] %s\n", pad, i, name.Name); err != nil {
			return err
		}
	}
	return nil
}

type lineResult struct {
	line string
	err  error
}

// readLine prompts for and reads one line of input, trimmed of surrounding space.
// It returns ctx.Err() if ctx is done before a line arrives.
func (e *Explorer) readLine(ctx context.Context, depth, count int) (string, error) {
	if e.prompt {
		pad := strings.Repeat("  ", depth)
		if _, err := fmt.Fprintf(e.out, "%sSelect 0-%d or %s to quit: ", pad, count-1, QuitToken); err != nil {
			return "", err
		}
	}
	line, err := e.nextLine(ctx)
	if ctx.Err() != nil {
		return "", ctx.Err()
	}
	if err != nil && !(err == io.EOF && line != "") {
		if err == io.EOF {
			return "", errors.Wrap(io.ErrUnexpectedEOF, "Error reading selection")
		}
		return "", errors.Wrap(err, "Error reading selection")
	}
	return strings.TrimSpace(line), nil
}

// nextLine reads from the input in a goroutine so that ctx ends the wait on a blocked read.
// A read left pending by a cancelled call is picked up by the next call.
func (e *Explorer) nextLine(ctx context.Context) (string, error) {
	if e.pending == nil {
		ch := make(chan lineResult, 1)
		go func() {
			line, err := e.in.ReadString('\n')
			ch <- lineResult{line: line, err: err}
		}()
		e.pending = ch
	}
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case r := <-e.pending:
		e.pending = nil
		return r.line, r.err
	}
}
