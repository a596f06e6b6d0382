// Package tree combines results of foreign routines over an implicit binary
// tree of node identifiers.
package tree

import (
	"context"
	"fmt"
	"strconv"

	perrors "github.com/ignitionstack/polytree/pkg/errors"
	"github.com/ignitionstack/polytree/pkg/gateway"
	"github.com/ignitionstack/polytree/pkg/logging"
)

// MiddleFunction is the foreign routine asked for each child of the root.
const MiddleFunction = "process_middle"

// RootProcessor labels a node and appends the foreign results for its two
// children. It holds no state between calls.
type RootProcessor struct {
	gateway  gateway.Invoker
	function string
	logger   logging.Logger
}

// Option configures a RootProcessor.
type Option func(*RootProcessor)

// WithFunction overrides the foreign routine name.
func WithFunction(name string) Option {
	return func(p *RootProcessor) {
		if name != "" {
			p.function = name
		}
	}
}

// WithLogger sets the logger used for call tracing.
func WithLogger(logger logging.Logger) Option {
	return func(p *RootProcessor) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// NewRootProcessor creates a processor over an already bootstrapped gateway.
func NewRootProcessor(gw gateway.Invoker, opts ...Option) *RootProcessor {
	p := &RootProcessor{
		gateway:  gw,
		function: MiddleFunction,
		logger:   logging.NewNop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Function returns the name of the foreign routine the processor calls.
func (p *RootProcessor) Function() string {
	return p.function
}

// ProcessRoot returns "Root(<node>) " followed by the foreign results for
// 2*node and 2*node+1, in that order.
//
// The two calls are strictly sequential. A gateway error is returned as is
// and the remaining call is not issued.
func (p *RootProcessor) ProcessRoot(ctx context.Context, node int64) (string, error) {
	leftID, rightID, err := Children(node)
	if err != nil {
		return "", err
	}

	left, err := p.call(ctx, leftID)
	if err != nil {
		return "", err
	}

	right, err := p.call(ctx, rightID)
	if err != nil {
		return "", err
	}

	return "Root(" + strconv.FormatInt(node, 10) + ") " + left + right, nil
}

func (p *RootProcessor) call(ctx context.Context, child int64) (string, error) {
	p.logger.Debugf("Invoking %s(%d)", p.function, child)

	result, err := p.gateway.Invoke(ctx, p.function, child)
	if err != nil {
		p.logger.Debugf("%s(%d) failed: %v", p.function, child, err)
		return "", err
	}

	text, ok := gateway.AsString(result)
	if !ok {
		return "", perrors.New(perrors.DomainProcessor, perrors.CodeForeignCallFailure,
			fmt.Sprintf("result for node %d is %T, not a string", child, result)).WithFunction(p.function)
	}
	return text, nil
}
