// ABOUTME: Op is the future returned by every persisted engine command.
// ABOUTME: It settles once, after the local state reflects the gateway outcome.
package compose

import (
	"context"
	"sync"
)

// Op tracks one command's persistence call.
type Op struct {
	done chan struct{}
	once sync.Once
	err  error
}

func newOp() *Op {
	return &Op{done: make(chan struct{})}
}

// settledOp returns an Op that is already finished with err.
func settledOp(err error) *Op {
	op := newOp()
	op.finish(err)
	return op
}

func (o *Op) finish(err error) {
	o.once.Do(func() {
		o.err = err
		close(o.done)
	})
}

// Done is closed when the call has settled.
func (o *Op) Done() <-chan struct{} { return o.done }

// Err returns the persistence error once settled, or nil before that.
func (o *Op) Err() error {
	select {
	case <-o.done:
		return o.err
	default:
		return nil
	}
}

// Wait blocks until the call settles or ctx ends.
func (o *Op) Wait(ctx context.Context) error {
	select {
	case <-o.done:
		return o.err
	case <-ctx.Done():
		return ctx.Err()
	}
}
