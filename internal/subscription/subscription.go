// Package subscription carries streams of values (journal receipts) from a
// producer to consumer channels, decoupling a slow consumer from the
// producer through a small buffer and an explicit unsubscribe protocol.
package subscription

import (
	"context"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/gatepass-network/boxoffice/common/errs"
)

// BufferSize is the capacity of the forwarding buffer between the producer
// and the consumer channel. A consumer that falls further behind than this
// blocks Send, which the producer treats as a stalled subscription.
var BufferSize = 8

// Subscription is the producer side: the producer calls Send, a forwarding
// goroutine drains the buffer into the consumer's channel. Closing is
// signalled on quit and acknowledged by closing done, after which Send
// always fails.
type Subscription[T any] struct {
	channel chan<- T
	in      chan T
	errs    chan error

	quitOnce sync.Once
	quit     chan struct{}
	done     chan struct{}
}

func NewSubscription[T any](channel chan<- T) *Subscription[T] {
	s := &Subscription[T]{
		channel: channel,
		in:      make(chan T, BufferSize),
		errs:    make(chan error, BufferSize),
		quit:    make(chan struct{}),
		done:    make(chan struct{}),
	}
	go s.forward()
	return s
}

func (s *Subscription[T]) Unsubscribe() {
	_ = s.UnsubscribeWithContext(context.Background())
}

func (s *Subscription[T]) UnsubscribeWithContext(ctx context.Context) (err error) {
	s.quitOnce.Do(func() {
		select {
		case s.quit <- struct{}{}:
			<-s.done
		case <-ctx.Done():
			err = ctx.Err()
		}
	})
	return errors.WithStack(err)
}

// Client returns the consumer-side handle of this subscription.
func (s *Subscription[T]) Client() *ClientSubscription[T] {
	return &ClientSubscription[T]{subscription: s}
}

// Err is the channel producer-side errors are reported on.
func (s *Subscription[T]) Err() <-chan error {
	return s.errs
}

// Done is closed once the forwarding loop has stopped.
func (s *Subscription[T]) Done() <-chan struct{} {
	return s.done
}

func (s *Subscription[T]) IsClosed() bool {
	select {
	case <-s.done:
		return true
	default:
		return false
	}
}

// Send queues one value for the consumer. It fails once the subscription is
// closed, or when ctx expires while the buffer is full.
func (s *Subscription[T]) Send(ctx context.Context, value T) error {
	select {
	case s.in <- value:
		return nil
	case <-s.done:
		return errors.Wrap(errs.InternalError, "subscription is closed")
	case <-ctx.Done():
		return errors.WithStack(ctx.Err())
	}
}

// SendError reports a producer-side error to the consumer.
func (s *Subscription[T]) SendError(ctx context.Context, err error) error {
	select {
	case s.errs <- err:
		return nil
	case <-s.done:
		return errors.Wrap(errs.InternalError, "subscription is closed")
	case <-ctx.Done():
		return errors.WithStack(ctx.Err())
	}
}

func (s *Subscription[T]) forward() {
	defer close(s.done)
	for {
		select {
		case <-s.quit:
			return
		case value := <-s.in:
			select {
			case s.channel <- value:
			case <-s.quit:
				return
			}
		}
	}
}
