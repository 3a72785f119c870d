package database

import (
	"context"
	"sync"
	"time"

	"restaurant-admin/apperrors"
)

// Readiness is a one-shot gate that opens once the store is usable, or fails for good.
type Readiness struct {
	once sync.Once
	done chan struct{}
	err  error
}

func NewReadiness() *Readiness {
	return &Readiness{done: make(chan struct{})}
}

// MarkReady opens the gate. Only the first of MarkReady and Fail takes effect.
func (r *Readiness) MarkReady() {
	r.once.Do(func() { close(r.done) })
}

// Fail closes the gate with err.
func (r *Readiness) Fail(err error) {
	r.once.Do(func() {
		r.err = err
		close(r.done)
	})
}

// Done is closed when the gate resolves either way.
func (r *Readiness) Done() <-chan struct{} { return r.done }

// Err is the failure cause, nil while pending or when ready.
func (r *Readiness) Err() error {
	select {
	case <-r.done:
		return r.err
	default:
		return nil
	}
}

func (r *Readiness) IsReady() bool {
	select {
	case <-r.done:
		return r.err == nil
	default:
		return false
	}
}

// Wait blocks until the gate resolves, timeout elapses or ctx ends.
func (r *Readiness) Wait(ctx context.Context, timeout time.Duration) error {
	if r.IsReady() {
		return nil
	}
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-r.done:
		if r.err != nil {
			return &apperrors.Error{
				Kind:    apperrors.KindServiceUnavailable,
				Op:      "wait for store",
				Message: "the document store failed to initialize",
				Err:     r.err,
			}
		}
		return nil
	case <-timer.C:
		return apperrors.Timeout("wait for store", "the document store was not ready within %s", timeout)
	case <-ctx.Done():
		return ctx.Err()
	}
}

// EnsureReady fails with ServiceUnavailable unless the gate is already open.
func EnsureReady(s Store, op string) error {
	if s == nil || !s.Ready().IsReady() {
		return apperrors.ServiceUnavailable(op, "the document store is still loading, please try again in a moment")
	}
	return nil
}
