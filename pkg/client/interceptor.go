package client

import "context"

/*
CallContext is the mutable state of one client call as it moves through
the interceptor chain. Before hooks may rewrite Params or short-circuit
the call with EarlyReturn after setting Result; After hooks may rewrite
Result or Err.
*/
type CallContext struct {
	Method string
	Params any
	Result any
	Err    error

	earlyReturn bool
}

// EarlyReturn stops the chain: no further Before hooks run and the
// transport is never called. Whatever Result and Err hold becomes the
// outcome of the call.
func (call *CallContext) EarlyReturn() {
	call.earlyReturn = true
}

/*
CallInterceptor observes and optionally rewrites client calls. After runs
for exactly the interceptors whose Before ran, in reverse order, even when
the chain was cut short by an error or an early return.
*/
type CallInterceptor interface {
	Before(ctx context.Context, call *CallContext) error
	After(ctx context.Context, call *CallContext)
}

/*
invoke runs one call through the interceptor chain. The dispatch function
performs the actual transport call and is skipped when a Before hook
errors or requests an early return.
*/
func invoke(ctx context.Context, interceptors []CallInterceptor, call *CallContext, dispatch func() (any, error)) (any, error) {
	ran := 0

	for _, interceptor := range interceptors {
		ran++
		if err := interceptor.Before(ctx, call); err != nil {
			call.Err = err
			break
		}
		if call.earlyReturn {
			break
		}
	}

	if call.Err == nil && !call.earlyReturn {
		call.Result, call.Err = dispatch()
	}

	for i := ran - 1; i >= 0; i-- {
		interceptors[i].After(ctx, call)
	}

	return call.Result, call.Err
}
