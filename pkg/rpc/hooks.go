package rpc

import "context"

// Hooks observe the call lifecycle and handler registration.
// Nil fields are skipped. Hooks must not block.
type Hooks struct {
	// OnCallBefore fires when authorization of a call starts.
	OnCallBefore func(ctx context.Context, call *Call)
	// OnCallAfter fires once a call passed authorization.
	OnCallAfter func(ctx context.Context, call *Call, policy Policy)
	// OnOutBefore fires before the response leaves the server.
	OnOutBefore func(ctx context.Context, call *Call)
	// OnOutAfter fires when the call is finished, err being its outcome.
	OnOutAfter func(ctx context.Context, call *Call, err error)

	OnRegistered func(name string)
	OnLoadError  func(err *HandlerLoadError)
}

// MergeHooks fans every event out to each non-nil hook in order.
func MergeHooks(hooks ...Hooks) Hooks {
	return Hooks{
		OnCallBefore: func(ctx context.Context, call *Call) {
			for _, h := range hooks {
				if h.OnCallBefore != nil {
					h.OnCallBefore(ctx, call)
				}
			}
		},
		OnCallAfter: func(ctx context.Context, call *Call, policy Policy) {
			for _, h := range hooks {
				if h.OnCallAfter != nil {
					h.OnCallAfter(ctx, call, policy)
				}
			}
		},
		OnOutBefore: func(ctx context.Context, call *Call) {
			for _, h := range hooks {
				if h.OnOutBefore != nil {
					h.OnOutBefore(ctx, call)
				}
			}
		},
		OnOutAfter: func(ctx context.Context, call *Call, err error) {
			for _, h := range hooks {
				if h.OnOutAfter != nil {
					h.OnOutAfter(ctx, call, err)
				}
			}
		},
		OnRegistered: func(name string) {
			for _, h := range hooks {
				if h.OnRegistered != nil {
					h.OnRegistered(name)
				}
			}
		},
		OnLoadError: func(err *HandlerLoadError) {
			for _, h := range hooks {
				if h.OnLoadError != nil {
					h.OnLoadError(err)
				}
			}
		},
	}
}
