package taskq

import (
	"context"
	"encoding/json"
	"fmt"
)

// outcome is the value produced by one execution attempt: either a payload
// or a structured error, never both. It is persisted directly instead of
// being re-raised, so a task body failure can never escape the caller.
type outcome struct {
	payload json.RawMessage
	errInfo *ErrorInfo
}

func (o outcome) status() Status {
	if o.errInfo != nil {
		return StatusFailed
	}
	return StatusComplete
}

// callTask runs a task function with failure isolation: a returned error, a
// panic and an unserializable return value all become a FAILED outcome.
func callTask(ctx context.Context, fn Func, args []any, kwargs map[string]any) (out outcome) {
	defer func() {
		if p := recover(); p != nil {
			out = outcome{errInfo: &ErrorInfo{Kind: "panic", Message: fmt.Sprint(p)}}
		}
	}()

	v, err := fn(ctx, args, kwargs)
	if err != nil {
		return outcome{errInfo: &ErrorInfo{Kind: "error", Message: err.Error()}}
	}

	payload, err := json.Marshal(v)
	if err != nil {
		return outcome{errInfo: &ErrorInfo{Kind: "error", Message: "encode task result: " + err.Error()}}
	}
	return outcome{payload: payload}
}
