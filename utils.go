package taskq

import (
	"errors"
	"reflect"
	"runtime"
	"strings"
)

// funcImportPath derives the globally addressable reference of a task
// function from the runtime. Closures carry a ".func" segment and method
// values an "-fm" suffix in their runtime names; neither can be resolved
// again by path in another process, so both are rejected.
func funcImportPath(fn Func) (string, error) {
	if fn == nil {
		return "", errors.Join(ErrInvalidTask, errors.New("task function must not be nil"))
	}
	rf := runtime.FuncForPC(reflect.ValueOf(fn).Pointer())
	if rf == nil {
		return "", errors.Join(ErrInvalidTask, errors.New("task function has no runtime symbol"))
	}
	path := rf.Name()
	if strings.HasSuffix(path, "-fm") || strings.Contains(path, ".func") {
		return "", errors.Join(ErrInvalidTask, errors.New("task function must be a globally addressable function"))
	}
	return path, nil
}

// shortFuncName returns the bare symbol name of an import path,
// e.g. "github.com/acme/app/jobs.SendEmail" -> "SendEmail".
func shortFuncName(path string) string {
	if i := strings.LastIndex(path, "."); i >= 0 {
		return path[i+1:]
	}
	return path
}
