package taskq

import "sync"

// Registry is the explicit configuration object shared by every component:
// a named mapping of backend aliases plus the set of registered tasks keyed
// by function path. It is built once at process start and passed by
// reference; there is no package-level global state.
type Registry struct {
	mu       sync.RWMutex
	backends map[string]Backend
	tasks    map[string]*Task
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		backends: make(map[string]Backend),
		tasks:    make(map[string]*Task),
	}
}

// AddBackend registers a backend under an alias.
func (r *Registry) AddBackend(alias string, backend Backend) error {
	if backend == nil {
		return ErrBackendNil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.backends[alias]; exists {
		return ErrBackendAlreadyRegistered
	}
	r.backends[alias] = backend
	return nil
}

// Backend resolves a backend alias. An unknown alias yields an
// *InvalidTaskBackendError naming the alias.
func (r *Registry) Backend(alias string) (Backend, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	backend, ok := r.backends[alias]
	if !ok {
		return nil, &InvalidTaskBackendError{Alias: alias}
	}
	return backend, nil
}

// New registers fn as a task and returns its immutable descriptor. The
// function must be globally addressable; anonymous functions, closures and
// method values are rejected with ErrInvalidTask.
func (r *Registry) New(fn Func, opts ...TaskOption) (*Task, error) {
	path, err := funcImportPath(fn)
	if err != nil {
		return nil, err
	}

	t := &Task{
		path:      path,
		name:      shortFuncName(path),
		queueName: DefaultQueueName,
		backend:   DefaultBackendAlias,
		fn:        fn,
		reg:       r,
	}
	for _, opt := range opts {
		if err := opt(t); err != nil {
			return nil, err
		}
	}
	if err := t.validate(); err != nil {
		return nil, err
	}
	// A bad default backend fails here, at registration, not at first enqueue.
	if _, err := r.Backend(t.backend); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.tasks[path]; exists {
		return nil, ErrTaskAlreadyRegistered
	}
	r.tasks[path] = t
	return t, nil
}

// Task resolves a stored function path back to its registered descriptor.
// Resolution is a pure lookup performed once per execution attempt and is
// never cached across processes.
func (r *Registry) Task(path string) (*Task, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tasks[path]
	if !ok {
		return nil, ErrTaskNotFound
	}
	return t, nil
}
