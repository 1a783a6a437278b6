package scene

import (
	"errors"

	"github.com/google/uuid"
)

// DisposeFunc releases backend state attached to a resource.
type DisposeFunc func() error

// resource is embedded by every GPU-backed scene object. The ID keys backend
// caches; dispose hooks are registered by the backend when it uploads the object.
type resource struct {
	id       uuid.UUID
	disposed bool
	hooks    []DisposeFunc
}

func newResource() resource {
	return resource{id: uuid.New()}
}

func (r *resource) ID() uuid.UUID { return r.id }

func (r *resource) Disposed() bool { return r.disposed }

// OnDispose registers fn to run when the resource is disposed. Hooks added
// after disposal run immediately.
func (r *resource) OnDispose(fn DisposeFunc) {
	if r.disposed {
		_ = fn()
		return
	}
	r.hooks = append(r.hooks, fn)
}

// Dispose marks the resource released and runs its hooks once. Calling it
// again is a no-op.
func (r *resource) Dispose() error {
	if r.disposed {
		return nil
	}
	r.disposed = true
	hooks := r.hooks
	r.hooks = nil
	var errs []error
	for _, fn := range hooks {
		if err := fn(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Disposable is implemented by meshes, materials, textures and point clouds.
type Disposable interface {
	ID() uuid.UUID
	Disposed() bool
	OnDispose(fn DisposeFunc)
	Dispose() error
}
