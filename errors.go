package engy

import (
	"errors"
	"fmt"
)

// Sentinel errors. Every error returned by the engine matches one of these
// with errors.Is.
var (
	ErrCycle         = errors.New("engy: node cycle")
	ErrDuplicateName = errors.New("engy: duplicate child name")
	ErrDestroyed     = errors.New("engy: node is destroyed")
	ErrNoCapability  = errors.New("engy: behavior implements no node capability")

	ErrKeyNotFound  = errors.New("engy: context key not found")
	ErrIllegalPath  = errors.New("engy: illegal context path")
	ErrReservedKey  = errors.New("engy: context key is reserved")
	ErrTypeMismatch = errors.New("engy: context value has unexpected type")

	ErrResourceLoad = errors.New("engy: resource load failed")

	ErrInvalidConfig = errors.New("engy: invalid config")
)

// NodeError reports a failed tree mutation or a failed phase callback.
type NodeError struct {
	Node string // path of the node the operation ran on
	Op   string // "add_child", "build", "update", "render", "handle_event", ...
	Err  error
}

func (e *NodeError) Error() string {
	return fmt.Sprintf("engy: %s on node %q: %v", e.Op, e.Node, e.Err)
}

func (e *NodeError) Unwrap() error { return e.Err }

// ContextError reports a failed context access.
type ContextError struct {
	Path string
	Op   string // "get", "set", "remove"
	Err  error
}

func (e *ContextError) Error() string {
	return fmt.Sprintf("engy: context %s %q: %v", e.Op, e.Path, e.Err)
}

func (e *ContextError) Unwrap() error { return e.Err }

// ResourceError reports an asset that could not be read or decoded. It
// matches both ErrResourceLoad and the underlying cause.
type ResourceError struct {
	Kind string // "image", "atlas"
	Path string
	Err  error
}

func (e *ResourceError) Error() string {
	return fmt.Sprintf("engy: load %s %q: %v", e.Kind, e.Path, e.Err)
}

func (e *ResourceError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrResourceLoad}
	}
	return []error{ErrResourceLoad, e.Err}
}
