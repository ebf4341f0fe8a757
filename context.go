package engy

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"
)

// Reserved context keys. The App populates them once before the tree is
// built; they can be read by any node but never removed or replaced.
const (
	KeyAppName   = "metadata.app_name"
	KeyScreen    = "app.screen"
	KeyResources = "app.resource_manager"
	KeyLogger    = "app.logger"
	KeyConfig    = "app.config"
)

// Context is the shared state handed to every node phase. Values are stored
// in nested mappings addressed by dot-separated paths ("app.screen"), and the
// engine services have typed accessors on top of the same store.
//
// A Context is not safe for concurrent use; it is only touched from the
// game loop.
type Context struct {
	data     map[string]any
	reserved map[string]struct{}
}

// NewContext creates an empty context.
func NewContext() *Context {
	return &Context{
		data:     make(map[string]any),
		reserved: make(map[string]struct{}),
	}
}

// Get returns the value stored at path. A mapping is returned as a copy;
// changes to the store go through Set and Remove.
func (c *Context) Get(path string) (any, error) {
	keys, err := splitPath(path)
	if err != nil {
		return nil, &ContextError{Path: path, Op: "get", Err: err}
	}
	parent, err := c.walk(keys[:len(keys)-1], false)
	if err != nil {
		return nil, &ContextError{Path: path, Op: "get", Err: err}
	}
	v, ok := parent[keys[len(keys)-1]]
	if !ok {
		return nil, &ContextError{Path: path, Op: "get", Err: ErrKeyNotFound}
	}
	if m, ok := v.(map[string]any); ok {
		return copyMapping(m), nil
	}
	return v, nil
}

func copyMapping(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		if sub, ok := v.(map[string]any); ok {
			v = copyMapping(sub)
		}
		out[k] = v
	}
	return out
}

// Lookup is Get without the error detail.
func (c *Context) Lookup(path string) (any, bool) {
	v, err := c.Get(path)
	return v, err == nil
}

// Has reports whether a value is stored at path.
func (c *Context) Has(path string) bool {
	_, ok := c.Lookup(path)
	return ok
}

// Set stores value at path, creating intermediate mappings as needed.
func (c *Context) Set(path string, value any) error {
	keys, err := splitPath(path)
	if err != nil {
		return &ContextError{Path: path, Op: "set", Err: err}
	}
	if c.touchesReserved(path) {
		return &ContextError{Path: path, Op: "set", Err: ErrReservedKey}
	}
	return c.set(path, keys, value)
}

// Remove deletes the value at path and returns it.
func (c *Context) Remove(path string) (any, error) {
	keys, err := splitPath(path)
	if err != nil {
		return nil, &ContextError{Path: path, Op: "remove", Err: err}
	}
	if c.touchesReserved(path) {
		return nil, &ContextError{Path: path, Op: "remove", Err: ErrReservedKey}
	}
	parent, err := c.walk(keys[:len(keys)-1], false)
	if err != nil {
		return nil, &ContextError{Path: path, Op: "remove", Err: err}
	}
	last := keys[len(keys)-1]
	v, ok := parent[last]
	if !ok {
		return nil, &ContextError{Path: path, Op: "remove", Err: ErrKeyNotFound}
	}
	delete(parent, last)
	return v, nil
}

// reserve stores value at path and marks the path as reserved. Only the App
// calls it, during startup.
func (c *Context) reserve(path string, value any) error {
	keys, err := splitPath(path)
	if err != nil {
		return &ContextError{Path: path, Op: "set", Err: err}
	}
	if err := c.set(path, keys, value); err != nil {
		return err
	}
	c.reserved[path] = struct{}{}
	return nil
}

func (c *Context) set(path string, keys []string, value any) error {
	parent, err := c.walk(keys[:len(keys)-1], true)
	if err != nil {
		return &ContextError{Path: path, Op: "set", Err: err}
	}
	parent[keys[len(keys)-1]] = value
	return nil
}

// walk descends through keys and returns the mapping they lead to. With
// create set, missing mappings are added on the way.
func (c *Context) walk(keys []string, create bool) (map[string]any, error) {
	cur := c.data
	for _, k := range keys {
		next, ok := cur[k]
		if !ok {
			if !create {
				return nil, ErrKeyNotFound
			}
			m := make(map[string]any)
			cur[k] = m
			cur = m
			continue
		}
		m, ok := next.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("%w: %q is not a mapping", ErrIllegalPath, k)
		}
		cur = m
	}
	return cur, nil
}

// touchesReserved reports whether path is a reserved key or an ancestor of one.
func (c *Context) touchesReserved(path string) bool {
	for r := range c.reserved {
		if r == path || strings.HasPrefix(r, path+".") {
			return true
		}
	}
	return false
}

func splitPath(path string) ([]string, error) {
	if path == "" {
		return nil, ErrIllegalPath
	}
	keys := strings.Split(path, ".")
	for _, k := range keys {
		if k == "" {
			return nil, ErrIllegalPath
		}
	}
	return keys, nil
}

// ContextValue returns the value at path as a T.
func ContextValue[T any](c *Context, path string) (T, error) {
	var zero T
	v, err := c.Get(path)
	if err != nil {
		return zero, err
	}
	t, ok := v.(T)
	if !ok {
		return zero, &ContextError{Path: path, Op: "get", Err: fmt.Errorf("%w: got %T", ErrTypeMismatch, v)}
	}
	return t, nil
}

// --- Typed service accessors ---

// Screen returns the surface the current frame renders to, or nil before the
// App has registered one.
func (c *Context) Screen() Surface {
	s, _ := ContextValue[Surface](c, KeyScreen)
	return s
}

// Resources returns the App's resource manager, or nil if none is registered.
func (c *Context) Resources() *ResourceManager {
	rm, _ := ContextValue[*ResourceManager](c, KeyResources)
	return rm
}

// Logger returns the App logger, falling back to the package logger.
func (c *Context) Logger() *slog.Logger {
	if l, err := ContextValue[*slog.Logger](c, KeyLogger); err == nil && l != nil {
		return l
	}
	return Logger()
}

// AppName returns the running application's name.
func (c *Context) AppName() string {
	name, _ := ContextValue[string](c, KeyAppName)
	return name
}

// Config returns the running application's configuration.
func (c *Context) Config() Config {
	cfg, err := ContextValue[Config](c, KeyConfig)
	if err != nil {
		return DefaultConfig()
	}
	return cfg
}

// String lists every leaf value, sorted by path.
func (c *Context) String() string {
	var lines []string
	flattenContext("", c.data, &lines)
	sort.Strings(lines)
	var b strings.Builder
	b.WriteString("Context {")
	for _, l := range lines {
		b.WriteString("\n  ")
		b.WriteString(l)
	}
	b.WriteString("\n}")
	return b.String()
}

func flattenContext(prefix string, m map[string]any, out *[]string) {
	for k, v := range m {
		p := k
		if prefix != "" {
			p = prefix + "." + k
		}
		if sub, ok := v.(map[string]any); ok {
			flattenContext(p, sub, out)
			continue
		}
		*out = append(*out, fmt.Sprintf("%s: %v", p, v))
	}
}
