package engy

import (
	"errors"
	"log/slog"
	"strings"
	"testing"
)

func TestContextSetGet(t *testing.T) {
	c := NewContext()
	if err := c.Set("game.score", 10); err != nil {
		t.Fatal(err)
	}
	v, err := c.Get("game.score")
	if err != nil {
		t.Fatal(err)
	}
	if v != 10 {
		t.Errorf("Get = %v, want 10", v)
	}

	// Intermediate mappings are created on the way.
	sub, err := c.Get("game")
	if err != nil {
		t.Fatal(err)
	}
	if m, ok := sub.(map[string]any); !ok || m["score"] != 10 {
		t.Errorf("Get(game) = %#v", sub)
	}

	if err := c.Set("game.score", 20); err != nil {
		t.Fatal(err)
	}
	if v, _ := c.Get("game.score"); v != 20 {
		t.Errorf("overwritten value = %v, want 20", v)
	}
}

func TestContextMissing(t *testing.T) {
	c := NewContext()
	_ = c.Set("a.b", 1)
	for _, p := range []string{"x", "a.c", "x.y.z"} {
		_, err := c.Get(p)
		if !errors.Is(err, ErrKeyNotFound) {
			t.Errorf("Get(%q) err = %v, want ErrKeyNotFound", p, err)
		}
		var cerr *ContextError
		if !errors.As(err, &cerr) || cerr.Path != p || cerr.Op != "get" {
			t.Errorf("Get(%q) err = %#v", p, err)
		}
	}
	if c.Has("x") {
		t.Error("Has(x) = true")
	}
	if _, ok := c.Lookup("a.b"); !ok {
		t.Error("Lookup(a.b) = false")
	}
}

func TestContextIllegalPath(t *testing.T) {
	c := NewContext()
	_ = c.Set("leaf", 1)
	tests := []string{"", ".", "a..b", "a.", ".a"}
	for _, p := range tests {
		if err := c.Set(p, 1); !errors.Is(err, ErrIllegalPath) {
			t.Errorf("Set(%q) err = %v, want ErrIllegalPath", p, err)
		}
		if _, err := c.Get(p); !errors.Is(err, ErrIllegalPath) {
			t.Errorf("Get(%q) err = %v, want ErrIllegalPath", p, err)
		}
	}
	// A leaf value cannot be descended into.
	if err := c.Set("leaf.child", 2); !errors.Is(err, ErrIllegalPath) {
		t.Errorf("Set through leaf err = %v, want ErrIllegalPath", err)
	}
	if _, err := c.Get("leaf.child"); !errors.Is(err, ErrIllegalPath) {
		t.Errorf("Get through leaf err = %v, want ErrIllegalPath", err)
	}
}

func TestContextRemove(t *testing.T) {
	c := NewContext()
	_ = c.Set("a.b", "x")
	v, err := c.Remove("a.b")
	if err != nil || v != "x" {
		t.Fatalf("Remove = %v, %v", v, err)
	}
	if c.Has("a.b") {
		t.Error("a.b still present")
	}
	if !c.Has("a") {
		t.Error("parent mapping should remain")
	}
	if _, err := c.Remove("a.b"); !errors.Is(err, ErrKeyNotFound) {
		t.Errorf("second Remove err = %v, want ErrKeyNotFound", err)
	}
}

func TestContextReserved(t *testing.T) {
	c := NewContext()
	if err := c.reserve(KeyAppName, "demo"); err != nil {
		t.Fatal(err)
	}
	for _, p := range []string{KeyAppName, "metadata"} {
		if err := c.Set(p, "other"); !errors.Is(err, ErrReservedKey) {
			t.Errorf("Set(%q) err = %v, want ErrReservedKey", p, err)
		}
		if _, err := c.Remove(p); !errors.Is(err, ErrReservedKey) {
			t.Errorf("Remove(%q) err = %v, want ErrReservedKey", p, err)
		}
	}
	if c.AppName() != "demo" {
		t.Errorf("AppName = %q, want demo", c.AppName())
	}

	// Siblings of a reserved key stay writable.
	if err := c.Set("metadata.version", "1.0"); err != nil {
		t.Errorf("Set sibling: %v", err)
	}
	// A prefix that is not a path ancestor is unaffected.
	if err := c.Set("meta", 1); err != nil {
		t.Errorf("Set(meta): %v", err)
	}
}

func TestContextGetMappingIsCopy(t *testing.T) {
	c := NewContext()
	rm := NewResourceManager(nil)
	if err := c.reserve(KeyResources, rm); err != nil {
		t.Fatal(err)
	}
	_ = c.Set("game.level.name", "intro")

	v, err := c.Get("app")
	if err != nil {
		t.Fatal(err)
	}
	delete(v.(map[string]any), "resource_manager")
	if c.Resources() != rm {
		t.Error("deleting from a returned mapping removed a reserved key")
	}
	if !c.Has(KeyResources) {
		t.Errorf("Has(%q) = false after editing a returned mapping", KeyResources)
	}

	v, _ = c.Get("game")
	v.(map[string]any)["level"].(map[string]any)["name"] = "changed"
	if got, _ := c.Get("game.level.name"); got != "intro" {
		t.Errorf("game.level.name = %v, want intro", got)
	}
}

func TestContextValue(t *testing.T) {
	c := NewContext()
	_ = c.Set("n", 3)

	n, err := ContextValue[int](c, "n")
	if err != nil || n != 3 {
		t.Errorf("ContextValue[int] = %v, %v", n, err)
	}
	s, err := ContextValue[string](c, "n")
	if !errors.Is(err, ErrTypeMismatch) {
		t.Errorf("err = %v, want ErrTypeMismatch", err)
	}
	if s != "" {
		t.Errorf("mismatch value = %q, want zero", s)
	}
	if _, err := ContextValue[int](c, "missing"); !errors.Is(err, ErrKeyNotFound) {
		t.Errorf("err = %v, want ErrKeyNotFound", err)
	}
}

func TestContextServiceFallbacks(t *testing.T) {
	c := NewContext()
	if c.Screen() != nil {
		t.Error("Screen should be nil when unset")
	}
	if c.Resources() != nil {
		t.Error("Resources should be nil when unset")
	}
	if c.Logger() != Logger() {
		t.Error("Logger should fall back to the package logger")
	}
	if c.Config() != DefaultConfig() {
		t.Error("Config should fall back to DefaultConfig")
	}

	l := slog.New(slog.DiscardHandler)
	_ = c.reserve(KeyLogger, l)
	if c.Logger() != l {
		t.Error("Logger should return the registered logger")
	}
	s := NewImageSurface(4, 4)
	_ = c.reserve(KeyScreen, Surface(s))
	if c.Screen() != s {
		t.Error("Screen should return the registered surface")
	}
}

func TestContextString(t *testing.T) {
	c := NewContext()
	_ = c.Set("b.y", 2)
	_ = c.Set("a", 1)
	_ = c.Set("b.x", "s")
	want := "Context {\n  a: 1\n  b.x: s\n  b.y: 2\n}"
	if got := c.String(); got != want {
		t.Errorf("String =\n%s\nwant\n%s", got, want)
	}
	if !strings.HasPrefix(NewContext().String(), "Context {") {
		t.Error("empty String should still have the header")
	}
}
