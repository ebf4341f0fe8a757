package engy

import (
	"fmt"
	"image"
	"log/slog"
	"strings"
)

// NodeType identifies the kind of a node. A single flat struct serves every
// kind; the type decides which field groups are meaningful.
type NodeType uint8

const (
	NodeTypeBase   NodeType = iota // plain tree node, no transform
	NodeType2D                     // position, rotation and scale
	NodeTypeSprite                 // 2D node that draws a texture
)

func (t NodeType) String() string {
	switch t {
	case NodeTypeBase:
		return "Node"
	case NodeType2D:
		return "Node2D"
	case NodeTypeSprite:
		return "Sprite"
	default:
		return fmt.Sprintf("NodeType(%d)", uint8(t))
	}
}

// NodeState is the lifecycle state of a node.
type NodeState uint8

const (
	StateUnattached NodeState = iota // never had a parent
	StateAttached                    // has a parent
	StateDetached                    // removed from its parent; may be attached again
	StateDestroyed                   // terminal
)

func (s NodeState) String() string {
	switch s {
	case StateUnattached:
		return "unattached"
	case StateAttached:
		return "attached"
	case StateDetached:
		return "detached"
	case StateDestroyed:
		return "destroyed"
	default:
		return fmt.Sprintf("NodeState(%d)", uint8(s))
	}
}

// --- Capabilities ---

// Builder is implemented by behaviors that prepare a node once, before its
// first update.
type Builder interface {
	Build(n *Node, ctx *Context) error
}

// Updater is implemented by behaviors that advance a node every frame.
// dt is the elapsed time in seconds.
type Updater interface {
	Update(n *Node, ctx *Context, dt float64) error
}

// Renderer is implemented by behaviors that draw a node.
type Renderer interface {
	Render(n *Node, ctx *Context, s Surface) error
}

// EventHandler is implemented by behaviors that react to input events.
type EventHandler interface {
	HandleEvent(n *Node, ctx *Context, e Event) error
}

// --- ID counter ---

// nodeIDCounter is a plain counter; the tree is only touched from the game loop.
var nodeIDCounter uint32

func nextNodeID() uint32 {
	nodeIDCounter++
	return nodeIDCounter
}

// attachCounter orders attachments; Node.attachSeq records the value at a
// node's most recent attach.
var attachCounter uint64

// --- Node ---

// Node is the fundamental scene graph element. Parents own their children;
// a child keeps a non-owning back-reference in Parent.
type Node struct {
	// Identity
	ID   uint32
	Name string
	Type NodeType

	// Hierarchy
	Parent   *Node
	children []*Node
	iter     []*Node // reused snapshot of children during traversal

	// Flags
	Active  bool // false skips every phase for the subtree
	Visible bool // false skips rendering for the subtree

	// Local state bag
	UserData any

	// Transform (NodeType2D, NodeTypeSprite)
	X, Y     float64
	Rotation float64 // radians, clockwise on screen
	ScaleX   float64
	ScaleY   float64

	// Texture (NodeTypeSprite)
	TexturePath   string      // relative to the images directory
	TextureOffset image.Point // top-left of the drawn region
	TextureSize   image.Point // zero components extend to the texture edge
	FlipH, FlipV  bool
	Opacity       float64
	Filter        Filter
	texture       *Resource

	// Behavior. Each callback receives the node it is attached to.
	OnBuild  func(n *Node, ctx *Context) error
	OnUpdate func(n *Node, ctx *Context, dt float64) error
	OnRender func(n *Node, ctx *Context, s Surface) error
	OnEvent  func(n *Node, ctx *Context, e Event) error

	state     NodeState
	built     bool
	attachSeq uint64
}

func nodeDefaults(n *Node) {
	n.ID = nextNodeID()
	n.Active = true
	n.Visible = true
	n.ScaleX = 1
	n.ScaleY = 1
	n.Opacity = 1
}

// NewNode creates a plain node with no transform.
func NewNode(name string) *Node {
	n := &Node{Name: name, Type: NodeTypeBase}
	nodeDefaults(n)
	return n
}

// NewNode2D creates a node with a 2D transform relative to its parent.
func NewNode2D(name string) *Node {
	n := &Node{Name: name, Type: NodeType2D}
	nodeDefaults(n)
	return n
}

// NewSprite creates a sprite drawing the image at texturePath. The texture is
// loaded when the node is built.
func NewSprite(name, texturePath string) *Node {
	n := &Node{Name: name, Type: NodeTypeSprite, TexturePath: texturePath}
	nodeDefaults(n)
	return n
}

// SetBehavior binds every capability b implements to the node's callbacks.
// It fails with ErrNoCapability when b implements none of Builder, Updater,
// Renderer or EventHandler.
func (n *Node) SetBehavior(b any) error {
	bound := false
	if v, ok := b.(Builder); ok {
		n.OnBuild = v.Build
		bound = true
	}
	if v, ok := b.(Updater); ok {
		n.OnUpdate = v.Update
		bound = true
	}
	if v, ok := b.(Renderer); ok {
		n.OnRender = v.Render
		bound = true
	}
	if v, ok := b.(EventHandler); ok {
		n.OnEvent = v.HandleEvent
		bound = true
	}
	if !bound {
		return &NodeError{Node: n.Path(), Op: "set_behavior", Err: fmt.Errorf("%w: %T", ErrNoCapability, b)}
	}
	return nil
}

// State returns the node's lifecycle state.
func (n *Node) State() NodeState { return n.state }

// IsDestroyed reports whether Destroy has been called on the node or one of
// its ancestors.
func (n *Node) IsDestroyed() bool { return n.state == StateDestroyed }

// IsBuilt reports whether the node's build phase has run.
func (n *Node) IsBuilt() bool { return n.built }

// Is2D reports whether the node carries a transform.
func (n *Node) Is2D() bool {
	return n.Type == NodeType2D || n.Type == NodeTypeSprite
}

// Logger returns the context logger tagged with the node path.
func (n *Node) Logger(ctx *Context) *slog.Logger {
	return ctx.Logger().With("node", n.Path())
}

// --- Tree manipulation ---

// AddChild appends child to this node's children. If child already has a
// parent it is removed from that parent first. It fails when child is this
// node or one of its ancestors, when a sibling already uses child's name, or
// when either node is destroyed.
func (n *Node) AddChild(child *Node) error {
	if child == nil {
		panic("engy: cannot add nil child")
	}
	if err := n.checkAdd(child, nil); err != nil {
		return err
	}
	n.attach(child)
	if globalDebug {
		debugCheckTreeDepth(Logger(), child)
		debugCheckChildCount(Logger(), n)
	}
	return nil
}

// checkAdd validates adding child. Names in taken are treated as used by
// siblings in addition to the current children.
func (n *Node) checkAdd(child *Node, taken map[string]struct{}) error {
	if n.state == StateDestroyed || child.state == StateDestroyed {
		return &NodeError{Node: n.Path(), Op: "add_child", Err: fmt.Errorf("%w: %q", ErrDestroyed, child.Name)}
	}
	if isAncestor(child, n) {
		return &NodeError{Node: n.Path(), Op: "add_child", Err: fmt.Errorf("%w: %q is an ancestor", ErrCycle, child.Name)}
	}
	if taken != nil {
		if _, dup := taken[child.Name]; dup {
			return &NodeError{Node: n.Path(), Op: "add_child", Err: fmt.Errorf("%w: %q", ErrDuplicateName, child.Name)}
		}
		return nil
	}
	if child.Parent == n {
		return nil
	}
	if n.Child(child.Name) != nil {
		return &NodeError{Node: n.Path(), Op: "add_child", Err: fmt.Errorf("%w: %q", ErrDuplicateName, child.Name)}
	}
	return nil
}

func (n *Node) attach(child *Node) {
	if child.Parent == n {
		return
	}
	if child.Parent != nil {
		child.Parent.removeChildByPtr(child)
	}
	child.Parent = n
	child.state = StateAttached
	attachCounter++
	child.attachSeq = attachCounter
	n.children = append(n.children, child)
}

// RemoveChild detaches child from this node. It is a no-op if child is not
// a child of this node. The removed subtree stays intact and can be attached
// elsewhere.
func (n *Node) RemoveChild(child *Node) {
	if child == nil || child.Parent != n {
		return
	}
	n.removeChildByPtr(child)
	child.Parent = nil
	if child.state != StateDestroyed {
		child.state = StateDetached
	}
}

// RemoveChildNamed detaches and returns the child called name, or nil.
func (n *Node) RemoveChildNamed(name string) *Node {
	child := n.Child(name)
	if child != nil {
		n.RemoveChild(child)
	}
	return child
}

// RemoveFromParent detaches this node from its parent.
// No-op if this node has no parent.
func (n *Node) RemoveFromParent() {
	if n.Parent == nil {
		return
	}
	n.Parent.RemoveChild(n)
}

// SetParent moves this node under parent; a nil parent detaches it.
func (n *Node) SetParent(parent *Node) error {
	if parent == nil {
		n.RemoveFromParent()
		return nil
	}
	return parent.AddChild(n)
}

// SetChildren replaces the children of this node. Every new child is
// validated before anything changes, so a failure leaves the tree as it was.
// Previous children not in the new list are detached.
func (n *Node) SetChildren(children ...*Node) error {
	taken := make(map[string]struct{}, len(children))
	for _, c := range children {
		if c == nil {
			panic("engy: cannot add nil child")
		}
		if err := n.checkAdd(c, taken); err != nil {
			return err
		}
		taken[c.Name] = struct{}{}
	}

	keep := make(map[*Node]struct{}, len(children))
	for _, c := range children {
		keep[c] = struct{}{}
	}
	for _, old := range n.children {
		if _, ok := keep[old]; !ok {
			old.Parent = nil
			old.state = StateDetached
		}
	}
	n.children = n.children[:0]
	for _, c := range children {
		if c.Parent != n {
			if c.Parent != nil {
				c.Parent.removeChildByPtr(c)
			}
			attachCounter++
			c.attachSeq = attachCounter
		}
		c.Parent = n
		c.state = StateAttached
		n.children = append(n.children, c)
	}
	if globalDebug {
		debugCheckChildCount(Logger(), n)
	}
	return nil
}

// Children returns the child list. The returned slice MUST NOT be mutated by the caller.
func (n *Node) Children() []*Node {
	return n.children
}

// NumChildren returns the number of children.
func (n *Node) NumChildren() int {
	return len(n.children)
}

// ChildAt returns the child at the given index.
func (n *Node) ChildAt(index int) *Node {
	return n.children[index]
}

// Child returns the direct child called name, or nil.
func (n *Node) Child(name string) *Node {
	for _, c := range n.children {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// GetNode resolves a slash-separated path relative to this node. ".." steps
// to the parent and a leading "/" starts from the root. It returns nil when
// any segment is missing.
func (n *Node) GetNode(path string) *Node {
	cur := n
	if strings.HasPrefix(path, "/") {
		cur = n.Root()
		path = strings.TrimLeft(path, "/")
	}
	if path == "" {
		return cur
	}
	for _, seg := range strings.Split(path, "/") {
		switch seg {
		case "", ".":
			continue
		case "..":
			cur = cur.Parent
		default:
			cur = cur.Child(seg)
		}
		if cur == nil {
			return nil
		}
	}
	return cur
}

// Root returns the topmost ancestor of this node.
func (n *Node) Root() *Node {
	r := n
	for r.Parent != nil {
		r = r.Parent
	}
	return r
}

// Path returns the slash-separated names from the root down to this node.
// It is recomputed on each call so renames and moves are always reflected.
func (n *Node) Path() string {
	if n.Parent == nil {
		return n.Name
	}
	return n.Parent.Path() + "/" + n.Name
}

// FindByID returns the node with the given ID in this subtree, or nil.
func (n *Node) FindByID(id uint32) *Node {
	var found *Node
	n.Walk(func(c *Node) bool {
		if c.ID == id {
			found = c
		}
		return found == nil
	})
	return found
}

// Walk visits the subtree in pre-order. Returning false from fn skips the
// visited node's children.
func (n *Node) Walk(fn func(*Node) bool) {
	if !fn(n) {
		return
	}
	for _, c := range n.children {
		c.Walk(fn)
	}
}

// String renders the subtree, one node per line, indented by depth.
func (n *Node) String() string {
	var b strings.Builder
	n.dump(&b, 0)
	return strings.TrimSuffix(b.String(), "\n")
}

func (n *Node) dump(b *strings.Builder, depth int) {
	fmt.Fprintf(b, "%s%s (%s #%d", strings.Repeat("  ", depth), n.Name, n.Type, n.ID)
	if !n.Active {
		b.WriteString(", inactive")
	}
	if !n.Visible {
		b.WriteString(", hidden")
	}
	b.WriteString(")\n")
	for _, c := range n.children {
		c.dump(b, depth+1)
	}
}

// --- Destruction ---

// Destroy removes this node from its parent and marks it and every
// descendant as destroyed. Destroyed nodes can no longer join a tree.
func (n *Node) Destroy() {
	if n.state == StateDestroyed {
		return
	}
	n.RemoveFromParent()
	n.destroy()
}

func (n *Node) destroy() {
	n.state = StateDestroyed
	for _, child := range n.children {
		child.Parent = nil
		child.destroy()
	}
	n.children = nil
	n.iter = nil
	n.texture = nil
	n.UserData = nil
	n.OnBuild = nil
	n.OnUpdate = nil
	n.OnRender = nil
	n.OnEvent = nil
}

// --- Phases ---

// Build runs the build phase over the subtree in pre-order. Each node is
// built once; sprites load their texture here.
func (n *Node) Build(ctx *Context) error {
	if !n.Active {
		return nil
	}
	if err := n.build(ctx); err != nil {
		return err
	}
	return n.eachChild(func(c *Node) error { return c.Build(ctx) })
}

func (n *Node) build(ctx *Context) error {
	if n.built {
		return nil
	}
	if n.Type == NodeTypeSprite {
		if err := n.syncTexture(ctx); err != nil {
			return &NodeError{Node: n.Path(), Op: "build", Err: err}
		}
	}
	if n.OnBuild != nil {
		if err := n.OnBuild(n, ctx); err != nil {
			return &NodeError{Node: n.Path(), Op: "build", Err: err}
		}
	}
	n.built = true
	return nil
}

// Update advances the subtree by dt seconds in pre-order. Nodes attached
// since the last build are built first.
func (n *Node) Update(ctx *Context, dt float64) error {
	if !n.Active {
		return nil
	}
	if err := n.build(ctx); err != nil {
		return err
	}
	if n.OnUpdate != nil {
		if err := n.OnUpdate(n, ctx, dt); err != nil {
			return &NodeError{Node: n.Path(), Op: "update", Err: err}
		}
	}
	return n.eachChild(func(c *Node) error { return c.Update(ctx, dt) })
}

// Render draws the subtree onto s in pre-order, so children appear on top of
// their parent. Nodes attached after the last update are built first.
func (n *Node) Render(ctx *Context, s Surface) error {
	if !n.Active || !n.Visible {
		return nil
	}
	if err := n.build(ctx); err != nil {
		return err
	}
	if n.Type == NodeTypeSprite {
		if err := n.drawSprite(ctx, s); err != nil {
			return &NodeError{Node: n.Path(), Op: "render", Err: err}
		}
	}
	if n.OnRender != nil {
		if err := n.OnRender(n, ctx, s); err != nil {
			return &NodeError{Node: n.Path(), Op: "render", Err: err}
		}
	}
	return n.eachChild(func(c *Node) error { return c.Render(ctx, s) })
}

// HandleEvent dispatches e to the subtree in pre-order. Unbuilt nodes are
// built before they see the event.
func (n *Node) HandleEvent(ctx *Context, e Event) error {
	if !n.Active {
		return nil
	}
	if err := n.build(ctx); err != nil {
		return err
	}
	if n.OnEvent != nil {
		if err := n.OnEvent(n, ctx, e); err != nil {
			return &NodeError{Node: n.Path(), Op: "handle_event", Err: err}
		}
	}
	return n.eachChild(func(c *Node) error { return c.HandleEvent(ctx, e) })
}

// eachChild calls fn on a snapshot of the children, so callbacks may add or
// remove nodes. Children removed from this node before their turn are
// skipped, and so are children attached during the pass, even when they
// were removed and re-added at a new position. Both are visited next pass.
func (n *Node) eachChild(fn func(*Node) error) error {
	if len(n.children) == 0 {
		return nil
	}
	pass := attachCounter
	snapshot := append(n.iter[:0], n.children...)
	n.iter = nil
	defer func() {
		clear(snapshot)
		n.iter = snapshot[:0]
	}()
	for _, c := range snapshot {
		if c.Parent != n || c.attachSeq > pass {
			continue
		}
		if err := fn(c); err != nil {
			return err
		}
	}
	return nil
}

// --- Helpers ---

// isAncestor reports whether candidate is node or an ancestor of node.
func isAncestor(candidate, node *Node) bool {
	for p := node; p != nil; p = p.Parent {
		if p == candidate {
			return true
		}
	}
	return false
}

// removeChildByPtr removes child from n.children without clearing child.Parent.
func (n *Node) removeChildByPtr(child *Node) {
	for i, c := range n.children {
		if c == child {
			copy(n.children[i:], n.children[i+1:])
			n.children[len(n.children)-1] = nil
			n.children = n.children[:len(n.children)-1]
			return
		}
	}
}
