package ecs

import (
	"github.com/frenes1/engy"

	"github.com/yohamta/donburi"
	"github.com/yohamta/donburi/features/events"
)

// EventType is the Donburi event type for engy input events.
var EventType = events.NewEventType[engy.Event]()

// NodeData links an entity to a scene node.
type NodeData struct {
	Node *engy.Node
}

// NodeComponent holds the node an entity was created for.
var NodeComponent = donburi.NewComponentType[NodeData]()

type donburiSink struct {
	world donburi.World
}

// NewDonburiSink creates an EventSink backed by a Donburi world. Events are
// published to EventType and consumed with events.Subscribe and
// ProcessEvents.
func NewDonburiSink(world donburi.World) engy.EventSink {
	return &donburiSink{world: world}
}

func (s *donburiSink) EmitEvent(e engy.Event) {
	EventType.Publish(s.world, e)
}

// NewWorldNode creates a node that processes every queued event of world on
// each update, and drops entities whose node has been destroyed.
func NewWorldNode(name string, world donburi.World) *engy.Node {
	n := engy.NewNode(name)
	n.OnUpdate = func(*engy.Node, *engy.Context, float64) error {
		events.ProcessAllEvents(world)
		Prune(world)
		return nil
	}
	return n
}

// Track creates an entity carrying NodeComponent for n.
func Track(world donburi.World, n *engy.Node) donburi.Entity {
	e := world.Create(NodeComponent)
	NodeComponent.SetValue(world.Entry(e), NodeData{Node: n})
	return e
}

// NodeOf returns the node linked to e, or nil.
func NodeOf(world donburi.World, e donburi.Entity) *engy.Node {
	if !world.Valid(e) {
		return nil
	}
	entry := world.Entry(e)
	if !entry.HasComponent(NodeComponent) {
		return nil
	}
	return NodeComponent.Get(entry).Node
}

// Prune removes every tracked entity whose node is destroyed and returns how
// many were removed.
func Prune(world donburi.World) int {
	var dead []donburi.Entity
	NodeComponent.Each(world, func(entry *donburi.Entry) {
		if n := NodeComponent.Get(entry).Node; n == nil || n.IsDestroyed() {
			dead = append(dead, entry.Entity())
		}
	})
	for _, e := range dead {
		world.Remove(e)
	}
	return len(dead)
}
