// Package ecs bridges engy into a [Donburi] world.
//
// [NewDonburiSink] publishes every event the App dispatches as a typed
// Donburi event; subscribe to [EventType] in your ECS systems to receive
// them. [NewWorldNode] is a node that flushes queued world events during the
// update phase, so subscribers run inside the game loop. [Track] links a node
// to an entity through [NodeComponent].
//
// Usage:
//
//	world := donburi.NewWorld()
//	app, _ := engy.NewApp(cfg, root, engy.WithEventSink(ecs.NewDonburiSink(world)))
//	root.AddChild(ecs.NewWorldNode("world", world))
//
// [Donburi]: https://github.com/yohamta/donburi
package ecs
