// Package engy is a small node-based 2D engine for [Ebitengine], meant for
// simple games and prototypes.
//
// # Quick start
//
// Build a tree of nodes, wrap it in an [App] and call [App.Run], which opens
// a window and runs the game loop:
//
//	cfg, err := engy.LoadConfig("app.yaml")
//	if err != nil {
//		log.Fatal(err)
//	}
//	root := engy.NewNode2D("ROOT")
//	hero := engy.NewSprite("hero", "hero.png")
//	hero.SetPosition(100, 50)
//	root.AddChild(hero)
//
//	app, err := engy.NewApp(cfg, root)
//	if err != nil {
//		log.Fatal(err)
//	}
//	if err := app.Run(); err != nil {
//		log.Fatal(err)
//	}
//
// # Scene graph
//
// Every element is a [Node]. One flat struct serves all kinds; [NodeType]
// selects which fields matter. [NewNode] makes a plain node, [NewNode2D] adds
// a transform relative to the parent and [NewSprite] also draws a texture.
// Behavior is attached with the OnBuild, OnUpdate, OnRender and OnEvent
// callbacks, or bound from a value with [Node.SetBehavior].
//
// Each frame the App dispatches input events to [Node.HandleEvent], advances
// the tree with [Node.Update] and draws it with [Node.Render]. All phases run
// in pre-order: a node before its children, children in insertion order.
//
// # Context
//
// A [Context] travels through every phase. It is a store of dot-separated
// paths ("app.score") with typed accessors for the engine services:
// [Context.Screen], [Context.Resources], [Context.Logger] and
// [Context.Config]. Keys the App sets at startup are reserved.
//
// # Resources
//
// [ResourceManager] loads each image once, by path, and hands out the same
// [Resource] afterwards. Sprite sheets in TexturePacker JSON load through
// [ResourceManager.LoadAtlas].
//
// # Headless rendering
//
// [App.Step] and [App.RenderTo] drive the app without a window. Together with
// [ImageSurface] they make scenes testable pixel by pixel.
//
// Tweens (via [gween]) run through [Animator] nodes, and the ecs
// sub-package forwards events into a [Donburi] world.
//
// [Ebitengine]: https://ebitengine.org
// [gween]: https://github.com/tanema/gween
// [Donburi]: https://github.com/yohamta/donburi
package engy
