// Package script embeds the dispatcher in a Lua interpreter.
//
// A Host owns one Lua state and one dispatcher and exposes the dispatch
// operations to scripts as the beacon module. Scripts address objects
// by name; the host interns a stable Go value per name, so Go code and
// scripts sharing a Host dispatch on the same objects:
//
//	beacon.on("doc", "saved", function(rev)
//		print("saved revision " .. rev)
//	end)
//	beacon.fire("doc", "saved", 3)
//
// Listener handles returned by on and once are Keyed identities, so
// distinct script closures never collide. Deferred fires return replay
// handles usable any number of times until discarded.
//
// A Lua state is not goroutine safe. Everything that can reach a
// scripted listener, including Go-side fires on a host's objects, must
// run on the goroutine that owns the Host.
package script
