// Package worldstate turns a raw Warframe world-state snapshot into a
// resolved, display-ready document.
//
// The package works in two passes:
//
//   - Parse: the PascalCase wire document is decoded into the Raw* tree.
//     Asset paths stay opaque strings, each one tagged with the strategy
//     that resolves it. Mongo dates and object ids are normalized here.
//     Every structural problem surfaces as a [*ParseError].
//   - Resolve: the Raw* tree is walked against a read-only [Context] built
//     from the public export manifests and the static translation tables.
//     Resolution is total. A missing lookup key degrades to the strategy's
//     fallback and never produces an error.
//
// A [Context] is immutable once [NewContext] returns it. Any number of
// goroutines may resolve snapshots against the same Context concurrently.
//
// The package performs no I/O. Building a Context from the network is the
// job of a [ContextProvider].
package worldstate
