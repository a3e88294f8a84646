// Package pkg provides the libraries behind entitygraph.
//
// # Overview
//
// entitygraph turns a list of entities into a force-directed graph. Every
// entity becomes a primary node, every distinct property value becomes an
// attribute node linked to its entity, and properties that name another
// entity become structural links between primary nodes. The packages are
// organized into four areas:
//
//  1. Domain: [entity], [transform], [style], [force], [interaction]
//  2. Serialization: [graph]
//  3. Output: [render/sink], [render/nodelink], [render]
//  4. Infrastructure: [pipeline], [cache], [store], [server], [observability]
//
// # Architecture
//
// The typical data flow:
//
//	Entity JSON + style configurations
//	         ↓
//	    [transform] package (primary nodes, attribute nodes, links)
//	         ↓
//	    [style] package (colors, radii, legend)
//	         ↓
//	    [force] package (simulation until alpha cools)
//	         ↓
//	    HTML/SVG/PNG/PDF/JSON/DOT output
//
// # Quick Start
//
//	import (
//	    "github.com/matzehuels/entitygraph/pkg/pipeline"
//	    "github.com/matzehuels/entitygraph/pkg/render/sink"
//	)
//
//	opts := pipeline.DefaultOptions()
//	opts.Data = `[{"id": "Wheat", "properties": {"license": "MIT"}}]`
//	opts.Size = "800px,600px"
//
//	l, _, err := pipeline.BuildLayout(ctx, opts)
//	if err != nil {
//	    return err
//	}
//	svg := sink.RenderSVG(l, sink.WithLabels())
//
// # Main Packages
//
// [entity] - Entities with ordered properties. Property values keep their
// JSON kind (string, number, bool, null) and are compared by their text.
//
// [transform] - Derives nodes and links from entities, honouring excluded
// property keys and the visibility toggles. Empty input falls back to a
// demo dataset.
//
// [style] - Style configurations: node colors by type or attribute key,
// legend rows, and the default palette.
//
// [force] - A deterministic velocity Verlet simulation with link, charge and
// position forces. Nodes can be pinned while dragged.
//
// [interaction] - Hover, click and drag state for a settled layout: which
// nodes and links are highlighted or faded, and where the tooltip is.
//
// [graph] - Serialization types for graphs and positioned layouts.
//
// [pipeline] - Transform, layout and render shared by the CLI and the server,
// with layout and artifact caching.
//
// [cache] - File, Redis and null caches keyed by content hashes.
//
// [store] - Dataset persistence in memory, on disk or in MongoDB.
//
// [server] - HTTP views, rendered artifacts, dataset CRUD and live updates
// over websockets.
//
// # Testing
//
//	go test ./pkg/...
//	go test -run Example ./pkg/...
//
// [entity]: https://pkg.go.dev/github.com/matzehuels/entitygraph/pkg/entity
// [transform]: https://pkg.go.dev/github.com/matzehuels/entitygraph/pkg/transform
// [style]: https://pkg.go.dev/github.com/matzehuels/entitygraph/pkg/style
// [force]: https://pkg.go.dev/github.com/matzehuels/entitygraph/pkg/force
// [interaction]: https://pkg.go.dev/github.com/matzehuels/entitygraph/pkg/interaction
// [graph]: https://pkg.go.dev/github.com/matzehuels/entitygraph/pkg/graph
// [render]: https://pkg.go.dev/github.com/matzehuels/entitygraph/pkg/render
// [render/sink]: https://pkg.go.dev/github.com/matzehuels/entitygraph/pkg/render/sink
// [render/nodelink]: https://pkg.go.dev/github.com/matzehuels/entitygraph/pkg/render/nodelink
// [pipeline]: https://pkg.go.dev/github.com/matzehuels/entitygraph/pkg/pipeline
// [cache]: https://pkg.go.dev/github.com/matzehuels/entitygraph/pkg/cache
// [store]: https://pkg.go.dev/github.com/matzehuels/entitygraph/pkg/store
// [server]: https://pkg.go.dev/github.com/matzehuels/entitygraph/pkg/server
// [observability]: https://pkg.go.dev/github.com/matzehuels/entitygraph/pkg/observability
package pkg
