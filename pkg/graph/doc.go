// Package graph provides the node/link types derived from entities and the
// serialization types for rendered layouts.
//
// This package defines the canonical wire format for entitygraph's graph
// data, used for JSON files, API responses, caching and the render sinks.
//
// # Core Types
//
//   - [Graph]: Nodes, visible links and the ids of all primary nodes
//   - [Node]: Tagged union of primary and attribute nodes (see [Node.Category])
//   - [Link]: Directed edge labelled with the property key that produced it
//   - [Layout]: Positioned, styled nodes and links plus legend rows
//
// # Categories
//
// Primary nodes and the structural links between them carry the
// "non_attribute" category; attribute nodes and the links to them carry
// "attribute":
//
//	graph.CategoryNonAttribute  // "non_attribute"
//	graph.CategoryAttribute     // "attribute"
//
// # Graph Serialization
//
//	{
//	  "nodes": [{"id": "A", "category": "non_attribute"},
//	            {"id": "A_red", "category": "attribute", "key": "color", "value": "red"}],
//	  "links": [{"source": "A", "target": "A_red", "category": "attribute",
//	             "relationType": "color", "visible": true}],
//	  "primaryNodeIds": ["A"]
//	}
//
// Common operations:
//
//	g, _ := graph.ReadGraphFile("graph.json")
//	graph.WriteGraphFile(g, "output.json")
//	data, _ := graph.MarshalGraph(g)
//	parsed, _ := graph.UnmarshalGraph(data)
//
// # Concurrency
//
// All functions are safe for concurrent reads but not concurrent writes.
package graph
