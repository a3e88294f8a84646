package transform_test

import (
	"fmt"

	"github.com/matzehuels/entitygraph/pkg/entity"
	"github.com/matzehuels/entitygraph/pkg/transform"
)

func Example() {
	entities, _ := entity.Parse([]byte(`[
		{"id": "Wheat", "properties": {"rotatesWith": "Clover", "license": "MIT"}},
		{"id": "Clover", "properties": {"license": "MIT"}}
	]`))

	g := transform.New().Transform(entities, nil)
	for _, n := range g.Nodes {
		fmt.Println("node", n.ID, n.Category)
	}
	for _, l := range g.Links {
		fmt.Println("link", l.Source, "->", l.Target, l.RelationType)
	}
	// Output:
	// node Wheat non_attribute
	// node Clover non_attribute
	// node Wheat_MIT attribute
	// node Clover_MIT attribute
	// link Wheat -> Clover rotatesWith
	// link Wheat -> Wheat_MIT license
	// link Clover -> Clover_MIT license
}

func ExampleTransformer_Transform_exclusions() {
	entities, _ := entity.Parse([]byte(`[
		{"id": "A", "properties": {"ref": "B", "color": "red"}},
		{"id": "B", "properties": {}}
	]`))

	t := transform.Transformer{ShowAttributes: true}
	g := t.Transform(entities, transform.ParseExclusions(" color , "))
	fmt.Println(len(g.Nodes), "nodes,", len(g.Links), "links")
	// Output:
	// 2 nodes, 0 links
}
