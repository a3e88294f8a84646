package transform

import "github.com/matzehuels/entitygraph/pkg/entity"

// DefaultEntities returns the built-in demo dataset: six digital object
// records, two pairs of which reference each other.
//
// It is a placeholder for empty input, not reference data.
func DefaultEntities() []entity.Entity {
	record := func(id string, kv ...string) entity.Entity {
		e := entity.Entity{ID: id}
		for i := 0; i+1 < len(kv); i += 2 {
			e.Properties = append(e.Properties, entity.Property{Key: kv[i], Value: entity.String(kv[i+1])})
		}
		return e
	}
	return []entity.Entity{
		record("21.11152/ba06424b",
			"profile", "KIP",
			"hasMetadata", "21.11152/ba06424b-17c7-4e3f-9a2e-8d09cf797be3",
			"digitalObjectType", "object",
			"digitalObjectLocation", "github",
			"license", "cc4",
			"checksum", "md5sum",
			"dateCreated", "24-04-2010",
			"dataModified", "24-04-2020",
		),
		record("21.11152/ba06424b-17c7-4e3f-9a2e-8d09cf797be3",
			"profile", "HMCProfile",
			"licence", "cc4",
			"digitalObjectType", "object",
			"digitalObjectLocation", "github",
			"isMetada", "21.11152/ba06424b",
			"checksum", "md5sum",
			"dateCreated", "24-04-2010",
			"dataModified", "24-04-2020",
		),
		record("21.11152/ba06424b-17c7-4e3f",
			"profile", "AachenProfile",
			"digitalObjectType", "object",
			"digitalObjectLocation", "github",
			"license", "cc4",
			"checksum", "md5sum",
			"dateCreated", "24-04-2010",
			"dataModified", "24-04-2020",
		),
		record("21.11152/dd01234b-22f8-4b2f-b66e-9a34df554a4f",
			"profile", "Data Analysis",
			"licence", "cc4",
			"digitalObjectType", "object",
			"digitalObjectLocation", "github",
			"checksum", "md5sum",
			"dateCreated", "24-04-2010",
			"dataModified", "24-04-2020",
		),
		record("21.11152/ee05678b-33c9",
			"profile", "AachenProfile",
			"hasMetadata", "21.11152/ee05678b-33c9-4b1f-a99f-1d62ef657abc",
			"digitalObjectType", "object",
			"digitalObjectLocation", "github",
			"license", "cc4",
			"checksum", "md5sum",
			"dateCreated", "24-04-2010",
			"dataModified", "24-04-2020",
		),
		record("21.11152/ee05678b-33c9-4b1f-a99f-1d62ef657abc",
			"profile", "HMCProfile",
			"licence", "MIT",
			"digitalObjectType", "object",
			"digitalObjectLocation", "github",
			"license", "cc4",
			"checksum", "md5sum",
			"dateCreated", "24-04-2010",
			"dataModified", "24-04-2020",
		),
	}
}

// OrDefault returns entities, or the demo dataset when entities is empty.
// The boolean reports whether the fallback was used.
func OrDefault(entities []entity.Entity) ([]entity.Entity, bool) {
	if len(entities) > 0 {
		return entities, false
	}
	return DefaultEntities(), true
}
