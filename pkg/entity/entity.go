// Package entity defines the input records that entitygraph turns into graphs.
//
// An [Entity] is an identifier plus an ordered list of key/value properties:
//
//	[
//	  {"id": "A", "properties": {"ref": "B", "color": "red"}},
//	  {"id": "B", "properties": {}}
//	]
//
// Older datasets name the identifier "pid"; it is accepted when "id" is
// absent. Property order follows the JSON object and is preserved, so every
// consumer that assigns colors or ids by first appearance is deterministic.
package entity

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
)

// TypeKey is the property whose text form is used as a primary node's type.
const TypeKey = "type"

// Property is a single key/value pair of an entity.
type Property struct {
	Key   string
	Value Value
}

// Properties is an ordered property map. Duplicate keys keep the position of
// the first occurrence and the value of the last.
type Properties []Property

// Get returns the value for key.
func (p Properties) Get(key string) (Value, bool) {
	for _, prop := range p {
		if prop.Key == key {
			return prop.Value, true
		}
	}
	return Value{}, false
}

// Set replaces the value for key, or appends it when absent.
func (p *Properties) Set(key string, v Value) {
	for i := range *p {
		if (*p)[i].Key == key {
			(*p)[i].Value = v
			return
		}
	}
	*p = append(*p, Property{Key: key, Value: v})
}

// Keys returns the property keys in order.
func (p Properties) Keys() []string {
	keys := make([]string, len(p))
	for i, prop := range p {
		keys[i] = prop.Key
	}
	return keys
}

// MarshalJSON writes the properties as a JSON object in order.
func (p Properties) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, prop := range p {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(prop.Key)
		if err != nil {
			return nil, err
		}
		val, err := prop.Value.MarshalJSON()
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON reads a JSON object keeping key order. A JSON null yields no
// properties.
func (p *Properties) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if tok == nil {
		*p = nil
		return nil
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("properties must be an object, got %v", tok)
	}

	var out Properties
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := tok.(string)
		if !ok {
			return fmt.Errorf("unexpected property key %v", tok)
		}
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return fmt.Errorf("property %q: %w", key, err)
		}
		var v Value
		if err := v.UnmarshalJSON(raw); err != nil {
			return fmt.Errorf("property %q: %w", key, err)
		}
		out.Set(key, v)
	}
	if _, err := dec.Token(); err != nil {
		return err
	}
	*p = out
	return nil
}

// Entity is one input record.
type Entity struct {
	ID         string     `json:"id"`
	Properties Properties `json:"properties"`
}

// Type returns the text of the entity's "type" property, or "" when unset.
func (e Entity) Type() string {
	if v, ok := e.Properties.Get(TypeKey); ok && v.Kind() != KindNull {
		return v.Text()
	}
	return ""
}

// UnmarshalJSON accepts "pid" as an alias for "id". A missing or null
// "properties" field yields an entity without properties.
func (e *Entity) UnmarshalJSON(data []byte) error {
	var aux struct {
		ID         *Value     `json:"id"`
		PID        *Value     `json:"pid"`
		Properties Properties `json:"properties"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	switch {
	case aux.ID != nil:
		e.ID = aux.ID.Text()
	case aux.PID != nil:
		e.ID = aux.PID.Text()
	default:
		e.ID = ""
	}
	e.Properties = aux.Properties
	return nil
}

// =============================================================================
// Decoding
// =============================================================================

// Parse decodes a JSON array of entities. Blank input yields no entities.
func Parse(data []byte) ([]Entity, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil
	}
	var out []Entity
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("decode entities: %w", err)
	}
	return out, nil
}

// Read decodes a JSON array of entities from r.
func Read(r io.Reader) ([]Entity, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read entities: %w", err)
	}
	return Parse(data)
}

// ReadFile decodes a JSON array of entities from a file.
func ReadFile(path string) ([]Entity, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return Parse(data)
}

// Marshal encodes entities as indented JSON.
func Marshal(entities []Entity) ([]byte, error) {
	if entities == nil {
		entities = []Entity{}
	}
	return json.MarshalIndent(entities, "", "  ")
}

// IDs returns the entity ids in input order.
func IDs(entities []Entity) []string {
	ids := make([]string, len(entities))
	for i, e := range entities {
		ids[i] = e.ID
	}
	return ids
}
