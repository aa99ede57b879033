// Code specific to hydrating from and dehydrating to YAML.
package yaml

import (
	"errors"
	"fmt"
	"math"
	"strconv"

	yamlv3 "gopkg.in/yaml.v3"

	"github.com/pasqal-io/gohydrate/hydrate/internal"
	"github.com/pasqal-io/gohydrate/hydrate/shared"
)

// The hydration driver for YAML.
type Driver struct{}

func (Driver) Name() string {
	return "yaml"
}

func (Driver) Decode(buf []byte) (*shared.Record, error) {
	return Decode(buf)
}

func (Driver) Encode(record *shared.Record) ([]byte, error) {
	return Encode(record)
}

var _ shared.Driver = Driver{}

// The maximal depth of alias expansion, to protect against documents
// that alias themselves.
const maxAliasDepth = 64

// The number of values a document may decode into is bounded by
// `minValueBudget + valuesPerByte * len(document)`, so that aliases cannot
// expand a small document into a huge record.
const (
	minValueBudget = 10_000
	valuesPerByte  = 100
)

// Decoding state for one document.
type decoder struct {
	// The number of values we may still produce.
	budget int
}

// Decode a YAML document whose top-level value is a mapping.
//
// Mapping order is preserved. Scalars are resolved with the YAML 1.2 core
// schema: `!!int` becomes `int64`, `!!float` `float64`, `!!bool` `bool`,
// `!!null` `nil`, everything else a `string`.
func Decode(buf []byte) (*shared.Record, error) {
	var document yamlv3.Node
	if err := yamlv3.Unmarshal(buf, &document); err != nil {
		return nil, fmt.Errorf("invalid yaml value:\n\t * %w", err)
	}
	if document.Kind == 0 {
		return nil, errors.New("expected a yaml mapping, got an empty document")
	}
	state := &decoder{budget: minValueBudget + valuesPerByte*len(buf)}
	value, err := state.decodeNode(&document, 0)
	if err != nil {
		return nil, fmt.Errorf("invalid yaml value:\n\t * %w", err)
	}
	record, ok := value.(*shared.Record)
	if !ok {
		return nil, fmt.Errorf("expected a yaml mapping, got %T", value)
	}
	return record, nil
}

// Encode a record as a YAML document, in key order.
func Encode(record *shared.Record) ([]byte, error) {
	node, err := encodeValue(record)
	if err != nil {
		return nil, err
	}
	buf, err := yamlv3.Marshal(node)
	if err != nil {
		return nil, fmt.Errorf("failed to encode record:\n\t * %w", err)
	}
	return buf, nil
}

func (d *decoder) decodeNode(node *yamlv3.Node, depth int) (any, error) {
	d.budget--
	if d.budget < 0 {
		return nil, fmt.Errorf("line %d: document expands into too many values", node.Line)
	}
	switch node.Kind {
	case yamlv3.DocumentNode:
		if len(node.Content) == 0 {
			return nil, nil
		}
		return d.decodeNode(node.Content[0], depth)
	case yamlv3.AliasNode:
		if depth >= maxAliasDepth {
			return nil, fmt.Errorf("line %d: aliases nested too deeply", node.Line)
		}
		return d.decodeNode(node.Alias, depth+1)
	case yamlv3.MappingNode:
		record := shared.NewRecord()
		for i := 0; i+1 < len(node.Content); i += 2 {
			keyNode, valueNode := node.Content[i], node.Content[i+1]
			if keyNode.Kind != yamlv3.ScalarNode {
				return nil, fmt.Errorf("line %d: only scalar keys are supported", keyNode.Line)
			}
			if keyNode.ShortTag() == "!!merge" {
				if err := d.mergeInto(record, valueNode, depth); err != nil {
					return nil, err
				}
				continue
			}
			value, err := d.decodeNode(valueNode, depth)
			if err != nil {
				return nil, fmt.Errorf("at %s:\n\t * %w", keyNode.Value, err)
			}
			record.Set(keyNode.Value, value)
		}
		return record, nil
	case yamlv3.SequenceNode:
		result := make([]any, 0, len(node.Content))
		for i, item := range node.Content {
			value, err := d.decodeNode(item, depth)
			if err != nil {
				return nil, fmt.Errorf("at [%d]:\n\t * %w", i, err)
			}
			result = append(result, value)
		}
		return result, nil
	case yamlv3.ScalarNode:
		return decodeScalar(node)
	default:
		return nil, fmt.Errorf("line %d: unsupported yaml node", node.Line)
	}
}

// Apply a `<<: *anchor` merge key. Keys already present win.
func (d *decoder) mergeInto(record *shared.Record, node *yamlv3.Node, depth int) error {
	value, err := d.decodeNode(node, depth)
	if err != nil {
		return err
	}
	sources := []any{value}
	if sequence, ok := value.([]any); ok {
		sources = sequence
	}
	for _, source := range sources {
		merged, ok := source.(*shared.Record)
		if !ok {
			return fmt.Errorf("line %d: merge key expects a mapping", node.Line)
		}
		merged.Each(func(key string, value any) bool {
			if _, exists := record.Lookup(key); !exists {
				record.Set(key, value)
			}
			return true
		})
	}
	return nil
}

func decodeScalar(node *yamlv3.Node) (any, error) {
	switch node.ShortTag() {
	case "!!null":
		return nil, nil
	case "!!bool":
		var result bool
		if err := node.Decode(&result); err != nil {
			return nil, fmt.Errorf("line %d: %w", node.Line, err)
		}
		return result, nil
	case "!!int":
		var result int64
		if err := node.Decode(&result); err != nil {
			// Out of range for int64, keep the precision we can.
			return internal.Number(node.Value)
		}
		return result, nil
	case "!!float":
		var result float64
		if err := node.Decode(&result); err != nil {
			return nil, fmt.Errorf("line %d: %w", node.Line, err)
		}
		return result, nil
	default:
		return node.Value, nil
	}
}

func encodeValue(value any) (*yamlv3.Node, error) {
	switch typed := value.(type) {
	case *shared.Record:
		node := &yamlv3.Node{Kind: yamlv3.MappingNode, Tag: "!!map"} //nolint:exhaustruct
		var err error
		typed.Each(func(key string, item any) bool {
			var child *yamlv3.Node
			child, err = encodeValue(item)
			if err != nil {
				err = fmt.Errorf("at %s:\n\t * %w", key, err)
				return false
			}
			keyNode := &yamlv3.Node{Kind: yamlv3.ScalarNode, Tag: "!!str", Value: key} //nolint:exhaustruct
			node.Content = append(node.Content, keyNode, child)
			return true
		})
		if err != nil {
			return nil, err
		}
		return node, nil
	case []any:
		node := &yamlv3.Node{Kind: yamlv3.SequenceNode, Tag: "!!seq"} //nolint:exhaustruct
		for i, item := range typed {
			child, err := encodeValue(item)
			if err != nil {
				return nil, fmt.Errorf("at [%d]:\n\t * %w", i, err)
			}
			node.Content = append(node.Content, child)
		}
		return node, nil
	case nil:
		return &yamlv3.Node{Kind: yamlv3.ScalarNode, Tag: "!!null", Value: "null"}, nil //nolint:exhaustruct
	case float64:
		return encodeFloat(typed), nil
	case float32:
		return encodeFloat(float64(typed)), nil
	default:
		node := new(yamlv3.Node)
		if err := node.Encode(value); err != nil {
			return nil, fmt.Errorf("cannot encode %T as yaml:\n\t * %w", value, err)
		}
		return node, nil
	}
}

// Keep floats recognizable as floats, e.g. `5.0` rather than `5`.
func encodeFloat(value float64) *yamlv3.Node {
	var text string
	switch {
	case math.IsInf(value, 1):
		text = ".inf"
	case math.IsInf(value, -1):
		text = "-.inf"
	case math.IsNaN(value):
		text = ".nan"
	default:
		text = strconv.FormatFloat(value, 'g', -1, 64)
		if _, err := strconv.ParseInt(text, 10, 64); err == nil {
			text += ".0"
		}
	}
	return &yamlv3.Node{Kind: yamlv3.ScalarNode, Tag: "!!float", Value: text} //nolint:exhaustruct
}
