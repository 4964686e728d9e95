// Package snapshot reads & writes structural snapshots of NetCDF containers
// as YAML. A snapshot records groups, dimensions, variables & attributes but
// no data, and is small enough to check into version control as the
// reference structure for a dataset:
//
//	name: obs
//	dimensions:
//	  time: {size: 24, unlimited: true}
//	  lat: 180
//	variables:
//	  temp:
//	    type: float
//	    dimensions: [time, lat]
//	    attributes:
//	      units: K
//	attributes:
//	  title: hourly observations
//	groups:
//	  forecast:
//	    dimensions:
//	      step: 6
//
// JSON is valid YAML, so JSON snapshots decode as well
package snapshot

import (
	"io"
	"math"
	"sort"
	"strconv"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/qri-io/ncdiff"
)

type document struct {
	Name string `yaml:"name,omitempty"`
	Root group  `yaml:",inline"`
}

type group struct {
	Dimensions map[string]dimension `yaml:"dimensions,omitempty"`
	Variables  map[string]variable  `yaml:"variables,omitempty"`
	Attributes map[string]value     `yaml:"attributes,omitempty"`
	Groups     map[string]*group    `yaml:"groups,omitempty"`
}

type variable struct {
	Type       string           `yaml:"type"`
	Dimensions []string         `yaml:"dimensions,flow,omitempty"`
	Shape      []int            `yaml:"shape,flow,omitempty"`
	Chunking   []int            `yaml:"chunking,flow,omitempty"`
	Attributes map[string]value `yaml:"attributes,omitempty"`
}

// dimension is written as a bare size, or as a mapping for unlimited
// dimensions
type dimension struct {
	Size      int  `yaml:"size"`
	Unlimited bool `yaml:"unlimited,omitempty"`
}

// MarshalYAML implements yaml.Marshaler
func (d dimension) MarshalYAML() (interface{}, error) {
	if !d.Unlimited {
		return d.Size, nil
	}
	type plain dimension
	n := &yaml.Node{}
	if err := n.Encode(plain(d)); err != nil {
		return nil, err
	}
	n.Style = yaml.FlowStyle
	return n, nil
}

// UnmarshalYAML implements yaml.Unmarshaler
func (d *dimension) UnmarshalYAML(n *yaml.Node) error {
	if n.Kind == yaml.ScalarNode {
		if n.Value == "UNLIMITED" {
			*d = dimension{Size: ncdiff.Unlimited, Unlimited: true}
			return nil
		}
		return n.Decode(&d.Size)
	}
	type plain dimension
	p := plain{Size: ncdiff.Unlimited}
	if err := n.Decode(&p); err != nil {
		return err
	}
	*d = dimension(p)
	return nil
}

// value is an attribute value. floats always carry a float tag when
// written so 1.0 doesn't read back as an integer
type value struct {
	v interface{}
}

// MarshalYAML implements yaml.Marshaler
func (v value) MarshalYAML() (interface{}, error) {
	return valueNode(ncdiff.NormalizeValue(v.v)), nil
}

func valueNode(v interface{}) *yaml.Node {
	switch x := v.(type) {
	case float64:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!float", Value: formatFloat(x)}
	case []interface{}:
		seq := &yaml.Node{Kind: yaml.SequenceNode, Style: yaml.FlowStyle}
		for _, el := range x {
			seq.Content = append(seq.Content, valueNode(el))
		}
		return seq
	}
	n := &yaml.Node{}
	// scalars left after normalization always encode
	_ = n.Encode(v)
	return n
}

func formatFloat(f float64) string {
	switch {
	case math.IsNaN(f):
		return ".nan"
	case math.IsInf(f, 1):
		return ".inf"
	case math.IsInf(f, -1):
		return "-.inf"
	}
	return strconv.FormatFloat(f, 'g', -1, 64)
}

// UnmarshalYAML implements yaml.Unmarshaler
func (v *value) UnmarshalYAML(n *yaml.Node) error {
	return n.Decode(&v.v)
}

// Decode reads a snapshot from r
func Decode(r io.Reader) (*ncdiff.Group, error) {
	doc := &document{}
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(doc); err != nil && err != io.EOF {
		return nil, errors.Wrap(err, "decoding snapshot")
	}
	return toGroup(doc.Name, &doc.Root), nil
}

func toGroup(name string, g *group) *ncdiff.Group {
	out := &ncdiff.Group{Name: name}
	if g == nil {
		return out
	}

	for _, dname := range sortedKeys(g.Dimensions) {
		d := g.Dimensions[dname]
		out.Dimensions = append(out.Dimensions, ncdiff.DimensionInfo{Name: dname, Size: d.Size, Unlimited: d.Unlimited})
	}
	for _, vname := range sortedKeys(g.Variables) {
		v := g.Variables[vname]
		out.Variables = append(out.Variables, &ncdiff.Variable{
			VariableInfo: ncdiff.VariableInfo{
				Name:       vname,
				DType:      v.Type,
				Dimensions: v.Dimensions,
				Shape:      v.Shape,
				Chunking:   v.Chunking,
			},
			Attributes: toAttributes(v.Attributes),
		})
	}
	out.Attributes = toAttributes(g.Attributes)
	for _, gname := range sortedKeys(g.Groups) {
		out.Groups = append(out.Groups, toGroup(gname, g.Groups[gname]))
	}
	return out
}

func toAttributes(vals map[string]value) ncdiff.Attributes {
	if len(vals) == 0 {
		return nil
	}
	attrs := make(ncdiff.Attributes, len(vals))
	for k, v := range vals {
		attrs[k] = v.v
	}
	return attrs
}

// Encode writes the snapshot of root to w
func Encode(w io.Writer, root *ncdiff.Group) error {
	doc := &document{Name: root.Name, Root: *fromGroup(root)}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return errors.Wrap(err, "encoding snapshot")
	}
	return enc.Close()
}

func fromGroup(g *ncdiff.Group) *group {
	out := &group{}
	if len(g.Dimensions) > 0 {
		out.Dimensions = map[string]dimension{}
		for _, d := range g.Dimensions {
			out.Dimensions[d.Name] = dimension{Size: d.Size, Unlimited: d.Unlimited}
		}
	}
	if len(g.Variables) > 0 {
		out.Variables = map[string]variable{}
		for _, v := range g.Variables {
			out.Variables[v.Name] = variable{
				Type:       v.DType,
				Dimensions: v.Dimensions,
				Shape:      v.Shape,
				Chunking:   v.Chunking,
				Attributes: fromAttributes(v.Attributes),
			}
		}
	}
	out.Attributes = fromAttributes(g.Attributes)
	if len(g.Groups) > 0 {
		out.Groups = map[string]*group{}
		for _, ch := range g.Groups {
			out.Groups[ch.Name] = fromGroup(ch)
		}
	}
	return out
}

func fromAttributes(attrs ncdiff.Attributes) map[string]value {
	if len(attrs) == 0 {
		return nil
	}
	vals := make(map[string]value, len(attrs))
	for k, v := range attrs {
		vals[k] = value{v}
	}
	return vals
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
