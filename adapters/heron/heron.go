// Package heron exports fitted set cost models into HERON input documents.
//
// Each set becomes a <Component> whose capex cash flow carries the fitted
// reference price, reference driver and scaling factor. Existing components
// with the same name are updated in place; other elements are kept, XML
// comments are not.
package heron

import (
	"bytes"
	"encoding/xml"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"force-cost/core/types"
	"force-cost/internal/errors"
)

// Element names of the HERON input schema
const (
	ElemComponents      = "Components"
	ElemComponent       = "Component"
	ElemProduces        = "produces"
	ElemCapacity        = "capacity"
	ElemEconomics       = "economics"
	ElemLifetime        = "lifetime"
	ElemCashFlow        = "CashFlow"
	ElemDriver          = "driver"
	ElemReferencePrice  = "reference_price"
	ElemReferenceDriver = "reference_driver"
	ElemScalingFactor   = "scaling_factor_x"
	ElemFixedValue      = "fixed_value"
)

// Options controls newly created components
type Options struct {
	// Resource is the resource new components produce
	Resource string
	// Lifetime is the economic lifetime in years
	Lifetime int
}

// DefaultOptions returns electricity-producing components with a 30 year life
func DefaultOptions() Options {
	return Options{Resource: "electricity", Lifetime: 30}
}

// Node is a generic XML element. Whitespace-only text is dropped on decode
// so documents can be re-indented on output.
type Node struct {
	XMLName  xml.Name
	Attrs    []xml.Attr `xml:",any,attr"`
	Text     string     `xml:",chardata"`
	Children []*Node    `xml:",any"`
}

// NewNode creates an element with optional text
func NewNode(name, text string, attrs ...xml.Attr) *Node {
	return &Node{XMLName: xml.Name{Local: name}, Attrs: attrs, Text: text}
}

// Attr returns an attribute value
func (n *Node) Attr(name string) (string, bool) {
	for _, a := range n.Attrs {
		if a.Name.Local == name {
			return a.Value, true
		}
	}
	return "", false
}

// SetAttr sets or adds an attribute
func (n *Node) SetAttr(name, value string) {
	for i := range n.Attrs {
		if n.Attrs[i].Name.Local == name {
			n.Attrs[i].Value = value
			return
		}
	}
	n.Attrs = append(n.Attrs, xml.Attr{Name: xml.Name{Local: name}, Value: value})
}

// Child returns the first child element with the given name
func (n *Node) Child(name string) *Node {
	for _, c := range n.Children {
		if c.XMLName.Local == name {
			return c
		}
	}
	return nil
}

// Ensure returns the named child, appending it when missing
func (n *Node) Ensure(name string) *Node {
	if c := n.Child(name); c != nil {
		return c
	}
	c := NewNode(name, "")
	n.Children = append(n.Children, c)
	return c
}

// Append adds children and returns n
func (n *Node) Append(children ...*Node) *Node {
	n.Children = append(n.Children, children...)
	return n
}

func (n *Node) trim() {
	if strings.TrimSpace(n.Text) == "" {
		n.Text = ""
	} else {
		n.Text = strings.TrimSpace(n.Text)
	}
	for _, c := range n.Children {
		c.trim()
	}
}

// Parse decodes a HERON input document
func Parse(data []byte) (*Node, error) {
	var root Node
	if err := xml.Unmarshal(data, &root); err != nil {
		return nil, errors.Parsing("decoding HERON input", err)
	}
	root.trim()
	return &root, nil
}

// Load reads a HERON input file
func Load(path string) (*Node, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(errors.TypeInput, err, "reading %s", path)
	}
	return Parse(data)
}

// Marshal renders a document with an XML header and two-space indentation
func Marshal(root *Node) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	enc := xml.NewEncoder(&buf)
	enc.Indent("", "  ")
	if err := enc.Encode(root); err != nil {
		return nil, err
	}
	buf.WriteByte('\n')
	return buf.Bytes(), nil
}

// Save writes a document to path
func Save(root *Node, path string) error {
	data, err := Marshal(root)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// OutputPath is the updated document's path: new_<name> beside the input
func OutputPath(input string) string {
	return filepath.Join(filepath.Dir(input), "new_"+filepath.Base(input))
}

func fixed(name string, v float64) *Node {
	return NewNode(name, "").Append(NewNode(ElemFixedValue, formatFloat(v)))
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func attr(name, value string) xml.Attr {
	return xml.Attr{Name: xml.Name{Local: name}, Value: value}
}

func capexName(setName string) string {
	return setName + "_capex"
}

// Component builds a new <Component> element for a set report. The capex
// reference price is written as a negative cash flow.
func Component(r types.SetReport, opts Options) *Node {
	capacity := NewNode(ElemCapacity, "", attr("resource", opts.Resource)).
		Append(NewNode(ElemFixedValue, formatFloat(r.ReferenceDriver)))
	produces := NewNode(ElemProduces, "", attr("resource", opts.Resource), attr("dispatch", "fixed")).
		Append(capacity)

	cashflow := NewNode(ElemCashFlow, "",
		attr("name", capexName(r.SetName)),
		attr("type", "one-time"),
		attr("taxable", "True"),
		attr("inflation", "none"),
		attr("mult_target", "False"),
	).Append(
		NewNode(ElemDriver, "").Append(NewNode(ElemFixedValue, formatFloat(r.ReferenceDriver))),
		fixed(ElemReferencePrice, -r.ReferencePrice),
		fixed(ElemReferenceDriver, r.ReferenceDriver),
		fixed(ElemScalingFactor, r.ScalingFactor),
	)
	economics := NewNode(ElemEconomics, "").Append(
		NewNode(ElemLifetime, strconv.Itoa(opts.Lifetime)),
		cashflow,
	)

	return NewNode(ElemComponent, "", attr("name", r.SetName)).Append(produces, economics)
}

// MergeResult counts the components touched by Merge
type MergeResult struct {
	Created []string
	Updated []string
}

// Merge writes each report into root's <Components> node, creating the node
// when absent. A component named after the set is updated: its capex cash
// flow (the one named <set>_capex, else the first) gets the fitted values.
// Other components are created.
func Merge(root *Node, reports []types.SetReport, opts Options) (*MergeResult, error) {
	if root == nil {
		return nil, errors.New(errors.TypeInput, "no HERON document")
	}
	components := root.Ensure(ElemComponents)
	res := &MergeResult{}

	for _, r := range reports {
		if r.SetName == "" {
			return nil, errors.New(errors.TypeInput, "set report has no name")
		}
		existing := findComponent(components, r.SetName)
		if existing == nil {
			components.Append(Component(r, opts))
			res.Created = append(res.Created, r.SetName)
			continue
		}
		updateComponent(existing, r)
		res.Updated = append(res.Updated, r.SetName)
	}
	return res, nil
}

func findComponent(components *Node, name string) *Node {
	for _, c := range components.Children {
		if c.XMLName.Local != ElemComponent {
			continue
		}
		if v, _ := c.Attr("name"); v == name {
			return c
		}
	}
	return nil
}

func updateComponent(comp *Node, r types.SetReport) {
	economics := comp.Ensure(ElemEconomics)

	var cashflow *Node
	for _, c := range economics.Children {
		if c.XMLName.Local != ElemCashFlow {
			continue
		}
		if name, _ := c.Attr("name"); name == capexName(r.SetName) {
			cashflow = c
			break
		}
		if cashflow == nil {
			cashflow = c
		}
	}
	if cashflow == nil {
		cashflow = NewNode(ElemCashFlow, "", attr("name", capexName(r.SetName)), attr("type", "one-time"))
		economics.Append(cashflow)
	}

	setFixed(cashflow, ElemReferencePrice, -r.ReferencePrice)
	setFixed(cashflow, ElemReferenceDriver, r.ReferenceDriver)
	setFixed(cashflow, ElemScalingFactor, r.ScalingFactor)
}

func setFixed(parent *Node, name string, v float64) {
	elem := parent.Ensure(name)
	value := elem.Ensure(ElemFixedValue)
	value.Text = formatFloat(v)
}
