package schema

import (
	"fmt"

	json "github.com/goccy/go-json"
	"github.com/quickwritereader/BitPackOS/access"
)

// DescriptorJSON is the dump form of one allocation.
type DescriptorJSON struct {
	Index     int    `json:"index"`
	Name      string `json:"name"`
	Width     int    `json:"width"`
	BitOffset int    `json:"bitOffset"`
	Start     int    `json:"start"`
	End       int    `json:"end"`
	StartMask string `json:"startMask"`
	EndMask   string `json:"endMask"`
	Value     string `json:"value"`
	Shadowed  bool   `json:"shadowed,omitempty"`
}

// Describe lists every allocation of p, shadowed ones included.
func Describe(p *access.Packer) ([]DescriptorJSON, error) {
	out := make([]DescriptorJSON, 0, p.FieldCount())
	for i, d := range p.Fields() {
		v, err := access.GetAtUint128(p, i)
		if err != nil {
			return nil, fmt.Errorf("Describe: %w", err)
		}
		visible, _ := p.Lookup(d.Name)
		out = append(out, DescriptorJSON{
			Index:     i,
			Name:      d.Name,
			Width:     d.Width,
			BitOffset: d.BitOffset(),
			Start:     d.Start,
			End:       d.End,
			StartMask: fmt.Sprintf("%08b", d.StartMask),
			EndMask:   fmt.Sprintf("%08b", d.EndMask),
			Value:     v.String(),
			Shadowed:  visible != d,
		})
	}
	return out, nil
}

// MarshalDescriptors renders Describe as indented JSON.
func MarshalDescriptors(p *access.Packer) ([]byte, error) {
	ds, err := Describe(p)
	if err != nil {
		return nil, err
	}
	return json.MarshalIndent(ds, "", "  ")
}

// ExtractLayout rebuilds the layout document that reproduces p, values
// included. Building the result yields the same bytes as p.
func ExtractLayout(p *access.Packer) (*LayoutJSON, error) {
	lj := &LayoutJSON{
		Strict: p.Policy() == access.DuplicateReject,
		Fields: make([]FieldJSON, 0, p.FieldCount()),
	}
	for i, d := range p.Fields() {
		v, err := access.GetAtUint128(p, i)
		if err != nil {
			return nil, fmt.Errorf("ExtractLayout: %w", err)
		}
		lj.Fields = append(lj.Fields, FieldJSON{Name: d.Name, Width: d.Width, Value: v.String()})
	}
	return lj, nil
}

// MarshalLayout renders a layout document as indented JSON.
func MarshalLayout(lj *LayoutJSON) ([]byte, error) {
	return json.MarshalIndent(lj, "", "  ")
}
