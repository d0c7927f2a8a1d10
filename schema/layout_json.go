package schema

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math/big"

	json "github.com/goccy/go-json"
	"github.com/quickwritereader/BitPackOS/access"
	"github.com/quickwritereader/BitPackOS/types"
	"github.com/quickwritereader/BitPackOS/utils"
	"github.com/zeebo/xxh3"
	"lukechampine.com/uint128"
)

var (
	ErrEmptyLayout   = errors.New("layout has no fields")
	ErrUnknownTarget = errors.New("unknown target type")
)

// FieldJSON describes one field of a layout document.
//
// Value is a decimal string so that 128-bit values survive JSON. As names the
// type the field is decoded into; empty means the smallest type that fits.
type FieldJSON struct {
	Name  string `json:"name"`
	Width int    `json:"width"`
	Value string `json:"value,omitempty"`
	As    string `json:"as,omitempty"`
}

// LayoutJSON is an ordered list of fields packed back to back.
type LayoutJSON struct {
	Name   string      `json:"name,omitempty"`
	Strict bool        `json:"strict,omitempty"`
	Fields []FieldJSON `json:"fields"`
}

// targetBits holds the capacity of the built-in fixed-width targets.
var targetBits = map[string]int{
	"uint8":   8,
	"uint16":  16,
	"uint32":  32,
	"uint64":  64,
	"uint128": 128,
}

// Target reads a named field out of a packer as a concrete Go value.
type Target func(p *access.Packer, name string) (any, error)

var targets = map[string]Target{
	"uint8":   func(p *access.Packer, n string) (any, error) { return access.Get[uint8](p, n) },
	"uint16":  func(p *access.Packer, n string) (any, error) { return access.Get[uint16](p, n) },
	"uint32":  func(p *access.Packer, n string) (any, error) { return access.Get[uint32](p, n) },
	"uint64":  func(p *access.Packer, n string) (any, error) { return access.Get[uint64](p, n) },
	"uint128": func(p *access.Packer, n string) (any, error) { return access.GetUint128(p, n) },
	"":        access.GetAny,
}

// RegisterTarget registers a custom decode target for the "as" attribute.
//
// Usage:
//
//	schema.RegisterTarget("bool", func(p *access.Packer, name string) (any, error) {
//	    v, err := access.Get[uint8](p, name)
//	    return v != 0, err
//	})
//
// Panics if the name is empty or already registered.
func RegisterTarget(name string, target Target) {
	if name == "" {
		panic("cannot register empty target name")
	}
	if _, exists := targets[name]; exists {
		panic("schema target already registered: " + name)
	}
	targets[name] = target
}

// UnregisterTarget removes a custom target. Built-in targets are kept.
func UnregisterTarget(name string) {
	switch name {
	case "", "uint8", "uint16", "uint32", "uint64", "uint128":
		return
	}
	delete(targets, name)
}

// Targets lists the registered target names, sorted. The empty name stands
// for the smallest fitting type.
func Targets() []string {
	return utils.SortKeys(targets)
}

// ParseLayout decodes and validates a layout document.
func ParseLayout(data []byte) (*LayoutJSON, error) {
	var lj LayoutJSON
	if err := json.Unmarshal(data, &lj); err != nil {
		return nil, fmt.Errorf("ParseLayout: %w", err)
	}
	if err := lj.Validate(); err != nil {
		return nil, err
	}
	return &lj, nil
}

// Validate checks widths, values and target names without packing anything.
func (lj *LayoutJSON) Validate() error {
	if len(lj.Fields) == 0 {
		return fmt.Errorf("Validate %q: %w", lj.Name, ErrEmptyLayout)
	}
	seen := make(map[string]struct{}, len(lj.Fields))
	for i, f := range lj.Fields {
		if f.Width < 1 || f.Width > access.MaxWidth {
			return fmt.Errorf("Validate: field %d (%q): width %d: %w", i, f.Name, f.Width, access.ErrInvalidWidth)
		}
		v, err := f.value()
		if err != nil {
			return fmt.Errorf("Validate: field %d (%q): %w", i, f.Name, err)
		}
		if v.Len() > f.Width {
			return fmt.Errorf("Validate: field %d (%q): %w", i, f.Name, access.ErrValueOverflow)
		}
		if _, ok := targets[f.As]; !ok {
			return fmt.Errorf("Validate: field %d (%q): %q: %w", i, f.Name, f.As, ErrUnknownTarget)
		}
		if n, ok := targetBits[f.As]; ok && f.Width > n {
			return fmt.Errorf("Validate: field %d (%q): %d bits as %s: %w", i, f.Name, f.Width, f.As, access.ErrWidthMismatch)
		}
		if _, dup := seen[f.Name]; dup && lj.Strict {
			return fmt.Errorf("Validate: field %d (%q): %w", i, f.Name, access.ErrDuplicateField)
		}
		seen[f.Name] = struct{}{}
	}
	return nil
}

// Build packs every field of the layout into a new packer.
func Build(lj *LayoutJSON) (*access.Packer, error) {
	policy := access.DuplicateShadow
	if lj.Strict {
		policy = access.DuplicateReject
	}
	p := access.NewPacker(
		access.WithDuplicatePolicy(policy),
		access.WithCapacity(types.BytesFor(lj.BitLen()), len(lj.Fields)),
	)
	for i, f := range lj.Fields {
		v, err := f.value()
		if err != nil {
			return nil, fmt.Errorf("Build: field %d (%q): %w", i, f.Name, err)
		}
		if err := p.AllocateUint128(f.Name, f.Width, v); err != nil {
			return nil, fmt.Errorf("Build: field %d: %w", i, err)
		}
	}
	return p, nil
}

// Decode reads every distinct field named by the layout from p, in order of
// first appearance. A re-used name is read once, as the "as" target of its
// last entry, since that entry is the one visible in the packer.
func Decode(p *access.Packer, lj *LayoutJSON) (*types.OrderedValues, error) {
	var names []string
	as := make(map[string]string, len(lj.Fields))
	for _, f := range lj.Fields {
		if _, seen := as[f.Name]; !seen {
			names = append(names, f.Name)
		}
		as[f.Name] = f.As
	}

	out := types.NewOrderedMap[any]()
	for _, name := range names {
		target, ok := targets[as[name]]
		if !ok {
			return nil, fmt.Errorf("Decode %q: %q: %w", name, as[name], ErrUnknownTarget)
		}
		v, err := target(p, name)
		if err != nil {
			return nil, fmt.Errorf("Decode: %w", err)
		}
		out.Set(name, v)
	}
	return out, nil
}

// BitLen is the total number of bits the layout occupies once packed.
func (lj *LayoutJSON) BitLen() int {
	n := 0
	for _, f := range lj.Fields {
		n += f.Width
	}
	return n
}

// Fingerprint hashes field names and widths in order. Two layouts with the
// same fingerprint place every field at the same bits; values are ignored.
func (lj *LayoutJSON) Fingerprint() uint64 {
	h := xxh3.New()
	var buf [4]byte
	for _, f := range lj.Fields {
		binary.LittleEndian.PutUint32(buf[:], uint32(len(f.Name)))
		_, _ = h.Write(buf[:])
		_, _ = h.WriteString(f.Name)
		binary.LittleEndian.PutUint32(buf[:], uint32(f.Width))
		_, _ = h.Write(buf[:])
	}
	return h.Sum64()
}

func (f FieldJSON) value() (uint128.Uint128, error) {
	if f.Value == "" {
		return uint128.Zero, nil
	}
	b, ok := new(big.Int).SetString(f.Value, 0)
	if !ok {
		return uint128.Zero, fmt.Errorf("value %q is not an integer", f.Value)
	}
	if b.Sign() < 0 || b.BitLen() > access.MaxWidth {
		return uint128.Zero, fmt.Errorf("value %q: %w", f.Value, access.ErrValueOverflow)
	}
	return uint128.FromBig(b), nil
}
