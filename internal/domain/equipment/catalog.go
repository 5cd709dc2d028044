package equipment

import (
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

var (
	ErrEmptyCatalog       = errors.New("catalog must contain at least one item")
	ErrDuplicateEquipment = errors.New("duplicate equipment name in catalog")
)

// Item is the file representation of a catalog entry.
type Item struct {
	Name       string  `yaml:"name"`
	Capacity   int     `yaml:"capacity"`
	HourlyRate float64 `yaml:"hourly_rate"`
}

type catalogFile struct {
	Equipment []Item `yaml:"equipment"`
}

// DefaultItems is the catalog the service ships with.
func DefaultItems() []Item {
	return []Item{
		{Name: "multi-phasic radiation scanner", Capacity: 4, HourlyRate: 990},
		{Name: "ore scooper", Capacity: 4, HourlyRate: 1000},
		{Name: "1.21 gigawatt lightning harvester", Capacity: 1, HourlyRate: 88000},
	}
}

// Build validates items and keeps their order.
func Build(items []Item) ([]*Equipment, error) {
	if len(items) == 0 {
		return nil, ErrEmptyCatalog
	}

	seen := make(map[string]struct{}, len(items))
	out := make([]*Equipment, 0, len(items))
	for i, it := range items {
		eq, err := NewEquipment(it.Name, it.Capacity, it.HourlyRate)
		if err != nil {
			return nil, fmt.Errorf("catalog item %d: %w", i, err)
		}
		if _, dup := seen[eq.Name()]; dup {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateEquipment, eq.Name())
		}
		seen[eq.Name()] = struct{}{}
		out = append(out, eq)
	}
	return out, nil
}

// Decode reads a YAML catalog of the form
//
//	equipment:
//	  - name: ore scooper
//	    capacity: 4
//	    hourly_rate: 1000
func Decode(r io.Reader) ([]Item, error) {
	var f catalogFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, ErrEmptyCatalog
		}
		return nil, fmt.Errorf("decode catalog: %w", err)
	}
	return f.Equipment, nil
}

// Load returns the default catalog when path is empty.
func Load(path string) ([]*Equipment, error) {
	if path == "" {
		return Build(DefaultItems())
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open catalog %s: %w", path, err)
	}
	defer f.Close()

	items, err := Decode(f)
	if err != nil {
		return nil, err
	}
	return Build(items)
}
