package equipment

import (
	"errors"
	"strings"
)

var (
	ErrEmptyEquipmentName   = errors.New("equipment name cannot be empty")
	ErrEquipmentNameTooLong = errors.New("equipment name is too long (max 255 characters)")
	ErrInvalidCapacity      = errors.New("capacity must be positive")
	ErrNegativeRate         = errors.New("hourly rate cannot be negative")
)

const (
	MaxEquipmentNameLength = 255
)

// Equipment is a bookable item type. Capacity is the number of units that
// may be reserved concurrently.
type Equipment struct {
	name       string
	capacity   int
	hourlyRate float64
}

func NewEquipment(name string, capacity int, hourlyRate float64) (*Equipment, error) {
	if err := validateEquipmentName(name); err != nil {
		return nil, err
	}
	if capacity <= 0 {
		return nil, ErrInvalidCapacity
	}
	if hourlyRate < 0 {
		return nil, ErrNegativeRate
	}

	return &Equipment{
		name:       strings.TrimSpace(name),
		capacity:   capacity,
		hourlyRate: hourlyRate,
	}, nil
}

// ReconstructEquipment rebuilds a stored catalog row without validation.
func ReconstructEquipment(name string, capacity int, hourlyRate float64) *Equipment {
	return &Equipment{
		name:       name,
		capacity:   capacity,
		hourlyRate: hourlyRate,
	}
}

// HasRoomFor reports whether one more unit fits next to the given number of
// overlapping active reservations.
func (e *Equipment) HasRoomFor(overlapping int) bool {
	return overlapping < e.capacity
}

func validateEquipmentName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return ErrEmptyEquipmentName
	}
	if len(name) > MaxEquipmentNameLength {
		return ErrEquipmentNameTooLong
	}
	return nil
}

func (e *Equipment) Name() string        { return e.name }
func (e *Equipment) Capacity() int       { return e.capacity }
func (e *Equipment) HourlyRate() float64 { return e.hourlyRate }
