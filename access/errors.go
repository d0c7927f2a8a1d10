package access

import "errors"

var (
	// ErrInvalidWidth is returned when a field width is zero, negative or wider
	// than the value type (or MaxWidth) can carry.
	ErrInvalidWidth = errors.New("invalid field width")
	// ErrValueOverflow is returned when the value has bits set at or above the
	// requested width.
	ErrValueOverflow = errors.New("value does not fit field width")
	// ErrUnknownField is returned when no field with the given name was allocated.
	ErrUnknownField = errors.New("field not found")
	// ErrWidthMismatch is returned when a field is read into an integer type
	// narrower than the field.
	ErrWidthMismatch = errors.New("field wider than target type")
	// ErrDuplicateField is returned by packers configured with DuplicateReject.
	ErrDuplicateField = errors.New("field name already allocated")
	// ErrDescriptorRange is returned for descriptor positions outside the packer.
	ErrDescriptorRange = errors.New("descriptor index out of range")
)
