package fronius

import (
	"cmp"
	"fmt"
	"slices"
	"strconv"
	"strings"
)

// MaxDeviceID is the largest device number the Solar API accepts.
const MaxDeviceID = 99

// DeviceID identifies one device (inverter, meter, storage or OhmPilot)
// attached to the installation. The zero value is device 0.
type DeviceID struct {
	id uint8
}

// InvalidDeviceIDError is returned when a raw device number is outside of
// 0..MaxDeviceID.
type InvalidDeviceIDError struct {
	Value int
}

func (e *InvalidDeviceIDError) Error() string {
	return fmt.Sprintf("invalid device id %d, must be between 0 and %d", e.Value, MaxDeviceID)
}

// ParseDeviceID validates raw and returns the corresponding DeviceID.
func ParseDeviceID(raw int) (DeviceID, error) {
	if raw < 0 || raw > MaxDeviceID {
		return DeviceID{}, &InvalidDeviceIDError{Value: raw}
	}
	return DeviceID{id: uint8(raw)}, nil
}

// ParseDeviceIDString parses a decimal device number such as the keys used in
// system scoped responses.
func ParseDeviceIDString(s string) (DeviceID, error) {
	raw, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return DeviceID{}, fmt.Errorf("invalid device id %q: %w", s, err)
	}
	return ParseDeviceID(raw)
}

// MustDeviceID is like ParseDeviceID but panics on an invalid value. It is
// meant for constants in tests and examples.
func MustDeviceID(raw int) DeviceID {
	id, err := ParseDeviceID(raw)
	if err != nil {
		panic(err)
	}
	return id
}

// Int returns the raw device number.
func (d DeviceID) Int() int {
	return int(d.id)
}

func (d DeviceID) String() string {
	return strconv.Itoa(int(d.id))
}

func sortDeviceIDs(ids []DeviceID) {
	slices.SortFunc(ids, func(a, b DeviceID) int {
		return cmp.Compare(a.id, b.id)
	})
}
