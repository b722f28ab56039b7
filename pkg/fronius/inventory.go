package fronius

import (
	"fmt"
)

// InverterStatusCode is the operating state reported by GetInverterInfo.
type InverterStatusCode int

const (
	InverterStartup     InverterStatusCode = 0
	InverterRunning     InverterStatusCode = 7
	InverterStandby     InverterStatusCode = 8
	InverterBootloading InverterStatusCode = 9
	InverterError       InverterStatusCode = 10
	InverterIdle        InverterStatusCode = 11
	InverterReady       InverterStatusCode = 12
	InverterSleeping    InverterStatusCode = 13
	InverterUnknown     InverterStatusCode = 255
)

func (c InverterStatusCode) String() string {
	switch {
	case c >= 0 && c <= 6:
		return "Startup"
	case c == InverterRunning:
		return "Running"
	case c == InverterStandby:
		return "Standby"
	case c == InverterBootloading:
		return "Bootloading"
	case c == InverterError:
		return "Error"
	case c == InverterIdle:
		return "Idle"
	case c == InverterReady:
		return "Ready"
	case c == InverterSleeping:
		return "Sleeping"
	case c == InverterUnknown:
		return "Unknown"
	}
	return fmt.Sprintf("InverterStatusCode(%d)", int(c))
}

// InverterDevice is one entry of GetInverterInfo.
type InverterDevice struct {
	DT            *int                `json:"DT"`
	PVPower       *float64            `json:"PVPower"`
	CustomName    *string             `json:"CustomName"`
	Show          *int                `json:"Show"`
	UniqueID      *string             `json:"UniqueID"`
	ErrorCode     *int                `json:"ErrorCode"`
	StatusCode    *InverterStatusCode `json:"StatusCode"`
	InverterState *string             `json:"InverterState"`
}

// InverterInfo is keyed by the inverter device number. A nil entry is a
// configured slot with no data.
type InverterInfo map[string]*InverterDevice

// DeviceType is a key of the GetActiveDeviceInfo response.
type DeviceType string

const (
	DeviceTypeInverter      DeviceType = "Inverter"
	DeviceTypeStorage       DeviceType = "Storage"
	DeviceTypeOhmpilot      DeviceType = "Ohmpilot"
	DeviceTypeSensorCard    DeviceType = "SensorCard"
	DeviceTypeStringControl DeviceType = "StringControl"
	DeviceTypeMeter         DeviceType = "Meter"
	DeviceTypeSystem        DeviceType = "System"
)

var deviceTypes = map[DeviceType]bool{
	DeviceTypeInverter:      true,
	DeviceTypeStorage:       true,
	DeviceTypeOhmpilot:      true,
	DeviceTypeSensorCard:    true,
	DeviceTypeStringControl: true,
	DeviceTypeMeter:         true,
	DeviceTypeSystem:        true,
}

// UnmarshalText rejects device types outside the documented set.
func (t *DeviceType) UnmarshalText(b []byte) error {
	dt := DeviceType(b)
	if !deviceTypes[dt] {
		return fmt.Errorf("unknown device type %q", string(b))
	}
	*t = dt
	return nil
}

// ActiveDevice is one device listed by GetActiveDeviceInfo.
type ActiveDevice struct {
	DT     *int    `json:"DT"`
	Serial *string `json:"Serial"`
}

// DeviceInfo maps each device type to the active devices of that type,
// keyed by device number.
type DeviceInfo map[DeviceType]map[string]*ActiveDevice

// Devices returns the device numbers of typ that parse as a DeviceID.
// Entries with a non numeric key are skipped.
func (d DeviceInfo) Devices(typ DeviceType) []DeviceID {
	var ids []DeviceID
	for k := range d[typ] {
		id, err := ParseDeviceIDString(k)
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	sortDeviceIDs(ids)
	return ids
}
