package fronius

// StorageController is the battery management unit of a storage device.
type StorageController struct {
	Details               *DeviceDetails `json:"Details"`
	Enable                *int           `json:"Enable"`
	CapacityMaximum       *float64       `json:"Capacity_Maximum"`
	DesignedCapacity      *float64       `json:"DesignedCapacity"`
	CurrentDC             *float64       `json:"Current_DC"`
	VoltageDC             *float64       `json:"Voltage_DC"`
	StateOfChargeRelative *float64       `json:"StateOfCharge_Relative"`
	StatusBatteryCell     *float64       `json:"Status_BatteryCell"`
	TemperatureCell       *float64       `json:"Temperature_Cell"`
	TimeStamp             *int64         `json:"TimeStamp"`
}

// StorageModule is a single battery module behind a controller.
type StorageModule struct {
	Details                *DeviceDetails `json:"Details"`
	Enable                 *int           `json:"Enable"`
	CapacityMaximum        *float64       `json:"Capacity_Maximum"`
	DesignedCapacity       *float64       `json:"DesignedCapacity"`
	CurrentDC              *float64       `json:"Current_DC"`
	VoltageDC              *float64       `json:"Voltage_DC"`
	VoltageDCMaximumCell   *float64       `json:"Voltage_DC_Maximum_Cell"`
	VoltageDCMinimumCell   *float64       `json:"Voltage_DC_Minimum_Cell"`
	StateOfChargeRelative  *float64       `json:"StateOfCharge_Relative"`
	StatusBatteryCell      *float64       `json:"Status_BatteryCell"`
	TemperatureCell        *float64       `json:"Temperature_Cell"`
	TemperatureCellMaximum *float64       `json:"Temperature_Cell_Maximum"`
	TemperatureCellMinimum *float64       `json:"Temperature_Cell_Minimum"`
	CycleCountBatteryCell  *float64       `json:"CycleCount_BatteryCell"`
	TimeStamp              *int64         `json:"TimeStamp"`
}

// StorageData is one storage device. Modules keep the order the device
// reported them in.
type StorageData struct {
	Controller *StorageController `json:"Controller"`
	Modules    []StorageModule    `json:"Modules"`
}

// StorageDataSystem is keyed by storage device number.
type StorageDataSystem map[string]*StorageData
