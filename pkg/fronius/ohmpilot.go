package fronius

// OhmPilotState is the CodeOfState reported by an OhmPilot.
type OhmPilotState int

const (
	OhmPilotUpAndRunning           OhmPilotState = 0
	OhmPilotKeepMinimumTemperature OhmPilotState = 1
	OhmPilotLegionellaProtection   OhmPilotState = 2
	OhmPilotFault                  OhmPilotState = 3
	OhmPilotWarning                OhmPilotState = 4
	OhmPilotBoost                  OhmPilotState = 5
)

var ohmPilotStateNames = map[OhmPilotState]string{
	OhmPilotUpAndRunning:           "UpAndRunning",
	OhmPilotKeepMinimumTemperature: "KeepMinimumTemperature",
	OhmPilotLegionellaProtection:   "LegionellaProtection",
	OhmPilotFault:                  "Fault",
	OhmPilotWarning:                "Warning",
	OhmPilotBoost:                  "Boost",
}

func (s OhmPilotState) String() string {
	if name, ok := ohmPilotStateNames[s]; ok {
		return name
	}
	return "Unknown"
}

// OhmPilotData is the realtime data of one OhmPilot heating controller.
type OhmPilotData struct {
	Details               *DeviceDetails `json:"Details"`
	CodeOfState           *OhmPilotState `json:"CodeOfState"`
	CodeOfError           *int           `json:"CodeOfError"`
	EnergyRealSumConsumed *float64       `json:"EnergyReal_WAC_Sum_Consumed"`
	PowerRealSum          *float64       `json:"PowerReal_PAC_Sum"`
	TemperatureChannel1   *float64       `json:"Temperature_Channel_1"`
}

// OhmPilotDataSystem is keyed by OhmPilot device number.
type OhmPilotDataSystem map[string]*OhmPilotData
