package fronius

// PowerFlowSite summarizes the whole installation. Power values are in W,
// P_Grid is positive when importing and P_Akku is positive when
// discharging.
type PowerFlowSite struct {
	Mode               *string  `json:"Mode"`
	MeterLocation      *string  `json:"Meter_Location"`
	BatteryStandby     *bool    `json:"BatteryStandby"`
	BackupMode         *bool    `json:"BackupMode"`
	PGrid              *float64 `json:"P_Grid"`
	PLoad              *float64 `json:"P_Load"`
	PAkku              *float64 `json:"P_Akku"`
	PPV                *float64 `json:"P_PV"`
	RelSelfConsumption *float64 `json:"rel_SelfConsumption"`
	RelAutonomy        *float64 `json:"rel_Autonomy"`
	EDay               *float64 `json:"E_Day"`
	EYear              *float64 `json:"E_Year"`
	ETotal             *float64 `json:"E_Total"`
}

// PowerFlowInverter is the per inverter part of the power flow summary.
type PowerFlowInverter struct {
	DT          *int     `json:"DT"`
	P           *float64 `json:"P"`
	SOC         *float64 `json:"SOC"`
	BatteryMode *string  `json:"Battery_Mode"`
	EDay        *float64 `json:"E_Day"`
	EYear       *float64 `json:"E_Year"`
	ETotal      *float64 `json:"E_Total"`
}

// PowerFlowOhmPilot is the per OhmPilot part of the power flow summary.
type PowerFlowOhmPilot struct {
	PACTotal    *float64 `json:"P_AC_Total"`
	State       *string  `json:"State"`
	Temperature *float64 `json:"Temperature"`
}

// PowerFlowData is the body of GetPowerFlowRealtimeData.fcgi.
type PowerFlowData struct {
	Version   *string                       `json:"Version"`
	Site      *PowerFlowSite                `json:"Site"`
	Inverters map[string]*PowerFlowInverter `json:"Inverters"`
	OhmPilots map[string]*PowerFlowOhmPilot `json:"Ohmpilots"`
}
