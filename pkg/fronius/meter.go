package fronius

// DeviceDetails identifies the hardware behind a meter, battery or OhmPilot.
type DeviceDetails struct {
	Manufacturer *string `json:"Manufacturer"`
	Model        *string `json:"Model"`
	Serial       *string `json:"Serial"`
	Hardware     *string `json:"Hardware"`
	Software     *string `json:"Software"`
}

// MeterData is the realtime data of one smart meter. Power values are
// positive when drawing from the grid.
type MeterData struct {
	Details *DeviceDetails `json:"Details"`
	Enable  *int           `json:"Enable"`
	Visible *int           `json:"Visible"`

	// MeterLocation is 0 for the grid feed-in point and 1 for a consumption
	// path. Other values are sub loads.
	MeterLocation *float64 `json:"Meter_Location_Current"`

	CurrentACPhase1 *float64 `json:"Current_AC_Phase_1"`
	CurrentACPhase2 *float64 `json:"Current_AC_Phase_2"`
	CurrentACPhase3 *float64 `json:"Current_AC_Phase_3"`
	CurrentACSum    *float64 `json:"Current_AC_Sum"`

	VoltageACPhase1         *float64 `json:"Voltage_AC_Phase_1"`
	VoltageACPhase2         *float64 `json:"Voltage_AC_Phase_2"`
	VoltageACPhase3         *float64 `json:"Voltage_AC_Phase_3"`
	VoltageACPhaseToPhase12 *float64 `json:"Voltage_AC_PhaseToPhase_12"`
	VoltageACPhaseToPhase23 *float64 `json:"Voltage_AC_PhaseToPhase_23"`
	VoltageACPhaseToPhase31 *float64 `json:"Voltage_AC_PhaseToPhase_31"`

	FrequencyPhaseAverage *float64 `json:"Frequency_Phase_Average"`

	PowerRealPhase1 *float64 `json:"PowerReal_P_Phase_1"`
	PowerRealPhase2 *float64 `json:"PowerReal_P_Phase_2"`
	PowerRealPhase3 *float64 `json:"PowerReal_P_Phase_3"`
	PowerRealSum    *float64 `json:"PowerReal_P_Sum"`

	PowerApparentPhase1 *float64 `json:"PowerApparent_S_Phase_1"`
	PowerApparentPhase2 *float64 `json:"PowerApparent_S_Phase_2"`
	PowerApparentPhase3 *float64 `json:"PowerApparent_S_Phase_3"`
	PowerApparentSum    *float64 `json:"PowerApparent_S_Sum"`

	PowerReactivePhase1 *float64 `json:"PowerReactive_Q_Phase_1"`
	PowerReactivePhase2 *float64 `json:"PowerReactive_Q_Phase_2"`
	PowerReactivePhase3 *float64 `json:"PowerReactive_Q_Phase_3"`
	PowerReactiveSum    *float64 `json:"PowerReactive_Q_Sum"`

	PowerFactorPhase1 *float64 `json:"PowerFactor_Phase_1"`
	PowerFactorPhase2 *float64 `json:"PowerFactor_Phase_2"`
	PowerFactorPhase3 *float64 `json:"PowerFactor_Phase_3"`
	PowerFactorSum    *float64 `json:"PowerFactor_Sum"`

	EnergyRealSumConsumed     *float64 `json:"EnergyReal_WAC_Sum_Consumed"`
	EnergyRealSumProduced     *float64 `json:"EnergyReal_WAC_Sum_Produced"`
	EnergyRealPlusAbsolute    *float64 `json:"EnergyReal_WAC_Plus_Absolute"`
	EnergyRealMinusAbsolute   *float64 `json:"EnergyReal_WAC_Minus_Absolute"`
	EnergyReactiveSumConsumed *float64 `json:"EnergyReactive_VArAC_Sum_Consumed"`
	EnergyReactiveSumProduced *float64 `json:"EnergyReactive_VArAC_Sum_Produced"`

	// TimeStamp is the unix time of the reading as reported by the meter.
	TimeStamp *int64 `json:"TimeStamp"`
}

// MeterDataSystem is keyed by meter device number.
type MeterDataSystem map[string]*MeterData
