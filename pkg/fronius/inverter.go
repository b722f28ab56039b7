package fronius

import (
	"encoding/json"
)

// DataCollection is the value of the DataCollection parameter of
// GetInverterRealtimeData.cgi.
type DataCollection string

const (
	CumulationInverterDataCollection DataCollection = "CumulationInverterData"
	CommonInverterDataCollection     DataCollection = "CommonInverterData"
	ThreePhaseInverterDataCollection DataCollection = "3PInverterData"
	MinMaxInverterDataCollection     DataCollection = "MinMaxInverterData"
)

// DataCollections lists every collection the client can request.
var DataCollections = []DataCollection{
	CumulationInverterDataCollection,
	CommonInverterDataCollection,
	ThreePhaseInverterDataCollection,
	MinMaxInverterDataCollection,
}

// DeviceStatus is the free-form status block some inverters attach to their
// realtime data. A nil map means the block was not reported.
type DeviceStatus map[string]any

var cumulationFields = []string{"PAC", "DAY_ENERGY", "YEAR_ENERGY", "TOTAL_ENERGY"}

// CumulationData is the field layout shared by the device and system
// variants of the cumulation collection. V is the value container: a
// UnitAndValue for one device or a UnitAndValues for the whole system.
type CumulationData[V any] struct {
	PAC          V            `json:"PAC"`
	DayEnergy    V            `json:"DAY_ENERGY"`
	YearEnergy   V            `json:"YEAR_ENERGY"`
	TotalEnergy  V            `json:"TOTAL_ENERGY"`
	DeviceStatus DeviceStatus `json:"DeviceStatus"`
}

// CumulationInverterData is the cumulated data of a single inverter.
type CumulationInverterData CumulationData[UnitAndValue[float64]]

// CumulationInverterDataSystem is the cumulated data of every inverter,
// returned for Scope=System.
type CumulationInverterDataSystem CumulationData[UnitAndValues[float64]]

func (d *CumulationInverterData) UnmarshalJSON(b []byte) error {
	if err := requireFields(b, cumulationFields...); err != nil {
		return err
	}
	return json.Unmarshal(b, (*CumulationData[UnitAndValue[float64]])(d))
}

func (d *CumulationInverterDataSystem) UnmarshalJSON(b []byte) error {
	if err := requireFields(b, cumulationFields...); err != nil {
		return err
	}
	return json.Unmarshal(b, (*CumulationData[UnitAndValues[float64]])(d))
}

// CommonInverterData holds the AC and DC channels of one inverter. Up to four
// DC trackers are reported depending on the model.
type CommonInverterData struct {
	PAC          *UnitAndValue[float64] `json:"PAC"`
	SAC          *UnitAndValue[float64] `json:"SAC"`
	IAC          *UnitAndValue[float64] `json:"IAC"`
	UAC          *UnitAndValue[float64] `json:"UAC"`
	FAC          *UnitAndValue[float64] `json:"FAC"`
	IDC          *UnitAndValue[float64] `json:"IDC"`
	IDC2         *UnitAndValue[float64] `json:"IDC_2"`
	IDC3         *UnitAndValue[float64] `json:"IDC_3"`
	IDC4         *UnitAndValue[float64] `json:"IDC_4"`
	UDC          *UnitAndValue[float64] `json:"UDC"`
	UDC2         *UnitAndValue[float64] `json:"UDC_2"`
	UDC3         *UnitAndValue[float64] `json:"UDC_3"`
	UDC4         *UnitAndValue[float64] `json:"UDC_4"`
	DayEnergy    *UnitAndValue[float64] `json:"DAY_ENERGY"`
	YearEnergy   *UnitAndValue[float64] `json:"YEAR_ENERGY"`
	TotalEnergy  *UnitAndValue[float64] `json:"TOTAL_ENERGY"`
	DeviceStatus DeviceStatus           `json:"DeviceStatus"`
}

// ThreePhaseInverterData holds the per phase channels of a three phase
// inverter. Fan and ambient sensors only exist on some models.
type ThreePhaseInverterData struct {
	IACL1              *UnitAndValue[float64] `json:"IAC_L1"`
	IACL2              *UnitAndValue[float64] `json:"IAC_L2"`
	IACL3              *UnitAndValue[float64] `json:"IAC_L3"`
	UACL1              *UnitAndValue[float64] `json:"UAC_L1"`
	UACL2              *UnitAndValue[float64] `json:"UAC_L2"`
	UACL3              *UnitAndValue[float64] `json:"UAC_L3"`
	TAmbient           *UnitAndValue[float64] `json:"T_AMBIENT"`
	RotationSpeedFanFL *UnitAndValue[float64] `json:"ROTATION_SPEED_FAN_FL"`
	RotationSpeedFanFR *UnitAndValue[float64] `json:"ROTATION_SPEED_FAN_FR"`
	RotationSpeedFanBL *UnitAndValue[float64] `json:"ROTATION_SPEED_FAN_BL"`
	RotationSpeedFanBR *UnitAndValue[float64] `json:"ROTATION_SPEED_FAN_BR"`
}

// MinMaxInverterData holds the extreme values an inverter recorded for the
// current day, year and its whole lifetime.
type MinMaxInverterData struct {
	DayPMax     *UnitAndValue[float64] `json:"DAY_PMAX"`
	DayUACMax   *UnitAndValue[float64] `json:"DAY_UACMAX"`
	DayUACMin   *UnitAndValue[float64] `json:"DAY_UACMIN"`
	DayUDCMax   *UnitAndValue[float64] `json:"DAY_UDCMAX"`
	YearPMax    *UnitAndValue[float64] `json:"YEAR_PMAX"`
	YearUACMax  *UnitAndValue[float64] `json:"YEAR_UACMAX"`
	YearUACMin  *UnitAndValue[float64] `json:"YEAR_UACMIN"`
	YearUDCMax  *UnitAndValue[float64] `json:"YEAR_UDCMAX"`
	TotalPMax   *UnitAndValue[float64] `json:"TOTAL_PMAX"`
	TotalUACMax *UnitAndValue[float64] `json:"TOTAL_UACMAX"`
	TotalUACMin *UnitAndValue[float64] `json:"TOTAL_UACMIN"`
	TotalUDCMax *UnitAndValue[float64] `json:"TOTAL_UDCMAX"`
}

func (CumulationInverterData) DataCollection() DataCollection {
	return CumulationInverterDataCollection
}

func (CommonInverterData) DataCollection() DataCollection {
	return CommonInverterDataCollection
}

func (ThreePhaseInverterData) DataCollection() DataCollection {
	return ThreePhaseInverterDataCollection
}

func (MinMaxInverterData) DataCollection() DataCollection {
	return MinMaxInverterDataCollection
}

// InverterCollection is the closed set of payloads that can be requested
// for a single inverter.
type InverterCollection interface {
	CumulationInverterData | CommonInverterData | ThreePhaseInverterData | MinMaxInverterData
	DataCollection() DataCollection
}
