package collector

import (
	"maps"
	"reflect"
	"slices"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/raterudder/froniuscollector/pkg/fronius"
	"github.com/raterudder/froniuscollector/pkg/types"
)

const (
	MeasurementInverter          = "inverter"
	MeasurementInverterInfo      = "inverter_info"
	MeasurementMeter             = "meter"
	MeasurementStorage           = "storage"
	MeasurementStorageModule     = "storage_module"
	MeasurementOhmPilot          = "ohmpilot"
	MeasurementPowerFlow         = "powerflow"
	MeasurementPowerFlowInverter = "powerflow_inverter"
	MeasurementPowerFlowOhmPilot = "powerflow_ohmpilot"
	MeasurementDeviceInventory   = "device_inventory"
)

// fieldName turns a wire name like "DAY_ENERGY" or "PowerReal_P_Sum" into a
// field name. Names without an underscore are split at their CamelCase
// boundaries so "BatteryStandby" becomes "battery_standby".
func fieldName(tag string) string {
	name, _, _ := strings.Cut(tag, ",")
	if !strings.Contains(name, "_") {
		name = splitCamel(name)
	}
	return strings.ToLower(name)
}

func splitCamel(s string) string {
	var b strings.Builder
	var prev rune
	for i, r := range s {
		if i > 0 && unicode.IsUpper(r) && unicode.IsLower(prev) {
			b.WriteByte('_')
		}
		b.WriteRune(r)
		prev = r
	}
	return b.String()
}

// flatten adds every reported scalar of the struct v as a field. Fields are
// named after their json tag. Nested structs and maps are skipped except for
// DeviceStatus.
func flatten(p types.Point, v any) types.Point {
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return p
		}
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return p
	}
	rt := rv.Type()
	for i := range rt.NumField() {
		sf := rt.Field(i)
		if !sf.IsExported() {
			continue
		}
		name := fieldName(sf.Tag.Get("json"))
		if name == "" || name == "-" {
			continue
		}
		switch fv := rv.Field(i).Interface().(type) {
		case *float64:
			p = p.Float(name, fv)
		case *int:
			p = p.Int(name, fv)
		case *int64:
			if fv != nil {
				p = p.Field(name, *fv)
			}
		case *string:
			p = p.Text(name, fv)
		case *bool:
			p = p.Bool(name, fv)
		case fronius.UnitAndValue[float64]:
			p = p.Float(name, fv.Value)
		case *fronius.UnitAndValue[float64]:
			if fv != nil {
				p = p.Float(name, fv.Value)
			}
		case fronius.DeviceStatus:
			p = deviceStatusFields(p, fv)
		}
	}
	return p
}

// deviceStatusFields adds the scalar entries of a DeviceStatus block as
// status_<key> fields.
func deviceStatusFields(p types.Point, status fronius.DeviceStatus) types.Point {
	for k, v := range status {
		name := "status_" + strings.ToLower(k)
		switch tv := v.(type) {
		case float64, string, bool:
			p = p.Field(name, tv)
		}
	}
	return p
}

func detailTags(p types.Point, d *fronius.DeviceDetails) types.Point {
	if d == nil {
		return p
	}
	if d.Model != nil {
		p = p.Tag("model", *d.Model)
	}
	if d.Serial != nil {
		p = p.Tag("serial", *d.Serial)
	}
	return p
}

// appendPoint keeps only points that carry at least one field.
func appendPoint(points []types.Point, p types.Point) []types.Point {
	if !p.HasFields() {
		return points
	}
	return append(points, p)
}

func inverterPoint[C fronius.InverterCollection](id fronius.DeviceID, data C, now time.Time) []types.Point {
	p := types.NewPoint(MeasurementInverter, now).
		Tag("device_id", id.String()).
		Tag("collection", string(data.DataCollection()))
	return appendPoint(nil, flatten(p, data))
}

// inverterSystemPoints emits one point per device key of the Values maps.
func inverterSystemPoints(data fronius.CumulationInverterDataSystem, now time.Time) []types.Point {
	channels := []struct {
		name   string
		values fronius.UnitAndValues[float64]
	}{
		{"pac", data.PAC},
		{"day_energy", data.DayEnergy},
		{"year_energy", data.YearEnergy},
		{"total_energy", data.TotalEnergy},
	}
	keys := make(map[string]bool)
	for _, ch := range channels {
		for k := range ch.values.Values {
			keys[k] = true
		}
	}
	var points []types.Point
	for _, k := range slices.Sorted(maps.Keys(keys)) {
		p := types.NewPoint(MeasurementInverter, now).
			Tag("device_id", k).
			Tag("collection", string(fronius.CumulationInverterDataCollection)).
			Tag("scope", "system")
		for _, ch := range channels {
			p = p.Float(ch.name, ch.values.Values[k])
		}
		points = appendPoint(points, p)
	}
	return points
}

func inverterInfoPoints(info fronius.InverterInfo, now time.Time) []types.Point {
	var points []types.Point
	for _, k := range slices.Sorted(maps.Keys(info)) {
		dev := info[k]
		if dev == nil {
			continue
		}
		p := types.NewPoint(MeasurementInverterInfo, now).Tag("device_id", k)
		if dev.UniqueID != nil {
			p = p.Tag("unique_id", *dev.UniqueID)
		}
		p = p.Int("dt", dev.DT).
			Float("pv_power", dev.PVPower).
			Int("error_code", dev.ErrorCode).
			Int("show", dev.Show).
			Text("custom_name", dev.CustomName).
			Text("inverter_state", dev.InverterState)
		if dev.StatusCode != nil {
			p = p.Field("status_code", int(*dev.StatusCode)).
				Field("status", dev.StatusCode.String())
		}
		points = appendPoint(points, p)
	}
	return points
}

func deviceInventoryPoints(info fronius.DeviceInfo, now time.Time) []types.Point {
	var points []types.Point
	for _, typ := range slices.Sorted(maps.Keys(info)) {
		devices := info[typ]
		for _, k := range slices.Sorted(maps.Keys(devices)) {
			p := types.NewPoint(MeasurementDeviceInventory, now).
				Tag("device_type", string(typ)).
				Tag("device_id", k).
				Field("active", true)
			if dev := devices[k]; dev != nil {
				p = p.Int("dt", dev.DT).Text("serial", dev.Serial)
			}
			points = append(points, p)
		}
	}
	return points
}

// meterLocation names the Meter_Location_Current values.
func meterLocation(loc *float64) string {
	if loc == nil {
		return ""
	}
	switch l := int(*loc); {
	case l == 0:
		return "grid"
	case l == 1:
		return "load"
	case l == 3:
		return "ext"
	case l >= 256 && l <= 511:
		return "subload"
	default:
		return strconv.Itoa(l)
	}
}

func meterPoints(meters fronius.MeterDataSystem, now time.Time) []types.Point {
	var points []types.Point
	for _, k := range slices.Sorted(maps.Keys(meters)) {
		m := meters[k]
		if m == nil {
			continue
		}
		p := types.NewPoint(MeasurementMeter, now).
			Tag("device_id", k).
			Tag("location", meterLocation(m.MeterLocation))
		p = detailTags(p, m.Details)
		points = appendPoint(points, flatten(p, m))
	}
	return points
}

func storagePoints(storages fronius.StorageDataSystem, now time.Time) []types.Point {
	var points []types.Point
	for _, k := range slices.Sorted(maps.Keys(storages)) {
		s := storages[k]
		if s == nil {
			continue
		}
		if s.Controller != nil {
			p := types.NewPoint(MeasurementStorage, now).Tag("device_id", k)
			p = detailTags(p, s.Controller.Details)
			points = appendPoint(points, flatten(p, s.Controller))
		}
		for i, mod := range s.Modules {
			p := types.NewPoint(MeasurementStorageModule, now).
				Tag("device_id", k).
				Tag("module", strconv.Itoa(i))
			p = detailTags(p, mod.Details)
			points = appendPoint(points, flatten(p, mod))
		}
	}
	return points
}

func ohmPilotPoints(pilots fronius.OhmPilotDataSystem, now time.Time) []types.Point {
	var points []types.Point
	for _, k := range slices.Sorted(maps.Keys(pilots)) {
		o := pilots[k]
		if o == nil {
			continue
		}
		p := types.NewPoint(MeasurementOhmPilot, now).Tag("device_id", k)
		p = detailTags(p, o.Details).
			Float("power", o.PowerRealSum).
			Float("energy", o.EnergyRealSumConsumed).
			Float("temperature", o.TemperatureChannel1).
			Int("error_code", o.CodeOfError)
		if o.CodeOfState != nil {
			p = p.Field("state", int(*o.CodeOfState)).
				Field("state_name", o.CodeOfState.String())
		}
		points = appendPoint(points, p)
	}
	return points
}

func powerFlowPoints(pf fronius.PowerFlowData, now time.Time) []types.Point {
	var points []types.Point
	if pf.Site != nil {
		p := types.NewPoint(MeasurementPowerFlow, now)
		if pf.Version != nil {
			p = p.Tag("version", *pf.Version)
		}
		points = appendPoint(points, flatten(p, pf.Site))
	}
	for _, k := range slices.Sorted(maps.Keys(pf.Inverters)) {
		p := types.NewPoint(MeasurementPowerFlowInverter, now).Tag("device_id", k)
		points = appendPoint(points, flatten(p, pf.Inverters[k]))
	}
	for _, k := range slices.Sorted(maps.Keys(pf.OhmPilots)) {
		p := types.NewPoint(MeasurementPowerFlowOhmPilot, now).Tag("device_id", k)
		points = appendPoint(points, flatten(p, pf.OhmPilots[k]))
	}
	return points
}
