package collector

import (
	"context"
	"fmt"
	"time"

	"github.com/raterudder/froniuscollector/pkg/fronius"
	"github.com/raterudder/froniuscollector/pkg/types"
)

type fetchFunc func(ctx context.Context, api API, now time.Time) ([]types.Point, error)

// task is a single request made during a cycle.
type task struct {
	name    string
	channel Channel
	fetch   fetchFunc
}

// systemFetch adapts a system scoped request and its point mapping.
func systemFetch[T any](get func(API, context.Context) (T, error), toPoints func(T, time.Time) []types.Point) fetchFunc {
	return func(ctx context.Context, api API, now time.Time) ([]types.Point, error) {
		data, err := get(api, ctx)
		if err != nil {
			return nil, err
		}
		return toPoints(data, now), nil
	}
}

func inverterFetch[C fronius.InverterCollection](id fronius.DeviceID, get func(API, context.Context, fronius.DeviceID) (C, error)) fetchFunc {
	return func(ctx context.Context, api API, now time.Time) ([]types.Point, error) {
		data, err := get(api, ctx, id)
		if err != nil {
			return nil, err
		}
		return inverterPoint(id, data, now), nil
	}
}

func inverterTask(id fronius.DeviceID, coll fronius.DataCollection) (task, error) {
	t := task{
		name:    fmt.Sprintf("%s/%s/%s", ChannelInverter, id, coll),
		channel: ChannelInverter,
	}
	switch coll {
	case fronius.CumulationInverterDataCollection:
		t.fetch = inverterFetch(id, API.CumulationInverterData)
	case fronius.CommonInverterDataCollection:
		t.fetch = inverterFetch(id, API.CommonInverterData)
	case fronius.ThreePhaseInverterDataCollection:
		t.fetch = inverterFetch(id, API.ThreePhaseInverterData)
	case fronius.MinMaxInverterDataCollection:
		t.fetch = inverterFetch(id, API.MinMaxInverterData)
	default:
		return task{}, fmt.Errorf("unknown data collection %q", coll)
	}
	return t, nil
}

// tasks expands the configured channels into requests. Collections are
// validated when the config is parsed so unknown ones are skipped here.
func (c *Collector) tasks() []task {
	var tasks []task
	for _, ch := range c.cfg.Channels {
		switch ch {
		case ChannelPowerFlow:
			tasks = append(tasks, task{
				name:    string(ch),
				channel: ch,
				fetch:   systemFetch(API.PowerFlowRealtimeData, powerFlowPoints),
			})
		case ChannelInverter:
			for _, id := range c.cfg.InverterIDs {
				for _, coll := range c.cfg.Collections {
					t, err := inverterTask(id, coll)
					if err != nil {
						continue
					}
					tasks = append(tasks, t)
				}
			}
		case ChannelInverterSystem:
			tasks = append(tasks, task{
				name:    string(ch),
				channel: ch,
				fetch:   systemFetch(API.CumulationInverterDataSystem, inverterSystemPoints),
			})
		case ChannelMeter:
			tasks = append(tasks, task{
				name:    string(ch),
				channel: ch,
				fetch:   systemFetch(API.MeterRealtimeDataSystem, meterPoints),
			})
		case ChannelStorage:
			tasks = append(tasks, task{
				name:    string(ch),
				channel: ch,
				fetch:   systemFetch(API.StorageRealtimeDataSystem, storagePoints),
			})
		case ChannelOhmPilot:
			tasks = append(tasks, task{
				name:    string(ch),
				channel: ch,
				fetch:   systemFetch(API.OhmPilotRealtimeDataSystem, ohmPilotPoints),
			})
		case ChannelInventory:
			tasks = append(tasks,
				task{
					name:    string(ch) + "/inverter_info",
					channel: ch,
					fetch:   systemFetch(API.InverterInfo, inverterInfoPoints),
				},
				task{
					name:    string(ch) + "/active_devices",
					channel: ch,
					fetch:   systemFetch(API.ActiveDeviceInfo, deviceInventoryPoints),
				},
			)
		}
	}
	return tasks
}

// ParseCollections parses a comma separated list of inverter data
// collections.
func ParseCollections(s string) ([]fronius.DataCollection, error) {
	var colls []fronius.DataCollection
	for _, raw := range splitList(s) {
		coll := fronius.DataCollection(raw)
		if _, err := inverterTask(fronius.DeviceID{}, coll); err != nil {
			return nil, err
		}
		colls = append(colls, coll)
	}
	if len(colls) == 0 {
		return nil, fmt.Errorf("no inverter data collections configured")
	}
	return colls, nil
}

// ParseDeviceIDs parses a comma separated list of device ids.
func ParseDeviceIDs(s string) ([]fronius.DeviceID, error) {
	var ids []fronius.DeviceID
	for _, raw := range splitList(s) {
		id, err := fronius.ParseDeviceIDString(raw)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}
