package collector

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/raterudder/froniuscollector/pkg/fronius"
	"github.com/raterudder/froniuscollector/pkg/log"
	"github.com/raterudder/froniuscollector/pkg/storage"
	"github.com/raterudder/froniuscollector/pkg/types"

	"golang.org/x/sync/errgroup"
)

// API is the part of *fronius.Client the collector polls.
type API interface {
	CumulationInverterData(ctx context.Context, id fronius.DeviceID) (fronius.CumulationInverterData, error)
	CommonInverterData(ctx context.Context, id fronius.DeviceID) (fronius.CommonInverterData, error)
	ThreePhaseInverterData(ctx context.Context, id fronius.DeviceID) (fronius.ThreePhaseInverterData, error)
	MinMaxInverterData(ctx context.Context, id fronius.DeviceID) (fronius.MinMaxInverterData, error)
	CumulationInverterDataSystem(ctx context.Context) (fronius.CumulationInverterDataSystem, error)
	InverterInfo(ctx context.Context) (fronius.InverterInfo, error)
	ActiveDeviceInfo(ctx context.Context) (fronius.DeviceInfo, error)
	MeterRealtimeDataSystem(ctx context.Context) (fronius.MeterDataSystem, error)
	StorageRealtimeDataSystem(ctx context.Context) (fronius.StorageDataSystem, error)
	OhmPilotRealtimeDataSystem(ctx context.Context) (fronius.OhmPilotDataSystem, error)
	PowerFlowRealtimeData(ctx context.Context) (fronius.PowerFlowData, error)
}

var _ API = (*fronius.Client)(nil)

// ConnectFunc performs the API version bootstrap and returns a ready client.
type ConnectFunc func(ctx context.Context) (API, error)

// Static returns a ConnectFunc that always hands out api.
func Static(api API) ConnectFunc {
	return func(context.Context) (API, error) {
		return api, nil
	}
}

// Channel is a group of endpoints polled together.
type Channel string

const (
	ChannelPowerFlow      Channel = "powerflow"
	ChannelInverter       Channel = "inverter"
	ChannelInverterSystem Channel = "inverter-system"
	ChannelMeter          Channel = "meter"
	ChannelStorage        Channel = "storage"
	ChannelOhmPilot       Channel = "ohmpilot"
	ChannelInventory      Channel = "inventory"
)

// Channels lists every channel the collector knows about.
var Channels = []Channel{
	ChannelPowerFlow,
	ChannelInverter,
	ChannelInverterSystem,
	ChannelMeter,
	ChannelStorage,
	ChannelOhmPilot,
	ChannelInventory,
}

// ParseChannels parses a comma separated channel list. Duplicates are
// removed and the order is preserved.
func ParseChannels(s string) ([]Channel, error) {
	var chans []Channel
	for _, raw := range splitList(s) {
		ch := Channel(raw)
		if !slices.Contains(Channels, ch) {
			return nil, fmt.Errorf("unknown channel %q", ch)
		}
		if !slices.Contains(chans, ch) {
			chans = append(chans, ch)
		}
	}
	if len(chans) == 0 {
		return nil, errors.New("no channels configured")
	}
	return chans, nil
}

// Config controls what a cycle fetches.
type Config struct {
	Interval       time.Duration
	Channels       []Channel
	InverterIDs    []fronius.DeviceID
	Collections    []fronius.DataCollection
	MaxConcurrency int
}

// ChannelResult is the outcome of one fetch within a cycle.
type ChannelResult struct {
	Name     string        `json:"name"`
	Channel  Channel       `json:"channel"`
	OK       bool          `json:"ok"`
	Error    string        `json:"error,omitempty"`
	Points   int           `json:"points"`
	Duration time.Duration `json:"duration"`
}

// Result is the outcome of a whole cycle.
type Result struct {
	Time       time.Time       `json:"time"`
	Duration   time.Duration   `json:"duration"`
	Connected  bool            `json:"connected"`
	Error      string          `json:"error,omitempty"`
	WriteError string          `json:"writeError,omitempty"`
	Channels   []ChannelResult `json:"channels"`
	Points     []types.Point   `json:"-"`
}

// OK reports whether the cycle connected, every channel succeeded and the
// points were written.
func (r Result) OK() bool {
	if !r.Connected || r.Error != "" || r.WriteError != "" {
		return false
	}
	for _, ch := range r.Channels {
		if !ch.OK {
			return false
		}
	}
	return true
}

// Clone returns a deep copy of r.
func (r Result) Clone() Result {
	r.Channels = slices.Clone(r.Channels)
	points := make([]types.Point, len(r.Points))
	for i, p := range r.Points {
		points[i] = p.Clone()
	}
	r.Points = points
	return r
}

// Collector polls a Fronius device and hands the readings to a sink.
type Collector struct {
	connect ConnectFunc
	sink    storage.Sink
	cfg     Config
	metrics *metrics

	apiMu sync.Mutex
	api   API

	// only one cycle runs at a time
	cycleMu sync.Mutex

	latestMu sync.RWMutex
	latest   *Result
}

// New creates a Collector. connect is called lazily and again on the next
// cycle whenever it fails.
func New(connect ConnectFunc, sink storage.Sink, cfg Config) *Collector {
	c := &Collector{
		connect: connect,
		sink:    sink,
		cfg:     cfg,
		metrics: newMetrics(),
	}
	c.metrics.registry.MustRegister(newPointCollector(c))
	return c
}

func (c *Collector) client(ctx context.Context) (API, error) {
	c.apiMu.Lock()
	defer c.apiMu.Unlock()
	if c.api != nil {
		return c.api, nil
	}
	api, err := c.connect(ctx)
	if err != nil {
		c.metrics.connectErrors.Inc()
		return nil, fmt.Errorf("failed to connect to device: %w", err)
	}
	c.api = api
	return api, nil
}

// Cycle fetches every configured channel, writes the points in one batch and
// records the outcome. A failing channel never aborts the cycle.
func (c *Collector) Cycle(ctx context.Context) Result {
	c.cycleMu.Lock()
	defer c.cycleMu.Unlock()

	start := time.Now()
	res := Result{Time: start.UTC()}

	api, err := c.client(ctx)
	if err != nil {
		log.Ctx(ctx).WarnContext(ctx, "failed to connect, retrying next cycle", slog.Any("error", err))
		res.Error = err.Error()
		return c.finish(ctx, res, start)
	}
	res.Connected = true

	tasks := c.tasks()
	results := make([]ChannelResult, len(tasks))
	points := make([][]types.Point, len(tasks))

	var g errgroup.Group
	if c.cfg.MaxConcurrency > 0 {
		g.SetLimit(c.cfg.MaxConcurrency)
	}
	for i, t := range tasks {
		g.Go(func() error {
			results[i], points[i] = c.runTask(ctx, api, t, res.Time)
			return nil
		})
	}
	// tasks never return an error
	_ = g.Wait()

	res.Channels = results
	for _, ps := range points {
		res.Points = append(res.Points, ps...)
	}

	if len(res.Points) > 0 {
		if err := c.sink.WritePoints(ctx, res.Points); err != nil {
			log.Ctx(ctx).ErrorContext(ctx, "failed to write points", slog.Int("points", len(res.Points)), slog.Any("error", err))
			c.metrics.writeErrors.Inc()
			res.WriteError = err.Error()
		} else {
			c.metrics.pointsWritten.Add(float64(len(res.Points)))
		}
	}

	return c.finish(ctx, res, start)
}

func (c *Collector) finish(ctx context.Context, res Result, start time.Time) Result {
	res.Duration = time.Since(start)
	c.metrics.observeCycle(res)

	c.latestMu.Lock()
	stored := res.Clone()
	c.latest = &stored
	c.latestMu.Unlock()

	log.Ctx(ctx).DebugContext(ctx, "cycle finished",
		slog.Duration("duration", res.Duration),
		slog.Int("points", len(res.Points)),
		slog.Bool("ok", res.OK()),
	)
	return res
}

func (c *Collector) runTask(ctx context.Context, api API, t task, now time.Time) (ChannelResult, []types.Point) {
	start := time.Now()
	points, err := t.fetch(ctx, api, now)
	cr := ChannelResult{
		Name:     t.name,
		Channel:  t.channel,
		Duration: time.Since(start),
	}
	c.metrics.observeChannel(t.channel, cr.Duration, err)
	if err != nil {
		cr.Error = err.Error()
		l := log.Ctx(ctx).With(slog.String("channel", t.name), slog.Any("error", err))
		var respErr *fronius.ResponseError
		if errors.As(err, &respErr) && respErr.Status.Code == fronius.StatusDeviceNotAvailable {
			l.DebugContext(ctx, "device not available")
		} else {
			l.ErrorContext(ctx, "failed to fetch channel")
		}
		return cr, nil
	}
	cr.OK = true
	cr.Points = len(points)
	return cr, points
}

// Trigger runs one cycle now. It waits for a running cycle to finish first.
func (c *Collector) Trigger(ctx context.Context) Result {
	return c.Cycle(ctx)
}

// Latest returns a copy of the last cycle's result. The bool is false until
// the first cycle finished.
func (c *Collector) Latest() (Result, bool) {
	c.latestMu.RLock()
	defer c.latestMu.RUnlock()
	if c.latest == nil {
		return Result{}, false
	}
	return c.latest.Clone(), true
}

// Run runs a cycle immediately and then on every interval tick until ctx is
// canceled.
func (c *Collector) Run(ctx context.Context) error {
	if c.cfg.Interval <= 0 {
		return fmt.Errorf("invalid poll interval: %v", c.cfg.Interval)
	}
	log.Ctx(ctx).InfoContext(ctx, "starting collector",
		slog.Duration("interval", c.cfg.Interval),
		slog.Any("channels", c.cfg.Channels),
	)

	c.Cycle(ctx)

	ticker := time.NewTicker(c.cfg.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			log.Ctx(ctx).InfoContext(ctx, "stopping collector")
			return nil
		case <-ticker.C:
			c.Cycle(ctx)
		}
	}
}
