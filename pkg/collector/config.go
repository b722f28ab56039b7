package collector

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/levenlabs/go-lflag"
	"github.com/raterudder/froniuscollector/pkg/common"
	"github.com/raterudder/froniuscollector/pkg/fronius"
	"github.com/raterudder/froniuscollector/pkg/storage"
)

const defaultChannels = "powerflow,inverter,meter,storage,ohmpilot,inventory"

func splitList(s string) []string {
	var out []string
	for _, v := range strings.Split(s, ",") {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

// Validate checks a configuration built from flags.
func (cfg Config) Validate() error {
	if cfg.Interval <= 0 {
		return fmt.Errorf("invalid poll-interval: %v", cfg.Interval)
	}
	if len(cfg.Channels) == 0 {
		return errors.New("no channels configured")
	}
	if cfg.MaxConcurrency < 1 {
		return fmt.Errorf("invalid max-concurrency: %d", cfg.MaxConcurrency)
	}
	return nil
}

// Configured registers the polling flags and returns a Collector that writes
// to sink once flags are parsed.
func Configured(sink storage.Sink) *Collector {
	c := New(nil, sink, Config{})

	host := lflag.String("fronius-host", common.EnvDefault("FRONIUS_HOST", ""), "Host or base URL of the Fronius datamanager (e.g. 192.168.1.20)")
	timeout := lflag.Duration("fronius-timeout", fronius.DefaultTimeout, "Timeout for each request to the device")
	interval := lflag.Duration("poll-interval", common.EnvDuration("POLL_INTERVAL", 10*time.Second), "How often to poll the device")
	channels := lflag.String("channels", defaultChannels, "Comma-delimited channels to poll (powerflow, inverter, inverter-system, meter, storage, ohmpilot, inventory)")
	inverterIDs := lflag.String("inverter-device-ids", "1", "Comma-delimited inverter device ids polled by the inverter channel")
	collections := lflag.String("inverter-collections", string(fronius.CommonInverterDataCollection), "Comma-delimited inverter data collections (CumulationInverterData, CommonInverterData, 3PInverterData, MinMaxInverterData)")
	maxConcurrency := lflag.Int("max-concurrency", 4, "Maximum concurrent requests to the device per cycle")

	lflag.Do(func() {
		if *host == "" {
			panic("fronius-host is required")
		}
		chans, err := ParseChannels(*channels)
		if err != nil {
			panic(fmt.Sprintf("invalid channels: %v", err))
		}
		ids, err := ParseDeviceIDs(*inverterIDs)
		if err != nil {
			panic(fmt.Sprintf("invalid inverter-device-ids: %v", err))
		}
		colls, err := ParseCollections(*collections)
		if err != nil {
			panic(fmt.Sprintf("invalid inverter-collections: %v", err))
		}
		cfg := Config{
			Interval:       *interval,
			Channels:       chans,
			InverterIDs:    ids,
			Collections:    colls,
			MaxConcurrency: *maxConcurrency,
		}
		if err := cfg.Validate(); err != nil {
			panic(fmt.Sprintf("invalid collector config: %v", err))
		}
		c.cfg = cfg
		c.connect = func(ctx context.Context) (API, error) {
			client, err := fronius.Connect(ctx, *host, fronius.WithHTTPClient(common.HTTPClient(*timeout)))
			if err != nil {
				return nil, err
			}
			return client, nil
		}
	})

	return c
}
