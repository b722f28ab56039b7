package storage

import (
	"context"
	"fmt"

	"github.com/levenlabs/go-lflag"
)

// Configured sets up the Storage provider based on flags.
func Configured() Sink {
	providerName := lflag.String("storage-provider", "influxdb", "Storage provider to use (available: influxdb, firestore, mqtt, log)")

	p := &provider{}

	influx := configuredInflux()
	fs := configuredFirestore()
	mq := configuredMQTT()

	lflag.Do(func() {
		switch *providerName {
		case "influxdb":
			if err := influx.Validate(); err != nil {
				panic(fmt.Sprintf("influxdb validation failed: %v", err))
			}
			if err := influx.Init(context.Background()); err != nil {
				panic(fmt.Sprintf("influxdb init failed: %v", err))
			}
			p.Sink = influx
		case "firestore":
			if err := fs.Validate(); err != nil {
				panic(fmt.Sprintf("firestore validation failed: %v", err))
			}
			if err := fs.Init(context.Background()); err != nil {
				panic(fmt.Sprintf("firestore init failed: %v", err))
			}
			p.Sink = fs
		case "mqtt":
			if err := mq.Validate(); err != nil {
				panic(fmt.Sprintf("mqtt validation failed: %v", err))
			}
			if err := mq.Init(context.Background()); err != nil {
				panic(fmt.Sprintf("mqtt init failed: %v", err))
			}
			p.Sink = mq
		case "log":
			p.Sink = &LogSink{}
		default:
			panic(fmt.Sprintf("unknown storage provider: %s", *providerName))
		}
	})

	return p
}
