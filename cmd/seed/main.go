package main

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"os"
	"slices"
	"time"

	"github.com/levenlabs/go-lflag"
	"github.com/raterudder/froniuscollector/pkg/log"
	"github.com/raterudder/froniuscollector/pkg/storage"
	"github.com/raterudder/froniuscollector/pkg/types"
)

func main() {
	if os.Getenv("FIRESTORE_EMULATOR_HOST") == "" {
		os.Setenv("FIRESTORE_EMULATOR_HOST", "127.0.0.1:8087")
	}
	s := storage.Configured()
	step := lflag.Duration("seed-step", 5*time.Minute, "Time between seeded readings")
	lflag.Configure()

	ctx := context.Background()
	defer s.Close()

	log.Ctx(ctx).InfoContext(ctx, "seeding mock data")

	// Use a new random source
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))

	now := time.Now().UTC()
	// Midnight to now
	start := now.Truncate(24 * time.Hour)

	// Simulation state
	const (
		BatteryCapacityWH = 10240.0
		MaxBatteryW       = 5000.0
		HomeAvgW          = 600.0
		SolarPeakW        = 8000.0
	)
	soc := 40.0
	var dayEnergy, consumed float64
	totalEnergy := 12_500_000.0

	var points []types.Point
	for t := start; t.Before(now); t = t.Add(*step) {
		hour := float64(t.Hour()) + float64(t.Minute())/60

		// Solar (bell curve)
		pv := 0.0
		if hour > 6 && hour < 20 {
			dist := hour - 13.0
			pv = SolarPeakW * math.Exp(-(dist*dist)/8.0) * (0.85 + rng.Float64()*0.15)
		}

		// Home usage
		home := HomeAvgW + rng.Float64()*400
		if hour >= 7 && hour < 9 {
			home += 1500 // Breakfast
		} else if hour >= 18 && hour < 22 {
			home += 2500 // Evening activities
		}

		// charge from surplus, discharge to cover the deficit
		akku := math.Max(-MaxBatteryW, math.Min(MaxBatteryW, home-pv))
		soc -= akku * step.Hours() / BatteryCapacityWH * 100
		if soc > 100 {
			akku += (soc - 100) * BatteryCapacityWH / 100 / step.Hours()
			soc = 100
		}
		if soc < 5 { // Reserve 5%
			akku -= (5 - soc) * BatteryCapacityWH / 100 / step.Hours()
			soc = 5
		}
		grid := home - pv - akku
		load := -home

		produced := pv * step.Hours()
		dayEnergy += produced
		totalEnergy += produced
		if grid > 0 {
			consumed += grid * step.Hours()
		}
		autonomy := 100.0
		if home > 0 && grid > 0 {
			autonomy = (1 - grid/home) * 100
		}
		mode := "bidirectional"

		points = append(points,
			types.NewPoint("powerflow", t).
				Float("p_pv", &pv).
				Float("p_load", &load).
				Float("p_grid", &grid).
				Float("p_akku", &akku).
				Float("e_day", &dayEnergy).
				Float("e_total", &totalEnergy).
				Float("rel_autonomy", &autonomy).
				Text("mode", &mode),
			types.NewPoint("inverter", t).
				Tag("device_id", "1").
				Tag("collection", "CommonInverterData").
				Float("pac", &pv).
				Float("day_energy", &dayEnergy).
				Float("total_energy", &totalEnergy),
			types.NewPoint("meter", t).
				Tag("device_id", "0").
				Tag("location", "grid").
				Float("powerreal_p_sum", &grid).
				Float("energyreal_wac_sum_consumed", &consumed),
			types.NewPoint("storage", t).
				Tag("device_id", "0").
				Float("stateofcharge_relative", &soc),
		)

		fmt.Printf("Seeded %s: PV %.0fW, Load %.0fW, Grid %.0fW, SOC %.0f%%\n",
			t.Format(time.Kitchen), pv, home, grid, soc)
	}

	for batch := range slices.Chunk(points, 400) {
		if err := s.WritePoints(ctx, batch); err != nil {
			log.Ctx(ctx).ErrorContext(ctx, "failed to seed points", "error", err)
			os.Exit(1)
		}
	}

	log.Ctx(ctx).InfoContext(ctx, "seeded mock data successfully", "points", len(points))
}
