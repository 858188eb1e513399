package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/lumapanel/rotor/internal/availability"
	"github.com/lumapanel/rotor/internal/config"
	"github.com/lumapanel/rotor/internal/notify"
	"github.com/lumapanel/rotor/internal/rotation"
)

// cmdRun is the panel-side loop: reload the schedule when it changes, take an
// availability snapshot each tick, pick the next screen and tell the renderer.
func cmdRun(cfg *config.Config, args []string) int {
	flags := flag.NewFlagSet("run", flag.ContinueOnError)
	interval := flags.Duration("interval", cfg.TickInterval, "time between screen selections")
	if err := flags.Parse(args); err != nil {
		return 2
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cat := panelCatalog(cfg)
	rot := rotation.New(cfg.SchedulePath, cat)

	var src availability.Source = availability.AllOn()
	if cfg.RedisAddress != "" {
		r := availability.NewRedis(cfg.RedisAddress, cfg.RedisUsername, cfg.RedisPassword,
			cfg.AvailabilityPrefix, cat.IDs())
		defer r.Close()
		src = r
	}

	var pub *notify.Publisher
	if cfg.MQTTBroker != "" {
		p, err := notify.Connect(cfg.MQTTBroker, fmt.Sprintf("rotorctl-run-%d", os.Getpid()), cfg.MQTTTopicPrefix)
		if err != nil {
			log.Error().Err(err).Msg("[run] broker unreachable, continuing without notifications")
		} else {
			pub = p
			defer pub.Close()
		}
	}

	nudges, err := rotation.Watch(ctx, cfg.SchedulePath)
	if err != nil {
		log.Warn().Err(err).Msg("[run] file watch unavailable, relying on per-tick mtime checks")
		nudges = nil
	}

	if _, _, err := rot.ReloadIfChanged(); err != nil {
		log.Error().Err(err).Msg("[run] stored schedule rejected, starting on fallback rotation")
	}

	var lastSnap map[string]bool
	ticker := time.NewTicker(*interval)
	defer ticker.Stop()

	log.Info().
		Str("schedule", cfg.SchedulePath).
		Dur("interval", *interval).
		Msg("[run] rotation loop started")

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("[run] rotation loop stopped")
			return 0
		case <-nudges:
			reload(rot)
		case <-ticker.C:
			reload(rot)
			if snap, err := snapshot(ctx, src); err != nil {
				log.Error().Err(err).Msg("[run] availability snapshot failed, reusing previous")
			} else {
				lastSnap = snap
			}
			tick(rot, pub, lastSnap)
		}
	}
}

func reload(rot *rotation.Rotation) {
	if _, changed, err := rot.ReloadIfChanged(); err == nil && changed {
		log.Info().Msg("[run] schedule reloaded")
	}
}

// tick selects one screen and publishes it. An empty id tells subscribers the
// rotation currently has nothing to show.
func tick(rot *rotation.Rotation, pub *notify.Publisher, snap map[string]bool) {
	id, ok := rot.Current().NextAvailable(availability.Func(snap))
	if !ok {
		log.Debug().Msg("[run] no screen available this tick")
	} else {
		log.Debug().Str("screen", id).Msg("[run] screen selected")
	}
	if err := pub.ScreenSelected(id); err != nil {
		log.Error().Err(err).Str("screen", id).Msg("[run] publish failed")
	}
}

// snapshot bounds the availability read so a stalled backend cannot freeze
// the rotation.
func snapshot(ctx context.Context, src availability.Source) (map[string]bool, error) {
	sctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	return src.Snapshot(sctx)
}
