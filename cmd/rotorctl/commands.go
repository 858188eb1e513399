package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/lumapanel/rotor/internal/availability"
	"github.com/lumapanel/rotor/internal/config"
	"github.com/lumapanel/rotor/internal/model"
	"github.com/lumapanel/rotor/internal/normalize"
	"github.com/lumapanel/rotor/internal/notify"
	"github.com/lumapanel/rotor/internal/rotation"
	"github.com/lumapanel/rotor/internal/scheduler"
	"github.com/lumapanel/rotor/internal/store"
)

// loadCandidate reads, migrates and validates a schedule edit. Nothing is
// persisted here; a document this returns is safe to save.
func loadCandidate(cfg *config.Config, path string) (map[string]any, bool, error) {
	raw, err := normalize.ReadDocument(path)
	if err != nil {
		return nil, false, err
	}
	cat := panelCatalog(cfg)
	doc, changed, err := normalize.Migrate(cat, raw, path)
	if err != nil {
		return nil, false, err
	}
	if _, _, err := normalize.Config(cat, doc); err != nil {
		return nil, false, err
	}
	return doc, changed, nil
}

func cmdValidate(cfg *config.Config, args []string) int {
	flags := flag.NewFlagSet("validate", flag.ContinueOnError)
	if err := flags.Parse(args); err != nil {
		return 2
	}
	if flags.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: rotorctl validate <file>")
		return 2
	}

	doc, changed, err := loadCandidate(cfg, flags.Arg(0))
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		return 1
	}
	out, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		return 1
	}
	fmt.Println(string(out))
	if changed {
		log.Info().Msg("document was upgraded to the current format")
	}
	return 0
}

func cmdApply(cfg *config.Config, args []string) int {
	flags := flag.NewFlagSet("apply", flag.ContinueOnError)
	actor := flags.String("actor", "operator", "who is making this change")
	summary := flags.String("summary", "", "history summary (default: screen diff)")
	if err := flags.Parse(args); err != nil {
		return 2
	}
	if flags.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: rotorctl apply [-actor a] [-summary s] <file>")
		return 2
	}

	doc, _, err := loadCandidate(cfg, flags.Arg(0))
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		return 1
	}

	st, err := openStore(cfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		return 1
	}
	defer st.Close()

	id, err := st.Save(doc, *actor, *summary, nil)
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		return 1
	}
	fmt.Printf("saved schedule version %d\n", id)
	announce(cfg, st, id)
	return 0
}

// announce pushes the new version to the renderer fleet when MQTT is
// configured. Failures are logged, not fatal: the schedule is already saved.
func announce(cfg *config.Config, st *store.Store, id int64) {
	if cfg.MQTTBroker == "" {
		return
	}
	pub, err := notify.Connect(cfg.MQTTBroker, fmt.Sprintf("rotorctl-%d", os.Getpid()), cfg.MQTTTopicPrefix)
	if err != nil {
		log.Error().Err(err).Msg("[cmd] announce: cannot reach broker")
		return
	}
	defer pub.Close()

	summary := ""
	if rows, err := st.ListVersions(1); err == nil && len(rows) > 0 {
		summary = rows[0].Summary
	}
	if err := pub.ScheduleUpdated(id, summary); err != nil {
		log.Error().Err(err).Msg("[cmd] announce: publish failed")
	}
}

func cmdShow(cfg *config.Config, args []string) int {
	if len(args) != 0 {
		fmt.Fprintln(os.Stderr, "usage: rotorctl show")
		return 2
	}
	data, err := os.ReadFile(cfg.SchedulePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "no active schedule at %s\n", cfg.SchedulePath)
		return 1
	}
	os.Stdout.Write(data)
	return 0
}

func cmdHistory(cfg *config.Config, args []string) int {
	flags := flag.NewFlagSet("history", flag.ContinueOnError)
	limit := flags.Int("n", 0, "number of versions to show (default: retention window)")
	asJSON := flags.Bool("json", false, "print raw version rows as JSON")
	if err := flags.Parse(args); err != nil {
		return 2
	}

	st, err := openStore(cfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		return 1
	}
	defer st.Close()

	versions, err := st.ListVersions(*limit)
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		return 1
	}
	if len(versions) == 0 {
		fmt.Println("no versions saved yet")
		return 0
	}
	if *asJSON {
		out, err := json.MarshalIndent(versions, "", "  ")
		if err != nil {
			fmt.Fprintln(os.Stderr, "error:", err)
			return 1
		}
		fmt.Println(string(out))
		return 0
	}
	for _, v := range versions {
		fmt.Printf("%6d  %s  %-10s  %s\n", v.ID, v.CreatedAt, v.Actor, v.Summary)
	}
	return 0
}

func cmdRollback(cfg *config.Config, args []string) int {
	flags := flag.NewFlagSet("rollback", flag.ContinueOnError)
	actor := flags.String("actor", "operator", "who is making this change")
	if err := flags.Parse(args); err != nil {
		return 2
	}
	if flags.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: rotorctl rollback [-actor a] <version-id>")
		return 2
	}
	id, err := strconv.ParseInt(flags.Arg(0), 10, 64)
	if err != nil {
		fmt.Fprintf(os.Stderr, "bad version id %q\n", flags.Arg(0))
		return 2
	}

	st, err := openStore(cfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		return 1
	}
	defer st.Close()

	_, newID, err := st.Rollback(id, *actor)
	if err != nil {
		if errors.Is(err, model.ErrVersionNotFound) {
			fmt.Fprintf(os.Stderr, "version %d not found (pruned or never saved)\n", id)
			return 1
		}
		fmt.Fprintln(os.Stderr, "error:", err)
		return 1
	}
	fmt.Printf("restored version %d as new version %d\n", id, newID)
	announce(cfg, st, newID)
	return 0
}

func cmdPreview(cfg *config.Config, args []string) int {
	flags := flag.NewFlagSet("preview", flag.ContinueOnError)
	ticks := flags.Int("ticks", 12, "how many selections to simulate")
	down := flags.String("down", "", "comma-separated screens to treat as unavailable")
	file := flags.String("file", "", "preview a candidate document instead of the active schedule")
	if err := flags.Parse(args); err != nil {
		return 2
	}

	cat := panelCatalog(cfg)
	var sched *scheduler.Scheduler
	if *file != "" {
		doc, _, err := loadCandidate(cfg, *file)
		if err != nil {
			fmt.Fprintln(os.Stderr, "error:", err)
			return 1
		}
		seq, _, err := normalize.Config(cat, doc)
		if err != nil {
			fmt.Fprintln(os.Stderr, "error:", err)
			return 1
		}
		s, err := scheduler.Build(cat, seq)
		if err != nil {
			fmt.Fprintln(os.Stderr, "error:", err)
			return 1
		}
		sched = s
	} else {
		rot := rotation.New(cfg.SchedulePath, cat)
		s, _, err := rot.ReloadIfChanged()
		if err != nil {
			log.Warn().Err(err).Msg("[cmd] preview: active schedule invalid, previewing fallback")
		}
		sched = s
	}

	snap := make(map[string]bool)
	for _, id := range cat.IDs() {
		snap[id] = true
	}
	for _, id := range strings.Split(*down, ",") {
		if id = strings.TrimSpace(id); id != "" {
			snap[id] = false
		}
	}

	avail := availability.Func(snap)
	for i := 1; i <= *ticks; i++ {
		id, ok := sched.NextAvailable(avail)
		if !ok {
			id = "(none)"
		}
		fmt.Printf("tick %2d: %s\n", i, id)
	}
	return 0
}

func cmdStatus(cfg *config.Config, args []string) int {
	if len(args) != 0 {
		fmt.Fprintln(os.Stderr, "usage: rotorctl status")
		return 2
	}

	cat := panelCatalog(cfg)
	fmt.Printf("schedule:  %s", cfg.SchedulePath)
	if info, err := os.Stat(cfg.SchedulePath); err == nil {
		fmt.Printf(" (modified %s)", info.ModTime().UTC().Format(time.RFC3339))
	} else {
		fmt.Print(" (missing, default rotation active)")
	}
	fmt.Println()

	st, err := openStore(cfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		return 1
	}
	defer st.Close()

	latest, err := st.LatestVersionID()
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		return 1
	}
	if latest == 0 {
		fmt.Printf("history:   %s, no versions saved\n", cfg.HistoryDriver)
	} else {
		fmt.Printf("history:   %s, latest version %d\n", cfg.HistoryDriver, latest)
	}

	rot := rotation.New(cfg.SchedulePath, cat)
	if s, _, err := rot.ReloadIfChanged(); err != nil {
		fmt.Printf("rotation:  invalid schedule (%v), fallback active\n", err)
	} else {
		fmt.Printf("rotation:  %d nodes\n", s.Len())
	}
	fmt.Printf("screens:   %s\n", strings.Join(cat.IDs(), ", "))
	return 0
}
