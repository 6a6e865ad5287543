package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"tilecraft.ai/internal/logger"
	persistlog "tilecraft.ai/internal/persistence/log"
	"tilecraft.ai/internal/persistence/r2s3"
	"tilecraft.ai/internal/rules/luahost"
	"tilecraft.ai/internal/sim/catalogs"
	"tilecraft.ai/internal/sim/tuning"
	"tilecraft.ai/internal/sim/world"
	"tilecraft.ai/internal/transport/ws"
)

func main() {
	_ = godotenv.Load()

	var (
		addr       = flag.String("addr", ":8080", "http listen address")
		worldID    = flag.String("world", "world_1", "world id (index rows are tagged with it)")
		configDir  = flag.String("configs", "./configs", "config directory")
		dataDir    = flag.String("data", "./data", "runtime data directory")
		tuningPath = flag.String("tuning", "", "path to tuning.yaml (default: <configs>/tuning.yaml)")
		indexFlag  = flag.String("index", "", "audit index backend: sqlite, d1 or none (default: $TC_INDEX_BACKEND or sqlite)")
		logLevel   = flag.String("log_level", "", "log level (default: $LOG_LEVEL or info)")
	)
	flag.Parse()

	logCfg := logger.ConfigFromEnv()
	if *logLevel != "" {
		logCfg.Level = *logLevel
	}
	log := logger.Init(logCfg).WithField("component", "server")

	tp := strings.TrimSpace(*tuningPath)
	if tp == "" {
		tp = filepath.Join(*configDir, "tuning.yaml")
	}
	tune, err := tuning.Load(tp)
	if err != nil {
		log.WithError(err).Fatal("load tuning")
	}
	cats, err := catalogs.Load(*configDir)
	if err != nil {
		log.WithError(err).Fatal("load catalogs")
	}

	rulesDir := tune.RulesDir
	if rulesDir == "" {
		rulesDir = filepath.Join(*configDir, "rules")
	}
	host, err := luahost.New(rulesDir, logger.Log.WithField("component", "rules"))
	if err != nil {
		log.WithError(err).Fatal("load rules")
	}

	worldDir := filepath.Join(*dataDir, "worlds", *worldID)
	if err := os.MkdirAll(worldDir, 0o755); err != nil {
		log.WithError(err).Fatal("create data dir")
	}

	// The index is a read model; the zstd audit log is the source of truth.
	idx, err := openRuntimeIndex(*indexFlag, worldDir, *worldID, logger.Log)
	if err != nil {
		log.WithError(err).Fatal("open index backend")
	}
	if idx != nil {
		defer idx.Close()
		if err := idx.UpsertCatalogs(*configDir, cats, tune); err != nil {
			log.WithError(err).Warn("index backend: upsert catalogs")
		}
	}

	// Closed before the audit log so its last file still gets uploaded.
	mirrorCfg, err := r2s3.ConfigFromEnv()
	if err != nil {
		log.WithError(err).Fatal("mirror config")
	}
	var mirror *r2s3.Mirror
	if mirrorCfg.Enabled() {
		mirror, err = r2s3.NewMirror(mirrorCfg, *dataDir, logger.Log)
		if err != nil {
			log.WithError(err).Fatal("mirror")
		}
		defer mirror.Close()
	}

	auditLog := persistlog.NewAuditLogger(worldDir)
	if mirror != nil {
		auditLog.OnClose(mirror.Enqueue)
	}
	defer auditLog.Close()
	audit := persistlog.Tee{auditLog}
	if idx != nil {
		audit = append(audit, idx)
	}

	fanout := ws.NewFanout(logger.Log.WithField("component", "fanout"))
	w, err := world.New(tune, cats, world.Deps{
		Rules:    host,
		Notifier: fanout,
		Audit:    audit,
		Log:      logger.Log.WithField("component", "world"),
	})
	if err != nil {
		log.WithError(err).Fatal("world")
	}
	fanout.SetClock(w.CurrentTick)

	sx, sy, sz := tune.Spawn[0], tune.Spawn[1], tune.Spawn[2]
	r := tune.Map.Radius
	if err := w.BuildPlain(sx-r, sy-r, sx+r, sy+r, sz, tune.Map.Ground); err != nil {
		log.WithError(err).Fatal("build map")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	worldDone := make(chan struct{})
	go func() {
		defer close(worldDone)
		if err := w.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.WithError(err).Error("world stopped")
		}
	}()

	rt := routes{
		log:  logger.Log.WithField("component", "http"),
		ws:   ws.NewServer(w, logger.Log.WithField("component", "ws")).Handler(),
		tick: w.CurrentTick,
	}
	if q, ok := idx.(auditQuerier); ok {
		rt.audits = q
	}
	srv := &http.Server{
		Addr:              *addr,
		Handler:           rt.handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go handleSignals(ctx, cancel, w, host, log)
	go func() {
		<-ctx.Done()
		ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel2()
		_ = srv.Shutdown(ctx2)
	}()

	log.WithFields(logrus.Fields{
		"addr":  *addr,
		"world": *worldID,
		"rules": len(host.Files()),
		"items": len(cats.Items.Defs),
	}).Info("listening")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.WithError(err).Fatal("listen")
	}
	cancel()
	<-worldDone
	if err := auditLog.Flush(); err != nil {
		log.WithError(err).Warn("flush audit log")
	}
	log.WithField("tick", w.CurrentTick()).Info("stopped")
}

// handleSignals reloads the rules on SIGHUP and stops on SIGINT or SIGTERM.
// Reloads run on the world goroutine so scripts never change mid-tick.
func handleSignals(ctx context.Context, cancel context.CancelFunc, w *world.World, host *luahost.Host, log logrus.FieldLogger) {
	ch := make(chan os.Signal, 2)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)
	defer signal.Stop(ch)
	for {
		select {
		case <-ctx.Done():
			return
		case sig := <-ch:
			if sig != syscall.SIGHUP {
				log.WithField("signal", sig.String()).Info("shutting down")
				cancel()
				return
			}
			var reloadErr error
			if err := w.Do(ctx, func(*world.World) { reloadErr = host.Reload() }); err != nil {
				return
			}
			if reloadErr != nil {
				log.WithError(reloadErr).Fatal("reload rules")
			}
			log.WithField("files", len(host.Files())).Info("rules reloaded")
		}
	}
}
