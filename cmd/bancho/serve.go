package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ovaphlow/pitchfork/service-bancho-go/internal/config"
	"github.com/ovaphlow/pitchfork/service-bancho-go/internal/donor"
	"github.com/ovaphlow/pitchfork/service-bancho-go/internal/reaper"
	"github.com/ovaphlow/pitchfork/service-bancho-go/internal/router"
	"github.com/ovaphlow/pitchfork/service-bancho-go/internal/surveillance"
	"github.com/ovaphlow/pitchfork/service-bancho-go/internal/world"
	"github.com/ovaphlow/pitchfork/service-bancho-go/internal/world/repo"
	"github.com/ovaphlow/pitchfork/service-bancho-go/pkg/database"
	"github.com/ovaphlow/pitchfork/service-bancho-go/pkg/utilities"
)

func newServeCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Hydrate the world and run the background loops until signalled",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(opts.configFile)
			if err != nil {
				return err
			}
			lg, err := utilities.Init(cfg.Log)
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}
			defer lg.Sync()

			bootID := utilities.NewKSUID()
			sugar := lg.Sugar().With("boot_id", bootID)
			if err := serve(cmd.Context(), cfg, sugar, bootID); err != nil {
				sugar.Errorw("bancho exited", "error", err)
				return err
			}
			return nil
		},
	}
}

func serve(parent context.Context, cfg config.Config, sugar *zap.SugaredLogger, bootID string) error {
	startedAt := time.Now()
	sugar.Infow("starting bancho", "driver", cfg.Database.Driver, "ops_addr", cfg.Bancho.OpsAddr)

	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.Connect(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("db connect: %w", err)
	}
	defer db.Close()

	clock := clockwork.NewRealClock()
	users := repo.NewUserRepo(db)
	players := world.NewPlayerRegistry()

	revoker := donor.NewPrivilegeRevoker(world.NewResolver(players, users), users, sugar)
	scheduler := donor.NewScheduler(revoker, clock, sugar)

	hydrator := world.NewHydrator(repo.NewWorldRepo(db), users, scheduler, world.HydratorConfig{
		BotName: cfg.Bancho.BotName,
		Horizon: cfg.Bancho.DonorHorizon,
		Clock:   clock,
		Players: players,
	}, sugar)
	state, _, err := hydrator.Hydrate(ctx)
	if err != nil {
		return err
	}

	pipeline := newPipeline(cfg.Bancho, clock, sugar)
	evictor := reaper.New(state.Players, clock, cfg.Bancho.InactivityTimeout, sugar)

	srv := &http.Server{
		Addr: cfg.Bancho.OpsAddr,
		Handler: router.RegisterRoutes(sugar.Named("ops"), router.Deps{
			World:        state,
			Surveillance: pipeline,
			Donors:       scheduler,
			BootID:       bootID,
			StartedAt:    startedAt,
		}),
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return evictor.Run(gctx) })
	g.Go(func() error { return scheduler.Run(gctx) })
	g.Go(func() error { return pipeline.Run(gctx) })
	g.Go(func() error {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("ops server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			sugar.Warnw("ops server shutdown failed", "error", err)
		}
		return nil
	})

	sugar.Info("bancho is running; press Ctrl+C to stop")
	err = g.Wait()
	sugar.Infow("goodbye", "uptime", time.Since(startedAt).Round(time.Second))
	return err
}

func newPipeline(cfg config.Bancho, clock clockwork.Clock, sugar *zap.SugaredLogger) *surveillance.Pipeline {
	s := cfg.Surveillance
	var notifier surveillance.Notifier
	if s.Active() {
		notifier = surveillance.NewWebhookNotifier(s.Webhook, nil)
	}
	opts := []surveillance.Option{surveillance.WithClock(clock)}
	if dir := cfg.JournalDir(); dir != "" && s.Active() {
		opts = append(opts, surveillance.WithJournal(surveillance.NewJournal(dir, clock)))
	}
	ids := utilities.IDGenerator{Node: cfg.SnowflakeNode}
	return surveillance.NewPipeline(surveillance.Config{
		Enabled:   s.Active(),
		ReplayDir: cfg.ReplayDir(),
		Mode:      s.SurveilledMode(),
		Threshold: surveillance.Threshold{Value: s.PressTimes.Value, MinPresses: s.PressTimes.MinPresses},
		Domain:    cfg.Domain,
		Thumbnail: s.Thumbnail,
	}, notifier, ids.Next, sugar, opts...)
}
