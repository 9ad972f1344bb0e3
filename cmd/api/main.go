package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"corebank.org/internal/access"
	"corebank.org/internal/account"
	"corebank.org/internal/approval"
	"corebank.org/internal/config"
	"corebank.org/internal/feed"
	"corebank.org/internal/httpapi"
	"corebank.org/internal/identity"
	"corebank.org/internal/ledger"
	"corebank.org/internal/obs"
	"corebank.org/internal/report"
	"corebank.org/internal/store/pg"
)

var version = "0.3.0"

func main() {
	cfg, err := config.Load()
	if err != nil {
		obs.Logger().Fatal().Err(err).Msg("load config")
	}
	obs.SetLevel(cfg.LogLevel)
	obs.Init()
	obs.InitBuildInfo(version, "")

	users := identity.NewStore()
	accounts := account.NewStore(account.WithLockWait(cfg.LockWait))
	control := access.NewControl(users)
	liveFeed := feed.New()

	engineOpts := []ledger.EngineOption{ledger.WithFeed(liveFeed)}

	// Optional durable transaction archive
	var archive *pg.Store
	if cfg.PostgresDSN != "" {
		archive, err = pg.Open(cfg.PostgresDSN)
		if err != nil {
			obs.Logger().Fatal().Err(err).Msg("open transaction archive")
		}
		engineOpts = append(engineOpts, ledger.WithArchiver(archive))
	}

	engine := ledger.NewEngine(accounts, users, control, engineOpts...)
	workflow := approval.NewWorkflow(users, control)
	reports := report.NewService(users, accounts, engine, control)

	seedUsers(users, cfg)

	probe := httpapi.ReadyProbe{}
	if archive != nil {
		probe.DB = archive.DB()
	}
	api := httpapi.New(users, accounts, engine, workflow, control, reports, liveFeed, probe, version, httpapi.Options{
		RateLimitRPS:   cfg.RateLimitRPS,
		RateLimitBurst: cfg.RateLimitBurst,
	})

	// No WriteTimeout: the SSE stream holds its response open.
	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           api.Handler(),
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	obs.Logger().Info().Str("addr", srv.Addr).Str("version", version).Msg("starting corebank-api")

	// graceful shutdown
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			obs.Logger().Fatal().Err(err).Msg("listen")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	<-stop
	obs.Logger().Info().Msg("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_ = srv.Shutdown(ctx)
	if archive != nil {
		_ = archive.Close()
	}
	obs.Logger().Info().Msg("stopped")
}

// seedUsers creates the default admin and staff accounts when they do not
// exist yet. Passwords come from the environment; seeding is skipped for a
// role whose password is unset.
func seedUsers(users *identity.Store, cfg *config.Config) {
	ctx := context.Background()

	seed := func(name, email, password string, role identity.Role, createdBy string) string {
		if password == "" {
			obs.Logger().Warn().Str("email", email).Msg("seed password unset, skipping")
			return ""
		}
		if u, err := users.FindByEmail(ctx, email); err == nil {
			return u.ID
		}
		u, err := users.CreateUser(ctx, name, email, password, role, true, createdBy)
		if err != nil {
			obs.Logger().Fatal().Err(err).Str("email", email).Msg("seed user")
		}
		obs.Logger().Info().Str("email", email).Str("role", string(role)).Msg("seeded user")
		return u.ID
	}

	adminID := seed("Administrator", cfg.AdminEmail, cfg.AdminPassword, identity.RoleAdmin, "")
	seed("Branch Staff", cfg.StaffEmail, cfg.StaffPassword, identity.RoleStaff, adminID)
}
