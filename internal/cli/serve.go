package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/rcliao/procrastinemon/internal/api"
	"github.com/rcliao/procrastinemon/internal/auth"
	"github.com/rcliao/procrastinemon/internal/config"
	"github.com/rcliao/procrastinemon/internal/feedback"
	"github.com/rcliao/procrastinemon/internal/lock"
	"github.com/rcliao/procrastinemon/internal/logger"
	"github.com/rcliao/procrastinemon/internal/service"
	"github.com/rcliao/procrastinemon/internal/store"
)

const shutdownTimeout = 10 * time.Second

func init() {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server",
		Long:  "Run the HTTP server. Stops on SIGINT or SIGTERM after draining in-flight requests.",
		Run:   runServe,
	}

	cmd.Flags().String("addr", "", "Listen address (overrides server.addr)")

	RootCmd.AddCommand(cmd)
}

func runServe(cmd *cobra.Command, args []string) {
	cfg, err := loadConfig()
	if err != nil {
		exitErr("load config", err)
	}
	if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
		cfg.Server.Addr = addr
	}

	log, err := logger.New(cfg.Logging.Mode)
	if err != nil {
		exitErr("init logger", err)
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, cfg, log)
	if err != nil {
		exitErr("serve", err)
	}
	defer a.Close()

	if err := a.Run(ctx); err != nil {
		exitErr("serve", err)
	}
}

// app is everything serve wires together.
type app struct {
	cfg     *config.Config
	log     *logger.Logger
	store   *store.SQLiteStore
	handler http.Handler
	closers []func() error
}

func newApp(ctx context.Context, cfg *config.Config, log *logger.Logger) (*app, error) {
	a := &app{cfg: cfg, log: log}

	s, err := openStore(cfg)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	a.store = s
	a.closers = append(a.closers, s.Close)

	verifier, err := newVerifier(cfg)
	if err != nil {
		a.Close()
		return nil, err
	}

	locker, err := a.newLocker(ctx)
	if err != nil {
		a.Close()
		return nil, err
	}

	renderer, err := newRenderer(ctx, cfg, log)
	if err != nil {
		a.Close()
		return nil, err
	}

	gin.SetMode(cfg.Server.Mode)
	a.handler = api.NewRouter(api.RouterConfig{
		Days:        service.NewDays(s, locker, renderer, log),
		Verifier:    verifier,
		Log:         log,
		CORSOrigins: cfg.Server.CORSOrigins,
	})
	return a, nil
}

// newRenderer builds the message renderer for the configured provider. No
// provider means fixed templates only.
func newRenderer(ctx context.Context, cfg *config.Config, log *logger.Logger) (*feedback.Renderer, error) {
	gen, err := feedback.NewGenerator(ctx, cfg.Feedback.Provider, cfg.Feedback.Model, cfg.Feedback.APIKey, cfg.Feedback.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("feedback generator: %w", err)
	}
	timeout, _ := cfg.FeedbackTimeout()
	if gen != nil {
		log.Info("feedback generator enabled", "generator", gen.Name(), "timeout", timeout.String())
	}
	return feedback.NewRenderer(gen, timeout, log), nil
}

func newVerifier(cfg *config.Config) (auth.Verifier, error) {
	switch strings.ToLower(cfg.Auth.Mode) {
	case "jwks":
		v, err := auth.NewJWKSVerifier(nil, cfg.Auth.JWKSURL, cfg.Auth.Issuer, cfg.Auth.Audience)
		if err != nil {
			return nil, err
		}
		return v, nil
	default:
		v, err := auth.NewHMACVerifier(cfg.Auth.Secret, cfg.Auth.Issuer, cfg.Auth.Audience)
		if err != nil {
			return nil, err
		}
		return v, nil
	}
}

// newLocker shares resolution locks through Redis when redis.addr is set.
func (a *app) newLocker(ctx context.Context) (lock.Locker, error) {
	if a.cfg.Redis.Addr == "" {
		return lock.NewKeyedMutex(), nil
	}
	rdb, err := lock.DialRedis(ctx, a.cfg.Redis.Addr)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, rdb.Close)
	ttl, _ := a.cfg.LockTTL()
	a.log.Info("using redis resolution lock", "addr", a.cfg.Redis.Addr, "ttl", ttl.String())
	return lock.NewRedisLocker(rdb, ttl), nil
}

// Run serves until ctx is done, then drains for up to shutdownTimeout.
func (a *app) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              a.cfg.Server.Addr,
		Handler:           a.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		a.log.Info("listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		a.log.Info("shutting down")
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.log.Warn("close failed", "error", err)
		}
	}
	a.closers = nil
}
