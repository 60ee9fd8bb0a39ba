package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/NetaKon/Real-Time-Forum/api"
	"github.com/NetaKon/Real-Time-Forum/config"
	"github.com/NetaKon/Real-Time-Forum/database"
	"github.com/NetaKon/Real-Time-Forum/logging"
	"github.com/NetaKon/Real-Time-Forum/middleware"
	"github.com/NetaKon/Real-Time-Forum/realtime"
	"github.com/NetaKon/Real-Time-Forum/repository"
	"github.com/NetaKon/Real-Time-Forum/services"
)

var log = logging.For("Main")

// app holds the wired components shared by the CLI commands.
type app struct {
	cfg       *config.Config
	store     database.Pinger
	hub       *realtime.Hub
	publisher realtime.Publisher
	broker    *realtime.RedisBroker
	service   services.QuestionService
	closers   []func()
}

func newApp(ctx context.Context, cfgFile string) (*app, error) {
	cfg, err := config.LoadConfig(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	if err := logging.Setup(cfg.Log.Level, cfg.Log.Format); err != nil {
		return nil, err
	}

	a := &app{cfg: cfg, hub: realtime.NewHub()}

	repo, err := a.openStore(ctx)
	if err != nil {
		a.close()
		return nil, err
	}
	if err := repo.Migrate(ctx); err != nil {
		a.close()
		return nil, fmt.Errorf("failed to migrate store: %w", err)
	}
	log.Infof("Store %s ready.", cfg.Database.Driver)

	a.publisher = a.hub
	if cfg.Redis.Addr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		a.closers = append(a.closers, func() { _ = client.Close() })
		a.broker = realtime.NewRedisBroker(client, cfg.Redis.Channel, a.hub)
		a.publisher = a.broker
		log.Infof("Room events are shared through redis at %s.", cfg.Redis.Addr)
	}

	a.service = services.NewQuestionService(repo, a.publisher)
	return a, nil
}

func (a *app) openStore(ctx context.Context) (repository.QuestionRepository, error) {
	dbCfg := a.cfg.Database
	if dbCfg.Driver == config.DriverMongo {
		client, err := database.ConnectMongo(ctx, dbCfg)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, func() { database.DisconnectMongo(client, dbCfg.Timeout) })
		a.store = database.MongoPinger(client)
		return repository.NewMongoQuestionRepository(client.Database(dbCfg.Name), dbCfg.Timeout), nil
	}

	db, err := database.Open(dbCfg)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, func() { database.Close(db) })
	a.store = database.GormPinger(db)
	return repository.NewGormQuestionRepository(db, dbCfg.Timeout), nil
}

// close releases resources in reverse order of acquisition.
func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}

func (a *app) router() *gin.Engine {
	if a.cfg.Log.Level != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	_ = r.SetTrustedProxies(nil)

	r.Use(middleware.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.Metrics())
	r.Use(middleware.Cors(a.cfg.Cors.AllowedOrigins))

	rt := a.cfg.Realtime
	ws := realtime.NewServer(a.hub, realtime.ClientConfig{
		SendBuffer:      rt.SendBuffer,
		WriteTimeout:    rt.WriteTimeout,
		PongTimeout:     rt.PongTimeout,
		MaxMessageBytes: rt.MaxMessageBytes,
	}, rt.AllowedOrigins)

	handler := api.NewQuestionHandler(a.service, a.cfg.Server.BasePath)
	api.RegisterRoutes(r, a.cfg.Server.BasePath, handler, ws, a.store)
	return r
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, configFile)
	if err != nil {
		return err
	}
	defer a.close()

	if a.broker != nil {
		go func() {
			if err := a.broker.Run(ctx); err != nil {
				log.Errorf("Redis relay stopped: %v", err)
			}
		}()
	}

	srv := &http.Server{
		Addr:    ":" + a.cfg.Server.Port,
		Handler: a.router(),
	}

	errCh := make(chan error, 1)
	go func() {
		log.Infof("Starting server on port %s", a.cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	log.Info("Server stopped.")
	return nil
}
