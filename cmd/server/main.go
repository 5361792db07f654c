package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"parsgolf/internal/config"
	"parsgolf/internal/db"
	"parsgolf/internal/logger"
	"parsgolf/internal/models"
	"parsgolf/internal/router"
	"parsgolf/internal/services"
	"parsgolf/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func main() {
	app := &cli.Command{
		Name:  "parsgolf",
		Usage: "Golf clubs, players and courses with votes and comments",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to a TOML config file",
			},
		},
		Action: serve,
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Run the HTTP server",
				Action: serve,
			},
			{
				Name:  "init-db",
				Usage: "Create tables and seed club types",
				Action: func(ctx context.Context, c *cli.Command) error {
					_, gdb, lg, err := setup(c)
					if err != nil {
						return err
					}
					defer lg.Sync() //nolint:errcheck
					return initDB(gdb, lg)
				},
			},
			{
				Name:  "create-admin",
				Usage: "Create an admin account",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "username", Usage: "Admin username", Required: true},
					&cli.StringFlag{Name: "email", Usage: "Admin email", Required: true},
					&cli.StringFlag{Name: "password", Usage: "Admin password", Required: true},
				},
				Action: func(ctx context.Context, c *cli.Command) error {
					_, gdb, lg, err := setup(c)
					if err != nil {
						return err
					}
					defer lg.Sync() //nolint:errcheck
					if err := db.Migrate(gdb); err != nil {
						return err
					}

					users := services.NewUserService(gdb, lg)
					admin, err := users.Register(ctx, c.String("username"), c.String("email"), c.String("password"), models.RoleAdmin)
					if err != nil {
						return fmt.Errorf("failed to create admin: %w", err)
					}
					lg.Info("Admin created", zap.Uint("user_id", admin.ID), zap.String("username", admin.Username))
					return nil
				},
			},
		},
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		log.Printf("Error: %v", err)
		os.Exit(1)
	}
}

// setup 加载配置、日志和数据库连接
func setup(c *cli.Command) (*config.Config, *gorm.DB, *zap.Logger, error) {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to load config: %w", err)
	}

	lg, err := logger.New(cfg.LogLevel, cfg.GinMode == gin.ReleaseMode)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to create logger: %w", err)
	}

	gdb, err := db.Open(cfg.DatabaseURL, lg)
	if err != nil {
		return nil, nil, lg, fmt.Errorf("failed to connect to database: %w", err)
	}
	return cfg, gdb, lg, nil
}

func initDB(gdb *gorm.DB, lg *zap.Logger) error {
	if err := db.Migrate(gdb); err != nil {
		return err
	}
	lg.Info("Database migrated")
	_, err := db.SeedClubTypes(gdb, lg)
	return err
}

func serve(ctx context.Context, c *cli.Command) error {
	cfg, gdb, lg, err := setup(c)
	if err != nil {
		return err
	}
	defer lg.Sync() //nolint:errcheck

	if err := initDB(gdb, lg); err != nil {
		return err
	}

	gin.SetMode(cfg.GinMode)
	cache, err := utils.NewCache(1000)
	if err != nil {
		return fmt.Errorf("failed to create cache: %w", err)
	}
	r := router.New(cfg, gdb, lg, cache)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		lg.Info("Server starting", zap.String("addr", srv.Addr), zap.String("mode", cfg.GinMode))
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

	lg.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
