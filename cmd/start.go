package cmd

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	"classroom-sync/core/loader"
	"classroom-sync/core/logger"
	"classroom-sync/core/metrics"
	"classroom-sync/core/middleware/auth"
	"classroom-sync/core/middleware/rayid"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/swagger"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	_ "classroom-sync/docs/swagger"
)

// @title Classroom Sync API
// @version 1.0
// @description API for importing and reconciling classroom snapshots.
// @host localhost:8080
// @BasePath /
// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name X-API-Key

// startCmd represents the start command
var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the classroom-sync server",
	Long:  `Starts the HTTP server and initializes all enabled features.`,
	Run: func(cmd *cobra.Command, args []string) {
		// 1. Configuration, logger and connections
		rt, err := bootstrap()
		if err != nil {
			log.Fatalf("Failed to start: %v", err)
		}
		defer rt.close()
		logg := rt.logger
		zap.ReplaceGlobals(logg)

		if err := rt.migrate(cmd.Context()); err != nil {
			logg.Fatal("Failed to migrate database", zap.Error(err))
		}

		// 2. Metrics
		registry := prometheus.NewRegistry()
		registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		recorder := metrics.NewRecorder(registry)

		// 3. Initialize Fiber App
		app := fiber.New(fiber.Config{
			DisableStartupMessage: true, // We will log our own startup message
			BodyLimit:             rt.cfg.Server.BodyLimit(),
		})

		// 4. Initialize Feature Loader
		mgr := loader.NewManager(logg)
		mgr.Register(rt.classroom(recorder))
		mgr.Register(rt.integrity())

		// Middleware Registration
		// 1. RayID (Must be first to trace everything)
		app.Use(rayid.New())

		// 2. Request logging with the ray ID
		app.Use(func(c *fiber.Ctx) error {
			l := logger.WithRayID(logg, c)
			l.Info("Request started",
				zap.String("method", c.Method()),
				zap.String("path", c.Path()),
				zap.String("ip", c.IP()),
			)
			err := c.Next()
			if err != nil {
				l.Error("Request error", zap.Error(err))
			}
			return err
		})

		// 3. Public endpoints
		app.Get("/swagger/*", swagger.HandlerDefault)
		app.Get("/metrics", metrics.Handler(registry))

		// 4. Auth (Protect API)
		app.Use(auth.New(auth.Config{ApiKey: rt.cfg.Server.ApiKey, Skip: []string{"/health"}}))
		app.Get("/health", func(c *fiber.Ctx) error {
			return c.JSON(fiber.Map{"status": "ok"})
		})

		// 5. Load Features
		if err := mgr.LoadAll(app); err != nil {
			logg.Fatal("Failed to load features", zap.Error(err))
		}

		// 6. Start Server
		go func() {
			logg.Info("Starting server", zap.String("address", rt.cfg.Server.Address()))
			if err := app.Listen(rt.cfg.Server.Address()); err != nil {
				logg.Fatal("Server failed to start", zap.Error(err))
			}
		}()

		// 7. Graceful Shutdown
		c := make(chan os.Signal, 1)
		signal.Notify(c, os.Interrupt, syscall.SIGTERM)
		<-c
		logg.Info("Shutting down server...")
		_ = app.Shutdown()
	},
}

func init() {
	RootCmd.AddCommand(startCmd)
}
