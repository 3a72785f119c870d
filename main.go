package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.mongodb.org/mongo-driver/bson"

	"restaurant-admin/config"
	"restaurant-admin/controllers"
	"restaurant-admin/database"
	"restaurant-admin/helpers"
	"restaurant-admin/logger"
	"restaurant-admin/metrics"
	"restaurant-admin/models"
	"restaurant-admin/routes"
	"restaurant-admin/services"
)

func main() {
	if err := newRootCommand().ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	v := viper.New()
	var envFile string

	root := &cobra.Command{
		Use:          "restaurant-admin",
		Short:        "Inventory, menu and live order administration for the restaurant",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return config.LoadEnvFile(envFile)
		},
	}
	root.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file to load before reading the environment")
	root.PersistentFlags().String("store", "", "document store driver: mongo or memory")
	_ = v.BindPFlag("STORE_DRIVER", root.PersistentFlags().Lookup("store"))

	serve := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and the live order feed",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), config.Load(v))
		},
	}
	serve.Flags().String("port", "", "port to listen on")
	_ = v.BindPFlag("PORT", serve.Flags().Lookup("port"))

	check := &cobra.Command{
		Use:   "check",
		Short: "Read the inventory and menu once and print stock and menu alerts",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(cmd.Context(), config.Load(v), cmd.OutOrStdout())
		},
	}

	root.AddCommand(serve, check)
	root.RunE = serve.RunE
	root.Flags().AddFlagSet(serve.Flags())
	return root
}

func newLogger(cfg *config.Config, output string) *logger.Logger {
	lc := logger.DefaultConfig()
	lc.Output = output
	lc.Level = cfg.LogLevel
	lc.Format = cfg.LogFormat
	lc.Component = "restaurant-admin"
	return logger.New(lc)
}

func openStore(cfg *config.Config, log *logger.Logger) database.Store {
	if cfg.StoreDriver == config.DriverMemory {
		store := database.NewMemoryStore()
		seedDevelopmentStaff(store, log)
		return store
	}
	return database.ConnectMongo(database.MongoOptions{
		URL:         cfg.MongoURL,
		Database:    cfg.MongoDatabase,
		PingTimeout: cfg.ReadyTimeout,
	}, log)
}

// seedDevelopmentStaff creates an owner account in the memory store so the API can be used
// without a database. SEED_OWNER_EMAIL and SEED_OWNER_PASSWORD must both be set.
func seedDevelopmentStaff(store *database.MemoryStore, log *logger.Logger) {
	email := strings.ToLower(strings.TrimSpace(os.Getenv("SEED_OWNER_EMAIL")))
	password := os.Getenv("SEED_OWNER_PASSWORD")
	if email == "" || password == "" {
		log.Warn("memory store has no staff accounts; set SEED_OWNER_EMAIL and SEED_OWNER_PASSWORD to sign in")
		return
	}
	hash, err := services.HashPassword(password)
	if err != nil {
		log.Error("failed to hash seed password", "error", err)
		return
	}
	store.Seed(database.StaffCollection, map[string]bson.M{
		helpers.Slugify(email): {
			"email":     email,
			"password":  hash,
			"firstName": "Owner",
			"role":      models.RoleOwner,
			"status":    models.StaffStatusActive,
			"createdAt": time.Now(),
		},
	})
	log.Info("seeded development owner account", "email", email)
}

func newApp(cfg *config.Config, log *logger.Logger) *services.App {
	return services.NewApp(openStore(cfg, log), log, metrics.NewRegistry(), services.Options{
		ReadyTimeout:  cfg.ReadyTimeout,
		OpTimeout:     cfg.OpTimeout,
		SessionSecret: cfg.SecretKey,
	})
}

func runServe(ctx context.Context, cfg *config.Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	log := newLogger(cfg, "stdout")
	defer log.Close()

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	gin.SetMode(gin.ReleaseMode)
	app := newApp(cfg, log)
	hub := controllers.NewHub(log)
	detach := hub.Attach(app.Orders)

	go func() {
		if err := app.Orders.Start(ctx); err != nil {
			log.Error("live order feed is not running", "error", err)
		}
	}()

	server := &http.Server{
		Addr: ":" + cfg.Port,
		Handler: routes.NewRouter(app, hub, routes.RouterConfig{
			CORSOrigins: cfg.CORSOrigins,
			FrontendDir: filepath.Join(".", "frontend", "dist"),
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info("http server listening", "port", cfg.Port, "store", cfg.StoreDriver)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case <-ctx.Done():
		log.Info("shutting down")
	case err := <-serveErr:
		if err != nil {
			log.Error("http server failed", "error", err)
			return err
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("http server shutdown failed", "error", err)
	}
	detach()
	hub.Close()
	return app.Close(shutdownCtx)
}

func runCheck(ctx context.Context, cfg *config.Config, out io.Writer) error {
	log := newLogger(cfg, "stderr")
	defer log.Close()

	app := newApp(cfg, log)
	defer app.Close(context.Background())
	if err := app.WaitReady(ctx); err != nil {
		return err
	}
	overview, err := app.Overview(ctx)
	if err != nil {
		return err
	}
	return printOverview(out, overview)
}

func printOverview(out io.Writer, o services.Overview) error {
	fmt.Fprintf(out, "Ingredients: %d (%d need restocking), %s kg by weight, %s pieces\n",
		o.Summary.TotalIngredients, o.Summary.LowStock,
		helpers.FormatNumber(o.Summary.TotalWeightKg, 2), helpers.FormatNumber(o.Summary.TotalPieces, 0))
	for _, ing := range o.Ingredients {
		if status := ing.Status(); status != models.StatusInStock {
			fmt.Fprintf(out, "  [%s] %s: %s\n", status.Level(), ing.Name, helpers.FormatQuantity(ing.Quantity, ing.MeasurementKind))
		}
	}
	fmt.Fprintf(out, "Dishes: %d\n", len(o.Dishes))
	for _, d := range o.Dishes {
		fmt.Fprintf(out, "  %-12s %s (%s)\n", d.DisplayCode, d.Name, d.Status)
	}
	fmt.Fprintf(out, "Alerts: %d\n", len(o.Alerts))
	for _, a := range o.Alerts {
		fmt.Fprintf(out, "  [%s] %s\n", a.Level, a.Message)
	}
	return nil
}
