// convodesk is a multi-tenant conversational booking and payment assistant.
// It loads configuration from environment variables and flags, wires the
// session store, intent classifier, and payment gateway, and serves the
// HTTP API until interrupted.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/convodesk/convodesk/internal/api"
	"github.com/convodesk/convodesk/internal/flow"
	"github.com/convodesk/convodesk/internal/i18n"
	"github.com/convodesk/convodesk/internal/intent"
	"github.com/convodesk/convodesk/internal/lockfile"
	"github.com/convodesk/convodesk/internal/notify"
	"github.com/convodesk/convodesk/internal/payment"
	"github.com/convodesk/convodesk/internal/scheduler"
	"github.com/convodesk/convodesk/internal/session"
	"github.com/convodesk/convodesk/internal/store"
	"github.com/convodesk/convodesk/internal/util"
)

// DefaultDSN is the SQLite session database used when no DSN is configured.
const DefaultDSN = "/var/lib/convodesk/sessions.db"

// Config holds environment configuration.
type Config struct {
	DatabaseDSN     string
	OpenAIKey       string
	APIAddr         string
	GatewayURL      string
	TwilioAuthToken string
	PublicURL       string
	SessionTTL      time.Duration
	Debug           bool
}

// Flags holds command line flag values.
type Flags struct {
	dbDSN      *string
	openaiKey  *string
	apiAddr    *string
	gatewayURL *string
	publicURL  *string
}

func main() {
	config := loadEnvironmentConfig()
	initializeLogger(config.Debug)
	flags := parseFlags(config)

	slog.Info("Bootstrapping convodesk",
		"dsn_set", *flags.dbDSN != "", "openai_set", *flags.openaiKey != "",
		"gateway_set", *flags.gatewayURL != "", "api_addr", *flags.apiAddr)

	// A SQLite database must not be shared between instances; guard its
	// directory with a lock.
	if !strings.HasPrefix(*flags.dbDSN, "postgres://") && !strings.HasPrefix(*flags.dbDSN, "postgresql://") {
		lock, err := lockfile.AcquireLock(filepath.Dir(*flags.dbDSN))
		if err != nil {
			slog.Error("Failed to acquire data directory lock", "error", err)
			os.Exit(1)
		}
		defer lock.Release()
	}

	durable, err := buildStore(*flags.dbDSN)
	if err != nil {
		slog.Error("Failed to open session store", "error", err, "dsn", *flags.dbDSN)
		os.Exit(1)
	}
	defer durable.Close()

	sessions := session.NewStore(durable, session.WithTTL(config.SessionTTL))
	classifier, detector := buildClassifier(*flags.openaiKey)
	gateway := buildGateway(*flags.gatewayURL)
	engine := flow.NewEngine(sessions, classifier, gateway, detector)

	sched := scheduler.NewScheduler()
	defer sched.Stop()
	ttl := config.SessionTTL
	if err := sched.AddJob("session-purge", "0 * * * *", func() {
		purged, err := durable.PurgeExpiredSessions(time.Now().Add(-ttl))
		if err != nil {
			slog.Error("Session purge job failed", "error", err)
			return
		}
		if purged > 0 {
			slog.Info("Purged expired sessions", "purged", purged)
		}
	}); err != nil {
		slog.Error("Failed to schedule session purge job", "error", err)
		os.Exit(1)
	}

	apiOpts := []api.Option{api.WithAddr(*flags.apiAddr)}
	if config.TwilioAuthToken != "" {
		apiOpts = append(apiOpts, api.WithTwilioWebhook(config.TwilioAuthToken, *flags.publicURL))
		if sender, err := notify.NewClient(); err != nil {
			slog.Warn("Twilio outbound sender unavailable, webhook will reply with inline TwiML", "error", err)
		} else {
			apiOpts = append(apiOpts, api.WithNotifier(sender))
		}
	}
	server := api.NewServer(engine, apiOpts...)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := server.Run(ctx); err != nil {
		slog.Error("convodesk failed to run", "error", err)
		os.Exit(1)
	}
	slog.Info("convodesk exited successfully")
}

// initializeLogger sets up structured logging; debug mode lowers the level.
func initializeLogger(debug bool) {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
}

// loadEnvironmentConfig loads configuration from environment variables and
// an optional .env file.
func loadEnvironmentConfig() Config {
	if err := godotenv.Load(); err == nil {
		slog.Debug("successfully loaded .env file")
	}

	config := Config{
		DatabaseDSN:     os.Getenv("DATABASE_URL"),
		OpenAIKey:       os.Getenv("OPENAI_API_KEY"),
		APIAddr:         os.Getenv("API_ADDR"),
		GatewayURL:      os.Getenv("PAYMENT_GATEWAY_URL"),
		TwilioAuthToken: os.Getenv("TWILIO_AUTH_TOKEN"),
		PublicURL:       os.Getenv("PUBLIC_URL"),
		SessionTTL:      session.DefaultSessionTTL,
		Debug:           util.ParseBoolEnv("CONVODESK_DEBUG", false),
	}

	if ttl := os.Getenv("SESSION_TTL"); ttl != "" {
		parsed, err := time.ParseDuration(ttl)
		if err != nil {
			slog.Warn("Invalid SESSION_TTL, using default", "value", ttl, "default", config.SessionTTL)
		} else {
			config.SessionTTL = parsed
		}
	}
	if config.DatabaseDSN == "" {
		config.DatabaseDSN = DefaultDSN
		slog.Debug("No DATABASE_URL set, defaulting to SQLite", "sqlite_path", config.DatabaseDSN)
	}
	if config.APIAddr == "" {
		config.APIAddr = api.DefaultAddr
	}
	return config
}

// parseFlags wires flags with environment-derived defaults.
func parseFlags(config Config) Flags {
	flags := Flags{
		dbDSN:      flag.String("db-dsn", config.DatabaseDSN, "session database DSN: postgres:// URL or SQLite path (overrides $DATABASE_URL)"),
		openaiKey:  flag.String("openai-api-key", config.OpenAIKey, "OpenAI API key for intent classification (overrides $OPENAI_API_KEY)"),
		apiAddr:    flag.String("api-addr", config.APIAddr, "API server address (overrides $API_ADDR)"),
		gatewayURL: flag.String("payment-gateway-url", config.GatewayURL, "payment gateway base URL (overrides $PAYMENT_GATEWAY_URL)"),
		publicURL:  flag.String("public-url", config.PublicURL, "public base URL for webhook signature validation (overrides $PUBLIC_URL)"),
	}
	flag.Parse()
	return flags
}

// buildStore selects the durable backend by DSN shape: postgres:// URLs get
// PostgreSQL, anything else is treated as a SQLite path.
func buildStore(dsn string) (store.MetadataStore, error) {
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		slog.Debug("Detected PostgreSQL DSN, configuring PostgreSQL store")
		return store.NewPostgresStore(store.WithDSN(dsn))
	}
	slog.Debug("Configuring SQLite store", "db_path", dsn)
	return store.NewSQLiteStore(store.WithDSN(dsn))
}

// buildClassifier picks LLM-backed classification and language detection
// when an API key is configured, otherwise the deterministic keyword path.
func buildClassifier(openaiKey string) (intent.Classifier, *i18n.LanguageDetector) {
	if openaiKey == "" {
		slog.Info("No OpenAI API key configured, using keyword classifier")
		return intent.NewKeywordClassifier(), i18n.NewLanguageDetector(nil)
	}
	classifier, err := intent.NewOpenAIClassifier(openaiKey)
	if err != nil {
		slog.Warn("OpenAI classifier unavailable, falling back to keywords", "error", err)
		return intent.NewKeywordClassifier(), i18n.NewLanguageDetector(nil)
	}
	return classifier, i18n.NewLanguageDetector(classifier)
}

// buildGateway uses the HTTP payment gateway when configured, otherwise the
// in-memory gateway so the assistant still works end to end in development.
func buildGateway(gatewayURL string) payment.Gateway {
	if gatewayURL == "" {
		slog.Info("No payment gateway URL configured, using in-memory gateway")
		return payment.NewInMemoryGateway("")
	}
	return payment.NewHTTPGateway(gatewayURL)
}
