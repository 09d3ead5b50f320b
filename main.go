package main

import (
	"context"
	"crypto/tls"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"

	"github.com/Coachraj/Reminder-tool/api"
	"github.com/Coachraj/Reminder-tool/domain"
	"github.com/Coachraj/Reminder-tool/generator"
	"github.com/Coachraj/Reminder-tool/notify"
	"github.com/Coachraj/Reminder-tool/scheduler"
	"github.com/Coachraj/Reminder-tool/storage"
)

func main() {
	if dbg, err := strconv.ParseBool(os.Getenv("DEBUG")); err == nil && dbg {
		log.SetLevel(log.DebugLevel)
	}
	logger := log.New()
	logger.SetLevel(log.GetLevel())

	var redisClient *redis.Client
	if conn := os.Getenv("REDIS_CONNECTION_STRING"); conn != "" {
		redisClient = redis.NewClient(parseRedisConn(conn))
	}

	var persister storage.Persister
	switch {
	case os.Getenv("STORAGE_CONNECTION_STRING") != "":
		tableName := os.Getenv("STATE_TABLE")
		if tableName == "" {
			log.Fatal("STATE_TABLE is required with STORAGE_CONNECTION_STRING")
		}
		tp, err := storage.NewTablePersister(os.Getenv("STORAGE_CONNECTION_STRING"), tableName)
		if err != nil {
			log.Fatalf("storage: %v", err)
		}
		persister = tp
	case redisClient != nil:
		persister = storage.NewRedisPersister(redisClient)
	default:
		log.Fatal("missing storage config: set REDIS_CONNECTION_STRING or STORAGE_CONNECTION_STRING")
	}

	store := storage.New(persister, domain.RealClock{}, logger)
	if err := store.Load(context.Background()); err != nil {
		log.Fatalf("loading persisted state: %v", err)
	}
	seedSettings(store, logger)

	var gen generator.Generator = generator.Local{}
	if apiKey := os.Getenv("GEMINI_API_KEY"); apiKey != "" {
		gen = generator.NewGemini(apiKey, os.Getenv("GEMINI_MODEL"), os.Getenv("GEMINI_BASE_URL"), nil)
	} else {
		logger.Warn("GEMINI_API_KEY not set, reminders will use the local template")
	}

	broker := api.NewBroker()
	notifiers := notify.Multi{
		notify.Func(func(context.Context, notify.Event) { broker.Notify() }),
	}
	if redisClient != nil {
		notifiers = append(notifiers, notify.NewRedisPublisher(redisClient, notify.DefaultChannel, logger))
	}
	if queueName := os.Getenv("NOTIFY_QUEUE"); queueName != "" {
		connStr := os.Getenv("STORAGE_CONNECTION_STRING")
		if connStr == "" {
			log.Fatal("NOTIFY_QUEUE requires STORAGE_CONNECTION_STRING")
		}
		qp, err := notify.NewQueuePublisher(connStr, queueName, logger)
		if err != nil {
			log.Fatalf("notify queue: %v", err)
		}
		notifiers = append(notifiers, qp)
	}

	pollInterval := scheduler.DefaultPollInterval
	if v := os.Getenv("POLL_INTERVAL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			log.Fatalf("invalid POLL_INTERVAL: %v", err)
		}
		pollInterval = d
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	sched := scheduler.New(store, gen, notifiers, domain.RealClock{}, pollInterval, logger)
	go sched.Run(ctx)

	e := echo.New()
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept},
	}))
	api.Register(e, store, broker, logger)

	listenAddr := ":8080"
	if val, ok := os.LookupEnv("PORT"); ok {
		listenAddr = ":" + val
	}
	e.Logger.Fatal(e.Start(listenAddr))
}

// seedSettings fills in sender defaults from the environment on first boot.
// Persisted settings always win over env values.
func seedSettings(store *storage.Store, logger *log.Logger) {
	settings := store.GetSettings()
	changed := false
	if settings.SenderEmail == "" {
		if v := os.Getenv("SENDER_EMAIL"); v != "" {
			settings.SenderEmail = v
			changed = true
		}
	}
	if settings.CompanyName == "" {
		if v := os.Getenv("COMPANY_NAME"); v != "" {
			settings.CompanyName = v
			changed = true
		}
	}
	if !changed {
		return
	}
	if err := store.SetSettings(context.Background(), settings); err != nil {
		logger.WithError(err).Warn("seeding settings from environment failed")
	}
}

// parseRedisConn accepts either a redis URL or the comma-separated
// host,key=value form Azure hands out for its cache connection strings.
func parseRedisConn(conn string) *redis.Options {
	opts, err := redis.ParseURL(conn)
	if err == nil {
		return opts
	}
	parts := strings.Split(conn, ",")
	opts = &redis.Options{Addr: parts[0]}
	for _, p := range parts[1:] {
		kv := strings.SplitN(p, "=", 2)
		if len(kv) != 2 {
			continue
		}
		switch strings.ToLower(kv[0]) {
		case "password":
			opts.Password = kv[1]
		case "ssl":
			if strings.ToLower(kv[1]) == "true" {
				opts.TLSConfig = &tls.Config{}
			}
		}
	}
	return opts
}
