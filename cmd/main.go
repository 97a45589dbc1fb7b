package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"stock-alert-bot/config"
	"stock-alert-bot/internal/alert"
	"stock-alert-bot/internal/commands"
	"stock-alert-bot/internal/database"
	"stock-alert-bot/internal/line"
	"stock-alert-bot/internal/price"
	"stock-alert-bot/lib/translation"

	"github.com/leonelquinteros/gotext"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	dto "github.com/prometheus/client_model/go"
	log "github.com/sirupsen/logrus"
)

// persistedCounters are saved to the database on shutdown and every five
// minutes, and re-loaded at start.
var persistedCounters = map[string]prometheus.Counter{
	"messages_handled":   line.MessagesHandled,
	"commands_processed": line.CommandsProcessed,
	"notifications_sent": alert.NotificationsSent,
	"poll_cycles":        alert.PollCycles,
}

func init() {
	config.InitConfig()
	setupLogging()
}

func main() {
	gotext.Configure("locales", strings.ToLower(config.GetString("lang")), "default")
	log.Debugf("Language configured: %s", translation.GetLanguage())

	store, err := database.Open(config.GetString("database_path"))
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer store.Close()

	loadMetricsFromDB(store)

	lineClient, err := line.NewClient(line.Config{
		ChannelSecret: config.GetString("line_channel_secret"),
		ChannelToken:  config.GetString("line_channel_access_token"),
		UserID:        config.GetString("line_user_id"),
	})
	if err != nil {
		log.Fatalf("Failed to create LINE client: %v", err)
	}

	resolver := price.NewResolver(config.GetString("finmind_token"), config.GetBool("market_hours_only"))
	handler := commands.NewHandler(store, resolver, lineClient)

	interval := time.Duration(config.GetInt("poll_interval_seconds")) * time.Second
	service := alert.NewService(store, resolver, lineClient, interval)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// The poll loop starts before the listener accepts traffic, with an
	// immediate first cycle.
	go service.Run(ctx)

	go func() {
		for {
			time.Sleep(5 * time.Minute)
			saveMetricsToDB(store)
		}
	}()

	go func() {
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
		<-sig
		cancel()
		saveMetricsToDB(store)
		log.Println("Metrics saved, shutting down...")
		os.Exit(0)
	}()

	if err := launchServer(config.GetInt("port"), lineClient.CallbackHandler(handler)); err != nil {
		log.Fatalf("Failed to start HTTP server: %v", err)
	}
}

func setupLogging() {
	log.SetLevel(log.InfoLevel)
	if config.GetBool("debug") {
		log.SetLevel(log.DebugLevel)
	}
	log.Debug("Starting stock alert bot...")
}

func healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

func launchServer(port int, callback http.Handler) error {
	http.Handle("/callback", callback)
	http.Handle("/metrics", promhttp.Handler())
	http.HandleFunc("/health", healthCheckHandler)

	log.Infof("Listening on :%d", port)
	return http.ListenAndServe(fmt.Sprintf(":%d", port), http.DefaultServeMux)
}

func loadMetricsFromDB(store *database.Store) {
	for name, counter := range persistedCounters {
		value, err := store.GetMetric(name)
		if err != nil {
			log.Errorf("Failed to load metric %s: %v", name, err)
			continue
		}
		counter.Add(value)
	}
	log.Println("Metrics loaded from database.")
}

func saveMetricsToDB(store *database.Store) {
	for name, counter := range persistedCounters {
		if err := store.SaveMetric(name, getMetricValue(counter)); err != nil {
			log.Errorf("Failed to save metric %s: %v", name, err)
		}
	}
	log.Println("Metrics saved to database.")
}

func getMetricValue(metric prometheus.Collector) float64 {
	metricChan := make(chan prometheus.Metric, 1)
	metric.Collect(metricChan)
	close(metricChan)

	metricProto := &dto.Metric{}
	if err := (<-metricChan).Write(metricProto); err != nil {
		log.Printf("Failed to read metric value: %v", err)
		return 0
	}

	if metricProto.Counter != nil {
		return metricProto.Counter.GetValue()
	}
	if metricProto.Gauge != nil {
		return metricProto.Gauge.GetValue()
	}
	return 0
}
