package jobs

import (
	"log"
	"net/http"
	"time"

	"github.com/go-co-op/gocron"

	"github.com/eventreg/backend/internal/config"
)

// KeepAlive periodically pings the server's own public URL so free-tier
// hosts do not idle the process out.
type KeepAlive struct {
	cfg       config.KeepAliveConfig
	client    *http.Client
	scheduler *gocron.Scheduler
}

// NewKeepAlive creates a keep-alive pinger
func NewKeepAlive(cfg config.KeepAliveConfig) *KeepAlive {
	return &KeepAlive{
		cfg:       cfg,
		client:    &http.Client{Timeout: 30 * time.Second},
		scheduler: gocron.NewScheduler(time.UTC),
	}
}

// Start schedules the recurring ping. It is a no-op when no URL is configured.
func (k *KeepAlive) Start() {
	if k.cfg.URL == "" {
		log.Println("Keep-alive disabled: no URL configured")
		return
	}

	interval := k.cfg.IntervalMinutes
	if interval <= 0 {
		interval = 14
	}

	k.scheduler.Every(interval).Minutes().Do(func() {
		k.ping()
	})
	k.scheduler.StartAsync()

	log.Printf("Keep-alive started: pinging %s every %d minutes", k.cfg.URL, interval)
}

// Stop stops the scheduler
func (k *KeepAlive) Stop() {
	k.scheduler.Stop()
}

func (k *KeepAlive) ping() {
	resp, err := k.client.Get(k.cfg.URL)
	if err != nil {
		log.Printf("Keep-alive ping failed: %v", err)
		return
	}
	resp.Body.Close()
	log.Printf("Keep-alive ping: %s", resp.Status)
}
