package monitoring

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
	"github.com/signalex/signalex-be/internal/services"
	ws "github.com/signalex/signalex-be/internal/websocket"
)

const (
	sampleInterval = 15 * time.Second
	alertCooldown  = 15 * time.Minute
)

// HostStats is the sample broadcast to websocket clients.
type HostStats struct {
	CPUPercent float64 `json:"cpuPercent"`
	MemPercent float64 `json:"memPercent"`
	SampledAt  string  `json:"sampledAt"`
}

// HostMonitor periodically samples host CPU and memory, streams the
// numbers to the hub, and raises a warn event when CPU stays above the
// threshold.
type HostMonitor struct {
	eventSvc  services.EventServiceProvider
	hub       *ws.Hub // nil disables broadcasting
	threshold float64
	ticker    *time.Ticker
	done      chan bool
	lastAlert time.Time
}

// NewHostMonitor creates a HostMonitor. hub may be nil.
func NewHostMonitor(eventSvc services.EventServiceProvider, hub *ws.Hub, threshold float64) *HostMonitor {
	return &HostMonitor{
		eventSvc:  eventSvc,
		hub:       hub,
		threshold: threshold,
		done:      make(chan bool),
	}
}

// Run starts the periodic sampling.
func (m *HostMonitor) Run() {
	log.Info().Float64("cpu_threshold", m.threshold).Msg("Starting host monitor...")
	m.ticker = time.NewTicker(sampleInterval)
	defer m.ticker.Stop()

	m.sample()

	for {
		select {
		case <-m.done:
			log.Info().Msg("Stopping host monitor.")
			return
		case <-m.ticker.C:
			m.sample()
		}
	}
}

// Stop halts the periodic sampling.
func (m *HostMonitor) Stop() {
	m.done <- true
}

func (m *HostMonitor) sample() {
	percents, err := cpu.Percent(0, false)
	if err != nil || len(percents) == 0 {
		log.Warn().Err(err).Msg("HostMonitor: could not sample CPU")
		return
	}
	cpuPercent := percents[0]

	memPercent := 0.0
	if vm, err := mem.VirtualMemory(); err == nil {
		memPercent = vm.UsedPercent
	}

	if m.hub != nil {
		m.hub.Broadcast <- ws.NewSignalMessage("system.host_stats", HostStats{
			CPUPercent: cpuPercent,
			MemPercent: memPercent,
			SampledAt:  time.Now().UTC().Format(time.RFC3339),
		})
	}

	m.checkAndAlert(cpuPercent)
}

// checkAndAlert records a warn event when CPU exceeds the threshold,
// at most once per cooldown window.
func (m *HostMonitor) checkAndAlert(cpuPercent float64) {
	if cpuPercent <= m.threshold {
		return
	}
	if !m.lastAlert.IsZero() && time.Since(m.lastAlert) < alertCooldown {
		return
	}

	msg := fmt.Sprintf("High CPU usage (%.1f%%) detected on host.", cpuPercent)
	if err := m.eventSvc.CreateEvent(context.Background(), "system.alert.cpu", "warn", msg, nil); err != nil {
		log.Error().Err(err).Msg("HostMonitor: failed to record CPU alert")
		return
	}
	m.lastAlert = time.Now()
}
