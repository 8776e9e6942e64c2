// Package observability aggregates runtime counters for the health endpoint.
package observability

import (
	"os"
	"sync/atomic"
	"time"

	"github.com/shirou/gopsutil/process"
)

// Stats tracks gateway activity with atomic counters. All methods are
// safe for concurrent use from connection goroutines.
type Stats struct {
	startedAt time.Time
	proc      *process.Process

	ActiveConnections int64
	MessagesRouted    uint64
	DeliveriesMissed  uint64
	EventErrors       uint64
}

func NewStats() *Stats {
	p, _ := process.NewProcess(int32(os.Getpid()))
	return &Stats{startedAt: time.Now().UTC(), proc: p}
}

func (s *Stats) ConnectionOpened()     { atomic.AddInt64(&s.ActiveConnections, 1) }
func (s *Stats) ConnectionClosed()     { atomic.AddInt64(&s.ActiveConnections, -1) }
func (s *Stats) IncrMessagesRouted()   { atomic.AddUint64(&s.MessagesRouted, 1) }
func (s *Stats) IncrDeliveriesMissed() { atomic.AddUint64(&s.DeliveriesMissed, 1) }
func (s *Stats) IncrEventErrors()      { atomic.AddUint64(&s.EventErrors, 1) }

// Snapshot is the JSON shape served by GET /api/health.
type Snapshot struct {
	Status            string  `json:"status"`
	UptimeSeconds     int64   `json:"uptime_seconds"`
	ActiveConnections int64   `json:"active_connections"`
	MessagesRouted    uint64  `json:"messages_routed"`
	DeliveriesMissed  uint64  `json:"deliveries_missed"`
	EventErrors       uint64  `json:"event_errors"`
	RSSMb             uint64  `json:"rss_mb"`
	CPUPercent        float64 `json:"cpu_percent"`
}

func (s *Stats) Snapshot() Snapshot {
	snap := Snapshot{
		Status:            "ok",
		UptimeSeconds:     int64(time.Since(s.startedAt).Seconds()),
		ActiveConnections: atomic.LoadInt64(&s.ActiveConnections),
		MessagesRouted:    atomic.LoadUint64(&s.MessagesRouted),
		DeliveriesMissed:  atomic.LoadUint64(&s.DeliveriesMissed),
		EventErrors:       atomic.LoadUint64(&s.EventErrors),
	}
	if s.proc != nil {
		if mem, err := s.proc.MemoryInfo(); err == nil && mem != nil {
			snap.RSSMb = mem.RSS / 1024 / 1024
		}
		if cpu, err := s.proc.CPUPercent(); err == nil {
			snap.CPUPercent = cpu
		}
	}
	return snap
}
