package workers

import (
	"consensus-chat/contract"
	"consensus-chat/domain"
	"context"
	"log/slog"
	"os"
	"runtime"
	"time"

	"github.com/shirou/gopsutil/process"
)

var _ contract.Worker = (*HeartbeatWorker)(nil)

// NamedQueue is a pipeline channel whose backlog the heartbeat reports.
// Reading len and cap never blocks the pipeline.
type NamedQueue struct {
	Name  string
	Queue chan domain.PostMessageCommand
}

// HeartbeatWorker periodically logs the room server health: process
// memory, CPU and status, goroutines and pipeline backlog.
type HeartbeatWorker struct {
	log      *slog.Logger
	interval time.Duration
	queues   []NamedQueue
}

func NewHeartbeatWorker(log *slog.Logger, interval time.Duration, queues ...NamedQueue) *HeartbeatWorker {
	return &HeartbeatWorker{log: log, interval: interval, queues: queues}
}

// Run returns at once when the interval is not positive.
func (w *HeartbeatWorker) Run(ctx context.Context) error {
	if w.interval <= 0 {
		return nil
	}
	w.log.Info("Starting heartbeat worker", "interval", w.interval)
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	p, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			w.beat(p)
		}
	}
}

func (w *HeartbeatWorker) beat(p *process.Process) {
	attrs := []any{"pid", p.Pid, "goroutines", runtime.NumGoroutine()}
	for _, q := range w.queues {
		attrs = append(attrs, slog.Group(q.Name, "len", len(q.Queue), "cap", cap(q.Queue)))
		if cap(q.Queue) > 0 && len(q.Queue) == cap(q.Queue) {
			w.log.Warn("Pipeline queue is full", "queue", q.Name, "cap", cap(q.Queue))
		}
	}

	rss, cpu, status, err := getSelfStats(p)
	if err != nil {
		w.log.Error("Failed to collect self stats", "err", err)
	} else {
		attrs = append(attrs, "status", status, "cpu_percent", cpu, "ram_bytes", rss)
	}
	w.log.Debug("Heartbeat", attrs...)
}

// getSelfStats retrieves technical metrics (Memory, CPU, and OS Status) for the given process.
func getSelfStats(p *process.Process) (uint64, float64, string, error) {
	memInfo, err := p.MemoryInfo()
	if err != nil {
		return 0, 0, "", err
	}

	cpuPercent, err := p.CPUPercent()
	if err != nil {
		return 0, 0, "", err
	}

	status, err := p.Status()
	if err != nil {
		return 0, 0, "", err
	}
	return memInfo.RSS, cpuPercent, status, nil
}
