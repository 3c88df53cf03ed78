package stats

import (
	"context"
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	log "github.com/sirupsen/logrus"
)

var (
	// RequestsReceived counts inbound peer RPC requests by method.
	RequestsReceived = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "maker",
		Name:      "rpc_requests_received_total",
		Help:      "Inbound peer RPC requests by method.",
	}, []string{"method"})

	// ResponsesSent counts responses dispatched back to peers by method.
	ResponsesSent = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "maker",
		Name:      "rpc_responses_sent_total",
		Help:      "Responses dispatched to peers by method.",
	}, []string{"method"})

	// RequestsDropped counts requests dropped without a response, by method
	// and reason.
	RequestsDropped = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "maker",
		Name:      "rpc_requests_dropped_total",
		Help:      "Requests dropped without a response, by method and reason.",
	}, []string{"method", "reason"})

	// ApprovalsSubmitted counts token approval transactions submitted on-chain.
	ApprovalsSubmitted = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "maker",
		Name:      "approvals_submitted_total",
		Help:      "Token approval transactions submitted on-chain.",
	})
)

// EnableMemoryStatistics starts a goroutine that periodically logs memory
// usage and goroutine count of the process.
func EnableMemoryStatistics(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)

	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				printMemoryStatistics()
			case <-ctx.Done():
				return
			}
		}
	}()
}

func printMemoryStatistics() {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	log.Infof(
		"Total allocated: %dMB, Heap allocated: %dMB, Num of go routines: %d",
		memStats.TotalAlloc/(1<<20),
		memStats.HeapAlloc/(1<<20),
		runtime.NumGoroutine(),
	)
}
