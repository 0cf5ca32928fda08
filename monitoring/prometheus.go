package monitoring

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"chainlog/logx"
)

type BlockRejectedReason string

var (
	BlockRejectedIntegrity    BlockRejectedReason = "integrity_violation"
	BlockRejectedAuthenticity BlockRejectedReason = "authenticity_violation"
	BlockRejectedFork         BlockRejectedReason = "fork_conflict"
)

type chainPromMetrics struct {
	blocksAppended  prometheus.Counter
	blocksImported  prometheus.Counter
	rejectedBlocks  *prometheus.CounterVec
	chainHeight     *prometheus.GaugeVec
	syncRounds      prometheus.Counter
	syncFailures    prometheus.Counter
	syncBatchBlocks prometheus.Histogram
	panicCount      prometheus.Counter
}

func newChainPromMetrics() *chainPromMetrics {
	return &chainPromMetrics{
		blocksAppended: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "chainlog_blocks_appended_total",
				Help: "The total number of locally authored blocks appended",
			},
		),
		blocksImported: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "chainlog_blocks_imported_total",
				Help: "The total number of externally received blocks accepted",
			},
		),
		rejectedBlocks: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "chainlog_blocks_rejected_total",
				Help: "The total number of rejected blocks",
			},
			[]string{"reason"},
		),
		chainHeight: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "chainlog_chain_height",
				Help: "The latest block number per chain",
			},
			[]string{"chain_id"},
		),
		syncRounds: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "chainlog_sync_rounds_total",
				Help: "The total number of completed sync rounds",
			},
		),
		syncFailures: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "chainlog_sync_failures_total",
				Help: "The total number of failed or timed-out sync rounds",
			},
		),
		syncBatchBlocks: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "chainlog_sync_batch_blocks",
				Help:    "Blocks carried per sync batch",
				Buckets: prometheus.LinearBuckets(0, 10, 10),
			},
		),
		panicCount: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "chainlog_panic_count",
				Help: "The total number of recovered panics",
			},
		),
	}
}

var metrics = newChainPromMetrics()

func IncreaseBlocksAppended() {
	metrics.blocksAppended.Inc()
}

func AddBlocksImported(n int) {
	metrics.blocksImported.Add(float64(n))
}

func IncreaseRejectedBlocks(reason BlockRejectedReason) {
	metrics.rejectedBlocks.WithLabelValues(string(reason)).Inc()
}

func SetChainHeight(chainID string, height uint64) {
	metrics.chainHeight.WithLabelValues(chainID).Set(float64(height))
}

func IncreaseSyncRounds() {
	metrics.syncRounds.Inc()
}

func IncreaseSyncFailures() {
	metrics.syncFailures.Inc()
}

func ObserveSyncBatch(blocks int) {
	metrics.syncBatchBlocks.Observe(float64(blocks))
}

func IncreasePanicCount() {
	metrics.panicCount.Inc()
}

// ServeMetrics exposes the prometheus handler on addr. Blocks until the
// server exits.
func ServeMetrics(addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	server := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	logx.Info("MONITORING", "Serving metrics on ", addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logx.Error("MONITORING", "Metrics server stopped: ", err)
	}
}
