package session

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	metricFrames = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "retroframe_session_frames_total",
		Help: "Frames completed per backend kind.",
	}, []string{"kind"})
	metricFaults = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "retroframe_session_faults_total",
		Help: "Backend faults per backend kind.",
	}, []string{"kind"})
	metricWatchRecords = promauto.NewCounter(prometheus.CounterOpts{
		Name: "retroframe_watch_records_total",
		Help: "Watch stream records emitted.",
	})
	metricFrameTime = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "retroframe_frame_step_seconds",
		Help:    "Wall time of one backend step.",
		Buckets: prometheus.ExponentialBuckets(0.0005, 2, 12),
	})
)
