package storage

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	imageUploads = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "image_store_uploads_total", Help: "Profile image uploads by result"},
		[]string{"store", "result"},
	)
	imageDeletes = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "image_store_deletes_total", Help: "Profile image deletions by result"},
		[]string{"store", "result"},
	)
	imageUploadBytes = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "image_store_upload_bytes",
			Help:    "Size of normalized images written to the store",
			Buckets: prometheus.ExponentialBuckets(4<<10, 2, 10),
		}, []string{"store"},
	)
	imageUploadSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "image_store_upload_duration_seconds",
			Help:    "Latency of object writes",
			Buckets: prometheus.DefBuckets,
		}, []string{"store"},
	)
)

func init() {
	prometheus.MustRegister(imageUploads, imageDeletes, imageUploadBytes, imageUploadSeconds)
}

type storeMetrics struct {
	uploadOK, uploadFailed prometheus.Counter
	deleteOK, deleteFailed prometheus.Counter
	uploadBytes            prometheus.Observer
	uploadSeconds          prometheus.Observer
}

var (
	metricsMu    sync.Mutex
	metricsCache = map[string]*storeMetrics{}
)

func metricsFor(store string) *storeMetrics {
	metricsMu.Lock()
	defer metricsMu.Unlock()
	if m, ok := metricsCache[store]; ok {
		return m
	}
	m := &storeMetrics{
		uploadOK:      imageUploads.WithLabelValues(store, "ok"),
		uploadFailed:  imageUploads.WithLabelValues(store, "error"),
		deleteOK:      imageDeletes.WithLabelValues(store, "ok"),
		deleteFailed:  imageDeletes.WithLabelValues(store, "error"),
		uploadBytes:   imageUploadBytes.WithLabelValues(store),
		uploadSeconds: imageUploadSeconds.WithLabelValues(store),
	}
	metricsCache[store] = m
	return m
}
