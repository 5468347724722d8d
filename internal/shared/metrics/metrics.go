package metrics

import (
	"bytes"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/gin-gonic/gin"
)

var (
	signupsTotal      atomic.Uint64
	loginSuccessTotal atomic.Uint64
	loginFailureTotal atomic.Uint64
	documentsDeleted  atomic.Uint64
	documentsUpdated  atomic.Uint64
	documentsByType   = newLabeledCounter()
	requestsByClass   = newLabeledCounter()
	requestDurationMs = newHistogram([]float64{5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000})
)

// IncSignup increments the account signup counter.
func IncSignup() {
	signupsTotal.Add(1)
}

// IncLogin records a login attempt outcome.
func IncLogin(success bool) {
	if success {
		loginSuccessTotal.Add(1)
		return
	}
	loginFailureTotal.Add(1)
}

// IncDocumentUploaded increments the upload counter for a document type label.
func IncDocumentUploaded(documentType string) {
	documentsByType.Inc(documentType)
}

// IncDocumentUpdated increments the tag update counter.
func IncDocumentUpdated() {
	documentsUpdated.Add(1)
}

// IncDocumentDeleted increments the delete counter.
func IncDocumentDeleted() {
	documentsDeleted.Add(1)
}

// ObserveRequest records a finished HTTP request.
func ObserveRequest(status int, durationMs float64) {
	if durationMs < 0 {
		durationMs = 0
	}
	requestsByClass.Inc(fmt.Sprintf("%dxx", status/100))
	requestDurationMs.Observe(durationMs)
}

// Handler exposes metrics in Prometheus text format.
func Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Content-Type", "text/plain; version=0.0.4")
		c.String(http.StatusOK, Render())
	}
}

// Render renders metrics in Prometheus text format.
func Render() string {
	var buf bytes.Buffer
	writeCounter(&buf, "accounts_signed_up_total", "Total accounts created", signupsTotal.Load())
	writeCounter(&buf, "logins_succeeded_total", "Total successful logins", loginSuccessTotal.Load())
	writeCounter(&buf, "logins_failed_total", "Total rejected logins", loginFailureTotal.Load())
	writeLabeledCounter(&buf, "documents_uploaded_total", "Total documents uploaded by type", "type", documentsByType.Snapshot())
	writeCounter(&buf, "documents_updated_total", "Total document tag updates", documentsUpdated.Load())
	writeCounter(&buf, "documents_deleted_total", "Total documents deleted", documentsDeleted.Load())
	writeLabeledCounter(&buf, "http_requests_total", "Total HTTP requests by status class", "code", requestsByClass.Snapshot())
	writeHistogram(&buf, "http_request_duration_ms", "HTTP request duration in milliseconds", requestDurationMs.Snapshot())
	return buf.String()
}

type labeledCounter struct {
	mu     sync.Mutex
	values map[string]uint64
}

func newLabeledCounter() *labeledCounter {
	return &labeledCounter{values: make(map[string]uint64)}
}

func (l *labeledCounter) Inc(label string) {
	l.mu.Lock()
	l.values[label]++
	l.mu.Unlock()
}

func (l *labeledCounter) Snapshot() map[string]uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make(map[string]uint64, len(l.values))
	for k, v := range l.values {
		out[k] = v
	}
	return out
}

type histogram struct {
	mu      sync.Mutex
	buckets []float64
	counts  []uint64
	sum     float64
	count   uint64
}

type histogramSnapshot struct {
	buckets []float64
	counts  []uint64
	sum     float64
	count   uint64
}

func newHistogram(buckets []float64) *histogram {
	return &histogram{
		buckets: buckets,
		counts:  make([]uint64, len(buckets)),
	}
}

// Observe counts value in the first bucket whose bound it does not exceed.
func (h *histogram) Observe(value float64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.count++
	h.sum += value
	for i, bound := range h.buckets {
		if value <= bound {
			h.counts[i]++
			return
		}
	}
}

func (h *histogram) Snapshot() histogramSnapshot {
	h.mu.Lock()
	defer h.mu.Unlock()
	return histogramSnapshot{
		buckets: append([]float64(nil), h.buckets...),
		counts:  append([]uint64(nil), h.counts...),
		sum:     h.sum,
		count:   h.count,
	}
}

func writeCounter(buf *bytes.Buffer, name, help string, value uint64) {
	fmt.Fprintf(buf, "# HELP %s %s\n", name, help)
	fmt.Fprintf(buf, "# TYPE %s counter\n", name)
	fmt.Fprintf(buf, "%s %d\n", name, value)
}

func writeLabeledCounter(buf *bytes.Buffer, name, help, label string, values map[string]uint64) {
	fmt.Fprintf(buf, "# HELP %s %s\n", name, help)
	fmt.Fprintf(buf, "# TYPE %s counter\n", name)
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(buf, "%s{%s=%q} %d\n", name, label, k, values[k])
	}
}

func writeHistogram(buf *bytes.Buffer, name, help string, snap histogramSnapshot) {
	fmt.Fprintf(buf, "# HELP %s %s\n", name, help)
	fmt.Fprintf(buf, "# TYPE %s histogram\n", name)
	var cumulative uint64
	for i, bound := range snap.buckets {
		cumulative += snap.counts[i]
		fmt.Fprintf(buf, "%s_bucket{le=\"%s\"} %d\n", name, formatFloat(bound), cumulative)
	}
	fmt.Fprintf(buf, "%s_bucket{le=\"+Inf\"} %d\n", name, snap.count)
	fmt.Fprintf(buf, "%s_sum %s\n", name, formatFloat(snap.sum))
	fmt.Fprintf(buf, "%s_count %d\n", name, snap.count)
}

func formatFloat(value float64) string {
	if value == float64(int64(value)) {
		return strconv.FormatInt(int64(value), 10)
	}
	return strconv.FormatFloat(value, 'f', -1, 64)
}
