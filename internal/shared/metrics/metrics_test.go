package metrics

import (
	"bytes"
	"strings"
	"testing"
)

func TestRenderIncludesDocumentTypeCounters(t *testing.T) {
	IncDocumentUploaded("Passport")
	IncDocumentUploaded("Passport")
	IncDocumentUploaded("Unknown")

	out := Render()
	if !strings.Contains(out, `documents_uploaded_total{type="Passport"}`) {
		t.Fatalf("expected Passport counter in output:\n%s", out)
	}
	if !strings.Contains(out, `documents_uploaded_total{type="Unknown"}`) {
		t.Fatalf("expected Unknown counter in output:\n%s", out)
	}
}

func TestHistogramBucketsAreCumulative(t *testing.T) {
	h := newHistogram([]float64{10, 100})
	h.Observe(5)
	h.Observe(50)
	h.Observe(500)

	snap := h.Snapshot()
	if snap.count != 3 {
		t.Fatalf("expected count 3, got %d", snap.count)
	}
	if snap.counts[0] != 1 || snap.counts[1] != 1 {
		t.Fatalf("unexpected per-bucket counts: %v", snap.counts)
	}

	var buf bytes.Buffer
	writeHistogram(&buf, "x", "test", snap)
	out := buf.String()
	if !strings.Contains(out, `x_bucket{le="100"} 2`) {
		t.Fatalf("expected cumulative bucket, got:\n%s", out)
	}
	if !strings.Contains(out, `x_bucket{le="+Inf"} 3`) {
		t.Fatalf("expected +Inf bucket, got:\n%s", out)
	}
}
