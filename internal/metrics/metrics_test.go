package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestNormalizePath(t *testing.T) {
	cases := map[string]string{
		"/schedules":     "/schedules",
		"/schedules/12":  "/schedules/{id}",
		"/a/3/b":         "/a/{id}/b",
		"/schedules.csv": "/schedules.csv",
	}
	for in, want := range cases {
		if got := NormalizePath(in); got != want {
			t.Errorf("NormalizePath(%q): got %q, want %q", in, got, want)
		}
	}
}

func TestRecordPipelineRun(t *testing.T) {
	before := testutil.ToFloat64(PipelineRunsTotal.WithLabelValues("success"))
	finished := time.Unix(1700000000, 0)

	RecordPipelineRun("success", 7, 1.5, finished)
	if got := testutil.ToFloat64(PipelineRunsTotal.WithLabelValues("success")); got != before+1 {
		t.Errorf("runs total: got %v, want %v", got, before+1)
	}
	if got := testutil.ToFloat64(PipelineRecords); got != 7 {
		t.Errorf("records gauge: got %v, want 7", got)
	}
	if got := testutil.ToFloat64(PipelineLastSuccess); got != 1700000000 {
		t.Errorf("last success: got %v", got)
	}

	RecordPipelineRun("error", 0, 0.1, finished.Add(time.Hour))
	if got := testutil.ToFloat64(PipelineRecords); got != 7 {
		t.Errorf("records gauge moved on failure: %v", got)
	}
	if got := testutil.ToFloat64(PipelineLastSuccess); got != 1700000000 {
		t.Errorf("last success moved on failure: %v", got)
	}
}
