package monitoring

import (
	"errors"
	"testing"
	"time"
)

type recordingMonitor struct {
	captured []error
	flushed  int
}

func (r *recordingMonitor) CaptureException(err error, _ map[string]string) {
	r.captured = append(r.captured, err)
}
func (r *recordingMonitor) Flush(time.Duration) { r.flushed++ }

func TestInitAndCapture(t *testing.T) {
	rec := &recordingMonitor{}
	Init(rec)
	defer Init(NopMonitor{})

	err := errors.New("boom")
	CaptureException(err, map[string]string{"path": "/x"})
	Flush(time.Second)

	if len(rec.captured) != 1 || rec.captured[0] != err {
		t.Fatalf("captured = %v", rec.captured)
	}
	if rec.flushed != 1 {
		t.Fatalf("flushed = %d", rec.flushed)
	}
}

func TestInitIgnoresNil(t *testing.T) {
	rec := &recordingMonitor{}
	Init(rec)
	defer Init(NopMonitor{})
	Init(nil)
	CaptureException(errors.New("boom"), nil)
	if len(rec.captured) != 1 {
		t.Fatal("nil Init must not replace the monitor")
	}
}
