package cleanup

import (
	"context"
	"errors"
	"testing"
	"time"
)

type fakePurger struct {
	backlog   int
	calls     int
	retention time.Duration
	err       error
}

func (f *fakePurger) PurgeOrphans(_ context.Context, retention time.Duration, batchSize int) (int, error) {
	f.calls++
	f.retention = retention
	if f.err != nil {
		return 0, f.err
	}
	n := batchSize
	if f.backlog < n {
		n = f.backlog
	}
	f.backlog -= n
	return n, nil
}

func TestRunDrainsBacklogInBatches(t *testing.T) {
	purger := &fakePurger{backlog: 25}
	job := New(purger, 48*time.Hour, 10, nil)

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("run cleanup job: %v", err)
	}
	if purger.backlog != 0 {
		t.Fatalf("expected backlog drained, %d left", purger.backlog)
	}
	if purger.calls != 3 {
		t.Fatalf("unexpected purge calls: got %d want 3", purger.calls)
	}
	if purger.retention != 48*time.Hour {
		t.Fatalf("unexpected retention: got %s want 48h", purger.retention)
	}
}

func TestRunExactBatchMakesOneMoreCall(t *testing.T) {
	purger := &fakePurger{backlog: 10}
	job := New(purger, time.Hour, 10, nil)

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("run cleanup job: %v", err)
	}
	if purger.calls != 2 {
		t.Fatalf("unexpected purge calls: got %d want 2", purger.calls)
	}
}

func TestRunDefaultsAndErrors(t *testing.T) {
	purger := &fakePurger{err: errors.New("s3 down")}
	job := New(purger, 0, 0, nil)
	if job.retention != defaultRetention || job.batchSize != defaultBatchSize {
		t.Fatalf("unexpected defaults: %s %d", job.retention, job.batchSize)
	}
	if err := job.Run(context.Background()); err == nil {
		t.Fatalf("expected purge error")
	}
	if New(nil, 0, 0, nil).Run(context.Background()) != nil {
		t.Fatalf("job without purger must be a no-op")
	}
}
