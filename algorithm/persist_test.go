package algorithm_test

import (
	"context"
	"testing"

	"github.com/messif/metrickernel/algorithm"
)

func TestSnapshotRestoreRoundTrip(t *testing.T) {
	a := algorithm.New("persisted", 8)
	blob, err := a.Snapshot(context.Background())
	if err != nil {
		t.Fatalf("snapshot failed: %v", err)
	}

	restored, err := algorithm.RestoreAlgorithm(blob)
	if err != nil {
		t.Fatalf("restore failed: %v", err)
	}
	if restored.Name() != "persisted" {
		t.Fatalf("expected name %q, got %q", "persisted", restored.Name())
	}
}
