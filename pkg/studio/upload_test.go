package studio

import (
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}

func TestUploadTrackerCompletes(t *testing.T) {
	var readyCount atomic.Int32
	tracker := NewUploadTracker(time.Millisecond, func() { readyCount.Add(1) })
	defer tracker.Stop()

	waitFor(t, 2*time.Second, tracker.Ready)

	if tracker.Progress() != 100 {
		t.Fatalf("progress = %d after ready", tracker.Progress())
	}
	// Give a stray tick a chance to fire again.
	time.Sleep(10 * time.Millisecond)
	if got := readyCount.Load(); got != 1 {
		t.Fatalf("ready callback fired %d times", got)
	}
}

func TestUploadTrackerStopPreventsReady(t *testing.T) {
	var fired atomic.Bool
	tracker := NewUploadTracker(50*time.Millisecond, func() { fired.Store(true) })
	tracker.Stop()
	tracker.Stop() // safe to call twice

	time.Sleep(120 * time.Millisecond)
	if fired.Load() {
		t.Fatal("stopped tracker fired its ready callback")
	}
	if tracker.Ready() {
		t.Fatal("stopped tracker reports ready")
	}
}

func TestUploadTrackerStopNearCompletionNeverFiresLate(t *testing.T) {
	// A tick already past the stop channel must not complete a cancelled
	// transfer. Run many trackers close to 100% to catch the window.
	for i := 0; i < 200; i++ {
		var fired atomic.Bool
		tracker := NewUploadTracker(100*time.Microsecond, func() { fired.Store(true) })

		waitFor(t, time.Second, func() bool { return tracker.Progress() >= 90 })
		tracker.Stop()

		if tracker.Ready() {
			// Completed before Stop took effect; the callback is legitimate.
			continue
		}
		time.Sleep(2 * time.Millisecond)
		if fired.Load() {
			t.Fatalf("run %d: ready callback fired after Stop on an incomplete transfer", i)
		}
		if tracker.Ready() {
			t.Fatalf("run %d: tracker became ready after Stop", i)
		}
	}
}

func TestModelSelectorCatalogVariantsReportSynchronously(t *testing.T) {
	var reported []ModelReference
	sel := NewModelSelector(time.Millisecond, func(ref ModelReference) {
		reported = append(reported, ref)
	})
	defer sel.Close()

	if _, err := sel.SelectOnline("llama3-8b-instruct"); err != nil {
		t.Fatalf("online select failed: %v", err)
	}
	if len(reported) != 1 || reported[0].Kind != SourceOnline {
		t.Fatalf("online selection not reported: %v", reported)
	}

	if _, err := sel.SelectExisting("my-model", "/models/my-model"); err != nil {
		t.Fatalf("existing select failed: %v", err)
	}
	if len(reported) != 2 || reported[1].ResolvedPath != "/models/my-model" {
		t.Fatalf("existing selection not reported: %v", reported)
	}
}

func TestModelSelectorUploadReportsOnlyWhenReady(t *testing.T) {
	done := make(chan ModelReference, 1)
	sel := NewModelSelector(time.Millisecond, func(ref ModelReference) { done <- ref })
	defer sel.Close()

	if err := sel.BeginUpload("weights.safetensors", 4096); err != nil {
		t.Fatalf("begin upload failed: %v", err)
	}

	if _, err := sel.Reference(); !errors.Is(err, ErrUploadNotReady) {
		t.Fatalf("expected ErrUploadNotReady mid-transfer, got %v", err)
	}

	select {
	case ref := <-done:
		if ref.Kind != SourceUploaded || ref.FileName != "weights.safetensors" {
			t.Fatalf("reported reference = %+v", ref)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("upload never reported ready")
	}

	ref, err := sel.Reference()
	if err != nil {
		t.Fatalf("reference after ready: %v", err)
	}
	if ref.SizeBytes != 4096 {
		t.Fatalf("reference size = %d", ref.SizeBytes)
	}
}

func TestModelSelectorRejectsBadUploads(t *testing.T) {
	sel := NewModelSelector(time.Millisecond, nil)
	defer sel.Close()

	if err := sel.BeginUpload("resume.docx", 1024); !errors.Is(err, ErrUnsupportedFile) {
		t.Fatalf("expected ErrUnsupportedFile, got %v", err)
	}
	if err := sel.BeginUpload("weights.bin", ModelUploadCapBytes+1); !errors.Is(err, ErrFileTooLarge) {
		t.Fatalf("expected ErrFileTooLarge, got %v", err)
	}
	// A rejected file leaves the selector with no active upload.
	if progress, ready := sel.Progress(); progress != 0 || ready {
		t.Fatalf("rejected upload left state: progress=%d ready=%v", progress, ready)
	}
}

func TestSourceSwitchCancelsInFlightUpload(t *testing.T) {
	var fired atomic.Bool
	sel := NewDatasetSelector(20*time.Millisecond, func(DatasetReference) { fired.Store(true) })
	defer sel.Close()

	if err := sel.BeginUpload("train.jsonl", 2048); err != nil {
		t.Fatalf("begin upload failed: %v", err)
	}

	sel.SetSource(SourceOnline)

	if progress, ready := sel.Progress(); progress != 0 || ready {
		t.Fatalf("switch left upload state: progress=%d ready=%v", progress, ready)
	}
	time.Sleep(100 * time.Millisecond)
	if fired.Load() {
		t.Fatal("cancelled upload still reported a reference")
	}
}

func TestSourceSwitchToSameSourceKeepsState(t *testing.T) {
	sel := NewDatasetSelector(time.Millisecond, nil)
	defer sel.Close()

	if _, err := sel.SelectOnline("alpaca-gpt4-en"); err != nil {
		t.Fatalf("online select failed: %v", err)
	}
	sel.SetSource(SourceOnline)

	ref, err := sel.Reference()
	if err != nil {
		t.Fatalf("reference after no-op switch: %v", err)
	}
	if ref.CatalogID != "alpaca-gpt4-en" {
		t.Fatalf("no-op switch dropped state: %+v", ref)
	}
}

func TestSourceSwitchResetIsLocalToSelector(t *testing.T) {
	cfg := NewSessionConfig()
	modelSel := NewModelSelector(time.Millisecond, func(ref ModelReference) { cfg.RecordModel(ref) })
	datasetSel := NewDatasetSelector(time.Millisecond, func(ref DatasetReference) { cfg.RecordDataset(ref) })
	defer modelSel.Close()
	defer datasetSel.Close()

	modelSel.SelectOnline("llama3-8b-instruct")
	datasetSel.SelectOnline("alpaca-gpt4-en")

	datasetSel.SetSource(SourceUploaded)

	if _, err := datasetSel.Reference(); err == nil {
		t.Fatal("dataset selector should have no resolved reference after switch")
	}
	if cfg.Model == nil || cfg.Model.CatalogID != "llama3-8b-instruct" {
		t.Fatal("dataset source switch must not touch the recorded model")
	}
	// The aggregate keeps the last reported dataset until a new one arrives.
	if cfg.Dataset == nil || cfg.Dataset.CatalogID != "alpaca-gpt4-en" {
		t.Fatal("dataset source switch must not clear the aggregate")
	}
}
