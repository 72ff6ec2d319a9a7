package studio

import (
	"errors"
	"testing"
)

func TestTrainingSetFieldReturnsSnapshot(t *testing.T) {
	original := DefaultTrainingConfig()
	next, err := original.SetField("learning_rate", 1e-4)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if next.LearningRate != 1e-4 {
		t.Fatalf("snapshot learning rate = %v", next.LearningRate)
	}
	if original.LearningRate != 5e-5 {
		t.Fatal("SetField must not mutate the previous snapshot")
	}
}

func TestTrainingSetFieldUnknown(t *testing.T) {
	cfg := DefaultTrainingConfig()
	if _, err := cfg.SetField("warp_speed", 9); !errors.Is(err, ErrUnknownField) {
		t.Fatalf("expected ErrUnknownField, got %v", err)
	}
}

func TestTrainingSetFieldCoercesNumbers(t *testing.T) {
	cfg := DefaultTrainingConfig()
	// JSON decoding hands us float64 for every number.
	next, err := cfg.SetField("batch_size", float64(16))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if next.BatchSize != 16 {
		t.Fatalf("batch size = %d", next.BatchSize)
	}
}

func TestQuantizationBits(t *testing.T) {
	cfg := DefaultTrainingConfig()
	if got := cfg.QuantizationBits(); got != 0 {
		t.Fatalf("default quantization bits = %d, want 0", got)
	}

	cfg, _ = cfg.SetField("quantization_level", Quant4Bit)
	if got := cfg.QuantizationBits(); got != 4 {
		t.Fatalf("4bit level derived %d bits", got)
	}

	cfg, _ = cfg.SetField("quantization_level", Quant8Bit)
	if got := cfg.QuantizationBits(); got != 8 {
		t.Fatalf("8bit level derived %d bits", got)
	}
}

func TestQuantizationMethodRecordedWhileOff(t *testing.T) {
	cfg := DefaultTrainingConfig()
	cfg, err := cfg.SetField("quantization_method", "hqq")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.QuantizationLevel != QuantNone {
		t.Fatalf("quantization level changed to %q", cfg.QuantizationLevel)
	}
	if cfg.QuantizationMethod != "hqq" {
		t.Fatalf("quantization method = %q", cfg.QuantizationMethod)
	}
}

func TestAdapterSetFieldReturnsSnapshot(t *testing.T) {
	original := DefaultAdapterConfig()
	next, err := original.SetField("rank", 32)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if next.Rank != 32 {
		t.Fatalf("snapshot rank = %d", next.Rank)
	}
	if original.Rank != 8 {
		t.Fatal("SetField must not mutate the previous snapshot")
	}

	if _, err := original.SetField("unobtainium", 1); !errors.Is(err, ErrUnknownField) {
		t.Fatalf("expected ErrUnknownField, got %v", err)
	}
}

func TestModuleListTokenization(t *testing.T) {
	cfg := DefaultAdapterConfig()
	cfg.TargetModules = " q_proj , v_proj ,,k_proj "
	cfg.AdditionalModules = ""

	got := cfg.ModuleList()
	want := []string{"q_proj", "v_proj", "k_proj"}
	if len(got) != len(want) {
		t.Fatalf("module list = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("module list = %v, want %v", got, want)
		}
	}
}

func TestModuleListAppendsAdditional(t *testing.T) {
	cfg := DefaultAdapterConfig()
	cfg.AdditionalModules = "gate_proj, up_proj"

	got := cfg.ModuleList()
	want := []string{"q_proj", "v_proj", "gate_proj", "up_proj"}
	if len(got) != len(want) {
		t.Fatalf("module list = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("module list = %v, want %v", got, want)
		}
	}
}

func TestModuleListEmptyText(t *testing.T) {
	cfg := AdapterConfig{}
	if got := cfg.ModuleList(); len(got) != 0 {
		t.Fatalf("empty text tokenized to %v", got)
	}
}
