package studio

import (
	"errors"
	"testing"
)

func TestUploadedModelCapBoundary(t *testing.T) {
	if _, err := NewUploadedModel("weights.safetensors", ModelUploadCapBytes); err != nil {
		t.Fatalf("a file exactly at the cap must be accepted: %v", err)
	}
	if _, err := NewUploadedModel("weights.safetensors", ModelUploadCapBytes+1); !errors.Is(err, ErrFileTooLarge) {
		t.Fatalf("expected ErrFileTooLarge one byte over the cap, got %v", err)
	}
	if _, err := NewUploadedModel("weights.safetensors", -1); !errors.Is(err, ErrFileTooLarge) {
		t.Fatalf("expected ErrFileTooLarge for negative size, got %v", err)
	}
}

func TestUploadedDatasetCapBoundary(t *testing.T) {
	if _, err := NewUploadedDataset("train.jsonl", DatasetUploadCapBytes); err != nil {
		t.Fatalf("a file exactly at the cap must be accepted: %v", err)
	}
	if _, err := NewUploadedDataset("train.jsonl", DatasetUploadCapBytes+1); !errors.Is(err, ErrFileTooLarge) {
		t.Fatalf("expected ErrFileTooLarge one byte over the cap, got %v", err)
	}
}

func TestModelDisplayNamePerVariant(t *testing.T) {
	online := NewOnlineModel("llama3-8b-instruct")
	if got := online.DisplayName(); got != "llama3-8b-instruct" {
		t.Fatalf("online display name = %q", got)
	}

	existing := NewExistingModel("my-model", "/models/my-model")
	if got := existing.DisplayName(); got != "/models/my-model" {
		t.Fatalf("existing display name = %q, want resolved path", got)
	}

	uploaded, err := NewUploadedModel("adapter.bin", 1024)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := uploaded.DisplayName(); got != "adapter.bin" {
		t.Fatalf("uploaded display name = %q", got)
	}
}

func TestDatasetDisplayNamePerVariant(t *testing.T) {
	online := NewOnlineDataset("alpaca-gpt4-en")
	if got := online.DisplayName(); got != "alpaca-gpt4-en" {
		t.Fatalf("online display name = %q", got)
	}

	local := NewLocalDataset("corpus", "/data/corpus.jsonl")
	if got := local.DisplayName(); got != "/data/corpus.jsonl" {
		t.Fatalf("local display name = %q, want resolved path", got)
	}
}

func TestReferenceValidate(t *testing.T) {
	bad := ModelReference{Kind: "carrier-pigeon", CatalogID: "x"}
	if err := bad.Validate(); !errors.Is(err, ErrMalformedConfiguration) {
		t.Fatalf("unknown kind should be malformed, got %v", err)
	}

	empty := ModelReference{Kind: SourceOnline}
	if err := empty.Validate(); !errors.Is(err, ErrInvalidReference) {
		t.Fatalf("empty online reference should be invalid, got %v", err)
	}

	oversize := DatasetReference{Kind: SourceUploaded, FileName: "big.jsonl", SizeBytes: DatasetUploadCapBytes + 1}
	if err := oversize.Validate(); !errors.Is(err, ErrFileTooLarge) {
		t.Fatalf("oversize uploaded dataset should fail the cap, got %v", err)
	}
}

func TestFileExtensionAllowlists(t *testing.T) {
	if !allowedModelFile("Weights.SAFETENSORS") {
		t.Fatal("model extension check must be case-insensitive")
	}
	if allowedModelFile("notes.docx") {
		t.Fatal("docx is not a model format")
	}
	if !allowedDatasetFile("train.jsonl") {
		t.Fatal("jsonl is a dataset format")
	}
	if allowedDatasetFile("weights.safetensors") {
		t.Fatal("model formats are not dataset formats")
	}
}
