package studio

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
)

type fakeCatalogs struct {
	models   map[string]bool
	datasets map[string]bool
	paths    map[string]string
}

func (f *fakeCatalogs) HasModel(id string) bool   { return f.models[id] }
func (f *fakeCatalogs) HasDataset(id string) bool { return f.datasets[id] }

func (f *fakeCatalogs) ResolveModelPath(ctx context.Context, id string) (string, error) {
	if path, ok := f.paths[id]; ok {
		return path, nil
	}
	return "", errors.New("not registered")
}

func (f *fakeCatalogs) ResolveDatasetPath(ctx context.Context, id string) (string, error) {
	return f.ResolveModelPath(ctx, id)
}

type fakeSubmitter struct {
	payloads []SubmissionPayload
	message  string
	err      error
}

func (f *fakeSubmitter) Submit(ctx context.Context, payload SubmissionPayload) (string, error) {
	f.payloads = append(f.payloads, payload)
	return f.message, f.err
}

type fakePublisher struct {
	events []string
}

func (f *fakePublisher) PublishEvent(ctx context.Context, eventType, source string, data map[string]interface{}) error {
	f.events = append(f.events, eventType)
	return nil
}

func newTestService(submitter *fakeSubmitter, publisher EventPublisher) *Service {
	catalogs := &fakeCatalogs{
		models:   map[string]bool{"llama3-8b-instruct": true},
		datasets: map[string]bool{"alpaca-gpt4-en": true},
		paths:    map[string]string{"registered": "/artifacts/registered"},
	}
	return NewService(nil, catalogs, submitter, publisher, PolicyModelAndDataset, time.Millisecond)
}

func TestCreateSessionCarriesEditorDefaults(t *testing.T) {
	svc := newTestService(&fakeSubmitter{}, nil)
	snap := svc.CreateSession("alice@example.com")
	defer svc.CloseSession(snap.ID)

	if snap.Config.Training == nil || snap.Config.Adapter == nil {
		t.Fatal("fresh session must carry training and adapter defaults")
	}
	if snap.Config.Model != nil || snap.Config.Dataset != nil {
		t.Fatal("fresh session must not carry model or dataset")
	}
	if snap.SubmitReady {
		t.Fatal("fresh session must not be submit-ready")
	}
}

func TestGetSessionUnknownID(t *testing.T) {
	svc := newTestService(&fakeSubmitter{}, nil)
	if _, err := svc.GetSession(uuid.New()); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}
}

func TestSelectModelOnlineChecksCatalog(t *testing.T) {
	svc := newTestService(&fakeSubmitter{}, nil)
	snap := svc.CreateSession("")
	defer svc.CloseSession(snap.ID)

	if _, err := svc.SelectModel(context.Background(), snap.ID, SelectionInput{
		Source: SourceOnline, CatalogID: "definitely-not-a-model",
	}); !errors.Is(err, ErrUnknownCatalogEntry) {
		t.Fatalf("expected ErrUnknownCatalogEntry, got %v", err)
	}

	after, err := svc.SelectModel(context.Background(), snap.ID, SelectionInput{
		Source: SourceOnline, CatalogID: "llama3-8b-instruct",
	})
	if err != nil {
		t.Fatalf("select failed: %v", err)
	}
	if after.Config.Model == nil || after.Config.Model.CatalogID != "llama3-8b-instruct" {
		t.Fatalf("model not recorded: %+v", after.Config.Model)
	}
}

func TestSelectWithoutCatalogsDoesNotPanic(t *testing.T) {
	svc := NewService(nil, nil, &fakeSubmitter{}, nil, PolicyModelAndDataset, time.Millisecond)
	snap := svc.CreateSession("")
	defer svc.CloseSession(snap.ID)

	if _, err := svc.SelectModel(context.Background(), snap.ID, SelectionInput{
		Source: SourceExisting, CatalogID: "registered",
	}); !errors.Is(err, ErrUnknownCatalogEntry) {
		t.Fatalf("expected ErrUnknownCatalogEntry, got %v", err)
	}
	if _, err := svc.SelectDataset(context.Background(), snap.ID, SelectionInput{
		Source: SourceLocal, CatalogID: "registered",
	}); !errors.Is(err, ErrUnknownCatalogEntry) {
		t.Fatalf("expected ErrUnknownCatalogEntry, got %v", err)
	}
}

func TestSelectModelExistingResolvesPath(t *testing.T) {
	svc := newTestService(&fakeSubmitter{}, nil)
	snap := svc.CreateSession("")
	defer svc.CloseSession(snap.ID)

	after, err := svc.SelectModel(context.Background(), snap.ID, SelectionInput{
		Source: SourceExisting, CatalogID: "registered",
	})
	if err != nil {
		t.Fatalf("select failed: %v", err)
	}
	if after.Config.Model.ResolvedPath != "/artifacts/registered" {
		t.Fatalf("resolved path = %q", after.Config.Model.ResolvedPath)
	}
}

func TestUploadFlowRecordsOnReady(t *testing.T) {
	svc := newTestService(&fakeSubmitter{}, nil)
	snap := svc.CreateSession("")
	defer svc.CloseSession(snap.ID)

	if _, err := svc.SelectDataset(context.Background(), snap.ID, SelectionInput{
		Source: SourceUploaded, FileName: "train.jsonl", SizeBytes: 2048,
	}); err != nil {
		t.Fatalf("begin upload failed: %v", err)
	}

	waitFor(t, 2*time.Second, func() bool {
		_, ready, err := svc.DatasetUploadProgress(snap.ID)
		return err == nil && ready
	})

	after, err := svc.GetSession(snap.ID)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if after.Config.Dataset == nil || after.Config.Dataset.FileName != "train.jsonl" {
		t.Fatalf("completed upload not recorded: %+v", after.Config.Dataset)
	}
}

func TestSubmitGatesOnReadiness(t *testing.T) {
	submitter := &fakeSubmitter{message: "Fine-tuning started"}
	publisher := &fakePublisher{}
	svc := newTestService(submitter, publisher)
	snap := svc.CreateSession("")
	defer svc.CloseSession(snap.ID)

	if _, err := svc.Submit(context.Background(), snap.ID); !errors.Is(err, ErrIncompleteConfiguration) {
		t.Fatalf("expected ErrIncompleteConfiguration, got %v", err)
	}
	if len(submitter.payloads) != 0 {
		t.Fatal("incomplete session must never reach the trainer")
	}

	svc.SelectModel(context.Background(), snap.ID, SelectionInput{Source: SourceOnline, CatalogID: "llama3-8b-instruct"})
	svc.SelectDataset(context.Background(), snap.ID, SelectionInput{Source: SourceOnline, CatalogID: "alpaca-gpt4-en"})

	message, err := svc.Submit(context.Background(), snap.ID)
	if err != nil {
		t.Fatalf("submit failed: %v", err)
	}
	if message != "Fine-tuning started" {
		t.Fatalf("trainer message = %q, must pass through verbatim", message)
	}
	if len(submitter.payloads) != 1 || submitter.payloads[0].ModelName != "llama3-8b-instruct" {
		t.Fatalf("payload = %+v", submitter.payloads)
	}
	if len(publisher.events) == 0 || publisher.events[len(publisher.events)-1] != "session_submitted" {
		t.Fatalf("events = %v", publisher.events)
	}
}

func TestSubmitFailureLeavesSessionRetryable(t *testing.T) {
	submitter := &fakeSubmitter{err: ErrSubmissionFailed}
	svc := newTestService(submitter, nil)
	snap := svc.CreateSession("")
	defer svc.CloseSession(snap.ID)

	svc.SelectModel(context.Background(), snap.ID, SelectionInput{Source: SourceOnline, CatalogID: "llama3-8b-instruct"})
	svc.SelectDataset(context.Background(), snap.ID, SelectionInput{Source: SourceOnline, CatalogID: "alpaca-gpt4-en"})

	if _, err := svc.Submit(context.Background(), snap.ID); !errors.Is(err, ErrSubmissionFailed) {
		t.Fatalf("expected ErrSubmissionFailed, got %v", err)
	}

	// The session is untouched and a second attempt goes through.
	submitter.err = nil
	submitter.message = "ok"
	if _, err := svc.Submit(context.Background(), snap.ID); err != nil {
		t.Fatalf("retry failed: %v", err)
	}
}

func TestSetTrainingFieldThroughService(t *testing.T) {
	svc := newTestService(&fakeSubmitter{}, nil)
	snap := svc.CreateSession("")
	defer svc.CloseSession(snap.ID)

	next, err := svc.SetTrainingField(snap.ID, "epochs", float64(10))
	if err != nil {
		t.Fatalf("set failed: %v", err)
	}
	if next.Epochs != 10 {
		t.Fatalf("epochs = %v", next.Epochs)
	}

	if _, err := svc.SetTrainingField(snap.ID, "nonsense", 1); !errors.Is(err, ErrUnknownField) {
		t.Fatalf("expected ErrUnknownField, got %v", err)
	}
}

func TestServiceExportImportRoundTrip(t *testing.T) {
	svc := newTestService(&fakeSubmitter{}, nil)
	snap := svc.CreateSession("")
	defer svc.CloseSession(snap.ID)

	svc.SelectModel(context.Background(), snap.ID, SelectionInput{Source: SourceOnline, CatalogID: "llama3-8b-instruct"})
	svc.SelectDataset(context.Background(), snap.ID, SelectionInput{Source: SourceOnline, CatalogID: "alpaca-gpt4-en"})

	data, err := svc.Export(snap.ID)
	if err != nil {
		t.Fatalf("export failed: %v", err)
	}

	other := svc.CreateSession("")
	defer svc.CloseSession(other.ID)

	restored, err := svc.Import(other.ID, data)
	if err != nil {
		t.Fatalf("import failed: %v", err)
	}
	if restored.Config.Model.CatalogID != "llama3-8b-instruct" {
		t.Fatalf("model lost: %+v", restored.Config.Model)
	}
	if !restored.SubmitReady {
		t.Fatal("imported session should be submit-ready")
	}
}

func TestCloseSessionReleasesUploads(t *testing.T) {
	svc := newTestService(&fakeSubmitter{}, nil)
	snap := svc.CreateSession("")

	svc.SelectModel(context.Background(), snap.ID, SelectionInput{
		Source: SourceUploaded, FileName: "weights.gguf", SizeBytes: 1 << 20,
	})

	if err := svc.CloseSession(snap.ID); err != nil {
		t.Fatalf("close failed: %v", err)
	}
	if err := svc.CloseSession(snap.ID); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound on double close, got %v", err)
	}
	if _, err := svc.GetSession(snap.ID); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("closed session still reachable: %v", err)
	}
}
