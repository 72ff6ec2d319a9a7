package studio

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/tunelab-ai/studio/pkg/common/logger"
	"github.com/tunelab-ai/studio/pkg/observability/metrics"
)

// Submitter hands a built payload to the external fine-tuning service and
// returns its message verbatim.
type Submitter interface {
	Submit(ctx context.Context, payload SubmissionPayload) (string, error)
}

// EventPublisher pushes session lifecycle events onto the event bus.
type EventPublisher interface {
	PublishEvent(ctx context.Context, eventType, source string, data map[string]interface{}) error
}

// CatalogDirectory answers whether an online id exists and resolves
// registered artifacts to paths.
type CatalogDirectory interface {
	HasModel(id string) bool
	HasDataset(id string) bool
	ResolveModelPath(ctx context.Context, id string) (string, error)
	ResolveDatasetPath(ctx context.Context, id string) (string, error)
}

const eventSource = "studio-service"

// Session pairs the aggregate with the two selectors that own upload state.
// The training and adapter editors initialize their configs on mount, so a
// fresh session already carries both defaults.
type Session struct {
	ID        uuid.UUID
	Owner     string
	CreatedAt time.Time

	mu         sync.Mutex
	config     *SessionConfig
	modelSel   *ModelSelector
	datasetSel *DatasetSelector
}

type SessionSnapshot struct {
	ID              uuid.UUID      `json:"id"`
	Owner           string         `json:"owner,omitempty"`
	CreatedAt       time.Time      `json:"created_at"`
	Config          *SessionConfig `json:"config"`
	SubmitReady     bool           `json:"submit_ready"`
	ModelProgress   int            `json:"model_upload_progress"`
	ModelReady      bool           `json:"model_upload_ready"`
	DatasetProgress int            `json:"dataset_upload_progress"`
	DatasetReady    bool           `json:"dataset_upload_ready"`
}

// SelectionInput carries one sub-selector action from the HTTP layer.
type SelectionInput struct {
	Source    SourceKind `json:"source"`
	CatalogID string     `json:"catalog_id,omitempty"`
	FileName  string     `json:"file_name,omitempty"`
	SizeBytes int64      `json:"size_bytes,omitempty"`
}

type Service struct {
	mu       sync.RWMutex
	sessions map[uuid.UUID]*Session

	repo      *Repository
	catalogs  CatalogDirectory
	submitter Submitter
	events    EventPublisher
	policy    SubmitPolicy
	tick      time.Duration
}

func NewService(repo *Repository, catalogs CatalogDirectory, submitter Submitter, events EventPublisher, policy SubmitPolicy, tick time.Duration) *Service {
	return &Service{
		sessions:  make(map[uuid.UUID]*Session),
		repo:      repo,
		catalogs:  catalogs,
		submitter: submitter,
		events:    events,
		policy:    policy,
		tick:      tick,
	}
}

func (s *Service) CreateSession(owner string) *SessionSnapshot {
	sess := &Session{
		ID:        uuid.New(),
		Owner:     owner,
		CreatedAt: time.Now().UTC(),
		config:    NewSessionConfig(),
	}
	training := DefaultTrainingConfig()
	adapter := DefaultAdapterConfig()
	sess.config.RecordTraining(training)
	sess.config.RecordAdapter(adapter)

	sess.modelSel = NewModelSelector(s.tick, func(ref ModelReference) {
		sess.mu.Lock()
		sess.config.RecordModel(ref)
		sess.mu.Unlock()
		metrics.IncUploadsCompleted()
	})
	sess.datasetSel = NewDatasetSelector(s.tick, func(ref DatasetReference) {
		sess.mu.Lock()
		sess.config.RecordDataset(ref)
		sess.mu.Unlock()
		metrics.IncUploadsCompleted()
	})

	s.mu.Lock()
	s.sessions[sess.ID] = sess
	s.mu.Unlock()

	metrics.IncSessionsCreated()
	return s.snapshot(sess)
}

func (s *Service) GetSession(id uuid.UUID) (*SessionSnapshot, error) {
	sess, err := s.session(id)
	if err != nil {
		return nil, err
	}
	return s.snapshot(sess), nil
}

// CloseSession tears the session down, releasing any in-flight upload timers.
func (s *Service) CloseSession(id uuid.UUID) error {
	s.mu.Lock()
	sess, ok := s.sessions[id]
	if ok {
		delete(s.sessions, id)
	}
	s.mu.Unlock()
	if !ok {
		return ErrSessionNotFound
	}
	sess.modelSel.Close()
	sess.datasetSel.Close()
	return nil
}

// SelectModel applies one model sub-selector action. Catalog-backed variants
// report to the aggregate synchronously; uploads report only when the
// transfer completes.
func (s *Service) SelectModel(ctx context.Context, id uuid.UUID, input SelectionInput) (*SessionSnapshot, error) {
	sess, err := s.session(id)
	if err != nil {
		return nil, err
	}

	switch input.Source {
	case SourceOnline:
		if s.catalogs != nil && !s.catalogs.HasModel(input.CatalogID) {
			return nil, fmt.Errorf("%w: model %q", ErrUnknownCatalogEntry, input.CatalogID)
		}
		if _, err := sess.modelSel.SelectOnline(input.CatalogID); err != nil {
			return nil, err
		}
	case SourceExisting:
		if s.catalogs == nil {
			return nil, fmt.Errorf("%w: model %q", ErrUnknownCatalogEntry, input.CatalogID)
		}
		path, err := s.catalogs.ResolveModelPath(ctx, input.CatalogID)
		if err != nil {
			return nil, fmt.Errorf("%w: model %q", ErrUnknownCatalogEntry, input.CatalogID)
		}
		if _, err := sess.modelSel.SelectExisting(input.CatalogID, path); err != nil {
			return nil, err
		}
	case SourceUploaded:
		if err := sess.modelSel.BeginUpload(input.FileName, input.SizeBytes); err != nil {
			return nil, err
		}
		metrics.IncUploadsStarted()
	default:
		return nil, fmt.Errorf("%w: unknown source %q", ErrInvalidReference, input.Source)
	}

	return s.snapshot(sess), nil
}

func (s *Service) SelectDataset(ctx context.Context, id uuid.UUID, input SelectionInput) (*SessionSnapshot, error) {
	sess, err := s.session(id)
	if err != nil {
		return nil, err
	}

	switch input.Source {
	case SourceOnline:
		if s.catalogs != nil && !s.catalogs.HasDataset(input.CatalogID) {
			return nil, fmt.Errorf("%w: dataset %q", ErrUnknownCatalogEntry, input.CatalogID)
		}
		if _, err := sess.datasetSel.SelectOnline(input.CatalogID); err != nil {
			return nil, err
		}
	case SourceLocal:
		if s.catalogs == nil {
			return nil, fmt.Errorf("%w: dataset %q", ErrUnknownCatalogEntry, input.CatalogID)
		}
		path, err := s.catalogs.ResolveDatasetPath(ctx, input.CatalogID)
		if err != nil {
			return nil, fmt.Errorf("%w: dataset %q", ErrUnknownCatalogEntry, input.CatalogID)
		}
		if _, err := sess.datasetSel.SelectLocal(input.CatalogID, path); err != nil {
			return nil, err
		}
	case SourceUploaded:
		if err := sess.datasetSel.BeginUpload(input.FileName, input.SizeBytes); err != nil {
			return nil, err
		}
		metrics.IncUploadsStarted()
	default:
		return nil, fmt.Errorf("%w: unknown source %q", ErrInvalidReference, input.Source)
	}

	return s.snapshot(sess), nil
}

func (s *Service) SwitchModelSource(id uuid.UUID, kind SourceKind) (*SessionSnapshot, error) {
	sess, err := s.session(id)
	if err != nil {
		return nil, err
	}
	sess.modelSel.SetSource(kind)
	return s.snapshot(sess), nil
}

func (s *Service) SwitchDatasetSource(id uuid.UUID, kind SourceKind) (*SessionSnapshot, error) {
	sess, err := s.session(id)
	if err != nil {
		return nil, err
	}
	sess.datasetSel.SetSource(kind)
	return s.snapshot(sess), nil
}

func (s *Service) ModelUploadProgress(id uuid.UUID) (int, bool, error) {
	sess, err := s.session(id)
	if err != nil {
		return 0, false, err
	}
	progress, ready := sess.modelSel.Progress()
	return progress, ready, nil
}

func (s *Service) DatasetUploadProgress(id uuid.UUID) (int, bool, error) {
	sess, err := s.session(id)
	if err != nil {
		return 0, false, err
	}
	progress, ready := sess.datasetSel.Progress()
	return progress, ready, nil
}

// SetTrainingField writes one hyperparameter and records the full replacement
// snapshot on the aggregate, synchronously.
func (s *Service) SetTrainingField(id uuid.UUID, field string, value interface{}) (TrainingConfig, error) {
	sess, err := s.session(id)
	if err != nil {
		return TrainingConfig{}, err
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()
	current := DefaultTrainingConfig()
	if sess.config.Training != nil {
		current = *sess.config.Training
	}
	next, err := current.SetField(field, value)
	if err != nil {
		return TrainingConfig{}, err
	}
	sess.config.RecordTraining(next)
	return next, nil
}

func (s *Service) SetAdapterField(id uuid.UUID, field string, value interface{}) (AdapterConfig, error) {
	sess, err := s.session(id)
	if err != nil {
		return AdapterConfig{}, err
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()
	current := DefaultAdapterConfig()
	if sess.config.Adapter != nil {
		current = *sess.config.Adapter
	}
	next, err := current.SetField(field, value)
	if err != nil {
		return AdapterConfig{}, err
	}
	sess.config.RecordAdapter(next)
	return next, nil
}

func (s *Service) Export(id uuid.UUID) ([]byte, error) {
	sess, err := s.session(id)
	if err != nil {
		return nil, err
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	return sess.config.Export()
}

func (s *Service) Import(id uuid.UUID, data []byte) (*SessionSnapshot, error) {
	sess, err := s.session(id)
	if err != nil {
		return nil, err
	}
	sess.mu.Lock()
	if err := sess.config.Import(data); err != nil {
		sess.mu.Unlock()
		return nil, err
	}
	sess.mu.Unlock()
	return s.snapshot(sess), nil
}

// Submit builds the wire payload and posts it to the trainer. A failure is
// terminal for this attempt; the session is untouched and submit can be
// retried.
func (s *Service) Submit(ctx context.Context, id uuid.UUID) (string, error) {
	sess, err := s.session(id)
	if err != nil {
		return "", err
	}

	sess.mu.Lock()
	if !sess.config.SubmitReady(s.policy) {
		sess.mu.Unlock()
		return "", ErrIncompleteConfiguration
	}
	payload, err := sess.config.BuildSubmission()
	sess.mu.Unlock()
	if err != nil {
		return "", err
	}

	message, err := s.submitter.Submit(ctx, payload)
	if err != nil {
		metrics.IncSubmissionsFailed()
		s.recordSubmission(ctx, sess, payload, "failed", err.Error())
		return "", err
	}

	metrics.IncSubmissions()
	s.recordSubmission(ctx, sess, payload, "submitted", message)
	s.publish(ctx, "session_submitted", map[string]interface{}{
		"session_id": sess.ID.String(),
		"model":      payload.ModelName,
		"dataset":    payload.DatasetName,
		"method":     payload.FinetuneMethod,
	})
	return message, nil
}

// SaveConfiguration persists the full aggregate under a user-chosen name.
func (s *Service) SaveConfiguration(ctx context.Context, id uuid.UUID, name, description string) (*SavedConfigurationModel, error) {
	sess, err := s.session(id)
	if err != nil {
		return nil, err
	}
	if s.repo == nil {
		return nil, errors.New("saved configurations are not enabled")
	}

	sess.mu.Lock()
	if sess.config.Model == nil || sess.config.Training == nil || sess.config.Dataset == nil || sess.config.Adapter == nil {
		sess.mu.Unlock()
		return nil, ErrIncompleteConfiguration
	}
	snapshot := sess.config.Clone()
	sess.mu.Unlock()

	saved, err := s.repo.CreateSavedConfiguration(ctx, sess.Owner, name, description, snapshot)
	if err != nil {
		return nil, err
	}

	metrics.IncConfigurationsSaved()
	s.publish(ctx, "config_saved", map[string]interface{}{
		"session_id": sess.ID.String(),
		"saved_id":   saved.ID.String(),
		"name":       name,
	})
	return saved, nil
}

// LoadConfiguration replaces the session aggregate with a previously saved
// one, with the same all-or-nothing contract as Import.
func (s *Service) LoadConfiguration(ctx context.Context, id, savedID uuid.UUID) (*SessionSnapshot, error) {
	sess, err := s.session(id)
	if err != nil {
		return nil, err
	}
	if s.repo == nil {
		return nil, errors.New("saved configurations are not enabled")
	}

	saved, err := s.repo.GetSavedConfiguration(ctx, savedID)
	if err != nil {
		return nil, err
	}
	data, err := saved.FileBytes()
	if err != nil {
		return nil, err
	}

	sess.mu.Lock()
	if err := sess.config.Import(data); err != nil {
		sess.mu.Unlock()
		return nil, err
	}
	sess.mu.Unlock()

	metrics.IncConfigurationsLoaded()
	return s.snapshot(sess), nil
}

func (s *Service) ListSavedConfigurations(ctx context.Context, owner string, limit int) ([]SavedConfigurationModel, error) {
	if s.repo == nil {
		return nil, errors.New("saved configurations are not enabled")
	}
	return s.repo.ListSavedConfigurations(ctx, owner, limit)
}

func (s *Service) DeleteSavedConfiguration(ctx context.Context, savedID uuid.UUID) error {
	if s.repo == nil {
		return errors.New("saved configurations are not enabled")
	}
	return s.repo.DeleteSavedConfiguration(ctx, savedID)
}

func (s *Service) session(id uuid.UUID) (*Session, error) {
	s.mu.RLock()
	sess, ok := s.sessions[id]
	s.mu.RUnlock()
	if !ok {
		return nil, ErrSessionNotFound
	}
	return sess, nil
}

func (s *Service) snapshot(sess *Session) *SessionSnapshot {
	sess.mu.Lock()
	config := sess.config.Clone()
	sess.mu.Unlock()

	modelProgress, modelReady := sess.modelSel.Progress()
	datasetProgress, datasetReady := sess.datasetSel.Progress()

	return &SessionSnapshot{
		ID:              sess.ID,
		Owner:           sess.Owner,
		CreatedAt:       sess.CreatedAt,
		Config:          config,
		SubmitReady:     config.SubmitReady(s.policy),
		ModelProgress:   modelProgress,
		ModelReady:      modelReady,
		DatasetProgress: datasetProgress,
		DatasetReady:    datasetReady,
	}
}

func (s *Service) recordSubmission(ctx context.Context, sess *Session, payload SubmissionPayload, status, message string) {
	if s.repo == nil {
		return
	}
	if err := s.repo.CreateSubmission(ctx, sess.ID, sess.Owner, payload, status, message); err != nil {
		logger.Log.WithError(err).Error("failed to record submission")
	}
}

func (s *Service) publish(ctx context.Context, eventType string, data map[string]interface{}) {
	if s.events == nil {
		return
	}
	if err := s.events.PublishEvent(ctx, eventType, eventSource, data); err != nil {
		logger.Log.WithError(err).WithField("event_type", eventType).Error("failed to publish studio event")
	}
}
