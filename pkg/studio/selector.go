package studio

import (
	"sync"
	"time"
)

// ModelSelector owns the model sub-form's state: which of the three sources
// is active, the fields of that source, and the upload tracker when the
// source is an upload. A resolved reference is pushed to the report callback;
// for uploads that happens only when the transfer reaches 100%.
type ModelSelector struct {
	mu           sync.Mutex
	tickInterval time.Duration
	report       func(ModelReference)

	source       SourceKind
	catalogID    string
	resolvedPath string
	fileName     string
	sizeBytes    int64
	tracker      *UploadTracker
}

func NewModelSelector(tickInterval time.Duration, report func(ModelReference)) *ModelSelector {
	if tickInterval <= 0 {
		tickInterval = 200 * time.Millisecond
	}
	return &ModelSelector{tickInterval: tickInterval, report: report}
}

// SetSource switches the active source, resetting this selector's own
// sub-state. Nothing outside the selector is touched.
func (s *ModelSelector) SetSource(kind SourceKind) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.source == kind {
		return
	}
	s.resetLocked()
	s.source = kind
}

func (s *ModelSelector) SelectOnline(catalogID string) (ModelReference, error) {
	if catalogID == "" {
		return ModelReference{}, ErrInvalidReference
	}
	s.mu.Lock()
	s.resetLocked()
	s.source = SourceOnline
	s.catalogID = catalogID
	s.mu.Unlock()

	ref := NewOnlineModel(catalogID)
	s.emit(ref)
	return ref, nil
}

func (s *ModelSelector) SelectExisting(catalogID, resolvedPath string) (ModelReference, error) {
	if resolvedPath == "" {
		return ModelReference{}, ErrInvalidReference
	}
	s.mu.Lock()
	s.resetLocked()
	s.source = SourceExisting
	s.catalogID = catalogID
	s.resolvedPath = resolvedPath
	s.mu.Unlock()

	ref := NewExistingModel(catalogID, resolvedPath)
	s.emit(ref)
	return ref, nil
}

// BeginUpload validates the file and starts the transfer timer. The
// reference is reported only once the tracker reaches ready; until then the
// selection is "selected but not ready". A rejected file changes no state.
func (s *ModelSelector) BeginUpload(fileName string, sizeBytes int64) error {
	if !allowedModelFile(fileName) {
		return ErrUnsupportedFile
	}
	ref, err := NewUploadedModel(fileName, sizeBytes)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.resetLocked()
	s.source = SourceUploaded
	s.fileName = fileName
	s.sizeBytes = sizeBytes
	s.tracker = NewUploadTracker(s.tickInterval, func() { s.emit(ref) })
	s.mu.Unlock()
	return nil
}

// Progress reports the active upload's percentage and readiness. Without an
// active upload both are zero values.
func (s *ModelSelector) Progress() (int, bool) {
	s.mu.Lock()
	tracker := s.tracker
	s.mu.Unlock()
	if tracker == nil {
		return 0, false
	}
	return tracker.Progress(), tracker.Ready()
}

// Reference returns the currently resolved reference, or ErrUploadNotReady
// while an upload is still in flight.
func (s *ModelSelector) Reference() (ModelReference, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch s.source {
	case SourceOnline:
		if s.catalogID == "" {
			return ModelReference{}, ErrInvalidReference
		}
		return NewOnlineModel(s.catalogID), nil
	case SourceExisting:
		if s.resolvedPath == "" {
			return ModelReference{}, ErrInvalidReference
		}
		return NewExistingModel(s.catalogID, s.resolvedPath), nil
	case SourceUploaded:
		if s.tracker == nil || !s.tracker.Ready() {
			return ModelReference{}, ErrUploadNotReady
		}
		return ModelReference{Kind: SourceUploaded, FileName: s.fileName, SizeBytes: s.sizeBytes}, nil
	}
	return ModelReference{}, ErrInvalidReference
}

// Close releases the upload timer. Called on component teardown.
func (s *ModelSelector) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resetLocked()
}

func (s *ModelSelector) resetLocked() {
	if s.tracker != nil {
		s.tracker.Stop()
		s.tracker = nil
	}
	s.source = ""
	s.catalogID = ""
	s.resolvedPath = ""
	s.fileName = ""
	s.sizeBytes = 0
}

func (s *ModelSelector) emit(ref ModelReference) {
	if s.report != nil {
		s.report(ref)
	}
}

// DatasetSelector mirrors ModelSelector with the dataset variants, cap and
// file-extension allowlist.
type DatasetSelector struct {
	mu           sync.Mutex
	tickInterval time.Duration
	report       func(DatasetReference)

	source       SourceKind
	catalogID    string
	resolvedPath string
	fileName     string
	sizeBytes    int64
	tracker      *UploadTracker
}

func NewDatasetSelector(tickInterval time.Duration, report func(DatasetReference)) *DatasetSelector {
	if tickInterval <= 0 {
		tickInterval = 200 * time.Millisecond
	}
	return &DatasetSelector{tickInterval: tickInterval, report: report}
}

func (s *DatasetSelector) SetSource(kind SourceKind) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.source == kind {
		return
	}
	s.resetLocked()
	s.source = kind
}

func (s *DatasetSelector) SelectOnline(catalogID string) (DatasetReference, error) {
	if catalogID == "" {
		return DatasetReference{}, ErrInvalidReference
	}
	s.mu.Lock()
	s.resetLocked()
	s.source = SourceOnline
	s.catalogID = catalogID
	s.mu.Unlock()

	ref := NewOnlineDataset(catalogID)
	s.emit(ref)
	return ref, nil
}

func (s *DatasetSelector) SelectLocal(catalogID, resolvedPath string) (DatasetReference, error) {
	if resolvedPath == "" {
		return DatasetReference{}, ErrInvalidReference
	}
	s.mu.Lock()
	s.resetLocked()
	s.source = SourceLocal
	s.catalogID = catalogID
	s.resolvedPath = resolvedPath
	s.mu.Unlock()

	ref := NewLocalDataset(catalogID, resolvedPath)
	s.emit(ref)
	return ref, nil
}

func (s *DatasetSelector) BeginUpload(fileName string, sizeBytes int64) error {
	if !allowedDatasetFile(fileName) {
		return ErrUnsupportedFile
	}
	ref, err := NewUploadedDataset(fileName, sizeBytes)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.resetLocked()
	s.source = SourceUploaded
	s.fileName = fileName
	s.sizeBytes = sizeBytes
	s.tracker = NewUploadTracker(s.tickInterval, func() { s.emit(ref) })
	s.mu.Unlock()
	return nil
}

func (s *DatasetSelector) Progress() (int, bool) {
	s.mu.Lock()
	tracker := s.tracker
	s.mu.Unlock()
	if tracker == nil {
		return 0, false
	}
	return tracker.Progress(), tracker.Ready()
}

func (s *DatasetSelector) Reference() (DatasetReference, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch s.source {
	case SourceOnline:
		if s.catalogID == "" {
			return DatasetReference{}, ErrInvalidReference
		}
		return NewOnlineDataset(s.catalogID), nil
	case SourceLocal:
		if s.resolvedPath == "" {
			return DatasetReference{}, ErrInvalidReference
		}
		return NewLocalDataset(s.catalogID, s.resolvedPath), nil
	case SourceUploaded:
		if s.tracker == nil || !s.tracker.Ready() {
			return DatasetReference{}, ErrUploadNotReady
		}
		return DatasetReference{Kind: SourceUploaded, FileName: s.fileName, SizeBytes: s.sizeBytes}, nil
	}
	return DatasetReference{}, ErrInvalidReference
}

func (s *DatasetSelector) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resetLocked()
}

func (s *DatasetSelector) resetLocked() {
	if s.tracker != nil {
		s.tracker.Stop()
		s.tracker = nil
	}
	s.source = ""
	s.catalogID = ""
	s.resolvedPath = ""
	s.fileName = ""
	s.sizeBytes = 0
}

func (s *DatasetSelector) emit(ref DatasetReference) {
	if s.report != nil {
		s.report(ref)
	}
}
