package studio

import (
	"encoding/json"
	"fmt"
	"time"
)

// SubmitPolicy decides which aggregate fields gate submission. The editors
// initialize training and adapter configs on mount, so the permissive
// model+dataset policy is the default; the strict policy is kept because the
// product behavior has flip-flopped between revisions.
type SubmitPolicy string

const (
	PolicyModelAndDataset SubmitPolicy = "model_dataset"
	PolicyAllFields       SubmitPolicy = "all"
)

func ParseSubmitPolicy(s string) SubmitPolicy {
	if SubmitPolicy(s) == PolicyAllFields {
		return PolicyAllFields
	}
	return PolicyModelAndDataset
}

// SessionConfig is the aggregate the dashboard assembles from the four
// independent editors. Fields are nil until their editor reports a value.
type SessionConfig struct {
	Model    *ModelReference   `json:"model"`
	Training *TrainingConfig   `json:"training"`
	Dataset  *DatasetReference `json:"dataset"`
	Adapter  *AdapterConfig    `json:"lora"`
	SavedAt  time.Time         `json:"timestamp"`
}

func NewSessionConfig() *SessionConfig {
	return &SessionConfig{}
}

// The four record operations each overwrite exactly one field. They are
// idempotent and order-free.

func (s *SessionConfig) RecordModel(ref ModelReference) {
	s.Model = &ref
}

func (s *SessionConfig) RecordDataset(ref DatasetReference) {
	s.Dataset = &ref
}

func (s *SessionConfig) RecordTraining(cfg TrainingConfig) {
	s.Training = &cfg
}

func (s *SessionConfig) RecordAdapter(cfg AdapterConfig) {
	s.Adapter = &cfg
}

func (s *SessionConfig) SubmitReady(policy SubmitPolicy) bool {
	if s.Model == nil || s.Dataset == nil {
		return false
	}
	if policy == PolicyAllFields {
		return s.Training != nil && s.Adapter != nil
	}
	return true
}

// BuildSubmission projects the aggregate into the trainer's flat wire record.
// Training and adapter fall back to their defaults when never touched.
func (s *SessionConfig) BuildSubmission() (SubmissionPayload, error) {
	if s.Model == nil || s.Dataset == nil {
		return SubmissionPayload{}, ErrIncompleteConfiguration
	}

	modelName := s.Model.DisplayName()
	datasetName := s.Dataset.DisplayName()
	if modelName == "" || datasetName == "" {
		return SubmissionPayload{}, ErrInvalidReference
	}

	training := DefaultTrainingConfig()
	if s.Training != nil {
		training = *s.Training
	}
	adapter := DefaultAdapterConfig()
	if s.Adapter != nil {
		adapter = *s.Adapter
	}

	return SubmissionPayload{
		ModelName:             modelName,
		DatasetName:           datasetName,
		FinetuneMethod:        training.Method,
		TrainingPhase:         training.TrainingStage,
		CheckpointPath:        training.CheckpointPath,
		QuantizationMethod:    training.QuantizationMethod,
		QuantizationBits:      training.QuantizationBits(),
		PromptTemplate:        training.PromptTemplate,
		AcceleratorType:       training.AccelerationMethod,
		RopeInterpolationType: training.RopeMethod,
		LearningRate:          training.LearningRate,
		WeightDecay:           fixedWeightDecay,
		Betas:                 fixedBetas(),
		ComputeDtype:          training.ComputeType,
		NumEpochs:             training.Epochs,
		BatchSize:             training.BatchSize,
		LoraAlpha:             adapter.Alpha,
		LoraR:                 adapter.Rank,
		ScalingFactor:         fixedScalingFactor,
		LearingRateRatio:      adapter.LearningRateScale,
		LoraDropout:           adapter.Dropout,
		IsCreateNewAdapter:    adapter.CreateNewAdapter,
		IsRLSLora:             adapter.EnableRSLoRA,
		IsDoLora:              adapter.EnableDoRA,
		IsPiSSA:               adapter.EnablePiSSA,
		LoraTargetModules:     adapter.ModuleList(),
	}, nil
}

// sessionFile is the persisted save-file shape: top-level model, training,
// dataset, lora, timestamp. Unknown extra keys are ignored on import.
type sessionFile struct {
	Model     *ModelReference   `json:"model"`
	Training  *TrainingConfig   `json:"training"`
	Dataset   *DatasetReference `json:"dataset"`
	Lora      *AdapterConfig    `json:"lora"`
	Timestamp string            `json:"timestamp"`
}

// Export serializes the aggregate with a fresh ISO-8601 timestamp. All four
// fields must be populated.
func (s *SessionConfig) Export() ([]byte, error) {
	if s.Model == nil || s.Training == nil || s.Dataset == nil || s.Adapter == nil {
		return nil, ErrIncompleteConfiguration
	}
	s.SavedAt = time.Now().UTC()
	file := sessionFile{
		Model:     s.Model,
		Training:  s.Training,
		Dataset:   s.Dataset,
		Lora:      s.Adapter,
		Timestamp: s.SavedAt.Format(time.RFC3339),
	}
	return json.MarshalIndent(file, "", "  ")
}

// Import replaces all four fields atomically. Any parse or shape failure
// leaves the receiver exactly as it was.
func (s *SessionConfig) Import(data []byte) error {
	var file sessionFile
	if err := json.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedConfiguration, err)
	}
	if file.Model == nil || file.Training == nil || file.Dataset == nil || file.Lora == nil {
		return fmt.Errorf("%w: missing required section", ErrMalformedConfiguration)
	}
	if err := file.Model.Validate(); err != nil {
		return fmt.Errorf("%w: model: %v", ErrMalformedConfiguration, err)
	}
	if err := file.Dataset.Validate(); err != nil {
		return fmt.Errorf("%w: dataset: %v", ErrMalformedConfiguration, err)
	}

	savedAt := time.Now().UTC()
	if file.Timestamp != "" {
		parsed, err := time.Parse(time.RFC3339, file.Timestamp)
		if err != nil {
			return fmt.Errorf("%w: timestamp: %v", ErrMalformedConfiguration, err)
		}
		savedAt = parsed
	}

	s.Model = file.Model
	s.Training = file.Training
	s.Dataset = file.Dataset
	s.Adapter = file.Lora
	s.SavedAt = savedAt
	return nil
}

// Clone returns a deep copy, used when handing snapshots across goroutines.
func (s *SessionConfig) Clone() *SessionConfig {
	out := &SessionConfig{SavedAt: s.SavedAt}
	if s.Model != nil {
		m := *s.Model
		out.Model = &m
	}
	if s.Training != nil {
		t := *s.Training
		out.Training = &t
	}
	if s.Dataset != nil {
		d := *s.Dataset
		out.Dataset = &d
	}
	if s.Adapter != nil {
		a := *s.Adapter
		out.Adapter = &a
	}
	return out
}
