package studio

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

var ErrConfigurationNotFound = errors.New("saved configuration not found")

// SavedConfigurationModel persists a named aggregate in the same
// model/training/dataset/lora shape the export file uses.
type SavedConfigurationModel struct {
	ID          uuid.UUID         `gorm:"type:uuid;primaryKey;column:id" json:"id"`
	UserID      string            `gorm:"column:user_id;index" json:"user_id,omitempty"`
	Name        string            `gorm:"column:name" json:"name"`
	Description string            `gorm:"column:description" json:"description,omitempty"`
	Model       datatypes.JSONMap `gorm:"column:model" json:"model"`
	Training    datatypes.JSONMap `gorm:"column:training" json:"training"`
	Dataset     datatypes.JSONMap `gorm:"column:dataset" json:"dataset"`
	Lora        datatypes.JSONMap `gorm:"column:lora" json:"lora"`
	SavedAt     time.Time         `gorm:"column:saved_at" json:"saved_at"`
	CreatedAt   time.Time         `gorm:"column:created_at" json:"created_at"`
	UpdatedAt   time.Time         `gorm:"column:updated_at" json:"updated_at"`
}

func (SavedConfigurationModel) TableName() string {
	return "saved_configurations"
}

// FileBytes rebuilds the export-file document so a saved row can be loaded
// through the same import path as an uploaded file.
func (m *SavedConfigurationModel) FileBytes() ([]byte, error) {
	return json.Marshal(map[string]interface{}{
		"model":     map[string]interface{}(m.Model),
		"training":  map[string]interface{}(m.Training),
		"dataset":   map[string]interface{}(m.Dataset),
		"lora":      map[string]interface{}(m.Lora),
		"timestamp": m.SavedAt.UTC().Format(time.RFC3339),
	})
}

type SubmissionModel struct {
	ID        uuid.UUID         `gorm:"type:uuid;primaryKey;column:id" json:"id"`
	SessionID uuid.UUID         `gorm:"type:uuid;column:session_id;index" json:"session_id"`
	UserID    string            `gorm:"column:user_id" json:"user_id,omitempty"`
	Payload   datatypes.JSONMap `gorm:"column:payload" json:"payload"`
	Status    string            `gorm:"column:status" json:"status"`
	Message   string            `gorm:"column:message" json:"message"`
	CreatedAt time.Time         `gorm:"column:created_at" json:"created_at"`
}

func (SubmissionModel) TableName() string {
	return "finetune_submissions"
}

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) AutoMigrate() error {
	return r.db.AutoMigrate(&SavedConfigurationModel{}, &SubmissionModel{})
}

func (r *Repository) CreateSavedConfiguration(ctx context.Context, userID, name, description string, config *SessionConfig) (*SavedConfigurationModel, error) {
	model, err := toJSONMap(config.Model)
	if err != nil {
		return nil, err
	}
	training, err := toJSONMap(config.Training)
	if err != nil {
		return nil, err
	}
	dataset, err := toJSONMap(config.Dataset)
	if err != nil {
		return nil, err
	}
	lora, err := toJSONMap(config.Adapter)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	row := &SavedConfigurationModel{
		ID:          uuid.New(),
		UserID:      userID,
		Name:        name,
		Description: description,
		Model:       model,
		Training:    training,
		Dataset:     dataset,
		Lora:        lora,
		SavedAt:     now,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := r.db.WithContext(ctx).Create(row).Error; err != nil {
		return nil, err
	}
	return row, nil
}

func (r *Repository) GetSavedConfiguration(ctx context.Context, id uuid.UUID) (*SavedConfigurationModel, error) {
	var row SavedConfigurationModel
	result := r.db.WithContext(ctx).First(&row, "id = ?", id)
	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return nil, ErrConfigurationNotFound
	}
	return &row, result.Error
}

func (r *Repository) ListSavedConfigurations(ctx context.Context, userID string, limit int) ([]SavedConfigurationModel, error) {
	if limit <= 0 {
		limit = 50
	}
	query := r.db.WithContext(ctx).Order("created_at desc").Limit(limit)
	if userID != "" {
		query = query.Where("user_id = ?", userID)
	}
	var rows []SavedConfigurationModel
	result := query.Find(&rows)
	return rows, result.Error
}

func (r *Repository) DeleteSavedConfiguration(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&SavedConfigurationModel{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrConfigurationNotFound
	}
	return nil
}

func (r *Repository) CreateSubmission(ctx context.Context, sessionID uuid.UUID, userID string, payload SubmissionPayload, status, message string) error {
	payloadMap, err := toJSONMap(payload)
	if err != nil {
		return err
	}
	row := &SubmissionModel{
		ID:        uuid.New(),
		SessionID: sessionID,
		UserID:    userID,
		Payload:   payloadMap,
		Status:    status,
		Message:   message,
		CreatedAt: time.Now().UTC(),
	}
	return r.db.WithContext(ctx).Create(row).Error
}

func (r *Repository) ListSubmissions(ctx context.Context, sessionID uuid.UUID, limit int) ([]SubmissionModel, error) {
	if limit <= 0 {
		limit = 50
	}
	var rows []SubmissionModel
	result := r.db.WithContext(ctx).Where("session_id = ?", sessionID).Order("created_at desc").Limit(limit).Find(&rows)
	return rows, result.Error
}

func toJSONMap(v interface{}) (datatypes.JSONMap, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var out map[string]interface{}
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return datatypes.JSONMap(out), nil
}
