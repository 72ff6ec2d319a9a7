package catalog

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

var ErrNotRegistered = errors.New("artifact not registered")

// RegisteredModel is a previously uploaded or mounted model artifact that the
// "existing" selection variant resolves against.
type RegisteredModel struct {
	ID        uuid.UUID         `gorm:"type:uuid;primaryKey;column:id"`
	CatalogID string            `gorm:"column:catalog_id;uniqueIndex"`
	Path      string            `gorm:"column:path"`
	SizeBytes int64             `gorm:"column:size_bytes"`
	Metadata  datatypes.JSONMap `gorm:"column:metadata"`
	CreatedAt time.Time         `gorm:"column:created_at"`
}

func (RegisteredModel) TableName() string {
	return "registered_models"
}

// RegisteredDataset backs the "local" dataset selection variant.
type RegisteredDataset struct {
	ID        uuid.UUID         `gorm:"type:uuid;primaryKey;column:id"`
	CatalogID string            `gorm:"column:catalog_id;uniqueIndex"`
	Path      string            `gorm:"column:path"`
	SizeBytes int64             `gorm:"column:size_bytes"`
	Metadata  datatypes.JSONMap `gorm:"column:metadata"`
	CreatedAt time.Time         `gorm:"column:created_at"`
}

func (RegisteredDataset) TableName() string {
	return "registered_datasets"
}

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) AutoMigrate() error {
	return r.db.AutoMigrate(&RegisteredModel{}, &RegisteredDataset{})
}

func (r *Repository) RegisterModel(ctx context.Context, catalogID, path string, sizeBytes int64) (*RegisteredModel, error) {
	model := &RegisteredModel{
		ID:        uuid.New(),
		CatalogID: catalogID,
		Path:      path,
		SizeBytes: sizeBytes,
		CreatedAt: time.Now().UTC(),
	}
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return nil, err
	}
	return model, nil
}

func (r *Repository) RegisterDataset(ctx context.Context, catalogID, path string, sizeBytes int64) (*RegisteredDataset, error) {
	dataset := &RegisteredDataset{
		ID:        uuid.New(),
		CatalogID: catalogID,
		Path:      path,
		SizeBytes: sizeBytes,
		CreatedAt: time.Now().UTC(),
	}
	if err := r.db.WithContext(ctx).Create(dataset).Error; err != nil {
		return nil, err
	}
	return dataset, nil
}

func (r *Repository) ModelPath(ctx context.Context, catalogID string) (string, error) {
	var model RegisteredModel
	result := r.db.WithContext(ctx).First(&model, "catalog_id = ?", catalogID)
	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return "", ErrNotRegistered
	}
	return model.Path, result.Error
}

func (r *Repository) DatasetPath(ctx context.Context, catalogID string) (string, error) {
	var dataset RegisteredDataset
	result := r.db.WithContext(ctx).First(&dataset, "catalog_id = ?", catalogID)
	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return "", ErrNotRegistered
	}
	return dataset.Path, result.Error
}

func (r *Repository) ListModels(ctx context.Context, limit int) ([]RegisteredModel, error) {
	if limit <= 0 {
		limit = 50
	}
	var models []RegisteredModel
	result := r.db.WithContext(ctx).Order("created_at desc").Limit(limit).Find(&models)
	return models, result.Error
}

func (r *Repository) ListDatasets(ctx context.Context, limit int) ([]RegisteredDataset, error) {
	if limit <= 0 {
		limit = 50
	}
	var datasets []RegisteredDataset
	result := r.db.WithContext(ctx).Order("created_at desc").Limit(limit).Find(&datasets)
	return datasets, result.Error
}
