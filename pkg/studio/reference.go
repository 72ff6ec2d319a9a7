package studio

import (
	"path/filepath"
	"strings"
)

type SourceKind string

const (
	SourceOnline   SourceKind = "online"
	SourceExisting SourceKind = "existing" // registered model artifact
	SourceLocal    SourceKind = "local"    // registered dataset path
	SourceUploaded SourceKind = "uploaded"
)

const (
	// Hard caps enforced before any upload state is recorded.
	ModelUploadCapBytes   int64 = 2 << 30   // 2 GiB
	DatasetUploadCapBytes int64 = 500 << 20 // 500 MiB
)

var modelFileExtensions = map[string]bool{
	".pt": true, ".pth": true, ".bin": true, ".onnx": true, ".safetensors": true, ".gguf": true,
}

var datasetFileExtensions = map[string]bool{
	".jsonl": true, ".json": true, ".csv": true, ".txt": true, ".parquet": true,
}

// ModelReference is a tagged union over the three ways a base model can be
// chosen: a catalog entry, a previously registered artifact, or an upload.
// Exactly one variant's fields are populated for a given Kind.
type ModelReference struct {
	Kind         SourceKind `json:"kind"`
	CatalogID    string     `json:"catalog_id,omitempty"`
	ResolvedPath string     `json:"resolved_path,omitempty"`
	FileName     string     `json:"file_name,omitempty"`
	SizeBytes    int64      `json:"size_bytes,omitempty"`
}

func NewOnlineModel(catalogID string) ModelReference {
	return ModelReference{Kind: SourceOnline, CatalogID: catalogID}
}

func NewExistingModel(catalogID, resolvedPath string) ModelReference {
	return ModelReference{Kind: SourceExisting, CatalogID: catalogID, ResolvedPath: resolvedPath}
}

func NewUploadedModel(fileName string, sizeBytes int64) (ModelReference, error) {
	if sizeBytes < 0 || sizeBytes > ModelUploadCapBytes {
		return ModelReference{}, ErrFileTooLarge
	}
	return ModelReference{Kind: SourceUploaded, FileName: fileName, SizeBytes: sizeBytes}, nil
}

// DisplayName resolves the reference to the single name the trainer sees.
func (r ModelReference) DisplayName() string {
	switch r.Kind {
	case SourceOnline:
		return r.CatalogID
	case SourceExisting:
		return r.ResolvedPath
	case SourceUploaded:
		return r.FileName
	}
	return ""
}

func (r ModelReference) Validate() error {
	switch r.Kind {
	case SourceOnline, SourceExisting:
	case SourceUploaded:
		if r.SizeBytes < 0 || r.SizeBytes > ModelUploadCapBytes {
			return ErrFileTooLarge
		}
	default:
		return ErrMalformedConfiguration
	}
	if r.DisplayName() == "" {
		return ErrInvalidReference
	}
	return nil
}

// DatasetReference mirrors ModelReference with the dataset variants and cap.
type DatasetReference struct {
	Kind         SourceKind `json:"kind"`
	CatalogID    string     `json:"catalog_id,omitempty"`
	ResolvedPath string     `json:"resolved_path,omitempty"`
	FileName     string     `json:"file_name,omitempty"`
	SizeBytes    int64      `json:"size_bytes,omitempty"`
}

func NewOnlineDataset(catalogID string) DatasetReference {
	return DatasetReference{Kind: SourceOnline, CatalogID: catalogID}
}

func NewLocalDataset(catalogID, resolvedPath string) DatasetReference {
	return DatasetReference{Kind: SourceLocal, CatalogID: catalogID, ResolvedPath: resolvedPath}
}

func NewUploadedDataset(fileName string, sizeBytes int64) (DatasetReference, error) {
	if sizeBytes < 0 || sizeBytes > DatasetUploadCapBytes {
		return DatasetReference{}, ErrFileTooLarge
	}
	return DatasetReference{Kind: SourceUploaded, FileName: fileName, SizeBytes: sizeBytes}, nil
}

func (r DatasetReference) DisplayName() string {
	switch r.Kind {
	case SourceOnline:
		return r.CatalogID
	case SourceLocal:
		return r.ResolvedPath
	case SourceUploaded:
		return r.FileName
	}
	return ""
}

func (r DatasetReference) Validate() error {
	switch r.Kind {
	case SourceOnline, SourceLocal:
	case SourceUploaded:
		if r.SizeBytes < 0 || r.SizeBytes > DatasetUploadCapBytes {
			return ErrFileTooLarge
		}
	default:
		return ErrMalformedConfiguration
	}
	if r.DisplayName() == "" {
		return ErrInvalidReference
	}
	return nil
}

func allowedModelFile(fileName string) bool {
	return modelFileExtensions[strings.ToLower(filepath.Ext(fileName))]
}

func allowedDatasetFile(fileName string) bool {
	return datasetFileExtensions[strings.ToLower(filepath.Ext(fileName))]
}
