package studio

import "fmt"

// Enum values mirror what the trainer accepts. The editor does not validate
// numeric ranges; bounded input widgets clamp before the value reaches us.
const (
	MethodLoRA  = "lora"
	MethodQLoRA = "qlora"
	MethodPEFT  = "peft"

	StageSFT = "sft"
	StageRM  = "rm"
	StagePPO = "ppo"

	QuantNone = "none"
	Quant4Bit = "4bit"
	Quant8Bit = "8bit"
)

// TrainingConfig is the flat hyperparameter record edited by the training
// form. Every SetField call returns a full replacement snapshot.
type TrainingConfig struct {
	Method               string  `json:"method"`
	TrainingStage        string  `json:"training_stage"`
	CheckpointPath       string  `json:"checkpoint_path"`
	QuantizationLevel    string  `json:"quantization_level"`
	QuantizationMethod   string  `json:"quantization_method"`
	PromptTemplate       string  `json:"prompt_template"`
	RopeMethod           string  `json:"rope_method"`
	AccelerationMethod   string  `json:"acceleration_method"`
	LearningRate         float64 `json:"learning_rate"`
	Epochs               float64 `json:"epochs"`
	MaxGradNorm          float64 `json:"max_grad_norm"`
	MaxSamples           int     `json:"max_samples"`
	ComputeType          string  `json:"compute_type"`
	TruncationLength     int     `json:"truncation_length"`
	BatchSize            int     `json:"batch_size"`
	GradientAccumulation int     `json:"gradient_accumulation"`
	ValidationSplit      float64 `json:"validation_split"`
	LRScheduler          string  `json:"lr_scheduler"`
}

func DefaultTrainingConfig() TrainingConfig {
	return TrainingConfig{
		Method:               MethodLoRA,
		TrainingStage:        StageSFT,
		CheckpointPath:       "saves/checkpoint",
		QuantizationLevel:    QuantNone,
		QuantizationMethod:   "bitsandbytes",
		PromptTemplate:       "default",
		RopeMethod:           "none",
		AccelerationMethod:   "auto",
		LearningRate:         5e-5,
		Epochs:               3,
		MaxGradNorm:          1.0,
		MaxSamples:           100000,
		ComputeType:          "bf16",
		TruncationLength:     1024,
		BatchSize:            2,
		GradientAccumulation: 8,
		ValidationSplit:      0,
		LRScheduler:          "cosine",
	}
}

// SetField returns a copy of the config with a single field replaced. The
// previous snapshot is never mutated. Quantization method is recorded even
// while the quantization level is "none".
func (c TrainingConfig) SetField(name string, value interface{}) (TrainingConfig, error) {
	switch name {
	case "method":
		c.Method = asString(value)
	case "training_stage":
		c.TrainingStage = asString(value)
	case "checkpoint_path":
		c.CheckpointPath = asString(value)
	case "quantization_level":
		c.QuantizationLevel = asString(value)
	case "quantization_method":
		c.QuantizationMethod = asString(value)
	case "prompt_template":
		c.PromptTemplate = asString(value)
	case "rope_method":
		c.RopeMethod = asString(value)
	case "acceleration_method":
		c.AccelerationMethod = asString(value)
	case "learning_rate":
		c.LearningRate = asFloat(value)
	case "epochs":
		c.Epochs = asFloat(value)
	case "max_grad_norm":
		c.MaxGradNorm = asFloat(value)
	case "max_samples":
		c.MaxSamples = asInt(value)
	case "compute_type":
		c.ComputeType = asString(value)
	case "truncation_length":
		c.TruncationLength = asInt(value)
	case "batch_size":
		c.BatchSize = asInt(value)
	case "gradient_accumulation":
		c.GradientAccumulation = asInt(value)
	case "validation_split":
		c.ValidationSplit = asFloat(value)
	case "lr_scheduler":
		c.LRScheduler = asString(value)
	default:
		return c, fmt.Errorf("%w: %q", ErrUnknownField, name)
	}
	return c, nil
}

// QuantizationBits derives the wire value from the quantization level.
// Zero means quantization is off and the field is omitted from the payload.
func (c TrainingConfig) QuantizationBits() int {
	switch c.QuantizationLevel {
	case Quant4Bit:
		return 4
	case Quant8Bit:
		return 8
	}
	return 0
}

func asString(v interface{}) string {
	s, _ := v.(string)
	return s
}

func asFloat(v interface{}) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case float32:
		return float64(n)
	case int:
		return float64(n)
	case int64:
		return float64(n)
	}
	return 0
}

func asInt(v interface{}) int {
	switch n := v.(type) {
	case int:
		return n
	case int64:
		return int(n)
	case float64:
		return int(n)
	}
	return 0
}

func asBool(v interface{}) bool {
	b, _ := v.(bool)
	return b
}
