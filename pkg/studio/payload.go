package studio

// Fixed optimizer parameters the dashboard never exposes.
const (
	fixedWeightDecay   = 0.01
	fixedScalingFactor = 1.0
)

func fixedBetas() []float64 { return []float64{0.9, 0.999} }

// SubmissionPayload is the flat wire record posted to the fine-tuning
// service. Field names match the trainer's schema, including the
// "learing_rate_ratio" key it has always used.
type SubmissionPayload struct {
	ModelName             string    `json:"model_name"`
	DatasetName           string    `json:"dataset_name"`
	FinetuneMethod        string    `json:"finetune_method"`
	TrainingPhase         string    `json:"training_phase"`
	CheckpointPath        string    `json:"checkpoint_path"`
	QuantizationMethod    string    `json:"quantization_method"`
	QuantizationBits      int       `json:"quantization_bits,omitempty"`
	PromptTemplate        string    `json:"prompt_template"`
	AcceleratorType       string    `json:"accelerator_type"`
	RopeInterpolationType string    `json:"rope_interpolation_type"`
	LearningRate          float64   `json:"learning_rate"`
	WeightDecay           float64   `json:"weight_decay"`
	Betas                 []float64 `json:"betas"`
	ComputeDtype          string    `json:"compute_dtype"`
	NumEpochs             float64   `json:"num_epochs"`
	BatchSize             int       `json:"batch_size"`
	LoraAlpha             int       `json:"lora_alpha"`
	LoraR                 int       `json:"lora_r"`
	ScalingFactor         float64   `json:"scaling_factor"`
	LearingRateRatio      float64   `json:"learing_rate_ratio"`
	LoraDropout           float64   `json:"lora_dropout"`
	IsCreateNewAdapter    bool      `json:"is_create_new_adapter"`
	IsRLSLora             bool      `json:"is_rls_lora"`
	IsDoLora              bool      `json:"is_do_lora"`
	IsPiSSA               bool      `json:"is_pissa"`
	LoraTargetModules     []string  `json:"lora_target_modules"`
}
