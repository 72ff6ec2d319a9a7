package studio

import (
	"fmt"
	"strings"
)

// AdapterConfig holds the LoRA adapter knobs. TargetModules and
// AdditionalModules stay raw comma-separated text while the form is being
// edited; tokenization into a submittable list happens only in ModuleList.
type AdapterConfig struct {
	Rank              int     `json:"rank"`
	Alpha             int     `json:"alpha"`
	Dropout           float64 `json:"dropout"`
	LearningRateScale float64 `json:"learning_rate_scale"`
	CreateNewAdapter  bool    `json:"create_new_adapter"`
	EnableRSLoRA      bool    `json:"enable_rs_lora"`
	EnableDoRA        bool    `json:"enable_dora"`
	EnablePiSSA       bool    `json:"enable_pissa"`
	TargetModules     string  `json:"target_modules"`
	AdditionalModules string  `json:"additional_modules"`
}

func DefaultAdapterConfig() AdapterConfig {
	return AdapterConfig{
		Rank:              8,
		Alpha:             16,
		Dropout:           0,
		LearningRateScale: 0,
		TargetModules:     "q_proj,v_proj",
	}
}

// SetField mirrors TrainingConfig.SetField: full replacement snapshot per write.
func (c AdapterConfig) SetField(name string, value interface{}) (AdapterConfig, error) {
	switch name {
	case "rank":
		c.Rank = asInt(value)
	case "alpha":
		c.Alpha = asInt(value)
	case "dropout":
		c.Dropout = asFloat(value)
	case "learning_rate_scale":
		c.LearningRateScale = asFloat(value)
	case "create_new_adapter":
		c.CreateNewAdapter = asBool(value)
	case "enable_rs_lora":
		c.EnableRSLoRA = asBool(value)
	case "enable_dora":
		c.EnableDoRA = asBool(value)
	case "enable_pissa":
		c.EnablePiSSA = asBool(value)
	case "target_modules":
		c.TargetModules = asString(value)
	case "additional_modules":
		c.AdditionalModules = asString(value)
	default:
		return c, fmt.Errorf("%w: %q", ErrUnknownField, name)
	}
	return c, nil
}

// ModuleList tokenizes the target and additional module text into the list
// submitted to the trainer: split on commas, trim, drop empties.
func (c AdapterConfig) ModuleList() []string {
	modules := splitModules(c.TargetModules)
	return append(modules, splitModules(c.AdditionalModules)...)
}

func splitModules(raw string) []string {
	parts := strings.Split(raw, ",")
	tokens := make([]string, 0, len(parts))
	for _, part := range parts {
		if token := strings.TrimSpace(part); token != "" {
			tokens = append(tokens, token)
		}
	}
	return tokens
}
