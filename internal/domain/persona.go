package domain

// Persona bundles the instruction text, model and sampling parameters a
// deployment uses, plus the user-facing texts shown on failure.
type Persona struct {
	Name                string   `json:"name" mapstructure:"name" validate:"required"`
	DisplayName         string   `json:"display_name" mapstructure:"display_name"`
	SystemInstruction   string   `json:"-" mapstructure:"system_instruction" validate:"required"`
	Provider            string   `json:"provider,omitempty" mapstructure:"provider"`
	Model               string   `json:"model" mapstructure:"model"`
	Temperature         float64  `json:"temperature" mapstructure:"temperature" validate:"gte=0,lte=2"`
	TopP                float64  `json:"top_p" mapstructure:"top_p" validate:"gte=0,lte=1"`
	TopK                int      `json:"top_k" mapstructure:"top_k" validate:"gte=0"`
	MaxOutputTokens     int      `json:"max_output_tokens,omitempty" mapstructure:"max_output_tokens" validate:"gte=0"`
	InterruptionMessage string   `json:"-" mapstructure:"interruption_message" validate:"required"`
	QuotaMessage        string   `json:"-" mapstructure:"quota_message" validate:"required"`
	SuggestedPrompts    []string `json:"suggested_prompts" mapstructure:"suggested_prompts"`
}

// FallbackText returns the assistant text written when a turn fails
func (p Persona) FallbackText(kind FailureKind) string {
	if kind == FailureQuota {
		return p.QuotaMessage
	}
	return p.InterruptionMessage
}
