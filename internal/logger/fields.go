package logger

import (
	"strings"

	"go.uber.org/zap"
)

// Structured field keys shared across packages so log entries stay
// joinable.
const (
	// FieldProvider names the AI backend serving the call.
	FieldProvider = "ai_provider"
	// FieldModel names the model identifier.
	FieldModel = "ai_model"
	// FieldAgent names the agent issuing the call.
	FieldAgent = "agent"
)

// StringField is one string-valued structured logging field.
type StringField struct {
	Key   string
	Value string
}

// StringFields converts the pairs into zap fields. Keys and values are
// trimmed; pairs with a blank key or value are skipped so absent
// information never produces empty fields.
func StringFields(fields ...StringField) []zap.Field {
	result := make([]zap.Field, 0, len(fields))
	for _, field := range fields {
		key := strings.TrimSpace(field.Key)
		value := strings.TrimSpace(field.Value)
		if key == "" || value == "" {
			continue
		}
		result = append(result, zap.String(key, value))
	}
	return result
}

// WithFields attaches the fields to the logger. A nil logger falls back
// to a no-op one, so the result is always safe to log through.
func WithFields(logger *zap.Logger, fields ...zap.Field) *zap.Logger {
	if logger == nil {
		logger = zap.NewNop()
	}
	if len(fields) == 0 {
		return logger
	}
	return logger.With(fields...)
}

// CommonFields builds the provider and model fields, skipping blanks.
func CommonFields(provider, model string) []zap.Field {
	return StringFields(
		StringField{Key: FieldProvider, Value: provider},
		StringField{Key: FieldModel, Value: model},
	)
}

// WithCommonFields attaches the provider and model fields to the logger.
func WithCommonFields(logger *zap.Logger, provider, model string) *zap.Logger {
	return WithFields(logger, CommonFields(provider, model)...)
}
