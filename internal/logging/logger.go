// Package logging provides zap logger helpers.
package logging

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/JakeFAU/gazette-archiver/internal/gazette"
)

// New builds a zap.Logger configured for development or production.
func New(development bool) (*zap.Logger, error) {
	if development {
		cfg := zap.NewDevelopmentConfig()
		cfg.EncoderConfig.TimeKey = "ts"
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		logger, err := cfg.Build()
		if err != nil {
			return nil, fmt.Errorf("build dev logger: %w", err)
		}
		return logger, nil
	}
	cfg := zap.NewProductionConfig()
	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	logger, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("build prod logger: %w", err)
	}
	return logger, nil
}

// DocumentFields returns the fields that identify a scraped document in every log line.
func DocumentFields(doc gazette.ScrapedDocument) []zap.Field {
	return []zap.Field{
		zap.Int64("document_id", doc.ID),
		zap.String("original_uri", doc.OriginalURI),
		zap.String("label", doc.Label),
		zap.String("referrer", doc.Referrer),
	}
}

// ErrorFields tags err with its failure kind.
func ErrorFields(err error) []zap.Field {
	return []zap.Field{
		zap.String("error_kind", string(gazette.KindOf(err))),
		zap.Error(err),
	}
}
