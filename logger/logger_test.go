package logger

import (
	"bytes"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestVerbosityLevels(t *testing.T) {
	tests := []struct {
		verbose int
		want    zerolog.Level
	}{
		{0, zerolog.WarnLevel},
		{1, zerolog.InfoLevel},
		{99, zerolog.InfoLevel},
		{100, zerolog.DebugLevel},
	}

	for _, tt := range tests {
		log := NewWriter(tt.verbose, &bytes.Buffer{})
		assert.Equal(t, tt.want, log.GetLevel(), "verbose=%d", tt.verbose)
	}
}

func TestSuppressedLevelsWriteNothing(t *testing.T) {
	var buf bytes.Buffer
	log := NewWriter(0, &buf)

	log.Info().Msg("building session")
	assert.Empty(t, buf.String())

	log.Warn().Msg("cache full")
	assert.NotEmpty(t, buf.String())
}
