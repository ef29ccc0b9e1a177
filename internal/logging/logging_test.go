package logging

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLogFilePath(t *testing.T) {
	tests := []struct {
		name    string
		logsDir string
		day     time.Time
		want    string
	}{
		{
			name:    "morning",
			logsDir: "logs",
			day:     time.Date(2024, 5, 1, 6, 30, 0, 0, time.UTC),
			want:    filepath.Join("logs", "paperload.1-MAY-24.log"),
		},
		{
			name:    "same day later run",
			logsDir: "./logs",
			day:     time.Date(2024, 5, 1, 23, 59, 0, 0, time.UTC),
			want:    filepath.Join(".", "logs", "paperload.1-MAY-24.log"),
		},
		{
			name:    "two digit day",
			logsDir: filepath.Join("/var", "log", "paperload"),
			day:     time.Date(2024, 12, 17, 9, 0, 0, 0, time.UTC),
			want:    filepath.Join("/var", "log", "paperload", "paperload.17-DEC-24.log"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, LogFilePath(tt.logsDir, "paperload", tt.day))
		})
	}
}
