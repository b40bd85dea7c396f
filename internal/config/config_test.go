package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "cameliaBalAG.csv.gz", cfg.Sources.BalAGFile)
	assert.Equal(t, "\t", cfg.Sources.BalAGSeparator)
	assert.Equal(t, ";", cfg.Sources.EtabSeparator)
	assert.Equal(t, "bilans1", cfg.Sources.ScoreSource)
	assert.Equal(t, 2010, cfg.Sources.ScoreMinYear)
	assert.Equal(t, []string{"echeance"}, cfg.Evaluation.Features)
	assert.Equal(t, 0.8, cfg.Evaluation.TrainFraction)
}

func TestLoad(t *testing.T) {
	tests := []struct {
		name        string
		file        string
		env         map[string]string
		wantErr     bool
		validateCfg func(*testing.T, *Config)
	}{
		{
			name: "defaults when nothing is set",
			validateCfg: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "info", cfg.Logging.Level)
				assert.Equal(t, int64(500000), cfg.Cleaning.Amounts.MaximalValue)
				assert.False(t, cfg.Sources.Remote)
			},
		},
		{
			name: "file overrides defaults",
			file: "logging:\n  level: debug\ncleaning:\n  amounts:\n    maximal_value: 250000\nsources:\n  timeout: 30s\n",
			validateCfg: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "debug", cfg.Logging.Level)
				assert.Equal(t, int64(250000), cfg.Cleaning.Amounts.MaximalValue)
				assert.Equal(t, 30*time.Second, cfg.Sources.Timeout)
				// untouched keys keep their defaults
				assert.True(t, cfg.Cleaning.Amounts.Maximal)
				assert.Equal(t, int64(1000), cfg.Cleaning.Amounts.MinimalValue)
			},
		},
		{
			name: "environment overrides file",
			file: "logging:\n  level: debug\n",
			env: map[string]string{
				"BALAG_LOGGING_LEVEL":                     "warn",
				"BALAG_SOURCES_REMOTE":                    "true",
				"BALAG_CLEANING_DATES_MONTH_DIFF":         "true",
				"BALAG_EVALUATION_FEATURES":               "echeance,logMontant",
				"BALAG_CLEANING_IDS_MINIMAL_BILLS":        "true",
				"BALAG_CLEANING_IDS_MINIMAL_BILLS_NUMBER": "3",
			},
			validateCfg: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "warn", cfg.Logging.Level)
				assert.True(t, cfg.Sources.Remote)
				assert.True(t, cfg.Cleaning.Dates.MonthDiff)
				assert.Equal(t, 36, cfg.Cleaning.Dates.MonthDiffValue)
				assert.Equal(t, []string{"echeance", "logMontant"}, cfg.Evaluation.Features)
				assert.True(t, cfg.Cleaning.IDs.MinimalBills)
				assert.Equal(t, 3, cfg.Cleaning.IDs.MinimalBillsNumber)
			},
		},
		{
			name:    "invalid sampling strategy",
			env:     map[string]string{"BALAG_EVALUATION_SAMPLING": "stratified"},
			wantErr: true,
		},
		{
			name:    "invalid threshold date",
			file:    "cleaning:\n  dates:\n    minimal_date_value: 2010/01/01\n",
			wantErr: true,
		},
		{
			name:    "malformed yaml",
			file:    "logging: [",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.file != "" {
				t.Setenv("BALAG_CONFIG_FILE", writeConfigFile(t, tt.file))
			} else {
				t.Setenv("BALAG_CONFIG_FILE", "")
			}
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			cfg, err := Load()
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			tt.validateCfg(t, cfg)
		})
	}
}

func TestValidateScoreYearRange(t *testing.T) {
	cfg := Default()
	cfg.Sources.ScoreMinYear = 2014
	cfg.Sources.ScoreMaxYear = 2012
	assert.Error(t, cfg.Validate())

	cfg.Sources.ScoreMaxYear = 2015
	assert.NoError(t, cfg.Validate())
}

func TestValidateNormalizesLoggingOutput(t *testing.T) {
	cfg := Default()
	cfg.Logging.Output = "console"
	cfg.Logging.FilePath = ""
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "both", cfg.Logging.Output)
	assert.Equal(t, "logs/balag.log", cfg.Logging.FilePath)
}
