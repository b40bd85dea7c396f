// Package config provides centralized configuration management for the BalAG
// pipeline. It handles loading configuration from multiple sources, validation,
// and the directory layout shared by every binary.
//
// # Configuration Sources
//
// Configuration is loaded from the following sources in order of precedence:
//
//	1. Environment variables (highest priority)
//	2. YAML configuration file (config.yaml, configs/config.yaml or BALAG_CONFIG_FILE)
//	3. Default values (lowest priority)
//
// # Environment Variables
//
// All environment variables follow the pattern BALAG_<SECTION>_<FIELD>:
//
//	BALAG_LOGGING_LEVEL=debug
//	BALAG_SOURCES_REMOTE=true
//	BALAG_CLEANING_AMOUNTS_MAXIMAL_VALUE=250000
//	BALAG_EVALUATION_FEATURES=echeance,logMontant
//
// # Cleaning Rules
//
// CleaningConfig carries every rule of the record validator as an enable flag
// plus a threshold. DefaultCleaning returns the historical rule set and
// Describe prints the active rules, or only those that were changed.
//
// # Path Management
//
// Paths lays out the data, analysis and log directories relative to the
// executable, or to paths.root_dir when it is configured:
//
//	paths, _ := config.ResolvePaths(cfg.Paths)
//	run, _ := paths.NextAnalysisDir(time.Now())
package config
