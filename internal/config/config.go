package config

import (
	"os"
	"strconv"

	"abanalyzer/internal/errors"
)

// Config represents the complete application configuration
type Config struct {
	Analysis  AnalysisConfig
	Warehouse WarehouseConfig
	S3        S3Config
	Paths     PathConfig
}

// AnalysisConfig holds the statistical analysis settings
type AnalysisConfig struct {
	Confidence        float64
	CategoryColumn    string
	PrintSignificance bool
	MissingFill       float64
}

// WarehouseConfig holds Redshift connection and COPY settings
type WarehouseConfig struct {
	URL        string
	Schema     string
	AccountID  string
	Role       string
	S3Location string
	Delimiter  string
	DDLDir     string
}

// S3Config holds object storage settings for load verification and
// prefix discovery
type S3Config struct {
	Region    string
	Bucket    string
	Endpoint  string
	PathStyle bool
}

// PathConfig holds file system paths
type PathConfig struct {
	OutputDir string
}

// LoadAnalysis reads the analysis configuration from environment variables
func LoadAnalysis() (*AnalysisConfig, error) {
	cfg := &AnalysisConfig{
		Confidence:        getEnvFloatOrDefault("AB_CONFIDENCE", 0.95),
		CategoryColumn:    getEnvOrDefault("AB_CATEGORY_COLUMN", "category"),
		PrintSignificance: getEnvBoolOrDefault("AB_PRINT_SIGNIFICANCE", true),
		MissingFill:       getEnvFloatOrDefault("AB_MISSING_FILL", 0),
	}
	if cfg.Confidence <= 0 || cfg.Confidence >= 1 {
		return nil, errors.ConfigInvalid("AB_CONFIDENCE must be strictly between 0 and 1")
	}
	if cfg.CategoryColumn == "" {
		return nil, errors.ConfigInvalid("AB_CATEGORY_COLUMN cannot be empty")
	}
	return cfg, nil
}

// LoadWarehouse reads the warehouse configuration from environment variables
func LoadWarehouse() (*WarehouseConfig, error) {
	url := os.Getenv("WAREHOUSE_URL")
	if url == "" {
		return nil, errors.ConfigInvalid("WAREHOUSE_URL is required")
	}
	return &WarehouseConfig{
		URL:        url,
		Schema:     getEnvOrDefault("WAREHOUSE_SCHEMA", "public"),
		AccountID:  os.Getenv("AWS_ACCOUNT_ID"),
		Role:       os.Getenv("AWS_IAM_ROLE"),
		S3Location: os.Getenv("S3_LOCATION"),
		Delimiter:  getEnvOrDefault("COPY_DELIMITER", "|"),
		DDLDir:     getEnvOrDefault("DDL_DIR", "."),
	}, nil
}

// LoadS3 reads the object storage configuration from environment variables
func LoadS3() (*S3Config, error) {
	bucket := os.Getenv("S3_BUCKET")
	if bucket == "" {
		return nil, errors.ConfigInvalid("S3_BUCKET is required")
	}
	return &S3Config{
		Region:    getEnvOrDefault("S3_REGION", "us-east-1"),
		Bucket:    bucket,
		Endpoint:  os.Getenv("S3_ENDPOINT"),
		PathStyle: getEnvBoolOrDefault("S3_PATH_STYLE", false),
	}, nil
}

// LoadPaths reads the file system path configuration
func LoadPaths() *PathConfig {
	return &PathConfig{
		OutputDir: getEnvOrDefault("OUTPUT_DIR", "."),
	}
}

// Helper functions for environment variable handling
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvFloatOrDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseFloat(value, 64); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvBoolOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}
