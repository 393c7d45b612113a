package main

import (
	"fmt"
	"net/url"
	"os"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/spf13/cobra"

	"abanalyzer/adapters/redshift"
	"abanalyzer/adapters/s3"
	"abanalyzer/app"
	"abanalyzer/internal"
	"abanalyzer/internal/config"
	apperrors "abanalyzer/internal/errors"
)

func main() {
	_ = godotenv.Load()

	rootCmd := &cobra.Command{
		Use:   "s3load",
		Short: "Moves flat files from S3 into Redshift tables",
	}
	rootCmd.AddCommand(newCopyCmd(), newCreateCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", apperrors.GetCode(err), err)
		os.Exit(1)
	}
}

func newCopyCmd() *cobra.Command {
	var (
		tableName  string
		files      []string
		prefix     string
		dateFormat string
		verify     bool
	)
	cmd := &cobra.Command{
		Use:   "copy",
		Short: "COPY one or more S3 files onto a Redshift table",
		Long: `Appends gzip-compressed, delimited S3 files onto an existing table.
Files either come from repeated --file flags or are discovered under
--prefix. Table columns are assumed static; Redshift rejects mismatches.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if tableName == "" {
				return fmt.Errorf("--table is required")
			}
			if len(files) == 0 && prefix == "" {
				return fmt.Errorf("either --file or --prefix is required")
			}

			warehouse, err := config.LoadWarehouse()
			if err != nil {
				return err
			}
			loader, err := connectLoader(warehouse)
			if err != nil {
				return err
			}
			defer loader.Close()

			service, err := buildLoadService(cmd, loader, warehouse, verify || prefix != "")
			if err != nil {
				return err
			}

			var loaded int
			if prefix != "" {
				loaded, err = service.LoadPrefix(cmd.Context(), tableName, prefix, dateFormat)
			} else {
				loaded, err = service.LoadFiles(cmd.Context(), tableName, files, dateFormat)
			}
			if err != nil {
				return err
			}
			internal.DefaultLogger.Info("loaded %d files into %s.%s", loaded, warehouse.Schema, tableName)
			return nil
		},
	}
	cmd.Flags().StringVar(&tableName, "table", "", "name of the table to fill")
	cmd.Flags().StringArrayVar(&files, "file", nil, "file name to copy, relative to S3_LOCATION (repeatable)")
	cmd.Flags().StringVar(&prefix, "prefix", "", "load every object found under this prefix instead of named files")
	cmd.Flags().StringVar(&dateFormat, "timeformat", "", "TIMEFORMAT clause for nonstandard timestamp text")
	cmd.Flags().BoolVar(&verify, "verify", true, "head each object in S3 before the first COPY")
	return cmd
}

func newCreateCmd() *cobra.Command {
	var tableName string
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a table from its DDL file if it does not exist",
		RunE: func(cmd *cobra.Command, args []string) error {
			if tableName == "" {
				return fmt.Errorf("--table is required")
			}
			warehouse, err := config.LoadWarehouse()
			if err != nil {
				return err
			}
			loader, err := connectLoader(warehouse)
			if err != nil {
				return err
			}
			defer loader.Close()
			return loader.CreateTable(cmd.Context(), tableName, warehouse.DDLDir)
		},
	}
	cmd.Flags().StringVar(&tableName, "table", "", "name of the table to create")
	return cmd
}

func connectLoader(warehouse *config.WarehouseConfig) (*redshift.Loader, error) {
	db, err := sqlx.Connect("postgres", warehouse.URL)
	if err != nil {
		return nil, apperrors.DatabaseError(fmt.Sprintf("failed to connect to Redshift: %v", err))
	}
	return redshift.NewLoader(db, redshift.Config{
		Schema:     warehouse.Schema,
		AccountID:  warehouse.AccountID,
		Role:       warehouse.Role,
		S3Location: warehouse.S3Location,
		Delimiter:  warehouse.Delimiter,
	}), nil
}

func buildLoadService(cmd *cobra.Command, loader *redshift.Loader, warehouse *config.WarehouseConfig, needS3 bool) (*app.LoadService, error) {
	if !needS3 {
		return app.NewLoadService(loader, nil, ""), nil
	}

	bucket, keyPrefix, err := splitS3Location(warehouse.S3Location)
	if err != nil {
		return nil, err
	}
	if os.Getenv("S3_BUCKET") == "" {
		os.Setenv("S3_BUCKET", bucket)
	}
	s3cfg, err := config.LoadS3()
	if err != nil {
		return nil, err
	}
	objects, err := s3.New(cmd.Context(), s3cfg)
	if err != nil {
		return nil, err
	}
	return app.NewLoadService(loader, objects, keyPrefix), nil
}

// splitS3Location breaks "s3://bucket/path/" into the bucket and the
// bucket-relative key prefix.
func splitS3Location(location string) (bucket, keyPrefix string, err error) {
	u, err := url.Parse(location)
	if err != nil || u.Scheme != "s3" || u.Host == "" {
		return "", "", fmt.Errorf("S3_LOCATION must look like s3://bucket/path/, got %q", location)
	}
	return u.Host, strings.TrimPrefix(u.Path, "/"), nil
}
