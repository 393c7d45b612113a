package redshift

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/jmoiron/sqlx"

	"abanalyzer/internal"
	"abanalyzer/internal/errors"
)

// Config carries the COPY settings shared by every load against one cluster.
type Config struct {
	Schema     string
	AccountID  string
	Role       string
	S3Location string
	Delimiter  string
}

// Loader appends S3 flat files onto Redshift tables with COPY, and can
// create a missing table from a local DDL file. Redshift speaks the postgres
// wire protocol, so the connection is plain sqlx/pq.
type Loader struct {
	db  *sqlx.DB
	cfg Config
	log *internal.Logger
}

// NewLoader creates a loader over an open warehouse connection.
func NewLoader(db *sqlx.DB, cfg Config) *Loader {
	if cfg.Delimiter == "" {
		cfg.Delimiter = "|"
	}
	return &Loader{db: db, cfg: cfg, log: internal.DefaultLogger}
}

// copyStatement builds the COPY command for one file. Files are expected to
// be gzip-compressed, quoted, and delimited; credentials come from the
// cluster's attached IAM role. dateFormat, when non-empty, becomes a
// TIMEFORMAT clause for tables with nonstandard timestamp text.
func (l *Loader) copyStatement(tableName, fileName, dateFormat string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "COPY %s.%s FROM '%s%s'\n", l.cfg.Schema, tableName, l.cfg.S3Location, fileName)
	fmt.Fprintf(&b, "CREDENTIALS 'aws_iam_role=arn:aws:iam::%s:role/%s'\n", l.cfg.AccountID, l.cfg.Role)
	if dateFormat != "" {
		fmt.Fprintf(&b, "TIMEFORMAT AS '%s'\n", dateFormat)
	}
	fmt.Fprintf(&b, "DELIMITER '%s' ESCAPE\n", l.cfg.Delimiter)
	b.WriteString("GZIP NULL AS 'NULL'\n")
	b.WriteString("TRUNCATECOLUMNS;")
	return b.String()
}

// TableExists checks the information schema for the table within the
// configured schema.
func (l *Loader) TableExists(ctx context.Context, tableName string) (bool, error) {
	const query = `
		SELECT COUNT(*)
		FROM information_schema.tables
		WHERE table_schema = $1 AND table_name = $2`

	var count int
	if err := l.db.GetContext(ctx, &count, query, l.cfg.Schema, tableName); err != nil {
		return false, errors.Wrapf(err, "existence check for %s failed", tableName)
	}
	return count > 0, nil
}

// CreateTable creates the table from its DDL file if it does not already
// exist. The DDL file is expected at <ddlDir>/<schema>_<table>.sql.
func (l *Loader) CreateTable(ctx context.Context, tableName, ddlDir string) error {
	exists, err := l.TableExists(ctx, tableName)
	if err != nil {
		return err
	}
	if exists {
		l.log.Info("%s already exists", tableName)
		return nil
	}
	l.log.Info("%s does not exist yet", tableName)

	ddlPath := filepath.Join(ddlDir, fmt.Sprintf("%s_%s.sql", l.cfg.Schema, tableName))
	ddl, err := os.ReadFile(ddlPath)
	if err != nil {
		return errors.Wrapf(err, "failed to read DDL file %s", ddlPath)
	}

	if _, err := l.db.ExecContext(ctx, string(ddl)); err != nil {
		return errors.Wrapf(err, "creation of %s failed", tableName)
	}
	l.log.Info("%s created successfully", tableName)
	return nil
}

// Fill appends one S3 file onto the table. The table's columns are assumed
// static; Redshift rejects the COPY if the file disagrees.
func (l *Loader) Fill(ctx context.Context, tableName, fileName, dateFormat string) error {
	stmt := l.copyStatement(tableName, fileName, dateFormat)
	l.log.Debug("copy statement:\n%s", stmt)

	if _, err := l.db.ExecContext(ctx, stmt); err != nil {
		return errors.Wrapf(err, "did not fill %s", tableName)
	}
	l.log.Info("filled %s from %s", tableName, fileName)
	return nil
}

// Close releases the warehouse connection.
func (l *Loader) Close() error {
	return l.db.Close()
}
