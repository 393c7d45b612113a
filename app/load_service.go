package app

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"abanalyzer/adapters/redshift"
	"abanalyzer/adapters/s3"
	"abanalyzer/internal"
	"abanalyzer/internal/errors"
)

// LoadService moves flat files from S3 into Redshift tables. Objects are
// verified in parallel up front; COPY statements then run serially, since
// Redshift serializes concurrent COPYs into one table anyway. A failed table
// fill is logged and the batch continues.
type LoadService struct {
	loader  *redshift.Loader
	objects *s3.Client // nil disables pre-flight verification
	// keyPrefix maps the loader's file names onto bucket-relative object
	// keys: the path portion of the configured S3 location.
	keyPrefix string
	log       *internal.Logger
}

// NewLoadService creates a load service. objects may be nil when no S3
// client is configured; verification is then skipped.
func NewLoadService(loader *redshift.Loader, objects *s3.Client, keyPrefix string) *LoadService {
	return &LoadService{loader: loader, objects: objects, keyPrefix: keyPrefix, log: internal.DefaultLogger}
}

// verificationParallelism bounds the concurrent HeadObject calls.
const verificationParallelism = 8

// LoadFiles appends the named files onto the table, one COPY each. Returns
// the number of files that loaded successfully; an error only when nothing
// could be attempted.
func (s *LoadService) LoadFiles(ctx context.Context, tableName string, files []string, dateFormat string) (int, error) {
	if len(files) == 0 {
		return 0, errors.InvalidInput("no files to load")
	}

	if err := s.verify(ctx, files); err != nil {
		return 0, err
	}

	loaded := 0
	var failed []string
	for _, file := range files {
		if err := s.loader.Fill(ctx, tableName, file, dateFormat); err != nil {
			s.log.Error("%s update failed: %v", tableName, err)
			failed = append(failed, file)
			continue
		}
		s.log.Info("%s filled successfully from %s", tableName, file)
		loaded++
	}
	if s.log.GetLevel() >= internal.LogLevelDebug && len(failed) > 0 {
		s.log.Debug("failed files: %s", strings.Join(failed, ", "))
	}
	return loaded, nil
}

// LoadPrefix discovers the files under an S3 prefix and loads each of them.
func (s *LoadService) LoadPrefix(ctx context.Context, tableName, prefix, dateFormat string) (int, error) {
	if s.objects == nil {
		return 0, errors.InvalidInput("prefix loading requires an S3 client")
	}
	keys, err := s.objects.List(ctx, s.keyPrefix+prefix)
	if err != nil {
		return 0, err
	}
	if len(keys) == 0 {
		return 0, errors.InvalidInput(fmt.Sprintf("no objects under prefix %q", prefix))
	}
	s.log.Info("found %d objects under %s", len(keys), prefix)

	// List already proved existence; skip the head pass. Listed keys are
	// bucket-relative, the loader wants names relative to its S3 location.
	loaded := 0
	for _, key := range keys {
		file := strings.TrimPrefix(key, s.keyPrefix)
		if err := s.loader.Fill(ctx, tableName, file, dateFormat); err != nil {
			s.log.Error("%s update failed: %v", tableName, err)
			continue
		}
		loaded++
	}
	return loaded, nil
}

// verify heads every file concurrently so a typo fails the batch before the
// first COPY runs.
func (s *LoadService) verify(ctx context.Context, files []string) error {
	if s.objects == nil {
		return nil
	}
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(verificationParallelism)
	for _, file := range files {
		g.Go(func() error {
			ok, err := s.objects.Exists(ctx, s.keyPrefix+file)
			if err != nil {
				return err
			}
			if !ok {
				return errors.InvalidInput(fmt.Sprintf("object %q not found in bucket", file))
			}
			return nil
		})
	}
	return g.Wait()
}
