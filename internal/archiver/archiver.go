// Package archiver ties the Splitter and Pipeline together into the single
// top-level archive operation: partition a source tree, then run the
// per-part quintet pipeline over each part in strict sequence.
package archiver

import (
	"context"
	"fmt"

	"github.com/hashicorp/go-hclog"

	"github.com/provide-io/archiveset/internal/operators"
	"github.com/provide-io/archiveset/internal/pathutil"
	"github.com/provide-io/archiveset/internal/pipeline"
	"github.com/provide-io/archiveset/internal/splitter"
)

// Options configures a full archive run.
type Options struct {
	MaxPartBytes      int64 // 0 disables splitting: one part regardless of size
	Threads           int
	CompressionLevel  int
	EncryptRecipients []string
	RemoveUnencrypted bool
	Force             bool
}

// Archiver runs the archive operation against a configured set of
// operators.
type Archiver struct {
	Tar      operators.Tar
	Compress operators.Compress
	Encrypt  operators.Encrypt
	Logger   hclog.Logger
}

func (a *Archiver) logger() hclog.Logger {
	if a.Logger != nil {
		return a.Logger
	}
	return hclog.NewNullLogger()
}

// Archive creates destDir (subject to force handling) and produces one
// quintet per part of source, honoring opts.MaxPartBytes.
func (a *Archiver) Archive(ctx context.Context, source, destDir string, opts Options) ([]*pipeline.Result, error) {
	if err := pathutil.CreateDestination(destDir, opts.Force); err != nil {
		return nil, err
	}

	bound := opts.MaxPartBytes
	if bound <= 0 {
		size, err := pathutil.OnDiskSize(source)
		if err != nil {
			return nil, err
		}
		// No splitting requested: use a bound large enough that everything
		// lands in part 1, per splitter.EffectiveName's total<=1 rule.
		bound = size + 1
	}

	parts, err := splitter.Split(source, bound)
	if err != nil {
		return nil, err
	}

	sourceName := splitter.SourceName(source)
	pl := &pipeline.Pipeline{Tar: a.Tar, Compress: a.Compress, Encrypt: a.Encrypt, Logger: a.Logger}
	pipeOpts := pipeline.Options{
		Threads:           opts.Threads,
		CompressionLevel:  opts.CompressionLevel,
		EncryptRecipients: opts.EncryptRecipients,
		RemoveUnencrypted: opts.RemoveUnencrypted,
	}

	unsplit := len(parts) <= 1

	results := make([]*pipeline.Result, 0, len(parts))
	for _, part := range parts {
		effectiveName := splitter.EffectiveName(sourceName, part.Index, len(parts))
		partPaths := part.Paths
		if len(partPaths) == 0 {
			// Empty source: the splitter's single empty part still needs a
			// path set for the pipeline's listing/tar steps to walk.
			partPaths = []string{source}
		}
		partForPipeline := part
		partForPipeline.Paths = partPaths

		res, err := pl.Run(ctx, destDir, source, partForPipeline, effectiveName, unsplit, pipeOpts)
		if err != nil {
			return results, fmt.Errorf("part %d (%s): %w", part.Index, effectiveName, err)
		}
		results = append(results, res)
		a.logger().Info("part complete", "part", effectiveName, "bytes", part.Bytes)
	}

	return results, nil
}
