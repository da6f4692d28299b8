package main

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/arushisharma17/ConceptX"
	"github.com/arushisharma17/ConceptX/blobstore"
	"github.com/arushisharma17/ConceptX/blobstore/minio"
	"github.com/arushisharma17/ConceptX/blobstore/s3"
	"github.com/arushisharma17/ConceptX/codec"
	"github.com/arushisharma17/ConceptX/dataset"
	"github.com/arushisharma17/ConceptX/vectorstore"
)

// location is a parsed output location.
type location struct {
	Scheme string // "file", "s3" or "minio"
	Host   string // minio endpoint
	Bucket string
	Prefix string
	Path   string // local directory
}

// parseLocation accepts a directory, s3://bucket/prefix or
// minio://host[:port]/bucket/prefix.
func parseLocation(raw string) (location, error) {
	if !strings.Contains(raw, "://") {
		if raw == "" {
			raw = "."
		}
		return location{Scheme: "file", Path: raw}, nil
	}

	u, err := url.Parse(raw)
	if err != nil {
		return location{}, fmt.Errorf("%w: output %q: %w", conceptx.ErrInvalidConfig, raw, err)
	}

	path := strings.Trim(u.Path, "/")

	switch u.Scheme {
	case "file":
		return location{Scheme: "file", Path: u.Host + u.Path}, nil
	case "s3":
		if u.Host == "" {
			return location{}, fmt.Errorf("%w: output %q has no bucket", conceptx.ErrInvalidConfig, raw)
		}
		return location{Scheme: "s3", Bucket: u.Host, Prefix: prefixOf(path)}, nil
	case "minio":
		bucket, prefix, _ := strings.Cut(path, "/")
		if u.Host == "" || bucket == "" {
			return location{}, fmt.Errorf("%w: output %q needs host and bucket", conceptx.ErrInvalidConfig, raw)
		}
		return location{Scheme: "minio", Host: u.Host, Bucket: bucket, Prefix: prefixOf(prefix)}, nil
	default:
		return location{}, fmt.Errorf("%w: output scheme %q", conceptx.ErrInvalidConfig, u.Scheme)
	}
}

func prefixOf(p string) string {
	if p == "" {
		return ""
	}
	return p + "/"
}

// openStore opens the blob store behind an output location. MinIO
// credentials come from MINIO_ACCESS_KEY, MINIO_SECRET_KEY, MINIO_SECURE and
// MINIO_REGION; S3 uses the default AWS credential chain.
func openStore(ctx context.Context, raw string) (blobstore.BlobStore, error) {
	loc, err := parseLocation(raw)
	if err != nil {
		return nil, err
	}

	switch loc.Scheme {
	case "s3":
		return s3.New(ctx, loc.Bucket, s3.WithPrefix(loc.Prefix))
	case "minio":
		return minio.New(ctx, minio.Config{
			Endpoint:  loc.Host,
			AccessKey: os.Getenv("MINIO_ACCESS_KEY"),
			SecretKey: os.Getenv("MINIO_SECRET_KEY"),
			Secure:    os.Getenv("MINIO_SECURE") == "true",
			Region:    os.Getenv("MINIO_REGION"),
		}, loc.Bucket, loc.Prefix)
	default:
		if err := os.MkdirAll(loc.Path, 0o755); err != nil {
			return nil, fmt.Errorf("create output directory: %w", err)
		}
		return blobstore.NewLocalStore(loc.Path), nil
	}
}

func newLogger(cmd *cobra.Command) (*conceptx.Logger, error) {
	levelName, _ := cmd.Flags().GetString("log-level")
	format, _ := cmd.Flags().GetString("log-format")

	level, err := conceptx.ParseLevel(levelName)
	if err != nil {
		return nil, err
	}

	switch format {
	case "json":
		return conceptx.NewJSONLoggerTo(cmd.ErrOrStderr(), level), nil
	case "text", "":
		return conceptx.NewTextLoggerTo(cmd.ErrOrStderr(), level), nil
	default:
		return nil, fmt.Errorf("%w: log format %q", conceptx.ErrInvalidConfig, format)
	}
}

// loadStore reads points and labels and applies ratio.
func loadStore(pointsPath, labelsPath string, ratio float64) (*vectorstore.Store, error) {
	if pointsPath == "" {
		return nil, fmt.Errorf("%w: points file is required", conceptx.ErrInvalidConfig)
	}

	points, err := dataset.LoadPoints(pointsPath)
	if err != nil {
		return nil, fmt.Errorf("load points: %w", err)
	}

	var labels []string
	if labelsPath != "" {
		labels, err = dataset.LoadLabels(labelsPath)
		if err != nil {
			return nil, fmt.Errorf("load labels: %w", err)
		}
	}

	store, err := vectorstore.New(points, labels)
	if err != nil {
		return nil, err
	}

	if ratio != 0 {
		return store.Prefix(ratio)
	}

	return store, nil
}

// printResult prints v as JSON when --json is set and calls text otherwise.
func printResult(cmd *cobra.Command, v any, text func()) error {
	jsonOut, _ := cmd.Flags().GetBool("json")
	if !jsonOut {
		text()
		return nil
	}

	data, err := codec.Default.MarshalIndent(v)
	if err != nil {
		return err
	}

	_, err = fmt.Fprintln(cmd.OutOrStdout(), string(data))
	return err
}
