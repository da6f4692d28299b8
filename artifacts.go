package conceptx

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/arushisharma17/ConceptX/blobstore"
	"github.com/arushisharma17/ConceptX/codec"
	"github.com/arushisharma17/ConceptX/index"
	"github.com/arushisharma17/ConceptX/persistence"
	"github.com/arushisharma17/ConceptX/results"
)

// Ref returns the artifact name suffix of a sample ratio: empty for 0,
// "-{ratio}" otherwise.
func Ref(ratio float64) string {
	if ratio == 0 {
		return ""
	}
	return "-" + strconv.FormatFloat(ratio, 'g', -1, 64)
}

// IndexName names the index blob of a run.
func IndexName(ref string) string {
	return "leaders" + ref + ".ann"
}

// ClustersName names the assignment file of a run.
func ClustersName(k int, tau float64, ref string) string {
	return fmt.Sprintf("clusters-leaders-%d-%s%s.txt", k, strconv.FormatFloat(tau, 'g', -1, 64), ref)
}

// ReportName names the run report.
func ReportName(k int, ref string) string {
	return fmt.Sprintf("report-leaders-%d%s.json", k, ref)
}

// BaselineClustersName names the assignment file of a direct clustering of
// all points, such as "kmeans" or "agg".
func BaselineClustersName(method string, k int, ref string) string {
	return fmt.Sprintf("clusters-%s-%d%s.txt", method, k, ref)
}

// LinkageName names the linkage matrix written by direct Ward clustering.
func LinkageName(k int) string {
	return fmt.Sprintf("agg_linkage_matrix_%d.npy", k)
}

// Environment describes the machine a run executed on.
type Environment struct {
	GoVersion string `json:"go_version"`
	OS        string `json:"os"`
	Arch      string `json:"arch"`
	CPUs      int    `json:"cpus"`
	HeapInuse uint64 `json:"heap_inuse_bytes"`
}

// CurrentEnvironment samples the running process.
func CurrentEnvironment() Environment {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)

	return Environment{
		GoVersion: runtime.Version(),
		OS:        runtime.GOOS,
		Arch:      runtime.GOARCH,
		CPUs:      runtime.NumCPU(),
		HeapInuse: ms.HeapInuse,
	}
}

// Report summarizes a run.
type Report struct {
	Start       time.Time       `json:"start"`
	End         time.Time       `json:"end"`
	Runtime     string          `json:"runtime"`
	Environment Environment     `json:"environment"`
	Points      int             `json:"points"`
	Dimension   int             `json:"dimension"`
	K           int             `json:"k"`
	Tau         float64         `json:"tau"`
	Estimated   bool            `json:"tau_estimated"`
	Mode        Mode            `json:"mode"`
	SampleRatio float64         `json:"sample_ratio,omitempty"`
	Stage2      string          `json:"stage2"`
	Index       string          `json:"index,omitempty"`
	Cliques     int             `json:"cliques"`
	CliqueSizes results.Summary `json:"clique_sizes"`
	Clusters    results.Summary `json:"cluster_sizes"`
	Timings     Timings         `json:"timings"`
}

// NewReport describes res, which ran from start to end.
func NewReport(res *Result, start, end time.Time) Report {
	r := Report{
		Start:       start,
		End:         end,
		Runtime:     end.Sub(start).String(),
		Environment: CurrentEnvironment(),
		Points:      res.Store.Len(),
		Dimension:   res.Store.Dimension(),
		K:           res.K,
		Tau:         res.Tau,
		Estimated:   res.TauEstimated,
		Mode:        res.Mode,
		SampleRatio: res.SampleRatio,
		Stage2:      res.Stage2,
		Cliques:     res.Partition.Len(),
		CliqueSizes: results.Summarize(res.Partition.Sizes()),
		Clusters:    results.Summarize(results.SizesOf(results.Sizes(res.Records))),
		Timings:     res.Timings,
	}
	if res.Index != nil {
		r.Index = res.Index.Name()
	}
	return r
}

// ArtifactOptions configures WriteArtifacts.
type ArtifactOptions struct {
	// Compression of the index blob.
	Compression persistence.CompressionType

	// Codec encodes the report. Nil means codec.Default.
	Codec codec.Codec
}

// WriteArtifacts stores the assignment file, the report and, if the run built
// one, the index blob. It returns the names written.
func WriteArtifacts(ctx context.Context, store blobstore.BlobStore, res *Result, report Report, opts ArtifactOptions) ([]string, error) {
	c := opts.Codec
	if c == nil {
		c = codec.Default
	}

	ref := Ref(res.SampleRatio)
	names := []string{ClustersName(res.K, res.Tau, ref), ReportName(res.K, ref)}
	if res.Index != nil {
		names = append(names, IndexName(ref))
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		var buf bytes.Buffer
		if err := results.WriteText(&buf, res.Records); err != nil {
			return err
		}
		return store.Put(ctx, names[0], buf.Bytes())
	})

	g.Go(func() error {
		data, err := c.MarshalIndent(report)
		if err != nil {
			return fmt.Errorf("encode report: %w", err)
		}
		return store.Put(ctx, names[1], data)
	})

	if res.Index != nil {
		g.Go(func() error {
			data, err := persistence.EncodeIndex(res.Index, opts.Compression)
			if err != nil {
				return fmt.Errorf("encode index: %w", err)
			}
			return store.Put(ctx, names[2], data)
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return names, nil
}

// LoadIndex reads the index blob called name from store.
func LoadIndex(ctx context.Context, store blobstore.BlobStore, name string) (index.Index, error) {
	data, err := blobstore.ReadAll(ctx, store, name)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrIndexUnavailable, name, err)
	}

	idx, err := persistence.DecodeIndex(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrIndexUnavailable, name, err)
	}

	return idx, nil
}

// LoadIndexFile reads an index blob from the local file system.
func LoadIndexFile(ctx context.Context, path string) (index.Index, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrIndexUnavailable, err)
	}
	return LoadIndex(ctx, blobstore.NewLocalStore(filepath.Dir(path)), filepath.Base(path))
}
