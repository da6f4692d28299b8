package leader

import (
	"math/rand"
	"runtime"
	"time"
)

// Progress is reported periodically while cliques are built.
type Progress struct {
	Cliques   int // cliques opened so far
	Processed int // points visited in store order
	Points    int // points in the store
}

// Options configures the builders and the threshold estimator.
type Options struct {
	// InitialLimit is the first neighbour count requested by the fast pass.
	InitialLimit int

	// SampleSize is the number of points sampled for threshold estimation.
	SampleSize int

	// Concurrency bounds the parallel queries of threshold estimation.
	Concurrency int

	// Rand drives sampling. Nil means a time seeded source.
	Rand *rand.Rand

	// OnProgress, if set, receives throttled progress reports.
	OnProgress func(Progress)

	// ProgressEvery is the number of events between two progress reports.
	// Events are new cliques in the fast pass and visited points in the exact pass.
	ProgressEvery int
}

// DefaultOptions contains the default options.
var DefaultOptions = Options{
	InitialLimit: 100,
	SampleSize:   1000,
}

func applyOptions(optFns []func(*Options)) Options {
	opts := DefaultOptions

	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.InitialLimit <= 0 {
		opts.InitialLimit = DefaultOptions.InitialLimit
	}

	if opts.SampleSize <= 0 {
		opts.SampleSize = DefaultOptions.SampleSize
	}

	if opts.Concurrency <= 0 {
		opts.Concurrency = runtime.GOMAXPROCS(0)
	}

	if opts.Rand == nil {
		opts.Rand = rand.New(rand.NewSource(time.Now().UnixNano())) // nolint gosec
	}

	return opts
}
