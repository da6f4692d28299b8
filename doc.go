// Package conceptx clusters large sets of labelled high-dimensional points,
// such as contextual token embeddings, into concept groups.
//
// Clustering runs in two stages. The first stage greedily groups points into
// small tight cliques: a point becomes a leader and absorbs every point not yet
// taken that lies within distance τ. The second stage clusters the clique
// centroids into k groups, Ward linkage by default, and every point inherits
// the group of its clique.
//
// # Quick Start
//
//	ctx := context.Background()
//	res, err := conceptx.Cluster(ctx, points, labels, 50)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	for _, r := range res.Records {
//	    fmt.Printf("%s|||%d\n", r.Label, r.Cluster)
//	}
//
// # Threshold
//
// τ is estimated as the median distance between a sampled point and its
// nearest other point unless it is given:
//
//	res, err := conceptx.Cluster(ctx, points, labels, 50, conceptx.WithThreshold(1.5))
//
// # Modes
//
// ModeFast (the default) asks a nearest neighbour index for the points
// within τ of every leader, doubling the query size while the farthest answer
// is still within τ. ModeExact compares every point with the centroids of the
// cliques built so far and joins the first one closer than τ. It needs no
// index when τ is given and always produces the same cliques.
//
//	res, err := conceptx.Cluster(ctx, points, labels, 50,
//	    conceptx.WithMode(conceptx.ModeExact),
//	    conceptx.WithThreshold(1.5),
//	)
//
// # Indexes
//
// The fast pass builds an HNSW index over the points unless one is supplied
// with WithIndex or WithIndexPath. A freshly built index is returned in
// Result.Index and can be stored with WriteArtifacts for later runs:
//
//	store := blobstore.NewLocalStore("./out")
//	names, err := conceptx.WriteArtifacts(ctx, store, res,
//	    conceptx.NewReport(res, start, time.Now()),
//	    conceptx.ArtifactOptions{Compression: persistence.CompressionZSTD},
//	)
//
// # Errors
//
// Errors returned by Cluster match one of the package sentinels with
// errors.Is, or *ErrDimensionMismatch with errors.As. A failed run never
// returns a partial result.
//
// # Observability
//
// Runs log through a *Logger (slog based) and report per-stage measurements
// to a MetricsCollector. Both are disabled by default:
//
//	res, err := conceptx.Cluster(ctx, points, labels, 50,
//	    conceptx.WithLogger(conceptx.NewJSONLogger(slog.LevelInfo)),
//	    conceptx.WithMetricsCollector(&conceptx.BasicMetricsCollector{}),
//	)
package conceptx
