package osmload

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"runtime"
	"strings"

	"github.com/lintang-b-s/osm-geoenrich/pkg/datastructure"
	"github.com/lintang-b-s/osm-geoenrich/pkg/geo"

	"github.com/k0kubun/go-ansi"
	"github.com/klauspost/compress/gzip"
	"github.com/paulmach/osm"
	"github.com/paulmach/osm/osmpbf"
	"github.com/paulmach/osm/osmxml"
	"github.com/schollz/progressbar/v3"
	"go.uber.org/zap"
)

var (
	ErrExtractLoad = errors.New("osm extract load failed")
)

// POIStore holds the loaded records per category, in extract order: node features first,
// then area features.
type POIStore map[datastructure.Category][]datastructure.POIRecord

// Counts returns the number of stored records per category.
func (s POIStore) Counts() map[datastructure.Category]int {
	counts := make(map[datastructure.Category]int, len(s))
	for category, records := range s {
		counts[category] = len(records)
	}
	return counts
}

type Loader struct {
	log          *zap.Logger
	rules        []CategoryRule
	showProgress bool
}

func NewLoader(log *zap.Logger, rules []CategoryRule, showProgress bool) *Loader {
	return &Loader{
		log:          log,
		rules:        rules,
		showProgress: showProgress,
	}
}

type areaFeature struct {
	categories []datastructure.Category
	name       string
	nodeIDs    []osm.NodeID
}

// Load parses the extract at path into POI records. Ways are scanned first so the node
// pass knows which vertex coordinates to keep for the area centroids.
func (l *Loader) Load(ctx context.Context, path string) (POIStore, error) {
	store := make(POIStore, len(l.rules))
	for _, rule := range l.rules {
		store[rule.Category] = []datastructure.POIRecord{}
	}

	bar := l.newProgressBar()
	_ = bar.Add(1)

	// process osm ways
	areas := []areaFeature{}
	wayNodes := make(map[osm.NodeID]geo.Coordinate)

	err := l.scan(ctx, path, osm.TypeWay, func(o osm.Object) {
		way := o.(*osm.Way)
		categories := matchCategories(l.rules, way.Tags)
		if len(categories) == 0 || len(way.Nodes) == 0 {
			return
		}

		nodeIDs := make([]osm.NodeID, 0, len(way.Nodes))
		for _, wn := range way.Nodes {
			nodeIDs = append(nodeIDs, wn.ID)
			wayNodes[wn.ID] = geo.Coordinate{}
		}
		areas = append(areas, areaFeature{
			categories: categories,
			name:       featureName(way.Tags),
			nodeIDs:    nodeIDs,
		})
	})
	if err != nil {
		return nil, err
	}
	_ = bar.Add(1)

	// process osm nodes
	resolved := make(map[osm.NodeID]bool, len(wayNodes))
	err = l.scan(ctx, path, osm.TypeNode, func(o osm.Object) {
		node := o.(*osm.Node)
		if _, ok := wayNodes[node.ID]; ok {
			wayNodes[node.ID] = geo.NewCoordinate(node.Lat, node.Lon)
			resolved[node.ID] = true
		}

		if len(node.Tags) == 0 {
			return
		}
		name := featureName(node.Tags)
		for _, category := range matchCategories(l.rules, node.Tags) {
			store[category] = append(store[category],
				datastructure.NewPOIRecord(category, name, node.Lat, node.Lon))
		}
	})
	if err != nil {
		return nil, err
	}
	_ = bar.Add(1)

	skipped := 0
	for _, area := range areas {
		lats, lons := make([]float64, 0, len(area.nodeIDs)), make([]float64, 0, len(area.nodeIDs))
		for _, id := range area.nodeIDs {
			if !resolved[id] {
				continue
			}
			c := wayNodes[id]
			lats = append(lats, c.Lat)
			lons = append(lons, c.Lon)
		}

		lat, lon, ok := geo.Centroid(lats, lons)
		if !ok {
			skipped++
			continue
		}
		for _, category := range area.categories {
			store[category] = append(store[category],
				datastructure.NewPOIRecord(category, area.name, lat, lon))
		}
	}
	_ = bar.Add(1)

	l.log.Info("osm extract loaded",
		zap.String("path", path),
		zap.Int("areas", len(areas)),
		zap.Int("areas_without_nodes", skipped),
		zap.Any("counts", store.Counts()),
	)
	return store, nil
}

// scan runs fn over every object of type want in the extract.
func (l *Loader) scan(ctx context.Context, path string, want osm.Type, fn func(osm.Object)) error {
	r, err := openExtract(path)
	if err != nil {
		return fmt.Errorf("%w: open %s: %w", ErrExtractLoad, path, err)
	}
	defer r.Close()

	scanner := newScanner(ctx, path, r)
	defer scanner.Close()

	if pbf, ok := scanner.(*osmpbf.Scanner); ok {
		pbf.SkipNodes = want != osm.TypeNode
		pbf.SkipWays = want != osm.TypeWay
		pbf.SkipRelations = true
	}

	for scanner.Scan() {
		o := scanner.Object()
		if o.ObjectID().Type() != want {
			continue
		}
		fn(o)
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("%w: parse %s: %w", ErrExtractLoad, path, err)
	}
	return nil
}

// extractReader closes its layers innermost last.
type extractReader struct {
	io.Reader
	closers []io.Closer
}

func (r *extractReader) Close() error {
	var errs []error
	for i := len(r.closers) - 1; i >= 0; i-- {
		if err := r.closers[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// openExtract opens path, decompressing .gz on the fly.
func openExtract(path string) (io.ReadCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	if !strings.HasSuffix(strings.ToLower(path), ".gz") {
		return &extractReader{Reader: f, closers: []io.Closer{f}}, nil
	}

	gz, err := gzip.NewReader(f)
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	return &extractReader{Reader: gz, closers: []io.Closer{f, gz}}, nil
}

func newScanner(ctx context.Context, path string, r io.Reader) osm.Scanner {
	if strings.HasSuffix(strings.ToLower(path), ".pbf") {
		return osmpbf.New(ctx, r, runtime.GOMAXPROCS(-1))
	}
	return osmxml.New(ctx, r)
}

// featureName prefers the localized name.
func featureName(tags osm.Tags) string {
	if name := strings.TrimSpace(tags.Find("name:ru")); name != "" {
		return name
	}
	return strings.TrimSpace(tags.Find("name"))
}

func (l *Loader) newProgressBar() *progressbar.ProgressBar {
	if !l.showProgress {
		return progressbar.DefaultSilent(4)
	}
	return progressbar.NewOptions(4,
		progressbar.OptionSetWriter(ansi.NewAnsiStdout()),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionSetWidth(15),
		progressbar.OptionSetDescription("[cyan]Loading osm extract..."),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "[green]=[reset]",
			SaucerHead:    "[green]>[reset]",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}))
}
