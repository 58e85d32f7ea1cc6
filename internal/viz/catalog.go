// Package viz recommends chart types for a question and its answer.
//
// The pipeline is a chain of pure stages over request-local values:
//
//	ExtractFeatures + AnalyzeStructure -> FeatureSet
//	SimilarityScores                   -> ScoreMap (cosine vs. catalog)
//	Boost -> AdjustForContext          -> ScoreMap
//	Select -> NormalizeScores          -> ranked charts
//	Explain                            -> one-line rationale per chart
//
// Catalog is the only shared state and is read-only once built.
package viz

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/kgviz/vizrec/internal/embedding"
)

// Chart identifiers.
const (
	AreaChart        = "area_chart"
	BarChart         = "bar_chart"
	ChordDiagram     = "chord_diagram"
	CirclePacking    = "circle_packing"
	ConnectionMap    = "connection_map"
	DAG              = "DAG"
	DonutChart       = "donut_chart"
	HeatmapChart     = "heatmap_chart"
	LineChart        = "line_chart"
	MosaicPlot       = "mosaic_plot"
	NetworkGraph     = "network_graph"
	PolarArea        = "polar_area"
	SmallMultiples   = "small_multiples"
	StackedAreaChart = "stacked_area_chart"
	SunburstChart    = "sunburst_chart"
	TreeDiagram      = "tree_diagram"
	TreemapChart     = "treemap_chart"
	VoronoiMap       = "voronoi_map"
	WordCloud        = "word_cloud"
)

// Category groups used for diversity selection.
const (
	GroupTimeSeries   = "time_series"
	GroupHierarchical = "hierarchical"
	GroupRelational   = "relational"
	GroupComparison   = "comparison"
	GroupGeographic   = "geographic"
	GroupDistribution = "distribution"
	GroupProportion   = "proportion"
	GroupText         = "text"
)

// ErrCatalogUnavailable is returned when chart embeddings cannot be built.
var ErrCatalogUnavailable = errors.New("chart catalog unavailable")

// ChartType describes one supported chart.
type ChartType struct {
	ID          string `json:"id"`
	Description string `json:"description"`
	Rationale   string `json:"rationale"`
	Category    string `json:"category,omitempty"` // empty for ungrouped charts
}

// chartTypes is in ranking tie-break order.
var chartTypes = []ChartType{
	{AreaChart, "Shows cumulative data trends with a filled area. Best for visualizing continuous data over time with emphasis on magnitude.",
		"Recommended for showing continuous data trends over time with emphasis on magnitude.", GroupTimeSeries},
	{BarChart, "Used for comparing categories or ranking values. Ideal for contrasting discrete items or showing rankings across categories.",
		"Ideal for comparing discrete categories or showing rankings.", GroupComparison},
	{ChordDiagram, "Best for visualizing relationships and interactions between groups. Shows complex interconnections and flow between entities.",
		"Best for showing complex relationships and interactions between groups.", GroupRelational},
	{CirclePacking, "Represents hierarchical relationships in a compact form. Efficient for displaying nested categories with size proportions.",
		"Excellent for displaying hierarchical data with size relationships.", GroupHierarchical},
	{ConnectionMap, "Visualizes spatial relationships and geographic data. Perfect for showing connections between locations or regions.",
		"Perfect for geographic data showing relationships between locations.", GroupGeographic},
	{DAG, "Shows directed relationships, commonly used for processes or networks. Ideal for workflows, dependencies, or sequential processes.",
		"Ideal for visualizing directed processes, workflows, or dependencies.", GroupRelational},
	{DonutChart, "A variation of the pie chart highlighting proportions. Perfect for showing part-to-whole relationships and category distributions.",
		"Perfect for showing part-to-whole relationships and proportional data.", GroupProportion},
	{HeatmapChart, "Displays intensity values in a matrix format. Best for showing patterns and correlations in multi-dimensional data.",
		"Best for showing patterns in multi-dimensional categorical data.", GroupDistribution},
	{LineChart, "Best for showing trends over time or sequential data. Ideal for continuous changes and comparing multiple series over time.",
		"Excellent for time series data and continuous trends.", GroupTimeSeries},
	{MosaicPlot, "Used to show the relationship between categorical variables. Good for displaying contingency tables and categorical correlations.",
		"Useful for showing relationships between multiple categorical variables.", GroupComparison},
	{NetworkGraph, "Illustrates complex relationships in networks. Best for showing connections, influence, and cluster patterns.",
		"Ideal for visualizing complex interconnected relationships.", GroupRelational},
	{PolarArea, "Represents cyclic data with proportionally scaled segments. Good for seasonal or periodic data with magnitude variations.",
		"Good for cyclic data or comparing multiple quantitative variables.", ""},
	{SmallMultiples, "Facilitates comparisons across multiple categories. Displays a series of similar charts for different data subsets.",
		"Perfect for comparing patterns across different categories or groups.", GroupComparison},
	{StackedAreaChart, "Shows part-to-whole relationships over time. Good for displaying how composition changes while maintaining total perspective.",
		"Best for showing part-to-whole relationships changing over time.", GroupTimeSeries},
	{SunburstChart, "Depicts hierarchical data as concentric layers. Excellent for multi-level hierarchical data with nested relationships.",
		"Excellent for multi-level hierarchical data with nesting.", GroupHierarchical},
	{TreeDiagram, "Illustrates hierarchical relationships in tree structure. Clearly shows parent-child relationships and organizational structures.",
		"Ideal for displaying hierarchical relationships with clear parent-child structure.", GroupHierarchical},
	{TreemapChart, "Depicts hierarchical structures using nested rectangles. Good for showing hierarchical data where size represents quantity.",
		"Best for hierarchical data where size represents quantity.", GroupHierarchical},
	{VoronoiMap, "Divides spatial regions based on distance. Useful for proximity analysis and territory visualization.",
		"Good for spatial partitioning and proximity analysis.", GroupGeographic},
	{WordCloud, "Visualizes common words and keyword frequency in text-heavy data. Great for displaying popular terms and themes.",
		"Perfect for showing frequency in text data and key themes.", GroupText},
}

var chartIndex = func() map[string]int {
	m := make(map[string]int, len(chartTypes))
	for i, c := range chartTypes {
		m[c.ID] = i
	}
	return m
}()

// ChartTypes returns a copy of the supported charts in tie-break order.
func ChartTypes() []ChartType {
	out := make([]ChartType, len(chartTypes))
	copy(out, chartTypes)
	return out
}

// ChartIDs returns the chart identifiers in tie-break order.
func ChartIDs() []string {
	out := make([]string, len(chartTypes))
	for i, c := range chartTypes {
		out[i] = c.ID
	}
	return out
}

// Lookup returns the chart with the given id.
func Lookup(id string) (ChartType, bool) {
	i, ok := chartIndex[id]
	if !ok {
		return ChartType{}, false
	}
	return chartTypes[i], true
}

// CategoryOf returns the diversity group of a chart, "" when ungrouped.
func CategoryOf(id string) string {
	c, _ := Lookup(id)
	return c.Category
}

// Catalog holds the chart descriptions and their unit-length embeddings.
type Catalog struct {
	embedder   embedding.Embedder
	embeddings map[string][]float32
}

// NewCatalog embeds every chart description with embedder.
func NewCatalog(ctx context.Context, embedder embedding.Embedder) (*Catalog, error) {
	descriptions := make([]string, len(chartTypes))
	for i, c := range chartTypes {
		descriptions[i] = c.Description
	}

	vectors, err := embedder.Embed(ctx, descriptions)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCatalogUnavailable, err)
	}
	if len(vectors) != len(chartTypes) {
		return nil, fmt.Errorf("%w: got %d embeddings for %d charts", ErrCatalogUnavailable, len(vectors), len(chartTypes))
	}

	embeddings := make(map[string][]float32, len(chartTypes))
	for i, c := range chartTypes {
		embeddings[c.ID] = embedding.Normalize(vectors[i])
	}

	return &Catalog{
		embedder:   embedder,
		embeddings: embeddings,
	}, nil
}

// Embedding returns the stored vector for a chart.
func (c *Catalog) Embedding(id string) []float32 {
	return c.embeddings[id]
}

// Embedder returns the embedder the catalog was built with. Request text must
// be embedded with the same model.
func (c *Catalog) Embedder() embedding.Embedder {
	return c.embedder
}

// Model returns the embedding model name.
func (c *Catalog) Model() string {
	return c.embedder.Model()
}

// CatalogLoader builds a Catalog at most once. A failed build is retained
// and returned to every caller.
type CatalogLoader struct {
	embedder embedding.Embedder
	once     sync.Once
	catalog  *Catalog
	err      error
	done     chan struct{}
}

// NewCatalogLoader creates a loader for embedder.
func NewCatalogLoader(embedder embedding.Embedder) *CatalogLoader {
	return &CatalogLoader{
		embedder: embedder,
		done:     make(chan struct{}),
	}
}

// Load builds the catalog on first call and returns the cached result after.
func (l *CatalogLoader) Load(ctx context.Context) (*Catalog, error) {
	l.once.Do(func() {
		l.catalog, l.err = NewCatalog(ctx, l.embedder)
		close(l.done)
	})
	return l.catalog, l.err
}

// Ready reports whether a catalog has been built successfully.
func (l *CatalogLoader) Ready() bool {
	select {
	case <-l.done:
		return l.err == nil
	default:
		return false
	}
}
