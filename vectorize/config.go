package vectorize

import (
	"fmt"
	"image/color"
	"math"
	"time"
)

// Backend selects one of the four tracing strategies.
type Backend int

const (
	// BackendEdge extracts gradient-based contours (sparse outlines).
	BackendEdge Backend = iota
	// BackendCenterline extracts single-stroke skeletons.
	BackendCenterline
	// BackendSuperpixel decomposes the image into clustered regions.
	BackendSuperpixel
	// BackendDots places content-aware stippling dots.
	BackendDots
)

// String implements fmt.Stringer using the wire names of the backends.
func (b Backend) String() string {
	switch b {
	case BackendEdge:
		return "edge"
	case BackendCenterline:
		return "centerline"
	case BackendSuperpixel:
		return "superpixel"
	case BackendDots:
		return "dots"
	}
	return fmt.Sprintf("backend(%d)", int(b))
}

// ParseBackend converts a backend wire name into a Backend value.
func ParseBackend(s string) (Backend, error) {
	switch s {
	case "edge":
		return BackendEdge, nil
	case "centerline":
		return BackendCenterline, nil
	case "superpixel":
		return BackendSuperpixel, nil
	case "dots":
		return BackendDots, nil
	}
	return 0, fmt.Errorf("unknown backend %q: %w", s, ErrInvalidInput)
}

// ProgressUpdate is delivered to an optional callback at phase boundaries.
type ProgressUpdate struct {
	Stage    string
	Fraction float64
	Elapsed  time.Duration
}

// ProgressFunc receives progress updates. It is called synchronously from
// the job goroutine and must return quickly.
type ProgressFunc func(ProgressUpdate)

// Config is the validated parameter set for one conversion. Exactly one of
// the backend sub-configs must be non-nil and must match Backend; each
// backend reads only its own sub-config, so parameters cannot leak across
// strategies.
type Config struct {
	Backend Backend `mapstructure:"-" json:"-"`

	// Detail scales every derived threshold: 0 is very sparse output,
	// 1 keeps the most detail. See DetailThresholds.
	Detail float64 `mapstructure:"detail" json:"detail"`
	// StrokeWidth is the base stroke width in output pixels (0.1-10).
	StrokeWidth float64 `mapstructure:"stroke_width" json:"stroke_width"`
	// NoiseFiltering enables Gaussian denoising during preprocessing.
	NoiseFiltering bool `mapstructure:"noise_filtering" json:"noise_filtering"`

	Edge       *EdgeConfig       `mapstructure:"edge" json:"edge"`
	Centerline *CenterlineConfig `mapstructure:"centerline" json:"centerline"`
	Superpixel *SuperpixelConfig `mapstructure:"superpixel" json:"superpixel"`
	Dots       *DotConfig        `mapstructure:"dots" json:"dots"`

	Artistic    ArtisticConfig    `mapstructure:"artistic" json:"artistic"`
	Output      OutputConfig      `mapstructure:"output" json:"output"`
	Performance PerformanceConfig `mapstructure:"performance" json:"performance"`

	// Seed makes every randomized stage (tremor, stipple jitter) a pure
	// function of the inputs. Identical image, config and seed reproduce
	// byte-identical SVG output.
	Seed int64 `mapstructure:"seed" json:"seed"`

	// Progress, when non-nil, is invoked at phase boundaries.
	Progress ProgressFunc `mapstructure:"-" json:"-"`
}

// EdgeConfig holds the parameters read by the edge backend.
type EdgeConfig struct {
	// Multipass adds extra scan passes whose results are union-merged
	// with near-coincident duplicates suppressed.
	Multipass    bool `mapstructure:"multipass" json:"multipass"`
	ReversePass  bool `mapstructure:"reverse_pass" json:"reverse_pass"`
	DiagonalPass bool `mapstructure:"diagonal_pass" json:"diagonal_pass"`

	// ConservativeDetail and AggressiveDetail override the detail levels
	// of the first and second multipass passes. Zero derives them from
	// the shared Detail knob.
	ConservativeDetail float64 `mapstructure:"conservative_detail" json:"conservative_detail"`
	AggressiveDetail   float64 `mapstructure:"aggressive_detail" json:"aggressive_detail"`

	// EnableFlowTracing replaces naive edge linking with tracing along an
	// edge tangent flow field. EnableETFFDoG and EnableBezierFitting
	// require it.
	EnableFlowTracing   bool `mapstructure:"enable_flow_tracing" json:"enable_flow_tracing"`
	EnableETFFDoG       bool `mapstructure:"enable_etf_fdog" json:"enable_etf_fdog"`
	EnableBezierFitting bool `mapstructure:"enable_bezier_fitting" json:"enable_bezier_fitting"`

	ETFRadius       int     `mapstructure:"etf_radius" json:"etf_radius"`
	ETFIterations   int     `mapstructure:"etf_iterations" json:"etf_iterations"`
	ETFCoherencyTau float64 `mapstructure:"etf_coherency_tau" json:"etf_coherency_tau"`

	FDoGSigmaS float64 `mapstructure:"fdog_sigma_s" json:"fdog_sigma_s"`
	FDoGSigmaC float64 `mapstructure:"fdog_sigma_c" json:"fdog_sigma_c"`
	FDoGTau    float64 `mapstructure:"fdog_tau" json:"fdog_tau"`

	TraceMinGradient  float64 `mapstructure:"trace_min_grad" json:"trace_min_grad"`
	TraceMinCoherency float64 `mapstructure:"trace_min_coherency" json:"trace_min_coherency"`
	TraceMaxGap       int     `mapstructure:"trace_max_gap" json:"trace_max_gap"`
	TraceMaxLength    int     `mapstructure:"trace_max_len" json:"trace_max_len"`

	FitLambdaCurvature float64 `mapstructure:"fit_lambda_curv" json:"fit_lambda_curv"`
	FitMaxError        float64 `mapstructure:"fit_max_err" json:"fit_max_err"`
	FitSplitAngle      float64 `mapstructure:"fit_split_angle" json:"fit_split_angle"`
}

// DefaultEdgeConfig returns the edge backend defaults.
func DefaultEdgeConfig() *EdgeConfig {
	return &EdgeConfig{
		ETFRadius:          4,
		ETFIterations:      4,
		ETFCoherencyTau:    0.2,
		FDoGSigmaS:         0.8,
		FDoGSigmaC:         1.6,
		FDoGTau:            0.70,
		TraceMinGradient:   0.02,
		TraceMinCoherency:  0.05,
		TraceMaxGap:        8,
		TraceMaxLength:     10000,
		FitLambdaCurvature: 0.01,
		FitMaxError:        2.0,
		FitSplitAngle:      32.0,
	}
}

// CenterlineConfig holds the parameters read by the centerline backend.
type CenterlineConfig struct {
	// AdaptiveThreshold selects Sauvola sliding-window binarization over
	// a global Otsu threshold. Larger windows trade detail for robustness
	// to lighting gradients.
	AdaptiveThreshold bool    `mapstructure:"enable_adaptive_threshold" json:"enable_adaptive_threshold"`
	WindowSize        int     `mapstructure:"window_size" json:"window_size"`
	SensitivityK      float64 `mapstructure:"sensitivity_k" json:"sensitivity_k"`

	// MinBranchLength prunes skeleton branches shorter than this many
	// pixels (4-24); they are almost always thinning artifacts.
	MinBranchLength float64 `mapstructure:"min_branch_length" json:"min_branch_length"`

	// WidthModulation recovers local stroke width from the distance
	// transform and maps it into [WidthMin, WidthMax].
	WidthModulation bool    `mapstructure:"enable_width_modulation" json:"enable_width_modulation"`
	WidthMin        float64 `mapstructure:"width_min" json:"width_min"`
	WidthMax        float64 `mapstructure:"width_max" json:"width_max"`

	// SimplifyEpsilon is the Douglas-Peucker tolerance in pixels (0.5-3).
	SimplifyEpsilon  float64 `mapstructure:"douglas_peucker_epsilon" json:"douglas_peucker_epsilon"`
	AdaptiveSimplify bool    `mapstructure:"adaptive_simplify" json:"adaptive_simplify"`

	// JoinEndpoints bridges skeleton endpoints within JoinMaxDistance
	// pixels and JoinMaxAngle degrees when the distance transform
	// confirms they belong to the same original stroke.
	JoinEndpoints   bool    `mapstructure:"join_endpoints" json:"join_endpoints"`
	JoinMaxDistance float64 `mapstructure:"join_max_distance" json:"join_max_distance"`
	JoinMaxAngle    float64 `mapstructure:"join_max_angle" json:"join_max_angle"`
}

// DefaultCenterlineConfig returns the centerline backend defaults.
func DefaultCenterlineConfig() *CenterlineConfig {
	return &CenterlineConfig{
		AdaptiveThreshold: true,
		WindowSize:        31,
		SensitivityK:      0.4,
		MinBranchLength:   8,
		WidthMin:          0.8,
		WidthMax:          3.2,
		SimplifyEpsilon:   1.0,
		AdaptiveSimplify:  true,
		JoinEndpoints:     true,
		JoinMaxDistance:   6,
		JoinMaxAngle:      35,
	}
}

// SuperpixelConfig holds the parameters read by the region backend.
type SuperpixelConfig struct {
	// NumSuperpixels is the target cluster count (20-1000). Zero derives
	// it from Detail via SuperpixelCountForDetail.
	NumSuperpixels int `mapstructure:"num_superpixels" json:"num_superpixels"`
	// Compactness trades color fidelity for regular shapes (1-50).
	Compactness float64 `mapstructure:"compactness" json:"compactness"`
	Iterations  int     `mapstructure:"slic_iterations" json:"slic_iterations"`

	FillRegions   bool `mapstructure:"fill_regions" json:"fill_regions"`
	StrokeRegions bool `mapstructure:"stroke_regions" json:"stroke_regions"`

	SimplifyBoundaries bool    `mapstructure:"simplify_boundaries" json:"simplify_boundaries"`
	BoundaryEpsilon    float64 `mapstructure:"boundary_epsilon" json:"boundary_epsilon"`

	// MinRegionSize merges clusters smaller than this many pixels into
	// their largest neighbor. Zero disables merging.
	MinRegionSize int `mapstructure:"min_region_size" json:"min_region_size"`
}

// DefaultSuperpixelConfig returns the region backend defaults.
func DefaultSuperpixelConfig() *SuperpixelConfig {
	return &SuperpixelConfig{
		Compactness:        10,
		Iterations:         10,
		FillRegions:        true,
		StrokeRegions:      true,
		SimplifyBoundaries: true,
		BoundaryEpsilon:    1.0,
		MinRegionSize:      16,
	}
}

// DotConfig holds the parameters read by the stippling backend.
type DotConfig struct {
	// DensityThreshold is the minimum normalized importance required to
	// place a dot (0-1).
	DensityThreshold float64 `mapstructure:"dot_density_threshold" json:"dot_density_threshold"`
	MinRadius        float64 `mapstructure:"min_radius" json:"min_radius"`
	MaxRadius        float64 `mapstructure:"max_radius" json:"max_radius"`

	// PreserveColors samples each dot's color from the source image
	// instead of using DefaultColor.
	PreserveColors bool `mapstructure:"preserve_colors" json:"preserve_colors"`
	// AdaptiveSizing scales each radius by local importance.
	AdaptiveSizing bool `mapstructure:"adaptive_sizing" json:"adaptive_sizing"`
	// PoissonDisk uses blue-noise sampling with an enforced minimum
	// inter-point distance; otherwise a jittered grid is used.
	PoissonDisk bool `mapstructure:"poisson_disk_sampling" json:"poisson_disk_sampling"`
	// HexGrid offsets alternate rows of the jittered grid by half the
	// spacing for a honeycomb arrangement. Ignored when PoissonDisk is set.
	HexGrid bool `mapstructure:"hex_grid" json:"hex_grid"`

	// BackgroundTolerance drops dots whose pixel is within this
	// normalized color distance of the estimated background (0-1).
	BackgroundTolerance float64 `mapstructure:"background_tolerance" json:"background_tolerance"`

	// SizeVariation adds deterministic per-dot radius jitter (0-1).
	SizeVariation float64 `mapstructure:"size_variation" json:"size_variation"`

	DefaultColor color.NRGBA `mapstructure:"-" json:"-"`
}

// DefaultDotConfig returns the stippling backend defaults.
func DefaultDotConfig() *DotConfig {
	return &DotConfig{
		DensityThreshold:    0.1,
		MinRadius:           0.5,
		MaxRadius:           3.0,
		PreserveColors:      true,
		AdaptiveSizing:      true,
		PoissonDisk:         true,
		BackgroundTolerance: 0.1,
		DefaultColor:        color.NRGBA{A: 255},
	}
}

// Preset names a fixed hand-drawn parameter triple.
type Preset string

// Supported hand-drawn presets, from no enhancement to heavy sketchiness.
const (
	PresetNone    Preset = "none"
	PresetSubtle  Preset = "subtle"
	PresetMedium  Preset = "medium"
	PresetStrong  Preset = "strong"
	PresetSketchy Preset = "sketchy"
)

// ArtisticConfig controls the optional hand-drawn enhancement stage.
// Negative override values mean "use the preset"; explicit non-negative
// values take precedence over the preset.
type ArtisticConfig struct {
	Preset          Preset  `mapstructure:"hand_drawn_preset" json:"hand_drawn_preset"`
	VariableWeights float64 `mapstructure:"variable_weights" json:"variable_weights"`
	TremorStrength  float64 `mapstructure:"tremor_strength" json:"tremor_strength"`
	Tapering        float64 `mapstructure:"tapering" json:"tapering"`
}

// DefaultArtisticConfig returns the enhancement defaults: no preset and
// every override unset.
func DefaultArtisticConfig() ArtisticConfig {
	return ArtisticConfig{
		Preset:          PresetNone,
		VariableWeights: -1,
		TremorStrength:  -1,
		Tapering:        -1,
	}
}

// resolve returns the effective parameter triple: the preset values with
// any explicit overrides applied on top.
func (a ArtisticConfig) resolve() (weights, tremor, taper float64) {
	switch a.Preset {
	case PresetSubtle:
		weights, tremor, taper = 0.15, 0.05, 0.1
	case PresetMedium:
		weights, tremor, taper = 0.3, 0.15, 0.3
	case PresetStrong:
		weights, tremor, taper = 0.6, 0.25, 0.5
	case PresetSketchy:
		weights, tremor, taper = 0.8, 0.4, 0.7
	}
	if a.VariableWeights >= 0 {
		weights = a.VariableWeights
	}
	if a.TremorStrength >= 0 {
		tremor = a.TremorStrength
	}
	if a.Tapering >= 0 {
		taper = a.Tapering
	}
	return weights, tremor, taper
}

// OutputConfig controls SVG serialization.
type OutputConfig struct {
	// Precision is the number of coordinate decimals (0-4).
	Precision int `mapstructure:"svg_precision" json:"svg_precision"`
	// OptimizeSVG groups primitives sharing style attributes and elides
	// redundant attributes.
	OptimizeSVG bool `mapstructure:"optimize_svg" json:"optimize_svg"`
	// IncludeMetadata embeds a generator comment in the document.
	IncludeMetadata bool `mapstructure:"include_metadata" json:"include_metadata"`
}

// PerformanceConfig bounds the work performed by one job.
type PerformanceConfig struct {
	// MaxProcessingTimeMs is a hint used to cap iteration counts; the
	// engine never self-terminates on wall-clock time.
	MaxProcessingTimeMs int64 `mapstructure:"max_processing_time_ms" json:"max_processing_time_ms"`
	// ThreadCount sizes the worker pool for data-parallel phases.
	// Zero means all available CPUs.
	ThreadCount int `mapstructure:"thread_count" json:"thread_count"`
	// MaxImageSize caps the long edge in pixels; larger inputs are
	// downscaled during preprocessing.
	MaxImageSize int `mapstructure:"max_image_size" json:"max_image_size"`
}

// DefaultConfig returns a fully populated configuration for the given
// backend with every parameter at its documented default.
func DefaultConfig(backend Backend) *Config {
	cfg := &Config{
		Backend:        backend,
		Detail:         0.5,
		StrokeWidth:    1.2,
		NoiseFiltering: false,
		Artistic:       DefaultArtisticConfig(),
		Output: OutputConfig{
			Precision:   2,
			OptimizeSVG: true,
		},
		Performance: PerformanceConfig{
			MaxProcessingTimeMs: 1500,
			MaxImageSize:        2048,
		},
		Seed: 42,
	}
	switch backend {
	case BackendEdge:
		cfg.Edge = DefaultEdgeConfig()
	case BackendCenterline:
		cfg.Centerline = DefaultCenterlineConfig()
	case BackendSuperpixel:
		cfg.Superpixel = DefaultSuperpixelConfig()
	case BackendDots:
		cfg.Dots = DefaultDotConfig()
	}
	return cfg
}

// Validate checks every range and dependency constraint, collecting all
// violations into a single *ConfigError instead of failing on the first.
func (c *Config) Validate() error {
	var violations []FieldError
	add := func(field, format string, args ...any) {
		violations = append(violations, FieldError{Field: field, Reason: fmt.Sprintf(format, args...)})
	}

	if c.Detail < 0 || c.Detail > 1 {
		add("detail", "must be in [0,1], got %g", c.Detail)
	}
	if c.StrokeWidth < 0.1 || c.StrokeWidth > 10 {
		add("stroke_width", "must be in [0.1,10], got %g", c.StrokeWidth)
	}

	active := 0
	for _, ok := range []bool{c.Edge != nil, c.Centerline != nil, c.Superpixel != nil, c.Dots != nil} {
		if ok {
			active++
		}
	}
	if active != 1 {
		add("backend", "exactly one backend sub-config must be set, got %d", active)
	}

	switch c.Backend {
	case BackendEdge:
		if c.Edge == nil {
			add("edge", "backend is %q but edge config is nil", c.Backend)
		} else {
			c.validateEdge(add)
		}
	case BackendCenterline:
		if c.Centerline == nil {
			add("centerline", "backend is %q but centerline config is nil", c.Backend)
		} else {
			c.validateCenterline(add)
		}
	case BackendSuperpixel:
		if c.Superpixel == nil {
			add("superpixel", "backend is %q but superpixel config is nil", c.Backend)
		} else {
			c.validateSuperpixel(add)
		}
	case BackendDots:
		if c.Dots == nil {
			add("dots", "backend is %q but dots config is nil", c.Backend)
		} else {
			c.validateDots(add)
		}
	default:
		add("backend", "unknown backend %d", int(c.Backend))
	}

	switch c.Artistic.Preset {
	case PresetNone, PresetSubtle, PresetMedium, PresetStrong, PresetSketchy:
	default:
		add("hand_drawn_preset", "unknown preset %q", c.Artistic.Preset)
	}
	if w := c.Artistic.VariableWeights; w > 1 {
		add("variable_weights", "must be in [0,1], got %g", w)
	}
	if t := c.Artistic.TremorStrength; t > 0.5 {
		add("tremor_strength", "must be in [0,0.5], got %g", t)
	}
	if t := c.Artistic.Tapering; t > 1 {
		add("tapering", "must be in [0,1], got %g", t)
	}

	if p := c.Output.Precision; p < 0 || p > 4 {
		add("svg_precision", "must be in [0,4], got %d", p)
	}
	if n := c.Performance.ThreadCount; n < 0 {
		add("thread_count", "must be >= 0, got %d", n)
	}
	if s := c.Performance.MaxImageSize; s < 0 {
		add("max_image_size", "must be >= 0, got %d", s)
	}

	if len(violations) > 0 {
		return &ConfigError{Violations: violations}
	}
	return nil
}

func (c *Config) validateEdge(add func(string, string, ...any)) {
	e := c.Edge
	if e.EnableBezierFitting && !e.EnableFlowTracing {
		add("enable_bezier_fitting", "requires enable_flow_tracing")
	}
	if e.EnableETFFDoG && !e.EnableFlowTracing {
		add("enable_etf_fdog", "requires enable_flow_tracing")
	}
	if e.ETFRadius < 1 || e.ETFRadius > 16 {
		add("etf_radius", "must be in [1,16], got %d", e.ETFRadius)
	}
	if e.ETFIterations < 1 || e.ETFIterations > 16 {
		add("etf_iterations", "must be in [1,16], got %d", e.ETFIterations)
	}
	if e.TraceMaxGap < 0 {
		add("trace_max_gap", "must be >= 0, got %d", e.TraceMaxGap)
	}
	if e.TraceMaxLength < 2 {
		add("trace_max_len", "must be >= 2, got %d", e.TraceMaxLength)
	}
	if e.FitMaxError <= 0 {
		add("fit_max_err", "must be > 0, got %g", e.FitMaxError)
	}
	if d := e.ConservativeDetail; d < 0 || d > 1 {
		add("conservative_detail", "must be in [0,1], got %g", d)
	}
	if d := e.AggressiveDetail; d < 0 || d > 1 {
		add("aggressive_detail", "must be in [0,1], got %g", d)
	}
}

func (c *Config) validateCenterline(add func(string, string, ...any)) {
	cl := c.Centerline
	if cl.WindowSize < 15 || cl.WindowSize > 50 {
		add("window_size", "must be in [15,50], got %d", cl.WindowSize)
	}
	if cl.SensitivityK < 0.1 || cl.SensitivityK > 1.0 {
		add("sensitivity_k", "must be in [0.1,1.0], got %g", cl.SensitivityK)
	}
	if cl.MinBranchLength < 4 || cl.MinBranchLength > 24 {
		add("min_branch_length", "must be in [4,24], got %g", cl.MinBranchLength)
	}
	if cl.SimplifyEpsilon < 0.5 || cl.SimplifyEpsilon > 3.0 {
		add("douglas_peucker_epsilon", "must be in [0.5,3.0], got %g", cl.SimplifyEpsilon)
	}
	if cl.WidthModulation && cl.WidthMin >= cl.WidthMax {
		add("width_min", "must be < width_max, got [%g,%g]", cl.WidthMin, cl.WidthMax)
	}
}

func (c *Config) validateSuperpixel(add func(string, string, ...any)) {
	sp := c.Superpixel
	if sp.NumSuperpixels != 0 && (sp.NumSuperpixels < 20 || sp.NumSuperpixels > 1000) {
		add("num_superpixels", "must be 0 or in [20,1000], got %d", sp.NumSuperpixels)
	}
	if sp.Compactness < 1 || sp.Compactness > 50 {
		add("compactness", "must be in [1,50], got %g", sp.Compactness)
	}
	if sp.Iterations < 5 || sp.Iterations > 15 {
		add("slic_iterations", "must be in [5,15], got %d", sp.Iterations)
	}
	if !sp.FillRegions && !sp.StrokeRegions {
		add("fill_regions", "at least one of fill_regions/stroke_regions must be set")
	}
	if sp.SimplifyBoundaries && (sp.BoundaryEpsilon < 0.5 || sp.BoundaryEpsilon > 3.0) {
		add("boundary_epsilon", "must be in [0.5,3.0], got %g", sp.BoundaryEpsilon)
	}
}

func (c *Config) validateDots(add func(string, string, ...any)) {
	d := c.Dots
	if d.DensityThreshold < 0 || d.DensityThreshold > 1 {
		add("dot_density_threshold", "must be in [0,1], got %g", d.DensityThreshold)
	}
	if d.MinRadius <= 0 {
		add("min_radius", "must be > 0, got %g", d.MinRadius)
	}
	if d.MinRadius >= d.MaxRadius {
		add("min_radius", "must be < max_radius, got [%g,%g]", d.MinRadius, d.MaxRadius)
	}
	if d.BackgroundTolerance < 0 || d.BackgroundTolerance > 1 {
		add("background_tolerance", "must be in [0,1], got %g", d.BackgroundTolerance)
	}
	if d.SizeVariation < 0 || d.SizeVariation > 1 {
		add("size_variation", "must be in [0,1], got %g", d.SizeVariation)
	}
}

// Thresholds are the per-job tuning values derived from the global detail
// knob and the working image size. The mapping is a tunable default, not a
// contract; it is exposed so it can be tested and adjusted independently.
type Thresholds struct {
	// DPEpsilon is the Douglas-Peucker tolerance in pixels.
	DPEpsilon float64
	// EdgeHigh and EdgeLow are the hysteresis thresholds on the
	// normalized gradient magnitude.
	EdgeHigh, EdgeLow float64
	// MinStrokeLength prunes edge polylines shorter than this many pixels.
	MinStrokeLength float64
	// MinBranchLength prunes skeleton branches shorter than this.
	MinBranchLength float64
	// SLICCellSize is the target superpixel area in pixels.
	SLICCellSize float64
	// Diagonal is the working image diagonal in pixels.
	Diagonal float64
}

// DetailThresholds maps the 0-1 detail knob to concrete tuning values for
// an image of the given size. Higher detail lowers the edge thresholds and
// shrinks the simplification tolerance.
func DetailThresholds(detail float64, width, height int) Thresholds {
	detail = clamp(detail, 0, 1)
	diag := math.Sqrt(float64(width*width + height*height))

	return Thresholds{
		DPEpsilon:       clamp((0.003+0.012*(1-detail))*diag, 0.003*diag, 0.015*diag),
		EdgeHigh:        0.35 - 0.20*detail,
		EdgeLow:         0.4 * (0.35 - 0.20*detail),
		MinStrokeLength: 10 + 40*(1-detail),
		MinBranchLength: 12 + 36*(1-detail),
		SLICCellSize:    clamp(3000-2400*detail, 600, 3000),
		Diagonal:        diag,
	}
}

// SuperpixelCountForDetail is the default detail to cluster-count mapping,
// a deliberately simple linear ramp over the documented [20,1000] range.
func SuperpixelCountForDetail(detail float64) int {
	detail = clamp(detail, 0, 1)
	return 20 + int(math.Round(detail*280))
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
