package cache

// Keyer generates cache keys.
type Keyer interface {
	// AnalysisKey identifies the analysis of a web with the given content
	// hash.
	AnalysisKey(graphHash string, opts AnalysisKeyOpts) string

	// ArtifactKey identifies a rendering of an analysis.
	ArtifactKey(analysisHash string, opts ArtifactKeyOpts) string
}

// AnalysisKeyOpts lists every option that changes an analysis.
type AnalysisKeyOpts struct {
	Seed           uint64  `json:"seed"`
	Epochs         int     `json:"epochs"`
	Epsilon        float64 `json:"epsilon"`
	Margin         float64 `json:"margin"`
	TrophicEpsilon float64 `json:"trophic_epsilon"`
	MaxIterations  int     `json:"max_iterations"`
}

// ArtifactKeyOpts lists every option that changes a rendering.
type ArtifactKeyOpts struct {
	Format    string  `json:"format"`
	Scale     float64 `json:"scale"`
	Labels    bool    `json:"labels"`
	Highlight bool    `json:"highlight"`
	Detailed  bool    `json:"detailed"`
}

// DefaultKeyer hashes inputs with SHA-256.
type DefaultKeyer struct{}

// NewDefaultKeyer returns the default keyer.
func NewDefaultKeyer() Keyer {
	return DefaultKeyer{}
}

// AnalysisKey returns "analysis:<sha256>".
func (DefaultKeyer) AnalysisKey(graphHash string, opts AnalysisKeyOpts) string {
	return hashKey("analysis", graphHash, opts)
}

// ArtifactKey returns "artifact:<sha256>".
func (DefaultKeyer) ArtifactKey(analysisHash string, opts ArtifactKeyOpts) string {
	return hashKey("artifact", analysisHash, opts)
}
