package domain

// ProcessingLogBackend selects where stage runs are recorded.
type ProcessingLogBackend string

// Available processing log backends.
const (
	// ProcessingLogSQLite persists runs in a local SQLite database.
	ProcessingLogSQLite ProcessingLogBackend = "sqlite"

	// ProcessingLogMemory keeps runs in memory for the process lifetime.
	ProcessingLogMemory ProcessingLogBackend = "memory"
)

// IsValid returns true if the backend is recognised.
func (b ProcessingLogBackend) IsValid() bool {
	return b == ProcessingLogSQLite || b == ProcessingLogMemory
}

// WorkspaceSettings locates the layout-parser output and source PDFs.
type WorkspaceSettings struct {
	// Root holds one directory per document with its layout JSON files.
	Root string `validate:"required"`

	// PDFStore holds <doc_id>.pdf files referenced by pdf_path.
	PDFStore string
}

// OutputSettings locates canonical artifacts.
type OutputSettings struct {
	// Dir holds one <doc_id>.json artifact per document.
	Dir string `validate:"required"`
}

// MergeSettings tunes the fragment merger.
type MergeSettings struct {
	// CJKJoinWithoutSpace joins Han-to-Han fragment boundaries with no space.
	CJKJoinWithoutSpace bool
}

// RegionSettings tunes the region divider.
type RegionSettings struct {
	// MinScanOffset is the smallest element index at which a body
	// opener may be accepted.
	MinScanOffset int `validate:"gte=0"`

	// TOCRepeat prefers a later repeat of a heading listed in a
	// table of contents over the listing itself.
	TOCRepeat bool
}

// BatchSettings tunes multi-document runs.
type BatchSettings struct {
	// Workers is the number of documents processed concurrently.
	Workers int `validate:"min=1,max=64"`

	// RatePerSecond limits document starts per second; 0 is unlimited.
	RatePerSecond float64 `validate:"gte=0"`

	// SkipExisting skips extraction when an artifact already exists.
	// When false every extraction behaves as forced.
	SkipExisting bool
}

// StorageSettings selects the processing log backend.
type StorageSettings struct {
	ProcessingLog ProcessingLogBackend `validate:"oneof=sqlite memory"`

	// DataDir holds the SQLite database. Empty uses ~/.docstruct/data.
	DataDir string
}

// KafkaSettings configures stage event publishing.
type KafkaSettings struct {
	Enabled bool
	Brokers []string `validate:"required_if=Enabled true,dive,hostname_port"`
	Topic   string   `validate:"required_if=Enabled true"`
}

// MinioSettings configures fetching layout output from object storage.
type MinioSettings struct {
	Enabled   bool
	Endpoint  string `validate:"required_if=Enabled true"`
	AccessKey string
	SecretKey string
	Bucket    string `validate:"required_if=Enabled true"`
	UseSSL    bool
	Prefix    string
}

// Settings is the full application configuration.
type Settings struct {
	Workspace WorkspaceSettings
	Output    OutputSettings
	Merge     MergeSettings
	Regions   RegionSettings
	Batch     BatchSettings
	Storage   StorageSettings
	Kafka     KafkaSettings
	Minio     MinioSettings
	Pipeline  PipelineConfig
}

// DefaultSettings returns settings that work against a local workspace.
func DefaultSettings() Settings {
	return Settings{
		Workspace: WorkspaceSettings{
			Root:     "./data/mineru_output",
			PDFStore: "./data/pdf_store",
		},
		Output: OutputSettings{
			Dir: "./data/structured",
		},
		Merge: MergeSettings{
			CJKJoinWithoutSpace: true,
		},
		Regions: RegionSettings{
			MinScanOffset: 0,
			TOCRepeat:     true,
		},
		Batch: BatchSettings{
			Workers:      4,
			SkipExisting: true,
		},
		Storage: StorageSettings{
			ProcessingLog: ProcessingLogSQLite,
		},
		Kafka: KafkaSettings{
			Topic: "docstruct.stages",
		},
		Pipeline: DefaultPipelineConfig(),
	}
}

// PipelineConfig holds the stage pipeline configuration.
// Uses generic map-based config so new stages can be added
// without modifying this struct.
type PipelineConfig struct {
	// Stages is the ordered list of stage names to run after extraction.
	Stages []string

	// StageConfigs holds per-stage configuration as generic maps.
	StageConfigs map[string]map[string]any
}

// GetStageConfig returns config for a specific stage, or nil if not set.
func (c *PipelineConfig) GetStageConfig(name string) map[string]any {
	if c.StageConfigs == nil {
		return nil
	}
	return c.StageConfigs[name]
}

// DefaultPipelineConfig returns the default pipeline configuration.
func DefaultPipelineConfig() PipelineConfig {
	return PipelineConfig{
		Stages: []string{"merge", "divide"},
	}
}
