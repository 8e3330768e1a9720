package services

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/custodia-labs/docstruct/internal/core/domain"
	"github.com/custodia-labs/docstruct/internal/core/ports/driven"
	"github.com/custodia-labs/docstruct/internal/core/ports/driving"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// Config keys for settings storage.
//
//nolint:gosec // G101: These are config key names, not actual credentials.
const (
	keyWorkspaceRoot    = "workspace.root"
	keyWorkspacePDF     = "workspace.pdf_store"
	keyOutputDir        = "output.dir"
	keyMergeCJKJoin     = "merge.cjk_join_without_space"
	keyRegionsOffset    = "regions.min_scan_offset"
	keyRegionsTOCRepeat = "regions.toc_repeat"
	keyBatchWorkers     = "batch.workers"
	keyBatchRate        = "batch.rate_per_second"
	keyBatchSkip        = "batch.skip_existing"
	keyStorageLog       = "storage.processing_log"
	keyStorageDataDir   = "storage.data_dir"
	keyKafkaEnabled     = "kafka.enabled"
	keyKafkaBrokers     = "kafka.brokers"
	keyKafkaTopic       = "kafka.topic"
	keyMinioEnabled     = "minio.enabled"
	keyMinioEndpoint    = "minio.endpoint"
	keyMinioAccessKey   = "minio.access_key"
	keyMinioSecretKey   = "minio.secret_key"
	keyMinioBucket      = "minio.bucket"
	keyMinioUseSSL      = "minio.use_ssl"
	keyMinioPrefix      = "minio.prefix"
	keyPipelineStages   = "pipeline.stages"
)

// valueKind is the type a config key holds.
type valueKind int

const (
	kindString valueKind = iota
	kindInt
	kindFloat
	kindBool
	kindList
)

var keyKinds = map[string]valueKind{
	keyWorkspaceRoot:    kindString,
	keyWorkspacePDF:     kindString,
	keyOutputDir:        kindString,
	keyMergeCJKJoin:     kindBool,
	keyRegionsOffset:    kindInt,
	keyRegionsTOCRepeat: kindBool,
	keyBatchWorkers:     kindInt,
	keyBatchRate:        kindFloat,
	keyBatchSkip:        kindBool,
	keyStorageLog:       kindString,
	keyStorageDataDir:   kindString,
	keyKafkaEnabled:     kindBool,
	keyKafkaBrokers:     kindList,
	keyKafkaTopic:       kindString,
	keyMinioEnabled:     kindBool,
	keyMinioEndpoint:    kindString,
	keyMinioAccessKey:   kindString,
	keyMinioSecretKey:   kindString,
	keyMinioBucket:      kindString,
	keyMinioUseSSL:      kindBool,
	keyMinioPrefix:      kindString,
	keyPipelineStages:   kindList,
}

// stageConfigKeys are the per-stage overrides read from pipeline.<stage>.<key>.
var stageConfigKeys = map[string]valueKind{
	"cjk_join_without_space": kindBool,
	"min_scan_offset":        kindInt,
	"toc_repeat":             kindBool,
}

// SettingsService manages application settings.
type SettingsService struct {
	configStore driven.ConfigStore
	validate    *validator.Validate
}

// NewSettingsService creates a new settings service.
func NewSettingsService(configStore driven.ConfigStore) *SettingsService {
	return &SettingsService{
		configStore: configStore,
		validate:    validator.New(),
	}
}

// Get retrieves current application settings.
func (s *SettingsService) Get() (*domain.Settings, error) {
	return load(s.configStore), nil
}

// load builds settings from store, filling defaults for absent keys.
func load(store driven.ConfigStore) *domain.Settings {
	defaults := domain.DefaultSettings()

	settings := &domain.Settings{
		Workspace: domain.WorkspaceSettings{
			Root:     getString(store, keyWorkspaceRoot, defaults.Workspace.Root),
			PDFStore: getString(store, keyWorkspacePDF, defaults.Workspace.PDFStore),
		},
		Output: domain.OutputSettings{
			Dir: getString(store, keyOutputDir, defaults.Output.Dir),
		},
		Merge: domain.MergeSettings{
			CJKJoinWithoutSpace: getBool(store, keyMergeCJKJoin, defaults.Merge.CJKJoinWithoutSpace),
		},
		Regions: domain.RegionSettings{
			MinScanOffset: getInt(store, keyRegionsOffset, defaults.Regions.MinScanOffset),
			TOCRepeat:     getBool(store, keyRegionsTOCRepeat, defaults.Regions.TOCRepeat),
		},
		Batch: domain.BatchSettings{
			Workers:       getInt(store, keyBatchWorkers, defaults.Batch.Workers),
			RatePerSecond: getFloat(store, keyBatchRate, defaults.Batch.RatePerSecond),
			SkipExisting:  getBool(store, keyBatchSkip, defaults.Batch.SkipExisting),
		},
		Storage: domain.StorageSettings{
			ProcessingLog: domain.ProcessingLogBackend(getString(store, keyStorageLog, string(defaults.Storage.ProcessingLog))),
			DataDir:       store.GetString(keyStorageDataDir),
		},
		Kafka: domain.KafkaSettings{
			Enabled: store.GetBool(keyKafkaEnabled),
			Brokers: store.GetStringSlice(keyKafkaBrokers),
			Topic:   getString(store, keyKafkaTopic, defaults.Kafka.Topic),
		},
		Minio: domain.MinioSettings{
			Enabled:   store.GetBool(keyMinioEnabled),
			Endpoint:  store.GetString(keyMinioEndpoint),
			AccessKey: store.GetString(keyMinioAccessKey),
			SecretKey: store.GetString(keyMinioSecretKey),
			Bucket:    store.GetString(keyMinioBucket),
			UseSSL:    store.GetBool(keyMinioUseSSL),
			Prefix:    store.GetString(keyMinioPrefix),
		},
	}
	settings.Pipeline = pipelineConfig(store, settings)

	return settings
}

// Validate checks the current settings against their constraints.
func (s *SettingsService) Validate() error {
	settings, err := s.Get()
	if err != nil {
		return err
	}
	return s.validateSettings(settings)
}

func (s *SettingsService) validateSettings(settings *domain.Settings) error {
	err := s.validate.Struct(settings)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fieldMessage(fe))
	}
	return fmt.Errorf("%w: %s", domain.ErrInvalidInput, strings.Join(msgs, "; "))
}

// fieldMessage renders one validation failure using the config key
// spelling, e.g. "batch.workers must be at least 1".
func fieldMessage(fe validator.FieldError) string {
	field := configName(fe.Namespace())
	switch fe.Tag() {
	case "required", "required_if":
		return field + " is required"
	case "min", "gte":
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "max", "lte":
		return fmt.Sprintf("%s must be at most %s", field, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s]", field, fe.Param())
	case "hostname_port":
		return fmt.Sprintf("%s entry %q is not host:port", field, fe.Value())
	default:
		return fmt.Sprintf("%s failed %q", field, fe.Tag())
	}
}

// configName maps "Settings.Batch.RatePerSecond" to "batch.rate_per_second".
func configName(namespace string) string {
	parts := strings.Split(namespace, ".")
	if len(parts) > 1 {
		parts = parts[1:]
	}
	for i, p := range parts {
		if j := strings.IndexByte(p, '['); j >= 0 {
			p = p[:j]
		}
		parts[i] = snakeCase(p)
	}
	return strings.Join(parts, ".")
}

func snakeCase(s string) string {
	var b strings.Builder
	runes := []rune(s)
	for i, r := range runes {
		upper := r >= 'A' && r <= 'Z'
		if upper && i > 0 {
			prevLower := runes[i-1] >= 'a' && runes[i-1] <= 'z'
			nextLower := i+1 < len(runes) && runes[i+1] >= 'a' && runes[i+1] <= 'z'
			if prevLower || nextLower {
				b.WriteByte('_')
			}
		}
		if upper {
			r += 'a' - 'A'
		}
		b.WriteRune(r)
	}
	return b.String()
}

// Set converts value to the key's type, validates the resulting
// settings and only then stores it. String values are parsed, so CLI
// input like "8" or "true" works.
func (s *SettingsService) Set(key string, value any) error {
	kind, ok := kindFor(key)
	if !ok {
		return fmt.Errorf("%w: unknown setting %q", domain.ErrInvalidInput, key)
	}
	converted, err := convertValue(kind, value)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", domain.ErrInvalidInput, key, err)
	}

	candidate := load(pendingValue{ConfigStore: s.configStore, key: key, value: converted})
	if err := s.validateSettings(candidate); err != nil {
		return err
	}
	if err := s.configStore.Set(key, converted); err != nil {
		return fmt.Errorf("save %s: %w", key, err)
	}
	return nil
}

// GetDefaults returns default settings.
func (s *SettingsService) GetDefaults() domain.Settings {
	return domain.DefaultSettings()
}

// GetPipelineConfig returns the stage pipeline configuration.
func (s *SettingsService) GetPipelineConfig() domain.PipelineConfig {
	settings, err := s.Get()
	if err != nil {
		return domain.DefaultPipelineConfig()
	}
	return settings.Pipeline
}

// pipelineConfig folds the merge and regions sections into per-stage
// maps, then applies pipeline.<stage>.<key> overrides on top.
func pipelineConfig(store driven.ConfigStore, settings *domain.Settings) domain.PipelineConfig {
	cfg := domain.DefaultPipelineConfig()
	if stages := store.GetStringSlice(keyPipelineStages); len(stages) > 0 {
		cfg.Stages = stages
	}

	cfg.StageConfigs = map[string]map[string]any{
		"merge": {
			"cjk_join_without_space": settings.Merge.CJKJoinWithoutSpace,
		},
		"divide": {
			"min_scan_offset": settings.Regions.MinScanOffset,
			"toc_repeat":      settings.Regions.TOCRepeat,
		},
	}

	for _, name := range cfg.Stages {
		overrides := loadStageConfig(store, "pipeline."+name+".")
		if len(overrides) == 0 {
			continue
		}
		existing := cfg.StageConfigs[name]
		if existing == nil {
			existing = make(map[string]any)
		}
		for k, v := range overrides {
			existing[k] = v
		}
		cfg.StageConfigs[name] = existing
	}

	return cfg
}

// loadStageConfig loads config keys with a given prefix into a map.
func loadStageConfig(store driven.ConfigStore, prefix string) map[string]any {
	cfg := make(map[string]any)
	for key := range stageConfigKeys {
		if val, exists := store.Get(prefix + key); exists {
			cfg[key] = val
		}
	}
	return cfg
}

// Helpers for reading config with defaults.

func getString(store driven.ConfigStore, key, defaultVal string) string {
	val := store.GetString(key)
	if val == "" {
		return defaultVal
	}
	return val
}

func getInt(store driven.ConfigStore, key string, defaultVal int) int {
	if _, exists := store.Get(key); !exists {
		return defaultVal
	}
	return store.GetInt(key)
}

func getFloat(store driven.ConfigStore, key string, defaultVal float64) float64 {
	if _, exists := store.Get(key); !exists {
		return defaultVal
	}
	return store.GetFloat(key)
}

func getBool(store driven.ConfigStore, key string, defaultVal bool) bool {
	if _, exists := store.Get(key); !exists {
		return defaultVal
	}
	return store.GetBool(key)
}

// pendingValue overlays one converted value on a store so a change can
// be validated before it is persisted.
type pendingValue struct {
	driven.ConfigStore
	key   string
	value any
}

func (p pendingValue) Get(key string) (any, bool) {
	if key == p.key {
		return p.value, true
	}
	return p.ConfigStore.Get(key)
}

func (p pendingValue) GetString(key string) string {
	if key == p.key {
		s, _ := p.value.(string)
		return s
	}
	return p.ConfigStore.GetString(key)
}

func (p pendingValue) GetInt(key string) int {
	if key == p.key {
		n, _ := p.value.(int)
		return n
	}
	return p.ConfigStore.GetInt(key)
}

func (p pendingValue) GetFloat(key string) float64 {
	if key == p.key {
		f, _ := p.value.(float64)
		return f
	}
	return p.ConfigStore.GetFloat(key)
}

func (p pendingValue) GetBool(key string) bool {
	if key == p.key {
		b, _ := p.value.(bool)
		return b
	}
	return p.ConfigStore.GetBool(key)
}

func (p pendingValue) GetStringSlice(key string) []string {
	if key == p.key {
		items, _ := p.value.([]string)
		return items
	}
	return p.ConfigStore.GetStringSlice(key)
}

// SettingKeys returns every recognised top-level key.
func SettingKeys() []string {
	keys := make([]string, 0, len(keyKinds))
	for k := range keyKinds {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func kindFor(key string) (valueKind, bool) {
	if kind, ok := keyKinds[key]; ok {
		return kind, true
	}
	// pipeline.<stage>.<key>
	parts := strings.Split(key, ".")
	if len(parts) == 3 && parts[0] == "pipeline" && parts[1] != "" {
		kind, ok := stageConfigKeys[parts[2]]
		return kind, ok
	}
	return 0, false
}

func convertValue(kind valueKind, value any) (any, error) {
	str, isString := value.(string)
	switch kind {
	case kindString:
		if !isString {
			return nil, fmt.Errorf("expected a string, got %T", value)
		}
		return str, nil
	case kindInt:
		switch v := value.(type) {
		case int:
			return v, nil
		case int64:
			return int(v), nil
		case string:
			n, err := strconv.Atoi(strings.TrimSpace(v))
			if err != nil {
				return nil, fmt.Errorf("expected an integer, got %q", v)
			}
			return n, nil
		}
	case kindFloat:
		switch v := value.(type) {
		case float64:
			return v, nil
		case int:
			return float64(v), nil
		case string:
			f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
			if err != nil {
				return nil, fmt.Errorf("expected a number, got %q", v)
			}
			return f, nil
		}
	case kindBool:
		switch v := value.(type) {
		case bool:
			return v, nil
		case string:
			b, err := strconv.ParseBool(strings.TrimSpace(v))
			if err != nil {
				return nil, fmt.Errorf("expected true or false, got %q", v)
			}
			return b, nil
		}
	case kindList:
		switch v := value.(type) {
		case []string:
			return v, nil
		case string:
			var items []string
			for _, item := range strings.Split(v, ",") {
				if item = strings.TrimSpace(item); item != "" {
					items = append(items, item)
				}
			}
			return items, nil
		}
	}
	return nil, fmt.Errorf("unsupported value %T", value)
}
