package stages

import (
	"github.com/custodia-labs/docstruct/internal/core/ports/driven"
	"github.com/custodia-labs/docstruct/internal/stages/divider"
	"github.com/custodia-labs/docstruct/internal/stages/merger"
)

// RegisterDefaults registers all built-in stages with the registry.
func RegisterDefaults(r *Registry) {
	r.Register(merger.Name, buildMerger)
	r.Register(divider.Name, buildDivider)
}

// buildMerger creates the fragment merger from generic config.
// Supported config keys:
//   - cjk_join_without_space (bool): join Han fragments without a space (default: true)
func buildMerger(cfg map[string]any) (driven.Stage, error) {
	var opts []merger.Option
	if v, ok := getBoolFromConfig(cfg, "cjk_join_without_space"); ok {
		opts = append(opts, merger.WithCJKJoin(v))
	}
	return merger.New(opts...), nil
}

// buildDivider creates the region divider from generic config.
// Supported config keys:
//   - min_scan_offset (int): first element index a body opener may sit at (default: 0)
//   - toc_repeat (bool): prefer the repeat of a heading listed in the contents (default: true)
func buildDivider(cfg map[string]any) (driven.Stage, error) {
	var opts []divider.Option
	if offset := getIntFromConfig(cfg, "min_scan_offset"); offset > 0 {
		opts = append(opts, divider.WithMinScanOffset(offset))
	}
	if v, ok := getBoolFromConfig(cfg, "toc_repeat"); ok {
		opts = append(opts, divider.WithTOCRepeat(v))
	}
	return divider.New(opts...), nil
}

// getIntFromConfig safely extracts an int from generic config map.
// Handles int, int64, and float64 types that may come from TOML/JSON parsing.
func getIntFromConfig(cfg map[string]any, key string) int {
	val, ok := cfg[key]
	if !ok {
		return 0
	}

	switch v := val.(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	default:
		return 0
	}
}

func getBoolFromConfig(cfg map[string]any, key string) (value, ok bool) {
	switch v := cfg[key].(type) {
	case bool:
		return v, true
	case string:
		return v == "true", v == "true" || v == "false"
	default:
		return false, false
	}
}
