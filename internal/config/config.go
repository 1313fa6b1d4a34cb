// Package config loads the engine's configuration: defaults, then an
// optional YAML file, then environment-variable overrides — the same layering
// the teacher's command-line tools use for their connection settings.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"fsweatherbridge/internal/combiner"
	"fsweatherbridge/internal/smoother"
	"fsweatherbridge/internal/station"
)

// EngineConfig is the full recognized option set from spec §6.
type EngineConfig struct {
	CombiningMode             combiner.Mode           `yaml:"combining_mode"`
	TafFallbackStaleSeconds   int                     `yaml:"taf_fallback_stale_seconds"`
	TransitionMode            smoother.TransitionMode `yaml:"transition_mode"`
	TransitionIntervalSeconds float64                 `yaml:"transition_interval_seconds"`

	MaxWindDirChangeDeg   float64 `yaml:"max_wind_dir_change_deg"`
	MaxWindSpeedChangeKt  float64 `yaml:"max_wind_speed_change_kt"`
	MaxQNHChangeHpa       float64 `yaml:"max_qnh_change_hpa"`
	MaxVisibilityChangeSM float64 `yaml:"max_visibility_change"`

	VisibilityStepM float64 `yaml:"visibility_step_m"`
	WindSpeedStepKt float64 `yaml:"wind_speed_step_kt"`
	WindDirStepDeg  float64 `yaml:"wind_dir_step_deg"`
	QNHStepHpa      float64 `yaml:"qnh_step_hpa"`

	CloudChangeThresholdFt float64 `yaml:"cloud_change_threshold"`
	ApproachFreezeAltFt    float64 `yaml:"approach_freeze_alt_ft"`

	BigChangeWindDeg      float64 `yaml:"big_change_wind_deg"`
	BigChangeWindSpeedKt  float64 `yaml:"big_change_wind_speed_kt"`
	BigChangeQNHHpa       float64 `yaml:"big_change_qnh_hpa"`
	BigChangeVisibilityNM float64 `yaml:"big_change_visibility_nm"`

	RadiusNM         float64 `yaml:"radius_nm"`
	MaxStations      int     `yaml:"max_stations"`
	FallbackToGlobal bool    `yaml:"fallback_to_global"`

	TickIntervalSeconds float64 `yaml:"tick_interval_seconds"`
	FetchTimeoutSeconds float64 `yaml:"fetch_timeout_seconds"`
}

// Defaults returns spec §6's documented defaults.
func Defaults() EngineConfig {
	sm := smoother.DefaultConfig()
	return EngineConfig{
		CombiningMode:             combiner.ModeMetarTafAssist,
		TafFallbackStaleSeconds:   300,
		TransitionMode:            sm.TransitionMode,
		TransitionIntervalSeconds: sm.TransitionIntervalSeconds,

		MaxWindDirChangeDeg:   sm.MaxWindDirChangeDeg,
		MaxWindSpeedChangeKt:  sm.MaxWindSpeedChangeKt,
		MaxQNHChangeHpa:       sm.MaxQNHChangeHpa,
		MaxVisibilityChangeSM: sm.MaxVisibilityChangeSM,

		VisibilityStepM: sm.VisibilityStepM,
		WindSpeedStepKt: sm.WindSpeedStepKt,
		WindDirStepDeg:  sm.WindDirStepDeg,
		QNHStepHpa:      sm.QNHStepHpa,

		CloudChangeThresholdFt: sm.CloudChangeThresholdFt,
		ApproachFreezeAltFt:    sm.ApproachFreezeAltFt,

		BigChangeWindDeg:      sm.BigChangeWindDirDeg,
		BigChangeWindSpeedKt:  sm.BigChangeWindSpeedKt,
		BigChangeQNHHpa:       sm.BigChangeQNHHpa,
		BigChangeVisibilityNM: sm.BigChangeVisibilityNM,

		RadiusNM:         150,
		MaxStations:      5,
		FallbackToGlobal: true,

		TickIntervalSeconds: 1,
		FetchTimeoutSeconds: 10,
	}
}

// Load builds a config by layering Defaults(), an optional YAML file at
// path (skipped if path is empty or the file is absent), then environment
// variable overrides (WXBRIDGE_* prefixed, mirroring the teacher's
// envOrDefault convention), then validates the result.
func Load(path string) (EngineConfig, error) {
	cfg := Defaults()

	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return EngineConfig{}, fmt.Errorf("config: read %s: %w", path, err)
			}
		} else if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return EngineConfig{}, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}

	applyEnvOverrides(&cfg)

	if err := cfg.Validate(); err != nil {
		return EngineConfig{}, err
	}
	return cfg, nil
}

func applyEnvOverrides(cfg *EngineConfig) {
	if v := os.Getenv("WXBRIDGE_COMBINING_MODE"); v != "" {
		cfg.CombiningMode = combiner.Mode(v)
	}
	if v := os.Getenv("WXBRIDGE_TRANSITION_MODE"); v != "" {
		cfg.TransitionMode = smoother.TransitionMode(v)
	}
	if v, ok := envFloat("WXBRIDGE_RADIUS_NM"); ok {
		cfg.RadiusNM = v
	}
	if v, ok := envInt("WXBRIDGE_MAX_STATIONS"); ok {
		cfg.MaxStations = v
	}
	if v, ok := envBool("WXBRIDGE_FALLBACK_TO_GLOBAL"); ok {
		cfg.FallbackToGlobal = v
	}
	if v, ok := envFloat("WXBRIDGE_TICK_INTERVAL_SECONDS"); ok {
		cfg.TickIntervalSeconds = v
	}
	if v, ok := envFloat("WXBRIDGE_APPROACH_FREEZE_ALT_FT"); ok {
		cfg.ApproachFreezeAltFt = v
	}
}

func envFloat(key string) (float64, bool) {
	v := os.Getenv(key)
	if v == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

func envInt(key string) (int, bool) {
	v := os.Getenv(key)
	if v == "" {
		return 0, false
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return 0, false
	}
	return i, true
}

func envBool(key string) (bool, bool) {
	v := os.Getenv(key)
	if v == "" {
		return false, false
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, false
	}
	return b, true
}

// Validate aggregates every violation into a single diagnostic rather than
// failing on the first (spec §7: configuration errors are rejected at load
// with a diagnostic; the engine never starts with a bad config).
func (c EngineConfig) Validate() error {
	var problems []string

	switch c.CombiningMode {
	case combiner.ModeMetarOnly, combiner.ModeMetarTafFallback, combiner.ModeMetarTafAssist:
	default:
		problems = append(problems, fmt.Sprintf("combining_mode: unrecognized value %q", c.CombiningMode))
	}

	switch c.TransitionMode {
	case smoother.TransitionStepLimited, smoother.TransitionTimeBased:
	default:
		problems = append(problems, fmt.Sprintf("transition_mode: unrecognized value %q", c.TransitionMode))
	}

	if c.TransitionMode == smoother.TransitionTimeBased && c.TransitionIntervalSeconds <= 0 {
		problems = append(problems, "transition_interval_seconds: must be > 0 in time_based mode")
	}
	if c.RadiusNM <= 0 {
		problems = append(problems, "radius_nm: must be > 0")
	}
	if c.MaxStations <= 0 {
		problems = append(problems, "max_stations: must be > 0")
	}
	if c.TickIntervalSeconds <= 0 {
		problems = append(problems, "tick_interval_seconds: must be > 0")
	}
	if c.FetchTimeoutSeconds <= 0 {
		problems = append(problems, "fetch_timeout_seconds: must be > 0")
	}
	if c.ApproachFreezeAltFt < 0 {
		problems = append(problems, "approach_freeze_alt_ft: must be >= 0")
	}
	if c.CloudChangeThresholdFt <= 0 {
		problems = append(problems, "cloud_change_threshold: must be > 0")
	}

	if len(problems) > 0 {
		return fmt.Errorf("config: invalid configuration:\n  - %s", strings.Join(problems, "\n  - "))
	}
	return nil
}

// SmootherConfig projects the subset of EngineConfig the smoother package
// needs into a smoother.Config.
func (c EngineConfig) SmootherConfig() smoother.Config {
	return smoother.Config{
		TransitionMode:            c.TransitionMode,
		TransitionIntervalSeconds: c.TransitionIntervalSeconds,
		MaxWindDirChangeDeg:       c.MaxWindDirChangeDeg,
		MaxWindSpeedChangeKt:      c.MaxWindSpeedChangeKt,
		MaxQNHChangeHpa:           c.MaxQNHChangeHpa,
		MaxVisibilityChangeSM:     c.MaxVisibilityChangeSM,
		WindDirStepDeg:            c.WindDirStepDeg,
		WindSpeedStepKt:           c.WindSpeedStepKt,
		QNHStepHpa:                c.QNHStepHpa,
		VisibilityStepM:           c.VisibilityStepM,
		CloudChangeThresholdFt:    c.CloudChangeThresholdFt,
		ApproachFreezeAltFt:       c.ApproachFreezeAltFt,
		BigChangeWindDirDeg:       c.BigChangeWindDeg,
		BigChangeWindSpeedKt:      c.BigChangeWindSpeedKt,
		BigChangeQNHHpa:           c.BigChangeQNHHpa,
		BigChangeVisibilityNM:     c.BigChangeVisibilityNM,
		VeryBigWindSpeedKt:        smoother.DefaultConfig().VeryBigWindSpeedKt,
		VeryBigVisibilityNM:       smoother.DefaultConfig().VeryBigVisibilityNM,
	}
}

// SelectorConfig projects the selector's subset of EngineConfig.
func (c EngineConfig) SelectorConfig() station.SelectorConfig {
	return station.SelectorConfig{
		RadiusNM:         c.RadiusNM,
		MaxStations:      c.MaxStations,
		FallbackToGlobal: c.FallbackToGlobal,
	}
}
