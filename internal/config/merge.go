package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Top-level YAML config key names used for shallow merge.
const (
	keyUpload   = "upload"
	keyStore    = "store"
	keyInput    = "input"
	keySplit    = "split"
	keyStations = "stations"
	keyLogging  = "logging"
)

// knownTopLevelKeys lists the YAML keys that correspond to exported Config fields.
// Keys not in this list are silently ignored during merge.
//
//nolint:gochecknoglobals // Compile-time constant lookup table.
var knownTopLevelKeys = map[string]bool{
	keyUpload:   true,
	keyStore:    true,
	keyInput:    true,
	keySplit:    true,
	keyStations: true,
	keyLogging:  true,
}

// ShallowMergeYAML loads a YAML file and merges its top-level keys onto
// the target Config. Keys present in the overlay replace entire sections
// in the target, so a project file that sets only store.driver also resets
// the other store fields to their zero values. Keys absent in the overlay
// are left unchanged.
func ShallowMergeYAML(target *Config, overlayPath string) error {
	if target == nil {
		return errors.New("nil target *Config in ShallowMergeYAML")
	}

	data, err := os.ReadFile(overlayPath)
	if err != nil {
		return fmt.Errorf("reading overlay file %s: %w", overlayPath, err)
	}

	var overlay map[string]any
	if err = yaml.Unmarshal(data, &overlay); err != nil {
		return fmt.Errorf("parsing overlay YAML from %s: %w", overlayPath, err)
	}

	// Empty or comment-only file.
	if len(overlay) == 0 {
		return nil
	}

	for key, value := range overlay {
		if !knownTopLevelKeys[key] {
			continue
		}

		sectionBytes, marshalErr := yaml.Marshal(value)
		if marshalErr != nil {
			return fmt.Errorf("re-marshalling overlay section %q: %w", key, marshalErr)
		}

		if err = unmarshalSection(target, key, sectionBytes); err != nil {
			return fmt.Errorf("applying overlay section %q: %w", key, err)
		}
	}

	return nil
}

// unmarshalSection decodes one section into a fresh zero value and replaces
// the matching field of target.
func unmarshalSection(target *Config, key string, data []byte) error {
	switch key {
	case keyUpload:
		var v UploadConfig
		if err := yaml.Unmarshal(data, &v); err != nil {
			return err
		}
		target.Upload = v
	case keyStore:
		var v StoreConfig
		if err := yaml.Unmarshal(data, &v); err != nil {
			return err
		}
		target.Store = v
	case keyInput:
		var v InputConfig
		if err := yaml.Unmarshal(data, &v); err != nil {
			return err
		}
		target.Input = v
	case keySplit:
		var v SplitConfig
		if err := yaml.Unmarshal(data, &v); err != nil {
			return err
		}
		target.Split = v
	case keyStations:
		var v StationsConfig
		if err := yaml.Unmarshal(data, &v); err != nil {
			return err
		}
		target.Stations = v
	case keyLogging:
		var v LoggingConfig
		if err := yaml.Unmarshal(data, &v); err != nil {
			return err
		}
		target.Logging = v
	default:
		return fmt.Errorf("unknown config key: %s", key)
	}
	return nil
}
