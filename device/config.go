package device

import (
	"bytes"
	"fmt"
	"os"

	"github.com/goccy/go-yaml"
)

// PageConfig holds page-device defaults loaded from a YAML file. Zero
// values mean "leave the interpreter default alone".
type PageConfig struct {
	OutputDevice string    `yaml:"output_device"`
	PageSize     []float64 `yaml:"page_size"`
	Resolution   []float64 `yaml:"resolution"`
	NumCopies    int       `yaml:"num_copies"`
	TextMode     string    `yaml:"text_mode"` // GlyphPaths or TextObjs
	LineWidthMin float64   `yaml:"line_width_min"`
}

// ParsePageConfig reads the optional defaults file. An empty path yields
// the zero config.
func ParsePageConfig(configFile string) (PageConfig, error) {
	if configFile == "" {
		return PageConfig{}, nil
	}
	buf, err := os.ReadFile(configFile)
	if err != nil {
		return PageConfig{}, err
	}
	return parsePageConfigFromBytes(buf)
}

func parsePageConfigFromBytes(buf []byte) (PageConfig, error) {
	var config PageConfig
	dec := yaml.NewDecoder(bytes.NewReader(buf), yaml.Strict())
	if err := dec.Decode(&config); err != nil {
		return PageConfig{}, fmt.Errorf("parsing page config: %w", err)
	}
	if config.TextMode != "" && config.TextMode != "GlyphPaths" && config.TextMode != "TextObjs" {
		return PageConfig{}, fmt.Errorf("bad text_mode %q", config.TextMode)
	}
	return config, nil
}
