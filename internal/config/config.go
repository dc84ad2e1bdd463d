// Package config handles loading and saving of the converter settings.
package config

// Config holds all converter settings.
type Config struct {
	Mesh     MeshConfig     `yaml:"mesh"`
	Material MaterialConfig `yaml:"material"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// MeshConfig holds mesh import settings.
type MeshConfig struct {
	FlipTexcoordV    bool `yaml:"flip_texcoord_v"`
	GenerateTangents bool `yaml:"generate_tangents"`
}

// MaterialConfig holds material import settings.
type MaterialConfig struct {
	GenerateAssignments bool   `yaml:"generate_assignments"`
	FullDefinitions     bool   `yaml:"full_definitions"`
	ExtractImages       bool   `yaml:"extract_images"`
	ImageDir            string `yaml:"image_dir"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// Default returns a Config with the default settings.
func Default() *Config {
	return &Config{
		Mesh: MeshConfig{
			FlipTexcoordV:    false,
			GenerateTangents: true,
		},
		Material: MaterialConfig{
			GenerateAssignments: true,
			FullDefinitions:     false,
			ExtractImages:       false,
			ImageDir:            "images",
		},
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
	}
}

// ImageDir returns the directory embedded images are extracted to, or an empty
// string when extraction is off.
func (c *Config) ImageDir() string {
	if !c.Material.ExtractImages {
		return ""
	}
	return c.Material.ImageDir
}
