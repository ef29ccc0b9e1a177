package config

import (
	"fmt"

	"github.com/spf13/viper"
)

// FileName is the configuration file looked up in the config directory.
const FileName = "paperload.cfg.json"

// StorageConfig holds working-file settings
type StorageConfig struct {
	Type           string `json:"type" mapstructure:"type"`
	UnprocessedDir string `json:"unprocessedDir" mapstructure:"unprocessedDir"`
	ProcessedDir   string `json:"processedDir" mapstructure:"processedDir"`
	Compress       bool   `json:"compress" mapstructure:"compress"`
}

// ExportConfig holds report destinations and the fixed values stamped into them
type ExportConfig struct {
	RosterDir         string `json:"rosterDir" mapstructure:"rosterDir"`
	HalfSheetDir      string `json:"halfSheetDir" mapstructure:"halfSheetDir"`
	HalfSheetTemplate string `json:"halfSheetTemplate" mapstructure:"halfSheetTemplate"`
	Wing              string `json:"wing" mapstructure:"wing"`
	Range             string `json:"range" mapstructure:"range"`
}

// Load reads configuration from JSON file and sets default values.
// configDir is the directory containing the config file.
func Load(configDir string) error {
	SetDefaults()

	viper.SetConfigName(FileName)
	viper.AddConfigPath(configDir)
	viper.SetConfigType("json")

	err := viper.ReadInConfig()
	if err != nil {
		return fmt.Errorf("error reading config file: %w", err)
	}

	return nil
}

// SetDefaults registers every default without reading a file.
func SetDefaults() {
	viper.SetDefault("logLevel", "info")
	viper.SetDefault("logsDir", "./logs")

	viper.SetDefault("storage.type", "json")
	viper.SetDefault("storage.unprocessedDir", "./_LMT Files/Unprocessed")
	viper.SetDefault("storage.processedDir", "./_LMT Files/Processed")
	viper.SetDefault("storage.compress", false)

	viper.SetDefault("export.rosterDir", "./_RAMPOD Exports")
	viper.SetDefault("export.halfSheetDir", "./_NDCar Exports")
	viper.SetDefault("export.halfSheetTemplate", "./assets/HalfSheetTemplate.xlsx")
	viper.SetDefault("export.wing", "57 FW")
	viper.SetDefault("export.range", "NELLIS")

	viper.SetDefault("inventory.podSerials", []string{})
	viper.SetDefault("gate.scope", "open-mission")
}

// GetStorageConfig returns the working-file settings.
func GetStorageConfig() StorageConfig {
	return StorageConfig{
		Type:           viper.GetString("storage.type"),
		UnprocessedDir: viper.GetString("storage.unprocessedDir"),
		ProcessedDir:   viper.GetString("storage.processedDir"),
		Compress:       viper.GetBool("storage.compress"),
	}
}

// GetExportConfig returns the report settings.
func GetExportConfig() ExportConfig {
	return ExportConfig{
		RosterDir:         viper.GetString("export.rosterDir"),
		HalfSheetDir:      viper.GetString("export.halfSheetDir"),
		HalfSheetTemplate: viper.GetString("export.halfSheetTemplate"),
		Wing:              viper.GetString("export.wing"),
		Range:             viper.GetString("export.range"),
	}
}

// GetInventory returns the configured pod serials. Empty means the built-in inventory.
func GetInventory() []string {
	return viper.GetStringSlice("inventory.podSerials")
}

// GetString returns a string config value.
func GetString(key string) string {
	return viper.GetString(key)
}

// GetInt returns an int config value.
func GetInt(key string) int {
	return viper.GetInt(key)
}

// GetBool returns a bool config value.
func GetBool(key string) bool {
	return viper.GetBool(key)
}
