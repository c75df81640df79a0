package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/ppiankov/lagna/internal/model"
)

// configCmd represents the config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage lagna configuration",
	Long: `Manage lagna configuration files and settings.

Configuration hierarchy (highest to lowest priority):
1. CLI flags
2. Environment variables (LAGNA_*, e.g. LAGNA_CHART_AYANAMSA=raman)
3. Config file (~/.lagna/config.yaml)
4. Defaults`,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	Long:  `Display the effective configuration after merging defaults, config file, env vars and flags.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		if configFile := viper.ConfigFileUsed(); configFile != "" {
			fmt.Fprintf(os.Stderr, "Configuration file: %s\n\n", configFile)
		} else {
			fmt.Fprintf(os.Stderr, "No configuration file found (using defaults)\n\n")
		}

		yamlData, err := yaml.Marshal(cfg)
		if err != nil {
			return fmt.Errorf("error marshaling config: %w", err)
		}
		fmt.Print(string(yamlData))
		return nil
	},
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize default configuration file",
	Long:  `Create a default configuration file at ~/.lagna/config.yaml with all available options documented.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("error finding home directory: %w", err)
		}

		configDir := filepath.Join(home, ".lagna")
		configPath := filepath.Join(configDir, "config.yaml")

		if _, err := os.Stat(configPath); err == nil {
			return fmt.Errorf("config file already exists: %s\nUse 'lagna config show' to view it, or delete it first to recreate", configPath)
		}
		if err := os.MkdirAll(configDir, 0755); err != nil {
			return fmt.Errorf("error creating config directory: %w", err)
		}

		data, err := defaultConfigFile()
		if err != nil {
			return err
		}
		if err := os.WriteFile(configPath, data, 0644); err != nil {
			return fmt.Errorf("error writing config: %w", err)
		}

		fmt.Printf("✓ Created default configuration: %s\n", configPath)
		fmt.Printf("\nTo view the configuration:\n")
		fmt.Printf("  lagna config show\n")
		fmt.Printf("\nTo customize, edit the file with your preferred editor:\n")
		fmt.Printf("  $EDITOR %s\n\n", configPath)
		return nil
	},
}

// configDocs annotates each top-level section of the generated file
var configDocs = map[string]string{
	"chart": "Named chart choices. ayanamsa: lahiri, raman, krishnamurti (kp) or custom:<degrees at J2000>.\n" +
		"house_system: whole_sign, equal, porphyry, placidus. node_mode: mean or true.\n" +
		"division: D1, D2, D3, D4, D7, D9, D10, D12, D30, D60.\n" +
		"fallback_whole_sign: rebuild in whole sign when the house system is undefined (e.g. placidus above 66.5 degrees).",
	"rectification": "Candidate grid and confidence engine. Confidence is 0-100.\n" +
		"event_orb: time the sensitive point needs to reach a reported transit (e.g. 1m).",
	"questions":     "Adaptive question selector. min_gain is in nats.",
	"concurrency":   "Workers used to build candidate grids and rank questions.",
	"cache":         "Snapshot memoization. An empty dir keeps the cache in memory only.",
	"session":       "Session idle expiry and evidence submission rate.",
	"logging":       "level: debug, info, warn, error. format: console, json.",
}

// defaultConfigFile renders the defaults as YAML with a comment above each section
func defaultConfigFile() ([]byte, error) {
	var doc yaml.Node
	data, err := yaml.Marshal(model.DefaultConfig())
	if err != nil {
		return nil, fmt.Errorf("error marshaling config: %w", err)
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("error marshaling config: %w", err)
	}

	root := doc.Content[0]
	for i := 0; i+1 < len(root.Content); i += 2 {
		key := root.Content[i]
		if c, ok := configDocs[key.Value]; ok {
			key.HeadComment = comment(c)
		}
	}
	doc.HeadComment = comment("lagna configuration file\n\n" +
		"Configuration hierarchy (highest to lowest priority):\n" +
		"  1. CLI flags\n" +
		"  2. Environment variables (LAGNA_*)\n" +
		"  3. This config file\n" +
		"  4. Built-in defaults")

	out, err := yaml.Marshal(&doc)
	if err != nil {
		return nil, fmt.Errorf("error marshaling config: %w", err)
	}
	return out, nil
}

func comment(text string) string {
	lines := strings.Split(text, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimRight("# "+l, " ")
	}
	return strings.Join(lines, "\n")
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configInitCmd)
}
