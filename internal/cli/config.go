package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/pkoval/credence/internal/model"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage Credence configuration",
	Long: `Manage Credence configuration files and settings.

Configuration hierarchy (highest to lowest priority):
1. CLI flags
2. Environment variables (CREDENCE_*)
3. Config file (~/.credence/config.yaml)
4. Defaults`,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	Long:  `Display the configuration after applying the config file to the built-in defaults. CLI flags override at run time.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if configFile := viper.ConfigFileUsed(); configFile != "" {
			fmt.Fprintf(os.Stderr, "Configuration file: %s\n\n", configFile)
		} else {
			fmt.Fprintf(os.Stderr, "No configuration file found (using defaults)\n\n")
		}

		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		out, err := renderConfig(cfg)
		if err != nil {
			return err
		}
		fmt.Println(out)

		fmt.Println("# Hierarchy (highest to lowest priority):")
		fmt.Println("#   1. CLI flags")
		fmt.Println("#   2. Environment variables (CREDENCE_*, OPENAI_API_KEY, ANTHROPIC_API_KEY, OLLAMA_BASE_URL)")
		fmt.Println("#   3. Config file (~/.credence/config.yaml)")
		fmt.Println("#   4. Defaults")

		return nil
	},
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize default configuration file",
	Long:  `Create a default configuration file at ~/.credence/config.yaml with every section documented.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("find home directory: %w", err)
		}

		configDir := filepath.Join(home, ".credence")
		configPath := filepath.Join(configDir, "config.yaml")

		if _, err := os.Stat(configPath); err == nil {
			return fmt.Errorf("config file already exists: %s\nUse 'credence config show' to view it, or delete it first to recreate", configPath)
		}

		if err := os.MkdirAll(configDir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}

		out, err := renderConfig(model.DefaultConfig())
		if err != nil {
			return err
		}
		header := `# Credence configuration.
#
# Hierarchy (highest to lowest priority): CLI flags, CREDENCE_* environment
# variables, this file, built-in defaults.
#
# API keys belong in the environment, not here:
#   export OPENAI_API_KEY=sk-...
#   export ANTHROPIC_API_KEY=sk-ant-...
#   export OLLAMA_BASE_URL=http://localhost:11434

`
		if err := os.WriteFile(configPath, []byte(header+out), 0o644); err != nil {
			return fmt.Errorf("write config file: %w", err)
		}

		fmt.Printf("✓ Created default configuration: %s\n", configPath)
		fmt.Printf("\nTo view it:  credence config show\n")
		fmt.Printf("To edit it:  $EDITOR %s\n\n", configPath)

		return nil
	},
}

// renderConfig dumps the config section by section, each with a short
// explanatory comment, so the generated file is self-documenting.
func renderConfig(cfg *model.Config) (string, error) {
	sections := []struct {
		comment string
		body    map[string]any
	}{
		{"External reasoning provider: openai, anthropic, ollama, or empty to run formal-engine only.",
			map[string]any{"reasoner": cfg.Reasoner}},
		{"Aggregation arithmetic: evidence strength, minimum evidence, calibration and review tolerances.",
			map[string]any{"engine": cfg.Engine}},
		{"Entity resolution merge threshold.",
			map[string]any{"resolver": cfg.Resolver}},
		{"Predicate evidence-role table: weaker predicates and the stronger claims they support.",
			map[string]any{"roles": cfg.Roles}},
		{"Population base-rate priors per domain/predicate (empty = uniform prior).",
			map[string]any{"priors": cfg.Priors}},
		{"How many claim clusters aggregate in parallel.",
			map[string]any{"concurrency": cfg.Concurrency}},
		{"Graph store: SQLite path, empty for in-memory.",
			map[string]any{"store": cfg.Store}},
		{"Reasoning-response cache.",
			map[string]any{"cache": cfg.Cache}},
	}

	var b strings.Builder
	for i, s := range sections {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString("# " + s.comment + "\n")
		data, err := yaml.Marshal(s.body)
		if err != nil {
			return "", fmt.Errorf("marshal config section: %w", err)
		}
		b.Write(data)
	}
	return b.String(), nil
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configInitCmd)
}
