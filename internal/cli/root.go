package cli

import (
	"fmt"

	"eino_dialogue/internal/config"
	"eino_dialogue/internal/core"
	"eino_dialogue/internal/logger"

	"github.com/spf13/cobra"
)

type rootOptions struct {
	configPath string
	config     *core.Config
}

// NewRootCommand builds the command tree
func NewRootCommand() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:   "dialogue",
		Short: "Rule-driven chatbot with conversation memory",
		Long: `dialogue runs a task-oriented chatbot: intent classification, entity extraction,
multi-turn slot filling and confirmation, backed by weather, calendar, catalogue, order
and news services.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig(opts.configPath)
			if err != nil {
				return err
			}
			if err := logger.InitLogger(cfg.Log); err != nil {
				return fmt.Errorf("failed to initialize logger: %w", err)
			}
			opts.config = cfg
			return nil
		},
	}
	root.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "config.yaml", "path to the YAML config file")

	root.AddCommand(newChatCommand(opts), newReplayCommand(opts))
	return root
}
