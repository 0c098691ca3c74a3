package cli

import (
	"github.com/spf13/cobra"

	"github.com/GreatCoder69/intel-classroom-assistant-sub001/internal/chat/api"
	"github.com/GreatCoder69/intel-classroom-assistant-sub001/internal/chat/convcache"
	"github.com/GreatCoder69/intel-classroom-assistant-sub001/internal/chat/sync"
	"github.com/GreatCoder69/intel-classroom-assistant-sub001/internal/chat/topicstore"
	"github.com/GreatCoder69/intel-classroom-assistant-sub001/internal/config"
	"github.com/GreatCoder69/intel-classroom-assistant-sub001/internal/logging"
	"github.com/GreatCoder69/intel-classroom-assistant-sub001/internal/tui"
)

func init() {
	rootCmd.AddCommand(chatCmd)
}

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Open the chat screen",
	Long:  "Open the interactive chat screen against the configured backend.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runChat()
	},
}

func buildEngine() (*sync.Engine, error) {
	topics := topicstore.New(cfg.TopicOrderPath())
	if err := topics.Load(); err != nil {
		// A corrupt or unreadable order file should not block the chat;
		// the remote merge rebuilds it.
		logging.Warn().Err(err).Msg("topic order load failed, starting fresh")
	}

	client := api.New(api.Config{
		BaseURL: cfg.Server.BaseURL,
		Token:   cfg.Server.Token,
		Role:    cfg.Server.Role,
	})

	storageBase := cfg.Storage.BaseURL
	if storageBase == "" {
		storageBase = cfg.Server.BaseURL + "/storage"
	}

	return sync.NewEngine(sync.Options{
		Topics:      topics,
		Cache:       convcache.New(),
		Remote:      client,
		StorageBase: storageBase,
		Model:       cfg.Server.Model,
	}), nil
}

func runChat() error {
	engine, err := buildEngine()
	if err != nil {
		return err
	}

	return tui.Run(tui.Config{
		Engine:         engine,
		Session:        config.NewSessionStore(""),
		Role:           cfg.Server.Role,
		Theme:          cfg.TUI.Theme,
		ShowTimestamps: cfg.TUI.ShowTimestamps,
	})
}
