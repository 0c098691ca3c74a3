package cli

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/GreatCoder69/intel-classroom-assistant-sub001/internal/server"
)

var serveListenAddr string

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&serveListenAddr, "listen", "", "listen address override (host:port)")
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the bundled development backend",
	Long: `Run the bundled development backend.

Serves the same HTTP contract as the production service against a local
sqlite database, with a canned responder instead of a real model.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		addr := cfg.Backend.ListenAddr
		if serveListenAddr != "" {
			addr = serveListenAddr
		}

		store, err := server.OpenStore(cfg.ResolvedDatabasePath())
		if err != nil {
			return err
		}
		defer store.Close()

		srv, err := server.New(server.Config{
			ListenAddr: addr,
			AuthToken:  cfg.Backend.AuthToken,
			UploadDir:  cfg.ResolvedUploadDir(),
		}, store, &server.CannedResponder{Delay: 300 * time.Millisecond})
		if err != nil {
			return err
		}
		return srv.Run()
	},
}
