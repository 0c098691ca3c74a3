package cli

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(topicsCmd)
	topicsCmd.AddCommand(topicsListCmd)
	topicsCmd.AddCommand(topicsDeleteCmd)
}

var topicsCmd = &cobra.Command{
	Use:   "topics",
	Short: "Inspect and manage topics without opening the chat screen",
}

var topicsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List topics in recency order",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		engine, err := buildEngine()
		if err != nil {
			return err
		}

		ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.FetchTimeout)
		defer cancel()
		if err := engine.Load(ctx); err != nil {
			return err
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "TOPIC\tCATEGORY\tMESSAGES")
		for _, id := range engine.Topics().List() {
			topic, _ := engine.Topic(id)
			fmt.Fprintf(w, "%s\t%s\t%d\n", id, topic.Category, engine.Cache().Len(id))
		}
		return w.Flush()
	},
}

var topicsDeleteCmd = &cobra.Command{
	Use:   "delete <topic>",
	Short: "Delete a topic and its conversation",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		engine, err := buildEngine()
		if err != nil {
			return err
		}

		ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.FetchTimeout)
		defer cancel()
		if err := engine.DeleteTopic(ctx, args[0]); err != nil {
			return err
		}
		fmt.Printf("deleted %s\n", args[0])
		return nil
	},
}
