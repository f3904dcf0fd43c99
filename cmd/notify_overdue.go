package cmd

import (
	"context"
	"fmt"
	"log"

	"github.com/spf13/cobra"

	"github.com/curaious/projecthub/internal/config"
)

var notifyOverdueCmd = &cobra.Command{
	Use:   "notify-overdue",
	Short: "Notify assignees of overdue tasks once",
	Run: func(cmd *cobra.Command, args []string) {
		conf := config.ReadConfig()

		svc, conn, err := newServices(conf)
		if err != nil {
			log.Fatal(err)
		}
		defer conn.Close()

		sent, err := svc.Task.SweepOverdue(context.Background())
		svc.Dispatcher.Wait()
		if err != nil {
			log.Fatalln("Overdue sweep failed", err)
		}

		fmt.Printf("Sent %d overdue notifications\n", sent)
	},
}

func init() {
	rootCmd.AddCommand(notifyOverdueCmd)
}
