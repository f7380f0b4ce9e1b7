/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"

	"github.com/gatherly/apiserver/config"
	"github.com/gatherly/apiserver/internal/mq"
	"github.com/gatherly/apiserver/internal/services"
	"github.com/spf13/cobra"
)

// workerCmd consumes registration activity from the configured broker
// and logs it. A real deployment would hang notification delivery off
// this consumer.
var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Consumes registration activity from the message broker",
	Run: func(cmd *cobra.Command, args []string) {
		cfg := config.LoadConfig()

		broker, err := mq.NewFromConfig(cmd.Context(), cfg.MQ)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to connect broker: %v\n", err)
			os.Exit(1)
		}
		if broker == nil {
			fmt.Fprintln(os.Stderr, "MQ_BACKEND is required for the worker")
			os.Exit(1)
		}
		defer broker.Close()

		channel := services.NewActivityPublisher(broker).Channel()
		err = broker.Subscribe(cmd.Context(), channel, func(ctx context.Context, msg mq.Message) error {
			var activity services.RegistrationActivity
			if err := json.Unmarshal(msg.Data, &activity); err != nil {
				log.Printf("worker: dropping malformed message %s: %v", msg.ID, err)
				return nil
			}
			log.Printf("worker: user %d %s event %d", activity.UserID, activity.Action, activity.EventID)
			return nil
		})
		if err != nil {
			fmt.Fprintf(os.Stderr, "worker error: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(workerCmd)
}
