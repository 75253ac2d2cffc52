package main

import (
	"errors"

	kafkaadapter "github.com/couchcryptid/outbreak-trends/internal/adapter/kafka"
	"github.com/spf13/cobra"
)

func newPublishCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "publish",
		Short: "Load reports once and publish every region series to Kafka",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !a.cfg.KafkaEnabled() {
				return errors.New("KAFKA_BROKERS is not set")
			}

			idx, p, err := a.load(cmd.Context())
			if err != nil {
				return err
			}

			writer := kafkaadapter.NewWriter(a.cfg.KafkaBrokers, a.cfg.KafkaTopic, a.logger)
			defer func() {
				if err := writer.Close(); err != nil {
					a.logger.Error("kafka writer close error", "error", err)
				}
			}()

			return p.Publish(cmd.Context(), idx, writer)
		},
	}
	cmd.Flags().StringSliceVar(&a.cfg.KafkaBrokers, "brokers", a.cfg.KafkaBrokers, "Kafka broker addresses")
	cmd.Flags().StringVar(&a.cfg.KafkaTopic, "topic", a.cfg.KafkaTopic, "Kafka topic for region series")
	return cmd
}
