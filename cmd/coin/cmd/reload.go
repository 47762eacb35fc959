package cmd

import (
	"errors"
	"os"

	"github.com/spf13/cobra"

	"mastercoin/internal/amqp"
)

func newReloadCmd(a *app) *cobra.Command {
	var requestedBy string
	cmd := &cobra.Command{
		Use:   "reload",
		Short: "Ask a running server to re-ingest its workbook",
		Long: `Publish a reload request on the AMQP reload queue. The server consuming
that queue re-reads the workbook from its configured source, or from --source
when given.

Requires AMQP_URL.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !a.cfg.AMQPEnabled() {
				return errors.New("AMQP_URL is not configured")
			}
			client, err := amqp.NewClient(a.cfg.AMQPURL, a.cfg.AMQPExchange, a.cfg.AMQPQueue, a.cfg.AMQPReloadQueue, a.logger)
			if err != nil {
				return err
			}
			defer client.Close()

			msg := amqp.NewReloadRequest(a.opts.source, requestedBy)
			if err := client.PublishReloadRequest(cmd.Context(), msg); err != nil {
				return err
			}
			a.logger.InfoContext(cmd.Context(), "Reload requested", "requested_by", requestedBy)
			return a.write(msg)
		},
	}
	host, _ := os.Hostname()
	cmd.Flags().StringVar(&requestedBy, "requested-by", "coin@"+host, "identity recorded on the request")
	return cmd
}
