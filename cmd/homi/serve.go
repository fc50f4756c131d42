package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/tbxark/homi/server"
)

func newServeCmd(root *rootOptions) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve conversations over WebSocket and saved requests over HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			chatModel, err := newChatModel(ctx, root.conf)
			if err != nil {
				return err
			}
			a, err := newApp(ctx, root.conf, chatModel)
			if err != nil {
				return err
			}
			defer a.Close()

			if addr == "" {
				addr = root.conf.Server.Addr
			}
			srv := server.New(a.agent, a.requests, root.conf.Server.AllowedOrigins)
			return srv.ListenAndServe(ctx, addr)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides server.addr)")
	return cmd
}
