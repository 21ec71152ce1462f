package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/extremecarpaccio/carpaccio/cmd/seller/client"
	"github.com/extremecarpaccio/carpaccio/logging"
)

type serveParams struct {
	server   string
	listen   string
	url      string
	username string
	password string
	debug    bool
}

func rootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "seller",
		Short:         "A seller answering the questions of a game server",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(serveCommand(), sellersCommand())
	return root
}

func serveCommand() *cobra.Command {
	params := serveParams{}
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Register to the game server and answer its questions",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()
			return serve(ctx, params)
		},
	}

	cmd.Flags().StringVar(&params.server, "server", "http://localhost:3000", "address of the game server")
	cmd.Flags().StringVar(&params.listen, "listen", "localhost:8080", "address to listen for questions on")
	cmd.Flags().StringVar(&params.url, "url", "", "address the game server reaches the seller at (derived from --listen if empty)")
	cmd.Flags().StringVar(&params.username, "username", "", "name of the seller")
	cmd.Flags().StringVar(&params.password, "password", "", "password protecting the seller's registration")
	cmd.Flags().BoolVar(&params.debug, "debug", false, "enable debug logs")
	_ = cmd.MarkFlagRequired("username")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func sellersCommand() *cobra.Command {
	var server string
	cmd := &cobra.Command{
		Use:   "sellers",
		Short: "List the sellers of the game server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := client.New(server)
			if err != nil {
				return err
			}
			sellers, err := c.Sellers(cmd.Context())
			if err != nil {
				return err
			}
			for _, s := range sellers {
				fmt.Fprintf(cmd.OutOrStdout(), "%-20s %12.2f online=%v\n", s.Username, s.Cash, s.Online)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&server, "server", "http://localhost:3000", "address of the game server")
	return cmd
}

func serve(ctx context.Context, params serveParams) error {
	level := zap.InfoLevel
	if params.debug {
		level = zap.DebugLevel
	}
	logger := logging.New(level, logging.Rotation{}, false).Named(params.username)
	defer logger.Sync()

	listener, err := net.Listen("tcp", params.listen)
	if err != nil {
		return fmt.Errorf("failed to listen: %w", err)
	}
	sellerURL := params.url
	if sellerURL == "" {
		sellerURL = "http://" + listener.Addr().String()
	}

	c, err := client.New(params.server)
	if err != nil {
		listener.Close()
		return err
	}
	if err := c.Register(ctx, params.username, params.password, sellerURL); err != nil {
		listener.Close()
		return err
	}
	logger.Info("registered", zap.String("server", params.server), zap.String("url", sellerURL))

	server := &http.Server{Handler: newHandler(logger), ReadHeaderTimeout: 5 * time.Second}
	eg, ctx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		err := server.Serve(listener)
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	})
	eg.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})
	return eg.Wait()
}
