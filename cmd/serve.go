package cmd

import (
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/agentwire/a2a/pkg/a2a"
	"github.com/agentwire/a2a/pkg/auth"
	"github.com/agentwire/a2a/pkg/handler"
	"github.com/agentwire/a2a/pkg/service"
)

var (
	portFlag      int
	hostFlag      string
	agentNameFlag string
	signingKey    string

	serveCmd = &cobra.Command{
		Use:   "serve",
		Short: "Serve a demo A2A agent",
		Long:  longServe,
		RunE: func(cmd *cobra.Command, args []string) error {
			addr := fmt.Sprintf("%s:%d", hostFlag, portFlag)
			baseURL := fmt.Sprintf("http://%s", addr)

			description := "A demo agent that echoes every message back as an artifact."
			card := a2a.AgentCard{
				Name:        agentNameFlag,
				Description: &description,
				URL:         baseURL + "/rpc",
				Version:     "1.0.0",
				Capabilities: a2a.AgentCapabilities{
					Streaming:         true,
					PushNotifications: true,
				},
				AdditionalInterfaces: []a2a.AgentInterface{
					{Transport: a2a.TransportREST, URL: baseURL},
				},
				DefaultInputModes:  []string{"text/plain"},
				DefaultOutputModes: []string{"text/plain"},
				Skills: []a2a.AgentSkill{
					{ID: "echo", Name: "Echo", Tags: []string{"demo"}},
				},
			}

			opts := []service.ServerOption{service.WithAddr(addr)}
			if key := viper.GetString("auth.signing_key"); key != "" {
				opts = append(opts, service.WithUserBuilder(auth.BearerUserBuilder([]byte(key))))
			}

			srv := service.NewA2AServer(
				handler.NewDefaultRequestHandler(card, handler.NewEchoExecutor()),
				opts...,
			)

			log.Info("serving agent", "name", card.Name, "addr", addr)
			return srv.Start()
		},
	}
)

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().IntVarP(&portFlag, "port", "p", 3210, "Port to serve on")
	serveCmd.Flags().StringVarP(&hostFlag, "host", "H", "0.0.0.0", "Host address to bind to")
	serveCmd.Flags().StringVarP(&agentNameFlag, "name", "n", "Echo Agent", "Name for the agent")
	serveCmd.Flags().StringVar(&signingKey, "signing-key", "", "HMAC key for verifying bearer tokens")

	_ = viper.BindPFlag("auth.signing_key", serveCmd.Flags().Lookup("signing-key"))
}

var longServe = `
Serve a demo A2A agent that echoes messages back as artifacts.

The agent speaks JSON-RPC 2.0 on /rpc and the HTTP+JSON mapping under /v1,
publishes its card at /.well-known/agent-card.json, and streams task
updates over SSE.

Examples:
  # Serve on the default port
  a2a serve

  # Serve on port 8080 with bearer token verification
  a2a serve --port 8080 --signing-key secret
`
