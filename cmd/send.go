package cmd

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/agentwire/a2a/pkg/a2a"
	"github.com/agentwire/a2a/pkg/client"
)

var (
	agentURLFlag  string
	streamFlag    bool
	transportFlag string

	sendCmd = &cobra.Command{
		Use:   "send [message]",
		Short: "Send a message to an A2A agent",
		Long:  longSend,
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			card, err := client.NewCardResolver(agentURLFlag).Resolve()
			if err != nil {
				return err
			}

			fmt.Println(card.String())

			var factoryOpts []client.FactoryOption
			if transportFlag != "" {
				factoryOpts = append(factoryOpts, client.WithPreferredTransports(transportFlag))
			}

			agent, err := client.NewClientFactory(factoryOpts...).CreateClient(*card)
			if err != nil {
				return err
			}

			params := &a2a.MessageSendParams{
				Message: *a2a.NewTextMessage(a2a.RoleUser, strings.Join(args, " ")),
			}

			if streamFlag {
				return streamMessage(cmd, agent, params)
			}

			event, err := agent.SendMessage(cmd.Context(), params)
			if err != nil {
				return err
			}

			printEvent(event)
			return nil
		},
	}
)

func streamMessage(cmd *cobra.Command, agent *client.Client, params *a2a.MessageSendParams) error {
	stream, err := agent.SendMessageStream(cmd.Context(), params)
	if err != nil {
		return err
	}

	for item := range stream {
		if item.Err != nil {
			return item.Err
		}
		printEvent(item.Event)
	}

	return nil
}

func printEvent(event a2a.Event) {
	switch event := event.(type) {
	case *a2a.Message:
		fmt.Println(event.String())
	case *a2a.Task:
		fmt.Println(event.String())
	case *a2a.TaskStatusUpdateEvent:
		log.Info("status update", "taskId", event.TaskID, "state", event.Status.State, "final", event.Final)
	case *a2a.TaskArtifactUpdateEvent:
		for _, part := range event.Artifact.Parts {
			if part.Text != "" {
				fmt.Println(part.Text)
			}
		}
	}
}

func init() {
	rootCmd.AddCommand(sendCmd)

	sendCmd.Flags().StringVarP(&agentURLFlag, "agent", "a", "http://localhost:3210", "Base URL of the agent")
	sendCmd.Flags().BoolVarP(&streamFlag, "stream", "s", false, "Stream task updates over SSE")
	sendCmd.Flags().StringVarP(&transportFlag, "transport", "t", "", "Preferred transport (JSONRPC or HTTP+JSON)")
}

var longSend = `
Send a message to an A2A agent and print the result.

The agent's card is resolved from its well-known location, a transport is
selected from the card, and the message goes out either as one blocking
call or as an SSE stream.

Examples:
  # Blocking send
  a2a send "Hello there"

  # Stream updates from a remote agent over the REST transport
  a2a send --agent https://agent.example --transport HTTP+JSON --stream "Hello"
`
