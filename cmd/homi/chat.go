package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/cloudwego/eino/adk"
	"github.com/cloudwego/eino/schema"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/tbxark/homi/agent"
	"github.com/tbxark/homi/auth"
	"github.com/tbxark/homi/types"
)

func newChatCmd(root *rootOptions) *cobra.Command {
	var (
		email    string
		location string
	)
	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Scope a request in the terminal",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			chatModel, err := newChatModel(ctx, root.conf)
			if err != nil {
				return err
			}
			var opts []agent.AgentOption
			if location != "" {
				opts = append(opts, agent.WithStateReadWriter(agent.NewMemoryStateReadWriter(func(ctx context.Context) *agent.State {
					return agent.NewSeededState(types.ScopingState{Location: location})
				})))
			}
			a, err := newApp(ctx, root.conf, chatModel, opts...)
			if err != nil {
				return err
			}
			defer a.Close()

			provider := auth.NewLocalProvider()
			if email != "" {
				if _, err := provider.Login(ctx, email); err != nil {
					return err
				}
			}
			return runChat(ctx, a.agent, provider, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "sign in as this email so requests are saved to your account")
	cmd.Flags().StringVar(&location, "location", "", "saved location to start from")
	return cmd
}

// runChat reads one message per line until EOF or /quit.
func runChat(ctx context.Context, a *agent.Agent, provider auth.Provider, in io.Reader, out io.Writer) error {
	ctx = agent.WithStateKey(ctx, uuid.NewString())
	if user, err := provider.CurrentUser(ctx); err == nil {
		ctx = auth.WithUser(ctx, user)
	}
	runner := adk.NewRunner(ctx, adk.RunnerConfig{Agent: a})

	greeting, err := a.Greeting(ctx)
	if err != nil {
		return err
	}
	suggestions := greeting.Suggestions
	fmt.Fprintln(out, renderReply(greeting.Message, suggestions, ""))

	reader := bufio.NewReader(in)
	for {
		fmt.Fprint(out, "\nYou: ")
		line, rErr := reader.ReadString('\n')
		input := strings.TrimSpace(line)
		if input == "/quit" || (rErr != nil && input == "") {
			return nil
		}
		input = resolveSuggestion(input, suggestions)

		iter := runner.Run(ctx, []adk.Message{schema.UserMessage(input)})
		for {
			event, ok := iter.Next()
			if !ok {
				break
			}
			if event.Err != nil {
				return event.Err
			}
			msg, mErr := event.Output.MessageOutput.GetMessage()
			if mErr != nil {
				return mErr
			}
			suggestions, _ = msg.Extra[agent.ExtraSuggestions].([]string)
			errText, _ := msg.Extra[agent.ExtraError].(string)
			fmt.Fprintln(out, "\n"+renderReply(msg.Content, suggestions, errText))

			if phase, _ := msg.Extra[agent.ExtraPhase].(string); phase == string(types.PhaseComplete) {
				resp, gErr := a.Greeting(ctx)
				if gErr != nil {
					return gErr
				}
				if resp.State.Request != nil {
					fmt.Fprintln(out, renderRequest(resp.State.Request))
				}
			}
		}
		if rErr != nil {
			return nil
		}
	}
}
