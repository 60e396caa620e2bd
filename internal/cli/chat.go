package cli

import (
	"bufio"
	"fmt"
	"strings"

	"eino_dialogue/internal/logger"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

func newChatCommand(root *rootOptions) *cobra.Command {
	var sessionID, userID string

	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Start an interactive conversation",
		Long: `Start an interactive conversation on stdin.

The session is saved after every turn. Pass --session to resume one, and --user to
carry facts such as your name and preferred city across sessions. Type "quit" to leave.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if sessionID == "" {
				sessionID = uuid.NewString()
			}

			a, err := newApp(ctx, root.config)
			if err != nil {
				return err
			}
			defer a.Close()

			session, err := a.openSession(ctx, sessionID, userID)
			if err != nil {
				return err
			}
			logger.Info().Str("session", sessionID).Str("user", userID).Msg("Chat session started")

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, noticeStyle.Render(fmt.Sprintf("session %s, type \"quit\" to exit", sessionID)))

			scanner := bufio.NewScanner(cmd.InOrStdin())
			for {
				fmt.Fprint(out, userPromptStyle.Render("you> "))
				if !scanner.Scan() {
					break
				}
				input := strings.TrimSpace(scanner.Text())
				if input == "" {
					continue
				}
				if input == "quit" || input == "exit" {
					break
				}

				reply, err := session.ProcessTurn(ctx, input)
				if err != nil {
					logger.Error().Err(err).Str("session", sessionID).Msg("Turn failed")
					fmt.Fprintln(out, noticeStyle.Render("something went wrong, please try again"))
					continue
				}
				fmt.Fprintln(out, botPromptStyle.Render("bot> ")+reply)

				if err := a.persist(ctx, session, userID); err != nil {
					logger.Warn().Err(err).Str("session", sessionID).Msg("Failed to save session")
				}
			}
			if err := scanner.Err(); err != nil {
				return fmt.Errorf("failed to read input: %w", err)
			}

			fmt.Fprintln(out, noticeStyle.Render("bye! resume with --session "+sessionID))
			return nil
		},
	}
	cmd.Flags().StringVarP(&sessionID, "session", "s", "", "session ID to resume (default: a new one)")
	cmd.Flags().StringVarP(&userID, "user", "u", "", "user ID for long-term memory")
	return cmd
}
