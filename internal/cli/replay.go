package cli

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"eino_dialogue/internal/dialogue"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

// exchange is one replayed user line and the reply to it
type exchange struct {
	input, reply string
}

func newReplayCommand(root *rootOptions) *cobra.Command {
	var (
		seed     uint64
		parallel int
	)

	cmd := &cobra.Command{
		Use:   "replay <transcript>...",
		Short: "Replay scripted conversations",
		Long: `Replay one or more transcript files, one user utterance per line. Blank lines and
lines starting with # are skipped. Each file is its own session; files run in parallel
and their transcripts are printed in argument order.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if parallel < 1 {
				return fmt.Errorf("--parallel must be at least 1, got %d", parallel)
			}

			a, err := newApp(ctx, root.config, dialogue.WithRandSeed(seed))
			if err != nil {
				return err
			}
			defer a.Close()

			results := make([][]exchange, len(args))
			g, gctx := errgroup.WithContext(ctx)
			g.SetLimit(parallel)
			for i, path := range args {
				g.Go(func() error {
					lines, err := readTranscript(path)
					if err != nil {
						return err
					}
					session := a.manager.NewSession(filepath.Base(path), nil)
					for _, line := range lines {
						reply, err := session.ProcessTurn(gctx, line)
						if err != nil {
							return fmt.Errorf("%s: %q: %w", path, line, err)
						}
						results[i] = append(results[i], exchange{input: line, reply: reply})
					}
					return nil
				})
			}
			if err := g.Wait(); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for i, path := range args {
				fmt.Fprintln(out, headerStyle.Render(path))
				for _, ex := range results[i] {
					fmt.Fprintln(out, userPromptStyle.Render("you> ")+ex.input)
					fmt.Fprintln(out, botPromptStyle.Render("bot> ")+ex.reply)
				}
				fmt.Fprintln(out)
			}
			return nil
		},
	}
	cmd.Flags().Uint64Var(&seed, "seed", 1, "random seed for reply variants and personalization")
	cmd.Flags().IntVarP(&parallel, "parallel", "p", 4, "maximum transcripts replayed at once")
	return cmd
}

func readTranscript(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open transcript: %w", err)
	}
	defer f.Close()

	var lines []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		lines = append(lines, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read transcript %s: %w", path, err)
	}
	return lines, nil
}
