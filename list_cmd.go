package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/dgnsrekt/wordboard/internal/status"
	"github.com/dgnsrekt/wordboard/internal/words"
	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:     "list URL",
	Short:   "Print the words of a word list",
	Long:    paragraph(fmt.Sprintf("\n%s a word list and print its words one per line. The status line goes to stderr.", keyword("Load"))),
	Example: paragraph("wordboard list https://example.com/common_words.txt\nwordboard list ./common_words.txt | wc -l"),
	Args:    cobra.ExactArgs(1),

	// The status line is the error message; it is printed below.
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		ws, err := newLoader().Load(ctx, args[0])
		if err != nil {
			st := status.FromError(err)
			fmt.Fprintln(cmd.ErrOrStderr(), st)
			return errors.New(st.String())
		}

		out := cmd.OutOrStdout()
		for _, w := range ws {
			if _, err := fmt.Fprintln(out, w); err != nil {
				return fmt.Errorf("unable to write to writer: %w", err)
			}
		}
		fmt.Fprintln(cmd.ErrOrStderr(), status.NewLoaded(len(ws)))
		return nil
	},
}

func newLoader() *words.Loader {
	var opts []words.Option
	if httpTimeout > 0 {
		opts = append(opts, words.WithTimeout(httpTimeout))
	}
	if userAgent != "" {
		opts = append(opts, words.WithUserAgent(userAgent))
	}
	return words.NewLoader(opts...)
}
