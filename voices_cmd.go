package main

import (
	"context"
	"fmt"

	"github.com/dgnsrekt/wordboard/internal/speech"
	"github.com/spf13/cobra"
)

var voicesCmd = &cobra.Command{
	Use:   "voices",
	Short: "List the voices of the speech engine",
	Long:  paragraph(fmt.Sprintf("\n%s the voices the selected engine offers. The index is what --voice accepts.", keyword("List"))),
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		eng, cleanup, unavailable, err := openEngine()
		if err != nil {
			return err
		}
		defer cleanup()
		if unavailable != nil {
			return fmt.Errorf("speech synthesis not available: %w", unavailable)
		}

		voices := speech.NewRegistry(eng).Refresh(context.Background())
		if len(voices) == 0 {
			fmt.Fprintf(cmd.ErrOrStderr(), "%s offers no voices; the engine default is used.\n", eng.Name())
			return nil
		}
		for i, v := range voices {
			fmt.Fprintf(cmd.OutOrStdout(), "%d: %s\n", i, v.Label())
		}
		return nil
	},
}
