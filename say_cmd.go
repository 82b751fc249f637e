package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/dgnsrekt/wordboard/internal/speech"
	"github.com/spf13/cobra"
)

var sayCmd = &cobra.Command{
	Use:     "say TEXT...",
	Short:   "Speak text once and exit",
	Long:    paragraph(fmt.Sprintf("\n%s the given text with the configured engine, voice, rate and pitch, and wait until it has been spoken.", keyword("Speak"))),
	Example: paragraph("wordboard say hello world\nwordboard say --engine espeak --voice 2 --rate 0.75 bonjour"),
	Args:    cobra.MinimumNArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		text := strings.TrimSpace(strings.Join(args, " "))
		if text == "" {
			return speech.ErrEmptyText
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		eng, cleanup, unavailable, err := openEngine()
		if err != nil {
			return err
		}
		defer cleanup()
		if unavailable != nil {
			return fmt.Errorf("speech synthesis not available: %w", unavailable)
		}

		registry := speech.NewRegistry(eng)
		sel := speech.Selection{
			Voice: voiceSelection(registry.Refresh(ctx), voice),
			Rate:  rate,
			Pitch: pitch,
		}
		if err := eng.Speak(ctx, registry.Utterance(text, sel)); err != nil {
			return fmt.Errorf("unable to speak: %w", err)
		}
		return nil
	},
}
