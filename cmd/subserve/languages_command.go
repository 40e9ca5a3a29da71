package main

import (
	"strings"

	"github.com/spf13/cobra"

	"subserve/internal/extractor"
	"subserve/internal/logging"
	"subserve/internal/ytdlp"
)

func newLanguagesCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "languages <video-url>",
		Short: "List available caption languages for a video",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			capability := ytdlp.NewCLI(ytdlp.WithBinary(cfg.Extraction.YtdlpBinary))
			service := extractor.NewService(capability, extractor.Settings{
				LanguageTTL: cfg.LanguageTTL(),
			}, logging.NewNop())

			videoID, languages, err := service.ListLanguages(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(languages) == 0 {
				cmd.Printf("No caption tracks found for %s\n", videoID)
				return nil
			}

			rows := make([][]string, 0, len(languages))
			for _, lang := range languages {
				rows = append(rows, []string{
					lang.Code,
					lang.Name,
					yesNo(lang.AutoGenerated),
					strings.Join(lang.Formats, ", "),
				})
			}
			cmd.Printf("Captions for %s\n", videoID)
			_, err = out.Write([]byte(renderTable([]string{"Code", "Name", "Auto", "Formats"}, rows) + "\n"))
			return err
		},
	}
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
