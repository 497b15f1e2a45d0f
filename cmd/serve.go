package cmd

import (
	"github.com/spf13/cobra"

	"github.com/RyanBlaney/sonido-nota/server"
	"github.com/RyanBlaney/sonido-nota/transcription"
)

var serveAddr string

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVarP(&serveAddr, "addr", "a", "", "listen address (default from config, :8080)")
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve transcription over HTTP",
	Long: `Serve starts an HTTP server with a health check on GET / and
transcription on POST /transcribe (JSON) and POST /transcribe/midi (MIDI).
Uploads go in the multipart field "file".`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if serveAddr != "" {
			cfg.Server.Addr = serveAddr
		}

		transcriber, err := transcription.NewTranscriberFromConfig(cfg)
		if err != nil {
			return err
		}

		return server.New(transcriber, cfg.Server).ListenAndServe(cmd.Context())
	},
}
