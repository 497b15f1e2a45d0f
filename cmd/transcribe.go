package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/RyanBlaney/sonido-nota/logging"
	"github.com/RyanBlaney/sonido-nota/midifile"
	"github.com/RyanBlaney/sonido-nota/transcription"
)

var (
	quantize   bool
	tempoHint  float64
	midiOut    string
	outputPath string
)

func init() {
	rootCmd.AddCommand(transcribeCmd)

	transcribeCmd.Flags().BoolVarP(&quantize, "quantize", "q", false, "report rhythmic figures instead of start/end times")
	transcribeCmd.Flags().Float64VarP(&tempoHint, "tempo", "t", 0, "tempo in BPM (skips tempo estimation)")
	transcribeCmd.Flags().StringVarP(&midiOut, "midi", "m", "", "also write a MIDI file to this path")
	transcribeCmd.Flags().StringVarP(&outputPath, "output", "o", "", "write JSON here instead of stdout")
}

var transcribeCmd = &cobra.Command{
	Use:   "transcribe <audio-file|->",
	Short: "Transcribe a recording into notes",
	Long: `Transcribe decodes an audio file (WAV natively, anything else through
ffmpeg), tracks its pitch and prints the notes as JSON. Use - to read
the audio from stdin.`,
	Args: cobra.ExactArgs(1),
	RunE: runTranscribe,
}

func runTranscribe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	transcriber, err := transcription.NewTranscriberFromConfig(cfg)
	if err != nil {
		return err
	}

	var opts transcription.Options
	if cmd.Flags().Changed("quantize") {
		q := quantize
		opts.Quantize = &q
	}
	if cmd.Flags().Changed("tempo") {
		t := tempoHint
		opts.TempoHint = &t
	}

	var result *transcription.TranscriptionResult
	if args[0] == "-" {
		result, err = transcriber.TranscribeReader(cmd.Context(), cmd.InOrStdin(), "stdin", opts)
	} else {
		result, err = transcriber.TranscribeFile(cmd.Context(), args[0], opts)
	}
	if err != nil {
		return fmt.Errorf("failed to transcribe %s: %w", args[0], err)
	}

	if midiOut != "" {
		if err := midifile.WriteFile(midiOut, result, midifile.DefaultOptions()); err != nil {
			return err
		}
		logging.Info("MIDI written", logging.Fields{"path": midiOut})
	}

	var out io.Writer = cmd.OutOrStdout()
	if outputPath != "" {
		f, err := os.Create(outputPath)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer f.Close()
		out = f
	}

	encoder := json.NewEncoder(out)
	encoder.SetIndent("", "  ")
	return encoder.Encode(result)
}
