package commands

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/RyanBlaney/sonido-features/features"
	"github.com/RyanBlaney/sonido-features/features/storage"
	"github.com/RyanBlaney/sonido-features/logging"
	"github.com/RyanBlaney/sonido-features/transcode"
)

func newExtractCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "extract <audio>",
		Short: "Decode an audio file and store its features",
		Long: `Decode an audio file with ffmpeg, extract features and store the matrix
as msgpack. The feature record (shape, frame shift, configuration and
storage key) is printed as YAML.

Example:
  featx extract speech.flac -r fbank.yaml -o feats/speech.msgpack
  featx extract noise.wav -e spectrogram -o feats/noise.msgpack --sample-rate 8000`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output, err := cmd.Flags().GetString("output")
			if err != nil {
				return fmt.Errorf("failed to read 'output' flag: %w", err)
			}
			if output == "" {
				return fmt.Errorf("output file is required, use -o flag")
			}
			sampleRate, err := cmd.Flags().GetInt("sample-rate")
			if err != nil {
				return fmt.Errorf("failed to read 'sample-rate' flag: %w", err)
			}
			seed, err := cmd.Flags().GetUint64("seed")
			if err != nil {
				return fmt.Errorf("failed to read 'seed' flag: %w", err)
			}

			ext, err := loadExtractor(cmd, features.WithDitherSeed(seed))
			if err != nil {
				return err
			}

			dir, key, err := storageTarget(output)
			if err != nil {
				return err
			}
			writer, err := storage.NewFilesWriter(dir)
			if err != nil {
				return err
			}

			decoderConfig := transcode.DefaultConfig()
			decoderConfig.TargetSampleRate = sampleRate
			if decoderConfig.Offset, err = cmd.Flags().GetDuration("offset"); err != nil {
				return fmt.Errorf("failed to read 'offset' flag: %w", err)
			}
			if decoderConfig.MaxDuration, err = cmd.Flags().GetDuration("duration"); err != nil {
				return fmt.Errorf("failed to read 'duration' flag: %w", err)
			}
			if err := decoderConfig.Validate(); err != nil {
				return err
			}

			ctx := logging.ContextWithFields(cmd.Context(), logging.Fields{"audio": args[0]})
			audio, err := transcode.NewDecoder(decoderConfig).DecodeFile(ctx, args[0])
			if err != nil {
				return err
			}

			rec, err := storage.ExtractAndStoreKey(ctx, ext, writer, key, audio.Samples, audio.SampleRate)
			if err != nil {
				return err
			}

			enc := yaml.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent(2)
			if err := enc.Encode(rec); err != nil {
				return err
			}
			return enc.Close()
		},
	}

	addRecipeFlags(cmd)
	cmd.Flags().StringP("output", "o", "", "output matrix path (.msgpack)")
	cmd.Flags().IntP("sample-rate", "s", 16000, "decode at this sampling rate, 0 keeps the native rate")
	cmd.Flags().Duration("offset", 0, "skip this much audio at the start")
	cmd.Flags().Duration("duration", 0, "decode at most this much audio")
	cmd.Flags().Uint64("seed", 0, "dither seed")
	return cmd
}
