// ABOUTME: Command line interface
// ABOUTME: Cobra commands for playing, stopping a remote player and printing the version
package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/Resonate-Protocol/chunkstream/internal/app"
	"github.com/Resonate-Protocol/chunkstream/internal/config"
	"github.com/Resonate-Protocol/chunkstream/internal/logger"
	"github.com/Resonate-Protocol/chunkstream/internal/version"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	configPath string
	cfg        = config.New()
)

var rootCmd = &cobra.Command{
	Use:   "chunkstream [file|url|tone]",
	Short: "Bounded-buffer audio player",
	Long: `chunkstream decodes an MP3, FLAC or WAV file (or an HTTP MP3 stream)
and plays it through a ten-second ring of one-second chunks.

Type x and Enter to halt playback.`,
	Args:          cobra.MaximumNArgs(1),
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Read(configPath); err != nil {
			return err
		}
		return cfg.BindFlags(cmd.Flags())
	},
	RunE: runPlay,
}

var playCmd = &cobra.Command{
	Use:   "play [file|url|tone]",
	Short: "Play a file, stream or test tone",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runPlay,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(
		&configPath,
		"config",
		"c",
		"",
		"Optional absolute path to toml config file")

	for _, cmd := range []*cobra.Command{rootCmd, playCmd} {
		addPlayFlags(cmd)
	}

	rootCmd.AddCommand(playCmd, stopCmd, versionCmd)
}

func addPlayFlags(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.Int("buffer", 10, "Buffer capacity in one-second chunks")
	flags.StringP("output", "o", "oto", "Output backend: oto, malgo, portaudio, wav, null")
	flags.String("out-file", "chunkstream.wav", "File written by the wav output")
	flags.StringP("log-level", "l", "info", "Log level")
	flags.String("log-file", "chunkstream.log", "Log file path")
	flags.Bool("no-ui", false, "Disable TUI, read commands from stdin and stream logs")
	flags.String("listen", "", "Serve the websocket control socket on this address (e.g. :8928)")
	flags.Bool("mdns", false, "Advertise the control socket via mDNS")
	flags.String("name", "", "Advertised player name (default: hostname)")
}

func runPlay(cmd *cobra.Command, args []string) error {
	input := ""
	if len(args) == 1 {
		input = args[0]
	}

	useTUI := cfg.UIEnabled()

	closer, err := logger.Setup(logger.Options{
		Level:   cfg.LogLevel(),
		Format:  cfg.LogFormat(),
		File:    cfg.LogFile(),
		Console: !useTUI,
	})
	if err != nil {
		return err
	}
	defer closer.Close()

	if f := cfg.ConfigFileUsed(); f != "" {
		log.Printf("Using config file %s", f)
	}
	if !useTUI {
		log.Printf("Starting %s", version.String())
		log.Printf("TUI disabled - type x and Enter to halt playback")
	}

	name := cfg.ControlName()
	if name == "" {
		hostname, err := os.Hostname()
		if err != nil {
			hostname = "unknown"
		}
		name = fmt.Sprintf("%s-%s", hostname, version.Product)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	player := app.New(app.Config{
		Input:       input,
		Backend:     cfg.OutputBackend(),
		OutputPath:  cfg.OutputPath(),
		Capacity:    cfg.BufferCapacity(),
		UseTUI:      useTUI,
		Stdin:       os.Stdin,
		ControlAddr: cfg.ControlAddr(),
		EnableMDNS:  cfg.ControlMDNS(),
		Name:        name,
	})

	if err := player.Run(ctx); err != nil {
		log.WithError(err).Error("Playback failed")
		return err
	}
	return nil
}

// Run executes the root command
func Run() error {
	return rootCmd.Execute()
}
