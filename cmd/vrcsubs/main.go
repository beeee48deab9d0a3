// vrcsubs - live speech subtitles for the VRChat chatbox over OSC
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	audiocap "github.com/AymNine/vrc-osc-scripts/internal/audio"
	"github.com/AymNine/vrc-osc-scripts/internal/config"
	"github.com/AymNine/vrc-osc-scripts/internal/orchestrator"
)

var (
	configPath string
	logLevel   string
)

var rootCmd = &cobra.Command{
	Use:   "vrcsubs",
	Short: "Live speech subtitles for the VRChat chatbox",
	// Running with no subcommand starts the pipeline.
	RunE:          runPipeline,
	SilenceUsage:  true,
	SilenceErrors: true,
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Capture, recognize and display speech",
	RunE:  runPipeline,
}

var devicesCmd = &cobra.Command{
	Use:   "devices",
	Short: "List audio input devices",
	RunE:  listDevices,
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print the effective configuration",
	RunE:  printConfig,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default Config.yml in . or next to the binary)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, error")
	rootCmd.AddCommand(runCmd, devicesCmd, configCmd)
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		slog.Error("vrcsubs failed", "error", err)
		os.Exit(1)
	}
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		setupLogging("info")
		return nil, err
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}
	setupLogging(cfg.LogLevel)
	return cfg, nil
}

// setupLogging routes slog through a charm logger.
func setupLogging(level string) {
	lvl, err := log.ParseLevel(level)
	if err != nil {
		lvl = log.InfoLevel
	}
	logger := log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		TimeFormat:      time.TimeOnly,
		Prefix:          "vrcsubs",
		Level:           lvl,
	})
	slog.SetDefault(slog.New(logger))
}

func runPipeline(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cfg.File != "" {
		slog.Info("loaded config", "file", cfg.File)
	} else {
		slog.Info("no config file found, using built-in defaults")
	}

	mgr, err := orchestrator.New(cfg)
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := mgr.Start(ctx); err != nil {
		mgr.Stop()
		return err
	}
	slog.Info("vrcsubs running", "chatbox", fmt.Sprintf("%s:%d", cfg.Output.Host, cfg.Output.Port))

	<-ctx.Done()
	slog.Info("shutting down...")
	mgr.Stop()
	slog.Info("shutdown complete")
	return nil
}

func listDevices(_ *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	devs, err := audiocap.ListDevices()
	if err != nil {
		return err
	}
	chosen, ok := audiocap.SelectDevice(devs, cfg.Audio.Device, cfg.Audio.ExcludedDevices)

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Index", "Name", "Host API", "Channels", "Rate", "Selected"})
	table.SetBorder(false)
	table.SetAutoWrapText(false)
	for _, d := range devs {
		if d.MaxInputChannels == 0 {
			continue
		}
		selected := ""
		if ok && d.Index == chosen.Index {
			selected = "*"
		}
		table.Append([]string{
			strconv.Itoa(d.Index),
			d.Name,
			d.HostAPI,
			strconv.Itoa(d.MaxInputChannels),
			strconv.FormatFloat(d.DefaultRate, 'f', 0, 64),
			selected,
		})
	}
	table.Render()
	return nil
}

func printConfig(_ *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	shown := *cfg
	shown.Recognizer.APIKey = redact(shown.Recognizer.APIKey)
	shown.Translator.APIKey = redact(shown.Translator.APIKey)

	enc := yaml.NewEncoder(os.Stdout)
	enc.SetIndent(2)
	defer enc.Close()
	return enc.Encode(shown)
}

func redact(key string) string {
	if key == "" {
		return ""
	}
	return "********"
}
