/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/sepiroth887/mirror-voice-handler/bus"
	"github.com/sepiroth887/mirror-voice-handler/catalog"
	"github.com/sepiroth887/mirror-voice-handler/dialog"
	"github.com/sepiroth887/mirror-voice-handler/handler"
	"github.com/sepiroth887/mirror-voice-handler/status"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "mirror-voice-handler",
	Short: "voice assistant skill that forwards spoken commands to a MagicMirror running MMM-Remote-Control",
	Long:  ``,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if viper.GetBool("debug") {
			log.SetLevel(log.DebugLevel)
		} else {
			log.SetLevel(log.InfoLevel)
		}
	},
	Run: func(cmd *cobra.Command, args []string) {
		config, err := loadConfig(viper.GetString("config"))
		if err != nil {
			log.Error(err)
			os.Exit(exitCode(err))
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		log.Info("Starting up handler")
		if err := run(ctx, config); err != nil {
			log.Error(err)
			os.Exit(3)
		}
	},
}

type configError struct {
	code int
	err  error
}

func (e *configError) Error() string { return e.err.Error() }
func (e *configError) Unwrap() error { return e.err }

func exitCode(err error) int {
	var ce *configError
	if errors.As(err, &ce) {
		return ce.code
	}
	return 1
}

func loadConfig(path string) (handler.Configuration, error) {
	config := handler.DefaultConfiguration()
	cData, err := os.ReadFile(path)
	if err != nil {
		return config, &configError{1, fmt.Errorf("failed to load config: %w", err)}
	}
	if err := yaml.Unmarshal(cData, &config); err != nil {
		return config, &configError{2, fmt.Errorf("failed to parse config: %w", err)}
	}
	if config.Language != catalog.LangEnglish && config.Language != catalog.LangThai {
		return config, &configError{2, fmt.Errorf("unsupported language %q", config.Language)}
	}
	return config, nil
}

func run(ctx context.Context, config handler.Configuration) error {
	dialogs, err := dialog.New(config.Language)
	if err != nil {
		return fmt.Errorf("failed to load dialogs: %w", err)
	}

	client, err := bus.Dial(ctx, config.Bus.URL, config.Bus.SkillID)
	if err != nil {
		return err
	}
	defer client.Close()
	log.Infof("connected to message bus at %s", config.Bus.URL)

	h := handler.New(config, client, dialogs)
	if err := h.Attach(client); err != nil {
		return err
	}
	if err := h.Connect(ctx); err != nil {
		log.Warnf("magic mirror not connected: %v", err)
	}
	go h.MonitorMirror(ctx)

	if config.Status.Listen != "" {
		srv := status.NewServer(h)
		go func() {
			if err := srv.Listen(config.Status.Listen); err != nil {
				log.Errorf("status api stopped: %v", err)
			}
		}()
		defer srv.Shutdown()
	}

	err = client.Run(ctx)
	if ctx.Err() != nil {
		log.Info("shutting down")
		return nil
	}
	return err
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(exitCode(err))
	}
}

func init() {
	rootCmd.PersistentFlags().StringP("config", "c", "./config.yml", "mirror-voice-handler config yaml file")
	rootCmd.PersistentFlags().BoolP("debug", "v", false, "Debug logging")
	viper.BindPFlags(rootCmd.PersistentFlags())
}
