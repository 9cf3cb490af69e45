/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"github.com/sepiroth887/mirror-voice-handler/settings"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var setIPCmd = &cobra.Command{
	Use:   "set-ip <address>",
	Short: "store the MagicMirror ip address in ip.json",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		config, err := loadConfig(viper.GetString("config"))
		if err != nil {
			return err
		}
		if err := settings.SaveIP(config.SkillDir, args[0]); err != nil {
			return err
		}
		log.Infof("mirror ip address set to %s in %s", args[0], config.SkillDir)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(setIPCmd)
}
