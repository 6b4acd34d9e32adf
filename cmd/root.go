package cmd

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/giftwise/giftwise/internal/utils"

	homedir "github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"
)

var cfgFile string

const (
	LOGO = `       _  __ _               _
  __ _(_)/ _| |___      __(_)___  ___
 / _' | | |_| __\ \ /\ / /| / __|/ _ \
| (_| | |  _| |_ \ V  V / | \__ \  __/
 \__, |_|_|  \__| \_/\_/  |_|___/\___|
 |___/
`
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "giftwise",
	Short: "Manage gifting campaigns and your digital business card from the command line.",
	Long: LOGO + `
giftwise edits your VCard and walks campaign drafts through gift selection,
message, landing page and email steps. Unsaved edits are staged in a local
workspace until you save or revert them.`,
	CompletionOptions: cobra.CompletionOptions{
		DisableDefaultCmd: true,
	},
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.giftwise.yaml)")

	// Global flags
	rootCmd.PersistentFlags().StringP("proxy", "", "", "HTTP Proxy (Useful for debugging. Example: http://127.0.0.1:8080)")
	rootCmd.PersistentFlags().StringP("loglevel", "l", "info", "Set log level. Available: debug, info, warn, error, fatal")
	rootCmd.PersistentFlags().String("dbpath", "", "Path to the local workspace database (default ~/.config/giftwise/workspace.sqlite)")
	rootCmd.PersistentFlags().String("session", "", "Path to the session cookie file (default ~/.config/giftwise/session.json)")
	rootCmd.PersistentFlags().String("api", "", "Backend base URL (overrides api.url)")

	viper.BindPFlag("db.path", rootCmd.PersistentFlags().Lookup("dbpath"))
	viper.BindPFlag("session.path", rootCmd.PersistentFlags().Lookup("session"))
	viper.BindPFlag("api.proxy", rootCmd.PersistentFlags().Lookup("proxy"))
	viper.BindPFlag("api.url", rootCmd.PersistentFlags().Lookup("api"))
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	viper.SetDefault("api.url", "http://localhost:5000")
	viper.SetDefault("api.timeout", 30*time.Second)
	viper.SetDefault("api.retries", 3)
	viper.SetDefault("api.proxy", "")
	viper.SetDefault("session.path", "")
	viper.SetDefault("db.path", "")
	viper.SetDefault("preview.listen", "127.0.0.1:7070")
	viper.SetDefault("preview.username", "")
	viper.SetDefault("preview.password", "")
	viper.SetDefault("catalog.concurrency", 5)

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := homedir.Dir()
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}
		viper.AddConfigPath(home)
		viper.SetConfigName(".giftwise")
		viper.SetConfigType("yaml")
	}

	viper.SetEnvPrefix("GIFTWISE")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// If a config file is found, read it in.
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			// Config file not found; create it with defaults.
			home, _ := homedir.Dir()
			configPath := home + "/.giftwise.yaml"
			if err := viper.SafeWriteConfigAs(configPath); err != nil {
				fmt.Printf("Error creating config file: %s", err)
			}
		}
	}

	// Init log library
	levelString, _ := rootCmd.PersistentFlags().GetString("loglevel")
	utils.SetLogLevel(levelString)
}
