package flagops

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"flagops/cmd/flagops/approvals"
	"flagops/cmd/flagops/get"
	"flagops/cmd/flagops/list"
	"flagops/cmd/flagops/remove"
	"flagops/cmd/flagops/setup"
	"flagops/internal/cli"
	"flagops/internal/common"
	"flagops/internal/config"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var availableOutputs = []string{
	"text",
	"json",
}

var availableLogLevels = []string{
	string(common.LogLevelTrace),
	string(common.LogLevelDebug),
	string(common.LogLevelInfo),
	string(common.LogLevelWarn),
	string(common.LogLevelError),
}

var persistentFlags cli.Flags = cli.Flags{
	{
		Name:         "config",
		Short:        'C',
		DefaultValue: "~/.flagops/config",
		Usage:        "Defines the location of the global configuration used",
		Type:         cli.FlagTypeString,
	},
	{
		Name:         "log-level",
		Short:        'l',
		DefaultValue: "info",
		Usage:        fmt.Sprintf("Sets the log level (one of [%s])", strings.Join(availableLogLevels, ", ")),
		Type:         cli.FlagTypeString,
	},
	{
		Name:         "log-file",
		DefaultValue: "",
		Usage:        "When specified, tees log output to the given file",
		Type:         cli.FlagTypeString,
	},
	{
		Name:         "output",
		Short:        'o',
		DefaultValue: "text",
		Usage:        fmt.Sprintf("Sets the output format where applicable (one of [%s])", strings.Join(availableOutputs, ", ")),
		Type:         cli.FlagTypeString,
	},
}

func init() {
	Command.AddCommand(approvals.Command)
	Command.AddCommand(get.Command)
	Command.AddCommand(list.Command)
	Command.AddCommand(remove.Command)
	Command.AddCommand(setup.Command)
	Command.SilenceErrors = true
	Command.SilenceUsage = true

	persistentFlags.AddToCommand(Command, true)

	logrus.SetOutput(os.Stderr)
	cobra.OnInitialize(func() {
		persistentFlags.BindViper(Command, true)
		cli.InitLogging(viper.GetString("log-level"))
		if logFilePath := viper.GetString("log-file"); logFilePath != "" {
			if err := cli.InitLogFile(logFilePath); err != nil {
				logrus.Warnf("failed to initialise log file: %s", err)
			}
		}
		configPath := expandHome(viper.GetString("config"))
		logrus.Debugf("using configuration at path[%s]", configPath)
		if err := config.LoadGlobal(configPath); err != nil {
			logrus.Warnf("failed to load global configuration: %s", err)
		}
		if config.Global.ApiUrl != "" {
			// flags and env still win, this only replaces the
			// built-in default
			viper.SetDefault("api-url", config.Global.ApiUrl)
		}
	})

	cli.InitConfig()
}

func expandHome(path string) string {
	if strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[2:])
		}
	}
	return path
}

var Command = &cobra.Command{
	Use:     "flagops",
	Short:   "Provisions feature flag projects and governs their change approvals",
	Version: config.GetVersion(),
	Long:    "Provisions feature flag platform projects and environments, and configures, verifies, and removes their change-approval policies in bulk",
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
}
