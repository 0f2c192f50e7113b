package commands

import (
	"os"

	_ "github.com/joho/godotenv/autoload"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"pichat/internal/config"
)

var (
	cfg *config.AppConfig
	log *logrus.Logger
)

func Execute() error {
	root := &cobra.Command{
		Use:   "pichat",
		Short: "Autonomous Raspberry Pi chat node",
		Long: "pichat runs an autonomous chat node: two Raspberry Pis talk to each " +
			"other over MQTT, with a cloud language model writing each side of the " +
			"conversation and an attached screen showing it.",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			cfg = config.Load()
			log = newLogger()
		},
	}

	root.AddCommand(runCmd(), mcpCmd(), sendCmd())
	return root.Execute()
}

func newLogger() *logrus.Logger {
	l := logrus.New()
	l.SetFormatter(&logrus.JSONFormatter{})
	l.SetOutput(os.Stdout)

	if lvl, err := logrus.ParseLevel(os.Getenv("LOG_LEVEL")); err == nil {
		l.SetLevel(lvl)
	}
	return l
}
