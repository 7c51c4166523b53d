package cli

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/verifychain/credentials-sdk-go/pkg/shared"
)

type options struct {
	configPath string
	logLevel   string
	logJSON    bool
	logger     zerolog.Logger
	out        io.Writer
}

// NewRootCmd builds the credconsole command tree.
func NewRootCmd() *cobra.Command {
	opts := &options{logger: zerolog.Nop(), out: os.Stdout}

	cmd := &cobra.Command{
		Use:   "credconsole",
		Short: "Issue and inspect VerifychainNFT soulbound credentials",
		Long: `Credconsole drives the VerifychainNFT credential contract.

The contract owner can issue credentials to one or many recipients. Anyone can
look up a credential by id, list a range of ids, render a QR code for its
metadata URI, or serve the same operations over an HTTP API.

Settings come from a YAML file (--config) and the environment. A .env file in
the working directory is loaded when present.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			shared.LoadDotEnv()
			opts.out = cmd.OutOrStdout()
			return opts.setupLogger(cmd.ErrOrStderr())
		},
	}

	cmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", os.Getenv("VERIFYCHAIN_CONFIG"), "Path to a YAML config file")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "Log level (debug, info, warn, error); defaults to LOG_LEVEL or info")
	cmd.PersistentFlags().BoolVar(&opts.logJSON, "log-json", false, "Write logs as JSON instead of console output")

	cmd.AddCommand(
		newServeCmd(opts),
		newOwnerCmd(opts),
		newIssueCmd(opts),
		newIssueBatchCmd(opts),
		newLookupCmd(opts),
		newListCmd(opts),
		newQRCmd(opts),
		newMetadataCmd(opts),
	)

	return cmd
}

func (o *options) setupLogger(w io.Writer) error {
	level := strings.TrimSpace(o.logLevel)
	if level == "" {
		level = os.Getenv("LOG_LEVEL")
	}
	if level == "" {
		level = zerolog.InfoLevel.String()
	}
	parsed, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil {
		return err
	}

	var output io.Writer = w
	if !o.logJSON {
		output = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	}
	o.logger = zerolog.New(output).Level(parsed).With().Timestamp().Logger()
	return nil
}
