package cmd

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/firstperson-network/go-dtg-credentials/credential/common/config"
)

const (
	envPrefix         = "DTG"
	defaultConfigName = "dtg-credential"

	flagConfig            = "config"
	flagVerbose           = "verbose"
	flagResolverURL       = "resolver-url"
	flagResolutionTimeout = "resolution-timeout"
	flagCacheSize         = "cache-size"
	flagCacheTTL          = "cache-ttl"
	flagRetries           = "retries"
)

var (
	cfgFile string
	conf    = viper.New()
	logger  = zap.NewNop()
)

var rootCmd = &cobra.Command{
	Use:   "dtg-credential",
	Short: "Create, sign and verify DTG credentials.",
	Long: `Create, sign and verify Decentralized Trust Graph credentials.

Settings are read from flags, DTG_* environment variables (DTG_RESOLVER_URL,
DTG_RESOLUTION_TIMEOUT, ...) and an optional dtg-credential.yaml file.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		return initConfig(cmd)
	},
	PersistentPostRun: func(_ *cobra.Command, _ []string) {
		_ = logger.Sync()
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, flagConfig, "", "config file (default is ./dtg-credential.yaml or $HOME/.dtg/dtg-credential.yaml)")
	flags.BoolP(flagVerbose, "v", false, "enable debug logging")
	flags.String(flagResolverURL, config.DefaultResolverURL, "universal resolver endpoint for non did:key DIDs")
	flags.Duration(flagResolutionTimeout, config.DefaultResolutionTimeout, "timeout for resolving a verification method")
	flags.Int(flagCacheSize, config.DefaultCacheSize, "number of resolved keys kept in memory")
	flags.Duration(flagCacheTTL, config.DefaultCacheTTL, "how long a resolved key is cached")
	flags.Uint64(flagRetries, 0, "retries for failed resolver requests")

	rootCmd.AddCommand(keygenCmd, issueCmd, verifyCmd, exampleCmd)
}

// initConfig reads in config file and ENV variables if set.
func initConfig(cmd *cobra.Command) error {
	if cfgFile != "" {
		conf.SetConfigFile(cfgFile)
	} else {
		conf.SetConfigType("yaml")
		conf.SetConfigName(defaultConfigName)
		conf.AddConfigPath(".")
		conf.AddConfigPath("$HOME/.dtg")
	}

	conf.SetEnvPrefix(envPrefix)
	conf.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	conf.AutomaticEnv()

	if err := conf.BindPFlags(cmd.Flags()); err != nil {
		return fmt.Errorf("failed to bind flags: %w", err)
	}

	if err := conf.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			return fmt.Errorf("failed to read config %s: %w", conf.ConfigFileUsed(), err)
		}
	}

	l, err := newLogger(conf.GetBool(flagVerbose))
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	logger = l

	logger.Debug("configuration loaded",
		zap.String("configFile", conf.ConfigFileUsed()),
		zap.String("resolverURL", conf.GetString(flagResolverURL)))

	return nil
}

func newLogger(verbose bool) (*zap.Logger, error) {
	if verbose {
		return zap.NewDevelopment()
	}

	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
	return cfg.Build()
}

func resolverConfig() *config.Config {
	return config.New(config.Config{
		ResolverURL:       conf.GetString(flagResolverURL),
		ResolutionTimeout: conf.GetDuration(flagResolutionTimeout),
		CacheSize:         conf.GetInt(flagCacheSize),
		CacheTTL:          conf.GetDuration(flagCacheTTL),
		Retries:           conf.GetUint64(flagRetries),
	})
}
