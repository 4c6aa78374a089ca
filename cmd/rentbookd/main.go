package main

import (
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/MarkoPoloResearchLab/rentbook/internal/webapi"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	flagListenAddr        = "listen-addr"
	flagAllowedOrigins    = "allowed-origins"
	flagAccessCode        = "access-code"
	flagSessionSigningKey = "session-signing-key"
	flagSessionIssuer     = "session-issuer"
	flagSessionCookieName = "session-cookie-name"
	flagSessionTTL        = "session-ttl"
	flagDatabaseURL       = "database-url"
	flagKVRestURL         = "kv-rest-url"
	flagKVRestToken       = "kv-rest-token"
	flagDocumentKey       = "document-key"
	flagStoreTimeout      = "store-timeout"
	envPrefix             = "RENTBOOK"
)

func main() {
	rootCmd := newRootCommand()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "rentbookd: %v\n", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	cfg := webapi.Config{}
	cmd := &cobra.Command{
		Use:           "rentbookd",
		Short:         "HTTP API for the rental bookkeeping document",
		SilenceUsage:  true,
		SilenceErrors: true,
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return loadConfig(cmd, &cfg)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return webapi.Run(ctx, cfg)
		},
	}

	cmd.Flags().String(flagListenAddr, "", "HTTP listen address")
	cmd.Flags().String(flagAllowedOrigins, "", "comma-separated list of allowed CORS origins")
	cmd.Flags().String(flagAccessCode, "", "shared access code for the login gate")
	cmd.Flags().String(flagSessionSigningKey, "", "session cookie signing key (required)")
	cmd.Flags().String(flagSessionIssuer, "", "session token issuer")
	cmd.Flags().String(flagSessionCookieName, "", "session cookie name")
	cmd.Flags().Duration(flagSessionTTL, 0, "session cookie lifetime (e.g. 2160h)")
	cmd.Flags().String(flagDatabaseURL, "", "database URL (postgres:// or a sqlite path)")
	cmd.Flags().String(flagKVRestURL, "", "base URL of the hosted key-value store")
	cmd.Flags().String(flagKVRestToken, "", "bearer token for the hosted key-value store")
	cmd.Flags().String(flagDocumentKey, "", "key of the persisted document")
	cmd.Flags().Duration(flagStoreTimeout, 0, "per-request backing store timeout (e.g. 5s)")

	return cmd
}

func loadConfig(cmd *cobra.Command, cfg *webapi.Config) error {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	flagNames := []string{
		flagListenAddr, flagAllowedOrigins, flagAccessCode,
		flagSessionSigningKey, flagSessionIssuer, flagSessionCookieName, flagSessionTTL,
		flagDatabaseURL, flagKVRestURL, flagKVRestToken, flagDocumentKey, flagStoreTimeout,
	}
	for _, flagName := range flagNames {
		if err := v.BindPFlag(flagName, cmd.Flags().Lookup(flagName)); err != nil {
			return err
		}
	}

	cfg.ListenAddr = strings.TrimSpace(v.GetString(flagListenAddr))
	cfg.AllowedOrigins = webapi.ParseAllowedOrigins(v.GetString(flagAllowedOrigins))
	cfg.AccessCode = v.GetString(flagAccessCode)
	cfg.SessionSigningKey = v.GetString(flagSessionSigningKey)
	cfg.SessionIssuer = strings.TrimSpace(v.GetString(flagSessionIssuer))
	cfg.SessionCookieName = strings.TrimSpace(v.GetString(flagSessionCookieName))
	cfg.SessionTTL = v.GetDuration(flagSessionTTL)
	cfg.DatabaseURL = strings.TrimSpace(v.GetString(flagDatabaseURL))
	cfg.KVRestURL = strings.TrimSpace(v.GetString(flagKVRestURL))
	cfg.KVRestToken = v.GetString(flagKVRestToken)
	cfg.DocumentKey = strings.TrimSpace(v.GetString(flagDocumentKey))
	cfg.StoreTimeout = v.GetDuration(flagStoreTimeout)

	return cfg.Validate()
}
