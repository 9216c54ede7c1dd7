package main

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"meridian-hq/meridian/pkg/cli"
	"meridian-hq/meridian/pkg/config"
)

var keysFlags struct {
	count      int
	dailyLimit int
	userPrefix string
	format     string
}

var keysCmd = &cobra.Command{
	Use:   "keys",
	Short: "Manage gateway API keys",
	Long: `Generate API keys for the multi-user authentication mode.

Keys are random 48-hex-character strings with the conventional "sk-"
prefix. The generate subcommand prints a ready-to-paste users snippet
for the auth section of the gateway configuration.

Examples:
  # Generate one credential
  meridian keys generate

  # Generate three credentials with a 500 request/day quota
  meridian keys generate --count 3 --daily-limit 500`,
}

var keysGenerateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate new API keys",
	Long: `Generate one or more API keys with user IDs and daily quotas.

The default output is a YAML snippet for the auth.users list. Use
--format json for machine-readable output.

Examples:
  # Generate a single credential
  meridian keys generate

  # Generate keys for a team
  meridian keys generate --count 5 --user-prefix team-a --daily-limit 2000

  # JSON output for scripting
  meridian keys generate --format json`,
	RunE: generateKeys,
}

func init() {
	rootCmd.AddCommand(keysCmd)
	keysCmd.AddCommand(keysGenerateCmd)

	keysGenerateCmd.Flags().IntVar(&keysFlags.count, "count", 1, "number of credentials to generate")
	keysGenerateCmd.Flags().IntVar(&keysFlags.dailyLimit, "daily-limit", config.DefaultUserDailyLimit, "daily request quota per user")
	keysGenerateCmd.Flags().StringVar(&keysFlags.userPrefix, "user-prefix", "user", "user ID prefix")
	keysGenerateCmd.Flags().StringVar(&keysFlags.format, "format", "yaml", "output format: yaml, json")
}

// generatedUser is one credential in the generated users snippet. The
// YAML tags line up with the auth.users entries in the config file.
type generatedUser struct {
	UserID     string `json:"user_id" yaml:"user_id"`
	APIKey     string `json:"api_key" yaml:"api_key"`
	DailyLimit int    `json:"daily_limit" yaml:"daily_limit"`
}

func generateKeys(cmd *cobra.Command, args []string) error {
	if keysFlags.count < 1 {
		return cli.NewConfigError("count", "must be at least 1")
	}
	if keysFlags.dailyLimit < 1 {
		return cli.NewConfigError("daily-limit", "must be at least 1")
	}

	users := make([]generatedUser, 0, keysFlags.count)
	for i := 0; i < keysFlags.count; i++ {
		key, err := newAPIKey()
		if err != nil {
			return fmt.Errorf("generating key: %w", err)
		}
		users = append(users, generatedUser{
			UserID:     fmt.Sprintf("%s-%d", keysFlags.userPrefix, i+1),
			APIKey:     key,
			DailyLimit: keysFlags.dailyLimit,
		})
	}

	if keysFlags.format == string(cli.FormatJSON) {
		return cli.NewFormatter(cli.FormatJSON).FormatTo(os.Stdout, users)
	}

	cli.Okf(os.Stdout, "Generated %d credential(s)", len(users))
	fmt.Println()
	fmt.Println("⚠️  Warning: store keys securely and never commit them to version control")
	fmt.Println()
	fmt.Println("Configuration snippet:")
	snippet := map[string]interface{}{
		"auth": map[string]interface{}{
			"mode":  "multi_user",
			"users": users,
		},
	}
	return cli.NewFormatter(cli.FormatYAML).FormatTo(os.Stdout, snippet)
}

// newAPIKey returns an sk-prefixed key with 192 bits of entropy.
func newAPIKey() (string, error) {
	buf := make([]byte, 24)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return "sk-" + hex.EncodeToString(buf), nil
}
