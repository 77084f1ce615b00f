package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/rcliao/procrastinemon/internal/auth"
	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint an HS256 bearer token for local use",
		Long:  "Mint an HS256 bearer token signed with auth.secret. Only useful when the server runs with auth.mode hmac.",
		Run:   runToken,
	}

	cmd.Flags().StringP("user", "u", "", "User id (required)")
	cmd.Flags().Duration("ttl", time.Hour, "Token lifetime")
	cmd.MarkFlagRequired("user")

	RootCmd.AddCommand(cmd)
}

func runToken(cmd *cobra.Command, args []string) {
	user, _ := cmd.Flags().GetString("user")
	ttl, _ := cmd.Flags().GetDuration("ttl")

	cfg, err := loadConfig()
	if err != nil {
		exitErr("load config", err)
	}
	if !strings.EqualFold(cfg.Auth.Mode, "hmac") {
		exitErr("token", fmt.Errorf("auth mode is %q, tokens can only be minted for hmac", cfg.Auth.Mode))
	}

	v, err := auth.NewHMACVerifier(cfg.Auth.Secret, cfg.Auth.Issuer, cfg.Auth.Audience)
	if err != nil {
		exitErr("token", err)
	}
	tok, err := v.Issue(user, ttl)
	if err != nil {
		exitErr("token", err)
	}
	fmt.Println(tok)
}
