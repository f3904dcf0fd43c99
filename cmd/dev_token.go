package cmd

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/curaious/projecthub/internal/api/authenticator"
	"github.com/curaious/projecthub/internal/config"
	"github.com/curaious/projecthub/internal/services/user"
)

var devTokenCmd = &cobra.Command{
	Use:   "dev-token",
	Short: "Mint an HMAC bearer token for local development",
	RunE: func(cmd *cobra.Command, args []string) error {
		conf := config.ReadConfig()
		if conf.AUTH_HMAC_SECRET == "" {
			return errors.New("AUTH_HMAC_SECRET is not set")
		}

		subject, _ := cmd.Flags().GetString("subject")
		email, _ := cmd.Flags().GetString("email")
		name, _ := cmd.Flags().GetString("name")
		ttl, _ := cmd.Flags().GetDuration("ttl")

		token, err := authenticator.NewHMACVerifier(conf.AUTH_HMAC_SECRET).Issue(user.Identity{Subject: subject, Email: email, Name: name}, ttl)
		if err != nil {
			return err
		}

		fmt.Fprintln(os.Stdout, token)
		return nil
	},
}

func init() {
	devTokenCmd.Flags().String("subject", "", "External subject of the principal")
	devTokenCmd.Flags().String("email", "", "Email claim")
	devTokenCmd.Flags().String("name", "", "Name claim")
	devTokenCmd.Flags().Duration("ttl", 24*time.Hour, "Token lifetime")
	_ = devTokenCmd.MarkFlagRequired("subject")

	rootCmd.AddCommand(devTokenCmd)
}
