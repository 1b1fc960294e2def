package main

import (
	"consensus-chat/auth"
	"consensus-chat/internal"
	"fmt"

	"github.com/spf13/cobra"
)

func newTokenCmd() *cobra.Command {
	var user string
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint a room token signed with JWT_SECRET_KEY",
		RunE: wrap(func(cmd *cobra.Command, _ []string) (int, error) {
			var config internal.TokenConfig
			if err := internal.Load(&config, envFiles()...); err != nil {
				return exitConfig, err
			}
			token, err := auth.GenerateToken([]byte(config.JWTSecretKey), user, config.AuthTokenDuration)
			if err != nil {
				return exitConfig, err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return exitOK, nil
		}),
	}
	cmd.Flags().StringVar(&user, "user", "", "user id carried by the token")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}
