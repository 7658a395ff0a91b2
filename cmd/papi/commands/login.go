package commands

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"syscall"

	"github.com/preservio/papi/pkg/papi"
	"github.com/preservio/papi/pkg/psclient"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/term"
)

// NewLoginCommand creates the login command.
func NewLoginCommand() *cobra.Command {
	var (
		apiEndpoint string
		username    string
		password    string
	)

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Login to a preservation repository",
		Long:  "Authenticate against a preservation repository API endpoint and save the endpoint and username for later commands",
		RunE: func(cmd *cobra.Command, args []string) error {
			if apiEndpoint == "" {
				apiEndpoint = viper.GetString("api")
			}

			if apiEndpoint == "" {
				reader := bufio.NewReader(os.Stdin)
				fmt.Print("API endpoint: ")
				apiEndpoint, _ = reader.ReadString('\n')
				apiEndpoint = strings.TrimSpace(apiEndpoint)
			}

			if apiEndpoint == "" {
				return ErrAPIRequired
			}

			if username == "" {
				username = viper.GetString("username")
			}

			if username == "" {
				reader := bufio.NewReader(os.Stdin)
				fmt.Print("Username: ")
				username, _ = reader.ReadString('\n')
				username = strings.TrimSpace(username)
			}

			if password == "" {
				fmt.Print("Password: ")
				bytePassword, err := term.ReadPassword(int(syscall.Stdin))
				if err != nil {
					return fmt.Errorf("failed to read password: %w", err)
				}
				password = string(bytePassword)
				fmt.Println()
			}

			// psclient.New performs the token exchange, so a successful
			// return means the credentials work.
			client, err := psclient.New(cmd.Context(), &papi.Config{
				APIEndpoint: apiEndpoint,
				Username:    username,
				Password:    password,
			})
			if err != nil {
				return fmt.Errorf("login failed: %w", err)
			}

			_, err = client.GetToken(cmd.Context())
			if err != nil {
				return fmt.Errorf("login failed: %w", err)
			}

			viper.Set("api", apiEndpoint)
			viper.Set("username", username)

			if err := viper.WriteConfig(); err != nil {
				// First login has no config file yet.
				if err := viper.SafeWriteConfig(); err != nil {
					return fmt.Errorf("saving config: %w", err)
				}
			}

			fmt.Printf("Logged in to %s as %s\n", apiEndpoint, username)

			return nil
		},
	}

	cmd.Flags().StringVar(&apiEndpoint, "api", "", "API endpoint URL")
	cmd.Flags().StringVarP(&username, "username", "u", "", "username")
	cmd.Flags().StringVarP(&password, "password", "p", "", "password (prompted when omitted)")

	return cmd
}
