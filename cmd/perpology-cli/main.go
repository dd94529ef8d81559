package main

import (
	"fmt"
	"log"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"perpology/internal/client"
	"perpology/internal/tui"
)

func main() {
	_ = godotenv.Load()

	var serverURL string
	var walletAddress string

	rootCmd := &cobra.Command{
		Use:   "perpology-cli",
		Short: "Terminal client for the Perpology trading assistant",
		RunE: func(cmd *cobra.Command, args []string) error {
			if walletAddress == "" {
				walletAddress = os.Getenv("PERPOLOGY_WALLET")
			}
			if walletAddress == "" {
				return fmt.Errorf("a wallet address is required (--wallet or PERPOLOGY_WALLET)")
			}
			wallet, err := client.NewStaticWallet(walletAddress)
			if err != nil {
				return err
			}

			controller := client.NewController(client.NewAPIClient(serverURL), wallet)
			if err := controller.Connect(); err != nil {
				return err
			}

			program := tea.NewProgram(tui.NewModel(controller), tea.WithAltScreen())
			_, err = program.Run()
			return err
		},
	}
	rootCmd.Flags().StringVar(&serverURL, "server", "http://localhost:8080", "chat server base URL")
	rootCmd.Flags().StringVar(&walletAddress, "wallet", "", "wallet address used as chat identity")

	if err := rootCmd.Execute(); err != nil {
		log.Fatal(err)
	}
}
