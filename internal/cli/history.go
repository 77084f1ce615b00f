package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List a user's finished days, newest first",
		Run:   runHistory,
	}

	cmd.Flags().StringP("user", "u", "", "User id (required)")
	cmd.Flags().IntP("limit", "l", 30, "Max results")
	cmd.MarkFlagRequired("user")

	RootCmd.AddCommand(cmd)
}

func runHistory(cmd *cobra.Command, args []string) {
	user, _ := cmd.Flags().GetString("user")
	limit, _ := cmd.Flags().GetInt("limit")

	days, s, _ := openDays(cmd.Context())
	defer s.Close()

	hist, err := days.History(cmd.Context(), user, limit)
	if err != nil {
		exitErr("history", err)
	}

	b, _ := json.MarshalIndent(hist, "", "  ")
	fmt.Println(string(b))
}
