package cli

import (
	"encoding/json"
	"fmt"

	"github.com/rcliao/procrastinemon/internal/model"
	"github.com/spf13/cobra"
)

type resolveOutput struct {
	Date     string                 `json:"date"`
	Stats    model.ProgressionState `json:"stats"`
	Message  string                 `json:"message"`
	Replayed bool                   `json:"replayed"`
}

func init() {
	cmd := &cobra.Command{
		Use:   "resolve",
		Short: "Finish today for a user",
		Long:  "Finish today for a user and print the new stats with the feedback message from the configured provider (fixed text when none is set). Running it again prints the recorded result.",
		Run:   runResolve,
	}

	cmd.Flags().StringP("user", "u", "", "User id (required)")
	cmd.MarkFlagRequired("user")

	RootCmd.AddCommand(cmd)
}

func runResolve(cmd *cobra.Command, args []string) {
	user, _ := cmd.Flags().GetString("user")

	days, s, _ := openDays(cmd.Context())
	defer s.Close()

	out, err := days.ResolveToday(cmd.Context(), user)
	if err != nil {
		exitErr("resolve", err)
	}

	b, _ := json.MarshalIndent(resolveOutput{
		Date:     out.Result.Date,
		Stats:    out.Stats,
		Message:  out.Message,
		Replayed: out.Replayed,
	}, "", "  ")
	fmt.Println(string(b))
}
