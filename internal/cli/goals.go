package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func init() {
	goalsCmd := &cobra.Command{
		Use:   "goals",
		Short: "Manage today's goals",
	}
	goalsCmd.PersistentFlags().StringP("user", "u", "", "User id (required)")
	goalsCmd.MarkPersistentFlagRequired("user")

	addCmd := &cobra.Command{
		Use:   "add [text]",
		Short: "Add a goal for today",
		Long:  "Add a goal for today. At most three goals per day; a finished day takes no more.",
		Args:  cobra.MinimumNArgs(1),
		Run:   runGoalsAdd,
	}

	toggleCmd := &cobra.Command{
		Use:   "toggle [goal-id]",
		Short: "Flip a goal between done and not done",
		Args:  cobra.ExactArgs(1),
		Run:   runGoalsToggle,
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List today's goals",
		Run:   runGoalsList,
	}

	startCmd := &cobra.Command{
		Use:   "start",
		Short: "Open today with an empty goal set",
		Run:   runGoalsStart,
	}

	goalsCmd.AddCommand(addCmd, toggleCmd, listCmd, startCmd)
	RootCmd.AddCommand(goalsCmd)
}

func runGoalsAdd(cmd *cobra.Command, args []string) {
	user, _ := cmd.Flags().GetString("user")
	text := strings.TrimSpace(strings.Join(args, " "))

	days, s, _ := openDays(cmd.Context())
	defer s.Close()

	g, err := days.AddGoal(cmd.Context(), user, text)
	if err != nil {
		exitErr("add goal", err)
	}

	b, _ := json.Marshal(g)
	fmt.Println(string(b))
}

func runGoalsToggle(cmd *cobra.Command, args []string) {
	user, _ := cmd.Flags().GetString("user")

	days, s, _ := openDays(cmd.Context())
	defer s.Close()

	g, err := days.ToggleGoal(cmd.Context(), user, args[0])
	if err != nil {
		exitErr("toggle goal", err)
	}

	b, _ := json.Marshal(g)
	fmt.Println(string(b))
}

func runGoalsList(cmd *cobra.Command, args []string) {
	user, _ := cmd.Flags().GetString("user")

	days, s, _ := openDays(cmd.Context())
	defer s.Close()

	goals, err := days.Goals(cmd.Context(), user)
	if err != nil {
		exitErr("list goals", err)
	}

	b, _ := json.MarshalIndent(map[string]interface{}{
		"date":  days.Today(),
		"goals": goals,
	}, "", "  ")
	fmt.Println(string(b))
}

func runGoalsStart(cmd *cobra.Command, args []string) {
	user, _ := cmd.Flags().GetString("user")

	days, s, _ := openDays(cmd.Context())
	defer s.Close()

	if err := days.StartDay(cmd.Context(), user); err != nil {
		exitErr("start day", err)
	}
	fmt.Printf(`{"ok":true,"date":%q}`+"\n", days.Today())
}
