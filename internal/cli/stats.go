package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show database statistics or a user's progression",
		Run:   runStats,
	}

	cmd.Flags().StringP("user", "u", "", "Show this user's progression instead")

	RootCmd.AddCommand(cmd)
}

func runStats(cmd *cobra.Command, args []string) {
	user, _ := cmd.Flags().GetString("user")

	cfg, err := loadConfig()
	if err != nil {
		exitErr("load config", err)
	}
	s, err := openStore(cfg)
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	var out interface{}
	if user != "" {
		out, err = s.LoadState(cmd.Context(), user)
	} else {
		out, err = s.Stats(cmd.Context(), cfg.Database.Path)
	}
	if err != nil {
		exitErr("stats", err)
	}

	b, _ := json.MarshalIndent(out, "", "  ")
	fmt.Println(string(b))
}
