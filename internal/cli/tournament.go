package cli

import (
	"net/url"

	"github.com/spf13/cobra"
)

func newTournamentCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "tournament",
		Aliases: []string{"t"},
		Short:   "Tournament commands",
	}

	cmd.AddCommand(newTournamentCreateCmd())
	cmd.AddCommand(newTournamentListCmd())
	cmd.AddCommand(newTournamentGetCmd())
	cmd.AddCommand(newTournamentRegisterCmd())
	cmd.AddCommand(newTournamentMineCmd())

	return cmd
}

func newTournamentCreateCmd() *cobra.Command {
	var name, sport, description, start, end, location string
	var maxParticipants int

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a tournament (organizers only)",
		RunE: func(cmd *cobra.Command, args []string) error {
			req := map[string]any{
				"name":             name,
				"sport":            sport,
				"description":      description,
				"start_date":       start,
				"end_date":         end,
				"location":         location,
				"max_participants": maxParticipants,
			}
			var result Tournament

			if err := client.Post(cmd.Context(), "/api/tournaments", req, &result); err != nil {
				return err
			}

			NewOutput(cfg.Output, cmd.OutOrStdout()).Print(result)
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Tournament name (required)")
	cmd.Flags().StringVar(&sport, "sport", "", "Sport (required)")
	cmd.Flags().StringVar(&description, "description", "", "Description")
	cmd.Flags().StringVar(&start, "start", "", "Start date, ISO 8601 (required)")
	cmd.Flags().StringVar(&end, "end", "", "End date, ISO 8601 (required)")
	cmd.Flags().StringVar(&location, "location", "", "Location (required)")
	cmd.Flags().IntVar(&maxParticipants, "max", 0, "Maximum participants (required)")
	for _, f := range []string{"name", "sport", "start", "end", "location", "max"} {
		_ = cmd.MarkFlagRequired(f)
	}

	return cmd
}

func newTournamentListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all tournaments",
		RunE: func(cmd *cobra.Command, args []string) error {
			var result TournamentList

			if err := client.Get(cmd.Context(), "/api/tournaments", &result); err != nil {
				return err
			}

			NewOutput(cfg.Output, cmd.OutOrStdout()).Print(result)
			return nil
		},
	}
}

func newTournamentGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "Show one tournament",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var result TournamentDetails

			if err := client.Get(cmd.Context(), "/api/tournaments/"+url.PathEscape(args[0]), &result); err != nil {
				return err
			}

			NewOutput(cfg.Output, cmd.OutOrStdout()).Print(result)
			return nil
		},
	}
}

func newTournamentRegisterCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "register <id>",
		Short: "Register for a tournament (participants only)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var result MessageResult

			path := "/api/tournaments/" + url.PathEscape(args[0]) + "/register"
			if err := client.Post(cmd.Context(), path, nil, &result); err != nil {
				return err
			}

			NewOutput(cfg.Output, cmd.OutOrStdout()).PrintMessage(result.Message)
			return nil
		},
	}
}

func newTournamentMineCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mine",
		Short: "List tournaments you organize or are registered for",
		RunE: func(cmd *cobra.Command, args []string) error {
			var result TournamentList

			if err := client.Get(cmd.Context(), "/api/my-tournaments", &result); err != nil {
				return err
			}

			NewOutput(cfg.Output, cmd.OutOrStdout()).Print(result)
			return nil
		},
	}
}
