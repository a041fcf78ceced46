package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/tbourn/echome-x/internal/client"
)

var twinsCmd = &cobra.Command{
	Use:   "twins",
	Short: "List the twins you own",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		s, err := newSession()
		if err != nil {
			return err
		}
		if s.api.OwnerToken == "" {
			fmt.Fprintln(cmd.OutOrStdout(), s.ui.dim.Render("No twins yet. Run `echomectl quiz` to create one."))
			return nil
		}
		twins, err := s.api.Twins(cmd.Context())
		if err != nil {
			return err
		}
		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "\tID\tNAME\tCREATED")
		for _, t := range twins {
			cur := ""
			if t.ID == s.state.TwinID {
				cur = "*"
			}
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", cur, t.ID, t.Name, t.CreatedAt.Local().Format("2006-01-02 15:04"))
		}
		return tw.Flush()
	},
}

var deleteCmd = &cobra.Command{
	Use:   "delete [twin-id]",
	Short: "Delete a twin and its conversation history",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := newSession()
		if err != nil {
			return err
		}
		id := s.state.TwinID
		if len(args) == 1 {
			id = args[0]
		}
		if id == "" {
			return fmt.Errorf("no twin selected")
		}
		if err := s.api.DeleteTwin(cmd.Context(), id); err != nil {
			if client.IsNotFound(err) {
				return fmt.Errorf("twin %s not found", id)
			}
			return err
		}
		if id == s.state.TwinID {
			s.state.TwinID, s.state.TwinName = "", ""
			if err := client.SaveState(s.path, s.state); err != nil {
				return err
			}
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", s.ui.ok.Render("Deleted"), id)
		return nil
	},
}

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check that the server is up",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		s, err := newSession()
		if err != nil {
			return err
		}
		if err := s.api.Health(cmd.Context()); err != nil {
			fmt.Fprintln(cmd.OutOrStdout(), s.ui.err.Render("✗ unhealthy"))
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), s.ui.ok.Render("✓ healthy"))
		return nil
	},
}

var analyticsCmd = &cobra.Command{
	Use:   "analytics",
	Short: "Show the engagement dashboard",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		s, err := newSession()
		if err != nil {
			return err
		}
		a, err := s.api.Analytics(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), s.ui.box.Render(renderAnalytics(s.ui, a)))
		return nil
	},
}

func renderAnalytics(ui styles, a *client.Analytics) string {
	var b strings.Builder
	b.WriteString(ui.title.Render("Engagement") + "\n")
	fmt.Fprintf(&b, "Followers          %d\n", a.Followers)
	fmt.Fprintf(&b, "Engagement rate    %.1f%%\n", a.EngagementRate)
	fmt.Fprintf(&b, "Interactions       %d\n", a.TotalInteractions)
	fmt.Fprintf(&b, "Avg response       %.1fs\n", a.AverageResponseTime)
	fmt.Fprintf(&b, "Twins / turns      %d / %d\n", a.TwinCount, a.ConversationTurns)
	b.WriteString("\n" + ui.title.Render("Popular topics") + "\n")
	for _, t := range a.PopularTopics {
		fmt.Fprintf(&b, "%-14s %3d%% %s\n", t.Name, t.Percentage, strings.Repeat("█", t.Percentage/5))
	}
	b.WriteString("\n" + ui.title.Render("This week") + "\n")
	b.WriteString(ui.dim.Render(spark(a.WeeklyData)))
	return b.String()
}

var sparkRunes = []rune("▁▂▃▄▅▆▇█")

func spark(vals []int) string {
	if len(vals) == 0 {
		return "no data"
	}
	lo, hi := vals[0], vals[0]
	for _, v := range vals {
		lo, hi = min(lo, v), max(hi, v)
	}
	out := make([]rune, len(vals))
	for i, v := range vals {
		idx := 0
		if hi > lo {
			idx = (v - lo) * (len(sparkRunes) - 1) / (hi - lo)
		}
		out[i] = sparkRunes[idx]
	}
	return string(out)
}
