package main

import (
	"bufio"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/acheong08/depguardian/internal/errs"
	"github.com/acheong08/depguardian/internal/render"
	"github.com/acheong08/depguardian/internal/report"
	"github.com/acheong08/depguardian/internal/store"
)

func newReportsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "reports",
		Aliases: []string{"report"},
		Short:   "Browse stored reports",
	}
	cmd.AddCommand(
		newListCmd(a),
		newShowCmd(a),
		newPackageCmd(a),
		newDeleteCmd(a),
	)
	return cmd
}

func newListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List reports, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			reports, err := a.store.List(cmd.Context())
			if err != nil {
				return err
			}
			return render.Summaries(cmd.OutOrStdout(), report.SummarizeAll(reports))
		},
	}
}

func newShowCmd(a *app) *cobra.Command {
	var (
		filter report.Filter
		where  string
	)

	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show the health overview and packages of a report",
		Long: `Show the health overview and packages of a report.

--where takes a boolean expression over: index, name, version, risk,
raw_risk, security, freshness, license, status, vulns (list of badges)
and estimated.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			q, err := report.CompileQuery(where)
			if err != nil {
				return err
			}
			stored, err := store.Find(cmd.Context(), a.store, args[0])
			if err != nil {
				return err
			}
			view, err := report.Open(stored, filter, q)
			if err != nil {
				return err
			}
			return render.View(cmd.OutOrStdout(), view)
		},
	}
	cmd.Flags().StringVar(&filter.Risk, "risk", report.RiskAll, "Only packages with this risk level (All, High, Medium, Low, Secure)")
	cmd.Flags().StringVarP(&filter.Query, "query", "q", "", "Only packages whose name contains this text")
	cmd.Flags().StringVar(&where, "where", "", "Only packages matching this expression")
	return cmd
}

func newPackageCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "package <id> <index>",
		Short: "Show one package of a report",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			index, err := strconv.Atoi(args[1])
			if err != nil {
				return errs.Validation("reports.package", fmt.Errorf("invalid package index %q", args[1]))
			}
			stored, err := store.Find(cmd.Context(), a.store, args[0])
			if err != nil {
				return err
			}
			detail, err := report.PackageAt(stored, index)
			if err != nil {
				return err
			}
			return render.Detail(cmd.OutOrStdout(), detail)
		},
	}
}

func newDeleteCmd(a *app) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a report",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			stored, err := store.Find(cmd.Context(), a.store, args[0])
			if err != nil {
				return err
			}

			if !yes {
				fmt.Fprintf(cmd.OutOrStdout(), "Delete %q? This cannot be undone. [y/N] ", stored.DisplayTitle())
				answer, _ := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
				answer = strings.ToLower(strings.TrimSpace(answer))
				if answer != "y" && answer != "yes" {
					fmt.Fprintln(cmd.OutOrStdout(), "Cancelled.")
					return nil
				}
			}

			if err := a.store.Remove(cmd.Context(), stored.ID); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", stored.ID)
			return nil
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Skip the confirmation prompt")
	return cmd
}
