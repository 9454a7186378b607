package cli

import (
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

func (a *app) projectsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "projects",
		Short: "list the projects the configured user can access",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			projects, err := a.client.Projects(cmd.Context())
			if err != nil {
				return err
			}
			tw := table.NewWriter()
			tw.SetStyle(table.StyleColoredBlueWhiteOnBlack)
			tw.SetOutputMirror(cmd.OutOrStdout())
			tw.AppendHeader(table.Row{"Project"})
			for _, p := range projects {
				tw.AppendRow(table.Row{p.Name})
			}
			tw.AppendFooter(table.Row{fmt.Sprintf("%d projects", len(projects))})
			tw.Render()
			return nil
		},
	}
}

func (a *app) tokenCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "token",
		Short: "fetch an access token for the configured project",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			token, err := a.client.ProjectToken(cmd.Context(), a.cfg.Project)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token.AccessToken)
			return nil
		},
	}
}
