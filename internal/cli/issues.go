package cli

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/jedib0t/go-pretty/v6/list"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/nimeshabuddhika/helix-alm-go/pkg/halm"
)

func (a *app) issuesCmd() *cobra.Command {
	issues := &cobra.Command{
		Use:   "issues",
		Short: "work with the issues of the configured project",
		Args:  cobra.NoArgs,
		RunE:  a.issuesList,
	}
	issues.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "list issues",
		Args:  cobra.NoArgs,
		RunE:  a.issuesList,
	})
	issues.AddCommand(&cobra.Command{
		Use:   "show <id>",
		Short: "show one issue with its fields and found by records",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseIssueID(args[0])
			if err != nil {
				return err
			}
			client, err := a.projectClient(cmd.Context())
			if err != nil {
				return err
			}
			issue, err := client.Issue(cmd.Context(), a.cfg.Project, id, halm.ExpandFoundByRecords)
			if err != nil {
				return err
			}
			prettyIssue(issue, cmd.OutOrStdout())
			return nil
		},
	})
	issues.AddCommand(a.issuesSetFieldCmd())
	issues.AddCommand(a.issuesAddEventCmd())
	issues.AddCommand(a.issuesAddFoundByCmd())
	return issues
}

func (a *app) issuesList(cmd *cobra.Command, _ []string) error {
	client, err := a.projectClient(cmd.Context())
	if err != nil {
		return err
	}
	issues, err := client.Issues(cmd.Context(), a.cfg.Project)
	if err != nil {
		return err
	}
	tw := table.NewWriter()
	tw.SetStyle(table.StyleColoredBlueWhiteOnBlack)
	tw.SetOutputMirror(cmd.OutOrStdout())
	tw.AppendHeader(table.Row{"Id", "Tag", "Summary", "Priority", "Status"})
	for _, issue := range issues {
		tw.AppendRow(table.Row{
			issue.ID,
			issue.Tag,
			halm.StringField(issue.Fields, "Summary"),
			halm.StringField(issue.Fields, "Priority"),
			halm.StringField(issue.Fields, "Status"),
		})
	}
	tw.AppendFooter(table.Row{"", "", fmt.Sprintf("%d issues", len(issues)), "", ""})
	tw.Render()
	return nil
}

func (a *app) issuesSetFieldCmd() *cobra.Command {
	var label, value string
	c := &cobra.Command{
		Use:   "set-field <id>",
		Short: "set a field on an issue and save it back",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseIssueID(args[0])
			if err != nil {
				return err
			}
			client, err := a.projectClient(cmd.Context())
			if err != nil {
				return err
			}
			issue, err := client.Issue(cmd.Context(), a.cfg.Project, id)
			if err != nil {
				return err
			}
			if !halm.SetFieldValue(issue.Fields, label, value) {
				return fmt.Errorf("issue %d has no field labelled %q", id, label)
			}
			if err := client.UpdateIssue(cmd.Context(), a.cfg.Project, issue); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Issue %d updated: %s = %s\n", id, label, value)
			return nil
		},
	}
	f := c.Flags()
	f.StringVar(&label, "label", "", "label of the field to set")
	f.StringVar(&value, "value", "", "new value; menu fields select by item label")
	_ = c.MarkFlagRequired("label")
	_ = c.MarkFlagRequired("value")
	return c
}

func (a *app) issuesAddEventCmd() *cobra.Command {
	var name, notes string
	c := &cobra.Command{
		Use:   "add-event <id>",
		Short: "apply a workflow event to an issue",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseIssueID(args[0])
			if err != nil {
				return err
			}
			client, err := a.projectClient(cmd.Context())
			if err != nil {
				return err
			}
			event := halm.Event{Name: name}
			if name == "Comment" {
				event = halm.CommentEvent(notes, time.Now())
			} else if notes != "" {
				event.Fields = []halm.Field{
					{Label: "Notes", Type: halm.FieldTypeString, String: &notes},
				}
			}
			created, err := client.AddIssueEvents(cmd.Context(), a.cfg.Project, id, event)
			if err != nil {
				return err
			}
			for _, e := range created {
				fmt.Fprintf(cmd.OutOrStdout(), "Added %s event %d to issue %d\n", e.Name, e.ID, id)
			}
			return nil
		},
	}
	f := c.Flags()
	f.StringVar(&name, "name", "Comment", "workflow event name")
	f.StringVar(&notes, "notes", "", "notes attached to the event")
	return c
}

func (a *app) issuesAddFoundByCmd() *cobra.Command {
	var foundBy, description, versionFound, dateFound string
	c := &cobra.Command{
		Use:   "add-found-by <id>",
		Short: "append a found by record to an issue",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseIssueID(args[0])
			if err != nil {
				return err
			}
			client, err := a.projectClient(cmd.Context())
			if err != nil {
				return err
			}
			if foundBy == "" {
				foundBy = a.cfg.Username
			}
			if dateFound == "" {
				dateFound = time.Now().UTC().Format(time.RFC3339)
			}
			record := halm.FoundByRecord{
				DateFound:    dateFound,
				FoundBy:      &halm.UserField{Username: foundBy},
				VersionFound: versionFound,
			}
			if description != "" {
				record.Description = &halm.FormattedString{Text: description}
			}
			if err := client.AddFoundByRecord(cmd.Context(), a.cfg.Project, id, record); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added found by record to issue %d\n", id)
			return nil
		},
	}
	f := c.Flags()
	f.StringVar(&foundBy, "by", "", "username that found the issue (defaults to the login)")
	f.StringVar(&description, "description", "", "how the issue was found")
	f.StringVar(&versionFound, "version", "", "version the issue was found in")
	f.StringVar(&dateFound, "date", "", "date found, RFC 3339 (defaults to now)")
	return c
}

func parseIssueID(arg string) (int, error) {
	id, err := strconv.Atoi(arg)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid issue id %q", arg)
	}
	return id, nil
}

func prettyIssue(issue *halm.Issue, out io.Writer) {
	l := list.NewWriter()
	l.SetOutputMirror(out)
	l.SetStyle(list.StyleConnectedLight)
	l.AppendItem(fmt.Sprintf("Issue %d: %s", issue.ID, issue.Tag))
	l.Indent()
	for _, f := range issue.Fields {
		l.AppendItem(fmt.Sprintf("%s: %s", f.Label, halm.StringField(issue.Fields, f.Label)))
	}
	if issue.FoundByRecords != nil && len(issue.FoundByRecords.FoundByRecordsData) > 0 {
		l.AppendItem(fmt.Sprintf("Found by records: %d", len(issue.FoundByRecords.FoundByRecordsData)))
	}
	l.UnIndent()
	l.Render()
}
