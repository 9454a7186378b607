package cli

import (
	"fmt"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/nimeshabuddhika/helix-alm-go/pkg/halm"
)

func (a *app) testRunsCmd() *cobra.Command {
	testruns := &cobra.Command{
		Use:   "testruns",
		Short: "work with test runs of the configured project",
		Args:  cobra.NoArgs,
	}
	testruns.AddCommand(a.testRunsGenerateCmd())
	return testruns
}

func (a *app) testRunsGenerateCmd() *cobra.Command {
	var (
		testCases []int
		setLabel  string
		variants  []string
		markPass  bool
		notes     string
	)
	c := &cobra.Command{
		Use:   "generate",
		Short: "generate test runs from test cases",
		Long: "Generates test runs from the given test cases, optionally filing them " +
			"under a test run set, expanding test variants, and applying a Pass event " +
			"to every generated run.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			req := halm.GenerateTestRunsRequest{TestCaseIDs: testCases}
			if setLabel != "" {
				req.TestRunSet = &halm.TestRunSet{Label: setLabel}
			}
			for _, v := range variants {
				variant, err := parseVariant(v)
				if err != nil {
					return err
				}
				req.Variants = append(req.Variants, variant)
			}
			if markPass {
				req.EventsData = []halm.Event{halm.PassEvent(notes)}
			}

			client, err := a.projectClient(cmd.Context())
			if err != nil {
				return err
			}
			result, err := client.GenerateTestRuns(cmd.Context(), a.cfg.Project, req)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			tw := table.NewWriter()
			tw.SetStyle(table.StyleColoredBlueWhiteOnBlack)
			tw.SetOutputMirror(out)
			tw.AppendHeader(table.Row{"Id", "Tag", "Summary", "Status"})
			for _, run := range result.TestRuns {
				tw.AppendRow(table.Row{
					run.ID,
					run.Tag,
					halm.StringField(run.Fields, "Summary"),
					halm.StringField(run.Fields, "Status"),
				})
			}
			tw.AppendFooter(table.Row{"", "", fmt.Sprintf("%d test runs", len(result.TestRuns)), ""})
			tw.Render()

			if result.Partial() {
				fmt.Fprintln(out, "Some test runs could not be generated:")
				for _, detail := range result.Errors {
					fmt.Fprintln(out, "  "+halm.NormalizeError(detail, 0).Error())
				}
			}
			return nil
		},
	}
	f := c.Flags()
	f.IntSliceVar(&testCases, "test-case", nil, "test case id to generate from (repeatable)")
	f.StringVar(&setLabel, "set", "", "test run set to file the runs under")
	f.StringArrayVar(&variants, "variant", nil,
		`test variant expansion as "Label=Value1,Value2" (repeatable)`)
	f.BoolVar(&markPass, "pass", false, "apply a Pass event to every generated run")
	f.StringVar(&notes, "notes", "", "notes for the Pass event")
	_ = c.MarkFlagRequired("test-case")
	return c
}

// parseVariant turns "Operating System=Windows,Linux" into a Variant with
// one menu item per value.
func parseVariant(raw string) (halm.Variant, error) {
	label, values, ok := strings.Cut(raw, "=")
	if !ok || label == "" || values == "" {
		return halm.Variant{}, fmt.Errorf(`invalid variant %q, expected "Label=Value1,Value2"`, raw)
	}
	variant := halm.Variant{Label: label}
	for _, value := range strings.Split(values, ",") {
		value = strings.TrimSpace(value)
		if value == "" {
			continue
		}
		variant.MenuItemArray = append(variant.MenuItemArray, halm.MenuItem{Label: value})
	}
	if len(variant.MenuItemArray) == 0 {
		return halm.Variant{}, fmt.Errorf(`invalid variant %q, expected "Label=Value1,Value2"`, raw)
	}
	return variant, nil
}
