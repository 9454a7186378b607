package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/nimeshabuddhika/helix-alm-go/internal/configs"
	"github.com/nimeshabuddhika/helix-alm-go/pkg/halm"
)

// version is stamped at build time via -ldflags.
var version = "dev"

// app carries the wired dependencies every command works with. The client is
// built once in the root's PersistentPreRunE.
type app struct {
	logger *zap.Logger
	cfg    *configs.Config
	client *halm.Client
}

func Root(logger *zap.Logger) *cobra.Command {
	a := &app{logger: logger}

	var (
		flagURL      string
		flagUsername string
		flagPassword string
		flagProject  string
		flagInsecure bool
		flagTimeout  int
	)

	root := &cobra.Command{
		Use:           "halm",
		Short:         "command line client for the Helix ALM REST API",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       version,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := configs.Load(a.logger)
			if err != nil {
				return err
			}
			// Flags win over environment and file configuration.
			if cmd.Flags().Changed("url") {
				cfg.APIURL = flagURL
			}
			if cmd.Flags().Changed("username") {
				cfg.Username = flagUsername
			}
			if cmd.Flags().Changed("password") {
				cfg.Password = flagPassword
			}
			if cmd.Flags().Changed("project") {
				cfg.Project = flagProject
			}
			if cmd.Flags().Changed("insecure") {
				cfg.InsecureSkipVerify = flagInsecure
			}
			if cmd.Flags().Changed("timeout") {
				cfg.TimeoutSeconds = flagTimeout
			}
			client, err := halm.New(cfg.ClientConfig(a.logger))
			if err != nil {
				return err
			}
			a.cfg = cfg
			a.client = client
			return nil
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&flagURL, "url", halm.DefaultBaseURL, "base URL of the REST API")
	pf.StringVarP(&flagUsername, "username", "u", "administrator", "login username")
	pf.StringVar(&flagPassword, "password", "", "login password")
	pf.StringVarP(&flagProject, "project", "p", "Traditional Template", "project to work in")
	pf.BoolVarP(&flagInsecure, "insecure", "k", false, "skip TLS certificate verification")
	pf.IntVar(&flagTimeout, "timeout", 30, "request timeout in seconds")

	root.AddCommand(
		a.pingCmd(),
		a.projectsCmd(),
		a.tokenCmd(),
		a.issuesCmd(),
		a.testRunsCmd(),
		a.mockServerCmd(),
	)
	return root
}

// projectClient exchanges the configured credentials for a project token,
// the way every project-scoped resource authenticates.
func (a *app) projectClient(ctx context.Context) (*halm.Client, error) {
	token, err := a.client.ProjectToken(ctx, a.cfg.Project)
	if err != nil {
		return nil, fmt.Errorf("failed to get an access token for %q: %w", a.cfg.Project, err)
	}
	return a.client.WithCredentials(token.Auth()), nil
}
