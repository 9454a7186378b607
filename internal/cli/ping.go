package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nimeshabuddhika/helix-alm-go/pkg/halm"
)

func (a *app) pingCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ping",
		Short: "check connectivity to the REST API server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			versions, err := a.client.Versions(cmd.Context())
			if err != nil {
				if apiErr, ok := halm.AsAPIError(err); ok && apiErr.Cause != nil {
					base := a.cfg.APIURL
					if !strings.HasSuffix(base, "/") {
						base += "/"
					}
					fmt.Fprintf(cmd.OutOrStdout(),
						"Could not reach %s.\nIs the Helix ALM REST API running at that address? Open %sversions in a browser; a JSON response means the server is up.\n",
						a.cfg.APIURL, base)
				}
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "REST API %s on Helix ALM %s\n",
				versions.RESTAPIVersion, versions.ServerVersion)
			return nil
		},
	}
}
