package cli

import (
	"github.com/spf13/cobra"

	"github.com/matzehuels/houndview/pkg/buildinfo"
)

func (c *CLI) statusCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the active configuration and check the API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := c.cfg()

			file := "(defaults)"
			if c.Config != nil && c.Config.File != "" {
				file = c.Config.File
			}
			printKeyValue("houndview", buildinfo.String())
			printKeyValue("config", file)
			printKeyValue("cache", cfg.Cache.Backend)
			printKeyValue("auth", authMode(cfg.API.Token, cfg.API.TokenID, cfg.API.TokenKey))
			if cfg.Neo4j.URI != "" {
				printKeyValue("graph db", cfg.Neo4j.URI)
			}

			client, err := c.bloodhoundClient(cfg)
			if err != nil {
				printWarning("%s", err)
				return nil
			}
			printKeyValue("api", StyleLink.Render(client.BaseURL()))

			spinner := newSpinner(cmd.Context(), "Contacting API...")
			spinner.Start()
			v, err := client.Version(cmd.Context())
			spinner.Stop()
			if err != nil {
				return err
			}
			printKeyValue("server", v.Server)
			printKeyValue("api version", v.API.Current)
			printSuccess("API reachable")
			return nil
		},
	}
}

func authMode(token, tokenID, tokenKey string) string {
	switch {
	case tokenID != "" && tokenKey != "":
		return "signed (token " + tokenID + ")"
	case token != "":
		return "bearer token"
	}
	return "none"
}
