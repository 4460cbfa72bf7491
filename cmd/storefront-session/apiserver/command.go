package apiserver

import (
	"github.com/spf13/cobra"

	"github.com/openkcm/storefront-session/internal/business"
	"github.com/openkcm/storefront-session/internal/cmdutils"
)

func Cmd(buildInfo string) *cobra.Command {
	return cmdutils.CobraCommand(
		"api-server",
		"Storefront API server",
		"Storefront API server hosts the shopper facing http API and manages the guest sessions",
		buildInfo,
		cmdutils.RunAsService,
		business.Main,
	)
}
