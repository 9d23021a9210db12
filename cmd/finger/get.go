package main

import (
	"github.com/spf13/cobra"
)

func newGetCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "get <url>",
		Short: "Fetch a URL and print the body interpreted by content type",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := flags.client().Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if err := printResult(cmd.OutOrStdout(), res, flags.getPath, flags.raw); err != nil {
				return err
			}
			return checkStatus(res)
		},
	}
}
