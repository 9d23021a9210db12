package main

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/spf13/cobra"

	"Fingerpost/internal/core/webfinger"
	"Fingerpost/internal/fetch"
)

func newLookupCmd(flags *globalFlags) *cobra.Command {
	var (
		server string
		rels   []string
	)

	cmd := &cobra.Command{
		Use:   "lookup <acct:user@host | user@host>",
		Short: "Resolve an account through WebFinger",
		Long: "Resolve an account through WebFinger. The query goes to the account's own host\n" +
			"over https unless --server names another WebFinger server.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			target, err := lookupURL(args[0], server, rels)
			if err != nil {
				return err
			}

			res, err := flags.client().GetURL(cmd.Context(), target)
			if err != nil {
				return err
			}
			if err := printResult(cmd.OutOrStdout(), res, flags.getPath, flags.raw); err != nil {
				return err
			}
			return checkStatus(res)
		},
	}

	cmd.Flags().StringVar(&server, "server", "", "WebFinger server base URL, e.g. http://localhost:8080")
	cmd.Flags().StringSliceVar(&rels, "rel", nil, "only request these link relations (repeatable)")
	return cmd
}

// lookupURL builds the query for account. With a server base URL the query
// goes there; otherwise to the account's host.
func lookupURL(account, server string, rels []string) (*url.URL, error) {
	if !strings.HasPrefix(strings.ToLower(account), "acct:") {
		account = "acct:" + strings.TrimPrefix(account, "@")
	}
	id, err := webfinger.ParseIdentifier(account)
	if err != nil {
		return nil, err
	}

	var target *url.URL
	if server != "" {
		base, err := fetch.ParseURL(server)
		if err != nil {
			return nil, err
		}
		target = base.JoinPath(webfinger.WellKnownPath)
		target.RawQuery = url.Values{"resource": {id.Resource}}.Encode()
	} else {
		if !id.HasHost() {
			return nil, fmt.Errorf("%s has no host; pass --server to ask a specific server", account)
		}
		if target, err = webfinger.RemoteQueryURL(id); err != nil {
			return nil, err
		}
	}

	if len(rels) > 0 {
		query := target.Query()
		for _, rel := range rels {
			query.Add("rel", rel)
		}
		target.RawQuery = query.Encode()
	}
	return target, nil
}
