// Command finger queries WebFinger servers and fetches discovery documents
// with the same client the server uses for remote lookups.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"Fingerpost/internal/fetch"
	"Fingerpost/internal/logging"
)

// globalFlags are shared by every subcommand.
type globalFlags struct {
	userAgent string
	getPath   string
	logLevel  string
	timeout   time.Duration
	retries   int
	noFollow  bool
	raw       bool
}

func newRootCmd() *cobra.Command {
	flags := &globalFlags{}

	rootCmd := &cobra.Command{
		Use:           "finger",
		Short:         "Query WebFinger servers and discovery endpoints",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return logging.Setup(logging.Options{Level: flags.logLevel})
		},
	}

	pf := rootCmd.PersistentFlags()
	pf.DurationVar(&flags.timeout, "timeout", fetch.DefaultTimeout, "overall timeout per request, retries included")
	pf.IntVar(&flags.retries, "retries", fetch.DefaultRetries, "retries for transient failures (0 disables)")
	pf.BoolVar(&flags.noFollow, "no-follow", false, "do not follow redirects")
	pf.StringVar(&flags.userAgent, "user-agent", fetch.DefaultUserAgent, "User-Agent header")
	pf.StringVar(&flags.getPath, "get", "", "print only the value at this gjson path of a JSON answer")
	pf.BoolVar(&flags.raw, "raw", false, "print JSON answers without indentation")
	pf.StringVar(&flags.logLevel, "log", "warn", "log level [debug|info|warn|error]")

	rootCmd.AddCommand(
		newLookupCmd(flags),
		newGetCmd(flags),
		newPostCmd(flags),
	)
	return rootCmd
}

func (f *globalFlags) client() *fetch.Client {
	return fetch.NewClient(fetch.Options{
		UserAgent:       f.userAgent,
		Timeout:         f.timeout,
		Retries:         f.retries,
		FollowRedirects: !f.noFollow,
	})
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "finger:", err)
		os.Exit(1)
	}
}
