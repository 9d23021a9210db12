package main

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/spf13/cobra"

	"Fingerpost/internal/fetch"
)

func newPostCmd(flags *globalFlags) *cobra.Command {
	var (
		data     string
		jsonData string
		form     []string
	)

	cmd := &cobra.Command{
		Use:   "post <url>",
		Short: "POST a text, JSON or form payload and print the answer",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			body, err := postBody(data, jsonData, form)
			if err != nil {
				return err
			}
			res, err := flags.client().Post(cmd.Context(), args[0], body)
			if err != nil {
				return err
			}
			if err := printResult(cmd.OutOrStdout(), res, flags.getPath, flags.raw); err != nil {
				return err
			}
			return checkStatus(res)
		},
	}

	cmd.Flags().StringVar(&data, "data", "", "plain text payload")
	cmd.Flags().StringVar(&jsonData, "json", "", "JSON payload")
	cmd.Flags().StringArrayVar(&form, "form", nil, "form field key=value (repeatable)")
	cmd.MarkFlagsMutuallyExclusive("data", "json", "form")
	return cmd
}

func postBody(data, jsonData string, form []string) (fetch.Body, error) {
	switch {
	case data != "":
		return fetch.Body{Text: data}, nil
	case jsonData != "":
		var v json.RawMessage
		if err := json.Unmarshal([]byte(jsonData), &v); err != nil {
			return fetch.Body{}, fmt.Errorf("--json is not valid JSON: %w", err)
		}
		return fetch.Body{JSON: v}, nil
	case len(form) > 0:
		values := url.Values{}
		for _, field := range form {
			key, value, ok := strings.Cut(field, "=")
			if !ok || key == "" {
				return fetch.Body{}, fmt.Errorf("--form %q is not key=value", field)
			}
			values.Add(key, value)
		}
		return fetch.Body{Form: values}, nil
	default:
		return fetch.Body{}, fetch.ErrMissingBody
	}
}
