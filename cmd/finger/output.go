package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"github.com/tidwall/gjson"

	"Fingerpost/internal/fetch"
)

// printResult writes the interpreted body of res. JSON is printed as
// received, indented unless raw is set, or narrowed to one value when path
// is set.
func printResult(w io.Writer, res *fetch.Result, path string, raw bool) error {
	if res.Redirect {
		_, err := fmt.Fprintf(w, "%d %s -> %s\n", res.StatusCode, res.StatusMessage, res.Location)
		return err
	}

	if res.IsJSON() {
		if path != "" {
			value := gjson.GetBytes(res.Raw, path)
			if !value.Exists() {
				return fmt.Errorf("path %q not found in response", path)
			}
			_, err := fmt.Fprintln(w, value.String())
			return err
		}
		if raw {
			_, err := fmt.Fprintln(w, string(res.Raw))
			return err
		}
		var indented bytes.Buffer
		if err := json.Indent(&indented, res.Raw, "", "  "); err != nil {
			return err
		}
		_, err := fmt.Fprintln(w, indented.String())
		return err
	}

	if path != "" {
		return fmt.Errorf("--get needs a JSON answer, got %q", res.Header.Get("Content-Type"))
	}
	if text, ok := res.Text(); ok {
		_, err := fmt.Fprintln(w, text)
		return err
	}
	_, err := w.Write(res.Buffer)
	return err
}

// checkStatus turns a non-2xx answer into an error after printing it.
func checkStatus(res *fetch.Result) error {
	if res.Redirect || (res.StatusCode >= 200 && res.StatusCode < 300) {
		return nil
	}
	return fmt.Errorf("server answered %d %s", res.StatusCode, res.StatusMessage)
}
