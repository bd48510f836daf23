package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/jobstoit/s3nodes/nodes"
)

func writeJSON(w io.Writer, value any) error {
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

// writeRaw prints a node's JSON string output as is.
func writeRaw(w io.Writer, out string) error {
	_, err := fmt.Fprintln(w, out)
	return err
}

func resultError(res nodes.Result) error {
	return exitError{code: 1, message: res.Error}
}

func printSpecs(w io.Writer, specs []nodes.Spec, jsonOutput bool) error {
	if jsonOutput {
		return writeJSON(w, specs)
	}
	for _, spec := range specs {
		if _, err := fmt.Fprintf(w, "%-16s %s\n", spec.Type, spec.DisplayName); err != nil {
			return err
		}
	}
	return nil
}
