package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/google/uuid"
	"github.com/thoas/go-funk"
	"sigs.k8s.io/yaml"

	api "github.com/picalc/pi-calculator/api/v1alpha1"
)

const (
	jsonFormat = "json"
	yamlFormat = "yaml"
)

var (
	legalOutputTypes = []string{jsonFormat, yamlFormat}
)

func validateOutput(output string) error {
	if len(output) > 0 && !funk.ContainsString(legalOutputTypes, output) {
		return fmt.Errorf("output format must be one of %s", strings.Join(legalOutputTypes, ", "))
	}
	return nil
}

func parseJobID(arg string) (uuid.UUID, error) {
	id, err := uuid.Parse(arg)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid job id %q: %w", arg, err)
	}
	return id, nil
}

func printStatus(w io.Writer, id uuid.UUID, status *api.JobStatus, output string) error {
	switch output {
	case jsonFormat:
		marshalled, err := json.Marshal(status)
		if err != nil {
			return fmt.Errorf("marshalling job status: %w", err)
		}
		fmt.Fprintf(w, "%s\n", string(marshalled))
	case yamlFormat:
		marshalled, err := yaml.Marshal(status)
		if err != nil {
			return fmt.Errorf("marshalling job status: %w", err)
		}
		fmt.Fprintf(w, "%s", string(marshalled))
	default:
		tw := tabwriter.NewWriter(w, 0, 8, 1, '\t', 0)
		fmt.Fprintln(tw, "ID\tSTATE\tPROGRESS\tRESULT")
		fmt.Fprintf(tw, "%s\t%s\t%.0f%%\t%s\n", id, status.State, status.Progress*100, outcome(status))
		return tw.Flush()
	}
	return nil
}

func outcome(status *api.JobStatus) string {
	switch {
	case status.Result != nil:
		return *status.Result
	case status.Error != nil:
		return *status.Error
	default:
		return ""
	}
}
