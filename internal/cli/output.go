package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
)

type output struct {
	w      io.Writer
	format string
}

func newOutput(cmd *cobra.Command, format string) *output {
	return &output{w: cmd.OutOrStdout(), format: format}
}

func (o *output) json() bool { return o.format == "json" }

func (o *output) writeJSON(v any) error {
	enc := json.NewEncoder(o.w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func (o *output) printf(format string, args ...any) {
	fmt.Fprintf(o.w, format, args...)
}

func (o *output) list(label string, ids []string) {
	if len(ids) == 0 {
		return
	}
	o.printf("%s (%d): %s\n", label, len(ids), strings.Join(ids, ", "))
}
