package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/mesh-intelligence/keeper/internal/sqlite"
)

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return sysError(fmt.Errorf("encode output: %w", err))
	}
	return nil
}

func writeReport(w io.Writer, rep sqlite.Report) {
	fmt.Fprintf(w, "path:     %s\n", rep.Path)
	switch {
	case rep.FreshInstall:
		fmt.Fprintf(w, "version:  none (current %d)\n", rep.CurrentVersion)
	case rep.Inferred:
		fmt.Fprintf(w, "version:  unrecorded (current %d)\n", rep.CurrentVersion)
	default:
		fmt.Fprintf(w, "version:  %d (current %d)\n", rep.StoredVersion, rep.CurrentVersion)
	}
	if len(rep.Pending) > 0 {
		fmt.Fprintf(w, "pending:  %s\n", strings.Join(rep.Pending, ", "))
	}
	fmt.Fprintf(w, "tables:   %d\n", len(rep.Tables))
	fmt.Fprintf(w, "sound:    %t\n", rep.Sound)
}
