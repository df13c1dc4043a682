package extract

import (
	"bytes"
	"fmt"
	"path/filepath"
)

// WriteOverview records every exported artifact into <out>/overview.csv so
// downstream loaders can discover what a run produced without globbing.
func (r *Runner) WriteOverview() (string, error) {
	var buf bytes.Buffer
	fmt.Fprintln(&buf, "filename msg_type topic")
	for _, a := range r.artifacts {
		fmt.Fprintf(&buf, "%s %s %s\n", a.Path, a.MsgType, a.Topic)
	}

	name := filepath.Join(r.OutDir, "overview.csv")
	if err := r.FS.WriteFileAtomic(name, buf.Bytes(), 0o644); err != nil {
		return "", fmt.Errorf("extract: overview: %w", err)
	}
	return name, nil
}
