// Package deps resolves the external binaries the media stages shell out to.
package deps

import (
	"fmt"
	"os/exec"
	"strings"
)

// Requirement names a binary and the stages that need it.
type Requirement struct {
	Name    string
	Command string
	// Stages lists the pipeline stages that invoke the binary.
	Stages   []string
	Optional bool
}

// Status is the resolution of one Requirement.
type Status struct {
	Requirement
	// Path is the resolved executable, empty when not found.
	Path   string
	Detail string
}

// Available reports whether the binary resolved on PATH.
func (s Status) Available() bool { return s.Path != "" }

// Satisfied reports whether the requirement does not block a run.
func (s Status) Satisfied() bool { return s.Available() || s.Optional }

// CheckBinaries resolves every requirement with exec.LookPath.
func CheckBinaries(requirements []Requirement) []Status {
	results := make([]Status, 0, len(requirements))
	for _, req := range requirements {
		req.Command = strings.TrimSpace(req.Command)
		status := Status{Requirement: req}
		switch path, err := exec.LookPath(req.Command); {
		case req.Command == "":
			status.Detail = "command not configured"
		case err != nil:
			status.Detail = fmt.Sprintf("binary %q not found", req.Command)
		default:
			status.Path = path
			status.Detail = path
		}
		if len(req.Stages) > 0 && !status.Available() {
			status.Detail += " (needed by " + strings.Join(req.Stages, ", ") + ")"
		}
		results = append(results, status)
	}
	return results
}

// Missing returns the statuses that block a run.
func Missing(statuses []Status) []Status {
	var out []Status
	for _, s := range statuses {
		if !s.Satisfied() {
			out = append(out, s)
		}
	}
	return out
}
