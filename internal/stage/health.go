package stage

// Health reports whether a stage can run with its configured collaborators.
type Health struct {
	Name   string
	Ready  bool
	Detail string
}

// Healthy constructs a ready Health record.
func Healthy(name string) Health {
	return Health{Name: name, Ready: true}
}

// Unhealthy names the missing collaborator in detail.
func Unhealthy(name, detail string) Health {
	return Health{Name: name, Detail: detail}
}

// Status renders the record for status tables.
func (h Health) Status() string {
	switch {
	case h.Ready && h.Detail != "":
		return "ready (" + h.Detail + ")"
	case h.Ready:
		return "ready"
	case h.Detail != "":
		return h.Detail
	}
	return "not ready"
}
