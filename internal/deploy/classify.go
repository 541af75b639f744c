package deploy

import "strings"

// validationKind buckets GitHub's 422 validation responses. GitHub only
// exposes these cases as prose, so classification is substring matching;
// it lives here in one place so it can be swapped for structured error
// codes if the API ever grows them.
type validationKind int

const (
	validationOther validationKind = iota
	validationAlreadyExists
	validationNoDiff
)

func classifyValidation(msg string) validationKind {
	m := strings.ToLower(msg)
	switch {
	case strings.Contains(m, "already exists"):
		return validationAlreadyExists
	case strings.Contains(m, "no commits"), strings.Contains(m, "nothing to compare"):
		return validationNoDiff
	default:
		return validationOther
	}
}
