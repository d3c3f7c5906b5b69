// pkg/registry/registry.go
package registry

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
	"time"
)

var validStatuses = map[string]bool{
	"planned":     true,
	"in-progress": true,
	"completed":   true,
	"verified":    true,
}

func LoadRegistry(path string) (*ActivityRegistry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var reg ActivityRegistry
	err = json.Unmarshal(data, &reg)
	return &reg, err
}

// Validate checks the registry against the task types this binary actually
// serves and against the per-worker config section. Every problem is
// reported, joined into one error.
func Validate(reg *ActivityRegistry, served []string, configured map[string]bool) error {
	if len(reg.Activities) == 0 {
		return errors.New("registry contains no activities")
	}

	known := make(map[string]bool, len(served))
	for _, t := range served {
		known[t] = true
	}

	var errs []error
	ids := make(map[string]bool)
	listed := make(map[string]bool)
	for _, a := range reg.Activities {
		if a.ID == "" {
			errs = append(errs, errors.New("activity missing required field: id"))
			continue
		}
		if ids[a.ID] {
			errs = append(errs, fmt.Errorf("duplicate activity id: %s", a.ID))
		}
		ids[a.ID] = true

		if a.DisplayName == "" {
			errs = append(errs, fmt.Errorf("activity %s missing required field: displayName", a.ID))
		}
		if a.Category == "" {
			errs = append(errs, fmt.Errorf("activity %s missing required field: category", a.ID))
		}
		if !validStatuses[a.ImplementationStatus] {
			errs = append(errs, fmt.Errorf("activity %s has unknown status %q", a.ID, a.ImplementationStatus))
		}
		if a.Timeout != "" {
			if _, err := time.ParseDuration(a.Timeout); err != nil {
				errs = append(errs, fmt.Errorf("activity %s: bad timeout %q", a.ID, a.Timeout))
			}
		}

		switch {
		case a.TaskType == "":
			errs = append(errs, fmt.Errorf("activity %s missing required field: taskType", a.ID))
		case !known[a.TaskType]:
			errs = append(errs, fmt.Errorf("activity %s: no worker serves task type %s", a.ID, a.TaskType))
		case configured != nil && !configured[a.TaskType]:
			errs = append(errs, fmt.Errorf("activity %s: task type %s has no workers entry in config", a.ID, a.TaskType))
		}
		listed[a.TaskType] = true
	}

	for _, t := range served {
		if !listed[t] {
			errs = append(errs, fmt.Errorf("task type %s is served but not registered", t))
		}
	}

	return errors.Join(errs...)
}

// ByCategory groups activity ids by category, both sorted.
func ByCategory(reg *ActivityRegistry) map[string][]string {
	out := make(map[string][]string)
	for _, a := range reg.Activities {
		out[a.Category] = append(out[a.Category], a.ID)
	}
	for _, ids := range out {
		sort.Strings(ids)
	}
	return out
}
