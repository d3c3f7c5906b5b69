// internal/workers/health-analysis/rank-interventions/playbook.go
package rankinterventions

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/mstoerum/wisdom-ground-work-sub002/internal/models"
)

//go:embed playbook.yaml
var defaultPlaybook []byte

// Template is an intervention suggested by the playbook.
type Template struct {
	Title          string             `yaml:"title"`
	Effort         models.EffortLevel `yaml:"effort"`
	Effectiveness  float64            `yaml:"effectiveness"`
	Timeline       string             `yaml:"timeline"`
	ActionSteps    []string           `yaml:"actionSteps"`
	SuccessMetrics []string           `yaml:"successMetrics"`
}

type PlaybookEntry struct {
	Keywords      []string   `yaml:"keywords"`
	Interventions []Template `yaml:"interventions"`
}

// Playbook maps cause keywords to intervention templates. Hint supplies the
// attributes of interventions taken from collaborator recommendations, and
// Generic is used when nothing else matches.
type Playbook struct {
	Hint    Template        `yaml:"hint"`
	Generic Template        `yaml:"generic"`
	Entries []PlaybookEntry `yaml:"entries"`
}

// LoadPlaybook reads the playbook at path, or the built-in one when path is empty.
func LoadPlaybook(path string) (*Playbook, error) {
	if path == "" {
		return ParsePlaybook(defaultPlaybook)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read playbook: %w", err)
	}
	return ParsePlaybook(data)
}

func ParsePlaybook(data []byte) (*Playbook, error) {
	var pb Playbook
	if err := yaml.Unmarshal(data, &pb); err != nil {
		return nil, fmt.Errorf("parse playbook: %w", err)
	}
	if strings.TrimSpace(pb.Generic.Title) == "" {
		return nil, fmt.Errorf("parse playbook: generic intervention needs a title")
	}
	for i, e := range pb.Entries {
		for j, tpl := range e.Interventions {
			if strings.TrimSpace(tpl.Title) == "" {
				return nil, fmt.Errorf("parse playbook: entries[%d].interventions[%d] needs a title", i, j)
			}
			if !tpl.Effort.Valid() {
				return nil, fmt.Errorf("parse playbook: %q has unknown effort %q", tpl.Title, tpl.Effort)
			}
		}
	}
	return &pb, nil
}

// DefaultPlaybook returns the built-in playbook.
func DefaultPlaybook() *Playbook {
	pb, err := ParsePlaybook(defaultPlaybook)
	if err != nil {
		panic(err)
	}
	return pb
}

// Suggest returns the candidate interventions for each root cause:
// collaborator recommendations first, then matching playbook templates, and
// the generic template when neither applies.
func (pb *Playbook) Suggest(causes []models.RootCause) []Candidate {
	var out []Candidate
	for _, rc := range causes {
		n := len(out)
		for _, action := range rc.SuggestedActions {
			out = append(out, pb.Hint.candidate(rc.ID, action))
		}

		label := strings.ToLower(rc.Cause)
		for _, e := range pb.Entries {
			if !matchesAny(label, e.Keywords) {
				continue
			}
			for _, tpl := range e.Interventions {
				out = append(out, tpl.candidate(rc.ID, tpl.Title))
			}
		}

		if len(out) == n {
			out = append(out, pb.Generic.candidate(rc.ID, pb.Generic.Title))
		}
	}
	return out
}

func (t Template) candidate(rootCauseID, title string) Candidate {
	return Candidate{
		RootCauseID:    rootCauseID,
		Title:          title,
		Effort:         t.Effort,
		Effectiveness:  t.Effectiveness,
		Timeline:       t.Timeline,
		ActionSteps:    t.ActionSteps,
		SuccessMetrics: t.SuccessMetrics,
	}
}

func matchesAny(label string, keywords []string) bool {
	for _, k := range keywords {
		if k != "" && strings.Contains(label, strings.ToLower(k)) {
			return true
		}
	}
	return false
}
