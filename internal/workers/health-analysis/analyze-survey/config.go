// internal/workers/health-analysis/analyze-survey/config.go
package analyzesurvey

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/mstoerum/wisdom-ground-work-sub002/internal/common/config"
	predictimpact "github.com/mstoerum/wisdom-ground-work-sub002/internal/workers/health-analysis/predict-impact"
	rankinterventions "github.com/mstoerum/wisdom-ground-work-sub002/internal/workers/health-analysis/rank-interventions"
	synthesizerootcauses "github.com/mstoerum/wisdom-ground-work-sub002/internal/workers/health-analysis/synthesize-root-causes"
)

type Config struct {
	Timeout          time.Duration
	Parallelism      int
	Weights          synthesizerootcauses.Weights
	Ranking          rankinterventions.Options
	Playbook         *rankinterventions.Playbook
	Decay            float64
	CacheTTL         time.Duration
	StrictInvariants bool
}

func DefaultConfig() *Config {
	return &Config{
		Timeout:     2 * time.Minute,
		Parallelism: 4,
		Weights:     synthesizerootcauses.DefaultWeights(),
		Ranking:     rankinterventions.DefaultOptions(),
		Playbook:    rankinterventions.DefaultPlaybook(),
		Decay:       predictimpact.DefaultDecay,
	}
}

// ConfigFromAnalysis builds the pipeline settings from the analysis section
// of the application config. workerTimeout is in milliseconds; 0 keeps the
// default.
func ConfigFromAnalysis(a config.AnalysisConfig, workerTimeout int) (*Config, error) {
	playbook, err := rankinterventions.LoadPlaybook(a.Intervention.PlaybookPath)
	if err != nil {
		return nil, err
	}

	cfg := DefaultConfig()
	if workerTimeout > 0 {
		cfg.Timeout = config.GetDuration(workerTimeout)
	}
	cfg.Parallelism = a.Parallelism
	cfg.Weights = synthesizerootcauses.Weights{Reach: a.RootCause.ReachWeight, Severity: a.RootCause.SeverityWeight}
	cfg.Ranking = rankinterventions.Options{
		CriticalAffectedFloor: a.Intervention.CriticalAffectedFloor,
		QuickWinThreshold:     a.Intervention.QuickWinThreshold,
	}
	cfg.Playbook = playbook
	cfg.Decay = a.Prediction.Decay
	cfg.CacheTTL = time.Duration(a.CacheTTL) * time.Second
	cfg.StrictInvariants = a.StrictInvariants

	return cfg, cfg.Validate()
}

func (c *Config) Validate() error {
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}
	if c.Parallelism <= 0 {
		return fmt.Errorf("parallelism must be positive")
	}
	if c.Weights.Reach < 0 || c.Weights.Severity < 0 {
		return fmt.Errorf("root cause weights must not be negative")
	}
	if c.Decay <= 0 || c.Decay > 1 {
		return fmt.Errorf("prediction decay must be in (0,1]")
	}
	if c.Playbook == nil {
		return fmt.Errorf("playbook is required")
	}
	return nil
}

// Digest fingerprints the settings that shape a result, so cached analyses
// are not reused after the weights, ranking options, playbook or decay change.
func (c *Config) Digest() string {
	data, _ := json.Marshal(struct {
		Weights  synthesizerootcauses.Weights `json:"weights"`
		Ranking  rankinterventions.Options    `json:"ranking"`
		Playbook *rankinterventions.Playbook  `json:"playbook"`
		Decay    float64                      `json:"decay"`
	}{c.Weights, c.Ranking, c.Playbook, c.Decay})
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
