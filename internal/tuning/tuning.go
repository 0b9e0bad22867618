// Package tuning loads runtime knobs from tuning.yaml. Every constant the
// scheduler, movement machine, and memory store depend on lives here so none
// of them carries ambient globals.
package tuning

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type Tuning struct {
	Bridge BridgeTuning `yaml:"bridge"`
	Agent  AgentTuning  `yaml:"agent"`
	Memory MemoryTuning `yaml:"memory"`
}

type BridgeTuning struct {
	Addr             string `yaml:"addr"`
	RequestTimeoutMs int    `yaml:"request_timeout_ms"`
}

type AgentTuning struct {
	TickIntervalMs    int     `yaml:"tick_interval_ms"`
	ContextEveryTicks int     `yaml:"context_every_ticks"`
	MoveRate          float64 `yaml:"move_rate"` // blocks per tick
	BotName           string  `yaml:"bot_name"`
}

type MemoryTuning struct {
	RecentMax         int     `yaml:"recent_max"`
	ImportantMax      int     `yaml:"important_max"`
	PromoteThreshold  float64 `yaml:"promote_threshold"`
	DropThreshold     float64 `yaml:"drop_threshold"`
	RecencyHorizonSec int     `yaml:"recency_horizon_sec"`
	DecayHalfLifeSec  int     `yaml:"decay_half_life_sec"`
	ArchiveAfterSec   int     `yaml:"archive_after_sec"`
	RetrieveBudget    int     `yaml:"retrieve_budget"`    // bytes of serialized content
	AssembleMaxBytes  int     `yaml:"assemble_max_bytes"` // hard bound on combined context
	RelevanceFloor    float64 `yaml:"relevance_floor"`    // baseline when no keyword overlap
}

// Default returns the tuning used when no tuning.yaml is present.
func Default() Tuning {
	return Tuning{
		Bridge: BridgeTuning{
			Addr:             "127.0.0.1:5050",
			RequestTimeoutMs: 400,
		},
		Agent: AgentTuning{
			TickIntervalMs:    500, // 10 game ticks
			ContextEveryTicks: 4,
			MoveRate:          0.4,
			BotName:           "PetBot",
		},
		Memory: MemoryTuning{
			RecentMax:         20,
			ImportantMax:      100,
			PromoteThreshold:  0.4,
			DropThreshold:     0.1,
			RecencyHorizonSec: 60,
			DecayHalfLifeSec:  3600,
			ArchiveAfterSec:   86400,
			RetrieveBudget:    2048,
			AssembleMaxBytes:  4096,
			RelevanceFloor:    0.5,
		},
	}
}

// Load reads tuning from path, filling unset fields from Default.
func Load(path string) (Tuning, error) {
	t := Default()
	raw, err := os.ReadFile(path)
	if err != nil {
		return t, err
	}
	if err := yaml.Unmarshal(raw, &t); err != nil {
		return t, fmt.Errorf("tuning.yaml: %w", err)
	}
	if t.Agent.MoveRate <= 0 {
		t.Agent.MoveRate = 0.4
	}
	if t.Agent.ContextEveryTicks <= 0 {
		t.Agent.ContextEveryTicks = 4
	}
	return t, nil
}

// LoadOrDefault loads path when it exists and silently falls back otherwise.
func LoadOrDefault(path string) Tuning {
	t, err := Load(path)
	if err != nil {
		return Default()
	}
	return t
}
