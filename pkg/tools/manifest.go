package tools

import (
	"fmt"
	"os"
	"strings"

	"mercator-hq/flowlog/pkg/config"
)

// Manifest describes the agent an orchestrator should run with the toolkit.
type Manifest struct {
	Name         string       `json:"name"`
	Model        string       `json:"model"`
	ToolChoice   string       `json:"tool_choice"`
	Instructions string       `json:"instructions"`
	Tools        []Definition `json:"tools"`
}

// LoadInstructions returns the agent instructions: the contents of
// InstructionsFile when set, otherwise the inline Instructions.
func LoadInstructions(cfg *config.AgentConfig) (string, error) {
	if cfg.InstructionsFile == "" {
		return cfg.Instructions, nil
	}

	data, err := os.ReadFile(cfg.InstructionsFile)
	if err != nil {
		return "", fmt.Errorf("failed to read agent instructions: %w", err)
	}
	text := strings.TrimSpace(string(data))
	if text == "" {
		return "", fmt.Errorf("agent instructions file %s is empty", cfg.InstructionsFile)
	}
	return text, nil
}

// NewManifest assembles the manifest from the agent config and toolkit.
// Instructions are read once here.
func NewManifest(cfg *config.AgentConfig, k *Toolkit) (*Manifest, error) {
	instructions, err := LoadInstructions(cfg)
	if err != nil {
		return nil, err
	}

	return &Manifest{
		Name:         cfg.Name,
		Model:        cfg.Model,
		ToolChoice:   cfg.ToolChoice,
		Instructions: instructions,
		Tools:        k.Definitions(),
	}, nil
}
