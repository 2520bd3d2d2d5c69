package llm

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

// FailedScenariosPreamble opens every summarization request. The system
// instruction tells the model to pair each scenario block with the image
// right after it.
const FailedScenariosPreamble = "Here is the list of failed scenario of feature. Each scenario will have screenshot in the next part."

const defaultSystemInstruction = `You are a test failure analyst for a web shop UI test suite.
You receive the failed scenarios of one feature. Each scenario is a JSON object
followed by a screenshot of the page at the moment of failure.
Answer with a JSON array, one element per scenario:
[{"scenario": "<scenario title>", "summary": "...", "reasoning": "...", "recommendation": "..."}]
Use the scenario title exactly as given.`

// LoadSystemInstruction reads the system prompt. An empty path yields the
// built-in prompt.
func LoadSystemInstruction(path string) (string, error) {
	if path == "" {
		return defaultSystemInstruction, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read system instruction: %w", err)
	}
	text := strings.TrimSpace(string(data))
	if text == "" {
		return "", fmt.Errorf("system instruction %s is empty", path)
	}
	return text, nil
}

// LoadGenerationConfig reads the generation config verbatim. It must be a
// JSON object; an empty path yields nil.
func LoadGenerationConfig(path string) (json.RawMessage, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read generation config: %w", err)
	}
	var probe map[string]any
	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, fmt.Errorf("generation config %s is not a JSON object: %w", path, err)
	}
	return json.RawMessage(data), nil
}
