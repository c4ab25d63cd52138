package scanning

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

//go:embed prompts/ja-v1/system.md
var defaultSystemInstruction string

//go:embed prompts/ja-v1/task.txt
var defaultTaskInstruction string

// DefaultTemperature keeps sampling close to deterministic for factual extraction
const DefaultTemperature float32 = 0.1

// InstructionSet is everything sent to the model besides the document itself
type InstructionSet struct {
	Version     string
	System      string         // business rules, sent as the system instruction
	Task        string         // the user-turn request accompanying the document
	Schema      map[string]any // JSON Schema the output must conform to
	Temperature float32
}

// DefaultInstructionSet returns the embedded ja-v1 instruction set
func DefaultInstructionSet() InstructionSet {
	return InstructionSet{
		Version:     "ja-v1",
		System:      strings.TrimSpace(defaultSystemInstruction),
		Task:        strings.TrimSpace(defaultTaskInstruction),
		Schema:      ReceiptSchema(),
		Temperature: DefaultTemperature,
	}
}

// LoadInstructionSet builds an instruction set from a directory containing
// system.md and task.txt, plus an optional schema.json replacing the default schema.
// The directory name becomes the version.
func LoadInstructionSet(dir string) (InstructionSet, error) {
	set := DefaultInstructionSet()
	set.Version = filepath.Base(filepath.Clean(dir))

	system, err := os.ReadFile(filepath.Join(dir, "system.md"))
	if err != nil {
		return InstructionSet{}, fmt.Errorf("reading system instruction: %w", err)
	}
	task, err := os.ReadFile(filepath.Join(dir, "task.txt"))
	if err != nil {
		return InstructionSet{}, fmt.Errorf("reading task instruction: %w", err)
	}
	set.System = strings.TrimSpace(string(system))
	set.Task = strings.TrimSpace(string(task))
	if set.System == "" || set.Task == "" {
		return InstructionSet{}, fmt.Errorf("instruction set %s: system and task instructions must not be empty", dir)
	}

	schema, err := os.ReadFile(filepath.Join(dir, "schema.json"))
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return InstructionSet{}, fmt.Errorf("reading schema: %w", err)
	default:
		var m map[string]any
		if err := json.Unmarshal(schema, &m); err != nil {
			return InstructionSet{}, fmt.Errorf("parsing schema: %w", err)
		}
		set.Schema = m
	}

	return set, nil
}
