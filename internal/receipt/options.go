package receipt

import (
	"fmt"
	"time"

	"github.com/zombor/receipt-ledger/internal/scanning"
)

// LoadOptions builds pipeline options from command line settings. An empty
// promptDir selects the embedded instruction set; strict compiles its schema.
func LoadOptions(promptDir string, strict bool, timeout time.Duration, template string) (Options, error) {
	instructions := scanning.DefaultInstructionSet()
	if promptDir != "" {
		set, err := scanning.LoadInstructionSet(promptDir)
		if err != nil {
			return Options{}, err
		}
		instructions = set
	}

	opts := Options{
		Instructions:   instructions,
		ExtractTimeout: timeout,
		XLSXTemplate:   template,
	}
	if strict {
		validator, err := scanning.NewSchemaValidator(instructions.Schema)
		if err != nil {
			return Options{}, fmt.Errorf("compiling response schema: %w", err)
		}
		opts.Validator = validator
	}
	return opts, nil
}
