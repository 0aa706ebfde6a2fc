package main

import (
	"fmt"

	"github.com/boonlang/boon"
	"github.com/spf13/cobra"
)

func evalCmd() *cobra.Command {
	var ticks int
	cmd := &cobra.Command{
		Use:   "eval <code>",
		Short: "Evaluate an inline program and print its root value as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			engine, err := buildEngine()
			if err != nil {
				return err
			}
			root, result, err := compileAndRun(engine, args[0], ticks)
			if err != nil {
				return err
			}
			if !result.Quiescent {
				return fmt.Errorf("did not reach quiescence within %d ticks", ticks)
			}
			out, err := renderRoot(engine, root)
			if err != nil {
				return err
			}
			fmt.Println(string(out))
			return nil
		},
	}
	cmd.Flags().IntVar(&ticks, "ticks", 20, "maximum ticks to run before giving up")
	return cmd
}

// compileAndRun compiles src (a wireProgram JSON document) into engine and
// runs it to quiescence, bounded by maxTicks.
func compileAndRun(engine *boon.Engine, src string, maxTicks int) (boon.SlotId, boon.RunResult, error) {
	compiler := newJSONCompiler()
	program, err := compiler.Compile(src)
	if err != nil {
		return boon.SlotId{}, boon.RunResult{}, err
	}
	root, ok := engine.Compile(program)
	if !ok {
		return boon.SlotId{}, boon.RunResult{}, fmt.Errorf("compile: program has no root node")
	}
	result := engine.RunUntilQuiescent(maxTicks)
	return root, result, nil
}

func renderRoot(engine *boon.Engine, root boon.SlotId) ([]byte, error) {
	value, ok := engine.GetCurrentValue(root)
	if !ok {
		return []byte("null"), nil
	}
	return engine.ExpandPayloadToJSON(value)
}
