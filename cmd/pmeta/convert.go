package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"pmeta/internal/metaser"
)

var convertCmd = &cobra.Command{
	Use:   "convert <blob>",
	Short: "Re-encode a metadata blob with another format version",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		to, err := cmd.Flags().GetInt("to")
		if err != nil {
			return fmt.Errorf("failed to get to flag: %w", err)
		}
		output, err := cmd.Flags().GetString("output")
		if err != nil {
			return fmt.Errorf("failed to get output flag: %w", err)
		}
		if to == 0 {
			to = configuredVersion()
		}
		ser := metaser.Default()
		if to == 0 {
			to = ser.DefaultVersion()
		}
		if output == "" {
			output = args[0]
		}

		data, err := os.ReadFile(args[0])
		if err != nil {
			return err
		}
		b, err := decodeBlob(ser, data)
		if err != nil {
			return fmt.Errorf("%s: %w", args[0], err)
		}
		out, err := encodeBlob(ser, b, to)
		if err != nil {
			return fmt.Errorf("%s: %w", args[0], err)
		}
		if err := os.WriteFile(output, out, 0o644); err != nil {
			return err
		}
		if !isQuiet(cmd) {
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %s v%d -> v%d (%d -> %d bytes)\n",
				output, b.kind, b.version, to, len(data), len(out))
		}
		return nil
	},
}

func init() {
	convertCmd.Flags().Int("to", 0, "target format version (default: configured or highest)")
	convertCmd.Flags().StringP("output", "o", "", "output file (default: overwrite input)")
}
