package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/ds124wfegd/randaug/internal/augment"
	"github.com/ds124wfegd/randaug/internal/pkg/policyfile"
	"github.com/spf13/cobra"
)

func newPolicyCmd() *cobra.Command {
	var variant, format, outPath string

	cmd := &cobra.Command{
		Use:   "policy",
		Short: "Print or export a built-in policy table",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := augment.ParseVariant(variant)
			if err != nil {
				return err
			}
			table := augment.DefaultTable()
			if v == augment.UDA {
				table = augment.UDATable()
			}

			encode, err := policyEncoder(format)
			if err != nil {
				return err
			}
			if outPath == "" {
				return encode(cmd.OutOrStdout(), table)
			}

			f, err := os.Create(outPath)
			if err != nil {
				return err
			}
			if err := encode(f, table); err != nil {
				f.Close()
				return err
			}
			return f.Close()
		},
	}

	cmd.Flags().StringVar(&variant, "variant", "randaugment", "engine variant: randaugment or uda")
	cmd.Flags().StringVarP(&format, "format", "f", "yaml", "output format: yaml or json")
	cmd.Flags().StringVarP(&outPath, "out", "o", "", "write to a file instead of stdout")
	return cmd
}

func policyEncoder(format string) (func(io.Writer, augment.Table) error, error) {
	switch format {
	case "yaml":
		return policyfile.Encode, nil
	case "json":
		return func(w io.Writer, t augment.Table) error {
			enc := json.NewEncoder(w)
			enc.SetIndent("", "  ")
			return enc.Encode(t.Entries())
		}, nil
	default:
		return nil, fmt.Errorf("unknown format %q", format)
	}
}
