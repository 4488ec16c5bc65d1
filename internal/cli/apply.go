package cli

import (
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strings"

	"github.com/ds124wfegd/randaug/internal/augment"
	"github.com/ds124wfegd/randaug/internal/pkg/policyfile"
	"github.com/ds124wfegd/randaug/internal/pkg/storage"
	"github.com/ds124wfegd/randaug/internal/pkg/transforms"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

type applyOptions struct {
	variant string
	n, m    int
	fill    []int
	seed    uint64
	copies  int
	policy  string
	outDir  string
}

func newApplyCmd(logger *logrus.Logger) *cobra.Command {
	opts := applyOptions{}

	cmd := &cobra.Command{
		Use:   "apply [flags] IMAGE...",
		Short: "Write augmented copies of image files",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			eng, err := opts.engine(cmd.Flags().Changed("seed"))
			if err != nil {
				return err
			}
			return runApply(cmd, logger, eng, opts, args)
		},
	}

	cmd.Flags().StringVar(&opts.variant, "variant", "randaugment", "engine variant: randaugment or uda")
	cmd.Flags().IntVarP(&opts.n, "n", "n", 2, "operations applied per copy")
	cmd.Flags().IntVarP(&opts.m, "m", "m", 9, "magnitude step out of 10 (ignored by uda)")
	cmd.Flags().IntSliceVar(&opts.fill, "fill", nil, "fill color: one value or comma separated channels (default black)")
	cmd.Flags().Uint64Var(&opts.seed, "seed", 0, "seed for reproducible output")
	cmd.Flags().IntVarP(&opts.copies, "copies", "c", 1, "augmented copies per input")
	cmd.Flags().StringVarP(&opts.policy, "policy", "p", "", "YAML policy file replacing the built-in table")
	cmd.Flags().StringVarP(&opts.outDir, "out", "o", ".", "output directory")
	return cmd
}

func (o applyOptions) engine(seeded bool) (*augment.Engine[image.Image], error) {
	variant, err := augment.ParseVariant(o.variant)
	if err != nil {
		return nil, err
	}

	var engineOpts []augment.Option
	if len(o.fill) > 0 {
		var raw any = o.fill
		if len(o.fill) == 1 {
			raw = o.fill[0]
		}
		fill, err := augment.ParseFillColor(raw)
		if err != nil {
			return nil, err
		}
		engineOpts = append(engineOpts, augment.WithFillColor(fill))
	}
	if o.policy != "" {
		table, err := policyfile.Load(o.policy)
		if err != nil {
			return nil, err
		}
		engineOpts = append(engineOpts, augment.WithTable(table))
	}
	lib := transforms.Library()
	if seeded {
		engineOpts = append(engineOpts, augment.WithSeed(o.seed))
		lib = transforms.NewLibrary(transforms.WithSign(transforms.SeededSign(o.seed)))
	}

	return augment.New(variant, o.n, o.m, lib, engineOpts...)
}

func runApply(cmd *cobra.Command, logger *logrus.Logger, eng *augment.Engine[image.Image], opts applyOptions, inputs []string) error {
	if opts.copies < 1 {
		return fmt.Errorf("--copies must be positive")
	}
	if err := os.MkdirAll(opts.outDir, 0755); err != nil {
		return err
	}

	in := storage.NewFileStorage("")
	out := storage.NewFileStorage(opts.outDir)

	for _, path := range inputs {
		format := strings.ToLower(filepath.Ext(path))
		if _, err := storage.ParseFormat(format); err != nil {
			return err
		}

		img, err := in.LoadImage(path)
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}

		base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		for i := range opts.copies {
			augmented, err := eng.Apply(img)
			if err != nil {
				return err
			}
			name := fmt.Sprintf("%s_aug%03d%s", base, i, storage.Extension(format))
			if err := out.SaveImage(name, augmented, format); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), filepath.Join(opts.outDir, name))
		}
		logger.WithFields(logrus.Fields{"input": path, "copies": opts.copies, "variant": eng.Variant().String()}).Debug("augmented")
	}
	return nil
}
