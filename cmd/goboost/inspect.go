package main

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/YuminosukeSato/goboost/modelstore"
)

func runInspect(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	var (
		common commonFlags
		model  string
	)
	fs := newFlagSet("inspect", stderr, &common)
	fs.StringVarP(&model, "model", "m", "model.gbdt", "saved model")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := common.setup()
	if err != nil {
		return err
	}
	store, name, err := resolveModel(cfg, model)
	if err != nil {
		return err
	}
	b, err := modelstore.LoadBooster(ctx, store, name)
	if err != nil {
		return err
	}
	defer b.Dispose()

	ens, err := b.Ensemble()
	if err != nil {
		return err
	}
	importance, err := b.FeatureImportance()
	if err != nil {
		return err
	}

	leaves, maxDepth := 0, 0
	for i := range ens.Trees {
		leaves += ens.Trees[i].NumLeaves()
		if d := ens.Trees[i].Depth(); d > maxDepth {
			maxDepth = d
		}
	}

	tw := tabwriter.NewWriter(stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "objective\t%s\n", ens.Objective)
	fmt.Fprintf(tw, "learning rate\t%g\n", ens.LearningRate)
	fmt.Fprintf(tw, "features\t%d\n", ens.NumFeatures)
	if ens.Classes != nil {
		fmt.Fprintf(tw, "classes\t%v\n", ens.Classes)
	}
	fmt.Fprintf(tw, "base score\t%g\n", ens.BaseScore)
	fmt.Fprintf(tw, "rounds\t%d\n", ens.NumRounds())
	fmt.Fprintf(tw, "trees\t%d\n", len(ens.Trees))
	fmt.Fprintf(tw, "leaves\t%d\n", leaves)
	fmt.Fprintf(tw, "max depth\t%d\n", maxDepth)
	for j, gain := range importance {
		fmt.Fprintf(tw, "gain f%d\t%.6g\n", j, gain)
	}
	return tw.Flush()
}
