package model

import (
	"context"
)

// Contributions attributes the margin of class 1 (class 0 for multiclass
// models) to individual features by walking each tree's decision path and
// crediting the split feature with the change in node expectation. The
// returned slice has one entry per feature plus a trailing bias; entries sum
// to the raw margin.
func (b *Booster) Contributions(ctx context.Context, x []float64) ([]float64, error) {
	if err := b.checkInput(ctx, x); err != nil {
		return nil, err
	}
	out := make([]float64, b.numFeature+1)
	out[b.numFeature] = b.baseMargin
	for i := range b.trees {
		if b.treeClass[i] != 0 {
			continue
		}
		t := &b.trees[i]
		n := 0
		out[b.numFeature] += t.mean[0]
		for !t.isLeaf(n) {
			child := t.next(n, x)
			out[t.feature[n]] += t.mean[child] - t.mean[n]
			n = child
		}
	}
	return out, nil
}

// Attribute returns per-feature contributions without the bias term, in the
// model's feature order. It implements the explanation attributor.
func (b *Booster) Attribute(ctx context.Context, x []float64) ([]float64, error) {
	c, err := b.Contributions(ctx, x)
	if err != nil {
		return nil, err
	}
	return c[:b.numFeature], nil
}
