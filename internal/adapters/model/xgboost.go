// Package model loads gradient boosted tree classifiers exported by XGBoost
// in its JSON format and evaluates them in-process.
package model

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/floats"

	"github.com/okian/octagon/internal/domain/features"
)

// Supported objectives.
const (
	objectiveBinary   = "binary:logistic"
	objectiveSoftprob = "multi:softprob"
	objectiveSoftmax  = "multi:softmax"
)

const leafMarker = -1

// flag decodes XGBoost's default_left entries, written as 0/1 or as bools
// depending on the exporter version.
type flag bool

func (f *flag) UnmarshalJSON(b []byte) error {
	switch string(bytes.TrimSpace(b)) {
	case "1", "true":
		*f = true
	case "0", "false":
		*f = false
	default:
		return fmt.Errorf("%w: default_left value %s", ErrMalformed, b)
	}
	return nil
}

type treeJSON struct {
	LeftChildren    []int     `json:"left_children"`
	RightChildren   []int     `json:"right_children"`
	SplitIndices    []int     `json:"split_indices"`
	SplitConditions []float64 `json:"split_conditions"`
	DefaultLeft     []flag    `json:"default_left"`
	SumHessian      []float64 `json:"sum_hessian"`
	SplitType       []int     `json:"split_type"`
}

type modelJSON struct {
	Learner struct {
		FeatureNames    []string `json:"feature_names"`
		GradientBooster struct {
			Name  string `json:"name"`
			Model struct {
				Trees    []treeJSON `json:"trees"`
				TreeInfo []int      `json:"tree_info"`
			} `json:"model"`
		} `json:"gradient_booster"`
		Params struct {
			BaseScore  string `json:"base_score"`
			NumClass   string `json:"num_class"`
			NumFeature string `json:"num_feature"`
		} `json:"learner_model_param"`
		Objective struct {
			Name string `json:"name"`
		} `json:"objective"`
	} `json:"learner"`
}

// tree is one regression tree in flat array form. Node 0 is the root.
type tree struct {
	left, right []int
	feature     []int
	threshold   []float64 // leaf value on leaves
	defaultLeft []bool
	cover       []float64
	mean        []float64 // cover-weighted node expectations
}

// next returns the child of internal node n that x follows. Splits compare
// in float32, the precision XGBoost trains and predicts with.
func (t *tree) next(n int, x []float64) int {
	v := x[t.feature[n]]
	switch {
	case math.IsNaN(v):
		if t.defaultLeft[n] {
			return t.left[n]
		}
		return t.right[n]
	case float32(v) < float32(t.threshold[n]):
		return t.left[n]
	}
	return t.right[n]
}

func (t *tree) isLeaf(n int) bool { return t.left[n] == leafMarker }

// predict returns the leaf value x lands on.
func (t *tree) predict(x []float64) float64 {
	n := 0
	for !t.isLeaf(n) {
		n = t.next(n, x)
	}
	return t.threshold[n]
}

// Booster is a loaded tree ensemble. It is immutable after Load and safe for
// concurrent use.
type Booster struct {
	name       string
	objective  string
	numClass   int
	numFeature int
	baseMargin float64
	trees      []tree
	treeClass  []int
	schema     features.Schema
}

// LoadFile reads a model from path. The schema contract at schemaPath, when
// non-empty, must agree with the model's own feature names.
func LoadFile(name, path, schemaPath string) (*Booster, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open model %s: %w", name, err)
	}
	defer f.Close()

	b, err := Load(name, f)
	if err != nil {
		return nil, err
	}
	if schemaPath == "" {
		if len(b.schema.Names) == 0 {
			return nil, fmt.Errorf("%w: %s has no feature names and no schema file", ErrSchemaContract, name)
		}
		return b, nil
	}
	names, err := ReadSchemaFile(schemaPath)
	if err != nil {
		return nil, err
	}
	if err := b.bindSchema(names); err != nil {
		return nil, err
	}
	return b, nil
}

// Load decodes an XGBoost JSON model.
func Load(name string, r io.Reader) (*Booster, error) {
	var m modelJSON
	if err := json.NewDecoder(r).Decode(&m); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrMalformed, name, err)
	}
	l := &m.Learner

	if l.GradientBooster.Name != "gbtree" {
		return nil, fmt.Errorf("%w: %s booster %q", ErrUnsupported, name, l.GradientBooster.Name)
	}
	b := &Booster{name: name, objective: l.Objective.Name}

	base, err := parseScalar(l.Params.BaseScore)
	if err != nil {
		return nil, fmt.Errorf("%w: %s base_score: %v", ErrMalformed, name, err)
	}
	if b.numFeature, err = parseCount(l.Params.NumFeature); err != nil {
		return nil, fmt.Errorf("%w: %s num_feature: %v", ErrMalformed, name, err)
	}
	numClass, err := parseCount(l.Params.NumClass)
	if err != nil {
		return nil, fmt.Errorf("%w: %s num_class: %v", ErrMalformed, name, err)
	}

	switch b.objective {
	case objectiveBinary:
		if base <= 0 || base >= 1 {
			return nil, fmt.Errorf("%w: %s base_score %v outside (0,1)", ErrMalformed, name, base)
		}
		b.numClass = 1
		b.baseMargin = math.Log(base / (1 - base))
	case objectiveSoftprob, objectiveSoftmax:
		if numClass < 2 {
			return nil, fmt.Errorf("%w: %s num_class %d", ErrMalformed, name, numClass)
		}
		b.numClass = numClass
		b.baseMargin = base
	default:
		return nil, fmt.Errorf("%w: %s objective %q", ErrUnsupported, name, b.objective)
	}

	trees := l.GradientBooster.Model.Trees
	b.treeClass = l.GradientBooster.Model.TreeInfo
	if len(b.treeClass) != len(trees) {
		return nil, fmt.Errorf("%w: %s has %d trees but %d tree_info entries", ErrMalformed, name, len(trees), len(b.treeClass))
	}
	b.trees = make([]tree, len(trees))
	for i := range trees {
		if b.treeClass[i] < 0 || b.treeClass[i] >= b.numClass {
			return nil, fmt.Errorf("%w: %s tree %d class %d", ErrMalformed, name, i, b.treeClass[i])
		}
		t, err := buildTree(&trees[i], b.numFeature)
		if err != nil {
			return nil, fmt.Errorf("%s tree %d: %w", name, i, err)
		}
		b.trees[i] = t
	}

	if len(l.FeatureNames) > 0 {
		if len(l.FeatureNames) != b.numFeature {
			return nil, fmt.Errorf("%w: %s lists %d feature names for %d features", ErrMalformed, name, len(l.FeatureNames), b.numFeature)
		}
		b.schema = features.Schema{Model: name, Names: append([]string(nil), l.FeatureNames...)}
	}
	return b, nil
}

func buildTree(j *treeJSON, numFeature int) (tree, error) {
	n := len(j.LeftChildren)
	if n == 0 {
		return tree{}, fmt.Errorf("%w: empty tree", ErrMalformed)
	}
	for _, l := range []int{len(j.RightChildren), len(j.SplitIndices), len(j.SplitConditions), len(j.DefaultLeft), len(j.SumHessian)} {
		if l != n {
			return tree{}, fmt.Errorf("%w: node arrays differ in length", ErrMalformed)
		}
	}
	for _, st := range j.SplitType {
		if st != 0 {
			return tree{}, fmt.Errorf("%w: categorical splits", ErrUnsupported)
		}
	}

	t := tree{
		left:        j.LeftChildren,
		right:       j.RightChildren,
		feature:     j.SplitIndices,
		threshold:   j.SplitConditions,
		defaultLeft: make([]bool, n),
		cover:       j.SumHessian,
		mean:        make([]float64, n),
	}
	for i := range n {
		t.defaultLeft[i] = bool(j.DefaultLeft[i])
		if t.isLeaf(i) {
			continue
		}
		if t.left[i] <= i || t.left[i] >= n || t.right[i] <= i || t.right[i] >= n {
			return tree{}, fmt.Errorf("%w: node %d has invalid children", ErrMalformed, i)
		}
		if t.feature[i] < 0 || t.feature[i] >= numFeature {
			return tree{}, fmt.Errorf("%w: node %d splits on feature %d", ErrMalformed, i, t.feature[i])
		}
	}
	t.fillMeans(0)
	return t, nil
}

// fillMeans computes each node's expected output under the training cover.
func (t *tree) fillMeans(n int) float64 {
	if t.isLeaf(n) {
		t.mean[n] = t.threshold[n]
		return t.mean[n]
	}
	l, r := t.left[n], t.right[n]
	ml, mr := t.fillMeans(l), t.fillMeans(r)
	if c := t.cover[l] + t.cover[r]; c > 0 {
		t.mean[n] = (ml*t.cover[l] + mr*t.cover[r]) / c
	} else {
		t.mean[n] = (ml + mr) / 2
	}
	return t.mean[n]
}

// parseScalar reads base_score, written as "5E-1" or "[5E-1]" by newer
// exporters.
func parseScalar(s string) (float64, error) {
	s = strings.Trim(strings.TrimSpace(s), "[]")
	if s == "" {
		return 0.5, nil
	}
	return strconv.ParseFloat(s, 64)
}

func parseCount(s string) (int, error) {
	if s == "" {
		return 0, nil
	}
	return strconv.Atoi(s)
}

// Name returns the name the model was loaded under.
func (b *Booster) Name() string { return b.name }

// Schema returns the ordered input names.
func (b *Booster) Schema() features.Schema {
	return features.Schema{Model: b.schema.Model, Names: append([]string(nil), b.schema.Names...)}
}

// margins returns the raw per-class scores for x.
func (b *Booster) margins(x []float64) []float64 {
	m := make([]float64, b.numClass)
	for i := range m {
		m[i] = b.baseMargin
	}
	for i := range b.trees {
		m[b.treeClass[i]] += b.trees[i].predict(x)
	}
	return m
}

func (b *Booster) checkInput(ctx context.Context, x []float64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if len(x) != b.numFeature {
		return fmt.Errorf("%w: %s wants %d, got %d", ErrInputLength, b.name, b.numFeature, len(x))
	}
	return nil
}

// PredictProba returns class probabilities. Binary models report two
// classes, [P(0), P(1)].
func (b *Booster) PredictProba(ctx context.Context, x []float64) ([]float64, error) {
	if err := b.checkInput(ctx, x); err != nil {
		return nil, err
	}
	m := b.margins(x)
	if b.objective == objectiveBinary {
		p := sigmoid(m[0])
		return []float64{1 - p, p}, nil
	}
	return softmax(m), nil
}

func sigmoid(z float64) float64 { return 1 / (1 + math.Exp(-z)) }

func softmax(m []float64) []float64 {
	lse := floats.LogSumExp(m)
	out := make([]float64, len(m))
	for i, v := range m {
		out[i] = math.Exp(v - lse)
	}
	return out
}

// Classes returns the number of output classes.
func (b *Booster) Classes() int {
	if b.objective == objectiveBinary {
		return 2
	}
	return b.numClass
}
