package tuner

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/archon-ml/archon/internal/dataset"
	"github.com/archon-ml/archon/internal/graph"
	"github.com/archon-ml/archon/internal/tensor"
)

// linearModel is the trainable realization behind the bundled tuners:
// one linear layer per head over the flattened, concatenated inputs,
// trained by SGD on squared error. It is deliberately small — candidate
// ranking needs real validation scores, not state-of-the-art capacity —
// and fully deterministic for a given hyperparameter assignment.
type linearModel struct {
	g      *graph.Graph
	params map[string]float64

	inDim     int
	outDims   []int
	outShapes [][]int
	headNames []string

	// weights per head: outDims[h] rows of (inDim + 1) columns, the
	// last column being the bias.
	w [][][]float64
}

func newLinearModel(g *graph.Graph, params map[string]float64) *linearModel {
	return &linearModel{g: g, params: params}
}

// learningRate picks the sampled per-head learning rate; with several
// heads the first in sorted name order wins, keeping trials deterministic.
func (m *linearModel) learningRate() float64 {
	keys := make([]string, 0, len(m.params))
	for k := range m.params {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if strings.HasSuffix(k, "/learning_rate") {
			return m.params[k]
		}
	}
	return 0.01
}

func (m *linearModel) initFrom(ds *dataset.Dataset) error {
	m.inDim = 0
	for _, col := range ds.Inputs() {
		shape, err := col.ElementShape()
		if err != nil {
			return err
		}
		size := 1
		for _, d := range shape {
			size *= d
		}
		m.inDim += size
	}

	m.outDims = nil
	m.outShapes = nil
	for _, col := range ds.Outputs() {
		shape, err := col.ElementShape()
		if err != nil {
			return err
		}
		size := 1
		for _, d := range shape {
			size *= d
		}
		m.outDims = append(m.outDims, size)
		m.outShapes = append(m.outShapes, shape)
	}

	m.headNames = nil
	for _, h := range m.g.Heads() {
		m.headNames = append(m.headNames, h.Name())
	}

	m.w = make([][][]float64, len(m.outDims))
	for h, dim := range m.outDims {
		m.w[h] = make([][]float64, dim)
		for o := range m.w[h] {
			m.w[h][o] = make([]float64, m.inDim+1)
		}
	}
	return nil
}

// flattenInputs concatenates one example's input tensors from a stacked
// batch into a single feature vector.
func flattenInputs(b dataset.Batch, example int) []float64 {
	var x []float64
	for _, in := range b.Inputs {
		per := in.Size() / b.Size
		x = append(x, in.Data()[example*per:(example+1)*per]...)
	}
	return x
}

func (m *linearModel) forward(x []float64, head int) []float64 {
	out := make([]float64, m.outDims[head])
	for o := range out {
		row := m.w[head][o]
		sum := row[m.inDim] // bias
		for i, v := range x {
			sum += row[i] * v
		}
		out[o] = sum
	}
	return out
}

func (m *linearModel) train(ctx context.Context, ds *dataset.Dataset, epochs, batchSize int) error {
	if err := m.initFrom(ds); err != nil {
		return err
	}
	if ds.OutputArity() == 0 {
		return fmt.Errorf("tuner: training data has no outputs")
	}
	lr := m.learningRate()

	batches, err := ds.Batches(batchSize)
	if err != nil {
		return err
	}
	for epoch := 0; epoch < epochs; epoch++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		for _, b := range batches {
			for h := range m.outDims {
				per := b.Outputs[h].Size() / b.Size
				for e := 0; e < b.Size; e++ {
					x := flattenInputs(b, e)
					target := b.Outputs[h].Data()[e*per : (e+1)*per]
					pred := m.forward(x, h)
					scale := lr / float64(b.Size)
					for o := range pred {
						grad := pred[o] - target[o]
						row := m.w[h][o]
						for i, v := range x {
							row[i] -= scale * grad * v
						}
						row[m.inDim] -= scale * grad
					}
				}
			}
		}
	}
	return nil
}

// Predict implements Model.
func (m *linearModel) Predict(ctx context.Context, ds *dataset.Dataset, batchSize int) ([]tensor.Series, error) {
	if batchSize <= 0 {
		batchSize = 32
	}
	batches, err := ds.Batches(batchSize)
	if err != nil {
		return nil, err
	}
	out := make([]tensor.Series, len(m.outDims))
	for _, b := range batches {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		for e := 0; e < b.Size; e++ {
			x := flattenInputs(b, e)
			if len(x) != m.inDim {
				return nil, fmt.Errorf("tuner: prediction input has %d features, model trained on %d", len(x), m.inDim)
			}
			for h := range m.outDims {
				pred, err := tensor.New(m.outShapes[h], m.forward(x, h))
				if err != nil {
					return nil, err
				}
				out[h] = append(out[h], pred)
			}
		}
	}
	return out, nil
}

// Evaluate implements Model: mean squared error overall and per head,
// plus argmax accuracy for heads with vector outputs.
func (m *linearModel) Evaluate(ctx context.Context, ds *dataset.Dataset, batchSize int) (map[string]float64, error) {
	if batchSize <= 0 {
		batchSize = 32
	}
	if ds.OutputArity() != len(m.outDims) {
		return nil, fmt.Errorf("tuner: evaluation data has %d outputs, model has %d heads", ds.OutputArity(), len(m.outDims))
	}
	batches, err := ds.Batches(batchSize)
	if err != nil {
		return nil, err
	}

	headLoss := make([]float64, len(m.outDims))
	headHits := make([]float64, len(m.outDims))
	var count float64
	for _, b := range batches {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		for e := 0; e < b.Size; e++ {
			x := flattenInputs(b, e)
			for h := range m.outDims {
				per := b.Outputs[h].Size() / b.Size
				target := b.Outputs[h].Data()[e*per : (e+1)*per]
				pred := m.forward(x, h)
				var se float64
				for o := range pred {
					d := pred[o] - target[o]
					se += d * d
				}
				headLoss[h] += se / float64(len(pred))
				if m.outDims[h] > 1 && argmax(pred) == argmax(target) {
					headHits[h]++
				}
			}
		}
		count += float64(b.Size)
	}

	metrics := map[string]float64{}
	var total float64
	var anyVector bool
	var hitSum float64
	var vectorHeads float64
	for h := range m.outDims {
		loss := headLoss[h] / count
		total += loss
		if len(m.outDims) > 1 && h < len(m.headNames) {
			metrics[m.headNames[h]+"_loss"] = loss
		}
		if m.outDims[h] > 1 {
			anyVector = true
			hitSum += headHits[h] / count
			vectorHeads++
		}
	}
	metrics["loss"] = total
	if anyVector {
		metrics["accuracy"] = hitSum / vectorHeads
	}
	return metrics, nil
}

func argmax(v []float64) int {
	best := 0
	for i := range v {
		if v[i] > v[best] {
			best = i
		}
	}
	return best
}
