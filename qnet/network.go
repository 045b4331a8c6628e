// Package qnet implements the feed-forward value networks the trainer fits.
package qnet

import (
	"fmt"
	"math"
	"math/rand"
	"strings"
	"time"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"nstep-dqn/types"
)

const adagradEps = 1e-8

// Config describes a two hidden layer value network
type Config struct {
	InputSize  int
	Hidden     int
	NumActions int
	// LearningRate of the Adagrad updates, 0.01 when unset
	LearningRate float64
	// BatchSize of the fit minibatches, 128 when unset
	BatchSize int
	Seed      int64
}

// Network is a dense network with two ReLU hidden layers and a linear
// output head, trained with Adagrad on the mean squared error
type Network struct {
	config Config
	l1     *layer
	l2     *layer
	out    *layer
	rand   *rand.Rand
}

var _ types.ValueFunction = &Network{}

func New(config Config) (*Network, error) {
	if config.InputSize <= 0 || config.NumActions <= 0 {
		return nil, fmt.Errorf("network needs positive input and action sizes, got %d and %d",
			config.InputSize, config.NumActions)
	}
	if config.Hidden <= 0 {
		config.Hidden = 50
	}
	if config.LearningRate <= 0 {
		config.LearningRate = 0.01
	}
	if config.BatchSize <= 0 {
		config.BatchSize = 128
	}
	if config.Seed == 0 {
		config.Seed = time.Now().UnixNano()
	}
	rnd := rand.New(rand.NewSource(config.Seed))
	return &Network{
		config: config,
		l1:     newLayer(config.InputSize, config.Hidden, rnd),
		l2:     newLayer(config.Hidden, config.Hidden, rnd),
		out:    newLayer(config.Hidden, config.NumActions, rnd),
		rand:   rnd,
	}, nil
}

// Predict returns the value vector for a single state
func (n *Network) Predict(state []float64) ([]float64, error) {
	if len(state) != n.config.InputSize {
		return nil, fmt.Errorf("state length %d does not match the input size %d",
			len(state), n.config.InputSize)
	}
	x := mat.NewDense(1, n.config.InputSize, state)
	p := n.forward(x)
	out := make([]float64, n.config.NumActions)
	copy(out, p.y.RawRowView(0))
	return out, nil
}

// Fit runs one pass over the batch in shuffled minibatches and returns the
// per-minibatch losses
func (n *Network) Fit(states, targets [][]float64) ([]float64, error) {
	if len(states) == 0 {
		return nil, fmt.Errorf("empty batch")
	}
	if len(states) != len(targets) {
		return nil, fmt.Errorf("got %d states and %d targets", len(states), len(targets))
	}

	order := n.rand.Perm(len(states))
	history := make([]float64, 0, (len(states)+n.config.BatchSize-1)/n.config.BatchSize)
	for start := 0; start < len(order); start += n.config.BatchSize {
		end := start + n.config.BatchSize
		if end > len(order) {
			end = len(order)
		}
		x, y, err := n.matrices(states, targets, order[start:end])
		if err != nil {
			return nil, err
		}
		history = append(history, n.step(x, y))
	}
	return history, nil
}

// Summary describes the layer shapes, one line per layer
func (n *Network) Summary() string {
	var b strings.Builder
	total := 0
	add := func(name, activation string, l *layer) {
		params := l.in*l.out + l.out
		total += params
		fmt.Fprintf(&b, "%-6s dense %4d -> %-4d %-7s %6d params\n", name, l.in, l.out, activation, params)
	}
	add("l1", "relu", n.l1)
	add("l2", "relu", n.l2)
	add("value", "linear", n.out)
	fmt.Fprintf(&b, "total %d params", total)
	return b.String()
}

type layer struct {
	w    *mat.Dense
	b    []float64
	accW *mat.Dense
	accB []float64
	in   int
	out  int
}

// newLayer draws the weights from the Glorot uniform distribution and
// zeroes the biases
func newLayer(in, out int, rnd *rand.Rand) *layer {
	limit := math.Sqrt(6.0 / float64(in+out))
	data := make([]float64, in*out)
	for i := range data {
		data[i] = rnd.Float64()*2*limit - limit
	}
	return &layer{
		w:    mat.NewDense(in, out, data),
		b:    make([]float64, out),
		accW: mat.NewDense(in, out, nil),
		accB: make([]float64, out),
		in:   in,
		out:  out,
	}
}

type forwardPass struct {
	x  *mat.Dense
	z1 *mat.Dense
	a1 *mat.Dense
	z2 *mat.Dense
	a2 *mat.Dense
	y  *mat.Dense
}

func (n *Network) forward(x *mat.Dense) *forwardPass {
	p := &forwardPass{x: x}
	p.z1 = affine(x, n.l1)
	p.a1 = reluOf(p.z1)
	p.z2 = affine(p.a1, n.l2)
	p.a2 = reluOf(p.z2)
	p.y = affine(p.a2, n.out)
	return p
}

func (n *Network) matrices(states, targets [][]float64, idx []int) (*mat.Dense, *mat.Dense, error) {
	x := mat.NewDense(len(idx), n.config.InputSize, nil)
	y := mat.NewDense(len(idx), n.config.NumActions, nil)
	for i, j := range idx {
		if len(states[j]) != n.config.InputSize {
			return nil, nil, fmt.Errorf("state %d has length %d, want %d",
				j, len(states[j]), n.config.InputSize)
		}
		if len(targets[j]) != n.config.NumActions {
			return nil, nil, fmt.Errorf("target %d has length %d, want %d",
				j, len(targets[j]), n.config.NumActions)
		}
		x.SetRow(i, states[j])
		y.SetRow(i, targets[j])
	}
	return x, y, nil
}

// step runs one minibatch update and returns its mean squared error
func (n *Network) step(x, y *mat.Dense) float64 {
	p := n.forward(x)
	rows, cols := p.y.Dims()

	var diff mat.Dense
	diff.Sub(p.y, y)
	loss := 0.0
	for i := 0; i < rows; i++ {
		for _, v := range diff.RawRowView(i) {
			loss += v * v
		}
	}
	count := float64(rows * cols)
	loss /= count

	var dY mat.Dense
	dY.Scale(2/count, &diff)

	dA2 := n.backLayer(p.a2, &dY, n.out)
	dZ2 := reluBack(dA2, p.z2)
	dA1 := n.backLayer(p.a1, dZ2, n.l2)
	dZ1 := reluBack(dA1, p.z1)
	n.backLayer(p.x, dZ1, n.l1)

	return loss
}

// backLayer updates one layer from the gradient at its output and returns
// the gradient at its input. The input gradient uses the weights from
// before the update.
func (n *Network) backLayer(input, dOut *mat.Dense, l *layer) *mat.Dense {
	var dW mat.Dense
	dW.Mul(input.T(), dOut)

	dB := make([]float64, l.out)
	rows, _ := dOut.Dims()
	for i := 0; i < rows; i++ {
		floats.Add(dB, dOut.RawRowView(i))
	}

	var dIn mat.Dense
	dIn.Mul(dOut, l.w.T())

	l.update(&dW, dB, n.config.LearningRate)
	return &dIn
}

func (l *layer) update(dW *mat.Dense, dB []float64, lr float64) {
	rows, cols := l.w.Dims()
	for i := 0; i < rows; i++ {
		wRow := l.w.RawRowView(i)
		gRow := dW.RawRowView(i)
		aRow := l.accW.RawRowView(i)
		for j := 0; j < cols; j++ {
			g := gRow[j]
			aRow[j] += g * g
			wRow[j] -= lr * g / (math.Sqrt(aRow[j]) + adagradEps)
		}
	}
	for j, g := range dB {
		l.accB[j] += g * g
		l.b[j] -= lr * g / (math.Sqrt(l.accB[j]) + adagradEps)
	}
}

func affine(x *mat.Dense, l *layer) *mat.Dense {
	var z mat.Dense
	z.Mul(x, l.w)
	rows, _ := z.Dims()
	for i := 0; i < rows; i++ {
		floats.Add(z.RawRowView(i), l.b)
	}
	return &z
}

func reluOf(z *mat.Dense) *mat.Dense {
	var a mat.Dense
	a.Apply(func(_, _ int, v float64) float64 {
		if v < 0 {
			return 0
		}
		return v
	}, z)
	return &a
}

func reluBack(dA, z *mat.Dense) *mat.Dense {
	var dZ mat.Dense
	dZ.Apply(func(i, j int, v float64) float64 {
		if z.At(i, j) > 0 {
			return v
		}
		return 0
	}, dA)
	return &dZ
}
