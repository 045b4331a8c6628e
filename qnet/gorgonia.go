package qnet

import (
	"fmt"
	"math"
	"math/rand"
	"strings"
	"time"

	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"

	"nstep-dqn/types"
)

// GorgoniaNetwork mirrors Network on top of a gorgonia expression graph.
// Weights live in tensors shared with the graph nodes, so solver steps
// persist across calls. Uses Adam instead of Adagrad.
type GorgoniaNetwork struct {
	config Config
	w1     tensor.Tensor
	b1     tensor.Tensor
	w2     tensor.Tensor
	b2     tensor.Tensor
	w3     tensor.Tensor
	b3     tensor.Tensor
	solver G.Solver
	rand   *rand.Rand
}

var _ types.ValueFunction = &GorgoniaNetwork{}

func NewGorgonia(config Config) (*GorgoniaNetwork, error) {
	if config.InputSize <= 0 || config.NumActions <= 0 {
		return nil, fmt.Errorf("network needs positive input and action sizes, got %d and %d",
			config.InputSize, config.NumActions)
	}
	if config.Hidden <= 0 {
		config.Hidden = 50
	}
	if config.LearningRate <= 0 {
		config.LearningRate = 0.001
	}
	if config.BatchSize <= 0 {
		config.BatchSize = 128
	}
	if config.Seed == 0 {
		config.Seed = time.Now().UnixNano()
	}
	rnd := rand.New(rand.NewSource(config.Seed))
	return &GorgoniaNetwork{
		config: config,
		w1:     glorotTensor(config.InputSize, config.Hidden, rnd),
		b1:     zeroTensor(1, config.Hidden),
		w2:     glorotTensor(config.Hidden, config.Hidden, rnd),
		b2:     zeroTensor(1, config.Hidden),
		w3:     glorotTensor(config.Hidden, config.NumActions, rnd),
		b3:     zeroTensor(1, config.NumActions),
		solver: G.NewAdamSolver(G.WithLearnRate(config.LearningRate), G.WithL2Reg(1e-6)),
		rand:   rnd,
	}, nil
}

func (n *GorgoniaNetwork) Predict(state []float64) ([]float64, error) {
	if len(state) != n.config.InputSize {
		return nil, fmt.Errorf("state length %d does not match the input size %d",
			len(state), n.config.InputSize)
	}
	backing := make([]float64, len(state))
	copy(backing, state)

	gs := n.graph(1, backing)
	vm := G.NewTapeMachine(gs.g)
	defer vm.Close()
	if err := vm.RunAll(); err != nil {
		return nil, fmt.Errorf("value pass: %w", err)
	}
	out := make([]float64, n.config.NumActions)
	copy(out, gs.y.Value().Data().([]float64))
	return out, nil
}

func (n *GorgoniaNetwork) Fit(states, targets [][]float64) ([]float64, error) {
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
		idx := order[start:end]
		xBacking, yBacking, err := n.flatten(states, targets, idx)
		if err != nil {
			return nil, err
		}
		loss, err := n.fitBatch(len(idx), xBacking, yBacking)
		if err != nil {
			return nil, err
		}
		history = append(history, loss)
	}
	return history, nil
}

func (n *GorgoniaNetwork) Summary() string {
	var b strings.Builder
	total := 0
	add := func(name, activation string, in, out int) {
		params := in*out + out
		total += params
		fmt.Fprintf(&b, "%-6s dense %4d -> %-4d %-7s %6d params\n", name, in, out, activation, params)
	}
	add("l1", "relu", n.config.InputSize, n.config.Hidden)
	add("l2", "relu", n.config.Hidden, n.config.Hidden)
	add("value", "linear", n.config.Hidden, n.config.NumActions)
	fmt.Fprintf(&b, "total %d params (gorgonia)", total)
	return b.String()
}

type graphState struct {
	g       *G.ExprGraph
	y       *G.Node
	weights G.Nodes
}

// graph rebuilds the expression graph around the persistent weight tensors
func (n *GorgoniaNetwork) graph(rows int, xBacking []float64) *graphState {
	g := G.NewGraph()
	x := G.NodeFromAny(g, tensor.New(
		tensor.WithShape(rows, n.config.InputSize),
		tensor.WithBacking(xBacking)), G.WithName("x"))
	w1 := G.NodeFromAny(g, n.w1, G.WithName("w1"))
	b1 := G.NodeFromAny(g, n.b1, G.WithName("b1"))
	w2 := G.NodeFromAny(g, n.w2, G.WithName("w2"))
	b2 := G.NodeFromAny(g, n.b2, G.WithName("b2"))
	w3 := G.NodeFromAny(g, n.w3, G.WithName("w3"))
	b3 := G.NodeFromAny(g, n.b3, G.WithName("b3"))

	// biases are 1 x out, expanded over the batch by multiplying a ones column
	ones := G.NewMatrix(g, tensor.Float64, G.WithShape(rows, 1), G.WithName("ones"), G.WithInit(G.Ones()))

	h1 := G.Must(G.Rectify(G.Must(G.Add(G.Must(G.Mul(x, w1)), G.Must(G.Mul(ones, b1))))))
	h2 := G.Must(G.Rectify(G.Must(G.Add(G.Must(G.Mul(h1, w2)), G.Must(G.Mul(ones, b2))))))
	y := G.Must(G.Add(G.Must(G.Mul(h2, w3)), G.Must(G.Mul(ones, b3))))

	return &graphState{g: g, y: y, weights: G.Nodes{w1, b1, w2, b2, w3, b3}}
}

func (n *GorgoniaNetwork) fitBatch(rows int, xBacking, yBacking []float64) (float64, error) {
	gs := n.graph(rows, xBacking)
	target := G.NodeFromAny(gs.g, tensor.New(
		tensor.WithShape(rows, n.config.NumActions),
		tensor.WithBacking(yBacking)), G.WithName("target"))
	loss := G.Must(G.Mean(G.Must(G.Square(G.Must(G.Sub(gs.y, target))))))

	if _, err := G.Grad(loss, gs.weights...); err != nil {
		return 0, fmt.Errorf("gradients: %w", err)
	}
	vm := G.NewTapeMachine(gs.g, G.BindDualValues(gs.weights...))
	defer vm.Close()
	if err := vm.RunAll(); err != nil {
		return 0, fmt.Errorf("fit pass: %w", err)
	}
	if err := n.solver.Step(G.NodesToValueGrads(gs.weights)); err != nil {
		return 0, fmt.Errorf("solver step: %w", err)
	}
	return loss.Value().Data().(float64), nil
}

func (n *GorgoniaNetwork) flatten(states, targets [][]float64, idx []int) ([]float64, []float64, error) {
	xBacking := make([]float64, 0, len(idx)*n.config.InputSize)
	yBacking := make([]float64, 0, len(idx)*n.config.NumActions)
	for _, j := range idx {
		if len(states[j]) != n.config.InputSize {
			return nil, nil, fmt.Errorf("state %d has length %d, want %d",
				j, len(states[j]), n.config.InputSize)
		}
		if len(targets[j]) != n.config.NumActions {
			return nil, nil, fmt.Errorf("target %d has length %d, want %d",
				j, len(targets[j]), n.config.NumActions)
		}
		xBacking = append(xBacking, states[j]...)
		yBacking = append(yBacking, targets[j]...)
	}
	return xBacking, yBacking, nil
}

func glorotTensor(in, out int, rnd *rand.Rand) tensor.Tensor {
	limit := math.Sqrt(6.0 / float64(in+out))
	data := make([]float64, in*out)
	for i := range data {
		data[i] = rnd.Float64()*2*limit - limit
	}
	return tensor.New(tensor.WithShape(in, out), tensor.WithBacking(data))
}

func zeroTensor(r, c int) tensor.Tensor {
	return tensor.New(tensor.WithShape(r, c), tensor.WithBacking(make([]float64, r*c)))
}
