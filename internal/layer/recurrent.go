package layer

import (
	"fmt"

	"github.com/born-ml/fnn/internal/rng"
	"github.com/born-ml/fnn/internal/tensor"
	"github.com/born-ml/fnn/internal/tree"
)

// RecurrentHyperparams records the scan direction and the cell configuration.
type RecurrentHyperparams struct {
	Reverse bool
	Cell    Hyperparams
}

// Name implements Hyperparams.
func (RecurrentHyperparams) Name() string { return "Recurrent" }

// Recurrent scans a cell over axis 0 of a sequence.
//
// Input:  Node(xs [T, ...], carry)
// Output: Node(ys [T, ...], final carry)
//
// At step t the cell receives Node(xs[t], carry) and must return
// Node(y_t, carry'). With reverse set the scan runs from T-1 down to 0, but
// ys is always emitted in the input's order. The same cell params are used at
// every step; the cell's non-trainables are threaded from step to step.
func Recurrent(cell Blueprint, reverse bool) Blueprint {
	return BlueprintFunc(func(in Desc) (Layer, error) {
		l, err := setupRecurrent(cell, reverse, in)
		if err != nil {
			return nil, err
		}
		return l, nil
	})
}

// RecurrentLayer is a configured scan.
type RecurrentLayer struct {
	cell     Layer
	reverse  bool
	in, out  Desc
	step     tensor.Shape // shape of one element of xs
	carry    Desc
	stepOut  Desc // per-step output descriptor of the cell
	needsKey bool
}

func setupRecurrent(cell Blueprint, reverse bool, in Desc) (*RecurrentLayer, error) {
	if !in.IsNode() || in.Len() != 2 {
		return nil, fmt.Errorf("recurrent: %w: want Node(xs, carry), got %s", ErrInvalidDesc, in)
	}
	xs, err := LeafShape(in.Child(0))
	if err != nil {
		return nil, fmt.Errorf("recurrent: xs: %w", err)
	}
	if len(xs) == 0 {
		return nil, fmt.Errorf("recurrent: %w: xs must have a sequence axis", ErrInvalidDesc)
	}
	step := xs[1:].Clone()
	carry := in.Child(1)

	// The cell is configured from one representative timestep.
	c, err := cell.Setup(NodeDesc(LeafDesc(step), carry))
	if err != nil {
		return nil, fmt.Errorf("recurrent: cell: %w", err)
	}
	cellOut := c.OutDesc()
	if !cellOut.IsNode() || cellOut.Len() != 2 {
		return nil, fmt.Errorf("recurrent: %w: cell must return Node(y, carry), got %s", ErrCarryMismatch, cellOut)
	}
	if !DescEqual(cellOut.Child(1), carry) {
		return nil, fmt.Errorf("recurrent: %w: cell returns carry %s, initial carry is %s",
			ErrCarryMismatch, cellOut.Child(1), carry)
	}

	stepOut := cellOut.Child(0)
	seqLen := xs[0]
	ys := tree.Map(stepOut, func(s tensor.Shape) tensor.Shape {
		return append(tensor.Shape{seqLen}, s...)
	})

	return &RecurrentLayer{
		cell:     c,
		reverse:  reverse,
		in:       in,
		out:      NodeDesc(ys, carry),
		step:     step,
		carry:    carry,
		stepOut:  stepOut,
		needsKey: c.NeedsKey(),
	}, nil
}

// Cell returns the wrapped cell.
func (r *RecurrentLayer) Cell() Layer { return r.cell }

// Reverse reports the scan direction.
func (r *RecurrentLayer) Reverse() bool { return r.reverse }

// Hyperparams implements Layer.
func (r *RecurrentLayer) Hyperparams() Hyperparams {
	return RecurrentHyperparams{Reverse: r.reverse, Cell: r.cell.Hyperparams()}
}

// InDesc implements Layer.
func (r *RecurrentLayer) InDesc() Desc { return r.in }

// OutDesc implements Layer.
func (r *RecurrentLayer) OutDesc() Desc { return r.out }

// NeedsKey reports whether the cell is stochastic.
func (r *RecurrentLayer) NeedsKey() bool { return r.needsKey }

// Init initialises the cell. Its params are shared by every step.
func (r *RecurrentLayer) Init(key rng.Key) (Params, error) {
	p, err := r.cell.Init(key)
	if err != nil {
		return Params{}, fmt.Errorf("recurrent: init cell: %w", err)
	}
	return p, nil
}

// Forward runs the scan. A stochastic cell receives key.FoldIn(t) at the step
// for position t, so each position's stream is independent of scan direction.
func (r *RecurrentLayer) Forward(x Value, p Params, key rng.Key, inference bool) (Value, Value, error) {
	if !x.IsNode() || x.Len() != 2 {
		return Value{}, Value{}, fmt.Errorf("recurrent: %w: want Node(xs, carry), got %s", ErrInputMismatch, x.Kind())
	}
	xs, err := LeafInput(x.Child(0))
	if err != nil {
		return Value{}, Value{}, fmt.Errorf("recurrent: xs: %w", err)
	}
	if xs.Rank() == 0 || !xs.Shape()[1:].Equal(r.step) {
		return Value{}, Value{}, fmt.Errorf("recurrent: %w: xs has shape %v, want [T %v]",
			ErrInputMismatch, xs.Shape(), r.step)
	}
	carry := x.Child(1)
	if !DescEqual(DescOf(carry), r.carry) {
		return Value{}, Value{}, fmt.Errorf("recurrent: %w: initial carry %s, cell expects %s",
			ErrCarryMismatch, DescOf(carry), r.carry)
	}

	seqLen := xs.Shape()[0]
	steps := make([][]*tensor.Tensor, seqLen)
	ntr := p.NonTrainables
	for i := 0; i < seqLen; i++ {
		t := i
		if r.reverse {
			t = seqLen - 1 - i
		}
		k := rng.None
		if r.needsKey {
			k = key.FoldIn(t)
		}
		out, next, err := r.cell.Forward(
			tree.Node(tree.Leaf(xs.Index(t)), carry),
			Params{Trainables: p.Trainables, NonTrainables: ntr},
			k, inference,
		)
		if err != nil {
			return Value{}, Value{}, fmt.Errorf("recurrent: step %d: %w", t, err)
		}
		if !out.IsNode() || out.Len() != 2 {
			return Value{}, Value{}, fmt.Errorf("recurrent: step %d: %w: cell returned %s",
				t, ErrCarryMismatch, out.Kind())
		}
		steps[t] = out.Child(0).Leaves()
		carry = out.Child(1)
		ntr = next
	}

	ys, err := r.stack(steps)
	if err != nil {
		return Value{}, Value{}, fmt.Errorf("recurrent: %w", err)
	}
	return tree.Node(ys, carry), ntr, nil
}

// stack joins per-step outputs leaf by leaf along a new leading axis.
func (r *RecurrentLayer) stack(steps [][]*tensor.Tensor) (Value, error) {
	shapes := r.stepOut.Leaves()
	if len(steps) > 0 {
		shapes = make([]tensor.Shape, len(steps[0]))
		for j, t := range steps[0] {
			shapes[j] = t.Shape()
		}
	}

	leaves := make([]*tensor.Tensor, len(shapes))
	for j, shape := range shapes {
		col := make([]*tensor.Tensor, len(steps))
		for t, step := range steps {
			if len(step) != len(shapes) || !step[j].Shape().Equal(shape) {
				return Value{}, fmt.Errorf("%w: step %d output does not match step 0", ErrInputMismatch, t)
			}
			col[t] = step[j]
		}
		leaves[j] = tensor.Stack(shape, col)
	}
	return tree.Unflatten(r.stepOut, leaves)
}
