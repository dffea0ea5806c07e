// Package main provides the fnn command line tool.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/born-ml/fnn/internal/layer"
	"github.com/born-ml/fnn/internal/nn"
	"github.com/born-ml/fnn/internal/rng"
	"github.com/born-ml/fnn/internal/tokenizer"
	"github.com/born-ml/fnn/internal/tree"
)

const version = "v0.1.0-dev"

func main() {
	if len(os.Args) < 2 {
		usage()
		return
	}
	switch os.Args[1] {
	case "version":
		fmt.Printf("fnn %s\n", version)
	case "demo":
		if err := demo(os.Args[2:]); err != nil {
			log.Fatalf("demo: %v", err)
		}
	default:
		usage()
		os.Exit(2)
	}
}

func usage() {
	fmt.Println("fnn - functional neural network layers for Go")
	fmt.Printf("Version: %s\n\n", version)
	fmt.Println("Commands:")
	fmt.Println("  version    Show version")
	fmt.Println("  demo       Encode text and run a BiLSTM block over it")
}

func demo(args []string) error {
	fs := flag.NewFlagSet("demo", flag.ExitOnError)
	texts := fs.String("text", "the quick brown fox|jumps over the lazy dog again and again",
		"Sentences separated by '|'")
	encoding := fs.String("encoding", "cl100k_base", "tiktoken encoding")
	vocab := fs.Int("vocab", 512, "Embedding table size; token ids are folded into it")
	embedDim := fs.Int("embed", 16, "Embedding dimension")
	hidden := fs.Int("hidden", 32, "BiLSTM hidden size")
	dropout := fs.Float64("dropout", 0.1, "Dropout rate inside the BiLSTM block")
	seed := fs.Uint64("seed", 0, "Root PRNG seed")
	if err := fs.Parse(args); err != nil {
		return err
	}

	tok, err := tokenizer.NewTikToken(*encoding)
	if err != nil {
		return err
	}
	batch, err := tokenizer.EncodeBatch(tok, strings.Split(*texts, "|"), 0, *vocab)
	if err != nil {
		return err
	}
	fmt.Printf("Tokens per sentence: %v (padded to %d)\n", batch.Lengths, batch.IDs.Shape()[1])

	cell := nn.DefaultBiLSTMConfig(*hidden)
	cell.DropoutRate = *dropout
	model := layer.Sequential(
		// Embed the ids, pass the mask through.
		layer.Parallel(
			nn.NewEmbedding(nn.DefaultEmbeddingConfig(*vocab, *embedDim)),
			nn.F("mask", func(v layer.Value) (layer.Value, error) { return v, nil }, nil),
		),
		nn.NewBiLSTM(cell),
	)

	root := rng.New(*seed)
	keys := root.Split(2)
	in := layer.NodeDesc(layer.LeafDesc(batch.IDs.Shape()), layer.LeafDesc(batch.Mask.Shape()))
	l, params, err := layer.Setup(model, in, keys[0])
	if err != nil {
		return err
	}

	total := 0
	for _, e := range params.Trainables.Flatten() {
		fmt.Printf("  param %-8s %v\n", e.Path, e.Value.Shape())
		total += e.Value.NumElements()
	}
	fmt.Printf("Trainable parameters: %d\n", total)

	input := tree.Node(tree.Leaf(batch.IDs), tree.Leaf(batch.Mask))

	y, params, err := layer.Apply(l, input, params, keys[1], false)
	if err != nil {
		return fmt.Errorf("training forward: %w", err)
	}
	out := y.Child(0).Value()
	fmt.Printf("Training:  output %v checksum %.6f\n", out.Shape(), out.Sum())

	y, _, err = layer.Apply(l, input, params, rng.None, true)
	if err != nil {
		return fmt.Errorf("inference forward: %w", err)
	}
	out = y.Child(0).Value()
	fmt.Printf("Inference: output %v checksum %.6f\n", out.Shape(), out.Sum())
	return nil
}
