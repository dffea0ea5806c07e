package tensor

import (
	"fmt"
	"math"

	"github.com/born-ml/fnn/internal/parallel"
)

// MaxPool2D takes the maximum over windows of a channel-first input.
//
// Shapes:
//   - input:  [N, C, H, W]
//   - output: [N, C, (H-window)/stride+1, (W-window)/stride+1]
//
// Channels of all images are pooled in parallel.
func MaxPool2D(input *Tensor, window, stride int) *Tensor {
	if len(input.shape) != 4 {
		panic(fmt.Sprintf("maxpool2d: expected 4D input [N,C,H,W], got %dD", len(input.shape)))
	}
	if window <= 0 || stride <= 0 {
		panic(fmt.Sprintf("maxpool2d: invalid window %d or stride %d", window, stride))
	}
	n, c, h, w := input.shape[0], input.shape[1], input.shape[2], input.shape[3]
	if h < window || w < window {
		panic(fmt.Sprintf("maxpool2d: window %d larger than input %dx%d", window, h, w))
	}
	outH := (h-window)/stride + 1
	outW := (w-window)/stride + 1
	out := make([]float64, n*c*outH*outW)

	parallel.For(n*c, parallel.DefaultConfig(), func(plane int) {
		src := input.data[plane*h*w : (plane+1)*h*w]
		dst := out[plane*outH*outW : (plane+1)*outH*outW]
		for oy := 0; oy < outH; oy++ {
			for ox := 0; ox < outW; ox++ {
				best := math.Inf(-1)
				for ky := 0; ky < window; ky++ {
					row := src[(oy*stride+ky)*w:]
					for kx := 0; kx < window; kx++ {
						best = math.Max(best, row[ox*stride+kx])
					}
				}
				dst[oy*outW+ox] = best
			}
		}
	})
	return newTensor(Shape{n, c, outH, outW}, out)
}
