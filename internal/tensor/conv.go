package tensor

import (
	"fmt"

	"github.com/born-ml/fnn/internal/parallel"
	"gonum.org/v1/gonum/mat"
)

// Conv2D performs a 2-D cross-correlation using the im2col algorithm.
//
// Shapes:
//   - input:  [N, C_in, H, W]
//   - kernel: [C_out, C_in, K_h, K_w]
//   - output: [N, C_out, H_out, W_out]
//
// padding holds (low, high) zero padding per spatial axis. Each image is
// unrolled into a patch matrix and multiplied against the flattened kernel;
// images are processed in parallel since they write disjoint output blocks.
func Conv2D(input, kernel *Tensor, strides [2]int, padding [2][2]int) *Tensor {
	if len(input.shape) != 4 {
		panic(fmt.Sprintf("conv2d: input must be 4D [N,C,H,W], got %dD", len(input.shape)))
	}
	if len(kernel.shape) != 4 {
		panic(fmt.Sprintf("conv2d: kernel must be 4D [C_out,C_in,K_h,K_w], got %dD", len(kernel.shape)))
	}
	n, cIn, h, w := input.shape[0], input.shape[1], input.shape[2], input.shape[3]
	cOut, cInK, kh, kw := kernel.shape[0], kernel.shape[1], kernel.shape[2], kernel.shape[3]
	if cIn != cInK {
		panic(fmt.Sprintf("conv2d: input channels %d != kernel channels %d", cIn, cInK))
	}
	if strides[0] <= 0 || strides[1] <= 0 {
		panic(fmt.Sprintf("conv2d: invalid strides %v", strides))
	}

	hp := h + padding[0][0] + padding[0][1]
	wp := w + padding[1][0] + padding[1][1]
	if hp < kh || wp < kw {
		panic(fmt.Sprintf("conv2d: kernel %dx%d larger than padded input %dx%d", kh, kw, hp, wp))
	}
	outH := (hp-kh)/strides[0] + 1
	outW := (wp-kw)/strides[1] + 1

	patch := cIn * kh * kw
	positions := outH * outW
	out := make([]float64, n*cOut*positions)
	if n == 0 || cOut == 0 || positions == 0 || patch == 0 {
		return newTensor(Shape{n, cOut, outH, outW}, out)
	}

	kmat := mat.NewDense(cOut, patch, kernel.data)
	imageSize := cIn * h * w

	parallel.For(n, parallel.DefaultConfig(), func(b int) {
		img := input.data[b*imageSize : (b+1)*imageSize]
		cols := make([]float64, positions*patch)
		for oy := 0; oy < outH; oy++ {
			for ox := 0; ox < outW; ox++ {
				row := cols[(oy*outW+ox)*patch : (oy*outW+ox+1)*patch]
				i := 0
				for c := 0; c < cIn; c++ {
					for ky := 0; ky < kh; ky++ {
						y := oy*strides[0] + ky - padding[0][0]
						for kx := 0; kx < kw; kx++ {
							x := ox*strides[1] + kx - padding[1][0]
							if y >= 0 && y < h && x >= 0 && x < w {
								row[i] = img[(c*h+y)*w+x]
							}
							i++
						}
					}
				}
			}
		}

		dst := mat.NewDense(cOut, positions, out[b*cOut*positions:(b+1)*cOut*positions])
		dst.Mul(kmat, mat.NewDense(positions, patch, cols).T())
	})

	return newTensor(Shape{n, cOut, outH, outW}, out)
}
