// Package tokenizer turns text into padded token batches for sequence layers.
//
// Text is encoded with tiktoken (cl100k_base, p50k_base, r50k_base), token
// ids are folded into a fixed embedding vocabulary, and a batch of sequences
// is right-padded into an id tensor [B, M] with a matching 0/1 mask:
//
//	tok, err := tokenizer.NewTikToken("cl100k_base")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	batch, err := tokenizer.EncodeBatch(tok, []string{"hello", "hello world"}, 0, 512)
//	// batch.IDs: [2, M], batch.Mask: [2, M], batch.Lengths: token counts
package tokenizer
