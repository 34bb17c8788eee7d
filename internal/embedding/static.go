package embedding

import (
	"context"
	"crypto/sha256"
)

// StaticClient derives a deterministic pseudo-embedding from the text hash.
// It exists for tests and offline development; vectors carry no semantic
// meaning but are stable per input.
type StaticClient struct {
	Dimension int
	Err       error
}

func (s StaticClient) Embed(_ context.Context, text string) ([]float32, error) {
	if s.Err != nil {
		return nil, s.Err
	}
	if text == "" {
		return nil, ErrEmptyText
	}
	dim := s.Dimension
	if dim <= 0 {
		dim = 8
	}
	sum := sha256.Sum256([]byte(text))
	vec := make([]float32, dim)
	for i := range vec {
		vec[i] = float32(sum[i%len(sum)]) / 255
	}
	return vec, nil
}
