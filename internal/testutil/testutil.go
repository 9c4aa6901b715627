// Package testutil provides deterministic stand-ins for the embedding and
// generation services used across package tests.
package testutil

import (
	"context"
	"errors"
)

// StubEmbedder derives vectors from text content, so identical texts always
// map to identical vectors and tests stay deterministic.
type StubEmbedder struct {
	Dim  int
	Fail bool
}

func (s *StubEmbedder) Model() string  { return "stub" }
func (s *StubEmbedder) Dimension() int { return s.Dim }

func (s *StubEmbedder) Embed(_ context.Context, text string) ([]float64, error) {
	if s.Fail {
		return nil, errors.New("embedding service down")
	}
	v := make([]float64, s.Dim)
	for i, r := range []rune(text) {
		v[i%s.Dim] += float64(r)
	}
	return v, nil
}

func (s *StubEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float64, error) {
	vectors := make([][]float64, 0, len(texts))
	for _, t := range texts {
		v, err := s.Embed(ctx, t)
		if err != nil {
			return nil, err
		}
		vectors = append(vectors, v)
	}
	return vectors, nil
}

// StubGenerator records the prompt it received and returns a canned answer.
type StubGenerator struct {
	System string
	User   string
	Answer string
	Err    error
}

func (g *StubGenerator) Complete(_ context.Context, system, user string) (string, error) {
	g.System = system
	g.User = user
	if g.Err != nil {
		return "", g.Err
	}
	return g.Answer, nil
}
