package llm

import (
	"context"
	"errors"
	"testing"
)

type stubProvider struct {
	name    string
	content string
	err     error
}

func (s *stubProvider) Name() string { return s.name }

func (s *stubProvider) Generate(_ context.Context, _ *Request) (*Response, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &Response{Content: s.content}, nil
}

func TestRegistry_GetAndDefault(t *testing.T) {
	r := NewRegistry()

	t.Run("empty registry has no default", func(t *testing.T) {
		if _, err := r.Default(); !errors.Is(err, ErrNoDefaultProvider) {
			t.Errorf("Default() error = %v, want ErrNoDefaultProvider", err)
		}
	})

	t.Run("get unknown provider", func(t *testing.T) {
		if _, err := r.Get("missing"); !errors.Is(err, ErrProviderNotFound) {
			t.Errorf("Get() error = %v, want ErrProviderNotFound", err)
		}
	})

	t.Run("registered provider is retrievable", func(t *testing.T) {
		r.Register("stub", &stubProvider{name: "stub"})

		p, err := r.Get("stub")
		if err != nil {
			t.Fatalf("Get() error: %v", err)
		}
		if p.Name() != "stub" {
			t.Errorf("Name() = %s, want stub", p.Name())
		}
	})

	t.Run("set default requires registration", func(t *testing.T) {
		if err := r.SetDefault("unknown"); err == nil {
			t.Error("SetDefault() expected error for unknown provider")
		}
		if err := r.SetDefault("stub"); err != nil {
			t.Errorf("SetDefault() error: %v", err)
		}

		p, err := r.Default()
		if err != nil {
			t.Fatalf("Default() error: %v", err)
		}
		if p.Name() != "stub" {
			t.Errorf("Default().Name() = %s, want stub", p.Name())
		}
	})

	t.Run("falls back to any provider without explicit default", func(t *testing.T) {
		fresh := NewRegistry()
		fresh.Register("only", &stubProvider{name: "only"})

		p, err := fresh.Default()
		if err != nil {
			t.Fatalf("Default() error: %v", err)
		}
		if p.Name() != "only" {
			t.Errorf("Default().Name() = %s, want only", p.Name())
		}
	})
}

func TestIsRetryableHTTPError(t *testing.T) {
	tests := []struct {
		err  error
		want bool
	}{
		{nil, false},
		{errors.New("API error (status 429): rate limited"), true},
		{errors.New("API error (status 503): unavailable"), true},
		{errors.New("API error (status 400): bad request"), false},
		{errors.New("connection refused"), false},
	}

	for _, tt := range tests {
		if got := isRetryableHTTPError(tt.err); got != tt.want {
			t.Errorf("isRetryableHTTPError(%v) = %v, want %v", tt.err, got, tt.want)
		}
	}
}
