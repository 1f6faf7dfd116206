package registry

import (
	"context"
	"errors"
	"testing"

	"commitcoord/pkg/cerrors"
)

type fakeConfig struct{ name string }
type fakeClient struct{ built string }

func TestSeedBuilderIsRegistered(t *testing.T) {
	r := New[fakeConfig, *fakeClient](map[string]Builder[fakeConfig, *fakeClient]{
		"memory": func(conf fakeConfig) (*fakeClient, error) { return &fakeClient{built: conf.name}, nil },
	})

	client, err := r.Get("memory", fakeConfig{name: "a"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if client.built != "a" {
		t.Fatalf("expected builder to receive config, got %q", client.built)
	}
}

func TestRegisterDuplicateNameFails(t *testing.T) {
	r := New[fakeConfig, *fakeClient](nil)
	b := func(conf fakeConfig) (*fakeClient, error) { return &fakeClient{}, nil }

	if err := r.Register("x", b); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := r.Register("x", b); !errors.Is(err, cerrors.ErrAlreadyRegistered) {
		t.Fatalf("expected ErrAlreadyRegistered, got %v", err)
	}
}

func TestGetUnknownNameFails(t *testing.T) {
	r := New[fakeConfig, *fakeClient](nil)
	if _, err := r.Get("nope", fakeConfig{}); !errors.Is(err, cerrors.ErrUnknownCoordinator) {
		t.Fatalf("expected ErrUnknownCoordinator, got %v", err)
	}
}

func TestGetOptReportsAbsenceWithoutError(t *testing.T) {
	r := New[fakeConfig, *fakeClient](nil)
	client, ok, err := r.GetOpt("nope", fakeConfig{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok || client != nil {
		t.Fatalf("expected absence, got ok=%v client=%v", ok, client)
	}
}

func TestClearNonSeedKeepsSeeded(t *testing.T) {
	r := New[fakeConfig, *fakeClient](map[string]Builder[fakeConfig, *fakeClient]{
		"memory": func(conf fakeConfig) (*fakeClient, error) { return &fakeClient{}, nil },
	})
	if err := r.Register("extra", func(conf fakeConfig) (*fakeClient, error) { return &fakeClient{}, nil }); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	r.ClearNonSeed()

	if _, err := r.Get("memory", fakeConfig{}); err != nil {
		t.Fatalf("expected seeded builder to survive ClearNonSeed: %v", err)
	}
	if _, err := r.Get("extra", fakeConfig{}); !errors.Is(err, cerrors.ErrUnknownCoordinator) {
		t.Fatalf("expected non-seeded builder to be gone, got %v", err)
	}
}

func TestCatalogRegistryIsIndependentOfNameRegistry(t *testing.T) {
	r := New[fakeConfig, *fakeClient](nil)
	if err := r.RegisterCatalog("cat1", func(ctx context.Context, name string) (*fakeClient, error) {
		return &fakeClient{built: name}, nil
	}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := r.Get("cat1", fakeConfig{}); !errors.Is(err, cerrors.ErrUnknownCoordinator) {
		t.Fatalf("expected name lookup to be unaware of catalog registration, got %v", err)
	}

	client, err := r.GetCatalog(context.Background(), "cat1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if client.built != "cat1" {
		t.Fatalf("expected catalog builder to receive its name, got %q", client.built)
	}
}

func TestTwoRegistriesAreIsolated(t *testing.T) {
	a := New[fakeConfig, *fakeClient](map[string]Builder[fakeConfig, *fakeClient]{
		"memory": func(conf fakeConfig) (*fakeClient, error) { return &fakeClient{}, nil },
	})
	b := New[fakeConfig, *fakeClient](nil)

	if _, err := b.Get("memory", fakeConfig{}); !errors.Is(err, cerrors.ErrUnknownCoordinator) {
		t.Fatalf("expected a fresh registry to know nothing about another instance's seed, got %v", err)
	}
	if _, err := a.Get("memory", fakeConfig{}); err != nil {
		t.Fatalf("expected the original registry to still have its seed, got %v", err)
	}
}
