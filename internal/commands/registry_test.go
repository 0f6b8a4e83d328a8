package commands

import (
	"context"
	"errors"
	"strings"
	"testing"
)

type fakePublisher struct {
	appID string
	specs []Spec
	calls int
	err   error
}

func (f *fakePublisher) PublishCommands(ctx context.Context, appID string, specs []Spec) error {
	f.calls++
	f.appID = appID
	f.specs = specs
	return f.err
}

func TestNewRegistry(t *testing.T) {
	r := NewRegistry(nil)
	if r == nil {
		t.Fatal("NewRegistry returned nil")
	}
	if r.index == nil {
		t.Error("index map not initialized")
	}
	if len(r.List()) != 0 {
		t.Error("new registry should be empty")
	}
}

func TestRegistry_Register_Errors(t *testing.T) {
	tests := []struct {
		name string
		spec Spec
		want string
	}{
		{
			name: "empty name",
			spec: Spec{Name: ""},
			want: "name is required",
		},
		{
			name: "uppercase name",
			spec: Spec{Name: "Imagine"},
			want: "lowercase",
		},
		{
			name: "empty option name",
			spec: Spec{Name: "x", Options: []Option{{Kind: OptionKindString}}},
			want: "option name is required",
		},
		{
			name: "duplicate option",
			spec: Spec{Name: "x", Options: []Option{
				{Name: "a", Kind: OptionKindString},
				{Name: "a", Kind: OptionKindString},
			}},
			want: "duplicate option",
		},
		{
			name: "unsupported kind",
			spec: Spec{Name: "x", Options: []Option{{Name: "a", Kind: 4}}},
			want: "unsupported kind",
		},
		{
			name: "empty choice value",
			spec: Spec{Name: "x", Options: []Option{{
				Name: "a", Kind: OptionKindString,
				Choices: []Choice{{Name: "A", Value: ""}},
			}}},
			want: "empty value",
		},
		{
			name: "duplicate choice value",
			spec: Spec{Name: "x", Options: []Option{{
				Name: "a", Kind: OptionKindString,
				Choices: []Choice{{Name: "A", Value: "a"}, {Name: "B", Value: "a"}},
			}}},
			want: "duplicate choice",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewRegistry(nil).Register(tt.spec)
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q does not contain %q", err, tt.want)
			}
		})
	}
}

func TestRegistry_Register_DuplicateName(t *testing.T) {
	r := NewRegistry(nil)
	if err := r.Register(Spec{Name: "ping"}); err != nil {
		t.Fatalf("first Register failed: %v", err)
	}
	if err := r.Register(Spec{Name: "ping"}); err == nil {
		t.Error("expected error for duplicate command name")
	}
}

func TestRegistry_PreservesOrder(t *testing.T) {
	r := NewRegistry(nil)
	for _, name := range []string{"zeta", "alpha", "mid"} {
		if err := r.Register(Spec{Name: name}); err != nil {
			t.Fatalf("Register(%s) failed: %v", name, err)
		}
	}

	got := strings.Join(r.Names(), ",")
	if got != "zeta,alpha,mid" {
		t.Errorf("Names() = %s, want registration order", got)
	}
}

func TestRegistry_ListReturnsCopy(t *testing.T) {
	r := NewRegistry(nil)
	_ = r.Register(Spec{Name: "one"})

	list := r.List()
	list[0].Name = "mutated"

	if r.Names()[0] != "one" {
		t.Error("List() exposed internal storage")
	}
}

func TestRegistry_Publish(t *testing.T) {
	r, err := NewBuiltinRegistry(nil)
	if err != nil {
		t.Fatalf("NewBuiltinRegistry failed: %v", err)
	}

	pub := &fakePublisher{}
	if err := r.Publish(context.Background(), pub, "app-123"); err != nil {
		t.Fatalf("Publish failed: %v", err)
	}

	if pub.calls != 1 {
		t.Errorf("expected a single bulk call, got %d", pub.calls)
	}
	if pub.appID != "app-123" {
		t.Errorf("appID = %q", pub.appID)
	}
	if len(pub.specs) != 3 {
		t.Fatalf("published %d commands, want 3", len(pub.specs))
	}
	for i, want := range []string{CommandStartChat, CommandDeactivate, CommandImagine} {
		if pub.specs[i].Name != want {
			t.Errorf("specs[%d] = %s, want %s", i, pub.specs[i].Name, want)
		}
	}
}

func TestRegistry_Publish_Errors(t *testing.T) {
	r, _ := NewBuiltinRegistry(nil)
	ctx := context.Background()

	if err := r.Publish(ctx, nil, "app"); err == nil {
		t.Error("expected error for nil publisher")
	}
	if err := r.Publish(ctx, &fakePublisher{}, "  "); err == nil {
		t.Error("expected error for empty app id")
	}

	upstream := errors.New("401 Unauthorized")
	err := r.Publish(ctx, &fakePublisher{err: upstream}, "app")
	if !errors.Is(err, upstream) {
		t.Errorf("Publish error = %v, want wrapped upstream error", err)
	}
}
