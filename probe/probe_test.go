package probe_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/drblury/mongoweaver/probe"
)

type stubMongoPinger struct {
	err        error
	lastCtx    context.Context
	lastReadPF *readpref.ReadPref
}

func (s *stubMongoPinger) Ping(ctx context.Context, rp *readpref.ReadPref) error {
	s.lastCtx = ctx
	s.lastReadPF = rp
	return s.err
}

type stubLister struct {
	names []string
	err   error
	calls int
}

func (s *stubLister) ListCollectionNames(ctx context.Context, filter interface{}, opts ...*options.ListCollectionsOptions) ([]string, error) {
	s.calls++
	return s.names, s.err
}

func TestNewPingProbe(t *testing.T) {
	t.Run("nil function", func(t *testing.T) {
		probeFunc := probe.NewPingProbe("store", nil)
		if err := probeFunc(context.Background()); err == nil {
			t.Fatal("expected error when ping function is nil")
		}
	})

	t.Run("success", func(t *testing.T) {
		called := false
		probeFunc := probe.NewPingProbe("store", func(ctx context.Context) error {
			if ctx == nil {
				t.Fatal("expected non-nil context")
			}
			called = true
			return nil
		})

		if err := probeFunc(context.Background()); err != nil {
			t.Fatalf("expected nil error, got %v", err)
		}
		if !called {
			t.Fatal("expected ping function to be called")
		}
	})

	t.Run("failure", func(t *testing.T) {
		sentinel := errors.New("boom")
		probeFunc := probe.NewPingProbe("store", func(ctx context.Context) error {
			return sentinel
		})
		err := probeFunc(context.Background())
		if !errors.Is(err, sentinel) {
			t.Fatalf("expected error to wrap sentinel, got %v", err)
		}
	})
}

func TestNewMongoPingProbe(t *testing.T) {
	t.Run("nil client", func(t *testing.T) {
		probeFunc := probe.NewMongoPingProbe(nil, nil)
		if err := probeFunc(context.Background()); err == nil {
			t.Fatal("expected error when client is nil")
		}
	})

	t.Run("success", func(t *testing.T) {
		stub := &stubMongoPinger{}
		probeFunc := probe.NewMongoPingProbe(stub, nil)
		if err := probeFunc(context.Background()); err != nil {
			t.Fatalf("expected nil error, got %v", err)
		}
		if stub.lastCtx == nil {
			t.Fatal("expected context to be forwarded")
		}
		if stub.lastReadPF == nil || stub.lastReadPF.Mode() != readpref.PrimaryMode {
			t.Fatalf("expected primary read preference, got %v", stub.lastReadPF)
		}
	})

	t.Run("failure", func(t *testing.T) {
		sentinel := errors.New("unreachable")
		stub := &stubMongoPinger{err: sentinel}
		probeFunc := probe.NewMongoPingProbe(stub, readpref.Secondary())
		err := probeFunc(context.Background())
		if !errors.Is(err, sentinel) {
			t.Fatalf("expected wrapped sentinel, got %v", err)
		}
		if stub.lastReadPF.Mode() != readpref.SecondaryMode {
			t.Fatalf("expected secondary read preference, got %v", stub.lastReadPF.Mode())
		}
	})
}

func TestNewCollectionsProbe(t *testing.T) {
	t.Run("nil database", func(t *testing.T) {
		if err := probe.NewCollectionsProbe(nil, "persons")(context.Background()); err == nil {
			t.Fatal("expected error when database is nil")
		}
	})

	t.Run("nothing to check", func(t *testing.T) {
		stub := &stubLister{}
		if err := probe.NewCollectionsProbe(stub, " ", "")(context.Background()); err != nil {
			t.Fatalf("expected nil error, got %v", err)
		}
		if stub.calls != 0 {
			t.Fatal("expected no round trip without collections")
		}
	})

	t.Run("missing collections", func(t *testing.T) {
		stub := &stubLister{names: []string{"persons"}}
		err := probe.NewCollectionsProbe(stub, "pets", "persons", "articles")(context.Background())
		if err == nil || !strings.Contains(err.Error(), "missing articles, pets") {
			t.Fatalf("expected missing collections to be listed, got %v", err)
		}
	})

	t.Run("list failure", func(t *testing.T) {
		sentinel := errors.New("not authorized")
		err := probe.NewCollectionsProbe(&stubLister{err: sentinel}, "persons")(context.Background())
		if !errors.Is(err, sentinel) {
			t.Fatalf("expected wrapped sentinel, got %v", err)
		}
	})
}

func ExampleNewPingProbe() {
	probeFunc := probe.NewPingProbe("noop", func(ctx context.Context) error {
		return nil
	})
	fmt.Println(probeFunc(context.Background()))
	// Output: <nil>
}

func ExampleNewCollectionsProbe() {
	db := &stubLister{names: []string{"persons", "pets"}}

	fmt.Println(probe.NewCollectionsProbe(db, "persons", "pets")(context.Background()))
	fmt.Println(probe.NewCollectionsProbe(db, "articles")(context.Background()))
	// Output:
	// <nil>
	// collections probe: missing articles
}
