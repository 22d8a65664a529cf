package zlog

import (
	"context"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
)

func TestGetFallsBackToDefault(t *testing.T) {
	l := Get(context.Background())
	if l == nil {
		t.Fatal("expected a non-nil default logger")
	}
}

func TestWithLoggerRoundTrips(t *testing.T) {
	base := logrus.New()
	entry := logrus.NewEntry(base).WithField("component", "test")
	ctx := WithLogger(context.Background(), entry)

	l := Get(ctx)
	if l == nil {
		t.Fatal("expected logger installed via WithLogger to be retrievable")
	}
}

func TestGetAddsRequestedContextFields(t *testing.T) {
	type ctxKey string
	key := ctxKey("request-id")
	ctx := context.WithValue(context.Background(), key, "abc123")

	l := Get(ctx, key)
	entry, ok := l.(*logrus.Entry)
	if !ok {
		t.Fatalf("expected *logrus.Entry, got %T", l)
	}
	if entry.Data["request-id"] != "abc123" {
		t.Errorf("Data[request-id] = %v, want abc123", entry.Data["request-id"])
	}
}

func TestDetachedContextSurvivesParentCancel(t *testing.T) {
	parent, cancel := context.WithCancel(context.Background())
	detached := DetachedContext(parent)
	cancel()

	select {
	case <-detached.Done():
		t.Error("detached context should not be canceled when parent is canceled")
	case <-time.After(10 * time.Millisecond):
	}
}

func TestDetachedContextPreservesValues(t *testing.T) {
	type ctxKey string
	key := ctxKey("k")
	parent := context.WithValue(context.Background(), key, "v")
	detached := DetachedContext(parent)
	if detached.Value(key) != "v" {
		t.Errorf("Value(k) = %v, want v", detached.Value(key))
	}
}
