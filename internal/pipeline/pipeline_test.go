package pipeline

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"testing"

	"github.com/nao1215/compliancescribe/internal/log"
	"github.com/nao1215/compliancescribe/internal/model"
)

// mockStep is a test helper that implements the Step interface.
type mockStep struct {
	name      string
	doFunc    func(ctx context.Context, result *model.ScanResult) error
	callCount int
}

// Do implements Step.Do.
func (m *mockStep) Do(ctx context.Context, result *model.ScanResult) error {
	m.callCount++
	if m.doFunc != nil {
		return m.doFunc(ctx, result)
	}
	return nil
}

// Name implements Step.Name.
func (m *mockStep) Name() string {
	return m.name
}

func quietPipeline(opts ...Option) *Pipeline {
	return New(append([]Option{WithLogger(log.Discard())}, opts...)...)
}

// TestPipelineNew tests the Pipeline constructor.
func TestPipelineNew(t *testing.T) {
	t.Parallel()

	t.Run("creates pipeline with default settings", func(t *testing.T) {
		t.Parallel()

		p := New()
		if p.StepCount() != 0 {
			t.Errorf("expected 0 steps, got %d", p.StepCount())
		}
		if p.logger == nil {
			t.Error("expected default logger")
		}
	})

	t.Run("applies WithContinueOnError option", func(t *testing.T) {
		t.Parallel()

		if p := New(WithContinueOnError(true)); !p.continueOnError {
			t.Error("expected continueOnError to be true")
		}
	})
}

// TestPipelineAddStep tests adding steps to the pipeline.
func TestPipelineAddStep(t *testing.T) {
	t.Parallel()

	p := New()
	p.AddStep(&mockStep{name: "a"})
	p.AddSteps(&mockStep{name: "b"}, &mockStep{name: "c"})

	if p.StepCount() != 3 {
		t.Errorf("expected 3 steps, got %d", p.StepCount())
	}
	if got := p.StepNames(); !slices.Equal(got, []string{"a", "b", "c"}) {
		t.Errorf("unexpected step names %v", got)
	}
}

// TestPipelineExecute tests pipeline execution.
func TestPipelineExecute(t *testing.T) {
	t.Parallel()

	t.Run("executes steps in order and records them", func(t *testing.T) {
		t.Parallel()

		var order []string
		record := func(name string) *mockStep {
			return &mockStep{name: name, doFunc: func(context.Context, *model.ScanResult) error {
				order = append(order, name)
				return nil
			}}
		}

		p := quietPipeline()
		p.AddSteps(record("first"), record("second"), record("third"))

		result := model.NewScanResult("call.mp3")
		if err := p.Execute(t.Context(), result); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		want := []string{"first", "second", "third"}
		if !slices.Equal(order, want) {
			t.Errorf("expected order %v, got %v", want, order)
		}
		if !slices.Equal(result.PerformedSteps, want) {
			t.Errorf("expected performed steps %v, got %v", want, result.PerformedSteps)
		}
	})

	t.Run("stops on first error", func(t *testing.T) {
		t.Parallel()

		failing := &mockStep{name: "failing", doFunc: func(context.Context, *model.ScanResult) error {
			return errors.New("upload failed")
		}}
		after := &mockStep{name: "after"}

		p := quietPipeline()
		p.AddSteps(failing, after)

		result := model.NewScanResult("call.mp3")
		err := p.Execute(t.Context(), result)
		if err == nil || err.Error() != "upload failed" {
			t.Fatalf("expected step error, got %v", err)
		}
		if after.callCount != 0 {
			t.Error("expected later step to be skipped")
		}
		if result.ErrorMessage != "upload failed" {
			t.Errorf("expected error on result, got %q", result.ErrorMessage)
		}
		if len(result.PerformedSteps) != 0 {
			t.Errorf("expected no performed steps, got %v", result.PerformedSteps)
		}
	})

	t.Run("continues on error when configured", func(t *testing.T) {
		t.Parallel()

		failing := &mockStep{name: "failing", doFunc: func(context.Context, *model.ScanResult) error {
			return errors.New("boom")
		}}
		after := &mockStep{name: "after"}

		p := quietPipeline(WithContinueOnError(true))
		p.AddSteps(failing, after)

		result := model.NewScanResult("call.mp3")
		if err := p.Execute(t.Context(), result); err == nil {
			t.Error("expected first error to be returned")
		}
		if after.callCount != 1 {
			t.Error("expected later step to run")
		}
		if !slices.Equal(result.PerformedSteps, []string{"after"}) {
			t.Errorf("unexpected performed steps %v", result.PerformedSteps)
		}
	})

	t.Run("cancelled context marks result timed out", func(t *testing.T) {
		t.Parallel()

		step := &mockStep{name: "never"}
		p := quietPipeline()
		p.AddStep(step)

		ctx, cancel := context.WithCancel(t.Context())
		cancel()

		result := model.NewScanResult("call.mp3")
		err := p.Execute(ctx, result)
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("expected context.Canceled, got %v", err)
		}
		if !result.TimedOut {
			t.Error("expected TimedOut to be set")
		}
		if step.callCount != 0 {
			t.Error("expected step not to run")
		}
	})

	t.Run("deadline error inside a step marks result timed out", func(t *testing.T) {
		t.Parallel()

		slow := &mockStep{name: "slow", doFunc: func(context.Context, *model.ScanResult) error {
			return fmt.Errorf("upload: %w", context.DeadlineExceeded)
		}}
		p := quietPipeline()
		p.AddStep(slow)

		result := model.NewScanResult("call.mp3")
		_ = p.Execute(t.Context(), result) //nolint:errcheck // checked via result
		if !result.TimedOut {
			t.Error("expected TimedOut to be set")
		}
	})
}
