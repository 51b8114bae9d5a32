package source

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/hyperjump/gunggeum/internal/models"
)

type fakeSource struct {
	label   models.SourceLabel
	timeout time.Duration
	text    string
	err     error
	delay   time.Duration

	mu    sync.Mutex
	calls []Query
	log   *[]models.SourceLabel
}

func (f *fakeSource) Label() models.SourceLabel { return f.label }
func (f *fakeSource) Timeout() time.Duration    { return f.timeout }

func (f *fakeSource) Attempt(ctx context.Context, q Query) (string, error) {
	f.mu.Lock()
	f.calls = append(f.calls, q)
	if f.log != nil {
		*f.log = append(*f.log, f.label)
	}
	f.mu.Unlock()
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	return f.text, f.err
}

func (f *fakeSource) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func TestChain_FirstSuccessShortCircuits(t *testing.T) {
	var order []models.SourceLabel
	ko := &fakeSource{label: models.KoWiki, text: "이순신은 조선의 장군이다.", log: &order}
	en := &fakeSource{label: models.EnWiki, text: "en", log: &order}
	web := &fakeSource{label: models.WebSearch, text: "web", log: &order}

	res, err := NewChain([]Source{ko, en, web}).Resolve(context.Background(), "이순신", "이순신 장군이 누구야")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if !res.Succeeded || res.Label != models.KoWiki || res.Text != ko.text {
		t.Errorf("result = %+v", res)
	}
	if en.callCount() != 0 || web.callCount() != 0 {
		t.Errorf("lower-priority sources called: en=%d web=%d", en.callCount(), web.callCount())
	}
	if len(order) != 1 {
		t.Errorf("order = %v", order)
	}
}

func TestChain_FallsThroughInOrder(t *testing.T) {
	var order []models.SourceLabel
	ko := &fakeSource{label: models.KoWiki, err: ErrNoContent, log: &order}
	en := &fakeSource{label: models.EnWiki, text: "   ", log: &order}
	web := &fakeSource{label: models.WebSearch, text: "snippet", log: &order}

	var hooked []bool
	c := NewChain([]Source{ko, en, web}, WithAttemptHook(func(_ models.SourceLabel, ok bool, _ time.Duration) {
		hooked = append(hooked, ok)
	}))
	res, err := c.Resolve(context.Background(), " 공룡 ", "공룡은 왜 멸종했어?")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if res.Label != models.WebSearch || res.Text != "snippet" {
		t.Errorf("result = %+v", res)
	}
	want := []models.SourceLabel{models.KoWiki, models.EnWiki, models.WebSearch}
	if len(order) != 3 || order[0] != want[0] || order[1] != want[1] || order[2] != want[2] {
		t.Errorf("order = %v, want %v", order, want)
	}
	if q := web.calls[0]; q.Term != "공룡" || q.Raw != "공룡은 왜 멸종했어?" {
		t.Errorf("query = %+v", q)
	}
	if len(hooked) != 3 || hooked[0] || hooked[1] || !hooked[2] {
		t.Errorf("hook outcomes = %v", hooked)
	}
}

func TestChain_Exhausted(t *testing.T) {
	srcs := []Source{
		&fakeSource{label: models.KoWiki, err: errors.New("boom")},
		&fakeSource{label: models.EnWiki, err: ErrNoContent},
		&fakeSource{label: models.WebSearch, text: ""},
	}
	res, err := NewChain(srcs).Resolve(context.Background(), "asdkjfh", "asdkjfh")
	if !errors.Is(err, ErrExhausted) {
		t.Fatalf("err = %v, want ErrExhausted", err)
	}
	if res.Succeeded {
		t.Error("exhausted result must not be succeeded")
	}
}

func TestChain_StepTimeoutMovesOn(t *testing.T) {
	slow := &fakeSource{label: models.KoWiki, timeout: 30 * time.Millisecond, delay: time.Second, text: "late"}
	next := &fakeSource{label: models.EnWiki, text: "fallback text"}
	start := time.Now()
	res, err := NewChain([]Source{slow, next}).Resolve(context.Background(), "x", "x")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if res.Label != models.EnWiki {
		t.Errorf("label = %v", res.Label)
	}
	if time.Since(start) > 500*time.Millisecond {
		t.Error("timeout not enforced")
	}
}

func TestChain_CancelledContext(t *testing.T) {
	ko := &fakeSource{label: models.KoWiki, text: "x"}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := NewChain([]Source{ko}).Resolve(ctx, "x", "x"); !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v", err)
	}
	if ko.callCount() != 0 {
		t.Error("source called after cancellation")
	}
}
