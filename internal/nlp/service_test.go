package nlp

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"testing"

	"go.uber.org/zap"

	"github.com/ahlabot/ahlabot/internal/metrics"
)

type translatorStub struct {
	calls atomic.Int32
	out   string
	err   error
}

func (s *translatorStub) Translate(ctx context.Context, text, sourceHint string) (string, error) {
	s.calls.Add(1)
	return s.out, s.err
}

type explainerStub struct {
	calls atomic.Int32
	out   string
	err   error
}

func (s *explainerStub) Explain(ctx context.Context, text string) (string, error) {
	s.calls.Add(1)
	return s.out, s.err
}

type transcriberStub struct {
	out string
	err error
}

func (s *transcriberStub) Transcribe(ctx context.Context, audio []byte, langHint string) (string, error) {
	return s.out, s.err
}

func newService(tr Translator, ts Transcriber, ex Explainer) *Service {
	return New(ServiceParam{
		Log:         zap.NewNop(),
		Metrics:     metrics.New(),
		Translator:  tr,
		Transcriber: ts,
		Explainer:   ex,
	})
}

func TestSourceHint(t *testing.T) {
	if got := SourceHint("מה נשמע?"); got != "he" {
		t.Fatalf("hebrew text: got %q", got)
	}
	if got := SourceHint("ma nishma"); got != "auto" {
		t.Fatalf("latin text: got %q", got)
	}
	if got := SourceHint("привет שלום"); got != "he" {
		t.Fatalf("mixed text: got %q", got)
	}
}

func TestTranslateSuccess(t *testing.T) {
	tr := &translatorStub{out: "привет"}
	svc := newService(tr, &transcriberStub{}, &explainerStub{})

	out, err := svc.Translate(context.Background(), "שלום")
	if err != nil {
		t.Fatalf("translate: %v", err)
	}
	if out != "привет" {
		t.Fatalf("got %q", out)
	}
	if tr.calls.Load() != 1 {
		t.Fatalf("expected 1 call, got %d", tr.calls.Load())
	}
}

func TestTranslateRetriesTransient(t *testing.T) {
	tr := &translatorStub{err: errors.New("timeout")}
	svc := newService(tr, &transcriberStub{}, &explainerStub{})

	if _, err := svc.Translate(context.Background(), "שלום"); err == nil {
		t.Fatal("expected error after exhausted retries")
	}
	if got := tr.calls.Load(); got != 3 {
		t.Fatalf("transient failure should be retried 3 times, got %d", got)
	}
}

func TestTranslatePermanentNotRetried(t *testing.T) {
	tr := &translatorStub{err: fmt.Errorf("%w: bad key", ErrPermanent)}
	svc := newService(tr, &transcriberStub{}, &explainerStub{})

	if _, err := svc.Translate(context.Background(), "שלום"); err == nil {
		t.Fatal("expected error")
	}
	if got := tr.calls.Load(); got != 1 {
		t.Fatalf("permanent failure must not be retried, got %d calls", got)
	}
}

func TestExplainOnline(t *testing.T) {
	ex := &explainerStub{out: "корень ש-ל-מ, биньян..."}
	svc := newService(&translatorStub{}, &transcriberStub{}, ex)

	got, err := svc.Explain(context.Background(), "שלום", "привет")
	if err != nil {
		t.Fatalf("explain: %v", err)
	}
	if got.Offline {
		t.Fatal("online result must not be flagged offline")
	}
	if got.Text != ex.out {
		t.Fatalf("got %q", got.Text)
	}
}

func TestExplainFallsBackOffline(t *testing.T) {
	ex := &explainerStub{err: errors.New("503")}
	svc := newService(&translatorStub{}, &transcriberStub{}, ex)

	got, err := svc.Explain(context.Background(), "יאללה נלך", "давай пойдём")
	if err != nil {
		t.Fatalf("transient explainer failure should degrade, got %v", err)
	}
	if !got.Offline {
		t.Fatal("fallback result must be flagged offline")
	}
	if !strings.Contains(got.Text, "давай пойдём") {
		t.Fatalf("offline explanation should carry the translation: %q", got.Text)
	}
	if !strings.Contains(got.Text, "יאללה") {
		t.Fatalf("offline explanation should flag the idiom: %q", got.Text)
	}
}

func TestExplainPermanentSurfaces(t *testing.T) {
	ex := &explainerStub{err: fmt.Errorf("%w: key revoked", ErrPermanent)}
	svc := newService(&translatorStub{}, &transcriberStub{}, ex)

	if _, err := svc.Explain(context.Background(), "שלום", "привет"); !errors.Is(err, ErrPermanent) {
		t.Fatalf("permanent failure must surface, got %v", err)
	}
	if got := ex.calls.Load(); got != 1 {
		t.Fatalf("permanent failure must not be retried, got %d calls", got)
	}
}

func TestOfflineExplainNoIdioms(t *testing.T) {
	out := OfflineExplain("מה השעה", "который час")
	if !strings.Contains(out, "который час") {
		t.Fatalf("translation missing: %q", out)
	}
	if !strings.Contains(out, "не найдено") {
		t.Fatalf("expected no-idiom note: %q", out)
	}
}

func TestOfflineExplainGereshInsensitive(t *testing.T) {
	// תכל׳ס is written with and without the geresh; both must match.
	out := OfflineExplain("תכלס אתה צודק", "по сути ты прав")
	if !strings.Contains(out, "по сути") && !strings.Contains(out, "תכלס") {
		t.Fatalf("idiom lookup should survive geresh variants: %q", out)
	}
}
