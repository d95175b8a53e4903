package agent

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"sync"
	"testing"

	agerrors "github.com/HexSleeves/parasol/internal/errors"
	"github.com/HexSleeves/parasol/internal/llm"
	"github.com/HexSleeves/parasol/internal/tool"
	"github.com/HexSleeves/parasol/internal/weather"
)

// mockClient implements llm.Client with scripted behavior.
type mockClient struct {
	mu   sync.Mutex
	name string

	// Scripted behavior
	decision    *llm.Decision
	decideErr   error // every Decide call fails with this when set
	finalText   string
	finalizeErr error

	// Optional synchronization for in-flight turn tests. When decideBlock
	// is set, Decide signals decideStarted and waits for decideBlock to
	// close before answering.
	decideBlock   chan struct{}
	decideStarted chan struct{}

	// Call tracking
	decideCalls   int
	finalizeCalls int
	lastTools     []llm.ToolDef
	finalHistory  []llm.Message
}

func newMockClient(name string) *mockClient {
	return &mockClient{
		name:      name,
		finalText: "好的。",
	}
}

func (m *mockClient) Name() string { return m.name }

func (m *mockClient) Decide(ctx context.Context, history []llm.Message, tools []llm.ToolDef) (*llm.Decision, error) {
	if m.decideBlock != nil {
		select {
		case m.decideStarted <- struct{}{}:
		default:
		}
		<-m.decideBlock
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.decideCalls++
	m.lastTools = append([]llm.ToolDef(nil), tools...)

	if m.decideErr != nil {
		return nil, m.decideErr
	}
	if m.decision != nil {
		return m.decision, nil
	}
	return &llm.Decision{Kind: llm.DecideDirect, Text: "好的。", Model: m.name}, nil
}

func (m *mockClient) Finalize(ctx context.Context, history []llm.Message) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.finalizeCalls++
	m.finalHistory = append([]llm.Message(nil), history...)

	if m.finalizeErr != nil {
		return "", m.finalizeErr
	}
	return m.finalText, nil
}

func (m *mockClient) counts() (decides, finalizes int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.decideCalls, m.finalizeCalls
}

func directDecision(text string) *llm.Decision {
	return &llm.Decision{Kind: llm.DecideDirect, Text: text}
}

func toolDecision(id, name, args string) *llm.Decision {
	return &llm.Decision{
		Kind: llm.DecideCallTool,
		Call: &llm.ToolCall{ID: id, Name: name, Arguments: json.RawMessage(args)},
	}
}

// unavailableErr builds a non-retryable unavailability so tests skip the
// backoff sleeps.
func unavailableErr(provider string) error {
	return agerrors.NewBackendUnavailable(provider, errors.New("API error 401: invalid api key"))
}

// recordingService wraps another weather service and records lookups.
type recordingService struct {
	mu     sync.Mutex
	inner  weather.Service
	err    error
	cities []string
}

func (s *recordingService) Lookup(ctx context.Context, city string) (*weather.Report, error) {
	s.mu.Lock()
	s.cities = append(s.cities, city)
	err := s.err
	s.mu.Unlock()

	if err != nil {
		return nil, err
	}
	return s.inner.Lookup(ctx, city)
}

func (s *recordingService) lookups() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.cities...)
}

// harness bundles an agent with its scripted backends and recorded
// weather lookups.
type harness struct {
	agent     *Agent
	primary   *mockClient
	secondary *mockClient
	weather   *recordingService
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	primary := newMockClient("deepseek")
	secondary := newMockClient("qwen")
	svc := &recordingService{inner: weather.NewStaticService()}

	registry := tool.NewRegistry()
	if err := tool.RegisterWeather(registry, svc); err != nil {
		t.Fatalf("RegisterWeather failed: %v", err)
	}

	selector := NewSelector(primary, secondary)
	return &harness{
		agent:     New(selector, registry, 0, log.New(io.Discard, "", 0)),
		primary:   primary,
		secondary: secondary,
		weather:   svc,
	}
}
