package workforce

import (
	"context"
	"fmt"
	"sync"

	"github.com/haasonsaas/workforce/internal/agent"
)

// scriptedProvider replays a fixed sequence of responses, one per Complete
// call, and records each request for assertions. Roles sharing one provider
// consume the script in call order because a run is single-threaded.
type scriptedProvider struct {
	mu        sync.Mutex
	responses []string
	requests  []*agent.CompletionRequest
}

func newScriptedProvider(responses ...string) *scriptedProvider {
	return &scriptedProvider{responses: responses}
}

func (p *scriptedProvider) Complete(ctx context.Context, req *agent.CompletionRequest) (<-chan *agent.CompletionChunk, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if len(p.requests) >= len(p.responses) {
		return nil, fmt.Errorf("scripted provider exhausted after %d calls", len(p.responses))
	}
	response := p.responses[len(p.requests)]
	p.requests = append(p.requests, req)

	ch := make(chan *agent.CompletionChunk, 2)
	ch <- &agent.CompletionChunk{Text: response}
	ch <- &agent.CompletionChunk{Done: true}
	close(ch)
	return ch, nil
}

func (p *scriptedProvider) Name() string { return "scripted" }

func (p *scriptedProvider) SupportsTools() bool { return true }

// calls returns how many completions have been served.
func (p *scriptedProvider) calls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.requests)
}

// request returns the i-th recorded request.
func (p *scriptedProvider) request(i int) *agent.CompletionRequest {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.requests[i]
}

func newScriptedGateway(provider *scriptedProvider, role string) *agent.Gateway {
	return agent.NewGateway(provider, agent.GatewayConfig{Model: "test-model", Role: role})
}
