package graph

import (
	"context"
	"sync"
)

// MemoryClient implements Client in memory for tests. Results are queued with
// PushReadResult/PushWriteResult and handed out in FIFO order; every executed
// statement is recorded so assertions can inspect the Cypher and parameters.
type MemoryClient struct {
	mu           sync.Mutex
	reads        []RecordedQuery
	writes       []RecordedQuery
	readResults  []Result
	writeResults []Result
	err          error
}

// RecordedQuery is a Cypher statement captured by the fake together with its
// parameters.
type RecordedQuery struct {
	Query  string
	Params map[string]any
}

func NewMemoryClient() *MemoryClient {
	return &MemoryClient{}
}

// WithError makes every subsequent Execute call fail with err.
func (m *MemoryClient) WithError(err error) *MemoryClient {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
	return m
}

// PushReadResult queues a result for a future ExecuteRead call.
func (m *MemoryClient) PushReadResult(res Result) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.readResults = append(m.readResults, res)
}

// PushWriteResult queues a result for a future ExecuteWrite call.
func (m *MemoryClient) PushWriteResult(res Result) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.writeResults = append(m.writeResults, res)
}

func (m *MemoryClient) ExecuteWrite(_ context.Context, cypher string, params map[string]any) (Result, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.err != nil {
		return Result{}, m.err
	}
	m.writes = append(m.writes, RecordedQuery{Query: cypher, Params: cloneParams(params)})

	if len(m.writeResults) == 0 {
		return Result{}, nil
	}
	res := m.writeResults[0]
	m.writeResults = m.writeResults[1:]
	return res, nil
}

func (m *MemoryClient) ExecuteRead(_ context.Context, cypher string, params map[string]any) (Result, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.err != nil {
		return Result{}, m.err
	}
	m.reads = append(m.reads, RecordedQuery{Query: cypher, Params: cloneParams(params)})

	if len(m.readResults) == 0 {
		return Result{}, nil
	}
	res := m.readResults[0]
	m.readResults = m.readResults[1:]
	return res, nil
}

func (m *MemoryClient) VerifyConnectivity(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.err
}

func (m *MemoryClient) Close(context.Context) error {
	return nil
}

// ReadCalls returns a copy of the executed read statements.
func (m *MemoryClient) ReadCalls() []RecordedQuery {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]RecordedQuery(nil), m.reads...)
}

// WriteCalls returns a copy of the executed write statements.
func (m *MemoryClient) WriteCalls() []RecordedQuery {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]RecordedQuery(nil), m.writes...)
}

func cloneParams(src map[string]any) map[string]any {
	if src == nil {
		return nil
	}
	dst := make(map[string]any, len(src))
	for k, v := range src {
		dst[k] = v
	}
	return dst
}
