package llm

import (
	"context"
	"sync"
)

// stubClient records requests and answers with a fixed response.
type stubClient struct {
	err      error
	response Response
	requests []Request
	mu       sync.Mutex
	closed   bool
}

func (s *stubClient) Generate(_ context.Context, req Request) (Response, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests = append(s.requests, req)
	return s.response, s.err
}

func (s *stubClient) Stream(ctx context.Context, req Request, onChunk func(string) error) (Response, error) {
	resp, err := s.Generate(ctx, req)
	if err == nil && onChunk != nil {
		if cbErr := onChunk(resp.Text); cbErr != nil {
			return Response{}, cbErr
		}
	}
	return resp, err
}

func (s *stubClient) Close() error {
	s.closed = true
	return nil
}

func (s *stubClient) calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.requests)
}
