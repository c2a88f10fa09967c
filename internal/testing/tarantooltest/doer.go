// Package tarantooltest provides an in-memory tarantool.Doer that replays canned
// responses, for testing code that talks to Tarantool without a server.
package tarantooltest

import (
	"bytes"
	"context"
	"io"
	"sync"
	"testing"

	"github.com/tarantool/go-iproto"
	"github.com/tarantool/go-tarantool/v2"
	"github.com/vmihailenco/msgpack/v5"
)

// MockResponse is a canned response body, stored msgpack-encoded.
type MockResponse struct {
	header tarantool.Header
	data   []byte
}

var _ tarantool.Response = (*MockResponse)(nil)

// NewMockResponse encodes body as the data of a successful response.
func NewMockResponse(t testing.TB, body any) *MockResponse {
	t.Helper()

	data, err := msgpack.Marshal(body)
	if err != nil {
		t.Fatalf("failed to encode mock response: %s", err)
	}

	return &MockResponse{header: tarantool.Header{}, data: data} //nolint:exhaustruct
}

func readMockResponse(header tarantool.Header, body io.Reader) (*MockResponse, error) {
	if body == nil {
		return &MockResponse{header: header, data: nil}, nil
	}

	data, err := io.ReadAll(body)
	if err != nil {
		return nil, err //nolint:wrapcheck
	}

	return &MockResponse{header: header, data: data}, nil
}

// Header returns the response header.
func (r *MockResponse) Header() tarantool.Header {
	return r.header
}

// Decode decodes the response data into a slice.
func (r *MockResponse) Decode() ([]any, error) {
	if r.data == nil {
		return nil, nil
	}

	return msgpack.NewDecoder(bytes.NewReader(r.data)).DecodeSlice() //nolint:wrapcheck
}

// DecodeTyped decodes the response data into res.
func (r *MockResponse) DecodeTyped(res any) error {
	if r.data == nil {
		return nil
	}

	return msgpack.NewDecoder(bytes.NewReader(r.data)).Decode(res) //nolint:wrapcheck
}

// mockRequest turns the raw body set on a future back into a MockResponse.
type mockRequest struct{}

var _ tarantool.Request = mockRequest{}

func (mockRequest) Type() iproto.Type { return iproto.IPROTO_CALL }

func (mockRequest) Body(tarantool.SchemaResolver, *msgpack.Encoder) error { return nil }

func (mockRequest) Ctx() context.Context { return context.Background() }

func (mockRequest) Async() bool { return false }

func (mockRequest) Response(header tarantool.Header, body io.Reader) (tarantool.Response, error) {
	return readMockResponse(header, body)
}

type doerResponse struct {
	resp *MockResponse
	err  error
}

// MockDoer answers requests with the responses it was created with, in order.
// It records every request it receives.
type MockDoer struct {
	mu        sync.Mutex
	t         testing.TB
	requests  []tarantool.Request
	responses []doerResponse
}

var _ tarantool.Doer = (*MockDoer)(nil)

// NewMockDoer creates a MockDoer. Each response is either a *MockResponse or an
// error the corresponding future fails with.
func NewMockDoer(t testing.TB, responses ...any) *MockDoer {
	t.Helper()

	doer := &MockDoer{t: t} //nolint:exhaustruct

	for _, response := range responses {
		switch resp := response.(type) {
		case *MockResponse:
			doer.responses = append(doer.responses, doerResponse{resp: resp, err: nil})
		case error:
			doer.responses = append(doer.responses, doerResponse{resp: nil, err: resp})
		default:
			t.Fatalf("unsupported mock response type: %T", response)
		}
	}

	return doer
}

// Do returns a future resolved with the next canned response.
func (d *MockDoer) Do(req tarantool.Request) *tarantool.Future {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.requests = append(d.requests, req)

	fut := tarantool.NewFuture(mockRequest{})

	if len(d.responses) == 0 {
		fut.SetError(io.ErrUnexpectedEOF)
		d.t.Errorf("unexpected request: no mock responses left")

		return fut
	}

	next := d.responses[0]
	d.responses = d.responses[1:]

	if next.err != nil {
		fut.SetError(next.err)
	} else {
		_ = fut.SetResponse(next.resp.header, bytes.NewReader(next.resp.data))
	}

	return fut
}

// Requests returns the requests received so far.
func (d *MockDoer) Requests() []tarantool.Request {
	d.mu.Lock()
	defer d.mu.Unlock()

	return append([]tarantool.Request(nil), d.requests...)
}

// Remaining returns the number of canned responses not consumed yet.
func (d *MockDoer) Remaining() int {
	d.mu.Lock()
	defer d.mu.Unlock()

	return len(d.responses)
}
