package services

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"energyshare/internal/apiclient"
)

type fakeCall struct {
	Method string
	Path   string
	Token  string
	Body   any
}

type fakeHandler func(body any) (*apiclient.Response, error)

// fakeBackend answers by "METHOD path" and records every call.
type fakeBackend struct {
	mu     sync.Mutex
	routes map[string]fakeHandler
	calls  []fakeCall
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{routes: map[string]fakeHandler{}}
}

func (f *fakeBackend) on(method, path string, h fakeHandler) *fakeBackend {
	f.routes[method+" "+path] = h
	return f
}

func (f *fakeBackend) onJSON(method, path string, status int, payload any) *fakeBackend {
	return f.on(method, path, func(any) (*apiclient.Response, error) {
		return jsonResponse(status, payload), nil
	})
}

func jsonResponse(status int, payload any) *apiclient.Response {
	raw, err := json.Marshal(payload)
	if err != nil {
		panic(err)
	}
	if status/100 == 2 {
		return &apiclient.Response{Status: status, Data: raw}
	}
	ae := &apiclient.APIError{Status: status, Raw: raw, Fields: map[string][]string{}}
	if m, ok := payload.(map[string]any); ok {
		for k, v := range m {
			switch k {
			case "message":
				ae.Msg, _ = v.(string)
			case "detail":
				ae.Detail, _ = v.(string)
			case "error":
				ae.Msg, _ = v.(string)
			default:
				switch vv := v.(type) {
				case string:
					ae.Fields[k] = []string{vv}
				case []string:
					ae.Fields[k] = vv
				}
			}
		}
	}
	return &apiclient.Response{Status: status, Err: ae}
}

func (f *fakeBackend) do(ctx context.Context, method, path string, body any) (*apiclient.Response, error) {
	f.mu.Lock()
	f.calls = append(f.calls, fakeCall{Method: method, Path: path, Token: apiclient.TokenFrom(ctx), Body: body})
	h, ok := f.routes[method+" "+path]
	f.mu.Unlock()
	if !ok {
		return jsonResponse(404, map[string]any{"detail": fmt.Sprintf("no route %s %s", method, path)}), nil
	}
	return h(body)
}

func (f *fakeBackend) Get(ctx context.Context, path string) (*apiclient.Response, error) {
	return f.do(ctx, "GET", path, nil)
}

func (f *fakeBackend) Post(ctx context.Context, path string, body any) (*apiclient.Response, error) {
	return f.do(ctx, "POST", path, body)
}

func (f *fakeBackend) Patch(ctx context.Context, path string, body any) (*apiclient.Response, error) {
	return f.do(ctx, "PATCH", path, body)
}

func (f *fakeBackend) count(method, path string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		if c.Method == method && c.Path == path {
			n++
		}
	}
	return n
}

func (f *fakeBackend) total() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}
