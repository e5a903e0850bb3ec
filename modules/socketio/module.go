// Package socketio implements services.SystemOperationsService over a
// socket.io connection, so that barrier calls such as tp.system.prompt are
// answered by a remote UI.
//
// # Protocol
//
// Every dialog is emitted as a "dialog" event carrying a Request. The UI
// replies with an "answer" event carrying a Response with the same ID.
package socketio

import (
	"context"
	"crypto/tls"
	"fmt"
	"net/url"
	"sync"
	"sync/atomic"
	"time"

	"github.com/zishang520/engine.io-client-go/transports"
	"github.com/zishang520/engine.io/v2/types"
	"github.com/zishang520/socket.io-client-go/socket"

	"github.com/vk/burstmd/internal/ctxlog"
	"github.com/vk/burstmd/internal/services"
)

const (
	DialogEvent = "dialog"
	AnswerEvent = "answer"
)

// Options configure the connection.
type Options struct {
	URL                string
	Namespace          string
	InsecureSkipVerify bool
	// ConnectTimeout bounds the initial connection.
	ConnectTimeout time.Duration
	// AnswerTimeout bounds the wait for one answer; zero waits until the
	// render is cancelled.
	AnswerTimeout time.Duration
}

// Request is the payload of a dialog event.
type Request struct {
	ID          int64    `json:"id"`
	Kind        string   `json:"kind"`
	Message     string   `json:"message,omitempty"`
	Default     string   `json:"default,omitempty"`
	Multiline   bool     `json:"multiline,omitempty"`
	Labels      []string `json:"labels,omitempty"`
	Placeholder string   `json:"placeholder,omitempty"`
}

// Response is the payload of an answer event.
type Response struct {
	ID        int64
	Dismissed bool
	Text      string
	Indexes   []int
}

// Remote forwards dialogs to the connected UI.
type Remote struct {
	emit          func(event string, payload any)
	disconnect    func()
	answerTimeout time.Duration

	nextID  atomic.Int64
	mu      sync.Mutex
	pending map[int64]chan Response
}

var _ services.SystemOperationsService = (*Remote)(nil)

func newRemote(emit func(string, any), disconnect func(), answerTimeout time.Duration) *Remote {
	return &Remote{
		emit:          emit,
		disconnect:    disconnect,
		answerTimeout: answerTimeout,
		pending:       make(map[int64]chan Response),
	}
}

// Dial connects to the socket.io server at opts.URL and waits for the
// connection to be established.
func Dial(ctx context.Context, opts Options) (*Remote, error) {
	logger := ctxlog.FromContext(ctx).With("url", opts.URL)
	logger.Info("Connecting to prompt server...")

	parsedURL, err := url.Parse(opts.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse URL: %w", err)
	}

	sopts := socket.DefaultOptions()
	sopts.SetPath(parsedURL.Path)
	if opts.InsecureSkipVerify {
		logger.Warn("Skipping TLS certificate verification")
		sopts.SetTLSClientConfig(&tls.Config{InsecureSkipVerify: true})
	}
	sopts.SetTransports(types.NewSet(transports.WebSocket))

	baseURL := fmt.Sprintf("%s://%s", parsedURL.Scheme, parsedURL.Host)
	manager := socket.NewManager(baseURL, sopts)
	io := manager.Socket(opts.Namespace, sopts)

	r := newRemote(
		func(event string, payload any) { io.Emit(event, payload) },
		func() { io.Disconnect() },
		opts.AnswerTimeout,
	)
	io.On(types.EventName(AnswerEvent), func(data ...any) {
		if len(data) == 0 {
			logger.Warn("Ignoring empty answer event.")
			return
		}
		res, err := decodeResponse(data[0])
		if err != nil {
			logger.Warn("Ignoring malformed answer event.", "error", err)
			return
		}
		r.deliver(res)
	})

	connectChan := make(chan error, 1)
	io.Once(types.EventName("connect"), func(...any) {
		logger.Info("Successfully connected", "sid", io.Id())
		connectChan <- nil
	})
	io.Once(types.EventName("connect_error"), func(errs ...any) {
		err, _ := errs[0].(error)
		if err == nil {
			err = fmt.Errorf("%v", errs[0])
		}
		connectChan <- err
	})
	io.Connect()

	timeout := opts.ConnectTimeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	select {
	case err := <-connectChan:
		if err != nil {
			io.Disconnect()
			return nil, fmt.Errorf("socket.io connection failed: %w", err)
		}
		return r, nil
	case <-ctx.Done():
		io.Disconnect()
		return nil, fmt.Errorf("context cancelled while waiting for socket.io connection")
	case <-time.After(timeout):
		io.Disconnect()
		return nil, fmt.Errorf("timed out after %v waiting for socket.io connection", timeout)
	}
}

// Close disconnects from the server.
func (r *Remote) Close() error {
	r.disconnect()
	return nil
}

func (r *Remote) deliver(res Response) {
	r.mu.Lock()
	ch, ok := r.pending[res.ID]
	delete(r.pending, res.ID)
	r.mu.Unlock()
	if ok {
		ch <- res
	}
}

// ask emits req and waits for its answer.
func (r *Remote) ask(ctx context.Context, req Request) (Response, error) {
	req.ID = r.nextID.Add(1)
	ch := make(chan Response, 1)
	r.mu.Lock()
	r.pending[req.ID] = ch
	r.mu.Unlock()
	defer func() {
		r.mu.Lock()
		delete(r.pending, req.ID)
		r.mu.Unlock()
	}()

	waitCtx := ctx
	if r.answerTimeout > 0 {
		var cancel context.CancelFunc
		waitCtx, cancel = context.WithTimeout(ctx, r.answerTimeout)
		defer cancel()
	}

	ctxlog.FromContext(ctx).Debug("Emitting dialog.", "id", req.ID, "kind", req.Kind)
	r.emit(DialogEvent, req)

	select {
	case res := <-ch:
		return res, nil
	case <-waitCtx.Done():
		if ctx.Err() != nil {
			return Response{}, ctx.Err()
		}
		return Response{}, fmt.Errorf("timed out after %v waiting for answer to %s", r.answerTimeout, req.Kind)
	}
}

// Prompt implements services.SystemOperationsService.
func (r *Remote) Prompt(ctx context.Context, req services.PromptRequest) (string, bool, error) {
	res, err := r.ask(ctx, Request{Kind: "prompt", Message: req.Message, Default: req.Default, Multiline: req.Multiline})
	if err != nil || res.Dismissed {
		return "", false, err
	}
	return res.Text, true, nil
}

// Suggester implements services.SystemOperationsService.
func (r *Remote) Suggester(ctx context.Context, labels []string, placeholder string) (int, bool, error) {
	res, err := r.ask(ctx, Request{Kind: "suggester", Labels: labels, Placeholder: placeholder})
	if err != nil || res.Dismissed || len(res.Indexes) == 0 {
		return 0, false, err
	}
	if i := res.Indexes[0]; i >= 0 && i < len(labels) {
		return i, true, nil
	}
	return 0, false, fmt.Errorf("answer index %d out of range", res.Indexes[0])
}

// MultiSuggester implements services.SystemOperationsService.
func (r *Remote) MultiSuggester(ctx context.Context, labels []string, placeholder string) ([]int, bool, error) {
	res, err := r.ask(ctx, Request{Kind: "multi_suggester", Labels: labels, Placeholder: placeholder})
	if err != nil || res.Dismissed {
		return nil, false, err
	}
	for _, i := range res.Indexes {
		if i < 0 || i >= len(labels) {
			return nil, false, fmt.Errorf("answer index %d out of range", i)
		}
	}
	return res.Indexes, true, nil
}

// decodeResponse reads an answer payload as decoded from JSON:
// {"id": 1, "dismissed": false, "value": "text" | 2 | [0, 2]}.
func decodeResponse(data any) (Response, error) {
	m, ok := data.(map[string]any)
	if !ok {
		return Response{}, fmt.Errorf("unexpected answer payload %T", data)
	}
	id, ok := m["id"].(float64)
	if !ok {
		return Response{}, fmt.Errorf("answer without numeric id")
	}
	res := Response{ID: int64(id)}
	res.Dismissed, _ = m["dismissed"].(bool)
	switch v := m["value"].(type) {
	case string:
		res.Text = v
	case float64:
		res.Indexes = []int{int(v)}
	case []any:
		for _, x := range v {
			f, ok := x.(float64)
			if !ok {
				return Response{}, fmt.Errorf("answer index %v is not a number", x)
			}
			res.Indexes = append(res.Indexes, int(f))
		}
	case nil:
	default:
		return Response{}, fmt.Errorf("unexpected answer value %T", v)
	}
	return res, nil
}
