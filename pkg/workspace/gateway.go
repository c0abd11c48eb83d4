package workspace

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/teamflow/core/pkg/store"
)

// Gateway is the HTTP client behind every repository in this package. It
// owns the session token and translates transport failures into the shared
// error taxonomy, so stores never see raw status codes.
type Gateway struct {
	baseURL string
	client  *http.Client

	mu    sync.RWMutex
	token string
}

// Session is the authenticated session returned by sign-up and sign-in.
type Session struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	TokenType    string    `json:"token_type"`
	ExpiresIn    int64     `json:"expires_in"`
	UserID       uuid.UUID `json:"-"`
	User         struct {
		ID          uuid.UUID `json:"id"`
		Email       string    `json:"email"`
		DisplayName string    `json:"display_name"`
	} `json:"user"`
}

// NewGateway creates a gateway against the given API base URL, for example
// "https://api.example.com/api/v1".
func NewGateway(baseURL string) *Gateway {
	return &Gateway{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: 30 * time.Second},
	}
}

// SignUp registers a new account and adopts its session token.
func (g *Gateway) SignUp(ctx context.Context, email, password, displayName string) (*Session, error) {
	body := map[string]string{"email": email, "password": password, "display_name": displayName}
	var session Session
	if err := g.do(ctx, http.MethodPost, "/auth/signup", body, &session); err != nil {
		return nil, err
	}
	g.setToken(session.AccessToken)
	session.UserID = session.User.ID
	return &session, nil
}

// SignIn authenticates and adopts the session token.
func (g *Gateway) SignIn(ctx context.Context, email, password string) (*Session, error) {
	body := map[string]string{"email": email, "password": password}
	var session Session
	if err := g.do(ctx, http.MethodPost, "/auth/signin", body, &session); err != nil {
		return nil, err
	}
	g.setToken(session.AccessToken)
	session.UserID = session.User.ID
	return &session, nil
}

// SignOut revokes the session server-side and drops the local token.
func (g *Gateway) SignOut(ctx context.Context) error {
	err := g.do(ctx, http.MethodPost, "/auth/signout", nil, nil)
	g.setToken("")
	return err
}

// SetToken installs an externally obtained access token.
func (g *Gateway) SetToken(token string) { g.setToken(token) }

func (g *Gateway) setToken(token string) {
	g.mu.Lock()
	g.token = token
	g.mu.Unlock()
}

func (g *Gateway) bearer() string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.token
}

// do issues one request. A non-nil out must be a pointer the JSON response
// body decodes into.
func (g *Gateway) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("%w: encode request: %v", store.ErrUnknown, err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, g.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("%w: build request: %v", store.ErrUnknown, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := g.bearer(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", store.ErrUnknown, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return classifyStatus(resp)
	}
	if out == nil {
		io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: decode response: %v", store.ErrUnknown, err)
	}
	return nil
}

// classifyStatus maps an HTTP error status onto the taxonomy the stores
// branch on.
func classifyStatus(resp *http.Response) error {
	detail := readErrorDetail(resp.Body)

	var base error
	switch resp.StatusCode {
	case http.StatusNotFound:
		base = store.ErrNotFound
	case http.StatusConflict:
		base = store.ErrConflict
	case http.StatusUnauthorized, http.StatusForbidden:
		base = store.ErrForbidden
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		base = store.ErrValidation
	default:
		base = store.ErrUnknown
	}
	if detail == "" {
		return fmt.Errorf("%w: status %d", base, resp.StatusCode)
	}
	return fmt.Errorf("%w: %s", base, detail)
}

func readErrorDetail(body io.Reader) string {
	var payload struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.NewDecoder(io.LimitReader(body, 4096)).Decode(&payload); err != nil {
		return ""
	}
	if payload.Message != "" {
		return payload.Message
	}
	return payload.Error
}

// Subscribe opens the server's change stream for the given tables and scope
// and signals on the returned channel whenever any subscribed entity set
// changes. Events carry no payload: they are invalidation hints meant to be
// fed into a store's AutoRefresh. The stream reconnects on failure until
// the context is cancelled.
func (g *Gateway) Subscribe(ctx context.Context, scope string, tables ...string) <-chan struct{} {
	signals := make(chan struct{}, 1)

	query := url.Values{}
	for _, table := range tables {
		query.Add("table", table)
	}
	if scope != "" {
		query.Set("scope", scope)
	}
	endpoint := g.baseURL + "/stream?" + query.Encode()

	go func() {
		defer close(signals)
		for {
			if err := g.consumeStream(ctx, endpoint, signals); err != nil {
				select {
				case <-ctx.Done():
					return
				case <-time.After(2 * time.Second):
				}
				continue
			}
			return
		}
	}()
	return signals
}

// consumeStream reads one server-sent-event connection until it drops.
// Returns nil only when the context ended.
func (g *Gateway) consumeStream(ctx context.Context, endpoint string, signals chan<- struct{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "text/event-stream")
	if token := g.bearer(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	// The gateway's default client enforces a request timeout that would
	// cut a long-lived stream, so streaming uses a transport-only client.
	streamClient := &http.Client{Transport: g.client.Transport}
	resp, err := streamClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		if ctx.Err() != nil {
			return nil
		}
		return classifyStatus(resp)
	}

	scanner := bufio.NewScanner(resp.Body)
	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, "data:") {
			continue
		}
		select {
		case signals <- struct{}{}:
		default:
			// A pending signal already covers this change.
		}
	}
	if ctx.Err() != nil {
		return nil
	}
	if err := scanner.Err(); err != nil {
		return err
	}
	return fmt.Errorf("stream closed")
}
