package identity

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"survey-gateway/internal/identity/metrics"
	"survey-gateway/pkg/requestcontext"
)

const (
	// DefaultTimeout bounds one provider call when none is configured.
	DefaultTimeout = 5 * time.Second

	maxTokenInfoBytes = 64 << 10
	outcomeOK         = "ok"
)

var tracer = otel.Tracer("survey-gateway/identity")

// TokenInfoVerifier redeems ID tokens at a Google-style tokeninfo endpoint.
// Each Verify performs exactly one outbound request: no caching, no retry.
type TokenInfoVerifier struct {
	endpoint string
	clientID string
	timeout  time.Duration
	client   *http.Client
	logger   *slog.Logger
	metrics  *metrics.Metrics
}

// Option configures a TokenInfoVerifier.
type Option func(*TokenInfoVerifier)

// WithHTTPClient replaces the outbound client. Its Timeout is left alone.
func WithHTTPClient(client *http.Client) Option {
	return func(v *TokenInfoVerifier) {
		if client != nil {
			v.client = client
		}
	}
}

// WithTimeout bounds each provider call.
func WithTimeout(d time.Duration) Option {
	return func(v *TokenInfoVerifier) {
		if d > 0 {
			v.timeout = d
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(v *TokenInfoVerifier) {
		v.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(v *TokenInfoVerifier) {
		v.metrics = m
	}
}

// NewTokenInfoVerifier builds a verifier that accepts only tokens whose
// audience equals clientID.
func NewTokenInfoVerifier(endpoint, clientID string, opts ...Option) *TokenInfoVerifier {
	v := &TokenInfoVerifier{
		endpoint: endpoint,
		clientID: clientID,
		timeout:  DefaultTimeout,
		logger:   slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(v)
	}
	if v.client == nil {
		v.client = &http.Client{Timeout: v.timeout}
	}
	return v
}

// Verify exchanges token for the identity it was issued to.
func (v *TokenInfoVerifier) Verify(ctx context.Context, token string) (Identity, error) {
	ctx, span := tracer.Start(ctx, "identity.Verify")
	defer span.End()

	start := time.Now()
	id, err := v.verify(ctx, token)

	outcome := outcomeOK
	if err != nil {
		outcome = string(KindOf(err))
		span.RecordError(err)
		span.SetStatus(codes.Error, outcome)
		v.logger.WarnContext(ctx, "token verification failed",
			"kind", outcome,
			"error", err,
			"request_id", requestcontext.RequestID(ctx),
		)
	} else {
		v.logger.DebugContext(ctx, "token verified",
			"subject_id", id.SubjectID,
			"request_id", requestcontext.RequestID(ctx),
		)
	}
	span.SetAttributes(attribute.String("identity.outcome", outcome))
	if v.metrics != nil {
		v.metrics.ObserveVerification(outcome, start)
	}
	return id, err
}

func (v *TokenInfoVerifier) verify(ctx context.Context, token string) (Identity, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return Identity{}, newAuthError(KindMissingToken, errors.New("token is empty"))
	}

	ctx, cancel := context.WithTimeout(ctx, v.timeout)
	defer cancel()

	info, err := v.fetchTokenInfo(ctx, token)
	if err != nil {
		return Identity{}, newAuthError(KindVerificationFailed, err)
	}

	if info.Audience == "" {
		return Identity{}, newAuthError(KindVerificationFailed, errors.New("tokeninfo missing aud claim"))
	}
	if info.Audience != v.clientID {
		return Identity{}, newAuthError(KindInvalidAudience, fmt.Errorf("unexpected audience %q", info.Audience))
	}
	if info.Subject == "" || info.Email == "" {
		return Identity{}, newAuthError(KindVerificationFailed, errors.New("tokeninfo missing sub or email claim"))
	}

	return Identity{SubjectID: info.Subject, Email: info.Email}, nil
}

func (v *TokenInfoVerifier) fetchTokenInfo(ctx context.Context, token string) (tokenInfo, error) {
	endpoint, err := url.Parse(v.endpoint)
	if err != nil {
		return tokenInfo{}, fmt.Errorf("parse tokeninfo endpoint: %w", err)
	}
	query := endpoint.Query()
	query.Set("id_token", token)
	endpoint.RawQuery = query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return tokenInfo{}, fmt.Errorf("build tokeninfo request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := v.client.Do(req)
	if err != nil {
		// *url.Error prints the request URL, and the URL carries the token.
		var urlErr *url.Error
		if errors.As(err, &urlErr) {
			err = urlErr.Err
		}
		return tokenInfo{}, fmt.Errorf("tokeninfo request to %s: %w", redactedEndpoint(endpoint), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxTokenInfoBytes))
		return tokenInfo{}, fmt.Errorf("tokeninfo returned %s", resp.Status)
	}

	var info tokenInfo
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxTokenInfoBytes)).Decode(&info); err != nil {
		return tokenInfo{}, fmt.Errorf("decode tokeninfo response: %w", err)
	}
	return info, nil
}

// redactedEndpoint is the endpoint without its query string, safe to log.
func redactedEndpoint(u *url.URL) string {
	c := *u
	c.RawQuery = ""
	c.Fragment = ""
	return c.String()
}
