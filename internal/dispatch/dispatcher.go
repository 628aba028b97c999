// internal/dispatch/dispatcher.go
package dispatch

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/tamzrod/timemachine-bridge/internal/remote"
)

// DefaultTimeout bounds one dispatch. Backup initiation acknowledges slower
// than the health endpoint.
const DefaultTimeout = 30 * time.Second

// Config is the minimal runtime config the dispatcher needs.
type Config struct {
	InstanceID string
	Endpoint   remote.Endpoint
	Timeout    time.Duration
	Logger     *slog.Logger
}

// Dispatcher sends one-shot backup commands. It holds no mutable state:
// concurrent Dispatch calls are independent.
type Dispatcher struct {
	cfg    Config
	client remote.Doer
	log    *slog.Logger
}

func New(cfg Config, client remote.Doer) (*Dispatcher, error) {
	if cfg.Endpoint.IsZero() {
		return nil, errors.New("dispatch: endpoint required")
	}
	if client == nil {
		return nil, errors.New("dispatch: http client required")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}

	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}

	return &Dispatcher{
		cfg:    cfg,
		client: client,
		log:    log.With("component", "dispatch", "instance", cfg.InstanceID),
	}, nil
}

func (d *Dispatcher) Endpoint() remote.Endpoint { return d.cfg.Endpoint }

// Dispatch sends exactly one POST to the action endpoint.
// It never returns an error: every failure is captured in the Result.
func (d *Dispatcher) Dispatch(ctx context.Context, r Request) Result {
	ep := d.cfg.Endpoint
	if r.Endpoint != nil && !r.Endpoint.IsZero() {
		ep = *r.Endpoint
	}

	res := Result{
		RequestID: uuid.NewString(),
		Target:    ep.ActionURL(),
	}
	log := d.log.With("request_id", res.RequestID, "target", res.Target)

	wire, err := toWire(r.Payload)
	if err != nil {
		res.Err = err.Error()
		log.Error("backup trigger rejected", "error", err)
		return res
	}

	var body io.Reader = http.NoBody
	if wire != nil {
		b, err := json.Marshal(wire)
		if err != nil {
			res.Err = "dispatch: encode payload: " + err.Error()
			log.Error("backup trigger rejected", "error", err)
			return res
		}
		body = bytes.NewReader(b)
	}

	ctx, cancel := context.WithTimeout(ctx, d.cfg.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, res.Target, body)
	if err != nil {
		return d.fail(log, res, remote.Classify(err), "")
	}
	if wire != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", res.RequestID)

	log.Info("triggering backup")

	resp, err := d.client.Do(req)
	if err != nil {
		return d.fail(log, res, remote.Classify(err), "")
	}
	defer resp.Body.Close()

	res.StatusCode = resp.StatusCode

	if resp.StatusCode != http.StatusOK {
		return d.fail(log, res, remote.StatusFailure(resp.StatusCode), remoteError(resp.Body))
	}

	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxReplyBytes))

	res.Succeeded = true
	log.Info("backup triggered", "status", resp.StatusCode)
	return res
}

func (d *Dispatcher) fail(log *slog.Logger, res Result, f *remote.Failure, detail string) Result {
	res.Kind = f.Kind
	res.Err = f.Message()
	if detail != "" {
		res.Err += ": " + detail
	}
	log.Error("backup trigger failed", "kind", f.Kind.String(), "status", res.StatusCode, "error", res.Err)
	return res
}

const maxReplyBytes = 64 << 10

// remoteError extracts the service's {"error": "..."} message, if any.
func remoteError(r io.Reader) string {
	b, err := io.ReadAll(io.LimitReader(r, maxReplyBytes))
	if err != nil || len(b) == 0 {
		return ""
	}
	var reply struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(b, &reply) != nil {
		return ""
	}
	return reply.Error
}
