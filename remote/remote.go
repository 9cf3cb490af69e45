// Package remote talks to the MMM-Remote-Control HTTP API of a MagicMirror.
package remote

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/sepiroth887/mirror-voice-handler/catalog"
	log "github.com/sirupsen/logrus"
)

const (
	remotePath   = "/remote"
	kalliopePath = "/kalliope"

	statusSuccess = "success"
)

var ErrUnreachable = errors.New("mirror unreachable")

// Command is one remote action. Empty fields are left out of the query.
type Command struct {
	Action       string
	Module       string
	Notification string
	Payload      string
	Value        string
	URL          string
}

func (c Command) query() url.Values {
	q := url.Values{}
	q.Set("action", c.Action)
	for k, v := range map[string]string{
		"module":       c.Module,
		"notification": c.Notification,
		"payload":      c.Payload,
		"value":        c.Value,
		"url":          c.URL,
	} {
		if v != "" {
			q.Set(k, v)
		}
	}
	return q
}

// CommandError is returned when the mirror answers with a non-success status.
type CommandError struct {
	Status string
	Reason string
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("mirror returned %s: %s", e.Status, e.Reason)
}

type response struct {
	Status string `json:"status"`
	Reason string `json:"reason"`
}

type moduleDataResponse struct {
	ModuleData []catalog.InstalledModule `json:"moduleData"`
}

type Client struct {
	base       string
	httpClient *http.Client
}

// New returns a client for the mirror at host:port.
func New(host string, port int, httpClient *http.Client) *Client {
	return NewWithBase("http://"+net.JoinHostPort(host, strconv.Itoa(port)), httpClient)
}

func NewWithBase(base string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		base:       strings.TrimSuffix(base, "/"),
		httpClient: httpClient,
	}
}

func (c *Client) Base() string {
	return c.base
}

// ModuleData asks the mirror which modules are configured.
func (c *Client) ModuleData(ctx context.Context) ([]catalog.InstalledModule, error) {
	var out moduleDataResponse
	if err := c.get(ctx, Command{Action: "MODULE_DATA"}, &out); err != nil {
		return nil, err
	}
	return out.ModuleData, nil
}

// Do sends a command and reports a *CommandError if the mirror refused it.
func (c *Client) Do(ctx context.Context, cmd Command) error {
	var out response
	if err := c.get(ctx, cmd, &out); err != nil {
		return err
	}
	if out.Status != statusSuccess {
		return &CommandError{
			Status: out.Status,
			Reason: strings.ReplaceAll(out.Reason, "_", " "),
		}
	}
	return nil
}

// Notify posts a notification to the MMM-kalliope overlay.
func (c *Client) Notify(ctx context.Context, notification, payload string) error {
	form := url.Values{}
	form.Set("notification", notification)
	form.Set("payload", payload)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+kalliopePath, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("failed to create kalliope request: %w", err)
	}
	req.Header.Set("content-type", "application/x-www-form-urlencoded")

	res, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnreachable, err)
	}
	defer res.Body.Close()
	if res.StatusCode < 200 || res.StatusCode > 299 {
		data, _ := io.ReadAll(res.Body)
		return fmt.Errorf("unexpected response from kalliope [%d]: %s", res.StatusCode, string(data))
	}
	return nil
}

func (c *Client) get(ctx context.Context, cmd Command, out any) error {
	u := c.base + remotePath + "?" + cmd.query().Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("failed to create remote request: %w", err)
	}
	log.Debugf("remote request: %s", u)

	res, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnreachable, err)
	}
	defer res.Body.Close()

	data, err := io.ReadAll(res.Body)
	if err != nil {
		return fmt.Errorf("failed to read remote response: %w", err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to decode remote response [%d]: %s: %w", res.StatusCode, string(data), err)
	}
	return nil
}
