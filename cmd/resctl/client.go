package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"grid-reservation/internal/handler/middleware"
	"grid-reservation/internal/pkg/errs"
)

// APIError is a non-2xx answer from the reservation service.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%d: %s", e.Status, e.Message)
}

type session struct {
	ID       int64
	Username string
	Role     string
}

type client struct {
	base    string
	http    *http.Client
	session *session
}

func newClient(base string, timeout time.Duration) *client {
	return &client{
		base: strings.TrimRight(base, "/"),
		http: &http.Client{Timeout: timeout},
	}
}

// do sends one request and decodes the JSON body into out. The body is
// decoded for error statuses too so the server message reaches the user.
func (c *client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	target := c.base + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return errs.Wrap(err, "encode request")
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return errs.Wrap(err, "build request")
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.session != nil {
		req.Header.Set(middleware.HeaderUserID, strconv.FormatInt(c.session.ID, 10))
		req.Header.Set(middleware.HeaderUserRole, c.session.Role)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return errs.Wrapf(err, "%s %s", method, path)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return errs.Wrap(err, "read response")
	}

	if resp.StatusCode >= http.StatusBadRequest {
		var failure struct {
			Message string `json:"message"`
		}
		if err := json.Unmarshal(raw, &failure); err != nil || failure.Message == "" {
			failure.Message = strings.TrimSpace(string(raw))
		}
		return &APIError{Status: resp.StatusCode, Message: failure.Message}
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return errs.Wrapf(err, "decode response from %s", path)
	}
	return nil
}

// login resolves username to the id and role the service knows and keeps
// them for later requests.
func (c *client) login(ctx context.Context, username string) (*session, error) {
	var out struct {
		ID        int64  `json:"id"`
		Role      string `json:"role"`
		Username  string `json:"username"`
		FirstName string `json:"first_name"`
	}
	if err := c.do(ctx, http.MethodGet, "/reservation/user", url.Values{"username": {username}}, nil, &out); err != nil {
		return nil, err
	}
	c.session = &session{ID: out.ID, Username: out.Username, Role: out.Role}
	return c.session, nil
}

func (c *client) owner(ctx context.Context, reservationID int64) (string, error) {
	var out struct {
		Username string `json:"username"`
	}
	q := url.Values{"reservation_id": {strconv.FormatInt(reservationID, 10)}}
	if err := c.do(ctx, http.MethodGet, "/reservation/access", q, nil, &out); err != nil {
		return "", err
	}
	return out.Username, nil
}
