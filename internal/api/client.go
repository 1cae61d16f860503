// Package api provides the HTTP client for the notebook service's canvas
// element endpoints. This is the external collaborator boundary: the editor
// never talks to storage directly, only through this client.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"notecanvas/internal/element"
)

// Service is the persistence surface the editor depends on.
type Service interface {
	CreateElement(ctx context.Context, el element.Element) (element.Element, error)
	UpdateElement(ctx context.Context, id int64, fields element.Fields) (element.Element, error)
	DeleteElement(ctx context.Context, id int64) error
	UndeleteElement(ctx context.Context, id int64) (element.Element, error)
	UploadImage(ctx context.Context, req UploadRequest) (element.Element, error)
}

// Client talks JSON over HTTP to the host notebook service. The host supplies
// the CSRF token; the client sends it as both header and cookie the way the
// server's middleware expects.
type Client struct {
	baseURL    string
	csrfToken  string
	sessionID  string
	httpClient *http.Client
	log        zerolog.Logger
}

var _ Service = (*Client)(nil)

// NewClient creates a client for the service at baseURL (no trailing slash).
func NewClient(baseURL, csrfToken, sessionID string, log zerolog.Logger) *Client {
	return &Client{
		baseURL:   baseURL,
		csrfToken: csrfToken,
		sessionID: sessionID,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		log: log.With().Str("component", "api").Logger(),
	}
}

// envelope is the server's uniform response wrapper.
type envelope struct {
	Success  bool              `json:"success"`
	Error    string            `json:"error,omitempty"`
	Element  *element.Element  `json:"element,omitempty"`
	Elements []element.Element `json:"elements,omitempty"`
}

// doJSON posts a JSON body and decodes the envelope.
func (c *Client) doJSON(ctx context.Context, path string, body any) (*envelope, error) {
	var bodyReader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal request: %w", err)
		}
		bodyReader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	c.setAuth(req)

	return c.send(req, path)
}

// setAuth attaches the CSRF token and session cookie.
func (c *Client) setAuth(req *http.Request) {
	req.Header.Set("X-CSRFToken", c.csrfToken)
	cookie := "csrftoken=" + c.csrfToken
	if c.sessionID != "" {
		cookie += "; sessionid=" + c.sessionID
	}
	req.Header.Set("Cookie", cookie)
}

// send executes the request and decodes the uniform envelope, turning
// transport errors, HTTP errors, and success:false all into Go errors.
func (c *Client) send(req *http.Request, path string) (*envelope, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log.Warn().Err(err).Str("path", path).Msg("request failed")
		return nil, fmt.Errorf("canvas api %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		c.log.Warn().Int("status", resp.StatusCode).Str("path", path).Msg("server error")
		return nil, fmt.Errorf("canvas api %s: status %d: %s", path, resp.StatusCode, body)
	}

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return nil, fmt.Errorf("canvas api %s: decode response: %w", path, err)
	}
	if !env.Success {
		return nil, fmt.Errorf("canvas api %s: %s", path, env.Error)
	}
	return &env, nil
}

// ListElements fetches the current elements of a document.
func (c *Client) ListElements(ctx context.Context, owner element.Owner) ([]element.Element, error) {
	if err := owner.Validate(); err != nil {
		return nil, err
	}
	path := "/canvas/elements/"
	if owner.NoteID != 0 {
		path += "?note_id=" + strconv.FormatInt(owner.NoteID, 10)
	} else {
		path += "?shared_note_id=" + strconv.FormatInt(owner.SharedNoteID, 10)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	c.setAuth(req)

	env, err := c.send(req, path)
	if err != nil {
		return nil, err
	}
	return env.Elements, nil
}

// CreateElement creates a new element and returns it with its server-assigned id.
func (c *Client) CreateElement(ctx context.Context, el element.Element) (element.Element, error) {
	if err := el.Validate(); err != nil {
		return element.Element{}, err
	}

	env, err := c.doJSON(ctx, "/canvas/elements/create/", el)
	if err != nil {
		return element.Element{}, err
	}
	if env.Element == nil {
		return element.Element{}, fmt.Errorf("canvas api create: missing element in response")
	}
	c.log.Debug().Int64("id", env.Element.ID).Str("type", string(env.Element.Type)).Msg("created")
	return *env.Element, nil
}

// UpdateElement applies a partial field update. The returned element reflects
// the server state when the server includes it; otherwise the zero element is
// returned with a nil error and the caller keeps its local copy.
func (c *Client) UpdateElement(ctx context.Context, id int64, fields element.Fields) (element.Element, error) {
	env, err := c.doJSON(ctx, fmt.Sprintf("/canvas/elements/%d/update/", id), fields)
	if err != nil {
		return element.Element{}, err
	}
	if env.Element != nil {
		return *env.Element, nil
	}
	return element.Element{}, nil
}

// DeleteElement removes an element by id.
func (c *Client) DeleteElement(ctx context.Context, id int64) error {
	_, err := c.doJSON(ctx, fmt.Sprintf("/canvas/elements/%d/delete/", id), nil)
	return err
}

// UndeleteElement restores a deleted element under its original identity.
// Failure here is a recognized outcome, not only an error: the history
// manager falls back to recreating from its snapshot.
func (c *Client) UndeleteElement(ctx context.Context, id int64) (element.Element, error) {
	env, err := c.doJSON(ctx, fmt.Sprintf("/canvas/elements/%d/undelete/", id), nil)
	if err != nil {
		return element.Element{}, err
	}
	if env.Element == nil {
		return element.Element{}, fmt.Errorf("canvas api undelete: missing element in response")
	}
	return *env.Element, nil
}

// UploadRequest carries an encoded image and its placement for upload.
type UploadRequest struct {
	Filename string
	Data     []byte
	X, Y     int
	Width    int
	Height   int
	ZIndex   int
	Owner    element.Owner
}

// UploadImage posts a multipart form with the image file and placement fields,
// returning the created image element.
func (c *Client) UploadImage(ctx context.Context, upload UploadRequest) (element.Element, error) {
	if err := upload.Owner.Validate(); err != nil {
		return element.Element{}, err
	}

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	part, err := w.CreateFormFile("image", upload.Filename)
	if err != nil {
		return element.Element{}, fmt.Errorf("upload image: %w", err)
	}
	if _, err := part.Write(upload.Data); err != nil {
		return element.Element{}, fmt.Errorf("upload image: %w", err)
	}

	fields := map[string]string{
		"x":       strconv.Itoa(upload.X),
		"y":       strconv.Itoa(upload.Y),
		"width":   strconv.Itoa(upload.Width),
		"height":  strconv.Itoa(upload.Height),
		"z_index": strconv.Itoa(upload.ZIndex),
	}
	if upload.Owner.NoteID != 0 {
		fields["note_id"] = strconv.FormatInt(upload.Owner.NoteID, 10)
	} else {
		fields["shared_note_id"] = strconv.FormatInt(upload.Owner.SharedNoteID, 10)
	}
	for k, v := range fields {
		if err := w.WriteField(k, v); err != nil {
			return element.Element{}, fmt.Errorf("upload image: %w", err)
		}
	}
	if err := w.Close(); err != nil {
		return element.Element{}, fmt.Errorf("upload image: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/canvas/elements/upload-image/", &buf)
	if err != nil {
		return element.Element{}, fmt.Errorf("upload image: %w", err)
	}
	req.Header.Set("Content-Type", w.FormDataContentType())
	c.setAuth(req)

	env, err := c.send(req, "/canvas/elements/upload-image/")
	if err != nil {
		return element.Element{}, err
	}
	if env.Element == nil {
		return element.Element{}, fmt.Errorf("canvas api upload: missing element in response")
	}
	c.log.Debug().Int64("id", env.Element.ID).Msg("image uploaded")
	return *env.Element, nil
}
