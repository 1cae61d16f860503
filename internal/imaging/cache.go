package imaging

import (
	"fmt"
	"image"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Cache fetches and decodes element image URLs in the background. Lookups are
// non-blocking: a miss starts one fetch and reports not-ready; the onLoad
// callback fires when the decode lands so the canvas can repaint.
type Cache struct {
	baseURL string
	client  *http.Client
	log     zerolog.Logger
	onLoad  func()

	mu      sync.Mutex
	images  map[string]image.Image
	pending map[string]bool
	failed  map[string]bool
}

// NewCache creates a cache resolving relative URLs against baseURL.
func NewCache(baseURL string, log zerolog.Logger) *Cache {
	return &Cache{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: 30 * time.Second},
		log:     log.With().Str("component", "imagecache").Logger(),
		images:  make(map[string]image.Image),
		pending: make(map[string]bool),
		failed:  make(map[string]bool),
	}
}

// OnLoad sets the callback fired after each successful fetch. The callback
// runs on the fetch goroutine; callers marshal to the UI themselves.
func (c *Cache) OnLoad(fn func()) { c.onLoad = fn }

// Image returns the decoded image for a URL if it is already cached, starting
// a background fetch otherwise.
func (c *Cache) Image(rawURL string) (image.Image, bool) {
	if rawURL == "" {
		return nil, false
	}
	c.mu.Lock()
	if img, ok := c.images[rawURL]; ok {
		c.mu.Unlock()
		return img, true
	}
	if c.pending[rawURL] || c.failed[rawURL] {
		c.mu.Unlock()
		return nil, false
	}
	c.pending[rawURL] = true
	c.mu.Unlock()

	go c.fetch(rawURL)
	return nil, false
}

// Put stores an already decoded image, used right after an upload so the new
// element paints without a round trip.
func (c *Cache) Put(rawURL string, img image.Image) {
	c.mu.Lock()
	c.images[rawURL] = clampDecoded(img)
	delete(c.failed, rawURL)
	c.mu.Unlock()
}

func (c *Cache) fetch(rawURL string) {
	img, err := c.download(rawURL)

	c.mu.Lock()
	delete(c.pending, rawURL)
	if err != nil {
		c.failed[rawURL] = true
	} else {
		c.images[rawURL] = clampDecoded(img)
	}
	c.mu.Unlock()

	if err != nil {
		c.log.Warn().Err(err).Str("url", rawURL).Msg("image fetch failed")
		return
	}
	if c.onLoad != nil {
		c.onLoad()
	}
}

func (c *Cache) download(rawURL string) (image.Image, error) {
	full := rawURL
	if u, err := url.Parse(rawURL); err == nil && !u.IsAbs() {
		full = c.baseURL + "/" + strings.TrimLeft(rawURL, "/")
	}

	resp, err := c.client.Get(full)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("image fetch: status %d", resp.StatusCode)
	}

	img, _, err := image.Decode(resp.Body)
	return img, err
}
