package delivery

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// ErrNoDestination is returned when a send supplies no output stream, no
// filesystem target, and no URL.
var ErrNoDestination = errors.New("no send-to information supplied (stream, file, or url)")

// Config holds the channel's transport credentials, loaded once at process
// start and shared across sends.
type Config struct {
	// CertFile and KeyFile are an optional PEM client certificate pair
	// presented on HTTPS sends.
	CertFile string
	KeyFile  string

	// BasicAuthUser enables basic authentication when non-empty.
	BasicAuthUser     string
	BasicAuthPassword string

	// InsecureSkipVerify relaxes server certificate validation. Test and
	// integration posture only.
	InsecureSkipVerify bool

	// Timeout bounds one HTTP send. Zero means 30 seconds.
	Timeout time.Duration
}

// Target names the destination for one send. Fields are checked in
// priority order: Writer, then Directory+Filename, then URL.
type Target struct {
	// Writer is a live output sink. The channel writes the full text and
	// closes it.
	Writer io.WriteCloser

	// Directory and Filename name a filesystem target. Both must be set
	// for the file channel to apply. The directory is created if missing
	// (non-recursive).
	Directory string
	Filename  string

	// URL is an HTTP(S) endpoint receiving the text as a text/xml POST.
	URL string
}

// Channel delivers message text over one of three transports.
type Channel struct {
	cfg    Config
	client *http.Client
}

// NewChannel builds a channel, loading the client certificate if one is
// configured.
func NewChannel(cfg Config) (*Channel, error) {
	tlsConfig := &tls.Config{
		MinVersion:         tls.VersionTLS12,
		InsecureSkipVerify: cfg.InsecureSkipVerify,
	}

	if cfg.CertFile != "" {
		cert, err := tls.LoadX509KeyPair(cfg.CertFile, cfg.KeyFile)
		if err != nil {
			return nil, fmt.Errorf("loading client certificate: %w", err)
		}
		tlsConfig.Certificates = []tls.Certificate{cert}
	}

	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	return &Channel{
		cfg: cfg,
		client: &http.Client{
			Transport: &http.Transport{TLSClientConfig: tlsConfig},
			Timeout:   timeout,
		},
	}, nil
}

// Send writes text to the first destination the target supplies. Exactly
// one attempt is made; any failure is fatal for this call.
func (c *Channel) Send(ctx context.Context, text string, tgt Target) error {
	switch {
	case tgt.Writer != nil:
		return c.sendToWriter(text, tgt.Writer)
	case tgt.Directory != "" && tgt.Filename != "":
		return c.sendToFile(text, tgt.Directory, tgt.Filename)
	case tgt.URL != "":
		return c.sendToURL(ctx, text, tgt.URL)
	default:
		return ErrNoDestination
	}
}

func (c *Channel) sendToWriter(text string, w io.WriteCloser) error {
	if _, err := io.WriteString(w, text); err != nil {
		w.Close()
		return fmt.Errorf("writing message to output stream: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("closing output stream: %w", err)
	}
	return nil
}

func (c *Channel) sendToFile(text, dir, filename string) error {
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		if err := os.Mkdir(dir, 0o755); err != nil {
			return fmt.Errorf("creating directory %q: %w", dir, err)
		}
	}
	path := filepath.Join(dir, filename)
	if err := os.WriteFile(path, []byte(text), 0o644); err != nil {
		return fmt.Errorf("saving message to file %q: %w", path, err)
	}
	return nil
}

func (c *Channel) sendToURL(ctx context.Context, text, url string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, strings.NewReader(text))
	if err != nil {
		return fmt.Errorf("creating request for %q: %w", url, err)
	}
	req.Header.Set("Content-Type", "text/xml")
	if c.cfg.BasicAuthUser != "" {
		req.SetBasicAuth(c.cfg.BasicAuthUser, c.cfg.BasicAuthPassword)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("posting message to %q: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("posting message to %q: unexpected status %d: %s", url, resp.StatusCode, string(body))
	}
	return nil
}
