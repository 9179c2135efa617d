package update

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

const (
	VersionHeader = "X-Firmware-Version"
	// MD5Header optionally carries the hex digest of the served image.
	MD5Header = "X-MD5"
)

type Result int

const (
	Failed Result = iota
	NoUpdates
	Updated
)

func (r Result) String() string {
	switch r {
	case NoUpdates:
		return "no_updates"
	case Updated:
		return "updated"
	}
	return "failed"
}

// Checker asks an update server whether a newer image than Version exists
// and installs it at Target.
type Checker struct {
	URL     string
	Version string
	Target  string
	Client  *http.Client
	Log     zerolog.Logger
}

func (c *Checker) client() *http.Client {
	if c.Client != nil {
		return c.Client
	}
	return &http.Client{Timeout: 30 * time.Second}
}

// Check returns Updated only after the new image is in place. Failed comes
// with the cause; the caller continues booting either way.
func (c *Checker) Check(ctx context.Context) (Result, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.URL, nil)
	if err != nil {
		return Failed, err
	}
	req.Header.Set(VersionHeader, c.Version)

	resp, err := c.client().Do(req)
	if err != nil {
		return Failed, fmt.Errorf("update request: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusNotModified:
		return NoUpdates, nil
	case http.StatusOK:
	default:
		return Failed, fmt.Errorf("update server: %s", resp.Status)
	}

	n, err := c.install(resp.Body, resp.Header.Get(MD5Header))
	if err != nil {
		return Failed, err
	}
	c.Log.Info().Int64("bytes", n).Str("target", c.Target).Msg("update installed")
	return Updated, nil
}

// install writes the image next to Target and renames it over Target, so a
// failed download never leaves a truncated executable behind.
func (c *Checker) install(body io.Reader, wantMD5 string) (int64, error) {
	if c.Target == "" {
		return 0, fmt.Errorf("no update target configured")
	}
	f, err := os.CreateTemp(filepath.Dir(c.Target), "."+filepath.Base(c.Target)+".*")
	if err != nil {
		return 0, fmt.Errorf("update temp file: %w", err)
	}
	tmp := f.Name()
	defer os.Remove(tmp)

	h := md5.New()
	n, err := io.Copy(io.MultiWriter(f, h), body)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return n, fmt.Errorf("update download: %w", err)
	}
	if n == 0 {
		return 0, fmt.Errorf("update server sent an empty image")
	}
	if wantMD5 != "" {
		if got := hex.EncodeToString(h.Sum(nil)); !strings.EqualFold(got, wantMD5) {
			return n, fmt.Errorf("update checksum mismatch: got %s want %s", got, wantMD5)
		}
	}
	if err := os.Chmod(tmp, 0755); err != nil {
		return n, err
	}
	if err := os.Rename(tmp, c.Target); err != nil {
		return n, fmt.Errorf("update install: %w", err)
	}
	return n, nil
}
