package tradecore

import (
	"bufio"
	"bytes"
	"crypto/sha1"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/http/httputil"
	"os"
	"path/filepath"

	"github.com/riskr/tradecore/date"
)

// HTTP plumbing for the benchmark price provider.

// diskCache is a RoundTripper caching successful responses on disk. Cache
// keys include the current day, so entries in the tmp dir expire daily.
type diskCache struct {
	base http.RoundTripper
}

func (c *diskCache) cachePath(req *http.Request) string {
	key := fmt.Sprintf("%s %s %s", date.Today(), req.Method, req.URL)
	return filepath.Join(os.TempDir(), fmt.Sprintf("%x", sha1.Sum([]byte(key))))
}

func (c *diskCache) RoundTrip(req *http.Request) (*http.Response, error) {
	path := c.cachePath(req)
	if cached, err := c.read(path, req); err == nil {
		return cached, nil
	}

	resp, err := c.base.RoundTrip(req)
	if err != nil {
		return nil, err
	}
	log.Printf("%v %v%v %v", req.Method, req.URL.Host, req.URL.Path, resp.Status)
	if resp.StatusCode >= 300 {
		// error responses are not worth caching
		return resp, nil
	}
	if err := c.write(path, resp); err != nil {
		log.Printf("cache write err (ignored): %v", err)
	}
	return resp, nil
}

func (c *diskCache) read(path string, req *http.Request) (*http.Response, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return http.ReadResponse(bufio.NewReader(bytes.NewReader(content)), req)
}

// write dumps the full response to disk and leaves resp.Body readable.
func (c *diskCache) write(path string, resp *http.Response) error {
	content, err := httputil.DumpResponse(resp, true)
	if err != nil {
		return err
	}
	return os.WriteFile(path, content, 0o644)
}

// daily returns a client whose responses are cached until the end of the day.
func daily() *http.Client {
	return &http.Client{Transport: &diskCache{base: http.DefaultTransport}}
}

// jwget GETs addr and unmarshals the JSON response body into data.
func jwget(client *http.Client, addr string, data any) error {
	resp, err := client.Get(addr)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("cannot http GET %v%v: %v", resp.Request.URL.Host, resp.Request.URL.Path, resp.Status)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	return json.Unmarshal(body, data)
}
