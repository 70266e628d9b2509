package middleware

import (
	"bytes"
	"context"
	"crypto/sha1"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/devadeekshithgs-git/hukiciah/internal/config"
)

// bodyRecorder tees the response body into a buffer while streaming it to
// the client, up to limit bytes.  Oversized bodies are still served; they
// just never make it into the cache.
type bodyRecorder struct {
	http.ResponseWriter
	status   int
	buf      bytes.Buffer
	written  int64
	limit    int64
	overflow bool
}

func (br *bodyRecorder) WriteHeader(code int) {
	br.status = code
	br.ResponseWriter.WriteHeader(code)
}

func (br *bodyRecorder) Write(p []byte) (int, error) {
	br.written += int64(len(p))
	if br.written > br.limit {
		br.overflow = true
	} else {
		br.buf.Write(p)
	}
	return br.ResponseWriter.Write(p)
}

// packResponse flattens status, headers and body into one value:
// [status u32][header length u32][header JSON][body].  Storing the
// headers keeps cached availability responses byte-identical to fresh
// ones, content type included.
func packResponse(status int, header http.Header, body []byte) ([]byte, error) {
	hdr, err := json.Marshal(header)
	if err != nil {
		return nil, err
	}
	out := make([]byte, 8+len(hdr)+len(body))
	binary.BigEndian.PutUint32(out[0:4], uint32(status))
	binary.BigEndian.PutUint32(out[4:8], uint32(len(hdr)))
	copy(out[8:], hdr)
	copy(out[8+len(hdr):], body)
	return out, nil
}

func unpackResponse(raw []byte) (status int, header http.Header, body []byte, ok bool) {
	if len(raw) < 8 {
		return 0, nil, nil, false
	}
	status = int(binary.BigEndian.Uint32(raw[0:4]))
	hlen := int(binary.BigEndian.Uint32(raw[4:8]))
	if hlen < 0 || 8+hlen > len(raw) {
		return 0, nil, nil, false
	}
	header = make(http.Header)
	if hlen > 0 {
		if err := json.Unmarshal(raw[8:8+hlen], &header); err != nil {
			return 0, nil, nil, false
		}
	}
	return status, header, raw[8+hlen:], true
}

// NewRedisCache caches successful GET responses for the route it is
// attached to.  It fronts the availability read, where every customer in
// the booking wizard polls the same date and the derived occupancy only
// changes when a booking commits; the short TTL bounds how stale a tray
// grid can get.  A cold or absent Redis degrades to computing every
// response.
func NewRedisCache(cfg config.CacheConfig, rdb *redis.Client) echo.MiddlewareFunc {
	if !cfg.Enabled || rdb == nil {
		return passthrough
	}
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = 10 * time.Second
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			if req.Method != http.MethodGet {
				return next(c)
			}

			key := responseKey(cfg.Prefix, c)
			if raw, err := rdb.Get(req.Context(), key).Bytes(); err == nil {
				if status, hdr, body, ok := unpackResponse(raw); ok {
					for name, vals := range hdr {
						if strings.EqualFold(name, "Content-Length") {
							continue
						}
						for _, v := range vals {
							c.Response().Header().Add(name, v)
						}
					}
					c.Response().Header().Set("X-Cache", "HIT")
					c.Response().WriteHeader(status)
					_, writeErr := c.Response().Write(body)
					return writeErr
				}
			}

			rec := &bodyRecorder{
				ResponseWriter: c.Response().Writer,
				status:         http.StatusOK,
				limit:          int64(cfg.MaxBodyBytes),
			}
			c.Response().Writer = rec
			c.Response().Header().Set("X-Cache", "MISS")

			if err := next(c); err != nil {
				return err
			}
			if rec.status != http.StatusOK || rec.overflow {
				return nil
			}

			hdr := make(http.Header, len(c.Response().Header()))
			for name, vals := range c.Response().Header() {
				hdr[name] = append([]string(nil), vals...)
			}
			payload, err := packResponse(rec.status, hdr, rec.buf.Bytes())
			if err == nil {
				// The request context may already be done; the store is
				// best effort either way.
				_ = rdb.SetEx(context.Background(), key, payload, ttl).Err()
			}
			return nil
		}
	}
}

// responseKey hashes route plus query so /v1/availability/2025-03-05 and
// its querystring variants get distinct entries without unbounded key
// growth.
func responseKey(prefix string, c echo.Context) string {
	sum := sha1.Sum([]byte(c.Request().URL.Path + "?" + c.Request().URL.RawQuery))
	return fmt.Sprintf("%s:%x", prefix, sum)
}
