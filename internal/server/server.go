// Package server exposes the rendered birthday feed over HTTP: the ICS
// calendar and a JSON listing, both with conditional-request support.
package server

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/tartampluch/birthdayd/internal/config"
)

// cacheItem stores one rendered document and its HTTP caching metadata.
type cacheItem struct {
	data         []byte
	contentType  string
	etag         string
	lastModified string // RFC1123 format required by HTTP headers
}

// FeedServer serves the birthday calendar and JSON listing. Served content
// is swapped atomically so the request path stays lock-free.
type FeedServer struct {
	calendar atomic.Pointer[cacheItem]
	listing  atomic.Pointer[cacheItem]
	Addr     string
}

// NewFeedServer creates a server bound to addr.
func NewFeedServer(addr string) *FeedServer {
	return &FeedServer{Addr: addr}
}

// Start runs the HTTP server and blocks until the context is cancelled.
func (s *FeedServer) Start(ctx context.Context) error {
	if s.Addr == "" {
		return errors.New(config.ErrAddrRequired)
	}

	mux := http.NewServeMux()
	mux.HandleFunc(config.RouteCalendar, s.serveFrom(&s.calendar))
	mux.HandleFunc(config.RouteBirthdays, s.serveFrom(&s.listing))

	srv := &http.Server{
		Addr:         s.Addr,
		Handler:      mux,
		ReadTimeout:  config.ServerReadTimeout,
		WriteTimeout: config.ServerWriteTimeout,
		IdleTimeout:  config.ServerIdleTimeout,
	}

	serverError := make(chan error, config.ChannelBufferSize)

	go func() {
		slog.Info(config.MsgServerListen,
			config.LogKeyComponent, config.CompServer,
			config.LogKeyAddr, s.Addr,
		)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverError <- err
		}
	}()

	select {
	case <-ctx.Done():
		slog.Info(config.MsgServerStop, config.LogKeyComponent, config.CompServer)
		shutdownCtx, cancel := context.WithTimeout(context.Background(), config.ShutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("%s: %w", config.ErrServerShutdown, err)
		}
		return nil

	case err := <-serverError:
		return fmt.Errorf("%s: %w", config.ErrServerStartup, err)
	}
}

// UpdateCalendar atomically replaces the served ICS document.
func (s *FeedServer) UpdateCalendar(data []byte) {
	s.update(&s.calendar, data, config.MimeTextCalendar)
}

// UpdateListing atomically replaces the served JSON listing.
func (s *FeedServer) UpdateListing(data []byte) {
	s.update(&s.listing, data, config.MimeApplicationJSON)
}

func (s *FeedServer) update(slot *atomic.Pointer[cacheItem], data []byte, contentType string) {
	hash := sha256.Sum256(data)
	item := &cacheItem{
		data:         data,
		contentType:  contentType,
		etag:         fmt.Sprintf(config.FormatETag, hex.EncodeToString(hash[:])),
		lastModified: time.Now().UTC().Format(http.TimeFormat),
	}

	// Readers see either the old or the new complete item, never a partial
	// state.
	slot.Store(item)

	slog.Debug(config.MsgFeedUpdated,
		config.LogKeyComponent, config.CompServer,
		config.LogKeySizeBytes, len(data),
		config.LogKeyETag, item.etag,
	)
}

// serveFrom builds a handler serving the given slot with conditional-request
// support.
func (s *FeedServer) serveFrom(slot *atomic.Pointer[cacheItem]) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			w.Header().Set(config.HeaderAllow, config.AllowedMethods)
			http.Error(w, config.HTTPMsgMethodNotAll, http.StatusMethodNotAllowed)
			return
		}

		item := slot.Load()
		if item == nil {
			w.Header().Set(config.HeaderRetryAfter, config.RetryAfterSeconds)
			http.Error(w, config.HTTPMsgInitializing, http.StatusServiceUnavailable)
			return
		}

		w.Header().Set(config.HeaderContentType, item.contentType)
		w.Header().Set(config.HeaderXContentType, config.MimeNoSniff)
		w.Header().Set(config.HeaderCacheControl, config.CacheControlPrivate)
		w.Header().Set(config.HeaderETag, item.etag)
		w.Header().Set(config.HeaderLastModified, item.lastModified)

		if match := r.Header.Get(config.HeaderIfNoneMatch); match == item.etag {
			w.WriteHeader(http.StatusNotModified)
			return
		}

		if since := r.Header.Get(config.HeaderIfModifiedSince); since != "" {
			if clientTime, err := time.Parse(http.TimeFormat, since); err == nil {
				if serverTime, err := time.Parse(http.TimeFormat, item.lastModified); err == nil {
					if !serverTime.After(clientTime) {
						w.WriteHeader(http.StatusNotModified)
						return
					}
				}
			}
		}

		if r.Method == http.MethodGet {
			if _, err := io.Copy(w, bytes.NewReader(item.data)); err != nil {
				slog.Error(config.ErrWriteResp,
					config.LogKeyComponent, config.CompServer,
					config.LogKeyError, err,
				)
			}
		}
	}
}
