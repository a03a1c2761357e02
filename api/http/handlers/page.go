package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/apex/log"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/artem13815/pagegen/api/http/presenter"
	"github.com/artem13815/pagegen/pkg/metrics"
	"github.com/artem13815/pagegen/pkg/negotiate"
	"github.com/artem13815/pagegen/pkg/page"
)

var errNoOutput = errors.New("model produced no output")

// PageHandler serves generated pages.
type PageHandler struct {
	gen page.Generator
}

func NewPageHandler(gen page.Generator) *PageHandler { return &PageHandler{gen: gen} }

// Favicon answers browser icon probes without generating anything.
// @Summary Favicon probe
// @Tags    pages
// @Success 404
// @Router  /favicon.ico [get]
func (h *PageHandler) Favicon(c *fiber.Ctx) error {
	return c.Status(http.StatusNotFound).Send(nil)
}

// Page negotiates the response format and streams a model-generated page for
// any path.
// @Summary Generated page
// @Description Streams a page invented by the model for the requested path. The format is chosen from the Accept header, overridden by a .html or .txt suffix.
// @Tags    pages
// @Produce html
// @Produce plain
// @Param   path path string false "any path"
// @Success 200 {string} string "generated page"
// @Failure 415 {object} presenter.ErrorResponse "neither text/html nor text/plain requested"
// @Failure 502 {object} presenter.ErrorResponse "model call failed before any output"
// @Router  /{path} [get]
func (h *PageHandler) Page(c *fiber.Ctx) error {
	media, err := negotiate.Negotiate(c.Get(fiber.HeaderAccept), c.Path())
	if err != nil {
		metrics.RejectedTotal.Inc()
		return presenter.Error(c, http.StatusUnsupportedMediaType, "Unsupported Media Type")
	}
	if c.Method() == fiber.MethodHead {
		c.Set(fiber.HeaderContentType, media.String())
		return c.Status(http.StatusOK).Send(nil)
	}

	// The body is streamed after this handler returns, so keep copies rather
	// than views into fasthttp's request buffers.
	req := page.Request{
		Method: strings.Clone(c.Method()),
		URL:    c.BaseURL() + strings.Clone(c.OriginalURL()),
		Media:  media,
	}
	logger := log.WithFields(log.Fields{
		"page_id": uuid.NewString(),
		"method":  req.Method,
		"url":     req.URL,
		"media":   media.String(),
	})

	ctx, cancel := context.WithCancel(c.UserContext())
	started := time.Now()
	events, err := h.gen.Generate(ctx, req)
	if err != nil {
		cancel()
		return h.fail(c, logger, media, started, err)
	}
	// Wait for the first chunk so a model that fails up front still gets a
	// proper error status instead of an empty 200.
	first, ok := <-events
	if !ok || first.Err != nil {
		cancel()
		if ok {
			err = first.Err
		} else {
			err = errNoOutput
		}
		return h.fail(c, logger, media, started, err)
	}

	metrics.PagesInFlight.Inc()
	body := presenter.NewChunkReader([]byte(first.Text), events, cancel)
	body.OnDone = func(chunks int, err error) {
		metrics.PagesInFlight.Dec()
		metrics.ChunksTotal.Add(float64(chunks))
		result := metrics.ResultCompleted
		entry := logger.WithField("chunks", chunks).WithField("duration", time.Since(started))
		switch {
		case errors.Is(err, context.Canceled):
			result = metrics.ResultCancelled
			entry.Debug("client went away, page abandoned")
		case err != nil:
			result = metrics.ResultFailed
			entry.WithError(err).Error("page stream failed")
		default:
			entry.Info("page generated")
		}
		observe(media, result, started)
	}

	c.Set(fiber.HeaderContentType, media.String())
	return c.Status(http.StatusOK).SendStream(body)
}

func (h *PageHandler) fail(c *fiber.Ctx, logger *log.Entry, media negotiate.MediaType, started time.Time, err error) error {
	logger.WithError(err).Error("page generation failed")
	observe(media, metrics.ResultFailed, started)
	return presenter.Error(c, http.StatusBadGateway, "page generation failed")
}

func observe(media negotiate.MediaType, result string, started time.Time) {
	metrics.PagesTotal.WithLabelValues(media.String(), result).Inc()
	metrics.PageDurationSeconds.WithLabelValues(media.String(), result).Observe(time.Since(started).Seconds())
}
