// Package capture flattens a profile snapshot into a single downloadable
// trophy card image. It inlines every remote image, composes the card and
// tries an ordered list of renderer strategies until one produces pixels.
package capture

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	cardmodel "github.com/Urbandonment/trophy-forge/internal/model/card"
	profilemodel "github.com/Urbandonment/trophy-forge/internal/model/profile"
	proxymodel "github.com/Urbandonment/trophy-forge/internal/model/proxy"
)

// ErrCaptureFailed is returned when every renderer strategy failed.
var ErrCaptureFailed = errors.New("card capture failed")

// Renderer rasterizes a composed card document into image bytes. Strategies
// are tried in order; each owns and tears down its temporary state.
type Renderer interface {
	Name() string
	Render(ctx context.Context, doc *Document) ([]byte, error)
}

// ImageFetcher pulls a remote image through the proxy pipeline, yielding
// normalized bytes safe to embed.
type ImageFetcher interface {
	Proxy(ctx context.Context, rawURL string) (proxymodel.TransformedImage, error)
}

// Service orchestrates the capture pipeline.
type Service struct {
	fetcher      ImageFetcher
	renderers    []Renderer
	imageTimeout time.Duration
	scale        float64
}

// NewService builds the capture service. Renderers are tried in the order
// given.
func NewService(fetcher ImageFetcher, renderers []Renderer, imageTimeout time.Duration, scale float64) *Service {
	if imageTimeout <= 0 {
		imageTimeout = 5 * time.Second
	}
	if scale <= 0 {
		scale = 2
	}
	return &Service{
		fetcher:      fetcher,
		renderers:    renderers,
		imageTimeout: imageTimeout,
		scale:        scale,
	}
}

// Capture renders a trophy card for the snapshot. report, when non-nil,
// receives one Progress per stage. A remote image that fails or times out is
// skipped, never fatal; only all renderers failing aborts the capture.
func (s *Service) Capture(ctx context.Context, snapshot profilemodel.Snapshot, opts cardmodel.CaptureOptions, report func(cardmodel.Progress)) (cardmodel.Artifact, error) {
	if len(s.renderers) == 0 {
		return cardmodel.Artifact{}, fmt.Errorf("%w: no renderers configured", ErrCaptureFailed)
	}

	// The configured scale fills in only when the caller left it unset.
	if opts.Scale <= 0 {
		opts.Scale = s.scale
	}
	opts = opts.Defaults()

	notify(report, cardmodel.StageInlineImages, "")
	doc := s.compose(ctx, snapshot, opts)

	notify(report, cardmodel.StageCompose, "")
	doc.BackgroundPlacement = CoverPlacement(doc.Background.Width, doc.Background.Height, opts.Width, opts.Height)

	var lastErr error
	for _, renderer := range s.renderers {
		notify(report, cardmodel.StageRender, renderer.Name())
		data, err := renderer.Render(ctx, doc)
		if err != nil {
			log.Printf("[capture] renderer %s failed: %v", renderer.Name(), err)
			lastErr = err
			continue
		}

		artifact := cardmodel.Artifact{
			Filename: artifactFilename(snapshot.OnlineID),
			MIMEType: "image/png",
			Data:     data,
		}
		notify(report, cardmodel.StageDone, artifact.Filename)
		return artifact, nil
	}

	return cardmodel.Artifact{}, fmt.Errorf("%w: %v", ErrCaptureFailed, lastErr)
}

// compose pulls every remote card image through the pipeline concurrently,
// each bounded by its own timeout, and assembles the document. Failed images
// are left empty.
func (s *Service) compose(ctx context.Context, snapshot profilemodel.Snapshot, opts cardmodel.CaptureOptions) *Document {
	doc := &Document{
		Snapshot: snapshot,
		Options:  opts,
		Logos:    make([]InlineImage, len(snapshot.RecentTitleLogoURLs)),
	}

	var wg sync.WaitGroup
	inline := func(rawURL string, slot *InlineImage) {
		defer wg.Done()
		if rawURL == "" {
			return
		}
		imgCtx, cancel := context.WithTimeout(ctx, s.imageTimeout)
		defer cancel()

		fetched, err := s.fetcher.Proxy(imgCtx, rawURL)
		if err != nil {
			log.Printf("[capture] proceeding without image %s: %v", rawURL, err)
			return
		}
		inlined, err := newInlineImage(fetched.MIMEType, fetched.Payload)
		if err != nil {
			log.Printf("[capture] proceeding without image %s: %v", rawURL, err)
			return
		}
		*slot = inlined
	}

	wg.Add(2 + len(snapshot.RecentTitleLogoURLs))
	go inline(snapshot.AvatarURL, &doc.Avatar)
	go inline(snapshot.LastPlayedCoverImageURL, &doc.Background)
	for i, logoURL := range snapshot.RecentTitleLogoURLs {
		go inline(logoURL, &doc.Logos[i])
	}
	wg.Wait()

	return doc
}

func notify(report func(cardmodel.Progress), stage, detail string) {
	if report != nil {
		report(cardmodel.Progress{Stage: stage, Detail: detail})
	}
}

// artifactFilename builds a safe, unique download name.
func artifactFilename(onlineID string) string {
	safe := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		default:
			return '-'
		}
	}, onlineID)
	if safe == "" {
		safe = "player"
	}
	return fmt.Sprintf("trophy-card-%s-%s.png", safe, uuid.NewString()[:8])
}
