package unsplash

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"ArxivDigest/internal/domain"
	"ArxivDigest/internal/infrastructure/imaging"
	"ArxivDigest/internal/ports"
)

const homeURL = "https://unsplash.com/"

// Provisioner implements ports.ImageProvider: search, track, download, resize.
type Provisioner struct {
	client    *Client
	utmSource string
	logger    *slog.Logger
}

var _ ports.ImageProvider = (*Provisioner)(nil)

// NewProvisioner attaches attribution settings to a client.
func NewProvisioner(client *Client, utmSource string, logger *slog.Logger) *Provisioner {
	return &Provisioner{client: client, utmSource: utmSource, logger: logger}
}

// Provide returns a resized photo for keyword. Featured photos are landscape
// and larger; thumbnails are squarish.
func (p *Provisioner) Provide(ctx context.Context, keyword string, featured bool) (*domain.Photo, error) {
	if p == nil || p.client == nil {
		return nil, fmt.Errorf("unsplash provisioner is nil")
	}

	orientation, box := Squarish, imaging.ThumbnailBox
	if featured {
		orientation, box = Landscape, imaging.FeaturedBox
	}

	result, err := p.client.SearchOne(ctx, keyword, orientation)
	if err != nil {
		return nil, err
	}
	if result == nil {
		if p.logger != nil {
			p.logger.Info("no photo found", "keyword", keyword)
		}
		return nil, nil
	}

	source := result.URLs.Small
	if featured {
		source = result.URLs.Regular
	}
	if source == "" {
		return nil, fmt.Errorf("photo %s has no usable url", result.ID)
	}

	if err := p.client.TrackDownload(ctx, result.Links.DownloadLocation); err != nil && p.logger != nil {
		p.logger.Warn("download tracking failed", "photo", result.ID, "error", err)
	}

	raw, err := p.client.Fetch(ctx, source)
	if err != nil {
		return nil, err
	}
	data, err := imaging.Thumbnail(raw, box)
	if err != nil {
		return nil, fmt.Errorf("resize photo %s: %w", result.ID, err)
	}

	alt := result.AltDescription
	if alt == "" {
		alt = result.Description
	}
	if alt == "" {
		alt = keyword
	}

	return &domain.Photo{
		ID:           result.ID,
		Data:         data,
		AltText:      alt,
		Photographer: result.User.Name,
		ProfileURL:   p.withUTM(result.User.Links.HTML),
		ProviderURL:  p.withUTM(homeURL),
	}, nil
}

func (p *Provisioner) withUTM(link string) string {
	if link == "" {
		return ""
	}
	sep := "?"
	if strings.Contains(link, "?") {
		sep = "&"
	}
	return link + sep + "utm_source=" + url.QueryEscape(p.utmSource) + "&utm_medium=referral"
}
