// Package catalog holds the subscription catalog model and the process-wide
// cache that every reader observes.
package catalog

// Item is one subscription as the provider returns it, optionally enriched
// with channel statistics and branding. The JSON shape follows the provider
// so items can be persisted and exported without translation.
type Item struct {
	ID               string      `json:"id"`
	Snippet          Snippet     `json:"snippet"`
	Statistics       *Statistics `json:"statistics,omitempty"`
	BrandingSettings *Branding   `json:"brandingSettings,omitempty"`
}

// Snippet is the descriptive part of a subscription.
type Snippet struct {
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	PublishedAt string     `json:"publishedAt,omitempty"`
	Thumbnails  Thumbnails `json:"thumbnails"`
	ResourceID  ResourceID `json:"resourceId"`
}

// Thumbnails holds the image sizes the UI uses.
type Thumbnails struct {
	Default *Thumbnail `json:"default,omitempty"`
	Medium  *Thumbnail `json:"medium,omitempty"`
	High    *Thumbnail `json:"high,omitempty"`
}

// Thumbnail is a single image reference.
type Thumbnail struct {
	URL string `json:"url"`
}

// ResourceID identifies the subscribed channel.
type ResourceID struct {
	Kind      string `json:"kind,omitempty"`
	ChannelID string `json:"channelId"`
}

// Statistics are channel counters. The provider encodes them as decimal
// strings, and they are kept that way.
type Statistics struct {
	SubscriberCount string `json:"subscriberCount,omitempty"`
	VideoCount      string `json:"videoCount,omitempty"`
	ViewCount       string `json:"viewCount,omitempty"`
}

// Branding carries the channel banner.
type Branding struct {
	Image *BrandingImage `json:"image,omitempty"`
}

// BrandingImage is the banner image of a channel.
type BrandingImage struct {
	BannerExternalURL string `json:"bannerExternalUrl,omitempty"`
}

// Details is a single channel looked up on demand.
type Details struct {
	ChannelID        string      `json:"id"`
	Snippet          Snippet     `json:"snippet"`
	Statistics       *Statistics `json:"statistics,omitempty"`
	BrandingSettings *Branding   `json:"brandingSettings,omitempty"`
}

// ChannelID returns the id of the subscribed channel.
func (it Item) ChannelID() string { return it.Snippet.ResourceID.ChannelID }

// Clone returns a deep copy of it.
func (it Item) Clone() Item {
	out := it
	out.Snippet.Thumbnails = it.Snippet.Thumbnails.clone()
	if it.Statistics != nil {
		s := *it.Statistics
		out.Statistics = &s
	}
	if it.BrandingSettings != nil {
		b := *it.BrandingSettings
		if b.Image != nil {
			img := *b.Image
			b.Image = &img
		}
		out.BrandingSettings = &b
	}
	return out
}

func (t Thumbnails) clone() Thumbnails {
	cp := func(p *Thumbnail) *Thumbnail {
		if p == nil {
			return nil
		}
		v := *p
		return &v
	}
	return Thumbnails{Default: cp(t.Default), Medium: cp(t.Medium), High: cp(t.High)}
}
