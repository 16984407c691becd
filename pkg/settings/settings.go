// Package settings holds the showroom's site-wide settings that the chat
// widget reads for its header.
package settings

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/City-Bureau/showroomchat/pkg/storage"
)

// Key is the storage key for persisted site settings
const Key = "site_settings"

// Site is the editable site identity
type Site struct {
	SiteName        string `json:"siteName" yaml:"site_name"`
	SiteDescription string `json:"siteDescription" yaml:"site_description"`
	Phone           string `json:"phone" yaml:"phone"`
	WhatsApp        string `json:"whatsapp" yaml:"whatsapp"`
}

// Provider exposes the read-only site name consumed by the chat widget
type Provider interface {
	SiteName() string
}

// Defaults returns the settings a fresh install starts with
func Defaults() Site {
	return Site{
		SiteName:        "دار الأثاث",
		SiteDescription: "معرض متخصص في الأثاث العربي الفاخر والتصاميم العصرية",
		Phone:           "+966 50 123 4567",
		WhatsApp:        "966501234567",
	}
}

// WithDefaults fills blank fields from Defaults
func (s Site) WithDefaults() Site {
	return s.withDefaults(Defaults())
}

// withDefaults fills blank fields from fallback
func (s Site) withDefaults(fallback Site) Site {
	if s.SiteName == "" {
		s.SiteName = fallback.SiteName
	}
	if s.SiteDescription == "" {
		s.SiteDescription = fallback.SiteDescription
	}
	if s.Phone == "" {
		s.Phone = fallback.Phone
	}
	if s.WhatsApp == "" {
		s.WhatsApp = fallback.WhatsApp
	}
	return s
}

// Store persists Site in a storage.KV
type Store struct {
	kv       storage.KV
	fallback Site
	logger   *slog.Logger
}

// NewStore creates a Store. Blank fields in fallback are taken from Defaults.
func NewStore(kv storage.KV, fallback Site, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{kv: kv, fallback: fallback.WithDefaults(), logger: logger}
}

// Load returns the stored settings, falling back field by field to the
// configured defaults. It never fails.
func (s *Store) Load() Site {
	raw, err := s.kv.Get(Key)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			s.logger.Warn("settings: load", "error", err)
		}
		return s.fallback
	}
	var site Site
	if err := json.Unmarshal([]byte(raw), &site); err != nil {
		s.logger.Warn("settings: discarding undecodable settings", "error", err)
		return s.fallback
	}
	return site.withDefaults(s.fallback)
}

// Save overwrites the stored settings
func (s *Store) Save(site Site) error {
	data, err := json.Marshal(site)
	if err != nil {
		return fmt.Errorf("settings: encode: %w", err)
	}
	if err := s.kv.Set(Key, string(data)); err != nil {
		return fmt.Errorf("settings: save: %w", err)
	}
	return nil
}

// SiteName implements Provider, reading the latest stored value
func (s *Store) SiteName() string {
	return s.Load().SiteName
}

// Static is a Provider with a fixed name
type Static string

func (s Static) SiteName() string { return string(s) }
