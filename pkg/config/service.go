package config

// PublicConfig is the subset of the config that is safe to expose over the
// API. Durations are rendered the way time.ParseDuration reads them.
type PublicConfig struct {
	FeedURL                   string `json:"feed_url"`
	RefreshInterval           string `json:"refresh_interval"`
	CoversEnabled             bool   `json:"covers_enabled"`
	CoverInterval             string `json:"cover_interval"`
	CoverErrorWaitPeriod      string `json:"cover_error_wait_period"`
	CoverFailuresBeforeDelete int    `json:"cover_failures_before_delete"`
}

type Service struct {
	config *Config
}

func NewService(cfg *Config) *Service {
	return &Service{config: cfg}
}

func (s *Service) RetrievePublicConfig() *PublicConfig {
	return &PublicConfig{
		FeedURL:                   s.config.FeedURL,
		RefreshInterval:           s.config.RefreshInterval.String(),
		CoversEnabled:             s.config.CoversURL != "",
		CoverInterval:             s.config.CoverInterval.String(),
		CoverErrorWaitPeriod:      s.config.CoverErrorWaitPeriod.String(),
		CoverFailuresBeforeDelete: s.config.CoverFailuresBeforeDelete,
	}
}
