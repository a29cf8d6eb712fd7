package faq

import "time"

// Config holds runtime knobs for the FAQ service.
type Config struct {
	// NotifyTimeout bounds each doctor notification call. Zero disables the bound.
	NotifyTimeout time.Duration
}
