package client

import "time"

// Health mirrors the admin /health response.
type Health struct {
	OK                  bool   `json:"ok"`
	ConsecutiveFailures int    `json:"consecutive_failures"`
	FailureThreshold    int    `json:"failure_threshold"`
	LastProbeError      string `json:"last_probe_error,omitempty"`
}

// AppStatus mirrors the supervised application portion of /status.
type AppStatus struct {
	Name      string    `json:"name"`
	Running   bool      `json:"running"`
	PID       int       `json:"pid"`
	StartedAt time.Time `json:"started_at"`
	StoppedAt time.Time `json:"stopped_at,omitempty"`
}

// Status mirrors the admin /status response.
type Status struct {
	App                 AppStatus `json:"app"`
	Display             string    `json:"display,omitempty"`
	DisplayPID          int       `json:"display_pid,omitempty"`
	ConsecutiveFailures int       `json:"consecutive_failures"`
	FailureThreshold    int       `json:"failure_threshold"`
	LastProbeAt         time.Time `json:"last_probe_at,omitempty"`
	LastProbeError      string    `json:"last_probe_error,omitempty"`
	Check               string    `json:"check"`
	HelpersAdjusted     int       `json:"helpers_adjusted_total"`
	AdjusterDisabled    bool      `json:"adjuster_disabled"`
	Terminal            bool      `json:"terminal"`
}

// ErrorResponse represents an API error response.
type ErrorResponse struct {
	Error string `json:"error"`
}
