package main

import "time"

// GlobalFlags holds persistent flags shared by all commands.
type GlobalFlags struct {
	ConfigPath string
}

// RunFlags holds overrides for the run/launch commands. A flag only overrides
// the config file value when it was explicitly set.
type RunFlags struct {
	AppCommand   string
	HealthURL    string
	Interval     time.Duration
	Timeout      time.Duration
	Threshold    int
	Grace        time.Duration
	NoDisplay    bool
	HistoryStore string
	Serve        bool
	Listen       string
}

// StatusFlags holds flags for the status command.
type StatusFlags struct {
	APIUrl     string
	APITimeout time.Duration
	Insecure   bool
}
