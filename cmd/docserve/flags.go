package main

import "time"

// GlobalFlags holds persistent flags shared by all commands.
type GlobalFlags struct {
	ConfigPath string
}

// StartFlags holds flags for the start command.
type StartFlags struct {
	Command   string
	Port      int
	OutputDir string
	StartWait time.Duration
}

// StopFlags holds flags for the stop command.
type StopFlags struct {
	Port     int
	StopWait time.Duration
}

// StatusFlags holds flags for the status command.
type StatusFlags struct {
	Port     int
	Detailed bool
}

// ServeFlags holds flags for the serve command.
type ServeFlags struct {
	Listen  string
	Workers int
}

// ParseFlags holds flags for the parse command.
type ParseFlags struct {
	APIUrl     string
	APITimeout time.Duration
	UseCache   bool
	Format     string
	Output     string
}
