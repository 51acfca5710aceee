package ui

import (
	"embed"
)

//go:embed templates/* static/* docs/*
var embeddedFiles embed.FS

// EmbeddedFiles exposes the UI assets for callers that mount them
// elsewhere (tests, the ops server).
func EmbeddedFiles() embed.FS {
	return embeddedFiles
}
