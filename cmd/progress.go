package main

import (
	"github.com/desertthunder/plsplit/internal/tasks"
)

// progressBuffer bounds how far the printer may lag behind; later updates are dropped.
const progressBuffer = 50

// startProgress prints task progress to the output until the returned stop func is called.
// stop waits for the printer to drain, so output written after it is never interleaved.
func (r *Runner) startProgress() (chan<- tasks.ProgressUpdate, func()) {
	progressCh := make(chan tasks.ProgressUpdate, progressBuffer)
	done := make(chan struct{})

	go func() {
		defer close(done)
		for update := range progressCh {
			switch update.Phase {
			case tasks.EnrichTracks:
				r.writePlain("   %s\n", update.Message)
			case tasks.FetchDest:
				r.writePlain("📥 %s\n", update.Message)
			case tasks.CreatePlaylist:
				r.writePlain("📝 %s\n", update.Message)
			case tasks.AddTracks:
				r.writePlain("➕ %s\n", update.Message)
			}
		}
	}()

	return progressCh, func() {
		close(progressCh)
		<-done
	}
}
