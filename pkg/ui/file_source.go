package ui

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"github.com/pelletier/go-toml/v2"

	"github.com/df07/go-atmosphere/pkg/core"
)

// FileSource reads edits from a TOML file and re-reads it whenever it
// changes on disk:
//
//	kr = 0.003
//	atmosphere_radius = 10.5
//	sun_orbit_enabled = true
type FileSource struct {
	path    string
	logger  core.Logger
	watcher *fsnotify.Watcher
	queue   *ChannelSource
	done    chan struct{}
}

// NewFileSource loads path once and starts watching it. The directory is
// watched rather than the file so editors that replace the file on save
// keep working.
func NewFileSource(path string, logger core.Logger) (*FileSource, error) {
	path = filepath.Clean(path)
	s := &FileSource{
		path:   path,
		logger: logger,
		queue:  NewChannelSource(16),
		done:   make(chan struct{}),
	}

	edits, err := ReadEditsFile(path)
	if err != nil {
		return nil, err
	}
	s.queue.PushEdits(edits)

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("watch %s: %w", path, err)
	}
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("watch %s: %w", path, err)
	}
	s.watcher = watcher

	go s.watch()
	return s, nil
}

// ReadEditsFile decodes a TOML edits file. Unknown keys are an error.
func ReadEditsFile(path string) (Edits, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Edits{}, fmt.Errorf("read edits: %w", err)
	}

	var edits Edits
	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&edits); err != nil {
		return Edits{}, fmt.Errorf("decode %s: %w", path, err)
	}
	return edits, nil
}

func (s *FileSource) watch() {
	for {
		select {
		case <-s.done:
			return
		case event, ok := <-s.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != s.path {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			edits, err := ReadEditsFile(s.path)
			if err != nil {
				// Half-written files show up here; the next write event retries
				s.logger.Printf("Ignoring parameter file: %v", err)
				continue
			}
			if !s.queue.PushEdits(edits) {
				s.logger.Printf("Parameter file edits dropped: queue full")
			}
		case err, ok := <-s.watcher.Errors:
			if !ok {
				return
			}
			s.logger.Printf("Parameter file watcher: %v", err)
		}
	}
}

// Poll returns the edits read since the last poll
func (s *FileSource) Poll() Batch {
	return s.queue.Poll()
}

// Close stops watching the file
func (s *FileSource) Close() error {
	close(s.done)
	return s.watcher.Close()
}
