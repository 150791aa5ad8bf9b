// Copyright 2026 The switchAILocal Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package config

import (
	"github.com/fsnotify/fsnotify"
	log "github.com/sirupsen/logrus"
)

// Watch starts an fsnotify watch on gui_config.json and reloads the live
// snapshot whenever it changes, invoking onChange (if non-nil) after every
// successful reload so callers can re-push mapping tables into the hot
// path (router, upstream proxy client) without a restart. It returns a
// stop function; the caller is responsible for calling it on shutdown.
func (s *Store) Watch(onChange func(ProxyConfig)) (stop func(), err error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := watcher.Add(s.sb.RootPath()); err != nil {
		watcher.Close()
		return nil, err
	}

	done := make(chan struct{})
	go func() {
		for {
			select {
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if event.Name != s.path() {
					continue
				}
				if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
					continue
				}
				if err := s.Reload(); err != nil {
					log.Warnf("config: hot-reload failed: %v", err)
					continue
				}
				if onChange != nil {
					onChange(s.Snapshot())
				}
			case watchErr, ok := <-watcher.Errors:
				if !ok {
					return
				}
				log.Warnf("config: watcher error: %v", watchErr)
			case <-done:
				return
			}
		}
	}()

	return func() {
		close(done)
		watcher.Close()
	}, nil
}
