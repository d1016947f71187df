package main

import (
	"io"
	"sync"
)

// switchWriter is an io.Writer whose destination can be replaced, so log
// output can move behind the line editor once the shell starts.
type switchWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (s *switchWriter) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.w.Write(p)
}

// Set replaces the destination.
func (s *switchWriter) Set(w io.Writer) {
	s.mu.Lock()
	s.w = w
	s.mu.Unlock()
}
