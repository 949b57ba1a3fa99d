// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package vinput

import (
	"errors"
	"io"
	"sync"
)

// ErrClosed is returned by Write once the actor has been closed.
var ErrClosed = errors.New("virtual input closed")

// =============================================================================
// REQUESTS
// =============================================================================

type requestKind int

const (
	reqReadLine requestKind = iota
	reqReadN
	reqWrite
	reqRemaining
)

type request struct {
	kind   requestKind
	prompt string
	n      int
	data   []byte
	reply  chan response
}

type response struct {
	text  string
	n     int
	lines []string
	err   error
}

// =============================================================================
// ACTOR
// =============================================================================

// Actor serves scripted input lines to exactly one command execution.
// All methods are safe for concurrent use.
type Actor struct {
	requests  chan request
	done      chan struct{}
	stopped   chan struct{}
	closeOnce sync.Once

	// pending holds the unread tail of a line for Read.
	mu      sync.Mutex
	pending []byte
}

// state is owned by the actor goroutine.
type state struct {
	lines   []string
	cursor  int
	partial *string // unconsumed remainder of lines[cursor] after ReadN
	out     io.Writer
}

// Start launches an actor replaying lines. Writes, including prompts, are
// forwarded to out unchanged; a nil out discards them.
func Start(lines []string, out io.Writer) *Actor {
	if out == nil {
		out = io.Discard
	}
	a := &Actor{
		requests: make(chan request),
		done:     make(chan struct{}),
		stopped:  make(chan struct{}),
	}
	st := &state{
		lines: append([]string(nil), lines...),
		out:   out,
	}
	go a.loop(st)
	return a
}

func (a *Actor) loop(st *state) {
	defer close(a.stopped)
	for {
		select {
		case <-a.done:
			return
		case req := <-a.requests:
			req.reply <- st.handle(req)
		}
	}
}

// call delivers req and waits for the reply. Once the actor has accepted a
// request it always answers, so only the send needs to watch for shutdown.
func (a *Actor) call(req request) (response, bool) {
	req.reply = make(chan response, 1)
	select {
	case a.requests <- req:
		return <-req.reply, true
	case <-a.done:
		return response{}, false
	}
}

// ReadLine writes prompt and returns the next scripted line with a trailing
// "\n". It returns io.EOF once every line has been consumed, and keeps
// returning io.EOF on later calls.
func (a *Actor) ReadLine(prompt string) (string, error) {
	resp, ok := a.call(request{kind: reqReadLine, prompt: prompt})
	if !ok {
		return "", io.EOF
	}
	return resp.text, resp.err
}

// ReadN returns at most n characters of the current line. When the rest of
// the line fits, the cursor advances and "\n" is appended; otherwise the
// unread part is kept for the next call. n <= 0 behaves like ReadLine.
func (a *Actor) ReadN(n int) (string, error) {
	if n <= 0 {
		return a.ReadLine("")
	}
	resp, ok := a.call(request{kind: reqReadN, n: n})
	if !ok {
		return "", io.EOF
	}
	return resp.text, resp.err
}

// Write forwards p to the real output sink.
func (a *Actor) Write(p []byte) (int, error) {
	resp, ok := a.call(request{kind: reqWrite, data: p})
	if !ok {
		return 0, ErrClosed
	}
	return resp.n, resp.err
}

// Read implements io.Reader over the scripted lines.
func (a *Actor) Read(p []byte) (int, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if len(a.pending) == 0 {
		line, err := a.ReadLine("")
		if err != nil {
			return 0, err
		}
		a.pending = []byte(line)
	}
	n := copy(p, a.pending)
	a.pending = a.pending[n:]
	return n, nil
}

// Remaining returns the lines not yet consumed. A partially read line is
// reported as its unread remainder.
func (a *Actor) Remaining() []string {
	resp, ok := a.call(request{kind: reqRemaining})
	if !ok {
		return nil
	}
	return resp.lines
}

// Close stops the actor goroutine and waits for it to exit. It is safe to
// call more than once; reads after Close return io.EOF.
func (a *Actor) Close() error {
	a.closeOnce.Do(func() {
		close(a.done)
	})
	<-a.stopped
	return nil
}

// =============================================================================
// REQUEST HANDLING
// =============================================================================

func (st *state) handle(req request) response {
	switch req.kind {
	case reqReadLine:
		if req.prompt != "" {
			io.WriteString(st.out, req.prompt)
		}
		line, ok := st.current()
		if !ok {
			return response{err: io.EOF}
		}
		st.advance()
		return response{text: line + "\n"}

	case reqReadN:
		line, ok := st.current()
		if !ok {
			return response{err: io.EOF}
		}
		runes := []rune(line)
		if req.n >= len(runes) {
			st.advance()
			return response{text: line + "\n"}
		}
		rest := string(runes[req.n:])
		st.partial = &rest
		return response{text: string(runes[:req.n])}

	case reqWrite:
		n, err := st.out.Write(req.data)
		return response{n: n, err: err}

	case reqRemaining:
		if st.cursor >= len(st.lines) {
			return response{lines: []string{}}
		}
		rest := append([]string(nil), st.lines[st.cursor:]...)
		if st.partial != nil {
			rest[0] = *st.partial
		}
		return response{lines: rest}
	}
	return response{err: errors.New("unknown request")}
}

func (st *state) current() (string, bool) {
	if st.cursor >= len(st.lines) {
		return "", false
	}
	if st.partial != nil {
		return *st.partial, true
	}
	return st.lines[st.cursor], true
}

func (st *state) advance() {
	st.cursor++
	st.partial = nil
}
