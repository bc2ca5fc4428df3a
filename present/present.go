// Package present turns errors into operator-facing notices.
package present

import (
	"errors"
	"io"
	"regexp"

	"ec-console/apperror"
	"ec-console/ledger"

	"github.com/charmbracelet/log"
)

var identifier = regexp.MustCompile(ledger.IDPattern)

// Highlight passes every identifier in msg through wrap. All other bytes
// are left as they are.
func Highlight(msg string, wrap func(string) string) string {
	return identifier.ReplaceAllStringFunc(msg, wrap)
}

// Notice titles, one per error origin.
const (
	TitleValidation  = "Invalid input"
	TitleApplication = "Node reported an error"
	TitleTransport   = "Node unreachable"
	TitleUnknown     = "Error"
)

// Notice is what the modal shows.
type Notice struct {
	Kind  apperror.Kind
	Title string
	Body  string
}

// Presenter builds notices and remembers the one on screen.
type Presenter struct {
	logger  *log.Logger
	wrap    func(string) string
	current *Notice
}

// New returns a Presenter that logs to logger and styles identifiers with
// wrap. Either may be nil.
func New(logger *log.Logger, wrap func(string) string) *Presenter {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	if wrap == nil {
		wrap = func(s string) string { return "`" + s + "`" }
	}
	return &Presenter{logger: logger, wrap: wrap}
}

// Present shows err, replacing any notice still on screen.
func (p *Presenter) Present(err error) Notice {
	n := Notice{Kind: apperror.KindOf(err), Body: p.body(err)}
	switch n.Kind {
	case apperror.KindValidation:
		n.Title = TitleValidation
		p.logger.Warn(n.Title, "err", err)
	case apperror.KindApplication:
		n.Title = TitleApplication
		p.logger.Error(n.Title, "err", err)
	case apperror.KindTransport:
		n.Title = TitleTransport
		p.logger.Error(n.Title, "err", err)
	default:
		n.Title = TitleUnknown
		p.logger.Error(n.Title, "err", err)
	}
	p.current = &n
	return n
}

func (p *Presenter) body(err error) string {
	if err == nil {
		return ""
	}
	msg := err.Error()
	var e *apperror.Error
	if errors.As(err, &e) {
		switch e.Kind {
		case apperror.KindApplication:
			msg = e.Message
			if e.Action != "" {
				msg = e.Action + ": " + msg
			}
		case apperror.KindTransport:
			msg = "The request may not have reached the node. " + e.Error()
		}
	}
	return Highlight(msg, p.wrap)
}

// Current returns the notice on screen, if any.
func (p *Presenter) Current() (Notice, bool) {
	if p.current == nil {
		return Notice{}, false
	}
	return *p.current, true
}

// Dismiss clears the notice on screen.
func (p *Presenter) Dismiss() {
	p.current = nil
}
