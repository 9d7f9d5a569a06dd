// Package notify emits optimization events through an external mail
// transport. Sends are rate-limited by a cooldown window recorded in a
// single timestamp file, preventing notification storms when hardware
// metrics flap. Notification is a convenience, not a correctness
// requirement: an unconfigured transport degrades to a reported no-op.
package notify

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"gopkg.in/gomail.v2"

	"github.com/Mola-TT/hwtune/pkg/hwtune/logging"
)

// Event is a notification event type.
type Event string

// Supported events. Anything else is an invalid-argument error.
const (
	// EventDetected announces a material hardware change before optimization.
	EventDetected Event = "detected"

	// EventOptimized announces a completed optimization run.
	EventOptimized Event = "optimized"

	// EventTest exercises the transport end to end without a hardware change.
	EventTest Event = "test"
)

// ErrInvalidEvent is returned for an unrecognized event type.
var ErrInvalidEvent = errors.New("invalid notification event")

// Config configures the notifier. Host, From, and To are required for a
// working transport; when any is missing the notifier no-ops.
type Config struct {
	SMTPHost     string
	SMTPPort     int
	Username     string
	Password     string
	From         string
	To           []string
	Cooldown     time.Duration
	CooldownPath string
}

// Sender delivers a rendered message. The production sender dials SMTP;
// tests substitute a recorder.
type Sender interface {
	Send(subject, body string) error
}

// Result reports what happened to a notification request. A skipped
// notification is explicitly reported, never silently dropped.
type Result struct {
	Sent    bool
	Skipped bool
	Reason  string
}

// Notifier sends cooldown-gated notifications.
type Notifier struct {
	cfg    Config
	sender Sender
	now    func() time.Time
	log    *logging.Logger
}

// New creates a Notifier. When the transport is not configured the returned
// notifier still works; every Notify reports a skip.
func New(cfg Config) *Notifier {
	n := &Notifier{
		cfg: cfg,
		now: time.Now,
		log: logging.Get("notify"),
	}
	if n.configured() {
		n.sender = &smtpSender{cfg: cfg}
	}
	return n
}

// NewWithSender creates a Notifier with an explicit transport.
func NewWithSender(cfg Config, sender Sender) *Notifier {
	return &Notifier{
		cfg:    cfg,
		sender: sender,
		now:    time.Now,
		log:    logging.Get("notify"),
	}
}

func (n *Notifier) configured() bool {
	return n.cfg.SMTPHost != "" && n.cfg.From != "" && len(n.cfg.To) > 0
}

// Notify sends one notification, subject to the cooldown window. Details are
// rendered into the message body as sorted "key: value" lines.
func (n *Notifier) Notify(event Event, details map[string]string) (Result, error) {
	switch event {
	case EventDetected, EventOptimized, EventTest:
	default:
		return Result{}, fmt.Errorf("%w: %q", ErrInvalidEvent, string(event))
	}

	if n.sender == nil {
		n.log.Info("notification skipped", "event", event, "reason", "transport not configured")
		return Result{Skipped: true, Reason: "transport not configured"}, nil
	}

	if last, ok := n.lastSent(); ok {
		elapsed := n.now().Sub(last)
		if elapsed < n.cfg.Cooldown {
			reason := fmt.Sprintf("cooldown active, %s until next window", (n.cfg.Cooldown - elapsed).Round(time.Second))
			n.log.Info("notification skipped", "event", event, "reason", reason)
			return Result{Skipped: true, Reason: reason}, nil
		}
	}

	subject, body := render(event, details)
	if err := n.sender.Send(subject, body); err != nil {
		return Result{}, fmt.Errorf("sending %s notification: %w", event, err)
	}

	if err := n.recordSent(); err != nil {
		// The message went out; a failed cooldown write only risks an
		// extra notification next time.
		n.log.Warn("failed to record cooldown timestamp", "error", err)
	}

	n.log.Info("notification sent", "event", event, "recipients", len(n.cfg.To))
	return Result{Sent: true}, nil
}

// lastSent reads the cooldown file. A missing or unparsable file means no
// prior notification.
func (n *Notifier) lastSent() (time.Time, bool) {
	if n.cfg.CooldownPath == "" {
		return time.Time{}, false
	}
	data, err := os.ReadFile(n.cfg.CooldownPath)
	if err != nil {
		return time.Time{}, false
	}
	t, err := time.Parse(time.RFC3339, strings.TrimSpace(string(data)))
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// recordSent overwrites the cooldown file with the current timestamp.
// Last write wins; no history is retained.
func (n *Notifier) recordSent() error {
	if n.cfg.CooldownPath == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(n.cfg.CooldownPath), 0o755); err != nil {
		return err
	}
	stamp := n.now().UTC().Format(time.RFC3339)
	tmpPath := n.cfg.CooldownPath + ".tmp"
	if err := os.WriteFile(tmpPath, []byte(stamp+"\n"), 0o644); err != nil {
		return err
	}
	if err := os.Rename(tmpPath, n.cfg.CooldownPath); err != nil {
		_ = os.Remove(tmpPath)
		return err
	}
	return nil
}

// render builds the message subject and body for an event.
func render(event Event, details map[string]string) (subject, body string) {
	host := details["hostname"]
	if host == "" {
		host, _ = os.Hostname()
	}

	switch event {
	case EventDetected:
		subject = fmt.Sprintf("[hwtune] hardware change detected on %s", host)
	case EventOptimized:
		subject = fmt.Sprintf("[hwtune] configuration optimized on %s", host)
	case EventTest:
		subject = fmt.Sprintf("[hwtune] test notification from %s", host)
	}

	keys := make([]string, 0, len(details))
	for k := range details {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	fmt.Fprintf(&b, "Event: %s\n\n", event)
	for _, k := range keys {
		fmt.Fprintf(&b, "%s: %s\n", k, details[k])
	}
	return subject, b.String()
}

// smtpSender delivers messages over SMTP via gomail.
type smtpSender struct {
	cfg Config
}

func (s *smtpSender) Send(subject, body string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.cfg.From)
	m.SetHeader("To", s.cfg.To...)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", body)

	d := gomail.NewDialer(s.cfg.SMTPHost, s.cfg.SMTPPort, s.cfg.Username, s.cfg.Password)
	return d.DialAndSend(m)
}
