package notify

import (
	"context"
	"fmt"
	"net/smtp"
	"strconv"
	"strings"

	"github.com/dev-tams/assetsweep/internal/classify"
	"github.com/dev-tams/assetsweep/internal/config"
)

type emailNotifier struct {
	addr string
	from string
	to   []string
	auth smtp.Auth
	send func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

func NewEmail(cfg config.NotificationDetails) (Notifier, error) {
	host := strings.TrimSpace(cfg.SMTPHost)
	from := strings.TrimSpace(cfg.From)
	switch {
	case host == "":
		return nil, fmt.Errorf("config.smtp_host is required")
	case cfg.SMTPPort <= 0:
		return nil, fmt.Errorf("config.smtp_port must be > 0")
	case from == "":
		return nil, fmt.Errorf("config.from is required")
	}

	var to []string
	for _, p := range strings.Split(cfg.To, ",") {
		if p = strings.TrimSpace(p); p != "" {
			to = append(to, p)
		}
	}
	if len(to) == 0 {
		return nil, fmt.Errorf("config.to must include at least one recipient")
	}

	user, pass := strings.TrimSpace(cfg.Username), strings.TrimSpace(cfg.Password)
	if (user == "") != (pass == "") {
		return nil, fmt.Errorf("config.username and config.password must be set together")
	}
	var auth smtp.Auth
	if user != "" {
		auth = smtp.PlainAuth("", user, pass, host)
	}

	return &emailNotifier{
		addr: host + ":" + strconv.Itoa(cfg.SMTPPort),
		from: from,
		to:   to,
		auth: auth,
		send: smtp.SendMail,
	}, nil
}

func (e *emailNotifier) Notify(ctx context.Context, event Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	msg := strings.Join([]string{
		"From: " + e.from,
		"To: " + strings.Join(e.to, ", "),
		"Subject: " + emailSubject(event),
		"MIME-Version: 1.0",
		"Content-Type: text/plain; charset=UTF-8",
		"",
		emailBody(event),
	}, "\r\n")

	if err := e.send(e.addr, e.auth, e.from, e.to, []byte(msg)); err != nil {
		return fmt.Errorf("send mail: %w", err)
	}
	return nil
}

func emailSubject(ev Event) string {
	verb := "deleted"
	if ev.DryRun {
		verb = "would delete"
	}
	switch ev.Status {
	case StatusFailure:
		return fmt.Sprintf("[assetsweep] %s failed", ev.Mode)
	case StatusPartial:
		return fmt.Sprintf("[assetsweep] %s: %s %d, %d delete errors", ev.Mode, verb, ev.Deleted, ev.Errors)
	default:
		return fmt.Sprintf("[assetsweep] %s: %s %d of %d scanned", ev.Mode, verb, ev.Deleted, ev.Scanned)
	}
}

func emailBody(ev Event) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Run %s (%s, status %s", ev.RunID, ev.Mode, ev.Status)
	if ev.DryRun {
		b.WriteString(", dry run")
	}
	b.WriteString(")\n\n")

	fmt.Fprintf(&b, "scanned  %d\nmatched  %d\ndeleted  %d\nskipped  %d (max deletions reached)\nerrors   %d\n",
		ev.Scanned, ev.Found, ev.Deleted, ev.Skipped, ev.Errors)
	if ev.StorageSaved != "" {
		fmt.Fprintf(&b, "saved    %s\n", ev.StorageSaved)
	}
	fmt.Fprintf(&b, "took     %s\n", ev.Duration)
	if ev.Error != "" {
		fmt.Fprintf(&b, "\nerror: %s\n", ev.Error)
	}

	if len(ev.Reasons) > 0 {
		b.WriteString("\nBy reason:\n")
		for _, r := range ev.Reasons {
			fmt.Fprintf(&b, "  %5d  %-10s %s\n", r.Count, classify.FormatBytes(r.Bytes), r.Reason)
		}
	}
	if len(ev.Sample) > 0 {
		b.WriteString("\nFirst assets:\n")
		for _, it := range ev.Sample {
			fmt.Fprintf(&b, "  %s  %s\n", it.Key, it.Reason)
		}
	}
	if len(ev.Failures) > 0 {
		b.WriteString("\nFailed deletes:\n")
		for _, f := range ev.Failures {
			fmt.Fprintf(&b, "  %s  %s\n", f.Key, f.Error)
		}
	}
	return b.String()
}
