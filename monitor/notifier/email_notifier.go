package notifier

import (
	"context"
	"fmt"
	"net/smtp"
	"sort"
	"strings"
	"sync"
	"time"

	"hostwatch/pkg/log"
	"hostwatch/pkg/wferrors"
)

// EmailNotifier sends alerts over SMTP.
type EmailNotifier struct {
	smtpServer  string
	smtpPort    int
	username    string
	password    string
	from        string
	to          []string
	tlsEnabled  bool
	lastCheckAt time.Time
	available   bool
	checkMutex  sync.Mutex
	logger      *log.Logger

	// overridable for tests
	dial     func(addr string) (*smtp.Client, error)
	sendMail func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
	now      func() time.Time
}

func NewEmailNotifier(smtpServer string, smtpPort int, username, password, from string, to []string, tlsEnabled bool) *EmailNotifier {
	if smtpPort == 0 {
		smtpPort = 25
	}
	return &EmailNotifier{
		smtpServer: smtpServer,
		smtpPort:   smtpPort,
		username:   username,
		password:   password,
		from:       from,
		to:         to,
		tlsEnabled: tlsEnabled,
		logger:     log.GetLogger("email"),
		dial:       smtp.Dial,
		sendMail:   smtp.SendMail,
		now:        time.Now,
	}
}

func (n *EmailNotifier) Name() string {
	return KindEmail
}

func (n *EmailNotifier) addr() string {
	return fmt.Sprintf("%s:%d", n.smtpServer, n.smtpPort)
}

func (n *EmailNotifier) IsAvailable() bool {
	n.checkMutex.Lock()
	defer n.checkMutex.Unlock()

	// reuse the last probe for 10 minutes
	if !n.lastCheckAt.IsZero() && n.now().Sub(n.lastCheckAt) < 10*time.Minute {
		return n.available
	}

	return n.checkAvailability()
}

func (n *EmailNotifier) checkAvailability() bool {
	n.lastCheckAt = n.now()

	client, err := n.dial(n.addr())
	if err != nil {
		n.logger.Errorf("smtp connect failed: %v", err)
		n.available = false
		return false
	}
	defer client.Close()

	if n.tlsEnabled {
		if ok, _ := client.Extension("STARTTLS"); !ok {
			n.logger.Errorf("smtp server %s does not offer STARTTLS", n.smtpServer)
			n.available = false
			return false
		}
	}

	n.available = true
	return true
}

// Send mails message as plain text. Availability is probed first so an
// unreachable server fails fast instead of blocking on SendMail.
func (n *EmailNotifier) Send(_ context.Context, message string) error {
	if !n.IsAvailable() {
		return &TransportError{Notifier: n.Name(), Err: wferrors.ErrNotifierUnavailable}
	}

	subject := "hostwatch alert"
	if first, _, _ := strings.Cut(message, "\n"); first != "" {
		subject = first
	}

	header := map[string]string{
		"From":         n.from,
		"To":           strings.Join(n.to, ","),
		"Subject":      subject,
		"MIME-Version": "1.0",
		"Content-Type": "text/plain; charset=UTF-8",
	}
	keys := make([]string, 0, len(header))
	for k := range header {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var msg strings.Builder
	for _, k := range keys {
		msg.WriteString(fmt.Sprintf("%s: %s\r\n", k, header[k]))
	}
	msg.WriteString("\r\n")
	msg.WriteString(strings.ReplaceAll(message, "\n", "\r\n"))
	msg.WriteString("\r\n")

	var auth smtp.Auth
	if n.username != "" && n.password != "" {
		auth = smtp.PlainAuth("", n.username, n.password, n.smtpServer)
	}

	if err := n.sendMail(n.addr(), auth, n.from, n.to, []byte(msg.String())); err != nil {
		n.checkMutex.Lock()
		n.lastCheckAt = time.Time{}
		n.checkMutex.Unlock()
		return &TransportError{Notifier: n.Name(), Err: err}
	}

	return nil
}
