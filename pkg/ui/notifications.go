package ui

import (
	"fmt"
	"os/exec"
	"runtime"
)

// NotificationSender interface for platform-specific notification implementations
type NotificationSender interface {
	Send(title, message string) error
}

// LinuxNotificationSender sends notifications on Linux using notify-send
type LinuxNotificationSender struct{}

func (l *LinuxNotificationSender) Send(title, message string) error {
	cmd := exec.Command("notify-send", title, message)
	return cmd.Run()
}

// MacOSNotificationSender sends notifications on macOS using osascript
type MacOSNotificationSender struct{}

func (m *MacOSNotificationSender) Send(title, message string) error {
	script := fmt.Sprintf(`display notification "%s" with title "%s"`, message, title)
	cmd := exec.Command("osascript", "-e", script)
	return cmd.Run()
}

// NoopNotificationSender is used on platforms without a supported notifier
type NoopNotificationSender struct{}

func (n *NoopNotificationSender) Send(title, message string) error {
	return nil
}

// Notifier sends desktop notifications when long runs finish
type Notifier struct {
	sender  NotificationSender
	enabled bool
}

// NewNotifier creates a notifier for the current platform
func NewNotifier(enabled bool) *Notifier {
	var sender NotificationSender
	switch runtime.GOOS {
	case "linux":
		sender = &LinuxNotificationSender{}
	case "darwin":
		sender = &MacOSNotificationSender{}
	default:
		sender = &NoopNotificationSender{}
	}
	return &Notifier{sender: sender, enabled: enabled}
}

// NotifyRunComplete announces a finished collection run
func (n *Notifier) NotifyRunComplete(command string, records int) {
	if !n.enabled {
		return
	}
	msg := fmt.Sprintf("%s finished with %s records", command, formatCount(records))
	// Notification failure is cosmetic
	_ = n.sender.Send("igcollect", msg)
}

// NotifyRunFailed announces a failed collection run
func (n *Notifier) NotifyRunFailed(command string, err error) {
	if !n.enabled {
		return
	}
	msg := fmt.Sprintf("%s failed: %v", command, err)
	_ = n.sender.Send("igcollect", msg)
}
