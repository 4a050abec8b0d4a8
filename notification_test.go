package headlessvt

import (
	"bytes"
	"testing"
)

// notifyRecorder collects payloads and optionally answers queries.
type notifyRecorder struct {
	payloads []*NotificationPayload
	reply    string
}

func (n *notifyRecorder) Notify(p *NotificationPayload) string {
	n.payloads = append(n.payloads, p)
	if p.PayloadType == "?" {
		return n.reply
	}
	return ""
}

func (n *notifyRecorder) last() *NotificationPayload {
	if len(n.payloads) == 0 {
		return nil
	}
	return n.payloads[len(n.payloads)-1]
}

func TestOSC9SimpleNotification(t *testing.T) {
	rec := &notifyRecorder{}
	term := New(WithSize(3, 40), WithNotification(rec))
	term.WriteString("\x1b]9;build finished\x07")

	p := rec.last()
	if p == nil {
		t.Fatal("OSC 9 must reach the provider")
	}
	if string(p.Data) != "build finished" || !p.Done {
		t.Errorf("payload = %+v", p)
	}
}

func TestOSC99StructuredNotification(t *testing.T) {
	rec := &notifyRecorder{}
	term := New(WithSize(3, 60), WithNotification(rec))
	term.WriteString("\x1b]99;i=42:d=0:p=title:u=2;Deploy\x1b\\")

	p := rec.last()
	if p == nil {
		t.Fatal("OSC 99 must reach the provider")
	}
	if p.ID != "42" || p.Done || p.PayloadType != "title" || p.Urgency != 2 {
		t.Errorf("metadata = %+v", p)
	}
	if string(p.Data) != "Deploy" {
		t.Errorf("body = %q", p.Data)
	}
}

func TestOSC99QueryWritesReply(t *testing.T) {
	var out bytes.Buffer
	rec := &notifyRecorder{reply: "\x1b]99;i=1;p=?\x1b\\"}
	term := New(WithSize(3, 40), WithNotification(rec), WithResponse(&out))
	term.WriteString("\x1b]99;p=?;\x1b\\")

	if got := out.String(); got != rec.reply {
		t.Errorf("query reply = %q, want %q", got, rec.reply)
	}
}

func TestOSC777RxvtNotification(t *testing.T) {
	rec := &notifyRecorder{}
	term := New(WithSize(3, 60), WithNotification(rec))
	term.WriteString("\x1b]777;notify;Build;all tests green\x07")

	p := rec.last()
	if p == nil {
		t.Fatal("OSC 777 must reach the provider")
	}
	if p.Type != "Build" || string(p.Data) != "all tests green" {
		t.Errorf("payload = %+v", p)
	}

	// Non-notify subcommands are ignored.
	before := len(rec.payloads)
	term.WriteString("\x1b]777;other;x\x07")
	if len(rec.payloads) != before {
		t.Error("unknown OSC 777 subcommand must not notify")
	}
}

func TestNotificationMiddlewareRewrites(t *testing.T) {
	rec := &notifyRecorder{}
	term := New(WithSize(3, 40), WithNotification(rec), WithMiddleware(&Middleware{
		DesktopNotification: func(p *NotificationPayload, next func(*NotificationPayload)) {
			cp := *p
			cp.AppName = "wrapped"
			next(&cp)
		},
	}))
	term.WriteString("\x1b]9;hi\x07")
	if p := rec.last(); p == nil || p.AppName != "wrapped" {
		t.Errorf("middleware rewrite lost: %+v", p)
	}
}

func TestNotificationNilProviderSafe(t *testing.T) {
	term := New(WithSize(3, 40))
	term.SetNotificationProvider(nil)
	term.WriteString("\x1b]9;ping\x07") // must not panic
	term.DesktopNotification(&NotificationPayload{Data: []byte("x")})
}
