package mail

import (
	"context"
	"errors"
	"net/smtp"
	"strings"
	"testing"

	"github.com/examtraining/examtraining/internal/docstore"
)

type fakeSender struct {
	sent []Message
	fail int
}

func (f *fakeSender) Send(_ context.Context, msg Message) error {
	if f.fail > 0 {
		f.fail--
		return errors.New("connection refused")
	}
	f.sent = append(f.sent, msg)
	return nil
}

func TestDispatch(t *testing.T) {
	ctx := context.Background()
	outbox := NewOutbox(docstore.NewMemory())

	id1, err := outbox.Enqueue(ctx, Message{To: "a@example.com", Subject: "one", HTML: "<b>1</b>"})
	if err != nil {
		t.Fatalf("Enqueue: %v", err)
	}
	if _, err := outbox.Enqueue(ctx, Message{To: "b@example.com", Subject: "two", HTML: "2"}); err != nil {
		t.Fatalf("Enqueue: %v", err)
	}

	sender := &fakeSender{}
	d := NewDispatcher(outbox, sender, 0, 0)
	if n := d.Dispatch(ctx); n != 2 {
		t.Fatalf("sent %d, want 2", n)
	}
	if len(sender.sent) != 2 || sender.sent[0].To != "a@example.com" || sender.sent[0].HTML != "<b>1</b>" {
		t.Fatalf("sent = %+v", sender.sent)
	}

	env, err := outbox.Get(ctx, id1)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if env.State != StateSuccess || env.Attempts != 1 {
		t.Fatalf("envelope = %+v", env)
	}

	if n := d.Dispatch(ctx); n != 0 {
		t.Fatalf("delivered mail must not be sent again, sent %d", n)
	}
}

func TestDispatch_Failures(t *testing.T) {
	ctx := context.Background()
	outbox := NewOutbox(docstore.NewMemory())
	id, _ := outbox.Enqueue(ctx, Message{To: "a@example.com", Subject: "s"})

	sender := &fakeSender{fail: 10}
	d := NewDispatcher(outbox, sender, 0, 3)

	for i := 1; i <= 2; i++ {
		d.Dispatch(ctx)
		env, _ := outbox.Get(ctx, id)
		if env.State != StatePending || env.Attempts != i || env.Error != "connection refused" {
			t.Fatalf("after attempt %d: %+v", i, env)
		}
	}

	d.Dispatch(ctx)
	env, _ := outbox.Get(ctx, id)
	if env.State != StateError || env.Attempts != 3 {
		t.Fatalf("after last attempt: %+v", env)
	}

	pending, err := outbox.Pending(ctx)
	if err != nil || len(pending) != 0 {
		t.Fatalf("Pending = %v, %v", pending, err)
	}
}

func TestDispatcher_StartStops(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	outbox := NewOutbox(docstore.NewMemory())
	outbox.Enqueue(ctx, Message{To: "a@example.com"})

	d := NewDispatcher(outbox, LogSender{}, 0, 0)
	d.Start(ctx)
	cancel()
}

func TestTemplates(t *testing.T) {
	codes := ExamCodes{Title: `Rock & "Roll"`, Slug: "rock-roll", Private: true, AccessCode: "acc123", EditCode: "edit456"}

	msg, err := ExamCreated("", "owner@example.com", codes)
	if err != nil {
		t.Fatalf("ExamCreated: %v", err)
	}
	if msg.Subject != "Exam created" || msg.To != "owner@example.com" {
		t.Fatalf("message = %+v", msg)
	}
	for _, want := range []string{
		`Your exam "Rock &amp; &#34;Roll&#34;" has been created.`,
		"The access code is: <code>acc123</code>",
		`href="https://examtraining.online/rock-roll?accessCode=acc123"`,
		"The edit code is: <code>edit456</code>",
		`href="https://examtraining.online/rock-roll/edit?editCode=edit456"`,
	} {
		if !strings.Contains(msg.HTML, want) {
			t.Errorf("html missing %q:\n%s", want, msg.HTML)
		}
	}

	codes.Private = false
	msg, err = ExamCodesReset("http://localhost:5173/", "owner@example.com", codes)
	if err != nil {
		t.Fatalf("ExamCodesReset: %v", err)
	}
	if msg.Subject != "Exam codes reset" {
		t.Fatalf("subject = %q", msg.Subject)
	}
	if strings.Contains(msg.HTML, "acc123") {
		t.Error("public exams must not mail the access code")
	}
	if !strings.Contains(msg.HTML, `href="http://localhost:5173/rock-roll"`) {
		t.Errorf("html = %s", msg.HTML)
	}
}

func TestSMTPSender(t *testing.T) {
	s := NewSMTPSender(SMTPConfig{Host: "smtp.example.com", Username: "u", Password: "p", From: "noreply@example.com"})

	var gotAddr string
	var gotTo []string
	var gotBody string
	s.send = func(addr string, a smtp.Auth, from string, to []string, msg []byte) error {
		gotAddr, gotTo, gotBody = addr, to, string(msg)
		if a == nil {
			t.Error("expected auth")
		}
		return nil
	}

	err := s.Send(context.Background(), Message{To: "owner@example.com", Subject: "Exam created", HTML: "<p>hi</p>"})
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if gotAddr != "smtp.example.com:587" || len(gotTo) != 1 || gotTo[0] != "owner@example.com" {
		t.Fatalf("addr = %s, to = %v", gotAddr, gotTo)
	}
	if !strings.Contains(gotBody, "Subject: Exam created\r\n") ||
		!strings.Contains(gotBody, "Content-Type: text/html; charset=UTF-8\r\n") ||
		!strings.HasSuffix(gotBody, "\r\n\r\n<p>hi</p>") {
		t.Fatalf("body = %q", gotBody)
	}

	if err := s.Send(context.Background(), Message{To: "x@example.com\r\nBcc: y@example.com"}); err == nil {
		t.Fatal("expected header injection to be rejected")
	}
}
