package dispatch

import (
	"context"
	"errors"
	"testing"

	"stagepush/internal/gateway"
	"stagepush/internal/storage"
	"stagepush/pkg/logx"
)

type fakeRegistry struct {
	devices     []storage.Device
	listErr     error
	invalidated []int64
}

func (r *fakeRegistry) ListDeviceTokens(_ context.Context, _ int64) ([]storage.Device, error) {
	return r.devices, r.listErr
}

func (r *fakeRegistry) InvalidateDevice(_ context.Context, deviceID int64) error {
	r.invalidated = append(r.invalidated, deviceID)
	return nil
}

type fakeSender struct {
	bearerErr error
	failWith  map[string]error // token -> error
	sent      []gateway.Message
}

func (s *fakeSender) BearerToken(_ context.Context) (string, error) {
	if s.bearerErr != nil {
		return "", s.bearerErr
	}
	return "bearer", nil
}

func (s *fakeSender) Send(_ context.Context, _ string, msg gateway.Message) error {
	if err, ok := s.failWith[msg.Token]; ok {
		return err
	}
	s.sent = append(s.sent, msg)
	return nil
}

func TestSendFansOutToAllDevices(t *testing.T) {
	t.Parallel()
	reg := &fakeRegistry{devices: []storage.Device{
		{ID: 1, Token: "tok-a", Platform: storage.PlatformIOS},
		{ID: 2, Token: "tok-b", Platform: storage.PlatformAndroid},
	}}
	snd := &fakeSender{}
	d := New(Config{}, reg, snd, logx.Nop())

	res, err := d.Send(context.Background(), 7, Note{Title: "t", Body: "b", Link: "/shows/3"})
	if err != nil {
		t.Fatalf("Send error: %v", err)
	}
	if res.Sent != 2 || res.Failed != 0 {
		t.Fatalf("result = %+v, want Sent=2", res)
	}
	if !res.OK() {
		t.Fatal("expected OK result")
	}
	for _, msg := range snd.sent {
		if msg.Data["link"] != "/shows/3" {
			t.Fatalf("link not merged into data: %v", msg.Data)
		}
	}
}

func TestSendDedupesTokens(t *testing.T) {
	t.Parallel()
	reg := &fakeRegistry{devices: []storage.Device{
		{ID: 1, Token: "same"},
		{ID: 2, Token: "same"},
		{ID: 3, Token: ""},
	}}
	snd := &fakeSender{}
	d := New(Config{}, reg, snd, logx.Nop())

	res, err := d.Send(context.Background(), 7, Note{Title: "t", Body: "b"})
	if err != nil {
		t.Fatalf("Send error: %v", err)
	}
	if res.Sent != 1 {
		t.Fatalf("Sent = %d, want 1 after dedupe", res.Sent)
	}
}

func TestSendNoDevicesIsNotAnError(t *testing.T) {
	t.Parallel()
	d := New(Config{}, &fakeRegistry{}, &fakeSender{}, logx.Nop())

	res, err := d.Send(context.Background(), 7, Note{Title: "t", Body: "b"})
	if err != nil {
		t.Fatalf("Send error: %v", err)
	}
	if res.Sent != 0 || res.Failed != 0 {
		t.Fatalf("result = %+v, want zero", res)
	}
	if !res.OK() {
		t.Fatal("nothing to fail should still be OK")
	}
}

func TestSendSelfHealsDeadTokens(t *testing.T) {
	t.Parallel()
	reg := &fakeRegistry{devices: []storage.Device{
		{ID: 1, Token: "dead"},
		{ID: 2, Token: "alive"},
	}}
	snd := &fakeSender{failWith: map[string]error{
		"dead": &gateway.SendError{StatusCode: 404, Code: gateway.CodeUnregistered},
	}}
	d := New(Config{}, reg, snd, logx.Nop())

	res, err := d.Send(context.Background(), 7, Note{Title: "t", Body: "b"})
	if err != nil {
		t.Fatalf("Send error: %v", err)
	}
	if res.Sent != 1 || res.Failed != 1 {
		t.Fatalf("result = %+v, want Sent=1 Failed=1", res)
	}
	if !res.OK() {
		t.Fatal("partial delivery should still be OK")
	}
	if len(reg.invalidated) != 1 || reg.invalidated[0] != 1 {
		t.Fatalf("invalidated = %v, want [1]", reg.invalidated)
	}
}

func TestSendTransientFailureIsAbsorbed(t *testing.T) {
	t.Parallel()
	reg := &fakeRegistry{devices: []storage.Device{{ID: 1, Token: "flaky"}}}
	snd := &fakeSender{failWith: map[string]error{
		"flaky": &gateway.SendError{StatusCode: 503, Code: "UNAVAILABLE"},
	}}
	d := New(Config{}, reg, snd, logx.Nop())

	res, err := d.Send(context.Background(), 7, Note{Title: "t", Body: "b"})
	if err != nil {
		t.Fatalf("Send error: %v", err)
	}
	if res.Failed != 1 {
		t.Fatalf("Failed = %d, want 1", res.Failed)
	}
	if len(reg.invalidated) != 0 {
		t.Fatalf("transient failure must not invalidate: %v", reg.invalidated)
	}
	if res.OK() {
		t.Fatal("all-failed result must not be OK")
	}
}

func TestSendRegistryErrorWraps(t *testing.T) {
	t.Parallel()
	reg := &fakeRegistry{listErr: errors.New("disk io")}
	d := New(Config{}, reg, &fakeSender{}, logx.Nop())

	_, err := d.Send(context.Background(), 7, Note{Title: "t", Body: "b"})
	if !errors.Is(err, ErrRegistryRead) {
		t.Fatalf("err = %v, want ErrRegistryRead", err)
	}
}

func TestSendCredentialErrorPropagates(t *testing.T) {
	t.Parallel()
	reg := &fakeRegistry{devices: []storage.Device{{ID: 1, Token: "tok"}}}
	snd := &fakeSender{bearerErr: gateway.ErrCredential}
	d := New(Config{}, reg, snd, logx.Nop())

	_, err := d.Send(context.Background(), 7, Note{Title: "t", Body: "b"})
	if !errors.Is(err, gateway.ErrCredential) {
		t.Fatalf("err = %v, want ErrCredential", err)
	}
}
