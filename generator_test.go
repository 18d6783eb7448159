package lfogen

import (
	"context"
	"sync"
	"testing"
	"time"
)

type chanSink chan Message

func (c chanSink) Emit(m Message) {
	select {
	case c <- m:
	default:
	}
}

func TestGeneratorEmitsUntilStopped(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Set("samplingrate", "2"); err != nil {
		t.Fatalf("set: %v", err)
	}
	out := make(chanSink, 1024)
	g, err := NewGenerator(cfg, out)
	if err != nil {
		t.Fatalf("new generator: %v", err)
	}
	defer g.Close()

	if err := g.Send(Message{PayloadKey: "start", "id": "abc"}); err != nil {
		t.Fatalf("send: %v", err)
	}
	select {
	case m := <-out:
		if m["id"] != "abc" {
			t.Fatalf("sample envelope = %v, want id abc", m)
		}
		v, ok := m.Payload().(float64)
		if !ok || v < -1 || v > 1 {
			t.Fatalf("payload = %#v, want float64 in [-1, 1]", m.Payload())
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no sample within 2s")
	}

	if err := g.Stop(); err != nil {
		t.Fatalf("stop: %v", err)
	}
	snap, err := g.Snapshot(context.Background())
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	if snap.Running {
		t.Fatal("generator still running after stop")
	}
	for len(out) > 0 {
		<-out
	}
	time.Sleep(20 * time.Millisecond)
	if n := len(out); n != 0 {
		t.Fatalf("%d samples emitted after stop", n)
	}
}

func TestGeneratorReconfigure(t *testing.T) {
	g, err := NewGenerator(DefaultConfig(), nil)
	if err != nil {
		t.Fatalf("new generator: %v", err)
	}
	defer g.Close()

	msg := Message{TopicKey: "min", PayloadKey: -2}
	if err := g.Send(msg); err != nil {
		t.Fatalf("send: %v", err)
	}
	msg[TopicKey] = "max"
	msg[PayloadKey] = 4
	if err := g.Send(msg); err != nil {
		t.Fatalf("send: %v", err)
	}
	if err := g.Send(Message{TopicKey: "waveform", PayloadKey: "triangle"}); err != nil {
		t.Fatalf("send: %v", err)
	}
	snap, err := g.Snapshot(context.Background())
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	if snap.CanonicalOffset != 1 || snap.CanonicalAmplitude != 3 || snap.Waveform != "triangle" {
		t.Fatalf("snapshot = %+v", snap)
	}
}

func TestGeneratorSampleTapAndClose(t *testing.T) {
	cfg := DefaultConfig()
	cfg.SamplingRate = 1
	var mu sync.Mutex
	var tapped []float64
	g, err := NewGenerator(cfg, nil, WithSampleTap(func(v float64) {
		mu.Lock()
		tapped = append(tapped, v)
		mu.Unlock()
	}))
	if err != nil {
		t.Fatalf("new generator: %v", err)
	}
	if err := g.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	deadline := time.Now().Add(2 * time.Second)
	for {
		mu.Lock()
		n := len(tapped)
		mu.Unlock()
		if n >= 3 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("only %d samples tapped", n)
		}
		time.Sleep(time.Millisecond)
	}

	if err := g.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	mu.Lock()
	n := len(tapped)
	mu.Unlock()
	time.Sleep(10 * time.Millisecond)
	mu.Lock()
	defer mu.Unlock()
	if len(tapped) != n {
		t.Fatalf("tapped %d samples after close", len(tapped)-n)
	}
	if err := g.Close(); err != nil {
		t.Fatalf("second close: %v", err)
	}
	if err := g.Start(); err == nil {
		t.Fatal("start after close should fail")
	}
}

func TestNewGeneratorRejectsBadInterval(t *testing.T) {
	cfg := DefaultConfig()
	cfg.SamplingRate = "0"
	if _, err := NewGenerator(cfg, nil); err == nil {
		t.Fatal("expected error for zero interval")
	}
}
