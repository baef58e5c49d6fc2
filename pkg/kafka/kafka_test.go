package kafka

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/Adithya-Monish-Kumar-K/problem-search/pkg/config"
)

func TestEncode(t *testing.T) {
	msgs, err := encode([]Event{{Key: "LeetCode", Value: map[string]string{"title": "Two Sum"}}})
	if err != nil {
		t.Fatal(err)
	}
	if len(msgs) != 1 || string(msgs[0].Key) != "LeetCode" {
		t.Fatalf("messages = %+v", msgs)
	}
	var got map[string]string
	if err := json.Unmarshal(msgs[0].Value, &got); err != nil || got["title"] != "Two Sum" {
		t.Errorf("value = %s (%v)", msgs[0].Value, err)
	}
}

func TestEncodeRejectsUnserialisable(t *testing.T) {
	if _, err := encode([]Event{{Key: "k", Value: make(chan int)}}); err == nil {
		t.Fatal("expected marshal error")
	}
}

func TestPublishBatchEmptyIsNoop(t *testing.T) {
	p := NewProducer(config.KafkaConfig{Brokers: []string{"127.0.0.1:1"}}, "problem-ingest")
	defer p.Close()
	if err := p.PublishBatch(context.Background(), nil); err != nil {
		t.Fatalf("empty batch: %v", err)
	}
	if p.Topic() != "problem-ingest" {
		t.Errorf("topic = %q", p.Topic())
	}
}

func TestDecodeJSON(t *testing.T) {
	type payload struct {
		Query string `json:"query"`
	}
	got, err := DecodeJSON[payload]([]byte(`{"query":"two sum"}`))
	if err != nil || got.Query != "two sum" {
		t.Fatalf("DecodeJSON = %+v, %v", got, err)
	}
	if _, err := DecodeJSON[payload]([]byte(`nope`)); err == nil {
		t.Fatal("expected error")
	}
}
