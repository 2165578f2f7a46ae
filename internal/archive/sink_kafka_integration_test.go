//go:build integration

package archive

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"github.com/twmb/franz-go/pkg/kgo"

	"callfile/pkg/testutil/containers"
)

type KafkaSinkSuite struct {
	suite.Suite
	brokers []string
}

func TestKafkaSinkSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(KafkaSinkSuite))
}

func (s *KafkaSinkSuite) SetupSuite() {
	rp := containers.GetManager().GetRedpanda(s.T())
	s.brokers = []string{rp.Broker}
}

func (s *KafkaSinkSuite) TestProducesKeyedEntry() {
	ctx := context.Background()
	topic := "callfile.archive.test"

	sink, err := NewKafkaSink(s.brokers, topic)
	s.Require().NoError(err)
	defer sink.Close()

	s.Require().NoError(sink.EnsureTopic(ctx, 1, 1))
	s.Require().NoError(sink.EnsureTopic(ctx, 1, 1), "second create is tolerated")

	entry := Entry{CallID: "call-42", Phone: "+15551234567", Summary: json.RawMessage(`{"ok":true}`), ArchivedAt: time.Now().UTC()}
	s.Require().NoError(sink.Write(ctx, entry))

	consumer, err := kgo.NewClient(
		kgo.SeedBrokers(s.brokers...),
		kgo.ConsumeTopics(topic),
		kgo.ConsumeResetOffset(kgo.NewOffset().AtStart()),
	)
	s.Require().NoError(err)
	defer consumer.Close()

	pollCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	fetches := consumer.PollFetches(pollCtx)
	s.Require().Empty(fetches.Errors())

	var records []*kgo.Record
	fetches.EachRecord(func(r *kgo.Record) { records = append(records, r) })
	s.Require().Len(records, 1)
	s.Equal("call-42", string(records[0].Key))

	var got Entry
	s.Require().NoError(json.Unmarshal(records[0].Value, &got))
	s.Equal("+15551234567", got.Phone)
}
