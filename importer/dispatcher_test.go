package importer_test

import (
	"bytes"
	"context"
	"errors"
	"slices"
	"strings"
	"testing"

	"github.com/assetcrawler/import-services/importer"
	"github.com/assetcrawler/import-services/models/asset"
	"github.com/assetcrawler/import-services/models/common"
	"github.com/assetcrawler/import-services/util/logger"
	"github.com/assetcrawler/import-services/util/testutil"
	"github.com/op/go-logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var queueTarget = common.QueueTarget{
	Region: "eu-west-1",
	URL:    "https://sqs.eu-west-1.amazonaws.com/123456789012/crawler",
}

var errTransport = errors.New("queue unavailable")

func descriptorsFor(t *testing.T, names ...string) []asset.Descriptor {
	descriptors := make([]asset.Descriptor, 0, len(names))
	for _, name := range names {
		d, err := importer.Extract(name)
		require.Nil(t, err)
		descriptors = append(descriptors, *d)
	}
	return descriptors
}

func TestDispatch(t *testing.T) {
	var buf bytes.Buffer
	transport := &testutil.MockQueueTransport{}
	dispatcher := importer.NewDispatcher(transport, logger.NewWriterLogger("dispatch-test", &buf, logging.INFO), 1)

	d := descriptorsFor(t, "iStock_123_large.jpg")[0]
	result := dispatcher.Dispatch(context.Background(), d, queueTarget)
	require.True(t, result.Succeeded())

	expected := `{"type":"import","asset":{"sourceType":"iStock","externalId":"123","filename":"iStock_123_large.jpg"}}`
	assert.Equal(t, expected, result.Payload)

	sent := transport.Sent()
	require.Len(t, sent, 1)
	assert.Equal(t, expected, sent[0].Body)
	assert.Equal(t, queueTarget, sent[0].Target)
	assert.Contains(t, buf.String(), "Message sent to mock: "+expected)
}

func TestDispatchSendsUnescapedNames(t *testing.T) {
	transport := &testutil.MockQueueTransport{}
	dispatcher := importer.NewDispatcher(transport, logger.Discard(), 1)
	d := descriptorsFor(t, "iStock_12&3_<big>.jpg")[0]
	assert.Equal(t, "12&3", d.ExternalID)

	result := dispatcher.Dispatch(context.Background(), d, queueTarget)
	require.True(t, result.Succeeded())
	expected := `{"type":"import","asset":{"sourceType":"iStock","externalId":"12&3","filename":"iStock_12&3_<big>.jpg"}}`
	assert.Equal(t, expected, transport.Sent()[0].Body)
}

func TestDispatchRoundTrip(t *testing.T) {
	transport := &testutil.MockQueueTransport{}
	dispatcher := importer.NewDispatcher(transport, logger.Discard(), 1)
	d := descriptorsFor(t, "iStock_abc_thumb.png")[0]

	first := dispatcher.Dispatch(context.Background(), d, queueTarget)
	second := dispatcher.Dispatch(context.Background(), d, queueTarget)
	assert.Equal(t, first.Payload, second.Payload)

	msg, err := asset.ImportMessageFromJSON(transport.Sent()[0].Body)
	require.Nil(t, err)
	assert.Equal(t, "import", msg.Type)
	assert.Equal(t, d, msg.Asset)
}

func TestDispatchFailure(t *testing.T) {
	var buf bytes.Buffer
	transport := &testutil.MockQueueTransport{
		FailErr:  errTransport,
		FailWhen: func(string) bool { return true },
	}
	dispatcher := importer.NewDispatcher(transport, logger.NewWriterLogger("dispatch-fail-test", &buf, logging.INFO), 1)

	d := descriptorsFor(t, "iStock_123_large.jpg")[0]
	result := dispatcher.Dispatch(context.Background(), d, queueTarget)
	assert.False(t, result.Succeeded())
	assert.True(t, errors.Is(result.Err, errTransport))

	var dispatchErr *common.DispatchError
	require.True(t, errors.As(result.Err, &dispatchErr))
	assert.Equal(t, "iStock_123_large.jpg", dispatchErr.Filename)
	assert.Equal(t, result.Payload, dispatchErr.Payload)
	assert.Equal(t, 1, transport.Calls())
	assert.Contains(t, buf.String(), "[ERROR] Error queueing iStock_123_large.jpg")
}

func TestDispatchAllSequentialOrder(t *testing.T) {
	transport := &testutil.MockQueueTransport{}
	dispatcher := importer.NewDispatcher(transport, logger.Discard(), 1)
	descriptors := descriptorsFor(t, "iStock_1_a.jpg", "iStock_2_b.jpg", "iStock_3_c.jpg", "iStock_4_d.jpg")

	counts := dispatcher.DispatchAll(context.Background(), slices.Values(descriptors), queueTarget)
	assert.Equal(t, importer.DispatchCounts{Attempted: 4, Dispatched: 4, Failed: 0}, counts)

	sent := transport.Sent()
	require.Len(t, sent, 4)
	for i, id := range []string{"1", "2", "3", "4"} {
		msg, err := asset.ImportMessageFromJSON(sent[i].Body)
		require.Nil(t, err)
		assert.Equal(t, id, msg.Asset.ExternalID)
	}
}

func TestDispatchAllOneFailureDoesNotStopOthers(t *testing.T) {
	for _, workers := range []int{1, 3} {
		transport := &testutil.MockQueueTransport{
			FailErr:  errTransport,
			FailWhen: func(body string) bool { return strings.Contains(body, `"externalId":"bad"`) },
		}
		dispatcher := importer.NewDispatcher(transport, logger.Discard(), workers)
		descriptors := descriptorsFor(t, "iStock_1_a.jpg", "iStock_bad_b.jpg", "iStock_3_c.jpg")

		counts := dispatcher.DispatchAll(context.Background(), slices.Values(descriptors), queueTarget)
		assert.Equal(t, importer.DispatchCounts{Attempted: 3, Dispatched: 2, Failed: 1}, counts, "workers=%d", workers)
		assert.Equal(t, 3, transport.Calls())
		assert.Len(t, transport.Sent(), 2)
	}
}

func TestDispatchAllConcurrent(t *testing.T) {
	transport := &testutil.MockQueueTransport{}
	dispatcher := importer.NewDispatcher(transport, logger.Discard(), 4)
	names := make([]string, 0, 50)
	for i := 0; i < 50; i++ {
		names = append(names, "iStock_"+strings.Repeat("x", i+1)+"_a.jpg")
	}
	descriptors := descriptorsFor(t, names...)

	counts := dispatcher.DispatchAll(context.Background(), slices.Values(descriptors), queueTarget)
	assert.Equal(t, 50, counts.Attempted)
	assert.Equal(t, 50, counts.Dispatched)
	assert.Equal(t, 0, counts.Failed)
	assert.Len(t, transport.Sent(), 50)
}

func TestDispatchAllCanceled(t *testing.T) {
	for _, workers := range []int{1, 4} {
		transport := &testutil.MockQueueTransport{}
		dispatcher := importer.NewDispatcher(transport, logger.Discard(), workers)
		descriptors := descriptorsFor(t, "iStock_1_a.jpg", "iStock_2_b.jpg")

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		counts := dispatcher.DispatchAll(ctx, slices.Values(descriptors), queueTarget)
		assert.Equal(t, counts.Attempted, counts.Dispatched+counts.Failed)
		assert.LessOrEqual(t, counts.Attempted, 2)
		if workers == 1 {
			assert.Equal(t, 0, counts.Attempted)
			assert.Equal(t, 0, transport.Calls())
		}
	}
}

func TestDispatchAllEmpty(t *testing.T) {
	transport := &testutil.MockQueueTransport{}
	dispatcher := importer.NewDispatcher(transport, logger.Discard(), 2)
	counts := dispatcher.DispatchAll(context.Background(), slices.Values([]asset.Descriptor{}), queueTarget)
	assert.Equal(t, importer.DispatchCounts{}, counts)
	assert.Equal(t, 0, transport.Calls())
}
