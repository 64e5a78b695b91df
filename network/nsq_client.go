package network

import (
	"context"
	"fmt"

	"github.com/assetcrawler/import-services/constants"
	"github.com/assetcrawler/import-services/models/common"
	"github.com/nsqio/go-nsq"
	"github.com/op/go-logging"
)

// NSQPublisher is the part of *nsq.Producer that NSQClient uses.
type NSQPublisher interface {
	Publish(topic string, body []byte) error
	Stop()
}

// NSQClient publishes import messages to an nsqd topic.
//
// Note that this client provides write access to the queue, so we can
// add things. It does not provide read access. Downstream importers do
// the reading.
type NSQClient struct {
	producer NSQPublisher
}

// NewNSQClient returns a client that publishes to the nsqd TCP address
// tcpAddr, which usually ends with :4150. go-nsq's own log output is
// routed to logger at DEBUG level.
func NewNSQClient(tcpAddr string, logger *logging.Logger) (*NSQClient, error) {
	producer, err := nsq.NewProducer(tcpAddr, nsq.NewConfig())
	if err != nil {
		return nil, fmt.Errorf("cannot create NSQ producer for %s: %w", tcpAddr, err)
	}
	if logger != nil {
		producer.SetLogger(&nsqLogAdapter{logger: logger}, nsq.LogLevelInfo)
	}
	return &NSQClient{producer: producer}, nil
}

// NewNSQClientWithPublisher wraps an existing publisher.
func NewNSQClientWithPublisher(producer NSQPublisher) *NSQClient {
	return &NSQClient{producer: producer}
}

func (c *NSQClient) Name() string {
	return constants.QueueTransportNSQ
}

// Send publishes body to the topic named by target.URL.
func (c *NSQClient) Send(ctx context.Context, target common.QueueTarget, body string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := c.producer.Publish(target.URL, []byte(body)); err != nil {
		return fmt.Errorf("nsqd returned an error when publishing to topic %s: %w", target.URL, err)
	}
	return nil
}

func (c *NSQClient) Close() error {
	c.producer.Stop()
	return nil
}

type nsqLogAdapter struct {
	logger *logging.Logger
}

func (a *nsqLogAdapter) Output(calldepth int, s string) error {
	a.logger.Debugf("nsq: %s", s)
	return nil
}
