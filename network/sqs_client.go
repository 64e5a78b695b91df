package network

import (
	"context"
	"fmt"

	"github.com/assetcrawler/import-services/constants"
	"github.com/assetcrawler/import-services/models/common"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
)

// SQSSendMessageAPI is the slice of the SQS API the crawler uses.
// Formally defined so tests can stub it.
type SQSSendMessageAPI interface {
	SendMessage(ctx context.Context, params *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error)
}

// SQSClient sends import messages to an Amazon SQS queue.
type SQSClient struct {
	api SQSSendMessageAPI
}

// NewSQSClient builds an SQS client for region. If accessKeyID is empty,
// the default AWS credential chain is used. Param endpoint overrides the
// SQS endpoint, which is useful for LocalStack and ElasticMQ.
func NewSQSClient(ctx context.Context, region, accessKeyID, secretKey, endpoint string) (*SQSClient, error) {
	opts := []func(*config.LoadOptions) error{
		config.WithRegion(region),
	}
	if accessKeyID != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(accessKeyID, secretKey, "")))
	}
	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	client := sqs.NewFromConfig(awsCfg, func(o *sqs.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
		}
	})
	return &SQSClient{api: client}, nil
}

// NewSQSClientWithAPI wraps an existing SQS API implementation.
func NewSQSClientWithAPI(api SQSSendMessageAPI) *SQSClient {
	return &SQSClient{api: api}
}

func (c *SQSClient) Name() string {
	return constants.QueueTransportSQS
}

// Send puts body on the queue at target.URL with no delivery delay.
func (c *SQSClient) Send(ctx context.Context, target common.QueueTarget, body string) error {
	input := &sqs.SendMessageInput{
		QueueUrl:     aws.String(target.URL),
		MessageBody:  aws.String(body),
		DelaySeconds: 0,
	}
	var optFns []func(*sqs.Options)
	if target.Region != "" {
		optFns = append(optFns, func(o *sqs.Options) {
			o.Region = target.Region
		})
	}
	output, err := c.api.SendMessage(ctx, input, optFns...)
	if err != nil {
		return fmt.Errorf("SQS SendMessage to %s failed: %w", target.URL, err)
	}
	if output == nil || aws.ToString(output.MessageId) == "" {
		return fmt.Errorf("SQS SendMessage to %s returned no message id", target.URL)
	}
	return nil
}

func (c *SQSClient) Close() error {
	return nil
}
