package constants

const (
	CandidateGlob          = "iStock_*"
	ListingProviderDropbox = "dropbox"
	ListingProviderLocal   = "local"
	ListingProviderS3      = "s3"
	MessageTypeImport      = "import"
	QueueTransportNSQ      = "nsq"
	QueueTransportSQS      = "sqs"
	RedisKeyImportRuns     = "import:runs"
	SourceTypeIStock       = "iStock"
)

const (
	OutcomeDispatched = "dispatched"
	OutcomeFailed     = "failed"
	OutcomeSucceeded  = "succeeded"
)

var ListingProviders []string = []string{
	ListingProviderDropbox,
	ListingProviderLocal,
	ListingProviderS3,
}

var QueueTransports []string = []string{
	QueueTransportNSQ,
	QueueTransportSQS,
}
