package asset

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/assetcrawler/import-services/constants"
)

// Descriptor describes one importable asset derived from a file name
// in the import directory. Field order here is the wire order:
// sourceType, externalId, filename.
type Descriptor struct {
	SourceType string `json:"sourceType"`
	ExternalID string `json:"externalId"`
	Filename   string `json:"filename"`
}

// NewIStockDescriptor returns a descriptor for an iStock file. It
// returns an error if externalID is empty, so a constructed descriptor
// always carries an id.
func NewIStockDescriptor(externalID, filename string) (*Descriptor, error) {
	if externalID == "" {
		return nil, fmt.Errorf("external id for '%s' is empty", filename)
	}
	return &Descriptor{
		SourceType: constants.SourceTypeIStock,
		ExternalID: externalID,
		Filename:   filename,
	}, nil
}

// ImportMessage is the envelope dispatched to the work queue.
type ImportMessage struct {
	Type  string     `json:"type"`
	Asset Descriptor `json:"asset"`
}

// NewImportMessage wraps d in an import envelope.
func NewImportMessage(d Descriptor) *ImportMessage {
	return &ImportMessage{
		Type:  constants.MessageTypeImport,
		Asset: d,
	}
}

// ToJSON returns the canonical wire encoding of the message:
// {"type":"import","asset":{"sourceType":...,"externalId":...,"filename":...}}.
// The same message always encodes to the same bytes. Characters such
// as & < > are written as-is, not as \u escapes.
func (m *ImportMessage) ToJSON() (string, error) {
	var buf bytes.Buffer
	encoder := json.NewEncoder(&buf)
	encoder.SetEscapeHTML(false)
	if err := encoder.Encode(m); err != nil {
		return "", err
	}
	return string(bytes.TrimSuffix(buf.Bytes(), []byte("\n"))), nil
}

// ImportMessageFromJSON decodes a message produced by ToJSON.
func ImportMessageFromJSON(jsonData string) (*ImportMessage, error) {
	msg := &ImportMessage{}
	err := json.Unmarshal([]byte(jsonData), msg)
	if err != nil {
		return nil, err
	}
	return msg, nil
}
