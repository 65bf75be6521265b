package domain

import "image"

// TokenUsage tracks units consumed by a call to the extraction model.
type TokenUsage struct {
	TotalTokens  int `json:"total_tokens"`
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}

// BillItem is a single reconciled line item on a medical bill.
// Invariant: ItemAmount == ItemQuantity * ItemRate within tolerance,
// or ItemAmount is authoritative when it came from the document.
type BillItem struct {
	ItemName     string  `json:"item_name"`
	ItemQuantity float64 `json:"item_quantity"`
	ItemRate     float64 `json:"item_rate"`
	ItemAmount   float64 `json:"item_amount"`
}

// PageResult holds the reconciled items for one physical page, in source order.
type PageResult struct {
	PageNo    string     `json:"page_no"`
	PageType  PageType   `json:"page_type"`
	BillItems []BillItem `json:"bill_items"`
}

// ExtractionData is the validated extraction result.
// Invariant: TotalItemCount == sum of len(page.BillItems), post-deduplication.
type ExtractionData struct {
	PagewiseLineItems []PageResult `json:"pagewise_line_items"`
	TotalItemCount    int          `json:"total_item_count"`
}

// FraudReport carries advisory fraud indicators for a document. It never
// gates or alters extraction data.
type FraudReport struct {
	RiskLevel    RiskLevel `json:"risk_level"`
	Indicators   []string  `json:"indicators"`
	PagesScanned int       `json:"pages_scanned"`
}

// ResponseEnvelope is the terminal object returned to the caller.
// Immutable once built.
type ResponseEnvelope struct {
	IsSuccess   bool            `json:"is_success"`
	TokenUsage  TokenUsage      `json:"token_usage"`
	Data        *ExtractionData `json:"data"`
	Error       *string         `json:"error"`
	FraudReport *FraudReport    `json:"fraud_report,omitempty"`
}

// NewSuccessEnvelope builds a SUCCESS envelope with full data.
func NewSuccessEnvelope(data *ExtractionData, usage TokenUsage, fraud *FraudReport) *ResponseEnvelope {
	return &ResponseEnvelope{
		IsSuccess:   true,
		TokenUsage:  usage,
		Data:        data,
		FraudReport: fraud,
	}
}

// NewFailureEnvelope builds a FAILURE envelope. Token usage is still carried
// when the model call succeeded before the failure (tokens were spent even
// on a bad response).
func NewFailureEnvelope(err error, usage TokenUsage, fraud *FraudReport) *ResponseEnvelope {
	msg := ClassifyError(err)
	return &ResponseEnvelope{
		IsSuccess:   false,
		TokenUsage:  usage,
		Error:       &msg,
		FraudReport: fraud,
	}
}

// FetchedDocument is the raw result of a successful document download.
type FetchedDocument struct {
	Bytes       []byte
	ContentType string
}

// PageImage is one prepared document page: the enhanced raster image for
// local analysis plus its JPEG encoding for the model call.
type PageImage struct {
	PageNo int
	Image  image.Image
	JPEG   []byte
}

// RawExtraction is the model's unparsed text output plus token counters.
// Ephemeral; exists only between the model call and parsing.
type RawExtraction struct {
	Text  string
	Model string
	Usage TokenUsage
}
