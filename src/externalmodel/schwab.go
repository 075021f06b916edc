package externalmodel

// Raw Schwab Trader API payloads, kept separate from the domain model.
// Only the fields this system reads are declared; the API returns more.

// SchwabOrder is one row of GET /accounts/{hash}/orders.
type SchwabOrder struct {
	OrderID            int64                 `json:"orderId"`
	Status             string                `json:"status"`
	EnteredTime        string                `json:"enteredTime"`
	CloseTime          string                `json:"closeTime"`
	Quantity           float64               `json:"quantity"`
	FilledQuantity     float64               `json:"filledQuantity"`
	RemainingQuantity  float64               `json:"remainingQuantity"`
	Price              float64               `json:"price"`
	OrderLegCollection []SchwabOrderLeg      `json:"orderLegCollection"`
	ActivityCollection []SchwabOrderActivity `json:"orderActivityCollection"`
}

type SchwabOrderLeg struct {
	Instruction string           `json:"instruction"`
	Quantity    float64          `json:"quantity"`
	Instrument  SchwabInstrument `json:"instrument"`
}

type SchwabInstrument struct {
	Symbol    string `json:"symbol"`
	AssetType string `json:"assetType"`
	CUSIP     string `json:"cusip,omitempty"`
}

// SchwabOrderActivity carries execution fills. The average fill price is
// derived from its execution legs.
type SchwabOrderActivity struct {
	ActivityType  string               `json:"activityType"`
	ExecutionType string               `json:"executionType"`
	Quantity      float64              `json:"quantity"`
	ExecutionLegs []SchwabExecutionLeg `json:"executionLegs"`
}

type SchwabExecutionLeg struct {
	LegID    int64   `json:"legId"`
	Quantity float64 `json:"quantity"`
	Price    float64 `json:"price"`
	Time     string  `json:"time"`
}

// SchwabAccountResponse is GET /accounts/{hash}?fields=positions.
type SchwabAccountResponse struct {
	SecuritiesAccount SchwabSecuritiesAccount `json:"securitiesAccount"`
}

type SchwabSecuritiesAccount struct {
	AccountNumber   string                `json:"accountNumber"`
	Positions       []SchwabPosition      `json:"positions"`
	CurrentBalances SchwabCurrentBalances `json:"currentBalances"`
}

type SchwabPosition struct {
	Instrument    SchwabInstrument `json:"instrument"`
	LongQuantity  float64          `json:"longQuantity"`
	ShortQuantity float64          `json:"shortQuantity"`
	AveragePrice  float64          `json:"averagePrice"`
	MarketValue   float64          `json:"marketValue"`
}

type SchwabCurrentBalances struct {
	CashBalance float64 `json:"cashBalance"`
	BuyingPower float64 `json:"buyingPower"`
	Equity      float64 `json:"equity"`
}

// SchwabTransaction is one row of GET /accounts/{hash}/transactions.
type SchwabTransaction struct {
	ActivityID    int64                `json:"activityId"`
	Type          string               `json:"type"`
	TradeDate     string               `json:"tradeDate"`
	NetAmount     float64              `json:"netAmount"`
	TransferItems []SchwabTransferItem `json:"transferItems"`
}

type SchwabTransferItem struct {
	Instrument SchwabInstrument `json:"instrument"`
	Amount     float64          `json:"amount"`
	Cost       float64          `json:"cost"`
	FeeType    string           `json:"feeType,omitempty"`
}

// SchwabQuoteEnvelope is one entry of the quotes map keyed by symbol.
type SchwabQuoteEnvelope struct {
	AssetMainType string      `json:"assetMainType"`
	Quote         SchwabQuote `json:"quote"`
}

type SchwabQuote struct {
	LastPrice  float64 `json:"lastPrice"`
	Mark       float64 `json:"mark"`
	ClosePrice float64 `json:"closePrice"`
	BidPrice   float64 `json:"bidPrice"`
	AskPrice   float64 `json:"askPrice"`
}

// SchwabTokenResponse is the OAuth token endpoint response.
type SchwabTokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int    `json:"expires_in"`
	TokenType    string `json:"token_type"`
}
