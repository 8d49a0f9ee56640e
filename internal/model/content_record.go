package model

// TweetData is the fetched content payload as returned by the scraper service.
type TweetData struct {
	URL        string `json:"url"`
	TweetID    string `json:"tweet_id"`
	Content    string `json:"content"`
	User       string `json:"user"`
	Handle     string `json:"handle"`
	Verified   bool   `json:"verified"`
	Likes      uint64 `json:"likes"`
	Retweets   uint64 `json:"retweets"`
	Replies    uint64 `json:"replies"`
	CapturedAt string `json:"captured_at"`
}

// Analysis holds the derived scores for one piece of content.
type Analysis struct {
	RemovalRisk    float64 `json:"removal_risk"`
	RiskNotes      string  `json:"risk_notes,omitempty"`
	SentimentLabel string  `json:"sentiment_label,omitempty"`
	Controversy    float64 `json:"controversy"`
	HasSentiment   bool    `json:"has_sentiment"`
	CombinedScore  float64 `json:"combined_score"`
	Token          string  `json:"token"`
	TokenChain     string  `json:"token_chain,omitempty"`
	Confidence     float64 `json:"confidence"`
}

// StorageResult references the uploaded copy of a record.
type StorageResult struct {
	ContentID string `json:"content_id"`
	RootID    string `json:"root_id"`
	DealID    string `json:"deal_id,omitempty"`
}

// ContentRecord is the full processed unit: fetched payload, analysis,
// best-effort price data and storage references. Written once locally, then
// uploaded, then optionally registered on-chain; never updated after a
// successful registration.
type ContentRecord struct {
	ContentHash string          `json:"content_hash"`
	Event       SubmissionEvent `json:"event"`
	Tweet       TweetData       `json:"tweet"`
	Analysis    Analysis        `json:"analysis"`
	Price       *PriceQuote     `json:"price,omitempty"`
	Storage     *StorageResult  `json:"storage,omitempty"`
	RegistryTx  string          `json:"registry_tx,omitempty"`
	ProcessedAt string          `json:"processed_at"`
}
