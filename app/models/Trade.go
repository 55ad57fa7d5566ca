package models

const (
	TradePending  = "pending"
	TradeAccepted = "accepted"
	TradeRejected = "rejected"
)

// TradeOffer is the single in-flight trade between two players. Offered
// fields are from the proposer's perspective; requested fields are what the
// proposer wants back.
type TradeOffer struct {
	ID                string   `json:"id"`
	FromID            string   `json:"fromPlayerId"`
	ToID              string   `json:"toPlayerId"`
	OfferMoney        int      `json:"offerMoney"`
	OfferProperties   []string `json:"offerProperties"`
	OfferJailCards    int      `json:"offerJailCards"`
	RequestMoney      int      `json:"requestMoney"`
	RequestProperties []string `json:"requestProperties"`
	RequestJailCards  int      `json:"requestJailCards"`
	IsCounterOffer    bool     `json:"isCounterOffer"`
	Status            string   `json:"status"`
}
