package orders

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ProfitDetail is the informational revenue split for one child order. It is
// returned to the caller and never persisted.
type ProfitDetail struct {
	ChildOrderID  uuid.UUID `json:"childOrderId"`
	SellerID      uuid.UUID `json:"sellerId"`
	Amount        int       `json:"amount"`
	SellerShare   int       `json:"sellerShare"`
	PlatformShare int       `json:"platformShare"`
}

// splitProfit returns the seller and platform shares of amount. The platform
// share is rounded to the nearest minor unit and the seller keeps the rest,
// so the two always sum to amount.
func splitProfit(amount int, platformFeePercent int) (sellerShare, platformShare int) {
	platform := decimal.NewFromInt(int64(amount)).
		Mul(decimal.NewFromInt(int64(platformFeePercent))).
		Div(decimal.NewFromInt(100)).
		Round(0)
	platformShare = int(platform.IntPart())
	return amount - platformShare, platformShare
}
