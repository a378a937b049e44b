package wallet

import "errors"

var ErrInvalidHolder = errors.New("wallet holder must be exactly one of user or merchant")

// Holder identifies the owner of a wallet: a user XOR a merchant.
type Holder struct {
	UserID     string
	MerchantID string
}

func UserHolder(id string) Holder     { return Holder{UserID: id} }
func MerchantHolder(id string) Holder { return Holder{MerchantID: id} }

func (h Holder) Validate() error {
	if (h.UserID == "") == (h.MerchantID == "") {
		return ErrInvalidHolder
	}
	return nil
}

// Ref is the canonical string form of a holder, used for redeemed_by
// columns, audit metadata and event partition keys.
func (h Holder) Ref() string {
	if h.UserID != "" {
		return "user:" + h.UserID
	}
	return "merchant:" + h.MerchantID
}
