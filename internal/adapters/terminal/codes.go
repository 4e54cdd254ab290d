package terminal

import "fmt"

// Terminal trade return codes. Only the ones the bridge actually
// forwards; anything else maps to a generic message with the raw code.
const (
	RetcodeRequote        = 10004
	RetcodeRejected       = 10006
	RetcodePlaced         = 10008
	RetcodeDone           = 10009
	RetcodeDonePartial    = 10010
	RetcodeInvalidRequest = 10013
	RetcodeInvalidVolume  = 10014
	RetcodeInvalidPrice   = 10015
	RetcodeTradeDisabled  = 10017
	RetcodeMarketClosed   = 10018
	RetcodeNoMoney        = 10019
	RetcodePriceChanged   = 10020
	RetcodeNoQuotes       = 10021
	RetcodeServerDisables = 10026
	RetcodeClientDisables = 10027
	RetcodeInvalidFill    = 10030
	RetcodeNoConnection   = 10031
)

var retcodeText = map[int]string{
	RetcodeRequote:        "requote",
	RetcodeRejected:       "request rejected",
	RetcodePlaced:         "order placed",
	RetcodeDone:           "done",
	RetcodeDonePartial:    "done partially",
	RetcodeInvalidRequest: "invalid request",
	RetcodeInvalidVolume:  "invalid volume",
	RetcodeInvalidPrice:   "invalid price",
	RetcodeTradeDisabled:  "trading disabled",
	RetcodeMarketClosed:   "market closed",
	RetcodeNoMoney:        "not enough money",
	RetcodePriceChanged:   "price changed",
	RetcodeNoQuotes:       "no quotes to process request",
	RetcodeServerDisables: "autotrading disabled by server",
	RetcodeClientDisables: "autotrading disabled by client terminal",
	RetcodeInvalidFill:    "unsupported fill policy",
	RetcodeNoConnection:   "no connection to trade server",
}

// RetcodeText translates a terminal return code into a readable reason.
func RetcodeText(code int) string {
	if msg, ok := retcodeText[code]; ok {
		return msg
	}
	return fmt.Sprintf("unknown terminal error (retcode %d)", code)
}
