package fetcher

import "strings"

// haltCodes maps exchange reason codes to their published descriptions.
var haltCodes = map[string]string{
	"T1":   "News Pending",
	"T2":   "News Released",
	"T3":   "News and Resumption Times",
	"T5":   "Single Stock Trading Pause In Effect",
	"T6":   "Halt - Extraordinary Market Activity",
	"T8":   "Halt - ETF",
	"T12":  "Trading Halted; For Information Requested by NASDAQ",
	"H4":   "Halt - Non-compliance",
	"H9":   "Halt - Not Current",
	"H10":  "Halt - SEC Trading Suspension",
	"H11":  "Halt - Regulatory Concern",
	"O1":   "Operations Halt; Contact Market Operations",
	"IPO1": "IPO Issue Not Yet Trading",
	"M1":   "Corporate Action",
	"M2":   "Quotation Not Available",
	"LUDP": "Volatility Trading Pause",
	"LUDS": "Volatility Trading Pause - Straddle Condition",
	"MWC1": "Market Wide Circuit Breaker Halt - Level 1",
	"MWC2": "Market Wide Circuit Breaker Halt - Level 2",
	"MWC3": "Market Wide Circuit Breaker Halt - Level 3",
	"MWC0": "Market Wide Circuit Breaker Halt - Carry over from previous day",
	"T7":   "Single Stock Trading Pause/Quotation-Only Period",
	"R4":   "Qualifications Issues Reviewed/Resolved; Quotations/Trading to Resume",
	"R9":   "Filing Requirements Satisfied/Resolved; Quotations/Trading To Resume",
	"C3":   "Issuer News Not Forthcoming; Quotations/Trading To Resume",
	"C4":   "Qualifications Halt ended; maint. req. met; Resume",
	"C9":   "Qualifications Halt Concluded; Filings Met; Quotes/Trades To Resume",
	"C11":  "Trade Halt Concluded By Other Regulatory Auth.; Quotes/Trades Resume",
	"R1":   "New Issue Available",
	"R2":   "Issue Available",
	"IPOQ": "IPO security released for quotation",
	"IPOE": "IPO security - positioning window extension",
	"D":    "Security deletion from NASDAQ / CQS",
}

// haltReason translates a reason code, case-insensitively. Unknown codes map
// to "N/A".
func haltReason(code string) string {
	for key, text := range haltCodes {
		if strings.EqualFold(key, code) {
			return text
		}
	}
	return "N/A"
}
