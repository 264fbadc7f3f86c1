package collector

// koreanNames maps popular base symbols to their Korean display names.
var koreanNames = map[string]string{
	"BTC":    "비트코인",
	"ETH":    "이더리움",
	"XRP":    "리플",
	"SOL":    "솔라나",
	"DOGE":   "도지코인",
	"ADA":    "에이다",
	"AVAX":   "아발란체",
	"DOT":    "폴카닷",
	"MATIC":  "폴리곤",
	"TRX":    "트론",
	"ETC":    "이더리움클래식",
	"LINK":   "체인링크",
	"BCH":    "비트코인캐시",
	"ATOM":   "코스모스",
	"LTC":    "라이트코인",
	"UNI":    "유니스왑",
	"NEAR":   "니어프로토콜",
	"APT":    "앱토스",
	"SUI":    "수이",
	"XLM":    "스텔라루멘",
	"EOS":    "이오스",
	"SAND":   "샌드박스",
	"STX":    "스택스",
	"AAVE":   "에이브",
	"ARB":    "아비트럼",
	"SEI":    "세이",
	"SHIB":   "시바이누",
	"USDT":   "테더",
	"BNB":    "비앤비",
	"USDC":   "유에스디씨",
	"LEO":    "레오",
	"OKB":    "오케이비",
	"CRO":    "크로노스",
	"FIL":    "파일코인",
	"HBAR":   "헤데라",
	"VET":    "비체인",
	"QNT":    "퀀트",
	"MANTRA": "만트라",
	"RNDR":   "렌더토큰",
	"INJ":    "인젝티브",
	"GRT":    "더그래프",
	"OP":     "옵티미즘",
}

// DisplayName resolves the localized name for a symbol, falling back to the
// upstream full name and then the symbol itself.
func DisplayName(symbol, fullName string) string {
	if name, ok := koreanNames[symbol]; ok {
		return name
	}
	if fullName != "" {
		return fullName
	}
	return symbol
}
