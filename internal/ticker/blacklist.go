package ticker

// defaultBlacklist holds common English words and trading slang that match
// the ticker token shape but are almost never tickers. Kept as a data table
// so entries can be tested and extended without touching extraction logic.
var defaultBlacklist = map[string]struct{}{}

func init() {
	for _, w := range blacklistWords {
		defaultBlacklist[w] = struct{}{}
	}
}

var blacklistWords = []string{
	// Pronouns, articles, conjunctions
	"THE", "AND", "FOR", "ARE", "BUT", "NOT", "YOU", "ALL", "CAN", "HER",
	"WAS", "ONE", "OUR", "OUT", "HIS", "HAS", "HAD", "HOW", "MAN", "NEW",
	"NOW", "OLD", "SEE", "TWO", "WAY", "WHO", "ITS", "DID", "GET", "MAY",
	"HIM", "SHE", "TOO", "USE", "ANY", "DAY", "GOT", "LET", "PUT", "SAY",
	"YES", "YET", "BIG", "END", "FAR", "FEW", "LOT", "OWN", "SAW", "SET",
	"TOP", "WHY", "TRY", "ASK", "MEN", "RUN", "BAD", "BIT", "LOW", "OFF",
	"PER", "WIN", "BUY", "ADD", "ACT", "AGO", "AIR", "ARM", "ART", "BAG",
	"BAR", "BED", "BOX", "BOY", "BUS", "CAR", "CAT", "CUP", "CUT", "DOG",
	"EAR", "EAT", "EYE", "FAN", "FIT", "FLY", "FUN", "GAS", "GUY", "HIT",
	"HOT", "JOB", "KEY", "KID", "LAW", "LEG", "LIE", "MAP", "MOM", "NET",
	// Four-and-five-letter common words
	"THAT", "THIS", "WITH", "FROM", "HAVE", "WILL", "YOUR", "THEY", "BEEN",
	"WERE", "SAID", "EACH", "WHAT", "MAKE", "LIKE", "TIME", "JUST", "KNOW",
	"TAKE", "INTO", "YEAR", "GOOD", "SOME", "THEM", "ONLY", "COME", "OVER",
	"THAN", "ALSO", "BACK", "WANT", "EVEN", "MOST", "MUCH", "SUCH", "WHEN",
	"HERE", "WELL", "NEXT", "LAST", "MORE", "SAME", "BEST", "BOTH", "CALL",
	"DOWN", "FIND", "GIVE", "HAND", "HIGH", "KEEP", "LIFE", "LONG", "LOOK",
	"MADE", "MANY", "MOVE", "MUST", "NAME", "NEED", "OPEN", "PART", "PLAY",
	"REAL", "SEEM", "SHOW", "SIDE", "TELL", "THEN", "TURN", "USED", "VERY",
	"WEEK", "WENT", "WORK", "HUGE", "SOON", "SURE", "GONE", "DONE", "LOSS",
	"GAIN", "RISK", "FREE", "NICE", "HOLD", "SOLD", "SELL", "NEWS", "HYPE",
	"STILL", "AFTER", "NEVER", "ABOUT", "COULD", "EVERY", "FIRST", "GOING",
	"GREAT", "MIGHT", "OTHER", "PLACE", "RIGHT", "SINCE", "SMALL", "SOUND",
	"THEIR", "THERE", "THESE", "THING", "THINK", "THOSE", "TODAY", "UNDER",
	"WATCH", "WHERE", "WHICH", "WHILE", "WORLD", "WOULD", "YEARS", "MONEY",
	"PRICE", "STOCK", "SHARE", "TRADE", "CHART", "GROUP", "LARGE", "POINT",
	"POWER", "START", "STATE", "VALUE", "WORTH", "WRONG", "CHEAP", "SHORT",
	"LIMIT", "ORDER", "ENTRY",
	// Trading slang and market shorthand
	"YOLO", "FOMO", "HODL", "MOON", "PUMP", "DUMP", "BULL", "BEAR", "CALLS",
	"PUTS", "STONK", "APES", "DIP", "ATH", "ATL", "IPO", "ETF", "SEC",
	"FED", "GDP", "CPI", "EPS", "PE", "CEO", "CFO", "CTO", "COO", "WSB",
	"DD", "TA", "FA", "IV", "OTM", "ITM", "ATM", "FD", "LEAPS", "THETA",
	"GAMMA", "DELTA", "VEGA", "AI", "ML", "API", "APP", "WEB", "USD",
	"EUR", "GBP", "USA", "NYSE", "IMO", "IMHO", "TLDR", "EDIT", "POST",
	"LINK", "PSA", "FYI", "LOL", "LMAO", "WTF", "OMG", "TBH", "IDK",
	"EOD", "EOW", "EOY", "YTD", "ROI", "PT", "SL", "TP", "AH", "PM",
	"ER", "IT", "US", "UK", "EU", "ON", "AT", "BE", "BY", "DO", "GO",
	"HE", "IF", "IN", "IS", "ME", "MY", "NO", "OF", "OK", "OR", "SO",
	"TO", "UP", "WE", "AM", "AN", "AS",
}
