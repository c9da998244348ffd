package sentiment

// Keyword polarity tables. Kept as data so they can be tested and extended
// without touching the scoring logic.

var bullishWords = []string{
	"moon",
	"rocket",
	"calls",
	"bullish",
	"buy",
	"long",
	"yolo",
	"tendies",
	"squeeze",
	"breakout",
	"rally",
	"pump",
	"undervalued",
	"upside",
	"gains",
	"winning",
	"all time high",
	"to the moon",
	"diamond hands",
	"strong buy",
	"accumulate",
	"going up",
}

var bearishWords = []string{
	"puts",
	"bearish",
	"sell",
	"short",
	"crash",
	"dump",
	"tank",
	"drill",
	"overvalued",
	"bagholder",
	"bag holder",
	"rug pull",
	"bubble",
	"collapse",
	"bleed",
	"capitulate",
	"dead cat",
	"downside",
	"losing",
	"drop",
	"falling",
	"going down",
	"strong sell",
	"avoid",
}
