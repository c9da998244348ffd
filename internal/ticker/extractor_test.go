package ticker

import "testing"

func TestExtractCashtag(t *testing.T) {
	got := Extract("Buying $GME calls now", nil)
	if len(got) != 1 || !got["GME"] {
		t.Errorf("Extract cashtag = %v, want {GME}", got)
	}
}

func TestExtractBlacklistedTokens(t *testing.T) {
	got := Extract("THE BEST CALLS ARE HERE", nil)
	if len(got) != 0 {
		t.Errorf("Extract = %v, want empty set", got)
	}
}

func TestExtractContextKeyword(t *testing.T) {
	got := Extract("loading up on NVDA calls before earnings", nil)
	if !got["NVDA"] {
		t.Errorf("Extract = %v, want NVDA from context keyword", got)
	}
}

func TestExtractBareTokenWithoutContext(t *testing.T) {
	// Uppercase token with no trading-context keyword after it.
	got := Extract("NVDA is a company", nil)
	if len(got) != 0 {
		t.Errorf("Extract = %v, want empty set without context keyword", got)
	}
}

func TestExtractLengthBounds(t *testing.T) {
	// Single-letter cashtags are rejected, 2-5 letters accepted.
	got := Extract("$A $AB $ABCDE $ABCDEF", nil)
	if got["A"] {
		t.Errorf("single-letter symbol should be rejected")
	}
	if !got["AB"] || !got["ABCDE"] {
		t.Errorf("Extract = %v, want AB and ABCDE", got)
	}
	if got["ABCDEF"] {
		t.Errorf("six-letter symbol should be rejected")
	}
}

func TestExtractCustomBlacklist(t *testing.T) {
	got := Extract("$GME and $AMC calls", []string{"amc"})
	if !got["GME"] {
		t.Errorf("GME should survive custom blacklist, got %v", got)
	}
	if got["AMC"] {
		t.Errorf("AMC should be removed by custom blacklist, got %v", got)
	}
}

func TestExtractDeduplicates(t *testing.T) {
	got := Extract("$GME $GME gme calls $gme", nil)
	if len(got) != 1 || !got["GME"] {
		t.Errorf("Extract = %v, want exactly {GME}", got)
	}
}

func TestExtractSlangRejected(t *testing.T) {
	got := Extract("$YOLO $FOMO going to buy HODL calls", nil)
	if len(got) != 0 {
		t.Errorf("Extract = %v, slang tokens should be blacklisted", got)
	}
}
