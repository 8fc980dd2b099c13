package zerodha

import (
	"strings"
	"sync"

	kiteconnect "github.com/zerodha/gokiteconnect/v4"
)

// instrumentMapper resolves trading symbols to Kite instrument tokens for one
// exchange. The instrument dump is fetched once and kept for the process.
type instrumentMapper struct {
	symbolToToken map[string]int
	tokenToSymbol map[int]string
	loaded        bool
	mu            sync.RWMutex
}

func newInstrumentMapper() *instrumentMapper {
	return &instrumentMapper{
		symbolToToken: make(map[string]int),
		tokenToSymbol: make(map[int]string),
	}
}

func (im *instrumentMapper) isLoaded() bool {
	im.mu.RLock()
	defer im.mu.RUnlock()
	return im.loaded
}

func (im *instrumentMapper) load(instruments kiteconnect.Instruments) {
	im.mu.Lock()
	defer im.mu.Unlock()

	for _, inst := range instruments {
		token := int(inst.InstrumentToken)
		symbol := strings.ToUpper(inst.Tradingsymbol)
		im.symbolToToken[symbol] = token
		im.tokenToSymbol[token] = symbol
	}
	im.loaded = true
}

func (im *instrumentMapper) getToken(symbol string) (int, bool) {
	im.mu.RLock()
	defer im.mu.RUnlock()

	token, exists := im.symbolToToken[strings.ToUpper(strings.TrimSpace(symbol))]
	return token, exists
}

func (im *instrumentMapper) getSymbol(token int) string {
	im.mu.RLock()
	defer im.mu.RUnlock()

	return im.tokenToSymbol[token]
}

func (im *instrumentMapper) size() int {
	im.mu.RLock()
	defer im.mu.RUnlock()

	return len(im.symbolToToken)
}
