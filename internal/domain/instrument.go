package domain

// Instrument is a member of the fixed trading universe.
type Instrument struct {
	ID     int
	Symbol string
}

// Universe is an immutable id<->symbol registry built once at startup.
// IDs are assigned 1-based in list order so they stay stable across runs
// as long as the configured symbol list does not change.
type Universe struct {
	instruments []Instrument
	byID        map[int]string
	bySymbol    map[string]int
}

func NewUniverse(symbols []string) *Universe {
	u := &Universe{
		instruments: make([]Instrument, 0, len(symbols)),
		byID:        make(map[int]string, len(symbols)),
		bySymbol:    make(map[string]int, len(symbols)),
	}
	for i, sym := range symbols {
		id := i + 1
		u.instruments = append(u.instruments, Instrument{ID: id, Symbol: sym})
		u.byID[id] = sym
		u.bySymbol[sym] = id
	}
	return u
}

func (u *Universe) Size() int { return len(u.instruments) }

// Instruments returns the universe in id order.
func (u *Universe) Instruments() []Instrument {
	out := make([]Instrument, len(u.instruments))
	copy(out, u.instruments)
	return out
}

func (u *Universe) Symbol(id int) (string, bool) {
	sym, ok := u.byID[id]
	return sym, ok
}

func (u *Universe) ID(symbol string) (int, bool) {
	id, ok := u.bySymbol[symbol]
	return id, ok
}

// DefaultSymbols is the NIFTY-50 universe the service tracks when the
// config file does not override it.
var DefaultSymbols = []string{
	"ADANIENT", "ADANIPORTS", "APOLLOHOSP", "ASIANPAINT", "AXISBANK",
	"BAJAJ-AUTO", "BAJAJFINSV", "BAJFINANCE", "BEL", "BHARTIARTL",
	"CIPLA", "COALINDIA", "DRREDDY", "EICHERMOT", "ETERNAL",
	"GRASIM", "HCLTECH", "HDFCBANK", "HDFCLIFE", "HEROMOTOCO",
	"HINDALCO", "HINDUNILVR", "ICICIBANK", "INFY", "ITC",
	"RELIANCE", "SBILIFE", "TCS", "MARUTI", "SUNPHARMA",
	"TITAN", "ULTRACEMCO", "NTPC", "ONGC", "JIOFIN",
	"JSWSTEEL", "TRENT", "TATASTEEL", "TMPV", "TATACONSUM",
	"TECHM", "WIPRO", "INDIGO", "NESTLEIND", "M&M",
	"POWERGRID", "SBIN", "LT", "PIDILITIND", "BOSCHLTD",
}
