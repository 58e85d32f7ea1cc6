package nlp

import (
	"regexp"
	"sort"
	"strconv"
	"strings"
)

var (
	clockPattern   = regexp.MustCompile(`^\d{1,2}:\d{2}(?::\d{2})?$`)
	quarterPattern = regexp.MustCompile(`^[Qq][1-4]$`)
	decadePattern  = regexp.MustCompile(`^(?:1[89]|20)?\d0s$`)
	ordinalPattern = regexp.MustCompile(`^(?:[1-9]|[12]\d|3[01])(?:st|nd|rd|th)?$`)
)

var months = map[string]bool{
	"january": true, "february": true, "march": true, "april": true, "may": true, "june": true,
	"july": true, "august": true, "september": true, "october": true, "november": true, "december": true,
	"jan": true, "feb": true, "mar": true, "apr": true, "jun": true, "jul": true, "aug": true,
	"sep": true, "sept": true, "oct": true, "nov": true, "dec": true,
}

// Month tokens that are also common words only count when capitalised.
var ambiguousMonths = map[string]bool{
	"may": true, "march": true, "mar": true, "jan": true, "jun": true, "jul": true,
	"aug": true, "sep": true, "sept": true, "oct": true, "nov": true, "dec": true, "apr": true, "feb": true,
}

var weekdays = map[string]bool{
	"monday": true, "tuesday": true, "wednesday": true, "thursday": true,
	"friday": true, "saturday": true, "sunday": true,
	"weekend": true, "weekday": true, "weekdays": true, "weekends": true,
}

var dateWords = map[string]bool{
	"today": true, "yesterday": true, "tomorrow": true, "annually": true, "annual": true,
	"yearly": true, "monthly": true, "weekly": true, "daily": true, "quarterly": true,
	"ytd": true,
}

var dateUnits = map[string]bool{
	"day": true, "days": true, "week": true, "weeks": true, "month": true, "months": true,
	"year": true, "years": true, "decade": true, "decades": true, "quarter": true,
	"quarters": true, "century": true, "centuries": true,
}

var timeUnits = map[string]bool{
	"hour": true, "hours": true, "minute": true, "minutes": true, "second": true, "seconds": true,
}

var timeWords = map[string]bool{
	"morning": true, "afternoon": true, "evening": true, "night": true, "tonight": true,
	"noon": true, "midnight": true, "overnight": true,
}

var relativeWords = map[string]bool{
	"last": true, "past": true, "next": true, "previous": true, "coming": true,
	"this": true, "that": true, "recent": true, "first": true, "second": true,
	"third": true, "fourth": true, "final": true, "upcoming": true,
}

var vagueCounts = map[string]bool{"few": true, "several": true, "couple": true, "many": true}

var orgSuffixes = map[string]bool{
	"inc": true, "corp": true, "corporation": true, "ltd": true, "llc": true, "plc": true,
	"group": true, "company": true, "co": true, "bank": true, "holdings": true,
	"technologies": true, "systems": true, "university": true, "institute": true,
	"foundation": true, "association": true, "agency": true, "party": true, "labs": true,
}

var orgHeads = map[string]bool{
	"company": true, "brand": true, "vendor": true, "firm": true, "competitor": true,
	"manufacturer": true, "provider": true, "retailer": true,
}

var gazetteerEntries = map[string][]string{
	LabelGPE: {
		// countries
		"United States", "United States of America", "America", "Canada", "Mexico", "Brazil",
		"Argentina", "Chile", "Colombia", "Peru", "United Kingdom", "Britain", "England",
		"Scotland", "Wales", "Ireland", "France", "Germany", "Spain", "Portugal", "Italy",
		"Netherlands", "Belgium", "Switzerland", "Austria", "Sweden", "Norway", "Denmark",
		"Finland", "Poland", "Ukraine", "Russia", "Turkey", "Greece", "Egypt", "Nigeria",
		"Kenya", "South Africa", "Ethiopia", "Morocco", "Israel", "Iran", "Iraq",
		"Saudi Arabia", "United Arab Emirates", "Qatar", "India", "Pakistan", "Bangladesh",
		"China", "Japan", "South Korea", "North Korea", "Korea", "Taiwan", "Vietnam",
		"Thailand", "Indonesia", "Malaysia", "Singapore", "Philippines", "Australia",
		"New Zealand", "Cuba", "Venezuela",
		// US states
		"Alabama", "Alaska", "Arizona", "Arkansas", "California", "Colorado", "Connecticut",
		"Delaware", "Florida", "Georgia", "Hawaii", "Idaho", "Illinois", "Indiana", "Iowa",
		"Kansas", "Kentucky", "Louisiana", "Maine", "Maryland", "Massachusetts", "Michigan",
		"Minnesota", "Mississippi", "Missouri", "Montana", "Nebraska", "Nevada",
		"New Hampshire", "New Jersey", "New Mexico", "New York", "North Carolina",
		"North Dakota", "Ohio", "Oklahoma", "Oregon", "Pennsylvania", "Rhode Island",
		"South Carolina", "South Dakota", "Tennessee", "Texas", "Utah", "Vermont",
		"Virginia", "Washington", "West Virginia", "Wisconsin", "Wyoming",
		// cities
		"New York City", "Los Angeles", "San Francisco", "Chicago", "Houston", "Seattle",
		"Boston", "Miami", "Atlanta", "Dallas", "Denver", "Phoenix", "Philadelphia",
		"Las Vegas", "San Diego", "Austin", "Portland", "Toronto", "Vancouver", "Montreal",
		"Mexico City", "London", "Paris", "Berlin", "Madrid", "Barcelona", "Rome", "Milan",
		"Amsterdam", "Brussels", "Vienna", "Zurich", "Stockholm", "Oslo", "Copenhagen",
		"Dublin", "Lisbon", "Prague", "Warsaw", "Moscow", "Istanbul", "Athens", "Cairo",
		"Lagos", "Nairobi", "Dubai", "Tel Aviv", "Mumbai", "Delhi", "New Delhi",
		"Bangalore", "Beijing", "Shanghai", "Hong Kong", "Tokyo", "Osaka", "Seoul",
		"Bangkok", "Jakarta", "Manila", "Sydney", "Melbourne", "Auckland", "Sao Paulo",
		"Rio de Janeiro", "Buenos Aires", "Lima", "Bogota", "Cancun",
	},
	LabelLOC: {
		"Europe", "Asia", "Africa", "North America", "South America", "Latin America",
		"Central America", "Antarctica", "Oceania", "Middle East", "Southeast Asia",
		"East Asia", "Western Europe", "Eastern Europe", "Scandinavia", "Caribbean",
		"Mediterranean", "Pacific", "Atlantic", "Silicon Valley", "Midwest",
		"West Coast", "East Coast", "Himalayas", "Alps", "Sahara",
	},
	LabelORG: {
		"Google", "Alphabet", "Apple", "Microsoft", "Amazon", "Meta", "Facebook", "Netflix",
		"Tesla", "Samsung", "IBM", "Intel", "AMD", "Nvidia", "Oracle", "Salesforce",
		"Adobe", "Reddit", "Twitter", "Uber", "Lyft", "Airbnb", "Spotify", "Toyota",
		"Honda", "Ford", "BMW", "Volkswagen", "Walmart", "Target", "Costco", "Coca-Cola",
		"PepsiCo", "Pepsi", "Nike", "Adidas", "Sony", "Nintendo", "Huawei", "Xiaomi",
		"Alibaba", "Tencent", "OpenAI", "Anthropic", "LinkedIn", "TikTok", "ByteDance",
		"YouTube", "Instagram", "Snapchat", "Pinterest", "Zoom", "Slack", "Shopify",
		"PayPal", "Visa", "Mastercard", "Starbucks", "McDonald's", "Disney", "Boeing",
		"Airbus", "NASA", "FBI", "CIA", "WHO", "UN", "United Nations", "European Union",
		"NATO", "IMF", "World Bank", "Federal Reserve", "Congress", "Senate",
		"Democrats", "Republicans", "Democratic Party", "Republican Party", "Labour",
		"Conservatives", "Verizon", "AT&T", "T-Mobile", "Dell", "HP", "Lenovo",
	},
	LabelPRODUCT: {
		"iPhone", "iPad", "MacBook", "iMac", "AirPods", "Apple Watch", "Android", "Windows",
		"macOS", "Linux", "Galaxy", "Pixel", "PlayStation", "Xbox", "ChatGPT", "Kindle",
		"Alexa", "Siri", "Chrome", "Firefox", "Safari", "Excel", "PowerPoint", "Photoshop",
		"Office", "Model 3", "Model Y", "Model S", "Prius", "Corolla", "Mustang", "Bitcoin",
		"Ethereum", "Dogecoin", "Solana",
	},
}

// Entries that are also ordinary words ("us", "who") must match case exactly.
var caseSensitiveEntries = map[string]bool{
	"US": true, "USA": true, "UK": true, "EU": true, "UAE": true, "NYC": true,
	"WHO": true, "UN": true, "HP": true, "AMD": true, "IBM": true, "BMW": true,
	"NATO": true, "IMF": true, "FBI": true, "CIA": true, "NASA": true,
}

type gazetteerEntry struct {
	label string
	text  string
}

var (
	gazetteer       map[string]gazetteerEntry
	maxGazetteerLen int
)

func init() {
	gazetteer = make(map[string]gazetteerEntry)
	add := func(label, entry string) {
		parts := tokenPattern.FindAllString(entry, -1)
		if len(parts) > maxGazetteerLen {
			maxGazetteerLen = len(parts)
		}
		gazetteer[strings.ToLower(strings.Join(parts, " "))] = gazetteerEntry{label: label, text: entry}
	}
	for label, entries := range gazetteerEntries {
		for _, e := range entries {
			add(label, e)
		}
	}
	for _, e := range []string{"US", "USA", "UK", "UAE", "NYC"} {
		add(LabelGPE, e)
	}
	add(LabelORG, "EU")
}

type candidate struct {
	start, end int
	label      string
	rank       int
}

// RecognizeEntities labels DATE, TIME, GPE, LOC, ORG and PRODUCT spans in
// tokens using rules and gazetteers. Overlaps resolve to the earliest, then
// longest span.
func RecognizeEntities(text string, tokens []Token) []Entity {
	var cands []candidate
	cands = append(cands, timeCandidates(tokens)...)
	cands = append(cands, dateCandidates(tokens)...)
	cands = append(cands, gazetteerCandidates(tokens)...)
	cands = append(cands, orgCandidates(tokens)...)
	return resolve(text, tokens, cands)
}

func resolve(text string, tokens []Token, cands []candidate) []Entity {
	sort.SliceStable(cands, func(i, j int) bool {
		a, b := cands[i], cands[j]
		if a.start != b.start {
			return a.start < b.start
		}
		if a.end-a.start != b.end-b.start {
			return a.end-a.start > b.end-b.start
		}
		return a.rank < b.rank
	})

	var out []Entity
	covered := -1
	for _, c := range cands {
		if c.start < covered {
			continue
		}
		out = append(out, Entity{
			Text:  spanText(text, tokens, c.start, c.end),
			Label: c.label,
			Start: c.start,
			End:   c.end,
		})
		covered = c.end
	}
	return out
}

func spanText(text string, tokens []Token, start, end int) string {
	last := tokens[end-1]
	return text[tokens[start].Offset : last.Offset+len(last.Text)]
}

func lower(tokens []Token, i int) string {
	if i < 0 || i >= len(tokens) {
		return ""
	}
	return strings.ToLower(tokens[i].Text)
}

func timeCandidates(tokens []Token) []candidate {
	var out []candidate
	for i, t := range tokens {
		l := strings.ToLower(t.Text)
		switch {
		case clockPattern.MatchString(t.Text):
			end := i + 1
			if m := lower(tokens, end); m == "am" || m == "pm" {
				end++
			}
			out = append(out, candidate{i, end, LabelTIME, 0})
		case isDigits(t.Text) && (lower(tokens, i+1) == "am" || lower(tokens, i+1) == "pm"):
			if n, _ := strconv.Atoi(t.Text); n >= 1 && n <= 12 {
				out = append(out, candidate{i, i + 2, LabelTIME, 0})
			}
		case t.LikeNum && timeUnits[lower(tokens, i+1)]:
			out = append(out, candidate{i, i + 2, LabelTIME, 0})
		case timeWords[l]:
			start := i
			if p := lower(tokens, i-1); p == "this" || p == "last" || p == "every" || p == "tomorrow" || p == "yesterday" {
				start--
			}
			out = append(out, candidate{start, i + 1, LabelTIME, 0})
		}
	}
	return out
}

func dateCandidates(tokens []Token) []candidate {
	var out []candidate
	for i, t := range tokens {
		l := strings.ToLower(t.Text)
		switch {
		case relativeWords[l]:
			// "last 6 months", "past few years", "this quarter"
			j := i + 1
			if m := lower(tokens, j); j < len(tokens) && (tokens[j].LikeNum || vagueCounts[m]) {
				j++
			}
			if dateUnits[lower(tokens, j)] {
				out = append(out, candidate{i, j + 1, LabelDATE, 1})
			}
		case t.LikeNum && dateUnits[lower(tokens, i+1)]:
			end := i + 2
			if lower(tokens, end) == "ago" {
				end++
			}
			out = append(out, candidate{i, end, LabelDATE, 1})
		case months[l] && (!ambiguousMonths[l] || isCapitalized(t.Text)):
			start, end := i, i+1
			if i > 0 && ordinalPattern.MatchString(tokens[i-1].Text) {
				start--
			}
			if end < len(tokens) && ordinalPattern.MatchString(tokens[end].Text) {
				end++
			}
			if lower(tokens, end) == "," && isYear(tokens, end+1) {
				end += 2
			} else if isYear(tokens, end) {
				end++
			}
			out = append(out, candidate{start, end, LabelDATE, 1})
		case weekdays[l], dateWords[l], decadePattern.MatchString(l):
			out = append(out, candidate{i, i + 1, LabelDATE, 1})
		case quarterPattern.MatchString(t.Text):
			end := i + 1
			if isYear(tokens, end) {
				end++
			}
			out = append(out, candidate{i, end, LabelDATE, 1})
		case isYear(tokens, i):
			start := i
			if p := lower(tokens, i-1); p == "fy" || p == "fiscal" {
				start--
			}
			out = append(out, candidate{start, i + 1, LabelDATE, 1})
		}
	}
	return out
}

func isYear(tokens []Token, i int) bool {
	if i < 0 || i >= len(tokens) {
		return false
	}
	t := tokens[i].Text
	if len(t) != 4 || !isDigits(t) || lower(tokens, i+1) == "%" {
		return false
	}
	n, _ := strconv.Atoi(t)
	return n >= 1900 && n <= 2099
}

func gazetteerCandidates(tokens []Token) []candidate {
	var out []candidate
	for i := range tokens {
		for n := maxGazetteerLen; n >= 1; n-- {
			if i+n > len(tokens) {
				continue
			}
			parts := make([]string, n)
			for k := 0; k < n; k++ {
				parts[k] = tokens[i+k].Text
			}
			entry, ok := gazetteer[strings.ToLower(strings.Join(parts, " "))]
			if !ok {
				continue
			}
			// lower-case text only matches entries written that way ("iPhone")
			if !isCapitalized(tokens[i].Text) && !strings.HasPrefix(entry.text, tokens[i].Text) {
				continue
			}
			if n == 1 && caseSensitiveEntries[entry.text] && tokens[i].Text != entry.text {
				continue
			}
			out = append(out, candidate{i, i + n, entry.label, 2})
			break
		}
	}
	return out
}

// orgCandidates finds capitalised runs ending in a corporate suffix
// ("Acme Widgets Inc") and placeholder names ("Company A", "Brand 2").
func orgCandidates(tokens []Token) []candidate {
	var out []candidate
	for i, t := range tokens {
		l := strings.ToLower(t.Text)
		if orgHeads[l] && isCapitalized(t.Text) && i+1 < len(tokens) {
			next := tokens[i+1].Text
			if (len(next) == 1 && isCapitalized(next)) || (isDigits(next) && len(next) <= 2) {
				out = append(out, candidate{i, i + 2, LabelORG, 3})
				continue
			}
		}
		if !orgSuffixes[l] || !isCapitalized(t.Text) {
			continue
		}
		start := i
		for start > 0 && start > i-4 && isAlpha(tokens[start-1].Text) && isCapitalized(tokens[start-1].Text) {
			start--
		}
		if start < i {
			out = append(out, candidate{start, i + 1, LabelORG, 3})
		}
	}
	return out
}
