// Package promptstyle holds the static persona and cultural lookup tables
// used to steer copy generation prompts. The tables are package-level and
// read-only; accessors return copies so callers cannot mutate shared state.
package promptstyle

import "strings"

const DefaultPersonaKey = "aggressive_investigator"

// Persona describes one writing voice available to the generator.
type Persona struct {
	Key         string
	Tone        string
	Hook        string
	Style       string
	Description string
}

// CulturalContext carries the GEO-specific guidance injected into prompts so
// generated copy reads native rather than translated.
type CulturalContext struct {
	CountryName      string
	Currency         string
	CulturalNotes    []string
	LocalExpressions []string
	TrustSignals     []string
	Avoid            []string
}

var personas = map[string]Persona{
	"aggressive_investigator": {
		Key:         "aggressive_investigator",
		Tone:        "Bold, confrontational, investigative journalism",
		Hook:        "Expose hidden truths, challenge skepticism",
		Style:       "Tabloid-like, sensational headlines",
		Description: "🔥 Агрессивный Журналист — расследования в стиле таблоид",
	},
	"excited_fan": {
		Key:         "excited_fan",
		Tone:        "Enthusiastic, amazed, sharing discovery",
		Hook:        "Share excitement about breakthrough",
		Style:       "Emotional, exclamation-heavy, WOW factor",
		Description: "🎉 Восторженный Фанат — эмоции и восхищение",
	},
	"skeptical_journalist": {
		Key:         "skeptical_journalist",
		Tone:        "Initially doubtful, becoming convinced",
		Hook:        "Start skeptical, reveal convincing evidence",
		Style:       "Balanced, fact-checking, turning point",
		Description: "🤔 Скептический Журналист — от сомнений к убеждению",
	},
	"experienced_expert": {
		Key:         "experienced_expert",
		Tone:        "Authoritative, educational, confident",
		Hook:        "Insider knowledge, professional insights",
		Style:       "Expert analysis, data-driven",
		Description: "🎓 Опытный Эксперт — авторитет и экспертный анализ",
	},
	"growth_marketer": {
		Key:         "growth_marketer",
		Tone:        "Strategic, ROI-focused, persuasive",
		Hook:        "Growth hacks, conversion optimization, A/B tested results",
		Style:       "Metrics-driven, case studies, social proof heavy",
		Description: "📈 Growth Маркетолог — метрики, кейсы, конверсия",
	},
	"data_analyst": {
		Key:         "data_analyst",
		Tone:        "Analytical, objective, numbers-focused",
		Hook:        "Data reveals patterns, statistics prove value",
		Style:       "Charts references, percentages, research-backed claims",
		Description: "📊 Аналитик Данных — цифры, статистика, исследования",
	},
	"crypto_investor": {
		Key:         "crypto_investor",
		Tone:        "Insider, community-savvy, trend-aware",
		Hook:        "Early adopter advantage, market timing, portfolio growth",
		Style:       "Crypto-native language, HODL culture, DeFi/Web3 references",
		Description: "💰 Криптоинвестор — инсайды, тренды, сленг крипто-комьюнити",
	},
	"startup_founder": {
		Key:         "startup_founder",
		Tone:        "Visionary, hustle-oriented, problem-solver",
		Hook:        "Disruption narrative, first-mover advantage, scale potential",
		Style:       "Startup ecosystem language, VC mindset, growth story",
		Description: "🚀 Стартапер — визионерство, disruption, growth story",
	},
	"financial_advisor": {
		Key:         "financial_advisor",
		Tone:        "Conservative, risk-aware, long-term thinking",
		Hook:        "Wealth preservation, diversification, steady returns",
		Style:       "Professional, regulatory-compliant, trust-building",
		Description: "💼 Финансовый Советник — консервативный, надёжный подход",
	},
	"tech_blogger": {
		Key:         "tech_blogger",
		Tone:        "Curious, hands-on, tutorial-style",
		Hook:        "Product reviews, how-it-works explanations, tech deep-dives",
		Style:       "Step-by-step, screenshots references, user-friendly",
		Description: "💻 Техноблогер — обзоры, туториалы, как это работает",
	},
	"lifestyle_influencer": {
		Key:         "lifestyle_influencer",
		Tone:        "Aspirational, personal story, relatable",
		Hook:        "Life transformation, freedom narrative, success story",
		Style:       "Visual, Instagram-worthy, FOMO-inducing",
		Description: "✨ Лайфстайл Инфлюенсер — личная история, трансформация",
	},
	"skeptical_reviewer": {
		Key:         "skeptical_reviewer",
		Tone:        "Critical, thorough, honest assessment",
		Hook:        "Unbiased review, pros and cons, real user perspective",
		Style:       "Consumer Reports style, comparison-heavy, verdict-focused",
		Description: "🔍 Критический Ревьюер — честный обзор, все за и против",
	},
}

var cultures = map[string]CulturalContext{
	"DE": {
		CountryName: "Deutschland",
		Currency:    "Euro (€)",
		CulturalNotes: []string{
			"Write for educated, digitally-savvy German audience",
			"Use formal \"Sie\" - Germans expect professional communication",
			"Reference real economic context: high savings rate, strong middle class",
			"Mention local fintech landscape: N26, Trade Republic are well-known",
			"Germans research thoroughly before decisions - provide substance over hype",
			"Data protection matters: GDPR/DSGVO awareness is high",
			"Reference major economic centers naturally: Frankfurt (finance), Munich (tech), Berlin (startups)",
		},
		LocalExpressions: []string{"Ganz ehrlich", "Ich muss zugeben", "Hand aufs Herz"},
		TrustSignals:     []string{"Unabhängig geprüft", "Transparente Konditionen", "Seriöse Quelle"},
		Avoid:            []string{"Exaggerated claims", "Get-rich-quick narratives", "Unprofessional tone"},
	},
	"AT": {
		CountryName: "Österreich",
		Currency:    "Euro (€)",
		CulturalNotes: []string{
			"Austrians are more relaxed than Germans but still value quality",
			"Can use slightly warmer tone than German content",
			"Reference Vienna, Salzburg, Innsbruck as major cities",
			"Mention Alpine lifestyle and tradition where relevant",
			"Austrian German differs slightly - use local expressions",
			"Reference local banks: Erste Bank, Raiffeisen",
		},
		LocalExpressions: []string{"Servas", "Passt schon", "Leiwand"},
		TrustSignals:     []string{"Österreichische Qualität", "Familienbetrieb"},
		Avoid:            []string{"Confusing with German content", "Ignoring Austrian identity"},
	},
	"CH": {
		CountryName: "Schweiz",
		Currency:    "Schweizer Franken (CHF)",
		CulturalNotes: []string{
			"Swiss value precision, quality, and discretion",
			"VERY important: Use CHF, not Euro",
			"Reference Swiss banking tradition and reliability",
			"Neutral, understated tone - avoid hyperbole",
			"Mention Swiss cities: Zürich, Genf, Basel, Bern",
			"Swiss German differs - consider standard German for broader reach",
			"Privacy and banking secrecy are valued",
		},
		LocalExpressions: []string{"Grüezi", "Merci vilmal"},
		TrustSignals:     []string{"Swiss Made", "Schweizer Qualität", "Bankgeheimnis"},
		Avoid:            []string{"Flashy/aggressive marketing", "Euro references"},
	},
	"FR": {
		CountryName: "France",
		Currency:    "Euro (€)",
		CulturalNotes: []string{
			"French appreciate elegance, sophistication in communication",
			"Intellectual approach - explain the \"why\" behind claims",
			"Reference French success stories and local experts",
			"Mention Paris, Lyon, Marseille, Bordeaux",
			"French are proud of local products and innovation",
			"Use formal \"vous\" in professional context",
		},
		LocalExpressions: []string{"Franchement", "Entre nous", "C'est incroyable"},
		TrustSignals:     []string{"Made in France", "Expertise française", "Reconnu par les experts"},
		Avoid:            []string{"American-style aggressive marketing", "Grammatical errors"},
	},
	"ES": {
		CountryName: "España",
		Currency:    "Euro (€)",
		CulturalNotes: []string{
			"Spanish communication is warm and personal",
			"Emotional storytelling works well",
			"Reference family values and community",
			"Mention Madrid, Barcelona, Valencia, Sevilla",
			"Use relatable everyday examples",
			"Siesta culture - mention work-life balance benefits",
		},
		LocalExpressions: []string{"Mira", "La verdad es que", "Te lo digo en serio"},
		TrustSignals:     []string{"Avalado por expertos", "Miles de españoles ya lo usan"},
		Avoid:            []string{"Cold/corporate tone", "Ignoring regional differences"},
	},
	"IT": {
		CountryName: "Italia",
		Currency:    "Euro (€)",
		CulturalNotes: []string{
			"Italians love passion and emotional connection",
			"Family and personal success stories resonate well",
			"Reference Italian entrepreneurial spirit",
			"Mention Milano, Roma, Napoli, Torino",
			"Visual imagery and lifestyle descriptions work well",
			"Italians appreciate quality and craftsmanship",
		},
		LocalExpressions: []string{"Guarda", "Ti dico la verità", "Incredibile"},
		TrustSignals:     []string{"Qualità italiana", "Approvato dagli esperti"},
		Avoid:            []string{"Boring/dry content", "Ignoring Italian pride"},
	},
	"UK": {
		CountryName: "United Kingdom",
		Currency:    "British Pound (£)",
		CulturalNotes: []string{
			"British appreciate wit, understatement, and subtle humor",
			"Be factual but not overly aggressive",
			"Reference British pragmatism and common sense",
			"Mention London, Manchester, Birmingham, Edinburgh",
			"British are skeptical - use balanced arguments",
			"Use GBP, never Euro",
		},
		LocalExpressions: []string{"Right then", "Fair enough", "I must say"},
		TrustSignals:     []string{"FCA regulated", "British company", "Trusted by thousands"},
		Avoid:            []string{"American spellings", "Over-the-top enthusiasm", "Euro references"},
	},
	"US": {
		CountryName: "United States",
		Currency:    "US Dollar ($)",
		CulturalNotes: []string{
			"Americans respond to bold, confident messaging",
			"Dream big narrative - \"American Dream\" themes work",
			"Use success stories and transformation narratives",
			"Reference financial freedom and independence",
			"Mention diverse cities and lifestyles",
			"Americans are optimistic - focus on possibility",
		},
		LocalExpressions: []string{"Let me tell you", "Here's the thing", "No kidding"},
		TrustSignals:     []string{"BBB accredited", "As seen on TV", "Trusted by millions"},
		Avoid:            []string{"Socialist/collectivist framing", "Metric system references"},
	},
	"PL": {
		CountryName: "Polska",
		Currency:    "Polski złoty (PLN)",
		CulturalNotes: []string{
			"Poles value honesty and directness",
			"Economic opportunity and improving life situation resonate",
			"Reference Polish work ethic and determination",
			"Mention Warszawa, Kraków, Wrocław, Poznań",
			"Use PLN, never Euro",
			"Poles are practical - focus on real results",
		},
		LocalExpressions: []string{"Słuchaj", "Szczerze mówiąc", "Muszę przyznać"},
		TrustSignals:     []string{"Sprawdzone przez ekspertów", "Tysiące Polaków już korzysta"},
		Avoid:            []string{"Condescending tone", "Euro/Western-centric views"},
	},
	"NL": {
		CountryName: "Nederland",
		Currency:    "Euro (€)",
		CulturalNotes: []string{
			"Dutch are direct, pragmatic, and appreciate honesty",
			"No-nonsense approach - get to the point quickly",
			"Reference Dutch trading and business tradition",
			"Mention Amsterdam, Rotterdam, Den Haag, Utrecht",
			"Dutch are early tech adopters - highlight innovation",
			"Gezelligheid (coziness/comfort) is valued",
		},
		LocalExpressions: []string{"Eerlijk gezegd", "Kijk", "Dat is toch logisch"},
		TrustSignals:     []string{"Betrouwbaar", "Nederlandse kwaliteit", "Duizenden Nederlanders"},
		Avoid:            []string{"Flowery/indirect language", "Excessive formality"},
	},
	"RU": {
		CountryName: "Россия",
		Currency:    "Российский рубль (₽)",
		CulturalNotes: []string{
			"Пиши для образованной аудитории, знакомой с финтехом и инвестициями",
			"Современные россияне активно используют Тинькофф, СберИнвестиции, ВТБ Инвестиции",
			"Учитывай экономический контекст: люди ищут способы сохранить и приумножить сбережения",
			"Референсы на реальную финансовую грамотность растущего среднего класса",
			"Упоминай релевантные города в зависимости от контекста (Москва, СПб, Екатеринбург, Новосибирск)",
			"Используй только рубли (₽) — это критично",
			"Аудитория скептична к громким обещаниям — нужны конкретика и реализм",
		},
		LocalExpressions: []string{"Слушай", "Честно говоря", "На самом деле"},
		TrustSignals:     []string{"Проверено на практике", "Реальные результаты", "Прозрачные условия"},
		Avoid:            []string{"Западные клише", "Нереалистичные обещания", "Устаревшие стереотипы про Россию"},
	},
	"CA": {
		CountryName: "Canada",
		Currency:    "Canadian Dollar (CAD $)",
		CulturalNotes: []string{
			"Canadians are polite, friendly, and value authenticity",
			"Use inclusive, respectful language",
			"Reference Canadian cities: Toronto, Vancouver, Montreal, Calgary",
			"Use CAD, not USD - Canadians are sensitive about this",
			"Multicultural approach works well",
			"Canadians appreciate humility and understated claims",
			"Reference Canadian success stories and local experts",
		},
		LocalExpressions: []string{"To be honest", "Here's the thing", "I have to say"},
		TrustSignals:     []string{"Trusted by Canadians", "Canadian company", "BBB accredited"},
		Avoid:            []string{"Confusing with US content", "USD references", "Aggressive sales tactics"},
	},
}

// quebecSupplement is layered on top of the CA context when the target
// language is French. Québécois copy must not read like France French.
var quebecSupplement = CulturalContext{
	CountryName: "Canada (Québec)",
	Currency:    "Canadian Dollar (CAD $)",
	CulturalNotes: []string{
		"Quebec French (français québécois) differs significantly from France French",
		"Québécois have strong cultural identity - they are NOT French, they are Québécois",
		"Reference Montreal, Quebec City, Laval, Gatineau as main cities",
		"Use informal \"tu\" more readily than in France",
		"Québécois are proud of their language and cultural distinctiveness",
		"Fintech landscape: Desjardins, National Bank are local institutions",
		"Winter/cold weather references resonate well",
		"Mix of French language with distinct Québécois expressions",
	},
	LocalExpressions: []string{"Là là", "C'est correct", "Ben oui", "Pantoute", "Icitte"},
	TrustSignals:     []string{"Fait au Québec", "Entreprise québécoise", "Des milliers de Québécois"},
	Avoid:            []string{"Using France French exclusively", "Ignoring Québécois identity", "Euro references - use CAD"},
}

var defaultCulture = CulturalContext{
	CountryName: "International",
	Currency:    "EUR/USD",
	CulturalNotes: []string{
		"Use clear, professional international English or target language",
		"Focus on universal benefits and value propositions",
		"Avoid culture-specific references that may not translate",
	},
	LocalExpressions: []string{},
	TrustSignals:     []string{"Trusted worldwide", "International quality"},
	Avoid:            []string{"Culture-specific idioms without context"},
}

// PersonaFor returns the persona for key, falling back to the default
// persona for unknown keys.
func PersonaFor(key string) Persona {
	if p, ok := personas[strings.TrimSpace(strings.ToLower(key))]; ok {
		return p
	}
	return personas[DefaultPersonaKey]
}

// Personas returns all available personas keyed by persona key.
func Personas() map[string]Persona {
	out := make(map[string]Persona, len(personas))
	for k, v := range personas {
		out[k] = v
	}
	return out
}

// CultureFor resolves the cultural context for a geo/language pair. GEO
// lookup is case-insensitive and unknown GEOs get the international default.
// CA with a French target language keeps the full CA context and appends
// the Québécois supplement on top.
func CultureFor(geo, language string) CulturalContext {
	g := strings.ToUpper(strings.TrimSpace(geo))
	c, ok := cultures[g]
	if !ok {
		c = defaultCulture
	}
	out := cloneCulture(c)
	if g == "CA" && strings.HasPrefix(strings.ToLower(strings.TrimSpace(language)), "fr") {
		out.CountryName = quebecSupplement.CountryName
		out.CulturalNotes = append(out.CulturalNotes, quebecSupplement.CulturalNotes...)
		out.LocalExpressions = append(out.LocalExpressions, quebecSupplement.LocalExpressions...)
		out.TrustSignals = append(out.TrustSignals, quebecSupplement.TrustSignals...)
		out.Avoid = append(out.Avoid, quebecSupplement.Avoid...)
	}
	return out
}

// Geos returns the GEO codes with a dedicated cultural context.
func Geos() []string {
	out := make([]string, 0, len(cultures))
	for k := range cultures {
		out = append(out, k)
	}
	return out
}

func cloneCulture(c CulturalContext) CulturalContext {
	out := c
	out.CulturalNotes = append([]string(nil), c.CulturalNotes...)
	out.LocalExpressions = append([]string(nil), c.LocalExpressions...)
	out.TrustSignals = append([]string(nil), c.TrustSignals...)
	out.Avoid = append([]string(nil), c.Avoid...)
	return out
}
