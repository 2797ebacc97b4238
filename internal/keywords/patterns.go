package keywords

import (
	"regexp"
	"sort"
)

// bankEntry maps a pattern over keyword-normalized text to the term it reports.
type bankEntry struct {
	term string
	expr string
}

// fallbackBank is matched against job text normalized with NormalizeKeywordText,
// so digits and periods are already gone and '-', '+', '#', '/' survive.
var fallbackBank = []bankEntry{
	// languages
	{"python", `python`},
	{"java", `java`},
	{"javascript", `javascript|js`},
	{"typescript", `typescript|ts`},
	{"go", `golang|go (?:developer|engineer|programming|language)`},
	{"c++", `c\+\+|cpp`},
	{"c#", `c#|csharp`},
	{"ruby", `ruby(?: on rails)?`},
	{"php", `php`},
	{"rust", `rust`},
	{"scala", `scala`},
	{"kotlin", `kotlin`},
	{"swift", `swift`},
	{"sql", `sql`},
	// frameworks and apis
	{"react", `react(?: ?js)?`},
	{"angular", `angular(?: ?js)?`},
	{"vue", `vue(?: ?js)?`},
	{"node.js", `node(?: ?js)?`},
	{"django", `django`},
	{"flask", `flask`},
	{"spring boot", `spring(?: boot)?`},
	{"graphql", `graphql`},
	{"rest api", `rest(?:ful)?(?: apis?| services?)`},
	{"microservices", `micro-?services?`},
	// data
	{"postgresql", `postgres(?:ql)?`},
	{"mysql", `mysql`},
	{"mongodb", `mongo(?:db)?`},
	{"redis", `redis`},
	{"kafka", `(?:apache )?kafka`},
	{"spark", `(?:apache )?spark`},
	{"elasticsearch", `elastic ?search`},
	{"machine learning", `machine learning|ml`},
	{"deep learning", `deep learning`},
	{"nlp", `nlp|natural language processing`},
	{"data analysis", `data analy(?:sis|tics)`},
	{"etl", `etl`},
	{"pandas", `pandas`},
	{"tensorflow", `tensorflow`},
	{"pytorch", `pytorch`},
	// cloud and delivery
	{"aws", `aws|amazon web services`},
	{"azure", `(?:microsoft )?azure`},
	{"gcp", `gcp|google cloud(?: platform)?`},
	{"docker", `docker`},
	{"kubernetes", `kubernetes`},
	{"terraform", `terraform`},
	{"ansible", `ansible`},
	{"jenkins", `jenkins`},
	{"ci/cd", `ci/cd|ci cd|continuous integration`},
	{"git", `git`},
	{"linux", `linux`},
	{"devops", `devops`},
	// practices
	{"agile", `agile`},
	{"scrum", `scrum`},
	{"tdd", `tdd|test-driven development|test driven development`},
	{"unit testing", `unit test(?:s|ing)?`},
	{"system design", `system design`},
	// roles, level and soft skills
	{"senior", `senior`},
	{"team lead", `team lead|tech lead|technical lead`},
	{"leadership", `leadership`},
	{"mentoring", `mentor(?:ing|ship)?`},
	{"project management", `project management`},
	{"communication", `communication`},
	{"stakeholder management", `stakeholders?(?: management)?`},
	// certifications and degrees
	{"pmp", `pmp`},
	{"cissp", `cissp`},
	{"aws certified", `aws certified`},
	{"bachelor's degree", `bachelor(?: ?s)?(?: degree)?|bsc`},
	{"master's degree", `master(?: ?s)? degree|msc`},
}

// boundary marks the edge of a term: anything that cannot be part of a technical token.
const boundary = `(?:^|[^a-z+#])`
const boundaryEnd = `(?:$|[^a-z+#])`

type compiledEntry struct {
	term string
	re   *regexp.Regexp
}

var compiledBank = compileBank(fallbackBank)

func compileBank(bank []bankEntry) []compiledEntry {
	out := make([]compiledEntry, 0, len(bank))
	for _, e := range bank {
		out = append(out, compiledEntry{
			term: e.term,
			re:   regexp.MustCompile(boundary + `(?:` + e.expr + `)` + boundaryEnd),
		})
	}
	return out
}

// matchBank returns the bank terms found in normalized, ordered by first occurrence, capped at limit.
func matchBank(normalized string, limit int) []string {
	type hit struct {
		term string
		pos  int
	}

	var hits []hit
	seen := make(map[string]bool)
	for _, e := range compiledBank {
		if seen[e.term] {
			continue
		}
		loc := e.re.FindStringIndex(normalized)
		if loc == nil {
			continue
		}
		seen[e.term] = true
		hits = append(hits, hit{term: e.term, pos: loc[0]})
	}

	sort.SliceStable(hits, func(i, j int) bool { return hits[i].pos < hits[j].pos })

	terms := make([]string, 0, min(len(hits), limit))
	for _, h := range hits {
		if len(terms) >= limit {
			break
		}
		terms = append(terms, h.term)
	}
	return terms
}
