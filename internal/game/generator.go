package game

import (
	"fmt"
	"maps"
	"math"
	"math/rand/v2"
	"slices"
	"strconv"
)

const (
	optionCount = 4
	// Random distractor fill gives up after this many draws and switches to
	// a deterministic fallback, so narrow ranges can never loop forever.
	maxFillAttempts = 32
)

// Generator produces randomized questions. It is not safe for concurrent
// use; the session manager owns one behind its lock.
type Generator struct {
	rng *rand.Rand
}

// NewGenerator returns a generator backed by the system random source.
func NewGenerator() *Generator {
	return NewSeededGenerator(rand.Uint64(), rand.Uint64())
}

// NewSeededGenerator returns a deterministic generator for the given seed.
func NewSeededGenerator(s1, s2 uint64) *Generator {
	return &Generator{rng: rand.New(rand.NewPCG(s1, s2))}
}

// Generate produces a question for the mode/difficulty pair. It never fails
// for valid inputs; unknown modes fall back to ordering.
func (g *Generator) Generate(mode Mode, diff Difficulty) Question {
	switch mode {
	case ModeOrdering:
		return g.ordering(diff)
	case ModeCombined:
		return g.combined(diff)
	case ModeMixed:
		return g.mixed(diff)
	case ModePowers:
		return g.powers(diff)
	case ModeRoots:
		return g.roots(diff)
	case ModeAddition, ModeSubtraction, ModeMultiplication, ModeDivision:
		return g.arithmetic(mode, diff)
	default:
		return g.ordering(diff)
	}
}

// intBetween draws from [min, max] inclusive.
func (g *Generator) intBetween(min, max int) int {
	return min + g.rng.IntN(max-min+1)
}

// coin returns +1 or -1.
func (g *Generator) coin() int {
	if g.rng.IntN(2) == 0 {
		return 1
	}
	return -1
}

func (g *Generator) ordering(diff Difficulty) Question {
	count, rangeMax := 5, 100
	switch diff {
	case Easy:
		count, rangeMax = 4, 10
	case Medium:
		rangeMax = 25
	}

	nums := make(map[int]bool, count)
	for len(nums) < count {
		n := g.intBetween(-rangeMax, rangeMax)
		if n != 0 {
			nums[n] = true
		}
	}
	seq := slices.Sorted(maps.Keys(nums))

	opts := make([]Option, 0, count)
	for _, n := range seq {
		opts = append(opts, Option{Value: strconv.Itoa(n), Correct: true, Num: n})
	}
	g.rng.Shuffle(len(opts), func(i, j int) { opts[i], opts[j] = opts[j], opts[i] })

	return Question{
		Prompt:      "Ordenatu zenbakiak TXIKIENETIK HANDIERA",
		Options:     opts,
		Kind:        KindOrdering,
		Sequence:    seq,
		Explanation: "Gogoratu: Zenbaki negatiboetan, zenbat eta urrunago zerotik, orduan eta txikiagoa.",
	}
}

func (g *Generator) arithmetic(mode Mode, diff Difficulty) Question {
	rangeMax := 50
	switch diff {
	case Easy:
		rangeMax = 9
	case Medium:
		rangeMax = 20
	}

	a := g.intBetween(-rangeMax, rangeMax)
	b := g.intBetween(-rangeMax, rangeMax)
	if mode == ModeDivision {
		if b == 0 {
			b = 2
		}
		quotient := g.intBetween(-10, 10)
		if quotient == 0 {
			quotient = 2
		}
		a = quotient * b
	}

	prompt, ans := arithmeticParts(mode, a, b)
	correct := formatSigned(ans)
	opts := newOptionSet(correct)

	// Near miss.
	off := g.intBetween(1, 2)
	if g.rng.IntN(2) == 0 {
		off = -off
	}
	opts.add(formatSigned(ans + off))

	// Wrong operator.
	if w := wrongOperatorAnswer(mode, a, b); w != ans {
		opts.add(formatSigned(w))
	}

	// Occasional sign flip.
	if ans != 0 && g.rng.Float64() < 0.2 {
		opts.add(formatSigned(-ans))
	}

	variance := int(math.Max(5, math.Abs(float64(ans))*0.4))
	for i := 0; opts.size() < optionCount && i < maxFillAttempts; i++ {
		if r := g.intBetween(ans-variance, ans+variance); r != ans {
			opts.add(formatSigned(r))
		}
	}
	for k := 1; opts.size() < optionCount; k++ {
		opts.add(formatSigned(ans + variance + k))
	}

	return Question{
		Prompt:      prompt,
		Options:     g.quizOptions(opts, correct),
		Kind:        KindQuiz,
		Explanation: fmt.Sprintf("Erantzuna: %s.", correct),
	}
}

func (g *Generator) powers(diff Difficulty) Question {
	baseMax := 15
	if diff == Easy {
		baseMax = 9
	}
	base := g.intBetween(2, baseMax)
	e1 := g.intBetween(2, 5)
	e2 := g.intBetween(2, 5)

	var rule powersRule
	switch g.intBetween(1, 3) {
	case 1:
		rule = powersProduct(base, e1, e2)
	case 2:
		if e2 >= e1 {
			// Force a dividend exponent strictly above the divisor's.
			e1, e2 = e2+g.intBetween(1, 3), e1
		}
		rule = powersQuotient(base, e1, e2)
	default:
		rule = powerOfPower(base, e1, e2)
	}

	correct := powerValue(base, rule.correctExp)
	opts := newOptionSet(correct)
	for _, w := range rule.wrongExps {
		opts.add(powerValue(base, w))
	}
	for i := 0; opts.size() < optionCount && i < maxFillAttempts; i++ {
		opts.add(powerValue(base, rule.correctExp+g.intBetween(1, 5)*g.coin()))
	}
	for k := 1; opts.size() < optionCount; k++ {
		opts.add(powerValue(base, rule.correctExp+5+k))
	}

	return Question{
		Prompt:      rule.prompt,
		Options:     g.quizOptions(opts, correct),
		Kind:        KindQuiz,
		Explanation: rule.explanation,
	}
}

func (g *Generator) roots(diff Difficulty) Question {
	rootMax := 15
	if diff == Easy {
		rootMax = 10
	}
	root := g.intBetween(1, rootMax)
	square := root * root

	correct := strconv.Itoa(root)
	opts := newOptionSet(correct)
	opts.add(strconv.Itoa(root + 1))
	opts.add(strconv.Itoa(root - 1))
	opts.add(strconv.Itoa(square / 2))
	for k := 2; opts.size() < optionCount; k++ {
		opts.add(strconv.Itoa(root + k))
	}

	return Question{
		Prompt:      fmt.Sprintf("√%d = ?", square),
		Options:     g.quizOptions(opts, correct),
		Kind:        KindQuiz,
		Explanation: fmt.Sprintf("Erantzuna: %d, zeren %d² = %d.", root, root, square),
	}
}

func (g *Generator) combined(diff Difficulty) Question {
	templates := 2
	if diff == Hard {
		templates = 4
	}
	rangeMax := 10
	if diff == Easy {
		rangeMax = 5
	}

	a := g.intBetween(-rangeMax, rangeMax)
	b := g.intBetween(-rangeMax, rangeMax)
	c := g.intBetween(-rangeMax, rangeMax)
	if a == 0 {
		a = 2
	}
	if b == 0 {
		b = 3
	}
	if c == 0 {
		c = -2
	}

	var prompt string
	var ans, wrong1 int
	switch g.intBetween(1, templates) {
	case 1:
		prompt = fmt.Sprintf("%d + %s · %s = ?", a, wrapNegative(b), wrapNegative(c))
		ans = a + b*c
		wrong1 = (a + b) * c
	case 2:
		sign := "+"
		if b < 0 {
			sign = "-"
		}
		prompt = fmt.Sprintf("(%d %s %d) · %s = ?", a, sign, abs(b), wrapNegative(c))
		ans = (a + b) * c
		wrong1 = a + b*c
	case 3:
		// Regenerate b as a multiple of c so the division is exact.
		b = c * g.intBetween(1, 5) * g.coin()
		prompt = fmt.Sprintf("%d - %s : %s = ?", a, wrapNegative(b), wrapNegative(c))
		ans = a - b/c
		wrong1 = (a - b) / c
	default:
		prompt = fmt.Sprintf("%s · %s - %s = ?", wrapNegative(a), wrapNegative(b), wrapNegative(c))
		ans = a*b - c
		wrong1 = a * (b - c)
	}

	correct := strconv.Itoa(ans)
	opts := newOptionSet(correct)
	opts.add(strconv.Itoa(wrong1))
	opts.add(strconv.Itoa(-ans))
	opts.add(strconv.Itoa(ans + g.intBetween(1, 5)*g.coin()))
	for i := 0; opts.size() < optionCount && i < maxFillAttempts; i++ {
		opts.add(strconv.Itoa(g.intBetween(-50, 50)))
	}
	for k := 1; opts.size() < optionCount; k++ {
		opts.add(strconv.Itoa(ans + 50 + k))
	}

	return Question{
		Prompt:      prompt,
		Options:     g.quizOptions(opts, correct),
		Kind:        KindQuiz,
		Explanation: "Hierarkia (PEMDAS): Parentesiak lehenengo, gero Berreketak/Erroak, gero Biderketa/Zatiketa, azkenik Batuketa/Kenketa.",
	}
}

func (g *Generator) mixed(diff Difficulty) Question {
	r := g.rng.Float64()
	switch {
	case r < 0.15:
		return g.ordering(diff)
	case r < 0.35:
		return g.combined(diff)
	}
	basics := []Mode{ModeAddition, ModeSubtraction, ModeMultiplication, ModeDivision, ModePowers, ModeRoots}
	return g.Generate(basics[g.rng.IntN(len(basics))], diff)
}

// quizOptions shuffles the deduplicated values into Options, marking the
// correct one.
func (g *Generator) quizOptions(opts *optionSet, correct string) []Option {
	out := make([]Option, 0, len(opts.values))
	for _, v := range opts.values {
		out = append(out, Option{Value: v, Correct: v == correct})
	}
	g.rng.Shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
	return out
}

// arithmeticParts renders the prompt and computes the answer for the given
// operands. Division callers must guarantee b != 0 and a divisible by b.
func arithmeticParts(mode Mode, a, b int) (prompt string, answer int) {
	var op string
	switch mode {
	case ModeAddition:
		op, answer = "+", a+b
	case ModeSubtraction:
		op, answer = "-", a-b
	case ModeMultiplication:
		op, answer = "×", a*b
	case ModeDivision:
		op, answer = ":", a/b
	}
	prompt = fmt.Sprintf("%s %s %s = ?", wrapNegative(a), op, wrapNegative(b))
	return prompt, answer
}

// wrongOperatorAnswer is the result of applying the neighboring operator,
// used as a distractor.
func wrongOperatorAnswer(mode Mode, a, b int) int {
	switch mode {
	case ModeAddition:
		return a - b
	case ModeSubtraction:
		return a + b
	case ModeMultiplication:
		return a + b
	default:
		return a - b
	}
}

// powersRule captures one exponent-law question: prompt, the correct
// exponent and same-base wrong exponents.
type powersRule struct {
	prompt      string
	correctExp  int
	wrongExps   [3]int
	explanation string
}

func powersProduct(base, e1, e2 int) powersRule {
	correct := e1 + e2
	return powersRule{
		prompt:      fmt.Sprintf("%d^%d · %d^%d = ?", base, e1, base, e2),
		correctExp:  correct,
		wrongExps:   [3]int{e1 * e2, abs(e1 - e2), correct + 1},
		explanation: fmt.Sprintf("Oinarri berdineko biderketan, berretzaileak BATU egiten dira (%d + %d = %d).", e1, e2, correct),
	}
}

// powersQuotient requires e1 > e2.
func powersQuotient(base, e1, e2 int) powersRule {
	correct := e1 - e2
	return powersRule{
		prompt:      fmt.Sprintf("%d^%d : %d^%d = ?", base, e1, base, e2),
		correctExp:  correct,
		wrongExps:   [3]int{e1 + e2, e1 / e2, correct + 2},
		explanation: fmt.Sprintf("Oinarri berdineko zatiketan, berretzaileak KENDU egiten dira (%d - %d = %d).", e1, e2, correct),
	}
}

func powerOfPower(base, e1, e2 int) powersRule {
	correct := e1 * e2
	return powersRule{
		prompt:      fmt.Sprintf("(%d^%d)^%d = ?", base, e1, e2),
		correctExp:  correct,
		wrongExps:   [3]int{e1 + e2, intPow(e1, e2), correct - 1},
		explanation: fmt.Sprintf("Berreketaren berreketan, berretzaileak BIDERKATU egiten dira (%d · %d = %d).", e1, e2, correct),
	}
}

func powerValue(base, exp int) string {
	return fmt.Sprintf("%d^%d", base, exp)
}

// formatSigned renders n with an explicit sign when positive.
func formatSigned(n int) string {
	if n > 0 {
		return fmt.Sprintf("+%d", n)
	}
	return strconv.Itoa(n)
}

// wrapNegative parenthesizes negative operands inside prompts.
func wrapNegative(n int) string {
	if n < 0 {
		return fmt.Sprintf("(%d)", n)
	}
	return strconv.Itoa(n)
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

func intPow(base, exp int) int {
	out := 1
	for range exp {
		out *= base
	}
	return out
}

// optionSet is an insertion-ordered string set for answer deduplication.
type optionSet struct {
	values []string
	seen   map[string]bool
}

func newOptionSet(first string) *optionSet {
	s := &optionSet{seen: make(map[string]bool, optionCount)}
	s.add(first)
	return s
}

func (s *optionSet) add(v string) {
	if s.seen[v] {
		return
	}
	s.seen[v] = true
	s.values = append(s.values, v)
}

func (s *optionSet) size() int {
	return len(s.values)
}
