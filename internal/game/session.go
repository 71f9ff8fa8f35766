package game

import (
	"crypto/rand"
	"fmt"
	"sync"
	"time"
)

// QuestionsPerSession is the fixed length of a practice game.
const QuestionsPerSession = 5

// BasePoints is the score for a correct answer at streak zero.
func BasePoints(diff Difficulty) int {
	switch diff {
	case Hard:
		return 25
	case Medium:
		return 15
	default:
		return 10
	}
}

// StreakBonus is the per-streak-step score increment.
func StreakBonus(diff Difficulty) int {
	if diff == Hard {
		return 3
	}
	return 2
}

// Points is the score earned for a correct answer at the given streak.
func Points(diff Difficulty, streak int) int {
	return BasePoints(diff) + streak*StreakBonus(diff)
}

// Penalty is the XP deducted on a wrong answer or timeout: one and a half
// times what the answer would have earned, rounded down.
func Penalty(diff Difficulty, streak int) int {
	return Points(diff, streak) * 3 / 2
}

// CompletionBonus is awarded when a finished session's score meets
// completionThreshold.
func CompletionBonus(diff Difficulty) int {
	switch diff {
	case Hard:
		return 50
	case Medium:
		return 30
	default:
		return 10
	}
}

func completionThreshold(diff Difficulty) int {
	if diff == Hard {
		return 50
	}
	return 30
}

// questionTime is the answer deadline on hard difficulty. Easy and medium
// are untimed.
func questionTime(mode Mode, kind Kind) time.Duration {
	if kind == KindOrdering || mode == ModeCombined || mode == ModeMixed {
		return 45 * time.Second
	}
	return 30 * time.Second
}

// Session is one in-flight practice game.
type Session struct {
	ID          string     `json:"id"`
	UserID      string     `json:"-"`
	Mode        Mode       `json:"mode"`
	Difficulty  Difficulty `json:"difficulty"`
	QuestionNum int        `json:"question_num"` // 1-based
	Score       int        `json:"score"`
	Streak      int        `json:"streak"` // consecutive correct answers
	XPGained    int        `json:"xp_gained"`
	Question    *Question  `json:"question"`
	Deadline    time.Time  `json:"deadline,omitzero"` // zero when untimed
	Over        bool       `json:"over"`

	orderingStep int
}

// Clone returns an independent copy safe to read outside the manager's
// lock.
func (s *Session) Clone() *Session {
	c := *s
	if s.Question != nil {
		q := *s.Question
		q.Options = append([]Option(nil), s.Question.Options...)
		q.Sequence = append([]int(nil), s.Question.Sequence...)
		c.Question = &q
	}
	return &c
}

// CategoryKey is the XP ledger key this session reports into.
func (s *Session) CategoryKey() string {
	return CategoryKey(s.Mode, s.Difficulty)
}

// Answer is a submitted response: an option index for quiz questions, or
// the clicked numeric value for ordering questions.
type Answer struct {
	OptionIndex int `json:"option"`
	ClickedNum  int `json:"num"`
}

// Result describes the outcome of one submitted answer.
type Result struct {
	Correct     bool      `json:"correct"`
	TimedOut    bool      `json:"timed_out"`
	Advanced    bool      `json:"advanced"` // ordering: correct intermediate click, nothing scored
	Points      int       `json:"points"`
	XPDelta     int       `json:"-"` // requested ledger change; caller applies it
	Explanation string    `json:"explanation,omitempty"`
	Done        bool      `json:"done"`
	Bonus       int       `json:"bonus,omitempty"` // completion bonus, only when Done
	Next        *Question `json:"-"`
}

// Summary wraps up a finished session for the end-of-game screen.
type Summary struct {
	Score    int `json:"score"`
	Stars    int `json:"stars"` // 1 to 3
	XPGained int `json:"xp_gained"`
}

// stars rates a finished session's score. Hard difficulty has higher
// bars.
func stars(diff Difficulty, score int) int {
	three, two := 50, 30
	if diff == Hard {
		three, two = 100, 50
	}
	switch {
	case score > three:
		return 3
	case score > two:
		return 2
	default:
		return 1
	}
}

// Manager tracks in-flight sessions. All state transitions happen under its
// lock; question generation shares the single Generator.
type Manager struct {
	mu       sync.Mutex
	sessions map[string]*Session
	gen      *Generator
	now      func() time.Time
}

// NewManager creates a session manager.
func NewManager(gen *Generator) *Manager {
	if gen == nil {
		gen = NewGenerator()
	}
	return &Manager{
		sessions: make(map[string]*Session),
		gen:      gen,
		now:      time.Now,
	}
}

// Start opens a new 5-question session and generates its first question.
// Gate checks are the caller's responsibility.
func (m *Manager) Start(userID string, mode Mode, diff Difficulty) *Session {
	m.mu.Lock()
	defer m.mu.Unlock()

	s := &Session{
		ID:          newSessionID(),
		UserID:      userID,
		Mode:        mode,
		Difficulty:  diff,
		QuestionNum: 1,
	}
	m.nextQuestion(s)
	m.sessions[s.ID] = s
	return s.Clone()
}

// Get returns a snapshot of the session by ID for the given user.
func (m *Manager) Get(id, userID string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[id]
	if !ok || s.UserID != userID {
		return nil, fmt.Errorf("session not found: %s", id)
	}
	return s.Clone(), nil
}

// AddXP records ledger XP actually granted or deducted for the session's
// running total. Unknown sessions are ignored.
func (m *Manager) AddXP(id string, amount int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.sessions[id]; ok {
		s.XPGained += amount
	}
}

// Finish closes a finished session and returns its summary.
func (m *Manager) Finish(id, userID string) (Summary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[id]
	if !ok || s.UserID != userID {
		return Summary{}, fmt.Errorf("session not found: %s", id)
	}
	if !s.Over {
		return Summary{}, fmt.Errorf("session still in progress: %s", id)
	}
	delete(m.sessions, id)
	return Summary{
		Score:    s.Score,
		Stars:    stars(s.Difficulty, s.Score),
		XPGained: s.XPGained,
	}, nil
}

// Submit evaluates an answer against the session's current question and
// advances the session. The returned Result carries the XP delta the caller
// must apply to the ledger.
func (m *Manager) Submit(id, userID string, ans Answer) (*Result, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[id]
	if !ok || s.UserID != userID {
		return nil, fmt.Errorf("session not found: %s", id)
	}
	if s.Over {
		return nil, fmt.Errorf("session already finished: %s", id)
	}

	if !s.Deadline.IsZero() && m.now().After(s.Deadline) {
		res := &Result{
			TimedOut:    true,
			XPDelta:     -Penalty(s.Difficulty, s.Streak),
			Explanation: "Denbora agortu da. Azkarrago hurrengoan!",
		}
		s.Streak = 0
		m.advance(s, res)
		return res, nil
	}

	if s.Question.Kind == KindOrdering {
		return m.submitOrdering(s, ans)
	}
	return m.submitQuiz(s, ans)
}

// Drop discards a session, e.g. when the user abandons the game.
func (m *Manager) Drop(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
}

func (m *Manager) submitQuiz(s *Session, ans Answer) (*Result, error) {
	if ans.OptionIndex < 0 || ans.OptionIndex >= len(s.Question.Options) {
		return nil, fmt.Errorf("option index out of range: %d", ans.OptionIndex)
	}

	res := &Result{Explanation: s.Question.Explanation}
	if s.Question.Options[ans.OptionIndex].Correct {
		res.Correct = true
		res.Points = Points(s.Difficulty, s.Streak)
		res.XPDelta = res.Points
		s.Score += res.Points
		s.Streak++
	} else {
		res.XPDelta = -Penalty(s.Difficulty, s.Streak)
		s.Streak = 0
	}
	m.advance(s, res)
	return res, nil
}

func (m *Manager) submitOrdering(s *Session, ans Answer) (*Result, error) {
	target := s.Question.Sequence[s.orderingStep]

	if ans.ClickedNum != target {
		// Wrong click penalizes at the pre-reset streak but keeps the
		// progress already made.
		res := &Result{
			XPDelta:     -Penalty(s.Difficulty, s.Streak),
			Explanation: "Ordena okerra! Saiatu berriro.",
		}
		s.Streak = 0
		return res, nil
	}

	s.orderingStep++
	if s.orderingStep < len(s.Question.Sequence) {
		return &Result{Correct: true, Advanced: true}, nil
	}

	res := &Result{
		Correct:     true,
		Points:      Points(s.Difficulty, s.Streak),
		Explanation: s.Question.Explanation,
	}
	res.XPDelta = res.Points
	s.Score += res.Points
	s.Streak++
	m.advance(s, res)
	return res, nil
}

// advance moves the session to its next question, or finishes it after the
// fifth. Only finished sessions report a completion bonus. A finished
// session stays in the map until Finish collects its summary.
func (m *Manager) advance(s *Session, res *Result) {
	if s.QuestionNum >= QuestionsPerSession {
		s.Over = true
		s.Question = nil
		s.Deadline = time.Time{}
		res.Done = true
		if s.Score >= completionThreshold(s.Difficulty) {
			res.Bonus = CompletionBonus(s.Difficulty)
		}
		return
	}
	s.QuestionNum++
	m.nextQuestion(s)
	res.Next = s.Question
}

func (m *Manager) nextQuestion(s *Session) {
	q := m.gen.Generate(s.Mode, s.Difficulty)
	s.Question = &q
	s.orderingStep = 0
	s.Deadline = time.Time{}
	if s.Difficulty == Hard {
		s.Deadline = m.now().Add(questionTime(s.Mode, q.Kind))
	}
}

func newSessionID() string {
	b := make([]byte, 16)
	rand.Read(b)
	return fmt.Sprintf("%x", b)
}
