package curriculum

// Unit represents a theory unit loaded from YAML.
type Unit struct {
	ID           string         `yaml:"id" json:"id"`
	Title        string         `yaml:"title" json:"title"`
	Summary      string         `yaml:"summary" json:"summary"`
	Order        int            `yaml:"order" json:"order"`
	PracticeMode string         `yaml:"practice_mode" json:"practice_mode"`
	Sections     []Section      `yaml:"sections" json:"sections"`
	Quiz         []QuizQuestion `yaml:"quiz" json:"quiz"`
}

// Section is one block of theory content. Examples render monospaced.
type Section struct {
	Heading  string   `yaml:"heading" json:"heading"`
	Body     string   `yaml:"body" json:"body"`
	Examples []string `yaml:"examples,omitempty" json:"examples,omitempty"`
}

// QuizQuestion is a single-choice question at the end of a unit. The
// correct index never leaves the server.
type QuizQuestion struct {
	Prompt  string   `yaml:"prompt" json:"prompt"`
	Options []string `yaml:"options" json:"options"`
	Answer  int      `yaml:"answer" json:"-"`
}

// TheoryKey returns the XP category key for this unit's quiz.
func (u Unit) TheoryKey() string {
	return "theory_" + u.ID
}
