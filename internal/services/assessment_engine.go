package services

import (
	"log/slog"
	"math"
	"sort"

	"github.com/SAP-F-2025/career-assessment-service/internal/models"
)

// SignupGateThreshold is the number of answers after which an anonymous visitor is asked
// for an email
const SignupGateThreshold = 6

// numericScoreFactor scales a 1-5 answer into dimension points
const numericScoreFactor = 2

// DimensionScores maps a skill dimension to its accumulated score
type DimensionScores map[string]float64

// ResponseSet holds at most one response per question, keyed by question id
type ResponseSet map[uint]*models.AssessmentResponse

// NewResponseSet indexes responses by question; a later row for the same question wins
func NewResponseSet(responses []*models.AssessmentResponse) ResponseSet {
	set := make(ResponseSet, len(responses))
	for _, r := range responses {
		set[r.QuestionID] = r
	}
	return set
}

// CatalogQuestion is a question with its jsonb columns decoded once at catalog build
type CatalogQuestion struct {
	*models.AssessmentQuestion

	Dimensions   []string
	Condition    models.BranchCondition
	OptionScores map[uint]map[string]float64

	// set when the stored branch condition could not be understood
	conditionErr error
	// set when min or max level is outside the hierarchy
	badLevelBound bool
}

// CatalogIssue records a malformed catalog row found while building
type CatalogIssue struct {
	QuestionID uint   `json:"question_id"`
	Problem    string `json:"problem"`
}

// Catalog is the immutable, flattened question catalog
type Catalog struct {
	Modules   []*models.AssessmentModule
	Issues    []CatalogIssue
	questions []*CatalogQuestion
	byID      map[uint]*CatalogQuestion
}

// NewCatalog flattens modules into (module order, question order) and decodes every
// question once. Malformed rows are kept but flagged and logged here, never during filtering.
func NewCatalog(modules []*models.AssessmentModule, logger *slog.Logger) *Catalog {
	if logger == nil {
		logger = slog.Default()
	}

	ordered := make([]*models.AssessmentModule, len(modules))
	copy(ordered, modules)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].OrderIndex < ordered[j].OrderIndex })

	c := &Catalog{
		Modules: ordered,
		byID:    make(map[uint]*CatalogQuestion),
	}

	for _, module := range ordered {
		questions := make([]*models.AssessmentQuestion, 0, len(module.Questions))
		for i := range module.Questions {
			questions = append(questions, &module.Questions[i])
		}
		sort.SliceStable(questions, func(i, j int) bool { return questions[i].OrderIndex < questions[j].OrderIndex })

		for _, q := range questions {
			cq := c.decode(q)
			c.questions = append(c.questions, cq)
			c.byID[q.ID] = cq
		}
	}

	for _, issue := range c.Issues {
		logger.Warn("Malformed catalog question", "question_id", issue.QuestionID, "problem", issue.Problem)
	}

	return c
}

func (c *Catalog) decode(q *models.AssessmentQuestion) *CatalogQuestion {
	cq := &CatalogQuestion{
		AssessmentQuestion: q,
		OptionScores:       make(map[uint]map[string]float64, len(q.Options)),
	}

	dims, err := q.Dimensions()
	if err != nil {
		c.flag(q.ID, err.Error())
	}
	cq.Dimensions = dims

	cond, err := q.Condition()
	if err != nil {
		cq.conditionErr = err
		c.flag(q.ID, err.Error())
	}
	cq.Condition = cond
	if _, ok := cond.(models.ResponsePattern); ok {
		c.flag(q.ID, "requires_response_pattern has no evaluation rule; question is always shown")
	}

	for _, bound := range []*string{q.MinLevel, q.MaxLevel} {
		if levelSet(bound) && !models.IsKnownLevel(*bound) {
			cq.badLevelBound = true
			c.flag(q.ID, "unknown experience level "+*bound+"; question is hidden")
		}
	}

	for i := range q.Options {
		opt := &q.Options[i]
		scores, err := opt.Scores()
		if err != nil {
			c.flag(q.ID, err.Error())
			continue
		}
		if len(scores) > 0 {
			cq.OptionScores[opt.ID] = scores
		}
	}

	return cq
}

func (c *Catalog) flag(questionID uint, problem string) {
	c.Issues = append(c.Issues, CatalogIssue{QuestionID: questionID, Problem: problem})
}

// Questions returns every question in catalog order
func (c *Catalog) Questions() []*CatalogQuestion {
	return c.questions
}

// Question looks up a question by id
func (c *Catalog) Question(id uint) (*CatalogQuestion, bool) {
	q, ok := c.byID[id]
	return q, ok
}

// Len returns the number of questions in the catalog
func (c *Catalog) Len() int {
	return len(c.questions)
}

func levelSet(level *string) bool {
	return level != nil && *level != ""
}

// IsVisibleForLevel applies level gating to a question for the visitor's inferred level
func IsVisibleForLevel(q *CatalogQuestion, inferredLevel *string) bool {
	if q.IsCalibration {
		return true
	}

	hasMin, hasMax := levelSet(q.MinLevel), levelSet(q.MaxLevel)
	if !hasMin && !hasMax {
		return true
	}
	if q.badLevelBound {
		return false
	}

	if !levelSet(inferredLevel) {
		return !hasMin
	}

	ordinal := models.LevelOrdinal(*inferredLevel)
	if ordinal < 0 {
		return false
	}
	if hasMin && ordinal < models.LevelOrdinal(*q.MinLevel) {
		return false
	}
	if hasMax && ordinal > models.LevelOrdinal(*q.MaxLevel) {
		return false
	}
	return true
}

// PassesBranchCondition evaluates the question's dynamic condition against the scores so far.
// responses is accepted for condition kinds that look at individual answers.
func PassesBranchCondition(q *CatalogQuestion, scores DimensionScores, responses ResponseSet) bool {
	if q.conditionErr != nil {
		return false
	}

	switch cond := q.Condition.(type) {
	case nil:
		return true
	case models.DimensionThreshold:
		return cond.Contains(scores[cond.Dimension])
	case models.ResponsePattern:
		return true
	default:
		return false
	}
}

// ComputeDimensionScores folds every response into per-dimension totals. Responses are
// visited in question id order so floating point totals do not depend on input order.
func ComputeDimensionScores(catalog *Catalog, responses ResponseSet) DimensionScores {
	scores := make(DimensionScores)

	ids := make([]uint, 0, len(responses))
	for id := range responses {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	for _, id := range ids {
		response := responses[id]
		q, ok := catalog.Question(response.QuestionID)
		if !ok {
			continue
		}

		if response.SelectedOptionID != nil {
			for dim, value := range q.OptionScores[*response.SelectedOptionID] {
				scores[dim] += value
			}
		}

		if response.NumericValue != nil {
			for _, dim := range q.Dimensions {
				scores[dim] += float64(*response.NumericValue * numericScoreFactor)
			}
		}
	}

	return scores
}

// VisibleQuestions returns the currently eligible questions in catalog order, optionally
// narrowed to one module
func VisibleQuestions(catalog *Catalog, inferredLevel *string, responses ResponseSet, moduleID *uint) []*CatalogQuestion {
	scores := ComputeDimensionScores(catalog, responses)
	return visibleWithScores(catalog, inferredLevel, scores, responses, moduleID)
}

func visibleWithScores(catalog *Catalog, inferredLevel *string, scores DimensionScores, responses ResponseSet, moduleID *uint) []*CatalogQuestion {
	visible := make([]*CatalogQuestion, 0, catalog.Len())
	for _, q := range catalog.Questions() {
		if moduleID != nil && q.ModuleID != *moduleID {
			continue
		}
		if !IsVisibleForLevel(q, inferredLevel) {
			continue
		}
		if !PassesBranchCondition(q, scores, responses) {
			continue
		}
		visible = append(visible, q)
	}
	return visible
}

// CalculateProgress returns the answered share of visible questions as a rounded percentage.
// It is not clamped: answers to questions that became hidden still count.
func CalculateProgress(answeredCount, visibleCount int) int {
	if visibleCount == 0 {
		return 0
	}
	return int(math.Round(100 * float64(answeredCount) / float64(visibleCount)))
}

// ShouldShowSignupGate reports whether an anonymous visitor has answered enough to be asked
// for an email
func ShouldShowSignupGate(answeredCount int, email *string) bool {
	return answeredCount >= SignupGateThreshold && (email == nil || *email == "")
}

// AssessmentState is everything a client needs to render the assessment
type AssessmentState struct {
	Session        *models.AssessmentSession
	Questions      []*CatalogQuestion
	Scores         DimensionScores
	Progress       int
	AnsweredCount  int
	ShowSignupGate bool
}

// ComputeState derives the full assessment state from persisted rows
func ComputeState(catalog *Catalog, session *models.AssessmentSession, responses ResponseSet, moduleID *uint) *AssessmentState {
	scores := ComputeDimensionScores(catalog, responses)
	questions := visibleWithScores(catalog, session.InferredLevel, scores, responses, moduleID)
	answered := len(responses)

	return &AssessmentState{
		Session:        session,
		Questions:      questions,
		Scores:         scores,
		Progress:       CalculateProgress(answered, len(questions)),
		AnsweredCount:  answered,
		ShowSignupGate: ShouldShowSignupGate(answered, session.Email),
	}
}
